package services

import (
	"context"
	"strings"
	"unicode"
	"wikistats/internal/providers"
	"wikistats/internal/snapshot"
)

// GenerateResponse lists the files produced for one article.
type GenerateResponse struct {
	Title string   `json:"title"`
	Slug  string   `json:"slug"`
	Files []string `json:"files"`
}

type GenerationServiceInterface interface {
	Generate(ctx context.Context, title string, limit int) (*GenerateResponse, error)
}

// GenerationService materializes an article's statistics as static data
// files: one aggregated stats file per interval, a preview card, and the
// raw series as a compressed archive.
type GenerationService struct {
	revisions RevisionServiceInterface
	writer    *snapshot.Writer
	logger    providers.Logger
}

func NewGenerationService(revisions RevisionServiceInterface, writer *snapshot.Writer, logger providers.Logger) GenerationServiceInterface {
	return &GenerationService{
		revisions: revisions,
		writer:    writer,
		logger:    logger,
	}
}

func (gs *GenerationService) Generate(ctx context.Context, title string, limit int) (*GenerateResponse, error) {
	series, err := gs.revisions.GetSeries(ctx, title, limit, nil, nil, "")
	if err != nil {
		return nil, err
	}
	preview, err := gs.revisions.GetPreview(ctx, title)
	if err != nil {
		return nil, err
	}

	slug := Slugify(title)
	files := make([]string, 0, len(AllIntervals)+2)

	for _, interval := range AllIntervals {
		aggregated := Aggregate(series.Points, interval)
		name, err := gs.writer.WriteJSON(slug+"-"+string(interval), aggregated)
		if err != nil {
			return nil, err
		}
		files = append(files, name)
	}

	previewFile, err := gs.writer.WriteJSON(slug+"-preview", preview)
	if err != nil {
		return nil, err
	}
	files = append(files, previewFile)

	rawFile, err := gs.writer.WriteCompressed(slug, series)
	if err != nil {
		return nil, err
	}
	files = append(files, rawFile)

	gs.logger.Infof(providers.TypeApp, "Generated %d files for %q", len(files), title)

	resolvedTitle := preview.Title
	if resolvedTitle == "" {
		resolvedTitle = title
	}
	return &GenerateResponse{Title: resolvedTitle, Slug: slug, Files: files}, nil
}

// Slugify turns an article title into a safe file name stem: lowercase,
// whitespace collapsed to underscores, anything else to dashes.
func Slugify(title string) string {
	normalized := strings.Join(strings.Fields(strings.TrimSpace(title)), "_")

	var b strings.Builder
	for _, r := range normalized {
		c := unicode.ToLower(r)
		switch {
		case unicode.IsLetter(c) || unicode.IsDigit(c):
			b.WriteRune(c)
		case c == '_' || c == '-':
			b.WriteRune(c)
		default:
			b.WriteRune('-')
		}
	}
	return strings.Trim(b.String(), "-")
}
