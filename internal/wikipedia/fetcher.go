package wikipedia

import (
	"context"
	"fmt"
	"net/http"
	"time"
	"wikistats/internal/models"
	"wikistats/internal/providers"
)

const (
	// MediaWiki serves at most 500 revisions per request for anonymous
	// clients.
	maxPageSize = 500

	minLimit = 1
	maxLimit = 500000
)

// wikipediaFounding is the lower bound for every date window: no
// revision can predate the site itself.
var wikipediaFounding = time.Date(2001, 1, 15, 0, 0, 0, 0, time.UTC)

type FetcherInterface interface {
	FetchSeries(ctx context.Context, title string, limit int, from, to *time.Time, cursor string) (*models.RevisionSeries, error)
	FetchPreview(ctx context.Context, title string) (*models.ArticlePreview, error)
}

// Fetcher walks an article's revision history backwards in time, page by
// page, through the disk cache and the retrying client. One call
// produces one atomic series plus a cursor to resume further back.
type Fetcher struct {
	client ClientInterface
	cache  *DiskCache
	logger providers.Logger
}

func NewFetcher(client ClientInterface, cache *DiskCache, logger providers.Logger) FetcherInterface {
	return &Fetcher{
		client: client,
		cache:  cache,
		logger: logger,
	}
}

func (f *Fetcher) FetchSeries(ctx context.Context, title string, limit int, from, to *time.Time, cursor string) (*models.RevisionSeries, error) {
	if title == "" {
		return nil, invalidArgumentf("title must not be blank")
	}

	safeLimit := limit
	if safeLimit < minLimit {
		safeLimit = minLimit
	}
	if safeLimit > maxLimit {
		safeLimit = maxLimit
	}

	var fromInstant, toInstant *time.Time
	if from != nil && to != nil {
		if to.Before(*from) {
			return nil, invalidArgumentf("`to` must be the same as or after `from`")
		}
		start := from.UTC().Truncate(24 * time.Hour)
		if start.Before(wikipediaFounding) {
			start = wikipediaFounding
		}
		end := to.UTC().Truncate(24 * time.Hour).Add(24*time.Hour - time.Second)
		fromInstant, toInstant = &start, &end

		if end.Before(wikipediaFounding) {
			return &models.RevisionSeries{Title: title, Points: []models.RevisionPoint{}}, nil
		}
	}

	points := make([]models.RevisionPoint, 0, min(safeLimit, 1024))
	seen := make(map[int64]struct{}, min(safeLimit, 1024))

	continueToken, continueParam := DecodeCursor(cursor)
	lastCursor := ""
	reachedFromBoundary := false

	for len(points) < safeLimit && !reachedFromBoundary {
		page, err := f.fetchRevisionsPage(ctx, title, min(maxPageSize, safeLimit-len(points)),
			fromInstant, toInstant, continueToken, continueParam)
		if err != nil {
			return nil, err
		}

		nextToken, nextParam := page.ContinueToken()
		if nextToken != "" && nextParam == "" {
			nextParam = defaultContinueParam
		}
		lastCursor = EncodeCursor(nextToken, nextParam)

		// An empty page means the history is exhausted, even if it still
		// carried a continuation token.
		revisions := page.Revisions()
		if len(revisions) == 0 {
			lastCursor = ""
			break
		}

		for _, rev := range revisions {
			if len(points) >= safeLimit {
				break
			}
			ts, err := time.Parse(time.RFC3339, rev.Timestamp)
			if err != nil {
				return nil, &StatusError{
					Code:    http.StatusBadGateway,
					Message: fmt.Sprintf("malformed revision timestamp %q", rev.Timestamp),
				}
			}

			// Pages walk newest to oldest, so the first timestamp before
			// the window start ends the whole fetch.
			if fromInstant != nil && ts.Before(*fromInstant) {
				reachedFromBoundary = true
				break
			}
			if toInstant != nil && ts.After(*toInstant) {
				continue
			}

			if _, dup := seen[rev.RevId]; dup {
				continue
			}
			seen[rev.RevId] = struct{}{}
			points = append(points, models.RevisionPoint{
				Id:        rev.RevId,
				Timestamp: ts,
				Size:      rev.Size,
				User:      rev.User,
			})
		}

		if reachedFromBoundary || nextToken == "" {
			break
		}
		continueToken, continueParam = nextToken, nextParam
	}

	models.SortPoints(points)

	series := &models.RevisionSeries{Title: title, Points: points}
	if !reachedFromBoundary {
		series.OlderCursor = lastCursor
	}
	return series, nil
}

// fetchRevisionsPage serves one page, cache first. Date bounds go out
// only on a fresh request: a continuation token already encodes the
// position, and MediaWiki rejects resending the bounds alongside it.
func (f *Fetcher) fetchRevisionsPage(ctx context.Context, title string, limit int, from, to *time.Time, continueToken, continueParam string) (*RevisionsResponse, error) {
	var rvstart, rvend string
	if continueToken == "" {
		if to != nil {
			rvstart = to.UTC().Format(time.RFC3339)
		}
		if from != nil {
			rvend = from.UTC().Format(time.RFC3339)
		}
	}

	key := f.cache.Key(title, limit, rvstart, rvend, continueToken, continueParam)
	if cached := f.cache.Read(key); cached != nil {
		f.logger.Debugf(providers.TypeMediaWiki, "Cache hit title=%q limit=%d rvcontinue=%q", title, limit, continueToken)
		return cached, nil
	}

	f.logger.Debugf(providers.TypeMediaWiki, "Request title=%q limit=%d rvstart=%q rvend=%q rvcontinue=%q",
		title, limit, rvstart, rvend, continueToken)

	resp, err := f.client.GetRevisions(ctx, RevisionsRequest{
		Title:         title,
		Limit:         limit,
		RvStart:       rvstart,
		RvEnd:         rvend,
		ContinueToken: continueToken,
		ContinueParam: continueParam,
	})
	if err != nil {
		return nil, err
	}

	f.cache.Write(key, resp)
	return resp, nil
}

func (f *Fetcher) FetchPreview(ctx context.Context, title string) (*models.ArticlePreview, error) {
	if title == "" {
		return nil, invalidArgumentf("title must not be blank")
	}

	summary, err := f.client.GetSummary(ctx, title)
	if err != nil {
		return nil, err
	}

	preview := &models.ArticlePreview{
		Title:       summary.Title,
		Description: summary.Description,
		Extract:     summary.Extract,
	}
	if summary.Thumbnail != nil {
		preview.ThumbnailUrl = summary.Thumbnail.Source
	}
	if summary.ContentUrls != nil && summary.ContentUrls.Desktop != nil {
		preview.PageUrl = summary.ContentUrls.Desktop.Page
	}
	return preview, nil
}
