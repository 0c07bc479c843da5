package services

import (
	"context"
	"time"
	"wikistats/internal/models"
	"wikistats/internal/providers"
	"wikistats/internal/wikipedia"
)

// statsChunkSize is how many revisions one engine call pulls when
// assembling a long history for aggregation. Chunks are merged through
// the cursor protocol, the same way an incremental client would.
const statsChunkSize = 5000

// DefaultLimit applies when a request does not say how many revisions
// it wants.
const DefaultLimit = 300

type RevisionServiceInterface interface {
	GetSeries(ctx context.Context, title string, limit int, from, to *time.Time, cursor string) (*models.RevisionSeries, error)
	GetPreview(ctx context.Context, title string) (*models.ArticlePreview, error)
	GetStats(ctx context.Context, title string, interval Interval, limit int) ([]models.Stats, error)
}

type RevisionService struct {
	fetcher wikipedia.FetcherInterface
	logger  providers.Logger
}

func NewRevisionService(fetcher wikipedia.FetcherInterface, logger providers.Logger) RevisionServiceInterface {
	return &RevisionService{
		fetcher: fetcher,
		logger:  logger,
	}
}

func (rs *RevisionService) GetSeries(ctx context.Context, title string, limit int, from, to *time.Time, cursor string) (*models.RevisionSeries, error) {
	return rs.fetcher.FetchSeries(ctx, title, limit, from, to, cursor)
}

func (rs *RevisionService) GetPreview(ctx context.Context, title string) (*models.ArticlePreview, error) {
	return rs.fetcher.FetchPreview(ctx, title)
}

// GetStats pulls up to limit revisions in cursor-chunked batches, merges
// them into one continuous series and aggregates it into interval
// buckets.
func (rs *RevisionService) GetStats(ctx context.Context, title string, interval Interval, limit int) ([]models.Stats, error) {
	series, err := rs.fetchMerged(ctx, title, limit)
	if err != nil {
		return nil, err
	}
	return Aggregate(series.Points, interval), nil
}

func (rs *RevisionService) fetchMerged(ctx context.Context, title string, limit int) (*models.RevisionSeries, error) {
	var series *models.RevisionSeries
	cursor := ""

	for {
		remaining := limit
		if series != nil {
			remaining = limit - len(series.Points)
		}
		if remaining <= 0 {
			break
		}

		batch, err := rs.fetcher.FetchSeries(ctx, title, min(statsChunkSize, remaining), nil, nil, cursor)
		if err != nil {
			return nil, err
		}

		series = models.MergeSeries(series, batch)
		if len(batch.Points) == 0 || batch.OlderCursor == "" {
			break
		}
		cursor = batch.OlderCursor
	}

	return series, nil
}
