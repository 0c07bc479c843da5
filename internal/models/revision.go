package models

import (
	"sort"
	"time"
)

// RevisionPoint is a single revision of an article, sized in bytes.
// Delta is the size change against the chronologically previous point.
type RevisionPoint struct {
	Id        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Size      int       `json:"size"`
	Delta     int       `json:"delta"`
	User      string    `json:"user,omitempty"`
}

// RevisionSeries is a chronologically sorted run of revision points.
// OlderCursor, when set, resumes the fetch further back in time.
type RevisionSeries struct {
	Title       string          `json:"title"`
	Points      []RevisionPoint `json:"points"`
	OlderCursor string          `json:"olderCursor,omitempty"`
}

// ArticlePreview is the summary card for an article.
type ArticlePreview struct {
	Title        string `json:"title"`
	Description  string `json:"description,omitempty"`
	Extract      string `json:"extract,omitempty"`
	ThumbnailUrl string `json:"thumbnailUrl,omitempty"`
	PageUrl      string `json:"pageUrl,omitempty"`
}

// SortPoints orders points ascending by timestamp and recomputes deltas.
// The first point always carries delta 0.
func SortPoints(points []RevisionPoint) {
	sort.Slice(points, func(i, j int) bool {
		return points[i].Timestamp.Before(points[j].Timestamp)
	})
	for i := range points {
		if i == 0 {
			points[i].Delta = 0
		} else {
			points[i].Delta = points[i].Size - points[i-1].Size
		}
	}
}

// MergeSeries combines an already-held series with a freshly fetched batch.
// Points already present (by revision id) win over incoming duplicates. The
// result is re-sorted and carries the incoming title and cursor, which
// represent the freshest continuation state.
func MergeSeries(existing, incoming *RevisionSeries) *RevisionSeries {
	if existing == nil {
		return incoming
	}
	if incoming == nil {
		return existing
	}

	seen := make(map[int64]struct{}, len(existing.Points))
	merged := make([]RevisionPoint, 0, len(existing.Points)+len(incoming.Points))
	for _, p := range existing.Points {
		seen[p.Id] = struct{}{}
		merged = append(merged, p)
	}
	for _, p := range incoming.Points {
		if _, ok := seen[p.Id]; ok {
			continue
		}
		seen[p.Id] = struct{}{}
		merged = append(merged, p)
	}

	SortPoints(merged)

	return &RevisionSeries{
		Title:       incoming.Title,
		Points:      merged,
		OlderCursor: incoming.OlderCursor,
	}
}
