package services

import (
	"sort"
	"time"
	"wikistats/internal/models"
)

// Interval is a calendar-aligned bucket width for edit statistics.
type Interval string

const (
	IntervalDaily   Interval = "daily"
	IntervalWeekly  Interval = "weekly"
	IntervalMonthly Interval = "monthly"
	IntervalYearly  Interval = "yearly"
)

// AllIntervals lists every supported bucket width, in ascending order.
var AllIntervals = []Interval{IntervalDaily, IntervalWeekly, IntervalMonthly, IntervalYearly}

// ParseInterval maps a query-string value onto an Interval.
func ParseInterval(s string) (Interval, bool) {
	switch Interval(s) {
	case IntervalDaily, IntervalWeekly, IntervalMonthly, IntervalYearly:
		return Interval(s), true
	}
	return "", false
}

// alignStart snaps a date onto the calendar boundary the interval
// buckets by: month start, January 1st, or the previous-or-same Monday.
// Daily buckets start on the date itself.
func (i Interval) alignStart(t time.Time) time.Time {
	switch i {
	case IntervalWeekly:
		back := (int(t.Weekday()) + 6) % 7
		return t.AddDate(0, 0, -back)
	case IntervalMonthly:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	case IntervalYearly:
		return time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	default:
		return t
	}
}

func (i Interval) advance(t time.Time) time.Time {
	switch i {
	case IntervalWeekly:
		return t.AddDate(0, 0, 7)
	case IntervalMonthly:
		return t.AddDate(0, 1, 0)
	case IntervalYearly:
		return t.AddDate(1, 0, 0)
	default:
		return t.AddDate(0, 0, 1)
	}
}

// unknownUser buckets edits whose revision carried no user name.
const unknownUser = "Unknown"

type mutableUserStats struct {
	count int64
	delta int64
}

// Aggregate groups a point series into per-interval, per-user edit
// counts and size deltas. The first bucket starts at the calendar
// boundary containing the earliest point (UTC) and buckets advance by
// whole intervals; gaps without edits produce no bucket. Users inside a
// bucket are ordered by count desc, then delta desc, then name.
func Aggregate(points []models.RevisionPoint, interval Interval) []models.Stats {
	if len(points) == 0 {
		return []models.Stats{}
	}

	sorted := make([]models.RevisionPoint, len(points))
	copy(sorted, points)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	first := sorted[0].Timestamp.UTC()
	intervalStart := interval.alignStart(time.Date(first.Year(), first.Month(), first.Day(), 0, 0, 0, 0, time.UTC))
	intervalEnd := interval.advance(intervalStart)

	results := make([]models.Stats, 0)
	bucket := make(map[string]*mutableUserStats)
	order := make([]string, 0)

	flush := func() {
		if len(bucket) == 0 {
			return
		}
		stats := make([]models.UserStats, 0, len(bucket))
		for _, user := range order {
			v := bucket[user]
			stats = append(stats, models.UserStats{User: user, Count: v.count, Delta: v.delta})
		}
		sort.SliceStable(stats, func(i, j int) bool {
			if stats[i].Count != stats[j].Count {
				return stats[i].Count > stats[j].Count
			}
			if stats[i].Delta != stats[j].Delta {
				return stats[i].Delta > stats[j].Delta
			}
			return stats[i].User < stats[j].User
		})
		results = append(results, models.Stats{IntervalStart: intervalStart, UserStats: stats})
		bucket = make(map[string]*mutableUserStats)
		order = order[:0]
	}

	for _, point := range sorted {
		ts := point.Timestamp.UTC()
		for !ts.Before(intervalEnd) {
			flush()
			intervalStart = intervalEnd
			intervalEnd = interval.advance(intervalStart)
		}

		user := point.User
		if user == "" {
			user = unknownUser
		}
		entry, ok := bucket[user]
		if !ok {
			entry = &mutableUserStats{}
			bucket[user] = entry
			order = append(order, user)
		}
		entry.count++
		entry.delta += int64(point.Delta)
	}

	flush()
	return results
}
