package services

import (
	"testing"
	"time"
	"wikistats/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func point(id int64, ts time.Time, delta int, user string) models.RevisionPoint {
	return models.RevisionPoint{Id: id, Timestamp: ts, Delta: delta, User: user}
}

func day(y int, m time.Month, d, hour int) time.Time {
	return time.Date(y, m, d, hour, 0, 0, 0, time.UTC)
}

func TestAggregate_Empty(t *testing.T) {
	assert.Empty(t, Aggregate(nil, IntervalDaily))
}

func TestAggregate_DailyBucketsPerUser(t *testing.T) {
	points := []models.RevisionPoint{
		point(1, day(2020, time.January, 10, 1), 0, "alice"),
		point(2, day(2020, time.January, 10, 2), 50, "alice"),
		point(3, day(2020, time.January, 10, 3), -60, "bob"),
		point(4, day(2020, time.January, 11, 1), 10, "bob"),
	}

	stats := Aggregate(points, IntervalDaily)

	require.Len(t, stats, 2)
	assert.Equal(t, day(2020, time.January, 10, 0), stats[0].IntervalStart)
	require.Len(t, stats[0].UserStats, 2)
	assert.Equal(t, models.UserStats{User: "alice", Count: 2, Delta: 50}, stats[0].UserStats[0])
	assert.Equal(t, models.UserStats{User: "bob", Count: 1, Delta: -60}, stats[0].UserStats[1])

	assert.Equal(t, day(2020, time.January, 11, 0), stats[1].IntervalStart)
	assert.Equal(t, models.UserStats{User: "bob", Count: 1, Delta: 10}, stats[1].UserStats[0])
}

func TestAggregate_GapDaysProduceNoBuckets(t *testing.T) {
	points := []models.RevisionPoint{
		point(1, day(2020, time.January, 1, 1), 0, "alice"),
		point(2, day(2020, time.January, 20, 1), 5, "alice"),
	}

	stats := Aggregate(points, IntervalDaily)

	require.Len(t, stats, 2)
	assert.Equal(t, day(2020, time.January, 1, 0), stats[0].IntervalStart)
	assert.Equal(t, day(2020, time.January, 20, 0), stats[1].IntervalStart)
}

func TestAggregate_UnsortedInputIsSortedFirst(t *testing.T) {
	points := []models.RevisionPoint{
		point(2, day(2020, time.January, 11, 1), 10, "bob"),
		point(1, day(2020, time.January, 10, 1), 0, "alice"),
	}

	stats := Aggregate(points, IntervalDaily)

	require.Len(t, stats, 2)
	assert.Equal(t, "alice", stats[0].UserStats[0].User)
	assert.Equal(t, "bob", stats[1].UserStats[0].User)
}

func TestAggregate_UserOrderingWithinBucket(t *testing.T) {
	points := []models.RevisionPoint{
		point(1, day(2020, time.January, 10, 1), 10, "zoe"),
		point(2, day(2020, time.January, 10, 2), 10, "adam"),
		point(3, day(2020, time.January, 10, 3), 99, "mallory"),
		point(4, day(2020, time.January, 10, 4), 1, "mallory"),
	}

	stats := Aggregate(points, IntervalDaily)

	require.Len(t, stats, 1)
	users := stats[0].UserStats
	require.Len(t, users, 3)
	// mallory leads on count; adam and zoe tie on count and delta, so
	// name decides.
	assert.Equal(t, "mallory", users[0].User)
	assert.Equal(t, "adam", users[1].User)
	assert.Equal(t, "zoe", users[2].User)
}

func TestAggregate_MissingUserGroupedAsUnknown(t *testing.T) {
	points := []models.RevisionPoint{
		point(1, day(2020, time.January, 10, 1), 5, ""),
		point(2, day(2020, time.January, 10, 2), 5, ""),
	}

	stats := Aggregate(points, IntervalDaily)

	require.Len(t, stats, 1)
	assert.Equal(t, models.UserStats{User: "Unknown", Count: 2, Delta: 10}, stats[0].UserStats[0])
}

func TestAggregate_MonthlyBuckets(t *testing.T) {
	points := []models.RevisionPoint{
		point(1, day(2020, time.January, 5, 1), 0, "alice"),
		point(2, day(2020, time.February, 20, 1), 3, "alice"),
		point(3, day(2020, time.April, 1, 1), 7, "alice"),
	}

	stats := Aggregate(points, IntervalMonthly)

	require.Len(t, stats, 3)
	assert.Equal(t, day(2020, time.January, 1, 0), stats[0].IntervalStart)
	assert.Equal(t, day(2020, time.February, 1, 0), stats[1].IntervalStart)
	assert.Equal(t, day(2020, time.April, 1, 0), stats[2].IntervalStart)
}

func TestAggregate_MonthlyAndYearlyStartOnFirstDay(t *testing.T) {
	points := []models.RevisionPoint{
		point(1, day(2010, time.August, 15, 1), 0, "alice"),
		point(2, day(2010, time.September, 2, 1), 5, "alice"),
	}

	monthly := Aggregate(points, IntervalMonthly)
	require.Len(t, monthly, 2)
	assert.Equal(t, day(2010, time.August, 1, 0), monthly[0].IntervalStart)
	assert.Equal(t, day(2010, time.September, 1, 0), monthly[1].IntervalStart)

	yearly := Aggregate(points, IntervalYearly)
	require.Len(t, yearly, 1)
	assert.Equal(t, day(2010, time.January, 1, 0), yearly[0].IntervalStart)
}

func TestAggregate_WeeklyStartsOnMonday(t *testing.T) {
	// 2020-01-10 is a Friday; its week starts Monday 2020-01-06.
	points := []models.RevisionPoint{
		point(1, day(2020, time.January, 10, 1), 0, "alice"),
		point(2, day(2020, time.January, 14, 1), 5, "alice"), // Tuesday, next week
	}

	stats := Aggregate(points, IntervalWeekly)

	require.Len(t, stats, 2)
	assert.Equal(t, day(2020, time.January, 6, 0), stats[0].IntervalStart)
	assert.Equal(t, day(2020, time.January, 13, 0), stats[1].IntervalStart)
}

func TestAggregate_WeeklyMondayPointKeepsItsDate(t *testing.T) {
	points := []models.RevisionPoint{
		point(1, day(2020, time.January, 6, 1), 0, "alice"), // already a Monday
	}

	stats := Aggregate(points, IntervalWeekly)

	require.Len(t, stats, 1)
	assert.Equal(t, day(2020, time.January, 6, 0), stats[0].IntervalStart)
}

func TestParseInterval(t *testing.T) {
	for _, iv := range AllIntervals {
		parsed, ok := ParseInterval(string(iv))
		assert.True(t, ok)
		assert.Equal(t, iv, parsed)
	}
	_, ok := ParseInterval("hourly")
	assert.False(t, ok)
}
