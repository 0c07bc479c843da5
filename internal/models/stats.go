package models

import "time"

// UserStats is one user's activity inside a single interval bucket.
type UserStats struct {
	User  string `json:"user"`
	Count int64  `json:"count"`
	Delta int64  `json:"delta"`
}

// Stats is one aggregated interval bucket.
type Stats struct {
	IntervalStart time.Time   `json:"intervalStart"`
	UserStats     []UserStats `json:"userStats"`
}
