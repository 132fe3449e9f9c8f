package domain

import (
	"math"
	"time"
)

// StatsSnapshot holds the public aggregate counters shown on the marketing
// site. Downloads is an independent counter; Rating and Reviews are derived
// from the review log. Version supports optimistic replacement.
type StatsSnapshot struct {
	Downloads   int       `json:"downloads"`
	Rating      float64   `json:"rating"`
	Reviews     int       `json:"reviews"`
	LastUpdated time.Time `json:"lastUpdated"`
	Version     int       `json:"version"`
}

// RecomputeStats derives a fresh snapshot from the review log: count of
// approved reviews and their mean rating rounded to one decimal (0 when there
// are none). Downloads and Version are carried over from the previous
// snapshot untouched.
func RecomputeStats(log *ReviewLog, prev StatsSnapshot, now time.Time) StatsSnapshot {
	var count, total int
	for _, r := range log.Reviews {
		if r.Approved {
			count++
			total += r.Rating
		}
	}

	var rating float64
	if count > 0 {
		rating = Round1(float64(total) / float64(count))
	}

	return StatsSnapshot{
		Downloads:   prev.Downloads,
		Rating:      rating,
		Reviews:     count,
		LastUpdated: now,
		Version:     prev.Version,
	}
}

// Round1 rounds to one decimal place.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}
