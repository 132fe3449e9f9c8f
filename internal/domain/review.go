package domain

import "time"

// Review is a stored review record. Name and Text are HTML-escaped at rest;
// DeviceHash and IPHash are one-way keyed hashes of the client identifiers,
// raw values are never persisted. Once created a review is immutable except
// for the Approved flag.
type Review struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Rating     int       `json:"rating"`
	Text       string    `json:"review"`
	DeviceHash string    `json:"deviceId"`
	IPHash     string    `json:"ip"`
	Timestamp  time.Time `json:"timestamp"`
	Approved   bool      `json:"approved"`
}

// PublicReview is the redacted view returned to clients: no email, no
// identifier hashes, no approval flag.
type PublicReview struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Rating    int       `json:"rating"`
	Text      string    `json:"review"`
	Timestamp time.Time `json:"timestamp"`
}

// Public returns the redacted view of the review.
func (r *Review) Public() PublicReview {
	return PublicReview{
		ID:        r.ID,
		Name:      r.Name,
		Rating:    r.Rating,
		Text:      r.Text,
		Timestamp: r.Timestamp,
	}
}

// ReviewLog is the insertion-ordered collection of all reviews, stored as a
// single document. Version supports optimistic replacement.
type ReviewLog struct {
	Reviews []Review `json:"reviews"`
	Version int      `json:"version"`
}

// Append adds a review to the end of the log.
func (l *ReviewLog) Append(r Review) {
	l.Reviews = append(l.Reviews, r)
}

// Approved returns the approved reviews in insertion order.
func (l *ReviewLog) Approved() []Review {
	out := make([]Review, 0, len(l.Reviews))
	for _, r := range l.Reviews {
		if r.Approved {
			out = append(out, r)
		}
	}
	return out
}

// HasRecentFrom reports whether any review newer than the window was
// submitted with the same device hash OR the same IP hash. Matching on
// either identifier is intentional: it catches same-device retries from a
// different network and same-network retries from a different device.
func (l *ReviewLog) HasRecentFrom(deviceHash, ipHash string, now time.Time, window time.Duration) bool {
	for i := range l.Reviews {
		r := &l.Reviews[i]
		if now.Sub(r.Timestamp) >= window {
			continue
		}
		if r.DeviceHash == deviceHash || r.IPHash == ipHash {
			return true
		}
	}
	return false
}
