// Package reviews stores client reviews as one JSON document on disk.
package reviews

import (
	"errors"
	"math"
	"time"
)

// DateLayout is the human readable format of Review.Date.
const DateLayout = "02.01.2006 15:04"

// Rating bounds.
const (
	MinRating = 1
	MaxRating = 5
)

var (
	// ErrInvalidRating is returned when a rating is outside 1..5.
	ErrInvalidRating = errors.New("reviews: rating must be between 1 and 5")
	// ErrBackupFailed is returned when the snapshot before a clear could not be written.
	ErrBackupFailed = errors.New("reviews: backup failed")
)

// Review is a single client review. Records are never mutated after Append.
type Review struct {
	UserID    int64   `json:"user_id"`
	UserName  string  `json:"user_name"`
	Rating    int     `json:"rating"`
	Text      string  `json:"text"`
	Date      string  `json:"date"`
	Timestamp float64 `json:"timestamp"`
}

// ValidRating reports whether r is within MinRating..MaxRating.
func ValidRating(r int) bool { return r >= MinRating && r <= MaxRating }

// CreatedAt converts Timestamp back to time.
func (r Review) CreatedAt() time.Time {
	sec, frac := math.Modf(r.Timestamp)
	return time.Unix(int64(sec), int64(frac*1e9))
}

func stamp(t time.Time) (string, float64) {
	return t.Format(DateLayout), float64(t.Unix()) + float64(t.Nanosecond())/1e9
}
