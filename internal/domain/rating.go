package domain

import (
	"strconv"

	apperrors "github.com/utafrali/ToolCatalog/pkg/errors"
)

const (
	MinRating = 1
	MaxRating = 5
)

// ValidateRating rejects ratings outside [MinRating, MaxRating].
func ValidateRating(rating int) error {
	if rating < MinRating || rating > MaxRating {
		return apperrors.InvalidInput("rating must be between 1 and 5")
	}
	return nil
}

// RatingAggregate is the derived score of a tool.
type RatingAggregate struct {
	AverageRating float64 `json:"average_rating"`
	ReviewCount   int     `json:"review_count"`
}

// ComputeRating averages ratings and rounds the mean to one decimal. The
// rounding is decided on the exact float64 value, ties to even, so 4.25
// becomes 4.2 and 4.05 (stored just below) becomes 4.0. No ratings yields
// the zero aggregate.
func ComputeRating(ratings []int) RatingAggregate {
	if len(ratings) == 0 {
		return RatingAggregate{}
	}
	sum := 0
	for _, r := range ratings {
		sum += r
	}
	mean := float64(sum) / float64(len(ratings))
	return RatingAggregate{
		AverageRating: roundTenths(mean),
		ReviewCount:   len(ratings),
	}
}

func roundTenths(v float64) float64 {
	// FormatFloat rounds correctly from the binary value; parsing the
	// shortest decimal back cannot fail.
	r, _ := strconv.ParseFloat(strconv.FormatFloat(v, 'f', 1, 64), 64)
	return r
}
