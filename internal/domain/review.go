package domain

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	apperrors "github.com/utafrali/ToolCatalog/pkg/errors"
)

// ReviewStatus is the moderation state of a review.
type ReviewStatus string

const (
	ReviewPending  ReviewStatus = "pending"
	ReviewApproved ReviewStatus = "approved"
	ReviewRejected ReviewStatus = "rejected"
)

// ReviewDateLayout is the calendar-day format of Review.Date.
const ReviewDateLayout = "2006-01-02"

const maxCommentLength = 2000

func (s ReviewStatus) IsValid() bool {
	switch s {
	case ReviewPending, ReviewApproved, ReviewRejected:
		return true
	}
	return false
}

// IsModerationOutcome reports whether s is a status a moderator may set.
func (s ReviewStatus) IsModerationOutcome() bool {
	return s == ReviewApproved || s == ReviewRejected
}

// ParseModerationStatus accepts only "approved" or "rejected".
func ParseModerationStatus(s string) (ReviewStatus, error) {
	status := ReviewStatus(s)
	if !status.IsModerationOutcome() {
		return "", apperrors.InvalidInput("status must be approved or rejected")
	}
	return status, nil
}

// ParseReviewStatus accepts any of the three review states.
func ParseReviewStatus(s string) (ReviewStatus, error) {
	status := ReviewStatus(s)
	if !status.IsValid() {
		return "", apperrors.InvalidInput("status must be pending, approved or rejected")
	}
	return status, nil
}

// Review is a user's rating of a tool. Only approved reviews count toward
// the tool's aggregate.
type Review struct {
	ID        string       `json:"id"`
	ToolID    string       `json:"tool_id"`
	ToolName  string       `json:"tool_name"`
	UserID    string       `json:"user_id"`
	Rating    int          `json:"rating"`
	Comment   string       `json:"comment,omitempty"`
	Status    ReviewStatus `json:"status"`
	Date      string       `json:"date"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// NewReview creates a pending review of tool dated now. The tool name is
// copied so listings need no join.
func NewReview(tool *Tool, userID string, rating int, comment string, now time.Time) (*Review, error) {
	if tool == nil || tool.ID == "" {
		return nil, apperrors.InvalidInput("tool_id is required")
	}
	if userID == "" {
		return nil, apperrors.InvalidInput("user_id is required")
	}
	if err := ValidateRating(rating); err != nil {
		return nil, err
	}
	comment = strings.TrimSpace(comment)
	if utf8.RuneCountInString(comment) > maxCommentLength {
		return nil, apperrors.InvalidInput("comment must be at most 2000 characters")
	}

	now = now.UTC()
	return &Review{
		ID:        uuid.New().String(),
		ToolID:    tool.ID,
		ToolName:  tool.Name,
		UserID:    userID,
		Rating:    rating,
		Comment:   comment,
		Status:    ReviewPending,
		Date:      now.Format(ReviewDateLayout),
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}
