package domain

// Stats are platform-wide counts shown on the admin dashboard.
type Stats struct {
	TotalTools      int `json:"total_tools"`
	TotalReviews    int `json:"total_reviews"`
	PendingReviews  int `json:"pending_reviews"`
	ApprovedReviews int `json:"approved_reviews"`
	RejectedReviews int `json:"rejected_reviews"`
}
