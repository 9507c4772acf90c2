package models

import (
	"strings"
	"time"
)

// Review is a single product review as returned by the backing API
type Review struct {
	ID         string    `json:"id,omitempty"`
	UserID     string    `json:"userId,omitempty"`
	UserName   string    `json:"userName,omitempty"`
	Title      string    `json:"title"`
	Rating     int       `json:"rating"`
	ReviewText string    `json:"reviewText"`
	CreatedAt  time.Time `json:"createdAt"`
	Anonymous  bool      `json:"anonymous,omitempty"`
}

// Author returns the display name of the reviewer
func (r Review) Author() string {
	if r.Anonymous {
		return "Anonymous"
	}
	if r.UserName == "" {
		return "User"
	}
	return r.UserName
}

// SameAs reports whether r and other denote the same review. Ids win when
// both carry one, then owner ids; otherwise the visible fields are compared.
func (r Review) SameAs(other Review) bool {
	if r.ID != "" && other.ID != "" {
		return r.ID == other.ID
	}
	if r.UserID != "" && other.UserID != "" {
		return r.UserID == other.UserID
	}
	return r.Title == other.Title &&
		r.ReviewText == other.ReviewText &&
		r.Rating == other.Rating &&
		r.UserName == other.UserName &&
		r.CreatedAt.Equal(other.CreatedAt)
}

// ReviewInput is what the user submits when creating or editing a review
type ReviewInput struct {
	Title      string `json:"title" binding:"required"`
	Rating     int    `json:"rating" binding:"required,min=1,max=5"`
	ReviewText string `json:"reviewText" binding:"required"`
	Anonymous  bool   `json:"anonymous"`
}

// Valid reports whether the input satisfies the review constraints
func (in ReviewInput) Valid() bool {
	return strings.TrimSpace(in.Title) != "" &&
		strings.TrimSpace(in.ReviewText) != "" &&
		in.Rating >= 1 && in.Rating <= 5
}

// ReviewPanelState is the lifecycle state of a product's review panel
type ReviewPanelState string

const (
	ReviewPanelCollapsed ReviewPanelState = "COLLAPSED"
	ReviewPanelLoading   ReviewPanelState = "LOADING"
	ReviewPanelLoaded    ReviewPanelState = "LOADED"
)

// ReviewPanelView is the UI-facing review state for one product
type ReviewPanelView struct {
	ProductID         string           `json:"productId"`
	State             ReviewPanelState `json:"state"`
	Editing           bool             `json:"editing"`
	CurrentUserReview *Review          `json:"currentUserReview"`
	Reviews           []Review         `json:"reviews"`
	Page              int              `json:"page"`
	HasMore           bool             `json:"hasMore"`
	Error             string           `json:"error,omitempty"`
}
