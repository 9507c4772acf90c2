package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront-service/internal/clients"
	"storefront-service/internal/models"
	"storefront-service/internal/services"
)

// ReviewHandler drives the review panel of the session's current product
type ReviewHandler struct{}

// NewReviewHandler creates a new review handler
func NewReviewHandler() *ReviewHandler {
	return &ReviewHandler{}
}

// reviews points the paginator at the path product and returns the session
func (h *ReviewHandler) reviews(c *gin.Context) (*services.Storefront, bool) {
	sf, ok := storefront(c)
	if !ok {
		return nil, false
	}
	sf.Reviews.SetProduct(c.Param("id"))
	return sf, true
}

// currentIdentity returns the logged-in user or a zero identity for guests
func currentIdentity(sf *services.Storefront) models.Identity {
	id, err := sf.Session.Current()
	if err != nil {
		return models.Identity{}
	}
	return id
}

// GetReviews godoc
// @Summary Get the review panel state
// @Tags reviews
// @Produce json
// @Param id path string true "Product ID"
// @Success 200 {object} models.SuccessResponse{data=models.ReviewPanelView}
// @Router /products/{id}/reviews [get]
func (h *ReviewHandler) GetReviews(c *gin.Context) {
	sf, ok := h.reviews(c)
	if !ok {
		return
	}
	respondOK(c, sf.Reviews.View(), "")
}

// OpenReviews godoc
// @Summary Expand the review panel
// @Description Loads the current user's review and, the first time, the first page of reviews
// @Tags reviews
// @Produce json
// @Param id path string true "Product ID"
// @Success 200 {object} models.SuccessResponse{data=models.ReviewPanelView}
// @Failure 502 {object} models.ErrorResponse
// @Router /products/{id}/reviews/open [post]
func (h *ReviewHandler) OpenReviews(c *gin.Context) {
	sf, ok := h.reviews(c)
	if !ok {
		return
	}
	if err := sf.Reviews.Open(c.Request.Context(), currentIdentity(sf)); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, sf.Reviews.View(), "")
}

// CloseReviews godoc
// @Summary Collapse the review panel
// @Tags reviews
// @Produce json
// @Param id path string true "Product ID"
// @Success 200 {object} models.SuccessResponse{data=models.ReviewPanelView}
// @Router /products/{id}/reviews/close [post]
func (h *ReviewHandler) CloseReviews(c *gin.Context) {
	sf, ok := h.reviews(c)
	if !ok {
		return
	}
	sf.Reviews.Close()
	respondOK(c, sf.Reviews.View(), "")
}

// LoadMore godoc
// @Summary Load the next page of reviews
// @Tags reviews
// @Produce json
// @Param id path string true "Product ID"
// @Success 200 {object} models.SuccessResponse{data=models.ReviewPanelView}
// @Failure 409 {object} models.ErrorResponse
// @Router /products/{id}/reviews/more [post]
func (h *ReviewHandler) LoadMore(c *gin.Context) {
	sf, ok := h.reviews(c)
	if !ok {
		return
	}
	if err := sf.Reviews.LoadMore(c.Request.Context(), currentIdentity(sf)); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, sf.Reviews.View(), "")
}

// BeginEdit godoc
// @Summary Start editing the current user's review
// @Tags reviews
// @Produce json
// @Param id path string true "Product ID"
// @Success 200 {object} models.SuccessResponse{data=models.ReviewPanelView}
// @Failure 404 {object} models.ErrorResponse
// @Router /products/{id}/reviews/edit [post]
func (h *ReviewHandler) BeginEdit(c *gin.Context) {
	sf, ok := h.reviews(c)
	if !ok {
		return
	}
	if err := sf.Reviews.BeginEdit(); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, sf.Reviews.View(), "")
}

// CancelEdit godoc
// @Summary Stop editing the current user's review
// @Tags reviews
// @Produce json
// @Param id path string true "Product ID"
// @Success 200 {object} models.SuccessResponse{data=models.ReviewPanelView}
// @Router /products/{id}/reviews/edit [delete]
func (h *ReviewHandler) CancelEdit(c *gin.Context) {
	sf, ok := h.reviews(c)
	if !ok {
		return
	}
	sf.Reviews.CancelEdit()
	respondOK(c, sf.Reviews.View(), "")
}

// SubmitReview godoc
// @Summary Create or update the current user's review
// @Tags reviews
// @Accept json
// @Produce json
// @Param id path string true "Product ID"
// @Param request body models.ReviewInput true "Review"
// @Success 200 {object} models.SuccessResponse{data=models.ReviewPanelView}
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /products/{id}/reviews [post]
func (h *ReviewHandler) SubmitReview(c *gin.Context) {
	sf, id, ok := identity(c)
	if !ok {
		return
	}
	sf.Reviews.SetProduct(c.Param("id"))

	var input models.ReviewInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBadRequest(c, err)
		return
	}

	if _, err := sf.Reviews.Submit(c.Request.Context(), id, input); err != nil {
		if errors.Is(err, clients.ErrConflict) {
			// The existing review is now loaded for editing
			c.JSON(http.StatusConflict, gin.H{
				"success": false,
				"error":   models.Error{Code: "CONFLICT", Message: err.Error()},
				"data":    sf.Reviews.View(),
			})
			return
		}
		respondError(c, err)
		return
	}
	respondOK(c, sf.Reviews.View(), "Review saved")
}

// DeleteReview godoc
// @Summary Delete the current user's review
// @Tags reviews
// @Produce json
// @Param id path string true "Product ID"
// @Success 200 {object} models.SuccessResponse{data=models.ReviewPanelView}
// @Failure 401 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /products/{id}/reviews [delete]
func (h *ReviewHandler) DeleteReview(c *gin.Context) {
	sf, id, ok := identity(c)
	if !ok {
		return
	}
	sf.Reviews.SetProduct(c.Param("id"))

	if err := sf.Reviews.Remove(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, sf.Reviews.View(), "Review deleted")
}
