package handlers

import (
	"github.com/gin-gonic/gin"

	"storefront-service/internal/models"
)

// CartHandler exposes the session's cart mirror
type CartHandler struct{}

// NewCartHandler creates a new cart handler
func NewCartHandler() *CartHandler {
	return &CartHandler{}
}

// GetCart godoc
// @Summary Get the mirrored cart
// @Tags cart
// @Produce json
// @Success 200 {object} models.SuccessResponse{data=models.CartView}
// @Failure 401 {object} models.ErrorResponse
// @Router /cart [get]
func (h *CartHandler) GetCart(c *gin.Context) {
	sf, _, ok := identity(c)
	if !ok {
		return
	}
	respondOK(c, sf.Cart.View(), "")
}

// RefreshCart godoc
// @Summary Re-read the cart from the storefront API
// @Tags cart
// @Produce json
// @Success 200 {object} models.SuccessResponse{data=models.CartView}
// @Failure 401 {object} models.ErrorResponse
// @Failure 502 {object} models.ErrorResponse
// @Router /cart/refresh [post]
func (h *CartHandler) RefreshCart(c *gin.Context) {
	sf, id, ok := identity(c)
	if !ok {
		return
	}
	if err := sf.Cart.Fetch(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, sf.Cart.View(), "")
}

// AddItem godoc
// @Summary Add a product to the cart
// @Tags cart
// @Accept json
// @Produce json
// @Param request body models.AddToCartRequest true "Product and quantity"
// @Success 200 {object} models.SuccessResponse{data=models.CartView}
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /cart/items [post]
func (h *CartHandler) AddItem(c *gin.Context) {
	sf, id, ok := identity(c)
	if !ok {
		return
	}

	var req models.AddToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	if err := sf.Cart.AddItem(c.Request.Context(), id, req.ProductID, req.Quantity); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, sf.Cart.View(), "Item added to cart")
}

// ReduceItem godoc
// @Summary Reduce a cart line by one
// @Tags cart
// @Produce json
// @Param productId path string true "Product ID"
// @Success 200 {object} models.SuccessResponse{data=models.CartView}
// @Failure 401 {object} models.ErrorResponse
// @Router /cart/items/{productId}/reduce [post]
func (h *CartHandler) ReduceItem(c *gin.Context) {
	sf, id, ok := identity(c)
	if !ok {
		return
	}
	if err := sf.Cart.ReduceItem(c.Request.Context(), id, c.Param("productId")); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, sf.Cart.View(), "Item reduced")
}

// RemoveItem godoc
// @Summary Remove a cart line
// @Tags cart
// @Produce json
// @Param productId path string true "Product ID"
// @Success 200 {object} models.SuccessResponse{data=models.CartView}
// @Failure 401 {object} models.ErrorResponse
// @Router /cart/items/{productId} [delete]
func (h *CartHandler) RemoveItem(c *gin.Context) {
	sf, id, ok := identity(c)
	if !ok {
		return
	}
	if err := sf.Cart.RemoveItem(c.Request.Context(), id, c.Param("productId")); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, sf.Cart.View(), "Item removed from cart")
}
