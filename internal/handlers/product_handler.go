package handlers

import (
	"github.com/gin-gonic/gin"

	"storefront-service/internal/services"
)

// ProductHandler serves the catalog and the session's product page state
type ProductHandler struct{}

// NewProductHandler creates a new product handler
func NewProductHandler() *ProductHandler {
	return &ProductHandler{}
}

// SelectionRequest updates the variant and/or quantity on the product page
type SelectionRequest struct {
	SKU      string `json:"sku"`
	Quantity *int   `json:"quantity"`
}

// ListProducts godoc
// @Summary List catalog products
// @Tags products
// @Produce json
// @Success 200 {object} models.SuccessResponse{data=[]models.Product}
// @Failure 502 {object} models.ErrorResponse
// @Router /products [get]
func (h *ProductHandler) ListProducts(c *gin.Context) {
	sf, ok := storefront(c)
	if !ok {
		return
	}
	products, err := sf.Product.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, products, "")
}

// GetProduct godoc
// @Summary View a product
// @Description Loads the product and makes it the session's current product
// @Tags products
// @Produce json
// @Param id path string true "Product ID"
// @Success 200 {object} models.SuccessResponse{data=models.ProductView}
// @Failure 404 {object} models.ErrorResponse
// @Router /products/{id} [get]
func (h *ProductHandler) GetProduct(c *gin.Context) {
	sf, ok := storefront(c)
	if !ok {
		return
	}
	view, err := sf.ViewProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, view, "")
}

// UpdateSelection godoc
// @Summary Choose a variant or quantity for the current product
// @Tags products
// @Accept json
// @Produce json
// @Param id path string true "Product ID"
// @Param request body SelectionRequest true "Selection"
// @Success 200 {object} models.SuccessResponse{data=models.ProductView}
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /products/{id}/selection [put]
func (h *ProductHandler) UpdateSelection(c *gin.Context) {
	sf, ok := storefront(c)
	if !ok {
		return
	}
	if !h.ensureCurrent(c, sf) {
		return
	}

	var req SelectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	view, err := sf.Product.View()
	if req.SKU != "" {
		view, err = sf.Product.SelectVariant(req.SKU)
	}
	if err == nil && req.Quantity != nil {
		view, err = sf.Product.SetQuantity(*req.Quantity)
	}
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, view, "")
}

// AddToCart godoc
// @Summary Add the current product at the selected quantity to the cart
// @Tags products
// @Produce json
// @Param id path string true "Product ID"
// @Success 200 {object} models.SuccessResponse{data=models.CartView}
// @Failure 401 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /products/{id}/add-to-cart [post]
func (h *ProductHandler) AddToCart(c *gin.Context) {
	sf, ok := storefront(c)
	if !ok {
		return
	}
	if !h.ensureCurrent(c, sf) {
		return
	}
	if err := sf.AddSelectionToCart(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, sf.Cart.View(), "Item added to cart")
}

// ensureCurrent loads the path product when the session is viewing another one
func (h *ProductHandler) ensureCurrent(c *gin.Context, sf *services.Storefront) bool {
	productID := c.Param("id")
	if view, err := sf.Product.View(); err == nil && view.Product.ID == productID {
		return true
	}
	if _, err := sf.ViewProduct(c.Request.Context(), productID); err != nil {
		respondError(c, err)
		return false
	}
	return true
}
