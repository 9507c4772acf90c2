// Package services holds the storefront state synchronization logic: the cart
// synchronizer, the review paginator, the session provider and the per-browser
// storefront that ties them together.
package services

import (
	"errors"
)

var (
	ErrUnauthenticated  = errors.New("no user is logged in")
	ErrTokenExpired     = errors.New("session token has expired")
	ErrInvalidToken     = errors.New("session token is malformed")
	ErrPasswordMismatch = errors.New("password and confirmation do not match")
	ErrInvalidQuantity  = errors.New("quantity must be at least 1")
	ErrInvalidProduct   = errors.New("product id is required")
	ErrInvalidReview    = errors.New("review needs a title, text and a rating between 1 and 5")
	ErrNoProduct        = errors.New("no product selected")
	ErrNotLoaded        = errors.New("reviews are not loaded")
	ErrNoMorePages      = errors.New("no more reviews to load")
	ErrNoUserReview     = errors.New("user has not reviewed this product")
	ErrUnknownVariant   = errors.New("variant not found")
	ErrCartCleared      = errors.New("cart was cleared while the operation was pending")
	ErrNotEditing       = errors.New("review is not open for editing")
)
