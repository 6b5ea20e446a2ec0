package cart

import "errors"

var (
	ErrCacheMiss       = errors.New("cache miss")
	ErrInvalidQuantity = errors.New("quantity must be positive")
	ErrItemNotFound    = errors.New("cart item not found")
	ErrMissingOwner    = errors.New("cart owner is required")
)
