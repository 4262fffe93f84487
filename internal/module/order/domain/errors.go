package domain

import (
	"errors"
	"fmt"
)

// Domain errors.
var (
	ErrInvalidTransition = errors.New("invalid order status transition")
	ErrItemsLocked       = fmt.Errorf("%w: items can only be replaced while payment is pending", ErrInvalidTransition)
	ErrEmptyItems        = errors.New("order must contain at least one item")
	ErrInvalidQuantity   = errors.New("quantity must be greater than zero")
	ErrInvalidCode       = errors.New("order code must be between 1 and 32 characters")
	ErrMissingStore      = errors.New("order must belong to a store")
	ErrMissingItemName   = errors.New("order item name is required")
	ErrMissingItemRef    = errors.New("order item must reference a catalog item")
)
