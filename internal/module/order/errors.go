package order

import "errors"

// Module errors.
var (
	ErrOrderNotFound    = errors.New("order not found")
	ErrOrderChanged     = errors.New("order was modified concurrently")
	ErrOrderCodeTaken   = errors.New("order code already used in this store")
	ErrItemNotFound     = errors.New("catalog item not found")
	ErrItemNotOrderable = errors.New("catalog item is not available for ordering")
	ErrItemWrongStore   = errors.New("catalog item belongs to another store")
	ErrPaymentInFlight  = errors.New("order has a payment in progress")
)
