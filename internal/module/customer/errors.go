package customer

import "errors"

// Module errors.
var (
	ErrCustomerNotFound = errors.New("customer not found")
	ErrPhoneTaken       = errors.New("phone already registered")
)
