package payment

import "errors"

// Module errors.
var (
	ErrPaymentNotFound     = errors.New("payment not found")
	ErrDuplicateExternalID = errors.New("payment with this external id already exists")
	ErrProviderNotFound    = errors.New("payment provider not found")
	ErrOrderNotPayable     = errors.New("order is not awaiting payment")
	ErrAmountMismatch      = errors.New("payment amount does not match order total")
	// ErrReconcileConflict means the provider reported a status the payment
	// or its order can no longer accept.
	ErrReconcileConflict = errors.New("payment status conflicts with current state")
)
