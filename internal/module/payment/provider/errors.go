package provider

import "errors"

// Gateway errors.
var (
	// ErrInvalidSignature means a notification failed authentication. Nothing
	// in it may be trusted.
	ErrInvalidSignature = errors.New("invalid notification signature")
	// ErrIgnoredNotification is an authentic notification about something
	// other than a payment status.
	ErrIgnoredNotification   = errors.New("notification does not concern a payment")
	ErrUnknownProviderStatus = errors.New("unknown provider payment status")
	ErrGatewayUnavailable    = errors.New("payment gateway unavailable")
	ErrGatewayRejected       = errors.New("payment gateway rejected the request")
	ErrInvalidConfig         = errors.New("invalid payment gateway configuration")
)
