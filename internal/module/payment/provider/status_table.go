package provider

import (
	"fmt"
	"strings"

	"github.com/storefront/server/internal/module/payment/domain"
)

// StatusTable maps a provider's status vocabulary to internal statuses.
// Keys are upper case; lookups are case-insensitive.
type StatusTable map[string]domain.Status

// Lookup returns the internal status for a provider status.
func (t StatusTable) Lookup(providerStatus string) (domain.Status, error) {
	s, ok := t[strings.ToUpper(strings.TrimSpace(providerStatus))]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownProviderStatus, providerStatus)
	}
	return s, nil
}

var pixStatuses = StatusTable{
	"PENDING":      domain.StatusPending,
	"IN_PROCESS":   domain.StatusPending,
	"AUTHORIZED":   domain.StatusPending,
	"IN_MEDIATION": domain.StatusPending,
	"APPROVED":     domain.StatusApproved,
	"REJECTED":     domain.StatusRejected,
	"CANCELLED":    domain.StatusRejected,
	"REFUNDED":     domain.StatusRefunded,
	"CHARGED_BACK": domain.StatusRefunded,
}

var wechatStatuses = StatusTable{
	"NOTPAY":     domain.StatusPending,
	"USERPAYING": domain.StatusPending,
	"SUCCESS":    domain.StatusApproved,
	"PAYERROR":   domain.StatusRejected,
	"CLOSED":     domain.StatusRejected,
	"REVOKED":    domain.StatusRejected,
	"REFUND":     domain.StatusRefunded,
}
