package entity

import (
	"sort"

	"github.com/storefront/server/internal/module/order/domain"
)

// StatusMappingVersion identifies the storage <-> domain status table below.
// Bump it whenever either direction changes.
const StatusMappingVersion = 1

// Storage-level order statuses as written to the orders.status column.
const (
	StoragePendingPayment = "PENDING_PAYMENT"
	StoragePaid           = "PAID"
	StoragePreparing      = "PREPARING"
	StorageAwaitingResult = "AWAITING_RESULT"
	StorageDelivering     = "DELIVERING"
	StorageCompleted      = "COMPLETED"
	StorageCanceled       = "CANCELED"
	StorageRefunded       = "REFUNDED"
)

// storageToDomain is lossy: AWAITING_RESULT and DELIVERING both read as READY,
// REFUNDED reads as CANCELED.
var storageToDomain = map[string]domain.Status{
	StoragePendingPayment: domain.StatusPaymentPending,
	StoragePaid:           domain.StatusPaid,
	StoragePreparing:      domain.StatusPreparing,
	StorageAwaitingResult: domain.StatusReady,
	StorageDelivering:     domain.StatusReady,
	StorageCompleted:      domain.StatusCompleted,
	StorageCanceled:       domain.StatusCanceled,
	StorageRefunded:       domain.StatusCanceled,
}

// domainToStorage picks one canonical storage status per domain status.
var domainToStorage = map[domain.Status]string{
	domain.StatusPaymentPending: StoragePendingPayment,
	domain.StatusPaid:           StoragePaid,
	domain.StatusPreparing:      StoragePreparing,
	domain.StatusReady:          StorageAwaitingResult,
	domain.StatusCompleted:      StorageCompleted,
	domain.StatusCanceled:       StorageCanceled,
}

// StatusToDomain maps a stored status. Unknown values read as PAYMENT_PENDING.
func StatusToDomain(storage string) domain.Status {
	if s, ok := storageToDomain[storage]; ok {
		return s
	}
	return domain.StatusPaymentPending
}

// StatusToStorage maps a domain status to its canonical stored value.
func StatusToStorage(s domain.Status) string {
	if v, ok := domainToStorage[s]; ok {
		return v
	}
	return StoragePendingPayment
}

// StorageStatuses returns every stored value that reads as s, sorted.
func StorageStatuses(s domain.Status) []string {
	var out []string
	for storage, d := range storageToDomain {
		if d == s {
			out = append(out, storage)
		}
	}
	sort.Strings(out)
	return out
}
