package provider

import (
	"testing"

	"github.com/storefront/server/internal/module/payment/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusTable_Lookup(t *testing.T) {
	tests := []struct {
		table  StatusTable
		status string
		want   domain.Status
	}{
		{pixStatuses, "pending", domain.StatusPending},
		{pixStatuses, "in_process", domain.StatusPending},
		{pixStatuses, "approved", domain.StatusApproved},
		{pixStatuses, "cancelled", domain.StatusRejected},
		{pixStatuses, "charged_back", domain.StatusRefunded},
		{wechatStatuses, "USERPAYING", domain.StatusPending},
		{wechatStatuses, "SUCCESS", domain.StatusApproved},
		{wechatStatuses, "CLOSED", domain.StatusRejected},
		{wechatStatuses, "REFUND", domain.StatusRefunded},
	}
	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			got, err := tt.table.Lookup(tt.status)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := wechatStatuses.Lookup("approved")
	assert.ErrorIs(t, err, ErrUnknownProviderStatus)
	_, err = pixStatuses.Lookup("")
	assert.ErrorIs(t, err, ErrUnknownProviderStatus)
}
