package sandbox

import (
	"context"
	"testing"

	"github.com/smallbiznis/payrail/internal/disbursement/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatchBatchMintsUniqueIDs(t *testing.T) {
	p := New()
	ctx := context.Background()
	items := []domain.BatchItem{{PayeeEmail: "a@example.com", Amount: 100, Currency: "usd"}}

	first, err := p.DispatchBatch(ctx, items)
	require.NoError(t, err)
	second, err := p.DispatchBatch(ctx, items)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.Contains(t, first, "sandbox_batch_")
}

func TestDispatchBatchValidation(t *testing.T) {
	p := New()
	ctx := context.Background()

	cases := []struct {
		name  string
		items []domain.BatchItem
	}{
		{"empty batch", nil},
		{"missing email", []domain.BatchItem{{Amount: 100, Currency: "usd"}}},
		{"non-positive amount", []domain.BatchItem{{PayeeEmail: "a@example.com", Amount: 0, Currency: "usd"}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := p.DispatchBatch(ctx, tc.items)
			var dispatchErr *domain.DispatchError
			require.ErrorAs(t, err, &dispatchErr)
			assert.Equal(t, domain.FailureValidation, dispatchErr.Code)
			assert.False(t, dispatchErr.Retryable)
		})
	}
}
