package discovery

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amoryn-app/amoryn-backend/internal/entitlement"
)

func testQuota() QuotaConfig {
	return QuotaConfig{FreeQuota: 10, PremiumExtraQuota: 10, UnlockCost: 10}
}

func newTestGate(premium bool) (*AccessGate, *fakeRepository) {
	repo := newFakeRepository()
	resolver := &entitlement.Static{Premium: map[int64]bool{}}
	if premium {
		resolver.Premium[1] = true
	}
	return NewAccessGate(repo, resolver, testQuota()), repo
}

func TestCanAccessWithQuotaAvailable(t *testing.T) {
	ctx := context.Background()
	gate, _ := newTestGate(false)

	decision, err := gate.CanAccess(ctx, 1, ItemProfile, 99)
	require.NoError(t, err)

	assert.True(t, decision.CanAccess)
	assert.Equal(t, ReasonQuotaAvailable, decision.Reason)
	require.NotNil(t, decision.RemainingQuota)
	assert.Equal(t, 10, *decision.RemainingQuota)
}

func TestCanAccessDoesNotConsume(t *testing.T) {
	ctx := context.Background()
	gate, repo := newTestGate(false)

	for i := 0; i < 5; i++ {
		decision, err := gate.CanAccess(ctx, 1, ItemProfile, 99)
		require.NoError(t, err)
		assert.Equal(t, 10, *decision.RemainingQuota)
	}
	assert.Empty(t, repo.unlocks)
}

func TestUnlockConsumesQuotaMonotonically(t *testing.T) {
	ctx := context.Background()
	gate, _ := newTestGate(false)

	for i := int64(0); i < 10; i++ {
		decision, err := gate.CanAccess(ctx, 1, ItemProfile, 100+i)
		require.NoError(t, err)
		require.NotNil(t, decision.RemainingQuota)
		assert.Equal(t, int(10-i), *decision.RemainingQuota)

		unlock, err := gate.Unlock(ctx, 1, ItemProfile, 100+i, nil)
		require.NoError(t, err)
		assert.Equal(t, MethodFreeQuota, unlock.Method)
	}

	decision, err := gate.CanAccess(ctx, 1, ItemProfile, 500)
	require.NoError(t, err)
	assert.False(t, decision.CanAccess)
	assert.Equal(t, ReasonPaymentRequired, decision.Reason)
	require.NotNil(t, decision.Cost)
	assert.Equal(t, 10, *decision.Cost)
	assert.Nil(t, decision.RemainingQuota)
}

func TestUnlockExhaustedQuotaReturnsQuotaExceeded(t *testing.T) {
	ctx := context.Background()
	gate, _ := newTestGate(false)

	for i := int64(0); i < 10; i++ {
		_, err := gate.Unlock(ctx, 1, ItemProfile, 100+i, nil)
		require.NoError(t, err)
	}

	_, err := gate.Unlock(ctx, 1, ItemProfile, 500, nil)
	require.Error(t, err)

	quotaErr, ok := IsQuotaExceeded(err)
	require.True(t, ok)
	assert.Equal(t, ItemProfile, quotaErr.ItemType)
	assert.Equal(t, 10, quotaErr.Cost)
}

func TestUnlockPremiumTransitionsToSubscriptionQuota(t *testing.T) {
	ctx := context.Background()
	gate, _ := newTestGate(true)

	for i := int64(0); i < 20; i++ {
		unlock, err := gate.Unlock(ctx, 1, ItemProfile, 100+i, nil)
		require.NoError(t, err)

		if i < 10 {
			assert.Equal(t, MethodFreeQuota, unlock.Method)
		} else {
			assert.Equal(t, MethodSubscriptionQuota, unlock.Method)
		}
	}

	_, err := gate.Unlock(ctx, 1, ItemProfile, 500, nil)
	_, ok := IsQuotaExceeded(err)
	assert.True(t, ok)
}

func TestUnlockIdempotent(t *testing.T) {
	ctx := context.Background()
	gate, repo := newTestGate(false)

	first, err := gate.Unlock(ctx, 1, ItemProfile, 99, nil)
	require.NoError(t, err)

	second, err := gate.Unlock(ctx, 1, ItemProfile, 99, nil)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, repo.unlocks, 1)

	// Quota consumed exactly once
	decision, err := gate.CanAccess(ctx, 1, ItemProfile, 500)
	require.NoError(t, err)
	assert.Equal(t, 9, *decision.RemainingQuota)
}

func TestUnlockPaidBypassesQuota(t *testing.T) {
	ctx := context.Background()
	gate, _ := newTestGate(false)

	for i := int64(0); i < 10; i++ {
		_, err := gate.Unlock(ctx, 1, ItemProfile, 100+i, nil)
		require.NoError(t, err)
	}

	ref := "pay_abc123"
	unlock, err := gate.Unlock(ctx, 1, ItemProfile, 500, &ref)
	require.NoError(t, err)
	assert.Equal(t, MethodPaidUnlock, unlock.Method)
	require.NotNil(t, unlock.PaymentRef)
	assert.Equal(t, ref, *unlock.PaymentRef)

	// A paid unlock never counts against the quota pool
	_, err = gate.Unlock(ctx, 1, ItemProfile, 501, nil)
	_, ok := IsQuotaExceeded(err)
	assert.True(t, ok)
}

func TestQuotaPoolsIsolatedPerItemType(t *testing.T) {
	ctx := context.Background()
	gate, _ := newTestGate(false)

	for i := int64(0); i < 10; i++ {
		_, err := gate.Unlock(ctx, 1, ItemProfile, 100+i, nil)
		require.NoError(t, err)
	}

	// profile pool is drained; like and match pools are untouched
	for _, itemType := range []ItemType{ItemLike, ItemMatch} {
		decision, err := gate.CanAccess(ctx, 1, itemType, 100)
		require.NoError(t, err, fmt.Sprintf("item type %s", itemType))
		assert.True(t, decision.CanAccess)
		assert.Equal(t, 10, *decision.RemainingQuota)
	}
}
