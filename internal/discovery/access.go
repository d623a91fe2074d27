package discovery

import (
	"context"

	"github.com/amoryn-app/amoryn-backend/internal/entitlement"
)

// Access decision reasons surfaced to the UI.
const (
	ReasonAlreadyUnlocked = "already_unlocked"
	ReasonQuotaAvailable  = "quota_available"
	ReasonPaymentRequired = "payment_required"
)

// QuotaConfig carries the gate's tunables.
type QuotaConfig struct {
	FreeQuota         int
	PremiumExtraQuota int
	UnlockCost        int
}

// AccessDecision is the answer to a CanAccess query.
type AccessDecision struct {
	CanAccess      bool   `json:"can_access"`
	Reason         string `json:"reason"`
	RemainingQuota *int   `json:"remaining_quota,omitempty"`
	Cost           *int   `json:"cost,omitempty"`
}

// AccessGate decides, per (user, item type, target), whether the
// target is visible or actionable, consuming free/subscription quota
// or demanding payment. One quota pool per item kind; the three kinds
// never share counts.
type AccessGate struct {
	repo         Repository
	entitlements entitlement.Resolver
	cfg          QuotaConfig
}

func NewAccessGate(repo Repository, entitlements entitlement.Resolver, cfg QuotaConfig) *AccessGate {
	return &AccessGate{repo: repo, entitlements: entitlements, cfg: cfg}
}

func (g *AccessGate) totalQuota(ctx context.Context, userID int64) (int, error) {
	premium, err := g.entitlements.IsPremium(ctx, userID)
	if err != nil {
		return 0, err
	}

	total := g.cfg.FreeQuota
	if premium {
		total += g.cfg.PremiumExtraQuota
	}
	return total, nil
}

// CanAccess is the read-only probe: it never writes an unlock row, so
// listings can annotate candidates as locked/unlocked without
// consuming anything.
func (g *AccessGate) CanAccess(ctx context.Context, userID int64, itemType ItemType, targetID int64) (*AccessDecision, error) {
	existing, err := g.repo.GetUnlock(ctx, userID, itemType, targetID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return &AccessDecision{CanAccess: true, Reason: ReasonAlreadyUnlocked}, nil
	}

	used, err := g.repo.CountQuotaUnlocks(ctx, userID, itemType)
	if err != nil {
		return nil, err
	}

	total, err := g.totalQuota(ctx, userID)
	if err != nil {
		return nil, err
	}

	if used < total {
		remaining := total - used
		return &AccessDecision{
			CanAccess:      true,
			Reason:         ReasonQuotaAvailable,
			RemainingQuota: &remaining,
		}, nil
	}

	cost := g.cfg.UnlockCost
	return &AccessDecision{
		CanAccess: false,
		Reason:    ReasonPaymentRequired,
		Cost:      &cost,
	}, nil
}

// Unlock obtains access, consuming a quota unit or recording a paid
// unlock when a completed-payment reference is supplied. Repeated
// unlocks of the same triple return the existing row silently; the
// uniqueness constraint makes racing duplicates collapse into one.
func (g *AccessGate) Unlock(ctx context.Context, userID int64, itemType ItemType, targetID int64, paymentRef *string) (*ItemUnlock, error) {
	existing, err := g.repo.GetUnlock(ctx, userID, itemType, targetID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	if paymentRef != nil && *paymentRef != "" {
		unlock := &ItemUnlock{
			UserID:     userID,
			ItemType:   itemType,
			TargetID:   targetID,
			Method:     MethodPaidUnlock,
			PaymentRef: paymentRef,
		}
		return g.insert(ctx, unlock)
	}

	used, err := g.repo.CountQuotaUnlocks(ctx, userID, itemType)
	if err != nil {
		return nil, err
	}

	total, err := g.totalQuota(ctx, userID)
	if err != nil {
		return nil, err
	}

	if used >= total {
		RecordQuotaDenial(string(itemType))
		return nil, &QuotaExceededError{ItemType: itemType, Cost: g.cfg.UnlockCost}
	}

	method := MethodFreeQuota
	if used >= g.cfg.FreeQuota {
		method = MethodSubscriptionQuota
	}

	unlock := &ItemUnlock{
		UserID:   userID,
		ItemType: itemType,
		TargetID: targetID,
		Method:   method,
	}
	return g.insert(ctx, unlock)
}

func (g *AccessGate) insert(ctx context.Context, unlock *ItemUnlock) (*ItemUnlock, error) {
	created, err := g.repo.CreateUnlock(ctx, unlock)
	if err != nil {
		return nil, err
	}
	if !created {
		// Lost a race to a concurrent unlock of the same triple
		return g.repo.GetUnlock(ctx, unlock.UserID, unlock.ItemType, unlock.TargetID)
	}
	return unlock, nil
}
