// internal/entitlement/resolver.go
// Premium-status checks consumed by the discovery core

package entitlement

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

// Resolver answers entitlement questions for a user. Injected into
// the discovery service so scoring and gating stay testable without a
// live subscription store.
type Resolver interface {
	IsPremium(ctx context.Context, userID int64) (bool, error)
}

type postgresResolver struct {
	db *sqlx.DB
}

// NewPostgresResolver reads subscription state from the subscriptions
// table maintained by the billing service.
func NewPostgresResolver(db *sqlx.DB) Resolver {
	return &postgresResolver{db: db}
}

func (r *postgresResolver) IsPremium(ctx context.Context, userID int64) (bool, error) {
	var active bool
	query := `
		SELECT EXISTS(
			SELECT 1 FROM subscriptions
			WHERE user_id = $1
			  AND status = 'active'
			  AND (expires_at IS NULL OR expires_at > NOW())
		)
	`

	err := r.db.GetContext(ctx, &active, query, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return active, err
}

// Static is a fixed-answer resolver for tests and local development.
type Static struct {
	Premium map[int64]bool
}

func (s *Static) IsPremium(_ context.Context, userID int64) (bool, error) {
	return s.Premium[userID], nil
}
