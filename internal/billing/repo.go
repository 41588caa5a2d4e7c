package billing

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MikeMC777/costeo/internal/db"
)

type Repository interface {
	Upsert(ctx context.Context, s *Subscription) error
	GetByTenant(ctx context.Context, tenantID string) (*Subscription, error)
	GetBySubscriptionID(ctx context.Context, subscriptionID string) (*Subscription, error)
	SetStatus(ctx context.Context, subscriptionID string, status Status) error
	List(ctx context.Context, status string, limit, offset int) ([]Subscription, error)

	// ClaimEvent records a webhook event id and reports whether this call
	// inserted it. Only the claiming delivery may apply the event.
	ClaimEvent(ctx context.Context, id, typ string) (bool, error)
	// ReleaseEvent forgets a claimed event so a later delivery can retry it.
	ReleaseEvent(ctx context.Context, id string) error
}

type PGRepo struct{ db *pgxpool.Pool }

func NewPGRepo(pool *pgxpool.Pool) *PGRepo { return &PGRepo{db: pool} }

const subscriptionCols = `tenant_id, stripe_customer_id, stripe_subscription_id, plan, status,
	current_period_end, cancel_at_period_end, updated_at`

func scanSubscription(row pgx.Row) (*Subscription, error) {
	var s Subscription
	err := row.Scan(&s.TenantID, &s.StripeCustomerID, &s.StripeSubscriptionID, &s.Plan, &s.Status,
		&s.CurrentPeriodEnd, &s.CancelAtPeriodEnd, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Upsert stores the tenant's subscription. A tenant has at most one.
func (r *PGRepo) Upsert(ctx context.Context, s *Subscription) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return r.db.QueryRow(ctx, `
		INSERT INTO subscriptions (`+subscriptionCols+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,NOW())
		ON CONFLICT (tenant_id) DO UPDATE SET
			stripe_customer_id     = COALESCE(NULLIF(EXCLUDED.stripe_customer_id, ''), subscriptions.stripe_customer_id),
			stripe_subscription_id = EXCLUDED.stripe_subscription_id,
			plan                   = EXCLUDED.plan,
			status                 = EXCLUDED.status,
			current_period_end     = COALESCE(EXCLUDED.current_period_end, subscriptions.current_period_end),
			cancel_at_period_end   = EXCLUDED.cancel_at_period_end,
			updated_at             = NOW()
		RETURNING updated_at
	`, s.TenantID, s.StripeCustomerID, s.StripeSubscriptionID, s.Plan, s.Status,
		s.CurrentPeriodEnd, s.CancelAtPeriodEnd).Scan(&s.UpdatedAt)
}

func (r *PGRepo) GetByTenant(ctx context.Context, tenantID string) (*Subscription, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if !db.ValidID(tenantID) {
		return nil, ErrNotFound
	}
	return scanSubscription(r.db.QueryRow(ctx,
		`SELECT `+subscriptionCols+` FROM subscriptions WHERE tenant_id=$1`, tenantID))
}

func (r *PGRepo) GetBySubscriptionID(ctx context.Context, subscriptionID string) (*Subscription, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return scanSubscription(r.db.QueryRow(ctx,
		`SELECT `+subscriptionCols+` FROM subscriptions WHERE stripe_subscription_id=$1`, subscriptionID))
}

func (r *PGRepo) SetStatus(ctx context.Context, subscriptionID string, status Status) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tag, err := r.db.Exec(ctx,
		`UPDATE subscriptions SET status=$2, updated_at=NOW() WHERE stripe_subscription_id=$1`,
		subscriptionID, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGRepo) List(ctx context.Context, status string, limit, offset int) ([]Subscription, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := r.db.Query(ctx, `
		SELECT `+subscriptionCols+` FROM subscriptions
		WHERE ($1 = '' OR status = $1)
		ORDER BY updated_at DESC
		LIMIT $2 OFFSET $3
	`, status, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Subscription{}
	for rows.Next() {
		s, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

func (r *PGRepo) ClaimEvent(ctx context.Context, id, typ string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tag, err := r.db.Exec(ctx, `
		INSERT INTO stripe_events (id, type, received_at) VALUES ($1,$2,NOW())
		ON CONFLICT (id) DO NOTHING
	`, id, typ)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *PGRepo) ReleaseEvent(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := r.db.Exec(ctx, `DELETE FROM stripe_events WHERE id=$1`, id)
	return err
}
