package affiliate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/MikeMC777/costeo/internal/db"
)

type Repository interface {
	Create(ctx context.Context, a *Affiliate) error
	GetByID(ctx context.Context, id string) (*Affiliate, error)
	GetByCode(ctx context.Context, code string) (*Affiliate, error)
	GetByUserID(ctx context.Context, userID string) (*Affiliate, error)
	List(ctx context.Context, status string, limit, offset int) ([]Affiliate, error)
	UpdateStatus(ctx context.Context, id, status string) error
	IncrementClicks(ctx context.Context, code string) (bool, error)

	CreateReferral(ctx context.Context, r *Referral) (bool, error)
	ReferralByTenant(ctx context.Context, tenantID string) (*Referral, error)
	CountReferrals(ctx context.Context, affiliateID string) (int, error)

	CreateCommission(ctx context.Context, c *Commission) (bool, error)
	GetCommission(ctx context.Context, id string) (*Commission, error)
	ListCommissions(ctx context.Context, f CommissionFilter) ([]Commission, error)
	TransitionCommission(ctx context.Context, id string, from, to CommissionStatus, paidAt *time.Time) error
	ApproveMatured(ctx context.Context, now time.Time) (int64, error)
	CommissionTotals(ctx context.Context, affiliateID string) (map[CommissionStatus]decimal.Decimal, error)
}

var ErrReferralNotFound = errors.New("referral not found")

type PGRepo struct{ db *pgxpool.Pool }

func NewPGRepo(pool *pgxpool.Pool) *PGRepo { return &PGRepo{db: pool} }

const affiliateCols = `id, user_id, name, email, code, commission_pct::text, discount_pct::text,
	stripe_coupon_id, stripe_promotion_code_id, status, clicks, created_at, updated_at`

const commissionCols = `id, affiliate_id, referral_id, stripe_invoice_id, sale_amount::text,
	commission_amount::text, currency, status, available_at, paid_at, created_at, updated_at`

func scanAffiliate(row pgx.Row) (*Affiliate, error) {
	var a Affiliate
	err := row.Scan(&a.ID, &a.UserID, &a.Name, &a.Email, &a.Code, &a.CommissionPct, &a.DiscountPct,
		&a.StripeCouponID, &a.StripePromotionCodeID, &a.Status, &a.Clicks, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func scanCommission(row pgx.Row) (*Commission, error) {
	var c Commission
	err := row.Scan(&c.ID, &c.AffiliateID, &c.ReferralID, &c.StripeInvoiceID, &c.SaleAmount,
		&c.CommissionAmount, &c.Currency, &c.Status, &c.AvailableAt, &c.PaidAt, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrCommissionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *PGRepo) Create(ctx context.Context, a *Affiliate) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	err := r.db.QueryRow(ctx, `
		INSERT INTO affiliates (id, user_id, name, email, code, commission_pct, discount_pct,
			stripe_coupon_id, stripe_promotion_code_id, status, clicks, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,0,NOW(),NOW())
		RETURNING created_at, updated_at
	`, a.ID, a.UserID, a.Name, a.Email, a.Code, a.CommissionPct, a.DiscountPct,
		a.StripeCouponID, a.StripePromotionCodeID, a.Status).Scan(&a.CreatedAt, &a.UpdatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicateCode
	}
	if errors.As(err, &pgErr) && pgErr.Code == "23503" {
		return fmt.Errorf("%w: user_id does not match a user", ErrInvalid)
	}
	return err
}

func (r *PGRepo) GetByID(ctx context.Context, id string) (*Affiliate, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if !db.ValidID(id) {
		return nil, ErrNotFound
	}
	return scanAffiliate(r.db.QueryRow(ctx, `SELECT `+affiliateCols+` FROM affiliates WHERE id=$1`, id))
}

func (r *PGRepo) GetByCode(ctx context.Context, code string) (*Affiliate, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return scanAffiliate(r.db.QueryRow(ctx, `SELECT `+affiliateCols+` FROM affiliates WHERE code=$1`, code))
}

func (r *PGRepo) GetByUserID(ctx context.Context, userID string) (*Affiliate, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if !db.ValidID(userID) {
		return nil, ErrNotFound
	}
	return scanAffiliate(r.db.QueryRow(ctx, `SELECT `+affiliateCols+` FROM affiliates WHERE user_id=$1`, userID))
}

func (r *PGRepo) List(ctx context.Context, status string, limit, offset int) ([]Affiliate, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := r.db.Query(ctx, `
		SELECT `+affiliateCols+` FROM affiliates
		WHERE ($1 = '' OR status = $1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, status, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Affiliate{}
	for rows.Next() {
		a, err := scanAffiliate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func (r *PGRepo) UpdateStatus(ctx context.Context, id, status string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if !db.ValidID(id) {
		return ErrNotFound
	}
	cmd, err := r.db.Exec(ctx, `UPDATE affiliates SET status=$2, updated_at=NOW() WHERE id=$1`, id, status)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// IncrementClicks counts a visit on an active code. False means no such active code.
func (r *PGRepo) IncrementClicks(ctx context.Context, code string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cmd, err := r.db.Exec(ctx, `
		UPDATE affiliates SET clicks = clicks + 1 WHERE code=$1 AND status=$2
	`, code, StatusActive)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

// CreateReferral records the first affiliate to bring a tenant. Later attempts
// for the same tenant are ignored and return false.
func (r *PGRepo) CreateReferral(ctx context.Context, ref *Referral) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if ref.ID == "" {
		ref.ID = uuid.NewString()
	}
	err := r.db.QueryRow(ctx, `
		INSERT INTO referrals (id, affiliate_id, tenant_id, stripe_subscription_id, created_at)
		VALUES ($1,$2,$3,$4,NOW())
		ON CONFLICT (tenant_id) DO NOTHING
		RETURNING created_at
	`, ref.ID, ref.AffiliateID, ref.TenantID, ref.StripeSubscriptionID).Scan(&ref.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *PGRepo) ReferralByTenant(ctx context.Context, tenantID string) (*Referral, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var ref Referral
	err := r.db.QueryRow(ctx, `
		SELECT id, affiliate_id, tenant_id, stripe_subscription_id, created_at
		FROM referrals WHERE tenant_id=$1
	`, tenantID).Scan(&ref.ID, &ref.AffiliateID, &ref.TenantID, &ref.StripeSubscriptionID, &ref.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrReferralNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ref, nil
}

func (r *PGRepo) CountReferrals(ctx context.Context, affiliateID string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var n int
	err := r.db.QueryRow(ctx, `SELECT count(*) FROM referrals WHERE affiliate_id=$1`, affiliateID).Scan(&n)
	return n, err
}

// CreateCommission inserts one commission per Stripe invoice. A replayed invoice
// returns false and leaves the stored row untouched.
func (r *PGRepo) CreateCommission(ctx context.Context, c *Commission) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	err := r.db.QueryRow(ctx, `
		INSERT INTO commissions (id, affiliate_id, referral_id, stripe_invoice_id, sale_amount,
			commission_amount, currency, status, available_at, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,NOW(),NOW())
		ON CONFLICT (stripe_invoice_id) DO NOTHING
		RETURNING created_at, updated_at
	`, c.ID, c.AffiliateID, c.ReferralID, c.StripeInvoiceID, c.SaleAmount, c.CommissionAmount,
		c.Currency, c.Status, c.AvailableAt).Scan(&c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *PGRepo) GetCommission(ctx context.Context, id string) (*Commission, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if !db.ValidID(id) {
		return nil, ErrCommissionNotFound
	}
	return scanCommission(r.db.QueryRow(ctx, `SELECT `+commissionCols+` FROM commissions WHERE id=$1`, id))
}

func (r *PGRepo) ListCommissions(ctx context.Context, f CommissionFilter) ([]Commission, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := r.db.Query(ctx, `
		SELECT `+commissionCols+` FROM commissions
		WHERE ($1 = '' OR status = $1) AND ($2 = '' OR affiliate_id::text = $2)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`, string(f.Status), f.AffiliateID, f.Limit, f.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Commission{}
	for rows.Next() {
		c, err := scanCommission(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

// TransitionCommission updates the row only while it is still in status from.
func (r *PGRepo) TransitionCommission(ctx context.Context, id string, from, to CommissionStatus, paidAt *time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if !db.ValidID(id) {
		return ErrCommissionNotFound
	}
	cmd, err := r.db.Exec(ctx, `
		UPDATE commissions SET status=$3, paid_at=COALESCE($4, paid_at), updated_at=NOW()
		WHERE id=$1 AND status=$2
	`, id, from, to, paidAt)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrInvalidTransition
	}
	return nil
}

func (r *PGRepo) ApproveMatured(ctx context.Context, now time.Time) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	cmd, err := r.db.Exec(ctx, `
		UPDATE commissions SET status=$1, updated_at=NOW()
		WHERE status=$2 AND available_at <= $3
	`, Approved, Pending, now)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func (r *PGRepo) CommissionTotals(ctx context.Context, affiliateID string) (map[CommissionStatus]decimal.Decimal, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := r.db.Query(ctx, `
		SELECT status, COALESCE(SUM(commission_amount), 0)::text
		FROM commissions WHERE affiliate_id=$1
		GROUP BY status
	`, affiliateID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[CommissionStatus]decimal.Decimal{}
	for rows.Next() {
		var st CommissionStatus
		var sum decimal.Decimal
		if err := rows.Scan(&st, &sum); err != nil {
			return nil, err
		}
		out[st] = sum
	}
	return out, rows.Err()
}
