package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/washbay/washbay-api/internal/model"
	"github.com/washbay/washbay-api/internal/repository"
	"github.com/washbay/washbay-api/pkg/apperr"
)

type loyaltyRepository struct {
	BaseRepository
}

func NewLoyaltyRepository(base BaseRepository) repository.LoyaltyRepository {
	return &loyaltyRepository{base}
}

func (r *loyaltyRepository) GetConfiguration(ctx context.Context, tenantID uuid.UUID) (*model.LoyaltyConfiguration, error) {
	query := `
		SELECT id, tenant_id, points_per_dollar, points_expiry_days, created_at, updated_at
		FROM loyalty_configurations WHERE tenant_id = $1 LIMIT 1
	`
	var cfg model.LoyaltyConfiguration
	err := r.db.GetContext(ctx, &cfg, query, tenantID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get loyalty configuration: %w", err)
	}
	return &cfg, nil
}

func (r *loyaltyRepository) UpsertConfiguration(ctx context.Context, cfg *model.LoyaltyConfiguration) error {
	query := `
		INSERT INTO loyalty_configurations (
			id, tenant_id, points_per_dollar, points_expiry_days, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (tenant_id) DO UPDATE
		SET points_per_dollar = EXCLUDED.points_per_dollar,
			points_expiry_days = EXCLUDED.points_expiry_days,
			updated_at = EXCLUDED.updated_at
	`
	if cfg.ID == uuid.Nil {
		cfg.ID = uuid.New()
		cfg.CreatedAt = time.Now()
	}
	cfg.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		cfg.ID, cfg.TenantID, cfg.PointsPerDollar, cfg.PointsExpiryDays,
		cfg.CreatedAt, cfg.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert loyalty configuration: %w", err)
	}
	return nil
}

const tierColumns = `
	id, tenant_id, name, min_points_required, points_multiplier, discount_percentage,
	created_at, updated_at
`

func (r *loyaltyRepository) CreateTier(ctx context.Context, tier *model.LoyaltyTier) error {
	query := `
		INSERT INTO loyalty_tiers (
			id, tenant_id, name, min_points_required, points_multiplier,
			discount_percentage, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	tier.ID = uuid.New()
	tier.CreatedAt = time.Now()
	tier.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		tier.ID,
		tier.TenantID,
		tier.Name,
		tier.MinPointsRequired,
		tier.PointsMultiplier,
		tier.DiscountPercentage,
		tier.CreatedAt,
		tier.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return apperr.Conflict("tier already exists")
	}
	if err != nil {
		return fmt.Errorf("failed to create loyalty tier: %w", err)
	}
	return nil
}

func (r *loyaltyRepository) ListTiers(ctx context.Context, tenantID uuid.UUID) ([]*model.LoyaltyTier, error) {
	query := `SELECT ` + tierColumns + ` FROM loyalty_tiers WHERE tenant_id = $1 ORDER BY min_points_required`

	var tiers []*model.LoyaltyTier
	if err := r.db.SelectContext(ctx, &tiers, query, tenantID); err != nil {
		return nil, fmt.Errorf("failed to list loyalty tiers: %w", err)
	}
	return tiers, nil
}

const loyaltyColumns = `
	id, tenant_id, customer_id, current_tier_id, total_points, available_points,
	tier_achieved_date, created_at, updated_at
`

func (r *loyaltyRepository) GetLoyaltyByCustomer(ctx context.Context, tenantID, customerID uuid.UUID) (*model.CustomerLoyalty, error) {
	query := `SELECT ` + loyaltyColumns + ` FROM customer_loyalty WHERE customer_id = $1 AND tenant_id = $2`

	var loyalty model.CustomerLoyalty
	err := r.db.GetContext(ctx, &loyalty, query, customerID, tenantID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("loyalty profile")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get loyalty profile: %w", err)
	}
	return &loyalty, nil
}

// loyaltyTxOps implements repository.LoyaltyTxOps against an open transaction.
type loyaltyTxOps struct {
	tx *sqlx.Tx
}

func (o *loyaltyTxOps) UpdateLoyalty(ctx context.Context, loyalty *model.CustomerLoyalty) error {
	query := `
		UPDATE customer_loyalty
		SET current_tier_id = $1, total_points = $2, available_points = $3,
			tier_achieved_date = $4, updated_at = $5
		WHERE id = $6 AND tenant_id = $7
	`
	loyalty.UpdatedAt = time.Now()

	result, err := o.tx.ExecContext(ctx, query,
		loyalty.CurrentTierID,
		loyalty.TotalPoints,
		loyalty.AvailablePoints,
		loyalty.TierAchievedDate,
		loyalty.UpdatedAt,
		loyalty.ID,
		loyalty.TenantID,
	)
	if err != nil {
		return fmt.Errorf("failed to update loyalty profile: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperr.NotFound("loyalty profile")
	}
	return nil
}

func (o *loyaltyTxOps) CreateTransaction(ctx context.Context, txn *model.PointTransaction) error {
	query := `
		INSERT INTO point_transactions (
			id, tenant_id, customer_loyalty_id, job_id, points, transaction_type,
			expires_at, description, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	txn.ID = uuid.New()
	txn.CreatedAt = time.Now()
	txn.UpdatedAt = time.Now()

	_, err := o.tx.ExecContext(ctx, query,
		txn.ID,
		txn.TenantID,
		txn.CustomerLoyaltyID,
		txn.JobID,
		txn.Points,
		txn.TransactionType,
		txn.ExpiresAt,
		txn.Description,
		txn.CreatedAt,
		txn.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create point transaction: %w", err)
	}
	return nil
}

func (o *loyaltyTxOps) CreateOutboxEvent(ctx context.Context, event *model.OutboxEvent) error {
	return createOutboxEventTx(ctx, o.tx, event)
}

func (r *loyaltyRepository) WithLockedLoyalty(ctx context.Context, tenantID, customerID uuid.UUID, fn func(ops repository.LoyaltyTxOps, loyalty *model.CustomerLoyalty) error) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		// Ensure the row exists before locking it; DO NOTHING keeps a
		// concurrent creator from failing the transaction.
		insert := `
			INSERT INTO customer_loyalty (
				id, tenant_id, customer_id, total_points, available_points,
				created_at, updated_at
			) VALUES ($1, $2, $3, 0, 0, $4, $5)
			ON CONFLICT (customer_id) DO NOTHING
		`
		now := time.Now()
		if _, err := tx.ExecContext(ctx, insert, uuid.New(), tenantID, customerID, now, now); err != nil {
			return fmt.Errorf("failed to ensure loyalty profile: %w", err)
		}

		query := `SELECT ` + loyaltyColumns + ` FROM customer_loyalty WHERE customer_id = $1 AND tenant_id = $2 FOR UPDATE`
		var loyalty model.CustomerLoyalty
		if err := tx.GetContext(ctx, &loyalty, query, customerID, tenantID); err != nil {
			return fmt.Errorf("failed to lock loyalty profile: %w", err)
		}

		return fn(&loyaltyTxOps{tx: tx}, &loyalty)
	})
}

func (r *loyaltyRepository) ListTransactions(ctx context.Context, tenantID, loyaltyID uuid.UUID) ([]*model.PointTransaction, error) {
	query := `
		SELECT id, tenant_id, customer_loyalty_id, job_id, points, transaction_type,
			   expires_at, description, created_at, updated_at
		FROM point_transactions
		WHERE customer_loyalty_id = $1 AND tenant_id = $2
		ORDER BY created_at DESC
	`
	var transactions []*model.PointTransaction
	if err := r.db.SelectContext(ctx, &transactions, query, loyaltyID, tenantID); err != nil {
		return nil, fmt.Errorf("failed to list point transactions: %w", err)
	}
	return transactions, nil
}

const redemptionColumns = `
	id, tenant_id, name, points_required, redemption_type, discount_value,
	free_service_id, is_active, created_at, updated_at
`

func (r *loyaltyRepository) CreateRedemptionOption(ctx context.Context, option *model.RedemptionOption) error {
	query := `
		INSERT INTO redemption_options (
			id, tenant_id, name, points_required, redemption_type, discount_value,
			free_service_id, is_active, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	option.ID = uuid.New()
	option.CreatedAt = time.Now()
	option.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		option.ID,
		option.TenantID,
		option.Name,
		option.PointsRequired,
		option.RedemptionType,
		option.DiscountValue,
		option.FreeServiceID,
		option.IsActive,
		option.CreatedAt,
		option.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create redemption option: %w", err)
	}
	return nil
}

func (r *loyaltyRepository) GetRedemptionOption(ctx context.Context, tenantID, id uuid.UUID) (*model.RedemptionOption, error) {
	query := `SELECT ` + redemptionColumns + ` FROM redemption_options WHERE id = $1 AND tenant_id = $2`

	var option model.RedemptionOption
	err := r.db.GetContext(ctx, &option, query, id, tenantID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("redemption option")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get redemption option: %w", err)
	}
	return &option, nil
}

func (r *loyaltyRepository) ListRedemptionOptions(ctx context.Context, tenantID uuid.UUID) ([]*model.RedemptionOption, error) {
	query := `SELECT ` + redemptionColumns + ` FROM redemption_options WHERE tenant_id = $1 ORDER BY points_required`

	var options []*model.RedemptionOption
	if err := r.db.SelectContext(ctx, &options, query, tenantID); err != nil {
		return nil, fmt.Errorf("failed to list redemption options: %w", err)
	}
	return options, nil
}
