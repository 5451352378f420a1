package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LoyaltyConfiguration holds the tenant's earn rate.
type LoyaltyConfiguration struct {
	Base
	PointsPerDollar  decimal.Decimal `json:"points_per_dollar" db:"points_per_dollar"`
	PointsExpiryDays *int            `json:"points_expiry_days,omitempty" db:"points_expiry_days"`
}

type TierName string

const (
	TierBronze   TierName = "BRONZE"
	TierSilver   TierName = "SILVER"
	TierGold     TierName = "GOLD"
	TierPlatinum TierName = "PLATINUM"
)

// LoyaltyTier is unlocked by cumulative lifetime points.
type LoyaltyTier struct {
	Base
	Name               TierName        `json:"name" db:"name"`
	MinPointsRequired  int             `json:"min_points_required" db:"min_points_required"`
	PointsMultiplier   decimal.Decimal `json:"points_multiplier" db:"points_multiplier"`
	DiscountPercentage decimal.Decimal `json:"discount_percentage" db:"discount_percentage"`
}

// CustomerLoyalty tracks a customer's point balances. TotalPoints is
// lifetime earnings and only ever grows; AvailablePoints is spendable.
type CustomerLoyalty struct {
	Base
	CustomerID       uuid.UUID  `json:"customer_id" db:"customer_id"`
	CurrentTierID    *uuid.UUID `json:"current_tier_id,omitempty" db:"current_tier_id"`
	TotalPoints      int        `json:"total_points" db:"total_points"`
	AvailablePoints  int        `json:"available_points" db:"available_points"`
	TierAchievedDate *time.Time `json:"tier_achieved_date,omitempty" db:"tier_achieved_date"`

	CurrentTier *LoyaltyTier `json:"current_tier,omitempty" db:"-"`
}

type PointTransactionType string

const (
	PointTransactionEarned     PointTransactionType = "EARNED"
	PointTransactionRedeemed   PointTransactionType = "REDEEMED"
	PointTransactionExpired    PointTransactionType = "EXPIRED"
	PointTransactionAdjustment PointTransactionType = "ADJUSTMENT"
)

// PointTransaction is an immutable ledger row. Points are signed.
type PointTransaction struct {
	Base
	CustomerLoyaltyID uuid.UUID            `json:"customer_loyalty_id" db:"customer_loyalty_id"`
	JobID             *uuid.UUID           `json:"job_id,omitempty" db:"job_id"`
	Points            int                  `json:"points" db:"points"`
	TransactionType   PointTransactionType `json:"transaction_type" db:"transaction_type"`
	ExpiresAt         *time.Time           `json:"expires_at,omitempty" db:"expires_at"`
	Description       *string              `json:"description,omitempty" db:"description"`
}

type RedemptionType string

const (
	RedemptionTypeDiscount    RedemptionType = "DISCOUNT"
	RedemptionTypeFreeService RedemptionType = "FREE_SERVICE"
)

type RedemptionOption struct {
	Base
	Name           string           `json:"name" db:"name"`
	PointsRequired int              `json:"points_required" db:"points_required"`
	RedemptionType RedemptionType   `json:"redemption_type" db:"redemption_type"`
	DiscountValue  *decimal.Decimal `json:"discount_value,omitempty" db:"discount_value"`
	FreeServiceID  *uuid.UUID       `json:"free_service_id,omitempty" db:"free_service_id"`
	IsActive       bool             `json:"is_active" db:"is_active"`
}

type AdjustLoyaltyRequest struct {
	Points int    `json:"points" validate:"required"`
	Reason string `json:"reason" validate:"required"`
}

type RedeemRequest struct {
	RedemptionOptionID uuid.UUID `json:"redemption_option_id" validate:"required"`
}

type CreateLoyaltyTierRequest struct {
	Name               TierName        `json:"name" validate:"required,oneof=BRONZE SILVER GOLD PLATINUM"`
	MinPointsRequired  int             `json:"min_points_required" validate:"gte=0"`
	PointsMultiplier   decimal.Decimal `json:"points_multiplier"`
	DiscountPercentage decimal.Decimal `json:"discount_percentage"`
}

type CreateRedemptionOptionRequest struct {
	Name           string           `json:"name" validate:"required,max=100"`
	PointsRequired int              `json:"points_required" validate:"required,gt=0"`
	RedemptionType RedemptionType   `json:"redemption_type" validate:"required,oneof=DISCOUNT FREE_SERVICE"`
	DiscountValue  *decimal.Decimal `json:"discount_value"`
	FreeServiceID  *uuid.UUID       `json:"free_service_id"`
	IsActive       *bool            `json:"is_active"`
}
