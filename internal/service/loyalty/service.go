package loyalty

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/washbay/washbay-api/internal/model"
	"github.com/washbay/washbay-api/internal/repository"
	"github.com/washbay/washbay-api/pkg/apperr"
)

type Service struct {
	repo repository.LoyaltyRepository
}

func NewService(repo repository.LoyaltyRepository) *Service {
	return &Service{repo: repo}
}

func (s *Service) GetConfiguration(ctx context.Context, tenantID uuid.UUID) (*model.LoyaltyConfiguration, error) {
	return s.repo.GetConfiguration(ctx, tenantID)
}

func (s *Service) UpsertConfiguration(ctx context.Context, tenantID uuid.UUID, pointsPerDollar decimal.Decimal, expiryDays *int) (*model.LoyaltyConfiguration, error) {
	if pointsPerDollar.IsNegative() {
		return nil, apperr.Validation("points_per_dollar cannot be negative")
	}
	cfg := &model.LoyaltyConfiguration{
		PointsPerDollar:  pointsPerDollar,
		PointsExpiryDays: expiryDays,
	}
	cfg.TenantID = tenantID
	if err := s.repo.UpsertConfiguration(ctx, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (s *Service) CreateTier(ctx context.Context, tenantID uuid.UUID, req *model.CreateLoyaltyTierRequest) (*model.LoyaltyTier, error) {
	tier := &model.LoyaltyTier{
		Name:               req.Name,
		MinPointsRequired:  req.MinPointsRequired,
		PointsMultiplier:   req.PointsMultiplier,
		DiscountPercentage: req.DiscountPercentage,
	}
	if tier.PointsMultiplier.IsZero() {
		tier.PointsMultiplier = decimal.NewFromInt(1)
	}
	tier.TenantID = tenantID
	if err := s.repo.CreateTier(ctx, tier); err != nil {
		return nil, err
	}
	return tier, nil
}

func (s *Service) ListTiers(ctx context.Context, tenantID uuid.UUID) ([]*model.LoyaltyTier, error) {
	return s.repo.ListTiers(ctx, tenantID)
}

func (s *Service) GetProfile(ctx context.Context, tenantID, customerID uuid.UUID) (*model.CustomerLoyalty, error) {
	loyalty, err := s.repo.GetLoyaltyByCustomer(ctx, tenantID, customerID)
	if err != nil {
		return nil, err
	}
	if loyalty.CurrentTierID != nil {
		tiers, err := s.repo.ListTiers(ctx, tenantID)
		if err != nil {
			return nil, err
		}
		for _, tier := range tiers {
			if tier.ID == *loyalty.CurrentTierID {
				loyalty.CurrentTier = tier
				break
			}
		}
	}
	return loyalty, nil
}

func (s *Service) ListTransactions(ctx context.Context, tenantID, customerID uuid.UUID) ([]*model.PointTransaction, error) {
	loyalty, err := s.repo.GetLoyaltyByCustomer(ctx, tenantID, customerID)
	if err != nil {
		return nil, err
	}
	return s.repo.ListTransactions(ctx, tenantID, loyalty.ID)
}

// Earn credits points for money spent: floor(amount × rate × multiplier).
// Both balances grow; lifetime points never decrease.
func (s *Service) Earn(ctx context.Context, tenantID, customerID uuid.UUID, amount decimal.Decimal, jobID *uuid.UUID) error {
	if !amount.IsPositive() {
		return nil
	}

	cfg, err := s.repo.GetConfiguration(ctx, tenantID)
	if err != nil {
		return err
	}
	if cfg == nil || !cfg.PointsPerDollar.IsPositive() {
		// Loyalty is not enabled for this tenant.
		return nil
	}

	tiers, err := s.repo.ListTiers(ctx, tenantID)
	if err != nil {
		return err
	}

	return s.repo.WithLockedLoyalty(ctx, tenantID, customerID, func(ops repository.LoyaltyTxOps, loyalty *model.CustomerLoyalty) error {
		multiplier := decimal.NewFromInt(1)
		if tier := tierFor(tiers, loyalty.TotalPoints); tier != nil {
			multiplier = tier.PointsMultiplier
		}

		points := int(amount.Mul(cfg.PointsPerDollar).Mul(multiplier).IntPart())
		if points <= 0 {
			return nil
		}

		loyalty.TotalPoints += points
		loyalty.AvailablePoints += points

		var expiresAt *time.Time
		if cfg.PointsExpiryDays != nil {
			t := time.Now().AddDate(0, 0, *cfg.PointsExpiryDays)
			expiresAt = &t
		}
		desc := fmt.Sprintf("Earned %d points", points)
		txn := &model.PointTransaction{
			CustomerLoyaltyID: loyalty.ID,
			JobID:             jobID,
			Points:            points,
			TransactionType:   model.PointTransactionEarned,
			ExpiresAt:         expiresAt,
			Description:       &desc,
		}
		txn.TenantID = tenantID
		if err := ops.CreateTransaction(ctx, txn); err != nil {
			return err
		}

		return s.applyTier(ctx, ops, tiers, loyalty, customerID)
	})
}

// Adjust applies a signed manual correction. Positive adjustments count
// toward lifetime points; negative ones only reduce the spendable balance.
func (s *Service) Adjust(ctx context.Context, tenantID, customerID uuid.UUID, req *model.AdjustLoyaltyRequest) error {
	if req.Points == 0 {
		return apperr.Validation("points cannot be zero")
	}

	tiers, err := s.repo.ListTiers(ctx, tenantID)
	if err != nil {
		return err
	}

	return s.repo.WithLockedLoyalty(ctx, tenantID, customerID, func(ops repository.LoyaltyTxOps, loyalty *model.CustomerLoyalty) error {
		if req.Points < 0 && loyalty.AvailablePoints+req.Points < 0 {
			return apperr.InsufficientPoints(-req.Points, loyalty.AvailablePoints)
		}

		loyalty.AvailablePoints += req.Points
		if req.Points > 0 {
			loyalty.TotalPoints += req.Points
		}

		txn := &model.PointTransaction{
			CustomerLoyaltyID: loyalty.ID,
			Points:            req.Points,
			TransactionType:   model.PointTransactionAdjustment,
			Description:       &req.Reason,
		}
		txn.TenantID = tenantID
		if err := ops.CreateTransaction(ctx, txn); err != nil {
			return err
		}

		return s.applyTier(ctx, ops, tiers, loyalty, customerID)
	})
}

// Redeem spends points on a redemption option. The balance can never go
// negative; lifetime points are untouched.
func (s *Service) Redeem(ctx context.Context, tenantID, customerID uuid.UUID, req *model.RedeemRequest) (*model.RedemptionOption, error) {
	option, err := s.repo.GetRedemptionOption(ctx, tenantID, req.RedemptionOptionID)
	if err != nil {
		return nil, err
	}
	if !option.IsActive {
		return nil, apperr.InvalidState("redemption option is not active")
	}

	tiers, err := s.repo.ListTiers(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	err = s.repo.WithLockedLoyalty(ctx, tenantID, customerID, func(ops repository.LoyaltyTxOps, loyalty *model.CustomerLoyalty) error {
		if loyalty.AvailablePoints < option.PointsRequired {
			return apperr.InsufficientPoints(option.PointsRequired, loyalty.AvailablePoints)
		}

		loyalty.AvailablePoints -= option.PointsRequired

		desc := fmt.Sprintf("Redeemed: %s", option.Name)
		txn := &model.PointTransaction{
			CustomerLoyaltyID: loyalty.ID,
			Points:            -option.PointsRequired,
			TransactionType:   model.PointTransactionRedeemed,
			Description:       &desc,
		}
		txn.TenantID = tenantID
		if err := ops.CreateTransaction(ctx, txn); err != nil {
			return err
		}

		return s.applyTier(ctx, ops, tiers, loyalty, customerID)
	})
	if err != nil {
		return nil, err
	}
	return option, nil
}

func (s *Service) CreateRedemptionOption(ctx context.Context, tenantID uuid.UUID, req *model.CreateRedemptionOptionRequest) (*model.RedemptionOption, error) {
	option := &model.RedemptionOption{
		Name:           req.Name,
		PointsRequired: req.PointsRequired,
		RedemptionType: req.RedemptionType,
		DiscountValue:  req.DiscountValue,
		FreeServiceID:  req.FreeServiceID,
		IsActive:       true,
	}
	if req.IsActive != nil {
		option.IsActive = *req.IsActive
	}
	option.TenantID = tenantID
	if err := s.repo.CreateRedemptionOption(ctx, option); err != nil {
		return nil, err
	}
	return option, nil
}

func (s *Service) ListRedemptionOptions(ctx context.Context, tenantID uuid.UUID) ([]*model.RedemptionOption, error) {
	return s.repo.ListRedemptionOptions(ctx, tenantID)
}

// tierFor returns the highest tier whose threshold lifetimePoints meets.
// tiers must be sorted ascending by min_points_required.
func tierFor(tiers []*model.LoyaltyTier, lifetimePoints int) *model.LoyaltyTier {
	var current *model.LoyaltyTier
	for _, tier := range tiers {
		if lifetimePoints >= tier.MinPointsRequired {
			current = tier
		}
	}
	return current
}

// applyTier recomputes the customer's tier from lifetime points, persists
// the loyalty row and emits a tier change event when the tier moved.
func (s *Service) applyTier(ctx context.Context, ops repository.LoyaltyTxOps, tiers []*model.LoyaltyTier, loyalty *model.CustomerLoyalty, customerID uuid.UUID) error {
	var oldTierID *uuid.UUID
	var oldTierName *model.TierName
	if loyalty.CurrentTierID != nil {
		oldTierID = loyalty.CurrentTierID
		for _, tier := range tiers {
			if tier.ID == *loyalty.CurrentTierID {
				name := tier.Name
				oldTierName = &name
				break
			}
		}
	}

	newTier := tierFor(tiers, loyalty.TotalPoints)
	changed := false
	if newTier == nil {
		changed = oldTierID != nil
		loyalty.CurrentTierID = nil
	} else if oldTierID == nil || *oldTierID != newTier.ID {
		changed = true
		loyalty.CurrentTierID = &newTier.ID
		now := time.Now()
		loyalty.TierAchievedDate = &now
	}

	if err := ops.UpdateLoyalty(ctx, loyalty); err != nil {
		return err
	}

	if changed && newTier != nil {
		payload, err := json.Marshal(model.TierChangedPayload{
			TenantID:    loyalty.TenantID,
			CustomerID:  customerID,
			OldTier:     oldTierName,
			NewTier:     newTier.Name,
			TotalPoints: loyalty.TotalPoints,
		})
		if err != nil {
			return fmt.Errorf("failed to marshal tier change payload: %w", err)
		}
		event := &model.OutboxEvent{
			TenantID:  loyalty.TenantID,
			EventType: model.EventTierChanged,
			Payload:   payload,
		}
		return ops.CreateOutboxEvent(ctx, event)
	}
	return nil
}
