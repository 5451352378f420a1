package loyalty

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/washbay/washbay-api/internal/model"
	"github.com/washbay/washbay-api/internal/repository"
	"github.com/washbay/washbay-api/pkg/apperr"
)

type fakeLoyaltyRepo struct {
	cfg     *model.LoyaltyConfiguration
	tiers   []*model.LoyaltyTier
	loyalty *model.CustomerLoyalty
	options map[uuid.UUID]*model.RedemptionOption

	txns   []*model.PointTransaction
	events []*model.OutboxEvent
}

func newFakeLoyaltyRepo() *fakeLoyaltyRepo {
	return &fakeLoyaltyRepo{options: make(map[uuid.UUID]*model.RedemptionOption)}
}

func (f *fakeLoyaltyRepo) GetConfiguration(ctx context.Context, tenantID uuid.UUID) (*model.LoyaltyConfiguration, error) {
	return f.cfg, nil
}

func (f *fakeLoyaltyRepo) UpsertConfiguration(ctx context.Context, cfg *model.LoyaltyConfiguration) error {
	f.cfg = cfg
	return nil
}

func (f *fakeLoyaltyRepo) CreateTier(ctx context.Context, tier *model.LoyaltyTier) error {
	tier.ID = uuid.New()
	f.tiers = append(f.tiers, tier)
	return nil
}

func (f *fakeLoyaltyRepo) ListTiers(ctx context.Context, tenantID uuid.UUID) ([]*model.LoyaltyTier, error) {
	return f.tiers, nil
}

func (f *fakeLoyaltyRepo) GetLoyaltyByCustomer(ctx context.Context, tenantID, customerID uuid.UUID) (*model.CustomerLoyalty, error) {
	if f.loyalty == nil {
		return nil, apperr.NotFound("loyalty profile")
	}
	return f.loyalty, nil
}

func (f *fakeLoyaltyRepo) WithLockedLoyalty(ctx context.Context, tenantID, customerID uuid.UUID, fn func(ops repository.LoyaltyTxOps, loyalty *model.CustomerLoyalty) error) error {
	if f.loyalty == nil {
		f.loyalty = &model.CustomerLoyalty{CustomerID: customerID}
		f.loyalty.ID = uuid.New()
		f.loyalty.TenantID = tenantID
	}
	return fn(&fakeTxOps{repo: f}, f.loyalty)
}

func (f *fakeLoyaltyRepo) ListTransactions(ctx context.Context, tenantID, loyaltyID uuid.UUID) ([]*model.PointTransaction, error) {
	return f.txns, nil
}

func (f *fakeLoyaltyRepo) CreateRedemptionOption(ctx context.Context, option *model.RedemptionOption) error {
	option.ID = uuid.New()
	f.options[option.ID] = option
	return nil
}

func (f *fakeLoyaltyRepo) GetRedemptionOption(ctx context.Context, tenantID, id uuid.UUID) (*model.RedemptionOption, error) {
	option, ok := f.options[id]
	if !ok {
		return nil, apperr.NotFound("redemption option")
	}
	return option, nil
}

func (f *fakeLoyaltyRepo) ListRedemptionOptions(ctx context.Context, tenantID uuid.UUID) ([]*model.RedemptionOption, error) {
	options := make([]*model.RedemptionOption, 0, len(f.options))
	for _, o := range f.options {
		options = append(options, o)
	}
	return options, nil
}

type fakeTxOps struct {
	repo *fakeLoyaltyRepo
}

func (o *fakeTxOps) UpdateLoyalty(ctx context.Context, loyalty *model.CustomerLoyalty) error {
	o.repo.loyalty = loyalty
	return nil
}

func (o *fakeTxOps) CreateTransaction(ctx context.Context, txn *model.PointTransaction) error {
	o.repo.txns = append(o.repo.txns, txn)
	return nil
}

func (o *fakeTxOps) CreateOutboxEvent(ctx context.Context, event *model.OutboxEvent) error {
	o.repo.events = append(o.repo.events, event)
	return nil
}

func setupLoyalty(t *testing.T, repo *fakeLoyaltyRepo, pointsPerDollar string) (*Service, uuid.UUID, uuid.UUID) {
	t.Helper()
	svc := NewService(repo)
	tenantID := uuid.New()
	customerID := uuid.New()
	if pointsPerDollar != "" {
		cfg := &model.LoyaltyConfiguration{PointsPerDollar: decimal.RequireFromString(pointsPerDollar)}
		cfg.TenantID = tenantID
		repo.cfg = cfg
	}
	return svc, tenantID, customerID
}

func addTier(repo *fakeLoyaltyRepo, name model.TierName, minPoints int, multiplier string) *model.LoyaltyTier {
	tier := &model.LoyaltyTier{
		Name:              name,
		MinPointsRequired: minPoints,
		PointsMultiplier:  decimal.RequireFromString(multiplier),
	}
	tier.ID = uuid.New()
	repo.tiers = append(repo.tiers, tier)
	return tier
}

func TestEarn(t *testing.T) {
	ctx := context.Background()

	t.Run("credits floor of amount times rate", func(t *testing.T) {
		repo := newFakeLoyaltyRepo()
		svc, tenantID, customerID := setupLoyalty(t, repo, "1")

		err := svc.Earn(ctx, tenantID, customerID, decimal.RequireFromString("86.25"), nil)
		require.NoError(t, err)

		assert.Equal(t, 86, repo.loyalty.TotalPoints)
		assert.Equal(t, 86, repo.loyalty.AvailablePoints)
		require.Len(t, repo.txns, 1)
		assert.Equal(t, model.PointTransactionEarned, repo.txns[0].TransactionType)
		assert.Equal(t, 86, repo.txns[0].Points)
	})

	t.Run("tier multiplier applies before flooring", func(t *testing.T) {
		repo := newFakeLoyaltyRepo()
		svc, tenantID, customerID := setupLoyalty(t, repo, "1")
		addTier(repo, model.TierBronze, 0, "1")
		addTier(repo, model.TierGold, 50, "1.5")

		repo.loyalty = &model.CustomerLoyalty{CustomerID: customerID, TotalPoints: 100, AvailablePoints: 100}
		repo.loyalty.ID = uuid.New()
		repo.loyalty.TenantID = tenantID

		err := svc.Earn(ctx, tenantID, customerID, decimal.RequireFromString("33"), nil)
		require.NoError(t, err)

		// 33 * 1 * 1.5 = 49.5, floored to 49.
		assert.Equal(t, 149, repo.loyalty.TotalPoints)
		assert.Equal(t, 149, repo.loyalty.AvailablePoints)
	})

	t.Run("noop when loyalty is not configured", func(t *testing.T) {
		repo := newFakeLoyaltyRepo()
		svc, tenantID, customerID := setupLoyalty(t, repo, "")

		err := svc.Earn(ctx, tenantID, customerID, decimal.RequireFromString("50"), nil)
		require.NoError(t, err)
		assert.Nil(t, repo.loyalty)
		assert.Empty(t, repo.txns)
	})

	t.Run("noop on non positive amount", func(t *testing.T) {
		repo := newFakeLoyaltyRepo()
		svc, tenantID, customerID := setupLoyalty(t, repo, "1")

		err := svc.Earn(ctx, tenantID, customerID, decimal.Zero, nil)
		require.NoError(t, err)
		assert.Empty(t, repo.txns)
	})

	t.Run("crossing a threshold emits tier change event", func(t *testing.T) {
		repo := newFakeLoyaltyRepo()
		svc, tenantID, customerID := setupLoyalty(t, repo, "1")
		addTier(repo, model.TierBronze, 0, "1")
		silver := addTier(repo, model.TierSilver, 100, "1.25")

		err := svc.Earn(ctx, tenantID, customerID, decimal.RequireFromString("120"), nil)
		require.NoError(t, err)

		require.NotNil(t, repo.loyalty.CurrentTierID)
		assert.Equal(t, silver.ID, *repo.loyalty.CurrentTierID)
		assert.NotNil(t, repo.loyalty.TierAchievedDate)

		require.Len(t, repo.events, 1)
		assert.Equal(t, model.EventTierChanged, repo.events[0].EventType)

		var payload model.TierChangedPayload
		require.NoError(t, json.Unmarshal(repo.events[0].Payload, &payload))
		assert.Equal(t, model.TierSilver, payload.NewTier)
		assert.Equal(t, 120, payload.TotalPoints)
	})

	t.Run("no event when tier is unchanged", func(t *testing.T) {
		repo := newFakeLoyaltyRepo()
		svc, tenantID, customerID := setupLoyalty(t, repo, "1")
		bronze := addTier(repo, model.TierBronze, 0, "1")

		repo.loyalty = &model.CustomerLoyalty{
			CustomerID:      customerID,
			CurrentTierID:   &bronze.ID,
			TotalPoints:     10,
			AvailablePoints: 10,
		}
		repo.loyalty.ID = uuid.New()
		repo.loyalty.TenantID = tenantID

		err := svc.Earn(ctx, tenantID, customerID, decimal.RequireFromString("5"), nil)
		require.NoError(t, err)
		assert.Empty(t, repo.events)
	})
}

func TestAdjust(t *testing.T) {
	ctx := context.Background()

	t.Run("positive adjustment grows both balances", func(t *testing.T) {
		repo := newFakeLoyaltyRepo()
		svc, tenantID, customerID := setupLoyalty(t, repo, "1")

		err := svc.Adjust(ctx, tenantID, customerID, &model.AdjustLoyaltyRequest{Points: 25, Reason: "goodwill"})
		require.NoError(t, err)

		assert.Equal(t, 25, repo.loyalty.TotalPoints)
		assert.Equal(t, 25, repo.loyalty.AvailablePoints)
	})

	t.Run("negative adjustment leaves lifetime points alone", func(t *testing.T) {
		repo := newFakeLoyaltyRepo()
		svc, tenantID, customerID := setupLoyalty(t, repo, "1")
		repo.loyalty = &model.CustomerLoyalty{CustomerID: customerID, TotalPoints: 100, AvailablePoints: 60}
		repo.loyalty.ID = uuid.New()
		repo.loyalty.TenantID = tenantID

		err := svc.Adjust(ctx, tenantID, customerID, &model.AdjustLoyaltyRequest{Points: -40, Reason: "correction"})
		require.NoError(t, err)

		assert.Equal(t, 100, repo.loyalty.TotalPoints)
		assert.Equal(t, 20, repo.loyalty.AvailablePoints)
	})

	t.Run("rejects overdraft", func(t *testing.T) {
		repo := newFakeLoyaltyRepo()
		svc, tenantID, customerID := setupLoyalty(t, repo, "1")
		repo.loyalty = &model.CustomerLoyalty{CustomerID: customerID, TotalPoints: 100, AvailablePoints: 30}
		repo.loyalty.ID = uuid.New()
		repo.loyalty.TenantID = tenantID

		err := svc.Adjust(ctx, tenantID, customerID, &model.AdjustLoyaltyRequest{Points: -50, Reason: "correction"})
		assert.True(t, apperr.Is(err, apperr.CodeInsufficientPoints))
		assert.Equal(t, 30, repo.loyalty.AvailablePoints)
	})

	t.Run("rejects zero", func(t *testing.T) {
		repo := newFakeLoyaltyRepo()
		svc, tenantID, customerID := setupLoyalty(t, repo, "1")

		err := svc.Adjust(ctx, tenantID, customerID, &model.AdjustLoyaltyRequest{Points: 0, Reason: "noop"})
		assert.True(t, apperr.Is(err, apperr.CodeValidation))
	})
}

func TestRedeem(t *testing.T) {
	ctx := context.Background()

	t.Run("spends available points only", func(t *testing.T) {
		repo := newFakeLoyaltyRepo()
		svc, tenantID, customerID := setupLoyalty(t, repo, "1")
		option := &model.RedemptionOption{Name: "Free wash", PointsRequired: 50, RedemptionType: model.RedemptionTypeFreeService, IsActive: true}
		option.ID = uuid.New()
		repo.options[option.ID] = option

		repo.loyalty = &model.CustomerLoyalty{CustomerID: customerID, TotalPoints: 200, AvailablePoints: 80}
		repo.loyalty.ID = uuid.New()
		repo.loyalty.TenantID = tenantID

		got, err := svc.Redeem(ctx, tenantID, customerID, &model.RedeemRequest{RedemptionOptionID: option.ID})
		require.NoError(t, err)
		assert.Equal(t, option.ID, got.ID)

		assert.Equal(t, 200, repo.loyalty.TotalPoints)
		assert.Equal(t, 30, repo.loyalty.AvailablePoints)
		require.Len(t, repo.txns, 1)
		assert.Equal(t, -50, repo.txns[0].Points)
		assert.Equal(t, model.PointTransactionRedeemed, repo.txns[0].TransactionType)
	})

	t.Run("insufficient points", func(t *testing.T) {
		repo := newFakeLoyaltyRepo()
		svc, tenantID, customerID := setupLoyalty(t, repo, "1")
		option := &model.RedemptionOption{Name: "Free wash", PointsRequired: 500, RedemptionType: model.RedemptionTypeFreeService, IsActive: true}
		option.ID = uuid.New()
		repo.options[option.ID] = option

		repo.loyalty = &model.CustomerLoyalty{CustomerID: customerID, AvailablePoints: 80}
		repo.loyalty.ID = uuid.New()
		repo.loyalty.TenantID = tenantID

		_, err := svc.Redeem(ctx, tenantID, customerID, &model.RedeemRequest{RedemptionOptionID: option.ID})
		assert.True(t, apperr.Is(err, apperr.CodeInsufficientPoints))
		assert.Equal(t, 80, repo.loyalty.AvailablePoints)
	})

	t.Run("inactive option", func(t *testing.T) {
		repo := newFakeLoyaltyRepo()
		svc, tenantID, customerID := setupLoyalty(t, repo, "1")
		option := &model.RedemptionOption{Name: "Retired", PointsRequired: 10, RedemptionType: model.RedemptionTypeDiscount}
		option.ID = uuid.New()
		repo.options[option.ID] = option

		_, err := svc.Redeem(ctx, tenantID, customerID, &model.RedeemRequest{RedemptionOptionID: option.ID})
		assert.True(t, apperr.Is(err, apperr.CodeInvalidState))
	})
}

func TestTierFor(t *testing.T) {
	repo := newFakeLoyaltyRepo()
	bronze := addTier(repo, model.TierBronze, 0, "1")
	silver := addTier(repo, model.TierSilver, 100, "1.25")
	gold := addTier(repo, model.TierGold, 500, "1.5")

	assert.Equal(t, bronze, tierFor(repo.tiers, 0))
	assert.Equal(t, bronze, tierFor(repo.tiers, 99))
	assert.Equal(t, silver, tierFor(repo.tiers, 100))
	assert.Equal(t, gold, tierFor(repo.tiers, 9999))
	assert.Nil(t, tierFor(nil, 50))
}

func TestCreateTierDefaultsMultiplier(t *testing.T) {
	repo := newFakeLoyaltyRepo()
	svc := NewService(repo)

	tier, err := svc.CreateTier(context.Background(), uuid.New(), &model.CreateLoyaltyTierRequest{
		Name: model.TierBronze,
	})
	require.NoError(t, err)
	assert.True(t, tier.PointsMultiplier.Equal(decimal.NewFromInt(1)))
}

func TestUpsertConfigurationRejectsNegativeRate(t *testing.T) {
	svc := NewService(newFakeLoyaltyRepo())

	_, err := svc.UpsertConfiguration(context.Background(), uuid.New(), decimal.RequireFromString("-1"), nil)
	assert.True(t, apperr.Is(err, apperr.CodeValidation))
}
