package scoring

import (
	"math/rand"
	"testing"

	"github.com/aristath/billalloc/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func baseConfig() domain.AllocationConfig {
	return domain.DefaultAllocationConfig()
}

func baseCtx() domain.ScoringContext {
	return domain.ScoringContext{
		MaturityMin: 0,
		MaturityMax: 365,
		AmountRangeByLabel: map[domain.AmountLabel][2]decimal.Decimal{
			domain.LabelLarge:  {d(1_000_000), d(5_000_000)},
			domain.LabelMedium: {d(100_000), d(900_000)},
			domain.LabelSmall:  {d(0), d(90_000)},
		},
		InventoryDistribution: map[domain.AmountLabel]float64{
			domain.LabelLarge:  0.33,
			domain.LabelMedium: 0.33,
			domain.LabelSmall:  0.34,
		},
	}
}

// Law 10: with w_amount = 1 and LARGE_FIRST (no sub-strategy), the
// highest-scored bill is LARGE if any exists.
func TestLaw_LargeFirstPrefersLargeBills(t *testing.T) {
	cfg := baseConfig()
	cfg.WeightConfig = domain.WeightConfig{
		WAmount:       1.0,
		AmountStrategy: domain.AmountLargeFirst,
	}
	ctx := baseCtx()
	order := domain.PaymentOrder{ID: "o1", Amount: d(500_000), Organization: "orgA"}

	large := &domain.Bill{ID: "large", Amount: d(2_000_000), Label: domain.LabelLarge, Organization: "orgB"}
	medium := &domain.Bill{ID: "medium", Amount: d(500_000), Label: domain.LabelMedium, Organization: "orgB"}
	small := &domain.Bill{ID: "small", Amount: d(50_000), Label: domain.LabelSmall, Organization: "orgB"}

	s := New(rand.New(rand.NewSource(42)))
	largeScore := s.Score(large, order, cfg, ctx).Total
	mediumScore := s.Score(medium, order, cfg, ctx).Total
	smallScore := s.Score(small, order, cfg, ctx).Total

	assert.GreaterOrEqual(t, largeScore, mediumScore)
	assert.GreaterOrEqual(t, largeScore, smallScore)
}

// Law 11: with w_maturity = 1, FAR_FIRST, threshold T, between two
// otherwise-equivalent bills with days d1 > d2 >= T, bill1's score >= bill2's.
func TestLaw_FarFirstPrefersLongerMaturity(t *testing.T) {
	cfg := baseConfig()
	cfg.WeightConfig = domain.WeightConfig{
		WMaturity:         1.0,
		MaturityStrategy:  domain.MaturityFarFirst,
		MaturityThreshold: 90,
	}
	ctx := baseCtx()
	ctx.MaturityMin, ctx.MaturityMax = 0, 365
	order := domain.PaymentOrder{ID: "o1", Amount: d(500_000)}

	bill1 := &domain.Bill{ID: "b1", Amount: d(500_000), MaturityDays: 200}
	bill2 := &domain.Bill{ID: "b2", Amount: d(500_000), MaturityDays: 120}

	s := New(nil)
	score1 := s.Score(bill1, order, cfg, ctx).Total
	score2 := s.Score(bill2, order, cfg, ctx).Total

	assert.GreaterOrEqual(t, score1, score2)
}

// Law 12: with w_organization = 1, SAME_ORG, an otherwise-equivalent
// same-org bill outscores a cross-org bill.
func TestLaw_SameOrgOutscoresCrossOrg(t *testing.T) {
	cfg := baseConfig()
	cfg.WeightConfig = domain.WeightConfig{
		WOrganization:        1.0,
		OrganizationStrategy: domain.OrgSameOrg,
	}
	ctx := baseCtx()
	order := domain.PaymentOrder{ID: "o1", Amount: d(500_000), Organization: "orgA"}

	sameOrg := &domain.Bill{ID: "b1", Amount: d(500_000), Organization: "orgA"}
	crossOrg := &domain.Bill{ID: "b2", Amount: d(500_000), Organization: "orgB"}

	s := New(nil)
	assert.Greater(t, s.Score(sameOrg, order, cfg, ctx).Total, s.Score(crossOrg, order, cfg, ctx).Total)
}

func TestScoreMaturity_DegenerateRangeReturnsOne(t *testing.T) {
	cfg := baseConfig()
	cfg.WeightConfig.MaturityStrategy = domain.MaturityFarFirst
	cfg.WeightConfig.MaturityThreshold = 90
	ctx := baseCtx()
	ctx.MaturityMin, ctx.MaturityMax = 100, 100

	s := New(nil)
	bill := &domain.Bill{ID: "b1", MaturityDays: 100}
	got := s.scoreMaturity(bill, cfg.WeightConfig, ctx)
	assert.Equal(t, 1.0, got)
}

func TestScoreAcceptor_ClassClamped(t *testing.T) {
	w := domain.WeightConfig{AcceptorStrategy: domain.AcceptorGoodFirst, AcceptorClassCount: 5}
	over := &domain.Bill{AcceptorClass: 99}
	under := &domain.Bill{AcceptorClass: -3}
	assert.Equal(t, scoreAcceptor(over, w), scoreAcceptor(&domain.Bill{AcceptorClass: 5}, w))
	assert.Equal(t, scoreAcceptor(under, w), scoreAcceptor(&domain.Bill{AcceptorClass: 1}, w))
}

// S5: optimize-inventory biases toward the over-represented label.
func TestOptimizeInventory_BiasesTowardOverrepresentedLabel(t *testing.T) {
	cfg := baseConfig()
	cfg.WeightConfig = domain.WeightConfig{WAmount: 1.0, AmountStrategy: domain.AmountOptimizeInventory}
	cfg.AmountLabelConfig.LargeRatio = 0.3
	cfg.AmountLabelConfig.MediumRatio = 0.5
	cfg.AmountLabelConfig.SmallRatio = 0.2

	ctx := baseCtx()
	ctx.InventoryDistribution = map[domain.AmountLabel]float64{
		domain.LabelLarge:  0.6,
		domain.LabelMedium: 0.3,
		domain.LabelSmall:  0.1,
	}

	order := domain.PaymentOrder{ID: "o1", Amount: d(950_000)}
	large := &domain.Bill{ID: "l1", Label: domain.LabelLarge}
	medium := &domain.Bill{ID: "m1", Label: domain.LabelMedium}
	small := &domain.Bill{ID: "s1", Label: domain.LabelSmall}

	s := New(nil)
	largeScore := s.Score(large, order, cfg, ctx).Total
	mediumScore := s.Score(medium, order, cfg, ctx).Total
	smallScore := s.Score(small, order, cfg, ctx).Total

	assert.Greater(t, largeScore, mediumScore)
	assert.Greater(t, largeScore, smallScore)
}

func TestOptimizeInventory_ZeroDeltaFallsBackToEqualShare(t *testing.T) {
	cfg := baseConfig()
	cfg.AmountLabelConfig.LargeRatio = 0.5
	cfg.AmountLabelConfig.MediumRatio = 0.3
	cfg.AmountLabelConfig.SmallRatio = 0.2
	ctx := baseCtx()
	ctx.InventoryDistribution = map[domain.AmountLabel]float64{
		domain.LabelLarge:  0.5,
		domain.LabelMedium: 0.3,
		domain.LabelSmall:  0.2,
	}
	got := scoreOptimizeInventory(&domain.Bill{Label: domain.LabelLarge}, cfg, ctx)
	assert.InDelta(t, 1.0/3.0, got, 1e-9)
}

func TestAllDimensionScores_InUnitRange(t *testing.T) {
	cfg := baseConfig()
	ctx := baseCtx()
	order := domain.PaymentOrder{ID: "o1", Amount: d(500_000), Organization: "orgA"}
	bill := &domain.Bill{ID: "b1", Amount: d(500_000), MaturityDays: 45, AcceptorClass: 2, Organization: "orgB", Label: domain.LabelMedium}

	s := New(rand.New(rand.NewSource(7)))
	scores := s.Score(bill, order, cfg, ctx)

	for _, v := range []float64{scores.Maturity, scores.Acceptor, scores.Amount, scores.Organization, scores.Total} {
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 1.0)
	}
}
