// Package scoring maps (bill, order, config, stats) to a normalized
// per-dimension score and a weighted total (spec.md §4.3). Each dimension
// is a tagged-variant strategy dispatch, matching the teacher's
// scorers package (concentration.go, stability.go): small, pure,
// struct-free functions per dimension, with the piecewise-linear style of
// stability.go's consistency/volatility/recovery curves.
package scoring

import (
	"math/rand"

	"github.com/aristath/billalloc/internal/domain"
	"github.com/shopspring/decimal"
)

// Scorer computes per-bill dimension scores against a fixed order, config
// and pool context. It owns the engine-scoped PRNG (spec.md §9: "a single
// engine-scoped PRNG, seeded at construction... all random calls draw from
// it").
type Scorer struct {
	rng *rand.Rand
}

// New builds a Scorer with the given PRNG. A nil rng is replaced by one
// seeded with 1, so a Scorer built from nil is still deterministic (tests
// pass rand.New(rand.NewSource(seed)) when they need a specific seed).
func New(rng *rand.Rand) *Scorer {
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	return &Scorer{rng: rng}
}

// Score computes the four dimension scores and the weighted total for one
// bill against one order.
func (s *Scorer) Score(bill *domain.Bill, order domain.PaymentOrder, cfg domain.AllocationConfig, ctx domain.ScoringContext) domain.DimensionScores {
	w := cfg.WeightConfig
	maturity := s.scoreMaturity(bill, w, ctx)
	acceptor := scoreAcceptor(bill, w)
	amount := s.scoreAmount(bill, order, cfg, ctx)
	org := scoreOrganization(bill, order, w)

	total := w.WMaturity*maturity + w.WAcceptor*acceptor + w.WAmount*amount + w.WOrganization*org

	return domain.DimensionScores{
		Maturity:     maturity,
		Acceptor:     acceptor,
		Amount:       amount,
		Organization: org,
		Total:        total,
	}
}

// scoreMaturity implements spec.md §4.3's piecewise-normalized curve
// around the configured threshold.
func (s *Scorer) scoreMaturity(bill *domain.Bill, w domain.WeightConfig, ctx domain.ScoringContext) float64 {
	dMin, dMax := ctx.MaturityMin, ctx.MaturityMax
	if dMax == dMin {
		return 1.0
	}
	threshold := w.MaturityThreshold
	days := bill.MaturityDays

	switch w.MaturityStrategy {
	case domain.MaturityNearFirst:
		// Mirror image of FAR_FIRST: near maturities score in [0.7,1.0],
		// far maturities score in [0,0.7].
		if days <= threshold {
			if threshold == dMin {
				return 1.0
			}
			frac := (float64(threshold) - float64(days)) / (float64(threshold) - float64(dMin))
			return clamp01(0.7 + frac*0.3)
		}
		if dMax == threshold {
			return 0.0
		}
		frac := (float64(dMax) - float64(days)) / (float64(dMax) - float64(threshold))
		return clamp01(frac * 0.7)
	default: // MaturityFarFirst
		if days >= threshold {
			if dMax == threshold {
				return 1.0
			}
			frac := (float64(days) - float64(threshold)) / (float64(dMax) - float64(threshold))
			return clamp01(0.7 + frac*0.3)
		}
		if threshold == dMin {
			return 0.0
		}
		frac := (float64(days) - float64(dMin)) / (float64(threshold) - float64(dMin))
		return clamp01(frac * 0.7)
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// scoreAcceptor implements spec.md §4.3's linear acceptor-class score.
func scoreAcceptor(bill *domain.Bill, w domain.WeightConfig) float64 {
	k := w.AcceptorClassCount
	if k < 1 {
		k = 1
	}
	class := bill.AcceptorClass
	if class < 1 {
		class = 1
	}
	if class > k {
		class = k
	}
	if w.AcceptorStrategy == domain.AcceptorGoodFirst {
		return float64(k+1-class) / float64(k)
	}
	return float64(class) / float64(k)
}

// scoreAmount dispatches to the configured amount strategy.
func (s *Scorer) scoreAmount(bill *domain.Bill, order domain.PaymentOrder, cfg domain.AllocationConfig, ctx domain.ScoringContext) float64 {
	switch cfg.WeightConfig.AmountStrategy {
	case domain.AmountLargeFirst:
		return s.scoreLargeFirst(bill, cfg, ctx)
	case domain.AmountSmallFirst:
		return s.scoreSmallFirst(bill, cfg, ctx)
	case domain.AmountRandom:
		return s.rng.Float64()
	case domain.AmountLEOrder:
		if bill.Amount.LessThanOrEqual(order.Amount) {
			return 1.0
		}
		return 0.5
	case domain.AmountGEOrder:
		if bill.Amount.GreaterThanOrEqual(order.Amount) {
			return 1.0
		}
		return 0.2
	case domain.AmountOptimizeInventory:
		return scoreOptimizeInventory(bill, cfg, ctx)
	default:
		return 0.5
	}
}

func (s *Scorer) scoreLargeFirst(bill *domain.Bill, cfg domain.AllocationConfig, ctx domain.ScoringContext) float64 {
	switch bill.Label {
	case domain.LabelLarge:
		if cfg.WeightConfig.AmountSubStrategy == domain.AmountSubSorted {
			return normalizeWithinRange(bill.Amount, ctx.AmountRangeByLabel[domain.LabelLarge], false)
		}
		return 0.7 + s.rng.Float64()*0.3
	case domain.LabelMedium:
		return 0.5
	default:
		return 0.2
	}
}

func (s *Scorer) scoreSmallFirst(bill *domain.Bill, cfg domain.AllocationConfig, ctx domain.ScoringContext) float64 {
	switch bill.Label {
	case domain.LabelSmall:
		if cfg.WeightConfig.AmountSubStrategy == domain.AmountSubSorted {
			return normalizeWithinRange(bill.Amount, ctx.AmountRangeByLabel[domain.LabelSmall], true)
		}
		return 0.7 + s.rng.Float64()*0.3
	case domain.LabelMedium:
		return 0.5
	default:
		return 0.2
	}
}

// normalizeWithinRange maps amount into [0.7, 1.0] within [low, high].
// When reversed is true (SMALL_FIRST), the nearer-to-low end scores higher.
func normalizeWithinRange(amount decimal.Decimal, r [2]decimal.Decimal, reversed bool) float64 {
	low, high := r[0], r[1]
	if low.IsZero() && high.IsZero() {
		low, high = amount, amount
	}
	span := high.Sub(low)
	if span.IsZero() {
		span = decimal.NewFromInt(1)
	}
	var fracDec decimal.Decimal
	if reversed {
		fracDec = high.Sub(amount).Div(span)
	} else {
		fracDec = amount.Sub(low).Div(span)
	}
	frac, _ := fracDec.Float64()
	return 0.7 + clamp01(frac)*0.3
}

// scoreOptimizeInventory implements the spec.md §9-resolved reference form:
// raw_L = max(0, 2*current_L - expected_L) when current_L > expected_L,
// else 0; score = raw_L / sum(raw), falling back to 1/|labels| when the
// sum is zero. This steers selection toward labels currently
// over-represented relative to target inventory.
func scoreOptimizeInventory(bill *domain.Bill, cfg domain.AllocationConfig, ctx domain.ScoringContext) float64 {
	expected := map[domain.AmountLabel]float64{
		domain.LabelLarge:  cfg.AmountLabelConfig.LargeRatio,
		domain.LabelMedium: cfg.AmountLabelConfig.MediumRatio,
		domain.LabelSmall:  cfg.AmountLabelConfig.SmallRatio,
	}

	raw := make(map[domain.AmountLabel]float64, len(domain.Labels))
	var total float64
	for _, label := range domain.Labels {
		current := ctx.InventoryDistribution[label]
		exp := expected[label]
		if current > exp {
			raw[label] = 2*current - exp
			if raw[label] < 0 {
				raw[label] = 0
			}
		}
		total += raw[label]
	}

	if total == 0 {
		return 1.0 / float64(len(domain.Labels))
	}
	return raw[bill.Label] / total
}

// scoreOrganization implements spec.md §4.3's binary organization match.
func scoreOrganization(bill *domain.Bill, order domain.PaymentOrder, w domain.WeightConfig) float64 {
	same := bill.Organization == order.Organization
	if w.OrganizationStrategy == domain.OrgSameOrg {
		if same {
			return 1.0
		}
		return 0.0
	}
	if !same {
		return 1.0
	}
	return 0.0
}
