// Package splitter implements the bounded augment/reduce repair loop that
// closes the gap between a greedy selection and the order amount
// (spec.md §4.5). Grounded on the teacher pack's OrderSplitter
// (other_examples/.../order_splitter.go): a config-driven struct with one
// entry point, strategy dispatch via a switch on a tagged config field, and
// decimal arithmetic throughout.
package splitter

import (
	"fmt"

	"github.com/aristath/billalloc/internal/constraints"
	"github.com/aristath/billalloc/internal/domain"
	"github.com/aristath/billalloc/internal/scoring"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const maxIterations = 5

// Splitter repairs a greedy selection's residual against the order amount.
type Splitter struct {
	scorer *scoring.Scorer
}

// New builds a Splitter that uses scorer to pick candidates by maturity or
// acceptor score (BY_MATURITY / BY_ACCEPTOR_CLASS) during augment and
// reduce, and to score each BillUsage that augment appends.
func New(scorer *scoring.Scorer) *Splitter {
	return &Splitter{scorer: scorer}
}

// Result is the outcome of one Run: the (possibly mutated) selection, the
// final bias, and any warnings accumulated along the way.
type Result struct {
	Selected []domain.BillUsage
	Bias     decimal.Decimal
	Warnings []string
}

// Run executes the bounded repair loop (spec.md §4.5). remaining holds the
// bills not yet in selected, each with available_amount > 0. remaining is
// consumed (candidates picked for augment are removed) as the loop
// progresses.
func (s *Splitter) Run(selected []domain.BillUsage, remaining []*domain.Bill, order domain.PaymentOrder, cfg domain.AllocationConfig, ctx domain.ScoringContext) Result {
	splitCfg := cfg.SplitConfig
	tailDiff := decimal.Max(splitCfg.TailDiffAbs, order.Amount.Mul(decimal.NewFromFloat(splitCfg.TailDiffRatio)))

	var warnings []string

	for iter := 0; iter < maxIterations; iter++ {
		bias := order.Amount.Sub(sumUsed(selected))

		switch {
		case bias.IsPositive() && bias.LessThanOrEqual(tailDiff) && !splitCfg.SplitConditionUnlimited:
			warnings = append(warnings, fmt.Sprintf("residual %s within tail difference, settled by wire transfer", bias))
			return Result{Selected: selected, Bias: bias, Warnings: warnings}

		case bias.Abs().LessThanOrEqual(tailDiff):
			return Result{Selected: selected, Bias: bias, Warnings: warnings}

		case bias.GreaterThan(tailDiff):
			if !splitCfg.AllowSplit {
				warnings = append(warnings, fmt.Sprintf("under-allocated by %s, splitting disabled", bias))
				return Result{Selected: selected, Bias: bias, Warnings: warnings}
			}
			var ok bool
			selected, remaining, ok = s.augment(selected, remaining, bias, order, cfg, ctx)
			if !ok {
				warnings = append(warnings, fmt.Sprintf("cannot close residual of %s: no admissible augment candidate", bias))
				return Result{Selected: selected, Bias: bias, Warnings: warnings}
			}

		default: // bias < -tailDiff, over-allocated
			if !splitCfg.AllowSplit {
				warnings = append(warnings, fmt.Sprintf("over-allocated by %s, splitting disabled", bias.Abs()))
				return Result{Selected: selected, Bias: bias, Warnings: warnings}
			}
			var ok bool
			selected, ok = s.reduce(selected, bias.Abs(), order, cfg, ctx)
			if !ok {
				warnings = append(warnings, fmt.Sprintf("cannot close over-allocation of %s: no admissible reduce candidate", bias.Abs()))
				return Result{Selected: selected, Bias: bias, Warnings: warnings}
			}
		}
	}

	bias := order.Amount.Sub(sumUsed(selected))
	warnings = append(warnings, fmt.Sprintf("split loop reached iteration cap with residual %s", bias))
	return Result{Selected: selected, Bias: bias, Warnings: warnings}
}

func sumUsed(selected []domain.BillUsage) decimal.Decimal {
	total := decimal.Zero
	for _, u := range selected {
		total = total.Add(u.UsedAmount)
	}
	return total
}

// augment appends a new BillUsage drawn from remaining to close an
// under-allocation (spec.md §4.5 step 3).
func (s *Splitter) augment(selected []domain.BillUsage, remaining []*domain.Bill, bias decimal.Decimal, order domain.PaymentOrder, cfg domain.AllocationConfig, ctx domain.ScoringContext) ([]domain.BillUsage, []*domain.Bill, bool) {
	candidates := remaining
	preferred := filterBills(remaining, func(b *domain.Bill) bool { return b.AvailableAmount.GreaterThanOrEqual(bias) })
	if len(preferred) > 0 {
		candidates = preferred
	} else {
		candidates = filterBills(remaining, func(b *domain.Bill) bool { return b.AvailableAmount.IsPositive() })
	}
	if len(candidates) == 0 {
		return selected, remaining, false
	}

	chosen := pickByStrategy(cfg.SplitConfig.SplitStrategy, candidates, order, cfg, ctx, bias, s.scorer)

	usable := decimal.Min(bias, chosen.AvailableAmount)
	ratio := ratioOf(usable, chosen.Amount)

	if ok, _ := constraints.ValidateSplit(chosen.Amount, ratio, cfg.SplitConfig); !ok {
		usable = decimal.Min(chosen.Amount.Mul(decimal.NewFromFloat(cfg.SplitConfig.MinRatio)), chosen.AvailableAmount)
		ratio = ratioOf(usable, chosen.Amount)
		if ok, _ := constraints.ValidateSplit(chosen.Amount, ratio, cfg.SplitConfig); !ok {
			return selected, remaining, false
		}
	}

	selected = append(selected, domain.BillUsage{
		UsageID:        uuid.New(),
		Bill:           chosen,
		UsedAmount:     usable,
		SplitRatio:     ratio,
		Score:          s.scorer.Score(chosen, order, cfg, ctx),
		SelectionIndex: len(selected),
	})

	remaining = removeBill(remaining, chosen)
	return selected, remaining, true
}

// reduce shrinks an already-selected, not-yet-split bill's used amount to
// close an over-allocation (spec.md §4.5 step 4).
func (s *Splitter) reduce(selected []domain.BillUsage, biasAbs decimal.Decimal, order domain.PaymentOrder, cfg domain.AllocationConfig, ctx domain.ScoringContext) ([]domain.BillUsage, bool) {
	var eligible []*domain.Bill
	index := map[string]int{}
	for i, u := range selected {
		if u.UsedAmount.GreaterThanOrEqual(biasAbs) && u.SplitRatio == 1.0 {
			eligible = append(eligible, u.Bill)
			index[u.Bill.ID] = i
		}
	}
	if len(eligible) == 0 {
		return selected, false
	}

	chosen := pickByStrategy(cfg.SplitConfig.SplitStrategy, eligible, order, cfg, ctx, biasAbs, s.scorer)
	i := index[chosen.ID]
	u := selected[i]

	newUsed := u.UsedAmount.Sub(biasAbs)
	if newUsed.IsNegative() {
		return selected, false
	}
	newRatio := ratioOf(newUsed, u.Bill.Amount)
	if ok, _ := constraints.ValidateSplit(u.Bill.Amount, newRatio, cfg.SplitConfig); !ok {
		return selected, false
	}

	u.UsedAmount = newUsed
	u.SplitRatio = newRatio
	selected[i] = u
	return selected, true
}

func ratioOf(used, amount decimal.Decimal) float64 {
	if amount.IsZero() {
		return 0
	}
	r, _ := used.Div(amount).Float64()
	return r
}

func filterBills(bills []*domain.Bill, pred func(*domain.Bill) bool) []*domain.Bill {
	out := make([]*domain.Bill, 0, len(bills))
	for _, b := range bills {
		if pred(b) {
			out = append(out, b)
		}
	}
	return out
}

func removeBill(bills []*domain.Bill, target *domain.Bill) []*domain.Bill {
	out := make([]*domain.Bill, 0, len(bills))
	for _, b := range bills {
		if b != target {
			out = append(out, b)
		}
	}
	return out
}

// pickByStrategy applies the split-strategy candidate choice (spec.md §4.5)
// shared by augment and reduce.
func pickByStrategy(strategy domain.SplitStrategy, candidates []*domain.Bill, order domain.PaymentOrder, cfg domain.AllocationConfig, ctx domain.ScoringContext, biasAbs decimal.Decimal, scorer *scoring.Scorer) *domain.Bill {
	best := candidates[0]

	switch strategy {
	case domain.SplitByMaturity:
		bestScore := scorer.Score(best, order, cfg, ctx).Maturity
		for _, c := range candidates[1:] {
			if sc := scorer.Score(c, order, cfg, ctx).Maturity; sc > bestScore {
				best, bestScore = c, sc
			}
		}
	case domain.SplitByAcceptorClass:
		bestScore := scorer.Score(best, order, cfg, ctx).Acceptor
		for _, c := range candidates[1:] {
			if sc := scorer.Score(c, order, cfg, ctx).Acceptor; sc > bestScore {
				best, bestScore = c, sc
			}
		}
	case domain.SplitByAmountLarge:
		for _, c := range candidates[1:] {
			if c.Amount.GreaterThan(best.Amount) {
				best = c
			}
		}
	default: // SplitByAmountClose
		bestDist := best.Amount.Sub(biasAbs).Abs()
		for _, c := range candidates[1:] {
			if dist := c.Amount.Sub(biasAbs).Abs(); dist.LessThan(bestDist) {
				best, bestDist = c, dist
			}
		}
	}

	return best
}
