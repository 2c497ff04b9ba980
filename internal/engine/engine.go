// Package engine implements the two allocation operations (spec.md §4.6):
// Allocate for a single order and AllocateBatch for a priority-ordered
// sequence sharing one pool. Grounded on the teacher's service-layer
// pattern (internal/modules/planning/repository/planner_repository.go:
// constructor-injected zerolog.Logger scoped with .With().Str("component",
// ...)) and on math/rand-seeded reproducibility used throughout the
// scorers package.
package engine

import (
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/aristath/billalloc/internal/constraints"
	"github.com/aristath/billalloc/internal/domain"
	"github.com/aristath/billalloc/internal/format"
	"github.com/aristath/billalloc/internal/poolstats"
	"github.com/aristath/billalloc/internal/scoring"
	"github.com/aristath/billalloc/internal/splitter"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Engine allocates payment orders against a shared bill pool. It owns the
// single engine-scoped PRNG (spec.md §9) and is safe for reuse across many
// Allocate/AllocateBatch calls against the same or different pools, as long
// as callers respect the pool's own locking discipline.
type Engine struct {
	log      zerolog.Logger
	scorer   *scoring.Scorer
	splitter *splitter.Splitter
}

// New builds an Engine. seed reproduces the PRNG across runs; nil seeds
// from the current time.
func New(log zerolog.Logger, seed *int64) *Engine {
	var src rand.Source
	if seed != nil {
		src = rand.NewSource(*seed)
	} else {
		src = rand.NewSource(time.Now().UnixNano())
	}
	scorer := scoring.New(rand.New(src))
	return &Engine{
		log:      log.With().Str("component", "engine").Logger(),
		scorer:   scorer,
		splitter: splitter.New(scorer),
	}
}

// Allocate runs one order against pool under cfg (spec.md §4.6). It holds
// the pool's exclusive lock for the call's entire duration.
func (e *Engine) Allocate(order domain.PaymentOrder, pool *domain.Pool, cfg domain.AllocationConfig) domain.AllocationResult {
	start := domain.NowFunc()

	pool.Lock()
	defer pool.Unlock()

	result := domain.AllocationResult{
		RunID:          uuid.New(),
		Order:          order,
		ConstraintsMet: true,
	}

	filtered := filterPool(pool.Snapshot(), cfg.ConstraintConfig)
	if len(filtered) == 0 {
		result.ConstraintsMet = false
		result.BiasAmount = order.Amount
		result.Warnings = append(result.Warnings, "no available bills")
		result.ElapsedMS = elapsedMS(start)
		e.log.Warn().Str("order", order.ID).Msg("no available bills")
		return result
	}

	ctx := poolstats.Build(filtered)

	if cfg.EqualAmountFirst {
		if used, ok := e.equalAmountShortcut(order, filtered, cfg, ctx); ok {
			used.Bill.AvailableAmount = used.Bill.AvailableAmount.Sub(used.UsedAmount)
			result.Selected = []domain.BillUsage{used}
			result.TicketCount = 1
			result.TotalAmount = used.UsedAmount
			result.BiasAmount = order.Amount.Sub(used.UsedAmount)
			result.Warnings = append(result.Warnings, "equal amount hit")
			e.finalize(&result, filtered, cfg, start)
			return result
		}
	}

	scored := e.scoreAndSort(filtered, order, cfg, ctx)
	selected, usedIDs := greedyCombine(scored, order, cfg)

	remaining := make([]*domain.Bill, 0, len(filtered))
	for _, b := range filtered {
		if !usedIDs[b.ID] {
			remaining = append(remaining, b)
		}
	}

	splitResult := e.splitter.Run(selected, remaining, order, cfg, ctx)
	selected = splitResult.Selected
	result.Warnings = append(result.Warnings, splitResult.Warnings...)

	for i, u := range selected {
		if u.UsedAmount.GreaterThan(u.Bill.AvailableAmount) {
			panic("engine: invariant violation, used_amount exceeds available_amount")
		}
		u.Bill.AvailableAmount = u.Bill.AvailableAmount.Sub(u.UsedAmount)
		selected[i].SelectionIndex = i
	}

	result.Selected = selected
	result.TicketCount = len(selected)
	result.SplitCount = countSplits(selected)
	result.SplitAmount, result.RemainAmount = splitAmounts(selected)
	result.TotalAmount = sumUsed(selected)
	result.BiasAmount = splitResult.Bias

	if !constraints.ValidateTicketCount(selected, cfg.ConstraintConfig) {
		result.ConstraintsMet = false
		result.Warnings = append(result.Warnings, "ticket count exceeds max_ticket_count")
	}
	if ok, msg := constraints.ValidateSmallTicketCoverage(selected, order.Amount, cfg.ConstraintConfig); !ok {
		result.ConstraintsMet = false
		result.Warnings = append(result.Warnings, msg)
	}

	e.finalize(&result, filtered, cfg, start)
	return result
}

// AllocateBatch processes orders sequentially against the shared pool,
// highest priority first; equal priorities preserve input order (spec.md
// §4.6, §5).
func (e *Engine) AllocateBatch(orders []domain.PaymentOrder, pool *domain.Pool, cfg domain.AllocationConfig) []domain.AllocationResult {
	ordered := make([]domain.PaymentOrder, len(orders))
	copy(ordered, orders)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Priority > ordered[j].Priority })

	results := make([]domain.AllocationResult, 0, len(ordered))
	for _, order := range ordered {
		results = append(results, e.Allocate(order, pool, cfg))
	}
	return results
}

func (e *Engine) finalize(result *domain.AllocationResult, filtered []*domain.Bill, cfg domain.AllocationConfig, start time.Time) {
	result.ScoreBreakdown = format.ScoreBreakdown(result.Selected)
	result.TotalScore = result.ScoreBreakdown.TotalWeightedScore
	result.SelectedDistribution = format.Distribution(billsOf(result.Selected))
	result.RemainingDistribution = format.Distribution(remainingPositive(filtered))
	result.ExpectedDistribution = format.Expected(cfg.AmountLabelConfig)

	tailDiff := decimal.Max(cfg.SplitConfig.TailDiffAbs, result.Order.Amount.Mul(decimal.NewFromFloat(cfg.SplitConfig.TailDiffRatio)))
	if result.BiasAmount.IsPositive() && result.BiasAmount.LessThanOrEqual(tailDiff) {
		result.WireTransferDiff = result.BiasAmount
	}

	result.ElapsedMS = elapsedMS(start)
}

// equalAmountShortcut implements spec.md §4.6 step 4.
func (e *Engine) equalAmountShortcut(order domain.PaymentOrder, filtered []*domain.Bill, cfg domain.AllocationConfig, ctx domain.ScoringContext) (domain.BillUsage, bool) {
	threshold := cfg.EqualAmountThreshold
	var candidates []*domain.Bill
	for _, b := range filtered {
		if b.Amount.Sub(order.Amount).Abs().LessThanOrEqual(threshold) {
			candidates = append(candidates, b)
		}
	}
	if len(candidates) == 0 {
		return domain.BillUsage{}, false
	}

	best := candidates[0]
	bestScore := e.scorer.Score(best, order, cfg, ctx)
	for _, c := range candidates[1:] {
		if sc := e.scorer.Score(c, order, cfg, ctx); sc.Total > bestScore.Total {
			best, bestScore = c, sc
		}
	}

	return domain.BillUsage{
		UsageID:    uuid.New(),
		Bill:       best,
		UsedAmount: best.Amount,
		SplitRatio: 1.0,
		Score:      bestScore,
	}, true
}

type scoredBill struct {
	bill   *domain.Bill
	scores domain.DimensionScores
}

func (e *Engine) scoreAndSort(filtered []*domain.Bill, order domain.PaymentOrder, cfg domain.AllocationConfig, ctx domain.ScoringContext) []scoredBill {
	scored := make([]scoredBill, len(filtered))
	for i, b := range filtered {
		scored[i] = scoredBill{bill: b, scores: e.scorer.Score(b, order, cfg, ctx)}
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].scores.Total > scored[j].scores.Total })
	return scored
}

// greedyCombine implements spec.md §4.6 step 6.
func greedyCombine(scored []scoredBill, order domain.PaymentOrder, cfg domain.AllocationConfig) ([]domain.BillUsage, map[string]bool) {
	selected := make([]domain.BillUsage, 0, cfg.ConstraintConfig.MaxTicketCount)
	usedIDs := make(map[string]bool, cfg.ConstraintConfig.MaxTicketCount)
	accumulated := decimal.Zero

	for _, sb := range scored {
		if len(selected) == cfg.ConstraintConfig.MaxTicketCount || accumulated.GreaterThanOrEqual(order.Amount) {
			break
		}
		bill := sb.bill
		remainingNeed := order.Amount.Sub(accumulated)

		toUse := decimal.Min(bill.AvailableAmount, bill.Amount)
		ratio := ratioOf(toUse, bill.Amount)

		if toUse.GreaterThan(remainingNeed) && cfg.SplitConfig.AllowSplit {
			desiredRatio := ratioOf(remainingNeed, bill.Amount)
			if ok, _ := constraints.ValidateSplit(bill.Amount, desiredRatio, cfg.SplitConfig); ok {
				ratio = desiredRatio
				toUse = bill.Amount.Mul(decimal.NewFromFloat(ratio))
			} else {
				altRatio := math.Max(cfg.SplitConfig.MinRatio, desiredRatio)
				altUse := decimal.Min(bill.Amount.Mul(decimal.NewFromFloat(altRatio)), bill.AvailableAmount)
				altRatio = ratioOf(altUse, bill.Amount)
				if ok, _ := constraints.ValidateSplit(bill.Amount, altRatio, cfg.SplitConfig); ok {
					ratio = altRatio
					toUse = altUse
				}
			}
		}

		selected = append(selected, domain.BillUsage{
			UsageID:        uuid.New(),
			Bill:           bill,
			UsedAmount:     toUse,
			SplitRatio:     ratio,
			Score:          sb.scores,
			SelectionIndex: len(selected),
		})
		usedIDs[bill.ID] = true
		accumulated = accumulated.Add(toUse)
	}

	return selected, usedIDs
}

func filterPool(bills []*domain.Bill, cfg domain.ConstraintConfig) []*domain.Bill {
	out := make([]*domain.Bill, 0, len(bills))
	for _, b := range bills {
		if b.AvailableAmount.IsPositive() && constraints.ValidateTicketFilter(b, cfg) {
			out = append(out, b)
		}
	}
	return out
}

func remainingPositive(bills []*domain.Bill) []*domain.Bill {
	out := make([]*domain.Bill, 0, len(bills))
	for _, b := range bills {
		if b.AvailableAmount.IsPositive() {
			out = append(out, b)
		}
	}
	return out
}

func billsOf(selected []domain.BillUsage) []*domain.Bill {
	out := make([]*domain.Bill, len(selected))
	for i, u := range selected {
		out[i] = u.Bill
	}
	return out
}

func countSplits(selected []domain.BillUsage) int {
	n := 0
	for _, u := range selected {
		if u.SplitRatio < 1.0 {
			n++
		}
	}
	return n
}

func splitAmounts(selected []domain.BillUsage) (split, remain decimal.Decimal) {
	split = decimal.Zero
	remain = decimal.Zero
	for _, u := range selected {
		if u.SplitRatio < 1.0 {
			split = split.Add(u.UsedAmount)
			remain = remain.Add(u.Bill.Amount.Sub(u.UsedAmount))
		}
	}
	return split, remain
}

func sumUsed(selected []domain.BillUsage) decimal.Decimal {
	total := decimal.Zero
	for _, u := range selected {
		total = total.Add(u.UsedAmount)
	}
	return total
}

func ratioOf(used, amount decimal.Decimal) float64 {
	if amount.IsZero() {
		return 0
	}
	r, _ := used.Div(amount).Float64()
	return r
}

func elapsedMS(start time.Time) float64 {
	return float64(domain.NowFunc().Sub(start).Microseconds()) / 1000.0
}
