// Package constraints implements the pre-filter, count cap, small-bill
// coverage rule and split admissibility check (spec.md §4.4). Grounded on
// the teacher's planning/constraints enforcer: a small set of functions
// that return a pass/fail plus a descriptive rejection reason, rather than
// raising.
package constraints

import (
	"fmt"
	"math"
	"sort"

	"github.com/aristath/billalloc/internal/domain"
	"github.com/shopspring/decimal"
)

// ValidateTicketFilter implements the pre-filter (spec.md §4.4): all
// present conditions (maturity window, amount range, acceptor class set)
// must hold for a bill to pass.
func ValidateTicketFilter(bill *domain.Bill, cfg domain.ConstraintConfig) bool {
	if r := cfg.AllowedMaturityDays; r != nil {
		if bill.MaturityDays < r.Lo || bill.MaturityDays > r.Hi {
			return false
		}
	}
	if r := cfg.AllowedAmountRange; r != nil {
		if bill.Amount.LessThan(r.Lo) || bill.Amount.GreaterThan(r.Hi) {
			return false
		}
	}
	if cfg.AllowedAcceptorClasses != nil {
		if !cfg.AllowedAcceptorClasses[bill.AcceptorClass] {
			return false
		}
	}
	return true
}

// ValidateTicketCount enforces the max_ticket_count cap.
func ValidateTicketCount(selected []domain.BillUsage, cfg domain.ConstraintConfig) bool {
	return len(selected) <= cfg.MaxTicketCount
}

// ValidateSmallTicketCoverage implements the small-bill coverage rule
// (spec.md §4.4): among selected SMALL bills sorted by face amount
// ascending, the first ceil(0.8*n) must cover the configured fraction of
// the order amount. No-op when disabled or no SMALL bills are selected.
func ValidateSmallTicketCoverage(selected []domain.BillUsage, orderAmount decimal.Decimal, cfg domain.ConstraintConfig) (bool, string) {
	if !cfg.SmallTicketLimited {
		return true, ""
	}

	small := make([]domain.BillUsage, 0, len(selected))
	for _, u := range selected {
		if u.Bill.Label == domain.LabelSmall {
			small = append(small, u)
		}
	}
	if len(small) == 0 {
		return true, ""
	}

	sort.Slice(small, func(i, j int) bool {
		return small[i].Bill.Amount.LessThan(small[j].Bill.Amount)
	})

	m := int(math.Ceil(float64(len(small)) * 0.8))
	if m < 1 {
		m = 1
	}

	covered := decimal.Zero
	for i := 0; i < m && i < len(small); i++ {
		covered = covered.Add(small[i].UsedAmount)
	}

	required := orderAmount.Mul(decimal.NewFromFloat(cfg.SmallTicket80PctCoverage))
	if covered.LessThan(required) {
		return false, fmt.Sprintf("small bill coverage: top %d of %d small bills cover %s, below required %s", m, len(small), covered, required)
	}
	return true, ""
}

// ValidateSplit checks split admissibility (spec.md §4.4): given a bill's
// face amount and a proposed split ratio, all three of used >= min_use,
// remain >= min_remain, ratio >= min_ratio must hold. used/remain are
// derived in decimal from billAmount and splitRatio to keep the
// used+remain=billAmount identity exact.
func ValidateSplit(billAmount decimal.Decimal, splitRatio float64, cfg domain.SplitConfig) (bool, string) {
	ratioDec := decimal.NewFromFloat(splitRatio)
	used := billAmount.Mul(ratioDec)
	remain := billAmount.Sub(used)

	if used.LessThan(cfg.MinUse) {
		return false, fmt.Sprintf("split used amount %s below minimum %s", used, cfg.MinUse)
	}
	if remain.LessThan(cfg.MinRemain) {
		return false, fmt.Sprintf("split remainder %s below minimum %s", remain, cfg.MinRemain)
	}
	if splitRatio < cfg.MinRatio {
		return false, fmt.Sprintf("split ratio %.4f below minimum %.4f", splitRatio, cfg.MinRatio)
	}
	return true, ""
}
