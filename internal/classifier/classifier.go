// Package classifier assigns each bill a size label from the configured
// amount ranges. It is a pure function package with no I/O, matching the
// density of the teacher's smallest scoring helpers (pkg/formulas).
package classifier

import (
	"github.com/aristath/billalloc/internal/domain"
	"github.com/shopspring/decimal"
)

// Classify assigns a label given an amount and the configured ranges
// (spec.md §4.1). Ranges are half-open [lo, hi); the tiebreak order when
// ranges overlap is LARGE, MEDIUM, SMALL. If the amount falls outside all
// three explicit ranges it clamps to LARGE when amount >= large_range.lo,
// otherwise SMALL.
func Classify(amount decimal.Decimal, cfg domain.AmountLabelConfig) domain.AmountLabel {
	if inHalfOpen(amount, cfg.LargeRange) {
		return domain.LabelLarge
	}
	if inHalfOpen(amount, cfg.MediumRange) {
		return domain.LabelMedium
	}
	if inHalfOpen(amount, cfg.SmallRange) {
		return domain.LabelSmall
	}
	if amount.GreaterThanOrEqual(cfg.LargeRange[0]) {
		return domain.LabelLarge
	}
	return domain.LabelSmall
}

func inHalfOpen(amount decimal.Decimal, r [2]decimal.Decimal) bool {
	return amount.GreaterThanOrEqual(r[0]) && amount.LessThan(r[1])
}
