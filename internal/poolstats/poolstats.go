// Package poolstats computes the per-pool aggregates the scorer needs:
// maturity range, per-label amount range, and per-label inventory share.
// Stats reflect face amounts, not available amounts, and are captured once
// at the start of each allocate() call (spec.md §4.2).
package poolstats

import (
	"github.com/aristath/billalloc/internal/domain"
	"github.com/shopspring/decimal"
)

// Build computes a ScoringContext from the post-filter bill list. An empty
// pool falls back to the documented defaults: maturity range (0, 365),
// equal 1/3 inventory shares, and no per-label amount ranges.
func Build(bills []*domain.Bill) domain.ScoringContext {
	if len(bills) == 0 {
		return domain.ScoringContext{
			MaturityMin:           0,
			MaturityMax:           365,
			AmountRangeByLabel:    map[domain.AmountLabel][2]decimal.Decimal{},
			InventoryDistribution: equalThirds(),
		}
	}

	minDays, maxDays := bills[0].MaturityDays, bills[0].MaturityDays
	amountMin := map[domain.AmountLabel]decimal.Decimal{}
	amountMax := map[domain.AmountLabel]decimal.Decimal{}
	labelSeen := map[domain.AmountLabel]bool{}
	labelSum := map[domain.AmountLabel]decimal.Decimal{}
	total := decimal.Zero

	for _, b := range bills {
		if b.MaturityDays < minDays {
			minDays = b.MaturityDays
		}
		if b.MaturityDays > maxDays {
			maxDays = b.MaturityDays
		}

		if !labelSeen[b.Label] {
			labelSeen[b.Label] = true
			amountMin[b.Label] = b.Amount
			amountMax[b.Label] = b.Amount
			labelSum[b.Label] = decimal.Zero
		} else {
			if b.Amount.LessThan(amountMin[b.Label]) {
				amountMin[b.Label] = b.Amount
			}
			if b.Amount.GreaterThan(amountMax[b.Label]) {
				amountMax[b.Label] = b.Amount
			}
		}
		labelSum[b.Label] = labelSum[b.Label].Add(b.Amount)
		total = total.Add(b.Amount)
	}

	rangeByLabel := make(map[domain.AmountLabel][2]decimal.Decimal, len(labelSeen))
	for label := range labelSeen {
		rangeByLabel[label] = [2]decimal.Decimal{amountMin[label], amountMax[label]}
	}

	var dist map[domain.AmountLabel]float64
	if total.IsPositive() {
		dist = make(map[domain.AmountLabel]float64, len(domain.Labels))
		for _, label := range domain.Labels {
			sum, ok := labelSum[label]
			if !ok {
				dist[label] = 0
				continue
			}
			ratio, _ := sum.Div(total).Float64()
			dist[label] = ratio
		}
	} else {
		dist = equalThirds()
	}

	return domain.ScoringContext{
		MaturityMin:           minDays,
		MaturityMax:           maxDays,
		AmountRangeByLabel:    rangeByLabel,
		InventoryDistribution: dist,
	}
}

func equalThirds() map[domain.AmountLabel]float64 {
	share := 1.0 / float64(len(domain.Labels))
	dist := make(map[domain.AmountLabel]float64, len(domain.Labels))
	for _, label := range domain.Labels {
		dist[label] = share
	}
	return dist
}
