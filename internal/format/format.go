// Package format assembles the distributions and score breakdown that make
// up an AllocationResult (spec.md §4.6 step 10). Arithmetic-mean-per-
// dimension figures use gonum/stat, matching the teacher's use of gonum for
// scorer statistics (scoring/scorers/*.go).
package format

import (
	"github.com/aristath/billalloc/internal/domain"
	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/stat"
)

// Distribution summarizes bills by label: count, face-amount share and
// total face amount per label.
func Distribution(bills []*domain.Bill) domain.Distribution {
	var dist domain.Distribution
	total := decimal.Zero
	for _, b := range bills {
		total = total.Add(b.Amount)
	}

	for _, b := range bills {
		switch b.Label {
		case domain.LabelLarge:
			dist.LargeCount++
			dist.LargeAmount = dist.LargeAmount.Add(b.Amount)
		case domain.LabelMedium:
			dist.MediumCount++
			dist.MediumAmount = dist.MediumAmount.Add(b.Amount)
		default:
			dist.SmallCount++
			dist.SmallAmount = dist.SmallAmount.Add(b.Amount)
		}
	}

	if total.IsPositive() {
		dist.LargeRatio = ratio(dist.LargeAmount, total)
		dist.MediumRatio = ratio(dist.MediumAmount, total)
		dist.SmallRatio = ratio(dist.SmallAmount, total)
	}
	return dist
}

func ratio(part, total decimal.Decimal) float64 {
	v, _ := part.Div(total).Float64()
	return v
}

// Expected builds the target distribution implied by an AllocationConfig's
// label ratios. The three ratios are weights, not probabilities (spec.md
// §9); Expected normalizes them for display so they read as shares of 1.
func Expected(cfg domain.AmountLabelConfig) domain.Distribution {
	sum := cfg.LargeRatio + cfg.MediumRatio + cfg.SmallRatio
	if sum == 0 {
		return domain.Distribution{}
	}
	return domain.Distribution{
		LargeRatio:  cfg.LargeRatio / sum,
		MediumRatio: cfg.MediumRatio / sum,
		SmallRatio:  cfg.SmallRatio / sum,
	}
}

// ScoreBreakdown computes the arithmetic mean of each dimension score across
// a selection, plus the weighted total (spec.md §4.6 step 10:
// "weighted total = Σ per-bill total_score · split_ratio").
func ScoreBreakdown(selected []domain.BillUsage) domain.ScoreBreakdown {
	if len(selected) == 0 {
		return domain.ScoreBreakdown{}
	}

	maturity := make([]float64, len(selected))
	acceptor := make([]float64, len(selected))
	amount := make([]float64, len(selected))
	org := make([]float64, len(selected))

	var weightedTotal float64
	for i, u := range selected {
		maturity[i] = u.Score.Maturity
		acceptor[i] = u.Score.Acceptor
		amount[i] = u.Score.Amount
		org[i] = u.Score.Organization
		weightedTotal += u.Score.Total * u.SplitRatio
	}

	return domain.ScoreBreakdown{
		AvgMaturityScore:     stat.Mean(maturity, nil),
		AvgAcceptorScore:     stat.Mean(acceptor, nil),
		AvgAmountScore:       stat.Mean(amount, nil),
		AvgOrganizationScore: stat.Mean(org, nil),
		TotalWeightedScore:   weightedTotal,
	}
}
