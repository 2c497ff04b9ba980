package format

import (
	"testing"

	"github.com/aristath/billalloc/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func TestDistribution_CountsAndRatios(t *testing.T) {
	bills := []*domain.Bill{
		{Label: domain.LabelLarge, Amount: d(600_000)},
		{Label: domain.LabelMedium, Amount: d(300_000)},
		{Label: domain.LabelSmall, Amount: d(100_000)},
	}
	dist := Distribution(bills)

	assert.Equal(t, 1, dist.LargeCount)
	assert.Equal(t, 1, dist.MediumCount)
	assert.Equal(t, 1, dist.SmallCount)
	assert.InDelta(t, 0.6, dist.LargeRatio, 1e-9)
	assert.InDelta(t, 0.3, dist.MediumRatio, 1e-9)
	assert.InDelta(t, 0.1, dist.SmallRatio, 1e-9)
}

func TestDistribution_Empty(t *testing.T) {
	dist := Distribution(nil)
	assert.Equal(t, domain.Distribution{}, dist)
}

func TestExpected_NormalizesWeights(t *testing.T) {
	cfg := domain.AmountLabelConfig{LargeRatio: 0.5, MediumRatio: 0.3, SmallRatio: 0.2}
	got := Expected(cfg)
	assert.InDelta(t, 0.5, got.LargeRatio, 1e-9)
	assert.InDelta(t, 0.3, got.MediumRatio, 1e-9)
	assert.InDelta(t, 0.2, got.SmallRatio, 1e-9)
}

func TestExpected_ZeroSum(t *testing.T) {
	assert.Equal(t, domain.Distribution{}, Expected(domain.AmountLabelConfig{}))
}

func TestScoreBreakdown_WeightedTotalAndMeans(t *testing.T) {
	selected := []domain.BillUsage{
		{SplitRatio: 1.0, Score: domain.DimensionScores{Maturity: 0.8, Acceptor: 0.6, Amount: 0.4, Organization: 1.0, Total: 0.7}},
		{SplitRatio: 0.5, Score: domain.DimensionScores{Maturity: 0.2, Acceptor: 0.4, Amount: 0.6, Organization: 0.0, Total: 0.3}},
	}
	got := ScoreBreakdown(selected)

	assert.InDelta(t, 0.5, got.AvgMaturityScore, 1e-9)
	assert.InDelta(t, 0.5, got.AvgAcceptorScore, 1e-9)
	assert.InDelta(t, 0.5, got.AvgAmountScore, 1e-9)
	assert.InDelta(t, 0.5, got.AvgOrganizationScore, 1e-9)
	assert.InDelta(t, 0.7*1.0+0.3*0.5, got.TotalWeightedScore, 1e-9)
}

func TestScoreBreakdown_Empty(t *testing.T) {
	assert.Equal(t, domain.ScoreBreakdown{}, ScoreBreakdown(nil))
}
