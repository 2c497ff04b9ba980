package poolstats

import (
	"testing"

	"github.com/aristath/billalloc/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func TestBuild_EmptyPool(t *testing.T) {
	ctx := Build(nil)

	assert.Equal(t, 0, ctx.MaturityMin)
	assert.Equal(t, 365, ctx.MaturityMax)
	require.Len(t, ctx.InventoryDistribution, 3)
	for _, label := range domain.Labels {
		assert.InDelta(t, 1.0/3.0, ctx.InventoryDistribution[label], 1e-9)
	}
}

func TestBuild_MaturityRangeAndDistribution(t *testing.T) {
	bills := []*domain.Bill{
		{ID: "t1", Amount: d(600_000), MaturityDays: 120, Label: domain.LabelLarge},
		{ID: "t2", Amount: d(300_000), MaturityDays: 30, Label: domain.LabelMedium},
		{ID: "t3", Amount: d(100_000), MaturityDays: 200, Label: domain.LabelSmall},
	}

	ctx := Build(bills)

	assert.Equal(t, 30, ctx.MaturityMin)
	assert.Equal(t, 200, ctx.MaturityMax)

	total := 1_000_000.0
	assert.InDelta(t, 600_000/total, ctx.InventoryDistribution[domain.LabelLarge], 1e-9)
	assert.InDelta(t, 300_000/total, ctx.InventoryDistribution[domain.LabelMedium], 1e-9)
	assert.InDelta(t, 100_000/total, ctx.InventoryDistribution[domain.LabelSmall], 1e-9)

	largeRange := ctx.AmountRangeByLabel[domain.LabelLarge]
	assert.True(t, largeRange[0].Equal(d(600_000)))
	assert.True(t, largeRange[1].Equal(d(600_000)))
}

func TestBuild_ZeroTotalFallsBackToEqualThirds(t *testing.T) {
	// Not reachable with the >0 Bill invariant in production, but the
	// fallback still must hold if ever called with degenerate amounts.
	ctx := Build([]*domain.Bill{
		{ID: "z1", Amount: d(0), MaturityDays: 30, Label: domain.LabelLarge},
		{ID: "z2", Amount: d(0), MaturityDays: 60, Label: domain.LabelSmall},
	})
	for _, label := range domain.Labels {
		assert.InDelta(t, 1.0/3.0, ctx.InventoryDistribution[label], 1e-9)
	}
}
