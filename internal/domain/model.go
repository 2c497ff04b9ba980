// Package domain holds the core types of the bill-allocation engine:
// bills, payment orders, configuration records and result records.
// Nothing in this package performs I/O; it is pure data plus the
// invariant-preserving operations the other packages build on.
package domain

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AmountLabel classifies a bill by face amount.
type AmountLabel string

const (
	LabelLarge  AmountLabel = "LARGE"
	LabelMedium AmountLabel = "MEDIUM"
	LabelSmall  AmountLabel = "SMALL"
)

// Labels lists every AmountLabel in a stable order, used wherever the
// scorer or formatter needs to iterate labels deterministically.
var Labels = []AmountLabel{LabelLarge, LabelMedium, LabelSmall}

// Bill is a commercial note: a face amount, maturity, acceptor-quality
// class and issuing organization. AvailableAmount starts equal to Amount
// and is decremented exclusively by the allocation engine.
type Bill struct {
	ID              string
	Amount          decimal.Decimal
	MaturityDays    int
	AcceptorClass   int
	Organization    string
	Label           AmountLabel
	AvailableAmount decimal.Decimal
}

// BillInput is the boundary shape for constructing a Bill (spec.md §6).
type BillInput struct {
	ID            string
	Amount        decimal.Decimal
	MaturityDays  int
	AcceptorClass int
	Organization  string
}

// PaymentOrder is an immutable request to discharge a monetary obligation.
type PaymentOrder struct {
	ID           string
	Amount       decimal.Decimal
	Organization string
	Priority     int
}

// AmountLabelConfig configures the half-open amount ranges the classifier
// uses and the target inventory mix the OPTIMIZE_INVENTORY amount
// strategy steers toward. The three ratios are weights, not probabilities;
// they are not required to sum to 1 (spec.md §9).
type AmountLabelConfig struct {
	LargeRange  [2]decimal.Decimal
	MediumRange [2]decimal.Decimal
	SmallRange  [2]decimal.Decimal

	LargeRatio  float64
	MediumRatio float64
	SmallRatio  float64
}

// DefaultAmountLabelConfig matches the boundary defaults in spec.md §6.
func DefaultAmountLabelConfig() AmountLabelConfig {
	return AmountLabelConfig{
		LargeRange:  [2]decimal.Decimal{decimal.NewFromInt(1_000_000), decimal.NewFromInt(1 << 62)},
		MediumRange: [2]decimal.Decimal{decimal.NewFromInt(100_000), decimal.NewFromInt(1_000_000)},
		SmallRange:  [2]decimal.Decimal{decimal.Zero, decimal.NewFromInt(100_000)},
		LargeRatio:  0.5,
		MediumRatio: 0.3,
		SmallRatio:  0.2,
	}
}

// MaturityStrategy picks which end of the maturity range a bill is scored
// toward.
type MaturityStrategy string

const (
	MaturityFarFirst  MaturityStrategy = "FAR_FIRST"
	MaturityNearFirst MaturityStrategy = "NEAR_FIRST"
)

// AcceptorStrategy picks whether good or bad acceptor classes score higher.
type AcceptorStrategy string

const (
	AcceptorGoodFirst AcceptorStrategy = "GOOD_FIRST"
	AcceptorBadFirst  AcceptorStrategy = "BAD_FIRST"
)

// AmountStrategy is the scoring mode for the amount dimension.
type AmountStrategy string

const (
	AmountLargeFirst        AmountStrategy = "LARGE_FIRST"
	AmountSmallFirst        AmountStrategy = "SMALL_FIRST"
	AmountRandom            AmountStrategy = "RANDOM"
	AmountLEOrder           AmountStrategy = "LE_ORDER"
	AmountGEOrder           AmountStrategy = "GE_ORDER"
	AmountOptimizeInventory AmountStrategy = "OPTIMIZE_INVENTORY"
)

// AmountSubStrategy further refines AmountLargeFirst/AmountSmallFirst.
type AmountSubStrategy string

const (
	AmountSubSorted       AmountSubStrategy = "SORTED"
	AmountSubRandomWithin AmountSubStrategy = "RANDOM_WITHIN"
)

// OrganizationStrategy scores a bill by whether it shares the order's
// issuing organization.
type OrganizationStrategy string

const (
	OrgSameOrg OrganizationStrategy = "SAME_ORG"
	OrgDiffOrg OrganizationStrategy = "DIFF_ORG"
)

// WeightConfig holds the four dimension weights and the per-dimension
// strategy selection.
type WeightConfig struct {
	WMaturity     float64
	WAcceptor     float64
	WAmount       float64
	WOrganization float64

	MaturityStrategy  MaturityStrategy
	MaturityThreshold int

	AcceptorStrategy   AcceptorStrategy
	AcceptorClassCount int

	AmountStrategy    AmountStrategy
	AmountSubStrategy AmountSubStrategy

	OrganizationStrategy OrganizationStrategy
}

// DefaultWeightConfig matches spec.md §6's defaults table.
func DefaultWeightConfig() WeightConfig {
	return WeightConfig{
		WMaturity:            0.25,
		WAcceptor:            0.25,
		WAmount:              0.25,
		WOrganization:        0.25,
		MaturityStrategy:     MaturityFarFirst,
		MaturityThreshold:    90,
		AcceptorStrategy:     AcceptorBadFirst,
		AcceptorClassCount:   5,
		AmountStrategy:       AmountOptimizeInventory,
		OrganizationStrategy: OrgSameOrg,
	}
}

// SplitStrategy picks which candidate the splitter prefers when augmenting
// or reducing the selection.
type SplitStrategy string

const (
	SplitByMaturity      SplitStrategy = "BY_MATURITY"
	SplitByAcceptorClass SplitStrategy = "BY_ACCEPTOR_CLASS"
	SplitByAmountLarge   SplitStrategy = "BY_AMOUNT_LARGE"
	SplitByAmountClose   SplitStrategy = "BY_AMOUNT_CLOSE"
)

// SplitConfig configures the splitter's tail-difference tolerance and
// admissibility thresholds.
type SplitConfig struct {
	AllowSplit              bool
	TailDiffAbs             decimal.Decimal
	TailDiffRatio           float64
	MinRemain               decimal.Decimal
	MinUse                  decimal.Decimal
	MinRatio                float64
	SplitStrategy           SplitStrategy
	SplitConditionUnlimited bool
}

// DefaultSplitConfig matches spec.md §6's defaults table.
func DefaultSplitConfig() SplitConfig {
	return SplitConfig{
		AllowSplit:    true,
		TailDiffAbs:   decimal.NewFromInt(10_000),
		TailDiffRatio: 0.3,
		MinRemain:     decimal.NewFromInt(50_000),
		MinUse:        decimal.NewFromInt(50_000),
		MinRatio:      0.3,
		SplitStrategy: SplitByAmountClose,
	}
}

// AmountRange is an inclusive [lo, hi] bound used by ConstraintConfig.
type AmountRange struct {
	Lo decimal.Decimal
	Hi decimal.Decimal
}

// DaysRange is an inclusive [lo, hi] bound on maturity days.
type DaysRange struct {
	Lo int
	Hi int
}

// ConstraintConfig configures the pre-filter, count cap and small-bill
// coverage rule.
type ConstraintConfig struct {
	MaxTicketCount           int
	SmallTicketLimited       bool
	SmallTicket80PctCoverage float64
	AllowedMaturityDays      *DaysRange
	AllowedAmountRange       *AmountRange
	AllowedAcceptorClasses   map[int]bool
}

// DefaultConstraintConfig matches spec.md §6's defaults table.
func DefaultConstraintConfig() ConstraintConfig {
	return ConstraintConfig{
		MaxTicketCount:           10,
		SmallTicketLimited:       false,
		SmallTicket80PctCoverage: 0.5,
	}
}

// AllocationConfig bundles every configuration record the engine needs for
// a single allocate() or allocateBatch() call. It is treated as an
// immutable snapshot for the duration of the call.
type AllocationConfig struct {
	AmountLabelConfig AmountLabelConfig
	WeightConfig      WeightConfig
	SplitConfig       SplitConfig
	ConstraintConfig  ConstraintConfig

	EqualAmountFirst     bool
	EqualAmountThreshold decimal.Decimal

	// Seed is carried with the configuration but is not read by
	// engine.Allocate or engine.AllocateBatch: the engine-scoped PRNG is
	// seeded once, from the seed passed to engine.New.
	Seed *int64
}

// DefaultAllocationConfig matches spec.md §6's full defaults table.
func DefaultAllocationConfig() AllocationConfig {
	return AllocationConfig{
		AmountLabelConfig:    DefaultAmountLabelConfig(),
		WeightConfig:         DefaultWeightConfig(),
		SplitConfig:          DefaultSplitConfig(),
		ConstraintConfig:     DefaultConstraintConfig(),
		EqualAmountFirst:     false,
		EqualAmountThreshold: decimal.NewFromInt(1_000),
	}
}

// ScoringContext is built once per allocate() call from the post-filter
// pool (spec.md §4.2/§4.3).
type ScoringContext struct {
	MaturityMin, MaturityMax int
	AmountRangeByLabel       map[AmountLabel][2]decimal.Decimal
	InventoryDistribution    map[AmountLabel]float64
}

// DimensionScores holds the four per-dimension scores plus the weighted
// total, all in [0, 1].
type DimensionScores struct {
	Maturity     float64
	Acceptor     float64
	Amount       float64
	Organization float64
	Total        float64
}

// BillUsage records one bill's contribution to an allocation.
type BillUsage struct {
	UsageID        uuid.UUID
	Bill           *Bill
	UsedAmount     decimal.Decimal
	SplitRatio     float64
	Score          DimensionScores
	SelectionIndex int
}

// Distribution summarizes a bill set's composition per label.
type Distribution struct {
	LargeCount  int
	LargeRatio  float64
	LargeAmount decimal.Decimal

	MediumCount  int
	MediumRatio  float64
	MediumAmount decimal.Decimal

	SmallCount  int
	SmallRatio  float64
	SmallAmount decimal.Decimal
}

// ScoreBreakdown is the arithmetic-mean-per-dimension summary of a
// selection, plus its weighted total.
type ScoreBreakdown struct {
	AvgMaturityScore     float64
	AvgAcceptorScore     float64
	AvgAmountScore       float64
	AvgOrganizationScore float64
	TotalWeightedScore   float64
}

// AllocationResult is the immutable outcome of one allocate() call.
type AllocationResult struct {
	RunID uuid.UUID
	Order PaymentOrder

	Selected []BillUsage

	TotalAmount      decimal.Decimal
	BiasAmount       decimal.Decimal
	WireTransferDiff decimal.Decimal

	TicketCount  int
	SplitCount   int
	SplitAmount  decimal.Decimal
	RemainAmount decimal.Decimal

	TotalScore     float64
	ScoreBreakdown ScoreBreakdown

	SelectedDistribution  Distribution
	RemainingDistribution Distribution
	ExpectedDistribution  Distribution

	ElapsedMS      float64
	ConstraintsMet bool
	Warnings       []string
}

// Pool is the shared, mutable bill inventory the engine allocates against.
// It is the sole piece of shared mutable state in the system (spec.md §5):
// exactly one engine call holds the lock at a time, for the call's entire
// duration, mirroring the teacher's single-writer discipline for its
// position repositories.
type Pool struct {
	mu    sync.Mutex
	bills []*Bill
}

// NewPool builds a Pool from boundary input, classifying every bill
// exactly once at load time (spec.md §3: "Label is derived once by the
// classifier... and is immutable thereafter").
func NewPool(inputs []BillInput, labelCfg AmountLabelConfig, classify func(decimal.Decimal, AmountLabelConfig) AmountLabel) (*Pool, error) {
	bills := make([]*Bill, 0, len(inputs))
	for _, in := range inputs {
		if !in.Amount.IsPositive() {
			return nil, fmt.Errorf("bill %q: amount must be > 0, got %s", in.ID, in.Amount)
		}
		bills = append(bills, &Bill{
			ID:              in.ID,
			Amount:          in.Amount,
			MaturityDays:    in.MaturityDays,
			AcceptorClass:   in.AcceptorClass,
			Organization:    in.Organization,
			Label:           classify(in.Amount, labelCfg),
			AvailableAmount: in.Amount,
		})
	}
	return &Pool{bills: bills}, nil
}

// Lock acquires the pool's exclusive logical lock for the duration of an
// allocate() or allocateBatch() call. Callers must call Unlock via defer
// immediately after Lock succeeds.
func (p *Pool) Lock() { p.mu.Lock() }

// Unlock releases the pool's lock.
func (p *Pool) Unlock() { p.mu.Unlock() }

// Snapshot returns the current bill pointers. Must be called while holding
// the lock; the returned slice aliases the pool's bills, so callers must
// not retain it past Unlock.
func (p *Pool) Snapshot() []*Bill { return p.bills }

// NowFunc is overridable in tests that need deterministic elapsed times;
// production code leaves it as time.Now.
var NowFunc = time.Now
