// Command allocate-demo runs the bill-allocation engine against a JSON
// fixture of bills and orders and prints the resulting AllocationResult(s)
// as JSON. Structured the way the teacher's cmd/server/main.go wires
// config, logger and the core sequentially before doing any work.
package main

import (
	"encoding/json"
	"flag"
	"os"

	"github.com/aristath/billalloc/internal/classifier"
	"github.com/aristath/billalloc/internal/config"
	"github.com/aristath/billalloc/internal/domain"
	"github.com/aristath/billalloc/internal/engine"
	"github.com/aristath/billalloc/internal/logging"
	"github.com/shopspring/decimal"
)

// billWire and orderWire mirror spec.md §6's boundary JSON shapes.
type billWire struct {
	ID            string `json:"id"`
	Amount        string `json:"amount"`
	MaturityDays  int    `json:"maturity_days"`
	AcceptorClass int    `json:"acceptor_class"`
	Organization  string `json:"organization"`
}

type orderWire struct {
	ID           string `json:"id"`
	Amount       string `json:"amount"`
	Organization string `json:"organization"`
	Priority     int    `json:"priority"`
}

type fixture struct {
	Bills  []billWire  `json:"bills"`
	Orders []orderWire `json:"orders"`
	Seed   *int64      `json:"seed"`
}

func main() {
	var fixturePath string
	flag.StringVar(&fixturePath, "fixture", "", "path to a JSON fixture of bills and orders")
	flag.Parse()

	cfg, err := config.Load()
	fallback := logging.New(logging.Config{Level: "info", Pretty: true})
	if err != nil {
		fallback.Fatal().Err(err).Msg("failed to load configuration")
	}

	log := logging.New(logging.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty})
	log.Info().Msg("starting allocate-demo")

	if fixturePath == "" {
		log.Fatal().Msg("--fixture is required")
	}

	raw, err := os.ReadFile(fixturePath)
	if err != nil {
		log.Fatal().Err(err).Str("path", fixturePath).Msg("failed to read fixture")
	}

	var fx fixture
	if err := json.Unmarshal(raw, &fx); err != nil {
		log.Fatal().Err(err).Msg("failed to parse fixture")
	}

	inputs := make([]domain.BillInput, 0, len(fx.Bills))
	for _, b := range fx.Bills {
		amount, err := decimal.NewFromString(b.Amount)
		if err != nil {
			log.Fatal().Err(err).Str("bill", b.ID).Msg("invalid amount")
		}
		inputs = append(inputs, domain.BillInput{
			ID:            b.ID,
			Amount:        amount,
			MaturityDays:  b.MaturityDays,
			AcceptorClass: b.AcceptorClass,
			Organization:  b.Organization,
		})
	}

	pool, err := domain.NewPool(inputs, domain.DefaultAmountLabelConfig(), classifier.Classify)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build bill pool")
	}

	orders := make([]domain.PaymentOrder, 0, len(fx.Orders))
	for _, o := range fx.Orders {
		amount, err := decimal.NewFromString(o.Amount)
		if err != nil {
			log.Fatal().Err(err).Str("order", o.ID).Msg("invalid amount")
		}
		orders = append(orders, domain.PaymentOrder{
			ID:           o.ID,
			Amount:       amount,
			Organization: o.Organization,
			Priority:     o.Priority,
		})
	}

	seed := cfg.Seed
	if fx.Seed != nil {
		seed = fx.Seed
	}

	e := engine.New(log, seed)
	results := e.AllocateBatch(orders, pool, domain.DefaultAllocationConfig())

	out, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		log.Fatal().Err(err).Msg("failed to marshal results")
	}
	os.Stdout.Write(out)
	os.Stdout.Write([]byte("\n"))
}
