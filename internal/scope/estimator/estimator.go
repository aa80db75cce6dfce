// Package estimator produces three-point cost estimates. The AI strategy
// runs first; the table heuristic always succeeds.
package estimator

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"renovation-scope/internal/common/logger"
	"renovation-scope/internal/models"
	"renovation-scope/internal/scope/genai"
	"renovation-scope/internal/scope/knowledge"
	"renovation-scope/internal/scope/money"
	"renovation-scope/internal/scope/parser"
	"renovation-scope/internal/scope/prompt"
	"renovation-scope/internal/scope/strategy"
)

const (
	Component = "cost_estimate"

	StrategyAI        = "ai"
	StrategyHeuristic = "heuristic"

	// baselineItemCount is the typical template size one cost range covers.
	baselineItemCount = 3
)

var germanMonths = [...]string{
	"Januar", "Februar", "März", "April", "Mai", "Juni",
	"Juli", "August", "September", "Oktober", "November", "Dezember",
}

// Input is what an estimate is computed from.
type Input struct {
	Context   models.CaseContext
	LineItems []models.LineItem
	AreaSqm   *float64
}

// Result is a finalized estimate with its provenance.
type Result struct {
	Estimate   models.CostEstimate
	DataSource string
	Strategy   string
}

type sourced struct {
	estimate models.CostEstimate
	source   string
}

type Estimator struct {
	kb     *knowledge.Base
	client genai.Client
	parser *parser.Parser
	logger logger.Logger
	now    func() time.Time
}

type Option func(*Estimator)

// WithClock replaces the clock used for the market data label.
func WithClock(now func() time.Time) Option {
	return func(e *Estimator) { e.now = now }
}

// New creates an estimator. A nil client disables the AI strategy.
func New(kb *knowledge.Base, client genai.Client, p *parser.Parser, log logger.Logger, opts ...Option) *Estimator {
	e := &Estimator{
		kb:     kb,
		client: client,
		parser: p,
		logger: logger.ForComponent(log, Component),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Estimate runs the strategy chain and finalizes the winning estimate.
func (e *Estimator) Estimate(ctx context.Context, in Input) (Result, error) {
	chain := strategy.NewChain(Component, e.logger,
		strategy.Strategy[sourced]{Name: StrategyAI, Run: func(ctx context.Context) (sourced, error) {
			return e.fromAI(ctx, in)
		}},
		strategy.Strategy[sourced]{Name: StrategyHeuristic, Run: func(context.Context) (sourced, error) {
			return e.fromTable(in.Context.Category, len(in.LineItems), in.AreaSqm)
		}},
	)

	winner, name, err := chain.Resolve(ctx, in.Context.CaseID)
	if err != nil {
		return Result{}, err
	}
	return Result{Estimate: winner.estimate, DataSource: winner.source, Strategy: name}, nil
}

// Heuristic is the table strategy alone, for callers that already fell back.
func (e *Estimator) Heuristic(category string, itemCount int, areaSqm *float64) (Result, error) {
	s, err := e.fromTable(category, itemCount, areaSqm)
	if err != nil {
		return Result{}, err
	}
	return Result{Estimate: s.estimate, DataSource: s.source, Strategy: StrategyHeuristic}, nil
}

func (e *Estimator) fromAI(ctx context.Context, in Input) (sourced, error) {
	instr, err := prompt.Compile(prompt.Input{
		Action:    models.ActionEstimateCosts,
		Context:   in.Context,
		LineItems: in.LineItems,
		AreaSqm:   in.AreaSqm,
	})
	if err != nil {
		return sourced{}, err
	}

	raw, err := genai.Attempt(ctx, e.client, genai.Request{
		Component: Component,
		CaseID:    in.Context.CaseID,
		System:    instr.System,
		User:      instr.User,
	}, e.parser.ParseEstimate)
	if err != nil {
		return sourced{}, err
	}
	estimate, err := Finalize(raw)
	if err != nil {
		return sourced{}, fmt.Errorf("%w: %v", parser.ErrUnusable, err)
	}
	return sourced{estimate: estimate, source: e.marketLabel()}, nil
}

func (e *Estimator) fromTable(category string, itemCount int, areaSqm *float64) (sourced, error) {
	r, found := e.kb.CostRange(category)
	source := "Richtwerte Standard"
	if found {
		source = "Richtwerte " + category
	}

	factor := big.NewRat(int64(itemCount), baselineItemCount)
	if areaSqm != nil && *areaSqm > 0 {
		factor = new(big.Rat).SetFloat64(*areaSqm)
	}
	estimate, err := Finalize(money.NewTriple(r.Min, r.Mid, r.Max).Scale(factor))
	if err != nil {
		return sourced{}, fmt.Errorf("table estimate for %s: %w", category, err)
	}
	return sourced{estimate: estimate, source: source}, nil
}

func (e *Estimator) marketLabel() string {
	t := e.now()
	return fmt.Sprintf("Marktdaten %s %d", germanMonths[t.Month()-1], t.Year())
}

// Finalize rounds every bound to money.RoundingStep and restores
// min <= mid <= max if rounding broke it. Bounds outside int64 fail with
// money.ErrOverflow.
func Finalize(t money.Triple) (models.CostEstimate, error) {
	var bounds [3]int64
	for i, r := range []*big.Rat{t.Min, t.Mid, t.Max} {
		if r == nil {
			return models.CostEstimate{}, fmt.Errorf("cost estimate bound %d missing", i)
		}
		v, err := money.RoundTo(r, money.RoundingStep)
		if err != nil {
			return models.CostEstimate{}, err
		}
		bounds[i] = v
	}
	lo, mid, hi := bounds[0], bounds[1], bounds[2]

	if lo > hi {
		lo, hi = hi, lo
	}
	if mid < lo || mid > hi {
		sum := new(big.Rat).Add(big.NewRat(lo, 1), big.NewRat(hi, 1))
		v, err := money.RoundTo(sum.Quo(sum, big.NewRat(2, 1)), money.RoundingStep)
		if err != nil {
			return models.CostEstimate{}, err
		}
		mid = v
	}
	if hi < mid {
		hi = mid
	}
	if lo > mid {
		lo = mid
	}
	return models.CostEstimate{Min: lo, Mid: mid, Max: hi}, nil
}
