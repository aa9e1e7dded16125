package optimizer

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/iwvelando/initiative-sim/internal/config"
	"github.com/iwvelando/initiative-sim/internal/game"
	"github.com/iwvelando/initiative-sim/pkg/catalog"
	"github.com/iwvelando/initiative-sim/pkg/constants"
	"github.com/iwvelando/initiative-sim/pkg/optimization"
	"github.com/iwvelando/initiative-sim/pkg/scoring"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Runner proposes plans for every active scenario of a configuration.
type Runner struct {
	logger *zap.Logger
	conf   *config.Configuration
}

// Result summarizes planner output keyed by scenario name.
type Result struct {
	Summaries map[string]optimization.Summary
}

// Empty indicates whether any plans were produced.
func (r Result) Empty() bool {
	return len(r.Summaries) == 0
}

// Names returns the planned scenario names in sorted order.
func (r Result) Names() []string {
	names := make([]string, 0, len(r.Summaries))
	for name := range r.Summaries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewRunner constructs a Runner for the provided configuration.
func NewRunner(logger *zap.Logger, conf *config.Configuration) (*Runner, error) {
	if conf == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{logger: logger, conf: conf}, nil
}

// Run plans every active scenario and replaces its plan in the configuration
// with the proposed one.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	result := &Result{Summaries: make(map[string]optimization.Summary)}

	for i := range r.conf.Scenarios {
		scenario := &r.conf.Scenarios[i]
		if !scenario.Active {
			continue
		}

		summary, err := Plan(ctx, r.logger, *scenario)
		if err != nil {
			return nil, fmt.Errorf("planning scenario %s: %w", scenario.Name, err)
		}
		result.Summaries[scenario.Name] = summary

		scenario.Plan = make([]config.PlanStep, 0, len(summary.Steps))
		for _, step := range summary.Steps {
			scenario.Plan = append(scenario.Plan, config.PlanStep{Year: step.Year, Select: step.Select})
		}

		r.logger.Info("planner proposed a plan",
			zap.String("op", "optimizer.Run"),
			zap.String("scenario", scenario.Name),
			zap.Int("turns", summary.Turns()),
			zap.String("cost", summary.Cost.String()),
			zap.Float64("achieved", summary.Achieved),
			zap.Float64("target", summary.Target),
			zap.Bool("reached", summary.Reached),
		)
	}

	return result, nil
}

type candidate struct {
	def     catalog.InitiativeDef
	order   int
	flagged bool
}

// gain is the share of the target metric that lands by the final year when
// chosen in year.
func (c candidate) gain(metric string, year, years int, staggered bool) float64 {
	delta := c.def.MetricDeltas[metric]
	if !staggered || c.def.LeadYears <= 1 {
		return delta
	}
	landed := years - year + 1
	if landed > c.def.LeadYears {
		landed = c.def.LeadYears
	}
	return delta * float64(landed) / float64(c.def.LeadYears)
}

// Plan proposes a per-year plan for scenario and replays it with events
// turned off to report how it scores.
//
// Candidates are ranked by target-metric gain per unit cost. Each initiative
// is planned at most once. Under weighted scoring, flagged initiatives worth
// more chosen than skipped go first, and spending stops short of the budget
// floor.
func Plan(ctx context.Context, logger *zap.Logger, scenario config.Scenario) (optimization.Summary, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	summary := optimization.Summary{Scenario: scenario.Name}

	if err := scenario.Validate(); err != nil {
		return summary, err
	}
	cat, err := scenario.Catalog()
	if err != nil {
		return summary, err
	}
	target, err := scenario.OutcomeTarget()
	if err != nil {
		return summary, err
	}
	summary.Metric = target.Metric
	summary.Target = target.TargetAmount()

	weighted := target.Mode == scoring.WeightedComposite
	staggered := scenario.EffectTiming == constants.EffectTimingStaggered

	flagged := make(map[string]bool)
	if weighted {
		for _, flag := range target.Flags {
			if flag.Bonus > flag.Baseline {
				flagged[flag.Initiative] = true
			}
		}
	}

	var pool []candidate
	for i, name := range cat.Names() {
		def, err := cat.Get(name)
		if err != nil {
			return summary, err
		}
		if def.MetricDeltas[target.Metric] <= 0 && !flagged[name] {
			continue
		}
		pool = append(pool, candidate{def: def, order: i, flagged: flagged[name]})
	}

	remaining := scenario.Budget()
	affordable := func(cost decimal.Decimal) bool {
		after := remaining.Sub(cost)
		if weighted {
			return after.GreaterThan(target.BudgetFloor)
		}
		return !after.IsNegative()
	}

	achieved := 0.0
	used := make(map[string]bool)
	need := target.TargetAmount()

	for year := 1; year <= scenario.Years; year++ {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		if achieved+constants.MetricTolerance >= need && !pendingFlags(pool, used) {
			break
		}

		ranked := rank(pool, used, target.Metric, year, scenario.Years, staggered)
		var selection []string
		for _, c := range ranked {
			if len(selection) >= scenario.MaxPerTurn {
				break
			}
			covered := achieved+constants.MetricTolerance >= need
			if covered && !c.flagged {
				continue
			}
			if !affordable(c.def.Cost) {
				continue
			}
			selection = append(selection, c.def.Name)
			used[c.def.Name] = true
			remaining = remaining.Sub(c.def.Cost)
			achieved += c.gain(target.Metric, year, scenario.Years, staggered)
		}

		if len(selection) > 0 {
			summary.Steps = append(summary.Steps, optimization.Step{Year: year, Select: selection})
		}
	}

	if len(summary.Steps) == 0 {
		summary.Notes = append(summary.Notes, "no affordable initiative improves "+target.Metric)
	}

	return verify(ctx, logger, scenario, summary)
}

// pendingFlags reports whether a flagged initiative is still unplanned.
func pendingFlags(pool []candidate, used map[string]bool) bool {
	for _, c := range pool {
		if c.flagged && !used[c.def.Name] {
			return true
		}
	}
	return false
}

func rank(pool []candidate, used map[string]bool, metric string, year, years int, staggered bool) []candidate {
	ranked := make([]candidate, 0, len(pool))
	for _, c := range pool {
		if !used[c.def.Name] {
			ranked = append(ranked, c)
		}
	}

	ratio := func(c candidate) float64 {
		cost := c.def.Cost.InexactFloat64()
		if cost <= 0 {
			return math.Inf(1)
		}
		return c.gain(metric, year, years, staggered) / cost
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.flagged != b.flagged {
			return a.flagged
		}
		ra, rb := ratio(a), ratio(b)
		if ra != rb {
			return ra > rb
		}
		ga, gb := a.gain(metric, year, years, staggered), b.gain(metric, year, years, staggered)
		if ga != gb {
			return ga > gb
		}
		return a.order < b.order
	})
	return ranked
}

// verify replays the plan through the engine without events and fills in
// the scored fields of summary.
func verify(ctx context.Context, logger *zap.Logger, scenario config.Scenario, summary optimization.Summary) (optimization.Summary, error) {
	scenario.RandomEvents = false
	scenario.Events = nil
	scenario.Plan = make([]config.PlanStep, 0, len(summary.Steps))
	for _, step := range summary.Steps {
		scenario.Plan = append(scenario.Plan, config.PlanStep{Year: step.Year, Select: step.Select})
	}

	result, err := game.Play(ctx, logger, scenario, game.NewPlanSelector(scenario.PlanByYear()))
	if err != nil {
		return summary, fmt.Errorf("replaying proposed plan: %w", err)
	}

	summary.Achieved = result.Outcome.Achieved
	summary.RemainingBudget = result.Outcome.RemainingBudget
	summary.Cost = result.InitialBudget.Sub(result.Outcome.RemainingBudget)
	summary.Reached = result.Outcome.Success
	if result.Outcome.Mode == scoring.WeightedComposite {
		summary.Score = result.Outcome.Score
		summary.Verdict = string(result.Outcome.Verdict)
	}

	for _, rejection := range result.Rejections {
		summary.Notes = append(summary.Notes, fmt.Sprintf("year %d rejected: %s", rejection.Year, rejection.Message))
	}
	if !summary.Reached && summary.Achieved+constants.MetricTolerance < summary.Target {
		summary.Notes = append(summary.Notes, fmt.Sprintf("best plan reaches %.2f of %.2f %s",
			summary.Achieved, summary.Target, summary.Metric))
	}

	return summary, nil
}
