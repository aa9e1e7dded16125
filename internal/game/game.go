// Package game drives playthroughs of configured scenarios: it asks a
// Selector for each year's initiatives, applies them and scores the run.
package game

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/iwvelando/initiative-sim/internal/config"
	"github.com/iwvelando/initiative-sim/pkg/constants"
	"github.com/iwvelando/initiative-sim/pkg/engine"
	"github.com/iwvelando/initiative-sim/pkg/scoring"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Rejection records one selection the engine refused.
type Rejection struct {
	Year      int
	Attempt   int
	Selection []string
	Kind      string
	Message   string
}

// Result holds all information related to one playthrough.
type Result struct {
	Name          string
	RunID         string
	Seed          int64
	InitialBudget decimal.Decimal
	Metrics       []string
	Target        scoring.OutcomeTarget
	State         *engine.RunState
	History       []engine.TurnRecord
	Outcome       scoring.Outcome
	Series        []scoring.Point
	Rejections    []Rejection
	Stopped       bool
}

// Options tune a playthrough.
type Options struct {
	// MaxAttempts bounds how often one year is re-asked after a rejected
	// selection. Zero means constants.DefaultMaxPromptAttempts.
	MaxAttempts int
	// Now seeds runs whose scenario has no fixed seed.
	Now func() time.Time
}

// Play runs scenario from year 1 to its last year using selector.
func Play(ctx context.Context, logger *zap.Logger, scenario config.Scenario, selector Selector) (Result, error) {
	return PlayWithOptions(ctx, logger, scenario, selector, Options{})
}

// PlayWithOptions is Play with explicit options.
func PlayWithOptions(ctx context.Context, logger *zap.Logger, scenario config.Scenario, selector Selector, opts Options) (Result, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = constants.DefaultMaxPromptAttempts
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	result := Result{Name: scenario.Name, RunID: uuid.NewString()}

	if err := scenario.Validate(); err != nil {
		return result, err
	}
	cat, err := scenario.Catalog()
	if err != nil {
		return result, err
	}
	target, err := scenario.OutcomeTarget()
	if err != nil {
		return result, err
	}

	result.Seed = opts.Now().UnixNano()
	if scenario.Seed != nil {
		result.Seed = *scenario.Seed
	}
	engineOpts, err := scenario.EngineOptions(rand.New(rand.NewSource(result.Seed)))
	if err != nil {
		return result, err
	}

	runLogger := logger.With(
		zap.String("scenario", scenario.Name),
		zap.String("runId", result.RunID),
	)
	sim, err := engine.NewSimulator(runLogger, cat, engineOpts)
	if err != nil {
		return result, fmt.Errorf("scenario %q: %w", scenario.Name, err)
	}
	eng := engine.NewEngine(sim, scenario.Budget(), scenario.MaxPerTurn)

	result.InitialBudget = scenario.Budget()
	result.Metrics = cat.Metrics()
	result.Target = target

	runLogger.Debug("starting playthrough",
		zap.String("op", "game.Play"),
		zap.Int("years", scenario.Years),
		zap.Int64("seed", result.Seed),
		zap.Bool("events", scenario.HasEvents()),
	)

years:
	for year := 1; year <= scenario.Years; year++ {
		var lastErr error
		for attempt := 1; ; attempt++ {
			if err := ctx.Err(); err != nil {
				return result, err
			}

			snapshot := eng.Snapshot()
			selection, err := selector.Select(ctx, Turn{
				Year:            year,
				Years:           scenario.Years,
				Attempt:         attempt,
				MaxPerTurn:      eng.MaxPerTurn(),
				RemainingBudget: snapshot.RemainingBudget,
				Cumulative:      snapshot.Cumulative,
				Catalog:         cat,
				LastErr:         lastErr,
			})
			switch {
			case errors.Is(err, ErrSkipYear):
				eng.Settle(year)
				continue years
			case errors.Is(err, ErrStop):
				result.Stopped = true
				runLogger.Info("playthrough stopped by player",
					zap.String("op", "game.Play"),
					zap.Int("year", year),
				)
				break years
			case err != nil:
				return result, fmt.Errorf("year %d: %w", year, err)
			}

			if _, err := eng.ApplyTurn(year, selection); err != nil {
				if !engine.IsRecoverable(err) {
					return result, err
				}
				result.Rejections = append(result.Rejections, Rejection{
					Year:      year,
					Attempt:   attempt,
					Selection: append([]string(nil), selection...),
					Kind:      engine.KindOf(err).String(),
					Message:   err.Error(),
				})
				lastErr = err
				if attempt >= opts.MaxAttempts {
					runLogger.Warn("giving up on year after repeated rejections",
						zap.String("op", "game.Play"),
						zap.Int("year", year),
						zap.Int("attempts", attempt),
					)
					eng.Settle(year)
					continue years
				}
				continue
			}
			continue years
		}
	}

	finish(&result, eng.Snapshot(), target)

	runLogger.Info("playthrough complete",
		zap.String("op", "game.Play"),
		zap.Int("turns", len(result.History)),
		zap.Int("rejections", len(result.Rejections)),
		zap.Bool("success", result.Outcome.Success),
		zap.String("verdict", string(result.Outcome.Verdict)),
		zap.String("remainingBudget", result.Outcome.RemainingBudget.String()),
	)

	return result, nil
}

func finish(result *Result, state *engine.RunState, target scoring.OutcomeTarget) {
	result.State = state
	result.History = state.History
	result.Outcome = scoring.ComputeOutcome(state, target)
	result.Series = scoring.RemainingSeries(state, target.Baseline, target.Metric)
}

// RunAll plays every active scenario with its scripted plan.
func RunAll(ctx context.Context, logger *zap.Logger, conf config.Configuration) ([]Result, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var results []Result
	for _, scenario := range conf.Scenarios {
		if !scenario.Active {
			logger.Debug(fmt.Sprintf("skipping scenario %s because it is inactive", scenario.Name),
				zap.String("op", "game.RunAll"),
			)
			continue
		}

		result, err := Play(ctx, logger, scenario, NewPlanSelector(scenario.PlanByYear()))
		if err != nil {
			return results, err
		}
		results = append(results, result)
	}

	return results, nil
}
