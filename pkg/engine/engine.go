// Package engine applies yearly initiative selections to a run's budget and
// metric state and keeps the per-year history.
package engine

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"

	"github.com/iwvelando/initiative-sim/pkg/catalog"
	"github.com/iwvelando/initiative-sim/pkg/constants"
	"github.com/iwvelando/initiative-sim/pkg/events"
	"github.com/iwvelando/initiative-sim/pkg/mathutil"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Options tune how a Simulator interprets selections.
type Options struct {
	// SelectionPolicy is constants.SelectionPolicySet (default) or
	// constants.SelectionPolicyMultiset.
	SelectionPolicy string
	// EffectTiming is constants.EffectTimingImmediate (default) or
	// constants.EffectTimingStaggered.
	EffectTiming string
	// Events, when set together with Rand, draws one event per turn.
	Events *events.Table
	Rand   *rand.Rand
}

// Simulator validates and applies turns against a fixed catalog.
type Simulator struct {
	catalog *catalog.Catalog
	opts    Options
	logger  *zap.Logger
}

// NewSimulator creates a Simulator for cat. A nil logger is replaced by a no-op logger.
func NewSimulator(logger *zap.Logger, cat *catalog.Catalog, opts Options) (*Simulator, error) {
	if cat == nil {
		return nil, fmt.Errorf("catalog cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	switch opts.SelectionPolicy {
	case "":
		opts.SelectionPolicy = constants.SelectionPolicySet
	case constants.SelectionPolicySet, constants.SelectionPolicyMultiset:
	default:
		return nil, fmt.Errorf("unknown selection policy %q", opts.SelectionPolicy)
	}

	switch opts.EffectTiming {
	case "":
		opts.EffectTiming = constants.EffectTimingImmediate
	case constants.EffectTimingImmediate, constants.EffectTimingStaggered:
	default:
		return nil, fmt.Errorf("unknown effect timing %q", opts.EffectTiming)
	}

	if opts.Events != nil && opts.Rand == nil {
		return nil, fmt.Errorf("an event table requires a random source")
	}

	return &Simulator{catalog: cat, opts: opts, logger: logger}, nil
}

// Catalog returns the simulator's catalog.
func (s *Simulator) Catalog() *catalog.Catalog {
	return s.catalog
}

// Options returns the normalised options.
func (s *Simulator) Options() Options {
	return s.opts
}

// ApplyTurn validates selection for year and, when every check passes,
// deducts its cost, adds its metric deltas and appends a TurnRecord.
//
// Checks run in order and the first failure wins: empty selection, more than
// maxPerTurn names, unknown names, cost above the remaining budget. A
// rejected turn leaves state untouched. ApplyTurn does not guard against the
// same year being applied twice.
func (s *Simulator) ApplyTurn(state *RunState, year int, selection []string, maxPerTurn int) (TurnRecord, error) {
	if maxPerTurn < 1 {
		maxPerTurn = constants.DefaultMaxPerTurn
	}

	chosen := s.normalizeSelection(selection)

	if len(chosen) == 0 {
		return s.reject(year, KindEmptySelection, ErrEmptySelection)
	}
	if len(chosen) > maxPerTurn {
		return s.reject(year, KindTooManySelections,
			fmt.Errorf("%w: %d chosen, at most %d allowed", ErrTooManySelections, len(chosen), maxPerTurn))
	}

	defs := make([]catalog.InitiativeDef, 0, len(chosen))
	for _, name := range chosen {
		def, err := s.catalog.Get(name)
		if err != nil {
			return s.reject(year, KindUnknownInitiative, err)
		}
		defs = append(defs, def)
	}

	effect := events.TurnEffect{Cost: decimal.Zero, Deltas: make(map[string]float64)}
	for _, def := range defs {
		effect.Cost = effect.Cost.Add(def.Cost)
		mathutil.SumDeltas(effect.Deltas, def.MetricDeltas, 1)
	}

	eventName := ""
	if s.opts.Events != nil {
		event := s.opts.Events.Draw(s.opts.Rand)
		eventName = event.Name
		effect = event.Modifier()(effect)
	}

	if effect.Cost.GreaterThan(state.RemainingBudget) {
		return s.reject(year, KindInsufficientBudget,
			fmt.Errorf("%w: turn costs %s, %s remaining", ErrInsufficientBudget, effect.Cost, state.RemainingBudget))
	}
	if year < 1 {
		return s.reject(year, KindInvalidYear, fmt.Errorf("%w, got %d", ErrInvalidYear, year))
	}

	// Every check passed; mutate.
	var realized map[string]float64
	if s.opts.EffectTiming == constants.EffectTimingStaggered {
		state.schedule(s.stagger(year, defs, effect)...)
		realized = state.mature(year)
	} else {
		realized = copyDeltas(effect.Deltas)
	}

	state.RemainingBudget = state.RemainingBudget.Sub(effect.Cost)
	mathutil.SumDeltas(state.Cumulative, realized, 1)

	record := TurnRecord{
		Year:                 year,
		Chosen:               chosen,
		TurnCost:             effect.Cost,
		MetricDeltas:         effect.Deltas,
		Realized:             realized,
		CumulativeAfter:      copyDeltas(state.Cumulative),
		RemainingBudgetAfter: state.RemainingBudget,
		Event:                eventName,
	}
	state.History = append(state.History, record)

	s.logger.Debug("turn applied",
		zap.String("op", "engine.ApplyTurn"),
		zap.Int("year", year),
		zap.Strings("chosen", chosen),
		zap.String("turnCost", effect.Cost.String()),
		zap.String("remainingBudget", state.RemainingBudget.String()),
		zap.String("event", eventName),
	)

	return record.clone(), nil
}

// Settle realises every pending effect due at or before year without taking
// a turn. It returns what landed. Immediate-timing runs never have pending
// effects, so Settle is a no-op for them.
func (s *Simulator) Settle(state *RunState, year int) map[string]float64 {
	due := state.mature(year)
	mathutil.SumDeltas(state.Cumulative, due, 1)
	if len(due) > 0 {
		s.logger.Debug("pending effects settled",
			zap.String("op", "engine.Settle"),
			zap.Int("year", year),
			zap.Int("metrics", len(due)),
		)
	}
	return due
}

func (s *Simulator) normalizeSelection(selection []string) []string {
	chosen := make([]string, 0, len(selection))
	seen := make(map[string]bool, len(selection))
	for _, name := range selection {
		name = strings.TrimSpace(name)
		if s.opts.SelectionPolicy == constants.SelectionPolicySet {
			if seen[name] {
				continue
			}
			seen[name] = true
		}
		chosen = append(chosen, name)
	}
	return chosen
}

// stagger splits each initiative's share of the (possibly event-modified)
// turn effect evenly across its lead years, starting with year.
func (s *Simulator) stagger(year int, defs []catalog.InitiativeDef, effect events.TurnEffect) []PendingEffect {
	// Per-metric scale between the modified and raw totals so an event
	// applies proportionally to every initiative.
	raw := make(map[string]float64)
	for _, def := range defs {
		mathutil.SumDeltas(raw, def.MetricDeltas, 1)
	}

	var out []PendingEffect
	for _, def := range defs {
		for offset := 0; offset < def.LeadYears; offset++ {
			share := make(map[string]float64, len(def.MetricDeltas))
			for metric, amount := range def.MetricDeltas {
				scale := 1.0
				if raw[metric] != 0 {
					scale = effect.Deltas[metric] / raw[metric]
				}
				share[metric] = amount * scale / float64(def.LeadYears)
			}
			out = append(out, PendingEffect{Year: year + offset, Initiative: def.Name, Deltas: share})
		}
	}
	return out
}

func (s *Simulator) reject(year int, kind ErrorKind, err error) (TurnRecord, error) {
	s.logger.Info("turn rejected",
		zap.String("op", "engine.ApplyTurn"),
		zap.Int("year", year),
		zap.String("kind", kind.String()),
		zap.Error(err),
	)
	return TurnRecord{}, newTurnError(kind, year, err)
}

// Engine owns one RunState and serialises access to it for callers that
// share a run.
type Engine struct {
	mu         sync.Mutex
	sim        *Simulator
	state      *RunState
	maxPerTurn int
}

// NewEngine starts a run with initialBudget. maxPerTurn below 1 falls back to
// constants.DefaultMaxPerTurn.
func NewEngine(sim *Simulator, initialBudget decimal.Decimal, maxPerTurn int) *Engine {
	if maxPerTurn < 1 {
		maxPerTurn = constants.DefaultMaxPerTurn
	}
	return &Engine{
		sim:        sim,
		state:      NewRunState(initialBudget),
		maxPerTurn: maxPerTurn,
	}
}

// ApplyTurn applies selection for year under the engine's lock.
func (e *Engine) ApplyTurn(year int, selection []string) (TurnRecord, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sim.ApplyTurn(e.state, year, selection, e.maxPerTurn)
}

// Settle realises pending effects due by year under the engine's lock.
func (e *Engine) Settle(year int) map[string]float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sim.Settle(e.state, year)
}

// Snapshot returns a deep copy of the current state.
func (e *Engine) Snapshot() *RunState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Clone()
}

// Reset discards the current run and starts over with the same budget.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state = NewRunState(e.state.InitialBudget)
}

// MaxPerTurn returns the per-year selection limit.
func (e *Engine) MaxPerTurn() int {
	return e.maxPerTurn
}

// Simulator returns the engine's simulator.
func (e *Engine) Simulator() *Simulator {
	return e.sim
}
