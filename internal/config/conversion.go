package config

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/iwvelando/initiative-sim/pkg/catalog"
	"github.com/iwvelando/initiative-sim/pkg/constants"
	"github.com/iwvelando/initiative-sim/pkg/engine"
	"github.com/iwvelando/initiative-sim/pkg/events"
	"github.com/iwvelando/initiative-sim/pkg/scoring"
	"github.com/shopspring/decimal"
)

// Catalog builds the scenario's initiative catalog.
func (s Scenario) Catalog() (*catalog.Catalog, error) {
	defs := make([]catalog.InitiativeDef, 0, len(s.Initiatives))
	for _, initiative := range s.Initiatives {
		defs = append(defs, initiative.ToDef())
	}
	cat, err := catalog.New(defs...)
	if err != nil {
		return nil, fmt.Errorf("scenario %q: %w", s.Name, err)
	}
	return cat, nil
}

// ToDef converts a configured initiative to a catalog definition. Repeated
// metrics are summed.
func (i Initiative) ToDef() catalog.InitiativeDef {
	deltas := make(map[string]float64, len(i.Effects))
	for _, effect := range i.Effects {
		deltas[strings.TrimSpace(effect.Metric)] += effect.Amount
	}
	return catalog.InitiativeDef{
		Name:         strings.TrimSpace(i.Name),
		MetricDeltas: deltas,
		Cost:         decimal.NewFromFloat(i.Cost),
		LeadYears:    i.LeadYears,
	}
}

// Budget returns the initial budget as a decimal.
func (s Scenario) Budget() decimal.Decimal {
	return decimal.NewFromFloat(s.InitialBudget)
}

// OutcomeTarget converts the target section, filling weighted-mode defaults.
func (s Scenario) OutcomeTarget() (scoring.OutcomeTarget, error) {
	t := s.Target
	mode, err := scoring.ParseMode(t.Mode)
	if err != nil {
		return scoring.OutcomeTarget{}, fmt.Errorf("scenario %q: %w", s.Name, err)
	}

	target := scoring.OutcomeTarget{
		Metric:            strings.TrimSpace(t.Metric),
		Baseline:          t.Baseline,
		ThresholdAbsolute: t.Threshold,
		ThresholdFraction: t.ThresholdFraction,
		Mode:              mode,
		BudgetFloor:       decimal.NewFromFloat(t.BudgetFloor),
		MetricWeight:      valueOr(t.MetricWeight, constants.DefaultMetricWeight),
		BudgetWeight:      valueOr(t.BudgetWeight, constants.DefaultBudgetWeight),
		Years:             s.Years,
	}

	for _, flag := range t.Flags {
		target.Flags = append(target.Flags, scoring.FlagBonus{
			Initiative: strings.TrimSpace(flag.Initiative),
			Bonus:      valueOr(flag.Bonus, constants.DefaultFlagBonus),
			Baseline:   valueOr(flag.Baseline, constants.DefaultFlagBaseline),
		})
	}

	for _, b := range t.Buckets {
		verdict, err := parseVerdict(b.Verdict)
		if err != nil {
			return scoring.OutcomeTarget{}, fmt.Errorf("scenario %q: %w", s.Name, err)
		}
		target.Buckets = append(target.Buckets, scoring.Bucket{MinScore: b.MinScore, Verdict: verdict})
	}

	if err := target.Validate(); err != nil {
		return scoring.OutcomeTarget{}, fmt.Errorf("scenario %q: %w", s.Name, err)
	}
	return target, nil
}

func parseVerdict(value string) (scoring.Verdict, error) {
	switch v := scoring.Verdict(strings.ToLower(strings.TrimSpace(value))); v {
	case scoring.VerdictSuccess, scoring.VerdictPartial, scoring.VerdictFailure:
		return v, nil
	default:
		return "", fmt.Errorf("unknown verdict %q", value)
	}
}

func valueOr(v *float64, fallback float64) float64 {
	if v == nil {
		return fallback
	}
	return *v
}

// EventTable returns the scenario's random-event table: the configured
// events when present, the stock table when RandomEvents is set, nil otherwise.
// Omitted weights and factors count as 1; an explicit 0 is kept.
func (s Scenario) EventTable() (*events.Table, error) {
	if len(s.Events) == 0 {
		if s.RandomEvents {
			return events.DefaultTable(), nil
		}
		return nil, nil
	}

	list := make([]events.Event, 0, len(s.Events))
	for _, e := range s.Events {
		list = append(list, events.Event{
			Name:         e.Name,
			Description:  e.Description,
			Weight:       valueOr(e.Weight, 1),
			CostFactor:   valueOr(e.CostFactor, 1),
			EffectFactor: valueOr(e.EffectFactor, 1),
		})
	}
	table, err := events.NewTable(list...)
	if err != nil {
		return nil, fmt.Errorf("scenario %q: %w", s.Name, err)
	}
	return table, nil
}

// EngineOptions assembles simulator options. r is only used when the
// scenario has an event table.
func (s Scenario) EngineOptions(r *rand.Rand) (engine.Options, error) {
	table, err := s.EventTable()
	if err != nil {
		return engine.Options{}, err
	}
	opts := engine.Options{
		SelectionPolicy: s.SelectionPolicy,
		EffectTiming:    s.EffectTiming,
	}
	if table != nil {
		opts.Events = table
		opts.Rand = r
	}
	return opts, nil
}

// HasEvents reports whether turns in this scenario draw random events.
func (s Scenario) HasEvents() bool {
	return s.RandomEvents || len(s.Events) > 0
}

// PlanByYear indexes the scripted plan by year with names trimmed. Later
// steps for the same year replace earlier ones.
func (s Scenario) PlanByYear() map[int][]string {
	plan := make(map[int][]string, len(s.Plan))
	for _, step := range s.Plan {
		names := make([]string, 0, len(step.Select))
		for _, name := range step.Select {
			names = append(names, strings.TrimSpace(name))
		}
		plan[step.Year] = names
	}
	return plan
}
