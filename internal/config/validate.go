package config

import (
	"fmt"
	"strings"

	"github.com/iwvelando/initiative-sim/pkg/constants"
	"github.com/iwvelando/initiative-sim/pkg/validation"
)

// Validate returns the first error that would stop a scenario from running.
func (s Scenario) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("scenario name cannot be empty")
	}
	if s.InitialBudget < 0 {
		return fmt.Errorf("scenario %q: initial budget must be non-negative, got %g", s.Name, s.InitialBudget)
	}
	if s.Years < 1 {
		return fmt.Errorf("scenario %q: years must be positive, got %d", s.Name, s.Years)
	}
	if s.MaxPerTurn < 1 {
		return fmt.Errorf("scenario %q: maxPerTurn must be positive, got %d", s.Name, s.MaxPerTurn)
	}
	switch s.SelectionPolicy {
	case constants.SelectionPolicySet, constants.SelectionPolicyMultiset:
	default:
		return fmt.Errorf("scenario %q: unknown selection policy %q", s.Name, s.SelectionPolicy)
	}
	switch s.EffectTiming {
	case constants.EffectTimingImmediate, constants.EffectTimingStaggered:
	default:
		return fmt.Errorf("scenario %q: unknown effect timing %q", s.Name, s.EffectTiming)
	}
	if _, err := s.Catalog(); err != nil {
		return err
	}
	if _, err := s.OutcomeTarget(); err != nil {
		return err
	}
	if _, err := s.EventTable(); err != nil {
		return err
	}
	return nil
}

// Validate checks every active scenario.
func (c *Configuration) Validate() error {
	if len(c.ActiveScenarios()) == 0 {
		return fmt.Errorf("configuration has no active scenarios")
	}
	for _, scenario := range c.ActiveScenarios() {
		if err := scenario.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// ValidateConfiguration performs general validation of the configuration and returns warnings
func (c *Configuration) ValidateConfiguration() []string {
	var scenarios []validation.ScenarioConfig
	var warnings []string

	for _, scenario := range c.Scenarios {
		info := validation.ScenarioConfig{
			Name:          scenario.Name,
			Active:        scenario.Active,
			Years:         scenario.Years,
			MaxPerTurn:    scenario.MaxPerTurn,
			Multiset:      scenario.SelectionPolicy == constants.SelectionPolicyMultiset,
			InitialBudget: scenario.InitialBudget,
			TargetMetric:  scenario.Target.Metric,
		}
		if target, err := scenario.OutcomeTarget(); err == nil {
			info.TargetAmount = target.TargetAmount()
		}
		for _, initiative := range scenario.Initiatives {
			def := initiative.ToDef()
			info.Initiatives = append(info.Initiatives, validation.InitiativeConfig{
				Name:   def.Name,
				Cost:   initiative.Cost,
				Deltas: def.MetricDeltas,
			})
		}
		for _, step := range scenario.Plan {
			info.Plan = append(info.Plan, validation.PlanConfig{Year: step.Year, Select: step.Select})
		}
		scenarios = append(scenarios, info)

		if scenario.Active {
			warnings = append(warnings, scenario.planNameWarnings()...)
		}
	}

	validator := validation.ConfigValidator{Scenarios: scenarios}
	return append(validator.ValidateAll(), warnings...)
}

// planNameWarnings flags plan entries that are not in the catalog, with the
// closest catalog names as a hint.
func (s Scenario) planNameWarnings() []string {
	cat, err := s.Catalog()
	if err != nil {
		return nil
	}

	var warnings []string
	for _, step := range s.Plan {
		for _, name := range step.Select {
			if cat.Has(name) {
				continue
			}
			msg := fmt.Sprintf("Scenario '%s' plan year %d names unknown initiative '%s'", s.Name, step.Year, name)
			if suggestions := cat.Suggest(name); len(suggestions) > 0 {
				msg += fmt.Sprintf(" (did you mean '%s'?)", strings.Join(suggestions, "', '"))
			}
			warnings = append(warnings, msg)
		}
	}
	return warnings
}
