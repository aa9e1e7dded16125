// Package validation provides configuration validation utilities.
package validation

import (
	"fmt"
	"sort"

	"github.com/iwvelando/initiative-sim/pkg/constants"
)

// ValidateYears checks that a scenario's turn count is within the supported range.
func ValidateYears(scenarioName string, years int) string {
	if years < constants.MinYears || years > constants.MaxYears {
		return fmt.Sprintf("Scenario '%s' runs %d years, outside the supported %d-%d",
			scenarioName, years, constants.MinYears, constants.MaxYears)
	}
	return ""
}

// ValidatePlanStep checks one scripted year against the scenario's limits.
func ValidatePlanStep(scenarioName string, year, years, chosen, maxPerTurn int) []string {
	var warnings []string

	if year < 1 || year > years {
		warnings = append(warnings, fmt.Sprintf("Scenario '%s' plan year %d is outside 1-%d and will not be played",
			scenarioName, year, years))
	}
	if chosen == 0 {
		warnings = append(warnings, fmt.Sprintf("Scenario '%s' plan year %d selects nothing and will be rejected",
			scenarioName, year))
	}
	if chosen > maxPerTurn {
		warnings = append(warnings, fmt.Sprintf("Scenario '%s' plan year %d selects %d initiatives, more than the limit of %d",
			scenarioName, year, chosen, maxPerTurn))
	}

	return warnings
}

// ValidateReachability warns when the target cannot be met even by taking the
// best initiatives every year with unlimited budget.
func ValidateReachability(scenarioName, metric string, target float64, deltas []float64, years, maxPerTurn int, multiset bool) string {
	best := MaxReachable(deltas, years, maxPerTurn, multiset)
	if best < target {
		return fmt.Sprintf("Scenario '%s' target of %g on '%s' is unreachable, at most %g can be achieved in %d years",
			scenarioName, target, metric, best, years)
	}
	return ""
}

// MaxReachable returns the largest cumulative delta achievable with per-year
// picks from deltas, ignoring cost.
func MaxReachable(deltas []float64, years, maxPerTurn int, multiset bool) float64 {
	if len(deltas) == 0 || years <= 0 || maxPerTurn <= 0 {
		return 0
	}
	sorted := append([]float64(nil), deltas...)
	sort.Sort(sort.Reverse(sort.Float64Slice(sorted)))

	perYear := 0.0
	if multiset {
		perYear = sorted[0] * float64(maxPerTurn)
	} else {
		for i := 0; i < maxPerTurn && i < len(sorted); i++ {
			perYear += sorted[i]
		}
	}
	return perYear * float64(years)
}

// ConfigValidator collects the facts needed to warn about a configuration.
type ConfigValidator struct {
	Scenarios []ScenarioConfig
}

type ScenarioConfig struct {
	Name          string
	Active        bool
	Years         int
	MaxPerTurn    int
	Multiset      bool
	InitialBudget float64
	TargetMetric  string
	TargetAmount  float64
	Initiatives   []InitiativeConfig
	Plan          []PlanConfig
}

type InitiativeConfig struct {
	Name   string
	Cost   float64
	Deltas map[string]float64
}

type PlanConfig struct {
	Year   int
	Select []string
}

// ValidateAll validates the entire configuration and returns warnings
func (cv *ConfigValidator) ValidateAll() []string {
	var warnings []string

	seen := make(map[string]bool)
	for _, scenario := range cv.Scenarios {
		if seen[scenario.Name] {
			warnings = append(warnings, fmt.Sprintf("Scenario '%s' is defined more than once", scenario.Name))
		}
		seen[scenario.Name] = true

		if !scenario.Active {
			continue
		}
		warnings = append(warnings, cv.validateScenario(scenario)...)
	}

	return warnings
}

func (cv *ConfigValidator) validateScenario(scenario ScenarioConfig) []string {
	var warnings []string

	if w := ValidateYears(scenario.Name, scenario.Years); w != "" {
		warnings = append(warnings, w)
	}

	if len(scenario.Initiatives) == 0 {
		warnings = append(warnings, fmt.Sprintf("Scenario '%s' has no initiatives to choose from", scenario.Name))
		return warnings
	}

	producesTarget := false
	cheapest := scenario.Initiatives[0].Cost
	targetDeltas := make([]float64, 0, len(scenario.Initiatives))
	for _, initiative := range scenario.Initiatives {
		if initiative.Cost < cheapest {
			cheapest = initiative.Cost
		}
		if amount, ok := initiative.Deltas[scenario.TargetMetric]; ok {
			targetDeltas = append(targetDeltas, amount)
			if amount > 0 {
				producesTarget = true
			}
		}
	}

	if !producesTarget {
		warnings = append(warnings, fmt.Sprintf("Scenario '%s' target metric '%s' is not improved by any initiative",
			scenario.Name, scenario.TargetMetric))
	} else if w := ValidateReachability(scenario.Name, scenario.TargetMetric, scenario.TargetAmount,
		targetDeltas, scenario.Years, scenario.MaxPerTurn, scenario.Multiset); w != "" {
		warnings = append(warnings, w)
	}

	if cheapest > scenario.InitialBudget {
		warnings = append(warnings, fmt.Sprintf("Scenario '%s' budget of %g cannot afford any initiative (cheapest costs %g)",
			scenario.Name, scenario.InitialBudget, cheapest))
	}

	years := make(map[int]bool)
	for _, step := range scenario.Plan {
		if years[step.Year] {
			warnings = append(warnings, fmt.Sprintf("Scenario '%s' plan lists year %d more than once, the last entry wins",
				scenario.Name, step.Year))
		}
		years[step.Year] = true
		warnings = append(warnings, ValidatePlanStep(scenario.Name, step.Year, scenario.Years, len(step.Select), scenario.MaxPerTurn)...)
	}

	return warnings
}
