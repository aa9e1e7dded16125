package validation

import (
	"strings"
	"testing"
)

func TestValidateYears(t *testing.T) {
	tests := []struct {
		name       string
		years      int
		expectWarn bool
	}{
		{"Default five years", 5, false},
		{"Minimum", 1, false},
		{"Maximum", 50, false},
		{"Zero", 0, true},
		{"Too many", 51, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			warning := ValidateYears("Test", tt.years)
			if (warning != "") != tt.expectWarn {
				t.Errorf("ValidateYears(%d) warning = %q, expected warning %t", tt.years, warning, tt.expectWarn)
			}
		})
	}
}

func TestValidatePlanStep(t *testing.T) {
	tests := []struct {
		name      string
		year      int
		chosen    int
		wantCount int
	}{
		{"Valid step", 2, 3, 0},
		{"Year zero", 0, 1, 1},
		{"Year past end", 6, 1, 1},
		{"Empty selection", 1, 0, 1},
		{"Too many", 1, 4, 1},
		{"Out of range and too many", 7, 5, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			warnings := ValidatePlanStep("Test", tt.year, 5, tt.chosen, 3)
			if len(warnings) != tt.wantCount {
				t.Errorf("ValidatePlanStep() = %v, want %d warnings", warnings, tt.wantCount)
			}
		})
	}
}

func TestMaxReachable(t *testing.T) {
	deltas := []float64{10, 7, 20, 3}
	tests := []struct {
		name       string
		years      int
		maxPerTurn int
		multiset   bool
		want       float64
	}{
		{"Set picks the top three", 2, 3, false, 74},
		{"Set limited by catalog size", 1, 10, false, 40},
		{"Multiset repeats the best", 2, 3, true, 120},
		{"No years", 0, 3, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MaxReachable(deltas, tt.years, tt.maxPerTurn, tt.multiset); got != tt.want {
				t.Errorf("MaxReachable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConfigValidatorValidateAll(t *testing.T) {
	valid := ScenarioConfig{
		Name:          "Valid",
		Active:        true,
		Years:         5,
		MaxPerTurn:    3,
		InitialBudget: 10,
		TargetMetric:  "CO2Reduction",
		TargetAmount:  15,
		Initiatives: []InitiativeConfig{
			{Name: "A", Cost: 2, Deltas: map[string]float64{"CO2Reduction": 10}},
			{Name: "B", Cost: 1.5, Deltas: map[string]float64{"CO2Reduction": 7}},
		},
		Plan: []PlanConfig{{Year: 1, Select: []string{"A", "B"}}},
	}

	t.Run("No warnings for a sound scenario", func(t *testing.T) {
		cv := ConfigValidator{Scenarios: []ScenarioConfig{valid}}
		if warnings := cv.ValidateAll(); len(warnings) != 0 {
			t.Errorf("ValidateAll() = %v, want none", warnings)
		}
	})

	t.Run("Inactive scenarios are skipped", func(t *testing.T) {
		broken := ScenarioConfig{Name: "Broken", Active: false}
		cv := ConfigValidator{Scenarios: []ScenarioConfig{broken}}
		if warnings := cv.ValidateAll(); len(warnings) != 0 {
			t.Errorf("ValidateAll() = %v, want none", warnings)
		}
	})

	tests := []struct {
		name     string
		mutate   func(*ScenarioConfig)
		contains string
	}{
		{
			name:     "Unreachable target",
			mutate:   func(s *ScenarioConfig) { s.TargetAmount = 1000 },
			contains: "unreachable",
		},
		{
			name:     "Metric never improved",
			mutate:   func(s *ScenarioConfig) { s.TargetMetric = "Noise" },
			contains: "not improved",
		},
		{
			name:     "Budget too small",
			mutate:   func(s *ScenarioConfig) { s.InitialBudget = 1 },
			contains: "cannot afford",
		},
		{
			name:     "No initiatives",
			mutate:   func(s *ScenarioConfig) { s.Initiatives = nil },
			contains: "no initiatives",
		},
		{
			name: "Duplicate plan year",
			mutate: func(s *ScenarioConfig) {
				s.Plan = append(s.Plan, PlanConfig{Year: 1, Select: []string{"A"}})
			},
			contains: "more than once",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scenario := valid
			scenario.Plan = append([]PlanConfig(nil), valid.Plan...)
			tt.mutate(&scenario)
			cv := ConfigValidator{Scenarios: []ScenarioConfig{scenario}}
			warnings := cv.ValidateAll()
			found := false
			for _, w := range warnings {
				if strings.Contains(w, tt.contains) {
					found = true
				}
			}
			if !found {
				t.Errorf("ValidateAll() = %v, want a warning containing %q", warnings, tt.contains)
			}
		})
	}

	t.Run("Duplicate scenario names", func(t *testing.T) {
		cv := ConfigValidator{Scenarios: []ScenarioConfig{valid, valid}}
		warnings := cv.ValidateAll()
		if len(warnings) != 1 || !strings.Contains(warnings[0], "more than once") {
			t.Errorf("ValidateAll() = %v, want one duplicate warning", warnings)
		}
	})
}
