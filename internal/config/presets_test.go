package config

import (
	"testing"

	"github.com/iwvelando/initiative-sim/pkg/scoring"
	"github.com/shopspring/decimal"
)

func TestPresets(t *testing.T) {
	tests := []struct {
		preset      string
		initiatives int
		budget      float64
		target      float64
		mode        scoring.Mode
	}{
		{PresetEmissions, 7, 10, 50, scoring.ThresholdOnly},
		{PresetEmissionsEvents, 7, 10, 50, scoring.ThresholdOnly},
		{PresetIndustry40, 8, 15, 30, scoring.ThresholdOnly},
		{PresetKalundborg, 8, 50, 40, scoring.WeightedComposite},
		{PresetCooling, 8, 10, 30, scoring.WeightedComposite},
	}

	for _, tt := range tests {
		t.Run(tt.preset, func(t *testing.T) {
			s, err := Preset(tt.preset)
			if err != nil {
				t.Fatalf("Preset() error = %v", err)
			}
			if !s.Active || s.Preset != tt.preset {
				t.Errorf("preset should be active and tagged, got active=%v preset=%q", s.Active, s.Preset)
			}
			if len(s.Initiatives) != tt.initiatives {
				t.Errorf("initiatives = %d, want %d", len(s.Initiatives), tt.initiatives)
			}
			if s.InitialBudget != tt.budget {
				t.Errorf("budget = %v, want %v", s.InitialBudget, tt.budget)
			}
			target, err := s.OutcomeTarget()
			if err != nil {
				t.Fatalf("OutcomeTarget() error = %v", err)
			}
			if target.TargetAmount() != tt.target || target.Mode != tt.mode {
				t.Errorf("target = %v (%v), want %v (%v)", target.TargetAmount(), target.Mode, tt.target, tt.mode)
			}
		})
	}
}

func TestPresetIsolation(t *testing.T) {
	a, _ := Preset(PresetEmissions)
	a.Initiatives[0].Cost = 99
	b, _ := Preset(PresetEmissions)
	if b.Initiatives[0].Cost == 99 {
		t.Error("Preset must return a fresh copy each call")
	}
}

func TestPresetUnknown(t *testing.T) {
	if _, err := Preset("atlantis"); err == nil {
		t.Error("expected an error for an unknown preset")
	}
	if s, err := Preset(" Cooling "); err != nil || s.Preset != PresetCooling {
		t.Errorf("preset lookup should be case-insensitive, got %q, %v", s.Preset, err)
	}
}

func TestEmissionsEventsPreset(t *testing.T) {
	s, err := Preset(PresetEmissionsEvents)
	if err != nil {
		t.Fatalf("Preset() error = %v", err)
	}
	if s.Years != 7 || !s.RandomEvents || !s.HasEvents() {
		t.Errorf("expected 7 years with random events, got years=%d randomEvents=%v", s.Years, s.RandomEvents)
	}
	table, err := s.EventTable()
	if err != nil || table == nil || len(table.Events()) != 5 {
		t.Fatalf("EventTable() should return the stock table, got %v, %v", table, err)
	}

	plain, _ := Preset(PresetEmissions)
	if plain.HasEvents() || plain.Years != 5 {
		t.Errorf("plain emissions preset should stay event-free over 5 years, got %+v", plain)
	}

	conf := &Configuration{Scenarios: []Scenario{{Name: "Tuned", Active: true, Preset: PresetEmissionsEvents, Years: 6}}}
	if err := conf.ApplyPresets(); err != nil {
		t.Fatalf("ApplyPresets() error = %v", err)
	}
	if got := conf.Scenarios[0]; got.Years != 6 || !got.RandomEvents {
		t.Errorf("preset events should carry over, got years=%d randomEvents=%v", got.Years, got.RandomEvents)
	}
}

func TestKalundborgFlags(t *testing.T) {
	s, _ := Preset(PresetKalundborg)
	target, err := s.OutcomeTarget()
	if err != nil {
		t.Fatalf("OutcomeTarget() error = %v", err)
	}
	if len(target.Flags) != 2 {
		t.Fatalf("flags = %d, want 2", len(target.Flags))
	}
	if !target.BudgetFloor.Equal(decimal.NewFromInt(5)) {
		t.Errorf("budget floor = %s, want 5", target.BudgetFloor)
	}
	cat, err := s.Catalog()
	if err != nil {
		t.Fatalf("Catalog() error = %v", err)
	}
	for _, flag := range target.Flags {
		if !cat.Has(flag.Initiative) {
			t.Errorf("flag %q is not in the catalog", flag.Initiative)
		}
	}
}

func TestApplyPresetsOverrides(t *testing.T) {
	conf := &Configuration{Scenarios: []Scenario{
		{Name: "Tight", Active: true, Preset: PresetEmissions, InitialBudget: 3, Years: 2},
		{Name: "Plain", Active: true},
	}}
	if err := conf.ApplyPresets(); err != nil {
		t.Fatalf("ApplyPresets() error = %v", err)
	}
	tight := conf.Scenarios[0]
	if tight.InitialBudget != 3 || tight.Years != 2 {
		t.Errorf("explicit values should win, got budget %v years %d", tight.InitialBudget, tight.Years)
	}
	if len(tight.Initiatives) != 7 || tight.Target.Threshold != 50 {
		t.Errorf("unset values should come from the preset, got %d initiatives threshold %v",
			len(tight.Initiatives), tight.Target.Threshold)
	}
	if len(conf.Scenarios[1].Initiatives) != 0 {
		t.Error("scenarios without a preset must be left alone")
	}
	if len(PresetNames()) != 5 {
		t.Errorf("PresetNames() = %v", PresetNames())
	}
}
