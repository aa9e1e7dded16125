package config

import (
	"fmt"
	"sort"
	"strings"
)

const (
	PresetEmissions       = "emissions"
	PresetEmissionsEvents = "emissions-events"
	PresetIndustry40      = "industry40"
	PresetKalundborg      = "kalundborg"
	PresetCooling         = "cooling"

	metricCO2     = "CO2 Reduction"
	metricCooling = "Cooling Load Reduction"
	metricNoise   = "Noise Reduction"
)

func co2(amount float64) []Effect {
	return []Effect{{Metric: metricCO2, Amount: amount}}
}

func floatPtr(v float64) *float64 {
	return &v
}

func emissionsScenario() Scenario {
	return Scenario{
		Name:          "Emissions Reduction",
		Years:         5,
		InitialBudget: 10,
		Initiatives: []Initiative{
			{Name: "Solar Panels", Cost: 2, LeadYears: 2, Effects: co2(10)},
			{Name: "Heat Recovery System", Cost: 1.5, LeadYears: 3, Effects: co2(7)},
			{Name: "Green Hydrogen", Cost: 5, LeadYears: 4, Effects: co2(20)},
			{Name: "Recycled Materials", Cost: 1, LeadYears: 1, Effects: co2(8)},
			{Name: "Electrify Logistics Fleet", Cost: 3, LeadYears: 2, Effects: co2(12)},
			{Name: "IoT Energy Monitoring", Cost: 1, LeadYears: 1, Effects: co2(5)},
			{Name: "Staff Green Training", Cost: 0.5, LeadYears: 1, Effects: co2(3)},
		},
		Target: TargetConfig{Metric: metricCO2, Baseline: 100, Threshold: 50},
	}
}

var presets = map[string]func() Scenario{
	PresetEmissions: emissionsScenario,
	// Seven years with the stock random events drawn every turn.
	PresetEmissionsEvents: func() Scenario {
		s := emissionsScenario()
		s.Name = "Emissions Reduction with Events"
		s.Years = 7
		s.RandomEvents = true
		return s
	},
	PresetIndustry40: func() Scenario {
		return Scenario{
			Name:          "Industry 4.0 Green Supply Chain",
			Years:         5,
			InitialBudget: 15,
			Initiatives: []Initiative{
				{Name: "IoT-Enabled Smart Manufacturing", Cost: 3, LeadYears: 3, Effects: co2(12)},
				{Name: "AI-Optimized Logistics Routes", Cost: 2, LeadYears: 2, Effects: co2(10)},
				{Name: "Fleet Electrification", Cost: 5, LeadYears: 4, Effects: co2(15)},
				{Name: "Public Awareness & Green Branding", Cost: 1, LeadYears: 1, Effects: co2(5)},
				{Name: "Green Procurement (Sustainable Suppliers)", Cost: 2, LeadYears: 2, Effects: co2(8)},
				{Name: "Automated Sorting & Recycling System", Cost: 4, LeadYears: 3, Effects: co2(15)},
				{Name: "Reverse Logistics for Parts Recovery", Cost: 2.5, LeadYears: 3, Effects: co2(10)},
				{Name: "Hydrogen-Powered Equipment", Cost: 6, LeadYears: 5, Effects: co2(20)},
			},
			Target: TargetConfig{Metric: metricCO2, Baseline: 100, Threshold: 30},
		}
	},
	PresetKalundborg: func() Scenario {
		return Scenario{
			Name:          "Kalundborg Eco-Industrial Park",
			Years:         5,
			InitialBudget: 50,
			Initiatives: []Initiative{
				{Name: "Waste Heat Exchange System", Cost: 10, LeadYears: 2, Effects: co2(10)},
				{Name: "Water Recycling Infrastructure", Cost: 12, LeadYears: 3, Effects: co2(15)},
				{Name: "Biomass Energy Integration", Cost: 15, LeadYears: 3, Effects: co2(12)},
				{Name: "Carbon Capture & Storage (CCS)", Cost: 18, LeadYears: 5, Effects: co2(20)},
				{Name: "By-Product Sharing (Gypsum, Sulfur, Sludge)", Cost: 7, LeadYears: 2, Effects: co2(8)},
				{Name: "AI-Optimized Resource Allocation", Cost: 5, LeadYears: 1, Effects: co2(5)},
				{Name: "New Industry Partner Expansion", Cost: 20, LeadYears: 4, Effects: co2(0)},
				{Name: "Public Awareness & ESG Branding", Cost: 3, LeadYears: 1, Effects: co2(0)},
			},
			Target: TargetConfig{
				Metric:       metricCO2,
				Baseline:     100,
				Threshold:    40,
				Mode:         "weighted",
				BudgetFloor:  5,
				MetricWeight: floatPtr(30),
				BudgetWeight: floatPtr(10),
				Flags: []FlagConfig{
					{Initiative: "Public Awareness & ESG Branding", Bonus: floatPtr(15), Baseline: floatPtr(5)},
					{Initiative: "New Industry Partner Expansion", Bonus: floatPtr(15), Baseline: floatPtr(5)},
				},
			},
		}
	},
	PresetCooling: func() Scenario {
		return Scenario{
			Name:          "Green Building Cooling",
			Years:         5,
			InitialBudget: 10,
			Initiatives: []Initiative{
				{Name: "25% RWP + PCM Walls", Cost: 2, LeadYears: 1, Effects: []Effect{{Metric: metricCooling, Amount: 5}}},
				{Name: "50% RWP + PCM Walls", Cost: 3.5, LeadYears: 2, Effects: []Effect{{Metric: metricCooling, Amount: 10}}},
				{Name: "75% RWP + PCM Walls", Cost: 5, LeadYears: 3, Effects: []Effect{{Metric: metricCooling, Amount: 15}}},
				{Name: "PCM Integrated Roof Coating", Cost: 2, LeadYears: 2, Effects: []Effect{{Metric: metricCooling, Amount: 7}}},
				{Name: "IoT-Based Energy Monitoring", Cost: 1.5, LeadYears: 1, Effects: []Effect{{Metric: metricCooling, Amount: 5}}},
				{Name: "Advanced Acoustic Panels", Cost: 1, LeadYears: 1, Effects: []Effect{{Metric: metricNoise, Amount: 7}}},
				{Name: "Hybrid Ventilation System", Cost: 3, LeadYears: 2, Effects: []Effect{{Metric: metricCooling, Amount: 6}}},
				{Name: "Automated Insulation Adjustments", Cost: 2.5, LeadYears: 1, Effects: []Effect{{Metric: metricCooling, Amount: 4}}},
			},
			Target: TargetConfig{
				Metric:       metricCooling,
				Baseline:     100,
				Threshold:    30,
				Mode:         "weighted",
				MetricWeight: floatPtr(30),
				BudgetWeight: floatPtr(10),
			},
		}
	},
}

// PresetNames lists the built-in scenarios in sorted order.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Preset returns a fresh copy of the named built-in scenario, active and with
// defaults applied.
func Preset(name string) (Scenario, error) {
	build, ok := presets[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Scenario{}, fmt.Errorf("unknown preset %q, available: %s", name, strings.Join(PresetNames(), ", "))
	}
	scenario := build()
	scenario.Preset = strings.ToLower(strings.TrimSpace(name))
	scenario.Active = true
	scenario.applyDefaults()
	return scenario, nil
}

// PresetConfiguration returns a configuration holding every built-in scenario.
func PresetConfiguration() *Configuration {
	conf := &Configuration{}
	for _, name := range PresetNames() {
		scenario, _ := Preset(name)
		conf.Scenarios = append(conf.Scenarios, scenario)
	}
	return conf
}

// ApplyPresets fills every scenario that names a preset with the preset's
// values wherever the scenario leaves a field unset.
func (c *Configuration) ApplyPresets() error {
	for i := range c.Scenarios {
		if c.Scenarios[i].Preset == "" {
			continue
		}
		base, err := Preset(c.Scenarios[i].Preset)
		if err != nil {
			return fmt.Errorf("scenario %q: %w", c.Scenarios[i].Name, err)
		}
		c.Scenarios[i].mergeFrom(base)
	}
	return nil
}

func (s *Scenario) mergeFrom(base Scenario) {
	if s.Name == "" {
		s.Name = base.Name
	}
	if s.Years == 0 {
		s.Years = base.Years
	}
	if s.InitialBudget == 0 {
		s.InitialBudget = base.InitialBudget
	}
	if s.MaxPerTurn == 0 {
		s.MaxPerTurn = base.MaxPerTurn
	}
	if s.SelectionPolicy == "" {
		s.SelectionPolicy = base.SelectionPolicy
	}
	if s.EffectTiming == "" {
		s.EffectTiming = base.EffectTiming
	}
	if len(s.Initiatives) == 0 {
		s.Initiatives = base.Initiatives
	}
	if s.Target.Metric == "" {
		s.Target = base.Target
	}
	if len(s.Events) == 0 {
		s.Events = base.Events
	}
	s.RandomEvents = s.RandomEvents || base.RandomEvents
}
