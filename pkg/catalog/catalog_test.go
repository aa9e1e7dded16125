package catalog

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func testDefs() []InitiativeDef {
	return []InitiativeDef{
		{Name: "Solar Panels", MetricDeltas: map[string]float64{"CO2Reduction": 10}, Cost: decimal.NewFromInt(2), LeadYears: 2},
		{Name: "Heat Recovery System", MetricDeltas: map[string]float64{"CO2Reduction": 7}, Cost: decimal.RequireFromString("1.5"), LeadYears: 3},
		{Name: "Advanced Acoustic Panels", MetricDeltas: map[string]float64{"NoiseReduction": 7}, Cost: decimal.NewFromInt(1), LeadYears: 1},
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name      string
		defs      []InitiativeDef
		wantError string
	}{
		{
			name: "Valid catalog",
			defs: testDefs(),
		},
		{
			name: "Duplicate name",
			defs: []InitiativeDef{
				{Name: "A", Cost: decimal.NewFromInt(1), LeadYears: 1},
				{Name: "A", Cost: decimal.NewFromInt(2), LeadYears: 1},
			},
			wantError: "duplicate name",
		},
		{
			name:      "Empty name",
			defs:      []InitiativeDef{{Name: "  ", Cost: decimal.NewFromInt(1), LeadYears: 1}},
			wantError: "name cannot be empty",
		},
		{
			name:      "Negative cost",
			defs:      []InitiativeDef{{Name: "A", Cost: decimal.NewFromInt(-1), LeadYears: 1}},
			wantError: "cost must be non-negative",
		},
		{
			name:      "Negative delta",
			defs:      []InitiativeDef{{Name: "A", MetricDeltas: map[string]float64{"CO2Reduction": -3}, Cost: decimal.NewFromInt(1), LeadYears: 1}},
			wantError: "must be non-negative",
		},
		{
			name:      "Zero lead years",
			defs:      []InitiativeDef{{Name: "A", Cost: decimal.NewFromInt(1), LeadYears: 0}},
			wantError: "lead years must be positive",
		},
		{
			name: "Empty catalog",
			defs: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(tt.defs...)
			if tt.wantError != "" {
				if err == nil {
					t.Fatalf("New() expected error containing %q but got none", tt.wantError)
				}
				if !strings.Contains(err.Error(), tt.wantError) {
					t.Errorf("New() error = %v, expected to contain %q", err, tt.wantError)
				}
				return
			}
			if err != nil {
				t.Fatalf("New() unexpected error = %v", err)
			}
			if c.Len() != len(tt.defs) {
				t.Errorf("Len() = %d, expected %d", c.Len(), len(tt.defs))
			}
		})
	}
}

func TestNamesKeepsDeclarationOrder(t *testing.T) {
	c := MustNew(testDefs()...)

	expected := []string{"Solar Panels", "Heat Recovery System", "Advanced Acoustic Panels"}
	if got := c.Names(); !reflect.DeepEqual(got, expected) {
		t.Errorf("Names() = %v, expected %v", got, expected)
	}

	// Mutating the returned slice must not affect the catalog.
	names := c.Names()
	names[0] = "Changed"
	if c.Names()[0] != "Solar Panels" {
		t.Errorf("Names() exposed internal state")
	}
}

func TestMetrics(t *testing.T) {
	c := MustNew(testDefs()...)
	expected := []string{"CO2Reduction", "NoiseReduction"}
	if got := c.Metrics(); !reflect.DeepEqual(got, expected) {
		t.Errorf("Metrics() = %v, expected %v", got, expected)
	}
}

func TestGet(t *testing.T) {
	c := MustNew(testDefs()...)

	def, err := c.Get("Heat Recovery System")
	if err != nil {
		t.Fatalf("Get() unexpected error = %v", err)
	}
	if !def.Cost.Equal(decimal.RequireFromString("1.5")) {
		t.Errorf("Cost = %s, expected 1.5", def.Cost)
	}
	if def.MetricDeltas["CO2Reduction"] != 7 {
		t.Errorf("CO2Reduction = %v, expected 7", def.MetricDeltas["CO2Reduction"])
	}

	// The returned deltas are a copy.
	def.MetricDeltas["CO2Reduction"] = 99
	again, _ := c.Get("Heat Recovery System")
	if again.MetricDeltas["CO2Reduction"] != 7 {
		t.Errorf("Get() exposed internal deltas map")
	}
}

func TestGetIgnoresSurroundingWhitespace(t *testing.T) {
	c := MustNew(InitiativeDef{Name: "  Solar Panels ", MetricDeltas: map[string]float64{"CO2Reduction": 10}, Cost: decimal.NewFromInt(2), LeadYears: 1})

	for _, name := range []string{"Solar Panels", " Solar Panels", "Solar Panels\t", "  Solar Panels "} {
		def, err := c.Get(name)
		if err != nil {
			t.Errorf("Get(%q) unexpected error = %v", name, err)
			continue
		}
		if def.Name != "Solar Panels" {
			t.Errorf("Get(%q).Name = %q, expected the trimmed name", name, def.Name)
		}
		if !c.Has(name) {
			t.Errorf("Has(%q) = false", name)
		}
	}
}

func TestGetUnknown(t *testing.T) {
	c := MustNew(testDefs()...)

	_, err := c.Get("Solar Panel")
	if !errors.Is(err, ErrUnknownInitiative) {
		t.Fatalf("Get() error = %v, expected ErrUnknownInitiative", err)
	}
	if !strings.Contains(err.Error(), `did you mean "Solar Panels"`) {
		t.Errorf("Get() error = %v, expected a suggestion", err)
	}

	_, err = c.Get("Nuclear Fusion")
	if !errors.Is(err, ErrUnknownInitiative) {
		t.Fatalf("Get() error = %v, expected ErrUnknownInitiative", err)
	}
	if strings.Contains(err.Error(), "did you mean") {
		t.Errorf("Get() error = %v, expected no suggestion", err)
	}
}

func TestSuggest(t *testing.T) {
	c := MustNew(testDefs()...)

	tests := []struct {
		query    string
		expected []string
	}{
		{"solar panels", []string{"Solar Panels"}},
		{"Heat Recovry System", []string{"Heat Recovery System"}},
		{"advanced", []string{"Advanced Acoustic Panels"}},
		{"", nil},
		{"xyz", nil},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			if got := c.Suggest(tt.query); !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Suggest(%q) = %v, expected %v", tt.query, got, tt.expected)
			}
		})
	}
}
