package testutil

import (
	"reflect"
	"testing"

	"github.com/iwvelando/initiative-sim/internal/game"
)

func TestFindScenario(t *testing.T) {
	results := []game.Result{
		{Name: "Scenario A", Seed: 1},
		{Name: "Scenario B", Seed: 2},
		{Name: "Another Scenario", Seed: 3},
	}

	tests := []struct {
		name        string
		searchName  string
		expectFound bool
		expectSeed  int64
	}{
		{name: "Find existing scenario A", searchName: "Scenario A", expectFound: true, expectSeed: 1},
		{name: "Find existing scenario B", searchName: "Scenario B", expectFound: true, expectSeed: 2},
		{name: "Find scenario with longer name", searchName: "Another Scenario", expectFound: true, expectSeed: 3},
		{name: "Search for non-existent scenario", searchName: "Non-existent", expectFound: false},
		{name: "Empty search name", searchName: "", expectFound: false},
		{name: "Case sensitive search", searchName: "scenario a", expectFound: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := FindScenario(results, tt.searchName)

			if tt.expectFound {
				if result == nil {
					t.Fatalf("FindScenario() expected to find scenario '%s' but got nil", tt.searchName)
				}
				if result.Name != tt.searchName || result.Seed != tt.expectSeed {
					t.Errorf("FindScenario() returned %s (seed %d), expected %s (seed %d)",
						result.Name, result.Seed, tt.searchName, tt.expectSeed)
				}
			} else if result != nil {
				t.Errorf("FindScenario() expected nil for scenario '%s' but got result with name '%s'",
					tt.searchName, result.Name)
			}
		})
	}
}

func TestFindScenarioNilResults(t *testing.T) {
	if result := FindScenario(nil, "Any Scenario"); result != nil {
		t.Errorf("FindScenario() with nil results should return nil, got %v", result)
	}
}

func TestFindScenarioReturnsPointer(t *testing.T) {
	results := []game.Result{{Name: "Duplicate", Seed: 1}, {Name: "Duplicate", Seed: 2}}

	found := FindScenario(results, "Duplicate")
	if found != &results[0] {
		t.Fatalf("FindScenario() should return a pointer to the first matching element")
	}
	found.Stopped = true
	if !results[0].Stopped {
		t.Errorf("Modifying through returned pointer should modify original")
	}
}

func TestRejected(t *testing.T) {
	result := &game.Result{Rejections: []game.Rejection{
		{Year: 1, Attempt: 1, Kind: "UnknownInitiative"},
		{Year: 2, Attempt: 1, Kind: "EmptySelection"},
		{Year: 1, Attempt: 2, Kind: "InsufficientBudget"},
	}}

	if got := Rejected(result, 1); !reflect.DeepEqual(got, []string{"UnknownInitiative", "InsufficientBudget"}) {
		t.Errorf("Rejected(year 1) = %v", got)
	}
	if got := Rejected(result, 3); got != nil {
		t.Errorf("Rejected(year 3) = %v, want nil", got)
	}
	if got := Rejected(nil, 1); got != nil {
		t.Errorf("Rejected(nil) = %v, want nil", got)
	}
}
