// Package testutil provides common utility functions for testing.
package testutil

import (
	"github.com/iwvelando/initiative-sim/internal/game"
)

// FindScenario finds a playthrough by scenario name in the results slice.
// Returns a pointer to the result if found, nil otherwise.
func FindScenario(results []game.Result, name string) *game.Result {
	for i := range results {
		if results[i].Name == name {
			return &results[i]
		}
	}
	return nil
}

// Rejected returns the rejection kinds recorded for year, in attempt order.
func Rejected(result *game.Result, year int) []string {
	if result == nil {
		return nil
	}
	var kinds []string
	for _, r := range result.Rejections {
		if r.Year == year {
			kinds = append(kinds, r.Kind)
		}
	}
	return kinds
}
