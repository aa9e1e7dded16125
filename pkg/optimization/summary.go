// Package optimization provides shared data structures for planner results.
package optimization

import "github.com/shopspring/decimal"

// Step is one planned year.
type Step struct {
	Year   int      `json:"year"`
	Select []string `json:"select"`
}

// Summary captures the plan proposed for a single scenario and how it scores
// when replayed without random events.
type Summary struct {
	Scenario        string          `json:"scenario"`
	Metric          string          `json:"metric"`
	Target          float64         `json:"target"`
	Achieved        float64         `json:"achieved"`
	Cost            decimal.Decimal `json:"cost"`
	RemainingBudget decimal.Decimal `json:"remainingBudget"`
	Reached         bool            `json:"reached"`
	Score           float64         `json:"score,omitempty"`
	Verdict         string          `json:"verdict,omitempty"`
	Steps           []Step          `json:"steps"`
	Notes           []string        `json:"notes,omitempty"`
}

// Turns returns the number of planned years.
func (s Summary) Turns() int {
	return len(s.Steps)
}

// Initiatives returns every planned initiative in plan order.
func (s Summary) Initiatives() []string {
	var names []string
	for _, step := range s.Steps {
		names = append(names, step.Select...)
	}
	return names
}
