// Package events provides the random yearly events that can modify the cost
// and effect of a turn's selections.
package events

import (
	"fmt"
	"math/rand"

	"github.com/shopspring/decimal"
)

// TurnEffect is the aggregate cost and metric effect of one turn's selections.
type TurnEffect struct {
	Cost   decimal.Decimal
	Deltas map[string]float64
}

// Modifier transforms a turn's effect. It must not mutate its input.
type Modifier func(TurnEffect) TurnEffect

// Event is a named random occurrence with a selection weight and the factors
// it applies to a turn's cost and metric deltas.
type Event struct {
	Name         string
	Description  string
	Weight       float64
	CostFactor   float64
	EffectFactor float64
}

// Modifier returns the transformation this event applies. Factors are used
// as given: 1 leaves an axis alone, 0 zeroes it.
func (e Event) Modifier() Modifier {
	costFactor := e.CostFactor
	effectFactor := e.EffectFactor

	return func(in TurnEffect) TurnEffect {
		out := TurnEffect{
			Cost:   in.Cost.Mul(decimal.NewFromFloat(costFactor)),
			Deltas: make(map[string]float64, len(in.Deltas)),
		}
		for metric, amount := range in.Deltas {
			out.Deltas[metric] = amount * effectFactor
		}
		return out
	}
}

// Table is a weighted list of events.
type Table struct {
	events []Event
	total  float64
}

// NewTable validates events and builds a Table. Weights must be non-negative
// and at least one must be positive; factors must be non-negative.
func NewTable(events ...Event) (*Table, error) {
	if len(events) == 0 {
		return nil, fmt.Errorf("event table cannot be empty")
	}

	t := &Table{events: make([]Event, 0, len(events))}
	for _, event := range events {
		if event.Name == "" {
			return nil, fmt.Errorf("event name cannot be empty")
		}
		if event.Weight < 0 {
			return nil, fmt.Errorf("event %q: weight must be non-negative, got %v", event.Name, event.Weight)
		}
		if event.CostFactor < 0 || event.EffectFactor < 0 {
			return nil, fmt.Errorf("event %q: factors must be non-negative", event.Name)
		}
		t.events = append(t.events, event)
		t.total += event.Weight
	}
	if t.total <= 0 {
		return nil, fmt.Errorf("event table needs at least one positive weight")
	}

	return t, nil
}

// Events returns a copy of the table's events in declaration order.
func (t *Table) Events() []Event {
	return append([]Event(nil), t.events...)
}

// Draw picks one event with probability proportional to its weight. The
// result is fully determined by r's state.
func (t *Table) Draw(r *rand.Rand) Event {
	pick := r.Float64() * t.total
	for _, event := range t.events {
		if event.Weight <= 0 {
			continue
		}
		if pick < event.Weight {
			return event
		}
		pick -= event.Weight
	}
	// Float rounding can leave pick marginally above the last bucket.
	for i := len(t.events) - 1; i >= 0; i-- {
		if t.events[i].Weight > 0 {
			return t.events[i]
		}
	}
	return t.events[len(t.events)-1]
}

// DefaultEvents returns the stock yearly events, each equally likely.
func DefaultEvents() []Event {
	return []Event{
		{Name: "Carbon Tax Increase", Description: "Costs go up by 10%", Weight: 1, CostFactor: 1.1, EffectFactor: 1},
		{Name: "Supply Chain Disruption", Description: "Implementation of initiatives is delayed", Weight: 1, CostFactor: 1, EffectFactor: 0.8},
		{Name: "New Green Tech Available", Description: "Unlocks additional reduction", Weight: 1, CostFactor: 1, EffectFactor: 1.1},
		{Name: "Regulatory Incentive", Description: "Reduce costs by 10%", Weight: 1, CostFactor: 0.9, EffectFactor: 1},
		{Name: "Extreme Weather Event", Description: "Lose some progress on reduction", Weight: 1, CostFactor: 1, EffectFactor: 0.8},
	}
}

// DefaultTable builds a Table from DefaultEvents.
func DefaultTable() *Table {
	t, err := NewTable(DefaultEvents()...)
	if err != nil {
		panic(err)
	}
	return t
}
