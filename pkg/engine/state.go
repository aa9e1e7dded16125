package engine

import (
	"sort"

	"github.com/shopspring/decimal"
)

// TurnRecord is the immutable log entry for one successfully applied turn.
type TurnRecord struct {
	Year                 int
	Chosen               []string
	TurnCost             decimal.Decimal
	MetricDeltas         map[string]float64 // committed this turn
	Realized             map[string]float64 // landed in cumulative this turn
	CumulativeAfter      map[string]float64 // every metric's cumulative once the turn landed
	RemainingBudgetAfter decimal.Decimal
	Event                string
}

// PendingEffect is a share of an initiative's deltas scheduled for a future year.
type PendingEffect struct {
	Year       int
	Initiative string
	Deltas     map[string]float64
}

// RunState is the mutable state of one playthrough. It changes only through
// Simulator.ApplyTurn and Simulator.Settle.
type RunState struct {
	InitialBudget   decimal.Decimal
	RemainingBudget decimal.Decimal
	Cumulative      map[string]float64
	History         []TurnRecord
	Pending         []PendingEffect
}

// NewRunState returns a fresh state: full budget, zero metrics, empty history.
func NewRunState(initialBudget decimal.Decimal) *RunState {
	return &RunState{
		InitialBudget:   initialBudget,
		RemainingBudget: initialBudget,
		Cumulative:      make(map[string]float64),
	}
}

// CumulativeFor returns the running total for metric, zero when unseen.
func (s *RunState) CumulativeFor(metric string) float64 {
	return s.Cumulative[metric]
}

// LastYear returns the year of the latest record, or 0 for an empty history.
func (s *RunState) LastYear() int {
	if len(s.History) == 0 {
		return 0
	}
	return s.History[len(s.History)-1].Year
}

// Spent returns the budget consumed so far.
func (s *RunState) Spent() decimal.Decimal {
	return s.InitialBudget.Sub(s.RemainingBudget)
}

// Chose reports whether initiative appears anywhere in the history.
func (s *RunState) Chose(initiative string) bool {
	for _, rec := range s.History {
		for _, name := range rec.Chosen {
			if name == initiative {
				return true
			}
		}
	}
	return false
}

// PendingTotal sums the not-yet-realised deltas per metric.
func (s *RunState) PendingTotal() map[string]float64 {
	total := make(map[string]float64)
	for _, p := range s.Pending {
		for metric, amount := range p.Deltas {
			total[metric] += amount
		}
	}
	return total
}

// Clone returns a deep copy of the state.
func (s *RunState) Clone() *RunState {
	out := &RunState{
		InitialBudget:   s.InitialBudget,
		RemainingBudget: s.RemainingBudget,
		Cumulative:      copyDeltas(s.Cumulative),
	}
	if s.History != nil {
		out.History = make([]TurnRecord, len(s.History))
		for i, rec := range s.History {
			out.History[i] = rec.clone()
		}
	}
	if s.Pending != nil {
		out.Pending = make([]PendingEffect, len(s.Pending))
		for i, p := range s.Pending {
			out.Pending[i] = PendingEffect{Year: p.Year, Initiative: p.Initiative, Deltas: copyDeltas(p.Deltas)}
		}
	}
	return out
}

func (r TurnRecord) clone() TurnRecord {
	r.Chosen = append([]string(nil), r.Chosen...)
	r.MetricDeltas = copyDeltas(r.MetricDeltas)
	r.Realized = copyDeltas(r.Realized)
	r.CumulativeAfter = copyDeltas(r.CumulativeAfter)
	return r
}

func copyDeltas(in map[string]float64) map[string]float64 {
	if in == nil {
		return nil
	}
	out := make(map[string]float64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// schedule inserts effects keeping Pending ordered by year, stable for equal years.
func (s *RunState) schedule(effects ...PendingEffect) {
	s.Pending = append(s.Pending, effects...)
	sort.SliceStable(s.Pending, func(i, j int) bool {
		return s.Pending[i].Year < s.Pending[j].Year
	})
}

// mature removes and sums every pending effect due at or before year.
func (s *RunState) mature(year int) map[string]float64 {
	due := make(map[string]float64)
	n := 0
	for n < len(s.Pending) && s.Pending[n].Year <= year {
		for metric, amount := range s.Pending[n].Deltas {
			due[metric] += amount
		}
		n++
	}
	if n > 0 {
		s.Pending = append([]PendingEffect(nil), s.Pending[n:]...)
		if len(s.Pending) == 0 {
			s.Pending = nil
		}
	}
	return due
}
