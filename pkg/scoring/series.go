package scoring

import (
	"github.com/iwvelando/initiative-sim/pkg/engine"
	"github.com/shopspring/decimal"
)

// Point is one recorded year of the remaining-metric series.
type Point struct {
	Year            int
	Cumulative      float64
	Remaining       float64
	RemainingBudget decimal.Decimal
}

// RemainingSeries returns baseline minus the cumulative reduction of metric at
// every recorded year, in history order. Effects settled in years without a
// turn are part of the next recorded point.
func RemainingSeries(state *engine.RunState, baseline float64, metric string) []Point {
	points := make([]Point, 0, len(state.History))
	for _, rec := range state.History {
		cumulative := rec.CumulativeAfter[metric]
		points = append(points, Point{
			Year:            rec.Year,
			Cumulative:      cumulative,
			Remaining:       baseline - cumulative,
			RemainingBudget: rec.RemainingBudgetAfter,
		})
	}
	return points
}
