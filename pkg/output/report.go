package output

import (
	"github.com/iwvelando/initiative-sim/internal/game"
	"github.com/shopspring/decimal"
)

// TurnRow is one applied turn as it appears in reports.
type TurnRow struct {
	Year            int                `json:"year"`
	Chosen          []string           `json:"chosen"`
	Event           string             `json:"event,omitempty"`
	TurnCost        decimal.Decimal    `json:"turnCost"`
	RemainingBudget decimal.Decimal    `json:"remainingBudget"`
	MetricDeltas    map[string]float64 `json:"metricDeltas"`
	Realized        map[string]float64 `json:"realized"`
	Cumulative      float64            `json:"cumulative"`
	Remaining       float64            `json:"remaining"`
}

// SubScoreRow is one component of a weighted score.
type SubScoreRow struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
	Max   float64 `json:"max"`
}

// OutcomeView is the scored verdict of a run.
type OutcomeView struct {
	Mode            string          `json:"mode"`
	Metric          string          `json:"metric"`
	Baseline        float64         `json:"baseline"`
	Target          float64         `json:"target"`
	TargetLevel     float64         `json:"targetLevel"`
	Achieved        float64         `json:"achieved"`
	Success         bool            `json:"success"`
	FailureReason   string          `json:"failureReason,omitempty"`
	Score           *float64        `json:"score,omitempty"`
	Verdict         string          `json:"verdict,omitempty"`
	SubScores       []SubScoreRow   `json:"subScores,omitempty"`
	RemainingBudget decimal.Decimal `json:"remainingBudget"`
}

// RejectionRow is one refused selection.
type RejectionRow struct {
	Year      int      `json:"year"`
	Attempt   int      `json:"attempt"`
	Selection []string `json:"selection"`
	Kind      string   `json:"kind"`
	Message   string   `json:"message"`
}

// Report is the serializable view of one playthrough.
type Report struct {
	Scenario      string             `json:"scenario"`
	RunID         string             `json:"runId"`
	Seed          int64              `json:"seed"`
	InitialBudget decimal.Decimal    `json:"initialBudget"`
	Metrics       []string           `json:"metrics"`
	Cumulative    map[string]float64 `json:"cumulative"`
	Turns         []TurnRow          `json:"turns"`
	Outcome       OutcomeView        `json:"outcome"`
	Rejections    []RejectionRow     `json:"rejections,omitempty"`
	Stopped       bool               `json:"stopped,omitempty"`
}

// NewReport flattens a playthrough for display or serialization.
func NewReport(result game.Result) Report {
	report := Report{
		Scenario:      result.Name,
		RunID:         result.RunID,
		Seed:          result.Seed,
		InitialBudget: result.InitialBudget,
		Metrics:       result.Metrics,
		Cumulative:    map[string]float64{},
		Turns:         make([]TurnRow, 0, len(result.History)),
		Stopped:       result.Stopped,
	}
	if result.State != nil {
		for metric, value := range result.State.Cumulative {
			report.Cumulative[metric] = value
		}
	}

	for i, rec := range result.History {
		row := TurnRow{
			Year:            rec.Year,
			Chosen:          rec.Chosen,
			Event:           rec.Event,
			TurnCost:        rec.TurnCost,
			RemainingBudget: rec.RemainingBudgetAfter,
			MetricDeltas:    rec.MetricDeltas,
			Realized:        rec.Realized,
		}
		if i < len(result.Series) {
			row.Cumulative = result.Series[i].Cumulative
			row.Remaining = result.Series[i].Remaining
		}
		report.Turns = append(report.Turns, row)
	}

	outcome := result.Outcome
	report.Outcome = OutcomeView{
		Mode:            outcome.Mode.String(),
		Metric:          outcome.Metric,
		Baseline:        result.Target.Baseline,
		Target:          outcome.Target,
		TargetLevel:     result.Target.TargetLevel(),
		Achieved:        outcome.Achieved,
		Success:         outcome.Success,
		FailureReason:   string(outcome.FailureReason),
		Verdict:         string(outcome.Verdict),
		RemainingBudget: outcome.RemainingBudget,
	}
	if len(outcome.SubScores) > 0 {
		score := outcome.Score
		report.Outcome.Score = &score
		for _, sub := range outcome.SubScores {
			report.Outcome.SubScores = append(report.Outcome.SubScores, SubScoreRow{Name: sub.Name, Value: sub.Value, Max: sub.Max})
		}
	}

	for _, r := range result.Rejections {
		report.Rejections = append(report.Rejections, RejectionRow{
			Year:      r.Year,
			Attempt:   r.Attempt,
			Selection: r.Selection,
			Kind:      r.Kind,
			Message:   r.Message,
		})
	}

	return report
}

// NewReports converts every result, preserving order.
func NewReports(results []game.Result) []Report {
	reports := make([]Report, 0, len(results))
	for _, result := range results {
		reports = append(reports, NewReport(result))
	}
	return reports
}
