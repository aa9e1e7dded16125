// Package scoring derives the end-of-run verdict and the plotted metric series
// from a run's state.
package scoring

import (
	"fmt"
	"sort"
	"strings"

	"github.com/iwvelando/initiative-sim/pkg/constants"
	"github.com/iwvelando/initiative-sim/pkg/engine"
	"github.com/iwvelando/initiative-sim/pkg/mathutil"
	"github.com/shopspring/decimal"
)

// Mode selects how an outcome is computed.
type Mode int

const (
	ThresholdOnly Mode = iota
	WeightedComposite
)

func (m Mode) String() string {
	switch m {
	case WeightedComposite:
		return constants.ScoringModeWeighted
	default:
		return constants.ScoringModeThreshold
	}
}

// ParseMode maps a configuration string onto a Mode. Empty means ThresholdOnly.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", constants.ScoringModeThreshold, "thresholdonly":
		return ThresholdOnly, nil
	case constants.ScoringModeWeighted, "weightedcomposite":
		return WeightedComposite, nil
	default:
		return ThresholdOnly, fmt.Errorf("unknown scoring mode %q", s)
	}
}

// FailureReason explains an unsuccessful outcome.
type FailureReason string

const (
	ReasonNone           FailureReason = ""
	ReasonBudgetDepleted FailureReason = "BudgetDepleted"
	ReasonTurnsExhausted FailureReason = "TurnsExhausted"
	ReasonInProgress     FailureReason = "InProgress"
)

// Verdict is the bucketed result of a weighted score.
type Verdict string

const (
	VerdictSuccess Verdict = "success"
	VerdictPartial Verdict = "partial"
	VerdictFailure Verdict = "failure"
)

// FlagBonus awards Bonus when Initiative appears anywhere in the history and
// Baseline otherwise.
type FlagBonus struct {
	Initiative string
	Bonus      float64
	Baseline   float64
}

// Bucket maps scores at or above MinScore to Verdict.
type Bucket struct {
	MinScore float64
	Verdict  Verdict
}

// DefaultBuckets returns the stock >=80 success, >=50 partial buckets.
func DefaultBuckets() []Bucket {
	return []Bucket{
		{MinScore: constants.DefaultSuccessScore, Verdict: VerdictSuccess},
		{MinScore: constants.DefaultPartialScore, Verdict: VerdictPartial},
	}
}

// OutcomeTarget configures how a run is judged.
type OutcomeTarget struct {
	Metric            string
	Baseline          float64
	ThresholdAbsolute float64
	ThresholdFraction float64
	Mode              Mode

	// Weighted composite settings.
	BudgetFloor  decimal.Decimal
	MetricWeight float64
	BudgetWeight float64
	Flags        []FlagBonus
	Buckets      []Bucket

	// Years is the scenario length; when positive, a run whose last recorded
	// year reaches it without success reports TurnsExhausted.
	Years int
}

// TargetAmount returns the reduction needed: the absolute threshold when set,
// otherwise the fraction of the baseline.
func (t OutcomeTarget) TargetAmount() float64 {
	if t.ThresholdAbsolute > 0 {
		return t.ThresholdAbsolute
	}
	return t.ThresholdFraction * t.Baseline
}

// TargetLevel returns the metric level that marks the goal on a chart.
func (t OutcomeTarget) TargetLevel() float64 {
	return t.Baseline - t.TargetAmount()
}

// Validate reports configuration errors that would make scoring meaningless.
func (t OutcomeTarget) Validate() error {
	if t.Metric == "" {
		return fmt.Errorf("target metric cannot be empty")
	}
	if t.ThresholdAbsolute < 0 || t.ThresholdFraction < 0 {
		return fmt.Errorf("target thresholds must be non-negative")
	}
	if t.ThresholdAbsolute > 0 && t.ThresholdFraction > 0 {
		return fmt.Errorf("set either an absolute threshold or a fraction of baseline, not both")
	}
	if t.TargetAmount() <= 0 {
		return fmt.Errorf("target amount must be positive")
	}
	if t.Mode == WeightedComposite {
		if t.MetricWeight < 0 || t.BudgetWeight < 0 {
			return fmt.Errorf("weights must be non-negative")
		}
		for _, flag := range t.Flags {
			if flag.Initiative == "" {
				return fmt.Errorf("flag bonus needs an initiative name")
			}
			if flag.Bonus < 0 || flag.Baseline < 0 {
				return fmt.Errorf("flag bonus for %q must be non-negative", flag.Initiative)
			}
		}
	}
	return nil
}

// SubScore is one weighted component of a composite score.
type SubScore struct {
	Name  string
	Value float64
	Max   float64
}

// Outcome is the verdict for a run at the moment it was computed.
type Outcome struct {
	Mode            Mode
	Metric          string
	Achieved        float64
	Target          float64
	Success         bool
	FailureReason   FailureReason
	Score           float64
	SubScores       []SubScore
	Verdict         Verdict
	RemainingBudget decimal.Decimal
}

// ComputeOutcome judges state against target. It is pure and deterministic.
func ComputeOutcome(state *engine.RunState, target OutcomeTarget) Outcome {
	out := Outcome{
		Mode:            target.Mode,
		Metric:          target.Metric,
		Achieved:        state.CumulativeFor(target.Metric),
		Target:          target.TargetAmount(),
		RemainingBudget: state.RemainingBudget,
	}

	switch target.Mode {
	case WeightedComposite:
		out.SubScores = subScores(state, target, out.Achieved, out.Target)
		for _, sub := range out.SubScores {
			out.Score += sub.Value
		}
		out.Score = mathutil.Clamp(out.Score, 0, constants.MaxScore)
		out.Verdict = bucket(out.Score, target.Buckets)
		out.Success = out.Verdict == VerdictSuccess
	default:
		out.Success = out.Target > 0 && mathutil.AtLeast(out.Achieved, out.Target)
		if out.Success {
			out.Verdict = VerdictSuccess
		} else {
			out.Verdict = VerdictFailure
		}
	}

	if !out.Success {
		out.FailureReason = failureReason(state, target)
	}
	return out
}

func failureReason(state *engine.RunState, target OutcomeTarget) FailureReason {
	switch {
	case !state.RemainingBudget.IsPositive():
		return ReasonBudgetDepleted
	case target.Years > 0 && state.LastYear() >= target.Years:
		return ReasonTurnsExhausted
	default:
		return ReasonInProgress
	}
}

func subScores(state *engine.RunState, target OutcomeTarget, achieved, goal float64) []SubScore {
	metricWeight := target.MetricWeight
	progress := mathutil.Clamp(mathutil.Ratio(achieved, goal)*metricWeight, 0, metricWeight)

	budget := 0.0
	if state.RemainingBudget.GreaterThan(target.BudgetFloor) {
		budget = target.BudgetWeight
	}

	subs := []SubScore{
		{Name: "metric", Value: progress, Max: metricWeight},
		{Name: "budget", Value: budget, Max: target.BudgetWeight},
	}
	for _, flag := range target.Flags {
		value := flag.Baseline
		if state.Chose(flag.Initiative) {
			value = flag.Bonus
		}
		subs = append(subs, SubScore{Name: flag.Initiative, Value: value, Max: mathutil.Max(flag.Bonus, flag.Baseline)})
	}
	return subs
}

func bucket(score float64, buckets []Bucket) Verdict {
	if len(buckets) == 0 {
		buckets = DefaultBuckets()
	}
	sorted := append([]Bucket(nil), buckets...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].MinScore > sorted[j].MinScore
	})
	for _, b := range sorted {
		if score >= b.MinScore {
			return b.Verdict
		}
	}
	return VerdictFailure
}
