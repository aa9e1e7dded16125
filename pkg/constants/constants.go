// Package constants provides shared constants for the initiative-sim application.
package constants

// Simulation defaults
const (
	// DefaultMaxPerTurn is the number of initiatives a player may select in one year.
	DefaultMaxPerTurn = 3

	// DefaultYears is the number of yearly turns when a scenario does not set one.
	DefaultYears = 5

	// MinYears and MaxYears bound the configurable turn count.
	MinYears = 1
	MaxYears = 50

	// DefaultBaseline is the starting metric level, expressed as a percentage of baseline.
	DefaultBaseline = 100.0

	// DefaultMaxPromptAttempts bounds how often a single year is re-prompted after
	// a rejected selection.
	DefaultMaxPromptAttempts = 5
)

// Scoring defaults
const (
	// MaxScore is the upper bound of a weighted composite score.
	MaxScore = 100.0

	// DefaultMetricWeight is the weight of the metric-progress sub-score.
	DefaultMetricWeight = 30.0

	// DefaultBudgetWeight is the weight of the budget-health sub-score.
	DefaultBudgetWeight = 10.0

	// DefaultFlagBonus is awarded when a flagged initiative appears in the history.
	DefaultFlagBonus = 15.0

	// DefaultFlagBaseline is awarded when a flagged initiative never appears.
	DefaultFlagBaseline = 5.0

	// DefaultSuccessScore and DefaultPartialScore are the verdict bucket floors.
	DefaultSuccessScore = 80.0
	DefaultPartialScore = 50.0
)

// Selection policies
const (
	// SelectionPolicySet collapses duplicate names within one selection.
	SelectionPolicySet = "set"

	// SelectionPolicyMultiset lets duplicate names stack their effects.
	SelectionPolicyMultiset = "multiset"
)

// Effect timing modes
const (
	// EffectTimingImmediate lands every delta in the turn it was chosen.
	EffectTimingImmediate = "immediate"

	// EffectTimingStaggered spreads deltas evenly over an initiative's lead years.
	EffectTimingStaggered = "staggered"
)

// Scoring mode names as they appear in configuration files
const (
	ScoringModeThreshold = "threshold"
	ScoringModeWeighted  = "weighted"
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"

	// OutputFormatJSON is the machine-readable JSON output format
	OutputFormatJSON = "json"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "config.yaml"

	// DefaultServerConfigFile is the default server configuration file name
	DefaultServerConfigFile = "server-config.yaml"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address for the API
	DefaultServerAddress = ":8080"

	// DefaultMaxUploadSizeBytes is the default maximum upload size for YAML configs (256 KB)
	DefaultMaxUploadSizeBytes int64 = 256 * 1024
)

// Numeric constants
const (
	// DecimalPrecision is the precision for currency rounding (2 decimal places)
	DecimalPrecision = 100

	// CurrencyPlaces is the number of decimal places shown for money.
	CurrencyPlaces = 2

	// MetricTolerance is the tolerance used when comparing metric levels.
	MetricTolerance = 1e-9
)
