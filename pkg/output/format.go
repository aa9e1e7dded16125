// Package output provides utilities for formatting and displaying playthrough results.
package output

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/iwvelando/initiative-sim/internal/game"
	"github.com/iwvelando/initiative-sim/pkg/format"
	"github.com/iwvelando/initiative-sim/pkg/optimization"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// PrettyFormat outputs a human-readable rather than machine-readable table.
func PrettyFormat(results []game.Result) {
	WritePretty(os.Stdout, results)
}

// WritePretty writes the human-readable table for results to w.
func WritePretty(w io.Writer, results []game.Result) {
	p := message.NewPrinter(language.English)
	for i, result := range results {
		report := NewReport(result)
		_, _ = p.Fprintf(w, "--- Results for scenario %s ---\n", report.Scenario)
		_, _ = p.Fprintf(w, "Run %s | Seed %d | Budget %s\n", report.RunID, report.Seed, format.Currency(report.InitialBudget))
		_, _ = fmt.Fprintf(w, "Year | Chosen | Event | Turn Cost | Budget Left | %s Level\n", report.Outcome.Metric)
		_, _ = fmt.Fprintf(w, "____ | ______ | _____ | _________ | ___________ | _____\n")
		for _, row := range report.Turns {
			event := row.Event
			if event == "" {
				event = "-"
			}
			_, _ = p.Fprintf(w, "%4d | %s | %s | %s | %s | %.2f\n",
				row.Year, strings.Join(row.Chosen, ", "), event,
				format.Currency(row.TurnCost), format.Currency(row.RemainingBudget), row.Remaining)
		}
		if len(report.Turns) == 0 {
			_, _ = fmt.Fprintf(w, "(no turns played)\n")
		}

		for _, r := range report.Rejections {
			_, _ = fmt.Fprintf(w, "Year %d attempt %d rejected (%s): %s\n", r.Year, r.Attempt, r.Kind, r.Message)
		}

		metrics := make([]string, 0, len(report.Cumulative))
		for metric := range report.Cumulative {
			metrics = append(metrics, metric)
		}
		sort.Strings(metrics)
		for _, metric := range metrics {
			_, _ = fmt.Fprintf(w, "%s total: %s\n", metric, format.Metric(report.Cumulative[metric]))
		}

		writeOutcome(w, p, report.Outcome)
		if report.Stopped {
			_, _ = fmt.Fprintf(w, "Run stopped before the final year\n")
		}
		if i < len(results)-1 {
			_, _ = fmt.Fprintf(w, "\n")
		}
	}
}

func writeOutcome(w io.Writer, p *message.Printer, outcome OutcomeView) {
	_, _ = p.Fprintf(w, "Target: %s down %.2f to %.2f | Achieved: %.2f | Remaining budget: %s\n",
		outcome.Metric, outcome.Target, outcome.TargetLevel, outcome.Achieved, format.Currency(outcome.RemainingBudget))

	if outcome.Score != nil {
		parts := make([]string, 0, len(outcome.SubScores))
		for _, sub := range outcome.SubScores {
			parts = append(parts, fmt.Sprintf("%s %s/%s", sub.Name, format.Metric(sub.Value), format.Metric(sub.Max)))
		}
		_, _ = p.Fprintf(w, "Score: %.2f / 100 (%s) [%s]\n", *outcome.Score, strings.ToUpper(outcome.Verdict), strings.Join(parts, "; "))
		return
	}

	if outcome.Success {
		_, _ = fmt.Fprintf(w, "Outcome: SUCCESS\n")
		return
	}
	_, _ = fmt.Fprintf(w, "Outcome: FAILURE (%s)\n", outcome.FailureReason)
}

// CsvFormat outputs in comma-separated value format.
func CsvFormat(results []game.Result) {
	fmt.Print(CsvString(results))
}

// CsvString renders the CSV table for results: one row per applied turn.
func CsvString(results []game.Result) string {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	_ = writer.Write([]string{"scenario", "run id", "year", "chosen", "event", "turn cost", "remaining budget", "metric", "cumulative", "remaining"})
	for _, result := range results {
		report := NewReport(result)
		for _, row := range report.Turns {
			_ = writer.Write([]string{
				report.Scenario,
				report.RunID,
				strconv.Itoa(row.Year),
				strings.Join(row.Chosen, "; "),
				row.Event,
				format.NumericCurrency(row.TurnCost),
				format.NumericCurrency(row.RemainingBudget),
				report.Outcome.Metric,
				strconv.FormatFloat(row.Cumulative, 'f', 2, 64),
				strconv.FormatFloat(row.Remaining, 'f', 2, 64),
			})
		}
	}
	writer.Flush()
	return buf.String()
}

// JSONFormat outputs the reports for results as indented JSON.
func JSONFormat(results []game.Result) error {
	return WriteJSON(os.Stdout, results)
}

// WriteJSON writes the reports for results to w as indented JSON.
func WriteJSON(w io.Writer, results []game.Result) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(NewReports(results)); err != nil {
		return fmt.Errorf("encoding results: %w", err)
	}
	return nil
}

// WritePlans writes planner summaries to w.
func WritePlans(w io.Writer, summaries []optimization.Summary) {
	p := message.NewPrinter(language.English)
	for _, summary := range summaries {
		status := "reaches target"
		if !summary.Reached {
			status = "falls short"
		}
		_, _ = p.Fprintf(w, "--- Suggested plan for %s (%s) ---\n", summary.Scenario, status)
		for _, step := range summary.Steps {
			_, _ = fmt.Fprintf(w, "Year %d: %s\n", step.Year, strings.Join(step.Select, ", "))
		}
		_, _ = p.Fprintf(w, "%s: %.2f of %.2f | Cost %s | Left %s\n",
			summary.Metric, summary.Achieved, summary.Target, format.Currency(summary.Cost), format.Currency(summary.RemainingBudget))
		if summary.Verdict != "" {
			_, _ = p.Fprintf(w, "Score: %.2f (%s)\n", summary.Score, summary.Verdict)
		}
		for _, note := range summary.Notes {
			_, _ = fmt.Fprintf(w, "Note: %s\n", note)
		}
	}
}
