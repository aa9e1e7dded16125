package game

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/iwvelando/initiative-sim/pkg/catalog"
	"github.com/iwvelando/initiative-sim/pkg/format"
	"github.com/shopspring/decimal"
)

var (
	// ErrSkipYear tells Play to pass the year without taking a turn.
	ErrSkipYear = errors.New("year skipped")
	// ErrStop tells Play to end the run early and score what was played.
	ErrStop = errors.New("game stopped")
)

// Turn is what a Selector sees when asked for a year's selection.
type Turn struct {
	Year            int
	Years           int
	Attempt         int
	MaxPerTurn      int
	RemainingBudget decimal.Decimal
	Cumulative      map[string]float64
	Catalog         *catalog.Catalog
	// LastErr is the rejection of the previous attempt for this year, if any.
	LastErr error
}

// Selector chooses the initiatives for one year.
type Selector interface {
	Select(ctx context.Context, turn Turn) ([]string, error)
}

// SelectorFunc adapts a function to Selector.
type SelectorFunc func(ctx context.Context, turn Turn) ([]string, error)

// Select calls f.
func (f SelectorFunc) Select(ctx context.Context, turn Turn) ([]string, error) {
	return f(ctx, turn)
}

// PlanSelector replays a scripted plan. Years without an entry are skipped,
// and a rejected entry is not retried.
type PlanSelector struct {
	plan map[int][]string
}

// NewPlanSelector returns a selector for plan, keyed by year.
func NewPlanSelector(plan map[int][]string) *PlanSelector {
	return &PlanSelector{plan: plan}
}

// Select returns the planned selection for turn.Year.
func (p *PlanSelector) Select(_ context.Context, turn Turn) ([]string, error) {
	if turn.Attempt > 1 {
		return nil, ErrSkipYear
	}
	selection, ok := p.plan[turn.Year]
	if !ok {
		return nil, ErrSkipYear
	}
	return append([]string(nil), selection...), nil
}

// PromptSelector asks a player on a line-oriented terminal. Each line is a
// comma-separated list of initiative names or 1-based catalog numbers;
// "skip" passes the year and "quit" ends the run.
type PromptSelector struct {
	in  *bufio.Reader
	out io.Writer
}

// NewPromptSelector reads answers from in and writes prompts to out.
func NewPromptSelector(in io.Reader, out io.Writer) *PromptSelector {
	return &PromptSelector{in: bufio.NewReader(in), out: out}
}

// Select prints the turn summary and reads one answer.
func (p *PromptSelector) Select(ctx context.Context, turn Turn) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.render(turn)

	line, err := p.in.ReadString('\n')
	switch {
	case errors.Is(err, io.EOF) && strings.TrimSpace(line) == "":
		return nil, ErrStop
	case err != nil && !errors.Is(err, io.EOF):
		return nil, fmt.Errorf("reading selection: %w", err)
	}

	return ParseSelection(line, turn.Catalog)
}

func (p *PromptSelector) render(turn Turn) {
	if turn.Attempt == 1 {
		fmt.Fprintf(p.out, "\nYear %d of %d | Budget remaining: %s\n", turn.Year, turn.Years, format.Currency(turn.RemainingBudget))
		if len(turn.Cumulative) > 0 {
			metrics := make([]string, 0, len(turn.Cumulative))
			for metric := range turn.Cumulative {
				metrics = append(metrics, metric)
			}
			sort.Strings(metrics)
			for _, metric := range metrics {
				fmt.Fprintf(p.out, "  %s so far: %s\n", metric, format.Metric(turn.Cumulative[metric]))
			}
		}
		for i, name := range turn.Catalog.Names() {
			def, _ := turn.Catalog.Get(name)
			fmt.Fprintf(p.out, "  %2d. %-45s %8s  %s\n", i+1, name, format.Currency(def.Cost), describeDeltas(def.MetricDeltas))
		}
	}
	if turn.LastErr != nil {
		fmt.Fprintf(p.out, "Rejected: %v\n", turn.LastErr)
	}
	fmt.Fprintf(p.out, "Choose up to %d (names or numbers, comma-separated; skip, quit): ", turn.MaxPerTurn)
}

func describeDeltas(deltas map[string]float64) string {
	metrics := make([]string, 0, len(deltas))
	for metric := range deltas {
		metrics = append(metrics, metric)
	}
	sort.Strings(metrics)
	parts := make([]string, 0, len(metrics))
	for _, metric := range metrics {
		parts = append(parts, fmt.Sprintf("%s +%s", metric, format.Metric(deltas[metric])))
	}
	return strings.Join(parts, ", ")
}

// ParseSelection turns one line of player input into initiative names.
// Numbers refer to cat's declaration order; anything else is passed through
// as a name so the engine reports unknown names uniformly.
func ParseSelection(line string, cat *catalog.Catalog) ([]string, error) {
	trimmed := strings.TrimSpace(line)
	switch strings.ToLower(trimmed) {
	case "skip":
		return nil, ErrSkipYear
	case "quit", "exit":
		return nil, ErrStop
	}

	var names []string
	if cat != nil {
		names = cat.Names()
	}

	var fields []string
	for _, field := range strings.Split(trimmed, ",") {
		if field = strings.TrimSpace(field); field != "" {
			fields = append(fields, field)
		}
	}

	var selection []string
	for i := 0; i < len(fields); i++ {
		if n, err := strconv.Atoi(fields[i]); err == nil && n >= 1 && n <= len(names) {
			selection = append(selection, names[n-1])
			continue
		}
		// Names may themselves contain commas; take the longest run of
		// fields that spells a catalog name.
		taken := false
		for j := len(fields); j > i+1 && cat != nil; j-- {
			if joined := strings.Join(fields[i:j], ", "); cat.Has(joined) {
				selection = append(selection, joined)
				i = j - 1
				taken = true
				break
			}
		}
		if !taken {
			selection = append(selection, fields[i])
		}
	}
	return selection, nil
}
