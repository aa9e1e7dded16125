// Package catalog defines the fixed set of initiatives a scenario offers and
// their static attributes.
package catalog

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/shopspring/decimal"
)

// ErrUnknownInitiative indicates a name that is not a key in the catalog.
var ErrUnknownInitiative = errors.New("unknown initiative")

// InitiativeDef holds the static attributes of one selectable initiative.
type InitiativeDef struct {
	Name         string
	MetricDeltas map[string]float64
	Cost         decimal.Decimal
	LeadYears    int
}

// Catalog is an immutable, ordered set of initiatives.
type Catalog struct {
	order   []string
	entries map[string]InitiativeDef
	metrics []string
}

// New builds a Catalog from defs, preserving declaration order. Names must be
// unique and non-empty, costs and deltas non-negative, lead years positive.
func New(defs ...InitiativeDef) (*Catalog, error) {
	c := &Catalog{
		order:   make([]string, 0, len(defs)),
		entries: make(map[string]InitiativeDef, len(defs)),
	}
	seenMetric := make(map[string]bool)

	for i, def := range defs {
		name := strings.TrimSpace(def.Name)
		if name == "" {
			return nil, fmt.Errorf("initiative %d: name cannot be empty", i)
		}
		if _, dup := c.entries[name]; dup {
			return nil, fmt.Errorf("initiative %q: duplicate name", name)
		}
		if def.Cost.IsNegative() {
			return nil, fmt.Errorf("initiative %q: cost must be non-negative, got %s", name, def.Cost)
		}
		if def.LeadYears < 1 {
			return nil, fmt.Errorf("initiative %q: lead years must be positive, got %d", name, def.LeadYears)
		}

		deltas := make(map[string]float64, len(def.MetricDeltas))
		metricNames := make([]string, 0, len(def.MetricDeltas))
		for metric, amount := range def.MetricDeltas {
			if metric == "" {
				return nil, fmt.Errorf("initiative %q: metric name cannot be empty", name)
			}
			if amount < 0 {
				return nil, fmt.Errorf("initiative %q: delta for %s must be non-negative, got %v", name, metric, amount)
			}
			deltas[metric] = amount
			metricNames = append(metricNames, metric)
		}
		sort.Strings(metricNames)
		for _, metric := range metricNames {
			if !seenMetric[metric] {
				seenMetric[metric] = true
				c.metrics = append(c.metrics, metric)
			}
		}

		c.entries[name] = InitiativeDef{
			Name:         name,
			MetricDeltas: deltas,
			Cost:         def.Cost,
			LeadYears:    def.LeadYears,
		}
		c.order = append(c.order, name)
	}

	return c, nil
}

// MustNew is like New but panics on error. Intended for presets and tests.
func MustNew(defs ...InitiativeDef) *Catalog {
	c, err := New(defs...)
	if err != nil {
		panic(err)
	}
	return c
}

// Get returns the definition for name, ignoring surrounding whitespace as New
// does. The returned MetricDeltas map is a copy.
func (c *Catalog) Get(name string) (InitiativeDef, error) {
	name = strings.TrimSpace(name)
	def, ok := c.entries[name]
	if !ok {
		if hint := c.Suggest(name); len(hint) > 0 {
			return InitiativeDef{}, fmt.Errorf("%w: %q (did you mean %s?)", ErrUnknownInitiative, name, quoteJoin(hint))
		}
		return InitiativeDef{}, fmt.Errorf("%w: %q", ErrUnknownInitiative, name)
	}
	deltas := make(map[string]float64, len(def.MetricDeltas))
	for metric, amount := range def.MetricDeltas {
		deltas[metric] = amount
	}
	def.MetricDeltas = deltas
	return def, nil
}

// Has reports whether name is a key in the catalog.
func (c *Catalog) Has(name string) bool {
	_, ok := c.entries[strings.TrimSpace(name)]
	return ok
}

// Names returns the initiative names in declaration order.
func (c *Catalog) Names() []string {
	return append([]string(nil), c.order...)
}

// Metrics returns every metric referenced by the catalog, first-seen order.
func (c *Catalog) Metrics() []string {
	return append([]string(nil), c.metrics...)
}

// Len returns the number of initiatives.
func (c *Catalog) Len() int {
	return len(c.order)
}

// Suggest returns up to three catalog names closest to name, compared
// case-insensitively, within an edit-distance limit scaled by length.
func (c *Catalog) Suggest(name string) []string {
	query := strings.ToLower(strings.TrimSpace(name))
	if query == "" {
		return nil
	}

	type candidate struct {
		name string
		dist int
	}
	var cands []candidate
	for _, known := range c.order {
		lower := strings.ToLower(known)
		if strings.HasPrefix(lower, query) && len(query) >= 3 {
			cands = append(cands, candidate{name: known, dist: 0})
			continue
		}
		dist := levenshtein.ComputeDistance(query, lower)
		if dist <= distanceLimit(len(lower)) {
			cands = append(cands, candidate{name: known, dist: dist})
		}
	}

	sort.SliceStable(cands, func(i, j int) bool {
		return cands[i].dist < cands[j].dist
	})

	var out []string
	for _, cand := range cands {
		out = append(out, cand.name)
		if len(out) == 3 {
			break
		}
	}
	return out
}

func distanceLimit(length int) int {
	switch {
	case length <= 4:
		return 1
	case length <= 8:
		return 2
	default:
		return 3
	}
}

func quoteJoin(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = fmt.Sprintf("%q", n)
	}
	return strings.Join(quoted, " or ")
}
