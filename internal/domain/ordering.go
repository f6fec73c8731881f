package domain

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Ordering selects which remote ranking a listing request uses.
type Ordering string

const (
	OrderingHot    Ordering = "hot"
	OrderingLatest Ordering = "latest"
	OrderingTop    Ordering = "top"
)

// TopWindow is the lookback window applied to the Top ordering.
const TopWindow = "month"

// Orderings lists every ordering in census order.
var Orderings = []Ordering{OrderingHot, OrderingLatest, OrderingTop}

// Endpoint returns the listing path segment Reddit uses for the ordering.
func (o Ordering) Endpoint() string {
	if o == OrderingLatest {
		return "new"
	}
	return string(o)
}

// Title is the display name used in charts and reports.
func (o Ordering) Title() string {
	return cases.Title(language.English).String(string(o))
}

// Valid reports whether o is one of the known orderings.
func (o Ordering) Valid() bool {
	switch o {
	case OrderingHot, OrderingLatest, OrderingTop:
		return true
	}
	return false
}

// ParseOrdering accepts an ordering name, case-insensitively. "new" is an alias for latest.
func ParseOrdering(s string) (Ordering, error) {
	o := Ordering(strings.ToLower(strings.TrimSpace(s)))
	if o == "new" {
		o = OrderingLatest
	}
	if !o.Valid() {
		return "", fmt.Errorf("unknown ordering %q (use hot, latest or top)", s)
	}
	return o, nil
}

// ParseOrderings parses a list of ordering names, dropping repeats.
func ParseOrderings(names []string) ([]Ordering, error) {
	seen := make(map[Ordering]bool, len(names))
	var out []Ordering
	for _, n := range names {
		o, err := ParseOrdering(n)
		if err != nil {
			return nil, err
		}
		if seen[o] {
			continue
		}
		seen[o] = true
		out = append(out, o)
	}
	return out, nil
}
