// pkg/rules/rule.go
package rules

import "fmt"

// Kind is the semantic type of a normalized output field.
type Kind int

const (
	// KindBool emits 0 or 1, never null. The raw column must equal the
	// rule's expected label exactly (case-sensitive, no trimming).
	KindBool Kind = iota
	// KindOrdered emits a small positive integer whose ordering is
	// meaningful (e.g. education level), or null.
	KindOrdered
	// KindUnordered emits a small positive integer label with no numeric
	// meaning, chosen from indicator columns in fixed priority order.
	KindUnordered
	// KindCount emits a cleaned non-negative integer; empty raw values map
	// to 0 and the "or more" sentinel maps to the ceiling.
	KindCount
	// KindNumeric emits a parsed float (temperature setpoints), or null
	// when the raw value contains no digit or fails to parse.
	KindNumeric
)

// String returns the configuration name of the kind.
func (k Kind) String() string {
	switch k {
	case KindBool:
		return "boolean"
	case KindOrdered:
		return "ordered"
	case KindUnordered:
		return "unordered"
	case KindCount:
		return "integer"
	case KindNumeric:
		return "numeric"
	default:
		return fmt.Sprintf("Unknown(%d)", k)
	}
}

// Fallback is the declared behavior when no predicate matches a raw value.
type Fallback int

const (
	// FallbackNull emits null.
	FallbackNull Fallback = iota
	// FallbackZero emits 0.
	FallbackZero
	// FallbackCeiling emits the rule's ceiling value.
	FallbackCeiling
)

// String returns the configuration name of the fallback policy.
func (f Fallback) String() string {
	switch f {
	case FallbackNull:
		return "null"
	case FallbackZero:
		return "zero"
	case FallbackCeiling:
		return "ceiling"
	default:
		return fmt.Sprintf("Unknown(%d)", f)
	}
}

// Match is one column predicate inside an ordered mapping: the raw column
// must hold exactly Label. An empty Label matches a missing column or an
// empty response.
type Match struct {
	Column string
	Label  string
}

// Mapping is one (predicate set -> code) pair of an ordered-categorical rule.
// All matches must hold for the code to apply; pairs are evaluated in
// declaration order, first match wins.
type Mapping struct {
	When []Match
	Code int64
}

// Indicator is one (column, label) -> code entry of an unordered-categorical
// rule spread across several yes/no columns. Declaration order is the
// conflict-resolution priority.
type Indicator struct {
	Column string
	Label  string
	Code   int64
}

// Rule declaratively maps one or more raw survey columns to one normalized
// output field. Which members are meaningful depends on Kind; Validate
// enforces the combinations.
type Rule struct {
	// Field is the output column name.
	Field string
	// Kind is the semantic type of the output.
	Kind Kind

	// Column and Label drive KindBool (column value equals label -> 1)
	// and KindCount / KindNumeric (column holds the value to clean).
	Column string
	Label  string

	// Mappings drive KindOrdered.
	Mappings []Mapping
	// Indicators drive KindUnordered.
	Indicators []Indicator

	// Fallback applies when nothing matches. Bool and Count rules always
	// behave as FallbackZero unless a Count rule declares FallbackNull.
	Fallback Fallback
	// Ceiling and CeilingLabel implement "N or more" sentinels for
	// KindCount (e.g. "5 or more" -> 5).
	Ceiling      int64
	CeilingLabel string

	// Condition names a governing boolean rule. When that rule evaluates
	// to 0 for a row, this rule emits 0 without looking at its own
	// columns (e.g. photovoltaic satisfaction without a photovoltaic
	// system).
	Condition string

	// Note flags a known data-quality ambiguity carried over from the
	// source encoding; informational only.
	Note string
}

// SourceColumns returns every raw column the rule reads, in evaluation
// order. Condition columns are not included; the governing rule owns those.
func (r Rule) SourceColumns() []string {
	seen := make(map[string]bool)
	var cols []string
	add := func(c string) {
		if c != "" && !seen[c] {
			seen[c] = true
			cols = append(cols, c)
		}
	}
	add(r.Column)
	for _, m := range r.Mappings {
		for _, w := range m.When {
			add(w.Column)
		}
	}
	for _, ind := range r.Indicators {
		add(ind.Column)
	}
	return cols
}

// Set is an ordered rule table. Order determines output column order and is
// otherwise irrelevant: rules are independent of each other except through
// Condition references.
type Set struct {
	Rules []Rule
}

// Fields returns the output field names in declaration order.
func (s *Set) Fields() []string {
	fields := make([]string, len(s.Rules))
	for i, r := range s.Rules {
		fields[i] = r.Field
	}
	return fields
}

// ByField returns a lookup from output field name to rule. Duplicate names
// are a validation error; the first declaration wins here.
func (s *Set) ByField() map[string]Rule {
	byField := make(map[string]Rule, len(s.Rules))
	for _, r := range s.Rules {
		if _, ok := byField[r.Field]; !ok {
			byField[r.Field] = r
		}
	}
	return byField
}

// SourceColumns returns every raw column the rule set reads, deduplicated,
// in first-reference order.
func (s *Set) SourceColumns() []string {
	seen := make(map[string]bool)
	var cols []string
	for _, r := range s.Rules {
		for _, c := range r.SourceColumns() {
			if !seen[c] {
				seen[c] = true
				cols = append(cols, c)
			}
		}
	}
	return cols
}
