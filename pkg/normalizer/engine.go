// pkg/normalizer/engine.go
package normalizer

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/multierr"

	"github.com/dataport/survey-ingress/pkg/model"
	"github.com/dataport/survey-ingress/pkg/rules"
)

// ErrSchema marks a mismatch between the rule table and the raw source
// table: a referenced column is absent. This is fatal and detected before
// any row is processed.
var ErrSchema = errors.New("schema error")

// Engine evaluates a validated rule table against raw survey rows. It holds
// no mutable state: NormalizeRow is a pure function of (row, rule set), so
// rows can be normalized concurrently and re-normalizing a row always yields
// the same result.
type Engine struct {
	set     *rules.Set
	byField map[string]rules.Rule
}

// NewEngine validates the rule table and builds an engine for it.
func NewEngine(set *rules.Set) (*Engine, error) {
	if err := rules.Validate(set); err != nil {
		return nil, err
	}
	return &Engine{set: set, byField: set.ByField()}, nil
}

// Rules returns the engine's rule table.
func (e *Engine) Rules() *rules.Set {
	return e.set
}

// CheckSchema verifies that every raw column any rule reads is present in
// the source. Missing columns are reported together and abort the run before
// row processing starts.
func (e *Engine) CheckSchema(columns []string) error {
	available := make(map[string]bool, len(columns))
	for _, c := range columns {
		available[c] = true
	}

	var errs error
	for _, c := range e.set.SourceColumns() {
		if !available[c] {
			errs = multierr.Append(errs, fmt.Errorf("raw column %q not in source", c))
		}
	}
	if errs != nil {
		return fmt.Errorf("%w: %v", ErrSchema, errs)
	}
	return nil
}

// NormalizeRow recodes one raw survey row. The result contains exactly one
// value per rule. Raw values that match no predicate degrade to the rule's
// declared fallback and are returned as coercions for tallying; nothing here
// fails per-row.
func (e *Engine) NormalizeRow(raw model.RawRow) (model.NormalizedRow, []model.Coercion) {
	out := model.NormalizedRow{
		DataID: raw.DataID,
		Values: make(map[string]model.Value, len(e.set.Rules)),
	}
	var coercions []model.Coercion

	for _, rule := range e.set.Rules {
		// Conditionally-dependent fields short-circuit to 0 when the
		// governing boolean is false; the dependent columns are not read
		// at all in that case.
		if rule.Condition != "" {
			gov := e.byField[rule.Condition]
			if evalBool(raw, gov) == 0 {
				out.Values[rule.Field] = model.IntValue(0)
				continue
			}
		}

		value, coercion := e.evalRule(raw, rule)
		out.Values[rule.Field] = value
		if coercion != nil {
			coercion.DataID = raw.DataID
			coercions = append(coercions, *coercion)
		}
	}

	return out, coercions
}

func (e *Engine) evalRule(raw model.RawRow, rule rules.Rule) (model.Value, *model.Coercion) {
	switch rule.Kind {
	case rules.KindBool:
		return model.IntValue(evalBool(raw, rule)), nil
	case rules.KindOrdered:
		return evalOrdered(raw, rule)
	case rules.KindUnordered:
		return evalUnordered(raw, rule)
	case rules.KindCount:
		return evalCount(raw, rule)
	case rules.KindNumeric:
		return evalNumeric(raw, rule)
	default:
		// Unknown kinds are rejected by rules.Validate before an engine
		// can be built.
		return model.NullValue(), nil
	}
}

// evalBool tests exact, case-sensitive, untrimmed equality against the
// expected label. The output is always 0 or 1, never null.
func evalBool(raw model.RawRow, rule rules.Rule) int64 {
	if raw.Get(rule.Column) == rule.Label {
		return 1
	}
	return 0
}

// evalOrdered walks the mappings in declaration order and returns the first
// whose predicates all hold. A predicate with an empty label matches an
// empty (or missing) response.
func evalOrdered(raw model.RawRow, rule rules.Rule) (model.Value, *model.Coercion) {
	for _, m := range rule.Mappings {
		matched := true
		for _, w := range m.When {
			if raw.Get(w.Column) != w.Label {
				matched = false
				break
			}
		}
		if matched {
			return model.IntValue(m.Code), nil
		}
	}
	return fallbackValue(raw, rule, "unmatched_label")
}

// evalUnordered walks the indicator columns in priority order and returns
// the first category whose column holds its label. Conflicts resolve by
// priority, never by error.
func evalUnordered(raw model.RawRow, rule rules.Rule) (model.Value, *model.Coercion) {
	for _, ind := range rule.Indicators {
		if raw.Get(ind.Column) == ind.Label {
			return model.IntValue(ind.Code), nil
		}
	}
	return fallbackValue(raw, rule, "unmatched_label")
}

// evalCount cleans a count column: empty means zero, the "or more" sentinel
// means the ceiling, anything else parses as an integer. Malformed content
// takes the rule's fallback.
func evalCount(raw model.RawRow, rule rules.Rule) (model.Value, *model.Coercion) {
	v := raw.Get(rule.Column)
	switch {
	case v == "":
		return model.IntValue(0), nil
	case rule.CeilingLabel != "" && v == rule.CeilingLabel:
		return model.IntValue(rule.Ceiling), nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fallbackValue(raw, rule, "malformed_integer")
	}
	return model.IntValue(n), nil
}

// evalNumeric parses a free-text numeric field (temperature setpoints).
// Values without a single digit never reach the parser; they, and anything
// the parser rejects, become null.
func evalNumeric(raw model.RawRow, rule rules.Rule) (model.Value, *model.Coercion) {
	v := raw.Get(rule.Column)
	if v == "" {
		return model.NullValue(), nil
	}
	if !containsDigit(v) {
		return fallbackValue(raw, rule, "no_digit")
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return fallbackValue(raw, rule, "malformed_number")
	}
	return model.FloatValue(f), nil
}

// fallbackValue applies the rule's fallback policy. An empty raw value on a
// null-fallback rule is the defined no-response path and is not counted as a
// coercion; everything else is.
func fallbackValue(raw model.RawRow, rule rules.Rule, reason string) (model.Value, *model.Coercion) {
	var value model.Value
	switch rule.Fallback {
	case rules.FallbackZero:
		value = model.IntValue(0)
	case rules.FallbackCeiling:
		value = model.IntValue(rule.Ceiling)
	default:
		value = model.NullValue()
	}

	if !anySourceSet(raw, rule) {
		return value, nil
	}
	return value, &model.Coercion{
		Field:  rule.Field,
		Raw:    firstSetSource(raw, rule),
		Policy: rule.Fallback.String(),
		Reason: reason,
	}
}

func anySourceSet(raw model.RawRow, rule rules.Rule) bool {
	for _, c := range rule.SourceColumns() {
		if raw.Get(c) != "" {
			return true
		}
	}
	return false
}

func firstSetSource(raw model.RawRow, rule rules.Rule) string {
	for _, c := range rule.SourceColumns() {
		if v := raw.Get(c); v != "" {
			return v
		}
	}
	return ""
}

func containsDigit(s string) bool {
	for _, r := range s {
		if r >= '0' && r <= '9' {
			return true
		}
	}
	return false
}
