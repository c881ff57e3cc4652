// pkg/rules/validate.go
package rules

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"
)

// ErrRuleConfig marks a rule-table consistency failure. Validation happens
// once at load time so that per-row evaluation never has to raise: every
// predicate gap discovered here would otherwise surface as a silent fallback
// or a mid-batch failure.
var ErrRuleConfig = errors.New("rule configuration error")

// Validate checks the rule table for consistency before any row is
// processed. All problems are reported together rather than one at a time.
func Validate(set *Set) error {
	if set == nil || len(set.Rules) == 0 {
		return fmt.Errorf("%w: empty rule set", ErrRuleConfig)
	}

	var errs error
	report := func(format string, args ...interface{}) {
		errs = multierr.Append(errs, fmt.Errorf(format, args...))
	}

	byField := make(map[string]Rule, len(set.Rules))
	for _, r := range set.Rules {
		if r.Field == "" {
			report("rule with empty field name")
			continue
		}
		if _, dup := byField[r.Field]; dup {
			report("field %q declared more than once", r.Field)
			continue
		}
		byField[r.Field] = r
	}

	for _, r := range set.Rules {
		switch r.Kind {
		case KindBool:
			validateBool(r, report)
		case KindOrdered:
			validateOrdered(r, report)
		case KindUnordered:
			validateUnordered(r, report)
		case KindCount:
			validateCount(r, report)
		case KindNumeric:
			validateNumeric(r, report)
		default:
			report("field %q: unknown kind %d", r.Field, int(r.Kind))
		}

		if r.Condition != "" {
			gov, ok := byField[r.Condition]
			if !ok {
				report("field %q: condition references unknown field %q", r.Field, r.Condition)
			} else if gov.Kind != KindBool {
				report("field %q: condition field %q is %s, want boolean", r.Field, r.Condition, gov.Kind)
			}
			if r.Condition == r.Field {
				report("field %q: condition references itself", r.Field)
			}
		}
	}

	if errs != nil {
		return fmt.Errorf("%w: %v", ErrRuleConfig, errs)
	}
	return nil
}

func validateBool(r Rule, report func(string, ...interface{})) {
	if r.Column == "" {
		report("boolean field %q: missing source column", r.Field)
	}
	if r.Label == "" {
		report("boolean field %q: missing expected label", r.Field)
	}
	if r.Fallback != FallbackZero && r.Fallback != FallbackNull {
		// Bool output is always 0/1; the zero-valued Fallback member is
		// accepted so literal rules need not spell it out.
		report("boolean field %q: fallback %s not allowed", r.Field, r.Fallback)
	}
	if len(r.Mappings) > 0 || len(r.Indicators) > 0 {
		report("boolean field %q: mappings/indicators not allowed", r.Field)
	}
}

func validateOrdered(r Rule, report func(string, ...interface{})) {
	if len(r.Mappings) == 0 {
		report("ordered field %q: no mappings", r.Field)
		return
	}
	seenCodes := make(map[int64]bool)
	seenPredicates := make(map[string]bool)
	for i, m := range r.Mappings {
		if len(m.When) == 0 {
			report("ordered field %q: mapping %d has no predicates", r.Field, i)
			continue
		}
		if m.Code <= 0 {
			report("ordered field %q: mapping %d has non-positive code %d", r.Field, i, m.Code)
		}
		if seenCodes[m.Code] {
			report("ordered field %q: duplicate code %d", r.Field, m.Code)
		}
		seenCodes[m.Code] = true

		key := predicateKey(m.When)
		if seenPredicates[key] {
			report("ordered field %q: mapping %d duplicates an earlier predicate set", r.Field, i)
		}
		seenPredicates[key] = true

		for _, w := range m.When {
			if w.Column == "" {
				report("ordered field %q: mapping %d has predicate with empty column", r.Field, i)
			}
		}
	}
	if r.Fallback == FallbackCeiling {
		report("ordered field %q: ceiling fallback not allowed", r.Field)
	}
}

func validateUnordered(r Rule, report func(string, ...interface{})) {
	if len(r.Indicators) == 0 {
		report("unordered field %q: no indicators", r.Field)
		return
	}
	seenColumns := make(map[string]bool)
	seenCodes := make(map[int64]bool)
	for _, ind := range r.Indicators {
		if ind.Column == "" {
			report("unordered field %q: indicator with empty column", r.Field)
			continue
		}
		// Each indicator column appears once; priority between columns is
		// the declaration order, so a repeat would be ambiguous.
		if seenColumns[ind.Column] {
			report("unordered field %q: indicator column %q declared more than once", r.Field, ind.Column)
		}
		seenColumns[ind.Column] = true
		if ind.Code <= 0 {
			report("unordered field %q: indicator %q has non-positive code %d", r.Field, ind.Column, ind.Code)
		}
		if seenCodes[ind.Code] {
			report("unordered field %q: duplicate code %d", r.Field, ind.Code)
		}
		seenCodes[ind.Code] = true
	}
	if r.Fallback == FallbackCeiling {
		report("unordered field %q: ceiling fallback not allowed", r.Field)
	}
}

func validateCount(r Rule, report func(string, ...interface{})) {
	if r.Column == "" {
		report("integer field %q: missing source column", r.Field)
	}
	if r.CeilingLabel != "" && r.Ceiling <= 0 {
		report("integer field %q: ceiling label %q without a positive ceiling", r.Field, r.CeilingLabel)
	}
	if r.Fallback == FallbackCeiling && r.Ceiling <= 0 {
		report("integer field %q: ceiling fallback without a positive ceiling", r.Field)
	}
}

func validateNumeric(r Rule, report func(string, ...interface{})) {
	if r.Column == "" {
		report("numeric field %q: missing source column", r.Field)
	}
	if r.Fallback != FallbackNull {
		report("numeric field %q: fallback must be null, got %s", r.Field, r.Fallback)
	}
}

func predicateKey(when []Match) string {
	key := ""
	for _, w := range when {
		key += w.Column + "\x00" + w.Label + "\x01"
	}
	return key
}
