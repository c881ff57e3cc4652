// pkg/pipeline/ddl.go
package pipeline

import (
	"fmt"

	"github.com/lib/pq"

	"github.com/dataport/survey-ingress/pkg/rules"
)

// NormalizedColumnDefs builds the sink table column definitions from a rule
// set. The column order matches rule declaration order, with dataid first.
func NormalizedColumnDefs(set *rules.Set) []string {
	defs := make([]string, 0, len(set.Rules)+1)
	defs = append(defs, "dataid BIGINT NOT NULL")

	for _, r := range set.Rules {
		defs = append(defs, fmt.Sprintf("%s %s", pq.QuoteIdentifier(r.Field), columnType(r)))
	}
	return defs
}

// columnType maps one rule to a PostgreSQL column type. Nullability follows
// the rule semantics: fields that can only emit codes are NOT NULL, fields
// with a null fallback stay nullable.
func columnType(r rules.Rule) string {
	switch r.Kind {
	case rules.KindBool:
		// Always 0 or 1.
		return "SMALLINT NOT NULL"
	case rules.KindOrdered:
		if r.Fallback == rules.FallbackZero {
			return "SMALLINT NOT NULL"
		}
		return "SMALLINT"
	case rules.KindUnordered:
		if r.Fallback == rules.FallbackZero {
			return "SMALLINT NOT NULL"
		}
		return "SMALLINT"
	case rules.KindCount:
		if r.Fallback == rules.FallbackNull {
			return "INTEGER"
		}
		return "INTEGER NOT NULL"
	case rules.KindNumeric:
		return "DOUBLE PRECISION"
	default:
		return "TEXT"
	}
}

// CoercionColumnDefs builds the audit table column definitions. One row per
// coerced value, tagged with the run that produced it.
func CoercionColumnDefs() []string {
	return []string{
		"run_id UUID NOT NULL",
		"dataid BIGINT NOT NULL",
		"field TEXT NOT NULL",
		"raw_value TEXT NOT NULL",
		"policy TEXT NOT NULL",
		"reason TEXT NOT NULL",
		"recorded_at TIMESTAMPTZ NOT NULL DEFAULT now()",
	}
}
