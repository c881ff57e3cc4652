// pkg/rules/rule_test.go
package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRuleSourceColumns(t *testing.T) {
	rule := Rule{
		Field: "foundation_type",
		Kind:  KindOrdered,
		Mappings: []Mapping{
			{When: []Match{
				{Column: "foundation_pier_beam", Label: "Pier and beam"},
				{Column: "foundation_slab", Label: "Slab"},
			}, Code: 3},
			{When: []Match{{Column: "foundation_pier_beam", Label: "Pier and beam"}}, Code: 2},
			{When: []Match{{Column: "foundation_slab", Label: "Slab"}}, Code: 1},
		},
	}

	// Deduplicated, in first-reference order.
	assert.Equal(t, []string{"foundation_pier_beam", "foundation_slab"}, rule.SourceColumns())
}

func TestSetSourceColumnsIncludeEveryRule(t *testing.T) {
	set := Survey2014()
	cols := set.SourceColumns()

	seen := make(map[string]bool, len(cols))
	for _, c := range cols {
		assert.False(t, seen[c], "column %q repeated", c)
		seen[c] = true
	}
	for _, r := range set.Rules {
		for _, c := range r.SourceColumns() {
			assert.True(t, seen[c], "rule %q reads %q, not in set columns", r.Field, c)
		}
	}
}

func TestSetFieldsMatchRules(t *testing.T) {
	set := Survey2014()
	fields := set.Fields()
	require.Len(t, fields, len(set.Rules))

	byField := set.ByField()
	for i, r := range set.Rules {
		assert.Equal(t, r.Field, fields[i])
		assert.Equal(t, r.Field, byField[r.Field].Field)
	}
}

func TestOrderedCodesAscendWithAttainment(t *testing.T) {
	byField := Survey2014().ByField()

	for _, field := range []string{"education_level", "income_level", "pv_satisfied"} {
		rule, ok := byField[field]
		require.True(t, ok, field)
		require.Equal(t, KindOrdered, rule.Kind, field)

		// Mappings are declared lowest first, so codes must strictly
		// increase with the real-world ordering.
		for i := 1; i < len(rule.Mappings); i++ {
			assert.Greater(t, rule.Mappings[i].Code, rule.Mappings[i-1].Code,
				"%s mapping %d", field, i)
		}
	}
}

func TestKindAndFallbackNames(t *testing.T) {
	assert.Equal(t, "boolean", KindBool.String())
	assert.Equal(t, "ordered", KindOrdered.String())
	assert.Equal(t, "unordered", KindUnordered.String())
	assert.Equal(t, "integer", KindCount.String())
	assert.Equal(t, "numeric", KindNumeric.String())

	assert.Equal(t, "null", FallbackNull.String())
	assert.Equal(t, "zero", FallbackZero.String())
	assert.Equal(t, "ceiling", FallbackCeiling.String())
}
