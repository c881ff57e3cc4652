// pkg/rules/validate_test.go
package rules

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateBuiltinRules(t *testing.T) {
	assert.NoError(t, Validate(Survey2014()))
}

func TestValidateEmptySet(t *testing.T) {
	err := Validate(&Set{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRuleConfig))
}

func TestValidateDuplicateField(t *testing.T) {
	set := &Set{Rules: []Rule{
		{Field: "pets", Kind: KindBool, Column: "pets", Label: "Yes"},
		{Field: "pets", Kind: KindBool, Column: "pets_again", Label: "Yes"},
	}}

	err := Validate(set)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `field "pets" declared more than once`)
}

func TestValidateBool(t *testing.T) {
	tests := []struct {
		name    string
		rule    Rule
		wantErr string
	}{
		{
			name:    "missing column",
			rule:    Rule{Field: "f", Kind: KindBool, Label: "Yes"},
			wantErr: "missing source column",
		},
		{
			name:    "missing label",
			rule:    Rule{Field: "f", Kind: KindBool, Column: "c"},
			wantErr: "missing expected label",
		},
		{
			name: "mappings not allowed",
			rule: Rule{Field: "f", Kind: KindBool, Column: "c", Label: "Yes",
				Mappings: []Mapping{{When: []Match{{Column: "c", Label: "x"}}, Code: 1}}},
			wantErr: "mappings/indicators not allowed",
		},
		{
			name: "ceiling fallback not allowed",
			rule: Rule{Field: "f", Kind: KindBool, Column: "c", Label: "Yes",
				Fallback: FallbackCeiling},
			wantErr: "fallback ceiling not allowed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(&Set{Rules: []Rule{tt.rule}})
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrRuleConfig))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateOrdered(t *testing.T) {
	tests := []struct {
		name    string
		rule    Rule
		wantErr string
	}{
		{
			name:    "no mappings",
			rule:    Rule{Field: "f", Kind: KindOrdered},
			wantErr: "no mappings",
		},
		{
			name: "duplicate code",
			rule: Rule{Field: "f", Kind: KindOrdered, Mappings: []Mapping{
				{When: []Match{{Column: "c", Label: "a"}}, Code: 1},
				{When: []Match{{Column: "c", Label: "b"}}, Code: 1},
			}},
			wantErr: "duplicate code 1",
		},
		{
			name: "non-positive code",
			rule: Rule{Field: "f", Kind: KindOrdered, Mappings: []Mapping{
				{When: []Match{{Column: "c", Label: "a"}}, Code: 0},
			}},
			wantErr: "non-positive code",
		},
		{
			name: "duplicate predicate set",
			rule: Rule{Field: "f", Kind: KindOrdered, Mappings: []Mapping{
				{When: []Match{{Column: "c", Label: "a"}}, Code: 1},
				{When: []Match{{Column: "c", Label: "a"}}, Code: 2},
			}},
			wantErr: "duplicates an earlier predicate set",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(&Set{Rules: []Rule{tt.rule}})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateUnordered(t *testing.T) {
	tests := []struct {
		name    string
		rule    Rule
		wantErr string
	}{
		{
			name:    "no indicators",
			rule:    Rule{Field: "f", Kind: KindUnordered},
			wantErr: "no indicators",
		},
		{
			name: "repeated indicator column",
			rule: Rule{Field: "f", Kind: KindUnordered, Indicators: []Indicator{
				{Column: "c", Label: "a", Code: 1},
				{Column: "c", Label: "b", Code: 2},
			}},
			wantErr: "declared more than once",
		},
		{
			name: "duplicate code",
			rule: Rule{Field: "f", Kind: KindUnordered, Indicators: []Indicator{
				{Column: "c1", Label: "a", Code: 1},
				{Column: "c2", Label: "b", Code: 1},
			}},
			wantErr: "duplicate code 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(&Set{Rules: []Rule{tt.rule}})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateCount(t *testing.T) {
	err := Validate(&Set{Rules: []Rule{
		{Field: "f", Kind: KindCount, Column: "c", CeilingLabel: "5 or more"},
	}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "without a positive ceiling")
}

func TestValidateNumeric(t *testing.T) {
	err := Validate(&Set{Rules: []Rule{
		{Field: "f", Kind: KindNumeric, Column: "c", Fallback: FallbackZero},
	}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fallback must be null")
}

func TestValidateConditions(t *testing.T) {
	tests := []struct {
		name    string
		rules   []Rule
		wantErr string
	}{
		{
			name: "unknown condition field",
			rules: []Rule{
				{Field: "f", Kind: KindCount, Column: "c", Condition: "missing"},
			},
			wantErr: `condition references unknown field "missing"`,
		},
		{
			name: "condition field is not boolean",
			rules: []Rule{
				{Field: "gate", Kind: KindCount, Column: "g"},
				{Field: "f", Kind: KindCount, Column: "c", Condition: "gate"},
			},
			wantErr: `condition field "gate" is integer, want boolean`,
		},
		{
			name: "self reference",
			rules: []Rule{
				{Field: "f", Kind: KindBool, Column: "c", Label: "Yes", Condition: "f"},
			},
			wantErr: "condition references itself",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(&Set{Rules: tt.rules})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateReportsAllProblems(t *testing.T) {
	set := &Set{Rules: []Rule{
		{Field: "a", Kind: KindBool},
		{Field: "b", Kind: KindOrdered},
	}}

	err := Validate(set)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `boolean field "a"`)
	assert.Contains(t, err.Error(), `ordered field "b"`)
}
