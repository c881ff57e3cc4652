// pkg/normalizer/engine_test.go
package normalizer

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dataport/survey-ingress/pkg/model"
	"github.com/dataport/survey-ingress/pkg/rules"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	engine, err := NewEngine(rules.Survey2014())
	require.NoError(t, err)
	return engine
}

func rawRow(dataID int64, columns map[string]string) model.RawRow {
	return model.RawRow{DataID: dataID, Columns: columns}
}

func TestNormalizeRowFoundationMerge(t *testing.T) {
	engine := newTestEngine(t)

	tests := []struct {
		name    string
		columns map[string]string
		want    model.Value
	}{
		{
			name: "both columns set ranks highest",
			columns: map[string]string{
				"foundation_pier_beam": "Pier and beam",
				"foundation_slab":      "Slab",
			},
			want: model.IntValue(3),
		},
		{
			name:    "pier and beam alone",
			columns: map[string]string{"foundation_pier_beam": "Pier and beam"},
			want:    model.IntValue(2),
		},
		{
			name:    "slab alone",
			columns: map[string]string{"foundation_slab": "Slab"},
			want:    model.IntValue(1),
		},
		{
			name:    "no response is null",
			columns: map[string]string{},
			want:    model.NullValue(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row, coercions := engine.NormalizeRow(rawRow(1, tt.columns))
			assert.True(t, tt.want.Equal(row.Get("foundation_type")),
				"got %s, want %s", row.Get("foundation_type"), tt.want)
			assert.Empty(t, coercions)
		})
	}
}

func TestNormalizeRowFoundationUnexpectedValue(t *testing.T) {
	engine := newTestEngine(t)

	// Matching is case-sensitive and untrimmed, so a lower-cased response
	// is an unexpected value: it degrades to null and gets recorded.
	row, coercions := engine.NormalizeRow(rawRow(7, map[string]string{
		"foundation_slab": "slab",
	}))

	assert.True(t, row.Get("foundation_type").IsNull())
	require.Len(t, coercions, 1)
	assert.Equal(t, int64(7), coercions[0].DataID)
	assert.Equal(t, "foundation_type", coercions[0].Field)
	assert.Equal(t, "slab", coercions[0].Raw)
	assert.Equal(t, "null", coercions[0].Policy)
	assert.Equal(t, "unmatched_label", coercions[0].Reason)
}

func TestNormalizeRowCounts(t *testing.T) {
	engine := newTestEngine(t)

	tests := []struct {
		name      string
		raw       string
		want      model.Value
		coercions int
	}{
		{name: "plain integer", raw: "3", want: model.IntValue(3)},
		{name: "empty means zero", raw: "", want: model.IntValue(0)},
		{name: "censoring sentinel", raw: "5 or more", want: model.IntValue(5)},
		{name: "malformed falls back to zero", raw: "two", want: model.IntValue(0), coercions: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row, coercions := engine.NormalizeRow(rawRow(1, map[string]string{
				"residents_under_5": tt.raw,
			}))
			assert.True(t, tt.want.Equal(row.Get("residents_under05")),
				"got %s, want %s", row.Get("residents_under05"), tt.want)
			assert.Len(t, coercions, tt.coercions)
			if tt.coercions > 0 {
				assert.Equal(t, "malformed_integer", coercions[0].Reason)
				assert.Equal(t, "zero", coercions[0].Policy)
			}
		})
	}
}

func TestNormalizeRowBoolNeverNull(t *testing.T) {
	engine := newTestEngine(t)

	tests := []struct {
		name string
		raw  string
		want int64
	}{
		{name: "exact label", raw: "Yes", want: 1},
		{name: "case mismatch is not a match", raw: "yes", want: 0},
		{name: "trailing space is not a match", raw: "Yes ", want: 0},
		{name: "empty", raw: "", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row, _ := engine.NormalizeRow(rawRow(1, map[string]string{
				"smartphone_own": tt.raw,
			}))
			got := row.Get("smartphone_own")
			require.False(t, got.IsNull(), "boolean fields never emit null")
			assert.Equal(t, tt.want, got.Int)
		})
	}
}

func TestNormalizeRowConditionalDependency(t *testing.T) {
	engine := newTestEngine(t)

	t.Run("no system short-circuits to zero", func(t *testing.T) {
		// The satisfaction column is never read when the governing
		// boolean is false, so even garbage there produces no coercion.
		row, coercions := engine.NormalizeRow(rawRow(1, map[string]string{
			"pv_system_own":       "No",
			"pv_system_satisfied": "banana",
		}))
		assert.True(t, model.IntValue(0).Equal(row.Get("pv_own")))
		assert.True(t, model.IntValue(0).Equal(row.Get("pv_satisfied")))
		assert.Empty(t, coercions)
	})

	t.Run("owner with a satisfaction response", func(t *testing.T) {
		row, coercions := engine.NormalizeRow(rawRow(1, map[string]string{
			"pv_system_own":       "Yes",
			"pv_system_satisfied": "Very",
		}))
		assert.True(t, model.IntValue(1).Equal(row.Get("pv_own")))
		assert.True(t, model.IntValue(5).Equal(row.Get("pv_satisfied")))
		assert.Empty(t, coercions)
	})

	t.Run("owner with an unexpected response is coerced", func(t *testing.T) {
		row, coercions := engine.NormalizeRow(rawRow(1, map[string]string{
			"pv_system_own":       "Yes",
			"pv_system_satisfied": "banana",
		}))
		assert.True(t, model.IntValue(0).Equal(row.Get("pv_satisfied")))
		require.Len(t, coercions, 1)
		assert.Equal(t, "pv_satisfied", coercions[0].Field)
	})
}

func TestNormalizeRowNumericSetpoints(t *testing.T) {
	engine := newTestEngine(t)

	tests := []struct {
		name      string
		raw       string
		want      model.Value
		reason    string
		coercions int
	}{
		{name: "plain number", raw: "72", want: model.FloatValue(72)},
		{name: "decimal", raw: "71.5", want: model.FloatValue(71.5)},
		{name: "surrounding whitespace", raw: " 68 ", want: model.FloatValue(68)},
		{name: "empty is null without coercion", raw: "", want: model.NullValue()},
		{name: "no digit is null", raw: "seventy", want: model.NullValue(), reason: "no_digit", coercions: 1},
		{name: "unparseable is null", raw: "72ish", want: model.NullValue(), reason: "malformed_number", coercions: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row, coercions := engine.NormalizeRow(rawRow(1, map[string]string{
				"temp_summer_weekday_workday": tt.raw,
			}))
			assert.True(t, tt.want.Equal(row.Get("temp_summer_weekday_workday")),
				"got %s, want %s", row.Get("temp_summer_weekday_workday"), tt.want)
			require.Len(t, coercions, tt.coercions)
			if tt.coercions > 0 {
				assert.Equal(t, tt.reason, coercions[0].Reason)
			}
		})
	}
}

func TestNormalizeRowUnorderedPriority(t *testing.T) {
	engine := newTestEngine(t)

	t.Run("first indicator in priority order wins", func(t *testing.T) {
		row, coercions := engine.NormalizeRow(rawRow(1, map[string]string{
			"hvac_heat_pump":  "Heat pump",
			"hvac_central_ac": "Central air conditioning",
		}))
		assert.True(t, model.IntValue(1).Equal(row.Get("hvac")))
		assert.Empty(t, coercions)
	})

	t.Run("no indicator set falls back to zero silently", func(t *testing.T) {
		row, coercions := engine.NormalizeRow(rawRow(1, map[string]string{}))
		assert.True(t, model.IntValue(0).Equal(row.Get("hvac")))
		assert.Empty(t, coercions)
	})

	t.Run("unexpected indicator value is coerced", func(t *testing.T) {
		row, coercions := engine.NormalizeRow(rawRow(1, map[string]string{
			"hvac_central_ac": "yes",
		}))
		assert.True(t, model.IntValue(0).Equal(row.Get("hvac")))
		require.Len(t, coercions, 1)
		assert.Equal(t, "hvac", coercions[0].Field)
	})
}

func TestNormalizeRowEmitsEveryField(t *testing.T) {
	engine := newTestEngine(t)

	row, _ := engine.NormalizeRow(rawRow(1, map[string]string{}))
	for _, field := range engine.Rules().Fields() {
		_, ok := row.Values[field]
		assert.True(t, ok, "missing output for field %q", field)
	}
	assert.Len(t, row.Values, len(engine.Rules().Rules))
}

func TestNormalizeRowIdempotent(t *testing.T) {
	engine := newTestEngine(t)

	raw := rawRow(42, map[string]string{
		"foundation_slab":             "Slab",
		"residents_under_5":           "5 or more",
		"education_level":             "College graduate",
		"total_annual_income":         "$50,000 - $74,999",
		"hvac_central_ac":             "Central air conditioning",
		"pv_system_own":               "Yes",
		"pv_system_satisfied":         "Neutral",
		"temp_summer_weekday_workday": "74",
		"smartphone_own":              "Yes",
	})

	first, firstCoercions := engine.NormalizeRow(raw)
	second, secondCoercions := engine.NormalizeRow(raw)

	require.Equal(t, first.DataID, second.DataID)
	for field, v := range first.Values {
		assert.True(t, v.Equal(second.Values[field]), "field %q differs", field)
	}
	assert.Equal(t, firstCoercions, secondCoercions)
}

func TestCheckSchema(t *testing.T) {
	engine := newTestEngine(t)

	t.Run("all columns present", func(t *testing.T) {
		columns := append([]string{"dataid", "an_unrelated_column"},
			engine.Rules().SourceColumns()...)
		assert.NoError(t, engine.CheckSchema(columns))
	})

	t.Run("missing columns reported together", func(t *testing.T) {
		var columns []string
		for _, c := range engine.Rules().SourceColumns() {
			if c != "foundation_slab" && c != "education_level" {
				columns = append(columns, c)
			}
		}

		err := engine.CheckSchema(columns)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrSchema))
		assert.Contains(t, err.Error(), "foundation_slab")
		assert.Contains(t, err.Error(), "education_level")
	})
}

func TestNewEngineRejectsInvalidRules(t *testing.T) {
	set := &rules.Set{Rules: []rules.Rule{
		{Field: "broken", Kind: rules.KindOrdered},
	}}

	engine, err := NewEngine(set)
	assert.Nil(t, engine)
	require.Error(t, err)
	assert.True(t, errors.Is(err, rules.ErrRuleConfig))
}
