// pkg/rules/load_test.go
package rules

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleRuleYAML = `
rules:
  - field: foundation_type
    kind: ordered
    mappings:
      - when:
          - column: foundation_pier_beam
            label: Pier and beam
          - column: foundation_slab
            label: Slab
        code: 3
      - when:
          - column: foundation_pier_beam
            label: Pier and beam
        code: 2
      - when:
          - column: foundation_slab
            label: Slab
        code: 1
    fallback: "null"
  - field: residents_under05
    kind: integer
    column: residents_under_5
    ceiling: 5
    ceiling_label: 5 or more
  - field: pv_own
    kind: boolean
    column: pv_system_own
    label: "Yes"
  - field: pv_satisfied
    kind: ordered
    mappings:
      - when:
          - column: pv_system_satisfied
            label: Very
        code: 5
    fallback: zero
    condition: pv_own
  - field: temp_summer_weekend
    kind: numeric
    column: temp_summer_weekend
`

func TestParseRuleTable(t *testing.T) {
	set, err := Parse([]byte(sampleRuleYAML))
	require.NoError(t, err)
	require.Len(t, set.Rules, 5)

	foundation := set.Rules[0]
	assert.Equal(t, "foundation_type", foundation.Field)
	assert.Equal(t, KindOrdered, foundation.Kind)
	assert.Equal(t, FallbackNull, foundation.Fallback)
	require.Len(t, foundation.Mappings, 3)
	assert.Equal(t, int64(3), foundation.Mappings[0].Code)
	assert.Len(t, foundation.Mappings[0].When, 2)

	residents := set.Rules[1]
	assert.Equal(t, KindCount, residents.Kind)
	// Integer rules default to the zero fallback.
	assert.Equal(t, FallbackZero, residents.Fallback)
	assert.Equal(t, int64(5), residents.Ceiling)
	assert.Equal(t, "5 or more", residents.CeilingLabel)

	satisfied := set.Rules[3]
	assert.Equal(t, "pv_own", satisfied.Condition)
	assert.Equal(t, FallbackZero, satisfied.Fallback)

	temp := set.Rules[4]
	assert.Equal(t, KindNumeric, temp.Kind)
	assert.Equal(t, FallbackNull, temp.Fallback)
}

func TestParseUnknownKind(t *testing.T) {
	_, err := Parse([]byte(`
rules:
  - field: f
    kind: fancy
    column: c
`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRuleConfig))
	assert.Contains(t, err.Error(), `unknown kind "fancy"`)
}

func TestParseUnknownFallback(t *testing.T) {
	_, err := Parse([]byte(`
rules:
  - field: f
    kind: numeric
    column: c
    fallback: whatever
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown fallback policy "whatever"`)
}

func TestParseInvalidTableFailsValidation(t *testing.T) {
	_, err := Parse([]byte(`
rules:
  - field: f
    kind: ordered
`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRuleConfig))
	assert.Contains(t, err.Error(), "no mappings")
}

func TestParseMalformedYAML(t *testing.T) {
	_, err := Parse([]byte("rules: ["))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse rule file")
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleRuleYAML), 0o644))

	set, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, set.Rules, 5)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read rule file")
}
