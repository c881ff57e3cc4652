// pkg/rules/load.go
package rules

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// The YAML rule-table format mirrors the Rule struct so encodings can be
// reviewed and extended without touching the evaluation engine.

type ruleFile struct {
	Rules []ruleYAML `yaml:"rules"`
}

type ruleYAML struct {
	Field      string          `yaml:"field"`
	Kind       string          `yaml:"kind"`
	Column     string          `yaml:"column,omitempty"`
	Label      string          `yaml:"label,omitempty"`
	Mappings   []mappingYAML   `yaml:"mappings,omitempty"`
	Indicators []indicatorYAML `yaml:"indicators,omitempty"`
	Fallback   string          `yaml:"fallback,omitempty"`
	Ceiling    int64           `yaml:"ceiling,omitempty"`
	CeilingLbl string          `yaml:"ceiling_label,omitempty"`
	Condition  string          `yaml:"condition,omitempty"`
	Note       string          `yaml:"note,omitempty"`
}

type mappingYAML struct {
	When []matchYAML `yaml:"when"`
	Code int64       `yaml:"code"`
}

type matchYAML struct {
	Column string `yaml:"column"`
	Label  string `yaml:"label"`
}

type indicatorYAML struct {
	Column string `yaml:"column"`
	Label  string `yaml:"label"`
	Code   int64  `yaml:"code"`
}

// Load reads and validates a rule table from a YAML file.
func Load(path string) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rule file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML rule table.
func Parse(data []byte) (*Set, error) {
	var file ruleFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse rule file: %w", err)
	}

	set := &Set{Rules: make([]Rule, 0, len(file.Rules))}
	for _, ry := range file.Rules {
		rule, err := ry.toRule()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrRuleConfig, err)
		}
		set.Rules = append(set.Rules, rule)
	}

	if err := Validate(set); err != nil {
		return nil, err
	}
	return set, nil
}

func (ry ruleYAML) toRule() (Rule, error) {
	kind, err := parseKind(ry.Kind)
	if err != nil {
		return Rule{}, fmt.Errorf("field %q: %v", ry.Field, err)
	}
	fallback, err := parseFallback(ry.Fallback, kind)
	if err != nil {
		return Rule{}, fmt.Errorf("field %q: %v", ry.Field, err)
	}

	rule := Rule{
		Field:        ry.Field,
		Kind:         kind,
		Column:       ry.Column,
		Label:        ry.Label,
		Fallback:     fallback,
		Ceiling:      ry.Ceiling,
		CeilingLabel: ry.CeilingLbl,
		Condition:    ry.Condition,
		Note:         ry.Note,
	}
	for _, my := range ry.Mappings {
		m := Mapping{Code: my.Code}
		for _, wy := range my.When {
			m.When = append(m.When, Match{Column: wy.Column, Label: wy.Label})
		}
		rule.Mappings = append(rule.Mappings, m)
	}
	for _, iy := range ry.Indicators {
		rule.Indicators = append(rule.Indicators, Indicator{
			Column: iy.Column, Label: iy.Label, Code: iy.Code,
		})
	}
	return rule, nil
}

func parseKind(s string) (Kind, error) {
	switch s {
	case "boolean":
		return KindBool, nil
	case "ordered":
		return KindOrdered, nil
	case "unordered":
		return KindUnordered, nil
	case "integer":
		return KindCount, nil
	case "numeric":
		return KindNumeric, nil
	default:
		return 0, fmt.Errorf("unknown kind %q", s)
	}
}

// parseFallback maps the configuration name to a policy. An empty string
// takes the conventional default for the kind: zero for booleans and
// integers, null for everything else.
func parseFallback(s string, kind Kind) (Fallback, error) {
	switch s {
	case "":
		if kind == KindBool || kind == KindCount {
			return FallbackZero, nil
		}
		return FallbackNull, nil
	case "null":
		return FallbackNull, nil
	case "zero":
		return FallbackZero, nil
	case "ceiling":
		return FallbackCeiling, nil
	default:
		return 0, fmt.Errorf("unknown fallback policy %q", s)
	}
}
