// pkg/model/row.go
package model

// RawRow is one participant's raw survey responses: a mapping from raw column
// name to the untyped string the participant (or the survey platform) wrote.
// Empty string means no response.
type RawRow struct {
	DataID  int64             // stable unique participant identifier
	Columns map[string]string // raw column name -> raw response
}

// Get returns the raw response for a column. A missing column reads as the
// empty string, same as no response.
func (r RawRow) Get(column string) string {
	return r.Columns[column]
}

// NormalizedRow is one participant's recoded survey responses, one value per
// field rule.
type NormalizedRow struct {
	DataID int64
	Values map[string]Value // output field name -> normalized value
}

// Get returns the normalized value for a field. Unknown fields read as null.
func (r NormalizedRow) Get(field string) Value {
	return r.Values[field]
}

// Coercion records one per-row, per-field fallback: a raw value that matched
// no predicate and was mapped to the field's declared fallback. These are
// tallied across a run so silent data-quality issues stay visible.
type Coercion struct {
	DataID int64
	Field  string
	Raw    string // the unmatched raw value
	Policy string // "null", "zero", or "ceiling"
	Reason string // e.g. "unmatched_label", "malformed_integer", "no_digit"
}
