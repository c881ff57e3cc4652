// pkg/model/value.go
package model

import (
	"database/sql/driver"
	"strconv"
)

// Value is a single normalized field value: an integer code/count, a numeric
// reading, or null. Boolean and categorical fields carry integer codes;
// temperature setpoints carry floats.
type Value struct {
	Int     int64
	Float   float64
	IsFloat bool
	Valid   bool // false means null
}

// IntValue returns an integer-typed value.
func IntValue(n int64) Value {
	return Value{Int: n, Valid: true}
}

// FloatValue returns a float-typed value.
func FloatValue(f float64) Value {
	return Value{Float: f, IsFloat: true, Valid: true}
}

// NullValue returns a null value.
func NullValue() Value {
	return Value{}
}

// IsNull reports whether the value is null.
func (v Value) IsNull() bool {
	return !v.Valid
}

// Arg returns the value in a form suitable for a SQL statement argument.
func (v Value) Arg() driver.Value {
	if !v.Valid {
		return nil
	}
	if v.IsFloat {
		return v.Float
	}
	return v.Int
}

// String renders the value for logs and reports. Null renders as "null".
func (v Value) String() string {
	if !v.Valid {
		return "null"
	}
	if v.IsFloat {
		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	}
	return strconv.FormatInt(v.Int, 10)
}

// Equal compares two values, treating nulls as equal to each other only.
func (v Value) Equal(other Value) bool {
	if v.Valid != other.Valid {
		return false
	}
	if !v.Valid {
		return true
	}
	if v.IsFloat != other.IsFloat {
		return false
	}
	if v.IsFloat {
		return v.Float == other.Float
	}
	return v.Int == other.Int
}
