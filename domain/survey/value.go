package survey

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// Kind defines the storage type of a Value
type Kind int

const (
	KindNull Kind = iota
	KindInt
	KindFloat
	KindText
	KindList
	KindTime
)

// String returns the kind name used in documentation artifacts
func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindText:
		return "text"
	case KindList:
		return "list"
	case KindTime:
		return "time"
	default:
		return "null"
	}
}

// Value is a single extracted cell. A field may hold different kinds across
// respondents when a scale lookup falls through to the raw cell.
type Value struct {
	kind Kind
	i    int
	f    float64
	text string
	list []string
	ts   time.Time
}

// Null is the unanswered value
var Null = Value{}

// IntValue creates an integer value (scale codes, parsed integers)
func IntValue(i int) Value { return Value{kind: KindInt, i: i} }

// FloatValue creates a float value. NaN and Inf collapse to Null.
func FloatValue(f float64) Value {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Null
	}
	return Value{kind: KindFloat, f: f}
}

// TextValue creates a text value; blank text is Null
func TextValue(s string) Value {
	if IsBlank(s) {
		return Null
	}
	return Value{kind: KindText, text: strings.TrimSpace(s)}
}

// ListValue creates a list of selected labels; zero labels is Null, never an empty list
func ListValue(labels []string) Value {
	if len(labels) == 0 {
		return Null
	}
	cp := make([]string, len(labels))
	copy(cp, labels)
	return Value{kind: KindList, list: cp}
}

// TimeValue creates a timestamp value
func TimeValue(t time.Time) Value { return Value{kind: KindTime, ts: t} }

// Kind returns the storage kind
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether the value is unanswered
func (v Value) IsNull() bool { return v.kind == KindNull }

// Int returns the integer payload and whether the value is an Int
func (v Value) Int() (int, bool) { return v.i, v.kind == KindInt }

// Text returns the text payload and whether the value is Text
func (v Value) Text() (string, bool) { return v.text, v.kind == KindText }

// Time returns the timestamp payload and whether the value is a Time
func (v Value) Time() (time.Time, bool) { return v.ts, v.kind == KindTime }

// Number coerces the value to a float. Text that parses as a number counts;
// anything else is non-numeric and is excluded from means.
func (v Value) Number() (float64, bool) {
	switch v.kind {
	case KindInt:
		return float64(v.i), true
	case KindFloat:
		return v.f, true
	case KindText:
		f, err := strconv.ParseFloat(v.text, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// Labels returns the selected labels of a list. A bare text value is treated
// as a single selection.
func (v Value) Labels() []string {
	switch v.kind {
	case KindList:
		out := make([]string, len(v.list))
		copy(out, v.list)
		return out
	case KindText:
		return []string{v.text}
	}
	return nil
}

// String renders the value for tabular sinks. Lists are JSON arrays.
func (v Value) String() string {
	switch v.kind {
	case KindInt:
		return strconv.Itoa(v.i)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'f', -1, 64)
	case KindText:
		return v.text
	case KindList:
		b, _ := json.Marshal(v.list)
		return string(b)
	case KindTime:
		return v.ts.Format(time.RFC3339)
	}
	return ""
}

// Equal compares kind and payload
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindInt:
		return v.i == o.i
	case KindFloat:
		return v.f == o.f
	case KindText:
		return v.text == o.text
	case KindTime:
		return v.ts.Equal(o.ts)
	case KindList:
		if len(v.list) != len(o.list) {
			return false
		}
		for i := range v.list {
			if v.list[i] != o.list[i] {
				return false
			}
		}
	}
	return true
}

// MarshalJSON encodes Null as null, numbers as numbers, lists as arrays
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindInt:
		return json.Marshal(v.i)
	case KindFloat:
		return json.Marshal(v.f)
	case KindText:
		return json.Marshal(v.text)
	case KindList:
		return json.Marshal(v.list)
	case KindTime:
		return json.Marshal(v.ts.Format(time.RFC3339))
	}
	return []byte("null"), nil
}

// IsBlank reports whether a raw cell counts as unanswered: empty, whitespace
// only, or a NaN marker left behind by spreadsheet exports.
func IsBlank(s string) bool {
	t := strings.TrimSpace(s)
	if t == "" {
		return true
	}
	switch strings.ToLower(t) {
	case "nan", "nat", "<na>":
		return true
	}
	return false
}
