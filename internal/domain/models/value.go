package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Kind tags the representation a field value was decoded into.
type Kind uint8

const (
	KindMissing Kind = iota
	KindNumber
	KindText
	KindDate
)

// Value is a single field value. The kind is decided once at ingestion so the
// filter, sort and aggregation stages branch on a closed set of tags.
type Value struct {
	kind Kind
	num  float64
	text string
	date time.Time
}

// Missing returns the absent value.
func Missing() Value { return Value{} }

// Number wraps a numeric value.
func Number(n float64) Value { return Value{kind: KindNumber, num: n} }

// Text wraps a textual value.
func Text(s string) Value { return Value{kind: KindText, text: s} }

// Date wraps a native date value.
func Date(t time.Time) Value { return Value{kind: KindDate, date: t} }

func (v Value) Kind() Kind { return v.kind }
func (v Value) IsMissing() bool { return v.kind == KindMissing }
func (v Value) Num() float64 { return v.num }
func (v Value) Str() string { return v.text }
func (v Value) Time() time.Time { return v.date }
func (v Value) IsNumber() bool { return v.kind == KindNumber }
func (v Value) IsText() bool { return v.kind == KindText }
func (v Value) IsDate() bool { return v.kind == KindDate }
func (v Value) String() string { return v.SortText() }

// SortText renders the value for text comparison. Missing values become the
// empty string.
func (v Value) SortText() string {
	switch v.kind {
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindText:
		return v.text
	case KindDate:
		return v.date.Format(time.RFC3339)
	default:
		return ""
	}
}

// Float coerces the value for aggregation: numbers as-is, text through a
// leading-number parse, everything else 0.
func (v Value) Float() float64 {
	switch v.kind {
	case KindNumber:
		return v.num
	case KindText:
		f, ok := ParseLeadingFloat(v.text)
		if !ok {
			return 0
		}
		return f
	default:
		return 0
	}
}

// MarshalJSON renders the value back into plain JSON.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNumber:
		return json.Marshal(v.num)
	case KindText:
		return json.Marshal(v.text)
	case KindDate:
		return json.Marshal(v.date)
	default:
		return []byte("null"), nil
	}
}

func valueFromJSON(raw any) Value {
	switch t := raw.(type) {
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return Missing()
		}
		return Number(f)
	case float64:
		return Number(t)
	case string:
		return Text(t)
	default:
		return Missing()
	}
}

// Record is one flat row of station-day, truck-trip or stock-summary data.
type Record map[string]Value

// Get returns the named field, or Missing when absent.
func (r Record) Get(key string) Value {
	if r == nil {
		return Missing()
	}
	return r[key]
}

// Branch returns the record's station name, or "" when it is not text.
func (r Record) Branch() string {
	v := r.Get(FieldBranch)
	if !v.IsText() {
		return ""
	}
	return v.Str()
}

// UnmarshalJSON decodes a flat JSON object, tagging each value once.
func (r *Record) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return fmt.Errorf("decode record: %w", err)
	}
	if raw == nil {
		*r = nil
		return nil
	}

	out := make(Record, len(raw))
	for k, v := range raw {
		out[k] = valueFromJSON(v)
	}
	*r = out
	return nil
}

// ParseLeadingFloat parses the longest numeric prefix of s after leading
// whitespace, the way form inputs are coerced on the dashboard ("12.5kg" is 12.5).
func ParseLeadingFloat(s string) (float64, bool) {
	i := 0
	for i < len(s) && isSpace(s[i]) {
		i++
	}
	start := i
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	digits := 0
	for i < len(s) && isDigit(s[i]) {
		i++
		digits++
	}
	if i < len(s) && s[i] == '.' {
		i++
		for i < len(s) && isDigit(s[i]) {
			i++
			digits++
		}
	}
	if digits == 0 {
		return 0, false
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		k := j
		for k < len(s) && isDigit(s[k]) {
			k++
		}
		if k > j {
			i = k
		}
	}
	f, err := strconv.ParseFloat(s[start:i], 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// ParseLeadingInt parses the longest integer prefix of s after leading
// whitespace.
func ParseLeadingInt(s string) (int, bool) {
	i := 0
	for i < len(s) && isSpace(s[i]) {
		i++
	}
	start := i
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	digitsStart := i
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	if i == digitsStart {
		return 0, false
	}
	n, err := strconv.Atoi(s[start:i])
	if err != nil {
		return 0, false
	}
	return n, true
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == '\f' || b == '\v'
}
