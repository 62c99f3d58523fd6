package firestore

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Kind is the wire tag of a Firestore value
type Kind int

const (
	KindNull Kind = iota
	KindString
	KindInteger
	KindDouble
	KindBoolean
	KindTimestamp
	KindArray
	KindMap
)

var kindTags = map[Kind]string{
	KindNull:      "nullValue",
	KindString:    "stringValue",
	KindInteger:   "integerValue",
	KindDouble:    "doubleValue",
	KindBoolean:   "booleanValue",
	KindTimestamp: "timestampValue",
	KindArray:     "arrayValue",
	KindMap:       "mapValue",
}

func (k Kind) String() string {
	if tag, ok := kindTags[k]; ok {
		return tag
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// Value is a Firestore typed value. The zero Value is null.
type Value struct {
	kind    Kind
	str     string
	integer int64
	double  float64
	boolean bool
	ts      time.Time
	array   []Value
	fields  map[string]Value
}

func Null() Value { return Value{kind: KindNull} }
func String(s string) Value { return Value{kind: KindString, str: s} }
func Integer(n int64) Value { return Value{kind: KindInteger, integer: n} }
func Double(f float64) Value { return Value{kind: KindDouble, double: f} }
func Boolean(b bool) Value { return Value{kind: KindBoolean, boolean: b} }
func Timestamp(t time.Time) Value { return Value{kind: KindTimestamp, ts: t} }
func Array(values ...Value) Value { return Value{kind: KindArray, array: values} }
func Map(fields map[string]Value) Value { return Value{kind: KindMap, fields: fields} }

// Strings builds an array of string values
func Strings(items []string) Value {
	values := make([]Value, len(items))
	for i, s := range items {
		values[i] = String(s)
	}
	return Array(values...)
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) AsString() (string, bool) { return v.str, v.kind == KindString }

func (v Value) AsInteger() (int64, bool) { return v.integer, v.kind == KindInteger }

func (v Value) AsDouble() (float64, bool) { return v.double, v.kind == KindDouble }

func (v Value) AsBoolean() (bool, bool) { return v.boolean, v.kind == KindBoolean }

func (v Value) AsTimestamp() (time.Time, bool) { return v.ts, v.kind == KindTimestamp }

func (v Value) AsArray() ([]Value, bool) { return v.array, v.kind == KindArray }

func (v Value) AsMap() (map[string]Value, bool) { return v.fields, v.kind == KindMap }

type arrayWire struct {
	Values []Value `json:"values,omitempty"`
}

type mapWire struct {
	Fields map[string]Value `json:"fields,omitempty"`
}

func (v Value) MarshalJSON() ([]byte, error) {
	var payload interface{}
	switch v.kind {
	case KindNull:
		payload = nil
	case KindString:
		payload = v.str
	case KindInteger:
		// integers travel as decimal strings
		payload = strconv.FormatInt(v.integer, 10)
	case KindDouble:
		payload = v.double
	case KindBoolean:
		payload = v.boolean
	case KindTimestamp:
		payload = v.ts.UTC().Format(time.RFC3339Nano)
	case KindArray:
		payload = arrayWire{Values: v.array}
	case KindMap:
		payload = mapWire{Fields: v.fields}
	default:
		return nil, fmt.Errorf("firestore: cannot marshal value of kind %d", v.kind)
	}
	return json.Marshal(map[string]interface{}{kindTags[v.kind]: payload})
}

func (v *Value) UnmarshalJSON(data []byte) error {
	var tagged map[string]json.RawMessage
	if err := json.Unmarshal(data, &tagged); err != nil {
		return fmt.Errorf("firestore: value is not an object: %w", err)
	}
	if len(tagged) != 1 {
		return fmt.Errorf("firestore: value must have exactly one tag, got %d", len(tagged))
	}

	for tag, raw := range tagged {
		switch tag {
		case "nullValue":
			*v = Null()
		case "stringValue":
			var s string
			if err := json.Unmarshal(raw, &s); err != nil {
				return fmt.Errorf("firestore: stringValue: %w", err)
			}
			*v = String(s)
		case "integerValue":
			n, err := parseInteger(raw)
			if err != nil {
				return fmt.Errorf("firestore: integerValue: %w", err)
			}
			*v = Integer(n)
		case "doubleValue":
			var f float64
			if err := json.Unmarshal(raw, &f); err != nil {
				return fmt.Errorf("firestore: doubleValue: %w", err)
			}
			*v = Double(f)
		case "booleanValue":
			var b bool
			if err := json.Unmarshal(raw, &b); err != nil {
				return fmt.Errorf("firestore: booleanValue: %w", err)
			}
			*v = Boolean(b)
		case "timestampValue":
			var s string
			if err := json.Unmarshal(raw, &s); err != nil {
				return fmt.Errorf("firestore: timestampValue: %w", err)
			}
			t, err := time.Parse(time.RFC3339Nano, s)
			if err != nil {
				return fmt.Errorf("firestore: timestampValue: %w", err)
			}
			*v = Timestamp(t)
		case "arrayValue":
			var a arrayWire
			if err := json.Unmarshal(raw, &a); err != nil {
				return fmt.Errorf("firestore: arrayValue: %w", err)
			}
			*v = Array(a.Values...)
		case "mapValue":
			var m mapWire
			if err := json.Unmarshal(raw, &m); err != nil {
				return fmt.Errorf("firestore: mapValue: %w", err)
			}
			if m.Fields == nil {
				m.Fields = map[string]Value{}
			}
			*v = Map(m.Fields)
		default:
			return fmt.Errorf("firestore: unsupported value tag %q", tag)
		}
	}
	return nil
}

// parseInteger accepts the documented string form and a bare JSON number
func parseInteger(raw json.RawMessage) (int64, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strconv.ParseInt(s, 10, 64)
	}
	var n int64
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, err
	}
	return n, nil
}
