package schema

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/goliatone/go-errors"
	"github.com/tidwall/gjson"
)

// PrimitiveType is the runtime type of a schema field.
type PrimitiveType int

const (
	TypeInvalid PrimitiveType = iota
	TypeInt
	TypeFloat
	TypeBool
	TypeString
	// TypeExecution marks a control-flow pseudo-field. It never carries a value.
	TypeExecution
)

func (t PrimitiveType) String() string {
	switch t {
	case TypeInt:
		return "int"
	case TypeFloat:
		return "float"
	case TypeBool:
		return "bool"
	case TypeString:
		return "string"
	case TypeExecution:
		return "execution"
	default:
		return "invalid"
	}
}

// Value is a closed tagged union over the scalar payloads a socket can hold.
// The zero Value is empty and reports TypeInvalid.
type Value struct {
	typ PrimitiveType
	i   int64
	f   float64
	b   bool
	s   string
}

func IntValue(v int64) Value     { return Value{typ: TypeInt, i: v} }
func FloatValue(v float64) Value { return Value{typ: TypeFloat, f: v} }
func BoolValue(v bool) Value     { return Value{typ: TypeBool, b: v} }
func StringValue(v string) Value { return Value{typ: TypeString, s: v} }

// ZeroValue returns the default payload for t, or an empty Value when t
// carries no scalar.
func ZeroValue(t PrimitiveType) Value {
	switch t {
	case TypeInt, TypeFloat, TypeBool, TypeString:
		return Value{typ: t}
	}
	return Value{}
}

func (v Value) Type() PrimitiveType { return v.typ }

// IsEmpty reports whether v holds no payload.
func (v Value) IsEmpty() bool { return v.typ == TypeInvalid }

func (v Value) Int() (int64, bool)     { return v.i, v.typ == TypeInt }
func (v Value) Float() (float64, bool) { return v.f, v.typ == TypeFloat }
func (v Value) Bool() (bool, bool)     { return v.b, v.typ == TypeBool }
func (v Value) Str() (string, bool)    { return v.s, v.typ == TypeString }

// Convert returns v expressed as t. Int and Float convert into each other;
// every other pairing must match exactly. Floats outside the int64 range
// do not convert.
func (v Value) Convert(t PrimitiveType) (Value, bool) {
	if v.typ == t {
		return v, !v.IsEmpty()
	}
	switch {
	case v.typ == TypeInt && t == TypeFloat:
		return FloatValue(float64(v.i)), true
	case v.typ == TypeFloat && t == TypeInt:
		// NaN fails both comparisons.
		if !(v.f >= -0x1p63 && v.f < 0x1p63) {
			return Value{}, false
		}
		return IntValue(int64(v.f)), true
	}
	return Value{}, false
}

func (v Value) Equal(o Value) bool {
	if v.typ != o.typ {
		return false
	}
	switch v.typ {
	case TypeInt:
		return v.i == o.i
	case TypeFloat:
		return v.f == o.f || (math.IsNaN(v.f) && math.IsNaN(o.f))
	case TypeBool:
		return v.b == o.b
	case TypeString:
		return v.s == o.s
	}
	return true
}

func (v Value) String() string {
	switch v.typ {
	case TypeInt:
		return strconv.FormatInt(v.i, 10)
	case TypeFloat:
		return formatFloat(v.f)
	case TypeBool:
		return strconv.FormatBool(v.b)
	case TypeString:
		return v.s
	}
	return ""
}

// MarshalJSON writes floats with a fractional part so that the engine and
// ValueFromJSON read them back as floats.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.typ {
	case TypeInt:
		return []byte(strconv.FormatInt(v.i, 10)), nil
	case TypeFloat:
		if math.IsNaN(v.f) || math.IsInf(v.f, 0) {
			return nil, errors.New("float value is not representable in JSON", errors.CategoryBadInput).
				WithTextCode("VALUE_NOT_FINITE").
				WithMetadata(map[string]any{"value": v.f})
		}
		return []byte(formatFloat(v.f)), nil
	case TypeBool:
		return []byte(strconv.FormatBool(v.b)), nil
	case TypeString:
		return json.Marshal(v.s)
	}
	return []byte("null"), nil
}

func formatFloat(f float64) string {
	out := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(out, ".eEnN") {
		out += ".0"
	}
	return out
}

// ValueFromJSON reads a scalar leaf. Numbers whose literal has no fraction or
// exponent are ints. Objects, arrays and null are not scalars.
func ValueFromJSON(r gjson.Result) (Value, bool) {
	switch r.Type {
	case gjson.True:
		return BoolValue(true), true
	case gjson.False:
		return BoolValue(false), true
	case gjson.String:
		return StringValue(r.String()), true
	case gjson.Number:
		if strings.ContainsAny(r.Raw, ".eE") {
			return FloatValue(r.Float()), true
		}
		n, err := strconv.ParseInt(r.Raw, 10, 64)
		if err != nil {
			return FloatValue(r.Float()), true
		}
		return IntValue(n), true
	}
	return Value{}, false
}
