package entity

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// Kind discriminates the dynamic types a property value can hold.
type Kind int

// Supported property value kinds.
const (
	KindString Kind = iota
	KindNumber
	KindBool
	KindTime
)

// Value is a small tagged union for entity property values. Callers supply
// arbitrary JSON attributes (email, amount, stage); the tagged representation
// gives the relevance scorer a well-defined flattening contract instead of an
// untyped map.
type Value struct {
	kind Kind
	str  string
	num  float64
	b    bool
	t    time.Time
}

// Properties is the open key/value attribute bag on an entity.
type Properties map[string]Value

// String constructs a string-kinded value.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Number constructs a number-kinded value.
func Number(f float64) Value { return Value{kind: KindNumber, num: f} }

// Bool constructs a bool-kinded value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Time constructs a time-kinded value.
func Time(t time.Time) Value { return Value{kind: KindTime, t: t} }

// Kind returns the value's discriminator.
func (v Value) Kind() Kind { return v.kind }

// Flatten renders the value as the text the relevance scorer matches against.
func (v Value) Flatten() string {
	switch v.kind {
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindTime:
		return v.t.Format(time.RFC3339)
	default:
		return v.str
	}
}

// MarshalJSON encodes the value as its natural JSON type.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNumber:
		return json.Marshal(v.num)
	case KindBool:
		return json.Marshal(v.b)
	case KindTime:
		return json.Marshal(v.t)
	default:
		return json.Marshal(v.str)
	}
}

// MarshalCBOR encodes the value as its flattened text form. Used by the
// cache fingerprint, which only needs a deterministic content digest.
func (v Value) MarshalCBOR() ([]byte, error) {
	return cbor.Marshal(v.Flatten())
}

// UnmarshalJSON decodes a JSON scalar into the matching value kind.
// JSON strings in RFC 3339 form decode as times; objects and arrays are
// rejected since nested structures have no flattening contract.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch x := raw.(type) {
	case string:
		if t, err := time.Parse(time.RFC3339, x); err == nil {
			*v = Time(t)
			return nil
		}
		*v = String(x)
		return nil
	case float64:
		*v = Number(x)
		return nil
	case bool:
		*v = Bool(x)
		return nil
	case nil:
		*v = String("")
		return nil
	default:
		return fmt.Errorf("property values must be JSON scalars, got %T", raw)
	}
}
