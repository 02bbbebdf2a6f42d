package socx

import (
	"bytes"
	"encoding/json"
)

// The platform does not use a uniform response envelope. Depending on the
// endpoint (and sometimes the platform version) a list may arrive as
// {"data":{"list":[...]}}, {"data":{"data":[...]}}, {"data":[...]},
// {"list":[...]} or a bare array. decodeList tries each known shape in order
// and returns the elements; unknown shapes decode to nil, never an error.
func decodeList(raw json.RawMessage) []json.RawMessage {
	return decodeListDepth(raw, 0)
}

func decodeListDepth(raw json.RawMessage, depth int) []json.RawMessage {
	if depth > 3 {
		return nil
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil
	}

	if raw[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil
		}
		return items
	}

	if raw[0] != '{' {
		return nil
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil
	}
	for _, key := range []string{"list", "rows", "data"} {
		if inner, ok := obj[key]; ok {
			if items := decodeListDepth(inner, depth+1); items != nil {
				return items
			}
		}
	}
	return nil
}

// decodeObject unwraps a single object that may or may not be wrapped in a
// "data" envelope.
func decodeObject(raw json.RawMessage, out interface{}) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '{' {
		var probe struct {
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(raw, &probe); err == nil && len(bytes.TrimSpace(probe.Data)) > 0 {
			inner := bytes.TrimSpace(probe.Data)
			if inner[0] == '{' {
				return json.Unmarshal(inner, out)
			}
		}
	}
	return json.Unmarshal(raw, out)
}

// FlexInt decodes JSON numbers that the platform sometimes serializes as
// strings ("8800") and sometimes as numbers (8800). Null and empty string
// decode to zero.
type FlexInt int

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexInt) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) || bytes.Equal(b, []byte(`""`)) {
		*f = 0
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		b = []byte(s)
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		*f = 0
		return nil
	}
	if i, err := n.Int64(); err == nil {
		*f = FlexInt(i)
		return nil
	}
	if fl, err := n.Float64(); err == nil {
		*f = FlexInt(fl)
		return nil
	}
	*f = 0
	return nil
}

// Int returns the value as a plain int.
func (f FlexInt) Int() int { return int(f) }

// FlexFloat is the float analogue of FlexInt.
type FlexFloat float64

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexFloat) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) || bytes.Equal(b, []byte(`""`)) {
		*f = 0
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		b = []byte(s)
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		*f = 0
		return nil
	}
	*f = FlexFloat(v)
	return nil
}

// Float returns the value as a plain float64.
func (f FlexFloat) Float() float64 { return float64(f) }
