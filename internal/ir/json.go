package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"
)

// TimeKey is the single key of the JSON envelope that carries an IRTime:
//
//	{"$time": "2024-05-01T10:00:00Z"}
const TimeKey = "$time"

// MarshalIRValue encodes v as JSON. Object keys come out in SortedKeys
// order; nil encodes as null. Use MarshalCanonical for fingerprints.
func MarshalIRValue(v IRValue) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeJSON(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeJSON(buf *bytes.Buffer, v IRValue) error {
	var scalar any
	switch val := v.(type) {
	case nil, IRNull:
		buf.WriteString("null")
		return nil
	case IRString:
		scalar = string(val)
	case IRInt:
		scalar = int64(val)
	case IRFloat:
		if math.IsNaN(float64(val)) || math.IsInf(float64(val), 0) {
			return fmt.Errorf("float %v is not representable in JSON", float64(val))
		}
		scalar = float64(val)
	case IRBool:
		scalar = bool(val)
	case IRTime:
		return writeJSON(buf, IRObject{TimeKey: IRString(val.UTC().Format(time.RFC3339Nano))})
	case IRArray:
		buf.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeJSON(buf, elem); err != nil {
				return fmt.Errorf("array[%d]: %w", i, err)
			}
		}
		buf.WriteByte(']')
		return nil
	case IRObject:
		buf.WriteByte('{')
		for i, k := range val.SortedKeys() {
			if i > 0 {
				buf.WriteByte(',')
			}
			key, _ := json.Marshal(k)
			buf.Write(key)
			buf.WriteByte(':')
			if err := writeJSON(buf, val[k]); err != nil {
				return fmt.Errorf("object[%q]: %w", k, err)
			}
		}
		buf.WriteByte('}')
		return nil
	default:
		return fmt.Errorf("unknown IRValue type: %T", v)
	}

	data, err := json.Marshal(scalar)
	if err != nil {
		return err
	}
	buf.Write(data)
	return nil
}

func (IRNull) MarshalJSON() ([]byte, error) { return []byte("null"), nil }
func (t IRTime) MarshalJSON() ([]byte, error) { return MarshalIRValue(t) }
func (arr IRArray) MarshalJSON() ([]byte, error) { return MarshalIRValue(arr) }
func (obj IRObject) MarshalJSON() ([]byte, error) {
	return MarshalIRValue(obj)
}

// UnmarshalJSON decodes a JSON array; a {"$time"} element becomes IRTime.
func (arr *IRArray) UnmarshalJSON(data []byte) error {
	v, err := UnmarshalIRValue(data)
	if err != nil {
		return err
	}
	decoded, ok := v.(IRArray)
	if !ok {
		return fmt.Errorf("expected JSON array, got %s", KindOf(v))
	}
	*arr = decoded
	return nil
}

// UnmarshalJSON decodes a JSON object. The object itself is never turned
// into an IRTime, even when it is a {"$time"} envelope.
func (obj *IRObject) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(IRObject, len(raw))
	for k, field := range raw {
		v, err := UnmarshalIRValue(field)
		if err != nil {
			return fmt.Errorf("object[%q]: %w", k, err)
		}
		out[k] = v
	}
	*obj = out
	return nil
}

// UnmarshalIRValue decodes JSON into an IRValue.
//
// Integers become IRInt and numbers with a fraction or exponent IRFloat.
// null becomes IRNull and {"$time": "<RFC 3339>"} becomes IRTime.
func UnmarshalIRValue(data []byte) (IRValue, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	return FromNative(raw)
}

// FromNative converts a value produced by encoding/json, yaml.v3 or
// database/sql into an IRValue.
func FromNative(v any) (IRValue, error) {
	switch val := v.(type) {
	case nil:
		return IRNull{}, nil
	case IRValue:
		return val, nil
	case bool:
		return IRBool(val), nil
	case string:
		return IRString(val), nil
	case []byte:
		return IRString(val), nil
	case int:
		return IRInt(val), nil
	case int32:
		return IRInt(val), nil
	case int64:
		return IRInt(val), nil
	case uint32:
		return IRInt(val), nil
	case float32:
		return IRFloat(val), nil
	case float64:
		return IRFloat(val), nil
	case time.Time:
		return NewIRTime(val), nil
	case json.Number:
		return fromNumber(val)
	case []any:
		arr := make(IRArray, len(val))
		for i, elem := range val {
			converted, err := FromNative(elem)
			if err != nil {
				return nil, fmt.Errorf("array[%d]: %w", i, err)
			}
			arr[i] = converted
		}
		return arr, nil
	case map[string]any:
		if t, ok, err := timeFromObject(val); ok {
			return t, err
		}
		obj := make(IRObject, len(val))
		for k, elem := range val {
			converted, err := FromNative(elem)
			if err != nil {
				return nil, fmt.Errorf("object[%q]: %w", k, err)
			}
			obj[k] = converted
		}
		return obj, nil
	}
	return nil, fmt.Errorf("unsupported type: %T", v)
}

func fromNumber(n json.Number) (IRValue, error) {
	if strings.ContainsAny(n.String(), ".eE") {
		f, err := n.Float64()
		if err != nil {
			return nil, fmt.Errorf("invalid number %s: %w", n, err)
		}
		return IRFloat(f), nil
	}
	i, err := n.Int64()
	if err != nil {
		return nil, fmt.Errorf("number out of int64 range: %s", n)
	}
	return IRInt(i), nil
}

// timeFromObject reports ok when m is a {"$time"} envelope; err is set
// when the envelope is malformed.
func timeFromObject(m map[string]any) (v IRValue, ok bool, err error) {
	raw, found := m[TimeKey]
	if !found || len(m) != 1 {
		return nil, false, nil
	}
	s, isString := raw.(string)
	if !isString {
		return nil, true, fmt.Errorf("%s must hold an RFC 3339 string, got %T", TimeKey, raw)
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return nil, true, fmt.Errorf("%s: %w", TimeKey, err)
	}
	return NewIRTime(t), true, nil
}
