package store

import (
	"bytes"
	"fmt"
	"time"

	"github.com/roach88/criteria/internal/ir"
	"github.com/roach88/criteria/internal/querysql"
)

// encodeValue converts a row value into a bind parameter.
func encodeValue(v ir.IRValue) (any, error) {
	return querysql.ToParam(v)
}

// decodeValue converts a scanned column back into an IRValue. Text that
// parses as a JSON array or object, or as a TimeLayout time, is restored to
// the value it was written from.
func decodeValue(raw any) (ir.IRValue, error) {
	switch v := raw.(type) {
	case []byte:
		return decodeText(string(v))
	case string:
		return decodeText(v)
	case time.Time:
		return ir.NewIRTime(v), nil
	default:
		val, err := ir.FromNative(v)
		if err != nil {
			return nil, fmt.Errorf("decode column: %w", err)
		}
		return val, nil
	}
}

func decodeText(s string) (ir.IRValue, error) {
	if len(s) == len(querysql.TimeLayout) {
		if t, err := time.Parse(querysql.TimeLayout, s); err == nil {
			return ir.NewIRTime(t), nil
		}
	}
	trimmed := bytes.TrimSpace([]byte(s))
	if len(trimmed) > 1 && (trimmed[0] == '[' || trimmed[0] == '{') {
		if v, err := ir.UnmarshalIRValue(trimmed); err == nil {
			return v, nil
		}
	}
	return ir.IRString(s), nil
}
