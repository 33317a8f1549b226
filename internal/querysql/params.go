package querysql

import (
	"fmt"
	"time"

	"github.com/roach88/criteria/internal/ir"
)

// TimeLayout is the fixed-width UTC text form times are stored and bound
// in, so that text comparison orders them chronologically.
const TimeLayout = "2006-01-02T15:04:05.000000000Z"

// FormatTime renders t in TimeLayout.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// ToParam converts an IRValue to a database/sql argument. Arrays and
// objects become JSON text, times become TimeLayout text.
func ToParam(v ir.IRValue) (any, error) {
	switch val := v.(type) {
	case nil, ir.IRNull:
		return nil, nil
	case ir.IRString:
		return string(val), nil
	case ir.IRInt:
		return int64(val), nil
	case ir.IRFloat:
		return float64(val), nil
	case ir.IRBool:
		return bool(val), nil
	case ir.IRTime:
		return FormatTime(val.Time), nil
	case ir.IRArray, ir.IRObject:
		return marshalJSONParam(val)
	default:
		return nil, fmt.Errorf("unsupported IRValue type for SQL parameter: %T", v)
	}
}

func marshalJSONParam(v ir.IRValue) (string, error) {
	data, err := ir.MarshalIRValue(v)
	if err != nil {
		return "", fmt.Errorf("encode JSON parameter: %w", err)
	}
	return string(data), nil
}
