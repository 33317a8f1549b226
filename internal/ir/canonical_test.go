package ir

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonical(t *testing.T) {
	oslo := time.FixedZone("CEST", 2*60*60)

	tests := []struct {
		name  string
		input any
		want  string
	}{
		{"nil", nil, "null"},
		{"null", IRNull{}, "null"},
		{"string", IRString("ada"), `"ada"`},
		{"html kept", IRString("<a & b>"), `"<a & b>"`},
		{"int", IRInt(-18), "-18"},
		{"max int64", IRInt(9223372036854775807), "9223372036854775807"},
		{"fraction", IRFloat(1.5), "1.5"},
		{"integral float", IRFloat(30), "30"},
		{"tiny float", IRFloat(0.000001), "1e-06"},
		{"bool", IRBool(false), "false"},
		{"time in utc", NewIRTime(time.Date(2024, 5, 1, 12, 0, 0, 0, oslo)), `{"$time":"2024-05-01T10:00:00Z"}`},
		{"empty containers", IRArray{IRArray{}, IRObject{}}, "[[],{}]"},
		{"filter", IRObject{"value": IRInt(18), "operator": IRString("GREATER_THAN"), "field": IRString("age")},
			`{"field":"age","operator":"GREATER_THAN","value":18}`},
		{"nested keys sorted", IRObject{"z": IRObject{"b": IRInt(1), "a": IRInt(2)}, "a": IRInt(3)}, `{"a":3,"z":{"a":2,"b":1}}`},
		{"native map", map[string]any{"take": int64(10), "skip": 0}, `{"skip":0,"take":10}`},
		{"native slice", []any{"x", true}, `["x",true]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MarshalCanonical(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestMarshalCanonical_Errors(t *testing.T) {
	_, err := MarshalCanonical(IRObject{"range": IRArray{IRFloat(1), IRFloat(posInf())}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `object["range"]: array[1]`)

	_, err = MarshalCanonical(struct{}{})
	assert.Error(t, err)
}

func TestMarshalCanonical_NFC(t *testing.T) {
	composed, err := MarshalCanonical(IRObject{"caf\u00e9": IRString("caf\u00e9")})
	require.NoError(t, err)
	decomposed, err := MarshalCanonical(IRObject{"cafe\u0301": IRString("cafe\u0301")})
	require.NoError(t, err)

	assert.Equal(t, string(composed), string(decomposed))
}

func TestMarshalCanonical_LineSeparators(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"literal characters", "a\u2028b\u2029c", "\"a\u2028b\u2029c\""},
		{"escaped backslash text", `\u2028`, `"\\u2028"`},
		{"both", "x \\u2028 y \u2028", "\"x \\\\u2028 y \u2028\""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MarshalCanonical(IRString(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestMarshalCanonical_StableThroughJSON(t *testing.T) {
	values := []IRValue{
		IRFloat(-2.25),
		NewIRTime(time.Date(2023, 1, 2, 3, 4, 5, 600, time.UTC)),
		IRObject{
			"logical_operator": IRString("OR"),
			"items": IRArray{
				IRObject{"field": IRString("tags"), "value": IRArray{IRString("go")}},
				IRObject{"field": IRString("deleted_at"), "value": IRNull{}},
			},
		},
	}

	for _, v := range values {
		first, err := MarshalCanonical(v)
		require.NoError(t, err)

		decoded, err := UnmarshalIRValue(first)
		require.NoError(t, err)

		second, err := MarshalCanonical(decoded)
		require.NoError(t, err)
		assert.Equal(t, string(first), string(second))
	}
}
