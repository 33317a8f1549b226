package ir

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func posInf() float64 { return math.Inf(1) }

func TestIRValueSealed(t *testing.T) {
	var _ IRValue = IRNull{}
	var _ IRValue = IRString("test")
	var _ IRValue = IRInt(42)
	var _ IRValue = IRFloat(4.2)
	var _ IRValue = IRBool(true)
	var _ IRValue = NewIRTime(time.Now())
	var _ IRValue = IRArray{IRString("a"), IRInt(1)}
	var _ IRValue = IRObject{"key": IRString("value")}
}

func TestIRObjectSortedKeysRFC8785Order(t *testing.T) {
	obj := IRObject{
		"a":  IRInt(1),
		"A":  IRInt(2),
		"aa": IRInt(3),
		"aA": IRInt(4),
		"Aa": IRInt(5),
		"AA": IRInt(6),
	}

	// 'A' = 65, 'a' = 97
	assert.Equal(t, []string{"A", "AA", "Aa", "a", "aA", "aa"}, obj.SortedKeys())
}

func TestSortedKeysUTF16Order(t *testing.T) {
	// U+1F600 encodes as surrogates 0xD83D 0xDE00 which sort before U+FF21 (0xFF21)
	// in UTF-16 but after it in UTF-8.
	obj := IRObject{"\uFF21": IRInt(1), "\U0001F600": IRInt(2)}
	assert.Equal(t, []string{"\U0001F600", "\uFF21"}, obj.SortedKeys())
}

func TestPrimitivePredicates(t *testing.T) {
	tests := []struct {
		name      string
		value     IRValue
		primitive bool
		ordered   bool
		null      bool
		kind      string
	}{
		{"nil", nil, false, false, true, "nil"},
		{"null", IRNull{}, false, false, true, "null"},
		{"string", IRString("x"), true, false, false, "string"},
		{"int", IRInt(1), true, true, false, "int"},
		{"float", IRFloat(1.5), true, true, false, "float"},
		{"bool", IRBool(false), true, false, false, "bool"},
		{"time", NewIRTime(time.Unix(0, 0)), true, true, false, "time"},
		{"array", IRArray{}, false, false, false, "array"},
		{"object", IRObject{}, false, false, false, "object"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.primitive, IsPrimitive(tt.value))
			assert.Equal(t, tt.ordered, IsOrdered(tt.value))
			assert.Equal(t, tt.null, IsNull(tt.value))
			assert.Equal(t, tt.kind, KindOf(tt.value))
		})
	}
}

func TestNewIRTimeNormalizesToUTC(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*60*60)
	v := NewIRTime(time.Date(2024, 1, 1, 7, 0, 0, 0, loc))
	assert.Equal(t, time.UTC, v.Location())
	assert.Equal(t, 12, v.Hour())
}

func TestUnmarshalIRValue(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected IRValue
	}{
		{"string", `"hi"`, IRString("hi")},
		{"int", `42`, IRInt(42)},
		{"negative int", `-7`, IRInt(-7)},
		{"float", `3.25`, IRFloat(3.25)},
		{"exponent", `1e3`, IRFloat(1000)},
		{"bool", `true`, IRBool(true)},
		{"null", `null`, IRNull{}},
		{"array", `[1,"a",null]`, IRArray{IRInt(1), IRString("a"), IRNull{}}},
		{"object", `{"a":{"b":[true]}}`, IRObject{"a": IRObject{"b": IRArray{IRBool(true)}}}},
		{"time", `{"$time":"2024-05-01T10:00:00Z"}`, NewIRTime(time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC))},
		{"time key among others is an object", `{"$time":"x","y":1}`, IRObject{"$time": IRString("x"), "y": IRInt(1)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := UnmarshalIRValue([]byte(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, v)
		})
	}
}

func TestUnmarshalIRValueErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"invalid json", `{`},
		{"bad time", `{"$time":"yesterday"}`},
		{"time not a string", `{"$time":5}`},
		{"int overflow", `99999999999999999999`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := UnmarshalIRValue([]byte(tt.input))
			assert.Error(t, err)
		})
	}
}

func TestMarshalIRValueRoundTrip(t *testing.T) {
	original := IRObject{
		"name":    IRString("ada"),
		"age":     IRInt(36),
		"score":   IRFloat(9.5),
		"active":  IRBool(true),
		"deleted": IRNull{},
		"born":    NewIRTime(time.Date(1815, 12, 10, 0, 0, 0, 0, time.UTC)),
		"tags":    IRArray{IRString("math"), IRString("engines")},
	}

	data, err := json.Marshal(original)
	require.NoError(t, err)

	var decoded IRObject
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, original, decoded)
}

func TestMarshalIRObjectKeyOrder(t *testing.T) {
	data, err := MarshalIRValue(IRObject{"b": IRInt(1), "a": IRInt(2)})
	require.NoError(t, err)
	assert.Equal(t, `{"a":2,"b":1}`, string(data))
}

func TestMarshalIRValueRejectsNaN(t *testing.T) {
	_, err := MarshalIRValue(IRFloat(math.NaN()))
	assert.Error(t, err)
}

func TestFromNative(t *testing.T) {
	when := time.Date(2020, 2, 2, 2, 2, 2, 0, time.UTC)
	v, err := FromNative(map[string]any{
		"i":  int64(1),
		"f":  2.5,
		"s":  []byte("bytes"),
		"t":  when,
		"n":  nil,
		"ls": []any{1, "x"},
	})
	require.NoError(t, err)
	assert.Equal(t, IRObject{
		"i":  IRInt(1),
		"f":  IRFloat(2.5),
		"s":  IRString("bytes"),
		"t":  NewIRTime(when),
		"n":  IRNull{},
		"ls": IRArray{IRInt(1), IRString("x")},
	}, v)

	_, err = FromNative(struct{}{})
	assert.Error(t, err)
}

func TestHelperConstructors(t *testing.T) {
	obj := NewIRObjectFromPairs(O("name", NewIRString("ada")), O("age", NewIRInt(36)))
	assert.Equal(t, IRObject{"name": IRString("ada"), "age": IRInt(36)}, obj)
	assert.Equal(t, IRArray{IRBool(true), IRFloat(1)}, NewIRArray(NewIRBool(true), NewIRFloat(1)))
	assert.Equal(t, IRObject{"k": IRNull{}}, NewIRObjectFromMap(map[string]IRValue{"k": IRNull{}}))
}

func TestIRArrayUnmarshalJSON(t *testing.T) {
	var arr IRArray
	require.NoError(t, json.Unmarshal([]byte(`[1,{"$time":"2024-05-01T10:00:00Z"}]`), &arr))
	assert.Equal(t, IRArray{IRInt(1), NewIRTime(time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC))}, arr)

	assert.Error(t, json.Unmarshal([]byte(`{"a":1}`), &arr))
}

func TestKindOf_Wrappers(t *testing.T) {
	assert.Equal(t, "string", KindOf(IRString("")))
	assert.Equal(t, "time", KindOf(IRTime{}))
}
