package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/criteria/internal/ir"
)

func TestDecodeValue(t *testing.T) {
	tests := []struct {
		name string
		raw  any
		want ir.IRValue
	}{
		{"nil", nil, ir.IRNull{}},
		{"int", int64(4), ir.IRInt(4)},
		{"float", 1.5, ir.IRFloat(1.5)},
		{"text", "hello", ir.IRString("hello")},
		{"bytes", []byte("hello"), ir.IRString("hello")},
		{"time layout", "2024-05-01T12:00:00.000000000Z", ir.NewIRTime(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))},
		{"json array", `["a",1]`, ir.IRArray{ir.IRString("a"), ir.IRInt(1)}},
		{"json object", `{"a":true}`, ir.IRObject{"a": ir.IRBool(true)}},
		{"bracketed text", "[draft]", ir.IRString("[draft]")},
		{"native time", time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), ir.NewIRTime(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeValue(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRegexpMatch(t *testing.T) {
	ok, err := regexpMatch(`^a\d+$`, "a42")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = regexpMatch(`^a\d+$`, []byte("b42"))
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = regexpMatch(`x`, nil)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = regexpMatch(`(`, "a")
	assert.Error(t, err)
}
