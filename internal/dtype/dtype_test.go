package dtype

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWireType(t *testing.T) {
	cases := map[string]string{
		"int64":   Int64,
		"float64": Double,
		"double":  Double,
		"half":    Half,
		"string":  String,
		"uint32":  Uint32,
		"quint16": Quint16,
	}
	for native, want := range cases {
		t.Run(native, func(t *testing.T) {
			got, ok := WireType(native)
			assert.True(t, ok)
			assert.Equal(t, want, got)
		})
	}

	_, ok := WireType("object")
	assert.False(t, ok, "unmapped native types must not default")
}

func TestProfile(t *testing.T) {
	p, _ := Profile("string")
	assert.Equal(t, ProfileText, p)
	p, _ = Profile("int8")
	assert.Equal(t, ProfileNumerical, p)
	p, _ = Profile("complex128")
	assert.Equal(t, ProfileNone, p)
	p, _ = Profile("bool")
	assert.Equal(t, ProfileNone, p)
}

func TestValueSlot(t *testing.T) {
	tests := []struct {
		wire string
		slot string
		ok   bool
	}{
		{Int64, SlotInt64, true},
		{Int16, SlotInt, true},
		{Uint16, SlotInt, true},
		{Uint64, SlotUint64, true},
		{Double, SlotDouble, true},
		{Complex64, SlotSComplex, true},
		{Qint8, "", false},
		{Variant, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.wire, func(t *testing.T) {
			slot, ok := ValueSlot(tt.wire)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.slot, slot)
		})
	}
}

func TestEveryWireTypeHasProfile(t *testing.T) {
	for native := range wireTypes {
		_, ok := Profile(native)
		assert.True(t, ok, "missing profile for %s", native)
	}
}
