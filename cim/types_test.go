package cim_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cimworks/mockwbem/cim"
)

func TestParseType(t *testing.T) {
	got, ok := cim.ParseType("uint32")
	assert.True(t, ok)
	assert.Equal(t, cim.TypeUint32, got)

	got, ok = cim.ParseType("STRING")
	assert.True(t, ok)
	assert.Equal(t, cim.TypeString, got)

	_, ok = cim.ParseType("varchar")
	assert.False(t, ok)
}

func TestValueCompatible(t *testing.T) {
	tests := []struct {
		name    string
		value   interface{}
		typ     cim.Type
		isArray bool
		want    bool
	}{
		{"nil matches anything", nil, cim.TypeUint64, false, true},
		{"string", "x", cim.TypeString, false, true},
		{"string for uint", "x", cim.TypeUint32, false, false},
		{"bool", true, cim.TypeBoolean, false, true},
		{"typed uint", uint16(5), cim.TypeUint16, false, true},
		{"untyped nonnegative int for uint", 5, cim.TypeUint32, false, true},
		{"negative int for uint", -1, cim.TypeUint32, false, false},
		{"int for sint", -12, cim.TypeSint32, false, true},
		{"float for real", 1.5, cim.TypeReal64, false, true},
		{"reference", cim.NewClassPath("root", "C"), cim.TypeReference, false, true},
		{"non-path for reference", "root:C", cim.TypeReference, false, false},
		{"array of strings", []interface{}{"a", "b"}, cim.TypeString, true, true},
		{"array with nil element", []interface{}{"a", nil}, cim.TypeString, true, true},
		{"mixed array", []interface{}{"a", 1}, cim.TypeString, true, false},
		{"scalar where array declared", "a", cim.TypeString, true, false},
		{"array where scalar declared", []interface{}{"a"}, cim.TypeString, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cim.ValueCompatible(tt.value, tt.typ, tt.isArray))
		})
	}
}

func TestValueEqual(t *testing.T) {
	assert.True(t, cim.ValueEqual("Disk-0", "DISK-0"), "strings compare folded")
	assert.True(t, cim.ValueEqual(uint8(3), int64(3)), "numerics compare by value")
	assert.True(t, cim.ValueEqual(float64(2), 2))
	assert.True(t, cim.ValueEqual(true, true))
	assert.False(t, cim.ValueEqual(true, "true2"))
	assert.False(t, cim.ValueEqual(1, 2))
	assert.True(t, cim.ValueEqual(nil, nil))
	assert.False(t, cim.ValueEqual(nil, 0))
	assert.True(t, cim.ValueEqual(
		[]interface{}{"A", 1},
		[]interface{}{"a", int64(1)}))
}

func TestCopyValue(t *testing.T) {
	arr := []interface{}{"a", []interface{}{"nested"}}
	cp := cim.CopyValue(arr).([]interface{})
	cp[0] = "changed"
	cp[1].([]interface{})[0] = "changed"
	assert.Equal(t, "a", arr[0])
	assert.Equal(t, "nested", arr[1].([]interface{})[0])
}
