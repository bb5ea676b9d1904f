package cim_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cimworks/mockwbem/cim"
)

func TestObjectPath_Equality(t *testing.T) {
	a := cim.NewInstancePath("root/cimv2", "CIM_Disk", []cim.KeyBinding{
		{Name: "SystemName", Value: "host-1"},
		{Name: "DeviceID", Value: "disk-0"},
	})
	b := cim.NewInstancePath("ROOT/CIMV2", "cim_disk", []cim.KeyBinding{
		{Name: "deviceid", Value: "DISK-0"},
		{Name: "systemname", Value: "HOST-1"},
	})

	assert.True(t, a.Equal(b), "case and key order do not matter")
	assert.Equal(t, a.Canonical(), b.Canonical())

	c := b.Clone()
	c.SetKeyBinding("DeviceID", "disk-1")
	assert.False(t, a.Equal(c))

	// The host does not participate in identity.
	d := a.Clone()
	d.Host = "server.example.com"
	assert.True(t, a.Equal(d))

	// Numeric keys compare by value, not by Go type.
	n1 := cim.NewInstancePath("root", "C", []cim.KeyBinding{{Name: "ID", Value: uint32(7)}})
	n2 := cim.NewInstancePath("root", "C", []cim.KeyBinding{{Name: "ID", Value: int64(7)}})
	assert.True(t, n1.Equal(n2))
}

func TestObjectPath_ReferenceKeyBindings(t *testing.T) {
	sys := cim.NewInstancePath("root/cimv2", "CIM_System",
		[]cim.KeyBinding{{Name: "Name", Value: "host-1"}})

	a := cim.NewInstancePath("root/cimv2", "CIM_SystemDevice",
		[]cim.KeyBinding{{Name: "GroupComponent", Value: sys}})
	b := cim.NewInstancePath("root/cimv2", "CIM_SystemDevice",
		[]cim.KeyBinding{{Name: "groupcomponent", Value: cim.NewInstancePath(
			"ROOT/CIMV2", "cim_system",
			[]cim.KeyBinding{{Name: "NAME", Value: "HOST-1"}})}})

	assert.True(t, a.Equal(b), "reference values compare canonically too")
}

func TestObjectPath_ClassVersusInstance(t *testing.T) {
	class := cim.NewClassPath("/root/cimv2/", "CIM_Disk")
	assert.True(t, class.IsClassPath())
	assert.Equal(t, "root/cimv2", class.Namespace, "surrounding slashes are stripped")

	inst := cim.NewInstancePath("root/cimv2", "CIM_Disk",
		[]cim.KeyBinding{{Name: "DeviceID", Value: "disk-0"}})
	assert.False(t, inst.IsClassPath())
	assert.False(t, class.Equal(inst))

	v, ok := inst.KeyBinding("deviceid")
	require.True(t, ok)
	assert.Equal(t, "disk-0", v)
	_, ok = inst.KeyBinding("absent")
	assert.False(t, ok)
}

func TestObjectPath_StringPreservesCase(t *testing.T) {
	p := cim.NewInstancePath("root/CIMv2", "CIM_Disk",
		[]cim.KeyBinding{{Name: "DeviceID", Value: "Disk-0"}})
	s := p.String()
	assert.Contains(t, s, "CIM_Disk")
	assert.Contains(t, s, `DeviceID="Disk-0"`)
}

func TestObjectPath_CloneIsDeep(t *testing.T) {
	inner := cim.NewInstancePath("root", "C", []cim.KeyBinding{{Name: "K", Value: "v"}})
	p := cim.NewInstancePath("root", "A", []cim.KeyBinding{{Name: "Ref", Value: inner}})

	q := p.Clone()
	got, ok := q.KeyBinding("Ref")
	require.True(t, ok)
	ref := got.(*cim.ObjectPath)
	ref.SetKeyBinding("K", "changed")

	orig, _ := p.KeyBinding("Ref")
	v, _ := orig.(*cim.ObjectPath).KeyBinding("K")
	assert.Equal(t, "v", v, "mutating the clone leaves the original alone")
}
