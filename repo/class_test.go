package repo_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cimworks/mockwbem/cim"
	"github.com/cimworks/mockwbem/errors"
	"github.com/cimworks/mockwbem/repo"
)

func TestClass_InheritanceResolution(t *testing.T) {
	r := newTestRepository(t)
	loadTestSchema(t, r)

	cs, err := r.GetClass(testNamespace, "cim_computersystem", repo.GetOptions{
		IncludeQualifiers:  true,
		IncludeClassOrigin: true,
	})
	require.NoError(t, err, "class lookup is case-insensitive")
	assert.Equal(t, "CIM_ComputerSystem", cs.Name)
	assert.Equal(t, "CIM_System", cs.SuperClass)

	// The full member set is visible, with provenance.
	name := cs.Property("Name")
	require.NotNil(t, name)
	assert.True(t, name.Propagated)
	assert.Equal(t, "CIM_System", name.ClassOrigin)
	assert.True(t, name.Qualifiers.HasTrue("Key"), "Key propagates to subclasses")

	caption := cs.Property("Caption")
	require.NotNil(t, caption)
	assert.Equal(t, "CIM_ManagedElement", caption.ClassOrigin)

	model := cs.Property("Model")
	require.NotNil(t, model)
	assert.False(t, model.Propagated)
	assert.Equal(t, "CIM_ComputerSystem", model.ClassOrigin)

	reset := cs.Method("Reset")
	require.NotNil(t, reset)
	assert.True(t, reset.Propagated)
	assert.Equal(t, "CIM_System", reset.ClassOrigin)

	// Abstract does not carry ToSubclass, so the subclass is concrete.
	assert.False(t, cs.IsAbstract())
}

func TestClass_GetFilters(t *testing.T) {
	r := newTestRepository(t)
	loadTestSchema(t, r)

	// Defaults: no qualifiers, no class origin.
	cs, err := r.GetClass(testNamespace, "CIM_ComputerSystem", repo.GetOptions{})
	require.NoError(t, err)
	assert.Empty(t, cs.Qualifiers)
	require.NotNil(t, cs.Property("Name"))
	assert.Empty(t, cs.Property("Name").Qualifiers)
	assert.Empty(t, cs.Property("Name").ClassOrigin)

	// LocalOnly keeps only members the class itself declares.
	local, err := r.GetClass(testNamespace, "CIM_ComputerSystem", repo.GetOptions{LocalOnly: true})
	require.NoError(t, err)
	assert.Len(t, local.Properties, 1)
	assert.NotNil(t, local.Property("Model"))
	assert.Empty(t, local.Methods)

	// PropertyList: nil means all, empty means none, unknown names drop.
	none, err := r.GetClass(testNamespace, "CIM_System", repo.GetOptions{PropertyList: []string{}})
	require.NoError(t, err)
	assert.Empty(t, none.Properties)

	some, err := r.GetClass(testNamespace, "CIM_System", repo.GetOptions{
		PropertyList: []string{"name", "NoSuchProperty"},
	})
	require.NoError(t, err)
	assert.Len(t, some.Properties, 1)
	assert.NotNil(t, some.Property("Name"))

	_, err = r.GetClass(testNamespace, "CIM_Missing", repo.GetOptions{})
	assert.ErrorIs(t, err, errors.ErrNotFound)
}

func TestClass_PropertyOverride(t *testing.T) {
	r := newTestRepository(t)

	require.NoError(t, r.CreateClass(testNamespace, &cim.Class{
		Name: "Shape",
		Properties: []cim.Property{
			{Name: "Color", Type: cim.TypeString, Value: "blue"},
		},
	}))
	require.NoError(t, r.CreateClass(testNamespace, &cim.Class{
		Name:       "Square",
		SuperClass: "Shape",
		Properties: []cim.Property{
			{
				Name: "Color", Type: cim.TypeString, Value: "red",
				Qualifiers: cim.Qualifiers{{Name: "Override", Value: "Color"}},
			},
		},
	}))

	sq, err := r.GetClass(testNamespace, "Square", repo.GetOptions{
		IncludeQualifiers:  true,
		IncludeClassOrigin: true,
	})
	require.NoError(t, err)

	color := sq.Property("Color")
	require.NotNil(t, color)
	assert.Equal(t, "red", color.Value, "override replaces the default value")
	assert.True(t, color.Propagated, "overridden member stays an inherited member")
	assert.Equal(t, "Shape", color.ClassOrigin, "origin is where the member was introduced")

	// An Override naming nothing inherited is rejected.
	err = r.CreateClass(testNamespace, &cim.Class{
		Name:       "Circle",
		SuperClass: "Shape",
		Properties: []cim.Property{
			{
				Name: "Radius", Type: cim.TypeReal64,
				Qualifiers: cim.Qualifiers{{Name: "Override", Value: "NoSuch"}},
			},
		},
	})
	assert.ErrorIs(t, err, errors.ErrInvalidParameter)

	// An override must keep the inherited type.
	err = r.CreateClass(testNamespace, &cim.Class{
		Name:       "Triangle",
		SuperClass: "Shape",
		Properties: []cim.Property{
			{
				Name: "Color", Type: cim.TypeUint32,
				Qualifiers: cim.Qualifiers{{Name: "Override", Value: "Color"}},
			},
		},
	})
	assert.ErrorIs(t, err, errors.ErrInvalidParameter)

	// Redeclaring an inherited property without Override is rejected.
	err = r.CreateClass(testNamespace, &cim.Class{
		Name:       "Rectangle",
		SuperClass: "Shape",
		Properties: []cim.Property{
			{Name: "Color", Type: cim.TypeString},
		},
	})
	assert.ErrorIs(t, err, errors.ErrInvalidParameter)
}

func TestClass_NonOverridableQualifier(t *testing.T) {
	r := newTestRepository(t)
	loadTestSchema(t, r)

	// Key has Overridable=false: a subclass cannot flip it on an inherited
	// key property.
	err := r.CreateClass(testNamespace, &cim.Class{
		Name:       "LooseSystem",
		SuperClass: "CIM_System",
		Properties: []cim.Property{
			{
				Name: "Name", Type: cim.TypeString,
				Qualifiers: cim.Qualifiers{
					{Name: "Override", Value: "Name"},
					{Name: "Key", Value: false},
				},
			},
		},
	})
	assert.ErrorIs(t, err, errors.ErrInvalidParameter)
}

func TestClass_QualifierScopeEnforced(t *testing.T) {
	r := newTestRepository(t)

	// In is a parameter-scope qualifier; using it on a class is rejected.
	err := r.CreateClass(testNamespace, &cim.Class{
		Name:       "Misplaced",
		Qualifiers: cim.Qualifiers{{Name: "In", Value: true}},
	})
	assert.ErrorIs(t, err, errors.ErrInvalidParameter)

	// Association scope is allowed only once the class is an association.
	err = r.CreateClass(testNamespace, &cim.Class{
		Name:       "NotAnAssoc",
		Qualifiers: cim.Qualifiers{{Name: "Association", Value: false}},
	})
	assert.ErrorIs(t, err, errors.ErrInvalidParameter)
}

func TestClass_CreateValidation(t *testing.T) {
	r := newTestRepository(t)
	loadTestSchema(t, r)

	err := r.CreateClass(testNamespace, &cim.Class{Name: "CIM_System"})
	assert.ErrorIs(t, err, errors.ErrAlreadyExists)

	err = r.CreateClass(testNamespace, &cim.Class{
		Name: "Orphan", SuperClass: "CIM_Missing",
	})
	assert.ErrorIs(t, err, errors.ErrInvalidSuperclass)

	// Reference properties must name an existing class.
	err = r.CreateClass(testNamespace, &cim.Class{
		Name: "BadRef",
		Properties: []cim.Property{
			{Name: "Target", Type: cim.TypeReference, ReferenceClass: "CIM_Missing"},
		},
	})
	assert.ErrorIs(t, err, errors.ErrInvalidParameter)

	// Default values must match the declared type.
	err = r.CreateClass(testNamespace, &cim.Class{
		Name: "BadDefault",
		Properties: []cim.Property{
			{Name: "Count", Type: cim.TypeUint32, Value: "many"},
		},
	})
	assert.ErrorIs(t, err, errors.ErrInvalidParameter)
}

func TestClass_DeleteGuards(t *testing.T) {
	r := newTestRepository(t)
	loadTestSchema(t, r)

	err := r.DeleteClass(testNamespace, "CIM_System")
	assert.ErrorIs(t, err, errors.ErrClassHasChildren)

	createSystem(t, r, "host-1")
	err = r.DeleteClass(testNamespace, "CIM_ComputerSystem")
	assert.ErrorIs(t, err, errors.ErrClassHasInstances)

	err = r.DeleteClass(testNamespace, "CIM_Missing")
	assert.ErrorIs(t, err, errors.ErrNotFound)

	// Leaf class with no instances deletes cleanly.
	require.NoError(t, r.DeleteClass(testNamespace, "CIM_SystemDevice"))
	_, err = r.GetClass(testNamespace, "CIM_SystemDevice", repo.GetOptions{})
	assert.ErrorIs(t, err, errors.ErrNotFound)
}

func TestClass_ModifySuperclassGuards(t *testing.T) {
	r := newTestRepository(t)
	loadTestSchema(t, r)

	// Changing the superclass of a class with subclasses is rejected.
	err := r.ModifyClass(testNamespace, &cim.Class{
		Name: "CIM_System",
		Properties: []cim.Property{
			{
				Name: "Name", Type: cim.TypeString,
				Qualifiers: cim.Qualifiers{{Name: "Key", Value: true}},
			},
		},
	})
	assert.ErrorIs(t, err, errors.ErrClassHasChildren)

	// Changing the superclass of a class with instances is rejected.
	createDisk(t, r, "disk-0")
	err = r.ModifyClass(testNamespace, &cim.Class{
		Name: "CIM_Disk",
		Properties: []cim.Property{
			{
				Name: "DeviceID", Type: cim.TypeString,
				Qualifiers: cim.Qualifiers{{Name: "Key", Value: true}},
			},
		},
	})
	assert.ErrorIs(t, err, errors.ErrClassHasInstances)

	err = r.ModifyClass(testNamespace, &cim.Class{Name: "CIM_Missing"})
	assert.ErrorIs(t, err, errors.ErrNotFound)

	// Keeping the superclass, a modify that still validates goes through.
	modified := &cim.Class{
		Name:       "CIM_ComputerSystem",
		SuperClass: "CIM_System",
		Properties: []cim.Property{
			{Name: "Model", Type: cim.TypeString},
			{Name: "SerialNumber", Type: cim.TypeString},
		},
	}
	require.NoError(t, r.ModifyClass(testNamespace, modified))
	got, err := r.GetClass(testNamespace, "CIM_ComputerSystem", repo.GetOptions{})
	require.NoError(t, err)
	assert.NotNil(t, got.Property("SerialNumber"))
	assert.NotNil(t, got.Property("Name"), "inherited members survive the modify")
}

func TestClass_EnumerateNames(t *testing.T) {
	r := newTestRepository(t)
	loadTestSchema(t, r)

	roots, err := r.EnumerateClassNames(testNamespace, "", false)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"CIM_ManagedElement", "CIM_SystemDevice"}, roots)

	deep, err := r.EnumerateClassNames(testNamespace, "", true)
	require.NoError(t, err)
	assert.Len(t, deep, 5)

	children, err := r.EnumerateClassNames(testNamespace, "CIM_ManagedElement", false)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"CIM_System", "CIM_Disk"}, children)

	subtree, err := r.EnumerateClassNames(testNamespace, "CIM_ManagedElement", true)
	require.NoError(t, err)
	assert.ElementsMatch(t,
		[]string{"CIM_System", "CIM_ComputerSystem", "CIM_Disk"}, subtree)

	_, err = r.EnumerateClassNames(testNamespace, "CIM_Missing", true)
	assert.ErrorIs(t, err, errors.ErrInvalidClass)

	classes, err := r.EnumerateClasses(testNamespace, "CIM_ManagedElement", false, repo.GetOptions{})
	require.NoError(t, err)
	assert.Len(t, classes, 2)
	for _, c := range classes {
		assert.NotNil(t, c.Property("Caption"), "enumerated classes come back resolved")
	}
}
