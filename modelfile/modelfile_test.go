package modelfile_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cimworks/mockwbem/cim"
	"github.com/cimworks/mockwbem/errors"
	"github.com/cimworks/mockwbem/modelfile"
	"github.com/cimworks/mockwbem/repo"
)

const model = `
namespaces:
  - name: root/cimv2
    standard_qualifiers: true
    qualifiers:
      - name: Counter
        type: boolean
        default: false
        scopes: [property]
        flavors:
          overridable: false
    classes:
      - name: CIM_ManagedElement
        qualifiers:
          - name: Abstract
            value: true
        properties:
          - name: Caption
            type: string
      - name: CIM_System
        super: CIM_ManagedElement
        properties:
          - name: Name
            type: string
            qualifiers:
              - name: Key
                value: true
          - name: Uptime
            type: uint64
            qualifiers:
              - name: Counter
                value: true
        methods:
          - name: Reset
            returns: uint32
            parameters:
              - name: Force
                type: boolean
                qualifiers:
                  - name: In
      - name: CIM_Dependency
        qualifiers:
          - name: Association
        properties:
          - name: Antecedent
            type: reference
            class: CIM_System
            qualifiers:
              - name: Key
          - name: Dependent
            type: reference
            class: CIM_System
            qualifiers:
              - name: Key
    instances:
      - class: CIM_System
        properties:
          Name: host-1
          Uptime: 3600
      - class: CIM_System
        properties:
          Name: host-2
      - class: CIM_Dependency
        properties:
          Antecedent:
            class: CIM_System
            keys:
              Name: host-1
          Dependent:
            class: CIM_System
            keys:
              Name: host-2
`

func TestLoad_FullModel(t *testing.T) {
	r := repo.New(repo.Options{})
	require.NoError(t, modelfile.Load(r, []byte(model)))

	assert.True(t, r.HasNamespace("root/cimv2"))

	// Declared qualifier landed alongside the standard set.
	decl, err := r.GetQualifier("root/cimv2", "Counter")
	require.NoError(t, err)
	assert.False(t, decl.Flavor.Overridable)

	// Classes resolved with inherited members.
	sys, err := r.GetClass("root/cimv2", "CIM_System", repo.GetOptions{IncludeQualifiers: true})
	require.NoError(t, err)
	require.NotNil(t, sys.Property("Caption"))
	require.NotNil(t, sys.Property("Name"))
	assert.True(t, sys.Property("Name").Qualifiers.HasTrue("Key"))
	require.NotNil(t, sys.Method("Reset"))
	assert.Equal(t, cim.TypeUint32, sys.Method("Reset").ReturnType)

	// A bare qualifier name means true: the association class is one.
	dep, err := r.GetClass("root/cimv2", "CIM_Dependency", repo.GetOptions{IncludeQualifiers: true})
	require.NoError(t, err)
	assert.True(t, dep.IsAssociation())

	// Instances were created through full validation, typed from the class.
	names, err := r.EnumerateInstanceNames("root/cimv2", "CIM_System")
	require.NoError(t, err)
	assert.Len(t, names, 2)

	host1 := cim.NewInstancePath("root/cimv2", "CIM_System",
		[]cim.KeyBinding{{Name: "Name", Value: "host-1"}})
	got, err := r.GetInstance(host1, repo.GetOptions{})
	require.NoError(t, err)
	uptime, _ := got.PropertyValue("Uptime")
	assert.Equal(t, int64(3600), uptime)

	// The reference-valued association instance traverses.
	targets, err := r.Associators(host1, repo.AssociatorFilter{}, repo.GetOptions{})
	require.NoError(t, err)
	require.Len(t, targets, 1)
	v, _ := targets[0].PropertyValue("Name")
	assert.Equal(t, "host-2", v)
}

func TestLoad_Idempotent(t *testing.T) {
	r := repo.New(repo.Options{})
	require.NoError(t, modelfile.Load(r, []byte(model)))

	// Loading again trips on the already-stored classes.
	err := modelfile.Load(r, []byte(model))
	assert.ErrorIs(t, err, errors.ErrAlreadyExists)
}

func TestLoad_Rejections(t *testing.T) {
	r := repo.New(repo.Options{})

	err := modelfile.Load(r, []byte("namespaces: [scalar"))
	assert.Error(t, err)

	err = modelfile.Load(r, []byte(`
namespaces:
  - name: root/x
    classes:
      - name: Bad
        properties:
          - name: P
            type: varchar
`))
	assert.ErrorIs(t, err, errors.ErrInvalidParameter)

	err = modelfile.Load(r, []byte(`
namespaces:
  - name: root/x
    qualifiers:
      - name: Q
        type: boolean
        scopes: [galaxy]
`))
	assert.ErrorIs(t, err, errors.ErrInvalidParameter)

	err = modelfile.Load(r, []byte("namespaces:\n  - standard_qualifiers: true\n"))
	assert.ErrorIs(t, err, errors.ErrUsage)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "model.yaml")
	require.NoError(t, os.WriteFile(path, []byte(model), 0o644))

	r := repo.New(repo.Options{})
	require.NoError(t, modelfile.LoadFile(r, path))
	assert.True(t, r.HasNamespace("root/cimv2"))

	err := modelfile.LoadFile(r, filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
