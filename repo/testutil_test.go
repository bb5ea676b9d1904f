package repo_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cimworks/mockwbem/cim"
	"github.com/cimworks/mockwbem/repo"
)

const testNamespace = "root/cimv2"

// newTestRepository returns a repository with the test namespace created and
// the standard qualifier declarations installed.
func newTestRepository(t *testing.T) *repo.Repository {
	t.Helper()
	r := repo.New(repo.Options{})
	_, err := r.CreateNamespace(testNamespace)
	require.NoError(t, err)
	for _, decl := range cim.StandardQualifiers() {
		require.NoError(t, r.SetQualifier(testNamespace, decl))
	}
	return r
}

// loadTestSchema installs a small systems-management schema:
//
//	CIM_ManagedElement (abstract)
//	├── CIM_System        key Name,     property Status
//	│   └── CIM_ComputerSystem          property Model
//	├── CIM_Disk          key DeviceID, property SizeBytes
//	└── CIM_SystemDevice  association System <-> Device
func loadTestSchema(t *testing.T, r *repo.Repository) {
	t.Helper()

	managedElement := &cim.Class{
		Name: "CIM_ManagedElement",
		Qualifiers: cim.Qualifiers{
			{Name: "Abstract", Value: true},
		},
		Properties: []cim.Property{
			{Name: "Caption", Type: cim.TypeString},
			{Name: "Description", Type: cim.TypeString},
		},
	}
	require.NoError(t, r.CreateClass(testNamespace, managedElement))

	system := &cim.Class{
		Name:       "CIM_System",
		SuperClass: "CIM_ManagedElement",
		Properties: []cim.Property{
			{
				Name: "Name", Type: cim.TypeString,
				Qualifiers: cim.Qualifiers{{Name: "Key", Value: true}},
			},
			{Name: "Status", Type: cim.TypeUint32},
		},
		Methods: []cim.Method{
			{
				Name:       "Reset",
				ReturnType: cim.TypeUint32,
				Parameters: []cim.Parameter{
					{
						Name: "Force", Type: cim.TypeBoolean,
						Qualifiers: cim.Qualifiers{{Name: "In", Value: true}},
					},
					{
						Name: "Job", Type: cim.TypeString,
						Qualifiers: cim.Qualifiers{{Name: "Out", Value: true}},
					},
				},
			},
		},
	}
	require.NoError(t, r.CreateClass(testNamespace, system))

	computerSystem := &cim.Class{
		Name:       "CIM_ComputerSystem",
		SuperClass: "CIM_System",
		Properties: []cim.Property{
			{Name: "Model", Type: cim.TypeString},
		},
	}
	require.NoError(t, r.CreateClass(testNamespace, computerSystem))

	disk := &cim.Class{
		Name:       "CIM_Disk",
		SuperClass: "CIM_ManagedElement",
		Properties: []cim.Property{
			{
				Name: "DeviceID", Type: cim.TypeString,
				Qualifiers: cim.Qualifiers{{Name: "Key", Value: true}},
			},
			{Name: "SizeBytes", Type: cim.TypeUint64},
		},
	}
	require.NoError(t, r.CreateClass(testNamespace, disk))

	systemDevice := &cim.Class{
		Name: "CIM_SystemDevice",
		Qualifiers: cim.Qualifiers{
			{Name: "Association", Value: true},
		},
		Properties: []cim.Property{
			{
				Name: "GroupComponent", Type: cim.TypeReference, ReferenceClass: "CIM_System",
				Qualifiers: cim.Qualifiers{{Name: "Key", Value: true}},
			},
			{
				Name: "PartComponent", Type: cim.TypeReference, ReferenceClass: "CIM_Disk",
				Qualifiers: cim.Qualifiers{{Name: "Key", Value: true}},
			},
		},
	}
	require.NoError(t, r.CreateClass(testNamespace, systemDevice))
}

func createSystem(t *testing.T, r *repo.Repository, name string) *cim.ObjectPath {
	t.Helper()
	path, err := r.CreateInstance(testNamespace, &cim.Instance{
		ClassName: "CIM_ComputerSystem",
		Properties: []cim.Property{
			{Name: "Name", Value: name},
			{Name: "Status", Value: uint32(2)},
			{Name: "Model", Value: "generic"},
		},
	})
	require.NoError(t, err)
	return path
}

func createDisk(t *testing.T, r *repo.Repository, deviceID string) *cim.ObjectPath {
	t.Helper()
	path, err := r.CreateInstance(testNamespace, &cim.Instance{
		ClassName: "CIM_Disk",
		Properties: []cim.Property{
			{Name: "DeviceID", Value: deviceID},
			{Name: "SizeBytes", Value: uint64(1 << 30)},
		},
	})
	require.NoError(t, err)
	return path
}

func linkSystemDevice(t *testing.T, r *repo.Repository, system, disk *cim.ObjectPath) *cim.ObjectPath {
	t.Helper()
	path, err := r.CreateInstance(testNamespace, &cim.Instance{
		ClassName: "CIM_SystemDevice",
		Properties: []cim.Property{
			{Name: "GroupComponent", Value: system},
			{Name: "PartComponent", Value: disk},
		},
	})
	require.NoError(t, err)
	return path
}
