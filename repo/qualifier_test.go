package repo_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cimworks/mockwbem/cim"
	"github.com/cimworks/mockwbem/errors"
	"github.com/cimworks/mockwbem/repo"
)

func TestQualifier_SetGetEnumerate(t *testing.T) {
	r := newTestRepository(t)

	decl := &cim.QualifierDecl{
		Name: "Counter", Type: cim.TypeBoolean, Default: false,
		Scopes: cim.ScopeSet{cim.ScopeProperty: true},
		Flavor: cim.Flavor{Overridable: false, ToSubclass: true},
	}
	require.NoError(t, r.SetQualifier(testNamespace, decl))

	got, err := r.GetQualifier(testNamespace, "counter")
	require.NoError(t, err, "qualifier lookup is case-insensitive")
	assert.Equal(t, "Counter", got.Name, "declared casing is preserved")
	assert.Equal(t, cim.TypeBoolean, got.Type)
	assert.False(t, got.Flavor.Overridable)

	// Returned declarations are copies.
	got.Name = "Mutated"
	again, err := r.GetQualifier(testNamespace, "Counter")
	require.NoError(t, err)
	assert.Equal(t, "Counter", again.Name)

	// Set replaces an existing declaration.
	decl2 := decl.Clone()
	decl2.Default = true
	require.NoError(t, r.SetQualifier(testNamespace, decl2))
	got, err = r.GetQualifier(testNamespace, "Counter")
	require.NoError(t, err)
	assert.Equal(t, true, got.Default)

	all, err := r.EnumerateQualifiers(testNamespace)
	require.NoError(t, err)
	names := make([]string, 0, len(all))
	for _, d := range all {
		names = append(names, d.Name)
	}
	assert.Contains(t, names, "Counter")
	assert.Contains(t, names, "Key")

	_, err = r.GetQualifier(testNamespace, "NoSuch")
	assert.ErrorIs(t, err, errors.ErrNotFound)
}

func TestQualifier_DefaultMustMatchDeclaredType(t *testing.T) {
	r := newTestRepository(t)

	err := r.SetQualifier(testNamespace, &cim.QualifierDecl{
		Name: "MaxLen", Type: cim.TypeUint32, Default: "ten",
	})
	assert.ErrorIs(t, err, errors.ErrInvalidParameter)
}

func TestQualifier_DeleteBlockedWhileInUse(t *testing.T) {
	r := newTestRepository(t)
	loadTestSchema(t, r)

	// Key is used by schema classes, so deleting its declaration fails.
	err := r.DeleteQualifier(testNamespace, "Key")
	assert.ErrorIs(t, err, errors.ErrFailed)

	// An unused declaration deletes cleanly.
	require.NoError(t, r.SetQualifier(testNamespace, &cim.QualifierDecl{
		Name: "Unused", Type: cim.TypeBoolean, Default: false,
	}))
	require.NoError(t, r.DeleteQualifier(testNamespace, "Unused"))
	_, err = r.GetQualifier(testNamespace, "Unused")
	assert.ErrorIs(t, err, errors.ErrNotFound)

	err = r.DeleteQualifier(testNamespace, "Unused")
	assert.ErrorIs(t, err, errors.ErrNotFound)
}

func TestQualifier_ClassCreationRequiresDeclaration(t *testing.T) {
	r := repo.New(repo.Options{})
	_, err := r.CreateNamespace(testNamespace)
	require.NoError(t, err)

	// No declarations installed: a class using an undeclared qualifier is
	// rejected.
	err = r.CreateClass(testNamespace, &cim.Class{
		Name:       "Bare",
		Qualifiers: cim.Qualifiers{{Name: "Abstract", Value: true}},
	})
	assert.ErrorIs(t, err, errors.ErrInvalidParameter)
}
