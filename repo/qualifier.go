package repo

import (
	"github.com/cimworks/mockwbem/cim"
	"github.com/cimworks/mockwbem/errors"
)

// SetQualifier stores or replaces a qualifier declaration. The namespace is
// created implicitly on first write.
func (r *Repository) SetQualifier(namespace string, decl *cim.QualifierDecl) error {
	if decl == nil || decl.Name == "" {
		return errors.Wrap(errors.ErrUsage, "nil or unnamed qualifier declaration")
	}
	if decl.Default != nil && !cim.ValueCompatible(decl.Default, decl.Type, decl.IsArray) {
		return errors.Wrapf(errors.ErrInvalidParameter,
			"qualifier %q default does not match type %s", decl.Name, decl.Type)
	}

	ns, err := r.ensureStore(namespace)
	if err != nil {
		return err
	}

	ns.mu.Lock()
	defer ns.mu.Unlock()

	if err := ns.live(); err != nil {
		return err
	}
	key := cim.Fold(decl.Name)
	if _, ok := ns.qualifiers[key]; !ok {
		ns.qualifierOrder = append(ns.qualifierOrder, key)
	}
	stored := decl.Clone()
	if stored.Scopes == nil {
		stored.Scopes = cim.ScopeSet{cim.ScopeAny: true}
	}
	ns.qualifiers[key] = stored
	r.log.Debugw("qualifier declared", "namespace", ns.name, "qualifier", decl.Name)
	return nil
}

// GetQualifier returns a copy of the named qualifier declaration.
func (r *Repository) GetQualifier(namespace, name string) (*cim.QualifierDecl, error) {
	ns, err := r.store(namespace)
	if err != nil {
		return nil, err
	}

	ns.mu.RLock()
	defer ns.mu.RUnlock()

	decl := ns.qualifier(name)
	if decl == nil {
		return nil, errors.Wrapf(errors.ErrNotFound, "qualifier %q in %q", name, ns.name)
	}
	return decl.Clone(), nil
}

// EnumerateQualifiers returns copies of all qualifier declarations in the
// namespace, in declaration order.
func (r *Repository) EnumerateQualifiers(namespace string) ([]*cim.QualifierDecl, error) {
	ns, err := r.store(namespace)
	if err != nil {
		return nil, err
	}

	ns.mu.RLock()
	defer ns.mu.RUnlock()

	out := make([]*cim.QualifierDecl, 0, len(ns.qualifierOrder))
	for _, key := range ns.qualifierOrder {
		out = append(out, ns.qualifiers[key].Clone())
	}
	return out, nil
}

// DeleteQualifier removes a qualifier declaration. It fails Failed while any
// stored class still uses the qualifier, to keep stored schema resolvable.
func (r *Repository) DeleteQualifier(namespace, name string) error {
	ns, err := r.store(namespace)
	if err != nil {
		return err
	}

	ns.mu.Lock()
	defer ns.mu.Unlock()

	if err := ns.live(); err != nil {
		return err
	}
	key := cim.Fold(name)
	decl, ok := ns.qualifiers[key]
	if !ok {
		return errors.Wrapf(errors.ErrNotFound, "qualifier %q in %q", name, ns.name)
	}
	for _, ckey := range ns.classOrder {
		if classUsesQualifier(ns.classes[ckey], decl.Name) {
			return errors.Wrapf(errors.ErrFailed,
				"qualifier %q is used by class %q", decl.Name, ns.classes[ckey].Name)
		}
	}

	delete(ns.qualifiers, key)
	for i, k := range ns.qualifierOrder {
		if k == key {
			ns.qualifierOrder = append(ns.qualifierOrder[:i], ns.qualifierOrder[i+1:]...)
			break
		}
	}
	r.log.Debugw("qualifier deleted", "namespace", ns.name, "qualifier", name)
	return nil
}

func classUsesQualifier(c *cim.Class, name string) bool {
	if c.Qualifiers.Has(name) {
		return true
	}
	for _, p := range c.Properties {
		if p.Qualifiers.Has(name) {
			return true
		}
	}
	for _, m := range c.Methods {
		if m.Qualifiers.Has(name) {
			return true
		}
		for _, param := range m.Parameters {
			if param.Qualifiers.Has(name) {
				return true
			}
		}
	}
	return false
}
