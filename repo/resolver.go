package repo

import (
	"github.com/cimworks/mockwbem/cim"
	"github.com/cimworks/mockwbem/errors"
)

// resolveCache memoizes resolved classes for one request. Resolution of a
// deep hierarchy touches each ancestor once per request, never per member.
type resolveCache map[string]*cim.Class

// resolveStored resolves a class already in the store. Assumes ns.mu held.
func (ns *namespaceStore) resolveStored(name string, cache resolveCache) (*cim.Class, error) {
	key := cim.Fold(name)
	if rc, ok := cache[key]; ok {
		return rc, nil
	}
	stored := ns.classes[key]
	if stored == nil {
		return nil, errors.Wrapf(errors.ErrInvalidClass, "class %q in %q", name, ns.name)
	}
	rc, err := ns.resolveClassValue(stored, cache)
	if err != nil {
		return nil, err
	}
	cache[key] = rc
	return rc, nil
}

// resolveClassValue resolves a class value against the store: inherits the
// superclass's member set, applies Override declarations, validates every
// qualifier against the namespace's qualifier declarations, and fills in
// ClassOrigin and Propagated. The class itself need not be stored, which is
// how CreateClass and ModifyClass validate submissions. Assumes ns.mu held.
func (ns *namespaceStore) resolveClassValue(c *cim.Class, cache resolveCache) (*cim.Class, error) {
	var base *cim.Class
	if c.SuperClass != "" {
		if ns.class(c.SuperClass) == nil {
			return nil, errors.Wrapf(errors.ErrInvalidSuperclass,
				"class %q: superclass %q does not exist in %q", c.Name, c.SuperClass, ns.name)
		}
		var err error
		base, err = ns.resolveStored(c.SuperClass, cache)
		if err != nil {
			return nil, err
		}
	}

	out := &cim.Class{Name: c.Name, SuperClass: c.SuperClass}

	isAssoc := c.Qualifiers.HasTrue(cim.QualifierAssociation) ||
		(base != nil && base.IsAssociation())
	isIndication := c.Qualifiers.HasTrue(cim.QualifierIndication) ||
		(base != nil && base.Qualifiers.HasTrue(cim.QualifierIndication))

	classScopes := []cim.Scope{cim.ScopeClass}
	if isAssoc {
		classScopes = append(classScopes, cim.ScopeAssociation)
	}
	if isIndication {
		classScopes = append(classScopes, cim.ScopeIndication)
	}

	quals, err := ns.mergeQualifiers(c.Name, baseQualifiers(ns, base), c.Qualifiers, classScopes)
	if err != nil {
		return nil, err
	}
	out.Qualifiers = quals

	if err := ns.resolveProperties(c, base, out, cache); err != nil {
		return nil, err
	}
	if err := ns.resolveMethods(c, base, out); err != nil {
		return nil, err
	}
	return out, nil
}

// baseQualifiers returns the class-level qualifiers a subclass inherits:
// those whose effective flavor propagates to subclasses, marked Propagated.
func baseQualifiers(ns *namespaceStore, base *cim.Class) cim.Qualifiers {
	if base == nil {
		return nil
	}
	return inheritQualifiers(ns, base.Qualifiers)
}

func inheritQualifiers(ns *namespaceStore, qs cim.Qualifiers) cim.Qualifiers {
	var out cim.Qualifiers
	for _, q := range qs {
		if !q.EffectiveFlavor(ns.qualifier(q.Name)).ToSubclass {
			continue
		}
		iq := q.Clone()
		iq.Propagated = true
		out = append(out, iq)
	}
	return out
}

// mergeQualifiers merges locally declared qualifiers over inherited ones.
// Every local qualifier must be declared in the qualifier store, be legal at
// one of the given scopes, match its declared type, and respect the
// Overridable flavor of any inherited value.
func (ns *namespaceStore) mergeQualifiers(owner string, inherited, local cim.Qualifiers, scopes []cim.Scope) (cim.Qualifiers, error) {
	out := inherited
	for _, lq := range local {
		decl, err := ns.checkQualifier(owner, lq, scopes)
		if err != nil {
			return nil, err
		}
		merged := lq.Clone()
		merged.Propagated = false
		if existing := out.Find(lq.Name); existing != nil {
			if !existing.EffectiveFlavor(decl).Overridable && !cim.ValueEqual(existing.Value, lq.Value) {
				return nil, errors.Wrapf(errors.ErrInvalidParameter,
					"%s: qualifier %q is not overridable", owner, lq.Name)
			}
			*existing = merged
			continue
		}
		out = append(out, merged)
	}
	return out, nil
}

// checkQualifier validates one qualifier use against the store and returns
// its declaration.
func (ns *namespaceStore) checkQualifier(owner string, q cim.Qualifier, scopes []cim.Scope) (*cim.QualifierDecl, error) {
	decl := ns.qualifier(q.Name)
	if decl == nil {
		return nil, errors.Wrapf(errors.ErrInvalidParameter,
			"%s: qualifier %q is not declared in namespace %q", owner, q.Name, ns.name)
	}
	allowed := false
	for _, s := range scopes {
		if decl.Scopes.Allows(s) {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, errors.Wrapf(errors.ErrInvalidParameter,
			"%s: qualifier %q is not applicable at %v scope", owner, q.Name, scopes[0])
	}
	if q.Type != "" && q.Type != decl.Type {
		return nil, errors.Wrapf(errors.ErrInvalidParameter,
			"%s: qualifier %q declared as %s, used as %s", owner, q.Name, decl.Type, q.Type)
	}
	if !cim.ValueCompatible(q.Value, decl.Type, decl.IsArray) {
		return nil, errors.Wrapf(errors.ErrInvalidParameter,
			"%s: qualifier %q value does not match declared type %s", owner, q.Name, decl.Type)
	}
	return decl, nil
}

func propertyScopes(p *cim.Property) []cim.Scope {
	if p.Type == cim.TypeReference {
		return []cim.Scope{cim.ScopeReference}
	}
	return []cim.Scope{cim.ScopeProperty}
}

// resolveProperties builds out's property set: the superclass's resolved
// properties (propagated, origins preserved) with local declarations either
// overriding an inherited member or introducing a new one.
func (ns *namespaceStore) resolveProperties(c, base, out *cim.Class, cache resolveCache) error {
	if base != nil {
		out.Properties = make([]cim.Property, len(base.Properties))
		for i, p := range base.Properties {
			ip := p.Clone()
			ip.Propagated = true
			ip.Qualifiers = inheritQualifiers(ns, p.Qualifiers)
			out.Properties[i] = ip
		}
	}

	for _, lp := range c.Properties {
		owner := c.Name + "." + lp.Name
		for _, q := range lp.Qualifiers {
			if _, err := ns.checkQualifier(owner, q, propertyScopes(&lp)); err != nil {
				return err
			}
		}
		if lp.Type == cim.TypeReference {
			if lp.ReferenceClass == "" {
				return errors.Wrapf(errors.ErrInvalidParameter,
					"%s: reference property without a reference class", owner)
			}
			if ns.class(lp.ReferenceClass) == nil {
				return errors.Wrapf(errors.ErrInvalidParameter,
					"%s: reference class %q does not exist in %q", owner, lp.ReferenceClass, ns.name)
			}
		}
		if ec := lp.EmbeddedInstanceClass(); ec != "" && ns.class(ec) == nil {
			return errors.Wrapf(errors.ErrInvalidParameter,
				"%s: embedded instance class %q does not exist in %q", owner, ec, ns.name)
		}
		if lp.Value != nil && !cim.ValueCompatible(lp.Value, lp.Type, lp.IsArray) {
			return errors.Wrapf(errors.ErrInvalidParameter,
				"%s: default value does not match type %s", owner, lp.Type)
		}

		overrideTarget, hasOverride := overrideName(lp.Qualifiers, lp.Name)
		existing := out.Property(lp.Name)

		if hasOverride {
			target := out.Property(overrideTarget)
			if target == nil || !target.Propagated {
				return errors.Wrapf(errors.ErrInvalidParameter,
					"%s: Override names no inherited property %q", owner, overrideTarget)
			}
			if err := ns.checkPropertyOverride(owner, &lp, target); err != nil {
				return err
			}
			merged, err := ns.mergeQualifiers(owner, target.Qualifiers, lp.Qualifiers, propertyScopes(&lp))
			if err != nil {
				return err
			}
			np := lp.Clone()
			np.ClassOrigin = target.ClassOrigin
			np.Propagated = true
			np.Qualifiers = merged
			*target = np
			continue
		}

		if existing != nil {
			return errors.Wrapf(errors.ErrInvalidParameter,
				"%s: duplicate property %q without Override", c.Name, lp.Name)
		}
		np := lp.Clone()
		np.ClassOrigin = c.Name
		np.Propagated = false
		out.Properties = append(out.Properties, np)
	}
	return nil
}

// checkPropertyOverride validates that an overriding property declaration is
// type-compatible with the inherited member it replaces.
func (ns *namespaceStore) checkPropertyOverride(owner string, local, inherited *cim.Property) error {
	if local.Type != inherited.Type || local.IsArray != inherited.IsArray {
		return errors.Wrapf(errors.ErrInvalidParameter,
			"%s: override type %s does not match inherited type %s",
			owner, typeLabel(local.Type, local.IsArray), typeLabel(inherited.Type, inherited.IsArray))
	}
	if local.Type == cim.TypeReference &&
		!ns.isSubclassOf(local.ReferenceClass, inherited.ReferenceClass) {
		return errors.Wrapf(errors.ErrInvalidParameter,
			"%s: override reference class %q is not a subclass of %q",
			owner, local.ReferenceClass, inherited.ReferenceClass)
	}
	return nil
}

// resolveMethods mirrors resolveProperties for methods and their parameters.
func (ns *namespaceStore) resolveMethods(c, base, out *cim.Class) error {
	if base != nil {
		out.Methods = make([]cim.Method, len(base.Methods))
		for i, m := range base.Methods {
			im := m.Clone()
			im.Propagated = true
			im.Qualifiers = inheritQualifiers(ns, m.Qualifiers)
			out.Methods[i] = im
		}
	}

	for _, lm := range c.Methods {
		owner := c.Name + "." + lm.Name
		for _, q := range lm.Qualifiers {
			if _, err := ns.checkQualifier(owner, q, []cim.Scope{cim.ScopeMethod}); err != nil {
				return err
			}
		}
		for _, param := range lm.Parameters {
			pOwner := owner + "(" + param.Name + ")"
			for _, q := range param.Qualifiers {
				if _, err := ns.checkQualifier(pOwner, q, []cim.Scope{cim.ScopeParameter}); err != nil {
					return err
				}
			}
			if param.Type == cim.TypeReference && param.ReferenceClass != "" &&
				ns.class(param.ReferenceClass) == nil {
				return errors.Wrapf(errors.ErrInvalidParameter,
					"%s: reference class %q does not exist in %q", pOwner, param.ReferenceClass, ns.name)
			}
		}

		overrideTarget, hasOverride := overrideName(lm.Qualifiers, lm.Name)
		existing := out.Method(lm.Name)

		if hasOverride {
			target := out.Method(overrideTarget)
			if target == nil || !target.Propagated {
				return errors.Wrapf(errors.ErrInvalidParameter,
					"%s: Override names no inherited method %q", owner, overrideTarget)
			}
			if lm.ReturnType != target.ReturnType {
				return errors.Wrapf(errors.ErrInvalidParameter,
					"%s: override return type %s does not match inherited %s",
					owner, lm.ReturnType, target.ReturnType)
			}
			merged, err := ns.mergeQualifiers(owner, target.Qualifiers, lm.Qualifiers, []cim.Scope{cim.ScopeMethod})
			if err != nil {
				return err
			}
			nm := lm.Clone()
			nm.ClassOrigin = target.ClassOrigin
			nm.Propagated = true
			nm.Qualifiers = merged
			*target = nm
			continue
		}

		if existing != nil {
			return errors.Wrapf(errors.ErrInvalidParameter,
				"%s: duplicate method %q without Override", c.Name, lm.Name)
		}
		nm := lm.Clone()
		nm.ClassOrigin = c.Name
		nm.Propagated = false
		out.Methods = append(out.Methods, nm)
	}
	return nil
}

// overrideName extracts the inherited member named by an Override qualifier.
// An Override with no value names the member's own name.
func overrideName(qs cim.Qualifiers, self string) (string, bool) {
	q := qs.Find(cim.QualifierOverride)
	if q == nil {
		return "", false
	}
	if s := q.StringValue(); s != "" {
		return s, true
	}
	return self, true
}

func typeLabel(t cim.Type, isArray bool) string {
	if isArray {
		return string(t) + "[]"
	}
	return string(t)
}
