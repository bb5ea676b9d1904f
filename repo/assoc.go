package repo

import (
	"github.com/cimworks/mockwbem/cim"
	"github.com/cimworks/mockwbem/errors"
)

// AssociatorFilter narrows association traversal: AssocClass restricts the
// association classes walked (the named class and its subtree), ResultClass
// restricts target classes (subclass-compatible match), Role names the
// source-side reference property, ResultRole the target side. All names
// compare case-insensitively; naming a non-existent class is
// InvalidParameter.
type AssociatorFilter struct {
	AssocClass  string
	ResultClass string
	Role        string
	ResultRole  string
}

// ReferenceFilter narrows reference traversal: ResultClass restricts the
// association classes returned, Role the source-side reference property.
type ReferenceFilter struct {
	ResultClass string
	Role        string
}

// ClassResult is one class-level traversal result: the class path and the
// resolved class.
type ClassResult struct {
	Path  *cim.ObjectPath
	Class *cim.Class
}

// refMatch records one association instance whose reference property
// matched the source, and which property it was.
type refMatch struct {
	instance *cim.Instance
	class    *cim.Class
	role     string
}

// Associators returns the instances associated with the source instance.
func (r *Repository) Associators(source *cim.ObjectPath, f AssociatorFilter, opts GetOptions) ([]*cim.Instance, error) {
	paths, ns, err := r.associatorPaths(source, f)
	if err != nil {
		return nil, err
	}
	defer ns.mu.RUnlock()

	var out []*cim.Instance
	for _, p := range paths {
		inst, err := r.getInstance(ns, p, opts)
		if errors.Is(err, errors.ErrNotFound) || errors.Is(err, errors.ErrInvalidClass) {
			// Dangling reference: the association names an instance that is
			// no longer stored.
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, inst)
	}
	return out, nil
}

// AssociatorNames returns the paths of objects associated with the source.
// An instance-path source yields instance paths; a class-path source yields
// class paths.
func (r *Repository) AssociatorNames(source *cim.ObjectPath, f AssociatorFilter) ([]*cim.ObjectPath, error) {
	if source != nil && source.IsClassPath() {
		results, err := r.AssociatorClasses(source, f, AllProperties)
		if err != nil {
			return nil, err
		}
		paths := make([]*cim.ObjectPath, len(results))
		for i, cr := range results {
			paths[i] = cr.Path
		}
		return paths, nil
	}

	paths, ns, err := r.associatorPaths(source, f)
	if err != nil {
		return nil, err
	}
	ns.mu.RUnlock()
	return paths, nil
}

// associatorPaths computes deduplicated target paths for an instance-level
// traversal. On success the namespace read lock is left held for the caller.
func (r *Repository) associatorPaths(source *cim.ObjectPath, f AssociatorFilter) ([]*cim.ObjectPath, *namespaceStore, error) {
	ns, cache, err := r.beginTraversal(source)
	if err != nil {
		return nil, nil, err
	}

	ok := false
	defer func() {
		if !ok {
			ns.mu.RUnlock()
		}
	}()

	if f.ResultClass != "" && ns.class(f.ResultClass) == nil {
		return nil, nil, errors.Wrapf(errors.ErrInvalidParameter,
			"result class %q does not exist in %q", f.ResultClass, ns.name)
	}

	matches, err := ns.matchReferences(source, f.AssocClass, f.Role, cache)
	if err != nil {
		return nil, nil, err
	}

	seen := make(map[string]bool)
	var out []*cim.ObjectPath
	for _, m := range matches {
		for _, ref := range m.class.ReferenceProperties() {
			if cim.NameEqual(ref.Name, m.role) {
				continue
			}
			if f.ResultRole != "" && !cim.NameEqual(ref.Name, f.ResultRole) {
				continue
			}
			v, okv := m.instance.PropertyValue(ref.Name)
			if !okv {
				continue
			}
			target, okp := v.(*cim.ObjectPath)
			if !okp || target == nil {
				continue
			}
			if f.ResultClass != "" && !ns.isSubclassOf(target.ClassName, f.ResultClass) {
				continue
			}
			resolved := ns.qualifyPath(target)
			canon := resolved.Canonical()
			if seen[canon] {
				continue
			}
			seen[canon] = true
			out = append(out, resolved)
		}
	}
	ok = true
	return out, ns, nil
}

// References returns the association instances that refer to the source
// instance.
func (r *Repository) References(source *cim.ObjectPath, f ReferenceFilter, opts GetOptions) ([]*cim.Instance, error) {
	ns, cache, err := r.beginTraversal(source)
	if err != nil {
		return nil, err
	}
	defer ns.mu.RUnlock()

	matches, err := ns.matchReferences(source, f.ResultClass, f.Role, cache)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var out []*cim.Instance
	for _, m := range matches {
		canon := m.instance.Path.Canonical()
		if seen[canon] {
			continue
		}
		seen[canon] = true
		out = append(out, filterInstance(m.instance, m.class, opts))
	}
	return out, nil
}

// ReferenceNames returns the paths of association objects referring to the
// source.
func (r *Repository) ReferenceNames(source *cim.ObjectPath, f ReferenceFilter) ([]*cim.ObjectPath, error) {
	if source != nil && source.IsClassPath() {
		results, err := r.ReferenceClasses(source, f, AllProperties)
		if err != nil {
			return nil, err
		}
		paths := make([]*cim.ObjectPath, len(results))
		for i, cr := range results {
			paths[i] = cr.Path
		}
		return paths, nil
	}

	ns, cache, err := r.beginTraversal(source)
	if err != nil {
		return nil, err
	}
	defer ns.mu.RUnlock()

	matches, err := ns.matchReferences(source, f.ResultClass, f.Role, cache)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var out []*cim.ObjectPath
	for _, m := range matches {
		canon := m.instance.Path.Canonical()
		if seen[canon] {
			continue
		}
		seen[canon] = true
		out = append(out, m.instance.Path.Clone())
	}
	return out, nil
}

// beginTraversal validates the namespace and source instance and returns
// the namespace with its read lock held and a fresh resolution cache.
func (r *Repository) beginTraversal(source *cim.ObjectPath) (*namespaceStore, resolveCache, error) {
	if source == nil {
		return nil, nil, errors.Wrap(errors.ErrUsage, "nil source path")
	}
	if source.IsClassPath() {
		return nil, nil, errors.Wrapf(errors.ErrInvalidParameter,
			"source %s is a class path; use the class-level traversal", source)
	}

	ns, err := r.store(source.Namespace)
	if err != nil {
		return nil, nil, err
	}

	ns.mu.RLock()
	if ns.class(source.ClassName) == nil {
		ns.mu.RUnlock()
		return nil, nil, errors.Wrapf(errors.ErrInvalidClass, "class %q in %q", source.ClassName, ns.name)
	}
	if stored, _ := ns.findInstance(source); stored == nil {
		ns.mu.RUnlock()
		return nil, nil, errors.Wrapf(errors.ErrNotFound, "instance %s", source)
	}
	return ns, make(resolveCache), nil
}

// matchReferences walks stored instances of the candidate association
// classes and collects those with a reference property matching the source
// path, honoring the Role filter. Assumes ns.mu held.
func (ns *namespaceStore) matchReferences(source *cim.ObjectPath, assocClass, role string, cache resolveCache) ([]refMatch, error) {
	candidates, err := ns.candidateAssociationClasses(assocClass, cache)
	if err != nil {
		return nil, err
	}

	sourceCanon := ns.qualifyPath(source).Canonical()
	var matches []refMatch
	for _, ac := range candidates {
		for _, stored := range ns.instances[cim.Fold(ac.Name)] {
			for _, ref := range ac.ReferenceProperties() {
				if role != "" && !cim.NameEqual(ref.Name, role) {
					continue
				}
				if role == "" && ref.ReferenceClass != "" &&
					!ns.isSubclassOf(source.ClassName, ref.ReferenceClass) {
					continue
				}
				v, okv := stored.PropertyValue(ref.Name)
				if !okv {
					continue
				}
				bound, okp := v.(*cim.ObjectPath)
				if !okp || bound == nil {
					continue
				}
				if ns.qualifyPath(bound).Canonical() != sourceCanon {
					continue
				}
				matches = append(matches, refMatch{instance: stored, class: ac, role: ref.Name})
			}
		}
	}
	return matches, nil
}

// candidateAssociationClasses resolves the association classes to walk: all
// stored association classes, or the subtree of assocClass when given.
func (ns *namespaceStore) candidateAssociationClasses(assocClass string, cache resolveCache) ([]*cim.Class, error) {
	var names []string
	if assocClass != "" {
		if ns.class(assocClass) == nil {
			return nil, errors.Wrapf(errors.ErrInvalidParameter,
				"association class %q does not exist in %q", assocClass, ns.name)
		}
		names = ns.subtreeNames(assocClass)
	} else {
		names = ns.classOrder
	}

	var out []*cim.Class
	for _, key := range names {
		stored := ns.classes[key]
		if stored == nil {
			continue
		}
		resolved, err := ns.resolveStored(stored.Name, cache)
		if err != nil {
			return nil, err
		}
		if resolved.IsAssociation() {
			out = append(out, resolved)
		}
	}
	return out, nil
}

// qualifyPath fills an empty namespace on a reference path with the store's
// namespace, so keybinding paths written without a namespace still match.
func (ns *namespaceStore) qualifyPath(p *cim.ObjectPath) *cim.ObjectPath {
	if p.Namespace != "" {
		return p
	}
	q := p.Clone()
	q.Namespace = ns.name
	return q
}

// AssociatorClasses performs the class-level associator traversal: the
// classes reachable from the source class through declared reference
// properties of association classes, as (class path, resolved class) pairs.
func (r *Repository) AssociatorClasses(source *cim.ObjectPath, f AssociatorFilter, opts GetOptions) ([]ClassResult, error) {
	ns, cache, err := r.beginClassTraversal(source)
	if err != nil {
		return nil, err
	}
	defer ns.mu.RUnlock()

	if f.ResultClass != "" && ns.class(f.ResultClass) == nil {
		return nil, errors.Wrapf(errors.ErrInvalidParameter,
			"result class %q does not exist in %q", f.ResultClass, ns.name)
	}

	candidates, err := ns.candidateAssociationClasses(f.AssocClass, cache)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var out []ClassResult
	for _, ac := range candidates {
		for _, ref := range ns.matchingSourceRefs(ac, source.ClassName, f.Role) {
			for _, other := range ac.ReferenceProperties() {
				if cim.NameEqual(other.Name, ref.Name) {
					continue
				}
				if f.ResultRole != "" && !cim.NameEqual(other.Name, f.ResultRole) {
					continue
				}
				target := other.ReferenceClass
				if target == "" || ns.class(target) == nil {
					continue
				}
				if f.ResultClass != "" && !ns.isSubclassOf(target, f.ResultClass) {
					continue
				}
				key := cim.Fold(target)
				if seen[key] {
					continue
				}
				seen[key] = true
				resolved, err := ns.resolveStored(target, cache)
				if err != nil {
					return nil, err
				}
				out = append(out, ClassResult{
					Path:  cim.NewClassPath(ns.name, resolved.Name),
					Class: filterClass(resolved, opts),
				})
			}
		}
	}
	return out, nil
}

// ReferenceClasses performs the class-level reference traversal: the
// association classes with a declared reference property compatible with the
// source class, as (class path, resolved class) pairs.
func (r *Repository) ReferenceClasses(source *cim.ObjectPath, f ReferenceFilter, opts GetOptions) ([]ClassResult, error) {
	ns, cache, err := r.beginClassTraversal(source)
	if err != nil {
		return nil, err
	}
	defer ns.mu.RUnlock()

	candidates, err := ns.candidateAssociationClasses(f.ResultClass, cache)
	if err != nil {
		return nil, err
	}

	var out []ClassResult
	for _, ac := range candidates {
		if len(ns.matchingSourceRefs(ac, source.ClassName, f.Role)) == 0 {
			continue
		}
		out = append(out, ClassResult{
			Path:  cim.NewClassPath(ns.name, ac.Name),
			Class: filterClass(ac, opts),
		})
	}
	return out, nil
}

// beginClassTraversal validates the namespace and source class for a
// class-level traversal, leaving the read lock held on success.
func (r *Repository) beginClassTraversal(source *cim.ObjectPath) (*namespaceStore, resolveCache, error) {
	if source == nil {
		return nil, nil, errors.Wrap(errors.ErrUsage, "nil source path")
	}
	if !source.IsClassPath() {
		return nil, nil, errors.Wrapf(errors.ErrInvalidParameter,
			"source %s is an instance path; use the instance-level traversal", source)
	}

	ns, err := r.store(source.Namespace)
	if err != nil {
		return nil, nil, err
	}

	ns.mu.RLock()
	if ns.class(source.ClassName) == nil {
		ns.mu.RUnlock()
		return nil, nil, errors.Wrapf(errors.ErrNotFound, "class %q in %q", source.ClassName, ns.name)
	}
	return ns, make(resolveCache), nil
}

// matchingSourceRefs returns the association class's reference properties
// that qualify as the source side for the given source class, honoring the
// Role filter.
func (ns *namespaceStore) matchingSourceRefs(ac *cim.Class, sourceClass, role string) []cim.Property {
	var out []cim.Property
	for _, ref := range ac.ReferenceProperties() {
		if role != "" {
			if cim.NameEqual(ref.Name, role) {
				out = append(out, ref)
			}
			continue
		}
		if ref.ReferenceClass == "" || ns.isSubclassOf(sourceClass, ref.ReferenceClass) {
			out = append(out, ref)
		}
	}
	return out
}
