package repo

import (
	"github.com/cimworks/mockwbem/cim"
	"github.com/cimworks/mockwbem/errors"
)

// CreateClass stores a new class. The submission is validated by a full
// resolution pass (superclass existence, qualifier declarations and scopes,
// override legality, reference targets) before anything is stored; the class
// is kept in its unresolved form and resolved per request. The namespace is
// created implicitly on first write.
func (r *Repository) CreateClass(namespace string, c *cim.Class) error {
	if c == nil || c.Name == "" {
		return errors.Wrap(errors.ErrUsage, "nil or unnamed class")
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
	if ns.class(c.Name) != nil {
		return errors.Wrapf(errors.ErrAlreadyExists, "class %q in %q", c.Name, ns.name)
	}
	if _, err := ns.resolveClassValue(c, make(resolveCache)); err != nil {
		return err
	}

	ns.putClass(c.Clone())
	r.log.Debugw("class created", "namespace", ns.name, "class", c.Name, "superclass", c.SuperClass)
	return nil
}

// GetClass returns the named class, resolved and filtered per opts.
func (r *Repository) GetClass(namespace, classname string, opts GetOptions) (*cim.Class, error) {
	ns, err := r.store(namespace)
	if err != nil {
		return nil, err
	}

	ns.mu.RLock()
	defer ns.mu.RUnlock()

	if ns.class(classname) == nil {
		return nil, errors.Wrapf(errors.ErrNotFound, "class %q in %q", classname, ns.name)
	}
	resolved, err := ns.resolveStored(classname, make(resolveCache))
	if err != nil {
		return nil, err
	}
	return filterClass(resolved, opts), nil
}

// ModifyClass replaces a stored class definition. The superclass identity
// must not change while subclasses or instances exist, and the replacement
// must leave every subclass still resolvable and every stored instance still
// conformant; violations reject the whole modification and the store is
// unchanged.
func (r *Repository) ModifyClass(namespace string, c *cim.Class) error {
	if c == nil || c.Name == "" {
		return errors.Wrap(errors.ErrUsage, "nil or unnamed class")
	}

	ns, err := r.store(namespace)
	if err != nil {
		return err
	}

	ns.mu.Lock()
	defer ns.mu.Unlock()

	if err := ns.live(); err != nil {
		return err
	}
	stored := ns.class(c.Name)
	if stored == nil {
		return errors.Wrapf(errors.ErrNotFound, "class %q in %q", c.Name, ns.name)
	}

	superChanged := !cim.NameEqual(stored.SuperClass, c.SuperClass)
	if superChanged && ns.hasSubclasses(c.Name) {
		return errors.Wrapf(errors.ErrClassHasChildren,
			"class %q: superclass change with existing subclasses", c.Name)
	}
	if superChanged && ns.hasInstancesOf(c.Name, false) {
		return errors.Wrapf(errors.ErrClassHasInstances,
			"class %q: superclass change with existing instances", c.Name)
	}

	if _, err := ns.resolveClassValue(c, make(resolveCache)); err != nil {
		return err
	}

	// Tentatively install and verify the rest of the store still holds
	// together; roll back on any violation so the operation stays atomic.
	replacement := c.Clone()
	ns.classes[cim.Fold(c.Name)] = replacement

	if err := ns.verifySubtree(c.Name); err != nil {
		ns.classes[cim.Fold(c.Name)] = stored
		return errors.Wrapf(errors.ErrClassHasChildren,
			"class %q: modification breaks a subclass: %v", c.Name, err)
	}
	if err := ns.verifyInstancesOf(c.Name); err != nil {
		ns.classes[cim.Fold(c.Name)] = stored
		return errors.Wrapf(errors.ErrClassHasInstances,
			"class %q: modification orphans stored instances: %v", c.Name, err)
	}

	r.log.Debugw("class modified", "namespace", ns.name, "class", c.Name)
	return nil
}

// verifySubtree re-resolves every subclass of the named class.
func (ns *namespaceStore) verifySubtree(name string) error {
	cache := make(resolveCache)
	for _, key := range ns.subtreeNames(name)[1:] {
		if _, err := ns.resolveStored(ns.classes[key].Name, cache); err != nil {
			return err
		}
	}
	return nil
}

// verifyInstancesOf checks that stored instances of the class and its
// subclasses still conform to their (re-resolved) classes.
func (ns *namespaceStore) verifyInstancesOf(name string) error {
	cache := make(resolveCache)
	for _, key := range ns.subtreeNames(name) {
		stored := ns.classes[key]
		if stored == nil || len(ns.instances[key]) == 0 {
			continue
		}
		resolved, err := ns.resolveStored(stored.Name, cache)
		if err != nil {
			return err
		}
		for _, inst := range ns.instances[key] {
			if err := checkInstanceConforms(inst, resolved); err != nil {
				return err
			}
		}
	}
	return nil
}

// DeleteClass removes a class. Fails while any subclass or any instance of
// the class exists.
func (r *Repository) DeleteClass(namespace, classname string) error {
	ns, err := r.store(namespace)
	if err != nil {
		return err
	}

	ns.mu.Lock()
	defer ns.mu.Unlock()

	if err := ns.live(); err != nil {
		return err
	}
	if ns.class(classname) == nil {
		return errors.Wrapf(errors.ErrNotFound, "class %q in %q", classname, ns.name)
	}
	if ns.hasSubclasses(classname) {
		return errors.Wrapf(errors.ErrClassHasChildren, "class %q in %q", classname, ns.name)
	}
	if ns.hasInstancesOf(classname, false) {
		return errors.Wrapf(errors.ErrClassHasInstances, "class %q in %q", classname, ns.name)
	}

	ns.removeClass(classname)
	r.log.Debugw("class deleted", "namespace", ns.name, "class", classname)
	return nil
}

// EnumerateClassNames returns class names below classname: its direct
// subclasses, or the whole subtree with deepInheritance. An empty classname
// enumerates from the root (classes without a superclass).
func (r *Repository) EnumerateClassNames(namespace, classname string, deepInheritance bool) ([]string, error) {
	ns, err := r.store(namespace)
	if err != nil {
		return nil, err
	}

	ns.mu.RLock()
	defer ns.mu.RUnlock()

	classes, err := ns.enumerateClasses(classname, deepInheritance)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(classes))
	for i, c := range classes {
		names[i] = c.Name
	}
	return names, nil
}

// EnumerateClasses returns resolved, filtered classes below classname under
// the same selection rules as EnumerateClassNames.
func (r *Repository) EnumerateClasses(namespace, classname string, deepInheritance bool, opts GetOptions) ([]*cim.Class, error) {
	ns, err := r.store(namespace)
	if err != nil {
		return nil, err
	}

	ns.mu.RLock()
	defer ns.mu.RUnlock()

	classes, err := ns.enumerateClasses(classname, deepInheritance)
	if err != nil {
		return nil, err
	}
	cache := make(resolveCache)
	out := make([]*cim.Class, 0, len(classes))
	for _, c := range classes {
		resolved, err := ns.resolveStored(c.Name, cache)
		if err != nil {
			return nil, err
		}
		out = append(out, filterClass(resolved, opts))
	}
	return out, nil
}

func (ns *namespaceStore) enumerateClasses(classname string, deep bool) ([]*cim.Class, error) {
	if classname == "" {
		var out []*cim.Class
		for _, key := range ns.classOrder {
			c := ns.classes[key]
			if c.SuperClass == "" {
				out = append(out, c)
				if deep {
					out = append(out, ns.subtreeClasses(c.Name)...)
				}
			}
		}
		return out, nil
	}

	if ns.class(classname) == nil {
		return nil, errors.Wrapf(errors.ErrInvalidClass, "class %q in %q", classname, ns.name)
	}
	if deep {
		return ns.subtreeClasses(classname), nil
	}
	return ns.directSubclasses(classname), nil
}

// subtreeClasses returns all transitive subclasses, excluding the root.
func (ns *namespaceStore) subtreeClasses(root string) []*cim.Class {
	var out []*cim.Class
	for _, key := range ns.subtreeNames(root)[1:] {
		out = append(out, ns.classes[key])
	}
	return out
}
