package repo

import (
	"sync"

	"github.com/cimworks/mockwbem/cim"
	"github.com/cimworks/mockwbem/errors"
)

// namespaceStore holds one namespace's qualifier, class, and instance stores
// behind one exclusive section. All lowercase methods assume ns.mu is held by
// the caller; public Repository methods take the lock, which keeps provider
// callbacks re-entrant (they run under the already-held lock).
//
// Classes are stored as registered, carrying only local declarations;
// resolution happens per request with a per-request memo. Instances are
// stored fully keyed by folded class name, with identity given by the
// canonical form of their key-only path.
type namespaceStore struct {
	mu   sync.RWMutex
	name string

	// dropped is set under mu when DeleteNamespace removes the store from
	// the registry, so a writer that resolved the store beforehand cannot
	// mutate the orphaned copy.
	dropped bool

	qualifiers     map[string]*cim.QualifierDecl
	qualifierOrder []string

	classes    map[string]*cim.Class
	classOrder []string

	instances map[string][]*cim.Instance
}

func newNamespaceStore(name string) *namespaceStore {
	return &namespaceStore{
		name:       name,
		qualifiers: make(map[string]*cim.QualifierDecl),
		classes:    make(map[string]*cim.Class),
		instances:  make(map[string][]*cim.Instance),
	}
}

// live fails InvalidNamespace once the store has been removed from the
// registry. Write operations check it after taking ns.mu. Assumes ns.mu held.
func (ns *namespaceStore) live() error {
	if ns.dropped {
		return errors.Wrapf(errors.ErrInvalidNamespace, "namespace %q", ns.name)
	}
	return nil
}

func (ns *namespaceStore) isEmpty() bool {
	if len(ns.qualifiers) > 0 || len(ns.classes) > 0 {
		return false
	}
	for _, insts := range ns.instances {
		if len(insts) > 0 {
			return false
		}
	}
	return true
}

// qualifier returns the stored declaration, or nil.
func (ns *namespaceStore) qualifier(name string) *cim.QualifierDecl {
	return ns.qualifiers[cim.Fold(name)]
}

// class returns the stored (unresolved) class, or nil.
func (ns *namespaceStore) class(name string) *cim.Class {
	return ns.classes[cim.Fold(name)]
}

// putClass stores a class, preserving first-registration order.
func (ns *namespaceStore) putClass(c *cim.Class) {
	key := cim.Fold(c.Name)
	if _, ok := ns.classes[key]; !ok {
		ns.classOrder = append(ns.classOrder, key)
	}
	ns.classes[key] = c
}

// removeClass drops a class from the store.
func (ns *namespaceStore) removeClass(name string) {
	key := cim.Fold(name)
	delete(ns.classes, key)
	for i, k := range ns.classOrder {
		if k == key {
			ns.classOrder = append(ns.classOrder[:i], ns.classOrder[i+1:]...)
			break
		}
	}
}

// directSubclasses returns stored classes whose superclass is the given
// class, in registration order.
func (ns *namespaceStore) directSubclasses(name string) []*cim.Class {
	var subs []*cim.Class
	for _, key := range ns.classOrder {
		c := ns.classes[key]
		if c.SuperClass != "" && cim.NameEqual(c.SuperClass, name) {
			subs = append(subs, c)
		}
	}
	return subs
}

// subtreeNames returns the folded names of a class and all its transitive
// subclasses, root first.
func (ns *namespaceStore) subtreeNames(root string) []string {
	names := []string{cim.Fold(root)}
	for i := 0; i < len(names); i++ {
		current := ns.classes[names[i]]
		if current == nil {
			continue
		}
		for _, sub := range ns.directSubclasses(current.Name) {
			names = append(names, cim.Fold(sub.Name))
		}
	}
	return names
}

// isSubclassOf reports whether sub names the same class as super or a
// transitive subclass of it.
func (ns *namespaceStore) isSubclassOf(sub, super string) bool {
	current := sub
	for current != "" {
		if cim.NameEqual(current, super) {
			return true
		}
		c := ns.class(current)
		if c == nil {
			return false
		}
		current = c.SuperClass
	}
	return false
}

// hasSubclasses reports whether any stored class names the given class as
// its superclass.
func (ns *namespaceStore) hasSubclasses(name string) bool {
	return len(ns.directSubclasses(name)) > 0
}

// hasInstancesOf reports whether instances of the class exist, optionally
// including subclasses.
func (ns *namespaceStore) hasInstancesOf(name string, deep bool) bool {
	if len(ns.instances[cim.Fold(name)]) > 0 {
		return true
	}
	if !deep {
		return false
	}
	for _, sub := range ns.subtreeNames(name)[1:] {
		if len(ns.instances[sub]) > 0 {
			return true
		}
	}
	return false
}

// findInstance locates a stored instance by path, matching on the canonical
// key-only form. Returns the instance and its slice index, or (nil, -1).
func (ns *namespaceStore) findInstance(path *cim.ObjectPath) (*cim.Instance, int) {
	canon := path.Canonical()
	for i, inst := range ns.instances[cim.Fold(path.ClassName)] {
		if inst.Path.Canonical() == canon {
			return inst, i
		}
	}
	return nil, -1
}

// instancesOf returns the stored instances of a class and, when deep, of all
// its subclasses, in storage order.
func (ns *namespaceStore) instancesOf(name string, deep bool) []*cim.Instance {
	classNames := []string{cim.Fold(name)}
	if deep {
		classNames = ns.subtreeNames(name)
	}
	var out []*cim.Instance
	for _, cn := range classNames {
		out = append(out, ns.instances[cn]...)
	}
	return out
}

// allInstances returns every stored instance in the namespace, grouped by
// class registration order.
func (ns *namespaceStore) allInstances() []*cim.Instance {
	var out []*cim.Instance
	for _, key := range ns.classOrder {
		out = append(out, ns.instances[key]...)
	}
	return out
}
