package repo

import (
	"github.com/cimworks/mockwbem/cim"
	"github.com/cimworks/mockwbem/errors"
)

// CreateInstance stores a new instance and returns its path. When a provider
// is registered for (namespace, classname, instance-write) it services the
// call; the default engine behavior validates the instance against its
// resolved class (declared properties only, compatible types, all keys
// present, class not abstract) and assigns the path from the key properties.
// A pre-populated path is accepted when it agrees with the key properties.
func (r *Repository) CreateInstance(namespace string, inst *cim.Instance) (*cim.ObjectPath, error) {
	if inst == nil || inst.ClassName == "" {
		return nil, errors.Wrap(errors.ErrUsage, "nil or unclassed instance")
	}

	ns, err := r.store(namespace)
	if err != nil {
		return nil, err
	}

	ns.mu.Lock()
	defer ns.mu.Unlock()

	if err := ns.live(); err != nil {
		return nil, err
	}
	// Dispatch guarantees: the class must exist before any provider runs.
	if ns.class(inst.ClassName) == nil {
		return nil, errors.Wrapf(errors.ErrInvalidClass, "class %q in %q", inst.ClassName, ns.name)
	}
	if p := r.providers.instanceWrite(ns.name, inst.ClassName); p != nil {
		return p.CreateInstance(r.providerContext(ns), inst)
	}
	return r.createInstance(ns, inst)
}

// createInstance is the default create path. Assumes ns.mu held.
func (r *Repository) createInstance(ns *namespaceStore, inst *cim.Instance) (*cim.ObjectPath, error) {
	if ns.class(inst.ClassName) == nil {
		return nil, errors.Wrapf(errors.ErrInvalidClass, "class %q in %q", inst.ClassName, ns.name)
	}
	resolved, err := ns.resolveStored(inst.ClassName, make(resolveCache))
	if err != nil {
		return nil, err
	}
	if resolved.IsAbstract() {
		return nil, errors.Wrapf(errors.ErrFailed,
			"class %q is abstract and cannot be instantiated", resolved.Name)
	}
	if err := checkInstanceConforms(inst, resolved); err != nil {
		return nil, err
	}

	path := instancePathFor(ns.name, resolved, inst)
	if inst.Path != nil && ns.qualifyPath(inst.Path).Canonical() != path.Canonical() {
		return nil, errors.Wrapf(errors.ErrInvalidParameter,
			"instance path %s does not match key properties", inst.Path)
	}
	if existing, _ := ns.findInstance(path); existing != nil {
		return nil, errors.Wrapf(errors.ErrAlreadyExists, "instance %s", path)
	}

	stored := inst.Clone()
	stored.Path = path.Clone()
	fillPropertyTypes(stored, resolved)
	key := cim.Fold(stored.ClassName)
	ns.instances[key] = append(ns.instances[key], stored)

	r.log.Debugw("instance created", "namespace", ns.name, "path", path.String())
	return path, nil
}

// checkInstanceConforms validates an instance's property set against its
// resolved class: every carried property must be declared with a compatible
// type and array-ness, and every key property must be present.
func checkInstanceConforms(inst *cim.Instance, resolved *cim.Class) error {
	for _, p := range inst.Properties {
		cp := resolved.Property(p.Name)
		if cp == nil {
			return errors.Wrapf(errors.ErrInvalidParameter,
				"property %q is not declared by class %q", p.Name, resolved.Name)
		}
		if !cim.ValueCompatible(p.Value, cp.Type, cp.IsArray) {
			return errors.Wrapf(errors.ErrInvalidParameter,
				"property %q does not match declared type %s", p.Name, typeLabel(cp.Type, cp.IsArray))
		}
	}
	for _, kp := range resolved.KeyProperties() {
		v, ok := inst.PropertyValue(kp.Name)
		if !ok || v == nil {
			return errors.Wrapf(errors.ErrInvalidParameter,
				"key property %q of class %q is missing", kp.Name, resolved.Name)
		}
	}
	return nil
}

// instancePathFor builds the key-only path of an instance from its class's
// key properties.
func instancePathFor(namespace string, resolved *cim.Class, inst *cim.Instance) *cim.ObjectPath {
	keys := resolved.KeyProperties()
	bindings := make([]cim.KeyBinding, 0, len(keys))
	for _, kp := range keys {
		v, _ := inst.PropertyValue(kp.Name)
		bindings = append(bindings, cim.KeyBinding{Name: kp.Name, Value: cim.CopyValue(v)})
	}
	return cim.NewInstancePath(namespace, inst.ClassName, bindings)
}

// fillPropertyTypes stamps declared types onto stored property values, so
// compiler-produced instances that omit types read back fully typed.
func fillPropertyTypes(inst *cim.Instance, resolved *cim.Class) {
	for i := range inst.Properties {
		if cp := resolved.Property(inst.Properties[i].Name); cp != nil {
			inst.Properties[i].Type = cp.Type
			inst.Properties[i].IsArray = cp.IsArray
		}
	}
}

// GetInstance returns the instance at path, filtered per opts.
func (r *Repository) GetInstance(path *cim.ObjectPath, opts GetOptions) (*cim.Instance, error) {
	if path == nil || path.IsClassPath() {
		return nil, errors.Wrap(errors.ErrUsage, "nil or class-only instance path")
	}

	ns, err := r.store(path.Namespace)
	if err != nil {
		return nil, err
	}

	ns.mu.RLock()
	defer ns.mu.RUnlock()

	return r.getInstance(ns, path, opts)
}

// getInstance is the shared read path. Assumes ns.mu held (any mode).
func (r *Repository) getInstance(ns *namespaceStore, path *cim.ObjectPath, opts GetOptions) (*cim.Instance, error) {
	if ns.class(path.ClassName) == nil {
		return nil, errors.Wrapf(errors.ErrInvalidClass, "class %q in %q", path.ClassName, ns.name)
	}
	stored, _ := ns.findInstance(path)
	if stored == nil {
		return nil, errors.Wrapf(errors.ErrNotFound, "instance %s", path)
	}
	resolved, err := ns.resolveStored(stored.ClassName, make(resolveCache))
	if err != nil {
		return nil, err
	}
	return filterInstance(stored, resolved, opts), nil
}

// EnumerateInstances returns instances of classname and, with
// deepInheritance, of all its subclasses. Property filtering is computed per
// returned instance against that instance's own class.
func (r *Repository) EnumerateInstances(namespace, classname string, deepInheritance bool, opts GetOptions) ([]*cim.Instance, error) {
	ns, err := r.store(namespace)
	if err != nil {
		return nil, err
	}

	ns.mu.RLock()
	defer ns.mu.RUnlock()

	return ns.enumerateInstances(classname, deepInheritance, opts)
}

func (ns *namespaceStore) enumerateInstances(classname string, deep bool, opts GetOptions) ([]*cim.Instance, error) {
	if ns.class(classname) == nil {
		return nil, errors.Wrapf(errors.ErrInvalidClass, "class %q in %q", classname, ns.name)
	}
	cache := make(resolveCache)
	var out []*cim.Instance
	for _, stored := range ns.instancesOf(classname, deep) {
		resolved, err := ns.resolveStored(stored.ClassName, cache)
		if err != nil {
			return nil, err
		}
		out = append(out, filterInstance(stored, resolved, opts))
	}
	return out, nil
}

// EnumerateInstanceNames returns the paths of instances of classname and all
// its subclasses.
func (r *Repository) EnumerateInstanceNames(namespace, classname string) ([]*cim.ObjectPath, error) {
	ns, err := r.store(namespace)
	if err != nil {
		return nil, err
	}

	ns.mu.RLock()
	defer ns.mu.RUnlock()

	if ns.class(classname) == nil {
		return nil, errors.Wrapf(errors.ErrInvalidClass, "class %q in %q", classname, ns.name)
	}
	var out []*cim.ObjectPath
	for _, stored := range ns.instancesOf(classname, true) {
		out = append(out, stored.Path.Clone())
	}
	return out, nil
}

// ModifyInstance updates an existing instance. Only the properties named in
// propertyList are applied (nil applies every property the modified instance
// carries). Changing a key property is rejected; the path's classname must
// match the stored instance's classname.
func (r *Repository) ModifyInstance(modified *cim.Instance, propertyList []string) error {
	if modified == nil || modified.Path == nil || modified.Path.IsClassPath() {
		return errors.Wrap(errors.ErrUsage, "modified instance must carry an instance path")
	}

	ns, err := r.store(modified.Path.Namespace)
	if err != nil {
		return err
	}

	ns.mu.Lock()
	defer ns.mu.Unlock()

	if err := ns.live(); err != nil {
		return err
	}
	// Dispatch guarantees: class and target instance must exist before any
	// provider runs.
	if ns.class(modified.Path.ClassName) == nil {
		return errors.Wrapf(errors.ErrInvalidClass, "class %q in %q", modified.Path.ClassName, ns.name)
	}
	if stored, _ := ns.findInstance(modified.Path); stored == nil {
		return errors.Wrapf(errors.ErrNotFound, "instance %s", modified.Path)
	}
	if p := r.providers.instanceWrite(ns.name, modified.Path.ClassName); p != nil {
		return p.ModifyInstance(r.providerContext(ns), modified, propertyList)
	}
	return r.modifyInstance(ns, modified, propertyList)
}

// modifyInstance is the default modify path. Assumes ns.mu held.
func (r *Repository) modifyInstance(ns *namespaceStore, modified *cim.Instance, propertyList []string) error {
	if ns.class(modified.Path.ClassName) == nil {
		return errors.Wrapf(errors.ErrInvalidClass, "class %q in %q", modified.Path.ClassName, ns.name)
	}
	stored, idx := ns.findInstance(modified.Path)
	if stored == nil {
		return errors.Wrapf(errors.ErrNotFound, "instance %s", modified.Path)
	}
	if modified.ClassName != "" && !cim.NameEqual(modified.ClassName, stored.ClassName) {
		return errors.Wrapf(errors.ErrInvalidParameter,
			"modified classname %q does not match stored class %q", modified.ClassName, stored.ClassName)
	}

	resolved, err := ns.resolveStored(stored.ClassName, make(resolveCache))
	if err != nil {
		return err
	}
	if resolved.IsAbstract() {
		return errors.Wrapf(errors.ErrFailed, "class %q is abstract", resolved.Name)
	}

	updated := stored.Clone()
	for _, p := range modified.Properties {
		if propertyList != nil && !propertySelected(propertyList, p.Name) {
			continue
		}
		cp := resolved.Property(p.Name)
		if cp == nil {
			return errors.Wrapf(errors.ErrInvalidParameter,
				"property %q is not declared by class %q", p.Name, resolved.Name)
		}
		if !cim.ValueCompatible(p.Value, cp.Type, cp.IsArray) {
			return errors.Wrapf(errors.ErrInvalidParameter,
				"property %q does not match declared type %s", p.Name, typeLabel(cp.Type, cp.IsArray))
		}
		if cp.IsKey() {
			current, _ := stored.PropertyValue(p.Name)
			if !cim.ValueEqual(current, p.Value) {
				return errors.Wrapf(errors.ErrInvalidParameter,
					"key property %q cannot be modified", p.Name)
			}
			continue
		}
		np := p.Clone()
		np.Type = cp.Type
		np.IsArray = cp.IsArray
		updated.SetProperty(np)
	}

	ns.instances[cim.Fold(stored.ClassName)][idx] = updated
	r.log.Debugw("instance modified", "namespace", ns.name, "path", modified.Path.String())
	return nil
}

// DeleteInstance removes the instance at path.
func (r *Repository) DeleteInstance(path *cim.ObjectPath) error {
	if path == nil || path.IsClassPath() {
		return errors.Wrap(errors.ErrUsage, "nil or class-only instance path")
	}

	ns, err := r.store(path.Namespace)
	if err != nil {
		return err
	}

	ns.mu.Lock()
	defer ns.mu.Unlock()

	if err := ns.live(); err != nil {
		return err
	}
	// Dispatch guarantees: class and target instance must exist before any
	// provider runs.
	if ns.class(path.ClassName) == nil {
		return errors.Wrapf(errors.ErrInvalidClass, "class %q in %q", path.ClassName, ns.name)
	}
	if stored, _ := ns.findInstance(path); stored == nil {
		return errors.Wrapf(errors.ErrNotFound, "instance %s", path)
	}
	if p := r.providers.instanceWrite(ns.name, path.ClassName); p != nil {
		return p.DeleteInstance(r.providerContext(ns), path)
	}
	return r.deleteInstance(ns, path)
}

// deleteInstance is the default delete path. Assumes ns.mu held.
func (r *Repository) deleteInstance(ns *namespaceStore, path *cim.ObjectPath) error {
	if ns.class(path.ClassName) == nil {
		return errors.Wrapf(errors.ErrInvalidClass, "class %q in %q", path.ClassName, ns.name)
	}
	stored, idx := ns.findInstance(path)
	if stored == nil {
		return errors.Wrapf(errors.ErrNotFound, "instance %s", path)
	}
	key := cim.Fold(path.ClassName)
	ns.instances[key] = append(ns.instances[key][:idx], ns.instances[key][idx+1:]...)
	r.log.Debugw("instance deleted", "namespace", ns.name, "path", path.String())
	return nil
}
