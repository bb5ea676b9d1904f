package repo

import (
	"sync"

	"github.com/Masterminds/semver/v3"

	"github.com/cimworks/mockwbem/cim"
	"github.com/cimworks/mockwbem/errors"
)

// OperationKind partitions the dispatchable operations. Instance reads are
// always serviced by the engine itself and cannot be overridden.
type OperationKind string

const (
	OpInstanceWrite OperationKind = "instance-write"
	OpMethod        OperationKind = "method"
)

// ProviderInfo describes a registered provider. EngineConstraint, when set,
// is a semver constraint the running engine version must satisfy.
type ProviderInfo struct {
	Name             string
	Version          string
	EngineConstraint string
}

// InstanceWriteProvider overrides the engine's create/modify/delete behavior
// for one class in one namespace. Implementations may call back into the
// default engine through the ProviderContext; its operations run under the
// already-held namespace section, so delegation never deadlocks.
type InstanceWriteProvider interface {
	CreateInstance(ctx *ProviderContext, inst *cim.Instance) (*cim.ObjectPath, error)
	ModifyInstance(ctx *ProviderContext, inst *cim.Instance, propertyList []string) error
	DeleteInstance(ctx *ProviderContext, path *cim.ObjectPath) error
}

// ParamValue is one named method argument or result value.
type ParamValue struct {
	Name  string
	Value interface{}
}

// MethodCall carries one extrinsic method invocation to a MethodProvider.
type MethodCall struct {
	Path   *cim.ObjectPath
	Method string
	In     []ParamValue
}

// MethodResult is a method provider's output. Out values must match the
// method's declared parameter types; the dispatcher validates them before
// they reach the caller.
type MethodResult struct {
	ReturnValue interface{}
	Out         []ParamValue
}

// MethodProvider services extrinsic method calls for one class in one
// namespace.
type MethodProvider interface {
	InvokeMethod(ctx *ProviderContext, call MethodCall) (MethodResult, error)
}

type providerKey struct {
	namespace string
	classname string
	kind      OperationKind
}

type providerEntry struct {
	info     ProviderInfo
	instance InstanceWriteProvider
	method   MethodProvider
}

// providerRegistry maps (namespace, classname, kind) to a handler. Lookups
// use the exact classname only: a provider registered for a superclass never
// serves its subclasses.
type providerRegistry struct {
	mu      sync.RWMutex
	entries map[providerKey]*providerEntry
}

func (pr *providerRegistry) init() {
	pr.entries = make(map[providerKey]*providerEntry)
}

func (pr *providerRegistry) register(namespace, classname string, kind OperationKind, entry *providerEntry) error {
	if err := checkEngineConstraint(entry.info); err != nil {
		return err
	}

	key := providerKey{
		namespace: cim.FoldNamespace(namespace),
		classname: cim.Fold(classname),
		kind:      kind,
	}

	pr.mu.Lock()
	defer pr.mu.Unlock()

	if _, exists := pr.entries[key]; exists {
		return errors.Wrapf(errors.ErrUsage,
			"%s provider already registered for %s:%s", kind, namespace, classname)
	}
	pr.entries[key] = entry
	return nil
}

func checkEngineConstraint(info ProviderInfo) error {
	if info.EngineConstraint == "" {
		return nil
	}
	constraint, err := semver.NewConstraint(info.EngineConstraint)
	if err != nil {
		return errors.Wrapf(errors.ErrUsage,
			"provider %q: invalid engine constraint %q", info.Name, info.EngineConstraint)
	}
	engine := semver.MustParse(EngineVersion)
	if !constraint.Check(engine) {
		return errors.Wrapf(errors.ErrUsage,
			"provider %q requires engine %s, running %s", info.Name, info.EngineConstraint, EngineVersion)
	}
	return nil
}

func (pr *providerRegistry) lookup(namespace, classname string, kind OperationKind) *providerEntry {
	pr.mu.RLock()
	defer pr.mu.RUnlock()
	return pr.entries[providerKey{
		namespace: cim.FoldNamespace(namespace),
		classname: cim.Fold(classname),
		kind:      kind,
	}]
}

func (pr *providerRegistry) instanceWrite(namespace, classname string) InstanceWriteProvider {
	if e := pr.lookup(namespace, classname, OpInstanceWrite); e != nil {
		return e.instance
	}
	return nil
}

func (pr *providerRegistry) methodProvider(namespace, classname string) MethodProvider {
	if e := pr.lookup(namespace, classname, OpMethod); e != nil {
		return e.method
	}
	return nil
}

// RegisterInstanceWriteProvider registers an instance-write provider for one
// (namespace, classname) pair. Registering where one exists is rejected.
func (r *Repository) RegisterInstanceWriteProvider(namespace, classname string, info ProviderInfo, p InstanceWriteProvider) error {
	if p == nil {
		return errors.Wrap(errors.ErrUsage, "nil provider")
	}
	if err := r.providers.register(namespace, classname, OpInstanceWrite, &providerEntry{info: info, instance: p}); err != nil {
		return err
	}
	r.log.Infow("instance-write provider registered",
		"namespace", cim.NormalizeNamespace(namespace), "class", classname, "provider", info.Name)
	return nil
}

// RegisterMethodProvider registers a method provider for one (namespace,
// classname) pair. Registering where one exists is rejected.
func (r *Repository) RegisterMethodProvider(namespace, classname string, info ProviderInfo, p MethodProvider) error {
	if p == nil {
		return errors.Wrap(errors.ErrUsage, "nil provider")
	}
	if err := r.providers.register(namespace, classname, OpMethod, &providerEntry{info: info, method: p}); err != nil {
		return err
	}
	r.log.Infow("method provider registered",
		"namespace", cim.NormalizeNamespace(namespace), "class", classname, "provider", info.Name)
	return nil
}

// ProviderContext is the engine handle a provider receives. Its operations
// run against the namespace whose exclusive section is already held for the
// current request, so a provider can delegate to the default behavior (for
// example, a create-instance provider doing final storage through
// CreateInstance) without deadlocking.
type ProviderContext struct {
	r  *Repository
	ns *namespaceStore
}

func (r *Repository) providerContext(ns *namespaceStore) *ProviderContext {
	return &ProviderContext{r: r, ns: ns}
}

// Namespace returns the namespace the current request targets.
func (pc *ProviderContext) Namespace() string {
	return pc.ns.name
}

// CreateInstance runs the default create path.
func (pc *ProviderContext) CreateInstance(inst *cim.Instance) (*cim.ObjectPath, error) {
	return pc.r.createInstance(pc.ns, inst)
}

// ModifyInstance runs the default modify path.
func (pc *ProviderContext) ModifyInstance(inst *cim.Instance, propertyList []string) error {
	return pc.r.modifyInstance(pc.ns, inst, propertyList)
}

// DeleteInstance runs the default delete path.
func (pc *ProviderContext) DeleteInstance(path *cim.ObjectPath) error {
	return pc.r.deleteInstance(pc.ns, path)
}

// GetInstance reads an instance through the default engine.
func (pc *ProviderContext) GetInstance(path *cim.ObjectPath, opts GetOptions) (*cim.Instance, error) {
	return pc.r.getInstance(pc.ns, path, opts)
}

// EnumerateInstances enumerates through the default engine.
func (pc *ProviderContext) EnumerateInstances(classname string, deepInheritance bool, opts GetOptions) ([]*cim.Instance, error) {
	return pc.ns.enumerateInstances(classname, deepInheritance, opts)
}

// GetClass reads a resolved class through the default engine.
func (pc *ProviderContext) GetClass(classname string, opts GetOptions) (*cim.Class, error) {
	resolved, err := pc.ns.resolveStored(classname, make(resolveCache))
	if err != nil {
		return nil, err
	}
	return filterClass(resolved, opts), nil
}
