package repo

import (
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cimworks/mockwbem/cim"
	"github.com/cimworks/mockwbem/errors"
	"github.com/cimworks/mockwbem/logger"
)

// EngineVersion is the engine's semantic version, checked against provider
// registration constraints.
const EngineVersion = "0.9.0"

// DefaultContextIdleTimeout is how long an untouched enumeration context
// stays valid before the next Pull or Close on it fails.
const DefaultContextIdleTimeout = 15 * time.Minute

// Options configures a Repository.
type Options struct {
	// DisablePull makes every Open*/Pull* operation fail NotSupported,
	// emulating a server without pull support.
	DisablePull bool

	// ContextIdleTimeout overrides DefaultContextIdleTimeout. Zero means the
	// default; negative disables idle expiry.
	ContextIdleTimeout time.Duration

	// DefaultMaxObjectCount is used by Open*/Pull* when the caller passes a
	// zero max object count.
	DefaultMaxObjectCount int

	// Log overrides the package-global logger.
	Log *zap.SugaredLogger
}

// Repository is an in-memory CIM object repository: the server side of a
// WBEM exchange, minus transport and encoding. The zero value is not usable;
// call New.
type Repository struct {
	mu         sync.RWMutex
	namespaces map[string]*namespaceStore

	providers providerRegistry
	contexts  contextTable

	opts Options
	log  *zap.SugaredLogger
}

// New creates an empty repository.
func New(opts Options) *Repository {
	if opts.ContextIdleTimeout == 0 {
		opts.ContextIdleTimeout = DefaultContextIdleTimeout
	}
	if opts.DefaultMaxObjectCount <= 0 {
		opts.DefaultMaxObjectCount = 100
	}
	log := opts.Log
	if log == nil {
		log = logger.Logger
	}
	r := &Repository{
		namespaces: make(map[string]*namespaceStore),
		opts:       opts,
		log:        log,
	}
	r.providers.init()
	r.contexts.init()
	r.log.Debugw("repository created",
		"pull_disabled", opts.DisablePull,
		"context_idle_timeout", opts.ContextIdleTimeout)
	return r
}

// CreateNamespace creates a namespace and returns its normalized name.
// Fails AlreadyExists when the namespace is present after normalization.
func (r *Repository) CreateNamespace(name string) (string, error) {
	normalized := cim.NormalizeNamespace(name)
	if normalized == "" {
		return "", errors.Wrap(errors.ErrInvalidParameter, "empty namespace name")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := cim.Fold(normalized)
	if _, ok := r.namespaces[key]; ok {
		return "", errors.Wrapf(errors.ErrAlreadyExists, "namespace %q", normalized)
	}
	r.namespaces[key] = newNamespaceStore(normalized)
	r.log.Infow("namespace created", "namespace", normalized)
	return normalized, nil
}

// DeleteNamespace removes a namespace and returns its normalized name.
// Fails NotFound when absent and NamespaceNotEmpty while the namespace still
// holds any class, qualifier declaration, or instance.
func (r *Repository) DeleteNamespace(name string) (string, error) {
	normalized := cim.NormalizeNamespace(name)

	r.mu.Lock()
	defer r.mu.Unlock()

	key := cim.Fold(normalized)
	ns, ok := r.namespaces[key]
	if !ok {
		return "", errors.Wrapf(errors.ErrNotFound, "namespace %q", normalized)
	}

	// The emptiness check, tombstone, and map removal happen under ns.mu so
	// a writer that resolved the store earlier either lands before the check
	// (and blocks the delete) or finds the store dropped.
	ns.mu.Lock()
	if !ns.isEmpty() {
		ns.mu.Unlock()
		return "", errors.Wrapf(errors.ErrNamespaceNotEmpty, "namespace %q", normalized)
	}
	ns.dropped = true
	delete(r.namespaces, key)
	ns.mu.Unlock()

	r.log.Infow("namespace deleted", "namespace", normalized)
	return ns.name, nil
}

// Namespaces returns the sorted normalized names of all namespaces.
func (r *Repository) Namespaces() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.namespaces))
	for _, ns := range r.namespaces {
		names = append(names, ns.name)
	}
	sort.Strings(names)
	return names
}

// HasNamespace reports whether the namespace exists.
func (r *Repository) HasNamespace(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.namespaces[cim.FoldNamespace(name)]
	return ok
}

// store resolves a namespace to its stores, failing InvalidNamespace when
// absent.
func (r *Repository) store(namespace string) (*namespaceStore, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ns, ok := r.namespaces[cim.FoldNamespace(namespace)]
	if !ok {
		return nil, errors.Wrapf(errors.ErrInvalidNamespace, "namespace %q", cim.NormalizeNamespace(namespace))
	}
	return ns, nil
}

// ensureStore resolves a namespace, creating it when absent. Schema writes
// (qualifier and class creation) create their namespace implicitly.
func (r *Repository) ensureStore(namespace string) (*namespaceStore, error) {
	normalized := cim.NormalizeNamespace(namespace)
	if normalized == "" {
		return nil, errors.Wrap(errors.ErrInvalidParameter, "empty namespace name")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := cim.Fold(normalized)
	ns, ok := r.namespaces[key]
	if !ok {
		ns = newNamespaceStore(normalized)
		r.namespaces[key] = ns
		r.log.Infow("namespace created implicitly", "namespace", normalized)
	}
	return ns, nil
}
