// Package repo implements the in-process CIM object repository and request
// engine behind the mock WBEM server: per-namespace qualifier, class, and
// instance stores, class-inheritance resolution, filtered instance
// operations, association traversal, open/pull/close enumeration, and
// provider dispatch.
//
// The repository is namespace-isolated. Every namespace owns one qualifier
// store, one class store, and one instance store, guarded by one exclusive
// section: mutations of a namespace never interleave with reads of the same
// namespace, so a resolution pass never observes a half-updated superclass
// chain. Providers registered for instance-write or method operations are
// invoked inside that section and receive a ProviderContext whose operations
// re-enter the default engine without re-locking.
//
// All operations are synchronous and bounded by repository size; the engine
// performs no I/O. Protocol-facing failures wrap the sentinels of the local
// errors package.
package repo
