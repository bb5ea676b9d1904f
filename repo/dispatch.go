package repo

import (
	"github.com/cimworks/mockwbem/cim"
	"github.com/cimworks/mockwbem/errors"
)

// InvokeMethod dispatches an extrinsic method call. Before any provider runs
// the dispatcher guarantees: the namespace exists, the class exists, the
// target instance exists for instance-level calls, the method is declared on
// the resolved class, and class-level calls target a Static method. Without
// a registered method provider for the exact classname the call fails
// MethodNotAvailable; the engine has no built-in method behavior.
//
// Provider output is validated against the method's declared return and
// parameter types before it reaches the caller; malformed output is reported
// as an internal defect, never as a caller error.
func (r *Repository) InvokeMethod(path *cim.ObjectPath, method string, in []ParamValue) (MethodResult, error) {
	if path == nil || path.ClassName == "" || method == "" {
		return MethodResult{}, errors.Wrap(errors.ErrUsage, "nil path or empty method name")
	}

	ns, err := r.store(path.Namespace)
	if err != nil {
		return MethodResult{}, err
	}

	ns.mu.Lock()
	defer ns.mu.Unlock()

	if err := ns.live(); err != nil {
		return MethodResult{}, err
	}
	if ns.class(path.ClassName) == nil {
		return MethodResult{}, errors.Wrapf(errors.ErrInvalidClass, "class %q in %q", path.ClassName, ns.name)
	}
	resolved, err := ns.resolveStored(path.ClassName, make(resolveCache))
	if err != nil {
		return MethodResult{}, err
	}

	decl := resolved.Method(method)
	if decl == nil {
		return MethodResult{}, errors.Wrapf(errors.ErrMethodNotFound,
			"method %q on class %q", method, resolved.Name)
	}
	if path.IsClassPath() {
		if !decl.IsStatic() {
			return MethodResult{}, errors.Wrapf(errors.ErrMethodNotFound,
				"method %q on class %q is not Static", method, resolved.Name)
		}
	} else {
		if stored, _ := ns.findInstance(path); stored == nil {
			return MethodResult{}, errors.Wrapf(errors.ErrNotFound, "instance %s", path)
		}
	}
	if err := checkMethodArguments(decl, in); err != nil {
		return MethodResult{}, err
	}

	provider := r.providers.methodProvider(ns.name, path.ClassName)
	if provider == nil {
		return MethodResult{}, errors.Wrapf(errors.ErrMethodNotAvailable,
			"no provider services method %q on class %q", method, resolved.Name)
	}

	result, err := provider.InvokeMethod(r.providerContext(ns), MethodCall{
		Path:   path.Clone(),
		Method: decl.Name,
		In:     in,
	})
	if err != nil {
		return MethodResult{}, err
	}
	if err := checkMethodResult(decl, result); err != nil {
		return MethodResult{}, err
	}
	return result, nil
}

// checkMethodArguments validates caller-supplied in-parameters against the
// method declaration. Unknown or type-mismatched arguments are caller
// errors.
func checkMethodArguments(decl *cim.Method, in []ParamValue) error {
	for _, arg := range in {
		param := decl.Parameter(arg.Name)
		if param == nil {
			return errors.Wrapf(errors.ErrInvalidParameter,
				"method %q has no parameter %q", decl.Name, arg.Name)
		}
		if !cim.ValueCompatible(arg.Value, param.Type, param.IsArray) {
			return errors.Wrapf(errors.ErrInvalidParameter,
				"parameter %q does not match declared type %s",
				arg.Name, typeLabel(param.Type, param.IsArray))
		}
	}
	return nil
}

// checkMethodResult validates provider output against the method
// declaration. A violation here is a provider defect, reported as an
// assertion failure rather than a protocol error.
func checkMethodResult(decl *cim.Method, result MethodResult) error {
	if result.ReturnValue != nil &&
		!cim.ValueCompatible(result.ReturnValue, decl.ReturnType, false) {
		return errors.AssertionFailedf(
			"provider returned %T for method %q declared %s",
			result.ReturnValue, decl.Name, decl.ReturnType)
	}
	for _, out := range result.Out {
		param := decl.Parameter(out.Name)
		if param == nil {
			return errors.AssertionFailedf(
				"provider returned undeclared out-parameter %q for method %q", out.Name, decl.Name)
		}
		if !cim.ValueCompatible(out.Value, param.Type, param.IsArray) {
			return errors.AssertionFailedf(
				"provider out-parameter %q does not match declared type %s",
				out.Name, typeLabel(param.Type, param.IsArray))
		}
	}
	return nil
}
