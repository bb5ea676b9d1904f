package repo

import (
	"github.com/cimworks/mockwbem/cim"
)

// GetOptions controls how much of an object a read operation returns.
//
// PropertyList distinguishes nil (all properties) from empty-but-present (no
// properties); names not defined by the class are silently dropped.
type GetOptions struct {
	LocalOnly          bool
	IncludeQualifiers  bool
	IncludeClassOrigin bool
	PropertyList       []string
}

// AllProperties is the GetOptions for a full, qualifier-free read.
var AllProperties = GetOptions{IncludeQualifiers: false, IncludeClassOrigin: false}

func propertySelected(list []string, name string) bool {
	if list == nil {
		return true
	}
	for _, n := range list {
		if cim.NameEqual(n, name) {
			return true
		}
	}
	return false
}

// filterClass applies GetOptions to a resolved class, returning a fresh copy.
// LocalOnly keeps only members declared by the class itself (not propagated).
func filterClass(resolved *cim.Class, opts GetOptions) *cim.Class {
	out := &cim.Class{Name: resolved.Name, SuperClass: resolved.SuperClass}
	if opts.IncludeQualifiers {
		out.Qualifiers = resolved.Qualifiers.Clone()
	}
	for _, p := range resolved.Properties {
		if opts.LocalOnly && p.Propagated {
			continue
		}
		if !propertySelected(opts.PropertyList, p.Name) {
			continue
		}
		fp := p.Clone()
		if !opts.IncludeQualifiers {
			fp.Qualifiers = nil
		}
		if !opts.IncludeClassOrigin {
			fp.ClassOrigin = ""
		}
		out.Properties = append(out.Properties, fp)
	}
	for _, m := range resolved.Methods {
		if opts.LocalOnly && m.Propagated {
			continue
		}
		fm := m.Clone()
		if !opts.IncludeQualifiers {
			fm.Qualifiers = nil
			for i := range fm.Parameters {
				fm.Parameters[i].Qualifiers = nil
			}
		}
		if !opts.IncludeClassOrigin {
			fm.ClassOrigin = ""
		}
		out.Methods = append(out.Methods, fm)
	}
	return out
}

// filterInstance applies GetOptions to a stored instance against its
// resolved class, returning a fresh copy with property provenance taken from
// the class. LocalOnly keeps only properties whose origin is the instance's
// leaf class.
func filterInstance(stored *cim.Instance, resolved *cim.Class, opts GetOptions) *cim.Instance {
	out := &cim.Instance{
		ClassName: stored.ClassName,
		Path:      stored.Path.Clone(),
	}
	if opts.IncludeQualifiers {
		out.Qualifiers = stored.Qualifiers.Clone()
	}
	for _, p := range stored.Properties {
		cp := resolved.Property(p.Name)
		if cp == nil {
			continue
		}
		if opts.LocalOnly && !cim.NameEqual(cp.ClassOrigin, stored.ClassName) {
			continue
		}
		if !propertySelected(opts.PropertyList, p.Name) {
			continue
		}
		fp := p.Clone()
		if opts.IncludeQualifiers {
			fp.Qualifiers = cp.Qualifiers.Clone()
		} else {
			fp.Qualifiers = nil
		}
		if opts.IncludeClassOrigin {
			fp.ClassOrigin = cp.ClassOrigin
		} else {
			fp.ClassOrigin = ""
		}
		fp.Propagated = cp.Propagated
		out.Properties = append(out.Properties, fp)
	}
	return out
}
