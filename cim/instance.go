package cim

// Instance is a data object conforming to a class. Its property names must be
// a subset of the class's resolved properties. Path is nil until assigned by
// the engine (from the class's key properties) or pre-populated by a
// compiler.
type Instance struct {
	ClassName  string
	Qualifiers Qualifiers
	Properties []Property
	Path       *ObjectPath
}

// Property returns the named property, or nil.
func (i *Instance) Property(name string) *Property {
	for idx := range i.Properties {
		if NameEqual(i.Properties[idx].Name, name) {
			return &i.Properties[idx]
		}
	}
	return nil
}

// PropertyValue returns the value of the named property. The second return
// is false when the instance does not carry the property.
func (i *Instance) PropertyValue(name string) (interface{}, bool) {
	p := i.Property(name)
	if p == nil {
		return nil, false
	}
	return p.Value, true
}

// SetProperty replaces or appends a property value.
func (i *Instance) SetProperty(p Property) {
	for idx := range i.Properties {
		if NameEqual(i.Properties[idx].Name, p.Name) {
			i.Properties[idx] = p
			return
		}
	}
	i.Properties = append(i.Properties, p)
}

// RemoveProperty drops the named property if present.
func (i *Instance) RemoveProperty(name string) {
	for idx := range i.Properties {
		if NameEqual(i.Properties[idx].Name, name) {
			i.Properties = append(i.Properties[:idx], i.Properties[idx+1:]...)
			return
		}
	}
}

// PropertyEqual reports whether two instances carry the same property set
// with equal values, ignoring declaration order and name case.
func (i *Instance) PropertyEqual(other *Instance) bool {
	if len(i.Properties) != len(other.Properties) {
		return false
	}
	for _, p := range i.Properties {
		op := other.Property(p.Name)
		if op == nil || !ValueEqual(p.Value, op.Value) {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of the instance.
func (i *Instance) Clone() *Instance {
	if i == nil {
		return nil
	}
	out := &Instance{
		ClassName:  i.ClassName,
		Qualifiers: i.Qualifiers.Clone(),
		Path:       i.Path.Clone(),
	}
	if i.Properties != nil {
		out.Properties = make([]Property, len(i.Properties))
		for idx, p := range i.Properties {
			out.Properties[idx] = p.Clone()
		}
	}
	return out
}
