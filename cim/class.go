package cim

// Property is a class property declaration or an instance property value.
// ClassOrigin and Propagated are filled in by class resolution: ClassOrigin
// names the class in the hierarchy that first declared the property and is
// unchanged by subclassing or overriding; Propagated is true when the
// property was inherited rather than locally declared.
type Property struct {
	Name           string
	Type           Type
	Value          interface{}
	IsArray        bool
	ArraySize      int
	ReferenceClass string
	ClassOrigin    string
	Propagated     bool
	Qualifiers     Qualifiers
}

// IsKey reports whether the property carries a true Key qualifier.
func (p *Property) IsKey() bool {
	return p.Qualifiers.HasTrue(QualifierKey)
}

// EmbeddedInstanceClass returns the class named by an EmbeddedInstance
// qualifier, or "" when the property is not an embedded instance.
func (p *Property) EmbeddedInstanceClass() string {
	q := p.Qualifiers.Find(QualifierEmbeddedInstance)
	if q == nil {
		return ""
	}
	return q.StringValue()
}

// Clone returns a deep copy of the property.
func (p Property) Clone() Property {
	out := p
	out.Value = CopyValue(p.Value)
	out.Qualifiers = p.Qualifiers.Clone()
	return out
}

// Parameter is a method parameter declaration.
type Parameter struct {
	Name           string
	Type           Type
	IsArray        bool
	ArraySize      int
	ReferenceClass string
	Qualifiers     Qualifiers
}

// IsOutput reports whether the parameter carries a true Out qualifier.
func (p *Parameter) IsOutput() bool {
	return p.Qualifiers.HasTrue(QualifierOut)
}

// Clone returns a deep copy of the parameter.
func (p Parameter) Clone() Parameter {
	out := p
	out.Qualifiers = p.Qualifiers.Clone()
	return out
}

// Method is a class method declaration. ClassOrigin and Propagated follow the
// same resolution rules as Property.
type Method struct {
	Name        string
	ReturnType  Type
	ClassOrigin string
	Propagated  bool
	Qualifiers  Qualifiers
	Parameters  []Parameter
}

// IsStatic reports whether the method carries a true Static qualifier and so
// may be invoked on a class path.
func (m *Method) IsStatic() bool {
	return m.Qualifiers.HasTrue(QualifierStatic)
}

// Parameter returns the named parameter, or nil.
func (m *Method) Parameter(name string) *Parameter {
	for i := range m.Parameters {
		if NameEqual(m.Parameters[i].Name, name) {
			return &m.Parameters[i]
		}
	}
	return nil
}

// Clone returns a deep copy of the method.
func (m Method) Clone() Method {
	out := m
	out.Qualifiers = m.Qualifiers.Clone()
	if m.Parameters != nil {
		out.Parameters = make([]Parameter, len(m.Parameters))
		for i, p := range m.Parameters {
			out.Parameters[i] = p.Clone()
		}
	}
	return out
}

// Class is a CIM class: a name, an optional superclass, and ordered property
// and method collections. A class as registered carries only its local
// declarations; class resolution produces a copy whose member set is the
// union of the local members and all ancestors' members.
type Class struct {
	Name       string
	SuperClass string
	Qualifiers Qualifiers
	Properties []Property
	Methods    []Method
}

// Property returns the named property, or nil.
func (c *Class) Property(name string) *Property {
	for i := range c.Properties {
		if NameEqual(c.Properties[i].Name, name) {
			return &c.Properties[i]
		}
	}
	return nil
}

// Method returns the named method, or nil.
func (c *Class) Method(name string) *Method {
	for i := range c.Methods {
		if NameEqual(c.Methods[i].Name, name) {
			return &c.Methods[i]
		}
	}
	return nil
}

// KeyProperties returns the properties carrying a Key qualifier, in
// declaration order. Only meaningful on a resolved class.
func (c *Class) KeyProperties() []Property {
	var keys []Property
	for _, p := range c.Properties {
		if p.IsKey() {
			keys = append(keys, p)
		}
	}
	return keys
}

// IsAssociation reports whether the class carries the Association qualifier.
func (c *Class) IsAssociation() bool {
	return c.Qualifiers.HasTrue(QualifierAssociation)
}

// IsAbstract reports whether the class carries the Abstract qualifier.
func (c *Class) IsAbstract() bool {
	return c.Qualifiers.HasTrue(QualifierAbstract)
}

// ReferenceProperties returns the class's reference-typed properties in
// declaration order. Only meaningful on a resolved class.
func (c *Class) ReferenceProperties() []Property {
	var refs []Property
	for _, p := range c.Properties {
		if p.Type == TypeReference {
			refs = append(refs, p)
		}
	}
	return refs
}

// Clone returns a deep copy of the class.
func (c *Class) Clone() *Class {
	if c == nil {
		return nil
	}
	out := &Class{
		Name:       c.Name,
		SuperClass: c.SuperClass,
		Qualifiers: c.Qualifiers.Clone(),
	}
	if c.Properties != nil {
		out.Properties = make([]Property, len(c.Properties))
		for i, p := range c.Properties {
			out.Properties[i] = p.Clone()
		}
	}
	if c.Methods != nil {
		out.Methods = make([]Method, len(c.Methods))
		for i, m := range c.Methods {
			out.Methods[i] = m.Clone()
		}
	}
	return out
}
