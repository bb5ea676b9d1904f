package cim

import "strings"

// Scope names an element kind a qualifier declaration may be applied to.
type Scope string

const (
	ScopeAny         Scope = "any"
	ScopeClass       Scope = "class"
	ScopeAssociation Scope = "association"
	ScopeIndication  Scope = "indication"
	ScopeProperty    Scope = "property"
	ScopeReference   Scope = "reference"
	ScopeMethod      Scope = "method"
	ScopeParameter   Scope = "parameter"
)

// ParseScope maps a scope token to a Scope. The second return is false for
// unknown tokens.
func ParseScope(token string) (Scope, bool) {
	s := Scope(strings.ToLower(strings.TrimSpace(token)))
	switch s {
	case ScopeAny, ScopeClass, ScopeAssociation, ScopeIndication,
		ScopeProperty, ScopeReference, ScopeMethod, ScopeParameter:
		return s, true
	}
	return "", false
}

// ScopeSet is the set of scopes a qualifier declaration applies to.
type ScopeSet map[Scope]bool

// Allows reports whether the declaration may be applied at the given scope.
// ScopeAny admits every element kind.
func (s ScopeSet) Allows(at Scope) bool {
	return s[ScopeAny] || s[at]
}

// Clone returns an independent copy of the scope set.
func (s ScopeSet) Clone() ScopeSet {
	out := make(ScopeSet, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Flavor holds a qualifier declaration's propagation and override rules.
//
//	Overridable   subclasses may change the qualifier's value
//	ToSubclass    the qualifier propagates to subclasses
//	ToInstance    the qualifier propagates to instances
//	Translatable  the value may be localized by a display layer
type Flavor struct {
	Overridable  bool
	ToSubclass   bool
	ToInstance   bool
	Translatable bool
}

// DefaultFlavor is the flavor assumed when a declaration specifies none:
// overridable and propagated to subclasses.
func DefaultFlavor() Flavor {
	return Flavor{Overridable: true, ToSubclass: true}
}

// QualifierDecl declares a qualifier: its value type, default, legal scopes,
// and flavor. Declarations are immutable once stored except by explicit
// replace.
type QualifierDecl struct {
	Name    string
	Type    Type
	IsArray bool
	Default interface{}
	Scopes  ScopeSet
	Flavor  Flavor
}

// Clone returns a deep copy of the declaration.
func (d *QualifierDecl) Clone() *QualifierDecl {
	out := *d
	out.Default = CopyValue(d.Default)
	out.Scopes = d.Scopes.Clone()
	return &out
}

// Qualifier is a qualifier value applied to a class, property, method, or
// parameter. Propagated marks values inherited from a superclass rather than
// declared locally. The flavor pointers, when nil, defer to the declaration.
type Qualifier struct {
	Name       string
	Type       Type
	Value      interface{}
	IsArray    bool
	Propagated bool

	Overridable  *bool
	ToSubclass   *bool
	ToInstance   *bool
	Translatable *bool
}

// Clone returns a deep copy of the qualifier.
func (q Qualifier) Clone() Qualifier {
	out := q
	out.Value = CopyValue(q.Value)
	out.Overridable = cloneBool(q.Overridable)
	out.ToSubclass = cloneBool(q.ToSubclass)
	out.ToInstance = cloneBool(q.ToInstance)
	out.Translatable = cloneBool(q.Translatable)
	return out
}

func cloneBool(b *bool) *bool {
	if b == nil {
		return nil
	}
	v := *b
	return &v
}

// EffectiveFlavor resolves the qualifier's flavor against its declaration.
func (q Qualifier) EffectiveFlavor(decl *QualifierDecl) Flavor {
	f := DefaultFlavor()
	if decl != nil {
		f = decl.Flavor
	}
	if q.Overridable != nil {
		f.Overridable = *q.Overridable
	}
	if q.ToSubclass != nil {
		f.ToSubclass = *q.ToSubclass
	}
	if q.ToInstance != nil {
		f.ToInstance = *q.ToInstance
	}
	if q.Translatable != nil {
		f.Translatable = *q.Translatable
	}
	return f
}

// BoolValue reports whether the qualifier carries a true boolean value.
// A boolean qualifier written without a value means true.
func (q Qualifier) BoolValue() bool {
	if q.Value == nil {
		return q.Type == TypeBoolean
	}
	b, ok := q.Value.(bool)
	return ok && b
}

// StringValue returns the qualifier's string value, or "" when absent.
func (q Qualifier) StringValue() string {
	s, _ := q.Value.(string)
	return s
}

// Qualifiers is an ordered qualifier collection with case-insensitive lookup.
type Qualifiers []Qualifier

// Find returns the qualifier with the given name, or nil.
func (qs Qualifiers) Find(name string) *Qualifier {
	for i := range qs {
		if NameEqual(qs[i].Name, name) {
			return &qs[i]
		}
	}
	return nil
}

// Has reports whether a qualifier with the given name is present.
func (qs Qualifiers) Has(name string) bool {
	return qs.Find(name) != nil
}

// HasTrue reports whether the named qualifier is present with a true
// boolean value.
func (qs Qualifiers) HasTrue(name string) bool {
	q := qs.Find(name)
	return q != nil && q.BoolValue()
}

// Clone returns a deep copy of the collection.
func (qs Qualifiers) Clone() Qualifiers {
	if qs == nil {
		return nil
	}
	out := make(Qualifiers, len(qs))
	for i, q := range qs {
		out[i] = q.Clone()
	}
	return out
}

// Well-known qualifier names the engine gives semantics to.
const (
	QualifierKey              = "Key"
	QualifierAssociation      = "Association"
	QualifierIndication       = "Indication"
	QualifierAbstract         = "Abstract"
	QualifierOverride         = "Override"
	QualifierStatic           = "Static"
	QualifierEmbeddedInstance = "EmbeddedInstance"
	QualifierIn               = "In"
	QualifierOut              = "Out"
)
