package cim

import (
	"fmt"
	"sort"
	"strings"
)

// KeyBinding is one name/value pair of an instance path. The value may itself
// be an instance path for reference keys.
type KeyBinding struct {
	Name  string
	Value interface{}
}

// Clone returns a deep copy of the keybinding.
func (kb KeyBinding) Clone() KeyBinding {
	return KeyBinding{Name: kb.Name, Value: CopyValue(kb.Value)}
}

// ObjectPath identifies a class (no keybindings) or an instance (one or more
// keybindings) within a namespace, optionally qualified by a host.
type ObjectPath struct {
	Host        string
	Namespace   string
	ClassName   string
	KeyBindings []KeyBinding
}

// NewClassPath builds a class path.
func NewClassPath(namespace, classname string) *ObjectPath {
	return &ObjectPath{Namespace: NormalizeNamespace(namespace), ClassName: classname}
}

// NewInstancePath builds an instance path from keybindings.
func NewInstancePath(namespace, classname string, keys []KeyBinding) *ObjectPath {
	return &ObjectPath{
		Namespace:   NormalizeNamespace(namespace),
		ClassName:   classname,
		KeyBindings: keys,
	}
}

// IsClassPath reports whether the path names a class rather than an instance.
func (p *ObjectPath) IsClassPath() bool {
	return len(p.KeyBindings) == 0
}

// KeyBinding returns the value of the named keybinding. The second return is
// false when absent.
func (p *ObjectPath) KeyBinding(name string) (interface{}, bool) {
	for _, kb := range p.KeyBindings {
		if NameEqual(kb.Name, name) {
			return kb.Value, true
		}
	}
	return nil, false
}

// SetKeyBinding replaces or appends a keybinding.
func (p *ObjectPath) SetKeyBinding(name string, value interface{}) {
	for i := range p.KeyBindings {
		if NameEqual(p.KeyBindings[i].Name, name) {
			p.KeyBindings[i].Value = value
			return
		}
	}
	p.KeyBindings = append(p.KeyBindings, KeyBinding{Name: name, Value: value})
}

// Clone returns a deep copy of the path.
func (p *ObjectPath) Clone() *ObjectPath {
	if p == nil {
		return nil
	}
	out := &ObjectPath{
		Host:      p.Host,
		Namespace: p.Namespace,
		ClassName: p.ClassName,
	}
	if p.KeyBindings != nil {
		out.KeyBindings = make([]KeyBinding, len(p.KeyBindings))
		for i, kb := range p.KeyBindings {
			out.KeyBindings[i] = kb.Clone()
		}
	}
	return out
}

// Canonical returns the path's comparison form: names folded, namespace
// normalized, keybindings sorted by folded name, reference values rendered
// recursively in canonical form. The host is excluded: path matching inside
// one repository is host-agnostic.
func (p *ObjectPath) Canonical() string {
	var b strings.Builder
	b.WriteString(FoldNamespace(p.Namespace))
	b.WriteString(":")
	b.WriteString(Fold(p.ClassName))
	if len(p.KeyBindings) == 0 {
		return b.String()
	}
	keys := make([]string, 0, len(p.KeyBindings))
	for _, kb := range p.KeyBindings {
		keys = append(keys, Fold(kb.Name)+"="+CanonicalValue(kb.Value))
	}
	sort.Strings(keys)
	b.WriteString(".")
	b.WriteString(strings.Join(keys, ","))
	return b.String()
}

// Equal reports whether two paths name the same object: case-insensitive on
// names, order-independent on keybindings.
func (p *ObjectPath) Equal(other *ObjectPath) bool {
	if p == nil || other == nil {
		return p == other
	}
	return p.Canonical() == other.Canonical()
}

// String renders the path in WBEM URI style, preserving declared case.
func (p *ObjectPath) String() string {
	var b strings.Builder
	if p.Host != "" {
		b.WriteString("//")
		b.WriteString(p.Host)
		b.WriteString("/")
	}
	b.WriteString(NormalizeNamespace(p.Namespace))
	b.WriteString(":")
	b.WriteString(p.ClassName)
	for i, kb := range p.KeyBindings {
		if i == 0 {
			b.WriteString(".")
		} else {
			b.WriteString(",")
		}
		b.WriteString(kb.Name)
		b.WriteString("=")
		b.WriteString(formatKeyValue(kb.Value))
	}
	return b.String()
}

func formatKeyValue(v interface{}) string {
	switch x := v.(type) {
	case string:
		return fmt.Sprintf("%q", x)
	case *ObjectPath:
		return fmt.Sprintf("%q", x.String())
	default:
		return fmt.Sprintf("%v", v)
	}
}
