// Package modelfile loads YAML model files into a repository. A model file
// declares qualifiers, classes, and instances per namespace and feeds them
// through the same create operations an external schema compiler uses, so a
// repository can be seeded without one.
package modelfile

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cimworks/mockwbem/cim"
	"github.com/cimworks/mockwbem/errors"
	"github.com/cimworks/mockwbem/repo"
)

// File is the root of a model file.
type File struct {
	Namespaces []Namespace `yaml:"namespaces"`
}

// Namespace declares one namespace's schema and data.
type Namespace struct {
	Name string `yaml:"name"`

	// StandardQualifiers installs the DMTF standard qualifier declarations
	// before anything else in the namespace.
	StandardQualifiers bool `yaml:"standard_qualifiers"`

	Qualifiers []QualifierDecl `yaml:"qualifiers"`
	Classes    []Class         `yaml:"classes"`
	Instances  []Instance      `yaml:"instances"`
}

// QualifierDecl declares a qualifier.
type QualifierDecl struct {
	Name    string      `yaml:"name"`
	Type    string      `yaml:"type"`
	Array   bool        `yaml:"array"`
	Default interface{} `yaml:"default"`
	Scopes  []string    `yaml:"scopes"`
	Flavors Flavors     `yaml:"flavors"`
}

// Flavors is a declaration's flavor set.
type Flavors struct {
	Overridable  *bool `yaml:"overridable"`
	ToSubclass   *bool `yaml:"to_subclass"`
	ToInstance   *bool `yaml:"to_instance"`
	Translatable *bool `yaml:"translatable"`
}

// Class declares a class.
type Class struct {
	Name       string      `yaml:"name"`
	Super      string      `yaml:"super"`
	Qualifiers []Qualifier `yaml:"qualifiers"`
	Properties []Property  `yaml:"properties"`
	Methods    []Method    `yaml:"methods"`
}

// Qualifier is a qualifier value on a class or member.
type Qualifier struct {
	Name  string      `yaml:"name"`
	Value interface{} `yaml:"value"`
}

// Property declares a property. Class names the reference target for
// reference-typed properties.
type Property struct {
	Name       string      `yaml:"name"`
	Type       string      `yaml:"type"`
	Array      bool        `yaml:"array"`
	Class      string      `yaml:"class"`
	Default    interface{} `yaml:"default"`
	Qualifiers []Qualifier `yaml:"qualifiers"`
}

// Method declares a method.
type Method struct {
	Name       string      `yaml:"name"`
	Returns    string      `yaml:"returns"`
	Qualifiers []Qualifier `yaml:"qualifiers"`
	Parameters []Parameter `yaml:"parameters"`
}

// Parameter declares a method parameter.
type Parameter struct {
	Name       string      `yaml:"name"`
	Type       string      `yaml:"type"`
	Array      bool        `yaml:"array"`
	Class      string      `yaml:"class"`
	Qualifiers []Qualifier `yaml:"qualifiers"`
}

// Instance declares an instance. Property values follow YAML typing; a
// reference value is written as a nested mapping with "class" and "keys".
type Instance struct {
	Class      string                 `yaml:"class"`
	Properties map[string]interface{} `yaml:"properties"`
}

// Parse decodes a model file.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, errors.Wrap(err, "parsing model file")
	}
	return &f, nil
}

// Load parses a model file and applies it to the repository.
func Load(r *repo.Repository, data []byte) error {
	f, err := Parse(data)
	if err != nil {
		return err
	}
	return Apply(r, f)
}

// LoadFile loads a model file from disk into the repository.
func LoadFile(r *repo.Repository, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "reading model file %s", path)
	}
	return Load(r, data)
}

// Apply feeds a parsed model file through the repository's create
// operations: qualifiers first, classes in declaration order, then
// instances.
func Apply(r *repo.Repository, f *File) error {
	for _, ns := range f.Namespaces {
		if ns.Name == "" {
			return errors.Wrap(errors.ErrUsage, "namespace without a name")
		}
		if _, err := r.CreateNamespace(ns.Name); err != nil && !errors.Is(err, errors.ErrAlreadyExists) {
			return err
		}

		if ns.StandardQualifiers {
			for _, decl := range cim.StandardQualifiers() {
				if err := r.SetQualifier(ns.Name, decl); err != nil {
					return err
				}
			}
		}
		for _, q := range ns.Qualifiers {
			decl, err := buildQualifierDecl(q)
			if err != nil {
				return err
			}
			if err := r.SetQualifier(ns.Name, decl); err != nil {
				return err
			}
		}
		for _, c := range ns.Classes {
			class, err := buildClass(c)
			if err != nil {
				return err
			}
			if err := r.CreateClass(ns.Name, class); err != nil {
				return err
			}
		}
		for _, i := range ns.Instances {
			inst, err := buildInstance(ns.Name, i)
			if err != nil {
				return err
			}
			if _, err := r.CreateInstance(ns.Name, inst); err != nil {
				return err
			}
		}
	}
	return nil
}

func buildQualifierDecl(q QualifierDecl) (*cim.QualifierDecl, error) {
	t, ok := cim.ParseType(q.Type)
	if !ok {
		return nil, errors.Wrapf(errors.ErrInvalidParameter,
			"qualifier %q: unknown type %q", q.Name, q.Type)
	}
	scopes := make(cim.ScopeSet)
	for _, s := range q.Scopes {
		scope, ok := cim.ParseScope(s)
		if !ok {
			return nil, errors.Wrapf(errors.ErrInvalidParameter,
				"qualifier %q: unknown scope %q", q.Name, s)
		}
		scopes[scope] = true
	}
	if len(scopes) == 0 {
		scopes[cim.ScopeAny] = true
	}

	flavor := cim.DefaultFlavor()
	if q.Flavors.Overridable != nil {
		flavor.Overridable = *q.Flavors.Overridable
	}
	if q.Flavors.ToSubclass != nil {
		flavor.ToSubclass = *q.Flavors.ToSubclass
	}
	if q.Flavors.ToInstance != nil {
		flavor.ToInstance = *q.Flavors.ToInstance
	}
	if q.Flavors.Translatable != nil {
		flavor.Translatable = *q.Flavors.Translatable
	}

	return &cim.QualifierDecl{
		Name:    q.Name,
		Type:    t,
		IsArray: q.Array,
		Default: normalizeValue(q.Default),
		Scopes:  scopes,
		Flavor:  flavor,
	}, nil
}

func buildQualifiers(qs []Qualifier) cim.Qualifiers {
	var out cim.Qualifiers
	for _, q := range qs {
		value := normalizeValue(q.Value)
		if value == nil {
			// A bare qualifier name means a true boolean, as in MOF.
			value = true
		}
		out = append(out, cim.Qualifier{Name: q.Name, Value: value})
	}
	return out
}

func buildClass(c Class) (*cim.Class, error) {
	out := &cim.Class{
		Name:       c.Name,
		SuperClass: c.Super,
		Qualifiers: buildQualifiers(c.Qualifiers),
	}
	for _, p := range c.Properties {
		t, ok := cim.ParseType(p.Type)
		if !ok {
			return nil, errors.Wrapf(errors.ErrInvalidParameter,
				"%s.%s: unknown type %q", c.Name, p.Name, p.Type)
		}
		out.Properties = append(out.Properties, cim.Property{
			Name:           p.Name,
			Type:           t,
			IsArray:        p.Array,
			Value:          normalizeValue(p.Default),
			ReferenceClass: p.Class,
			Qualifiers:     buildQualifiers(p.Qualifiers),
		})
	}
	for _, m := range c.Methods {
		rt, ok := cim.ParseType(m.Returns)
		if !ok {
			return nil, errors.Wrapf(errors.ErrInvalidParameter,
				"%s.%s: unknown return type %q", c.Name, m.Name, m.Returns)
		}
		method := cim.Method{
			Name:       m.Name,
			ReturnType: rt,
			Qualifiers: buildQualifiers(m.Qualifiers),
		}
		for _, p := range m.Parameters {
			t, ok := cim.ParseType(p.Type)
			if !ok {
				return nil, errors.Wrapf(errors.ErrInvalidParameter,
					"%s.%s(%s): unknown type %q", c.Name, m.Name, p.Name, p.Type)
			}
			method.Parameters = append(method.Parameters, cim.Parameter{
				Name:           p.Name,
				Type:           t,
				IsArray:        p.Array,
				ReferenceClass: p.Class,
				Qualifiers:     buildQualifiers(p.Qualifiers),
			})
		}
		out.Methods = append(out.Methods, method)
	}
	return out, nil
}

func buildInstance(namespace string, i Instance) (*cim.Instance, error) {
	if i.Class == "" {
		return nil, errors.Wrap(errors.ErrUsage, "instance without a class")
	}
	inst := &cim.Instance{ClassName: i.Class}
	for name, raw := range i.Properties {
		value, err := buildValue(namespace, raw)
		if err != nil {
			return nil, errors.Wrapf(err, "instance of %q, property %q", i.Class, name)
		}
		inst.SetProperty(cim.Property{Name: name, Value: value})
	}
	return inst, nil
}

// buildValue converts a YAML value to an engine value. A mapping with
// "class" and "keys" entries becomes an instance path (reference value).
func buildValue(namespace string, raw interface{}) (interface{}, error) {
	switch v := raw.(type) {
	case map[string]interface{}:
		return buildReference(namespace, v)
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, el := range v {
			built, err := buildValue(namespace, el)
			if err != nil {
				return nil, err
			}
			out[i] = built
		}
		return out, nil
	default:
		return normalizeValue(raw), nil
	}
}

func buildReference(namespace string, m map[string]interface{}) (*cim.ObjectPath, error) {
	classname, _ := m["class"].(string)
	if classname == "" {
		return nil, errors.Wrap(errors.ErrInvalidParameter,
			"reference value needs a \"class\" entry")
	}
	ns := namespace
	if override, ok := m["namespace"].(string); ok && override != "" {
		ns = override
	}
	keys, _ := m["keys"].(map[string]interface{})
	if len(keys) == 0 {
		return nil, errors.Wrap(errors.ErrInvalidParameter,
			"reference value needs a \"keys\" mapping")
	}

	path := cim.NewClassPath(ns, classname)
	for name, raw := range keys {
		value, err := buildValue(namespace, raw)
		if err != nil {
			return nil, err
		}
		path.SetKeyBinding(name, value)
	}
	return path, nil
}

// normalizeValue maps YAML scalar decoding quirks to engine value forms.
func normalizeValue(v interface{}) interface{} {
	switch x := v.(type) {
	case int:
		return int64(x)
	case float32:
		return float64(x)
	default:
		return v
	}
}
