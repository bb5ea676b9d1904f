package cim

// StandardQualifiers returns declarations for the DMTF qualifiers the engine
// gives semantics to, plus the common descriptive ones. A namespace needs
// these declared before classes using them can be stored; schema loaders
// typically install them first.
func StandardQualifiers() []*QualifierDecl {
	return []*QualifierDecl{
		{
			Name: QualifierKey, Type: TypeBoolean, Default: false,
			Scopes: ScopeSet{ScopeProperty: true, ScopeReference: true},
			Flavor: Flavor{Overridable: false, ToSubclass: true, ToInstance: true},
		},
		{
			Name: QualifierAssociation, Type: TypeBoolean, Default: false,
			Scopes: ScopeSet{ScopeAssociation: true},
			Flavor: Flavor{Overridable: false, ToSubclass: true},
		},
		{
			Name: QualifierIndication, Type: TypeBoolean, Default: false,
			Scopes: ScopeSet{ScopeIndication: true, ScopeClass: true},
			Flavor: Flavor{Overridable: false, ToSubclass: true},
		},
		{
			Name: QualifierAbstract, Type: TypeBoolean, Default: false,
			Scopes: ScopeSet{ScopeClass: true, ScopeAssociation: true, ScopeIndication: true},
			Flavor: Flavor{Overridable: true},
		},
		{
			Name: QualifierOverride, Type: TypeString,
			Scopes: ScopeSet{ScopeProperty: true, ScopeReference: true, ScopeMethod: true},
			Flavor: Flavor{Overridable: true},
		},
		{
			Name: QualifierStatic, Type: TypeBoolean, Default: false,
			Scopes: ScopeSet{ScopeProperty: true, ScopeMethod: true},
			Flavor: Flavor{Overridable: false, ToSubclass: true},
		},
		{
			Name: QualifierEmbeddedInstance, Type: TypeString,
			Scopes: ScopeSet{ScopeProperty: true, ScopeMethod: true, ScopeParameter: true},
			Flavor: Flavor{Overridable: false, ToSubclass: true},
		},
		{
			Name: QualifierIn, Type: TypeBoolean, Default: true,
			Scopes: ScopeSet{ScopeParameter: true},
			Flavor: Flavor{Overridable: false, ToSubclass: true},
		},
		{
			Name: QualifierOut, Type: TypeBoolean, Default: false,
			Scopes: ScopeSet{ScopeParameter: true},
			Flavor: Flavor{Overridable: false, ToSubclass: true},
		},
		{
			Name: "Description", Type: TypeString,
			Scopes: ScopeSet{ScopeAny: true},
			Flavor: Flavor{Overridable: true, ToSubclass: true, Translatable: true},
		},
		{
			Name: "ValueMap", Type: TypeString, IsArray: true,
			Scopes: ScopeSet{ScopeProperty: true, ScopeMethod: true, ScopeParameter: true},
			Flavor: Flavor{Overridable: true, ToSubclass: true},
		},
		{
			Name: "Values", Type: TypeString, IsArray: true,
			Scopes: ScopeSet{ScopeProperty: true, ScopeMethod: true, ScopeParameter: true},
			Flavor: Flavor{Overridable: true, ToSubclass: true, Translatable: true},
		},
	}
}
