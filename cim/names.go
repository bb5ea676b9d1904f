package cim

import "strings"

// Fold normalizes a CIM element name for comparison. CIM names are
// case-preserving but case-insensitive.
func Fold(name string) string {
	return strings.ToLower(name)
}

// NameEqual reports whether two CIM element names are the same name.
func NameEqual(a, b string) bool {
	return strings.EqualFold(a, b)
}

// NormalizeNamespace trims leading and trailing path separators from a
// namespace name, preserving interior case and structure.
// "//root/blah/" normalizes to "root/blah".
func NormalizeNamespace(ns string) string {
	return strings.Trim(ns, "/\\")
}

// FoldNamespace returns the comparison form of a namespace name.
func FoldNamespace(ns string) string {
	return Fold(NormalizeNamespace(ns))
}
