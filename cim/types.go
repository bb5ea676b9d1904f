package cim

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Type identifies a CIM intrinsic value type.
type Type string

const (
	TypeBoolean   Type = "boolean"
	TypeString    Type = "string"
	TypeChar16    Type = "char16"
	TypeUint8     Type = "uint8"
	TypeUint16    Type = "uint16"
	TypeUint32    Type = "uint32"
	TypeUint64    Type = "uint64"
	TypeSint8     Type = "sint8"
	TypeSint16    Type = "sint16"
	TypeSint32    Type = "sint32"
	TypeSint64    Type = "sint64"
	TypeReal32    Type = "real32"
	TypeReal64    Type = "real64"
	TypeDateTime  Type = "datetime"
	TypeReference Type = "reference"
)

// ParseType maps a type token (as written in a model file or qualifier
// declaration) to a Type. The second return is false for unknown tokens.
func ParseType(token string) (Type, bool) {
	t := Type(strings.ToLower(strings.TrimSpace(token)))
	switch t {
	case TypeBoolean, TypeString, TypeChar16,
		TypeUint8, TypeUint16, TypeUint32, TypeUint64,
		TypeSint8, TypeSint16, TypeSint32, TypeSint64,
		TypeReal32, TypeReal64, TypeDateTime, TypeReference:
		return t, true
	case "ref":
		return TypeReference, true
	}
	return "", false
}

// IsNumeric reports whether t is an integer or real type.
func (t Type) IsNumeric() bool {
	switch t {
	case TypeUint8, TypeUint16, TypeUint32, TypeUint64,
		TypeSint8, TypeSint16, TypeSint32, TypeSint64,
		TypeReal32, TypeReal64:
		return true
	}
	return false
}

// Values are held as native Go scalars:
//
//	boolean            bool
//	string, char16     string
//	sintNN             int64 (int/int32 accepted on input)
//	uintNN             uint64 (unsigned input), or non-negative int64
//	realNN             float64 (float32 accepted on input)
//	datetime           time.Time or string (CIM datetime literal)
//	reference          *ObjectPath
//
// Arrays are []interface{} of the scalar form. nil is a NULL of any type.

// ValueCompatible reports whether v can serve as a value of type t with the
// given array-ness.
func ValueCompatible(v interface{}, t Type, isArray bool) bool {
	if v == nil {
		return true
	}
	if arr, ok := v.([]interface{}); ok {
		if !isArray {
			return false
		}
		for _, el := range arr {
			if el != nil && !scalarCompatible(el, t) {
				return false
			}
		}
		return true
	}
	if isArray {
		return false
	}
	return scalarCompatible(v, t)
}

func scalarCompatible(v interface{}, t Type) bool {
	switch t {
	case TypeBoolean:
		_, ok := v.(bool)
		return ok
	case TypeString, TypeChar16:
		_, ok := v.(string)
		return ok
	case TypeSint8, TypeSint16, TypeSint32, TypeSint64:
		switch v.(type) {
		case int, int8, int16, int32, int64:
			return true
		}
		return false
	case TypeUint8, TypeUint16, TypeUint32, TypeUint64:
		switch n := v.(type) {
		case uint, uint8, uint16, uint32, uint64:
			return true
		case int:
			return n >= 0
		case int64:
			return n >= 0
		}
		return false
	case TypeReal32, TypeReal64:
		switch v.(type) {
		case float32, float64:
			return true
		}
		return false
	case TypeDateTime:
		switch v.(type) {
		case time.Time, string:
			return true
		}
		return false
	case TypeReference:
		_, ok := v.(*ObjectPath)
		return ok
	}
	return false
}

// CanonicalValue renders a scalar value in its comparison form: folded for
// strings, canonical decimal for numbers, "true"/"false" for booleans, the
// canonical path form for references. Key matching is defined over this form
// (string keys compare case-insensitively).
func CanonicalValue(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return "<null>"
	case bool:
		return strconv.FormatBool(x)
	case string:
		return strings.ToLower(x)
	case int:
		return strconv.FormatInt(int64(x), 10)
	case int8:
		return strconv.FormatInt(int64(x), 10)
	case int16:
		return strconv.FormatInt(int64(x), 10)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case int64:
		return strconv.FormatInt(x, 10)
	case uint:
		return strconv.FormatUint(uint64(x), 10)
	case uint8:
		return strconv.FormatUint(uint64(x), 10)
	case uint16:
		return strconv.FormatUint(uint64(x), 10)
	case uint32:
		return strconv.FormatUint(uint64(x), 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case float32:
		return canonicalFloat(float64(x))
	case float64:
		return canonicalFloat(x)
	case time.Time:
		return x.UTC().Format("20060102150405.000000-070")
	case *ObjectPath:
		return x.Canonical()
	case []interface{}:
		parts := make([]string, len(x))
		for i, el := range x {
			parts[i] = CanonicalValue(el)
		}
		return "[" + strings.Join(parts, ",") + "]"
	}
	return fmt.Sprintf("%v", v)
}

func canonicalFloat(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// ValueEqual reports value equality under the key-matching rules.
func ValueEqual(a, b interface{}) bool {
	return CanonicalValue(a) == CanonicalValue(b)
}

// CopyValue deep-copies a value. Scalars are value types; arrays and
// reference paths are duplicated so stores never share mutable state with
// callers.
func CopyValue(v interface{}) interface{} {
	switch x := v.(type) {
	case []interface{}:
		out := make([]interface{}, len(x))
		for i, el := range x {
			out[i] = CopyValue(el)
		}
		return out
	case *ObjectPath:
		return x.Clone()
	default:
		return v
	}
}
