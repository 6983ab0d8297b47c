// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package jardiff

// ConstantValue is the optional constant initializer captured from a
// field's ConstantValue attribute. Exactly one of the fields is set;
// Kind says which.
type ConstantValue struct {
	Kind   ConstantKind
	Int    int32
	Long   int64
	Float  float32
	Double float64
	String string
}

// ConstantKind discriminates the ConstantValue union.
type ConstantKind int

const (
	ConstantKindNone ConstantKind = iota
	ConstantKindInt
	ConstantKindLong
	ConstantKindFloat
	ConstantKindDouble
	ConstantKindString
)

// MethodSummary is the structural summary of one method, extracted
// without interpreting its Code attribute.
type MethodSummary struct {
	Name        string
	Descriptor  string
	AccessFlags AccessFlags
	Thrown      []string // declared thrown-exception class names, canonical form
	Annotations []string // annotation type names, canonical form
}

// Key returns the method's identity key within its class: (name, descriptor).
func (m MethodSummary) Key() string { return m.Name + "\x00" + m.Descriptor }

// FieldSummary is the structural summary of one field.
type FieldSummary struct {
	Name        string
	Descriptor  string
	AccessFlags AccessFlags
	Constant    *ConstantValue
	Annotations []string
}

// Key returns the field's identity key within its class: its name alone.
func (f FieldSummary) Key() string { return f.Name }

// ClassSummary is the structural summary of one compiled class.
type ClassSummary struct {
	Name        string // canonical, dot-separated
	AccessFlags AccessFlags
	Super       string // canonical; empty for the root type
	Interfaces  []string
	Methods     []MethodSummary
	Fields      []FieldSummary
	Annotations []string
}

// methodByKey looks up a method by its (name, descriptor) identity key.
func (c ClassSummary) methodByKey(key string) (MethodSummary, bool) {
	for _, m := range c.Methods {
		if m.Key() == key {
			return m, true
		}
	}
	return MethodSummary{}, false
}

// fieldByKey looks up a field by its name.
func (c ClassSummary) fieldByKey(key string) (FieldSummary, bool) {
	for _, f := range c.Fields {
		if f.Key() == key {
			return f, true
		}
	}
	return FieldSummary{}, false
}

// ClassIndex maps a canonical class name to its ClassSummary, built from
// one archive by the Class Index Builder.
type ClassIndex map[string]ClassSummary

// Names returns the index's keys (unsorted).
func (idx ClassIndex) Names() []string {
	names := make([]string, 0, len(idx))
	for name := range idx {
		names = append(names, name)
	}
	return names
}
