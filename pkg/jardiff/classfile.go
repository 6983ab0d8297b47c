// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package jardiff

import (
	"bytes"
	"sort"

	"github.com/pkg/errors"
)

// classFileMagic is the four-byte magic every class file begins with.
var classFileMagic = []byte{0xCA, 0xFE, 0xBA, 0xBE}

const (
	attrConstantValue               = "ConstantValue"
	attrExceptions                  = "Exceptions"
	attrRuntimeVisibleAnnotations   = "RuntimeVisibleAnnotations"
	attrRuntimeInvisibleAnnotations = "RuntimeInvisibleAnnotations"
)

// readerOptions controls which parts of a class file the reader bothers
// to keep, mirroring four of the five Policy flags without importing
// Policy directly (the index builder translates Policy into this narrower
// struct so the reader has no dependency on request-level types).
// DetectBinaryCompatibility plays no part in parsing.
type readerOptions struct {
	includePrivateMembers        bool
	includePackagePrivateClasses bool
	analyzeFieldChanges          bool
	analyzeAnnotations           bool
}

// readClassFile parses a single class-file payload into a ClassSummary.
// Method bodies (Code attributes) are never parsed. Returns ok=false
// (with no error) when the class survives parsing but is filtered out by
// visibility policy; returns a non-nil error when the payload itself is
// unparsable.
func readClassFile(data []byte, opts readerOptions) (summary ClassSummary, ok bool, err error) {
	defer func() {
		if err != nil {
			err = errors.Wrap(ErrMalformedClassFile, err.Error())
		}
	}()
	if len(data) < 10 {
		return ClassSummary{}, false, errors.New("class file too short")
	}
	if !bytes.Equal(data[0:4], classFileMagic) {
		return ClassSummary{}, false, errors.New("invalid class file magic number")
	}
	r := newCursor(data)
	if err := r.skip(4); err != nil {
		return ClassSummary{}, false, errors.Wrap(err, "skipping magic number")
	}
	if err := r.skip(4); err != nil { // minor_version, major_version
		return ClassSummary{}, false, errors.Wrap(err, "reading version")
	}
	pool, err := parseConstantPool(r)
	if err != nil {
		return ClassSummary{}, false, errors.Wrap(err, "parsing constant pool")
	}
	accessFlags, err := r.u2()
	if err != nil {
		return ClassSummary{}, false, errors.Wrap(err, "reading access flags")
	}
	thisClassIdx, err := r.u2()
	if err != nil {
		return ClassSummary{}, false, errors.Wrap(err, "reading this_class")
	}
	thisClass, err := pool.class(thisClassIdx)
	if err != nil {
		return ClassSummary{}, false, errors.Wrap(err, "resolving this_class")
	}
	superClassIdx, err := r.u2()
	if err != nil {
		return ClassSummary{}, false, errors.Wrap(err, "reading super_class")
	}
	superClass, err := pool.class(superClassIdx)
	if err != nil {
		return ClassSummary{}, false, errors.Wrap(err, "resolving super_class")
	}

	af := AccessFlags(accessFlags)
	if !af.has(AccPublic) && !af.has(AccProtected) && !opts.includePackagePrivateClasses {
		return ClassSummary{}, false, nil
	}

	interfacesCount, err := r.u2()
	if err != nil {
		return ClassSummary{}, false, errors.Wrap(err, "reading interfaces count")
	}
	interfaces := make([]string, 0, interfacesCount)
	for i := uint16(0); i < interfacesCount; i++ {
		idx, err := r.u2()
		if err != nil {
			return ClassSummary{}, false, errors.Wrapf(err, "reading interface %d", i)
		}
		name, err := pool.class(idx)
		if err != nil {
			return ClassSummary{}, false, errors.Wrapf(err, "resolving interface %d", i)
		}
		interfaces = append(interfaces, name)
	}

	fields, err := readMembers(r, pool, opts, true)
	if err != nil {
		return ClassSummary{}, false, errors.Wrap(err, "reading fields")
	}
	methods, err := readMembers(r, pool, opts, false)
	if err != nil {
		return ClassSummary{}, false, errors.Wrap(err, "reading methods")
	}

	classAttrCount, err := r.u2()
	if err != nil {
		return ClassSummary{}, false, errors.Wrap(err, "reading class attributes count")
	}
	var classAnnotations []string
	for i := uint16(0); i < classAttrCount; i++ {
		name, payload, err := readAttribute(r, pool)
		if err != nil {
			return ClassSummary{}, false, errors.Wrapf(err, "reading class attribute %d", i)
		}
		if opts.analyzeAnnotations && isAnnotationAttribute(name) {
			names, err := parseAnnotationAttribute(payload, pool)
			if err != nil {
				return ClassSummary{}, false, errors.Wrapf(err, "parsing class attribute %d (%s)", i, name)
			}
			classAnnotations = append(classAnnotations, names...)
		}
	}

	methodSummaries := make([]MethodSummary, 0, len(methods))
	for _, m := range methods {
		ms, err := toMethodSummary(m, pool, opts)
		if err != nil {
			return ClassSummary{}, false, errors.Wrap(err, "building method summary")
		}
		if ms == nil {
			continue
		}
		methodSummaries = append(methodSummaries, *ms)
	}

	var fieldSummaries []FieldSummary
	if opts.analyzeFieldChanges {
		fieldSummaries = make([]FieldSummary, 0, len(fields))
		for _, f := range fields {
			fs, err := toFieldSummary(f, pool, opts)
			if err != nil {
				return ClassSummary{}, false, errors.Wrap(err, "building field summary")
			}
			if fs == nil {
				continue
			}
			fieldSummaries = append(fieldSummaries, *fs)
		}
	}

	return ClassSummary{
		Name:        thisClass,
		AccessFlags: af,
		Super:       superClass,
		Interfaces:  interfaces,
		Methods:     methodSummaries,
		Fields:      fieldSummaries,
		Annotations: dedupeSorted(classAnnotations),
	}, true, nil
}

// rawMember holds one field_info/method_info entry before policy
// filtering and before its attributes are interpreted into a summary.
type rawMember struct {
	accessFlags AccessFlags
	name        string
	descriptor  string
	attrs       []rawAttribute
}

type rawAttribute struct {
	name    string
	payload []byte
}

// readMembers reads fields_count+fields or methods_count+methods — the
// two member tables share an identical on-disk shape (JVM spec 4.5/4.6).
func readMembers(r *cursor, pool *constantPool, opts readerOptions, isField bool) ([]rawMember, error) {
	count, err := r.u2()
	if err != nil {
		return nil, errors.Wrap(err, "reading member count")
	}
	members := make([]rawMember, 0, count)
	for i := uint16(0); i < count; i++ {
		accessFlags, err := r.u2()
		if err != nil {
			return nil, errors.Wrapf(err, "reading member %d access flags", i)
		}
		nameIdx, err := r.u2()
		if err != nil {
			return nil, errors.Wrapf(err, "reading member %d name", i)
		}
		name, err := pool.utf8(nameIdx)
		if err != nil {
			return nil, errors.Wrapf(err, "resolving member %d name", i)
		}
		descIdx, err := r.u2()
		if err != nil {
			return nil, errors.Wrapf(err, "reading member %d descriptor", i)
		}
		descriptor, err := pool.utf8(descIdx)
		if err != nil {
			return nil, errors.Wrapf(err, "resolving member %d descriptor", i)
		}
		attrCount, err := r.u2()
		if err != nil {
			return nil, errors.Wrapf(err, "reading member %d attribute count", i)
		}
		attrs := make([]rawAttribute, 0, attrCount)
		for j := uint16(0); j < attrCount; j++ {
			attrName, payload, err := readAttribute(r, pool)
			if err != nil {
				return nil, errors.Wrapf(err, "reading member %d attribute %d", i, j)
			}
			attrs = append(attrs, rawAttribute{name: attrName, payload: payload})
		}
		members = append(members, rawMember{
			accessFlags: AccessFlags(accessFlags),
			name:        name,
			descriptor:  descriptor,
			attrs:       attrs,
		})
	}
	return members, nil
}

// readAttribute reads one generic attribute_info: a name index, a u4
// length, and that many payload bytes. The caller decides whether to
// interpret the payload or discard it; either way we must read exactly
// `length` bytes to keep the cursor synchronized with the stream.
func readAttribute(r *cursor, pool *constantPool) (name string, payload []byte, err error) {
	nameIdx, err := r.u2()
	if err != nil {
		return "", nil, errors.Wrap(err, "reading attribute name index")
	}
	name, err = pool.utf8(nameIdx)
	if err != nil {
		return "", nil, errors.Wrap(err, "resolving attribute name")
	}
	length, err := r.u4()
	if err != nil {
		return "", nil, errors.Wrap(err, "reading attribute length")
	}
	payload, err = r.bytes(int(length))
	if err != nil {
		return "", nil, errors.Wrap(err, "reading attribute payload")
	}
	return name, payload, nil
}

func isAnnotationAttribute(name string) bool {
	return name == attrRuntimeVisibleAnnotations || name == attrRuntimeInvisibleAnnotations
}

// toMethodSummary applies visibility filtering and attribute
// interpretation to one raw method. Returns nil, nil when the method is
// dropped by policy (private and !IncludePrivateMembers).
func toMethodSummary(m rawMember, pool *constantPool, opts readerOptions) (*MethodSummary, error) {
	if m.accessFlags.has(AccPrivate) && !opts.includePrivateMembers {
		return nil, nil
	}
	var thrown, annotations []string
	for _, a := range m.attrs {
		switch {
		case a.name == attrExceptions:
			names, err := parseExceptionsAttribute(a.payload, pool)
			if err != nil {
				return nil, errors.Wrap(err, "parsing Exceptions attribute")
			}
			thrown = names
		case opts.analyzeAnnotations && isAnnotationAttribute(a.name):
			names, err := parseAnnotationAttribute(a.payload, pool)
			if err != nil {
				return nil, errors.Wrapf(err, "parsing %s attribute", a.name)
			}
			annotations = append(annotations, names...)
		}
	}
	return &MethodSummary{
		Name:        m.name,
		Descriptor:  m.descriptor,
		AccessFlags: m.accessFlags,
		Thrown:      thrown,
		Annotations: dedupeSorted(annotations),
	}, nil
}

// toFieldSummary applies visibility filtering and attribute
// interpretation to one raw field.
func toFieldSummary(f rawMember, pool *constantPool, opts readerOptions) (*FieldSummary, error) {
	if f.accessFlags.has(AccPrivate) && !opts.includePrivateMembers {
		return nil, nil
	}
	var constant *ConstantValue
	var annotations []string
	for _, a := range f.attrs {
		switch {
		case a.name == attrConstantValue:
			cv, err := parseConstantValueAttribute(a.payload, pool)
			if err != nil {
				return nil, errors.Wrap(err, "parsing ConstantValue attribute")
			}
			constant = cv
		case opts.analyzeAnnotations && isAnnotationAttribute(a.name):
			names, err := parseAnnotationAttribute(a.payload, pool)
			if err != nil {
				return nil, errors.Wrapf(err, "parsing %s attribute", a.name)
			}
			annotations = append(annotations, names...)
		}
	}
	return &FieldSummary{
		Name:        f.name,
		Descriptor:  f.descriptor,
		AccessFlags: f.accessFlags,
		Constant:    constant,
		Annotations: dedupeSorted(annotations),
	}, nil
}

// parseConstantValueAttribute reads the ConstantValue attribute body: a
// single u2 constant pool index.
func parseConstantValueAttribute(payload []byte, pool *constantPool) (*ConstantValue, error) {
	r := newCursor(payload)
	idx, err := r.u2()
	if err != nil {
		return nil, errors.Wrap(err, "reading constantvalue_index")
	}
	return pool.constantValue(idx)
}

// parseExceptionsAttribute reads the Exceptions attribute body: a u2
// count followed by that many u2 class indices.
func parseExceptionsAttribute(payload []byte, pool *constantPool) ([]string, error) {
	r := newCursor(payload)
	count, err := r.u2()
	if err != nil {
		return nil, errors.Wrap(err, "reading number_of_exceptions")
	}
	names := make([]string, 0, count)
	for i := uint16(0); i < count; i++ {
		idx, err := r.u2()
		if err != nil {
			return nil, errors.Wrapf(err, "reading exception index %d", i)
		}
		name, err := pool.class(idx)
		if err != nil {
			return nil, errors.Wrapf(err, "resolving exception class %d", i)
		}
		names = append(names, name)
	}
	return names, nil
}

// parseAnnotationAttribute reads a RuntimeVisibleAnnotations or
// RuntimeInvisibleAnnotations attribute body far enough to extract each
// annotation's type name; the element_value_pairs are skipped entirely
// since only presence/absence of the annotation type is compared (see
// SPEC_FULL §9, open question 3).
func parseAnnotationAttribute(payload []byte, pool *constantPool) ([]string, error) {
	r := newCursor(payload)
	count, err := r.u2()
	if err != nil {
		return nil, errors.Wrap(err, "reading num_annotations")
	}
	names := make([]string, 0, count)
	for i := uint16(0); i < count; i++ {
		typeIdx, err := r.u2()
		if err != nil {
			return nil, errors.Wrapf(err, "reading annotation %d type index", i)
		}
		descriptor, err := pool.utf8(typeIdx)
		if err != nil {
			return nil, errors.Wrapf(err, "resolving annotation %d type", i)
		}
		names = append(names, fieldDescriptorToCanonical(descriptor))
		if err := skipElementValuePairs(r); err != nil {
			return nil, errors.Wrapf(err, "skipping annotation %d element values", i)
		}
	}
	return names, nil
}

// skipElementValuePairs reads and discards one annotation's
// num_element_value_pairs plus that many (name_index, element_value)
// pairs, since only the annotation type name is compared.
func skipElementValuePairs(r *cursor) error {
	count, err := r.u2()
	if err != nil {
		return errors.Wrap(err, "reading num_element_value_pairs")
	}
	for i := uint16(0); i < count; i++ {
		if err := r.skip(2); err != nil { // element_name_index
			return errors.Wrapf(err, "skipping pair %d name", i)
		}
		if err := skipElementValue(r); err != nil {
			return errors.Wrapf(err, "skipping pair %d value", i)
		}
	}
	return nil
}

// skipElementValue discards one element_value per the annotation
// element_value grammar (JVM spec 4.7.16.1).
func skipElementValue(r *cursor) error {
	tag, err := r.u1()
	if err != nil {
		return errors.Wrap(err, "reading element_value tag")
	}
	switch tag {
	case 'B', 'C', 'D', 'F', 'I', 'J', 'S', 'Z', 's', 'c':
		return r.skip(2)
	case 'e': // enum_const_value
		return r.skip(4)
	case '@': // nested annotation
		// Nested annotations repeat the same shape starting at
		// type_index; reuse the byte cursor in place rather than
		// recursing through readAttribute, which expects a
		// length-prefixed attribute rather than an inline structure.
		if err := r.skip(2); err != nil { // type_index
			return errors.Wrap(err, "reading nested annotation type index")
		}
		return skipElementValuePairs(r)
	case '[': // array_value
		count, err := r.u2()
		if err != nil {
			return errors.Wrap(err, "reading array_value count")
		}
		for i := uint16(0); i < count; i++ {
			if err := skipElementValue(r); err != nil {
				return errors.Wrapf(err, "skipping array element %d", i)
			}
		}
		return nil
	default:
		return errors.Errorf("unknown element_value tag %q", tag)
	}
}

// dedupeSorted sorts and removes duplicate strings, used to normalize
// annotation-name lists gathered from (possibly both visible and
// invisible) annotation attributes into the single sorted set the Diff
// Engine expects (SPEC_FULL §4.4: "annotations sorted lexicographically").
func dedupeSorted(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
