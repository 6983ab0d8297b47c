// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package jardiff

import (
	"bytes"
	"encoding/binary"
)

// classFileBuilder hand-assembles a class-file byte payload, the same
// way the teacher's diffr_test.go hand-builds zip/tar/gzip fixtures in
// memory rather than reaching for a fixture-generation library (none
// exists in the corpus for this purpose).
type classFileBuilder struct {
	utf8ByValue  map[string]uint16
	classByName  map[string]uint16
	pool         [][]byte // serialized constant pool entries, index 1-based (pool[0] unused)

	thisClass   string
	superClass  string
	accessFlags AccessFlags
	interfaces  []string
	methods     []memberBuilder
	fields      []memberBuilder
	annotations []string
}

type memberBuilder struct {
	name        string
	descriptor  string
	accessFlags AccessFlags
	thrown      []string       // methods only (Exceptions attribute)
	constant    *builderConst  // fields only (ConstantValue attribute)
	annotations []string
}

type builderConst struct {
	kind ConstantKind
	i    int32
}

func newClassFileBuilder(name, super string, accessFlags AccessFlags) *classFileBuilder {
	return &classFileBuilder{
		utf8ByValue: make(map[string]uint16),
		classByName: make(map[string]uint16),
		pool:        make([][]byte, 1), // slot 0 unused
		thisClass:   name,
		superClass:  super,
		accessFlags: accessFlags,
	}
}

func (b *classFileBuilder) addInterface(name string) { b.interfaces = append(b.interfaces, name) }

func (b *classFileBuilder) addMethod(m memberBuilder) { b.methods = append(b.methods, m) }

func (b *classFileBuilder) addField(f memberBuilder) { b.fields = append(b.fields, f) }

func (b *classFileBuilder) addClassAnnotation(typeName string) {
	b.annotations = append(b.annotations, typeName)
}

// cpUtf8Index interns a UTF8 constant and returns its 1-based index.
func (b *classFileBuilder) cpUtf8Index(s string) uint16 {
	if idx, ok := b.utf8ByValue[s]; ok {
		return idx
	}
	var buf bytes.Buffer
	buf.WriteByte(cpUTF8)
	writeU2(&buf, uint16(len(s)))
	buf.WriteString(s)
	b.pool = append(b.pool, buf.Bytes())
	idx := uint16(len(b.pool) - 1)
	b.utf8ByValue[s] = idx
	return idx
}

// cpClassIndex interns a CONSTANT_Class for canonicalName (dot-separated
// input, stored internally in slash form as the real format requires).
func (b *classFileBuilder) cpClassIndex(canonicalName string) uint16 {
	if idx, ok := b.classByName[canonicalName]; ok {
		return idx
	}
	internal := canonicalToInternal(canonicalName)
	nameIdx := b.cpUtf8Index(internal)
	var buf bytes.Buffer
	buf.WriteByte(cpClass)
	writeU2(&buf, nameIdx)
	b.pool = append(b.pool, buf.Bytes())
	idx := uint16(len(b.pool) - 1)
	b.classByName[canonicalName] = idx
	return idx
}

func (b *classFileBuilder) cpIntegerIndex(v int32) uint16 {
	var buf bytes.Buffer
	buf.WriteByte(cpInteger)
	writeU4(&buf, uint32(v))
	b.pool = append(b.pool, buf.Bytes())
	return uint16(len(b.pool) - 1)
}

func canonicalToInternal(name string) string {
	out := []byte(name)
	for i, c := range out {
		if c == '.' {
			out[i] = '/'
		}
	}
	return string(out)
}

// build serializes the full class-file payload.
func (b *classFileBuilder) build() []byte {
	thisIdx := b.cpClassIndex(b.thisClass)
	var superIdx uint16
	if b.superClass != "" {
		superIdx = b.cpClassIndex(b.superClass)
	}
	interfaceIdxs := make([]uint16, len(b.interfaces))
	for i, n := range b.interfaces {
		interfaceIdxs[i] = b.cpClassIndex(n)
	}

	var out bytes.Buffer
	out.Write(classFileMagic)
	writeU2(&out, 0) // minor_version
	writeU2(&out, 52) // major_version (Java 8)

	// The constant pool must be fully interned before we know its final
	// count, so build every member/attribute's pool entries up front into
	// buffers, then stitch pool_count + entries + the rest together.
	methodBufs := make([][]byte, len(b.methods))
	for i, m := range b.methods {
		methodBufs[i] = b.buildMember(m, false)
	}
	fieldBufs := make([][]byte, len(b.fields))
	for i, f := range b.fields {
		fieldBufs[i] = b.buildMember(f, true)
	}
	classAttrBuf := b.buildAnnotationsAttrIfAny(b.annotations)

	writeU2(&out, uint16(len(b.pool))) // constant_pool_count
	for i := 1; i < len(b.pool); i++ {
		out.Write(b.pool[i])
	}

	writeU2(&out, uint16(b.accessFlags))
	writeU2(&out, thisIdx)
	writeU2(&out, superIdx)

	writeU2(&out, uint16(len(interfaceIdxs)))
	for _, idx := range interfaceIdxs {
		writeU2(&out, idx)
	}

	writeU2(&out, uint16(len(fieldBufs)))
	for _, buf := range fieldBufs {
		out.Write(buf)
	}
	writeU2(&out, uint16(len(methodBufs)))
	for _, buf := range methodBufs {
		out.Write(buf)
	}

	var classAttrCount uint16
	if classAttrBuf != nil {
		classAttrCount = 1
	}
	writeU2(&out, classAttrCount)
	if classAttrBuf != nil {
		out.Write(classAttrBuf)
	}

	return out.Bytes()
}

func (b *classFileBuilder) buildMember(m memberBuilder, isField bool) []byte {
	var out bytes.Buffer
	writeU2(&out, uint16(m.accessFlags))
	writeU2(&out, b.cpUtf8Index(m.name))
	writeU2(&out, b.cpUtf8Index(m.descriptor))

	var attrs [][]byte
	if isField && m.constant != nil {
		attrs = append(attrs, b.buildConstantValueAttr(*m.constant))
	}
	if !isField && len(m.thrown) > 0 {
		attrs = append(attrs, b.buildExceptionsAttr(m.thrown))
	}
	if annAttr := b.buildAnnotationsAttrIfAny(m.annotations); annAttr != nil {
		attrs = append(attrs, annAttr)
	}

	writeU2(&out, uint16(len(attrs)))
	for _, a := range attrs {
		out.Write(a)
	}
	return out.Bytes()
}

func (b *classFileBuilder) buildConstantValueAttr(c builderConst) []byte {
	var payload bytes.Buffer
	switch c.kind {
	case ConstantKindInt:
		writeU2(&payload, b.cpIntegerIndex(c.i))
	default:
		panic("unsupported constant kind in test builder")
	}
	return b.buildAttr(attrConstantValue, payload.Bytes())
}

func (b *classFileBuilder) buildExceptionsAttr(thrown []string) []byte {
	var payload bytes.Buffer
	writeU2(&payload, uint16(len(thrown)))
	for _, t := range thrown {
		writeU2(&payload, b.cpClassIndex(t))
	}
	return b.buildAttr(attrExceptions, payload.Bytes())
}

func (b *classFileBuilder) buildAnnotationsAttrIfAny(names []string) []byte {
	if len(names) == 0 {
		return nil
	}
	var payload bytes.Buffer
	writeU2(&payload, uint16(len(names)))
	for _, n := range names {
		descriptor := "L" + canonicalToInternal(n) + ";"
		writeU2(&payload, b.cpUtf8Index(descriptor))
		writeU2(&payload, 0) // num_element_value_pairs
	}
	return b.buildAttr(attrRuntimeVisibleAnnotations, payload.Bytes())
}

func (b *classFileBuilder) buildAttr(name string, payload []byte) []byte {
	var out bytes.Buffer
	writeU2(&out, b.cpUtf8Index(name))
	writeU4(&out, uint32(len(payload)))
	out.Write(payload)
	return out.Bytes()
}

func writeU2(buf *bytes.Buffer, v uint16) {
	var tmp [2]byte
	binary.BigEndian.PutUint16(tmp[:], v)
	buf.Write(tmp[:])
}

func writeU4(buf *bytes.Buffer, v uint32) {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], v)
	buf.Write(tmp[:])
}
