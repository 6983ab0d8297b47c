// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package jardiff

import (
	"encoding/binary"
	"math"
	"strings"

	"github.com/pkg/errors"
)

// Constant pool tags (JVM spec 4.4).
const (
	cpUTF8               = 1
	cpInteger            = 3
	cpFloat              = 4
	cpLong               = 5
	cpDouble             = 6
	cpClass              = 7
	cpString             = 8
	cpFieldref           = 9
	cpMethodref          = 10
	cpInterfaceMethodref = 11
	cpNameAndType        = 12
	cpMethodHandle       = 15
	cpMethodType         = 16
	cpDynamic            = 17
	cpInvokeDynamic      = 18
	cpModule             = 19
	cpPackage            = 20
)

// cpEntry holds the raw fields of one constant-pool slot, enough to
// resolve classes, UTF8 strings, name-and-type pairs, and literal
// constants without re-reading the original bytes.
type cpEntry struct {
	tag      uint8
	utf8     string
	intVal   int32
	longVal  int64
	floatVal float32
	doubleVal float64
	// class/string/methodType reference another pool index.
	ref1 uint16
	// nameAndType/fieldref/methodref/etc. reference two indices.
	ref2 uint16
}

// constantPool is a 1-indexed table (index 0 and the second slot of a
// long/double entry are left zero-valued, matching the JVM spec's
// "unusable" index convention).
type constantPool struct {
	entries []cpEntry
}

// parseConstantPool reads constant_pool_count-1 entries from r, per the
// class-file layout: indexing is 1-based, and long/double entries consume
// two slots.
func parseConstantPool(r *cursor) (*constantPool, error) {
	count, err := r.u2()
	if err != nil {
		return nil, errors.Wrap(err, "reading constant pool count")
	}
	pool := &constantPool{entries: make([]cpEntry, count)}
	for i := uint16(1); i < count; i++ {
		tag, err := r.u1()
		if err != nil {
			return nil, errors.Wrapf(err, "reading constant pool tag at index %d", i)
		}
		entry := cpEntry{tag: tag}
		switch tag {
		case cpUTF8:
			length, err := r.u2()
			if err != nil {
				return nil, errors.Wrapf(err, "reading UTF8 length at index %d", i)
			}
			raw, err := r.bytes(int(length))
			if err != nil {
				return nil, errors.Wrapf(err, "reading UTF8 bytes at index %d", i)
			}
			entry.utf8 = string(raw)
		case cpInteger:
			v, err := r.u4()
			if err != nil {
				return nil, errors.Wrapf(err, "reading integer constant at index %d", i)
			}
			entry.intVal = int32(v)
		case cpFloat:
			v, err := r.u4()
			if err != nil {
				return nil, errors.Wrapf(err, "reading float constant at index %d", i)
			}
			entry.floatVal = math.Float32frombits(v)
		case cpLong:
			raw, err := r.bytes(8)
			if err != nil {
				return nil, errors.Wrapf(err, "reading long constant at index %d", i)
			}
			entry.longVal = int64(binary.BigEndian.Uint64(raw))
			pool.entries[i] = entry
			i++ // long/double consume two slots
			continue
		case cpDouble:
			raw, err := r.bytes(8)
			if err != nil {
				return nil, errors.Wrapf(err, "reading double constant at index %d", i)
			}
			entry.doubleVal = math.Float64frombits(binary.BigEndian.Uint64(raw))
			pool.entries[i] = entry
			i++
			continue
		case cpClass, cpString, cpMethodType, cpModule, cpPackage:
			ref, err := r.u2()
			if err != nil {
				return nil, errors.Wrapf(err, "reading reference at index %d", i)
			}
			entry.ref1 = ref
		case cpFieldref, cpMethodref, cpInterfaceMethodref, cpNameAndType, cpDynamic, cpInvokeDynamic:
			ref1, err := r.u2()
			if err != nil {
				return nil, errors.Wrapf(err, "reading first reference at index %d", i)
			}
			ref2, err := r.u2()
			if err != nil {
				return nil, errors.Wrapf(err, "reading second reference at index %d", i)
			}
			entry.ref1, entry.ref2 = ref1, ref2
		case cpMethodHandle:
			if err := r.skip(1); err != nil { // reference_kind
				return nil, errors.Wrapf(err, "reading method handle kind at index %d", i)
			}
			ref, err := r.u2()
			if err != nil {
				return nil, errors.Wrapf(err, "reading method handle reference at index %d", i)
			}
			entry.ref1 = ref
		default:
			return nil, errors.Errorf("unknown constant pool tag %d at index %d", tag, i)
		}
		pool.entries[i] = entry
	}
	return pool, nil
}

func (p *constantPool) get(idx uint16) (cpEntry, error) {
	if idx == 0 || int(idx) >= len(p.entries) {
		return cpEntry{}, errors.Errorf("constant pool index %d out of range", idx)
	}
	return p.entries[idx], nil
}

// utf8 resolves a CONSTANT_Utf8 entry.
func (p *constantPool) utf8(idx uint16) (string, error) {
	e, err := p.get(idx)
	if err != nil {
		return "", err
	}
	if e.tag != cpUTF8 {
		return "", errors.Errorf("constant pool index %d is not UTF8 (tag %d)", idx, e.tag)
	}
	return e.utf8, nil
}

// class resolves a CONSTANT_Class entry to its canonical (dot-separated)
// name.
func (p *constantPool) class(idx uint16) (string, error) {
	if idx == 0 {
		return "", nil // permitted for java.lang.Object's absent superclass
	}
	e, err := p.get(idx)
	if err != nil {
		return "", err
	}
	if e.tag != cpClass {
		return "", errors.Errorf("constant pool index %d is not a class (tag %d)", idx, e.tag)
	}
	name, err := p.utf8(e.ref1)
	if err != nil {
		return "", errors.Wrap(err, "resolving class name")
	}
	return internalToCanonical(name), nil
}

// internalToCanonical converts the class-file internal form (slash
// separated, e.g. "java/lang/String") to canonical dot-separated form.
func internalToCanonical(internal string) string {
	return strings.ReplaceAll(internal, "/", ".")
}

// constantValue resolves a ConstantValue attribute's index into a tagged
// ConstantValue, dispatching on the constant pool entry's own tag rather
// than the field's descriptor (the class-file format does not require
// them to be cross-checked at this layer).
func (p *constantPool) constantValue(idx uint16) (*ConstantValue, error) {
	e, err := p.get(idx)
	if err != nil {
		return nil, err
	}
	switch e.tag {
	case cpInteger:
		return &ConstantValue{Kind: ConstantKindInt, Int: e.intVal}, nil
	case cpLong:
		return &ConstantValue{Kind: ConstantKindLong, Long: e.longVal}, nil
	case cpFloat:
		return &ConstantValue{Kind: ConstantKindFloat, Float: e.floatVal}, nil
	case cpDouble:
		return &ConstantValue{Kind: ConstantKindDouble, Double: e.doubleVal}, nil
	case cpString:
		s, err := p.utf8(e.ref1)
		if err != nil {
			return nil, errors.Wrap(err, "resolving string constant")
		}
		return &ConstantValue{Kind: ConstantKindString, String: s}, nil
	default:
		return nil, errors.Errorf("constant pool index %d is not a ConstantValue-compatible entry (tag %d)", idx, e.tag)
	}
}
