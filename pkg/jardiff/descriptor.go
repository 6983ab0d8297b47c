// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package jardiff

import "strings"

// fieldDescriptorToCanonical renders a field descriptor (JVM spec 4.3.2)
// as a canonical Java type name. Used for annotation type descriptors,
// which are always plain object types ("Lfoo/Bar;"), but written generally
// enough to also back descriptor rendering in the report layer.
func fieldDescriptorToCanonical(descriptor string) string {
	t, _ := parseFieldType(descriptor)
	return t
}

// parseFieldType reads one FieldType off the front of descriptor and
// returns its canonical rendering plus the remaining unparsed suffix, so
// callers can walk a parameter-list descriptor one type at a time.
func parseFieldType(descriptor string) (canonical string, rest string) {
	if descriptor == "" {
		return "", ""
	}
	arrayDepth := 0
	i := 0
	for i < len(descriptor) && descriptor[i] == '[' {
		arrayDepth++
		i++
	}
	if i >= len(descriptor) {
		return descriptor, ""
	}
	var base string
	switch descriptor[i] {
	case 'B':
		base, rest = "byte", descriptor[i+1:]
	case 'C':
		base, rest = "char", descriptor[i+1:]
	case 'D':
		base, rest = "double", descriptor[i+1:]
	case 'F':
		base, rest = "float", descriptor[i+1:]
	case 'I':
		base, rest = "int", descriptor[i+1:]
	case 'J':
		base, rest = "long", descriptor[i+1:]
	case 'S':
		base, rest = "short", descriptor[i+1:]
	case 'Z':
		base, rest = "boolean", descriptor[i+1:]
	case 'V':
		base, rest = "void", descriptor[i+1:]
	case 'L':
		end := strings.IndexByte(descriptor[i:], ';')
		if end < 0 {
			return descriptor, ""
		}
		base = internalToCanonical(descriptor[i+1 : i+end])
		rest = descriptor[i+end+1:]
	default:
		return descriptor, ""
	}
	return base + strings.Repeat("[]", arrayDepth), rest
}

// MethodDescriptorToSignature renders a method descriptor, e.g.
// "(ILjava/lang/String;)Z", as a human-readable signature such as
// "(int, java.lang.String): boolean". Exported for cmd/jarcompare/report,
// which renders it in place of the raw descriptor at the end of method
// ChangeRecord signature strings.
func MethodDescriptorToSignature(descriptor string) string {
	if len(descriptor) == 0 || descriptor[0] != '(' {
		return descriptor
	}
	closeParen := strings.IndexByte(descriptor, ')')
	if closeParen < 0 {
		return descriptor
	}
	params := descriptor[1:closeParen]
	returnType := descriptor[closeParen+1:]

	var args []string
	for params != "" {
		var t string
		t, params = parseFieldType(params)
		args = append(args, t)
	}
	ret := fieldDescriptorToCanonical(returnType)
	return "(" + strings.Join(args, ", ") + "): " + ret
}
