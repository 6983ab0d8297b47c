// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package jardiff

import (
	"strings"

	"github.com/pkg/errors"
)

// ChangeKind is the closed enumeration of change records the Diff Engine
// can emit. Five members are reserved for wire-format compatibility
// and documented as structurally unreachable rather than deleted (see
// DESIGN.md open question 1-3): ClassModified, the three method
// signature/return/parameter kinds, and AnnotationModified.
type ChangeKind int

const (
	ClassAdded ChangeKind = iota
	ClassRemoved
	ClassModified
	MethodAdded
	MethodRemoved
	MethodAccessChanged
	MethodSignatureChanged
	MethodReturnTypeChanged
	MethodParameterChanged
	FieldAdded
	FieldRemoved
	FieldTypeChanged
	FieldAccessChanged
	AnnotationAdded
	AnnotationRemoved
	AnnotationModified
)

var changeKindNames = map[ChangeKind]string{
	ClassAdded:              "CLASS_ADDED",
	ClassRemoved:            "CLASS_REMOVED",
	ClassModified:           "CLASS_MODIFIED",
	MethodAdded:             "METHOD_ADDED",
	MethodRemoved:           "METHOD_REMOVED",
	MethodAccessChanged:     "METHOD_ACCESS_CHANGED",
	MethodSignatureChanged:  "METHOD_SIGNATURE_CHANGED",
	MethodReturnTypeChanged: "METHOD_RETURN_TYPE_CHANGED",
	MethodParameterChanged:  "METHOD_PARAMETER_CHANGED",
	FieldAdded:              "FIELD_ADDED",
	FieldRemoved:            "FIELD_REMOVED",
	FieldTypeChanged:        "FIELD_TYPE_CHANGED",
	FieldAccessChanged:      "FIELD_ACCESS_CHANGED",
	AnnotationAdded:         "ANNOTATION_ADDED",
	AnnotationRemoved:       "ANNOTATION_REMOVED",
	AnnotationModified:      "ANNOTATION_MODIFIED",
}

var changeKindValues = reverseMap(changeKindNames)

func (k ChangeKind) String() string {
	if s, ok := changeKindNames[k]; ok {
		return s
	}
	return "UNKNOWN_CHANGE_KIND"
}

func (k ChangeKind) category() string {
	switch {
	case k == ClassAdded || k == ClassRemoved || k == ClassModified:
		return "class"
	case k >= MethodAdded && k <= MethodParameterChanged:
		return "method"
	case k >= FieldAdded && k <= FieldAccessChanged:
		return "field"
	default:
		return "annotation"
	}
}

func (k ChangeKind) MarshalJSON() ([]byte, error) { return quoteJSON(k.String()), nil }

func (k *ChangeKind) UnmarshalJSON(b []byte) error {
	s, err := unquoteJSON(b)
	if err != nil {
		return err
	}
	v, ok := changeKindValues[s]
	if !ok {
		return unknownEnumError("ChangeKind", s)
	}
	*k = v
	return nil
}

// Impact is the closed enumeration of compatibility-impact labels,
// ascending severity. Medium and High are kept in the enum per
// DESIGN.md open question 4 even though the rule table in classify.go
// never assigns them.
type Impact int

const (
	ImpactNone Impact = iota
	ImpactLow
	ImpactMedium
	ImpactHigh
	ImpactBreaking
)

var impactNames = map[Impact]string{
	ImpactNone:     "NONE",
	ImpactLow:      "LOW",
	ImpactMedium:   "MEDIUM",
	ImpactHigh:     "HIGH",
	ImpactBreaking: "BREAKING",
}

var impactValues = reverseMap(impactNames)

func (i Impact) String() string {
	if s, ok := impactNames[i]; ok {
		return s
	}
	return "UNKNOWN_IMPACT"
}

func (i Impact) MarshalJSON() ([]byte, error) { return quoteJSON(i.String()), nil }

func (i *Impact) UnmarshalJSON(b []byte) error {
	s, err := unquoteJSON(b)
	if err != nil {
		return err
	}
	v, ok := impactValues[s]
	if !ok {
		return unknownEnumError("Impact", s)
	}
	*i = v
	return nil
}

// breaking reports whether this impact level counts toward
// comparisonSummary.breakingChanges (impact in {High, Breaking}).
func (i Impact) breaking() bool { return i == ImpactHigh || i == ImpactBreaking }

// Status is the closed enumeration of a comparison's terminal state.
type Status int

const (
	StatusSuccess Status = iota
	StatusPartial
	StatusFailed
)

var statusNames = map[Status]string{
	StatusSuccess: "SUCCESS",
	StatusPartial: "PARTIAL",
	StatusFailed:  "FAILED",
}

var statusValues = reverseMap(statusNames)

func (s Status) String() string {
	if v, ok := statusNames[s]; ok {
		return v
	}
	return "UNKNOWN_STATUS"
}

func (s Status) MarshalJSON() ([]byte, error) { return quoteJSON(s.String()), nil }

func (s *Status) UnmarshalJSON(b []byte) error {
	str, err := unquoteJSON(b)
	if err != nil {
		return err
	}
	v, ok := statusValues[str]
	if !ok {
		return unknownEnumError("Status", str)
	}
	*s = v
	return nil
}

// ChangeRecord is one typed entry in a comparison's change list. Built
// only by the construction helpers (newClassChange and newMemberChange
// below, annotationChange in diff.go), never by ad hoc field assignment
// at call sites, so the
// addition/removal/modification field-presence invariant always holds.
type ChangeRecord struct {
	Kind                ChangeKind
	ClassName           string
	MemberName          *string
	OldSignature        *string
	NewSignature         *string
	Description          string
	CompatibilityImpact Impact
	Reasons              []string
}

func strPtr(s string) *string { return &s }

func newClassChange(kind ChangeKind, className string, oldSig, newSig *string, description string) ChangeRecord {
	return ChangeRecord{
		Kind:         kind,
		ClassName:    className,
		OldSignature: oldSig,
		NewSignature: newSig,
		Description:  description,
	}
}

func newMemberChange(kind ChangeKind, className, memberName string, oldSig, newSig *string, description string) ChangeRecord {
	return ChangeRecord{
		Kind:         kind,
		ClassName:    className,
		MemberName:   strPtr(memberName),
		OldSignature: oldSig,
		NewSignature: newSig,
		Description:  description,
	}
}

func reverseMap[K comparable](m map[K]string) map[string]K {
	out := make(map[string]K, len(m))
	for k, v := range m {
		out[v] = k
	}
	return out
}

func quoteJSON(s string) []byte {
	var b strings.Builder
	b.WriteByte('"')
	b.WriteString(s)
	b.WriteByte('"')
	return []byte(b.String())
}

func unquoteJSON(b []byte) (string, error) {
	s := strings.TrimSpace(string(b))
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return "", errors.Errorf("invalid enum literal %q", s)
	}
	return s[1 : len(s)-1], nil
}

func unknownEnumError(typeName, value string) error {
	return errors.Errorf("unknown %s value %q", typeName, value)
}
