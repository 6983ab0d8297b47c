// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package jardiff

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
)

func fullPolicy() Policy {
	return Policy{
		IncludePrivateMembers:        true,
		IncludePackagePrivateClasses: true,
		AnalyzeFieldChanges:          true,
		AnalyzeAnnotations:           true,
		DetectBinaryCompatibility:    true,
	}
}

func mustCompare(t *testing.T, oldArchive, newArchive []byte, policy Policy) *ComparisonResult {
	t.Helper()
	req := Request{
		ID:     "test-request",
		Old:    newByteSource("old.jar", oldArchive),
		New:    newByteSource("new.jar", newArchive),
		Policy: policy,
	}
	result, err := Compare(context.Background(), req)
	if err != nil {
		t.Fatalf("Compare() error = %v", err)
	}
	return result
}

func simpleClassArchive(className string, methods, fields []memberBuilder) []byte {
	b := newClassFileBuilder(className, "java.lang.Object", AccPublic)
	for _, m := range methods {
		b.addMethod(m)
	}
	for _, f := range fields {
		b.addField(f)
	}
	return buildArchive(map[string][]byte{
		classNameToEntry(className): b.build(),
	})
}

func classNameToEntry(name string) string {
	return canonicalToInternal(name) + ".class"
}

// P1 — Self-comparison is empty.
func TestSelfComparisonEmpty(t *testing.T) {
	archive := simpleClassArchive("pkg.A", []memberBuilder{
		{name: "greet", descriptor: "()V", accessFlags: AccPublic},
	}, nil)

	result := mustCompare(t, archive, archive, fullPolicy())

	if len(result.Changes) != 0 {
		t.Errorf("Changes = %v, want empty", result.Changes)
	}
	if result.Status != StatusSuccess {
		t.Errorf("Status = %v, want SUCCESS", result.Status)
	}
	if result.OldClassCount != result.NewClassCount {
		t.Errorf("OldClassCount = %d, NewClassCount = %d, want equal", result.OldClassCount, result.NewClassCount)
	}
}

// P2 — Determinism.
func TestDeterminism(t *testing.T) {
	oldArchive := simpleClassArchive("pkg.A", []memberBuilder{
		{name: "run", descriptor: "()V", accessFlags: AccProtected},
	}, nil)
	newArchive := simpleClassArchive("pkg.A", []memberBuilder{
		{name: "run", descriptor: "()V", accessFlags: AccPublic},
	}, nil)

	first := mustCompare(t, oldArchive, newArchive, fullPolicy())
	second := mustCompare(t, oldArchive, newArchive, fullPolicy())

	if diff := cmp.Diff(first.Changes, second.Changes); diff != "" {
		t.Errorf("Compare() not deterministic (-first +second):\n%s", diff)
	}
}

// P3 — Aggregate consistency.
func TestAggregateConsistency(t *testing.T) {
	oldArchive := simpleClassArchive("pkg.A", []memberBuilder{
		{name: "greet", descriptor: "()V", accessFlags: AccPublic},
	}, nil)
	newArchive := buildArchive(map[string][]byte{
		"pkg/A.class": newClassFileBuilder("pkg.A", "java.lang.Object", AccPublic).build(),
		"pkg/B.class": newClassFileBuilder("pkg.B", "java.lang.Object", AccPublic).build(),
	})

	result := mustCompare(t, oldArchive, newArchive, fullPolicy())

	if result.Summary.TotalChanges != len(result.Changes) {
		t.Errorf("TotalChanges = %d, want %d", result.Summary.TotalChanges, len(result.Changes))
	}
	var wantBreaking int
	for _, c := range result.Changes {
		if c.CompatibilityImpact.breaking() {
			wantBreaking++
		}
	}
	if result.Summary.BreakingChanges != wantBreaking {
		t.Errorf("BreakingChanges = %d, want %d", result.Summary.BreakingChanges, wantBreaking)
	}
	for kind, count := range result.Summary.ChangesByKind {
		var want int
		for _, c := range result.Changes {
			if c.Kind == kind {
				want++
			}
		}
		if count != want {
			t.Errorf("ChangesByKind[%v] = %d, want %d", kind, count, want)
		}
	}
}

// P4 — Complementarity under swap.
func TestComplementaritySwap(t *testing.T) {
	oldArchive := simpleClassArchive("pkg.A", []memberBuilder{
		{name: "run", descriptor: "()V", accessFlags: AccPublic},
		{name: "removed", descriptor: "()V", accessFlags: AccPublic},
	}, nil)
	newArchive := simpleClassArchive("pkg.A", []memberBuilder{
		{name: "run", descriptor: "()V", accessFlags: AccProtected},
		{name: "added", descriptor: "()V", accessFlags: AccPublic},
	}, nil)

	forward := mustCompare(t, oldArchive, newArchive, fullPolicy())
	backward := mustCompare(t, newArchive, oldArchive, fullPolicy())

	countKind := func(changes []ChangeRecord, k ChangeKind) int {
		n := 0
		for _, c := range changes {
			if c.Kind == k {
				n++
			}
		}
		return n
	}

	if countKind(forward.Changes, MethodAdded) != countKind(backward.Changes, MethodRemoved) {
		t.Errorf("MethodAdded forward (%d) != MethodRemoved backward (%d)",
			countKind(forward.Changes, MethodAdded), countKind(backward.Changes, MethodRemoved))
	}
	if countKind(forward.Changes, MethodRemoved) != countKind(backward.Changes, MethodAdded) {
		t.Errorf("MethodRemoved forward (%d) != MethodAdded backward (%d)",
			countKind(forward.Changes, MethodRemoved), countKind(backward.Changes, MethodAdded))
	}
	if countKind(forward.Changes, MethodAccessChanged) != countKind(backward.Changes, MethodAccessChanged) {
		t.Error("MethodAccessChanged count changed under swap")
	}

	for _, c := range forward.Changes {
		if c.Kind == MethodAccessChanged && *c.MemberName == "run" {
			if c.CompatibilityImpact != ImpactBreaking {
				t.Fatalf("forward run access change impact = %v, want BREAKING", c.CompatibilityImpact)
			}
		}
	}
	for _, c := range backward.Changes {
		if c.Kind == MethodAccessChanged && *c.MemberName == "run" {
			if c.CompatibilityImpact != ImpactNone {
				t.Fatalf("backward run access change impact = %v, want NONE", c.CompatibilityImpact)
			}
		}
	}
}

// P5 — Visibility filter.
func TestVisibilityFilterMonotonic(t *testing.T) {
	oldArchive := simpleClassArchive("pkg.A", []memberBuilder{
		{name: "pub", descriptor: "()V", accessFlags: AccPublic},
		{name: "priv", descriptor: "()V", accessFlags: AccPrivate},
	}, nil)
	newArchive := simpleClassArchive("pkg.A", []memberBuilder{
		{name: "pub", descriptor: "()V", accessFlags: AccPublic},
	}, nil)

	withPrivate := fullPolicy()
	withoutPrivate := fullPolicy()
	withoutPrivate.IncludePrivateMembers = false

	resultWith := mustCompare(t, oldArchive, newArchive, withPrivate)
	resultWithout := mustCompare(t, oldArchive, newArchive, withoutPrivate)

	if len(resultWith.Changes) < len(resultWithout.Changes) {
		t.Errorf("enabling IncludePrivateMembers decreased change count: %d < %d", len(resultWith.Changes), len(resultWithout.Changes))
	}
	for _, c := range resultWithout.Changes {
		if c.MemberName != nil && *c.MemberName == "priv" {
			t.Errorf("found record for private-only member %q with IncludePrivateMembers=false", *c.MemberName)
		}
	}
}

// P6 — Field-disabled.
func TestFieldChangesDisabled(t *testing.T) {
	oldArchive := simpleClassArchive("pkg.A", nil, []memberBuilder{
		{name: "count", descriptor: "I", accessFlags: AccPublic},
	})
	newArchive := simpleClassArchive("pkg.A", nil, []memberBuilder{
		{name: "count", descriptor: "J", accessFlags: AccPublic},
	})

	policy := fullPolicy()
	policy.AnalyzeFieldChanges = false

	result := mustCompare(t, oldArchive, newArchive, policy)

	for _, c := range result.Changes {
		if c.Kind.category() == "field" {
			t.Errorf("found field change %v with AnalyzeFieldChanges=false", c.Kind)
		}
	}
}

// S1 — Method removed, breaking.
func TestScenarioMethodRemoved(t *testing.T) {
	oldArchive := simpleClassArchive("pkg.A", []memberBuilder{
		{name: "greet", descriptor: "()V", accessFlags: AccPublic},
	}, nil)
	newArchive := simpleClassArchive("pkg.A", nil, nil)

	result := mustCompare(t, oldArchive, newArchive, fullPolicy())

	if len(result.Changes) != 1 {
		t.Fatalf("Changes = %d, want 1", len(result.Changes))
	}
	c := result.Changes[0]
	if c.Kind != MethodRemoved {
		t.Errorf("Kind = %v, want MethodRemoved", c.Kind)
	}
	if c.ClassName != "pkg.A" {
		t.Errorf("ClassName = %q, want pkg.A", c.ClassName)
	}
	if c.MemberName == nil || *c.MemberName != "greet" {
		t.Errorf("MemberName = %v, want greet", c.MemberName)
	}
	if c.OldSignature == nil || *c.OldSignature != "public greet()V" {
		t.Errorf("OldSignature = %v, want \"public greet()V\"", c.OldSignature)
	}
	if c.NewSignature != nil {
		t.Errorf("NewSignature = %v, want nil", c.NewSignature)
	}
	if c.CompatibilityImpact != ImpactBreaking {
		t.Errorf("CompatibilityImpact = %v, want BREAKING", c.CompatibilityImpact)
	}
	if result.Summary.TotalChanges != 1 || result.Summary.BreakingChanges != 1 || result.Summary.MethodChanges != 1 {
		t.Errorf("Summary = %+v, want totals of 1/1/1", result.Summary)
	}
}

// S2 — Method visibility widened.
func TestScenarioMethodWidened(t *testing.T) {
	oldArchive := simpleClassArchive("pkg.A", []memberBuilder{
		{name: "run", descriptor: "()V", accessFlags: AccProtected},
	}, nil)
	newArchive := simpleClassArchive("pkg.A", []memberBuilder{
		{name: "run", descriptor: "()V", accessFlags: AccPublic},
	}, nil)

	result := mustCompare(t, oldArchive, newArchive, fullPolicy())

	if len(result.Changes) != 1 {
		t.Fatalf("Changes = %d, want 1", len(result.Changes))
	}
	c := result.Changes[0]
	if c.Kind != MethodAccessChanged || *c.OldSignature != "protected" || *c.NewSignature != "public" {
		t.Errorf("unexpected change: %+v", c)
	}
	if c.CompatibilityImpact != ImpactNone {
		t.Errorf("CompatibilityImpact = %v, want NONE", c.CompatibilityImpact)
	}
	if result.Summary.BreakingChanges != 0 {
		t.Errorf("BreakingChanges = %d, want 0", result.Summary.BreakingChanges)
	}
}

// S3 — Method visibility narrowed.
func TestScenarioMethodNarrowed(t *testing.T) {
	oldArchive := simpleClassArchive("pkg.A", []memberBuilder{
		{name: "run", descriptor: "()V", accessFlags: AccPublic},
	}, nil)
	newArchive := simpleClassArchive("pkg.A", []memberBuilder{
		{name: "run", descriptor: "()V", accessFlags: AccProtected},
	}, nil)

	result := mustCompare(t, oldArchive, newArchive, fullPolicy())

	if len(result.Changes) != 1 || result.Changes[0].Kind != MethodAccessChanged {
		t.Fatalf("Changes = %+v, want one MethodAccessChanged", result.Changes)
	}
	if result.Changes[0].CompatibilityImpact != ImpactBreaking {
		t.Errorf("CompatibilityImpact = %v, want BREAKING", result.Changes[0].CompatibilityImpact)
	}
	if result.Summary.BreakingChanges != 1 {
		t.Errorf("BreakingChanges = %d, want 1", result.Summary.BreakingChanges)
	}
}

// S4 — Field type change.
func TestScenarioFieldTypeChanged(t *testing.T) {
	oldArchive := simpleClassArchive("pkg.A", nil, []memberBuilder{
		{name: "count", descriptor: "I", accessFlags: AccPublic},
	})
	newArchive := simpleClassArchive("pkg.A", nil, []memberBuilder{
		{name: "count", descriptor: "J", accessFlags: AccPublic},
	})

	result := mustCompare(t, oldArchive, newArchive, fullPolicy())

	if len(result.Changes) != 1 {
		t.Fatalf("Changes = %+v, want 1", result.Changes)
	}
	c := result.Changes[0]
	if c.Kind != FieldTypeChanged {
		t.Errorf("Kind = %v, want FieldTypeChanged", c.Kind)
	}
	if c.OldSignature == nil || *c.OldSignature != "public I count" {
		t.Errorf("OldSignature = %v, want \"public I count\"", c.OldSignature)
	}
	if c.NewSignature == nil || *c.NewSignature != "public J count" {
		t.Errorf("NewSignature = %v, want \"public J count\"", c.NewSignature)
	}
	if c.CompatibilityImpact != ImpactBreaking {
		t.Errorf("CompatibilityImpact = %v, want BREAKING", c.CompatibilityImpact)
	}
}

// S5 — Class added.
func TestScenarioClassAdded(t *testing.T) {
	oldArchive := buildArchive(map[string][]byte{
		"pkg/A.class": newClassFileBuilder("pkg.A", "java.lang.Object", AccPublic).build(),
	})
	newArchive := buildArchive(map[string][]byte{
		"pkg/A.class": newClassFileBuilder("pkg.A", "java.lang.Object", AccPublic).build(),
		"pkg/B.class": newClassFileBuilder("pkg.B", "java.lang.Object", AccPublic).build(),
	})

	result := mustCompare(t, oldArchive, newArchive, fullPolicy())

	if len(result.Changes) != 1 {
		t.Fatalf("Changes = %+v, want 1", result.Changes)
	}
	c := result.Changes[0]
	if c.Kind != ClassAdded || c.ClassName != "pkg.B" {
		t.Errorf("unexpected change: %+v", c)
	}
	if c.CompatibilityImpact != ImpactNone {
		t.Errorf("CompatibilityImpact = %v, want NONE", c.CompatibilityImpact)
	}
	if result.Summary.TotalChanges != 1 {
		t.Errorf("TotalChanges = %d, want 1", result.Summary.TotalChanges)
	}
}

// S6 — Self-compare on a 3-class archive.
func TestScenarioSelfCompareThreeClasses(t *testing.T) {
	archive := buildArchive(map[string][]byte{
		"pkg/A.class": newClassFileBuilder("pkg.A", "java.lang.Object", AccPublic).build(),
		"pkg/B.class": newClassFileBuilder("pkg.B", "java.lang.Object", AccPublic).build(),
		"pkg/C.class": newClassFileBuilder("pkg.C", "java.lang.Object", AccPublic).build(),
	})

	result := mustCompare(t, archive, archive, fullPolicy())

	if result.Summary.TotalChanges != 0 {
		t.Errorf("TotalChanges = %d, want 0", result.Summary.TotalChanges)
	}
	if result.Status != StatusSuccess {
		t.Errorf("Status = %v, want SUCCESS", result.Status)
	}
}

func TestRequestValidateRejectsSameSource(t *testing.T) {
	src := newByteSource("same.jar", []byte{})
	req := Request{Old: src, New: src, Policy: fullPolicy()}
	if err := req.Validate(); err == nil {
		t.Error("Validate() = nil, want error for identical archive sources")
	}
}

// A truncated class-file payload must surface as ErrMalformedClassFile,
// downgraded by the Class Index Builder to a warning rather than
// aborting the comparison.
func TestMalformedClassFileDowngradedToWarning(t *testing.T) {
	broken := buildArchive(map[string][]byte{
		"Broken.class": append([]byte{}, classFileMagic...), // magic only, nothing else
	})
	valid := simpleClassArchive("com.example.Widget", nil, nil)

	result := mustCompare(t, broken, valid, fullPolicy())
	if result.OldClassCount != 0 {
		t.Errorf("OldClassCount = %d, want 0 (the malformed entry must not be indexed)", result.OldClassCount)
	}
	if len(result.Warnings) == 0 {
		t.Fatal("Warnings = empty, want a warning for the unparsable class file")
	}
	if result.Status != StatusPartial {
		t.Errorf("Status = %v, want PARTIAL", result.Status)
	}
}

func TestReadClassFileWrapsMalformedSentinel(t *testing.T) {
	_, _, err := readClassFile(append([]byte{}, classFileMagic...), readerOptions{})
	if err == nil {
		t.Fatal("readClassFile() error = nil, want non-nil for a truncated payload")
	}
	if !errors.Is(err, ErrMalformedClassFile) {
		t.Errorf("readClassFile() error = %v, want wrapped ErrMalformedClassFile", err)
	}
}
