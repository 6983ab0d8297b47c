// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

// Package report renders a jardiff.ComparisonResult as colorized,
// human-readable text, one line per change record. ChangeRecord is
// already flat (no recursive Details the way diffr.DiffNode has,
// because class-surface diffs do not nest the way archive-content
// diffs do), so this renderer is a flattened counterpart to the
// teacher's DiffNode.String() tree walk rather than a recursive one.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/coderush/jardiff/pkg/jardiff"
	"github.com/fatih/color"
)

const (
	detailGlyph  = "│ "
	branchGlyph  = "├── "
	commentGlyph = "│┄ "
)

func colorForImpact(impact jardiff.Impact) *color.Color {
	switch impact {
	case jardiff.ImpactBreaking, jardiff.ImpactHigh:
		return color.New(color.FgRed, color.Bold)
	case jardiff.ImpactMedium, jardiff.ImpactLow:
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgGreen)
	}
}

// Write renders r to w.
func Write(w io.Writer, r *jardiff.ComparisonResult) {
	fmt.Fprintf(w, "--- %s\n", r.OldArchiveName)
	fmt.Fprintf(w, "+++ %s\n", r.NewArchiveName)
	fmt.Fprintf(w, "status: %s   classes: %d -> %d   changes: %d (%d breaking)\n",
		r.Status, r.OldClassCount, r.NewClassCount, r.Summary.TotalChanges, r.Summary.BreakingChanges)
	if r.FailureReason != "" {
		fmt.Fprintf(w, "failure: %s\n", r.FailureReason)
	}

	for _, warning := range r.Warnings {
		fmt.Fprintf(w, "%s%s\n", commentGlyph, warning)
	}

	for _, c := range r.Changes {
		line := formatChangeLine(c)
		colorForImpact(c.CompatibilityImpact).Fprintf(w, "%s%s\n", branchGlyph, line)
		if len(c.Reasons) > 0 {
			fmt.Fprintf(w, "%s%s%s\n", detailGlyph, commentGlyph, strings.Join(c.Reasons, "; "))
		}
	}
}

func formatChangeLine(c jardiff.ChangeRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", c.CompatibilityImpact, c.Kind)
	b.WriteByte(' ')
	b.WriteString(c.ClassName)
	if c.MemberName != nil {
		b.WriteByte('#')
		b.WriteString(*c.MemberName)
	}
	if c.OldSignature != nil {
		fmt.Fprintf(&b, "  -%s", displaySignature(c.Kind, *c.OldSignature))
	}
	if c.NewSignature != nil {
		fmt.Fprintf(&b, "  +%s", displaySignature(c.Kind, *c.NewSignature))
	}
	return b.String()
}

// displaySignature expands a method signature's trailing JVM descriptor
// into a human-readable parameter/return rendering; non-method kinds and
// field signatures (which carry no parenthesized descriptor) pass through
// unchanged.
func displaySignature(kind jardiff.ChangeKind, sig string) string {
	switch kind {
	case jardiff.MethodAdded, jardiff.MethodRemoved, jardiff.MethodAccessChanged,
		jardiff.MethodSignatureChanged, jardiff.MethodReturnTypeChanged, jardiff.MethodParameterChanged:
	default:
		return sig
	}
	paren := strings.IndexByte(sig, '(')
	if paren < 0 {
		return sig
	}
	return sig[:paren] + jardiff.MethodDescriptorToSignature(sig[paren:])
}
