// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package jardiff

import (
	"io"

	"github.com/pkg/errors"
)

// Policy bundles the five boolean flags that shape both parsing
// (Class Summary Reader) and diffing (Diff Engine).
type Policy struct {
	IncludePrivateMembers        bool
	IncludePackagePrivateClasses bool
	AnalyzeFieldChanges          bool
	AnalyzeAnnotations           bool
	DetectBinaryCompatibility    bool
}

// ArchiveSource is a named, seekable byte source for one archive side
// of a comparison. Name is used only for display (ComparisonResult's
// OldArchiveName/NewArchiveName and report rendering); it is never
// treated as a filesystem path by the engine itself.
type ArchiveSource interface {
	io.ReaderAt
	Size() int64
	Name() string
}

// Request is the validated input to Compare. Implements act.Input via
// Validate, following the teacher's pkg/act convention of a plain
// struct carrying its own precondition check rather than a
// constructor-inheritance hierarchy (SPEC_FULL §9).
type Request struct {
	ID       string
	Old, New ArchiveSource
	Policy   Policy
	Progress ProgressFunc
}

// Validate implements act.Input. The two archive sources must be
// distinct addressable resources (§3 ComparisonRequest invariant); a
// request comparing a source against itself by name is rejected before
// any comparison starts.
func (r Request) Validate() error {
	if r.Old == nil || r.New == nil {
		return errors.Wrap(ErrInvalidRequest, "both archive sources are required")
	}
	if r.Old.Name() == r.New.Name() {
		return errors.Wrapf(ErrInvalidRequest, "old and new archive sources must be distinct, both named %q", r.Old.Name())
	}
	return nil
}
