// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package jardiff

import "github.com/pkg/errors"

// Error taxonomy (SPEC_FULL §7). The three terminal kinds are never
// swallowed by the engine; MalformedClassFile and per-entry ResourceError
// are downgraded to warnings by the caller that encounters them.
var (
	// ErrInvalidRequest means the request failed validation before any
	// comparison started (e.g. the two archive sources are the same
	// resource).
	ErrInvalidRequest = errors.New("invalid request")

	// ErrMalformedArchive means the archive's central directory could not
	// be read, or the archive contains zero class entries.
	ErrMalformedArchive = errors.New("malformed archive")

	// ErrNoClassFiles is a specific MalformedArchive condition: the
	// archive opened fine but contributed no .class entries.
	ErrNoClassFiles = errors.New("archive contains no class files")

	// ErrMalformedClassFile means a single class-file payload could not be
	// parsed (bad magic, truncated, invalid constant-pool reference). The
	// Index Builder recovers from this by skipping the class and recording
	// a warning.
	ErrMalformedClassFile = errors.New("malformed class file")

	// ErrResourceError means an I/O read failure on the underlying byte
	// source. Per-entry occurrences are downgraded to warnings; a failure
	// reading the archive itself is not recoverable.
	ErrResourceError = errors.New("resource read error")

	// ErrInternalInvariantViolation guards a programming-error condition
	// (e.g. the assembled summary aggregates disagree with the change
	// list). Must never be suppressed.
	ErrInternalInvariantViolation = errors.New("internal invariant violation")
)
