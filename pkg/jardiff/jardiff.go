// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

// Package jardiff implements a bytecode-level comparison engine for
// pairs of Java archives: it walks each archive's class-file entries,
// summarizes their structural surface, diffs the two summaries, and
// classifies each difference by binary-compatibility impact.
//
// Compare is the package's single entry point. It holds no
// package-level mutable state; concurrent calls on independent
// requests are safe.
package jardiff

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

// Compare runs one comparison end to end: builds a ClassIndex for each
// archive side, diffs them, classifies every change, and assembles the
// result. It never swallows the three terminal error kinds
// (InvalidRequest, MalformedArchive, InternalInvariantViolation); a
// malformed individual class file or a recoverable per-entry read
// failure is downgraded to a warning and the comparison status becomes
// PARTIAL.
func Compare(ctx context.Context, req Request) (*ComparisonResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()

	oldIndex, oldWarnings, err := buildIndex(req.Old, req.Old.Size(), req.Policy, req.Progress)
	if err != nil {
		result := failedResult(req, err.Error())
		return &result, errors.Wrap(ErrMalformedArchive, err.Error())
	}

	newIndex, newWarnings, err := buildIndex(req.New, req.New.Size(), req.Policy, req.Progress)
	if err != nil {
		result := failedResult(req, err.Error())
		return &result, errors.Wrap(ErrMalformedArchive, err.Error())
	}

	changes := diffIndices(oldIndex, newIndex, req.Policy)

	warnings := append(oldWarnings, newWarnings...)
	result := assembleResult(req, oldIndex, newIndex, changes, warnings, start, time.Now())

	if err := checkAggregateConsistency(result); err != nil {
		failed := failedResult(req, err.Error())
		return &failed, errors.Wrap(ErrInternalInvariantViolation, err.Error())
	}

	return &result, nil
}

// checkAggregateConsistency re-derives the summary totals from the
// change list and fails loudly (InternalInvariantViolation, §7) if they
// disagree with what assembleResult produced, guarding property P3.
func checkAggregateConsistency(r ComparisonResult) error {
	if r.Summary.TotalChanges != len(r.Changes) {
		return errors.Errorf("summary.totalChanges %d does not match change list length %d", r.Summary.TotalChanges, len(r.Changes))
	}
	var breaking int
	for _, c := range r.Changes {
		if c.CompatibilityImpact.breaking() {
			breaking++
		}
	}
	if r.Summary.BreakingChanges != breaking {
		return errors.Errorf("summary.breakingChanges %d does not match recomputed count %d", r.Summary.BreakingChanges, breaking)
	}
	return nil
}
