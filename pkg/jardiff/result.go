// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package jardiff

import "time"

// Summary holds the derived aggregates computed by the Result
// Assembler from the finished change list (§4.6). Must always be
// consistent with Changes (property P3).
type Summary struct {
	TotalChanges    int
	BreakingChanges int
	ClassChanges    int
	MethodChanges   int
	FieldChanges    int
	ChangesByKind   map[ChangeKind]int
	ChangesByImpact map[Impact]int
}

// ComparisonResult is the immutable, fully-assembled output of one
// Compare call.
type ComparisonResult struct {
	RequestID       string
	OldArchiveName  string
	NewArchiveName  string
	StartTime       time.Time
	EndTime         time.Time
	OldClassCount   int
	NewClassCount   int
	Changes         []ChangeRecord
	Warnings        []string
	Summary         Summary
	Status          Status
	FailureReason   string
}

// assembleResult computes the summary aggregates and binds them with
// the ordered change list into a ComparisonResult (§4.6). The aggregate
// computation is a single pass over changes, so property P3 holds by
// construction; Compare's checkAggregateConsistency re-derives the total
// and breaking counts afterwards as a guard.
func assembleResult(req Request, oldIndex, newIndex ClassIndex, changes []ChangeRecord, warnings []string, start, end time.Time) ComparisonResult {
	summary := Summary{
		TotalChanges:    len(changes),
		ChangesByKind:   make(map[ChangeKind]int),
		ChangesByImpact: make(map[Impact]int),
	}
	for _, c := range changes {
		summary.ChangesByKind[c.Kind]++
		summary.ChangesByImpact[c.CompatibilityImpact]++
		if c.CompatibilityImpact.breaking() {
			summary.BreakingChanges++
		}
		switch c.Kind.category() {
		case "class":
			summary.ClassChanges++
		case "method":
			summary.MethodChanges++
		case "field":
			summary.FieldChanges++
		}
	}

	status := StatusSuccess
	if len(warnings) > 0 {
		status = StatusPartial
	}

	return ComparisonResult{
		RequestID:      req.ID,
		OldArchiveName: req.Old.Name(),
		NewArchiveName: req.New.Name(),
		StartTime:      start,
		EndTime:        end,
		OldClassCount:  len(oldIndex),
		NewClassCount:  len(newIndex),
		Changes:        changes,
		Warnings:       warnings,
		Summary:        summary,
		Status:         status,
	}
}

// failedResult builds the terminal FAILED shape for a request that
// could not be compared at all (§7: "on failure the status is FAILED
// with a single diagnostic string and no change list").
func failedResult(req Request, reason string) ComparisonResult {
	oldName, newName := "", ""
	if req.Old != nil {
		oldName = req.Old.Name()
	}
	if req.New != nil {
		newName = req.New.Name()
	}
	return ComparisonResult{
		RequestID:      req.ID,
		OldArchiveName: oldName,
		NewArchiveName: newName,
		Status:         StatusFailed,
		FailureReason:  reason,
	}
}
