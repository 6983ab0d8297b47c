// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package jardiff

import "io"

// buildIndex drives the Archive Walker and, for each surviving payload,
// the Class Summary Reader, composing C1+C2 into a ClassIndex. Duplicate
// class names are resolved first-wins with a warning; a malformed
// class-file payload is downgraded to a warning rather than aborting
// the build (§4.3).
func buildIndex(src io.ReaderAt, size int64, policy Policy, progress ProgressFunc) (ClassIndex, []string, error) {
	var warnings []string
	entries, err := walkArchive(src, size, progress, &warnings)
	if err != nil {
		return nil, warnings, err
	}

	opts := readerOptions{
		includePrivateMembers:        policy.IncludePrivateMembers,
		includePackagePrivateClasses: policy.IncludePackagePrivateClasses,
		analyzeFieldChanges:          policy.AnalyzeFieldChanges,
		analyzeAnnotations:           policy.AnalyzeAnnotations,
	}

	index := make(ClassIndex, len(entries))
	for _, e := range entries {
		summary, ok, err := readClassFile(e.Payload, opts)
		if err != nil {
			warnings = append(warnings, "reading "+e.Name+": "+err.Error())
			continue
		}
		if !ok {
			continue
		}
		if _, exists := index[summary.Name]; exists {
			warnings = append(warnings, "duplicate class entry \""+summary.Name+"\": keeping first occurrence")
			continue
		}
		index[summary.Name] = summary
	}
	return index, warnings, nil
}
