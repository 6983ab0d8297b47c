// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package jardiff

import (
	"encoding/json"
	"time"
)

// The types in this file implement the normative wire shape from §6/§7a:
// field names, the analysisType sentinel, and upper-snake-case enum
// rendering (handled by ChangeKind/Impact/Status's own MarshalJSON).
// They are kept separate from the domain types in change.go, summary.go
// and result.go so the domain model itself never carries JSON struct tags.

type wireChangeRecord struct {
	Type                 ChangeKind `json:"type"`
	ClassName            string     `json:"className"`
	MemberName           *string    `json:"memberName"`
	OldSignature         *string    `json:"oldSignature"`
	NewSignature         *string    `json:"newSignature"`
	Description          string     `json:"description"`
	CompatibilityImpact Impact     `json:"compatibilityImpact"`
	Reasons              []string   `json:"reasons"`
}

func toWireChangeRecord(c ChangeRecord) wireChangeRecord {
	reasons := c.Reasons
	if reasons == nil {
		reasons = []string{}
	}
	return wireChangeRecord{
		Type:                c.Kind,
		ClassName:           c.ClassName,
		MemberName:          c.MemberName,
		OldSignature:        c.OldSignature,
		NewSignature:        c.NewSignature,
		Description:         c.Description,
		CompatibilityImpact: c.CompatibilityImpact,
		Reasons:             reasons,
	}
}

type wireSummary struct {
	TotalChanges    int            `json:"totalChanges"`
	BreakingChanges int            `json:"breakingChanges"`
	ClassChanges    int            `json:"classChanges"`
	MethodChanges   int            `json:"methodChanges"`
	FieldChanges    int            `json:"fieldChanges"`
	ChangesByType   map[string]int `json:"changesByType"`
	ChangesByImpact map[string]int `json:"changesByImpact"`
}

func toWireSummary(s Summary) wireSummary {
	byType := make(map[string]int, len(s.ChangesByKind))
	for k, v := range s.ChangesByKind {
		byType[k.String()] = v
	}
	byImpact := make(map[string]int, len(s.ChangesByImpact))
	for k, v := range s.ChangesByImpact {
		byImpact[k.String()] = v
	}
	return wireSummary{
		TotalChanges:    s.TotalChanges,
		BreakingChanges: s.BreakingChanges,
		ClassChanges:    s.ClassChanges,
		MethodChanges:   s.MethodChanges,
		FieldChanges:    s.FieldChanges,
		ChangesByType:   byType,
		ChangesByImpact: byImpact,
	}
}

type wireResult struct {
	RequestID         string              `json:"requestId"`
	AnalysisType      string              `json:"analysisType"`
	StartTime         time.Time           `json:"startTime"`
	EndTime           time.Time           `json:"endTime"`
	DurationMs        int64               `json:"durationMs"`
	Status            Status              `json:"status"`
	OldJarName        string              `json:"oldJarName"`
	NewJarName        string              `json:"newJarName"`
	OldJarClassCount  int                 `json:"oldJarClassCount"`
	NewJarClassCount  int                 `json:"newJarClassCount"`
	Changes           []wireChangeRecord  `json:"changes"`
	ComparisonSummary wireSummary         `json:"comparisonSummary"`
	Warnings          []string            `json:"warnings"`
}

// MarshalJSON renders a ComparisonResult in the normative wire shape
// documented in §6/§7a: analysisType is the fixed sentinel
// "JAR_COMPARISON", enum fields render upper-snake, and nullable
// signature/member fields marshal as JSON null via *string when unset.
func (r ComparisonResult) MarshalJSON() ([]byte, error) {
	changes := make([]wireChangeRecord, len(r.Changes))
	for i, c := range r.Changes {
		changes[i] = toWireChangeRecord(c)
	}
	warnings := r.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	wire := wireResult{
		RequestID:         r.RequestID,
		AnalysisType:      "JAR_COMPARISON",
		StartTime:         r.StartTime,
		EndTime:           r.EndTime,
		DurationMs:        r.EndTime.Sub(r.StartTime).Milliseconds(),
		Status:            r.Status,
		OldJarName:        r.OldArchiveName,
		NewJarName:        r.NewArchiveName,
		OldJarClassCount:  r.OldClassCount,
		NewJarClassCount:  r.NewClassCount,
		Changes:           changes,
		ComparisonSummary: toWireSummary(r.Summary),
		Warnings:          warnings,
	}
	return json.Marshal(wire)
}
