// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package jardiff

// classifyClassChange assigns the fixed impact/reason pair for a
// class-level change. class_modified is never produced (§9 open
// question 2) so it has no entry here.
func classifyClassChange(kind ChangeKind) (Impact, []string) {
	switch kind {
	case ClassRemoved:
		return ImpactBreaking, []string{"Class no longer exists in the new version"}
	case ClassAdded:
		return ImpactNone, []string{"New class added"}
	default:
		return ImpactNone, nil
	}
}

// classifyAccessChange implements the shared rule used by both
// method_access_changed and field_access_changed (§4.5): narrowing
// visibility is breaking, widening is none, a same-visibility flag
// toggle (e.g. final/static) is low.
func classifyAccessChange(old, new Visibility) (Impact, []string) {
	switch {
	case new < old:
		return ImpactBreaking, []string{"Reduced visibility may break callers"}
	case new > old:
		return ImpactNone, []string{"Widened visibility"}
	default:
		return ImpactLow, []string{"Non-visibility flag change"}
	}
}

// classifyMemberChange assigns impact/reasons for the remaining
// member-level and annotation-level change kinds that do not depend on
// a visibility transition.
func classifyMemberChange(kind ChangeKind) (Impact, []string) {
	switch kind {
	case MethodRemoved:
		return ImpactBreaking, []string{"Method no longer exists", "Calling code will fail at runtime"}
	case MethodAdded:
		return ImpactNone, []string{"New method available"}
	case FieldRemoved:
		return ImpactBreaking, []string{"Field no longer exists"}
	case FieldAdded:
		return ImpactNone, []string{"New field available"}
	case FieldTypeChanged:
		return ImpactBreaking, []string{"Field type change breaks binary compatibility"}
	case AnnotationAdded, AnnotationRemoved:
		return ImpactLow, []string{"Annotation set changed"}
	default:
		return ImpactNone, nil
	}
}
