// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package jardiff

import "sort"

// diffIndices is the Diff Engine (C4): given both indices and the
// policy flags, it produces the ordered change list. Class names and
// annotation names are traversed as an ascending sort over the union of
// keys; methods and fields follow the order described on diffMembers.
// The class-level loop matches the "collect names into a set, sort,
// iterate" shape of the
// teacher's compareZip/compareJar (pkg/diffr/zip.go, pkg/diffr/jar.go),
// generalized from zip-entry names to Java class/member names.
func diffIndices(oldIndex, newIndex ClassIndex, policy Policy) []ChangeRecord {
	var changes []ChangeRecord

	for _, name := range sortedUnion(oldIndex.Names(), newIndex.Names()) {
		oldClass, inOld := oldIndex[name]
		newClass, inNew := newIndex[name]
		switch {
		case inOld && !inNew:
			sig := classSignature(oldClass)
			changes = append(changes, classify(newClassChange(ClassRemoved, name, &sig, nil, "Class removed")))
		case !inOld && inNew:
			sig := classSignature(newClass)
			changes = append(changes, classify(newClassChange(ClassAdded, name, nil, &sig, "Class added")))
		default:
			changes = append(changes, diffMembers(name, oldClass, newClass, policy)...)
		}
	}
	return changes
}

// diffMembers diffs methods, fields, and annotations for one class
// present in both indices. Per §4.4, members are traversed in
// indexOld's insertion order, then any new-only members in indexNew's
// order — only the class-name traversal and annotation sets use a
// sorted union.
func diffMembers(className string, oldClass, newClass ClassSummary, policy Policy) []ChangeRecord {
	var changes []ChangeRecord

	visitedMethods := make(map[string]bool, len(oldClass.Methods))
	for _, oldM := range oldClass.Methods {
		key := oldM.Key()
		visitedMethods[key] = true
		newM, inNew := newClass.methodByKey(key)
		if !inNew {
			sig := methodSignature(oldM)
			changes = append(changes, classify(newMemberChange(MethodRemoved, className, oldM.Name, &sig, nil, "Method removed")))
			continue
		}
		if oldM.AccessFlags != newM.AccessFlags {
			oldVis := visibilityOf(oldM.AccessFlags).String()
			newVis := visibilityOf(newM.AccessFlags).String()
			changes = append(changes, classify(newMemberChange(MethodAccessChanged, className, oldM.Name, &oldVis, &newVis, "Method access modifier changed")))
		}
	}
	for _, newM := range newClass.Methods {
		key := newM.Key()
		if visitedMethods[key] {
			continue
		}
		sig := methodSignature(newM)
		changes = append(changes, classify(newMemberChange(MethodAdded, className, newM.Name, nil, &sig, "Method added")))
	}

	if policy.AnalyzeFieldChanges {
		visitedFields := make(map[string]bool, len(oldClass.Fields))
		for _, oldF := range oldClass.Fields {
			key := oldF.Key()
			visitedFields[key] = true
			newF, inNew := newClass.fieldByKey(key)
			if !inNew {
				sig := fieldSignature(oldF)
				changes = append(changes, classify(newMemberChange(FieldRemoved, className, oldF.Name, &sig, nil, "Field removed")))
				continue
			}
			if oldF.Descriptor != newF.Descriptor {
				oldSig := fieldSignature(oldF)
				newSig := fieldSignature(newF)
				changes = append(changes, classify(newMemberChange(FieldTypeChanged, className, oldF.Name, &oldSig, &newSig, "Field type changed")))
			}
			if oldF.AccessFlags != newF.AccessFlags {
				oldVis := visibilityOf(oldF.AccessFlags).String()
				newVis := visibilityOf(newF.AccessFlags).String()
				changes = append(changes, classify(newMemberChange(FieldAccessChanged, className, oldF.Name, &oldVis, &newVis, "Field access modifier changed")))
			}
		}
		for _, newF := range newClass.Fields {
			if visitedFields[newF.Key()] {
				continue
			}
			sig := fieldSignature(newF)
			changes = append(changes, classify(newMemberChange(FieldAdded, className, newF.Name, nil, &sig, "Field added")))
		}
	}

	if policy.AnalyzeAnnotations {
		changes = append(changes, diffAnnotations(className, nil, oldClass.Annotations, newClass.Annotations)...)
		for _, oldM := range oldClass.Methods {
			if newM, inNew := newClass.methodByKey(oldM.Key()); inNew {
				changes = append(changes, diffAnnotations(className, &oldM.Name, oldM.Annotations, newM.Annotations)...)
			}
		}
		if policy.AnalyzeFieldChanges {
			for _, oldF := range oldClass.Fields {
				if newF, inNew := newClass.fieldByKey(oldF.Key()); inNew {
					changes = append(changes, diffAnnotations(className, &oldF.Name, oldF.Annotations, newF.Annotations)...)
				}
			}
		}
	}

	return changes
}

// diffAnnotations emits annotation_added/annotation_removed records by
// symmetric difference of annotation type names, sorted lexicographically.
// annotation_modified is never produced (§9 open question 3).
func diffAnnotations(className string, memberName *string, oldNames, newNames []string) []ChangeRecord {
	oldSet := toSet(oldNames)
	newSet := toSet(newNames)
	var changes []ChangeRecord
	for _, name := range sortedUnion(oldNames, newNames) {
		_, inOld := oldSet[name]
		_, inNew := newSet[name]
		switch {
		case inOld && !inNew:
			changes = append(changes, annotationChange(AnnotationRemoved, className, memberName, name, "Annotation removed"))
		case !inOld && inNew:
			changes = append(changes, annotationChange(AnnotationAdded, className, memberName, name, "Annotation added"))
		}
	}
	return changes
}

func annotationChange(kind ChangeKind, className string, memberName *string, annotationName, description string) ChangeRecord {
	rec := ChangeRecord{
		Kind:        kind,
		ClassName:   className,
		MemberName:  memberName,
		Description: description + ": " + annotationName,
	}
	impact, reasons := classifyMemberChange(kind)
	rec.CompatibilityImpact = impact
	rec.Reasons = reasons
	return rec
}

// classify assigns the compatibility impact and reasons to a
// freshly-constructed change record, dispatching to the Compatibility
// Classifier (classify.go) by change kind.
func classify(rec ChangeRecord) ChangeRecord {
	switch rec.Kind {
	case ClassAdded, ClassRemoved:
		rec.CompatibilityImpact, rec.Reasons = classifyClassChange(rec.Kind)
	case MethodAccessChanged, FieldAccessChanged:
		oldVis := visibilityFromKeyword(*rec.OldSignature)
		newVis := visibilityFromKeyword(*rec.NewSignature)
		rec.CompatibilityImpact, rec.Reasons = classifyAccessChange(oldVis, newVis)
	default:
		rec.CompatibilityImpact, rec.Reasons = classifyMemberChange(rec.Kind)
	}
	return rec
}

func visibilityFromKeyword(keyword string) Visibility {
	switch keyword {
	case "public":
		return VisibilityPublic
	case "protected":
		return VisibilityProtected
	case "private":
		return VisibilityPrivate
	default:
		return VisibilityPackagePrivate
	}
}

func classSignature(c ClassSummary) string {
	super := c.Super
	if super == "" {
		super = "java.lang.Object"
	}
	return c.Name + " extends " + super
}

func methodSignature(m MethodSummary) string {
	return visibilityOf(m.AccessFlags).String() + " " + m.Name + m.Descriptor
}

func fieldSignature(f FieldSummary) string {
	return visibilityOf(f.AccessFlags).String() + " " + f.Descriptor + " " + f.Name
}

func toSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return set
}

// sortedUnion returns the ascending-sorted deduplicated union of a and b.
func sortedUnion(a, b []string) []string {
	set := make(map[string]struct{}, len(a)+len(b))
	for _, s := range a {
		set[s] = struct{}{}
	}
	for _, s := range b {
		set[s] = struct{}{}
	}
	out := make([]string, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
