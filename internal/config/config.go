// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

// Package config loads the policy-flag bundle jarcompare reads from a
// YAML file via --config, so scripted callers don't have to repeat the
// same flag set on every invocation.
package config

import (
	"os"

	"github.com/coderush/jardiff/pkg/jardiff"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// PolicyFile is the on-disk shape of a --config document. Its keys are
// the snake_case names given by the struct tags below.
type PolicyFile struct {
	IncludePrivateMembers        bool `yaml:"include_private_members"`
	IncludePackagePrivateClasses bool `yaml:"include_package_private_classes"`
	AnalyzeFieldChanges          bool `yaml:"analyze_field_changes"`
	AnalyzeAnnotations           bool `yaml:"analyze_annotations"`
	DetectBinaryCompatibility    bool `yaml:"detect_binary_compatibility"`
}

// Policy converts the loaded document into a jardiff.Policy.
func (f PolicyFile) Policy() jardiff.Policy {
	return jardiff.Policy{
		IncludePrivateMembers:        f.IncludePrivateMembers,
		IncludePackagePrivateClasses: f.IncludePackagePrivateClasses,
		AnalyzeFieldChanges:          f.AnalyzeFieldChanges,
		AnalyzeAnnotations:           f.AnalyzeAnnotations,
		DetectBinaryCompatibility:    f.DetectBinaryCompatibility,
	}
}

// Load reads and parses a policy YAML file at path.
func Load(path string) (PolicyFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return PolicyFile{}, errors.Wrapf(err, "reading config file %q", path)
	}
	var f PolicyFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return PolicyFile{}, errors.Wrapf(err, "parsing config file %q", path)
	}
	return f, nil
}
