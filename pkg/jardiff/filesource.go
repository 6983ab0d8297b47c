// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package jardiff

import "os"

// FileArchiveSource adapts an *os.File to ArchiveSource, the shape
// cmd/jarcompare opens command-line archive arguments into.
type FileArchiveSource struct {
	f    *os.File
	name string
	size int64
}

// NewFileArchiveSource stats and wraps an already-open file. The
// caller remains responsible for closing f once the comparison
// completes.
func NewFileArchiveSource(f *os.File) (FileArchiveSource, error) {
	info, err := f.Stat()
	if err != nil {
		return FileArchiveSource{}, err
	}
	return FileArchiveSource{f: f, name: f.Name(), size: info.Size()}, nil
}

func (s FileArchiveSource) ReadAt(p []byte, off int64) (int, error) { return s.f.ReadAt(p, off) }
func (s FileArchiveSource) Size() int64                             { return s.size }
func (s FileArchiveSource) Name() string                            { return s.name }
