// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package jardiff

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// cursor wraps a class-file byte payload with position tracking, in the
// same shape as the teacher's classFileReader (pkg/diffr/jar.go): small
// bounds-checked primitives rather than a general-purpose binary decoder,
// since the class-file layout is read strictly in order and never
// backtracks except when an attribute's declared length lets us skip it
// wholesale.
type cursor struct {
	data []byte
	pos  int
}

func newCursor(data []byte) *cursor { return &cursor{data: data} }

func (c *cursor) u1() (uint8, error) {
	if c.pos+1 > len(c.data) {
		return 0, errors.New("read beyond end of class file")
	}
	v := c.data[c.pos]
	c.pos++
	return v, nil
}

func (c *cursor) u2() (uint16, error) {
	if c.pos+2 > len(c.data) {
		return 0, errors.New("read beyond end of class file")
	}
	v := binary.BigEndian.Uint16(c.data[c.pos : c.pos+2])
	c.pos += 2
	return v, nil
}

func (c *cursor) u4() (uint32, error) {
	if c.pos+4 > len(c.data) {
		return 0, errors.New("read beyond end of class file")
	}
	v := binary.BigEndian.Uint32(c.data[c.pos : c.pos+4])
	c.pos += 4
	return v, nil
}

func (c *cursor) skip(n int) error {
	if n < 0 || c.pos+n > len(c.data) {
		return errors.New("skip beyond end of class file")
	}
	c.pos += n
	return nil
}

func (c *cursor) bytes(n int) ([]byte, error) {
	if n < 0 || c.pos+n > len(c.data) {
		return nil, errors.New("read beyond end of class file")
	}
	v := c.data[c.pos : c.pos+n]
	c.pos += n
	return v, nil
}
