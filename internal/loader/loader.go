// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package loader is a read-only, mmap-backed code-object table loader.
// Compiling source text into a bytecode.CodeObject is out of scope (§1:
// "The core is not a... compiler"); loader only deserializes what a prior
// compile step already wrote out, the same division of labor wagon draws
// between its own mmap-backed module loading and its separate wast/
// text-format compiler.
package loader

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"os"

	"github.com/edsrzf/mmap-go"

	"github.com/bichhawat/ifc4bc-sub000/bytecode"
)

func init() {
	// Constants carries dynamic values (§3 "Code object": an any-typed
	// constant pool); gob needs every concrete type it might see
	// registered up front since Constants is typed []any on the wire.
	gob.Register(int(0))
	gob.Register(int32(0))
	gob.Register(int64(0))
	gob.Register(float64(0))
	gob.Register(string(""))
	gob.Register(bool(false))
	gob.Register(rune(0))
}

// Table is a read-only view over a mmapped code-object table file: the
// backing pages stay mapped for the table's lifetime, and Close unmaps
// them. Objects is decoded once at Open time, since bytecode.CodeObject's
// variable-length slices can't be addressed directly off the mapping the
// way wagon's fixed-layout WASM sections can.
type Table struct {
	mapping mmap.MMap
	file    *os.File

	Objects []*bytecode.CodeObject
}

// Open mmaps path read-only and gob-decodes its contents into a table of
// code objects.
func Open(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("loader: open %s: %w", path, err)
	}

	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("loader: mmap %s: %w", path, err)
	}

	var objs []*bytecode.CodeObject
	if err := gob.NewDecoder(bytes.NewReader(m)).Decode(&objs); err != nil {
		m.Unmap()
		f.Close()
		return nil, fmt.Errorf("loader: decode %s: %w", path, err)
	}

	return &Table{mapping: m, file: f, Objects: objs}, nil
}

// Close unmaps the table's backing file and closes the file handle.
func (t *Table) Close() error {
	if t.mapping == nil {
		return nil
	}
	if err := t.mapping.Unmap(); err != nil {
		t.file.Close()
		return fmt.Errorf("loader: unmap: %w", err)
	}
	return t.file.Close()
}

// ByID returns the code object with the given ID, or false if the table
// has none.
func (t *Table) ByID(id string) (*bytecode.CodeObject, bool) {
	for _, co := range t.Objects {
		if co.ID == id {
			return co, true
		}
	}
	return nil, false
}

// Save gob-encodes objs to path, the inverse of Open. It exists for writing
// tables for ifcrun/ifcdump and for tests — producing
// a table from freshly-compiled code objects is the external compiler's
// job (§1), not this package's.
func Save(path string, objs []*bytecode.CodeObject) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(objs); err != nil {
		return fmt.Errorf("loader: encode: %w", err)
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}
