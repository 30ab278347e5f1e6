// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package loader

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bichhawat/ifc4bc-sub000/bytecode"
)

func TestSaveOpenRoundTrip(t *testing.T) {
	b := bytecode.NewBuilder("https://example.test/a.js")
	b.Constant("hello")
	b.Emit(bytecode.OpAdd, 2, 0, 1)
	b.Emit(bytecode.OpEnd, 2)
	co := b.Build()

	path := filepath.Join(t.TempDir(), "table.gob")
	require.NoError(t, Save(path, []*bytecode.CodeObject{co}))

	tbl, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { tbl.Close() })

	require.Len(t, tbl.Objects, 1)
	got := tbl.Objects[0]
	assert.Equal(t, co.ID, got.ID)
	assert.Equal(t, co.SourceURL, got.SourceURL)
	assert.Equal(t, co.Instructions, got.Instructions)
	assert.Equal(t, []any{"hello"}, got.Constants)

	found, ok := tbl.ByID(co.ID)
	assert.True(t, ok)
	assert.Same(t, got, found)
}

func TestByIDMissing(t *testing.T) {
	b := bytecode.NewBuilder("https://example.test/a.js")
	b.Emit(bytecode.OpEnd, 0)
	co := b.Build()

	path := filepath.Join(t.TempDir(), "table.gob")
	require.NoError(t, Save(path, []*bytecode.CodeObject{co}))

	tbl, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { tbl.Close() })

	_, ok := tbl.ByID("does-not-exist")
	assert.False(t, ok)
}
