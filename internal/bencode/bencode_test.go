// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package bencode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	d := NewEmptyDict()
	d.Set("name", NewString("foo.txt"))
	d.Set("length", NewInt(1024))
	d.Set("list", NewList([]Value{NewInt(1), NewString("two")}))

	encoded := Encode(NewDict(d))

	decoded, err := Decode(encoded)
	require.NoError(t, err)
	require.Equal(t, KindDict, decoded.Kind)
	assert.True(t, decoded.Dict.Equal(d))
}

func TestEncodeSortsKeysLexicographically(t *testing.T) {
	d := NewEmptyDict()
	d.Set("zeta", NewInt(1))
	d.Set("alpha", NewInt(2))

	got := string(Encode(NewDict(d)))
	assert.Equal(t, "d5:alphai2e4:zetai1ee", got)
}

func TestDecodeInvalidInput(t *testing.T) {
	_, err := Decode([]byte("garbage"))
	assert.Error(t, err)
}

func TestDictSetPreservesInsertionOrderUntilEncode(t *testing.T) {
	d := NewEmptyDict()
	d.Set("b", NewInt(1))
	d.Set("a", NewInt(2))
	assert.Equal(t, []string{"b", "a"}, d.Keys())
}

func TestDictDeleteRemovesKey(t *testing.T) {
	d := NewEmptyDict()
	d.Set("a", NewInt(1))
	d.Delete("a")
	_, ok := d.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 0, d.Len())
}

func TestCloneIsIndependent(t *testing.T) {
	d := NewEmptyDict()
	d.Set("name", NewBytes([]byte("original")))

	clone := d.Clone()
	clone.Set("name", NewBytes([]byte("mutated")))

	orig, _ := d.Get("name")
	assert.Equal(t, "original", string(orig.Bytes))
}
