// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package bencode implements the BEP-3 bencoding grammar over an
// order-preserving, byte-keyed dictionary value, plus the torrent-specific
// helpers (infohash, source-flag mutation, origin identification) built on
// top of it.
package bencode

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
)

// Kind identifies which alternative of Value is populated.
type Kind int

const (
	KindBytes Kind = iota
	KindInt
	KindList
	KindDict
)

// Value is a tagged variant over the four bencode types.
type Value struct {
	Kind  Kind
	Bytes []byte
	Int   int64
	List  []Value
	Dict  *Dict
}

func NewBytes(b []byte) Value { return Value{Kind: KindBytes, Bytes: b} }
func NewString(s string) Value { return Value{Kind: KindBytes, Bytes: []byte(s)} }
func NewInt(i int64) Value     { return Value{Kind: KindInt, Int: i} }
func NewList(l []Value) Value  { return Value{Kind: KindList, List: l} }
func NewDict(d *Dict) Value    { return Value{Kind: KindDict, Dict: d} }

// IsZero reports whether v was never assigned.
func (v Value) IsZero() bool {
	return v.Kind == KindBytes && v.Bytes == nil && v.Int == 0 && v.List == nil && v.Dict == nil
}

// Clone returns a deep copy of v so callers may mutate it without aliasing
// the original's backing slices or maps.
func (v Value) Clone() Value {
	switch v.Kind {
	case KindBytes:
		cp := make([]byte, len(v.Bytes))
		copy(cp, v.Bytes)
		return Value{Kind: KindBytes, Bytes: cp}
	case KindInt:
		return Value{Kind: KindInt, Int: v.Int}
	case KindList:
		cp := make([]Value, len(v.List))
		for i, item := range v.List {
			cp[i] = item.Clone()
		}
		return Value{Kind: KindList, List: cp}
	case KindDict:
		return Value{Kind: KindDict, Dict: v.Dict.Clone()}
	default:
		return Value{}
	}
}

// Dict is an insertion-ordered mapping of byte-string keys to Values.
// Order is preserved purely so that decode(encode(x)) == x holds as a value
// comparison; Encode always re-sorts keys byte-lexicographically, which is
// what makes infohash computation canonical and reproducible.
type Dict struct {
	keys []string
	vals map[string]Value
}

func NewEmptyDict() *Dict {
	return &Dict{vals: make(map[string]Value)}
}

// Get returns the value stored under key and whether it was present.
func (d *Dict) Get(key string) (Value, bool) {
	if d == nil {
		return Value{}, false
	}
	v, ok := d.vals[key]
	return v, ok
}

// Set inserts or overwrites key, appending it to the insertion order the
// first time it is seen.
func (d *Dict) Set(key string, v Value) {
	if _, exists := d.vals[key]; !exists {
		d.keys = append(d.keys, key)
	}
	d.vals[key] = v
}

// Delete removes key, if present.
func (d *Dict) Delete(key string) {
	if _, exists := d.vals[key]; !exists {
		return
	}
	delete(d.vals, key)
	for i, k := range d.keys {
		if k == key {
			d.keys = append(d.keys[:i], d.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the keys in insertion order.
func (d *Dict) Keys() []string {
	out := make([]string, len(d.keys))
	copy(out, d.keys)
	return out
}

// Len reports the number of entries.
func (d *Dict) Len() int {
	if d == nil {
		return 0
	}
	return len(d.keys)
}

// Clone performs a deep copy, including nested dicts/lists.
func (d *Dict) Clone() *Dict {
	if d == nil {
		return nil
	}
	cp := &Dict{
		keys: append([]string(nil), d.keys...),
		vals: make(map[string]Value, len(d.vals)),
	}
	for k, v := range d.vals {
		cp.vals[k] = v.Clone()
	}
	return cp
}

// Equal compares two dicts by key/value contents, ignoring insertion order.
func (d *Dict) Equal(other *Dict) bool {
	if d == nil || other == nil {
		return d == other
	}
	if len(d.vals) != len(other.vals) {
		return false
	}
	for k, v := range d.vals {
		ov, ok := other.vals[k]
		if !ok || !valuesEqual(v, ov) {
			return false
		}
	}
	return true
}

func valuesEqual(a, b Value) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindBytes:
		return bytes.Equal(a.Bytes, b.Bytes)
	case KindInt:
		return a.Int == b.Int
	case KindList:
		if len(a.List) != len(b.List) {
			return false
		}
		for i := range a.List {
			if !valuesEqual(a.List[i], b.List[i]) {
				return false
			}
		}
		return true
	case KindDict:
		return a.Dict.Equal(b.Dict)
	default:
		return false
	}
}

// Decode parses a single bencoded value from data. Trailing bytes beyond the
// first complete value are ignored, matching common bencode decoders'
// tolerance of torrent-file padding.
func Decode(data []byte) (Value, error) {
	v, _, err := decodeValue(data, 0)
	return v, err
}

func decodeValue(data []byte, pos int) (Value, int, error) {
	if pos >= len(data) {
		return Value{}, pos, fmt.Errorf("bencode: unexpected end of data at %d", pos)
	}
	switch {
	case data[pos] == 'i':
		return decodeInt(data, pos)
	case data[pos] == 'l':
		return decodeList(data, pos)
	case data[pos] == 'd':
		return decodeDict(data, pos)
	case data[pos] >= '0' && data[pos] <= '9':
		return decodeBytes(data, pos)
	default:
		return Value{}, pos, fmt.Errorf("bencode: invalid token %q at %d", data[pos], pos)
	}
}

func decodeInt(data []byte, pos int) (Value, int, error) {
	pos++ // skip 'i'
	end := bytes.IndexByte(data[pos:], 'e')
	if end == -1 {
		return Value{}, pos, fmt.Errorf("bencode: unterminated integer at %d", pos)
	}
	end += pos
	n, err := strconv.ParseInt(string(data[pos:end]), 10, 64)
	if err != nil {
		return Value{}, pos, fmt.Errorf("bencode: invalid integer at %d: %w", pos, err)
	}
	return Value{Kind: KindInt, Int: n}, end + 1, nil
}

func decodeBytes(data []byte, pos int) (Value, int, error) {
	colon := bytes.IndexByte(data[pos:], ':')
	if colon == -1 {
		return Value{}, pos, fmt.Errorf("bencode: invalid byte string at %d: no colon", pos)
	}
	colon += pos
	length, err := strconv.Atoi(string(data[pos:colon]))
	if err != nil || length < 0 {
		return Value{}, pos, fmt.Errorf("bencode: invalid byte string length at %d", pos)
	}
	start := colon + 1
	end := start + length
	if end > len(data) {
		return Value{}, pos, fmt.Errorf("bencode: byte string length exceeds data at %d", pos)
	}
	b := make([]byte, length)
	copy(b, data[start:end])
	return Value{Kind: KindBytes, Bytes: b}, end, nil
}

func decodeList(data []byte, pos int) (Value, int, error) {
	pos++ // skip 'l'
	var items []Value
	for pos < len(data) && data[pos] != 'e' {
		item, newPos, err := decodeValue(data, pos)
		if err != nil {
			return Value{}, pos, err
		}
		items = append(items, item)
		pos = newPos
	}
	if pos >= len(data) {
		return Value{}, pos, fmt.Errorf("bencode: unterminated list")
	}
	return Value{Kind: KindList, List: items}, pos + 1, nil
}

func decodeDict(data []byte, pos int) (Value, int, error) {
	pos++ // skip 'd'
	d := NewEmptyDict()
	for pos < len(data) && data[pos] != 'e' {
		keyVal, newPos, err := decodeBytes(data, pos)
		if err != nil {
			return Value{}, pos, fmt.Errorf("bencode: invalid dict key: %w", err)
		}
		pos = newPos
		val, newPos, err := decodeValue(data, pos)
		if err != nil {
			return Value{}, pos, fmt.Errorf("bencode: invalid dict value for %q: %w", keyVal.Bytes, err)
		}
		d.Set(string(keyVal.Bytes), val)
		pos = newPos
	}
	if pos >= len(data) {
		return Value{}, pos, fmt.Errorf("bencode: unterminated dict")
	}
	return Value{Kind: KindDict, Dict: d}, pos + 1, nil
}

// Encode serializes v into canonical bencoding: dictionary keys are sorted
// lexicographically as raw bytes before writing, which is what makes
// SHA1(Encode(info)) a reproducible infohash.
func Encode(v Value) []byte {
	var buf bytes.Buffer
	encodeValue(&buf, v)
	return buf.Bytes()
}

func encodeValue(buf *bytes.Buffer, v Value) {
	switch v.Kind {
	case KindInt:
		fmt.Fprintf(buf, "i%de", v.Int)
	case KindBytes:
		fmt.Fprintf(buf, "%d:", len(v.Bytes))
		buf.Write(v.Bytes)
	case KindList:
		buf.WriteByte('l')
		for _, item := range v.List {
			encodeValue(buf, item)
		}
		buf.WriteByte('e')
	case KindDict:
		buf.WriteByte('d')
		keys := v.Dict.Keys()
		sort.Strings(keys)
		for _, k := range keys {
			val, _ := v.Dict.Get(k)
			fmt.Fprintf(buf, "%d:%s", len(k), k)
			encodeValue(buf, val)
		}
		buf.WriteByte('e')
	}
}
