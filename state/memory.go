// Package state provides the deterministic storage primitives the contract
// engines persist through: an in-memory byte-ordered store for tests and the
// in-process simulator, plus typed Item/Map helpers over cw.Storage.
package state

import (
	"bytes"

	"github.com/google/btree"

	"github.com/helixswap/governance/cw"
)

type kvPair struct {
	key   []byte
	value []byte
}

func pairLess(a, b kvPair) bool {
	return bytes.Compare(a.key, b.key) < 0
}

// Memory is a byte-ordered in-memory store implementing cw.Storage.
type Memory struct {
	tree *btree.BTreeG[kvPair]
}

var _ cw.Storage = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{tree: btree.NewG(2, pairLess)}
}

// Clone takes a copy-on-write snapshot. The simulator uses it to revert a
// failed transaction.
func (m *Memory) Clone() *Memory {
	return &Memory{tree: m.tree.Clone()}
}

func (m *Memory) Get(key []byte) []byte {
	item, ok := m.tree.Get(kvPair{key: key})
	if !ok {
		return nil
	}
	return append([]byte(nil), item.value...)
}

func (m *Memory) Set(key, value []byte) {
	m.tree.ReplaceOrInsert(kvPair{
		key:   append([]byte(nil), key...),
		value: append([]byte(nil), value...),
	})
}

func (m *Memory) Remove(key []byte) {
	m.tree.Delete(kvPair{key: key})
}

// Range snapshots the matching pairs up front so callers may mutate the store
// while iterating, which engine code does when pruning history.
func (m *Memory) Range(start, end []byte, order cw.Order) cw.Iterator {
	var pairs []kvPair
	collect := func(item kvPair) bool {
		if end != nil && bytes.Compare(item.key, end) >= 0 {
			return false
		}
		pairs = append(pairs, item)
		return true
	}
	if start == nil {
		m.tree.Ascend(collect)
	} else {
		m.tree.AscendGreaterOrEqual(kvPair{key: start}, collect)
	}
	if order == cw.Descending {
		for i, j := 0, len(pairs)-1; i < j; i, j = i+1, j-1 {
			pairs[i], pairs[j] = pairs[j], pairs[i]
		}
	}
	return &memIterator{pairs: pairs}
}

type memIterator struct {
	pairs []kvPair
	pos   int
}

func (it *memIterator) Valid() bool   { return it.pos < len(it.pairs) }
func (it *memIterator) Next()         { it.pos++ }
func (it *memIterator) Key() []byte   { return it.pairs[it.pos].key }
func (it *memIterator) Value() []byte { return it.pairs[it.pos].value }
func (it *memIterator) Close()        {}
