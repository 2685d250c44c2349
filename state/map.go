package state

import (
	"encoding/json"
	"fmt"

	"github.com/helixswap/governance/cw"
)

// Map stores JSON-encoded values under a namespaced byte key.
type Map[T any] struct {
	ns []byte
}

func NewMap[T any](ns string) Map[T] {
	return Map[T]{ns: []byte(ns)}
}

func (m Map[T]) fullKey(key []byte) []byte {
	return prefixed(m.ns, key)
}

func (m Map[T]) Save(store cw.Storage, key []byte, value T) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	store.Set(m.fullKey(key), raw)
	return nil
}

func (m Map[T]) Load(store cw.Storage, key []byte) (T, error) {
	var value T
	raw := store.Get(m.fullKey(key))
	if raw == nil {
		return value, fmt.Errorf("state: key %q not found", string(key))
	}
	return value, json.Unmarshal(raw, &value)
}

// May returns (zero, false, nil) when the key is absent.
func (m Map[T]) May(store cw.Storage, key []byte) (T, bool, error) {
	var value T
	raw := store.Get(m.fullKey(key))
	if raw == nil {
		return value, false, nil
	}
	if err := json.Unmarshal(raw, &value); err != nil {
		return value, false, err
	}
	return value, true, nil
}

func (m Map[T]) Has(store cw.Storage, key []byte) bool {
	return store.Get(m.fullKey(key)) != nil
}

func (m Map[T]) Remove(store cw.Storage, key []byte) {
	store.Remove(m.fullKey(key))
}

// Range visits entries within [start, end) of the un-namespaced key space.
// Nil bounds are unbounded. The callback returns true to continue.
func (m Map[T]) Range(store cw.Storage, start, end []byte, order cw.Order, fn func(key []byte, value T) (bool, error)) error {
	lo := m.fullKey(nil)
	hi := prefixEnd(lo)
	if start != nil {
		lo = m.fullKey(start)
	}
	if end != nil {
		hi = m.fullKey(end)
	}
	it := store.Range(lo, hi, order)
	defer it.Close()
	skip := len(prefixed(m.ns, nil))
	for ; it.Valid(); it.Next() {
		var value T
		if err := json.Unmarshal(it.Value(), &value); err != nil {
			return err
		}
		cont, err := fn(it.Key()[skip:], value)
		if err != nil {
			return err
		}
		if !cont {
			return nil
		}
	}
	return nil
}

// Keys collects every un-namespaced key in ascending order.
func (m Map[T]) Keys(store cw.Storage) ([][]byte, error) {
	var keys [][]byte
	err := m.Range(store, nil, nil, cw.Ascending, func(key []byte, _ T) (bool, error) {
		keys = append(keys, append([]byte(nil), key...))
		return true, nil
	})
	return keys, err
}
