package state

import (
	"encoding/json"
	"fmt"

	"github.com/helixswap/governance/cw"
)

// Item stores a single JSON-encoded value under a fixed key.
type Item[T any] struct {
	key []byte
}

func NewItem[T any](ns string) Item[T] {
	return Item[T]{key: prefixed([]byte(ns), nil)}
}

func (i Item[T]) Save(store cw.Storage, value T) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	store.Set(i.key, raw)
	return nil
}

func (i Item[T]) Load(store cw.Storage) (T, error) {
	var value T
	raw := store.Get(i.key)
	if raw == nil {
		return value, fmt.Errorf("state: item not found")
	}
	return value, json.Unmarshal(raw, &value)
}

// May returns (zero, false, nil) when the item has never been saved.
func (i Item[T]) May(store cw.Storage) (T, bool, error) {
	var value T
	raw := store.Get(i.key)
	if raw == nil {
		return value, false, nil
	}
	if err := json.Unmarshal(raw, &value); err != nil {
		return value, false, err
	}
	return value, true, nil
}

func (i Item[T]) Exists(store cw.Storage) bool {
	return store.Get(i.key) != nil
}

func (i Item[T]) Remove(store cw.Storage) {
	store.Remove(i.key)
}
