package state_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixswap/governance/cw"
	"github.com/helixswap/governance/state"
)

func TestMemoryRangeOrderAndBounds(t *testing.T) {
	store := state.NewMemory()
	for _, k := range []string{"b", "a", "d", "c"} {
		store.Set([]byte(k), []byte("v"+k))
	}

	collect := func(start, end []byte, order cw.Order) []string {
		var keys []string
		it := store.Range(start, end, order)
		defer it.Close()
		for ; it.Valid(); it.Next() {
			keys = append(keys, string(it.Key()))
		}
		return keys
	}

	assert.Equal(t, []string{"a", "b", "c", "d"}, collect(nil, nil, cw.Ascending))
	assert.Equal(t, []string{"d", "c", "b", "a"}, collect(nil, nil, cw.Descending))
	// end bound is exclusive
	assert.Equal(t, []string{"b", "c"}, collect([]byte("b"), []byte("d"), cw.Ascending))
	assert.Equal(t, []string{"c", "b"}, collect([]byte("b"), []byte("d"), cw.Descending))
}

func TestMemoryMutateDuringIteration(t *testing.T) {
	store := state.NewMemory()
	store.Set([]byte("a"), []byte("1"))
	store.Set([]byte("b"), []byte("2"))
	store.Set([]byte("c"), []byte("3"))

	var seen []string
	it := store.Range(nil, nil, cw.Ascending)
	for ; it.Valid(); it.Next() {
		seen = append(seen, string(it.Key()))
		store.Remove([]byte("c"))
	}
	it.Close()

	// the snapshot taken at Range time is not disturbed by the removal
	assert.Equal(t, []string{"a", "b", "c"}, seen)
	assert.Nil(t, store.Get([]byte("c")))
}

func TestMemoryClone(t *testing.T) {
	store := state.NewMemory()
	store.Set([]byte("k"), []byte("before"))

	snap := store.Clone()
	store.Set([]byte("k"), []byte("after"))
	store.Set([]byte("extra"), []byte("x"))

	assert.Equal(t, []byte("before"), snap.Get([]byte("k")))
	assert.Nil(t, snap.Get([]byte("extra")))
	assert.Equal(t, []byte("after"), store.Get([]byte("k")))
}

func TestMapNamespacesDoNotCollide(t *testing.T) {
	store := state.NewMemory()
	first := state.NewMap[string]("locks")
	second := state.NewMap[string]("locks2")

	require.NoError(t, first.Save(store, []byte("alice"), "one"))
	require.NoError(t, second.Save(store, []byte("alice"), "two"))

	got, err := first.Load(store, []byte("alice"))
	require.NoError(t, err)
	assert.Equal(t, "one", got)

	got, err = second.Load(store, []byte("alice"))
	require.NoError(t, err)
	assert.Equal(t, "two", got)

	keys, err := first.Keys(store)
	require.NoError(t, err)
	assert.Equal(t, [][]byte{[]byte("alice")}, keys)
}

func TestMapMayAndRemove(t *testing.T) {
	store := state.NewMemory()
	m := state.NewMap[int]("counts")

	_, ok, err := m.May(store, []byte("missing"))
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, m.Save(store, []byte("k"), 7))
	assert.True(t, m.Has(store, []byte("k")))

	got, ok, err := m.May(store, []byte("k"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 7, got)

	m.Remove(store, []byte("k"))
	assert.False(t, m.Has(store, []byte("k")))
	_, err = m.Load(store, []byte("k"))
	assert.Error(t, err)
}

func TestMapRangeUnprefixedKeys(t *testing.T) {
	store := state.NewMemory()
	m := state.NewMap[int]("votes")
	require.NoError(t, m.Save(store, []byte("a"), 1))
	require.NoError(t, m.Save(store, []byte("b"), 2))
	require.NoError(t, m.Save(store, []byte("c"), 3))

	var keys []string
	err := m.Range(store, []byte("a"), []byte("c"), cw.Ascending, func(key []byte, v int) (bool, error) {
		keys = append(keys, string(key))
		return true, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, keys)
}

func TestItemRoundTrip(t *testing.T) {
	store := state.NewMemory()
	type config struct {
		Owner string `json:"owner"`
	}
	item := state.NewItem[config]("config")

	_, ok, err := item.May(store)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, item.Exists(store))

	require.NoError(t, item.Save(store, config{Owner: "helix1owner"}))
	got, err := item.Load(store)
	require.NoError(t, err)
	assert.Equal(t, "helix1owner", got.Owner)

	item.Remove(store)
	assert.False(t, item.Exists(store))
}

func TestU64KeyOrdering(t *testing.T) {
	assert.Equal(t, uint64(300), state.ParseU64Key(state.U64Key(300)))

	// big-endian keys sort numerically
	store := state.NewMemory()
	for _, p := range []uint64{9, 256, 10, 1 << 33} {
		store.Set(state.U64Key(p), []byte{1})
	}
	var got []uint64
	it := store.Range(nil, nil, cw.Ascending)
	for ; it.Valid(); it.Next() {
		got = append(got, state.ParseU64Key(it.Key()))
	}
	it.Close()
	assert.Equal(t, []uint64{9, 10, 256, 1 << 33}, got)
}
