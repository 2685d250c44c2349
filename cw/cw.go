// Package cw models the host-side surface a CosmWasm-style contract engine
// sees: the key-value storage abstraction, the execution environment, and the
// querier boundary between contracts. Engines never share state directly;
// everything crosses this surface.
package cw

import (
	"time"

	sdktypes "github.com/cosmos/cosmos-sdk/types"
)

// Order controls iteration direction over a storage range.
type Order int

const (
	Ascending Order = iota
	Descending
)

// Iterator walks a byte-ordered key range. Callers must Close it.
type Iterator interface {
	Valid() bool
	Next()
	Key() []byte
	Value() []byte
	Close()
}

// Storage is the persistent key-value store supplied by the host. Keys are
// ordered bytewise; Range with a nil start/end is unbounded on that side, and
// end is exclusive.
type Storage interface {
	Get(key []byte) []byte
	Set(key, value []byte)
	Remove(key []byte)
	Range(start, end []byte, order Order) Iterator
}

// Querier lets one contract read another through the host, never through its
// storage.
type Querier interface {
	QuerySmart(contractAddr string, req []byte) ([]byte, error)
}

// Deps carries everything an entry point may touch. It is passed explicitly
// into every call; there is no ambient contract state.
type Deps struct {
	Storage Storage
	Querier Querier
}

// Env describes the block the current message executes in.
type Env struct {
	BlockHeight uint64
	BlockTime   time.Time
	Contract    string
}

// MessageInfo identifies the sender of an execute message and any funds it
// attached.
type MessageInfo struct {
	Sender string
	Funds  sdktypes.Coins
}
