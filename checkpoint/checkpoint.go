// Package checkpoint keeps an append-only, binary-searchable history of
// decay segments per entity. The voting-escrow ledger uses it for user and
// total voting power, the emissions controller for per-pool vote weight.
package checkpoint

import (
	"encoding/binary"

	"cosmossdk.io/math"

	"github.com/helixswap/governance/cw"
	"github.com/helixswap/governance/state"
)

// Unbounded marks a segment with no expiry.
const Unbounded uint64 = 0

// Point is one persisted decay segment: power at Start decreasing by Slope
// each period, expiring at End (0 for unbounded). Points are appended, never
// mutated.
type Point struct {
	Power math.Uint `json:"power"`
	Slope math.Uint `json:"slope"`
	Start uint64    `json:"start"`
	End   uint64    `json:"end,omitempty"`
}

// PowerAt extrapolates the segment to the given period, clamped at zero.
// Asking past the stored point never returns the stale power verbatim.
func (p Point) PowerAt(period uint64) math.Uint {
	if period < p.Start {
		return p.Power
	}
	if p.End != Unbounded && period >= p.End {
		return math.ZeroUint()
	}
	decay := p.Slope.MulUint64(period - p.Start)
	if decay.GTE(p.Power) {
		return math.ZeroUint()
	}
	return p.Power.Sub(decay)
}

// History is one namespaced checkpoint series keyed by (entity, period).
type History struct {
	points state.Map[Point]
}

func NewHistory(ns string) History {
	return History{points: state.NewMap[Point](ns)}
}

func entityKey(entity string, period uint64) []byte {
	key := make([]byte, 0, 2+len(entity)+8)
	key = append(key, byte(len(entity)>>8), byte(len(entity)))
	key = append(key, entity...)
	return append(key, state.U64Key(period)...)
}

// Save appends (or overwrites within the same period) the entity's point.
func (h History) Save(store cw.Storage, entity string, period uint64, point Point) error {
	return h.points.Save(store, entityKey(entity, period), point)
}

// LoadAtOrBefore returns the latest point recorded at or before the period,
// located by a descending range over the ordered key space. ok is false when
// the entity has no history that early; callers treat that as zero power.
func (h History) LoadAtOrBefore(store cw.Storage, entity string, period uint64) (Point, bool, error) {
	start := entityKey(entity, 0)
	// end bound is exclusive, so bump the target period by one.
	end := entityKey(entity, period+1)
	var (
		found Point
		ok    bool
	)
	err := h.points.Range(store, start, end, cw.Descending, func(_ []byte, p Point) (bool, error) {
		found, ok = p, true
		return false, nil
	})
	return found, ok, err
}

// PowerAt is the common read path: locate the governing segment and
// extrapolate it to the period.
func (h History) PowerAt(store cw.Storage, entity string, period uint64) (math.Uint, error) {
	point, ok, err := h.LoadAtOrBefore(store, entity, period)
	if err != nil || !ok {
		return math.ZeroUint(), err
	}
	return point.PowerAt(period), nil
}

// LastPeriod returns the period of the entity's newest point.
func (h History) LastPeriod(store cw.Storage, entity string) (uint64, bool, error) {
	var (
		last uint64
		ok   bool
	)
	start := entityKey(entity, 0)
	end := entityKey(entity, ^uint64(0))
	err := h.points.Range(store, start, end, cw.Descending, func(key []byte, _ Point) (bool, error) {
		last = binary.BigEndian.Uint64(key[len(key)-8:])
		ok = true
		return false, nil
	})
	return last, ok, err
}
