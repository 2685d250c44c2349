package escrow

import (
	"cosmossdk.io/math"

	"github.com/helixswap/governance/checkpoint"
	"github.com/helixswap/governance/state"
)

// Config is loaded at the start of every entry point and saved back only when
// an operation changes it.
type Config struct {
	Owner      string `json:"owner"`
	Denom      string `json:"denom"`
	Controller string `json:"controller,omitempty"`
}

// Lock is a user's escrowed position. Amount is frozen once UnlockedAt is
// set; the position is withdrawn or relocked from there.
type Lock struct {
	Amount math.Uint `json:"amount"`
	Start  uint64    `json:"start"`
	End    uint64    `json:"end"`
	Slope  math.Uint `json:"slope"`
	// UnlockedAt is the unix time withdraw becomes available; nil while
	// the position is locked.
	UnlockedAt *uint64 `json:"unlocked_at,omitempty"`
}

// Unlocking reports whether the lock has entered the unlock countdown.
func (l Lock) Unlocking() bool {
	return l.UnlockedAt != nil
}

// ContractVersion is the cw2-style version marker asserted by Migrate.
type ContractVersion struct {
	Contract string `json:"contract"`
	Version  string `json:"version"`
}

const (
	ContractName    = "helix-voting-escrow"
	contractVersion = "1.1.0"

	totalEntity = "total"
)

var (
	configItem   = state.NewItem[Config]("config")
	versionItem  = state.NewItem[ContractVersion]("contract_info")
	locks        = state.NewMap[Lock]("locks")
	blacklist    = state.NewMap[struct{}]("blacklist")
	userHistory  = checkpoint.NewHistory("user_points")
	totalHistory = checkpoint.NewHistory("total_points")
	// slopeChanges aggregates, per expiry period, the decay-rate reduction
	// to apply to the total curve when locks expire.
	slopeChanges = state.NewMap[math.Uint]("slope_changes")
)
