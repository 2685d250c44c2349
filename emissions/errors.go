package emissions

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthorized    = errors.New("unauthorized")
	ErrZeroVotingPower = errors.New("zero voting power")
	ErrDuplicatedPools = errors.New("votes contain duplicated pools")
	ErrExceededMaxBPS  = errors.New("basis points sum exceeds 10000")
	ErrNoVotes         = errors.New("votes cannot be empty")
	ErrTuneCooldown    = errors.New("tune already executed in the current epoch")
	ErrNothingToRetry  = errors.New("no failed outposts to retry")
	ErrUnknownChannel  = errors.New("packet received on an unknown channel")
	ErrUnknownOutpost  = func(prefix string) error {
		return fmt.Errorf("outpost %q is not registered", prefix)
	}
)

// ErrUnknownReplyID rejects replies with no pending correlation record.
func ErrUnknownReplyID(id uint64) error {
	return fmt.Errorf("unknown reply id %d", id)
}

// ErrVoteCooldown distinguishes "retry later" from "never valid".
func ErrVoteCooldown(nextVoteAt uint64) error {
	return fmt.Errorf("vote cooldown, next vote available at %d", nextVoteAt)
}

// ErrPoolNotWhitelisted rejects votes for pools outside the whitelist.
func ErrPoolNotWhitelisted(pool string) error {
	return fmt.Errorf("pool %q is not whitelisted", pool)
}
