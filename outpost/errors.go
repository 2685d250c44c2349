package outpost

import "errors"

var (
	ErrUnauthorized    = errors.New("unauthorized")
	ErrZeroVotingPower = errors.New("zero voting power")
	ErrDuplicatedPools = errors.New("votes contain duplicated pools")
	ErrExceededMaxBPS  = errors.New("basis points sum exceeds 10000")
	ErrNoVotes         = errors.New("votes cannot be empty")
	// ErrPendingUser enforces at most one in-flight cross-chain mutation
	// per voter.
	ErrPendingUser  = errors.New("user has a pending cross-chain request, wait for it to settle")
	ErrNoHubChannel = errors.New("hub channel is not configured")
	ErrNoIBCError   = errors.New("user has no recorded ibc error")
)
