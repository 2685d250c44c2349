package escrow

import (
	"errors"
	"fmt"

	"github.com/helixswap/governance/period"
)

var (
	ErrUnauthorized      = errors.New("unauthorized")
	ErrLockAlreadyExists = errors.New("lock already exists, either extend it or withdraw it")
	ErrLockNotFound      = errors.New("lock does not exist")
	ErrLockExpired       = errors.New("lock period is over, withdraw and create a new lock")
	ErrNotUnlocking      = errors.New("lock is not in the unlocking state")
	ErrAlreadyUnlocking  = errors.New("lock is already unlocking")
	ErrBlacklisted       = errors.New("voter is blacklisted")
	ErrNoFunds           = errors.New("a single native deposit is required")
	ErrLockTime          = fmt.Errorf(
		"lock time must be within %d and %d periods",
		period.MinLockPeriods, period.MaxLockPeriods,
	)
)

// ErrUnlockPending distinguishes "retry later" from "never valid".
func ErrUnlockPending(unlocksAt uint64) error {
	return fmt.Errorf("unlock period has not expired, withdraw available at %d", unlocksAt)
}
