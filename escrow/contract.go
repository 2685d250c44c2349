// Package escrow implements the voting-escrow ledger: users lock the
// protocol token for whole periods and receive voting power that decays
// linearly to zero at the lock end. State machine per user:
//
//	NoLock -> Locked -> Unlocking -> (Withdrawn | Locked)
//
// Slope arithmetic truncates toward zero everywhere; the residual loss is
// bounded by one unit per period and accepted.
package escrow

import (
	"encoding/json"
	"fmt"

	"cosmossdk.io/math"

	"github.com/helixswap/governance/checkpoint"
	"github.com/helixswap/governance/cw"
	"github.com/helixswap/governance/period"
)

func Instantiate(deps cw.Deps, _ cw.Env, _ cw.MessageInfo, msg InstantiateMsg) (*cw.Response, error) {
	if msg.Owner == "" || msg.Denom == "" {
		return nil, fmt.Errorf("owner and denom are required")
	}
	cfg := Config{Owner: msg.Owner, Denom: msg.Denom, Controller: msg.Controller}
	if err := configItem.Save(deps.Storage, cfg); err != nil {
		return nil, err
	}
	if err := versionItem.Save(deps.Storage, ContractVersion{
		Contract: ContractName,
		Version:  contractVersion,
	}); err != nil {
		return nil, err
	}
	return cw.NewResponse().AddAttribute("action", "instantiate"), nil
}

func Execute(deps cw.Deps, env cw.Env, info cw.MessageInfo, msg ExecuteMsg) (*cw.Response, error) {
	cfg, err := configItem.Load(deps.Storage)
	if err != nil {
		return nil, err
	}
	switch {
	case msg.CreateLock != nil:
		return createLock(deps, env, info, cfg, msg.CreateLock.Time)
	case msg.ExtendLockTime != nil:
		return extendLockTime(deps, env, info, cfg, msg.ExtendLockTime.Time)
	case msg.ExtendLockAmount != nil:
		return extendLockAmount(deps, env, info, cfg)
	case msg.Unlock != nil:
		return unlock(deps, env, cfg, info.Sender, false)
	case msg.Withdraw != nil:
		return withdraw(deps, env, cfg, info.Sender)
	case msg.Relock != nil:
		return relock(deps, env, info, cfg, msg.Relock.User)
	case msg.ForceUnlock != nil:
		return forceUnlock(deps, env, info, cfg, msg.ForceUnlock.User)
	case msg.UpdateBlacklist != nil:
		return updateBlacklist(deps, env, info, cfg, msg.UpdateBlacklist)
	case msg.UpdateConfig != nil:
		return updateConfig(deps, info, cfg, msg.UpdateConfig)
	default:
		return nil, fmt.Errorf("unknown execute message")
	}
}

// depositedAmount enforces a single native deposit of the configured denom.
func depositedAmount(cfg Config, info cw.MessageInfo) (math.Uint, error) {
	if len(info.Funds) != 1 || info.Funds[0].Denom != cfg.Denom || info.Funds[0].Amount.IsZero() {
		return math.ZeroUint(), ErrNoFunds
	}
	return math.NewUintFromBigInt(info.Funds[0].Amount.BigInt()), nil
}

func createLock(deps cw.Deps, env cw.Env, info cw.MessageInfo, cfg Config, lockTime uint64) (*cw.Response, error) {
	amount, err := depositedAmount(cfg, info)
	if err != nil {
		return nil, err
	}
	if blacklist.Has(deps.Storage, []byte(info.Sender)) {
		return nil, ErrBlacklisted
	}
	if locks.Has(deps.Storage, []byte(info.Sender)) {
		return nil, ErrLockAlreadyExists
	}
	durationPeriods := lockTime / period.Week
	if durationPeriods < period.MinLockPeriods || durationPeriods > period.MaxLockPeriods {
		return nil, ErrLockTime
	}

	curPeriod := period.FromTime(env.BlockTime)
	end := curPeriod + durationPeriods
	slope := amount.QuoUint64(durationPeriods)
	power := slope.MulUint64(durationPeriods)

	lock := Lock{Amount: amount, Start: curPeriod, End: end, Slope: slope}
	if err = locks.Save(deps.Storage, []byte(info.Sender), lock); err != nil {
		return nil, err
	}
	if err = userHistory.Save(deps.Storage, info.Sender, curPeriod, checkpoint.Point{
		Power: power, Slope: slope, Start: curPeriod, End: end,
	}); err != nil {
		return nil, err
	}
	if err = scheduleSlopeChange(deps.Storage, end, slope); err != nil {
		return nil, err
	}
	if err = checkpointTotal(deps.Storage, curPeriod, power, math.ZeroUint(), math.ZeroUint(), slope); err != nil {
		return nil, err
	}

	return cw.NewResponse().
		AddAttribute("action", "create_lock").
		AddAttribute("user", info.Sender).
		AddAttribute("amount", amount.String()).
		AddAttribute("end", fmt.Sprint(end)), nil
}

// loadActiveLock fetches a lock that is still in the Locked state.
func loadActiveLock(store cw.Storage, user string) (Lock, error) {
	lock, ok, err := locks.May(store, []byte(user))
	if err != nil {
		return lock, err
	}
	if !ok {
		return lock, ErrLockNotFound
	}
	if lock.Unlocking() {
		return lock, ErrAlreadyUnlocking
	}
	return lock, nil
}

// rewriteLock replaces the user's decay segment and fixes up the scheduled
// slope change and the total curve accordingly.
func rewriteLock(deps cw.Deps, curPeriod uint64, user string, lock Lock, newAmount, oldSlope, oldPower math.Uint, newEnd uint64) (Lock, error) {
	remaining := newEnd - curPeriod
	newSlope := newAmount.QuoUint64(remaining)
	newPower := newSlope.MulUint64(remaining)

	if err := cancelSlopeChange(deps.Storage, lock.End, oldSlope); err != nil {
		return lock, err
	}
	if err := scheduleSlopeChange(deps.Storage, newEnd, newSlope); err != nil {
		return lock, err
	}
	if err := userHistory.Save(deps.Storage, user, curPeriod, checkpoint.Point{
		Power: newPower, Slope: newSlope, Start: curPeriod, End: newEnd,
	}); err != nil {
		return lock, err
	}
	if err := checkpointTotal(deps.Storage, curPeriod, newPower, oldPower, oldSlope, newSlope); err != nil {
		return lock, err
	}

	lock.Amount = newAmount
	lock.End = newEnd
	lock.Slope = newSlope
	return lock, nil
}

func extendLockTime(deps cw.Deps, env cw.Env, info cw.MessageInfo, _ Config, extendTime uint64) (*cw.Response, error) {
	lock, err := loadActiveLock(deps.Storage, info.Sender)
	if err != nil {
		return nil, err
	}
	curPeriod := period.FromTime(env.BlockTime)
	if curPeriod >= lock.End {
		return nil, ErrLockExpired
	}
	extendPeriods := extendTime / period.Week
	if extendPeriods == 0 {
		return nil, ErrLockTime
	}
	newEnd := lock.End + extendPeriods
	if newEnd-curPeriod > period.MaxLockPeriods {
		return nil, ErrLockTime
	}

	oldPower, err := userPowerAtPeriod(deps.Storage, info.Sender, curPeriod)
	if err != nil {
		return nil, err
	}
	lock, err = rewriteLock(deps, curPeriod, info.Sender, lock, lock.Amount, lock.Slope, oldPower, newEnd)
	if err != nil {
		return nil, err
	}
	if err = locks.Save(deps.Storage, []byte(info.Sender), lock); err != nil {
		return nil, err
	}

	return cw.NewResponse().
		AddAttribute("action", "extend_lock_time").
		AddAttribute("user", info.Sender).
		AddAttribute("end", fmt.Sprint(newEnd)), nil
}

func extendLockAmount(deps cw.Deps, env cw.Env, info cw.MessageInfo, cfg Config) (*cw.Response, error) {
	amount, err := depositedAmount(cfg, info)
	if err != nil {
		return nil, err
	}
	if blacklist.Has(deps.Storage, []byte(info.Sender)) {
		return nil, ErrBlacklisted
	}
	lock, err := loadActiveLock(deps.Storage, info.Sender)
	if err != nil {
		return nil, err
	}
	curPeriod := period.FromTime(env.BlockTime)
	if curPeriod >= lock.End {
		return nil, ErrLockExpired
	}

	oldPower, err := userPowerAtPeriod(deps.Storage, info.Sender, curPeriod)
	if err != nil {
		return nil, err
	}
	lock, err = rewriteLock(deps, curPeriod, info.Sender, lock, lock.Amount.Add(amount), lock.Slope, oldPower, lock.End)
	if err != nil {
		return nil, err
	}
	if err = locks.Save(deps.Storage, []byte(info.Sender), lock); err != nil {
		return nil, err
	}

	return cw.NewResponse().
		AddAttribute("action", "extend_lock_amount").
		AddAttribute("user", info.Sender).
		AddAttribute("amount", amount.String()), nil
}

// unlock zeroes the user's contribution immediately and starts the withdraw
// countdown. The configured controller is kicked so gauge contributions drop
// at the current period, not at the original vote period.
func unlock(deps cw.Deps, env cw.Env, cfg Config, user string, forced bool) (*cw.Response, error) {
	lock, err := loadActiveLock(deps.Storage, user)
	if err != nil {
		return nil, err
	}
	curPeriod := period.FromTime(env.BlockTime)

	oldPower, err := userPowerAtPeriod(deps.Storage, user, curPeriod)
	if err != nil {
		return nil, err
	}
	activeSlope := lock.Slope
	if curPeriod >= lock.End {
		// contribution already decayed out; nothing left to remove
		activeSlope = math.ZeroUint()
	} else if err = cancelSlopeChange(deps.Storage, lock.End, lock.Slope); err != nil {
		return nil, err
	}
	if err = userHistory.Save(deps.Storage, user, curPeriod, checkpoint.Point{
		Power: math.ZeroUint(), Slope: math.ZeroUint(), Start: curPeriod, End: curPeriod,
	}); err != nil {
		return nil, err
	}
	if err = checkpointTotal(deps.Storage, curPeriod, math.ZeroUint(), oldPower, activeSlope, math.ZeroUint()); err != nil {
		return nil, err
	}

	unlocksAt := uint64(env.BlockTime.Unix()) + period.UnlockPeriods*period.Week
	lock.UnlockedAt = &unlocksAt
	if err = locks.Save(deps.Storage, []byte(user), lock); err != nil {
		return nil, err
	}

	action := "unlock"
	if forced {
		action = "force_unlock"
	}
	resp := cw.NewResponse().
		AddAttribute("action", action).
		AddAttribute("user", user).
		AddAttribute("unlocked_at", fmt.Sprint(unlocksAt))
	if cfg.Controller != "" {
		resp.AddMessage(cw.ExecuteContract(cfg.Controller, kickHookMsg(user)))
	}
	return resp, nil
}

func withdraw(deps cw.Deps, env cw.Env, cfg Config, user string) (*cw.Response, error) {
	lock, ok, err := locks.May(deps.Storage, []byte(user))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrLockNotFound
	}
	if !lock.Unlocking() {
		return nil, ErrNotUnlocking
	}
	if uint64(env.BlockTime.Unix()) < *lock.UnlockedAt {
		return nil, ErrUnlockPending(*lock.UnlockedAt)
	}
	locks.Remove(deps.Storage, []byte(user))

	return cw.NewResponse().
		AddAttribute("action", "withdraw").
		AddAttribute("user", user).
		AddAttribute("amount", lock.Amount.String()).
		AddMessage(cw.SendCoins(user, cfg.Denom, lock.Amount.String())), nil
}

// relock restores the position as if unlock never happened. The lock keeps
// its original slope, so the restored power is what the position had decayed
// to right before the unlock. Compensation path for a failed cross-chain
// unlock.
func relock(deps cw.Deps, env cw.Env, info cw.MessageInfo, cfg Config, user string) (*cw.Response, error) {
	if info.Sender != cfg.Controller && info.Sender != cfg.Owner {
		return nil, ErrUnauthorized
	}
	lock, ok, err := locks.May(deps.Storage, []byte(user))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrLockNotFound
	}
	if !lock.Unlocking() {
		return nil, ErrNotUnlocking
	}
	curPeriod := period.FromTime(env.BlockTime)
	if curPeriod >= lock.End {
		return nil, ErrLockExpired
	}

	restored := lock.Slope.MulUint64(lock.End - curPeriod)
	if err = scheduleSlopeChange(deps.Storage, lock.End, lock.Slope); err != nil {
		return nil, err
	}
	if err = userHistory.Save(deps.Storage, user, curPeriod, checkpoint.Point{
		Power: restored, Slope: lock.Slope, Start: curPeriod, End: lock.End,
	}); err != nil {
		return nil, err
	}
	if err = checkpointTotal(deps.Storage, curPeriod, restored, math.ZeroUint(), math.ZeroUint(), lock.Slope); err != nil {
		return nil, err
	}
	lock.UnlockedAt = nil
	if err = locks.Save(deps.Storage, []byte(user), lock); err != nil {
		return nil, err
	}

	return cw.NewResponse().
		AddAttribute("action", "relock").
		AddAttribute("user", user), nil
}

func forceUnlock(deps cw.Deps, env cw.Env, info cw.MessageInfo, cfg Config, user string) (*cw.Response, error) {
	if info.Sender != cfg.Owner {
		return nil, ErrUnauthorized
	}
	return unlock(deps, env, cfg, user, true)
}

func updateBlacklist(deps cw.Deps, env cw.Env, info cw.MessageInfo, cfg Config, msg *UpdateBlacklist) (*cw.Response, error) {
	if info.Sender != cfg.Owner {
		return nil, ErrUnauthorized
	}
	resp := cw.NewResponse().AddAttribute("action", "update_blacklist")
	for _, user := range msg.Append {
		if blacklist.Has(deps.Storage, []byte(user)) {
			continue
		}
		if err := blacklist.Save(deps.Storage, []byte(user), struct{}{}); err != nil {
			return nil, err
		}
		// a blacklisted voter with a live lock is force-unlocked so both
		// the escrow total and the gauge drop their contribution now
		lock, ok, err := locks.May(deps.Storage, []byte(user))
		if err != nil {
			return nil, err
		}
		if ok && !lock.Unlocking() {
			sub, err := unlock(deps, env, cfg, user, true)
			if err != nil {
				return nil, err
			}
			resp.Messages = append(resp.Messages, sub.Messages...)
		}
		resp.AddAttribute("blacklisted", user)
	}
	for _, user := range msg.Remove {
		blacklist.Remove(deps.Storage, []byte(user))
		resp.AddAttribute("removed", user)
	}
	return resp, nil
}

func updateConfig(deps cw.Deps, info cw.MessageInfo, cfg Config, msg *UpdateConfig) (*cw.Response, error) {
	if info.Sender != cfg.Owner {
		return nil, ErrUnauthorized
	}
	if msg.NewController != nil {
		cfg.Controller = *msg.NewController
	}
	if msg.NewOwner != nil {
		cfg.Owner = *msg.NewOwner
	}
	if err := configItem.Save(deps.Storage, cfg); err != nil {
		return nil, err
	}
	return cw.NewResponse().AddAttribute("action", "update_config"), nil
}

// kickHookMsg is the controller hook emitted on unlock. Kept as an anonymous
// shape to avoid importing the controller package.
func kickHookMsg(user string) map[string]map[string]string {
	return map[string]map[string]string{"kick": {"user": user}}
}

func Query(deps cw.Deps, env cw.Env, msg QueryMsg) ([]byte, error) {
	now := uint64(env.BlockTime.Unix())
	switch {
	case msg.Config != nil:
		cfg, err := configItem.Load(deps.Storage)
		if err != nil {
			return nil, err
		}
		return json.Marshal(cfg)
	case msg.LockInfo != nil:
		lock, ok, err := locks.May(deps.Storage, []byte(msg.LockInfo.User))
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrLockNotFound
		}
		return json.Marshal(LockInfoResponse{
			Amount:     lock.Amount.String(),
			Start:      lock.Start,
			End:        lock.End,
			Slope:      lock.Slope.String(),
			UnlockedAt: lock.UnlockedAt,
		})
	case msg.UserVotingPower != nil:
		return userPowerResponse(deps, msg.UserVotingPower.User, period.FromSeconds(now))
	case msg.UserVotingPowerAt != nil:
		return userPowerResponse(deps, msg.UserVotingPowerAt.User, period.FromSeconds(msg.UserVotingPowerAt.Time))
	case msg.UserVotingPowerAtPeriod != nil:
		return userPowerResponse(deps, msg.UserVotingPowerAtPeriod.User, msg.UserVotingPowerAtPeriod.Period)
	case msg.TotalVotingPower != nil:
		return totalPowerResponse(deps, period.FromSeconds(now))
	case msg.TotalVotingPowerAt != nil:
		return totalPowerResponse(deps, period.FromSeconds(msg.TotalVotingPowerAt.Time))
	case msg.TotalVotingPowerAtPeriod != nil:
		return totalPowerResponse(deps, msg.TotalVotingPowerAtPeriod.Period)
	case msg.BlacklistedVoters != nil:
		return blacklistedVoters(deps, msg.BlacklistedVoters)
	default:
		return nil, fmt.Errorf("unknown query message")
	}
}

func userPowerResponse(deps cw.Deps, user string, p uint64) ([]byte, error) {
	power, err := userPowerAtPeriod(deps.Storage, user, p)
	if err != nil {
		return nil, err
	}
	return json.Marshal(VotingPowerResponse{VotingPower: power.String()})
}

func totalPowerResponse(deps cw.Deps, p uint64) ([]byte, error) {
	power, err := totalPowerAtPeriod(deps.Storage, p)
	if err != nil {
		return nil, err
	}
	return json.Marshal(VotingPowerResponse{VotingPower: power.String()})
}

const defaultPageLimit = 30

func blacklistedVoters(deps cw.Deps, q *BlacklistedVotersQuery) ([]byte, error) {
	limit := q.Limit
	if limit == 0 {
		limit = defaultPageLimit
	}
	var start []byte
	if q.StartAfter != "" {
		start = append([]byte(q.StartAfter), 0)
	}
	voters := []string{}
	err := blacklist.Range(deps.Storage, start, nil, cw.Ascending,
		func(key []byte, _ struct{}) (bool, error) {
			voters = append(voters, string(key))
			return uint32(len(voters)) < limit, nil
		})
	if err != nil {
		return nil, err
	}
	return json.Marshal(BlacklistedVotersResponse{Voters: voters})
}

// Migrate only asserts the stored contract identity and bumps the version;
// data-shape adapters are deliberately out of scope.
func Migrate(deps cw.Deps, _ cw.Env, _ MigrateMsg) (*cw.Response, error) {
	stored, err := versionItem.Load(deps.Storage)
	if err != nil {
		return nil, err
	}
	if stored.Contract != ContractName {
		return nil, fmt.Errorf("cannot migrate %q into %s", stored.Contract, ContractName)
	}
	if err = versionItem.Save(deps.Storage, ContractVersion{
		Contract: ContractName,
		Version:  contractVersion,
	}); err != nil {
		return nil, err
	}
	return cw.NewResponse().AddAttribute("action", "migrate"), nil
}
