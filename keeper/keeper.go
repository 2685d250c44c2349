// Package keeper runs the off-chain operator that keeps the hub emissions
// controller tuned. It polls the controller's tune state, fires tune_pools at
// each epoch boundary and retries outposts whose emission relay failed.
package keeper

import (
	"context"
	"time"

	coretypes "github.com/cometbft/cometbft/rpc/core/types"
	"github.com/jonboulle/clockwork"
	"golang.org/x/time/rate"

	"github.com/helixswap/governance/emissions"
	"github.com/helixswap/governance/logger"
	"github.com/helixswap/governance/period"
)

// EmissionsClient is the slice of the api.Emissions surface the keeper needs.
type EmissionsClient interface {
	TuneInfo(ctx context.Context) (emissions.TuneInfo, error)
	TunePools(ctx context.Context, sender string) (*coretypes.ResultBroadcastTx, error)
	RetryFailedOutposts(ctx context.Context, sender string) (*coretypes.ResultBroadcastTx, error)
}

type Options struct {
	// Sender is the keeper's own address, used for broadcasts.
	Sender string
	// PollInterval is how often the controller state is checked.
	PollInterval time.Duration
	// QueryRateLimit caps chain queries per second.
	QueryRateLimit rate.Limit
}

func DefaultOptions(sender string) Options {
	return Options{
		Sender:         sender,
		PollInterval:   time.Minute,
		QueryRateLimit: rate.Limit(5),
	}
}

type Keeper struct {
	client     EmissionsClient
	opts       Options
	clock      clockwork.Clock
	limiter    *rate.Limiter
	logger     logger.Logger
	indicators *PromIndicators
}

func New(client EmissionsClient, opts Options, clock clockwork.Clock, log logger.Logger, indicators *PromIndicators) *Keeper {
	return &Keeper{
		client:     client,
		opts:       opts,
		clock:      clock,
		limiter:    rate.NewLimiter(opts.QueryRateLimit, 1),
		logger:     log,
		indicators: indicators,
	}
}

// Run polls until the context is cancelled.
func (k *Keeper) Run(ctx context.Context) error {
	ticker := k.clock.NewTicker(k.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.Chan():
			if err := k.runOnce(ctx); err != nil {
				k.logger.Error("keeper cycle failed", logger.WithField("error", err))
			}
		}
	}
}

func (k *Keeper) runOnce(ctx context.Context) error {
	if err := k.limiter.Wait(ctx); err != nil {
		return err
	}
	info, err := k.client.TuneInfo(ctx)
	if err != nil {
		return err
	}

	var failed, pending int
	for _, status := range info.OutpostStatus {
		switch status {
		case emissions.StatusFailed:
			failed++
		case emissions.StatusInProgress:
			pending++
		}
	}
	k.indicators.SetOutpostsFailed(failed)
	k.indicators.SetRelayPending(pending)

	epochStart := period.EpochStart(uint64(k.clock.Now().Unix()))
	if info.TuneTime < epochStart {
		k.indicators.AddTuneTotal()
		res, err := k.client.TunePools(ctx, k.opts.Sender)
		if err != nil || res.Code != 0 {
			k.indicators.AddTuneFailure()
			if err != nil {
				return err
			}
			k.logger.Error("tune_pools rejected",
				logger.WithField("code", res.Code),
				logger.WithField("log", res.Log))
			return nil
		}
		k.logger.Info("tune_pools broadcast",
			logger.WithField("txHash", res.Hash.String()),
			logger.WithField("epochStart", epochStart))
		return nil
	}

	if failed > 0 {
		res, err := k.client.RetryFailedOutposts(ctx, k.opts.Sender)
		if err != nil {
			return err
		}
		k.logger.Info("retry_failed_outposts broadcast",
			logger.WithField("txHash", res.Hash.String()),
			logger.WithField("failed", failed))
	}
	return nil
}
