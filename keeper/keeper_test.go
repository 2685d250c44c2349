package keeper

import (
	"context"
	"sync"
	"testing"
	"time"

	coretypes "github.com/cometbft/cometbft/rpc/core/types"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/helixswap/governance/emissions"
	"github.com/helixswap/governance/logger"
	"github.com/helixswap/governance/period"
)

type fakeEmissions struct {
	mu      sync.Mutex
	info    emissions.TuneInfo
	tuned   chan struct{}
	retried chan struct{}
	clock   clockwork.Clock
}

func newFakeEmissions(clock clockwork.Clock) *fakeEmissions {
	return &fakeEmissions{
		tuned:   make(chan struct{}, 8),
		retried: make(chan struct{}, 8),
		clock:   clock,
	}
}

func (f *fakeEmissions) setInfo(info emissions.TuneInfo) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.info = info
}

func (f *fakeEmissions) TuneInfo(ctx context.Context) (emissions.TuneInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.info, nil
}

func (f *fakeEmissions) TunePools(ctx context.Context, sender string) (*coretypes.ResultBroadcastTx, error) {
	f.mu.Lock()
	f.info.TuneTime = period.EpochStart(uint64(f.clock.Now().Unix()))
	f.mu.Unlock()
	f.tuned <- struct{}{}
	return &coretypes.ResultBroadcastTx{}, nil
}

func (f *fakeEmissions) RetryFailedOutposts(ctx context.Context, sender string) (*coretypes.ResultBroadcastTx, error) {
	f.mu.Lock()
	for name := range f.info.OutpostStatus {
		f.info.OutpostStatus[name] = emissions.StatusInProgress
	}
	f.mu.Unlock()
	f.retried <- struct{}{}
	return &coretypes.ResultBroadcastTx{}, nil
}

func testOptions() Options {
	opts := DefaultOptions("helix1keeper")
	opts.QueryRateLimit = rate.Inf
	return opts
}

func waitSignal(t *testing.T, ch <-chan struct{}, what string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for %s", what)
	}
}

func TestKeeperTunesAtEpochBoundary(t *testing.T) {
	clock := clockwork.NewFakeClock()
	client := newFakeEmissions(clock)
	reg := prometheus.NewRegistry()
	indicators := NewPromIndicators("helix-1", reg)
	k := New(client, testOptions(), clock, logger.NewMockLogger(), indicators)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = k.Run(ctx) }()

	// Stale tune state fires a tune on the first tick.
	clock.BlockUntil(1)
	clock.Advance(time.Minute)
	waitSignal(t, client.tuned, "tune_pools")
	assert.Equal(t, 1.0, testutil.ToFloat64(indicators.tuneTotal))

	// The fake records the tune; the next tick must not tune again.
	clock.BlockUntil(1)
	clock.Advance(time.Minute)
	clock.BlockUntil(1)
	clock.Advance(time.Minute)
	waitForEmpty := func() bool {
		select {
		case <-client.tuned:
			return false
		default:
			return true
		}
	}
	require.Eventually(t, waitForEmpty, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 1.0, testutil.ToFloat64(indicators.tuneTotal))
}

func TestKeeperRetriesFailedOutposts(t *testing.T) {
	clock := clockwork.NewFakeClock()
	client := newFakeEmissions(clock)
	client.setInfo(emissions.TuneInfo{
		TuneTime: period.EpochStart(uint64(clock.Now().Unix())),
		OutpostStatus: map[string]emissions.OutpostStatus{
			"osmo": emissions.StatusFailed,
			"hub":  emissions.StatusDone,
		},
	})
	reg := prometheus.NewRegistry()
	indicators := NewPromIndicators("helix-1", reg)
	k := New(client, testOptions(), clock, logger.NewMockLogger(), indicators)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = k.Run(ctx) }()

	clock.BlockUntil(1)
	clock.Advance(time.Minute)
	waitSignal(t, client.retried, "retry_failed_outposts")
	assert.Equal(t, 1.0, testutil.ToFloat64(indicators.outpostsFailed))
	assert.Equal(t, 0.0, testutil.ToFloat64(indicators.tuneTotal))
}

func TestRunOnceGauges(t *testing.T) {
	clock := clockwork.NewFakeClock()
	client := newFakeEmissions(clock)
	client.setInfo(emissions.TuneInfo{
		TuneTime: period.EpochStart(uint64(clock.Now().Unix())),
		OutpostStatus: map[string]emissions.OutpostStatus{
			"osmo": emissions.StatusInProgress,
			"njd":  emissions.StatusInProgress,
			"hub":  emissions.StatusDone,
		},
	})
	reg := prometheus.NewRegistry()
	indicators := NewPromIndicators("helix-1", reg)
	k := New(client, testOptions(), clock, logger.NewMockLogger(), indicators)

	require.NoError(t, k.runOnce(context.Background()))
	assert.Equal(t, 2.0, testutil.ToFloat64(indicators.relayPending))
	assert.Equal(t, 0.0, testutil.ToFloat64(indicators.outpostsFailed))
}
