package supervisor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"ausettings/capture/capturetest"
	"ausettings/game_settings"
	"ausettings/offset_catalog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSource hands out a catalog, or an error until one is set
type fakeSource struct {
	mu      sync.Mutex
	catalog *offset_catalog.Catalog
	calls   int
}

func (f *fakeSource) Fetch(ctx context.Context) (*offset_catalog.Catalog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.catalog == nil {
		return nil, offset_catalog.ErrFetchFailed
	}
	return f.catalog, nil
}

func (f *fakeSource) set(c *offset_catalog.Catalog) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.catalog = c
}

func (f *fakeSource) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func newSupervisor(t *testing.T, src *fakeSource, opts Options) (*Supervisor, *capturetest.Target) {
	t.Helper()
	tg := capturetest.New(t)
	if opts.Capture.ProcessName == "" {
		opts.Capture = DefaultOptions().Capture
	}
	return New(tg.Finder, tg.Hasher(), src, opts), tg
}

func TestTickCaptures(t *testing.T) {
	src := &fakeSource{}
	sup, tg := newSupervisor(t, src, Options{})
	src.set(tg.Catalog)

	sup.Tick()
	assert.Equal(t, Status{}, sup.Status())

	_, err := sup.ReadSnapshot()
	assert.True(t, errors.Is(err, ErrCatalogNotReady))

	require.NoError(t, sup.RefreshCatalog(context.Background()))
	sup.Tick()
	assert.Equal(t, Status{OffsetCatalogReady: true, ProcessCaptured: true}, sup.Status())

	require.NoError(t, tg.Image.PutFLOAT32(capturetest.StructBase+0x14, 2.5))
	snap, err := sup.ReadSnapshot()
	require.NoError(t, err)
	assert.Equal(t, float32(2.5), snap.PlayerSpeed)

	snap.VotingTime = 90
	require.NoError(t, sup.WriteSnapshot(snap))
	raw, err := tg.Image.Bytes(capturetest.StructBase+0x48, 4)
	require.NoError(t, err)
	assert.Equal(t, []byte{90, 0, 0, 0}, raw)

	in, err := sup.Inspect()
	require.NoError(t, err)
	assert.Equal(t, capturetest.StructBase, in.StructBase)
}

func TestProcessDeathAndRecapture(t *testing.T) {
	src := &fakeSource{}
	sup, tg := newSupervisor(t, src, Options{})
	sup.catalog = tg.Catalog

	sup.Tick()
	require.True(t, sup.Status().ProcessCaptured)

	tg.Image.Kill()
	sup.Tick()
	assert.Equal(t, Status{OffsetCatalogReady: true}, sup.Status())

	_, err := sup.ReadSnapshot()
	assert.True(t, errors.Is(err, ErrNotCaptured))

	tg.Restart(t, 2000, 0x60080)
	sup.Tick()
	require.True(t, sup.Status().ProcessCaptured)

	require.NoError(t, tg.Image.PutUINT32(0x60080+0x44, 45))
	snap, err := sup.ReadSnapshot()
	require.NoError(t, err)
	assert.Equal(t, int32(45), snap.DiscussionTime)
}

func TestDeathRecapturedInSameTick(t *testing.T) {
	src := &fakeSource{}
	sup, tg := newSupervisor(t, src, Options{})
	sup.catalog = tg.Catalog

	sup.Tick()
	tg.Restart(t, 3000, capturetest.StructBase)

	updates, cancel := sup.Subscribe()
	defer cancel()
	assert.Equal(t, Status{OffsetCatalogReady: true, ProcessCaptured: true}, <-updates)

	sup.Tick()
	assert.Equal(t, Status{OffsetCatalogReady: true}, <-updates)
	assert.Equal(t, Status{OffsetCatalogReady: true, ProcessCaptured: true}, <-updates)
}

func TestFetchFailureThenRefresh(t *testing.T) {
	src := &fakeSource{}
	reg := prometheus.NewRegistry()
	sup, tg := newSupervisor(t, src, Options{Registerer: reg})

	err := sup.RefreshCatalog(context.Background())
	assert.True(t, errors.Is(err, offset_catalog.ErrFetchFailed))
	assert.False(t, sup.Status().OffsetCatalogReady)

	sup.Tick()
	assert.False(t, sup.Status().ProcessCaptured)

	src.set(tg.Catalog)
	require.NoError(t, sup.RefreshCatalog(context.Background()))
	sup.Tick()
	assert.Equal(t, Status{OffsetCatalogReady: true, ProcessCaptured: true}, sup.Status())

	assert.Equal(t, float64(1), testutil.ToFloat64(sup.metrics.catalogReady))
	assert.Equal(t, float64(1), testutil.ToFloat64(sup.metrics.processCaptured))
	assert.Equal(t, float64(1), testutil.ToFloat64(sup.metrics.captureAttempts.WithLabelValues("success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(sup.metrics.catalogFetches.WithLabelValues("error")))
}

func TestUnknownBuildStaysUncaptured(t *testing.T) {
	src := &fakeSource{}
	sup, tg := newSupervisor(t, src, Options{})
	sup.catalog = offset_catalog.New(nil)

	sup.Tick()
	assert.False(t, sup.Status().ProcessCaptured)
	assert.Zero(t, tg.Image.Accesses())
	assert.Equal(t, float64(1), testutil.ToFloat64(sup.metrics.captureAttempts.WithLabelValues("unknown_build")))
}

func TestPublishNeverBlocks(t *testing.T) {
	src := &fakeSource{}
	sup, tg := newSupervisor(t, src, Options{StatusBuffer: 1})
	updates, unsubscribe := sup.Subscribe()
	defer unsubscribe()

	src.set(tg.Catalog)
	require.NoError(t, sup.RefreshCatalog(context.Background()))
	sup.Tick()
	tg.Image.Kill()
	sup.Tick()

	// only the newest status survives in a one slot buffer
	assert.Len(t, updates, 1)
	assert.Equal(t, Status{OffsetCatalogReady: true}, <-updates)
}

func TestRunUntilCancelled(t *testing.T) {
	src := &fakeSource{}
	sup, tg := newSupervisor(t, src, Options{PollInterval: 5 * time.Millisecond, CatalogRetryInterval: 5 * time.Millisecond})
	updates, _ := sup.Subscribe()
	assert.Equal(t, Status{}, <-updates)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sup.Run(ctx) }()

	// failed fetches are retried
	require.Eventually(t, func() bool { return src.callCount() > 1 }, 2*time.Second, 5*time.Millisecond)
	assert.False(t, sup.Status().OffsetCatalogReady)
	src.set(tg.Catalog)

	require.Eventually(t, func() bool {
		return sup.Status() == Status{OffsetCatalogReady: true, ProcessCaptured: true}
	}, 2*time.Second, 5*time.Millisecond)

	snap := game_settings.Snapshot{KillCooldown: 10}
	require.NoError(t, sup.WriteSnapshot(snap))

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}

	assert.False(t, sup.Status().ProcessCaptured)
	_, err := sup.ReadSnapshot()
	assert.True(t, errors.Is(err, ErrNotCaptured))

	// Run closes every subscription on its way out
	require.Eventually(t, func() bool {
		select {
		case _, ok := <-updates:
			return !ok
		default:
			return false
		}
	}, time.Second, time.Millisecond)

	late, _ := sup.Subscribe()
	assert.Equal(t, Status{}, <-late)
	_, ok := <-late
	assert.False(t, ok)
}

func TestUnsubscribe(t *testing.T) {
	src := &fakeSource{}
	sup, tg := newSupervisor(t, src, Options{})

	updates, unsubscribe := sup.Subscribe()
	other, unsubscribeOther := sup.Subscribe()
	defer unsubscribeOther()
	assert.Len(t, sup.subs, 2)

	assert.Equal(t, Status{}, <-updates)
	unsubscribe()
	unsubscribe()
	assert.Len(t, sup.subs, 1)

	_, ok := <-updates
	assert.False(t, ok)

	src.set(tg.Catalog)
	require.NoError(t, sup.RefreshCatalog(context.Background()))
	assert.Equal(t, Status{}, <-other)
	assert.Equal(t, Status{OffsetCatalogReady: true}, <-other)
}
