// Package supervisor keeps a capture session valid for the lifetime of the
// application. It owns the shared {session, catalog} state, fetches the offset
// catalog in the background, polls the captured process for liveness and
// recaptures it after a restart.
//
// The state lock is taken for writing only to swap values in or out; process
// and network calls happen outside it.
package supervisor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"ausettings/capture"
	"ausettings/fingerprint"
	"ausettings/game_settings"
	"ausettings/offset_catalog"
	"ausettings/process"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"
)

var (
	ErrNotCaptured     = errors.New("target process not captured")
	ErrCatalogNotReady = errors.New("offset catalog not ready")
)

const (
	DefaultPollInterval = time.Second
	DefaultStatusBuffer = 16
)

// Status is broadcast whenever either fact changes
type Status struct {
	OffsetCatalogReady bool
	ProcessCaptured    bool
}

func (s Status) String() string {
	return fmt.Sprintf("catalog ready: %t, process captured: %t", s.OffsetCatalogReady, s.ProcessCaptured)
}

// CatalogSource produces an offset catalog; offset_catalog.Fetcher is one
type CatalogSource interface {
	Fetch(ctx context.Context) (*offset_catalog.Catalog, error)
}

type Options struct {
	Capture      capture.Config
	PollInterval time.Duration

	// CatalogRetryInterval re-attempts a failed catalog fetch; zero fetches once
	CatalogRetryInterval time.Duration

	// StatusBuffer bounds each subscriber channel
	StatusBuffer int

	// Registerer receives the supervisor metrics; nil disables registration
	Registerer prometheus.Registerer
}

func DefaultOptions() Options {
	return Options{
		Capture:      capture.DefaultConfig(),
		PollInterval: DefaultPollInterval,
		StatusBuffer: DefaultStatusBuffer,
	}
}

type Supervisor struct {
	finder  process.Finder
	hasher  capture.Hasher
	source  CatalogSource
	opts    Options
	log     *logger.Logger
	metrics *metrics

	mu      sync.RWMutex
	session *capture.Session
	catalog *offset_catalog.Catalog

	// subMu orders publications; it is taken before mu
	subMu     sync.Mutex
	subs      []chan Status
	last      Status
	published bool
	stopped   bool
}

func New(finder process.Finder, hasher capture.Hasher, source CatalogSource, opts Options) *Supervisor {
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.StatusBuffer <= 0 {
		opts.StatusBuffer = DefaultStatusBuffer
	}

	return &Supervisor{
		finder:  finder,
		hasher:  hasher,
		source:  source,
		opts:    opts,
		log:     logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, "supervisor")),
		metrics: newMetrics(opts.Registerer),
	}
}

// Status returns the current state
func (s *Supervisor) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.statusLocked()
}

func (s *Supervisor) statusLocked() Status {
	return Status{
		OffsetCatalogReady: s.catalog != nil,
		ProcessCaptured:    s.session != nil,
	}
}

// Subscribe returns a channel receiving the current status followed by every
// change. When the subscriber falls behind the oldest pending status is dropped.
// The channel is closed by the returned cancel func or when Run returns.
func (s *Supervisor) Subscribe() (<-chan Status, func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	ch := make(chan Status, s.opts.StatusBuffer)
	ch <- s.Status()
	if s.stopped {
		close(ch)
		return ch, func() {}
	}
	s.subs = append(s.subs, ch)
	return ch, func() { s.unsubscribe(ch) }
}

func (s *Supervisor) unsubscribe(ch chan Status) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	for i, sub := range s.subs {
		if sub == ch {
			s.subs = append(s.subs[:i], s.subs[i+1:]...)
			close(ch)
			return
		}
	}
}

// closeSubscribers ends every subscription; later subscribers get a closed channel
func (s *Supervisor) closeSubscribers() {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	for _, ch := range s.subs {
		close(ch)
	}
	s.subs = nil
	s.stopped = true
}

// publish never blocks on a subscriber
func (s *Supervisor) publish() {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	st := s.Status()
	s.metrics.observe(st)
	if s.published && st == s.last {
		return
	}
	s.last, s.published = st, true
	s.log.Infoln("Status changed:", st)

	for _, ch := range s.subs {
		select {
		case ch <- st:
			continue
		default:
		}

		select {
		case <-ch:
		default:
		}
		select {
		case ch <- st:
		default:
		}
	}
}

// withSession runs fn on the installed session under the read lock so the
// session cannot be released while fn uses it
func (s *Supervisor) withSession(fn func(*capture.Session) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.catalog == nil {
		return ErrCatalogNotReady
	}
	if s.session == nil {
		return ErrNotCaptured
	}
	return fn(s.session)
}

// ReadSnapshot reads the live settings through the current session
func (s *Supervisor) ReadSnapshot() (game_settings.Snapshot, error) {
	var snap game_settings.Snapshot
	err := s.withSession(func(sess *capture.Session) error {
		var err error
		snap, err = sess.ReadSnapshot()
		return err
	})
	return snap, err
}

// WriteSnapshot writes snap through the current session
func (s *Supervisor) WriteSnapshot(snap game_settings.Snapshot) error {
	return s.withSession(func(sess *capture.Session) error {
		return sess.WriteSnapshot(snap)
	})
}

// Inspect reports where the current session finds the options object
func (s *Supervisor) Inspect() (capture.Inspection, error) {
	var in capture.Inspection
	err := s.withSession(func(sess *capture.Session) error {
		var err error
		in, err = sess.Inspect()
		return err
	})
	return in, err
}

// RefreshCatalog fetches the catalog and installs it on success. A failure keeps
// whatever catalog is installed. Sessions already captured keep their offset.
func (s *Supervisor) RefreshCatalog(ctx context.Context) error {
	c, err := s.source.Fetch(ctx)
	if err != nil {
		s.metrics.catalogFetches.WithLabelValues("error").Inc()
		s.log.Warn("Offset catalog fetch failed: ", err)
		return err
	}
	s.metrics.catalogFetches.WithLabelValues("success").Inc()

	s.mu.Lock()
	s.catalog = c
	s.mu.Unlock()

	s.publish()
	return nil
}

// Tick runs one watchdog iteration: a live session is left alone, a dead one is
// released, and a capture is attempted whenever none is installed
func (s *Supervisor) Tick() {
	s.mu.RLock()
	sess, cat := s.session, s.catalog
	s.mu.RUnlock()

	if sess != nil {
		if sess.Alive() {
			return
		}
		s.log.Infoln("Captured process", sess.PID(), "is gone")
		s.release(sess)
	}

	if cat == nil {
		s.log.Debugln("Offset catalog not ready, skipping capture")
		return
	}

	next, err := capture.Capture(s.finder, s.hasher, cat, s.opts.Capture)
	s.metrics.captureAttempts.WithLabelValues(captureResult(err)).Inc()
	if err != nil {
		if errors.Is(err, process.ErrProcessNotFound) {
			s.log.Debugln("Capture failed:", err)
		} else {
			s.log.Warn("Capture failed: ", err)
		}
		return
	}

	s.mu.Lock()
	if s.session != nil {
		s.mu.Unlock()
		_ = next.Close()
		return
	}
	s.session = next
	s.mu.Unlock()

	s.publish()
}

// release uninstalls sess if it is still installed and closes it
func (s *Supervisor) release(sess *capture.Session) {
	s.mu.Lock()
	installed := s.session == sess
	if installed {
		s.session = nil
	}
	s.mu.Unlock()

	if !installed {
		return
	}
	if err := sess.Close(); err != nil {
		s.log.Debugln("Closing session:", err)
	}
	s.publish()
}

// Run drives the catalog fetcher and the watchdog until ctx is cancelled, then
// releases the session and closes every subscription. Failures inside either
// activity are logged, never returned.
func (s *Supervisor) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.fetchLoop(ctx)
		return nil
	})
	g.Go(func() error {
		s.watchLoop(ctx)
		return nil
	})

	err := g.Wait()

	s.mu.RLock()
	sess := s.session
	s.mu.RUnlock()
	if sess != nil {
		s.release(sess)
	}
	s.closeSubscribers()
	return err
}

func (s *Supervisor) fetchLoop(ctx context.Context) {
	if s.RefreshCatalog(ctx) == nil || s.opts.CatalogRetryInterval <= 0 {
		return
	}

	ticker := time.NewTicker(s.opts.CatalogRetryInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if s.RefreshCatalog(ctx) == nil {
				return
			}
		}
	}
}

func (s *Supervisor) watchLoop(ctx context.Context) {
	ticker := time.NewTicker(s.opts.PollInterval)
	defer ticker.Stop()

	s.Tick()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Tick()
		}
	}
}

func captureResult(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, process.ErrProcessNotFound):
		return "process_not_found"
	case errors.Is(err, fingerprint.ErrBinaryReadFailed):
		return "binary_read_failed"
	case errors.Is(err, offset_catalog.ErrOffsetNotFound):
		return "unknown_build"
	}
	return "error"
}
