// File: internal/console/sync.go
package console

import (
	"context"
	"sync"
	"time"

	"github.com/periscope-sec/periscope-cli/api/schemas"
	"github.com/periscope-sec/periscope-cli/internal/config"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Status is the transport health indicator published to SlotStatus.
type Status string

const (
	// StatusConnecting is the initial state before the first connection attempt resolves.
	StatusConnecting Status = "Connecting"
	// StatusLive means the duplex snapshot channel is up.
	StatusLive Status = "Live"
	// StatusReconnecting means the duplex channel dropped; a retry is scheduled.
	StatusReconnecting Status = "Reconnecting"
	// StatusPolling means fixed-interval polling is active and healthy.
	StatusPolling Status = "Polling"
	// StatusPollingError means the last poll failed; polling continues unchanged.
	StatusPollingError Status = "Polling Error"
)

// API is the slice of the backend client the synchronizer needs.
type API interface {
	Snapshot(ctx context.Context) (*schemas.Snapshot, error)
	ToolPage(ctx context.Context, service string, limit, offset int) (*schemas.ToolPage, error)
	HostDetail(ctx context.Context, hostID int) (*schemas.HostDetail, error)
}

// Feed is one established duplex snapshot channel.
type Feed interface {
	Next() (*schemas.Snapshot, error)
	Close() error
}

// FeedDialer opens a new duplex snapshot channel.
type FeedDialer func(ctx context.Context) (Feed, error)

// Synchronizer keeps the local Workspace mirror current with the backend,
// over either a duplex push channel or fixed-interval polling. It owns all
// mirror state: every mutation goes through its methods, under its lock.
//
// The duplex reconnect loop is a fixed-delay infinite retry. There is
// deliberately no backoff and no attempt cap; the console must come back by
// itself however long the backend is away.
type Synchronizer struct {
	cfg    config.ConsoleConfig
	api    API
	dial   FeedDialer
	binder Binder
	logger *zap.Logger

	// hydrateLimiter throttles tool-catalog page requests so a large catalog
	// cannot saturate the backend.
	hydrateLimiter *rate.Limiter

	mu                sync.Mutex
	ws                *Workspace
	status            Status
	selectedHost      int
	hostDetail        *schemas.HostDetail
	detailInFlight    bool
	toolsHydrated     bool
	hydrationInFlight bool
	pollInFlight      bool

	// wg tracks follow-up fetch goroutines (poll, hydration, host detail) so
	// Run can drain them before returning.
	wg sync.WaitGroup
}

// NewSynchronizer wires a synchronizer to a backend API, a feed dialer and a
// renderer binder. The binder's slots are resolved once, here; the core never
// learns anything else about the rendering layer.
func NewSynchronizer(cfg config.ConsoleConfig, api API, dial FeedDialer, binder Binder, logger *zap.Logger) *Synchronizer {
	if binder == nil {
		binder = NopBinder()
	}
	return &Synchronizer{
		cfg:            cfg,
		api:            api,
		dial:           dial,
		binder:         binder,
		logger:         logger.Named("synchronizer"),
		hydrateLimiter: rate.NewLimiter(rate.Limit(cfg.HydrationRate), 1),
		ws:             NewWorkspace(),
		status:         StatusConnecting,
	}
}

// Run drives the synchronizer until ctx is cancelled. The transport is fixed
// by configuration; there is no runtime switching between duplex and polling.
func (s *Synchronizer) Run(ctx context.Context) error {
	defer s.wg.Wait()

	if s.cfg.Transport == config.TransportPoll || s.dial == nil {
		return s.runPoll(ctx)
	}
	return s.runLive(ctx)
}

// runLive maintains the duplex snapshot channel: connect, read until the
// channel breaks, then retry after a fixed delay, forever.
func (s *Synchronizer) runLive(ctx context.Context) error {
	for {
		feed, err := s.dial(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.logger.Warn("Snapshot feed connection failed", zap.Error(err))
			s.setStatus(StatusReconnecting)
			if !sleepCtx(ctx, s.cfg.ReconnectDelay) {
				return ctx.Err()
			}
			continue
		}

		s.setStatus(StatusLive)
		s.readFeed(ctx, feed)

		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.setStatus(StatusReconnecting)
		if !sleepCtx(ctx, s.cfg.ReconnectDelay) {
			return ctx.Err()
		}
	}
}

// readFeed consumes snapshots from one established channel until it breaks.
// A decode error counts as a broken channel: the read cursor cannot be
// trusted mid-stream, so the caller reconnects.
func (s *Synchronizer) readFeed(ctx context.Context, feed Feed) {
	// Close the feed when ctx is cancelled so the blocking read unblocks.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			feed.Close()
		case <-done:
		}
	}()
	defer feed.Close()

	for {
		snap, err := feed.Next()
		if err != nil {
			if ctx.Err() == nil {
				s.logger.Warn("Snapshot feed closed", zap.Error(err))
			}
			return
		}
		s.Apply(ctx, snap)
	}
}

// runPoll fetches the full snapshot on a fixed interval. A failed poll flips
// the status indicator but never changes the cadence; the next tick retries.
func (s *Synchronizer) runPoll(ctx context.Context) error {
	s.startPoll(ctx)

	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.startPoll(ctx)
		}
	}
}

// startPoll launches one guarded snapshot fetch. A tick that finds a prior
// poll still outstanding is skipped entirely, never queued.
func (s *Synchronizer) startPoll(ctx context.Context) {
	s.mu.Lock()
	if s.pollInFlight {
		s.mu.Unlock()
		return
	}
	s.pollInFlight = true
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		snap, err := s.api.Snapshot(ctx)

		s.mu.Lock()
		s.pollInFlight = false
		s.mu.Unlock()

		if err != nil {
			if ctx.Err() == nil {
				s.logger.Warn("Snapshot poll failed", zap.Error(err))
			}
			s.setStatus(StatusPollingError)
			return
		}
		s.setStatus(StatusPolling)
		s.Apply(ctx, snap)
	}()
}

// Apply merges one snapshot into the mirror and publishes every changed slot.
// Applying the same snapshot twice produces the same render state; nothing is
// counted or toggled by the act of publishing.
func (s *Synchronizer) Apply(ctx context.Context, snap *schemas.Snapshot) {
	if snap == nil {
		return
	}

	s.mu.Lock()
	changed := s.ws.merge(snap)
	changed = append(changed, s.mergeToolsLocked(ctx, snap)...)

	// Host-detail consistency: detail is never part of the snapshot. If a
	// host is selected and no detail is held yet, schedule a follow-up fetch.
	// This must never block or delay snapshot application.
	s.maybeFetchHostDetailLocked(ctx)

	values := make([]interface{}, len(changed))
	for i, slot := range changed {
		values[i] = s.ws.value(slot)
	}
	s.mu.Unlock()

	for i, slot := range changed {
		s.binder.Publish(slot, values[i])
	}
}

// mergeToolsLocked applies the tool-catalog special rule. Before hydration
// the embedded page is displayed as-is; once the catalog has been fully
// paginated in, embedded partial lists are discarded and only the reported
// total is compared against the locally held count.
func (s *Synchronizer) mergeToolsLocked(ctx context.Context, snap *schemas.Snapshot) []Slot {
	meta := snap.ToolsMeta

	if s.toolsHydrated {
		if meta != nil && meta.Total != len(s.ws.Tools) {
			s.startHydrationLocked(ctx)
		}
		return nil
	}

	var changed []Slot
	if snap.Tools != nil {
		s.ws.Tools = snap.Tools
		changed = append(changed, SlotTools)
	}
	if meta != nil {
		s.ws.ToolsTotal = meta.Total
		if meta.HasMore {
			// The embedded page is partial; pull the rest asynchronously.
			s.startHydrationLocked(ctx)
		} else if snap.Tools != nil {
			// The embedded page is the whole catalog.
			s.toolsHydrated = true
		}
	}
	return changed
}

// startHydrationLocked launches the paged catalog fetch unless one is already
// in flight. Callers hold s.mu.
func (s *Synchronizer) startHydrationLocked(ctx context.Context) {
	if s.hydrationInFlight {
		return
	}
	s.hydrationInFlight = true

	s.wg.Add(1)
	go s.hydrateTools(ctx)
}

// hydrateTools pages through the tool-catalog endpoint until has_more is
// false, then swaps the full catalog into the mirror. On any failure the
// in-flight guard is cleared and the next total mismatch retries.
func (s *Synchronizer) hydrateTools(ctx context.Context) {
	defer s.wg.Done()

	var tools []schemas.Tool
	offset := 0
	for {
		if err := s.hydrateLimiter.Wait(ctx); err != nil {
			s.abandonHydration(err)
			return
		}
		page, err := s.api.ToolPage(ctx, "", s.cfg.ToolPageSize, offset)
		if err != nil {
			s.abandonHydration(err)
			return
		}
		tools = append(tools, page.Tools...)
		if !page.HasMore || page.NextOffset == nil {
			break
		}
		offset = *page.NextOffset
	}

	s.mu.Lock()
	s.ws.Tools = tools
	s.ws.ToolsTotal = len(tools)
	s.toolsHydrated = true
	s.hydrationInFlight = false
	s.mu.Unlock()

	s.logger.Debug("Tool catalog hydrated", zap.Int("tools", len(tools)))
	s.binder.Publish(SlotTools, tools)
}

func (s *Synchronizer) abandonHydration(err error) {
	s.mu.Lock()
	s.hydrationInFlight = false
	s.mu.Unlock()
	s.logger.Warn("Tool catalog hydration failed", zap.Error(err))
}

// SelectHost records the operator's host selection and schedules the detail
// fetch. Selecting a different host always clears the previously held detail.
func (s *Synchronizer) SelectHost(ctx context.Context, hostID int) {
	s.mu.Lock()
	if s.selectedHost != hostID {
		s.selectedHost = hostID
		s.hostDetail = nil
	}
	s.maybeFetchHostDetailLocked(ctx)
	s.mu.Unlock()
}

// ClearHostSelection drops the selection and its detail.
func (s *Synchronizer) ClearHostSelection() {
	s.mu.Lock()
	s.selectedHost = 0
	s.hostDetail = nil
	s.mu.Unlock()
}

// maybeFetchHostDetailLocked schedules a guarded detail fetch for the
// selected host when none is held. Callers hold s.mu.
func (s *Synchronizer) maybeFetchHostDetailLocked(ctx context.Context) {
	if s.selectedHost == 0 || s.hostDetail != nil || s.detailInFlight {
		return
	}
	s.detailInFlight = true
	hostID := s.selectedHost

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		detail, err := s.api.HostDetail(ctx, hostID)

		s.mu.Lock()
		s.detailInFlight = false
		if err != nil {
			s.mu.Unlock()
			if ctx.Err() == nil {
				// Eventually consistent: the next snapshot application retries.
				s.logger.Warn("Host detail fetch failed", zap.Int("host_id", hostID), zap.Error(err))
			}
			return
		}
		if s.selectedHost != hostID {
			// Selection moved on while the fetch was in flight; drop it.
			s.mu.Unlock()
			return
		}
		s.hostDetail = detail
		s.mu.Unlock()

		s.binder.Publish(SlotHostDetail, detail)
	}()
}

// setStatus publishes the transport indicator when it changes.
func (s *Synchronizer) setStatus(st Status) {
	s.mu.Lock()
	if s.status == st {
		s.mu.Unlock()
		return
	}
	s.status = st
	s.mu.Unlock()

	s.logger.Info("Transport status changed", zap.String("status", string(st)))
	s.binder.Publish(SlotStatus, st)
}

// StatusNow returns the current transport indicator.
func (s *Synchronizer) StatusNow() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// WorkspaceView returns a shallow copy of the mirror for inspection. The
// section slices are shared but never mutated in place after publication.
func (s *Synchronizer) WorkspaceView() Workspace {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.ws
}

// HostDetailView returns the currently held host detail, if any.
func (s *Synchronizer) HostDetailView() *schemas.HostDetail {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hostDetail
}

// sleepCtx waits for d or until ctx is cancelled. Returns false on cancellation.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
