// File: internal/console/sync_test.go
package console

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/periscope-sec/periscope-cli/api/schemas"
	"github.com/periscope-sec/periscope-cli/internal/config"
)

// fakeSyncAPI lets each test script the backend's behavior per endpoint.
type fakeSyncAPI struct {
	mu           sync.Mutex
	snapshotFn   func(ctx context.Context) (*schemas.Snapshot, error)
	toolPageFn   func(service string, limit, offset int) (*schemas.ToolPage, error)
	hostDetailFn func(hostID int) (*schemas.HostDetail, error)
}

func (f *fakeSyncAPI) Snapshot(ctx context.Context) (*schemas.Snapshot, error) {
	f.mu.Lock()
	fn := f.snapshotFn
	f.mu.Unlock()
	if fn == nil {
		return &schemas.Snapshot{}, nil
	}
	return fn(ctx)
}

func (f *fakeSyncAPI) ToolPage(ctx context.Context, service string, limit, offset int) (*schemas.ToolPage, error) {
	f.mu.Lock()
	fn := f.toolPageFn
	f.mu.Unlock()
	if fn == nil {
		return &schemas.ToolPage{}, nil
	}
	return fn(service, limit, offset)
}

func (f *fakeSyncAPI) HostDetail(ctx context.Context, hostID int) (*schemas.HostDetail, error) {
	f.mu.Lock()
	fn := f.hostDetailFn
	f.mu.Unlock()
	if fn == nil {
		return nil, errors.New("no host detail scripted")
	}
	return fn(hostID)
}

func (f *fakeSyncAPI) setSnapshotFn(fn func(ctx context.Context) (*schemas.Snapshot, error)) {
	f.mu.Lock()
	f.snapshotFn = fn
	f.mu.Unlock()
}

// recordBinder captures published slots for assertions.
type recordBinder struct {
	mu      sync.Mutex
	entries []Slot
}

func (b *recordBinder) Publish(slot Slot, value interface{}) {
	b.mu.Lock()
	b.entries = append(b.entries, slot)
	b.mu.Unlock()
}

func (b *recordBinder) slots() []Slot {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Slot, len(b.entries))
	copy(out, b.entries)
	return out
}

func (b *recordBinder) reset() {
	b.mu.Lock()
	b.entries = nil
	b.mu.Unlock()
}

// chanFeed is a scriptable duplex snapshot channel.
type chanFeed struct {
	snaps     chan *schemas.Snapshot
	closeOnce sync.Once
	closed    chan struct{}
}

func newChanFeed() *chanFeed {
	return &chanFeed{snaps: make(chan *schemas.Snapshot), closed: make(chan struct{})}
}

func (f *chanFeed) Next() (*schemas.Snapshot, error) {
	select {
	case snap := <-f.snaps:
		return snap, nil
	case <-f.closed:
		return nil, errors.New("feed closed")
	}
}

func (f *chanFeed) Close() error {
	f.closeOnce.Do(func() { close(f.closed) })
	return nil
}

func consoleTestConfig() config.ConsoleConfig {
	return config.ConsoleConfig{
		Transport:      config.TransportPoll,
		ReconnectDelay: 5 * time.Millisecond,
		PollInterval:   5 * time.Millisecond,
		ToolPageSize:   2,
		HydrationRate:  10000,
	}
}

func TestSynchronizerApply(t *testing.T) {
	defer goleak.VerifyNone(t)

	hosts := []schemas.Host{{ID: 1, IP: "192.168.1.10"}}

	t.Run("publishes exactly the changed slots", func(t *testing.T) {
		binder := &recordBinder{}
		s := NewSynchronizer(consoleTestConfig(), &fakeSyncAPI{}, nil, binder, zap.NewNop())

		s.Apply(context.Background(), &schemas.Snapshot{
			Hosts:   hosts,
			Summary: &schemas.WorkspaceSummary{Hosts: 1},
		})

		assert.ElementsMatch(t, []Slot{SlotHosts, SlotSummary}, binder.slots())
		assert.Equal(t, hosts, s.WorkspaceView().Hosts)
	})

	t.Run("a snapshot omitting hosts leaves the rendered set alone", func(t *testing.T) {
		binder := &recordBinder{}
		s := NewSynchronizer(consoleTestConfig(), &fakeSyncAPI{}, nil, binder, zap.NewNop())

		s.Apply(context.Background(), &schemas.Snapshot{Hosts: hosts})
		binder.reset()

		s.Apply(context.Background(), &schemas.Snapshot{Jobs: []schemas.Job{{ID: 2}}})
		assert.NotContains(t, binder.slots(), SlotHosts)

		if diff := cmp.Diff(hosts, s.WorkspaceView().Hosts); diff != "" {
			t.Errorf("hosts drifted (-want +got):\n%s", diff)
		}
	})

	t.Run("re-applying the same snapshot is idempotent", func(t *testing.T) {
		s := NewSynchronizer(consoleTestConfig(), &fakeSyncAPI{}, nil, NopBinder(), zap.NewNop())
		snap := &schemas.Snapshot{Hosts: hosts, Jobs: []schemas.Job{{ID: 2}}}

		s.Apply(context.Background(), snap)
		before := s.WorkspaceView()
		s.Apply(context.Background(), snap)

		if diff := cmp.Diff(before, s.WorkspaceView()); diff != "" {
			t.Errorf("state changed on re-apply (-want +got):\n%s", diff)
		}
	})
}

func TestSynchronizerToolHydration(t *testing.T) {
	defer goleak.VerifyNone(t)

	catalog := []schemas.Tool{
		{ToolID: "nikto-basic"}, {ToolID: "gobuster-dir"}, {ToolID: "ssh-audit"},
	}
	pageFn := func(catalog []schemas.Tool) func(string, int, int) (*schemas.ToolPage, error) {
		return func(service string, limit, offset int) (*schemas.ToolPage, error) {
			end := offset + limit
			if end > len(catalog) {
				end = len(catalog)
			}
			page := &schemas.ToolPage{
				Tools:   catalog[offset:end],
				Offset:  offset,
				Limit:   limit,
				Total:   len(catalog),
				HasMore: end < len(catalog),
			}
			if page.HasMore {
				next := end
				page.NextOffset = &next
			}
			return page, nil
		}
	}

	api := &fakeSyncAPI{toolPageFn: pageFn(catalog)}
	s := NewSynchronizer(consoleTestConfig(), api, nil, NopBinder(), zap.NewNop())

	// The first snapshot embeds a partial page; hydration pulls the rest.
	next := 1
	s.Apply(context.Background(), &schemas.Snapshot{
		Tools:     catalog[:1],
		ToolsMeta: &schemas.ToolsMeta{Offset: 0, Limit: 1, Total: 3, HasMore: true, NextOffset: &next},
	})

	require.Eventually(t, func() bool {
		return len(s.WorkspaceView().Tools) == 3
	}, 2*time.Second, time.Millisecond, "catalog should hydrate to the full set")

	// Once hydrated, embedded partial lists are discarded for content.
	s.Apply(context.Background(), &schemas.Snapshot{
		Tools:     catalog[:1],
		ToolsMeta: &schemas.ToolsMeta{Total: 3},
	})
	assert.Len(t, s.WorkspaceView().Tools, 3)

	// A total mismatch triggers exactly one asynchronous re-hydration.
	grown := append(catalog, schemas.Tool{ToolID: "enum4linux"})
	api.mu.Lock()
	api.toolPageFn = pageFn(grown)
	api.mu.Unlock()

	s.Apply(context.Background(), &schemas.Snapshot{
		ToolsMeta: &schemas.ToolsMeta{Total: 4},
	})
	require.Eventually(t, func() bool {
		return len(s.WorkspaceView().Tools) == 4
	}, 2*time.Second, time.Millisecond, "total mismatch should re-hydrate")
}

func TestSynchronizerHostDetail(t *testing.T) {
	defer goleak.VerifyNone(t)

	t.Run("selection schedules a follow-up fetch", func(t *testing.T) {
		api := &fakeSyncAPI{hostDetailFn: func(hostID int) (*schemas.HostDetail, error) {
			return &schemas.HostDetail{Host: schemas.Host{ID: hostID, IP: "10.0.0.7"}}, nil
		}}
		s := NewSynchronizer(consoleTestConfig(), api, nil, NopBinder(), zap.NewNop())

		s.SelectHost(context.Background(), 7)
		require.Eventually(t, func() bool {
			return s.HostDetailView() != nil
		}, 2*time.Second, time.Millisecond)
		assert.Equal(t, 7, s.HostDetailView().Host.ID)
	})

	t.Run("a stale fetch result is dropped after reselection", func(t *testing.T) {
		release := make(chan struct{})
		api := &fakeSyncAPI{hostDetailFn: func(hostID int) (*schemas.HostDetail, error) {
			if hostID == 1 {
				<-release
			}
			return &schemas.HostDetail{Host: schemas.Host{ID: hostID}}, nil
		}}
		s := NewSynchronizer(consoleTestConfig(), api, nil, NopBinder(), zap.NewNop())

		s.SelectHost(context.Background(), 1)
		s.SelectHost(context.Background(), 2)
		close(release)

		// The slow host-1 result must never surface; the next snapshot
		// application retries for host 2.
		require.Eventually(t, func() bool {
			s.Apply(context.Background(), &schemas.Snapshot{})
			detail := s.HostDetailView()
			return detail != nil && detail.Host.ID == 2
		}, 2*time.Second, time.Millisecond)
	})

	t.Run("clearing the selection drops the detail", func(t *testing.T) {
		api := &fakeSyncAPI{hostDetailFn: func(hostID int) (*schemas.HostDetail, error) {
			return &schemas.HostDetail{Host: schemas.Host{ID: hostID}}, nil
		}}
		s := NewSynchronizer(consoleTestConfig(), api, nil, NopBinder(), zap.NewNop())

		s.SelectHost(context.Background(), 3)
		require.Eventually(t, func() bool { return s.HostDetailView() != nil }, 2*time.Second, time.Millisecond)

		s.ClearHostSelection()
		assert.Nil(t, s.HostDetailView())
	})
}

func TestSynchronizerPolling(t *testing.T) {
	defer goleak.VerifyNone(t)

	api := &fakeSyncAPI{}
	api.setSnapshotFn(func(ctx context.Context) (*schemas.Snapshot, error) {
		return nil, errors.New("backend down")
	})

	s := NewSynchronizer(consoleTestConfig(), api, nil, NopBinder(), zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	runDone := make(chan error, 1)
	go func() { runDone <- s.Run(ctx) }()

	// Failed polls flip the indicator but never change the cadence.
	require.Eventually(t, func() bool {
		return s.StatusNow() == StatusPollingError
	}, 2*time.Second, time.Millisecond)

	hosts := []schemas.Host{{ID: 1, IP: "192.168.1.10"}}
	api.setSnapshotFn(func(ctx context.Context) (*schemas.Snapshot, error) {
		return &schemas.Snapshot{Hosts: hosts}, nil
	})

	require.Eventually(t, func() bool {
		return s.StatusNow() == StatusPolling && len(s.WorkspaceView().Hosts) == 1
	}, 2*time.Second, time.Millisecond, "the next tick should recover without backoff")

	cancel()
	select {
	case err := <-runDone:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}

func TestSynchronizerLiveFeed(t *testing.T) {
	defer goleak.VerifyNone(t)

	cfg := consoleTestConfig()
	cfg.Transport = config.TransportWebsocket

	var dialMu sync.Mutex
	var dials int
	current := newChanFeed()
	dial := func(ctx context.Context) (Feed, error) {
		dialMu.Lock()
		defer dialMu.Unlock()
		dials++
		current = newChanFeed()
		return current, nil
	}

	s := NewSynchronizer(cfg, &fakeSyncAPI{}, dial, NopBinder(), zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	runDone := make(chan error, 1)
	go func() { runDone <- s.Run(ctx) }()

	require.Eventually(t, func() bool {
		return s.StatusNow() == StatusLive
	}, 2*time.Second, time.Millisecond)

	dialMu.Lock()
	feed := current
	dialMu.Unlock()

	// A pushed snapshot lands in the mirror.
	select {
	case feed.snaps <- &schemas.Snapshot{Hosts: []schemas.Host{{ID: 5}}}:
	case <-time.After(2 * time.Second):
		t.Fatal("feed was never read")
	}
	require.Eventually(t, func() bool {
		return len(s.WorkspaceView().Hosts) == 1
	}, 2*time.Second, time.Millisecond)

	// Breaking the channel schedules a fixed-delay reconnect, forever.
	feed.Close()
	require.Eventually(t, func() bool {
		dialMu.Lock()
		defer dialMu.Unlock()
		return dials >= 2
	}, 2*time.Second, time.Millisecond, "the synchronizer should redial after a feed break")

	cancel()
	select {
	case err := <-runDone:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}

func TestSynchronizerReconnectOnDialFailure(t *testing.T) {
	defer goleak.VerifyNone(t)

	cfg := consoleTestConfig()
	cfg.Transport = config.TransportWebsocket

	var dialMu sync.Mutex
	var dials int
	dial := func(ctx context.Context) (Feed, error) {
		dialMu.Lock()
		defer dialMu.Unlock()
		dials++
		return nil, errors.New("connection refused")
	}

	s := NewSynchronizer(cfg, &fakeSyncAPI{}, dial, NopBinder(), zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	runDone := make(chan error, 1)
	go func() { runDone <- s.Run(ctx) }()

	require.Eventually(t, func() bool {
		return s.StatusNow() == StatusReconnecting
	}, 2*time.Second, time.Millisecond)

	// No cap and no backoff: attempts keep coming at the fixed delay.
	require.Eventually(t, func() bool {
		dialMu.Lock()
		defer dialMu.Unlock()
		return dials >= 3
	}, 2*time.Second, time.Millisecond)

	cancel()
	select {
	case err := <-runDone:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}
