// File: internal/console/engine.go
package console

import (
	"context"
	"fmt"
	"sync"

	"github.com/periscope-sec/periscope-cli/internal/client"
	"github.com/periscope-sec/periscope-cli/internal/config"
	"go.uber.org/zap"
)

// Engine bundles the synchronizer, the per-process output streams and the
// action table into one console session. It owns all timers it creates and
// tears them down on Close.
type Engine struct {
	cfg    *config.Config
	api    *client.Client
	binder Binder
	logger *zap.Logger

	sync       *Synchronizer
	dispatcher *Dispatcher

	mu     sync.Mutex
	stream *OutputStream // the currently open process view, if any
}

// NewEngine wires a full console session against the configured backend.
func NewEngine(cfg *config.Config, binder Binder, logger *zap.Logger) *Engine {
	api := client.New(cfg.Server, logger)
	dial := func(ctx context.Context) (Feed, error) {
		feed, err := client.DialSnapshotFeed(ctx, cfg.WebsocketURL(), logger)
		if err != nil {
			return nil, err
		}
		return feed, nil
	}

	e := &Engine{
		cfg:        cfg,
		api:        api,
		binder:     binder,
		logger:     logger.Named("engine"),
		sync:       NewSynchronizer(cfg.Console, api, dial, binder, logger),
		dispatcher: NewDispatcher(),
	}
	e.registerActions()
	return e
}

// Run drives the synchronizer until ctx is cancelled, then closes any open
// process view.
func (e *Engine) Run(ctx context.Context) error {
	defer e.closeStream()
	return e.sync.Run(ctx)
}

// Synchronizer exposes the state mirror owner.
func (e *Engine) Synchronizer() *Synchronizer { return e.sync }

// Dispatcher exposes the action table for the frontend to drive.
func (e *Engine) Dispatcher() *Dispatcher { return e.dispatcher }

// OpenProcess switches the process detail view: the previous stream (if any)
// is closed first, so its refresh timer dies with the view that owned it.
func (e *Engine) OpenProcess(ctx context.Context, processID int) *OutputStream {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.stream != nil {
		e.stream.Close()
	}
	e.stream = OpenProcessStream(ctx, e.cfg.Stream, e.api, e.binder, e.logger, processID)
	return e.stream
}

// CurrentStream returns the open process view, if any.
func (e *Engine) CurrentStream() *OutputStream {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stream
}

func (e *Engine) closeStream() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stream != nil {
		e.stream.Close()
		e.stream = nil
	}
}

// registerActions binds the default handler set. Every operator-facing
// operation of the console core goes through this table.
func (e *Engine) registerActions() {
	e.dispatcher.Register(ActionHostSelect, func(ctx context.Context, p Payload) error {
		hostID, ok := p.Int("host_id")
		if !ok {
			return fmt.Errorf("host.select requires host_id")
		}
		e.sync.SelectHost(ctx, hostID)
		return nil
	})

	e.dispatcher.Register(ActionHostClear, func(ctx context.Context, p Payload) error {
		e.sync.ClearHostSelection()
		return nil
	})

	e.dispatcher.Register(ActionProcessOpen, func(ctx context.Context, p Payload) error {
		processID, ok := p.Int("process_id")
		if !ok {
			return fmt.Errorf("process.open requires process_id")
		}
		e.OpenProcess(ctx, processID)
		return nil
	})

	e.dispatcher.Register(ActionProcessReload, func(ctx context.Context, p Payload) error {
		e.mu.Lock()
		stream := e.stream
		e.mu.Unlock()
		if stream == nil {
			return fmt.Errorf("process.reload requires an open process view")
		}
		stream.Reload()
		return nil
	})

	e.dispatcher.Register(ActionProcessClose, func(ctx context.Context, p Payload) error {
		e.closeStream()
		return nil
	})

	e.dispatcher.Register(ActionApprovalApprove, func(ctx context.Context, p Payload) error {
		approvalID, ok := p.Int("approval_id")
		if !ok {
			return fmt.Errorf("approval.approve requires approval_id")
		}
		_, err := e.api.ApproveApproval(ctx, approvalID, p.Bool("approve_family"), p.Bool("run_now"))
		return err
	})

	e.dispatcher.Register(ActionApprovalReject, func(ctx context.Context, p Payload) error {
		approvalID, ok := p.Int("approval_id")
		if !ok {
			return fmt.Errorf("approval.reject requires approval_id")
		}
		_, err := e.api.RejectApproval(ctx, approvalID, p.String("reason"))
		return err
	})

	e.dispatcher.Register(ActionSchedulerRun, func(ctx context.Context, p Payload) error {
		_, err := e.api.RunScheduler(ctx)
		return err
	})

	e.dispatcher.Register(ActionJobStop, func(ctx context.Context, p Payload) error {
		jobID, ok := p.Int("job_id")
		if !ok {
			return fmt.Errorf("job.stop requires job_id")
		}
		return e.api.StopJob(ctx, jobID)
	})
}
