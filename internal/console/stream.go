// File: internal/console/stream.go
package console

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/periscope-sec/periscope-cli/api/schemas"
	"github.com/periscope-sec/periscope-cli/internal/config"
	"go.uber.org/zap"
)

// StreamAPI is the slice of the backend client the streamer needs.
type StreamAPI interface {
	ProcessOutput(ctx context.Context, processID, offset, maxChars int) (*schemas.ProcessOutput, error)
}

// StreamState is the published view of one process-output stream. Output is
// the full buffer accumulated so far, never a partial chunk.
type StreamState struct {
	ProcessID int
	Command   string
	Status    string
	Offset    int
	Length    int
	Complete  bool
	Output    string
	// LastError is a transient transport error from the most recent fetch;
	// it never invalidates the buffer.
	LastError string
}

// OutputStream incrementally retrieves the output of one backend process.
// The buffer is strictly append-only: each fetch sends the current offset,
// appends the returned chunk and advances the offset to next_offset. The only
// operation that may reset the offset to zero is an explicit Reload.
//
// While the process is incomplete, a fixed-interval timer drives refreshes.
// The timer is owned by the stream and cancelled the moment the process
// completes or the stream is closed; a leaked timer is a defect.
type OutputStream struct {
	cfg    config.StreamConfig
	api    StreamAPI
	binder Binder
	logger *zap.Logger

	runCtx context.Context
	cancel context.CancelFunc
	done   chan struct{}

	mu        sync.Mutex
	processID int
	offset    int
	buf       strings.Builder
	command   string
	status    string
	length    int
	complete  bool
	lastErr   string
	inFlight  bool
	closed    bool
}

// OpenProcessStream opens the output view for one process and starts its
// auto-refresh loop. Opening a stream always begins at offset zero with an
// empty buffer; switching processes means closing this stream and opening a
// new one.
func OpenProcessStream(ctx context.Context, cfg config.StreamConfig, api StreamAPI, binder Binder, logger *zap.Logger, processID int) *OutputStream {
	if binder == nil {
		binder = NopBinder()
	}
	runCtx, cancel := context.WithCancel(ctx)
	s := &OutputStream{
		cfg:       cfg,
		api:       api,
		binder:    binder,
		logger:    logger.Named("output_stream").With(zap.Int("process_id", processID)),
		runCtx:    runCtx,
		cancel:    cancel,
		done:      make(chan struct{}),
		processID: processID,
	}
	go s.run()
	return s
}

// run performs the initial fetch, then refreshes on a fixed interval until
// the process completes or the stream closes. The loop is synchronous, so
// interval cycles can never pile up behind a slow fetch; a cycle that would
// overlap an in-flight manual refresh is skipped by the guard in fetch.
func (s *OutputStream) run() {
	defer close(s.done)

	s.fetch()
	if s.finished() {
		return
	}

	ticker := time.NewTicker(s.cfg.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.runCtx.Done():
			return
		case <-ticker.C:
			s.fetch()
			if s.finished() {
				return
			}
		}
	}
}

// fetch retrieves the next chunk at the recorded offset. A failed fetch
// leaves the buffer untouched and surfaces a transient error; the next cycle
// retries. A fetch already in flight causes this one to be skipped entirely.
func (s *OutputStream) fetch() {
	s.mu.Lock()
	if s.inFlight || s.closed {
		s.mu.Unlock()
		return
	}
	s.inFlight = true
	offset := s.offset
	processID := s.processID
	s.mu.Unlock()

	out, err := s.api.ProcessOutput(s.runCtx, processID, offset, s.cfg.MaxChars)

	s.mu.Lock()
	s.inFlight = false
	if err != nil {
		if s.runCtx.Err() != nil {
			s.mu.Unlock()
			return
		}
		s.lastErr = err.Error()
		state := s.stateLocked()
		s.mu.Unlock()

		s.logger.Warn("Output fetch failed", zap.Error(err))
		s.binder.Publish(SlotProcessOutput, state)
		return
	}

	s.lastErr = ""
	if s.offset == offset {
		s.buf.WriteString(out.OutputChunk)
		// The cursor is monotonic: never regress, never trust a smaller
		// next_offset than what we already hold.
		if out.NextOffset > s.offset {
			s.offset = out.NextOffset
		}
		s.command = out.Command
		s.status = out.Status
		s.length = out.OutputLength
		s.complete = out.Completed
	}
	// else: a Reload reset the cursor while this fetch was in flight; the
	// stale chunk is discarded rather than appended out of order.
	state := s.stateLocked()
	s.mu.Unlock()

	s.binder.Publish(SlotProcessOutput, state)
}

// Reload resets the cursor to zero, clears the buffer and fetches once. This
// is the only path that may move the offset backwards, and it also works
// after completion (a manual re-fetch of an immutable process).
func (s *OutputStream) Reload() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.offset = 0
	s.buf.Reset()
	s.complete = false
	s.lastErr = ""
	s.mu.Unlock()

	go s.fetch()
}

// Refresh triggers one out-of-cycle fetch, subject to the in-flight guard.
func (s *OutputStream) Refresh() {
	go s.fetch()
}

// Close cancels the auto-refresh timer immediately and releases the stream.
// Safe to call more than once.
func (s *OutputStream) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.cancel()
}

// Done is closed once the refresh loop has fully stopped.
func (s *OutputStream) Done() <-chan struct{} { return s.done }

// State returns the current published view of the stream.
func (s *OutputStream) State() StreamState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

func (s *OutputStream) stateLocked() StreamState {
	return StreamState{
		ProcessID: s.processID,
		Command:   s.command,
		Status:    s.status,
		Offset:    s.offset,
		Length:    s.length,
		Complete:  s.complete,
		Output:    s.buf.String(),
		LastError: s.lastErr,
	}
}

func (s *OutputStream) finished() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.complete || s.closed
}
