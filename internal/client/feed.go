// File: internal/client/feed.go
package client

import (
	"context"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
	"github.com/periscope-sec/periscope-cli/api/schemas"
	"go.uber.org/zap"
)

const (
	// Time allowed to complete the websocket handshake.
	dialTimeout = 10 * time.Second
	// Maximum snapshot message size allowed from the backend.
	maxSnapshotSize = 8 * 1024 * 1024 // 8MB
)

// SnapshotFeed is one live duplex connection to the backend's snapshot
// channel. The feed is read-only from the console's point of view: the
// backend pushes a full snapshot message at its own cadence.
type SnapshotFeed struct {
	conn   *websocket.Conn
	logger *zap.Logger
}

// DialSnapshotFeed opens the duplex snapshot channel at wsURL.
func DialSnapshotFeed(ctx context.Context, wsURL string, logger *zap.Logger) (*SnapshotFeed, error) {
	dialer := websocket.Dialer{HandshakeTimeout: dialTimeout}
	conn, resp, err := dialer.DialContext(ctx, wsURL, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to dial snapshot feed %s: %w", wsURL, err)
	}
	conn.SetReadLimit(maxSnapshotSize)

	return &SnapshotFeed{
		conn:   conn,
		logger: logger.Named("snapshot_feed"),
	}, nil
}

// Next blocks until the backend pushes the next snapshot message and decodes
// it. A decode failure is returned as an error: the caller must treat the
// channel as closed and reconnect, because the read cursor can no longer be
// trusted mid-stream.
func (f *SnapshotFeed) Next() (*schemas.Snapshot, error) {
	_, payload, err := f.conn.ReadMessage()
	if err != nil {
		return nil, fmt.Errorf("snapshot feed read failed: %w", err)
	}

	var snap schemas.Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		f.logger.Warn("Discarding malformed snapshot message", zap.Error(err), zap.Int("bytes", len(payload)))
		return nil, fmt.Errorf("malformed snapshot message: %w", err)
	}
	return &snap, nil
}

// Close tears down the connection. Safe to call more than once.
func (f *SnapshotFeed) Close() error {
	// Best effort close frame; the backend's feed loop exits on any error.
	_ = f.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	return f.conn.Close()
}
