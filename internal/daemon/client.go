package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/coder/websocket"
)

// WatchEvents connects to a running daemon's event stream and invokes fn
// for every event until ctx is canceled or the connection drops. The caller
// owns reconnect policy; a clean server shutdown returns nil.
func WatchEvents(ctx context.Context, addr string, logger *slog.Logger, fn func(Event)) error {
	url := fmt.Sprintf("ws://%s/v1/events", addr)

	c, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("daemon: connecting to %s: %w", url, err)
	}
	defer c.Close(websocket.StatusInternalError, "watch ended")

	logger.Debug("event stream connected", slog.String("url", url))

	for {
		_, data, err := c.Read(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.Close(websocket.StatusNormalClosure, "")

				return nil
			}

			var closeErr websocket.CloseError
			if errors.As(err, &closeErr) && closeErr.Code == websocket.StatusNormalClosure {
				return nil
			}

			return fmt.Errorf("daemon: reading event stream: %w", err)
		}

		var ev Event
		if err := json.Unmarshal(data, &ev); err != nil {
			logger.Warn("skipping malformed event", slog.Any("error", err))

			continue
		}

		fn(ev)
	}
}
