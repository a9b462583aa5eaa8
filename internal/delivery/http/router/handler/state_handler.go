package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"storefront/internal/delivery/http/response"
	"storefront/internal/errors"
	"storefront/internal/state"

	"github.com/labstack/echo/v4"
)

// keepAliveInterval is how often an idle stream receives a comment line.
const keepAliveInterval = 15 * time.Second

// StateHandler exposes the shared snapshot to the rendering layer.
type StateHandler struct {
	store  *state.Store
	logger *slog.Logger
}

func NewStateHandler(store *state.Store, logger *slog.Logger) *StateHandler {
	return &StateHandler{store: store, logger: logger}
}

// GetState returns the current snapshot.
func (h *StateHandler) GetState(c echo.Context) error {
	return response.OK(c, h.store.Snapshot())
}

// Stream pushes every published snapshot as a server-sent event. Bursts of
// updates are coalesced so a slow reader only sees the latest version.
func (h *StateHandler) Stream(c echo.Context) error {
	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set("Cache-Control", "no-cache")
	res.Header().Set("Connection", "keep-alive")
	res.WriteHeader(http.StatusOK)

	snapshots, cancel := h.store.Subscribe()
	defer cancel()

	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := fmt.Fprint(res, ": keep-alive\n\n"); err != nil {
				return nil
			}
			res.Flush()
		case snap, ok := <-snapshots:
			if !ok {
				return nil
			}
			if err := writeSnapshotEvent(res, snap); err != nil {
				log(ctx, h.logger).Debug("state stream closed", slog.Any("error", err))
				return nil
			}
			res.Flush()
		}
	}
}

func writeSnapshotEvent(res *echo.Response, snap *state.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return errors.Wrap(err, "encode snapshot")
	}

	_, err = fmt.Fprintf(res, "id: %d\nevent: snapshot\ndata: %s\n\n", snap.Version, data)

	return errors.Wrap(err, "write snapshot event")
}
