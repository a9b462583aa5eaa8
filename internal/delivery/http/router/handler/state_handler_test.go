package handler

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"storefront/internal/domain/entity"
	"storefront/internal/state"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateHandler_GetState(t *testing.T) {
	store := state.New()
	store.Update(func(next *state.Snapshot) { next.Language = entity.LanguageEN })

	h := NewStateHandler(store, newDiscardLogger())
	e := newTestEcho()
	e.GET("/state", h.GetState)

	rec := serve(e, httptest.NewRequest(http.MethodGet, "/state", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	snap := envelope[map[string]any](t, rec)
	assert.Equal(t, "EN", snap["language"])
	assert.EqualValues(t, store.Snapshot().Version, snap["version"])
}

// nextSnapshot reads events until the next snapshot payload.
func nextSnapshot(t *testing.T, reader *bufio.Reader) map[string]any {
	t.Helper()

	for {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		if data, ok := strings.CutPrefix(line, "data: "); ok {
			var snap map[string]any
			require.NoError(t, json.Unmarshal([]byte(data), &snap))

			return snap
		}
	}
}

func TestStateHandler_StreamPushesUpdates(t *testing.T) {
	store := state.New()
	h := NewStateHandler(store, newDiscardLogger())
	e := newTestEcho()
	e.GET("/state/stream", h.Stream)

	srv := httptest.NewServer(e)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/state/stream", nil)
	require.NoError(t, err)
	res, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer res.Body.Close()

	assert.Equal(t, "text/event-stream", res.Header.Get("Content-Type"))
	reader := bufio.NewReader(res.Body)

	initial := nextSnapshot(t, reader)
	assert.EqualValues(t, store.Snapshot().Version, initial["version"])

	published := store.Update(func(next *state.Snapshot) { next.Unread = 3 })

	pushed := nextSnapshot(t, reader)
	assert.EqualValues(t, published.Version, pushed["version"])
	assert.EqualValues(t, 3, pushed["unread"])
}
