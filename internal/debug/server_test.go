package debug

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/novaengine/nova/internal/engine"
)

type fixedStatus engine.Status

func (s fixedStatus) Status() engine.Status { return engine.Status(s) }

func TestRouter_SceneStatus(t *testing.T) {
	src := fixedStatus{Name: "Demo", Configured: true, Scene: "menu", SceneState: "Active", Entities: 3, Frames: 42}
	srv := httptest.NewServer(NewRouter(src))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/debug/scene")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var got engine.Status
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, "menu", got.Scene)
	assert.Equal(t, 3, got.Entities)
	assert.Equal(t, uint64(42), got.Frames)
	assert.Nil(t, got.Jobs)
}

func TestRouter_MetricsAndHealth(t *testing.T) {
	srv := httptest.NewServer(NewRouter(fixedStatus{}))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "go_goroutines")

	resp, err = http.Get(srv.URL + "/nope")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestListen(t *testing.T) {
	s, err := Listen("127.0.0.1:0", fixedStatus{}, zaptest.NewLogger(t))
	require.NoError(t, err)

	resp, err := http.Get(fmt.Sprintf("http://%s/healthz", s.Addr()))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	require.NoError(t, s.Shutdown(context.Background()))
}
