package http

import (
	"io"
	"log/slog"
	nethttp "net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStreamServer(t *testing.T, upstream *httptest.Server) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	controller := NewStreamController(slog.New(slog.NewTextHandler(io.Discard, nil)))
	controller.baseURL = upstream.URL + "/uc?export=download"

	srv := httptest.NewServer(SetupRouter(nil, controller, ""))
	t.Cleanup(srv.Close)
	return srv
}

func TestStreamProxiesUpstream(t *testing.T) {
	var gotRange, gotID string

	upstream := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		gotRange = r.Header.Get("Range")
		gotID = r.URL.Query().Get("id")
		w.Header().Set("Content-Type", "video/mp4")
		w.Header().Set("Accept-Ranges", "bytes")
		w.WriteHeader(nethttp.StatusPartialContent)
		w.Write([]byte("chunk"))
	}))
	t.Cleanup(upstream.Close)

	srv := newStreamServer(t, upstream)

	req, err := nethttp.NewRequest(nethttp.MethodGet, srv.URL+"/stream/ABC_12-3", nil)
	require.NoError(t, err)
	req.Header.Set("Range", "bytes=0-4")

	resp, err := nethttp.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "ABC_12-3", gotID)
	assert.Equal(t, "bytes=0-4", gotRange)
	assert.Equal(t, nethttp.StatusPartialContent, resp.StatusCode)
	assert.Equal(t, "video/mp4", resp.Header.Get("Content-Type"))

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "chunk", string(body))
}

func TestStreamRejectsBadFileID(t *testing.T) {
	upstream := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		t.Error("upstream must not be reached for an invalid file id")
	}))
	t.Cleanup(upstream.Close)

	srv := newStreamServer(t, upstream)

	resp, err := nethttp.Get(srv.URL + "/stream/bad!id")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, nethttp.StatusBadRequest, resp.StatusCode)
}
