package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestValues(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, RequestIDFrom(ctx))
	assert.Zero(t, RequestNumFrom(ctx))

	ctx = withRequestNum(withRequestID(ctx, "r:abc"), 7)
	assert.Equal(t, "r:abc", RequestIDFrom(ctx))
	assert.Equal(t, uint64(7), RequestNumFrom(ctx))
}

// TestRemoteHost ensures forwarding headers never override the peer address.
func TestRemoteHost(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/ops/status", nil)
	req.RemoteAddr = "127.0.0.1:54321"
	req.Header.Set("X-Forwarded-For", "10.0.0.9")
	req.Header.Set("X-Real-Ip", "10.0.0.8")
	assert.Equal(t, "127.0.0.1", remoteHost(req))

	req.RemoteAddr = "pipe"
	assert.Equal(t, "pipe", remoteHost(req))
}

func TestOpsReplies(t *testing.T) {
	t.Run("failure", func(t *testing.T) {
		w := httptest.NewRecorder()
		require.NoError(t, writeJSON(w, http.StatusBadRequest, failure("r:1", http.StatusBadRequest, "bad")))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "application/json; charset=UTF-8", w.Header().Get("Content-Type"))
		assert.JSONEq(t, `{"requestid":"r:1","status":400,"message":"bad","data":{}}`, w.Body.String())
	})

	t.Run("listing", func(t *testing.T) {
		w := httptest.NewRecorder()
		reply := listing("r:2", "ok", []string{"a", "b"})
		require.NoError(t, writeJSON(w, reply.Status, reply))
		assert.JSONEq(t, `{"requestid":"r:2","status":200,"message":"ok","total":2,"data":["a","b"]}`, w.Body.String())
	})

	t.Run("success has no total", func(t *testing.T) {
		w := httptest.NewRecorder()
		require.NoError(t, writeJSON(w, http.StatusOK, success("r:3", "ok", nil)))
		assert.NotContains(t, w.Body.String(), "total")
	})
}

func TestClock(t *testing.T) {
	assert.Equal(t, time.UTC, NewClock(true).Now().Location())
	assert.Equal(t, time.Local, NewClock(false).Now().Location())

	ticker := NewClock(true).NewTicker(time.Millisecond)
	defer ticker.Stop()
	select {
	case <-ticker.C:
	case <-time.After(time.Second):
		t.Fatal("clock ticker never fired")
	}
}
