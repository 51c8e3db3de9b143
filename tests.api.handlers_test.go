package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// serveOps runs the request through the fully chained ops router.
func serveOps(api *APIHandler, method, target string) *httptest.ResponseRecorder {
	router := api.SetupRoutes(httprouter.New(), api.MiddlewaresStack())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(method, target, nil))
	return w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	return resp
}

func TestIndexRedirects(t *testing.T) {
	w := serveOps(newTestAPIHandler(&Config{}, nil), http.MethodGet, "/")
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/ops/status", w.Header().Get("Location"))
}

func TestStatus(t *testing.T) {
	w := serveOps(newTestAPIHandler(&Config{}, nil), http.MethodGet, "/ops/status")
	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	assert.Equal(t, "r:abc", resp["requestid"])
	assert.Equal(t, "up & running since 0 mins", resp["status"])
	assert.Equal(t, "Book register session is running.", resp["message"])
}

func TestGetStatistics(t *testing.T) {
	api := newTestAPIHandler(&Config{}, nil)
	api.session.added.Add(2)
	w := serveOps(api, http.MethodGet, "/ops/stats")
	assert.Equal(t, http.StatusOK, w.Code)

	data := decodeResponse(t, w)["data"].(map[string]interface{})
	assert.Equal(t, "v0.0.1", data["app.version"])
	assert.Equal(t, float64(0), data["called"])
	session := data["session"].(map[string]interface{})
	assert.Equal(t, float64(2), session["added"])
	assert.Equal(t, float64(3), session["loaded"])
}

func TestGetConfigsMasksPassword(t *testing.T) {
	config := &Config{Redis: RedisConfig{Password: "secret"}}
	w := serveOps(newTestAPIHandler(config, nil), http.MethodGet, "/ops/configs")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "secret")
	assert.Contains(t, w.Body.String(), "***")
	assert.Equal(t, "secret", config.Redis.Password)
}

func TestSnapshotsEndpoints(t *testing.T) {
	archive := &MockArchive{}
	require.NoError(t, archive.ArchiveSnapshot(context.Background(), Snapshot{ID: "s:abc", File: "bok.txt", Count: 3, Content: []byte(testBooksText)}))

	t.Run("journal disabled", func(t *testing.T) {
		w := serveOps(newTestAPIHandler(&Config{}, nil), http.MethodGet, "/ops/snapshots")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("list", func(t *testing.T) {
		w := serveOps(newTestAPIHandler(&Config{}, archive), http.MethodGet, "/ops/snapshots")
		assert.Equal(t, http.StatusOK, w.Code)
		resp := decodeResponse(t, w)
		assert.Equal(t, float64(1), resp["total"])
		assert.NotContains(t, w.Body.String(), "Effective Java")
	})

	t.Run("content", func(t *testing.T) {
		w := serveOps(newTestAPIHandler(&Config{}, archive), http.MethodGet, "/ops/snapshots/s:abc")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), "text/plain"))
		assert.Equal(t, testBooksText, w.Body.String())
	})

	t.Run("unknown", func(t *testing.T) {
		w := serveOps(newTestAPIHandler(&Config{}, archive), http.MethodGet, "/ops/snapshots/s:zzz")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("invalid id", func(t *testing.T) {
		api := newTestAPIHandler(&Config{}, archive)
		api.idsHandler = NewMockUIDHandler("abc", false)
		w := serveOps(api, http.MethodGet, "/ops/snapshots/bad")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestGetJournal(t *testing.T) {
	archive := &MockArchive{Events: []ChangeEvent{{ID: "e:1", Kind: CreateEvent}, {ID: "e:2", Kind: SaveEvent}}}

	t.Run("events", func(t *testing.T) {
		w := serveOps(newTestAPIHandler(&Config{}, archive), http.MethodGet, "/ops/journal?limit=10")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, float64(2), decodeResponse(t, w)["total"])
	})

	t.Run("invalid limit", func(t *testing.T) {
		w := serveOps(newTestAPIHandler(&Config{}, archive), http.MethodGet, "/ops/journal?limit=-1")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestNotFound(t *testing.T) {
	w := serveOps(newTestAPIHandler(&Config{}, nil), http.MethodGet, "/v1/books")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "resource not found", decodeResponse(t, w)["message"])
}
