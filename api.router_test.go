package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
)

// TestSetupRoutes ensures all expected endpoints are implemented.
func TestSetupRoutes(t *testing.T) {
	testCases := []struct {
		name        string
		request     *http.Request
		implemented bool
	}{
		{
			"index endpoint",
			httptest.NewRequest(http.MethodGet, "/", nil),
			true,
		},
		{
			"status endpoint",
			httptest.NewRequest(http.MethodGet, "/ops/status", nil),
			true,
		},
		{
			"stats endpoint",
			httptest.NewRequest(http.MethodGet, "/ops/stats", nil),
			true,
		},
		{
			"configs endpoint",
			httptest.NewRequest(http.MethodGet, "/ops/configs", nil),
			true,
		},
		{
			"snapshots endpoint",
			httptest.NewRequest(http.MethodGet, "/ops/snapshots", nil),
			true,
		},
		{
			"single snapshot endpoint",
			httptest.NewRequest(http.MethodGet, "/ops/snapshots/s:cb8f2136-fae4-4200-85d9-3533c7f8c70d", nil),
			true,
		},
		{
			"journal endpoint",
			httptest.NewRequest(http.MethodGet, "/ops/journal", nil),
			true,
		},
		{
			"profiler endpoint",
			httptest.NewRequest(http.MethodGet, "/ops/debug/pprof/", nil),
			true,
		},
		{
			"books endpoint",
			httptest.NewRequest(http.MethodGet, "/v1/books", nil),
			false,
		},
		{
			"write method",
			httptest.NewRequest(http.MethodPost, "/ops/snapshots", nil),
			false,
		},
	}

	archive := &MockArchive{Snapshots: []Snapshot{{ID: "s:cb8f2136-fae4-4200-85d9-3533c7f8c70d"}}}
	api := newTestAPIHandler(&Config{Ops: OpsConfig{ProfilerEnable: true}}, archive)
	router := httprouter.New()
	router.HandleMethodNotAllowed = false
	api.SetupRoutes(router, &Middlewares{})

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, tc.request)
			if tc.implemented {
				assert.NotEqual(t, 404, w.Code)
			} else {
				assert.Equal(t, 404, w.Code)
			}
		})
	}
}

// TestSetupRoutesWithoutProfiler ensures pprof endpoints are only exposed on demand.
func TestSetupRoutesWithoutProfiler(t *testing.T) {
	api := newTestAPIHandler(&Config{}, nil)
	router := api.SetupRoutes(httprouter.New(), &Middlewares{})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ops/debug/pprof/", nil))
	assert.Equal(t, 404, w.Code)
}
