package main

import (
	"net/http"
	"net/http/pprof"

	"github.com/julienschmidt/httprouter"
)

// SetupRoutes enforces the ops routes.
func (api *APIHandler) SetupRoutes(router *httprouter.Router, m *Middlewares) *httprouter.Router {
	router.RedirectTrailingSlash = true
	router.NotFound = api.NotFound()
	router.GET("/", m.Chain(api.Index))
	router.GET("/ops/status", m.Chain(api.Status))
	router.GET("/ops/stats", m.Chain(api.GetStatistics))
	router.GET("/ops/configs", m.Chain(api.GetConfigs))
	router.GET("/ops/snapshots", m.Chain(api.GetSnapshots))
	router.GET("/ops/snapshots/:id", m.Chain(api.GetOneSnapshot))
	router.GET("/ops/journal", m.Chain(api.GetJournal))

	if api.config.Ops.ProfilerEnable {
		router.GET("/ops/debug/pprof/", m.Chain(api.OpsHandlerWrapper(http.HandlerFunc(pprof.Index))))
		router.GET("/ops/debug/pprof/profile", m.Chain(api.OpsHandlerWrapper(http.HandlerFunc(pprof.Profile))))
		router.GET("/ops/debug/pprof/trace", m.Chain(api.OpsHandlerWrapper(http.HandlerFunc(pprof.Trace))))
		router.GET("/ops/debug/pprof/symbol", m.Chain(api.OpsHandlerWrapper(http.HandlerFunc(pprof.Symbol))))
		router.GET("/ops/debug/pprof/cmdline", m.Chain(api.OpsHandlerWrapper(http.HandlerFunc(pprof.Cmdline))))
		router.GET("/ops/debug/pprof/heap", m.Chain(api.OpsHandlerWrapper(pprof.Handler("heap"))))
		router.GET("/ops/debug/pprof/goroutine", m.Chain(api.OpsHandlerWrapper(pprof.Handler("goroutine"))))
	}
	return router
}
