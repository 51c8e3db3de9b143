package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

const defaultJournalLimit = 50

// Statistics holds app stats for ops.
type Statistics struct {
	version  string
	runtime  string
	platform string
	called   uint64
	started  time.Time
}

// APIHandler serves the read-only ops endpoints. It never touches the
// register itself, only counters and the bolt archive.
type APIHandler struct {
	logger     *zap.Logger
	config     *Config
	stats      *Statistics
	clock      Clocker
	idsHandler UIDHandler
	session    *SessionStats
	archive    SnapshotArchiver
}

// NewAPIHandler provides a new instance of APIHandler. The archive is nil when the journal is disabled.
func NewAPIHandler(logger *zap.Logger, config *Config, stats *Statistics, clock Clocker, ids UIDHandler, session *SessionStats, archive SnapshotArchiver) *APIHandler {
	return &APIHandler{
		logger:     logger,
		config:     config,
		stats:      stats,
		clock:      clock,
		idsHandler: ids,
		session:    session,
		archive:    archive,
	}
}

func (api *APIHandler) sendError(w http.ResponseWriter, requestID string, status int, message string) {
	if err := writeJSON(w, status, failure(requestID, status, message)); err != nil {
		api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
	}
}

func (api *APIHandler) send(w http.ResponseWriter, reply *OpsReply) {
	if err := writeJSON(w, reply.Status, reply); err != nil {
		api.logger.Error("failed to send response", zap.String("request.id", reply.RequestID), zap.Error(err))
	}
}

// Index provides same details like `Status` handler by redirecting the request.
func (api *APIHandler) Index(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	http.Redirect(w, r, "/ops/status", http.StatusSeeOther)
}

// Status provides basics details about the running session.
func (api *APIHandler) Status(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requestID := RequestIDFrom(r.Context())
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	if err := json.NewEncoder(w).Encode(
		map[string]interface{}{
			"requestid": requestID,
			"status":    fmt.Sprintf("up & running since %.0f mins", api.clock.Now().Sub(api.stats.started).Minutes()),
			"message":   "Book register session is running.",
		},
	); err != nil {
		api.logger.Error("failed to send status response", zap.String("request.id", requestID), zap.Error(err))
	}
}

// GetStatistics provides the app details and the session counters. The
// called value excludes the current request.
func (api *APIHandler) GetStatistics(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requestID := RequestIDFrom(r.Context())
	data := map[string]interface{}{
		"app.version":  api.stats.version,
		"app.platform": api.stats.platform,
		"go.version":   api.stats.runtime,
		"goroutines":   runtime.NumGoroutine(),
		"called":       atomic.LoadUint64(&api.stats.called) - 1,
		"started":      api.stats.started.Format(time.RFC1123),
		"uptime":       fmt.Sprintf("%.0f mins", api.clock.Now().Sub(api.stats.started).Minutes()),
		"session":      api.session.Values(),
	}
	api.send(w, success(requestID, "Statistics fetched successfully.", data))
}

// GetConfigs displays the running configuration with secrets masked.
func (api *APIHandler) GetConfigs(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requestID := RequestIDFrom(r.Context())
	config := *api.config
	if config.Redis.Password != "" {
		config.Redis.Password = "***"
	}
	api.send(w, success(requestID, "Configurations fetched successfully.", config))
}

// GetSnapshots lists the archived saves without their content.
func (api *APIHandler) GetSnapshots(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requestID := RequestIDFrom(r.Context())
	if api.archive == nil {
		api.sendError(w, requestID, http.StatusNotFound, "journal is disabled")
		return
	}
	snaps, err := api.archive.ListSnapshots(r.Context())
	if err != nil {
		api.logger.Error("failed to list snapshots", zap.String("request.id", requestID), zap.Error(err))
		api.sendError(w, requestID, http.StatusInternalServerError, "failed to list snapshots")
		return
	}
	api.send(w, listing(requestID, "Snapshots fetched successfully.", snaps))
}

// GetOneSnapshot returns the register text of one archived save.
func (api *APIHandler) GetOneSnapshot(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	requestID := RequestIDFrom(r.Context())
	if api.archive == nil {
		api.sendError(w, requestID, http.StatusNotFound, "journal is disabled")
		return
	}
	id := ps.ByName("id")
	if !api.idsHandler.IsValid(id, SnapshotIDPrefix) {
		api.logger.Error("snapshot id provided is not valid", zap.String("snapshot.id", id), zap.String("request.id", requestID))
		api.sendError(w, requestID, http.StatusBadRequest, "snapshot id provided is not valid")
		return
	}
	snap, err := api.archive.GetSnapshot(r.Context(), id)
	if errors.Is(err, ErrSnapshotNotFound) {
		api.sendError(w, requestID, http.StatusNotFound, "snapshot does not exist")
		return
	}
	if err != nil {
		api.logger.Error("failed to get snapshot", zap.String("snapshot.id", id), zap.String("request.id", requestID), zap.Error(err))
		api.sendError(w, requestID, http.StatusInternalServerError, "failed to get snapshot")
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=UTF-8")
	w.WriteHeader(http.StatusOK)
	if _, err = w.Write(snap.Content); err != nil {
		api.logger.Error("failed to send snapshot content", zap.String("request.id", requestID), zap.Error(err))
	}
}

// GetJournal lists the latest change events. Use `?limit=N` to bound the result.
func (api *APIHandler) GetJournal(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requestID := RequestIDFrom(r.Context())
	if api.archive == nil {
		api.sendError(w, requestID, http.StatusNotFound, "journal is disabled")
		return
	}
	limit := defaultJournalLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			api.sendError(w, requestID, http.StatusBadRequest, "limit must be a non negative integer")
			return
		}
		limit = n
	}
	events, err := api.archive.ListJournal(r.Context(), limit)
	if err != nil {
		api.logger.Error("failed to list journal", zap.String("request.id", requestID), zap.Error(err))
		api.sendError(w, requestID, http.StatusInternalServerError, "failed to list journal")
		return
	}
	api.send(w, listing(requestID, "Journal fetched successfully.", events))
}

// NotFound is the handler for unknown routes.
func (api *APIHandler) NotFound() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		api.sendError(w, RequestIDFrom(r.Context()), http.StatusNotFound, "resource not found")
	})
}

func (api *APIHandler) OpsHandlerWrapper(h http.Handler) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		h.ServeHTTP(w, r)
	}
}
