package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/lojhan/primehash/internal/command"
	"github.com/lojhan/primehash/internal/store"
)

// StatsAPI is a read-only HTTP view of a store.
type StatsAPI struct {
	store    *store.Store
	counters command.Counters
	logger   *zap.Logger
	router   *mux.Router
}

type entryJSON struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type statsJSON struct {
	store.Stats
	Server map[string]int64 `json:"server,omitempty"`
}

func NewStatsAPI(s *store.Store, counters command.Counters, logger *zap.Logger) *StatsAPI {
	if logger == nil {
		logger = zap.NewNop()
	}
	api := &StatsAPI{
		store:    s,
		counters: counters,
		logger:   logger,
		router:   mux.NewRouter(),
	}
	api.routes()
	return api
}

func (a *StatsAPI) Router() http.Handler {
	return a.router
}

func (a *StatsAPI) routes() {
	a.router.HandleFunc("/health", a.handleHealth()).Methods(http.MethodGet)

	v1 := a.router.PathPrefix("/v1").Subrouter()
	v1.HandleFunc("/stats", a.handleStats()).Methods(http.MethodGet)
	v1.HandleFunc("/entries", a.handleEntries()).Methods(http.MethodGet)
	v1.HandleFunc("/entries/{key:.+}", a.handleEntry()).Methods(http.MethodGet)
}

func (a *StatsAPI) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		a.logger.Warn("failed to encode response", zap.Error(err))
	}
}

func (a *StatsAPI) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a.writeJSON(w, http.StatusOK, map[string]any{
			"status":    "ok",
			"timestamp": time.Now().Unix(),
		})
	}
}

func (a *StatsAPI) handleStats() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := statsJSON{Stats: a.store.Stats()}
		if a.counters != nil {
			resp.Server = a.counters()
		}
		a.writeJSON(w, http.StatusOK, resp)
	}
}

func (a *StatsAPI) handleEntries() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entries := a.store.Entries()
		out := make([]entryJSON, len(entries))
		for i, e := range entries {
			out[i] = entryJSON{Key: e.Key, Value: e.Value}
		}
		a.writeJSON(w, http.StatusOK, out)
	}
}

func (a *StatsAPI) handleEntry() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := mux.Vars(r)["key"]
		value, ok := a.store.Get(key)
		if !ok {
			a.writeJSON(w, http.StatusNotFound, map[string]string{"error": "key not found"})
			return
		}
		a.writeJSON(w, http.StatusOK, entryJSON{Key: key, Value: value})
	}
}
