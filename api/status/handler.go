package status

import (
	"encoding/json"
	"net/http"

	"github.com/meditrack/lifeline/core/alerts"
	"github.com/meditrack/lifeline/core/connection"
	"github.com/meditrack/lifeline/core/dispatch"
)

// NewHandler exposes read-only snapshots of the real-time core for UI
// surfaces and operators:
//
//	GET /api/alerts
//	GET /api/dispatch/requests
//	GET /api/dispatch/ambulances
//	GET /api/connection
func NewHandler(store *alerts.Store, mgr *dispatch.Manager, conn *connection.Manager) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/api/alerts", get(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, struct {
			Alerts      any `json:"alerts"`
			UnreadCount int `json:"unread_count"`
		}{store.Alerts(), store.UnreadCount()})
	}))
	mux.Handle("/api/dispatch/requests", get(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, mgr.Requests())
	}))
	mux.Handle("/api/dispatch/ambulances", get(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, mgr.Ambulances())
	}))
	mux.Handle("/api/connection", get(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, struct {
			State     string `json:"state"`
			Connected bool   `json:"connected"`
		}{conn.State().String(), conn.IsConnected()})
	}))
	return mux
}

func get(fn http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		fn(w, r)
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
