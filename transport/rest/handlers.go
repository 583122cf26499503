package rest

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/julienschmidt/httprouter"
)

const defaultResultsLimit = 20

func (that *Server) roomsHandler(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	rooms, err := that.rooms.Rooms(r.Context())
	if err != nil {
		that.logger.Error("failed to snapshot rooms", "error", err)
		http.Error(w, "Service Unavailable", http.StatusServiceUnavailable)
		return
	}

	that.writeJSON(w, rooms)
}

func (that *Server) statsHandler(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	if that.results == nil {
		http.Error(w, "game recording is disabled", http.StatusNotFound)
		return
	}

	stats, err := that.results.Stats(r.Context(), params.ByName("username"))
	if err != nil {
		that.logger.Error("failed to get stats", "username", params.ByName("username"), "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	that.writeJSON(w, stats)
}

func (that *Server) recentResultsHandler(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if that.results == nil {
		http.Error(w, "game recording is disabled", http.StatusNotFound)
		return
	}

	limit := int64(defaultResultsLimit)
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed <= 0 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	results, err := that.results.ListRecent(r.Context(), limit)
	if err != nil {
		that.logger.Error("failed to list results", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	that.writeJSON(w, results)
}

func (that *Server) writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		that.logger.Warn("failed to write response", "error", err)
	}
}
