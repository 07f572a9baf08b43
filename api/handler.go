// Package api exposes the ETA calculator over HTTP.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"goyo.dev/transit"
	"goyo.dev/transit/storage"
)

// Handler handles HTTP requests.
type Handler struct {
	calc *transit.Calculator
}

// NewHandler creates a new HTTP handler.
func NewHandler(calc *transit.Calculator) *Handler {
	return &Handler{calc: calc}
}

// RegisterRoutes registers all routes.
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/", h.handleIndex).Methods("GET")
	r.HandleFunc("/healthz", h.handleHealth).Methods("GET")
	r.HandleFunc("/routes/{id}/eta", h.handleRouteETA).Methods("GET")
	r.HandleFunc("/users/{userID}/dashboard", h.handleDashboard).Methods("GET")
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, map[string]string{
		"title": "transit-eta",
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, map[string]string{"status": "ok"})
}

func (h *Handler) handleRouteETA(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	rec, err := h.calc.Store.Route(id)
	if errors.Is(err, storage.ErrNotFound) {
		h.writeError(w, "no such route", http.StatusNotFound)
		return
	}
	if err != nil {
		h.writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	eta, err := h.calc.ETA(r.Context(), transit.NormalizeRoute(rec))
	if errors.Is(err, transit.ErrNoLegs) {
		h.writeError(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	if err != nil {
		h.writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, eta)
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userID"]

	dashboard, err := h.calc.DashboardETAs(r.Context(), userID)
	if err != nil {
		h.writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, dashboard)
}

func (h *Handler) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.writeError(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{Error: message})
}
