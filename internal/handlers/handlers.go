package handlers

import (
	"net/http"
	"time"

	jsoniter "github.com/json-iterator/go"

	"wakie/go-backend/internal/config"
	"wakie/go-backend/internal/models"
	"wakie/go-backend/internal/services"
	"wakie/go-backend/pkg/log"
)

const controlTokenHeader = "X-Control-Token"

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

type thresholdUpdateRequest struct {
	EarThreshold *float64 `json:"ear_threshold"`
}

type thresholdView struct {
	config.Thresholds
	EarMin float64 `json:"ear_threshold_min"`
	EarMax float64 `json:"ear_threshold_max"`
}

func newThresholdView(t config.Thresholds) thresholdView {
	return thresholdView{Thresholds: t, EarMin: config.MinEarThreshold, EarMax: config.MaxEarThreshold}
}

// Handlers serves the local HTTP surface: health, threshold control,
// metrics and the control WebSocket.
type Handlers struct {
	monitor     *services.Monitor
	control     *ThresholdControl
	metrics     *services.Metrics
	hub         *Hub
	corsOrigins string
	version     string
}

func NewHandlers(monitor *services.Monitor, control *ThresholdControl, metrics *services.Metrics, hub *Hub, corsOrigins, version string) *Handlers {
	return &Handlers{
		monitor:     monitor,
		control:     control,
		metrics:     metrics,
		hub:         hub,
		corsOrigins: corsOrigins,
		version:     version,
	}
}

func (h *Handlers) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/ws", h.hub.ServeWS)
	mux.HandleFunc("/api/health", h.Health)
	mux.HandleFunc("/api/thresholds", h.Thresholds)
	if h.metrics != nil {
		mux.Handle("/metrics", h.metrics.Handler())
	}

	return mux
}

func (h *Handlers) enableCORS(w http.ResponseWriter) {
	origin := h.corsOrigins
	if origin == "" {
		origin = "*"
	}
	w.Header().Set("Access-Control-Allow-Origin", origin)
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+controlTokenHeader)
	w.Header().Set("Content-Type", "application/json")
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	h.enableCORS(w)
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed", "method_not_allowed")
		return
	}

	writeJSON(w, http.StatusOK, models.HealthStatus{
		Status:        "healthy",
		ActiveClients: h.hub.Count(),
		Uptime:        h.monitor.Uptime(),
		Version:       h.version,
	})
}

// Thresholds returns the active thresholds on GET and updates the EAR
// threshold on POST.
func (h *Handlers) Thresholds(w http.ResponseWriter, r *http.Request) {
	h.enableCORS(w)

	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusNoContent)

	case http.MethodGet:
		writeJSON(w, http.StatusOK, newThresholdView(h.control.Current()))

	case http.MethodPost:
		if !h.control.Authorize(r.Header.Get(controlTokenHeader)) {
			writeError(w, http.StatusUnauthorized, "Invalid control token", "unauthorized")
			return
		}

		var req thresholdUpdateRequest
		if err := jsonAPI.NewDecoder(r.Body).Decode(&req); err != nil || req.EarThreshold == nil {
			writeError(w, http.StatusBadRequest, "Body must be {\"ear_threshold\": number}", "invalid_request")
			return
		}

		h.control.SetEarThreshold(r.Context(), *req.EarThreshold)
		writeJSON(w, http.StatusOK, newThresholdView(h.control.Current()))

	default:
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed", "method_not_allowed")
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := jsonAPI.NewEncoder(w).Encode(v); err != nil {
		log.Warn(log.Fields{"error": err.Error()}, "[handlers.Handlers] response encode failed")
	}
}

func writeError(w http.ResponseWriter, status int, msg, code string) {
	writeJSON(w, status, models.ErrorResponse{
		Error:     msg,
		Timestamp: time.Now().Unix(),
		Code:      code,
	})
}
