package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"batterypower/backend/services/battery-service/internal/service"
)

const maxStatusBody = 1 << 20

// StatusHandler handles battery status updates.
type StatusHandler struct {
	service *service.TelemetryService
	logger  *zap.Logger
}

// NewStatusHandler returns handler.
func NewStatusHandler(service *service.TelemetryService, logger *zap.Logger) *StatusHandler {
	return &StatusHandler{
		service: service,
		logger:  logger,
	}
}

// ServeHTTP handles POST /battery/status.
func (h *StatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	input, err := service.DecodeStatusInput(http.MaxBytesReader(w, r.Body, maxStatusBody))
	if err != nil {
		writeError(w, err.Error())
		return
	}

	if _, err := h.service.RecordReading(r.Context(), input); err != nil {
		writeError(w, err.Error())
		return
	}

	writeMessage(w, "Battery status updated")
}
