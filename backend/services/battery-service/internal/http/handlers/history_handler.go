package handlers

import (
	"net/http"

	"batterypower/backend/services/battery-service/internal/service"
)

// NewHistoryHandler returns GET /battery/history?delta= handler.
func NewHistoryHandler(svc *service.TelemetryService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		readings, err := svc.History(r.Context(), r.URL.Query().Get("delta"))
		if err != nil {
			writeError(w, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, readings)
	}
}
