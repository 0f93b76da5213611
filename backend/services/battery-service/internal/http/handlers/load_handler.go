package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"batterypower/backend/services/battery-service/internal/service"
)

// NewLoadHandler returns POST /battery/load handler.
func NewLoadHandler(svc *service.TelemetryService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n, err := svc.LoadFromSource(r.Context())
		if err != nil {
			writeError(w, err.Error())
			return
		}
		logger.Info("battery data file loaded", zap.Int("rows", n))
		writeMessage(w, "Battery data loaded from CSV")
	}
}
