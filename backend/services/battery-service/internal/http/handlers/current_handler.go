package handlers

import (
	"errors"
	"net/http"

	"batterypower/backend/services/battery-service/internal/service"
)

// NewCurrentHandler returns GET /battery/current handler.
func NewCurrentHandler(svc *service.TelemetryService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reading, err := svc.Current(r.Context())
		var notFound *service.NotFoundError
		switch {
		case errors.As(err, &notFound):
			writeMessage(w, notFound.Message)
		case err != nil:
			writeError(w, err.Error())
		default:
			writeJSON(w, http.StatusOK, reading.Status())
		}
	}
}
