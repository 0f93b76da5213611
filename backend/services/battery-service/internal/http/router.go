package httpserver

import (
	"net/http"

	"go.uber.org/zap"
)

// Routes defines HTTP endpoints.
type Routes struct {
	Status  http.Handler
	Current http.Handler
	History http.Handler
	Load    http.Handler
	Stream  http.Handler
	Health  http.Handler
	Metrics http.Handler
}

// NewRouter sets up HTTP routing wrapped in request logging and metrics.
func NewRouter(routes Routes, logger *zap.Logger) http.Handler {
	mux := http.NewServeMux()
	if routes.Status != nil {
		mux.Handle("/battery/status", method(http.MethodPost, routes.Status.ServeHTTP))
	}
	if routes.Current != nil {
		mux.Handle("/battery/current", method(http.MethodGet, routes.Current.ServeHTTP))
	}
	if routes.History != nil {
		mux.Handle("/battery/history", method(http.MethodGet, routes.History.ServeHTTP))
	}
	if routes.Load != nil {
		mux.Handle("/battery/load", method(http.MethodPost, routes.Load.ServeHTTP))
	}
	if routes.Stream != nil {
		mux.Handle("/battery/stream", method(http.MethodGet, routes.Stream.ServeHTTP))
	}
	if routes.Health != nil {
		mux.Handle("/health", method(http.MethodGet, routes.Health.ServeHTTP))
	}
	if routes.Metrics != nil {
		mux.Handle("/metrics", method(http.MethodGet, routes.Metrics.ServeHTTP))
	}
	return withRequestID(withAccessLog(mux, logger))
}

func method(expected string, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != expected {
			w.Header().Set("Allow", expected)
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		handler(w, r)
	}
}
