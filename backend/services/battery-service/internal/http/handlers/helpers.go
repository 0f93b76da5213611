package handlers

import (
	"encoding/json"
	"net/http"
)

// writeJSON encodes payload before touching the response, so an unencodable payload still
// yields an error object instead of a bare 200 with an empty body.
func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if payload == nil {
		w.WriteHeader(status)
		return
	}

	body, err := json.Marshal(payload)
	if err != nil {
		body, _ = json.Marshal(map[string]string{"error": "encode response: " + err.Error()})
		status = http.StatusOK
	}
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}

// writeError renders the error object. Failures are reported in the body, not the status
// line, so clients always receive 200.
func writeError(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusOK, map[string]string{"error": message})
}

func writeMessage(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusOK, map[string]string{"message": message})
}
