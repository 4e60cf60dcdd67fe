package transport

import (
	"encoding/json"
	"net/http"
)

type ErrorResponse struct {
	Error   string            `json:"error"`
	Details map[string]string `json:"details,omitempty"`
}

type dataEnvelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
}

func WriteJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// WriteData wraps the payload in the {success, data} envelope the frontend
// expects on every read/create path.
func WriteData(w http.ResponseWriter, status int, payload interface{}) {
	WriteJSON(w, status, dataEnvelope{Success: true, Data: payload})
}

func WriteError(w http.ResponseWriter, status int, message string, details map[string]string) {
	WriteJSON(w, status, ErrorResponse{
		Error:   message,
		Details: details,
	})
}
