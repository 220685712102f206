package common

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse is the only shape error bodies ever take. Internal detail
// stays in the server log.
type ErrorResponse struct {
	Message string `json:"message"`
	Status  int    `json:"status"`
}

func RespondWithError(w http.ResponseWriter, code int, message string) {
	RespondWithJSON(w, code, ErrorResponse{Message: message, Status: code})
}

func RespondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"message": "Failed to marshal JSON response", "status": 500}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}
