package handler

import (
	"log"
	"net/http"

	"library_api/internal/common"
)

// respondServiceError maps a service failure onto the error envelope.
// Internal failures are logged and replaced with a generic message so driver
// detail never reaches the client.
func respondServiceError(w http.ResponseWriter, err error) {
	status := common.HTTPStatusFromError(err)
	if status == http.StatusInternalServerError {
		log.Printf("internal error: %v", err)
		common.RespondWithError(w, status, "An error occurred")
		return
	}
	common.RespondWithError(w, status, err.Error())
}
