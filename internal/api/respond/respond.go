// Package respond writes the JSON envelopes shared by every endpoint.
package respond

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
)

// JSON writes v as the response body with the given status.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("Failed to encode response body")
	}
}

// Message writes a {"message": msg} body. Used for client errors and confirmations.
func Message(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, map[string]string{"message": msg})
}

// InternalError writes the generic 500 body. The cause is never exposed.
func InternalError(w http.ResponseWriter) {
	JSON(w, http.StatusInternalServerError, map[string]string{"error": "Internal Server Error"})
}
