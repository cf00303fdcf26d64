package utils

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"vendia/apperr"
)

// Sends a JSON response
func RespondWithJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// RespondWithError maps a classified error onto the API's status codes and
// writes the structured body. Unclassified errors become opaque 500s.
func RespondWithError(w http.ResponseWriter, err error) {
	status := apperr.HTTPStatus(err)

	var e *apperr.Error
	if !errors.As(err, &e) {
		log.Println("unclassified error:", err)
		RespondWithJSON(w, status, M{"error": "internal error"})
		return
	}
	RespondWithJSON(w, status, M{"error": e})
}

// M is shorthand for ad-hoc JSON response bodies.
type M map[string]interface{}
