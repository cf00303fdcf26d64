package utils

import (
	"net/http"

	"vendia/globals"

	"github.com/google/uuid"
)

func GetUUID() string {
	return uuid.New().String()
}

// GetUserIDFromRequest returns the authenticated user id stored on the
// request context by the auth middleware, or "" when absent.
func GetUserIDFromRequest(r *http.Request) string {
	requestingUserID, ok := r.Context().Value(globals.UserIDKey).(string)
	if !ok || requestingUserID == "" {
		return ""
	}
	return requestingUserID
}

// GetCapsFromRequest returns the capability set granted to the caller.
func GetCapsFromRequest(r *http.Request) []string {
	caps, ok := r.Context().Value(globals.CapsKey).([]string)
	if !ok {
		return nil
	}
	return caps
}
