package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"regexp"
)

// ProfileIDHeader selects which share profile a request reads and writes.
const ProfileIDHeader = "X-Profile-ID"

// DefaultProfileID is used when the header is absent.
const DefaultProfileID = "default"

var profileIDPattern = regexp.MustCompile(`^[A-Za-z0-9_.-]{1,64}$`)

// Profile resolves the X-Profile-ID header into the request context.
// Malformed ids are rejected with 400 so they never reach storage keys.
func Profile(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		profileID := r.Header.Get(ProfileIDHeader)
		if profileID == "" {
			profileID = DefaultProfileID
		}
		if !profileIDPattern.MatchString(profileID) {
			writeError(w, http.StatusBadRequest, "INVALID_PROFILE", "invalid "+ProfileIDHeader+" header")
			return
		}

		if fields, ok := r.Context().Value(logFieldsKey).(*logFields); ok {
			fields.profileID = profileID
		}

		ctx := context.WithValue(r.Context(), ProfileIDKey, profileID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetProfileID retrieves the profile ID from context, falling back to the default.
func GetProfileID(ctx context.Context) string {
	if id, ok := ctx.Value(ProfileIDKey).(string); ok && id != "" {
		return id
	}
	return DefaultProfileID
}

// writeError writes the API's JSON error shape.
func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(struct {
		Error string `json:"error"`
		Code  string `json:"code"`
	}{message, code})
}
