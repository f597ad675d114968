package middleware

import (
	"crypto/rand"
	"encoding/base64"
	"net/http"
	"regexp"

	"github.com/templui/datafolio/internal/ctxkeys"
)

const requestIDHeader = "X-Request-ID"

var validRequestID = regexp.MustCompile(`^[A-Za-z0-9_\-]{1,64}$`)

// RequestID tags each request with an id, reusing a well-formed incoming
// X-Request-ID, and echoes it on the response.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if !validRequestID.MatchString(id) {
			id = generateRequestID()
		}

		w.Header().Set(requestIDHeader, id)
		ctx := ctxkeys.WithRequestID(r.Context(), id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// generateRequestID returns 12 random bytes, URL-safe base64 encoded (16 chars).
func generateRequestID() string {
	b := make([]byte, 12)
	_, err := rand.Read(b)
	if err != nil {
		return "unknown"
	}
	return base64.RawURLEncoding.EncodeToString(b)
}
