package auth

import (
	"net/http"
	"strings"
)

// CredentialFromRequest extracts the bearer token from the Authorization
// header, falling back to the "token" query parameter used by EventSource
// clients that cannot set headers. It does not validate anything.
func CredentialFromRequest(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		if token, ok := strings.CutPrefix(header, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
		return ""
	}
	return r.URL.Query().Get("token")
}
