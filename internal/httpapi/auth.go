package httpapi

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// Authenticator decides whether a request carries a valid caller identity.
type Authenticator interface {
	Authenticate(r *http.Request) bool
}

// StaticTokenAuthenticator accepts requests bearing the configured token.
// An empty token rejects everything; run without an Authenticator instead
// to disable auth.
type StaticTokenAuthenticator struct {
	Token string
}

func (a StaticTokenAuthenticator) Authenticate(r *http.Request) bool {
	if a.Token == "" {
		return false
	}
	header := r.Header.Get("Authorization")
	bearer, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(strings.TrimSpace(bearer)), []byte(a.Token)) == 1
}
