package auth

import (
	"crypto/subtle"
	"net/http"
)

// Authorizer decides whether a request may proceed. Implementations must be
// safe for concurrent use.
type Authorizer interface {
	Authorize(r *http.Request) bool
}

// AuthorizerFunc adapts a function to the Authorizer interface
type AuthorizerFunc func(r *http.Request) bool

// Authorize calls f(r)
func (f AuthorizerFunc) Authorize(r *http.Request) bool {
	return f(r)
}

// AllowAll authorizes every request. It backs gates with no secret configured.
var AllowAll Authorizer = AuthorizerFunc(func(*http.Request) bool { return true })

// StaticBearerAuthorizer accepts requests whose Authorization header is
// exactly "Bearer <secret>".
type StaticBearerAuthorizer struct {
	expected []byte
}

// NewStaticBearerAuthorizer creates an authorizer for a single shared secret
func NewStaticBearerAuthorizer(secret string) *StaticBearerAuthorizer {
	return &StaticBearerAuthorizer{expected: []byte("Bearer " + secret)}
}

// Authorize compares the Authorization header in constant time
func (a *StaticBearerAuthorizer) Authorize(r *http.Request) bool {
	header := r.Header.Get("Authorization")
	if header == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(header), a.expected) == 1
}

// NewGate returns the authorizer for a configured secret: AllowAll when the
// secret is empty, a StaticBearerAuthorizer otherwise.
func NewGate(secret string) Authorizer {
	if secret == "" {
		return AllowAll
	}
	return NewStaticBearerAuthorizer(secret)
}
