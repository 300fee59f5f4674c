package entities

import (
	"strings"
)

// SubscriptionRecord is the set of push tokens registered for one identity.
// It is also the element type of the persisted subscriptions file.
type SubscriptionRecord struct {
	Identity string   `json:"identity"`
	Tokens   []string `json:"tokens"`
}

// Registration is the transient input of register and unregister calls.
type Registration struct {
	Identity       string
	PushToken      string
	SecondaryToken string
	Platform       string
}

// RegisterResult reports the outcome of a register call
type RegisterResult struct {
	IsNewToken  bool
	TotalTokens int
}

// UnregisterResult reports the outcome of an unregister call
type UnregisterResult struct {
	Removed     bool
	TotalTokens int
}

// NormalizeIdentity trims surrounding whitespace and folds case so that
// identities differing only in either collapse to the same key.
func NormalizeIdentity(identity string) string {
	return strings.ToLower(strings.TrimSpace(identity))
}

// NormalizeToken trims surrounding whitespace. Tokens are case sensitive.
func NormalizeToken(token string) string {
	return strings.TrimSpace(token)
}

// Normalized returns a copy with identity and tokens normalized and the
// platform label trimmed.
func (r Registration) Normalized() Registration {
	return Registration{
		Identity:       NormalizeIdentity(r.Identity),
		PushToken:      NormalizeToken(r.PushToken),
		SecondaryToken: NormalizeToken(r.SecondaryToken),
		Platform:       strings.TrimSpace(r.Platform),
	}
}

// Validate checks the fields the store keys on. Platform is only checked by
// the HTTP layer since the store never reads it.
func (r Registration) Validate() error {
	if NormalizeIdentity(r.Identity) == "" {
		return NewValidationError("identity must not be empty")
	}
	if NormalizeToken(r.PushToken) == "" {
		return NewValidationError("push token must not be empty")
	}
	return nil
}
