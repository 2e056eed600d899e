package domain

import "time"

// DefaultCredentialLifetime applies when the provider reports no expiry.
const DefaultCredentialLifetime = time.Hour

// Credential is the persisted bearer session for the primary provider.
type Credential struct {
	AccessToken  string    `json:"access_token" db:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty" db:"refresh_token"`
	TokenType    string    `json:"token_type,omitempty" db:"token_type"`
	Expiry       time.Time `json:"expiry" db:"expiry"`
}

// Valid reports whether the credential can still be presented at now.
func (c Credential) Valid(now time.Time) bool {
	if c.AccessToken == "" {
		return false
	}
	return c.Expiry.IsZero() || now.Before(c.Expiry)
}
