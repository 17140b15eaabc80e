package domain

import "time"

// SessionCredential is a signed, stateless session token handed to the client.
type SessionCredential struct {
	Token     string    `json:"token"`
	TokenType string    `json:"token_type"`
	ExpiresIn int       `json:"expires_in"`
	ExpiresAt time.Time `json:"expires_at"`
}
