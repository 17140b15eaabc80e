package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/tendant/simple-idm-accounts/pkg/domain"
)

// DefaultSessionTTL is the lifetime of a session credential.
const DefaultSessionTTL = time.Hour

// SessionConfig holds session configuration.
type SessionConfig struct {
	Secret []byte
	Issuer string
	TTL    time.Duration
	Clock  Clock
}

// SessionClaims are the claims carried by a session credential.
type SessionClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}

// SessionIssuer mints and verifies stateless session credentials.
// There is no revocation: a credential is valid until it expires.
type SessionIssuer struct {
	config SessionConfig
}

// NewSessionIssuer creates a new session issuer.
func NewSessionIssuer(config SessionConfig) *SessionIssuer {
	if config.TTL == 0 {
		config.TTL = DefaultSessionTTL
	}
	if config.Clock == nil {
		config.Clock = SystemClock{}
	}
	return &SessionIssuer{config: config}
}

// TTL returns the session lifetime.
func (s *SessionIssuer) TTL() time.Duration {
	return s.config.TTL
}

// Issue signs a credential for the given account.
func (s *SessionIssuer) Issue(accountID, email string) (*domain.SessionCredential, error) {
	now := s.config.Clock.Now()
	expiresAt := now.Add(s.config.TTL)

	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID,
			Issuer:    s.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.NewString(),
		},
		Email: email,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.config.Secret)
	if err != nil {
		return nil, err
	}

	return &domain.SessionCredential{
		Token:     signed,
		TokenType: "Bearer",
		ExpiresIn: int(s.config.TTL.Seconds()),
		ExpiresAt: expiresAt,
	}, nil
}

// Verify checks signature and expiry and returns the claims.
// Every failure yields domain.ErrInvalidToken.
func (s *SessionIssuer) Verify(tokenString string) (*SessionClaims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.config.Clock.Now),
	}
	if s.config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.config.Issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		return s.config.Secret, nil
	}, opts...)
	if err != nil {
		return nil, domain.ErrInvalidToken
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, domain.ErrInvalidToken
	}

	return claims, nil
}
