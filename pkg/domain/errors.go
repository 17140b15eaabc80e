package domain

import "errors"

// Account flow errors
var (
	ErrDuplicateIdentity     = errors.New("email or username already exists")
	ErrWeakCredential        = errors.New("password is found in the leaked password dictionary")
	ErrNotFound              = errors.New("user not found")
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrInvalidOrExpiredToken = errors.New("invalid or expired token")
	ErrAccountNotApproved    = errors.New("account is not approved or is blocked")
	ErrDeliveryFailed        = errors.New("error sending email")
	ErrUnexpected            = errors.New("unexpected error")
	ErrInvalidToken          = errors.New("invalid token")
	ErrAlreadyVerified       = errors.New("email already verified")
)

// Validation errors
var (
	ErrMissingFields   = errors.New("all fields are required")
	ErrInvalidEmail    = errors.New("invalid email address")
	ErrInvalidUsername = errors.New("invalid username format")
	ErrInvalidGender   = errors.New("gender must be one of male, female, other")
	ErrInvalidPassword = errors.New("password must be between 1 and 72 bytes")
	ErrInvalidStatus   = errors.New("status must be one of created, approved, blocked")
)
