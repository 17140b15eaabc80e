package domain

import (
	"strings"
	"time"
)

// Gender of the account holder.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

// ParseGender accepts any casing ("Female", "female") and returns the canonical value.
func ParseGender(s string) (Gender, error) {
	switch Gender(strings.ToLower(strings.TrimSpace(s))) {
	case GenderMale:
		return GenderMale, nil
	case GenderFemale:
		return GenderFemale, nil
	case GenderOther:
		return GenderOther, nil
	}
	return "", ErrInvalidGender
}

// AccountStatus gates login eligibility.
type AccountStatus string

const (
	StatusCreated  AccountStatus = "created"
	StatusApproved AccountStatus = "approved"
	StatusBlocked  AccountStatus = "blocked"
)

// ParseStatus returns the status named by s.
func ParseStatus(s string) (AccountStatus, error) {
	switch AccountStatus(strings.ToLower(strings.TrimSpace(s))) {
	case StatusCreated:
		return StatusCreated, nil
	case StatusApproved:
		return StatusApproved, nil
	case StatusBlocked:
		return StatusBlocked, nil
	}
	return "", ErrInvalidStatus
}

// RoleUser is the default role flag.
const RoleUser = "user"

// Account is the durable identity document. One document per user.
type Account struct {
	ID           string        `bson:"_id" json:"id"`
	Name         string        `bson:"name" json:"name"`
	Email        string        `bson:"email" json:"email"`
	Username     string        `bson:"username" json:"username"`
	PasswordHash string        `bson:"password_hash" json:"-"`
	Gender       Gender        `bson:"gender" json:"gender"`
	Role         string        `bson:"role" json:"role"`
	IsAdmin      bool          `bson:"is_admin" json:"is_admin"`
	PhoneNo      string        `bson:"phone_no" json:"phone_no"`
	Image        string        `bson:"image" json:"image"`
	Status       AccountStatus `bson:"status" json:"status"`

	// Token pairs are nil together or set together.
	EmailVerificationHash      *string    `bson:"email_verification_hash" json:"-"`
	EmailVerificationExpiresAt *time.Time `bson:"email_verification_expires_at" json:"-"`
	EmailVerified              bool       `bson:"email_verified" json:"email_verified"`
	PasswordResetHash          *string    `bson:"password_reset_hash" json:"-"`
	PasswordResetExpiresAt     *time.Time `bson:"password_reset_expires_at" json:"-"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// CanLogin returns true only for approved accounts.
func (a *Account) CanLogin() bool {
	return a.Status == StatusApproved
}

// HasPendingVerification returns true if a verification token pair is stored.
func (a *Account) HasPendingVerification() bool {
	return a.EmailVerificationHash != nil && a.EmailVerificationExpiresAt != nil
}

// HasPendingReset returns true if a password reset token pair is stored.
func (a *Account) HasPendingReset() bool {
	return a.PasswordResetHash != nil && a.PasswordResetExpiresAt != nil
}

// AccountSummary is the public view of an account.
type AccountSummary struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	Email         string        `json:"email"`
	Username      string        `json:"username"`
	Gender        Gender        `json:"gender"`
	Role          string        `json:"role"`
	IsAdmin       bool          `json:"is_admin"`
	PhoneNo       string        `json:"phone_no"`
	Image         string        `json:"image"`
	Status        AccountStatus `json:"status"`
	EmailVerified bool          `json:"email_verified"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// Summary strips credentials and token digests.
func (a *Account) Summary() AccountSummary {
	return AccountSummary{
		ID:            a.ID,
		Name:          a.Name,
		Email:         a.Email,
		Username:      a.Username,
		Gender:        a.Gender,
		Role:          a.Role,
		IsAdmin:       a.IsAdmin,
		PhoneNo:       a.PhoneNo,
		Image:         a.Image,
		Status:        a.Status,
		EmailVerified: a.EmailVerified,
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}
}

// AccountStatistics aggregates account counts by lifecycle stage.
type AccountStatistics struct {
	TotalUsers          int64 `json:"totalUsers"`
	CreatedUsers        int64 `json:"createdUsers"`
	ApprovedUsers       int64 `json:"approvedUsers"`
	BlockedUsers        int64 `json:"blockedUsers"`
	RegisteredLast7Days int64 `json:"registeredLast7Days"`
}

// AccountFilter narrows list and count queries. Zero fields match everything.
type AccountFilter struct {
	Status       AccountStatus
	CreatedSince *time.Time
}

// ListOptions pages list queries, newest first.
type ListOptions struct {
	Offset int64
	Limit  int64
}
