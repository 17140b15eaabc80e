package auth

import (
	"context"
	"time"

	"github.com/tendant/simple-idm-accounts/pkg/domain"
)

// AccountStore is the document store behind the account services.
// Lookups return domain.ErrNotFound when nothing matches; inserts and profile
// updates return domain.ErrDuplicateIdentity on a unique email/username clash.
type AccountStore interface {
	Create(ctx context.Context, account *domain.Account) error
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)

	// SetEmailVerification stores a verification digest/expiry pair.
	SetEmailVerification(ctx context.Context, id, digest string, expiresAt, now time.Time) error
	// ConsumeEmailVerification marks the account verified and clears the pair in
	// one conditional update. It matches only while the stored digest equals
	// digest and the expiry is after now; otherwise domain.ErrInvalidOrExpiredToken.
	ConsumeEmailVerification(ctx context.Context, id, digest string, now time.Time) error

	// SetPasswordReset stores a reset digest/expiry pair.
	SetPasswordReset(ctx context.Context, id, digest string, expiresAt, now time.Time) error
	// GetByPasswordReset returns the account holding digest with an expiry
	// after now without consuming it. No match yields domain.ErrInvalidOrExpiredToken.
	GetByPasswordReset(ctx context.Context, digest string, now time.Time) (*domain.Account, error)
	// ConsumePasswordReset finds the account holding digest with an unexpired
	// reset pair, overwrites the password digest and clears the pair in one
	// conditional update. No match yields domain.ErrInvalidOrExpiredToken.
	ConsumePasswordReset(ctx context.Context, digest string, now time.Time, passwordHash string) (*domain.Account, error)

	// UpdateProfile writes the editable profile fields, the email verification
	// state and UpdatedAt of account in one update.
	UpdateProfile(ctx context.Context, account *domain.Account) error
	SetStatus(ctx context.Context, id string, status domain.AccountStatus, now time.Time) (*domain.Account, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter domain.AccountFilter, opts domain.ListOptions) ([]*domain.Account, error)
	Count(ctx context.Context, filter domain.AccountFilter) (int64, error)
}
