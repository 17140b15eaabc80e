package auth

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/tendant/simple-idm-accounts/pkg/domain"
)

// statisticsWindow is the look-back for "registered recently".
const statisticsWindow = 7 * 24 * time.Hour

// ProfileUpdate carries the editable profile fields. Image may be empty.
type ProfileUpdate struct {
	Name     string
	Email    string
	Username string
	Gender   string
	PhoneNo  string
	Image    string
}

// ProfileServiceDeps wires the collaborators of ProfileService.
type ProfileServiceDeps struct {
	Store        AccountStore
	Verification *TokenCodec
	Notifier     Notifier
	Clock        Clock
	Logger       *slog.Logger
}

// ProfileService handles profile reads and edits plus the administrative
// actions: listing, deletion, status changes and statistics.
type ProfileService struct {
	store        AccountStore
	verification *TokenCodec
	notifier     Notifier
	clock        Clock
	logger       *slog.Logger
}

// NewProfileService creates a new profile service.
func NewProfileService(deps ProfileServiceDeps) *ProfileService {
	if deps.Clock == nil {
		deps.Clock = SystemClock{}
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Verification == nil {
		deps.Verification = NewTokenCodec(DefaultEmailVerificationTTL, deps.Clock)
	}
	return &ProfileService{
		store:        deps.Store,
		verification: deps.Verification,
		notifier:     deps.Notifier,
		clock:        deps.Clock,
		logger:       deps.Logger,
	}
}

// List returns accounts newest first.
func (s *ProfileService) List(ctx context.Context, opts domain.ListOptions) ([]*domain.Account, error) {
	accounts, err := s.store.List(ctx, domain.AccountFilter{}, opts)
	if err != nil {
		return nil, unexpected(err)
	}
	return accounts, nil
}

// Get returns the account with the given id.
func (s *ProfileService) Get(ctx context.Context, id string) (*domain.Account, error) {
	account, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err)
	}
	return account, nil
}

// Update overwrites the profile fields. Changing email or username to one
// held by another account fails with domain.ErrDuplicateIdentity. A new email
// address starts unverified: a fresh verification token is stored with the
// profile and mailed to the new address. A mail failure is logged only.
func (s *ProfileService) Update(ctx context.Context, id string, in ProfileUpdate) (*domain.Account, error) {
	in.Name = SanitizeName(in.Name)
	in.Email = NormalizeEmail(in.Email)
	in.Username = strings.TrimSpace(in.Username)
	in.PhoneNo = strings.TrimSpace(in.PhoneNo)

	if in.Name == "" || in.Email == "" || in.Username == "" || in.Gender == "" || in.PhoneNo == "" {
		return nil, domain.ErrMissingFields
	}
	if err := ValidateEmail(in.Email); err != nil {
		return nil, err
	}
	if err := ValidateUsername(in.Username); err != nil {
		return nil, err
	}
	gender, err := domain.ParseGender(in.Gender)
	if err != nil {
		return nil, err
	}

	account, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err)
	}

	emailChanged := in.Email != account.Email
	if emailChanged {
		if err := s.checkFree(ctx, s.store.ExistsByEmail, in.Email); err != nil {
			return nil, err
		}
	}
	if in.Username != account.Username {
		if err := s.checkFree(ctx, s.store.ExistsByUsername, in.Username); err != nil {
			return nil, err
		}
	}

	account.Name = in.Name
	account.Email = in.Email
	account.Username = in.Username
	account.Gender = gender
	account.PhoneNo = in.PhoneNo
	account.Image = strings.TrimSpace(in.Image)
	account.UpdatedAt = s.clock.Now()

	var token *IssuedToken
	if emailChanged {
		token, err = s.verification.Issue()
		if err != nil {
			return nil, unexpected(err)
		}
		account.EmailVerified = false
		account.EmailVerificationHash = &token.Digest
		account.EmailVerificationExpiresAt = &token.ExpiresAt
	}

	if err := s.store.UpdateProfile(ctx, account); err != nil {
		return nil, storeError(err)
	}

	if token != nil {
		s.logger.Info("account email changed", "account_id", account.ID)
		if s.notifier == nil {
			s.logger.Warn("no notifier configured, verification email not sent", "account_id", account.ID)
		} else if err := s.notifier.SendVerificationEmail(ctx, account.Email, token.Plaintext); err != nil {
			s.logger.Warn("failed to send verification email", "account_id", account.ID, "error", err)
		}
	}
	return account, nil
}

// Delete removes the account permanently.
func (s *ProfileService) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return storeError(err)
	}
	s.logger.Info("account deleted", "account_id", id)
	return nil
}

// SetStatus moves the account to created, approved or blocked.
func (s *ProfileService) SetStatus(ctx context.Context, id, status string) (*domain.Account, error) {
	st, err := domain.ParseStatus(status)
	if err != nil {
		return nil, err
	}
	account, err := s.store.SetStatus(ctx, id, st, s.clock.Now())
	if err != nil {
		return nil, storeError(err)
	}
	s.logger.Info("account status changed", "account_id", id, "status", st)
	return account, nil
}

// IsAdmin reports whether the account carries the administrative flag.
func (s *ProfileService) IsAdmin(ctx context.Context, id string) (bool, error) {
	account, err := s.store.GetByID(ctx, id)
	if err != nil {
		return false, storeError(err)
	}
	return account.IsAdmin, nil
}

// Statistics counts accounts by status and those created in the last seven days.
func (s *ProfileService) Statistics(ctx context.Context) (*domain.AccountStatistics, error) {
	since := s.clock.Now().Add(-statisticsWindow)

	var stats domain.AccountStatistics
	counts := []struct {
		dst    *int64
		filter domain.AccountFilter
	}{
		{&stats.TotalUsers, domain.AccountFilter{}},
		{&stats.CreatedUsers, domain.AccountFilter{Status: domain.StatusCreated}},
		{&stats.ApprovedUsers, domain.AccountFilter{Status: domain.StatusApproved}},
		{&stats.BlockedUsers, domain.AccountFilter{Status: domain.StatusBlocked}},
		{&stats.RegisteredLast7Days, domain.AccountFilter{CreatedSince: &since}},
	}
	for _, c := range counts {
		n, err := s.store.Count(ctx, c.filter)
		if err != nil {
			return nil, unexpected(err)
		}
		*c.dst = n
	}
	return &stats, nil
}

func (s *ProfileService) checkFree(ctx context.Context, exists func(context.Context, string) (bool, error), value string) error {
	taken, err := exists(ctx, value)
	if err != nil {
		return unexpected(err)
	}
	if taken {
		return domain.ErrDuplicateIdentity
	}
	return nil
}
