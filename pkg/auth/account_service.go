package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/tendant/simple-idm-accounts/pkg/domain"
)

// federatedUsernameAttempts bounds the retries when a generated username collides.
const federatedUsernameAttempts = 5

// Notifier delivers plaintext tokens to the account holder.
type Notifier interface {
	SendVerificationEmail(ctx context.Context, to, token string) error
	SendPasswordResetEmail(ctx context.Context, to, token string) error
}

// FlowRecorder observes the outcome of each account flow.
type FlowRecorder interface {
	RecordFlow(flow string, err error)
}

// AccountServiceDeps wires the collaborators of AccountService.
type AccountServiceDeps struct {
	Store        AccountStore
	Hasher       PasswordHasher
	Sessions     *SessionIssuer
	Verification *TokenCodec
	Reset        *TokenCodec
	Dictionary   PasswordDictionary
	Notifier     Notifier
	Recorder     FlowRecorder
	Clock        Clock
	Logger       *slog.Logger
}

// AccountService runs the credential and token flows: registration, email
// verification, login, password reset and the federated variants.
type AccountService struct {
	store        AccountStore
	hasher       PasswordHasher
	sessions     *SessionIssuer
	verification *TokenCodec
	reset        *TokenCodec
	dictionary   PasswordDictionary
	notifier     Notifier
	recorder     FlowRecorder
	clock        Clock
	logger       *slog.Logger

	dummyOnce   sync.Once
	dummyDigest string
}

// NewAccountService creates a new account service.
func NewAccountService(deps AccountServiceDeps) *AccountService {
	if deps.Clock == nil {
		deps.Clock = SystemClock{}
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Dictionary == nil {
		deps.Dictionary = NewLeakedPasswords()
	}
	if deps.Verification == nil {
		deps.Verification = NewTokenCodec(DefaultEmailVerificationTTL, deps.Clock)
	}
	if deps.Reset == nil {
		deps.Reset = NewTokenCodec(DefaultPasswordResetTTL, deps.Clock)
	}
	return &AccountService{
		store:        deps.Store,
		hasher:       deps.Hasher,
		sessions:     deps.Sessions,
		verification: deps.Verification,
		reset:        deps.Reset,
		dictionary:   deps.Dictionary,
		notifier:     deps.Notifier,
		recorder:     deps.Recorder,
		clock:        deps.Clock,
		logger:       deps.Logger,
	}
}

// RegisterInput is the payload of a local registration.
type RegisterInput struct {
	Name     string
	Email    string
	Username string
	Password string
	Gender   string
	PhoneNo  string
	Image    string
}

// FederatedInput is an identity already verified by an external provider.
type FederatedInput struct {
	Name  string
	Email string
	Image string
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	Session *domain.SessionCredential
	Account domain.AccountSummary
}

// Register creates an unverified account in status "created" and mails a
// verification token. A mail failure after the record is persisted is logged
// only; the holder can ask for a new link.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (account *domain.Account, err error) {
	defer func() { s.record("register", err) }()

	in.Name = SanitizeName(in.Name)
	in.Email = NormalizeEmail(in.Email)
	in.Username = strings.TrimSpace(in.Username)
	in.PhoneNo = strings.TrimSpace(in.PhoneNo)

	if in.Name == "" || in.Email == "" || in.Username == "" || in.Password == "" || in.Gender == "" || in.PhoneNo == "" {
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
	if err := ValidatePassword(in.Password); err != nil {
		return nil, err
	}
	if s.dictionary.Contains(in.Password) {
		return nil, domain.ErrWeakCredential
	}

	if err := s.ensureUnique(ctx, in.Email, in.Username); err != nil {
		return nil, err
	}

	digest, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, unexpected(err)
	}
	token, err := s.verification.Issue()
	if err != nil {
		return nil, unexpected(err)
	}

	now := s.clock.Now()
	account = &domain.Account{
		ID:                         uuid.NewString(),
		Name:                       in.Name,
		Email:                      in.Email,
		Username:                   in.Username,
		PasswordHash:               digest,
		Gender:                     gender,
		Role:                       domain.RoleUser,
		PhoneNo:                    in.PhoneNo,
		Image:                      strings.TrimSpace(in.Image),
		Status:                     domain.StatusCreated,
		EmailVerificationHash:      &token.Digest,
		EmailVerificationExpiresAt: &token.ExpiresAt,
		CreatedAt:                  now,
		UpdatedAt:                  now,
	}
	if err := s.store.Create(ctx, account); err != nil {
		return nil, storeError(err)
	}

	if err := s.notifier.SendVerificationEmail(ctx, account.Email, token.Plaintext); err != nil {
		s.logger.Warn("failed to send verification email", "account_id", account.ID, "error", err)
	}

	s.logger.Info("account registered", "account_id", account.ID)
	return account, nil
}

// VerifyEmail consumes a verification token. Wrong and expired tokens are not
// distinguished.
func (s *AccountService) VerifyEmail(ctx context.Context, email, token string) (err error) {
	defer func() { s.record("verify_email", err) }()

	account, err := s.store.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return storeError(err)
	}
	if !s.verification.Validate(token, account.EmailVerificationHash, account.EmailVerificationExpiresAt) {
		return domain.ErrInvalidOrExpiredToken
	}

	// The store re-checks digest and expiry while clearing them, so a
	// concurrent replay of the same token finds nothing to match.
	if err := s.store.ConsumeEmailVerification(ctx, account.ID, HashToken(token), s.clock.Now()); err != nil {
		return storeError(err)
	}

	s.logger.Info("email verified", "account_id", account.ID)
	return nil
}

// ResendVerification issues a fresh verification token for an unverified account.
func (s *AccountService) ResendVerification(ctx context.Context, email string) (err error) {
	defer func() { s.record("resend_verification", err) }()

	account, err := s.store.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return storeError(err)
	}
	if account.EmailVerified {
		return domain.ErrAlreadyVerified
	}

	token, err := s.verification.Issue()
	if err != nil {
		return unexpected(err)
	}
	if err := s.store.SetEmailVerification(ctx, account.ID, token.Digest, token.ExpiresAt, s.clock.Now()); err != nil {
		return storeError(err)
	}
	if err := s.notifier.SendVerificationEmail(ctx, account.Email, token.Plaintext); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrDeliveryFailed, err)
	}
	return nil
}

// Login checks credentials and issues a session. Unknown email and wrong
// password both return domain.ErrInvalidCredentials.
func (s *AccountService) Login(ctx context.Context, email, password string) (result *LoginResult, err error) {
	defer func() { s.record("login", err) }()

	account, err := s.store.GetByEmail(ctx, NormalizeEmail(email))
	if errors.Is(err, domain.ErrNotFound) {
		s.hasher.Verify(password, s.dummy())
		return nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, storeError(err)
	}
	if !account.CanLogin() {
		return nil, domain.ErrAccountNotApproved
	}
	if !s.hasher.Verify(password, account.PasswordHash) {
		return nil, domain.ErrInvalidCredentials
	}

	return s.issueSession(account)
}

// ForgotPassword stores a reset token and mails it. A delivery failure is
// returned as domain.ErrDeliveryFailed; the stored token is kept.
func (s *AccountService) ForgotPassword(ctx context.Context, email string) (err error) {
	defer func() { s.record("forgot_password", err) }()

	account, err := s.store.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return storeError(err)
	}

	token, err := s.reset.Issue()
	if err != nil {
		return unexpected(err)
	}
	if err := s.store.SetPasswordReset(ctx, account.ID, token.Digest, token.ExpiresAt, s.clock.Now()); err != nil {
		return storeError(err)
	}

	if err := s.notifier.SendPasswordResetEmail(ctx, account.Email, token.Plaintext); err != nil {
		s.logger.Error("failed to send password reset email", "account_id", account.ID, "error", err)
		return fmt.Errorf("%w: %w", domain.ErrDeliveryFailed, err)
	}
	return nil
}

// ResetPassword replaces the password of the account holding an unexpired
// reset token. The token is checked before the new password, so a bad token
// always yields domain.ErrInvalidOrExpiredToken. The new password is not
// checked against the leaked dictionary.
func (s *AccountService) ResetPassword(ctx context.Context, token, newPassword string) (err error) {
	defer func() { s.record("reset_password", err) }()

	if token == "" {
		return domain.ErrInvalidOrExpiredToken
	}
	tokenDigest := HashToken(token)
	if _, err := s.store.GetByPasswordReset(ctx, tokenDigest, s.clock.Now()); err != nil {
		return storeError(err)
	}
	if err := ValidatePassword(newPassword); err != nil {
		return err
	}

	digest, err := s.hasher.Hash(newPassword)
	if err != nil {
		return unexpected(err)
	}

	// Still conditional: fails if the token expired or was used since the lookup.
	account, err := s.store.ConsumePasswordReset(ctx, tokenDigest, s.clock.Now(), digest)
	if err != nil {
		return storeError(err)
	}

	s.logger.Info("password reset", "account_id", account.ID)
	return nil
}

// RegisterFederated creates an approved, verified account from an external
// identity assertion. The assertion is trusted as given. The account has no
// password, so local login never succeeds for it.
func (s *AccountService) RegisterFederated(ctx context.Context, in FederatedInput) (account *domain.Account, err error) {
	defer func() { s.record("register_federated", err) }()

	in.Name = SanitizeName(in.Name)
	in.Email = NormalizeEmail(in.Email)
	if in.Name == "" || in.Email == "" {
		return nil, domain.ErrMissingFields
	}
	if err := ValidateEmail(in.Email); err != nil {
		return nil, err
	}

	exists, err := s.store.ExistsByEmail(ctx, in.Email)
	if err != nil {
		return nil, unexpected(err)
	}
	if exists {
		return nil, domain.ErrDuplicateIdentity
	}

	username, err := s.federatedUsername(ctx, in.Name)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	account = &domain.Account{
		ID:            uuid.NewString(),
		Name:          in.Name,
		Email:         in.Email,
		Username:      username,
		Gender:        domain.GenderOther,
		Role:          domain.RoleUser,
		Image:         strings.TrimSpace(in.Image),
		Status:        domain.StatusApproved,
		EmailVerified: true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.store.Create(ctx, account); err != nil {
		return nil, storeError(err)
	}

	s.logger.Info("federated account registered", "account_id", account.ID)
	return account, nil
}

// LoginFederated issues a session for an existing approved account without a
// password step.
func (s *AccountService) LoginFederated(ctx context.Context, email string) (result *LoginResult, err error) {
	defer func() { s.record("login_federated", err) }()

	account, err := s.store.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return nil, storeError(err)
	}
	if !account.CanLogin() {
		return nil, domain.ErrAccountNotApproved
	}
	return s.issueSession(account)
}

func (s *AccountService) issueSession(account *domain.Account) (*LoginResult, error) {
	session, err := s.sessions.Issue(account.ID, account.Email)
	if err != nil {
		return nil, unexpected(err)
	}
	return &LoginResult{Session: session, Account: account.Summary()}, nil
}

func (s *AccountService) ensureUnique(ctx context.Context, email, username string) error {
	exists, err := s.store.ExistsByEmail(ctx, email)
	if err != nil {
		return unexpected(err)
	}
	if exists {
		return domain.ErrDuplicateIdentity
	}
	exists, err = s.store.ExistsByUsername(ctx, username)
	if err != nil {
		return unexpected(err)
	}
	if exists {
		return domain.ErrDuplicateIdentity
	}
	return nil
}

// federatedUsername appends four random digits to a handle derived from name.
func (s *AccountService) federatedUsername(ctx context.Context, name string) (string, error) {
	base := usernameBase(name)
	for range federatedUsernameAttempts {
		candidate := fmt.Sprintf("%s%d", base, 1000+rand.IntN(9000))
		exists, err := s.store.ExistsByUsername(ctx, candidate)
		if err != nil {
			return "", unexpected(err)
		}
		if !exists {
			return candidate, nil
		}
	}
	return "", domain.ErrDuplicateIdentity
}

// dummy returns a digest compared against when the email is unknown, so that
// path costs one bcrypt comparison like a wrong password does.
func (s *AccountService) dummy() string {
	s.dummyOnce.Do(func() {
		digest, err := s.hasher.Hash(uuid.NewString())
		if err != nil {
			s.logger.Error("failed to prepare dummy digest", "error", err)
			return
		}
		s.dummyDigest = digest
	})
	return s.dummyDigest
}

func (s *AccountService) record(flow string, err error) {
	if s.recorder != nil {
		s.recorder.RecordFlow(flow, err)
	}
}

// storeError passes domain errors through and wraps everything else as
// domain.ErrUnexpected.
func storeError(err error) error {
	switch {
	case errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrDuplicateIdentity),
		errors.Is(err, domain.ErrInvalidOrExpiredToken):
		return err
	}
	return unexpected(err)
}

func unexpected(err error) error {
	return fmt.Errorf("%w: %w", domain.ErrUnexpected, err)
}
