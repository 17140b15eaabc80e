package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/tendant/simple-idm-accounts/pkg/domain"
)

// MemoryAccounts is an in-process account store with the same contract as
// AccountsRepository. Used in tests and for running without a database.
type MemoryAccounts struct {
	mu       sync.RWMutex
	accounts map[string]*domain.Account
}

// NewMemoryAccounts creates an empty in-memory store.
func NewMemoryAccounts() *MemoryAccounts {
	return &MemoryAccounts{accounts: make(map[string]*domain.Account)}
}

func (m *MemoryAccounts) Create(_ context.Context, account *domain.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.accounts[account.ID]; ok {
		return domain.ErrDuplicateIdentity
	}
	if m.taken("", account.Email, account.Username) {
		return domain.ErrDuplicateIdentity
	}
	m.accounts[account.ID] = cloneAccount(account)
	return nil
}

func (m *MemoryAccounts) GetByID(_ context.Context, id string) (*domain.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	account, ok := m.accounts[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneAccount(account), nil
}

func (m *MemoryAccounts) GetByEmail(_ context.Context, email string) (*domain.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, account := range m.accounts {
		if account.Email == email {
			return cloneAccount(account), nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MemoryAccounts) ExistsByEmail(_ context.Context, email string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.taken("", email, ""), nil
}

func (m *MemoryAccounts) ExistsByUsername(_ context.Context, username string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.taken("", "", username), nil
}

func (m *MemoryAccounts) SetEmailVerification(_ context.Context, id, digest string, expiresAt, now time.Time) error {
	return m.mutate(id, now, func(a *domain.Account) {
		a.EmailVerificationHash = &digest
		a.EmailVerificationExpiresAt = &expiresAt
	})
}

func (m *MemoryAccounts) ConsumeEmailVerification(_ context.Context, id, digest string, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.accounts[id]
	if !ok || !pairMatches(a.EmailVerificationHash, a.EmailVerificationExpiresAt, digest, now) {
		return domain.ErrInvalidOrExpiredToken
	}
	a.EmailVerified = true
	a.EmailVerificationHash = nil
	a.EmailVerificationExpiresAt = nil
	a.UpdatedAt = now
	return nil
}

func (m *MemoryAccounts) SetPasswordReset(_ context.Context, id, digest string, expiresAt, now time.Time) error {
	return m.mutate(id, now, func(a *domain.Account) {
		a.PasswordResetHash = &digest
		a.PasswordResetExpiresAt = &expiresAt
	})
}

func (m *MemoryAccounts) GetByPasswordReset(_ context.Context, digest string, now time.Time) (*domain.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, a := range m.accounts {
		if pairMatches(a.PasswordResetHash, a.PasswordResetExpiresAt, digest, now) {
			return cloneAccount(a), nil
		}
	}
	return nil, domain.ErrInvalidOrExpiredToken
}

func (m *MemoryAccounts) ConsumePasswordReset(_ context.Context, digest string, now time.Time, passwordHash string) (*domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, a := range m.accounts {
		if !pairMatches(a.PasswordResetHash, a.PasswordResetExpiresAt, digest, now) {
			continue
		}
		a.PasswordHash = passwordHash
		a.PasswordResetHash = nil
		a.PasswordResetExpiresAt = nil
		a.UpdatedAt = now
		return cloneAccount(a), nil
	}
	return nil, domain.ErrInvalidOrExpiredToken
}

func (m *MemoryAccounts) UpdateProfile(_ context.Context, account *domain.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.accounts[account.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if m.taken(account.ID, account.Email, account.Username) {
		return domain.ErrDuplicateIdentity
	}
	a.Name = account.Name
	a.Email = account.Email
	a.Username = account.Username
	a.Gender = account.Gender
	a.PhoneNo = account.PhoneNo
	a.Image = account.Image
	a.EmailVerified = account.EmailVerified
	c := cloneAccount(account)
	a.EmailVerificationHash = c.EmailVerificationHash
	a.EmailVerificationExpiresAt = c.EmailVerificationExpiresAt
	a.UpdatedAt = account.UpdatedAt
	return nil
}

func (m *MemoryAccounts) SetStatus(_ context.Context, id string, status domain.AccountStatus, now time.Time) (*domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.accounts[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	a.Status = status
	a.UpdatedAt = now
	return cloneAccount(a), nil
}

func (m *MemoryAccounts) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.accounts[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.accounts, id)
	return nil
}

func (m *MemoryAccounts) List(_ context.Context, filter domain.AccountFilter, opts domain.ListOptions) ([]*domain.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*domain.Account, 0, len(m.accounts))
	for _, a := range m.accounts {
		if matchesFilter(a, filter) {
			result = append(result, cloneAccount(a))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	if opts.Offset > 0 {
		if opts.Offset >= int64(len(result)) {
			return []*domain.Account{}, nil
		}
		result = result[opts.Offset:]
	}
	if opts.Limit > 0 && opts.Limit < int64(len(result)) {
		result = result[:opts.Limit]
	}
	return result, nil
}

func (m *MemoryAccounts) Count(_ context.Context, filter domain.AccountFilter) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var n int64
	for _, a := range m.accounts {
		if matchesFilter(a, filter) {
			n++
		}
	}
	return n, nil
}

// mutate applies fn to the stored account and stamps updated_at with now.
func (m *MemoryAccounts) mutate(id string, now time.Time, fn func(*domain.Account)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.accounts[id]
	if !ok {
		return domain.ErrNotFound
	}
	fn(a)
	a.UpdatedAt = now
	return nil
}

// taken reports whether another account than self holds email or username.
// Empty values are ignored. Callers hold the lock.
func (m *MemoryAccounts) taken(self, email, username string) bool {
	for id, a := range m.accounts {
		if id == self {
			continue
		}
		if (email != "" && a.Email == email) || (username != "" && a.Username == username) {
			return true
		}
	}
	return false
}

func pairMatches(hash *string, expiresAt *time.Time, digest string, now time.Time) bool {
	return hash != nil && expiresAt != nil && *hash == digest && expiresAt.After(now)
}

func matchesFilter(a *domain.Account, f domain.AccountFilter) bool {
	if f.Status != "" && a.Status != f.Status {
		return false
	}
	if f.CreatedSince != nil && a.CreatedAt.Before(*f.CreatedSince) {
		return false
	}
	return true
}

func cloneAccount(a *domain.Account) *domain.Account {
	c := *a
	if a.EmailVerificationHash != nil {
		v := *a.EmailVerificationHash
		c.EmailVerificationHash = &v
	}
	if a.EmailVerificationExpiresAt != nil {
		v := *a.EmailVerificationExpiresAt
		c.EmailVerificationExpiresAt = &v
	}
	if a.PasswordResetHash != nil {
		v := *a.PasswordResetHash
		c.PasswordResetHash = &v
	}
	if a.PasswordResetExpiresAt != nil {
		v := *a.PasswordResetExpiresAt
		c.PasswordResetExpiresAt = &v
	}
	return &c
}
