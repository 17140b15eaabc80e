package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-idm-accounts/pkg/auth"
	"github.com/tendant/simple-idm-accounts/pkg/domain"
)

var (
	_ auth.AccountStore = (*MemoryAccounts)(nil)
	_ auth.AccountStore = (*AccountsRepository)(nil)
)

func newTestAccount(email, username string, createdAt time.Time) *domain.Account {
	return &domain.Account{
		ID:           uuid.NewString(),
		Name:         "Ann",
		Email:        email,
		Username:     username,
		PasswordHash: "$2a$10$abcdefghijklmnopqrstuv",
		Gender:       domain.GenderFemale,
		Role:         domain.RoleUser,
		PhoneNo:      "5551212",
		Status:       domain.StatusCreated,
		CreatedAt:    createdAt,
		UpdatedAt:    createdAt,
	}
}

// testAccountStore exercises the AccountStore contract against store.
func testAccountStore(t *testing.T, store auth.AccountStore) {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	t.Run("create and lookup", func(t *testing.T) {
		a := newTestAccount("ann@x.com", "ann1", now)
		require.NoError(t, store.Create(ctx, a))

		byID, err := store.GetByID(ctx, a.ID)
		require.NoError(t, err)
		assert.Equal(t, "ann@x.com", byID.Email)
		assert.Nil(t, byID.EmailVerificationHash)

		byEmail, err := store.GetByEmail(ctx, "ann@x.com")
		require.NoError(t, err)
		assert.Equal(t, a.ID, byEmail.ID)

		ok, err := store.ExistsByEmail(ctx, "ann@x.com")
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = store.ExistsByUsername(ctx, "nobody")
		require.NoError(t, err)
		assert.False(t, ok)

		_, err = store.GetByEmail(ctx, "missing@x.com")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("unique email and username", func(t *testing.T) {
		err := store.Create(ctx, newTestAccount("ann@x.com", "other", now))
		assert.ErrorIs(t, err, domain.ErrDuplicateIdentity)

		err = store.Create(ctx, newTestAccount("other@x.com", "ann1", now))
		assert.ErrorIs(t, err, domain.ErrDuplicateIdentity)
	})

	t.Run("verification is consumed once", func(t *testing.T) {
		a := newTestAccount("ver@x.com", "ver1", now)
		require.NoError(t, store.Create(ctx, a))
		require.NoError(t, store.SetEmailVerification(ctx, a.ID, "digest-1", now.Add(10*time.Minute), now))

		err := store.ConsumeEmailVerification(ctx, a.ID, "wrong", now)
		assert.ErrorIs(t, err, domain.ErrInvalidOrExpiredToken)

		require.NoError(t, store.ConsumeEmailVerification(ctx, a.ID, "digest-1", now))

		got, err := store.GetByID(ctx, a.ID)
		require.NoError(t, err)
		assert.True(t, got.EmailVerified)
		assert.False(t, got.HasPendingVerification())
		assert.Nil(t, got.EmailVerificationHash)
		assert.Nil(t, got.EmailVerificationExpiresAt)

		err = store.ConsumeEmailVerification(ctx, a.ID, "digest-1", now)
		assert.ErrorIs(t, err, domain.ErrInvalidOrExpiredToken)
	})

	t.Run("expired verification does not match", func(t *testing.T) {
		a := newTestAccount("exp@x.com", "exp1", now)
		require.NoError(t, store.Create(ctx, a))
		require.NoError(t, store.SetEmailVerification(ctx, a.ID, "digest-2", now.Add(-time.Second), now))

		err := store.ConsumeEmailVerification(ctx, a.ID, "digest-2", now)
		assert.ErrorIs(t, err, domain.ErrInvalidOrExpiredToken)
	})

	t.Run("password reset is consumed once", func(t *testing.T) {
		a := newTestAccount("reset@x.com", "reset1", now)
		require.NoError(t, store.Create(ctx, a))
		later := now.Add(time.Minute)
		require.NoError(t, store.SetPasswordReset(ctx, a.ID, "reset-digest", now.Add(time.Hour), later))

		pending, err := store.GetByPasswordReset(ctx, "reset-digest", now)
		require.NoError(t, err)
		assert.Equal(t, a.ID, pending.ID)
		assert.True(t, pending.UpdatedAt.Equal(later))

		_, err = store.GetByPasswordReset(ctx, "reset-digest", now.Add(2*time.Hour))
		assert.ErrorIs(t, err, domain.ErrInvalidOrExpiredToken)

		got, err := store.ConsumePasswordReset(ctx, "reset-digest", now, "new-hash")
		require.NoError(t, err)
		assert.Equal(t, a.ID, got.ID)
		assert.Equal(t, "new-hash", got.PasswordHash)
		assert.False(t, got.HasPendingReset())

		_, err = store.ConsumePasswordReset(ctx, "reset-digest", now, "again")
		assert.ErrorIs(t, err, domain.ErrInvalidOrExpiredToken)

		_, err = store.GetByPasswordReset(ctx, "reset-digest", now)
		assert.ErrorIs(t, err, domain.ErrInvalidOrExpiredToken)

		stored, err := store.GetByID(ctx, a.ID)
		require.NoError(t, err)
		assert.Equal(t, "new-hash", stored.PasswordHash)
	})

	t.Run("set on missing account", func(t *testing.T) {
		err := store.SetPasswordReset(ctx, uuid.NewString(), "d", now, now)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("profile update keeps uniqueness", func(t *testing.T) {
		a := newTestAccount("prof@x.com", "prof1", now)
		require.NoError(t, store.Create(ctx, a))

		a.Name = "Renamed"
		a.Username = "ann1"
		assert.ErrorIs(t, store.UpdateProfile(ctx, a), domain.ErrDuplicateIdentity)

		digest := "email-change-digest"
		expires := now.Add(10 * time.Minute)
		a.Username = "prof2"
		a.Email = "prof-new@x.com"
		a.EmailVerified = false
		a.EmailVerificationHash = &digest
		a.EmailVerificationExpiresAt = &expires
		a.UpdatedAt = now.Add(time.Minute)
		require.NoError(t, store.UpdateProfile(ctx, a))

		got, err := store.GetByID(ctx, a.ID)
		require.NoError(t, err)
		assert.Equal(t, "Renamed", got.Name)
		assert.Equal(t, "prof2", got.Username)
		assert.Equal(t, "prof-new@x.com", got.Email)
		assert.False(t, got.EmailVerified)
		require.NotNil(t, got.EmailVerificationHash)
		assert.Equal(t, digest, *got.EmailVerificationHash)
		assert.True(t, got.UpdatedAt.Equal(now.Add(time.Minute)))

		require.NoError(t, store.ConsumeEmailVerification(ctx, a.ID, digest, now))
	})

	t.Run("status, count and list", func(t *testing.T) {
		old := newTestAccount("old@x.com", "old1", now.Add(-30*24*time.Hour))
		require.NoError(t, store.Create(ctx, old))

		updated, err := store.SetStatus(ctx, old.ID, domain.StatusBlocked, now)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusBlocked, updated.Status)
		assert.True(t, updated.UpdatedAt.Equal(now))

		_, err = store.SetStatus(ctx, uuid.NewString(), domain.StatusApproved, now)
		assert.ErrorIs(t, err, domain.ErrNotFound)

		blocked, err := store.Count(ctx, domain.AccountFilter{Status: domain.StatusBlocked})
		require.NoError(t, err)
		assert.Equal(t, int64(1), blocked)

		since := now.Add(-7 * 24 * time.Hour)
		recent, err := store.Count(ctx, domain.AccountFilter{CreatedSince: &since})
		require.NoError(t, err)
		total, err := store.Count(ctx, domain.AccountFilter{})
		require.NoError(t, err)
		assert.Equal(t, total-1, recent)

		all, err := store.List(ctx, domain.AccountFilter{}, domain.ListOptions{})
		require.NoError(t, err)
		require.Len(t, all, int(total))
		assert.Equal(t, old.ID, all[len(all)-1].ID)

		page, err := store.List(ctx, domain.AccountFilter{}, domain.ListOptions{Offset: 1, Limit: 2})
		require.NoError(t, err)
		assert.Len(t, page, 2)
	})

	t.Run("delete", func(t *testing.T) {
		a := newTestAccount("del@x.com", "del1", now)
		require.NoError(t, store.Create(ctx, a))

		require.NoError(t, store.Delete(ctx, a.ID))
		_, err := store.GetByID(ctx, a.ID)
		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.ErrorIs(t, store.Delete(ctx, a.ID), domain.ErrNotFound)
	})
}
