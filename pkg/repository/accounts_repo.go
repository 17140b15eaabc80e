package repository

import (
	"context"
	"errors"
	"time"

	"github.com/tendant/simple-idm-accounts/pkg/domain"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const defaultTimeout = 5 * time.Second

// AccountsRepository handles account persistence in MongoDB.
type AccountsRepository struct {
	coll    *mongo.Collection
	timeout time.Duration
}

// NewAccountsRepository creates a new accounts repository.
func NewAccountsRepository(db *mongo.Database, timeout time.Duration) *AccountsRepository {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &AccountsRepository{coll: db.Collection(AccountsCollection), timeout: timeout}
}

// Create inserts a new account.
func (r *AccountsRepository) Create(ctx context.Context, account *domain.Account) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	_, err := r.coll.InsertOne(ctx, account)
	if mongo.IsDuplicateKeyError(err) {
		return domain.ErrDuplicateIdentity
	}
	return err
}

// GetByID retrieves an account by ID.
func (r *AccountsRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	return r.findOne(ctx, bson.D{{Key: "_id", Value: id}})
}

// GetByEmail retrieves an account by email.
func (r *AccountsRepository) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return r.findOne(ctx, bson.D{{Key: "email", Value: email}})
}

// ExistsByEmail checks if an account with the given email exists.
func (r *AccountsRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, bson.D{{Key: "email", Value: email}})
}

// ExistsByUsername checks if an account with the given username exists.
func (r *AccountsRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return r.exists(ctx, bson.D{{Key: "username", Value: username}})
}

// SetEmailVerification stores a verification digest and expiry.
func (r *AccountsRepository) SetEmailVerification(ctx context.Context, id, digest string, expiresAt, now time.Time) error {
	return r.updateByID(ctx, id, now, bson.D{
		{Key: "email_verification_hash", Value: digest},
		{Key: "email_verification_expires_at", Value: expiresAt},
	})
}

// ConsumeEmailVerification marks the email verified and clears the token pair
// if digest still matches and has not expired.
func (r *AccountsRepository) ConsumeEmailVerification(ctx context.Context, id, digest string, now time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	filter := bson.D{
		{Key: "_id", Value: id},
		{Key: "email_verification_hash", Value: digest},
		{Key: "email_verification_expires_at", Value: bson.D{{Key: "$gt", Value: now}}},
	}
	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "email_verified", Value: true},
		{Key: "email_verification_hash", Value: nil},
		{Key: "email_verification_expires_at", Value: nil},
		{Key: "updated_at", Value: now},
	}}}

	result, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return domain.ErrInvalidOrExpiredToken
	}
	return nil
}

// SetPasswordReset stores a reset digest and expiry.
func (r *AccountsRepository) SetPasswordReset(ctx context.Context, id, digest string, expiresAt, now time.Time) error {
	return r.updateByID(ctx, id, now, bson.D{
		{Key: "password_reset_hash", Value: digest},
		{Key: "password_reset_expires_at", Value: expiresAt},
	})
}

// GetByPasswordReset finds the account holding an unexpired reset digest.
func (r *AccountsRepository) GetByPasswordReset(ctx context.Context, digest string, now time.Time) (*domain.Account, error) {
	account, err := r.findOne(ctx, bson.D{
		{Key: "password_reset_hash", Value: digest},
		{Key: "password_reset_expires_at", Value: bson.D{{Key: "$gt", Value: now}}},
	})
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrInvalidOrExpiredToken
	}
	return account, err
}

// ConsumePasswordReset swaps in passwordHash and clears the reset pair on the
// account holding an unexpired digest.
func (r *AccountsRepository) ConsumePasswordReset(ctx context.Context, digest string, now time.Time, passwordHash string) (*domain.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	filter := bson.D{
		{Key: "password_reset_hash", Value: digest},
		{Key: "password_reset_expires_at", Value: bson.D{{Key: "$gt", Value: now}}},
	}
	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "password_hash", Value: passwordHash},
		{Key: "password_reset_hash", Value: nil},
		{Key: "password_reset_expires_at", Value: nil},
		{Key: "updated_at", Value: now},
	}}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var account domain.Account
	err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&account)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrInvalidOrExpiredToken
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// UpdateProfile overwrites the editable profile fields and the email
// verification state.
func (r *AccountsRepository) UpdateProfile(ctx context.Context, account *domain.Account) error {
	err := r.updateByID(ctx, account.ID, account.UpdatedAt, bson.D{
		{Key: "name", Value: account.Name},
		{Key: "email", Value: account.Email},
		{Key: "username", Value: account.Username},
		{Key: "gender", Value: account.Gender},
		{Key: "phone_no", Value: account.PhoneNo},
		{Key: "image", Value: account.Image},
		{Key: "email_verified", Value: account.EmailVerified},
		{Key: "email_verification_hash", Value: account.EmailVerificationHash},
		{Key: "email_verification_expires_at", Value: account.EmailVerificationExpiresAt},
	})
	if mongo.IsDuplicateKeyError(err) {
		return domain.ErrDuplicateIdentity
	}
	return err
}

// SetStatus changes the lifecycle status and returns the updated account.
func (r *AccountsRepository) SetStatus(ctx context.Context, id string, status domain.AccountStatus, now time.Time) (*domain.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "status", Value: status},
		{Key: "updated_at", Value: now},
	}}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var account domain.Account
	err := r.coll.FindOneAndUpdate(ctx, bson.D{{Key: "_id", Value: id}}, update, opts).Decode(&account)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// Delete removes an account.
func (r *AccountsRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	result, err := r.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List returns accounts matching filter, newest first.
func (r *AccountsRepository) List(ctx context.Context, filter domain.AccountFilter, opts domain.ListOptions) ([]*domain.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	findOpts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if opts.Offset > 0 {
		findOpts.SetSkip(opts.Offset)
	}
	if opts.Limit > 0 {
		findOpts.SetLimit(opts.Limit)
	}

	cursor, err := r.coll.Find(ctx, accountFilter(filter), findOpts)
	if err != nil {
		return nil, err
	}

	accounts := []*domain.Account{}
	if err := cursor.All(ctx, &accounts); err != nil {
		return nil, err
	}
	return accounts, nil
}

// Count returns the number of accounts matching filter.
func (r *AccountsRepository) Count(ctx context.Context, filter domain.AccountFilter) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	return r.coll.CountDocuments(ctx, accountFilter(filter))
}

func (r *AccountsRepository) findOne(ctx context.Context, filter bson.D) (*domain.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var account domain.Account
	err := r.coll.FindOne(ctx, filter).Decode(&account)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *AccountsRepository) exists(ctx context.Context, filter bson.D) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	n, err := r.coll.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// updateByID sets fields plus updated_at on one account.
func (r *AccountsRepository) updateByID(ctx context.Context, id string, now time.Time, fields bson.D) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	fields = append(fields, bson.E{Key: "updated_at", Value: now})
	result, err := r.coll.UpdateOne(ctx, bson.D{{Key: "_id", Value: id}}, bson.D{{Key: "$set", Value: fields}})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func accountFilter(f domain.AccountFilter) bson.D {
	filter := bson.D{}
	if f.Status != "" {
		filter = append(filter, bson.E{Key: "status", Value: f.Status})
	}
	if f.CreatedSince != nil {
		filter = append(filter, bson.E{Key: "created_at", Value: bson.D{{Key: "$gte", Value: *f.CreatedSince}}})
	}
	return filter
}
