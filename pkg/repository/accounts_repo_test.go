package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// TestAccountsRepository runs against a live server. Set MONGO_TEST_URI to enable.
func TestAccountsRepository(t *testing.T) {
	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("Skipping repository test - MONGO_TEST_URI not set")
	}

	ctx := context.Background()
	client, err := Connect(ctx, MongoConfig{URI: uri, Timeout: 5 * time.Second})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Disconnect(context.Background()) })

	db := client.Database("accounts_test_" + uuid.NewString()[:8])
	t.Cleanup(func() { _ = db.Drop(context.Background()) })

	require.NoError(t, EnsureIndexes(ctx, db))
	// Creating the same indexes twice is a no-op.
	require.NoError(t, EnsureIndexes(ctx, db))

	testAccountStore(t, NewAccountsRepository(db, 5*time.Second))
}
