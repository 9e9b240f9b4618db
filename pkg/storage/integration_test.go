//go:build integration

package storage

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/crewdeck/crewdeck/pkg/waitlist"
)

// setupPostgres starts a throwaway PostgreSQL container, runs migrations
// against it and returns a connected handle plus a cleanup function that
// removes the container and its volumes.
func setupPostgres(t *testing.T) (*sql.DB, func()) {
	t.Helper()

	ctx := context.Background()

	provider, err := testcontainers.ProviderDocker.GetProvider()
	if err != nil {
		t.Skip("Docker not available, skipping integration tests")
	}
	defer provider.Close()

	container, err := postgres.Run(ctx, "postgres:15-alpine",
		postgres.WithDatabase("crewdeck_test"),
		postgres.WithUsername("crewdeck"),
		postgres.WithPassword("crewdeck_test_password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
		postgres.BasicWaitStrategies(),
		testcontainers.CustomizeRequest(testcontainers.GenericContainerRequest{
			ContainerRequest: testcontainers.ContainerRequest{
				AutoRemove: true,
			},
		}),
	)
	if err != nil {
		t.Skipf("Failed to start PostgreSQL container: %v", err)
	}

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := sql.Open("postgres", connStr)
	require.NoError(t, err)
	require.NoError(t, db.Ping())

	require.NoError(t, Migrate(ctx, db))

	cleanup := func() {
		if err := db.Close(); err != nil {
			t.Logf("Warning: failed to close database: %v", err)
		}
		// Fresh context so cleanup still runs after a test timeout.
		cleanupCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := container.Terminate(cleanupCtx); err != nil {
			t.Errorf("Failed to terminate container: %v", err)
		}
	}

	return db, cleanup
}

func TestPostgresStore_RoundTrip(t *testing.T) {
	db, cleanup := setupPostgres(t)
	defer cleanup()

	ctx := context.Background()
	store := waitlist.NewPostgresStore(db)

	entry := &waitlist.Entry{
		Email:  "integration@acme.example",
		Phone:  "+15550001111",
		Name:   "Integration Test",
		Role:   "engineer",
		Source: "landing-page",
		Status: waitlist.StatusPendingCohort,
		EmailState: waitlist.ChannelState{
			Status: waitlist.VerifyUnverified,
		},
		PhoneState: waitlist.ChannelState{
			Status: waitlist.VerifyUnverified,
		},
	}
	require.NoError(t, store.Upsert(ctx, entry))

	got, found, err := store.FindByEmail(ctx, "integration@acme.example")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, entry.Email, got.Email)
	require.Equal(t, waitlist.StatusPendingCohort, got.Status)
	require.NotZero(t, got.ID)
	require.False(t, got.CreatedAt.IsZero())

	code := "482913"
	expires := time.Now().Add(15 * time.Minute).UTC()
	got.EmailState.Code = &code
	got.EmailState.CodeExpiresAt = &expires
	got.EmailState.Attempts = 1
	require.NoError(t, store.Save(ctx, got))

	again, found, err := store.FindByEmail(ctx, "integration@acme.example")
	require.NoError(t, err)
	require.True(t, found)
	require.NotNil(t, again.EmailState.Code)
	require.Equal(t, code, *again.EmailState.Code)
	require.Equal(t, 1, again.EmailState.Attempts)

	count, err := store.CountActive(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestPostgresStore_ListInvitable(t *testing.T) {
	db, cleanup := setupPostgres(t)
	defer cleanup()

	ctx := context.Background()
	store := waitlist.NewPostgresStore(db)

	// Two fully verified entries and one that is not; only the verified
	// ones are invitable.
	for i, email := range []string{"a@acme.example", "b@acme.example", "c@acme.example"} {
		e := &waitlist.Entry{
			Email:  email,
			Phone:  "+15550002222",
			Status: waitlist.StatusPendingCohort,
			EmailState: waitlist.ChannelState{
				Status: waitlist.VerifyUnverified,
			},
			PhoneState: waitlist.ChannelState{
				Status: waitlist.VerifyUnverified,
			},
		}
		if i < 2 {
			now := time.Now().UTC()
			e.EmailState.Status = waitlist.VerifyVerified
			e.EmailState.VerifiedAt = &now
			e.PhoneState.Status = waitlist.VerifyVerified
			e.PhoneState.VerifiedAt = &now
		}
		require.NoError(t, store.Upsert(ctx, e))
	}

	invitable, err := store.ListInvitable(ctx, time.Now().Add(time.Minute), 10)
	require.NoError(t, err)
	require.Len(t, invitable, 2)

	limited, err := store.ListInvitable(ctx, time.Now().Add(time.Minute), 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
}
