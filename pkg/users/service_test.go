package users

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newServiceTest(t *testing.T) (*PostgresService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresService(db), mock
}

func TestExistsActive(t *testing.T) {
	svc, mock := newServiceTest(t)

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("a@acme.com").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := svc.ExistsActive(context.Background(), "a@acme.com")
	require.NoError(t, err)
	assert.True(t, exists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateHashesPassword(t *testing.T) {
	svc, mock := newServiceTest(t)
	now := time.Now()

	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs("ada", "a@acme.com", "Ada", "L", sqlmock.AnyArg(),
			int64(1), RoleOrgOwner, true, true, nil, nil, true).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(5), now, now))

	user, err := svc.Create(context.Background(), CreateRequest{
		Username:       "ada",
		Email:          "a@acme.com",
		FirstName:      "Ada",
		LastName:       "L",
		Password:       "Sup3r$ecret",
		OrganizationID: 1,
		Role:           RoleOrgOwner,
		IsOrgOwner:     true,
		EmailVerified:  true,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(5), user.ID)

	storedHash := user.PasswordHash
	assert.NotEqual(t, "Sup3r$ecret", storedHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(storedHash), []byte("Sup3r$ecret")))
	assert.True(t, user.CheckPassword("Sup3r$ecret"))
	assert.False(t, user.CheckPassword("wrong"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateDefaultsRole(t *testing.T) {
	svc, mock := newServiceTest(t)
	now := time.Now()

	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs("bob", "b@acme.com", "", "", sqlmock.AnyArg(),
			int64(1), RoleMember, false, false, nil, nil, true).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(6), now, now))

	user, err := svc.Create(context.Background(), CreateRequest{
		Username:       "bob",
		Email:          "b@acme.com",
		Password:       "Sup3r$ecret",
		OrganizationID: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, RoleMember, user.Role)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByEmailNotFound(t *testing.T) {
	svc, mock := newServiceTest(t)

	mock.ExpectQuery(`SELECT (.+) FROM users WHERE email = \$1`).
		WithArgs("ghost@acme.com").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	user, found, err := svc.FindByEmail(context.Background(), "ghost@acme.com")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, user)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByVerificationToken(t *testing.T) {
	svc, mock := newServiceTest(t)
	now := time.Now()
	hash := "abc123"
	expiry := now.Add(time.Hour)

	rows := sqlmock.NewRows([]string{
		"id", "username", "email", "first_name", "last_name", "password_hash",
		"organization_id", "role", "is_org_owner", "is_email_verified",
		"verification_token_hash", "verification_token_expiry",
		"pii_stripped", "legal_hold", "is_active", "created_at", "updated_at", "archived_at",
	}).AddRow(
		int64(5), "ada", "a@acme.com", "Ada", "L", "hash",
		int64(1), RoleMember, false, false,
		&hash, &expiry,
		false, false, true, now, now, nil,
	)
	mock.ExpectQuery(`SELECT (.+) FROM users WHERE verification_token_hash = \$1`).
		WithArgs("abc123").
		WillReturnRows(rows)

	user, found, err := svc.FindByVerificationToken(context.Background(), "abc123")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, int64(5), user.ID)
	require.NotNil(t, user.VerificationTokenHash)
	assert.Equal(t, "abc123", *user.VerificationTokenHash)
}

func TestFindByVerificationTokenNotFound(t *testing.T) {
	svc, mock := newServiceTest(t)

	mock.ExpectQuery(`SELECT (.+) FROM users WHERE verification_token_hash = \$1`).
		WithArgs("nope").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	user, found, err := svc.FindByVerificationToken(context.Background(), "nope")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, user)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClearVerificationToken(t *testing.T) {
	svc, mock := newServiceTest(t)

	mock.ExpectExec(`UPDATE users SET\s+is_email_verified = TRUE`).
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, svc.ClearVerificationToken(context.Background(), 5))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFullName(t *testing.T) {
	assert.Equal(t, "Ada Lovelace", (&User{FirstName: "Ada", LastName: "Lovelace"}).FullName())
	assert.Equal(t, "Ada", (&User{FirstName: "Ada"}).FullName())
	assert.Equal(t, "", (&User{}).FullName())
}
