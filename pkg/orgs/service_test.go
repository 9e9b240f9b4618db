package orgs

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServiceTest(t *testing.T) (*PostgresService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresService(db), mock
}

func TestGenerateSlug(t *testing.T) {
	assert.Equal(t, "acme-corp", generateSlug("Acme Corp"))
	assert.Equal(t, "acme-co", generateSlug("Acme & Co!"))
	assert.Equal(t, "blue42", generateSlug("Blue42"))
}

func TestCreate(t *testing.T) {
	svc, mock := newServiceTest(t)
	now := time.Now()

	mock.ExpectQuery(`INSERT INTO organizations`).
		WithArgs("Acme Corp", "acme-corp", "acme.com", nil, OrgStatusActive, true).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(1), now, now))

	org := &Organization{Name: "Acme Corp", PrimaryDomain: "ACME.com"}
	require.NoError(t, svc.Create(context.Background(), org))
	assert.Equal(t, int64(1), org.ID)
	assert.Equal(t, "acme-corp", org.Slug)
	assert.Equal(t, "acme.com", org.PrimaryDomain)
	assert.Equal(t, OrgStatusActive, org.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByDomain(t *testing.T) {
	svc, mock := newServiceTest(t)
	now := time.Now()

	cols := []string{"id", "name", "slug", "primary_domain", "owner_id", "status", "is_active", "created_at", "updated_at"}
	mock.ExpectQuery(`SELECT (.+) FROM organizations\s+WHERE primary_domain = \$1 AND is_active = TRUE`).
		WithArgs("acme.com").
		WillReturnRows(sqlmock.NewRows(cols).AddRow(int64(1), "Acme Corp", "acme-corp", "acme.com", nil, "active", true, now, now))

	org, found, err := svc.FindByDomain(context.Background(), "Acme.COM")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "acme.com", org.PrimaryDomain)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByDomainNotFound(t *testing.T) {
	svc, mock := newServiceTest(t)

	mock.ExpectQuery(`SELECT (.+) FROM organizations`).
		WithArgs("ghost.com").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	org, found, err := svc.FindByDomain(context.Background(), "ghost.com")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, org)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSetOwner(t *testing.T) {
	svc, mock := newServiceTest(t)

	mock.ExpectExec(`UPDATE organizations SET owner_id = \$2`).
		WithArgs(int64(1), int64(9)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, svc.SetOwner(context.Background(), 1, 9))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSetOwnerMissingOrg(t *testing.T) {
	svc, mock := newServiceTest(t)

	mock.ExpectExec(`UPDATE organizations SET owner_id = \$2`).
		WithArgs(int64(5), int64(9)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := svc.SetOwner(context.Background(), 5, 9)
	assert.ErrorContains(t, err, "not found")
	require.NoError(t, mock.ExpectationsWereMet())
}
