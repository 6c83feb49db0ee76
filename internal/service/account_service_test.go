package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/campus-housing/internal/repository"
)

func TestAccountDelete_SwallowsMissingTable(t *testing.T) {
	profiles := &profileStore{memStore: newMemStore(), deleteErr: map[string]error{
		repository.TableStudentProfiles: &mysql.MySQLError{Number: 1146, Message: "Table 'housing.student_profiles' doesn't exist"},
	}}
	users := &fakeUsers{}
	svc := NewAccountService(profiles, users)

	details, err := svc.Delete(context.Background(), 5)
	require.NoError(t, err)
	assert.Empty(t, details)
	assert.Equal(t, []string{repository.TableProfiles}, profiles.deleted)
	assert.Equal(t, []uint64{5}, users.deleted)
}

func TestAccountDelete_CollectsCleanupErrors(t *testing.T) {
	profiles := &profileStore{memStore: newMemStore(), deleteErr: map[string]error{
		repository.TableProfiles: errors.New("lock wait timeout"),
	}}
	users := &fakeUsers{}
	svc := NewAccountService(profiles, users)

	details, err := svc.Delete(context.Background(), 5)
	require.NoError(t, err, "identity deletion still happens")
	require.Len(t, details, 1)
	assert.Equal(t, TableError{Table: repository.TableProfiles, Error: "lock wait timeout"}, details[0])
	assert.Equal(t, []uint64{5}, users.deleted)
}

func TestAccountDelete_IdentityFailure(t *testing.T) {
	profiles := &profileStore{memStore: newMemStore(), deleteErr: map[string]error{
		repository.TableProfiles: errors.New("lock wait timeout"),
	}}
	users := &fakeUsers{err: repository.ErrNotFound}
	svc := NewAccountService(profiles, users)

	_, err := svc.Delete(context.Background(), 5)
	var de *AccountDeletionError
	require.ErrorAs(t, err, &de)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	require.Len(t, de.Details, 1)
	assert.Contains(t, de.Error(), "also failed: profiles")
}

func TestTokenCleanup(t *testing.T) {
	purger := &fakePurger{n: 3}
	svc := NewTokenCleanupService(purger, 24*time.Hour)
	now := time.Date(2026, 5, 1, 3, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	n, err := svc.Cleanup(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.Equal(t, now.Add(-24*time.Hour), purger.cutoff)

	purger.err = errors.New("db gone")
	_, err = svc.Cleanup(context.Background())
	assert.Error(t, err)
	svc.CleanupDaily()
}
