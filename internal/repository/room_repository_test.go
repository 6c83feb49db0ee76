package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/campus-housing/internal/model"
)

func newDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func TestReplaceForProperty_EmptyLeavesNoRooms(t *testing.T) {
	db, mock := newDB(t)
	repo := NewRoomRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM rooms WHERE property_id = ?")).
		WithArgs(uint64(5)).
		WillReturnResult(sqlmock.NewResult(0, 3))
	// rooms without free capacity are not counted as available
	mock.ExpectExec(regexp.QuoteMeta("AND status = 'available' AND current_occupancy < capacity)")).
		WithArgs(uint64(5), uint64(5), uint64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.ReplaceForProperty(context.Background(), 5, nil)
	require.NoError(t, err)
	// No statement touched any other property id.
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReplaceForProperty_InsertsRooms(t *testing.T) {
	db, mock := newDB(t)
	repo := NewRoomRepo(db)
	rooms := []model.Room{
		{RoomNumber: "single-1", RoomType: "single", Capacity: 1, MonthlyRent: 100, Status: model.RoomAvailable},
		{RoomNumber: "double-1", RoomType: "double", Capacity: 2, MonthlyRent: 150, Status: model.RoomAvailable},
	}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM rooms WHERE property_id = ?")).
		WithArgs(uint64(8)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO rooms (property_id, room_number, room_type, capacity, current_occupancy, monthly_rent, status) VALUES (?, ?, ?, ?, ?, ?, ?), (?, ?, ?, ?, ?, ?, ?)")).
		WithArgs(uint64(8), "single-1", "single", 1, 0, 100.0, "available",
			uint64(8), "double-1", "double", 2, 0, 150.0, "available").
		WillReturnResult(sqlmock.NewResult(1, 2))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE properties SET")).
		WithArgs(uint64(8), uint64(8), uint64(8)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.ReplaceForProperty(context.Background(), 8, rooms))
	assert.Equal(t, uint64(8), rooms[1].PropertyID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReplaceForProperty_RollsBackOnInsertFailure(t *testing.T) {
	db, mock := newDB(t)
	repo := NewRoomRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM rooms")).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO rooms")).WillReturnError(assert.AnError)
	mock.ExpectRollback()

	err := repo.ReplaceForProperty(context.Background(), 8, []model.Room{{RoomNumber: "single-1"}})
	assert.ErrorIs(t, err, assert.AnError)
	assert.NoError(t, mock.ExpectationsWereMet())
}

var roomSelectCols = []string{"id", "property_id", "room_number", "room_type", "capacity",
	"current_occupancy", "monthly_rent", "status", "created_at", "updated_at", "landlord_id"}

func TestRoomUpdateStatus(t *testing.T) {
	now := time.Now().UTC()

	t.Run("updates and recomputes counters", func(t *testing.T) {
		db, mock := newDB(t)
		repo := NewRoomRepo(db)
		mock.ExpectBegin()
		mock.ExpectQuery("FROM rooms r JOIN properties p").
			WithArgs(uint64(3)).
			WillReturnRows(sqlmock.NewRows(roomSelectCols).
				AddRow(3, 7, "double-1", "double", 2, 0, 150.0, "available", now, now, 42))
		mock.ExpectExec(regexp.QuoteMeta("UPDATE rooms SET status = ?, current_occupancy = ?, updated_at = ? WHERE id = ?")).
			WithArgs("occupied", 2, sqlmock.AnyArg(), uint64(3)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(regexp.QuoteMeta("UPDATE properties SET")).
			WithArgs(uint64(7), uint64(7), uint64(7)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		rm, err := repo.UpdateStatus(context.Background(), 42, 3, model.RoomOccupied, 2)
		require.NoError(t, err)
		assert.Equal(t, model.RoomOccupied, rm.Status)
		assert.Equal(t, 2, rm.CurrentOccupancy)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("other landlord is forbidden", func(t *testing.T) {
		db, mock := newDB(t)
		repo := NewRoomRepo(db)
		mock.ExpectBegin()
		mock.ExpectQuery("FROM rooms r JOIN properties p").
			WillReturnRows(sqlmock.NewRows(roomSelectCols).
				AddRow(3, 7, "double-1", "double", 2, 0, 150.0, "available", now, now, 99))
		mock.ExpectRollback()

		_, err := repo.UpdateStatus(context.Background(), 42, 3, model.RoomAvailable, 0)
		assert.ErrorIs(t, err, ErrForbidden)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	for name, tc := range map[string]struct {
		status    string
		occupancy int
	}{
		"over capacity":      {model.RoomAvailable, 3},
		"negative occupancy": {model.RoomAvailable, -1},
		"occupied but empty": {model.RoomOccupied, 0},
	} {
		t.Run(name, func(t *testing.T) {
			db, mock := newDB(t)
			repo := NewRoomRepo(db)
			mock.ExpectBegin()
			mock.ExpectQuery("FROM rooms r JOIN properties p").
				WillReturnRows(sqlmock.NewRows(roomSelectCols).
					AddRow(3, 7, "double-1", "double", 2, 0, 150.0, "available", now, now, 42))
			mock.ExpectRollback()

			_, err := repo.UpdateStatus(context.Background(), 42, 3, tc.status, tc.occupancy)
			assert.ErrorIs(t, err, ErrInvalidRoomState)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}

	t.Run("unknown status never opens a transaction", func(t *testing.T) {
		db, mock := newDB(t)
		repo := NewRoomRepo(db)
		_, err := repo.UpdateStatus(context.Background(), 42, 3, "demolished", 0)
		assert.ErrorIs(t, err, ErrInvalidRoomState)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
