package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/campus-housing/internal/model"
)

var propertyCols = []string{"id", "landlord_id", "title", "description", "address_line1", "university",
	"gender_preference", "property_type", "contact_phone", "total_rooms", "available_rooms",
	"price_per_room", "amenities", "images", "rules", "distance_from_campus", "is_active",
	"verification_status", "country", "is_furnished", "minimum_stay_months", "created_at", "updated_at"}

func TestCreateWithRooms(t *testing.T) {
	db, mock := newDB(t)
	p := &model.Property{LandlordID: 42, Title: "Avondale cottage", TotalRooms: 3, AvailableRooms: 3,
		PricePerRoom: 100, Images: []string{"http://x/42/a.jpg"}, IsActive: true}
	rooms := []model.Room{
		{RoomNumber: "single-1", RoomType: "single", Capacity: 1, MonthlyRent: 100, Status: model.RoomAvailable},
		{RoomNumber: "single-2", RoomType: "single", Capacity: 1, MonthlyRent: 100, Status: model.RoomAvailable},
		{RoomNumber: "double-1", RoomType: "double", Capacity: 2, MonthlyRent: 150, Status: model.RoomAvailable},
	}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO properties")).WillReturnResult(sqlmock.NewResult(9, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO rooms")).WillReturnResult(sqlmock.NewResult(1, 3))
	mock.ExpectCommit()

	require.NoError(t, NewPropertyRepo(db).CreateWithRooms(context.Background(), p, rooms))
	assert.Equal(t, uint64(9), p.ID)
	for _, rm := range rooms {
		assert.Equal(t, uint64(9), rm.PropertyID)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateWithRooms_RoomFailureRollsBackProperty(t *testing.T) {
	db, mock := newDB(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO properties")).WillReturnResult(sqlmock.NewResult(9, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO rooms")).WillReturnError(assert.AnError)
	mock.ExpectRollback()

	err := NewPropertyRepo(db).CreateWithRooms(context.Background(), &model.Property{LandlordID: 42},
		[]model.Room{{RoomNumber: "single-1"}})
	assert.ErrorIs(t, err, assert.AnError)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateWithRooms_ReportsOccupiedRooms(t *testing.T) {
	db, mock := newDB(t)
	now := time.Now().UTC()
	p := &model.Property{ID: 9, LandlordID: 42, Title: "Avondale cottage"}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT landlord_id FROM properties WHERE id = ? FOR UPDATE")).
		WithArgs(uint64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"landlord_id"}).AddRow(42))
	mock.ExpectQuery(regexp.QuoteMeta("current_occupancy > 0")).
		WillReturnRows(sqlmock.NewRows(roomSelectCols[:10]).
			AddRow(1, 9, "single-1", "single", 1, 1, 100.0, "occupied", now, now))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE properties SET title = ?")).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM rooms WHERE property_id = ?")).WithArgs(uint64(9)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO rooms")).WillReturnResult(sqlmock.NewResult(1, 2))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE properties SET total_rooms")).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	discarded, err := NewPropertyRepo(db).UpdateWithRooms(context.Background(), p, []model.Room{
		{RoomNumber: "single-1", RoomType: "single"}, {RoomNumber: "double-1", RoomType: "double"},
	})
	require.NoError(t, err)
	require.Len(t, discarded, 1)
	assert.Equal(t, "single-1", discarded[0].RoomNumber)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateWithRooms_NotOwner(t *testing.T) {
	db, mock := newDB(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT landlord_id FROM properties")).
		WillReturnRows(sqlmock.NewRows([]string{"landlord_id"}).AddRow(7))
	mock.ExpectRollback()

	_, err := NewPropertyRepo(db).UpdateWithRooms(context.Background(), &model.Property{ID: 9, LandlordID: 42}, nil)
	assert.ErrorIs(t, err, ErrForbidden)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByID_DecodesJSONColumns(t *testing.T) {
	db, mock := newDB(t)
	now := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta("FROM properties WHERE id = ?")).
		WithArgs(uint64(9)).
		WillReturnRows(sqlmock.NewRows(propertyCols).AddRow(9, 42, "Avondale cottage", "", "12 Main Rd", "UZ",
			"mixed", "cottage", "0771", 6, 4, 85.0, []byte(`["wifi","solar"]`), []byte(`["http://x/a.jpg"]`), nil,
			1.5, true, "pending", "Zimbabwe", false, 12, now, now))

	p, err := NewPropertyRepo(db).GetByID(context.Background(), 9)
	require.NoError(t, err)
	assert.Equal(t, []string{"wifi", "solar"}, p.Amenities)
	assert.Equal(t, "http://x/a.jpg", p.MainImage())
	assert.Equal(t, []string{}, p.Rules)
	assert.Equal(t, 4, p.AvailableRooms)
}

func TestGetByID_NotFound(t *testing.T) {
	db, mock := newDB(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM properties WHERE id = ?")).WillReturnRows(sqlmock.NewRows(propertyCols))

	_, err := NewPropertyRepo(db).GetByID(context.Background(), 9)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListActive_Filters(t *testing.T) {
	db, mock := newDB(t)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE is_active = TRUE AND university = ? AND gender_preference IN (?, ?) AND price_per_room <= ?")).
		WithArgs("UZ", "female", "mixed", 120.0).
		WillReturnRows(sqlmock.NewRows(propertyCols))

	out, err := NewPropertyRepo(db).ListActive(context.Background(), PropertyFilter{University: "UZ", Gender: "female", MaxPrice: 120})
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileDeleteFrom_MissingTable(t *testing.T) {
	db, mock := newDB(t)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM student_profiles WHERE user_id = ?")).
		WithArgs(uint64(7)).
		WillReturnError(&mysql.MySQLError{Number: 1146, Message: "Table 'housing.student_profiles' doesn't exist"})

	err := NewProfileRepo(db).DeleteFrom(context.Background(), TableStudentProfiles, 7)
	assert.True(t, IsMissingTable(err))
	assert.False(t, IsDuplicate(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}
