package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/campus-housing/internal/model"
)

// ErrInvalidRoomState is returned when a status or occupancy change
// would break the room invariants: 0 <= occupancy <= capacity and an
// occupied room has at least one occupant.
var ErrInvalidRoomState = errors.New("invalid room state")

// RoomRepo encapsulates queries on the rooms table.  It is also the
// only writer of properties.available_rooms and properties.total_rooms,
// which are recomputed from rooms inside every room-mutating
// transaction.
type RoomRepo struct {
	db *sql.DB
}

// NewRoomRepo constructs a RoomRepo.
func NewRoomRepo(db *sql.DB) *RoomRepo { return &RoomRepo{db: db} }

const roomColumns = "id, property_id, room_number, room_type, capacity, current_occupancy, monthly_rent, status, created_at, updated_at"

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func listRoomsTx(ctx context.Context, q queryer, query string, args ...any) ([]model.Room, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Room, 0)
	for rows.Next() {
		var rm model.Room
		if err := rows.Scan(&rm.ID, &rm.PropertyID, &rm.RoomNumber, &rm.RoomType, &rm.Capacity,
			&rm.CurrentOccupancy, &rm.MonthlyRent, &rm.Status, &rm.CreatedAt, &rm.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, rm)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListByProperty returns the rooms of one property ordered by id.
func (r *RoomRepo) ListByProperty(ctx context.Context, propertyID uint64) ([]model.Room, error) {
	return listRoomsTx(ctx, r.db, "SELECT "+roomColumns+" FROM rooms WHERE property_id = ? ORDER BY id", propertyID)
}

// ListByProperties returns rooms for several properties keyed by
// property id.  Properties without rooms are absent from the map.
func (r *RoomRepo) ListByProperties(ctx context.Context, propertyIDs []uint64) (map[uint64][]model.Room, error) {
	out := make(map[uint64][]model.Room)
	if len(propertyIDs) == 0 {
		return out, nil
	}
	args := make([]any, len(propertyIDs))
	for i, id := range propertyIDs {
		args[i] = id
	}
	q := "SELECT " + roomColumns + " FROM rooms WHERE property_id IN (?" +
		strings.Repeat(",?", len(propertyIDs)-1) + ") ORDER BY property_id, id"
	rooms, err := listRoomsTx(ctx, r.db, q, args...)
	if err != nil {
		return nil, err
	}
	for _, rm := range rooms {
		out[rm.PropertyID] = append(out[rm.PropertyID], rm)
	}
	return out, nil
}

// ListByLandlord returns the rooms of every property the landlord owns.
// A non-zero propertyID narrows the result to that property.
func (r *RoomRepo) ListByLandlord(ctx context.Context, landlordID, propertyID uint64) ([]model.Room, error) {
	q := `SELECT r.id, r.property_id, r.room_number, r.room_type, r.capacity, r.current_occupancy,
		r.monthly_rent, r.status, r.created_at, r.updated_at
		FROM rooms r JOIN properties p ON p.id = r.property_id
		WHERE p.landlord_id = ?`
	args := []any{landlordID}
	if propertyID != 0 {
		q += " AND r.property_id = ?"
		args = append(args, propertyID)
	}
	q += " ORDER BY r.property_id, r.id"
	return listRoomsTx(ctx, r.db, q, args...)
}

// ReplaceForProperty deletes every room of the property and inserts
// rooms in their place, all in one transaction.  Passing no rooms
// leaves the property empty.  Rooms of other properties are untouched.
func (r *RoomRepo) ReplaceForProperty(ctx context.Context, propertyID uint64, rooms []model.Room) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := replaceRoomsTx(ctx, tx, propertyID, rooms); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

func replaceRoomsTx(ctx context.Context, tx *sql.Tx, propertyID uint64, rooms []model.Room) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM rooms WHERE property_id = ?", propertyID); err != nil {
		return err
	}
	for i := range rooms {
		rooms[i].PropertyID = propertyID
	}
	if err := insertRoomsTx(ctx, tx, rooms); err != nil {
		return err
	}
	return recomputeCountsTx(ctx, tx, propertyID)
}

// insertRoomsTx writes rooms with a single multi-row INSERT.
func insertRoomsTx(ctx context.Context, tx *sql.Tx, rooms []model.Room) error {
	if len(rooms) == 0 {
		return nil
	}
	var sb strings.Builder
	sb.WriteString("INSERT INTO rooms (property_id, room_number, room_type, capacity, current_occupancy, monthly_rent, status) VALUES ")
	args := make([]any, 0, len(rooms)*7)
	for i, rm := range rooms {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(?, ?, ?, ?, ?, ?, ?)")
		args = append(args, rm.PropertyID, rm.RoomNumber, rm.RoomType, rm.Capacity, rm.CurrentOccupancy, rm.MonthlyRent, rm.Status)
	}
	_, err := tx.ExecContext(ctx, sb.String(), args...)
	return err
}

// recomputeCountsTx rewrites the property's denormalized counters from
// its rooms.  A room is available when its status is available and it
// has free capacity.
func recomputeCountsTx(ctx context.Context, tx *sql.Tx, propertyID uint64) error {
	const q = `UPDATE properties SET
		total_rooms = (SELECT COUNT(*) FROM rooms WHERE property_id = ?),
		available_rooms = (SELECT COUNT(*) FROM rooms WHERE property_id = ?
			AND status = 'available' AND current_occupancy < capacity)
		WHERE id = ?`
	_, err := tx.ExecContext(ctx, q, propertyID, propertyID, propertyID)
	return err
}

// UpdateStatus changes a room's status and occupancy.  The room must
// belong to a property of landlordID.  The property's counters are
// recomputed in the same transaction.  It returns the updated room.
func (r *RoomRepo) UpdateStatus(ctx context.Context, landlordID, roomID uint64, status string, occupancy int) (*model.Room, error) {
	if !model.ValidRoomStatus(status) {
		return nil, ErrInvalidRoomState
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var rm model.Room
	var owner uint64
	const sel = `SELECT r.id, r.property_id, r.room_number, r.room_type, r.capacity, r.current_occupancy,
		r.monthly_rent, r.status, r.created_at, r.updated_at, p.landlord_id
		FROM rooms r JOIN properties p ON p.id = r.property_id
		WHERE r.id = ? FOR UPDATE`
	err = tx.QueryRowContext(ctx, sel, roomID).Scan(&rm.ID, &rm.PropertyID, &rm.RoomNumber, &rm.RoomType,
		&rm.Capacity, &rm.CurrentOccupancy, &rm.MonthlyRent, &rm.Status, &rm.CreatedAt, &rm.UpdatedAt, &owner)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if owner != landlordID {
		return nil, ErrForbidden
	}
	if occupancy < 0 || occupancy > rm.Capacity || (status == model.RoomOccupied && occupancy == 0) {
		return nil, ErrInvalidRoomState
	}

	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctx,
		"UPDATE rooms SET status = ?, current_occupancy = ?, updated_at = ? WHERE id = ?",
		status, occupancy, now, roomID); err != nil {
		return nil, err
	}
	if err := recomputeCountsTx(ctx, tx, rm.PropertyID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	rm.Status = status
	rm.CurrentOccupancy = occupancy
	rm.UpdatedAt = now
	return &rm, nil
}
