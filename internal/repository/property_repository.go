package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/campus-housing/internal/model"
)

// PropertyRepo encapsulates all database queries related to properties.
// Writes that touch rooms as well run in a single transaction so readers
// never observe a property without its rooms.
type PropertyRepo struct {
	db *sql.DB
}

// NewPropertyRepo constructs a PropertyRepo with the provided DB handle.
func NewPropertyRepo(db *sql.DB) *PropertyRepo { return &PropertyRepo{db: db} }

// PropertyFilter narrows public listings.  Zero values mean no filter.
type PropertyFilter struct {
	University string
	Gender     string
	MaxPrice   float64
}

const propertyColumns = `id, landlord_id, title, description, address_line1, university,
	gender_preference, property_type, contact_phone, total_rooms, available_rooms,
	price_per_room, amenities, images, rules, distance_from_campus, is_active,
	verification_status, country, is_furnished, minimum_stay_months, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProperty(s rowScanner) (*model.Property, error) {
	var p model.Property
	var amenities, images, rules []byte
	err := s.Scan(&p.ID, &p.LandlordID, &p.Title, &p.Description, &p.AddressLine1, &p.University,
		&p.GenderPreference, &p.PropertyType, &p.ContactPhone, &p.TotalRooms, &p.AvailableRooms,
		&p.PricePerRoom, &amenities, &images, &rules, &p.DistanceFromCampus, &p.IsActive,
		&p.VerificationStatus, &p.Country, &p.IsFurnished, &p.MinimumStayMonths, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if p.Amenities, err = parseJSONList(amenities); err != nil {
		return nil, err
	}
	if p.Images, err = parseJSONList(images); err != nil {
		return nil, err
	}
	if p.Rules, err = parseJSONList(rules); err != nil {
		return nil, err
	}
	return &p, nil
}

// propertyListArgs encodes the JSON columns in column order.
func propertyListArgs(p *model.Property) (amenities, images, rules []byte, err error) {
	if amenities, err = jsonList(p.Amenities); err != nil {
		return
	}
	if images, err = jsonList(p.Images); err != nil {
		return
	}
	rules, err = jsonList(p.Rules)
	return
}

// CreateWithRooms inserts the property and its rooms in one transaction.
// On success p.ID is set and every room carries the new property id.
func (r *PropertyRepo) CreateWithRooms(ctx context.Context, p *model.Property, rooms []model.Room) error {
	amenities, images, rules, err := propertyListArgs(p)
	if err != nil {
		return err
	}
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

	const q = `INSERT INTO properties (landlord_id, title, description, address_line1, university,
		gender_preference, property_type, contact_phone, total_rooms, available_rooms, price_per_room,
		amenities, images, rules, distance_from_campus, is_active, verification_status, country,
		is_furnished, minimum_stay_months)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, p.LandlordID, p.Title, p.Description, p.AddressLine1, p.University,
		p.GenderPreference, p.PropertyType, p.ContactPhone, p.TotalRooms, p.AvailableRooms, p.PricePerRoom,
		amenities, images, rules, p.DistanceFromCampus, p.IsActive, p.VerificationStatus, p.Country,
		p.IsFurnished, p.MinimumStayMonths)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	for i := range rooms {
		rooms[i].PropertyID = p.ID
	}
	if err := insertRoomsTx(ctx, tx, rooms); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// UpdateWithRooms rewrites the property's listing fields and replaces
// its rooms in one transaction.  The property must belong to
// p.LandlordID.  It returns the rooms that were discarded while they
// still had occupants.
func (r *PropertyRepo) UpdateWithRooms(ctx context.Context, p *model.Property, rooms []model.Room) ([]model.Room, error) {
	amenities, images, rules, err := propertyListArgs(p)
	if err != nil {
		return nil, err
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

	if err := checkOwnerTx(ctx, tx, p.ID, p.LandlordID); err != nil {
		return nil, err
	}
	occupied, err := listRoomsTx(ctx, tx, "SELECT "+roomColumns+" FROM rooms WHERE property_id = ? AND current_occupancy > 0 ORDER BY id", p.ID)
	if err != nil {
		return nil, err
	}

	const q = `UPDATE properties SET title = ?, description = ?, address_line1 = ?, university = ?,
		gender_preference = ?, property_type = ?, contact_phone = ?, price_per_room = ?,
		amenities = ?, images = ?, rules = ?, distance_from_campus = ?, updated_at = ?
		WHERE id = ? AND landlord_id = ?`
	if _, err := tx.ExecContext(ctx, q, p.Title, p.Description, p.AddressLine1, p.University,
		p.GenderPreference, p.PropertyType, p.ContactPhone, p.PricePerRoom,
		amenities, images, rules, p.DistanceFromCampus, time.Now().UTC(), p.ID, p.LandlordID); err != nil {
		return nil, err
	}
	if err := replaceRoomsTx(ctx, tx, p.ID, rooms); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return occupied, nil
}

// checkOwnerTx locks the property row and verifies ownership.  It
// returns ErrNotFound for a missing property and ErrForbidden when the
// property belongs to someone else.
func checkOwnerTx(ctx context.Context, tx *sql.Tx, propertyID, landlordID uint64) error {
	var owner uint64
	err := tx.QueryRowContext(ctx, "SELECT landlord_id FROM properties WHERE id = ? FOR UPDATE", propertyID).Scan(&owner)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	if owner != landlordID {
		return ErrForbidden
	}
	return nil
}

// GetByID fetches a property regardless of owner.
func (r *PropertyRepo) GetByID(ctx context.Context, id uint64) (*model.Property, error) {
	p, err := scanProperty(r.db.QueryRowContext(ctx, "SELECT "+propertyColumns+" FROM properties WHERE id = ?", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

// ListActive returns active properties matching f, newest first.  A
// gender filter also matches properties open to mixed tenants.
func (r *PropertyRepo) ListActive(ctx context.Context, f PropertyFilter) ([]*model.Property, error) {
	where := []string{"is_active = TRUE"}
	var args []any
	if u := strings.TrimSpace(f.University); u != "" {
		where = append(where, "university = ?")
		args = append(args, u)
	}
	if g := strings.TrimSpace(f.Gender); g != "" {
		where = append(where, "gender_preference IN (?, ?)")
		args = append(args, g, model.DefaultGenderPreference)
	}
	if f.MaxPrice > 0 {
		where = append(where, "price_per_room <= ?")
		args = append(args, f.MaxPrice)
	}
	q := "SELECT " + propertyColumns + " FROM properties WHERE " + strings.Join(where, " AND ") +
		" ORDER BY created_at DESC, id DESC"
	return r.list(ctx, q, args...)
}

// ListByLandlord returns every property of a landlord, newest first.
func (r *PropertyRepo) ListByLandlord(ctx context.Context, landlordID uint64) ([]*model.Property, error) {
	q := "SELECT " + propertyColumns + " FROM properties WHERE landlord_id = ? ORDER BY created_at DESC, id DESC"
	return r.list(ctx, q, landlordID)
}

func (r *PropertyRepo) list(ctx context.Context, q string, args ...any) ([]*model.Property, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*model.Property, 0)
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes a property with its rooms and rental requests provided
// it belongs to landlordID.  The deletion occurs within a transaction.
func (r *PropertyRepo) Delete(ctx context.Context, id, landlordID uint64) error {
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
	if err := checkOwnerTx(ctx, tx, id, landlordID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM rental_requests WHERE property_id = ?", id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM rooms WHERE property_id = ?", id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM properties WHERE id = ? AND landlord_id = ?", id, landlordID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}
