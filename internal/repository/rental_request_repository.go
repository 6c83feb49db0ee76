package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/campus-housing/internal/model"
)

// RentalRequestRepo stores rental requests.  (student_profile_id,
// property_id) is unique; Insert reports a second request for the same
// pair as ErrDuplicate.
type RentalRequestRepo struct {
	db *sql.DB
}

// NewRentalRequestRepo constructs a RentalRequestRepo.
func NewRentalRequestRepo(db *sql.DB) *RentalRequestRepo { return &RentalRequestRepo{db: db} }

// requestDetailSelect joins a request with its property and the
// student's profile.  The profile join is LEFT so a request outlives a
// deleted profile.
const requestDetailSelect = `SELECT rr.id, rr.student_profile_id, rr.user_id, rr.property_id,
	rr.landlord_profile_id, rr.status, rr.message, rr.rejection_reason, rr.student_phone,
	rr.student_university, rr.student_year, rr.student_gender, rr.created_at, rr.updated_at,
	p.title, p.landlord_id, COALESCE(sp.first_name, ''), COALESCE(sp.surname, ''), COALESCE(sp.email, '')
	FROM rental_requests rr
	JOIN properties p ON p.id = rr.property_id
	LEFT JOIN profiles sp ON sp.user_id = rr.student_profile_id`

func scanRequestDetail(s rowScanner) (*model.RentalRequestDetail, error) {
	var d model.RentalRequestDetail
	var landlordProfile sql.NullInt64
	var reason, university, year, gender sql.NullString
	var first, surname string
	err := s.Scan(&d.ID, &d.StudentProfileID, &d.UserID, &d.PropertyID, &landlordProfile, &d.Status,
		&d.Message, &reason, &d.StudentPhone, &university, &year, &gender, &d.CreatedAt, &d.UpdatedAt,
		&d.PropertyTitle, &d.PropertyLandlordID, &first, &surname, &d.StudentEmail)
	if err != nil {
		return nil, err
	}
	d.LandlordProfileID = nullUint64(landlordProfile)
	d.RejectionReason = nullString(reason)
	d.StudentUniversity = nullString(university)
	d.StudentYear = nullString(year)
	d.StudentGender = nullString(gender)
	d.StudentName = model.Profile{FirstName: first, Surname: surname}.FullName()
	d.DisplayStatus = model.DisplayStatus(d.Status)
	return &d, nil
}

// Insert stores a new pending request and sets rq.ID.  A request for a
// (student, property) pair that already exists yields ErrDuplicate.
func (r *RentalRequestRepo) Insert(ctx context.Context, rq *model.RentalRequest) error {
	const q = `INSERT INTO rental_requests (student_profile_id, user_id, property_id, landlord_profile_id,
		status, message, student_phone, student_university, student_year, student_gender)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	var landlord any
	if rq.LandlordProfileID != nil {
		landlord = *rq.LandlordProfileID
	}
	res, err := r.db.ExecContext(ctx, q, rq.StudentProfileID, rq.UserID, rq.PropertyID, landlord,
		model.RequestPending, rq.Message, rq.StudentPhone, strArg(rq.StudentUniversity),
		strArg(rq.StudentYear), strArg(rq.StudentGender))
	if err != nil {
		if IsDuplicate(err) {
			return ErrDuplicate
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rq.ID = uint64(id)
	rq.Status = model.RequestPending
	return nil
}

// GetByStudentAndProperty returns the request of a student for a
// property or ErrNotFound.
func (r *RentalRequestRepo) GetByStudentAndProperty(ctx context.Context, studentID, propertyID uint64) (*model.RentalRequestDetail, error) {
	return r.getOne(ctx, requestDetailSelect+" WHERE rr.student_profile_id = ? AND rr.property_id = ?", studentID, propertyID)
}

// GetForLandlord loads a request through its property.  It returns
// ErrNotFound for an unknown id and ErrForbidden when the property
// belongs to another landlord.
func (r *RentalRequestRepo) GetForLandlord(ctx context.Context, id, landlordID uint64) (*model.RentalRequestDetail, error) {
	d, err := r.getOne(ctx, requestDetailSelect+" WHERE rr.id = ?", id)
	if err != nil {
		return nil, err
	}
	if d.PropertyLandlordID != landlordID {
		return nil, ErrForbidden
	}
	return d, nil
}

func (r *RentalRequestRepo) getOne(ctx context.Context, q string, args ...any) (*model.RentalRequestDetail, error) {
	d, err := scanRequestDetail(r.db.QueryRowContext(ctx, q, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return d, nil
}

// UpdateStatus moves a pending request owned by landlordID to status.
// reason is stored only for rejections.  When no pending row matched,
// ErrConflict is returned.  The new updated_at is returned.
func (r *RentalRequestRepo) UpdateStatus(ctx context.Context, id, landlordID uint64, status string, reason *string) (time.Time, error) {
	if status != model.RequestRejected {
		reason = nil
	}
	now := time.Now().UTC()
	const q = `UPDATE rental_requests rr JOIN properties p ON p.id = rr.property_id
		SET rr.status = ?, rr.rejection_reason = ?, rr.updated_at = ?
		WHERE rr.id = ? AND p.landlord_id = ? AND rr.status = 'pending'`
	res, err := r.db.ExecContext(ctx, q, status, strArg(reason), now, id, landlordID)
	if err != nil {
		return time.Time{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return time.Time{}, ErrConflict
	}
	return now, nil
}

// ListByLandlord returns requests on the landlord's properties, newest
// first.  An empty status lists every status.
func (r *RentalRequestRepo) ListByLandlord(ctx context.Context, landlordID uint64, status string) ([]*model.RentalRequestDetail, error) {
	q := requestDetailSelect + " WHERE p.landlord_id = ?"
	args := []any{landlordID}
	if status != "" {
		q += " AND rr.status = ?"
		args = append(args, status)
	}
	q += " ORDER BY rr.created_at DESC, rr.id DESC"
	return r.list(ctx, q, args...)
}

// ListByStudent returns the student's requests, newest first.
func (r *RentalRequestRepo) ListByStudent(ctx context.Context, studentID uint64) ([]*model.RentalRequestDetail, error) {
	return r.list(ctx, requestDetailSelect+" WHERE rr.student_profile_id = ? ORDER BY rr.created_at DESC, rr.id DESC", studentID)
}

func (r *RentalRequestRepo) list(ctx context.Context, q string, args ...any) ([]*model.RentalRequestDetail, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*model.RentalRequestDetail, 0)
	for rows.Next() {
		d, err := scanRequestDetail(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// CountPending returns how many pending requests the landlord has.
func (r *RentalRequestRepo) CountPending(ctx context.Context, landlordID uint64) (int, error) {
	const q = `SELECT COUNT(*) FROM rental_requests rr JOIN properties p ON p.id = rr.property_id
		WHERE p.landlord_id = ? AND rr.status = 'pending'`
	var n int
	err := r.db.QueryRowContext(ctx, q, landlordID).Scan(&n)
	return n, err
}
