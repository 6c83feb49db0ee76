package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/campus-housing/internal/model"
)

// Profile tables.  student_profiles only exists in older deployments.
const (
	TableProfiles        = "profiles"
	TableStudentProfiles = "student_profiles"
)

// ProfileRepo reads and writes the profiles table.
type ProfileRepo struct {
	db *sql.DB
}

// NewProfileRepo constructs a ProfileRepo.
func NewProfileRepo(db *sql.DB) *ProfileRepo { return &ProfileRepo{db: db} }

const profileColumns = `user_id, first_name, surname, email, phone, role, university,
	student_id, year_of_study, gender, company, created_at, updated_at`

func insertProfileTx(ctx context.Context, tx *sql.Tx, p *model.Profile) error {
	const q = `INSERT INTO profiles (user_id, first_name, surname, email, phone, role,
		university, student_id, year_of_study, gender, company)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := tx.ExecContext(ctx, q, p.UserID, p.FirstName, p.Surname, p.Email, strArg(p.Phone), p.Role,
		strArg(p.University), strArg(p.StudentID), strArg(p.YearOfStudy), strArg(p.Gender), strArg(p.Company))
	return err
}

// Get returns the profile of a user or ErrNotFound.
func (r *ProfileRepo) Get(ctx context.Context, userID uint64) (*model.Profile, error) {
	q := "SELECT " + profileColumns + " FROM profiles WHERE user_id = ?"
	var p model.Profile
	var phone, university, studentID, year, gender, company sql.NullString
	err := r.db.QueryRowContext(ctx, q, userID).Scan(&p.UserID, &p.FirstName, &p.Surname, &p.Email,
		&phone, &p.Role, &university, &studentID, &year, &gender, &company, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	p.Phone = nullString(phone)
	p.University = nullString(university)
	p.StudentID = nullString(studentID)
	p.YearOfStudy = nullString(year)
	p.Gender = nullString(gender)
	p.Company = nullString(company)
	return &p, nil
}

// Update rewrites the editable fields of a profile.  Email and role are
// owned by the users table and are not changed here.
func (r *ProfileRepo) Update(ctx context.Context, p *model.Profile) error {
	const q = `UPDATE profiles SET first_name = ?, surname = ?, phone = ?, university = ?,
		student_id = ?, year_of_study = ?, gender = ?, company = ?, updated_at = ?
		WHERE user_id = ?`
	res, err := r.db.ExecContext(ctx, q, p.FirstName, p.Surname, strArg(p.Phone), strArg(p.University),
		strArg(p.StudentID), strArg(p.YearOfStudy), strArg(p.Gender), strArg(p.Company),
		time.Now().UTC(), p.UserID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteFrom removes the user's row from one of the profile tables.
// A missing row is not an error.  Callers can test the error with
// IsMissingTable.
func (r *ProfileRepo) DeleteFrom(ctx context.Context, table string, userID uint64) error {
	var q string
	switch table {
	case TableProfiles:
		q = "DELETE FROM profiles WHERE user_id = ?"
	case TableStudentProfiles:
		q = "DELETE FROM student_profiles WHERE user_id = ?"
	default:
		return errors.New("unknown profile table: " + table)
	}
	_, err := r.db.ExecContext(ctx, q, userID)
	return err
}
