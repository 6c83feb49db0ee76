package model

import "time"

// Role names carried in users.role and the JWT "role" claim.
const (
	RoleStudent  = "STUDENT"
	RoleLandlord = "LANDLORD"
)

// Profile holds a user's extended attributes.  There is one profile per
// user, keyed by UserID.  Student-only fields (University, StudentID,
// YearOfStudy, Gender) and landlord-only fields (Company) are nullable.
type Profile struct {
	UserID      uint64    `json:"user_id"`
	FirstName   string    `json:"first_name"`
	Surname     string    `json:"surname"`
	Email       string    `json:"email"`
	Phone       *string   `json:"phone,omitempty"`
	Role        string    `json:"role"`
	University  *string   `json:"university,omitempty"`
	StudentID   *string   `json:"student_id,omitempty"`
	YearOfStudy *string   `json:"year_of_study,omitempty"`
	Gender      *string   `json:"gender,omitempty"`
	Company     *string   `json:"company,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// FullName joins first name and surname.
func (p Profile) FullName() string {
	switch {
	case p.FirstName == "":
		return p.Surname
	case p.Surname == "":
		return p.FirstName
	}
	return p.FirstName + " " + p.Surname
}
