package model

import "time"

// Rental request status values as stored in rental_requests.status.
const (
	RequestPending  = "pending"
	RequestAccepted = "accepted"
	RequestRejected = "rejected"
)

// RentalRequest records one student's interest in one property.  The
// (StudentProfileID, PropertyID) pair is unique.  A request starts
// pending and is moved to accepted or rejected by the landlord that
// owns the property.  Requests are never deleted by the application.
//
// Fields:
//  ID                – primary key identifier.
//  StudentProfileID  – requesting student (the user ID).
//  UserID            – same as StudentProfileID; kept for older clients.
//  PropertyID        – requested property.
//  LandlordProfileID – owner of the property at submission time.
//  Status            – pending, accepted or rejected.
//  Message           – free text from the student.
//  RejectionReason   – set only when rejected (nullable).
//  Student*          – contact snapshot copied from the student profile.
type RentalRequest struct {
	ID                uint64    `json:"id"`
	StudentProfileID  uint64    `json:"student_profile_id"`
	UserID            uint64    `json:"user_id"`
	PropertyID        uint64    `json:"property_id"`
	LandlordProfileID *uint64   `json:"landlord_profile_id,omitempty"`
	Status            string    `json:"status"`
	Message           string    `json:"message"`
	RejectionReason   *string   `json:"rejection_reason,omitempty"`
	StudentPhone      string    `json:"student_phone"`
	StudentUniversity *string   `json:"student_university,omitempty"`
	StudentYear       *string   `json:"student_year,omitempty"`
	StudentGender     *string   `json:"student_gender,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// DisplayStatus maps the stored status to the label shown to users:
// accepted requests are displayed as "approved".
func DisplayStatus(status string) string {
	if status == RequestAccepted {
		return "approved"
	}
	if status == "" {
		return RequestPending
	}
	return status
}

// IsTerminal reports whether no further transition is allowed.
func IsTerminal(status string) bool {
	return status == RequestAccepted || status == RequestRejected
}

// RentalRequestDetail is a request joined with what list views show
// next to it: the property title and the student's name and email.
type RentalRequestDetail struct {
	RentalRequest
	PropertyTitle      string `json:"property_title"`
	PropertyLandlordID uint64 `json:"property_landlord_id"`
	StudentName        string `json:"student_name"`
	StudentEmail       string `json:"student_email"`
	DisplayStatus      string `json:"display_status"`
}
