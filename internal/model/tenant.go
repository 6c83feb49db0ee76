package model

// Tenant is the placeholder produced when a landlord accepts a rental
// request.  It is returned to the caller for display only and is not a
// record of who occupies which room.
type Tenant struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Property   string `json:"property"`
	MoveInDate string `json:"move_in_date"`
	Status     string `json:"status"`
	RoomNumber string `json:"room_number"`
	RoomType   string `json:"room_type"`
	RequestID  uint64 `json:"request_id"`
	StudentID  uint64 `json:"student_id"`
}
