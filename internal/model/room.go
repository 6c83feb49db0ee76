package model

import "time"

// Room status values.
const (
	RoomAvailable   = "available"
	RoomOccupied    = "occupied"
	RoomMaintenance = "maintenance"
)

// Room is one rentable unit within a property.  Rooms are owned by
// exactly one property and are recreated wholesale whenever the
// landlord edits the property's room types.
//
// Fields:
//  ID               – primary key identifier.
//  PropertyID       – owning property.
//  RoomNumber       – generated label of the form "{type}-{n}".
//  RoomType         – open enum: single, double, dormitory, bedsitter, one-bedroom.
//  Capacity         – number of occupants the room holds.
//  CurrentOccupancy – number of current occupants.
//  MonthlyRent      – rent per month.
//  Status           – available, occupied or maintenance.
type Room struct {
	ID               uint64    `json:"id"`                // rooms.id
	PropertyID       uint64    `json:"property_id"`       // rooms.property_id
	RoomNumber       string    `json:"room_number"`       // rooms.room_number
	RoomType         string    `json:"room_type"`         // rooms.room_type
	Capacity         int       `json:"capacity"`          // rooms.capacity
	CurrentOccupancy int       `json:"current_occupancy"` // rooms.current_occupancy
	MonthlyRent      float64   `json:"monthly_rent"`      // rooms.monthly_rent
	Status           string    `json:"status"`            // rooms.status
	CreatedAt        time.Time `json:"created_at"`        // rooms.created_at
	UpdatedAt        time.Time `json:"updated_at"`        // rooms.updated_at
}

// ValidRoomStatus reports whether s is one of the known room statuses.
func ValidRoomStatus(s string) bool {
	switch s {
	case RoomAvailable, RoomOccupied, RoomMaintenance:
		return true
	}
	return false
}
