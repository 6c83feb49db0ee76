package model

import "time"

// Property is a landlord-owned rental listing.  It corresponds to a row
// in the `properties` table.  TotalRooms, AvailableRooms and PricePerRoom
// are denormalized summaries of the property's rooms; they are rewritten
// whenever the room set or a room's status changes.
//
// Fields:
//  ID                 – primary key identifier.
//  LandlordID         – user ID of the owning landlord.
//  Title, Description – listing text.
//  AddressLine1       – street address.
//  University         – campus the listing targets.
//  GenderPreference   – male, female or mixed.
//  PropertyType       – free-form type (house, apartment, cottage ...).
//  ContactPhone       – landlord contact number shown to students.
//  TotalRooms         – declared room count.
//  AvailableRooms     – rooms currently available.
//  PricePerRoom       – "starting from" price, the cheapest room type.
//  Amenities          – amenity tags (wifi, solar, borehole ...).
//  Images             – ordered image URLs; the first one is the main image.
//  Rules              – house rules, one per entry.
//  DistanceFromCampus – kilometres to campus.
//  IsActive           – whether students can see the listing.
type Property struct {
	ID                 uint64    `json:"id"`                   // properties.id
	LandlordID         uint64    `json:"landlord_id"`          // properties.landlord_id
	Title              string    `json:"title"`                // properties.title
	Description        string    `json:"description"`          // properties.description
	AddressLine1       string    `json:"address_line1"`        // properties.address_line1
	University         string    `json:"university"`           // properties.university
	GenderPreference   string    `json:"gender_preference"`    // properties.gender_preference
	PropertyType       string    `json:"property_type"`        // properties.property_type
	ContactPhone       string    `json:"contact_phone"`        // properties.contact_phone
	TotalRooms         int       `json:"total_rooms"`          // properties.total_rooms
	AvailableRooms     int       `json:"available_rooms"`      // properties.available_rooms
	PricePerRoom       float64   `json:"price_per_room"`       // properties.price_per_room
	Amenities          []string  `json:"amenities"`            // properties.amenities (JSON)
	Images             []string  `json:"images"`               // properties.images (JSON)
	Rules              []string  `json:"rules"`                // properties.rules (JSON)
	DistanceFromCampus float64   `json:"distance_from_campus"` // properties.distance_from_campus
	IsActive           bool      `json:"is_active"`            // properties.is_active
	VerificationStatus string    `json:"verification_status"`  // properties.verification_status
	Country            string    `json:"country"`              // properties.country
	IsFurnished        bool      `json:"is_furnished"`         // properties.is_furnished
	MinimumStayMonths  int       `json:"minimum_stay_months"`  // properties.minimum_stay_months
	CreatedAt          time.Time `json:"created_at"`           // properties.created_at
	UpdatedAt          time.Time `json:"updated_at"`           // properties.updated_at
}

// MainImage returns the first image URL or an empty string.
func (p Property) MainImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

// Defaults applied to every newly listed property.
const (
	DefaultGenderPreference   = "mixed"
	DefaultVerificationStatus = "pending"
	DefaultCountry            = "Zimbabwe"
	DefaultMinimumStayMonths  = 12
)
