// Package availability derives room-type pricing and availability from
// a property's rooms.  Everything here is a pure function over model
// values; persistence lives in the repository package.
package availability

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/iliyamo/campus-housing/internal/model"
)

// DefaultRoomType is used for rooms whose type was left blank.
const DefaultRoomType = "room"

// roomTypeOrder is the order in which landlords pick room types on the
// listing form.  Groups of known types are listed in this order.
var roomTypeOrder = []string{"single", "double", "dormitory", "bedsitter", "one-bedroom"}

func typeRank(t string) int {
	for i, v := range roomTypeOrder {
		if v == t {
			return i
		}
	}
	return -1
}

// Group is one (room type, monthly rent) bucket.
type Group struct {
	RoomType    string  `json:"room_type"`
	MonthlyRent float64 `json:"monthly_rent"`
	Total       int     `json:"total"`
	Available   int     `json:"available"`
}

// IsAvailable reports whether a room can take a new tenant: its status
// is available and it has free capacity.  A room without capacity is
// never available.
func IsAvailable(r model.Room) bool {
	return r.Status == model.RoomAvailable && r.CurrentOccupancy < r.Capacity
}

func normalizeType(t string) string {
	t = strings.TrimSpace(t)
	if t == "" {
		return DefaultRoomType
	}
	return t
}

// GroupByTypeAndPrice buckets rooms by (type, rent).  Two rooms of the
// same type at different rents form separate groups.  The result does
// not depend on the input order.
func GroupByTypeAndPrice(rooms []model.Room) []Group {
	type key struct {
		t string
		p float64
	}
	index := make(map[key]int)
	groups := make([]Group, 0)
	for _, r := range rooms {
		k := key{t: normalizeType(r.RoomType), p: r.MonthlyRent}
		i, ok := index[k]
		if !ok {
			i = len(groups)
			index[k] = i
			groups = append(groups, Group{RoomType: k.t, MonthlyRent: k.p})
		}
		groups[i].Total++
		if IsAvailable(r) {
			groups[i].Available++
		}
	}
	sort.SliceStable(groups, func(i, j int) bool {
		return groupLess(groups[i], groups[j])
	})
	return groups
}

// groupLess orders known types by form order, known before unknown,
// then price ascending, then type name.
func groupLess(a, b Group) bool {
	ai, bi := typeRank(a.RoomType), typeRank(b.RoomType)
	switch {
	case ai != -1 && bi != -1 && ai != bi:
		return ai < bi
	case ai != -1 && bi == -1:
		return true
	case ai == -1 && bi != -1:
		return false
	}
	if a.MonthlyRent != b.MonthlyRent {
		return a.MonthlyRent < b.MonthlyRent
	}
	return a.RoomType < b.RoomType
}

// Summary source values.
const (
	SourceRooms    = "rooms"
	SourceProperty = "property"
)

// Summary is what a listing shows about price and availability.
type Summary struct {
	StartingPrice  float64 `json:"starting_price"`
	TotalRooms     int     `json:"total_rooms"`
	AvailableRooms int     `json:"available_rooms"`
	Groups         []Group `json:"groups"`
	Source         string  `json:"source"`
}

// Summarize prefers data derived from rooms.  A property without rows in
// the rooms table falls back to its own denormalized fields.
func Summarize(p model.Property, rooms []model.Room) Summary {
	if len(rooms) == 0 {
		return Summary{
			StartingPrice:  p.PricePerRoom,
			TotalRooms:     p.TotalRooms,
			AvailableRooms: p.AvailableRooms,
			Groups:         []Group{},
			Source:         SourceProperty,
		}
	}
	groups := GroupByTypeAndPrice(rooms)
	s := Summary{Groups: groups, Source: SourceRooms}
	minPrice := math.Inf(1)
	for _, g := range groups {
		s.TotalRooms += g.Total
		s.AvailableRooms += g.Available
		if g.MonthlyRent > 0 && g.MonthlyRent < minPrice {
			minPrice = g.MonthlyRent
		}
	}
	if math.IsInf(minPrice, 1) {
		minPrice = p.PricePerRoom
	}
	s.StartingPrice = minPrice
	return s
}

// CountAvailable returns how many rooms can take a tenant.
func CountAvailable(rooms []model.Room) int {
	n := 0
	for _, r := range rooms {
		if IsAvailable(r) {
			n++
		}
	}
	return n
}

// OccupancyStats summarizes a landlord's room inventory.
type OccupancyStats struct {
	Total         int     `json:"total"`
	Occupied      int     `json:"occupied"`
	Available     int     `json:"available"`
	Maintenance   int     `json:"maintenance"`
	Occupants     int     `json:"occupants"`
	Capacity      int     `json:"capacity"`
	OccupancyRate float64 `json:"occupancy_rate"`
}

// Stats counts rooms by status.  OccupancyRate is occupants over
// capacity, rounded to two decimals, and zero when there is no capacity.
func Stats(rooms []model.Room) OccupancyStats {
	var s OccupancyStats
	for _, r := range rooms {
		s.Total++
		switch r.Status {
		case model.RoomOccupied:
			s.Occupied++
		case model.RoomAvailable:
			s.Available++
		case model.RoomMaintenance:
			s.Maintenance++
		}
		s.Occupants += r.CurrentOccupancy
		s.Capacity += r.Capacity
	}
	if s.Capacity > 0 {
		s.OccupancyRate = math.Round(float64(s.Occupants)/float64(s.Capacity)*100) / 100
	}
	return s
}

// RoomTypeSpec is one row of the landlord's room-type form.
type RoomTypeSpec struct {
	Type           string  `json:"type"`
	PricePerPerson float64 `json:"price_per_person"`
	Quantity       int     `json:"quantity"`
}

// ParseRoomTypeSpec converts raw form strings.  Unparseable numbers
// become zero.
func ParseRoomTypeSpec(roomType, price, quantity string) RoomTypeSpec {
	return RoomTypeSpec{
		Type:           strings.TrimSpace(roomType),
		PricePerPerson: parseFloatOrZero(price),
		Quantity:       parseIntOrZero(quantity),
	}
}

// Valid reports whether the row has a type, a price and a positive quantity.
func (s RoomTypeSpec) Valid() bool {
	return s.Type != "" && s.PricePerPerson > 0 && s.Quantity > 0
}

// HasValidSpec reports whether at least one row is usable.
func HasValidSpec(specs []RoomTypeSpec) bool {
	for _, s := range specs {
		if s.Valid() {
			return true
		}
	}
	return false
}

// Totals returns the starting price (the minimum positive price) and
// the sum of quantities.
func Totals(specs []RoomTypeSpec) (pricePerRoom float64, totalRooms int) {
	minPrice := math.Inf(1)
	for _, s := range specs {
		if s.PricePerPerson > 0 && s.PricePerPerson < minPrice {
			minPrice = s.PricePerPerson
		}
		if s.Quantity > 0 {
			totalRooms += s.Quantity
		}
	}
	if math.IsInf(minPrice, 1) {
		minPrice = 0
	}
	return minPrice, totalRooms
}

// CapacityFor returns the number of occupants a new room of type t holds.
func CapacityFor(t string) int {
	if t == "double" {
		return 2
	}
	return 1
}

// BuildRooms expands room-type rows into individual rooms for the given
// property.  Each row yields Quantity rooms numbered "{type}-1",
// "{type}-2" and so on.
func BuildRooms(propertyID uint64, specs []RoomTypeSpec) []model.Room {
	rooms := make([]model.Room, 0)
	for _, s := range specs {
		t := normalizeType(s.Type)
		price := s.PricePerPerson
		if price < 0 {
			price = 0
		}
		for i := 1; i <= s.Quantity; i++ {
			rooms = append(rooms, model.Room{
				PropertyID:       propertyID,
				RoomNumber:       t + "-" + strconv.Itoa(i),
				RoomType:         t,
				Capacity:         CapacityFor(t),
				CurrentOccupancy: 0,
				MonthlyRent:      price,
				Status:           model.RoomAvailable,
			})
		}
	}
	return rooms
}

// PrefillSpecs rebuilds the room-type form from existing rooms.  Rooms
// are grouped by type only, with the minimum non-zero price of the type.
// A property without rooms yields a single "single" row at its own price.
func PrefillSpecs(rooms []model.Room, fallbackPrice float64) []RoomTypeSpec {
	if len(rooms) == 0 {
		return []RoomTypeSpec{{Type: "single", PricePerPerson: fallbackPrice, Quantity: 1}}
	}
	index := make(map[string]int)
	specs := make([]RoomTypeSpec, 0)
	for _, r := range rooms {
		t := normalizeType(r.RoomType)
		i, ok := index[t]
		if !ok {
			i = len(specs)
			index[t] = i
			specs = append(specs, RoomTypeSpec{Type: t, PricePerPerson: r.MonthlyRent})
		}
		specs[i].Quantity++
		cur := specs[i].PricePerPerson
		if cur == 0 || (r.MonthlyRent > 0 && r.MonthlyRent < cur) {
			specs[i].PricePerPerson = r.MonthlyRent
		}
	}
	sort.SliceStable(specs, func(i, j int) bool {
		ai, bi := typeRank(specs[i].Type), typeRank(specs[j].Type)
		switch {
		case ai != -1 && bi != -1:
			return ai < bi
		case ai != -1:
			return true
		case bi != -1:
			return false
		}
		return specs[i].Type < specs[j].Type
	})
	return specs
}

// ParseRules splits newline-delimited rules, trimming each line and
// dropping empty ones.
func ParseRules(text string) []string {
	rules := make([]string, 0)
	for _, line := range strings.Split(text, "\n") {
		if r := strings.TrimSpace(line); r != "" {
			rules = append(rules, r)
		}
	}
	return rules
}

// ParseDistance parses a distance in kilometres, defaulting to zero.
func ParseDistance(text string) float64 {
	return parseFloatOrZero(text)
}

func parseFloatOrZero(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

func parseIntOrZero(s string) int {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	// Accept "2.0" style input the way a browser number field may send it.
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return int(f)
	}
	return 0
}
