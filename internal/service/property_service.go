package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/campus-housing/internal/availability"
	"github.com/iliyamo/campus-housing/internal/model"
	"github.com/iliyamo/campus-housing/internal/notification"
	"github.com/iliyamo/campus-housing/internal/repository"
	"github.com/iliyamo/campus-housing/internal/storage"
	"github.com/iliyamo/campus-housing/internal/utils"
)

// PropertyInput is the landlord's listing form after parsing.
type PropertyInput struct {
	Title          string
	Address        string
	University     string
	Gender         string
	Description    string
	Amenities      []string
	Rules          string // newline separated
	ContactPhone   string
	PropertyType   string
	Distance       string
	RoomTypes      []availability.RoomTypeSpec
	ExistingImages []string // edit only: image URLs to keep
}

// Upload is one image file from the form.
type Upload struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

// Listing pairs a property with its availability summary.
type Listing struct {
	*model.Property
	Availability availability.Summary `json:"availability"`
}

// PropertyDetail is what the property page shows.
type PropertyDetail struct {
	Listing
	Rooms []model.Room `json:"rooms"`
}

// EditForm prefills the edit page.
type EditForm struct {
	Property  *model.Property             `json:"property"`
	RoomTypes []availability.RoomTypeSpec `json:"room_types"`
	Rules     string                      `json:"rules"`
}

// LandlordStats backs the landlord dashboard overview.
type LandlordStats struct {
	Properties      int                         `json:"properties"`
	ActiveListings  int                         `json:"active_listings"`
	Rooms           availability.OccupancyStats `json:"rooms"`
	PendingRequests int                         `json:"pending_requests"`
}

// PropertyService implements listing management for landlords and
// browsing for everyone else.
type PropertyService struct {
	Properties PropertyStore
	Rooms      RoomStore
	Requests   RequestStore
	Files      storage.FileStore
	Notes      *notification.Center
}

// NewPropertyService wires a PropertyService.
func NewPropertyService(props PropertyStore, rooms RoomStore, reqs RequestStore, files storage.FileStore, notes *notification.Center) *PropertyService {
	return &PropertyService{Properties: props, Rooms: rooms, Requests: reqs, Files: files, Notes: notes}
}

// ValidateInput runs the form checks that need no I/O.  imageCount is
// the number of images the listing would end up with.
func ValidateInput(in PropertyInput, imageCount int) error {
	if strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.Address) == "" || strings.TrimSpace(in.ContactPhone) == "" {
		return invalid(MsgRequiredFields)
	}
	if !availability.HasValidSpec(in.RoomTypes) {
		return invalid(MsgRoomTypes)
	}
	if imageCount == 0 {
		return invalid(MsgImages)
	}
	return nil
}

func validSpecs(specs []availability.RoomTypeSpec) []availability.RoomTypeSpec {
	out := make([]availability.RoomTypeSpec, 0, len(specs))
	for _, s := range specs {
		if s.Valid() {
			out = append(out, s)
		}
	}
	return out
}

// applyInput copies the form fields onto p.
func applyInput(p *model.Property, in PropertyInput, specs []availability.RoomTypeSpec) {
	price, total := availability.Totals(specs)
	p.Title = strings.TrimSpace(in.Title)
	p.AddressLine1 = strings.TrimSpace(in.Address)
	p.University = strings.TrimSpace(in.University)
	p.GenderPreference = strings.TrimSpace(in.Gender)
	if p.GenderPreference == "" {
		p.GenderPreference = model.DefaultGenderPreference
	}
	p.Description = strings.TrimSpace(in.Description)
	p.Amenities = cleanTags(in.Amenities)
	p.Rules = availability.ParseRules(in.Rules)
	p.ContactPhone = strings.TrimSpace(in.ContactPhone)
	p.PropertyType = strings.TrimSpace(in.PropertyType)
	p.DistanceFromCampus = availability.ParseDistance(in.Distance)
	p.PricePerRoom = price
	p.TotalRooms = total
	p.AvailableRooms = total
}

func cleanTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

// imageKey names an uploaded image "{landlordID}/{uuid}.{ext}".
func imageKey(landlordID uint64, filename string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if ext == "" {
		ext = "jpg"
	}
	return fmt.Sprintf("%d/%s.%s", landlordID, uuid.NewString(), ext)
}

// uploadAll stores every file.  On the first failure the files already
// stored are removed again and ErrUpload is returned.
func (s *PropertyService) uploadAll(ctx context.Context, landlordID uint64, files []Upload) ([]string, error) {
	urls := make([]string, 0, len(files))
	for _, f := range files {
		url, err := s.Files.Put(ctx, imageKey(landlordID, f.Filename), f.Body, f.ContentType)
		if err != nil {
			utils.Logger.WithError(err).WithField("file", f.Filename).Error("property image upload failed")
			s.removeImages(ctx, urls)
			return nil, ErrUpload
		}
		urls = append(urls, url)
	}
	return urls, nil
}

func (s *PropertyService) removeImages(ctx context.Context, urls []string) {
	for _, u := range urls {
		key, ok := s.Files.KeyFromURL(u)
		if !ok {
			continue
		}
		if err := s.Files.Delete(ctx, key); err != nil {
			utils.Logger.WithError(err).WithField("key", key).Warn("could not remove property image")
		}
	}
}

// Create validates the form, stores the images and inserts the property
// with its rooms.  A database failure removes the stored images again.
func (s *PropertyService) Create(ctx context.Context, landlordID uint64, in PropertyInput, files []Upload) (*model.Property, error) {
	if err := ValidateInput(in, len(files)); err != nil {
		return nil, err
	}
	urls, err := s.uploadAll(ctx, landlordID, files)
	if err != nil {
		return nil, err
	}

	specs := validSpecs(in.RoomTypes)
	p := &model.Property{
		LandlordID:         landlordID,
		Images:             urls,
		IsActive:           true,
		VerificationStatus: model.DefaultVerificationStatus,
		Country:            model.DefaultCountry,
		MinimumStayMonths:  model.DefaultMinimumStayMonths,
	}
	applyInput(p, in, specs)
	rooms := availability.BuildRooms(0, specs)

	if err := s.Properties.CreateWithRooms(ctx, p, rooms); err != nil {
		utils.Logger.WithError(err).WithField("landlord_id", landlordID).Error("create property failed")
		s.removeImages(ctx, urls)
		return nil, fmt.Errorf("failed to save property: %w", err)
	}
	utils.Logger.WithFields(logrus.Fields{"property_id": p.ID, "rooms": len(rooms)}).Info("property created")
	return p, nil
}

// ownedProperty loads a property and checks that landlordID owns it.
func (s *PropertyService) ownedProperty(ctx context.Context, landlordID, propertyID uint64) (*model.Property, error) {
	p, err := s.Properties.GetByID(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	if p.LandlordID != landlordID {
		return nil, repository.ErrForbidden
	}
	return p, nil
}

// Update rewrites a listing and replaces its rooms.  Images are the
// kept existing URLs followed by the new uploads; dropped images are
// removed from storage once the update is saved.
func (s *PropertyService) Update(ctx context.Context, landlordID, propertyID uint64, in PropertyInput, files []Upload) (*model.Property, error) {
	if err := ValidateInput(in, len(in.ExistingImages)+len(files)); err != nil {
		return nil, err
	}
	p, err := s.ownedProperty(ctx, landlordID, propertyID)
	if err != nil {
		return nil, err
	}

	current := make(map[string]bool, len(p.Images))
	for _, u := range p.Images {
		current[u] = true
	}
	kept := make([]string, 0, len(in.ExistingImages))
	keptSet := make(map[string]bool, len(in.ExistingImages))
	for _, u := range in.ExistingImages {
		if current[u] && !keptSet[u] {
			kept = append(kept, u)
			keptSet[u] = true
		}
	}
	if len(kept)+len(files) == 0 {
		return nil, invalid(MsgImages)
	}

	added, err := s.uploadAll(ctx, landlordID, files)
	if err != nil {
		return nil, err
	}
	var dropped []string
	for _, u := range p.Images {
		if !keptSet[u] {
			dropped = append(dropped, u)
		}
	}

	specs := validSpecs(in.RoomTypes)
	applyInput(p, in, specs)
	p.Images = append(kept, added...)
	rooms := availability.BuildRooms(p.ID, specs)

	discarded, err := s.Properties.UpdateWithRooms(ctx, p, rooms)
	if err != nil {
		utils.Logger.WithError(err).WithField("property_id", propertyID).Error("update property failed")
		s.removeImages(ctx, added)
		if errors.Is(err, repository.ErrForbidden) || errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to save property: %w", err)
	}
	if len(discarded) > 0 {
		numbers := make([]string, len(discarded))
		for i, r := range discarded {
			numbers[i] = r.RoomNumber
		}
		utils.Logger.WithFields(logrus.Fields{
			"property_id": p.ID,
			"rooms":       strings.Join(numbers, ","),
		}).Warn("room edit discarded occupied rooms")
	}
	s.removeImages(ctx, dropped)
	return p, nil
}

// EditForm returns the property with its room types regrouped for the
// edit page.
func (s *PropertyService) EditForm(ctx context.Context, landlordID, propertyID uint64) (*EditForm, error) {
	p, err := s.ownedProperty(ctx, landlordID, propertyID)
	if err != nil {
		return nil, err
	}
	rooms, err := s.Rooms.ListByProperty(ctx, propertyID)
	if err != nil {
		return nil, fmt.Errorf("failed to load rooms: %w", err)
	}
	return &EditForm{
		Property:  p,
		RoomTypes: availability.PrefillSpecs(rooms, p.PricePerRoom),
		Rules:     strings.Join(p.Rules, "\n"),
	}, nil
}

// Delete removes a listing with its rooms and requests, then its images.
func (s *PropertyService) Delete(ctx context.Context, landlordID, propertyID uint64) error {
	p, err := s.ownedProperty(ctx, landlordID, propertyID)
	if err != nil {
		return err
	}
	if err := s.Properties.Delete(ctx, propertyID, landlordID); err != nil {
		return err
	}
	s.removeImages(ctx, p.Images)
	utils.Logger.WithField("property_id", propertyID).Info("property deleted")
	return nil
}

// Detail returns an active property with rooms and availability.
// Inactive listings are reported as not found.
func (s *PropertyService) Detail(ctx context.Context, propertyID uint64) (*PropertyDetail, error) {
	p, err := s.Properties.GetByID(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	if !p.IsActive {
		return nil, repository.ErrNotFound
	}
	rooms, err := s.Rooms.ListByProperty(ctx, propertyID)
	if err != nil {
		return nil, fmt.Errorf("failed to load rooms: %w", err)
	}
	return &PropertyDetail{
		Listing: Listing{Property: p, Availability: availability.Summarize(*p, rooms)},
		Rooms:   rooms,
	}, nil
}

func (s *PropertyService) listings(ctx context.Context, props []*model.Property) ([]Listing, error) {
	ids := make([]uint64, len(props))
	for i, p := range props {
		ids[i] = p.ID
	}
	byProp, err := s.Rooms.ListByProperties(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load rooms: %w", err)
	}
	out := make([]Listing, len(props))
	for i, p := range props {
		out[i] = Listing{Property: p, Availability: availability.Summarize(*p, byProp[p.ID])}
	}
	return out, nil
}

// ListPublic returns active listings matching f.
func (s *PropertyService) ListPublic(ctx context.Context, f repository.PropertyFilter) ([]Listing, error) {
	props, err := s.Properties.ListActive(ctx, f)
	if err != nil {
		return nil, err
	}
	return s.listings(ctx, props)
}

// ListForLandlord returns every listing the landlord owns.
func (s *PropertyService) ListForLandlord(ctx context.Context, landlordID uint64) ([]Listing, error) {
	props, err := s.Properties.ListByLandlord(ctx, landlordID)
	if err != nil {
		return nil, err
	}
	return s.listings(ctx, props)
}

// LandlordRooms lists the landlord's rooms, optionally for one property.
func (s *PropertyService) LandlordRooms(ctx context.Context, landlordID, propertyID uint64) ([]model.Room, error) {
	return s.Rooms.ListByLandlord(ctx, landlordID, propertyID)
}

// UpdateRoom changes a room's status and occupancy and tells the
// landlord about it.
func (s *PropertyService) UpdateRoom(ctx context.Context, landlordID, roomID uint64, status string, occupancy int) (*model.Room, error) {
	if !model.ValidRoomStatus(status) {
		return nil, invalid("status must be available, occupied or maintenance")
	}
	rm, err := s.Rooms.UpdateStatus(ctx, landlordID, roomID, status, occupancy)
	if err != nil {
		if errors.Is(err, repository.ErrInvalidRoomState) {
			return nil, invalid("occupancy must be between 0 and the room capacity, and an occupied room needs an occupant")
		}
		return nil, err
	}
	if s.Notes != nil {
		s.Notes.Push(landlordID, model.Notification{
			Type:    model.NotificationTenantUpdate,
			Title:   "Room Updated",
			Message: fmt.Sprintf("Room %s is now %s (%d/%d)", rm.RoomNumber, rm.Status, rm.CurrentOccupancy, rm.Capacity),
			Data:    map[string]any{"room_id": rm.ID, "property_id": rm.PropertyID},
		})
	}
	return rm, nil
}

// Stats summarizes the landlord's inventory.
func (s *PropertyService) Stats(ctx context.Context, landlordID uint64) (*LandlordStats, error) {
	props, err := s.Properties.ListByLandlord(ctx, landlordID)
	if err != nil {
		return nil, err
	}
	rooms, err := s.Rooms.ListByLandlord(ctx, landlordID, 0)
	if err != nil {
		return nil, err
	}
	pending, err := s.Requests.CountPending(ctx, landlordID)
	if err != nil {
		return nil, err
	}
	st := &LandlordStats{Properties: len(props), Rooms: availability.Stats(rooms), PendingRequests: pending}
	for _, p := range props {
		if p.IsActive {
			st.ActiveListings++
		}
	}
	return st, nil
}
