package service

import (
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/iliyamo/campus-housing/internal/availability"
	"github.com/iliyamo/campus-housing/internal/model"
	"github.com/iliyamo/campus-housing/internal/queue"
	"github.com/iliyamo/campus-housing/internal/repository"
)

// memStore keeps properties, rooms and requests in memory and satisfies
// PropertyStore, RoomStore and RequestStore.
type memStore struct {
	mu        sync.Mutex
	props     map[uint64]*model.Property
	rooms     map[uint64][]model.Room
	requests  []*model.RentalRequestDetail
	profiles  map[uint64]*model.Profile
	nextProp  uint64
	nextRoom  uint64
	nextReq   uint64
	failWrite error
	clock     time.Time
}

func newMemStore() *memStore {
	return &memStore{
		props:    map[uint64]*model.Property{},
		rooms:    map[uint64][]model.Room{},
		profiles: map[uint64]*model.Profile{},
		clock:    time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

func (m *memStore) tick() time.Time {
	m.clock = m.clock.Add(time.Minute)
	return m.clock
}

func (m *memStore) setRooms(pid uint64, rooms []model.Room) {
	out := make([]model.Room, len(rooms))
	for i, r := range rooms {
		m.nextRoom++
		r.ID = m.nextRoom
		r.PropertyID = pid
		out[i] = r
	}
	m.rooms[pid] = out
	if p, ok := m.props[pid]; ok {
		p.TotalRooms = len(out)
		p.AvailableRooms = availability.CountAvailable(out)
	}
}

func (m *memStore) CreateWithRooms(_ context.Context, p *model.Property, rooms []model.Room) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWrite != nil {
		return m.failWrite
	}
	m.nextProp++
	p.ID = m.nextProp
	p.CreatedAt = m.tick()
	cp := *p
	m.props[p.ID] = &cp
	m.setRooms(p.ID, rooms)
	return nil
}

func (m *memStore) UpdateWithRooms(_ context.Context, p *model.Property, rooms []model.Room) ([]model.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWrite != nil {
		return nil, m.failWrite
	}
	cur, ok := m.props[p.ID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if cur.LandlordID != p.LandlordID {
		return nil, repository.ErrForbidden
	}
	var occupied []model.Room
	for _, r := range m.rooms[p.ID] {
		if r.CurrentOccupancy > 0 {
			occupied = append(occupied, r)
		}
	}
	cp := *p
	m.props[p.ID] = &cp
	m.setRooms(p.ID, rooms)
	return occupied, nil
}

func (m *memStore) GetByID(_ context.Context, id uint64) (*model.Property, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.props[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memStore) ListActive(_ context.Context, f repository.PropertyFilter) ([]*model.Property, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Property
	for _, p := range m.sortedProps() {
		if !p.IsActive {
			continue
		}
		if f.University != "" && p.University != f.University {
			continue
		}
		if f.Gender != "" && p.GenderPreference != f.Gender && p.GenderPreference != "mixed" {
			continue
		}
		if f.MaxPrice > 0 && p.PricePerRoom > f.MaxPrice {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memStore) ListByLandlord(_ context.Context, landlordID uint64) ([]*model.Property, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Property
	for _, p := range m.sortedProps() {
		if p.LandlordID == landlordID {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memStore) sortedProps() []*model.Property {
	out := make([]*model.Property, 0, len(m.props))
	for _, p := range m.props {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (m *memStore) Delete(_ context.Context, id, landlordID uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.props[id]
	if !ok {
		return repository.ErrNotFound
	}
	if p.LandlordID != landlordID {
		return repository.ErrForbidden
	}
	delete(m.props, id)
	delete(m.rooms, id)
	return nil
}

func (m *memStore) ListByProperty(_ context.Context, pid uint64) ([]model.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.Room(nil), m.rooms[pid]...), nil
}

func (m *memStore) ListByProperties(_ context.Context, ids []uint64) (map[uint64][]model.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[uint64][]model.Room, len(ids))
	for _, id := range ids {
		if rs := m.rooms[id]; len(rs) > 0 {
			out[id] = append([]model.Room(nil), rs...)
		}
	}
	return out, nil
}

func (m *memStore) roomsOf(landlordID, propertyID uint64) []model.Room {
	var out []model.Room
	for _, p := range m.sortedProps() {
		if p.LandlordID != landlordID || (propertyID != 0 && p.ID != propertyID) {
			continue
		}
		out = append(out, m.rooms[p.ID]...)
	}
	return out
}

// ListByLandlord on RoomStore; named through roomStore below.
func (m *memStore) listRoomsByLandlord(landlordID, propertyID uint64) []model.Room {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.roomsOf(landlordID, propertyID)
}

func (m *memStore) UpdateStatus(_ context.Context, landlordID, roomID uint64, status string, occupancy int) (*model.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for pid, rooms := range m.rooms {
		for i := range rooms {
			if rooms[i].ID != roomID {
				continue
			}
			if m.props[pid].LandlordID != landlordID {
				return nil, repository.ErrForbidden
			}
			if occupancy < 0 || occupancy > rooms[i].Capacity || (status == model.RoomOccupied && occupancy == 0) {
				return nil, repository.ErrInvalidRoomState
			}
			rooms[i].Status = status
			rooms[i].CurrentOccupancy = occupancy
			m.props[pid].AvailableRooms = availability.CountAvailable(rooms)
			r := rooms[i]
			return &r, nil
		}
	}
	return nil, repository.ErrNotFound
}

// roomStore adapts memStore to RoomStore, whose ListByLandlord differs
// from PropertyStore's.
type roomStore struct{ *memStore }

func (r roomStore) ListByLandlord(_ context.Context, landlordID, propertyID uint64) ([]model.Room, error) {
	return r.listRoomsByLandlord(landlordID, propertyID), nil
}

// requestStore adapts memStore to RequestStore.
type requestStore struct{ *memStore }

func (r requestStore) Insert(_ context.Context, rq *model.RentalRequest) error {
	m := r.memStore
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWrite != nil {
		return m.failWrite
	}
	for _, d := range m.requests {
		if d.StudentProfileID == rq.StudentProfileID && d.PropertyID == rq.PropertyID {
			return repository.ErrDuplicate
		}
	}
	m.nextReq++
	rq.ID = m.nextReq
	rq.Status = model.RequestPending
	rq.CreatedAt = m.tick()
	rq.UpdatedAt = rq.CreatedAt
	d := &model.RentalRequestDetail{RentalRequest: *rq}
	if p, ok := m.props[rq.PropertyID]; ok {
		d.PropertyTitle = p.Title
		d.PropertyLandlordID = p.LandlordID
	}
	if pr, ok := m.profiles[rq.StudentProfileID]; ok {
		d.StudentName = pr.FullName()
		d.StudentEmail = pr.Email
	}
	d.DisplayStatus = model.DisplayStatus(d.Status)
	m.requests = append(m.requests, d)
	return nil
}

func (r requestStore) find(match func(*model.RentalRequestDetail) bool) *model.RentalRequestDetail {
	for _, d := range r.requests {
		if match(d) {
			cp := *d
			return &cp
		}
	}
	return nil
}

func (r requestStore) GetByStudentAndProperty(_ context.Context, studentID, propertyID uint64) (*model.RentalRequestDetail, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d := r.find(func(d *model.RentalRequestDetail) bool {
		return d.StudentProfileID == studentID && d.PropertyID == propertyID
	})
	if d == nil {
		return nil, repository.ErrNotFound
	}
	return d, nil
}

func (r requestStore) GetForLandlord(_ context.Context, id, landlordID uint64) (*model.RentalRequestDetail, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d := r.find(func(d *model.RentalRequestDetail) bool { return d.ID == id })
	if d == nil {
		return nil, repository.ErrNotFound
	}
	if d.PropertyLandlordID != landlordID {
		return nil, repository.ErrForbidden
	}
	return d, nil
}

func (r requestStore) UpdateStatus(_ context.Context, id, landlordID uint64, status string, reason *string) (time.Time, error) {
	m := r.memStore
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWrite != nil {
		return time.Time{}, m.failWrite
	}
	for _, d := range m.requests {
		if d.ID != id || d.PropertyLandlordID != landlordID || d.Status != model.RequestPending {
			continue
		}
		d.Status = status
		d.DisplayStatus = model.DisplayStatus(status)
		d.RejectionReason = nil
		if status == model.RequestRejected {
			d.RejectionReason = reason
		}
		d.UpdatedAt = m.tick()
		return d.UpdatedAt, nil
	}
	return time.Time{}, repository.ErrConflict
}

func (r requestStore) list(match func(*model.RentalRequestDetail) bool) []*model.RentalRequestDetail {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.RentalRequestDetail
	for i := len(r.requests) - 1; i >= 0; i-- {
		if d := r.requests[i]; match(d) {
			cp := *d
			out = append(out, &cp)
		}
	}
	return out
}

func (r requestStore) ListByLandlord(_ context.Context, landlordID uint64, status string) ([]*model.RentalRequestDetail, error) {
	return r.list(func(d *model.RentalRequestDetail) bool {
		return d.PropertyLandlordID == landlordID && (status == "" || d.Status == status)
	}), nil
}

func (r requestStore) ListByStudent(_ context.Context, studentID uint64) ([]*model.RentalRequestDetail, error) {
	return r.list(func(d *model.RentalRequestDetail) bool { return d.StudentProfileID == studentID }), nil
}

func (r requestStore) CountPending(ctx context.Context, landlordID uint64) (int, error) {
	list, _ := r.ListByLandlord(ctx, landlordID, model.RequestPending)
	return len(list), nil
}

// profileStore adapts memStore to ProfileStore.
type profileStore struct {
	*memStore
	deleteErr map[string]error
	deleted   []string
}

func (p *profileStore) Get(_ context.Context, userID uint64) (*model.Profile, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	pr, ok := p.profiles[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *pr
	return &cp, nil
}

func (p *profileStore) Update(_ context.Context, pr *model.Profile) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.profiles[pr.UserID]; !ok {
		return repository.ErrNotFound
	}
	cp := *pr
	p.profiles[pr.UserID] = &cp
	return nil
}

func (p *profileStore) DeleteFrom(_ context.Context, table string, userID uint64) error {
	if err := p.deleteErr[table]; err != nil {
		return err
	}
	p.deleted = append(p.deleted, table)
	return nil
}

// memFiles is an in-memory storage.FileStore.
type memFiles struct {
	mu      sync.Mutex
	objects map[string]string
	failAt  int // 1-based Put call that fails; 0 never fails
	puts    int
	deleted []string
}

func newMemFiles() *memFiles { return &memFiles{objects: map[string]string{}} }

const filesBase = "http://files.test/"

func (f *memFiles) Put(_ context.Context, key string, r io.Reader, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.puts++
	if f.failAt != 0 && f.puts == f.failAt {
		return "", errors.New("disk full")
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	f.objects[key] = string(b)
	return filesBase + key, nil
}

func (f *memFiles) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, key)
	f.deleted = append(f.deleted, key)
	return nil
}

func (f *memFiles) KeyFromURL(url string) (string, bool) {
	if !strings.HasPrefix(url, filesBase) {
		return "", false
	}
	return strings.TrimPrefix(url, filesBase), true
}

// recordingPublisher collects published events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []queue.RentalRequestEvent
	err    error
}

func (p *recordingPublisher) PublishRentalRequest(_ context.Context, ev queue.RentalRequestEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, ev)
	return nil
}

type fakeUsers struct {
	err     error
	deleted []uint64
}

func (u *fakeUsers) Delete(_ context.Context, id uint64) error {
	if u.err != nil {
		return u.err
	}
	u.deleted = append(u.deleted, id)
	return nil
}

type fakePurger struct {
	cutoff time.Time
	n      int64
	err    error
}

func (p *fakePurger) DeleteExpired(_ context.Context, cutoff time.Time) (int64, error) {
	p.cutoff = cutoff
	return p.n, p.err
}
