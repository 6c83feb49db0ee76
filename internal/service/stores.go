package service

import (
	"context"
	"time"

	"github.com/iliyamo/campus-housing/internal/model"
	"github.com/iliyamo/campus-housing/internal/repository"
)

// PropertyStore is implemented by repository.PropertyRepo.
type PropertyStore interface {
	CreateWithRooms(ctx context.Context, p *model.Property, rooms []model.Room) error
	UpdateWithRooms(ctx context.Context, p *model.Property, rooms []model.Room) ([]model.Room, error)
	GetByID(ctx context.Context, id uint64) (*model.Property, error)
	ListActive(ctx context.Context, f repository.PropertyFilter) ([]*model.Property, error)
	ListByLandlord(ctx context.Context, landlordID uint64) ([]*model.Property, error)
	Delete(ctx context.Context, id, landlordID uint64) error
}

// RoomStore is implemented by repository.RoomRepo.
type RoomStore interface {
	ListByProperty(ctx context.Context, propertyID uint64) ([]model.Room, error)
	ListByProperties(ctx context.Context, propertyIDs []uint64) (map[uint64][]model.Room, error)
	ListByLandlord(ctx context.Context, landlordID, propertyID uint64) ([]model.Room, error)
	UpdateStatus(ctx context.Context, landlordID, roomID uint64, status string, occupancy int) (*model.Room, error)
}

// RequestStore is implemented by repository.RentalRequestRepo.
type RequestStore interface {
	Insert(ctx context.Context, rq *model.RentalRequest) error
	GetByStudentAndProperty(ctx context.Context, studentID, propertyID uint64) (*model.RentalRequestDetail, error)
	GetForLandlord(ctx context.Context, id, landlordID uint64) (*model.RentalRequestDetail, error)
	UpdateStatus(ctx context.Context, id, landlordID uint64, status string, reason *string) (time.Time, error)
	ListByLandlord(ctx context.Context, landlordID uint64, status string) ([]*model.RentalRequestDetail, error)
	ListByStudent(ctx context.Context, studentID uint64) ([]*model.RentalRequestDetail, error)
	CountPending(ctx context.Context, landlordID uint64) (int, error)
}

// ProfileStore is implemented by repository.ProfileRepo.
type ProfileStore interface {
	Get(ctx context.Context, userID uint64) (*model.Profile, error)
	Update(ctx context.Context, p *model.Profile) error
	DeleteFrom(ctx context.Context, table string, userID uint64) error
}

// UserDeleter is implemented by repository.UserRepo.
type UserDeleter interface {
	Delete(ctx context.Context, id uint64) error
}

// TokenPurger is implemented by repository.TokenRepo.
type TokenPurger interface {
	DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error)
}
