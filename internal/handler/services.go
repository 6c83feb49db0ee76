package handler

import (
	"context"

	"github.com/iliyamo/campus-housing/internal/model"
	"github.com/iliyamo/campus-housing/internal/repository"
	"github.com/iliyamo/campus-housing/internal/service"
)

// PropertyService is implemented by *service.PropertyService.
type PropertyService interface {
	Create(ctx context.Context, landlordID uint64, in service.PropertyInput, files []service.Upload) (*model.Property, error)
	Update(ctx context.Context, landlordID, propertyID uint64, in service.PropertyInput, files []service.Upload) (*model.Property, error)
	EditForm(ctx context.Context, landlordID, propertyID uint64) (*service.EditForm, error)
	Delete(ctx context.Context, landlordID, propertyID uint64) error
	Detail(ctx context.Context, propertyID uint64) (*service.PropertyDetail, error)
	ListPublic(ctx context.Context, f repository.PropertyFilter) ([]service.Listing, error)
	ListForLandlord(ctx context.Context, landlordID uint64) ([]service.Listing, error)
	LandlordRooms(ctx context.Context, landlordID, propertyID uint64) ([]model.Room, error)
	UpdateRoom(ctx context.Context, landlordID, roomID uint64, status string, occupancy int) (*model.Room, error)
	Stats(ctx context.Context, landlordID uint64) (*service.LandlordStats, error)
}

// RentalService is implemented by *service.RentalService.
type RentalService interface {
	Submit(ctx context.Context, studentID, propertyID uint64, message string) (*model.RentalRequestDetail, bool, error)
	Respond(ctx context.Context, landlordID, requestID uint64, action string, reason *string) (*service.ResponseResult, error)
	ListForLandlord(ctx context.Context, landlordID uint64, status string) ([]*model.RentalRequestDetail, error)
	ListForStudent(ctx context.Context, studentID uint64) ([]*model.RentalRequestDetail, error)
	Notifications(ctx context.Context, userID uint64, role string) ([]model.Notification, error)
}

// AccountService is implemented by *service.AccountService.
type AccountService interface {
	Delete(ctx context.Context, userID uint64) ([]service.TableError, error)
}

// Purger drops cached public responses after a landlord write.
type Purger interface {
	Purge(ctx context.Context)
}
