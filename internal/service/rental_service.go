package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/campus-housing/internal/model"
	"github.com/iliyamo/campus-housing/internal/notification"
	"github.com/iliyamo/campus-housing/internal/queue"
	"github.com/iliyamo/campus-housing/internal/repository"
	"github.com/iliyamo/campus-housing/internal/utils"
)

// DefaultRequestMessage is used when the student leaves the message blank.
const DefaultRequestMessage = "I'm interested in this property."

// PendingRequestsID identifies the landlord's pending request summary.
const PendingRequestsID = "pending-requests"

// Actions a landlord can take on a pending request.
const (
	ActionAccept = "accept"
	ActionReject = "reject"
)

// ResponseResult is what Respond hands back: the updated request and,
// on accept, a display-only tenant placeholder.
type ResponseResult struct {
	Request *model.RentalRequestDetail `json:"request"`
	Tenant  *model.Tenant              `json:"tenant,omitempty"`
}

// RentalService drives the rental request lifecycle.
type RentalService struct {
	Requests   RequestStore
	Properties PropertyStore
	Profiles   ProfileStore
	Notes      *notification.Center
	Events     EventPublisher // optional
	now        func() time.Time
}

// NewRentalService wires a RentalService.  events may be nil.
func NewRentalService(reqs RequestStore, props PropertyStore, profiles ProfileStore, notes *notification.Center, events EventPublisher) *RentalService {
	return &RentalService{
		Requests:   reqs,
		Properties: props,
		Profiles:   profiles,
		Notes:      notes,
		Events:     events,
		now:        time.Now,
	}
}

// cleanMessage keeps the text before any "Profile:" marker.
func cleanMessage(msg string) string {
	if i := strings.Index(msg, "Profile:"); i >= 0 {
		msg = msg[:i]
	}
	msg = strings.TrimSpace(msg)
	if msg == "" {
		return DefaultRequestMessage
	}
	return msg
}

// Submit records a student's interest in a property.  Submitting twice
// for the same property is not an error: the stored request is returned
// with created set to false.
func (s *RentalService) Submit(ctx context.Context, studentID, propertyID uint64, message string) (*model.RentalRequestDetail, bool, error) {
	profile, err := s.Profiles.Get(ctx, studentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, false, ErrNotAuthenticated
		}
		return nil, false, err
	}
	if profile.Role != model.RoleStudent {
		return nil, false, repository.ErrForbidden
	}

	p, err := s.Properties.GetByID(ctx, propertyID)
	if err != nil {
		return nil, false, err
	}
	if !p.IsActive {
		return nil, false, repository.ErrNotFound
	}

	landlordID := p.LandlordID
	rq := &model.RentalRequest{
		StudentProfileID:  studentID,
		UserID:            studentID,
		PropertyID:        propertyID,
		LandlordProfileID: &landlordID,
		Message:           cleanMessage(message),
		StudentUniversity: profile.University,
		StudentYear:       profile.YearOfStudy,
		StudentGender:     profile.Gender,
	}
	if profile.Phone != nil {
		rq.StudentPhone = *profile.Phone
	}

	err = s.Requests.Insert(ctx, rq)
	created := err == nil
	if err != nil && !errors.Is(err, repository.ErrDuplicate) {
		utils.Logger.WithError(err).WithFields(logrus.Fields{
			"student_id":  studentID,
			"property_id": propertyID,
		}).Error("rental request insert failed")
		return nil, false, fmt.Errorf("failed to submit rental request: %w", err)
	}

	d, err := s.Requests.GetByStudentAndProperty(ctx, studentID, propertyID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to submit rental request: %w", err)
	}
	if !created {
		return d, false, nil
	}

	name := profile.FullName()
	if s.Notes != nil {
		s.Notes.Push(p.LandlordID, model.Notification{
			Type:    model.NotificationRentalRequest,
			Title:   "New Rental Request",
			Message: fmt.Sprintf("%s requested %s", name, p.Title),
			Data:    map[string]any{"request_id": d.ID, "property_id": p.ID},
		})
	}
	s.publish(ctx, d, queue.ActionSubmitted)
	return d, true, nil
}

// Respond accepts or rejects a pending request on one of the landlord's
// properties.  In-memory state is touched only after the write succeeded.
func (s *RentalService) Respond(ctx context.Context, landlordID, requestID uint64, action string, reason *string) (*ResponseResult, error) {
	var status string
	switch action {
	case ActionAccept:
		status = model.RequestAccepted
	case ActionReject:
		status = model.RequestRejected
	default:
		return nil, invalid("action must be accept or reject")
	}

	d, err := s.Requests.GetForLandlord(ctx, requestID, landlordID)
	if err != nil {
		return nil, err
	}
	if model.IsTerminal(d.Status) {
		return nil, repository.ErrConflict
	}

	updatedAt, err := s.Requests.UpdateStatus(ctx, requestID, landlordID, status, reason)
	if err != nil {
		utils.Logger.WithError(err).WithField("request_id", requestID).Error("rental request update failed")
		return nil, err
	}

	d.Status = status
	d.DisplayStatus = model.DisplayStatus(status)
	d.UpdatedAt = updatedAt
	d.RejectionReason = nil
	if status == model.RequestRejected {
		d.RejectionReason = reason
	}

	if s.Notes != nil {
		s.Notes.RemoveWhere(landlordID, notification.ForRequest(requestID))
		verb := "accepted"
		title := "Rental Request Accepted"
		if status == model.RequestRejected {
			verb = "rejected"
			title = "Rental Request Rejected"
		}
		s.Notes.Push(d.StudentProfileID, model.Notification{
			Type:    model.NotificationRequestResponse,
			Title:   title,
			Message: fmt.Sprintf("Your request for %s has been %s", d.PropertyTitle, verb),
			Data:    map[string]any{"request_id": d.ID, "property_id": d.PropertyID, "status": status},
		})
	}

	res := &ResponseResult{Request: d}
	act := queue.ActionRejected
	if status == model.RequestAccepted {
		act = queue.ActionAccepted
		res.Tenant = &model.Tenant{
			Name:       d.StudentName,
			Email:      d.StudentEmail,
			Property:   d.PropertyTitle,
			MoveInDate: s.now().Format("2006-01-02"),
			Status:     "active",
			RoomNumber: "TBD",
			RoomType:   "single",
			RequestID:  d.ID,
			StudentID:  d.StudentProfileID,
		}
	}
	s.publish(ctx, d, act)
	return res, nil
}

// ListForLandlord lists requests on the landlord's properties.  The
// "approved" display label is accepted as a filter alias.
func (s *RentalService) ListForLandlord(ctx context.Context, landlordID uint64, status string) ([]*model.RentalRequestDetail, error) {
	status = strings.ToLower(strings.TrimSpace(status))
	switch status {
	case "", "all":
		status = ""
	case "approved":
		status = model.RequestAccepted
	case model.RequestPending, model.RequestAccepted, model.RequestRejected:
	default:
		return nil, invalid("status must be pending, approved, accepted or rejected")
	}
	return s.Requests.ListByLandlord(ctx, landlordID, status)
}

// ListForStudent lists the student's own requests.
func (s *RentalService) ListForStudent(ctx context.Context, studentID uint64) ([]*model.RentalRequestDetail, error) {
	return s.Requests.ListByStudent(ctx, studentID)
}

// Notifications returns the user's in-memory notifications.  Landlords
// with pending requests also get a summary entry re-derived from the
// store, so the count survives restarts.
func (s *RentalService) Notifications(ctx context.Context, userID uint64, role string) ([]model.Notification, error) {
	var list []model.Notification
	if s.Notes != nil {
		list = s.Notes.List(userID)
	}
	if role != model.RoleLandlord {
		return list, nil
	}
	n, err := s.Requests.CountPending(ctx, userID)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		if s.Notes != nil {
			s.Notes.DropSummary(userID, PendingRequestsID)
		}
		return list, nil
	}
	noun := "request"
	if n > 1 {
		noun = "requests"
	}
	summary := model.Notification{
		ID:      PendingRequestsID,
		Type:    model.NotificationPendingRequests,
		Title:   "Pending Requests",
		Message: fmt.Sprintf("You have %d pending rental %s", n, noun),
		Time:    s.now().UTC().Format(time.RFC3339),
		Data:    map[string]any{"count": n},
	}
	if s.Notes != nil {
		summary = s.Notes.SetSummary(userID, summary)
	}
	return append([]model.Notification{summary}, list...), nil
}

func (s *RentalService) publish(ctx context.Context, d *model.RentalRequestDetail, action string) {
	if s.Events == nil {
		return
	}
	ev := queue.RentalRequestEvent{
		RequestID:     d.ID,
		Action:        action,
		StudentID:     d.StudentProfileID,
		LandlordID:    d.PropertyLandlordID,
		PropertyID:    d.PropertyID,
		PropertyTitle: d.PropertyTitle,
		Status:        d.Status,
		Reason:        d.RejectionReason,
		OccurredAt:    s.now().UTC().Format(time.RFC3339),
	}
	if err := s.Events.PublishRentalRequest(ctx, ev); err != nil {
		utils.Logger.WithError(err).WithField("request_id", d.ID).Warn("rental request event not published")
	}
}
