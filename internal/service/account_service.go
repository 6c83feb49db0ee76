package service

import (
	"context"

	"github.com/iliyamo/campus-housing/internal/repository"
	"github.com/iliyamo/campus-housing/internal/utils"
)

// AccountService removes user accounts.
type AccountService struct {
	Profiles ProfileStore
	Users    UserDeleter
}

func NewAccountService(profiles ProfileStore, users UserDeleter) *AccountService {
	return &AccountService{Profiles: profiles, Users: users}
}

// Delete cleans up the user's profile rows and then deletes the auth
// identity.  Profile cleanup is best effort: a table that does not exist
// is skipped and other failures are collected and returned.  The
// identity is deleted regardless; if that fails an *AccountDeletionError
// carries both the cause and the collected failures.
func (s *AccountService) Delete(ctx context.Context, userID uint64) ([]TableError, error) {
	log := utils.Logger.WithField("user_id", userID)
	details := make([]TableError, 0)
	for _, table := range []string{repository.TableProfiles, repository.TableStudentProfiles} {
		err := s.Profiles.DeleteFrom(ctx, table, userID)
		if err == nil || repository.IsMissingTable(err) {
			continue
		}
		log.WithError(err).WithField("table", table).Warn("profile cleanup failed")
		details = append(details, TableError{Table: table, Error: err.Error()})
	}

	if err := s.Users.Delete(ctx, userID); err != nil {
		log.WithError(err).Error("delete auth identity failed")
		return details, &AccountDeletionError{Err: err, Details: details}
	}
	log.Info("account deleted")
	return details, nil
}
