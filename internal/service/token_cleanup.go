package service

import (
	"context"
	"time"

	"github.com/iliyamo/campus-housing/internal/utils"
)

// TokenCleanupService purges refresh tokens nobody can use any more.
type TokenCleanupService struct {
	Tokens TokenPurger
	// Grace keeps revoked and expired rows around for a while so a
	// replayed token can still be recognized in logs.
	Grace time.Duration
	now   func() time.Time
}

func NewTokenCleanupService(tokens TokenPurger, grace time.Duration) *TokenCleanupService {
	return &TokenCleanupService{Tokens: tokens, Grace: grace, now: time.Now}
}

// Cleanup deletes tokens that expired or were revoked more than Grace ago.
func (s *TokenCleanupService) Cleanup(ctx context.Context) (int64, error) {
	cutoff := s.now().UTC().Add(-s.Grace)
	n, err := s.Tokens.DeleteExpired(ctx, cutoff)
	if err != nil {
		utils.Logger.WithError(err).Error("refresh token cleanup failed")
		return 0, err
	}
	utils.Logger.WithField("deleted", n).Info("refresh token cleanup done")
	return n, nil
}

// CleanupDaily is the cron entry point.  It bounds the run to one minute.
func (s *TokenCleanupService) CleanupDaily() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	_, _ = s.Cleanup(ctx)
}
