package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/port-douala/meteomarine-api/internal/models"
	appErrors "github.com/port-douala/meteomarine-api/pkg/errors"
)

// DefaultValidityWindow bounds how long an accepted grant authorizes exports.
const DefaultValidityWindow = 60 * time.Second

type policyStore interface {
	FindLatestByEmail(ctx context.Context, email string) (*models.DownloadRequest, error)
	FindLatestByEmailAndStatus(ctx context.Context, email string, status models.RequestStatus) (*models.DownloadRequest, error)
	ExpireGrant(ctx context.Context, id string) (bool, error)
}

// PolicyService decides whether an identity is currently authorized to
// export data. Expiry is evaluated lazily on read: a check past the window
// flips the stored row to expired before reporting the denial, so callers
// must re-evaluate per use and never cache the answer.
type PolicyService struct {
	repo   policyStore
	clock  clockwork.Clock
	window time.Duration
	logger *zap.Logger
}

// NewPolicyService constructs the service. A nil clock means real time;
// a non-positive window falls back to the 60 second default.
func NewPolicyService(repo policyStore, clock clockwork.Clock, window time.Duration, logger *zap.Logger) *PolicyService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if window <= 0 {
		window = DefaultValidityWindow
	}
	return &PolicyService{repo: repo, clock: clock, window: window, logger: logger}
}

// IsAuthorized reports whether the identity holds a live grant.
func (s *PolicyService) IsAuthorized(ctx context.Context, email string) (bool, error) {
	_, ok, err := s.remaining(ctx, email)
	return ok, err
}

// WindowRemaining returns the time left on the identity's grant. The second
// return is false when no live grant exists.
func (s *PolicyService) WindowRemaining(ctx context.Context, email string) (time.Duration, bool, error) {
	return s.remaining(ctx, email)
}

func (s *PolicyService) remaining(ctx context.Context, email string) (time.Duration, bool, error) {
	grant, err := s.repo.FindLatestByEmailAndStatus(ctx, email, models.StatusAccepted)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to look up grant")
	}
	if grant.GrantedAt == nil {
		// Accepted rows always carry granted_at; treat a violation as no grant.
		s.logger.Warn("accepted grant missing granted_at", zap.String("id", grant.ID))
		return 0, false, nil
	}

	elapsed := s.clock.Now().UTC().Sub(grant.GrantedAt.UTC())
	if elapsed <= s.window {
		return s.window - elapsed, true, nil
	}

	if _, err := s.repo.ExpireGrant(ctx, grant.ID); err != nil {
		return 0, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to expire grant")
	}
	s.logger.Info("grant expired on read",
		zap.String("id", grant.ID),
		zap.String("email", email),
		zap.Duration("elapsed", elapsed),
	)
	return 0, false, nil
}

// Status returns the full authorization picture for the export gate:
// the flag, remaining seconds, and a denial reason derived from the
// identity's most recent submission.
func (s *PolicyService) Status(ctx context.Context, email string) (*models.AuthorizationStatus, error) {
	remaining, ok, err := s.remaining(ctx, email)
	if err != nil {
		return nil, err
	}
	if ok {
		return &models.AuthorizationStatus{
			Authorized:       true,
			RemainingSeconds: int64(remaining / time.Second),
		}, nil
	}

	latest, err := s.repo.FindLatestByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &models.AuthorizationStatus{Reason: models.ReasonNotRequested}, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to look up request history")
	}

	status := &models.AuthorizationStatus{}
	switch latest.Status {
	case models.StatusPending:
		status.Reason = models.ReasonPending
	case models.StatusRefused:
		status.Reason = models.ReasonRefused
	default:
		// accepted rows land here only when the grant just expired above.
		status.Reason = models.ReasonExpired
	}
	return status, nil
}

// Window exposes the configured validity window.
func (s *PolicyService) Window() time.Duration {
	return s.window
}
