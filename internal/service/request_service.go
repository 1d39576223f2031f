package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/port-douala/meteomarine-api/internal/dto"
	"github.com/port-douala/meteomarine-api/internal/models"
	appErrors "github.com/port-douala/meteomarine-api/pkg/errors"
)

type requestStore interface {
	Create(ctx context.Context, req *models.DownloadRequest) error
	ListByStatus(ctx context.Context, status models.RequestStatus) ([]models.DownloadRequest, error)
	CountByStatus(ctx context.Context, status models.RequestStatus) (int, error)
}

// RequestService handles download request submissions.
type RequestService struct {
	repo      requestStore
	validator *validator.Validate
	logger    *zap.Logger
}

// NewRequestService constructs the service.
func NewRequestService(repo requestStore, validate *validator.Validate, logger *zap.Logger) *RequestService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &RequestService{repo: repo, validator: validate, logger: logger}
}

// Submit validates the payload and stores a new pending request.
func (s *RequestService) Submit(ctx context.Context, req dto.SubmitRequest) (*models.DownloadRequest, error) {
	req.RequesterName = strings.TrimSpace(req.RequesterName)
	req.Organization = strings.TrimSpace(req.Organization)
	req.Email = strings.TrimSpace(req.Email)
	req.Reason = strings.TrimSpace(req.Reason)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "all fields are required")
	}

	request := &models.DownloadRequest{
		Name:         req.RequesterName,
		Organization: req.Organization,
		Email:        req.Email,
		Reason:       req.Reason,
		Status:       models.StatusPending,
	}
	if err := s.repo.Create(ctx, request); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store download request")
	}

	s.logger.Info("download request submitted",
		zap.String("id", request.ID),
		zap.String("email", request.Email),
		zap.String("organization", request.Organization),
	)
	return request, nil
}

// ListByStatus returns stored requests in the given status.
func (s *RequestService) ListByStatus(ctx context.Context, status models.RequestStatus) ([]models.DownloadRequest, error) {
	if !models.ValidStatus(status) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown status")
	}
	requests, err := s.repo.ListByStatus(ctx, status)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list requests")
	}
	return requests, nil
}

// PendingCount is the queue-depth notification shown to every visitor.
func (s *RequestService) PendingCount(ctx context.Context) (int, error) {
	count, err := s.repo.CountByStatus(ctx, models.StatusPending)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count pending requests")
	}
	return count, nil
}
