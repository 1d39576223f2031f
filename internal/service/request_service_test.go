package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/port-douala/meteomarine-api/internal/dto"
	"github.com/port-douala/meteomarine-api/internal/models"
	appErrors "github.com/port-douala/meteomarine-api/pkg/errors"
)

type requestRepoStub struct {
	created []models.DownloadRequest
}

func (r *requestRepoStub) Create(ctx context.Context, req *models.DownloadRequest) error {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	r.created = append(r.created, *req)
	return nil
}

func (r *requestRepoStub) ListByStatus(ctx context.Context, status models.RequestStatus) ([]models.DownloadRequest, error) {
	out := make([]models.DownloadRequest, 0)
	for _, req := range r.created {
		if req.Status == status {
			out = append(out, req)
		}
	}
	return out, nil
}

func (r *requestRepoStub) CountByStatus(ctx context.Context, status models.RequestStatus) (int, error) {
	list, _ := r.ListByStatus(ctx, status)
	return len(list), nil
}

func TestRequestServiceSubmitCreatesPendingRow(t *testing.T) {
	repo := &requestRepoStub{}
	svc := NewRequestService(repo, nil, nil)

	created, err := svc.Submit(context.Background(), dto.SubmitRequest{
		RequesterName: "Alice",
		Organization:  "PortAuth",
		Email:         "a@x.com",
		Reason:        "research",
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	require.Equal(t, models.StatusPending, created.Status)
	require.Nil(t, created.Token)
	require.Nil(t, created.GrantedAt)

	pending, err := svc.ListByStatus(context.Background(), models.StatusPending)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, created.ID, pending[0].ID)
}

func TestRequestServiceSubmitRejectsMissingFields(t *testing.T) {
	repo := &requestRepoStub{}
	svc := NewRequestService(repo, nil, nil)

	cases := []dto.SubmitRequest{
		{Organization: "PortAuth", Email: "a@x.com", Reason: "research"},
		{RequesterName: "Alice", Email: "a@x.com", Reason: "research"},
		{RequesterName: "Alice", Organization: "PortAuth", Reason: "research"},
		{RequesterName: "Alice", Organization: "PortAuth", Email: "a@x.com"},
		{RequesterName: "  ", Organization: "PortAuth", Email: "a@x.com", Reason: "research"},
		{RequesterName: "Alice", Organization: "PortAuth", Email: "not-an-email", Reason: "research"},
	}
	for _, payload := range cases {
		_, err := svc.Submit(context.Background(), payload)
		require.Error(t, err)
		require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	}
	require.Empty(t, repo.created)
}

func TestRequestServicePendingCountTracksSubmissions(t *testing.T) {
	repo := &requestRepoStub{}
	svc := NewRequestService(repo, nil, nil)

	before, err := svc.PendingCount(context.Background())
	require.NoError(t, err)

	_, err = svc.Submit(context.Background(), dto.SubmitRequest{
		RequesterName: "Alice",
		Organization:  "PortAuth",
		Email:         "a@x.com",
		Reason:        "research",
	})
	require.NoError(t, err)

	after, err := svc.PendingCount(context.Background())
	require.NoError(t, err)
	require.Equal(t, before+1, after)
}

func TestRequestServiceDuplicateEmailKeepsHistory(t *testing.T) {
	repo := &requestRepoStub{}
	svc := NewRequestService(repo, nil, nil)

	for i := 0; i < 2; i++ {
		_, err := svc.Submit(context.Background(), dto.SubmitRequest{
			RequesterName: "Alice",
			Organization:  "PortAuth",
			Email:         "a@x.com",
			Reason:        "research",
		})
		require.NoError(t, err)
	}
	require.Len(t, repo.created, 2)
	require.NotEqual(t, repo.created[0].ID, repo.created[1].ID)
}

func TestRequestServiceListRejectsUnknownStatus(t *testing.T) {
	svc := NewRequestService(&requestRepoStub{}, nil, nil)
	_, err := svc.ListByStatus(context.Background(), models.RequestStatus("bogus"))
	require.Error(t, err)
}
