package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/port-douala/meteomarine-api/internal/models"
)

// Column list shared by read queries. Token is selected only where the
// caller legitimately needs it (policy lookups); ExportAll never reads it.
const requestColumns = `id, nom, structure, email, raison, statut, token, granted_at, created_at`

// DownloadRequestRepository persists the demandes audit log.
type DownloadRequestRepository struct {
	db *sqlx.DB
}

// NewDownloadRequestRepository constructs the repository.
func NewDownloadRequestRepository(db *sqlx.DB) *DownloadRequestRepository {
	return &DownloadRequestRepository{db: db}
}

// Create inserts a new pending request row.
func (r *DownloadRequestRepository) Create(ctx context.Context, req *models.DownloadRequest) error {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if req.Status == "" {
		req.Status = models.StatusPending
	}
	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO demandes
	(id, nom, structure, email, raison, statut, token, granted_at, created_at)
	VALUES (:id, :nom, :structure, :email, :raison, :statut, :token, :granted_at, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, req); err != nil {
		return fmt.Errorf("create download request: %w", err)
	}
	return nil
}

// GetByID fetches a request by identifier.
func (r *DownloadRequestRepository) GetByID(ctx context.Context, id string) (*models.DownloadRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM demandes WHERE id = ?`
	var req models.DownloadRequest
	if err := r.db.GetContext(ctx, &req, query, id); err != nil {
		return nil, err
	}
	return &req, nil
}

// ListByStatus returns all rows in the given status, oldest first.
func (r *DownloadRequestRepository) ListByStatus(ctx context.Context, status models.RequestStatus) ([]models.DownloadRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM demandes WHERE statut = ? ORDER BY created_at`
	var requests []models.DownloadRequest
	if err := r.db.SelectContext(ctx, &requests, query, status); err != nil {
		return nil, fmt.Errorf("list requests by status: %w", err)
	}
	return requests, nil
}

// FindLatestByEmail returns the most recent submission for the identity,
// regardless of status. sql.ErrNoRows when the email never submitted.
func (r *DownloadRequestRepository) FindLatestByEmail(ctx context.Context, email string) (*models.DownloadRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM demandes WHERE email = ?
	ORDER BY created_at DESC LIMIT 1`
	var req models.DownloadRequest
	if err := r.db.GetContext(ctx, &req, query, email); err != nil {
		return nil, err
	}
	return &req, nil
}

// FindLatestByEmailAndStatus returns the newest matching row. For accepted
// rows "newest" means latest granted_at, insertion order breaking ties.
func (r *DownloadRequestRepository) FindLatestByEmailAndStatus(ctx context.Context, email string, status models.RequestStatus) (*models.DownloadRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM demandes WHERE email = ? AND statut = ?
	ORDER BY granted_at DESC, created_at DESC LIMIT 1`
	var req models.DownloadRequest
	if err := r.db.GetContext(ctx, &req, query, email, status); err != nil {
		return nil, err
	}
	return &req, nil
}

// UpdateDecisionParams groups the columns written by an admin decision.
type UpdateDecisionParams struct {
	ID        string
	Status    models.RequestStatus
	Token     *string
	GrantedAt *time.Time
}

// ApplyDecision writes a review outcome. The statut guard makes the write a
// compare-and-set: a second decision on the same row changes nothing and
// returns false. Status, token and granted_at land in one statement so a
// concurrent read never sees a token on a pending row.
func (r *DownloadRequestRepository) ApplyDecision(ctx context.Context, params UpdateDecisionParams) (bool, error) {
	const query = `UPDATE demandes SET statut = :statut, token = :token, granted_at = :granted_at
	WHERE id = :id AND statut = :pending`
	result, err := r.db.NamedExecContext(ctx, query, map[string]interface{}{
		"id":         params.ID,
		"statut":     params.Status,
		"token":      params.Token,
		"granted_at": params.GrantedAt,
		"pending":    models.StatusPending,
	})
	if err != nil {
		return false, fmt.Errorf("apply decision: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("apply decision rows affected: %w", err)
	}
	return affected > 0, nil
}

// ExpireGrant flips an accepted row to expired. Guarded by the current
// status so repeated policy checks after expiry are no-ops.
func (r *DownloadRequestRepository) ExpireGrant(ctx context.Context, id string) (bool, error) {
	const query = `UPDATE demandes SET statut = ? WHERE id = ? AND statut = ?`
	result, err := r.db.ExecContext(ctx, query, models.StatusExpired, id, models.StatusAccepted)
	if err != nil {
		return false, fmt.Errorf("expire grant: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("expire grant rows affected: %w", err)
	}
	return affected > 0, nil
}

// CountByStatus counts rows in the given status.
func (r *DownloadRequestRepository) CountByStatus(ctx context.Context, status models.RequestStatus) (int, error) {
	const query = `SELECT COUNT(*) FROM demandes WHERE statut = ?`
	var count int
	if err := r.db.GetContext(ctx, &count, query, status); err != nil {
		return 0, fmt.Errorf("count requests by status: %w", err)
	}
	return count, nil
}

// ExportAll dumps the full history for the audit export. The token column is
// deliberately not selected; it never leaves the accept path.
func (r *DownloadRequestRepository) ExportAll(ctx context.Context) ([]models.DownloadRequest, error) {
	const query = `SELECT id, nom, structure, email, raison, statut, granted_at, created_at
	FROM demandes ORDER BY created_at`
	var requests []models.DownloadRequest
	if err := r.db.SelectContext(ctx, &requests, query); err != nil {
		return nil, fmt.Errorf("export requests: %w", err)
	}
	return requests, nil
}
