package service

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/port-douala/meteomarine-api/internal/dto"
	"github.com/port-douala/meteomarine-api/internal/models"
	"github.com/port-douala/meteomarine-api/internal/repository"
	appErrors "github.com/port-douala/meteomarine-api/pkg/errors"
	"github.com/port-douala/meteomarine-api/pkg/export"
)

// AuditColumns is the audit export header, matching the historical layout.
var AuditColumns = []string{"nom", "email", "structure", "raison", "statut", "Horodatage"}

const auditTimestampLayout = "2006-01-02 15:04:05"

type adminStore interface {
	GetByID(ctx context.Context, id string) (*models.DownloadRequest, error)
	ApplyDecision(ctx context.Context, params repository.UpdateDecisionParams) (bool, error)
	ExportAll(ctx context.Context) ([]models.DownloadRequest, error)
}

// Authenticator verifies the review credential. The shipped implementation
// is an exact shared-secret compare; a stronger scheme plugs in here.
type Authenticator interface {
	Authenticate(password string) error
}

// SharedSecretAuthenticator compares the submitted password against a fixed
// configured value in constant time. No hashing, lockout or backoff: the
// single shared secret is an inherited limitation, not a design goal.
type SharedSecretAuthenticator struct {
	secret string
}

// NewSharedSecretAuthenticator constructs the authenticator.
func NewSharedSecretAuthenticator(secret string) *SharedSecretAuthenticator {
	return &SharedSecretAuthenticator{secret: secret}
}

// Authenticate implements Authenticator.
func (a *SharedSecretAuthenticator) Authenticate(password string) error {
	if a.secret == "" {
		return appErrors.Clone(appErrors.ErrInvalidCredentials, "admin access is not configured")
	}
	if subtle.ConstantTimeCompare([]byte(password), []byte(a.secret)) != 1 {
		return appErrors.ErrInvalidCredentials
	}
	return nil
}

// AdminSessionConfig tunes the issued session tokens.
type AdminSessionConfig struct {
	Secret string
	TTL    time.Duration
	Issuer string
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// AdminService reviews pending requests and produces the audit export.
type AdminService struct {
	repo    adminStore
	auth    Authenticator
	session AdminSessionConfig
	csv     csvRenderer
	pdf     pdfRenderer
	logger  *zap.Logger
	now     func() time.Time
}

// NewAdminService constructs the service.
func NewAdminService(repo adminStore, auth Authenticator, session AdminSessionConfig, logger *zap.Logger) *AdminService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if session.TTL <= 0 {
		session.TTL = 2 * time.Hour
	}
	if session.Issuer == "" {
		session.Issuer = "meteomarine-api"
	}
	return &AdminService{
		repo:    repo,
		auth:    auth,
		session: session,
		csv:     export.NewCSVExporter(),
		pdf:     export.NewPDFExporter(),
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Login checks the shared secret and issues a session token.
func (s *AdminService) Login(req dto.AdminLoginRequest) (*dto.AdminLoginResponse, error) {
	if err := s.auth.Authenticate(req.Password); err != nil {
		s.logger.Warn("admin login refused")
		return nil, err
	}

	expiresAt := s.now().Add(s.session.TTL)
	claims := jwt.RegisteredClaims{
		Subject:   "admin",
		Issuer:    s.session.Issuer,
		IssuedAt:  jwt.NewNumericDate(s.now()),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		ID:        uuid.NewString(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.session.Secret))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to issue session token")
	}
	return &dto.AdminLoginResponse{Token: token, ExpiresAt: expiresAt.Unix()}, nil
}

// ValidateSession checks an admin session token.
func (s *AdminService) ValidateSession(raw string) error {
	token, err := jwt.ParseWithClaims(raw, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(s.session.Secret), nil
	})
	if err != nil || !token.Valid {
		return appErrors.Clone(appErrors.ErrUnauthorized, "invalid session token")
	}
	return nil
}

// Decide applies an accept/refuse review to a pending request. A decision
// on an already-decided id fails with ErrAlreadyDecided; prior outcomes are
// never overwritten.
func (s *AdminService) Decide(ctx context.Context, id string, decision models.Decision) (*models.DownloadRequest, error) {
	request, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load request")
	}
	if request.Status != models.StatusPending {
		return nil, appErrors.Clone(appErrors.ErrAlreadyDecided,
			fmt.Sprintf("request is already %s", request.Status))
	}

	params := repository.UpdateDecisionParams{ID: id}
	switch decision {
	case models.DecisionAccept:
		token := uuid.NewString()
		grantedAt := s.now()
		params.Status = models.StatusAccepted
		params.Token = &token
		params.GrantedAt = &grantedAt
	case models.DecisionRefuse:
		params.Status = models.StatusRefused
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "decision must be accept or refuse")
	}

	applied, err := s.repo.ApplyDecision(ctx, params)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store decision")
	}
	if !applied {
		// Lost the race against a concurrent review.
		return nil, appErrors.ErrAlreadyDecided
	}

	request.Status = params.Status
	request.Token = params.Token
	request.GrantedAt = params.GrantedAt
	s.logger.Info("request decided",
		zap.String("id", id),
		zap.String("decision", string(decision)),
		zap.String("email", request.Email),
	)
	return request, nil
}

// AuditExport renders the full request history, excluding tokens, with
// granted_at formatted for humans and blank when absent.
func (s *AdminService) AuditExport(ctx context.Context, format string) (*export.Artifact, error) {
	requests, err := s.repo.ExportAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to dump requests")
	}

	dataset := export.Dataset{Headers: AuditColumns, Rows: make([]map[string]string, 0, len(requests))}
	for _, req := range requests {
		horodatage := ""
		if req.GrantedAt != nil {
			horodatage = req.GrantedAt.UTC().Format(auditTimestampLayout)
		}
		dataset.Rows = append(dataset.Rows, map[string]string{
			"nom":        req.Name,
			"email":      req.Email,
			"structure":  req.Organization,
			"raison":     req.Reason,
			"statut":     string(req.Status),
			"Horodatage": horodatage,
		})
	}

	stamp := s.now().Format("20060102_150405")
	switch format {
	case "", "csv":
		content, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render audit csv")
		}
		return &export.Artifact{
			Filename:  fmt.Sprintf("demandes_audit_%s.csv", stamp),
			MediaType: "text/csv; charset=utf-8",
			Content:   content,
		}, nil
	case "pdf":
		content, err := s.pdf.Render(dataset, "Historique des demandes")
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render audit pdf")
		}
		return &export.Artifact{
			Filename:  fmt.Sprintf("demandes_audit_%s.pdf", stamp),
			MediaType: "application/pdf",
			Content:   content,
		}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
}
