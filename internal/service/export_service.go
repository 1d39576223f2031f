package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/port-douala/meteomarine-api/internal/models"
	appErrors "github.com/port-douala/meteomarine-api/pkg/errors"
	"github.com/port-douala/meteomarine-api/pkg/export"
)

type authorizer interface {
	Status(ctx context.Context, email string) (*models.AuthorizationStatus, error)
}

// ExportService is the gate the presentation layer calls before revealing
// the data download. Authorization is re-checked on every call; multiple
// downloads within the validity window are permitted.
type ExportService struct {
	policy authorizer
	csv    csvRenderer
	logger *zap.Logger
	now    func() time.Time
}

// NewExportService constructs the gate.
func NewExportService(policy authorizer, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		policy: policy,
		csv:    export.NewCSVExporter(),
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Export snapshots the currently filtered dataset as CSV when the identity
// holds a live grant. Denials surface the policy reason code.
func (s *ExportService) Export(ctx context.Context, email string, dataset []models.Observation) (*export.Artifact, error) {
	if email == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "email is required")
	}
	status, err := s.policy.Status(ctx, email)
	if err != nil {
		return nil, err
	}
	if !status.Authorized {
		return nil, appErrors.Clone(appErrors.ErrExportDenied, string(status.Reason))
	}

	data := export.Dataset{Headers: models.ExportColumns, Rows: make([]map[string]string, 0, len(dataset))}
	for _, obs := range dataset {
		row := make(map[string]string, len(models.ExportColumns))
		for _, col := range models.ExportColumns {
			row[col] = obs[col]
		}
		data.Rows = append(data.Rows, row)
	}

	content, err := s.csv.Render(data)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}

	s.logger.Info("dataset exported",
		zap.String("email", email),
		zap.Int("rows", len(data.Rows)),
	)
	return &export.Artifact{
		Filename:  fmt.Sprintf("meteomarine_export_%s.csv", s.now().Format("20060102_150405")),
		MediaType: "text/csv; charset=utf-8",
		Content:   content,
	}, nil
}
