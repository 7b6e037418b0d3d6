package service

import (
	"context"
	"errors"
	"math"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/smartcity-api/internal/domain"
	"github.com/spec-kit/smartcity-api/internal/events"
	"github.com/spec-kit/smartcity-api/internal/repository"
	apperrors "github.com/spec-kit/smartcity-api/pkg/util/errorutil"
)

// ReportService coordinates the report lifecycle.
type ReportService struct {
	reports repository.ReportRepository
	users   repository.UserRepository
	logger  *zap.Logger
	events  eventPublisher
	now     func() time.Time
}

// ReportDependencies bundles collaborators for the report service.
type ReportDependencies struct {
	ReportRepo repository.ReportRepository
	UserRepo   repository.UserRepository
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	Now        func() time.Time
}

// ReportCreateInput describes a submission. Nil coordinates mean the field was absent.
type ReportCreateInput struct {
	Description string
	Latitude    *float64
	Longitude   *float64
	Status      *domain.ReportStatus
	Image       []byte
	OwnerID     string
}

// ReportRecord is a stored report with its image rendered for transport.
type ReportRecord struct {
	Report domain.Report
	// Image is a data URI, nil when the report has no image.
	Image *string
}

// NewReportService constructs the service.
func NewReportService(deps ReportDependencies) *ReportService {
	logger := loggerOrNop(deps.Logger)
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &ReportService{
		reports: deps.ReportRepo,
		users:   deps.UserRepo,
		logger:  logger,
		events:  eventPublisher{dispatcher: deps.Dispatcher, logger: logger, now: now},
		now:     now,
	}
}

// Create validates and stores a new report. An owner id that does not resolve to a user
// leaves the report ownerless instead of rejecting it.
func (s *ReportService) Create(ctx context.Context, input ReportCreateInput) (*ReportRecord, error) {
	description := strings.TrimSpace(input.Description)
	if description == "" || input.Latitude == nil || input.Longitude == nil {
		return nil, apperrors.NewValidationError("All fields are required", nil)
	}
	if !finite(*input.Latitude) || !finite(*input.Longitude) {
		return nil, apperrors.NewValidationError("latitude and longitude must be numbers", nil)
	}

	status := domain.ReportStatusNew
	if input.Status != nil {
		if !input.Status.Valid() {
			return nil, apperrors.NewInvalidStatus(map[string]any{"status": int(*input.Status)})
		}
		status = *input.Status
	}

	ownerID, err := s.resolveOwner(ctx, strings.TrimSpace(input.OwnerID))
	if err != nil {
		return nil, err
	}

	report := &domain.Report{
		Description: description,
		Latitude:    *input.Latitude,
		Longitude:   *input.Longitude,
		Status:      status,
		UserID:      ownerID,
		CreatedAt:   s.now().UTC().Truncate(time.Millisecond),
	}
	if len(input.Image) > 0 {
		report.Image = input.Image
	}

	if err := s.reports.Create(ctx, report); err != nil {
		s.logger.Error("failed to save report", zap.Error(err))
		return nil, apperrors.NewStoreError(err)
	}

	s.logger.Info("report saved",
		zap.String("report_id", report.ID),
		zap.Bool("has_image", report.Image != nil),
		zap.Int("image_bytes", len(report.Image)))
	s.events.publish(ctx, events.Event{
		Type:      events.EventReportCreated,
		SubjectID: report.ID,
		Payload: events.ReportCreatedPayload{
			Description: report.Description,
			Latitude:    report.Latitude,
			Longitude:   report.Longitude,
			Status:      report.Status,
			UserID:      report.UserID,
			HasImage:    report.Image != nil,
		},
	})
	return toRecord(*report), nil
}

// List returns reports newest first, optionally limited to one owner.
func (s *ReportService) List(ctx context.Context, ownerID string) ([]ReportRecord, error) {
	filter := repository.ReportFilter{}
	if ownerID = strings.TrimSpace(ownerID); ownerID != "" {
		filter.UserID = &ownerID
	}

	reports, err := s.reports.List(ctx, filter)
	if err != nil {
		s.logger.Error("failed to fetch reports", zap.Error(err))
		return nil, apperrors.NewStoreError(err)
	}

	sort.SliceStable(reports, func(i, j int) bool {
		return reports[i].CreatedAt.After(reports[j].CreatedAt)
	})

	records := make([]ReportRecord, 0, len(reports))
	for i := range reports {
		records = append(records, *toRecord(reports[i]))
	}
	return records, nil
}

// UpdateStatus sets any valid status regardless of the current one and stamps updatedAt.
func (s *ReportService) UpdateStatus(ctx context.Context, reportID string, status domain.ReportStatus) (*ReportRecord, error) {
	if !status.Valid() {
		return nil, apperrors.NewInvalidStatus(map[string]any{"status": int(status)})
	}

	report, err := s.reports.UpdateStatus(ctx, reportID, status, s.now().UTC().Truncate(time.Millisecond))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("Report", nil)
		}
		s.logger.Error("failed to update report status", zap.String("report_id", reportID), zap.Error(err))
		return nil, apperrors.NewStoreError(err)
	}

	s.events.publish(ctx, events.Event{
		Type:      events.EventReportStatusChanged,
		SubjectID: report.ID,
		Payload:   events.ReportStatusChangedPayload{NewStatus: report.Status},
	})
	return toRecord(*report), nil
}

// Delete removes the report permanently.
func (s *ReportService) Delete(ctx context.Context, reportID string) error {
	if err := s.reports.Delete(ctx, reportID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewNotFound("Report", nil)
		}
		s.logger.Error("failed to delete report", zap.String("report_id", reportID), zap.Error(err))
		return apperrors.NewStoreError(err)
	}

	s.events.publish(ctx, events.Event{Type: events.EventReportDeleted, SubjectID: reportID})
	return nil
}

func (s *ReportService) resolveOwner(ctx context.Context, ownerID string) (*string, error) {
	if ownerID == "" {
		return nil, nil
	}
	user, err := s.users.GetByID(ctx, ownerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.logger.Warn("report submitted with unknown user id", zap.String("user_id", ownerID))
			return nil, nil
		}
		return nil, apperrors.NewStoreError(err)
	}
	return &user.ID, nil
}

func toRecord(report domain.Report) *ReportRecord {
	return &ReportRecord{Report: report, Image: imageDataURI(report.Image)}
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
