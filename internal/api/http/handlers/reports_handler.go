package handlers

import (
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/smartcity-api/internal/api/dto"
	"github.com/spec-kit/smartcity-api/internal/domain"
	"github.com/spec-kit/smartcity-api/internal/service"
	apperrors "github.com/spec-kit/smartcity-api/pkg/util/errorutil"
)

const imageFormField = "image"

// ReportsHandler manages report endpoints.
type ReportsHandler struct {
	service *service.ReportService
}

// NewReportsHandler constructs handler.
func NewReportsHandler(reportService *service.ReportService) *ReportsHandler {
	return &ReportsHandler{service: reportService}
}

// ListReports GET /api/reports.
func (h *ReportsHandler) ListReports(c *fiber.Ctx) error {
	records, err := h.service.List(c.UserContext(), c.Query("userId"))
	if err != nil {
		return err
	}
	items := make([]dto.ReportResponse, 0, len(records))
	for i := range records {
		items = append(items, reportResponse(&records[i]))
	}
	return c.JSON(items)
}

// CreateReport POST /api/reports.
func (h *ReportsHandler) CreateReport(c *fiber.Ctx) error {
	var form dto.CreateReportForm
	if err := c.BodyParser(&form); err != nil {
		return apperrors.NewValidationError("All fields are required", nil)
	}
	if err := dto.Validate(&form); err != nil {
		return err
	}

	lat, err := strconv.ParseFloat(form.Latitude, 64)
	if err != nil {
		return apperrors.NewValidationError("invalid value for latitude", nil)
	}
	lon, err := strconv.ParseFloat(form.Longitude, 64)
	if err != nil {
		return apperrors.NewValidationError("invalid value for longitude", nil)
	}

	input := service.ReportCreateInput{
		Description: form.Description,
		Latitude:    &lat,
		Longitude:   &lon,
		OwnerID:     form.UserID,
	}
	if form.Status != "" {
		status, err := domain.ParseReportStatus(form.Status)
		if err != nil {
			return apperrors.NewInvalidStatus(map[string]any{"status": form.Status})
		}
		input.Status = &status
	}

	image, err := readImage(c)
	if err != nil {
		return err
	}
	input.Image = image

	record, err := h.service.Create(c.UserContext(), input)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(dto.ReportEnvelope{
		Message: "Report created successfully",
		Report:  reportResponse(record),
	})
}

// UpdateStatus PATCH /api/reports/:id/status.
func (h *ReportsHandler) UpdateStatus(c *fiber.Ctx) error {
	var req dto.UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewInvalidStatus(nil)
	}
	status, err := statusFromBody(req.Status)
	if err != nil {
		return apperrors.NewInvalidStatus(map[string]any{"status": req.Status})
	}

	record, err := h.service.UpdateStatus(c.UserContext(), c.Params("id"), status)
	if err != nil {
		return err
	}
	return c.JSON(dto.ReportEnvelope{
		Message: "Status updated",
		Report:  reportResponse(record),
	})
}

// DeleteReport DELETE /api/reports/:id.
func (h *ReportsHandler) DeleteReport(c *fiber.Ctx) error {
	if err := h.service.Delete(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.JSON(dto.MessageResponse{Message: "Report deleted"})
}

// readImage returns the optional image part, or nil when the request carries none.
func readImage(c *fiber.Ctx) ([]byte, error) {
	if !strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		return nil, nil
	}
	header, err := c.FormFile(imageFormField)
	if err != nil {
		return nil, nil
	}
	file, err := header.Open()
	if err != nil {
		return nil, apperrors.NewInternalError(fmt.Errorf("open image: %w", err))
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, apperrors.NewInternalError(fmt.Errorf("read image: %w", err))
	}
	return data, nil
}

func statusFromBody(raw interface{}) (domain.ReportStatus, error) {
	switch v := raw.(type) {
	case float64:
		if v != math.Trunc(v) {
			return 0, fmt.Errorf("invalid report status %v", v)
		}
		s := domain.ReportStatus(int(v))
		if !s.Valid() {
			return 0, fmt.Errorf("invalid report status %v", v)
		}
		return s, nil
	case string:
		return domain.ParseReportStatus(v)
	default:
		return 0, fmt.Errorf("invalid report status %v", raw)
	}
}

func reportResponse(record *service.ReportRecord) dto.ReportResponse {
	r := record.Report
	return dto.ReportResponse{
		ID:          r.ID,
		Description: r.Description,
		Latitude:    r.Latitude,
		Longitude:   r.Longitude,
		Status:      int(r.Status),
		Image:       record.Image,
		UserID:      r.UserID,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}
