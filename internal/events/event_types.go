package events

import (
	"time"

	"github.com/spec-kit/smartcity-api/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventUserRegistered      EventType = "user_registered"
	EventReportCreated       EventType = "report_created"
	EventReportStatusChanged EventType = "report_status_changed"
	EventReportDeleted       EventType = "report_deleted"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	SubjectID string      `json:"subject_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload,omitempty"`
}

// UserRegisteredPayload payload.
type UserRegisteredPayload struct {
	Email string `json:"email"`
}

// ReportCreatedPayload payload. The image itself is never put on the wire.
type ReportCreatedPayload struct {
	Description string              `json:"description"`
	Latitude    float64             `json:"latitude"`
	Longitude   float64             `json:"longitude"`
	Status      domain.ReportStatus `json:"status"`
	UserID      *string             `json:"user_id,omitempty"`
	HasImage    bool                `json:"has_image"`
}

// ReportStatusChangedPayload payload.
type ReportStatusChangedPayload struct {
	NewStatus domain.ReportStatus `json:"new_status"`
}
