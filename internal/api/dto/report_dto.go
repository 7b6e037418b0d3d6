package dto

import "time"

// CreateReportForm is the multipart (or JSON) report submission. The image travels as a
// separate multipart file part named "image".
type CreateReportForm struct {
	Description string `json:"description" form:"description" validate:"required"`
	Latitude    string `json:"latitude" form:"latitude" validate:"required,numeric"`
	Longitude   string `json:"longitude" form:"longitude" validate:"required,numeric"`
	Status      string `json:"status" form:"status" validate:"omitempty,numeric"`
	UserID      string `json:"userId" form:"userId"`
}

// UpdateStatusRequest accepts the status as a JSON number or a numeric string.
type UpdateStatusRequest struct {
	Status interface{} `json:"status"`
}

// ReportResponse is the wire form of a report.
type ReportResponse struct {
	ID          string     `json:"_id"`
	Description string     `json:"description"`
	Latitude    float64    `json:"latitude"`
	Longitude   float64    `json:"longitude"`
	Status      int        `json:"status"`
	Image       *string    `json:"image"`
	UserID      *string    `json:"userId"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   *time.Time `json:"updatedAt,omitempty"`
}

// ReportEnvelope wraps a single report with an outcome message.
type ReportEnvelope struct {
	Message string         `json:"message"`
	Report  ReportResponse `json:"report"`
}
