package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ReportStatus enumerates lifecycle states for reports. Values are persisted as integers.
// Transitions are not guarded: any status may be set from any other.
type ReportStatus int

const (
	ReportStatusFixed      ReportStatus = 0
	ReportStatusNew        ReportStatus = 1
	ReportStatusInProgress ReportStatus = 2
)

// Valid reports whether s is one of the known statuses.
func (s ReportStatus) Valid() bool {
	switch s {
	case ReportStatusFixed, ReportStatusNew, ReportStatusInProgress:
		return true
	}
	return false
}

func (s ReportStatus) String() string {
	switch s {
	case ReportStatusFixed:
		return "Fixed"
	case ReportStatusNew:
		return "New"
	case ReportStatusInProgress:
		return "InProgress"
	}
	return fmt.Sprintf("ReportStatus(%d)", int(s))
}

// ParseReportStatus accepts the numeric wire form ("0", "1", "2", also "2.0").
func ParseReportStatus(raw string) (ReportStatus, error) {
	raw = strings.TrimSpace(raw)
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f != float64(int(f)) {
		return 0, fmt.Errorf("invalid report status %q", raw)
	}
	s := ReportStatus(int(f))
	if !s.Valid() {
		return 0, fmt.Errorf("invalid report status %q", raw)
	}
	return s, nil
}

// Report is a citizen-submitted record of an urban issue.
type Report struct {
	ID          string
	Description string
	Latitude    float64
	Longitude   float64
	Status      ReportStatus
	Image       []byte
	UserID      *string
	CreatedAt   time.Time
	UpdatedAt   *time.Time
}
