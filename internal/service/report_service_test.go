package service

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spec-kit/smartcity-api/internal/domain"
	"github.com/spec-kit/smartcity-api/internal/repository/repotest"
	apperrors "github.com/spec-kit/smartcity-api/pkg/util/errorutil"
)

// pngHeader is enough of a PNG for content sniffing.
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

type reportFixture struct {
	svc     *ReportService
	reports *repotest.Reports
	users   *repotest.Users
	logs    *observer.ObservedLogs
	clock   time.Time
}

func newReportFixture(t *testing.T) *reportFixture {
	t.Helper()
	core, logs := observer.New(zap.DebugLevel)
	f := &reportFixture{
		reports: repotest.NewReports(),
		users:   repotest.NewUsers(),
		logs:    logs,
		clock:   time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC),
	}
	f.svc = NewReportService(ReportDependencies{
		ReportRepo: f.reports,
		UserRepo:   f.users,
		Logger:     zap.New(core),
		Now: func() time.Time {
			f.clock = f.clock.Add(time.Minute)
			return f.clock
		},
	})
	return f
}

func (f *reportFixture) addUser(t *testing.T, email string) string {
	t.Helper()
	user := &domain.User{Email: email, PasswordHash: "x"}
	require.NoError(t, f.users.Create(context.Background(), user))
	return user.ID
}

func coords(lat, lon float64) (*float64, *float64) {
	return &lat, &lon
}

func decodeDataURI(t *testing.T, uri string) (string, []byte) {
	t.Helper()
	require.True(t, strings.HasPrefix(uri, "data:"))
	meta, data, ok := strings.Cut(strings.TrimPrefix(uri, "data:"), ",")
	require.True(t, ok)
	mime, found := strings.CutSuffix(meta, ";base64")
	require.True(t, found)
	raw, err := base64.StdEncoding.DecodeString(data)
	require.NoError(t, err)
	return mime, raw
}

func TestCreateDefaultsToNewAndNoOwner(t *testing.T) {
	f := newReportFixture(t)
	lat, lon := coords(12.34, 56.78)

	rec, err := f.svc.Create(context.Background(), ReportCreateInput{
		Description: "pothole",
		Latitude:    lat,
		Longitude:   lon,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, rec.Report.ID)
	assert.Equal(t, domain.ReportStatusNew, rec.Report.Status)
	assert.Nil(t, rec.Report.UserID)
	assert.Nil(t, rec.Image)
	assert.Nil(t, rec.Report.UpdatedAt)
	assert.Equal(t, 12.34, rec.Report.Latitude)
	assert.Equal(t, 56.78, rec.Report.Longitude)
	assert.False(t, rec.Report.CreatedAt.IsZero())
}

func TestCreateValidation(t *testing.T) {
	f := newReportFixture(t)
	lat, lon := coords(1, 2)

	tests := []struct {
		name  string
		input ReportCreateInput
		code  string
	}{
		{name: "blank description", input: ReportCreateInput{Description: "   ", Latitude: lat, Longitude: lon}, code: apperrors.CodeValidationFailed},
		{name: "missing latitude", input: ReportCreateInput{Description: "x", Longitude: lon}, code: apperrors.CodeValidationFailed},
		{name: "missing longitude", input: ReportCreateInput{Description: "x", Latitude: lat}, code: apperrors.CodeValidationFailed},
		{name: "invalid status", input: ReportCreateInput{Description: "x", Latitude: lat, Longitude: lon, Status: statusPtr(9)}, code: apperrors.CodeInvalidStatus},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Create(context.Background(), tt.input)
			assert.True(t, apperrors.IsCode(err, tt.code), "got %v", err)
		})
	}
	assert.Equal(t, 0, f.reports.Len())
}

func statusPtr(v int) *domain.ReportStatus {
	s := domain.ReportStatus(v)
	return &s
}

func TestCreateWithExplicitStatus(t *testing.T) {
	f := newReportFixture(t)
	lat, lon := coords(1, 2)

	rec, err := f.svc.Create(context.Background(), ReportCreateInput{
		Description: "already fixed",
		Latitude:    lat,
		Longitude:   lon,
		Status:      statusPtr(0),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.ReportStatusFixed, rec.Report.Status)
}

func TestCreateResolvesOwner(t *testing.T) {
	f := newReportFixture(t)
	owner := f.addUser(t, "owner@example.com")
	lat, lon := coords(1, 2)

	rec, err := f.svc.Create(context.Background(), ReportCreateInput{
		Description: "broken bench",
		Latitude:    lat,
		Longitude:   lon,
		OwnerID:     owner,
	})
	require.NoError(t, err)
	require.NotNil(t, rec.Report.UserID)
	assert.Equal(t, owner, *rec.Report.UserID)
}

func TestCreateUnknownOwnerBecomesOwnerless(t *testing.T) {
	f := newReportFixture(t)
	lat, lon := coords(1, 2)

	rec, err := f.svc.Create(context.Background(), ReportCreateInput{
		Description: "fallen tree",
		Latitude:    lat,
		Longitude:   lon,
		OwnerID:     "65f000000000000000000000",
	})
	require.NoError(t, err)
	assert.Nil(t, rec.Report.UserID)
	assert.Equal(t, 1, f.logs.FilterMessage("report submitted with unknown user id").Len())
}

func TestCreateOwnerLookupStoreFailure(t *testing.T) {
	f := newReportFixture(t)
	f.users.Err = errors.New("socket closed")
	lat, lon := coords(1, 2)

	_, err := f.svc.Create(context.Background(), ReportCreateInput{
		Description: "x",
		Latitude:    lat,
		Longitude:   lon,
		OwnerID:     "65f000000000000000000000",
	})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeStoreError))
}

func TestImageRoundTrip(t *testing.T) {
	f := newReportFixture(t)
	lat, lon := coords(1, 2)
	image := append(append([]byte{}, pngHeader...), 0x01, 0x02, 0x03)

	_, err := f.svc.Create(context.Background(), ReportCreateInput{
		Description: "litter",
		Latitude:    lat,
		Longitude:   lon,
		Image:       image,
	})
	require.NoError(t, err)

	records, err := f.svc.List(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.NotNil(t, records[0].Image)

	mime, raw := decodeDataURI(t, *records[0].Image)
	assert.Equal(t, "image/png", mime)
	assert.Equal(t, image, raw)
}

func TestImageDataURIFallsBackToJPEG(t *testing.T) {
	uri := imageDataURI([]byte("plain bytes"))
	require.NotNil(t, uri)
	assert.True(t, strings.HasPrefix(*uri, "data:image/jpeg;base64,"))
	assert.Nil(t, imageDataURI(nil))
}

func TestListFiltersAndSorts(t *testing.T) {
	f := newReportFixture(t)
	u := f.addUser(t, "u@example.com")
	other := f.addUser(t, "other@example.com")
	lat, lon := coords(1, 2)

	create := func(desc, owner string) {
		_, err := f.svc.Create(context.Background(), ReportCreateInput{
			Description: desc, Latitude: lat, Longitude: lon, OwnerID: owner,
		})
		require.NoError(t, err)
	}
	create("first", u)
	create("second", other)
	create("third", "")
	create("fourth", u)

	mine, err := f.svc.List(context.Background(), u)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, "fourth", mine[0].Report.Description)
	assert.Equal(t, "first", mine[1].Report.Description)
	for _, rec := range mine {
		require.NotNil(t, rec.Report.UserID)
		assert.Equal(t, u, *rec.Report.UserID)
	}

	all, err := f.svc.List(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, "fourth", all[0].Report.Description)
	assert.Equal(t, "first", all[3].Report.Description)

	var ownerless int
	for _, rec := range all {
		if rec.Report.UserID == nil {
			ownerless++
		}
	}
	assert.Equal(t, 1, ownerless)
}

func TestListStoreError(t *testing.T) {
	f := newReportFixture(t)
	f.reports.Err = errors.New("cursor killed")

	_, err := f.svc.List(context.Background(), "")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeStoreError))
	assert.Equal(t, "cursor killed", err.Error())
}

func TestUpdateStatus(t *testing.T) {
	f := newReportFixture(t)
	lat, lon := coords(1, 2)
	rec, err := f.svc.Create(context.Background(), ReportCreateInput{Description: "x", Latitude: lat, Longitude: lon})
	require.NoError(t, err)

	updated, err := f.svc.UpdateStatus(context.Background(), rec.Report.ID, domain.ReportStatusFixed)
	require.NoError(t, err)
	assert.Equal(t, domain.ReportStatusFixed, updated.Report.Status)
	require.NotNil(t, updated.Report.UpdatedAt)
	assert.True(t, updated.Report.UpdatedAt.After(rec.Report.CreatedAt))

	// Transitions are unguarded: Fixed back to New is allowed.
	updated, err = f.svc.UpdateStatus(context.Background(), rec.Report.ID, domain.ReportStatusNew)
	require.NoError(t, err)
	assert.Equal(t, domain.ReportStatusNew, updated.Report.Status)
}

func TestUpdateStatusMissingReport(t *testing.T) {
	f := newReportFixture(t)

	_, err := f.svc.UpdateStatus(context.Background(), "65f000000000000000000000", domain.ReportStatusFixed)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
}

func TestUpdateStatusInvalidLeavesRecordUnchanged(t *testing.T) {
	f := newReportFixture(t)
	lat, lon := coords(1, 2)
	rec, err := f.svc.Create(context.Background(), ReportCreateInput{Description: "x", Latitude: lat, Longitude: lon})
	require.NoError(t, err)

	_, err = f.svc.UpdateStatus(context.Background(), rec.Report.ID, domain.ReportStatus(5))
	assert.True(t, apperrors.IsCode(err, apperrors.CodeInvalidStatus))

	stored, ok := f.reports.Get(rec.Report.ID)
	require.True(t, ok)
	assert.Equal(t, domain.ReportStatusNew, stored.Status)
	assert.Nil(t, stored.UpdatedAt)
}

func TestDelete(t *testing.T) {
	f := newReportFixture(t)
	lat, lon := coords(1, 2)
	rec, err := f.svc.Create(context.Background(), ReportCreateInput{Description: "x", Latitude: lat, Longitude: lon})
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(context.Background(), rec.Report.ID))
	assert.Equal(t, 0, f.reports.Len())

	err = f.svc.Delete(context.Background(), rec.Report.ID)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
	assert.Equal(t, "Report not found", err.Error())
}
