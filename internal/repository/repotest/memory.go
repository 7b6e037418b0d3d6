// Package repotest provides in-memory repositories for tests.
package repotest

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/spec-kit/smartcity-api/internal/domain"
	"github.com/spec-kit/smartcity-api/internal/repository"
)

// Users is an in-memory repository.UserRepository. Set Err to make every call fail.
type Users struct {
	mu    sync.Mutex
	byID  map[string]domain.User
	Err   error
	Calls int
}

// NewUsers returns an empty user store.
func NewUsers() *Users {
	return &Users{byID: make(map[string]domain.User)}
}

var _ repository.UserRepository = (*Users)(nil)

func (u *Users) Create(_ context.Context, user *domain.User) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.Calls++
	if u.Err != nil {
		return u.Err
	}
	for _, existing := range u.byID {
		if existing.Email == user.Email {
			return repository.ErrDuplicateEmail
		}
	}
	user.ID = primitive.NewObjectID().Hex()
	u.byID[user.ID] = *user
	return nil
}

func (u *Users) GetByID(_ context.Context, id string) (*domain.User, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.Calls++
	if u.Err != nil {
		return nil, u.Err
	}
	user, ok := u.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &user, nil
}

func (u *Users) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.Calls++
	if u.Err != nil {
		return nil, u.Err
	}
	for _, user := range u.byID {
		if user.Email == email {
			found := user
			return &found, nil
		}
	}
	return nil, repository.ErrNotFound
}

// Reports is an in-memory repository.ReportRepository. List returns insertion order,
// which callers must not rely on.
type Reports struct {
	mu    sync.Mutex
	items []domain.Report
	Err   error
}

// NewReports returns an empty report store.
func NewReports() *Reports {
	return &Reports{}
}

var _ repository.ReportRepository = (*Reports)(nil)

func (r *Reports) Create(_ context.Context, report *domain.Report) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	report.ID = primitive.NewObjectID().Hex()
	r.items = append(r.items, cloneReport(*report))
	return nil
}

func (r *Reports) List(_ context.Context, filter repository.ReportFilter) ([]domain.Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	result := []domain.Report{}
	for _, item := range r.items {
		if filter.UserID != nil && (item.UserID == nil || *item.UserID != *filter.UserID) {
			continue
		}
		result = append(result, cloneReport(item))
	}
	return result, nil
}

func (r *Reports) UpdateStatus(_ context.Context, id string, status domain.ReportStatus, updatedAt time.Time) (*domain.Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	for i := range r.items {
		if r.items[i].ID == id {
			r.items[i].Status = status
			ts := updatedAt
			r.items[i].UpdatedAt = &ts
			updated := cloneReport(r.items[i])
			return &updated, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *Reports) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	for i := range r.items {
		if r.items[i].ID == id {
			r.items = append(r.items[:i], r.items[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

// Get returns a copy of the stored report with id.
func (r *Reports) Get(id string) (domain.Report, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, item := range r.items {
		if item.ID == id {
			return cloneReport(item), true
		}
	}
	return domain.Report{}, false
}

// Len returns the number of stored reports.
func (r *Reports) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

func cloneReport(report domain.Report) domain.Report {
	if report.Image != nil {
		report.Image = append([]byte(nil), report.Image...)
	}
	if report.UserID != nil {
		id := *report.UserID
		report.UserID = &id
	}
	if report.UpdatedAt != nil {
		ts := *report.UpdatedAt
		report.UpdatedAt = &ts
	}
	return report
}
