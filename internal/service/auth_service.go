package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/smartcity-api/internal/auth"
	"github.com/spec-kit/smartcity-api/internal/config"
	"github.com/spec-kit/smartcity-api/internal/domain"
	"github.com/spec-kit/smartcity-api/internal/events"
	"github.com/spec-kit/smartcity-api/internal/repository"
	apperrors "github.com/spec-kit/smartcity-api/pkg/util/errorutil"
)

// AuthService coordinates registration and login. It issues no tokens: callers keep the
// returned identity on the client and resend the id with later requests.
type AuthService struct {
	users      repository.UserRepository
	bcryptCost int
	logger     *zap.Logger
	events     eventPublisher
	now        func() time.Time
}

// AuthDependencies encapsulates collaborators for the auth service.
type AuthDependencies struct {
	UserRepo   repository.UserRepository
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	Now        func() time.Time
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, deps AuthDependencies) *AuthService {
	logger := loggerOrNop(deps.Logger)
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &AuthService{
		users:      deps.UserRepo,
		bcryptCost: cfg.BcryptCost,
		logger:     logger,
		events:     eventPublisher{dispatcher: deps.Dispatcher, logger: logger, now: now},
		now:        now,
	}
}

// Register creates a user account. The returned projection never carries the hash.
func (s *AuthService) Register(ctx context.Context, email, password string) (*domain.UserProjection, error) {
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.NewDuplicateEmail()
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NewStoreError(err)
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	user := &domain.User{
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    s.now().UTC().Truncate(time.Millisecond),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, apperrors.NewDuplicateEmail()
		}
		return nil, apperrors.NewStoreError(err)
	}

	s.logger.Info("user registered", zap.String("user_id", user.ID))
	s.events.publish(ctx, events.Event{
		Type:      events.EventUserRegistered,
		SubjectID: user.ID,
		Payload:   events.UserRegisteredPayload{Email: user.Email},
	})

	projection := user.Projection()
	return &projection, nil
}

// Authenticate verifies credentials and returns the minimal identity on success.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*domain.UserProjection, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("User", nil)
		}
		return nil, apperrors.NewStoreError(err)
	}

	ok, err := auth.ComparePassword(user.PasswordHash, password)
	if err != nil {
		s.logger.Warn("stored password hash unreadable", zap.String("user_id", user.ID), zap.Error(err))
		return nil, apperrors.NewInvalidCredentials()
	}
	if !ok {
		return nil, apperrors.NewInvalidCredentials()
	}

	projection := user.Projection()
	return &projection, nil
}
