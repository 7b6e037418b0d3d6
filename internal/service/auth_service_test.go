package service

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/smartcity-api/internal/config"
	"github.com/spec-kit/smartcity-api/internal/domain"
	"github.com/spec-kit/smartcity-api/internal/events"
	"github.com/spec-kit/smartcity-api/internal/repository/repotest"
	apperrors "github.com/spec-kit/smartcity-api/pkg/util/errorutil"
)

func newTestAuthService(users *repotest.Users, dispatcher events.Dispatcher) *AuthService {
	return NewAuthService(config.AuthConfig{BcryptCost: bcrypt.MinCost}, AuthDependencies{
		UserRepo:   users,
		Dispatcher: dispatcher,
	})
}

func TestRegisterStoresHashedPassword(t *testing.T) {
	users := repotest.NewUsers()
	svc := newTestAuthService(users, nil)

	user, err := svc.Register(context.Background(), "ana@example.com", "hunter2")
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "ana@example.com", user.Email)
	assert.False(t, user.IsAdmin)

	stored, err := users.GetByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "hunter2", stored.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("hunter2")))
	assert.False(t, stored.CreatedAt.IsZero())
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := newTestAuthService(repotest.NewUsers(), nil)

	_, err := svc.Register(context.Background(), "dup@example.com", "pw")
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), "dup@example.com", "other")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeDuplicateEmail))
}

func TestRegisterStoreFailure(t *testing.T) {
	users := repotest.NewUsers()
	users.Err = errors.New("no reachable servers")
	svc := newTestAuthService(users, nil)

	_, err := svc.Register(context.Background(), "a@example.com", "pw")

	require.True(t, apperrors.IsCode(err, apperrors.CodeStoreError))
	assert.Equal(t, "no reachable servers", err.Error())
}

func TestRegisterPublishesEvent(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher()
	var got []events.Event
	dispatcher.Subscribe(events.EventUserRegistered, func(_ context.Context, e events.Event) error {
		got = append(got, e)
		return nil
	})
	svc := newTestAuthService(repotest.NewUsers(), dispatcher)

	user, err := svc.Register(context.Background(), "evt@example.com", "pw")
	require.NoError(t, err)

	require.Len(t, got, 1)
	assert.Equal(t, user.ID, got[0].SubjectID)
	assert.NotEmpty(t, got[0].ID)
	assert.Equal(t, events.UserRegisteredPayload{Email: "evt@example.com"}, got[0].Payload)
}

func TestAuthenticate(t *testing.T) {
	users := repotest.NewUsers()
	svc := newTestAuthService(users, nil)
	registered, err := svc.Register(context.Background(), "bo@example.com", "correct")
	require.NoError(t, err)

	t.Run("success returns projection", func(t *testing.T) {
		user, err := svc.Authenticate(context.Background(), "bo@example.com", "correct")
		require.NoError(t, err)
		assert.Equal(t, registered.ID, user.ID)
		assert.Equal(t, "bo@example.com", user.Email)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := svc.Authenticate(context.Background(), "nobody@example.com", "correct")
		assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
		assert.Equal(t, "User not found", err.Error())
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Authenticate(context.Background(), "bo@example.com", "incorrect")
		assert.True(t, apperrors.IsCode(err, apperrors.CodeInvalidCredentials))
	})
}

func TestUserProjectionHasNoPasswordField(t *testing.T) {
	typ := reflect.TypeOf(domain.UserProjection{})
	for i := 0; i < typ.NumField(); i++ {
		assert.NotContains(t, typ.Field(i).Name, "Password")
	}
}
