package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"edumatch.id/studybuddy/internal/dto"
	"edumatch.id/studybuddy/internal/model"
	"edumatch.id/studybuddy/internal/repository"
	"edumatch.id/studybuddy/internal/service"
	"edumatch.id/studybuddy/pkg/apperror"
)

func setupAuth(t *testing.T) (service.AuthService, repository.UserRepository) {
	t.Helper()
	users := repository.NewUserRepository(setupDB(t))
	return service.NewAuthService(users), users
}

func TestRegisterCreatesUserWithProfile(t *testing.T) {
	ctx := context.Background()
	svc, users := setupAuth(t)

	res, err := svc.Register(ctx, dto.RegisterInput{
		Username: "alice",
		Email:    "Alice@Test.com",
		Password: "supersecret",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, "alice@test.com", res.User.Email)

	// The profile exists from the first moment, not yet onboarded.
	stored, err := users.FindByID(ctx, res.User.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.Profile)
	assert.False(t, stored.Profile.IsOnboarded)
	assert.Equal(t, model.RoleStudent, stored.Profile.Role)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupAuth(t)

	_, err := svc.Register(ctx, dto.RegisterInput{Username: "alice", Email: "alice@test.com", Password: "supersecret"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, dto.RegisterInput{Username: "alice2", Email: "ALICE@test.com", Password: "supersecret"})
	assert.ErrorIs(t, err, apperror.ErrConflict)

	_, err = svc.Register(ctx, dto.RegisterInput{Username: "alice", Email: "other@test.com", Password: "supersecret"})
	assert.ErrorIs(t, err, apperror.ErrConflict)
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupAuth(t)

	_, err := svc.Register(ctx, dto.RegisterInput{Username: "alice", Email: "alice@test.com", Password: "supersecret"})
	require.NoError(t, err)

	res, err := svc.Login(ctx, dto.LoginInput{Email: "alice@test.com", Password: "supersecret"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)

	_, err = svc.Login(ctx, dto.LoginInput{Email: "alice@test.com", Password: "wrong"})
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)

	_, err = svc.Login(ctx, dto.LoginInput{Email: "nobody@test.com", Password: "supersecret"})
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)
}

func TestCompleteOnboarding(t *testing.T) {
	ctx := context.Background()
	db := setupDB(t)
	users := repository.NewUserRepository(db)
	authSvc := service.NewAuthService(users)
	profileSvc := service.NewProfileService(users)

	res, err := authSvc.Register(ctx, dto.RegisterInput{Username: "alice", Email: "alice@test.com", Password: "supersecret"})
	require.NoError(t, err)

	profile, err := profileSvc.CompleteOnboarding(ctx, res.User.ID, dto.OnboardingInput{
		Role:             model.RoleTutor,
		School:           "Springfield High",
		SubjectsCanTeach: []string{"Math", "Math", "Physics"},
		Bio:              "happy to help",
	})
	require.NoError(t, err)

	assert.True(t, profile.IsOnboarded)
	assert.Equal(t, model.RoleTutor, profile.Role)
	// Duplicates are dropped on save.
	assert.Equal(t, []string{"Math", "Physics"}, profile.SubjectsCanTeach)

	stored, err := users.FindByID(ctx, res.User.ID)
	require.NoError(t, err)
	assert.True(t, stored.Profile.IsOnboarded)
}
