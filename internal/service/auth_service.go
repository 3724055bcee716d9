package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"edumatch.id/studybuddy/internal/dto"
	"edumatch.id/studybuddy/internal/model"
	"edumatch.id/studybuddy/internal/repository"
	"edumatch.id/studybuddy/pkg/apperror"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type AuthService interface {
	Register(ctx context.Context, input dto.RegisterInput) (*dto.AuthResponse, error)
	Login(ctx context.Context, input dto.LoginInput) (*dto.AuthResponse, error)
	CurrentUser(ctx context.Context, userID uuid.UUID) (*model.User, error)
}

type authService struct {
	repo     repository.UserRepository
	secret   string
	tokenTTL time.Duration
}

func NewAuthService(repo repository.UserRepository) AuthService {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "change-me"
	}

	ttl := 24 * time.Hour
	if ttlStr := os.Getenv("JWT_TTL_MINUTES"); ttlStr != "" {
		if minutes, err := strconv.Atoi(ttlStr); err == nil {
			ttl = time.Duration(minutes) * time.Minute
		}
	}

	return &authService{
		repo:     repo,
		secret:   secret,
		tokenTTL: ttl,
	}
}

// Register creates the account and its (empty, not yet onboarded) profile in
// one step. The profile always exists afterwards; onboarding only fills it.
func (s *authService) Register(ctx context.Context, input dto.RegisterInput) (*dto.AuthResponse, error) {
	email := strings.ToLower(input.Email)

	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return nil, apperror.New(0, "email already registered", apperror.ErrConflict)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if _, err := s.repo.FindByUsername(ctx, input.Username); err == nil {
		return nil, apperror.New(0, "username already taken", apperror.ErrConflict)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Username:     input.Username,
		Email:        email,
		PasswordHash: string(hashedPassword),
	}
	profile := &model.Profile{}

	if err := s.repo.Create(ctx, user, profile); err != nil {
		// Duplicate-key race between the checks above and the insert.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperror.New(0, "email or username already taken", apperror.ErrConflict)
		}
		return nil, err
	}

	user.Profile = profile
	return s.buildAuthResponse(user)
}

func (s *authService) Login(ctx context.Context, input dto.LoginInput) (*dto.AuthResponse, error) {
	user, err := s.repo.FindByEmail(ctx, strings.ToLower(input.Email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.New(0, "invalid credentials", apperror.ErrUnauthorized)
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, apperror.New(0, "invalid credentials", apperror.ErrUnauthorized)
	}

	return s.buildAuthResponse(user)
}

func (s *authService) CurrentUser(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *authService) buildAuthResponse(user *model.User) (*dto.AuthResponse, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   user.ID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.secret))
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return &dto.AuthResponse{Token: token, User: user}, nil
}
