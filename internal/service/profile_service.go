package service

import (
	"context"
	"errors"

	"edumatch.id/studybuddy/internal/dto"
	"edumatch.id/studybuddy/internal/repository"
	"edumatch.id/studybuddy/pkg/apperror"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProfileService interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*dto.ProfileResponse, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, input dto.UpdateProfileInput) (*dto.ProfileResponse, error)
	CompleteOnboarding(ctx context.Context, userID uuid.UUID, input dto.OnboardingInput) (*dto.ProfileResponse, error)
}

type profileService struct {
	repo repository.UserRepository
}

func NewProfileService(repo repository.UserRepository) ProfileService {
	return &profileService{repo: repo}
}

func (s *profileService) GetProfile(ctx context.Context, userID uuid.UUID) (*dto.ProfileResponse, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrNotFound
		}
		return nil, err
	}

	resp := dto.NewProfileResponse(user)
	resp.Email = user.Email
	return resp, nil
}

func (s *profileService) UpdateProfile(ctx context.Context, userID uuid.UUID, input dto.UpdateProfileInput) (*dto.ProfileResponse, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrNotFound
		}
		return nil, err
	}

	profile := user.Profile
	if profile == nil {
		return nil, apperror.ErrNotFound
	}

	if input.Role != nil {
		profile.Role = *input.Role
	}
	if input.School != nil {
		profile.School = *input.School
	}
	if input.SubjectsNeedHelp != nil {
		profile.SubjectsNeedHelp = dedupe(*input.SubjectsNeedHelp)
	}
	if input.SubjectsCanTeach != nil {
		profile.SubjectsCanTeach = dedupe(*input.SubjectsCanTeach)
	}
	if input.Bio != nil {
		profile.Bio = *input.Bio
	}

	if err := s.repo.UpdateProfile(ctx, profile); err != nil {
		return nil, err
	}

	user.Profile = profile
	resp := dto.NewProfileResponse(user)
	resp.Email = user.Email
	return resp, nil
}

// CompleteOnboarding saves the full onboarding form and flips is_onboarded.
// Nothing else ever sets that flag.
func (s *profileService) CompleteOnboarding(ctx context.Context, userID uuid.UUID, input dto.OnboardingInput) (*dto.ProfileResponse, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrNotFound
		}
		return nil, err
	}

	profile := user.Profile
	if profile == nil {
		return nil, apperror.ErrNotFound
	}

	if input.Role != "" {
		profile.Role = input.Role
	}
	profile.School = input.School
	profile.SubjectsNeedHelp = dedupe(input.SubjectsNeedHelp)
	profile.SubjectsCanTeach = dedupe(input.SubjectsCanTeach)
	profile.Bio = input.Bio
	profile.IsOnboarded = true

	if err := s.repo.UpdateProfile(ctx, profile); err != nil {
		return nil, err
	}

	user.Profile = profile
	resp := dto.NewProfileResponse(user)
	resp.Email = user.Email
	return resp, nil
}

// dedupe drops repeated subjects, keeping first-seen order.
func dedupe(subjects []string) []string {
	seen := make(map[string]struct{}, len(subjects))
	out := make([]string, 0, len(subjects))
	for _, s := range subjects {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
