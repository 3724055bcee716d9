package dto

import "edumatch.id/studybuddy/internal/model"

// OnboardingInput carries the full onboarding form. Submitting it is the
// only way is_onboarded becomes true.
type OnboardingInput struct {
	Role             string   `json:"role" binding:"omitempty,oneof=student tutor both"`
	School           string   `json:"school" binding:"max=200"`
	SubjectsNeedHelp []string `json:"subjects_need_help"`
	SubjectsCanTeach []string `json:"subjects_can_teach"`
	Bio              string   `json:"bio" binding:"max=500"`
}

// UpdateProfileInput is a partial update; nil fields are left untouched.
type UpdateProfileInput struct {
	Role             *string   `json:"role" binding:"omitempty,oneof=student tutor both"`
	School           *string   `json:"school" binding:"omitempty,max=200"`
	SubjectsNeedHelp *[]string `json:"subjects_need_help"`
	SubjectsCanTeach *[]string `json:"subjects_can_teach"`
	Bio              *string   `json:"bio" binding:"omitempty,max=500"`
}

type ProfileResponse struct {
	UserID           string   `json:"user_id"`
	Username         string   `json:"username"`
	Email            string   `json:"email,omitempty"`
	Role             string   `json:"role"`
	School           string   `json:"school"`
	SubjectsNeedHelp []string `json:"subjects_need_help"`
	SubjectsCanTeach []string `json:"subjects_can_teach"`
	Bio              string   `json:"bio"`
	IsOnboarded      bool     `json:"is_onboarded"`
}

// NewProfileResponse builds the public snapshot of a user + profile.
func NewProfileResponse(user *model.User) *ProfileResponse {
	resp := &ProfileResponse{
		UserID:   user.ID.String(),
		Username: user.Username,
	}
	if user.Profile != nil {
		resp.Role = user.Profile.Role
		resp.School = user.Profile.School
		resp.SubjectsNeedHelp = user.Profile.SubjectsNeedHelp
		resp.SubjectsCanTeach = user.Profile.SubjectsCanTeach
		resp.Bio = user.Profile.Bio
		resp.IsOnboarded = user.Profile.IsOnboarded
	}
	return resp
}
