package dto

import (
	"time"

	"edumatch.id/studybuddy/internal/model"
)

type MatchActionInput struct {
	Action string `json:"action" binding:"required,oneof=accept reject"`
}

type MatchActionResponse struct {
	Match  *model.Match `json:"match"`
	Mutual bool         `json:"mutual"`
}

// PotentialMatch is one scorer candidate: the public profile plus the two
// overlap directions relative to the requesting user.
type PotentialMatch struct {
	Profile        *ProfileResponse `json:"profile"`
	CanHelpWith    []string         `json:"can_help_with"`
	CanGetHelpWith []string         `json:"can_get_help_with"`
}

// MatchedUser is one confirmed (mutual) match, resolved to the other party.
type MatchedUser struct {
	Profile   *ProfileResponse `json:"profile"`
	MatchedAt time.Time        `json:"matched_at"`
}

// MatchRequest is a pending proposal: the other side accepted, the
// requesting user has not decided yet.
type MatchRequest struct {
	Profile        *ProfileResponse `json:"profile"`
	CanHelpWith    []string         `json:"can_help_with"`
	CanGetHelpWith []string         `json:"can_get_help_with"`
	RequestedAt    time.Time        `json:"requested_at"`
}
