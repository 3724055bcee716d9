package service

import (
	"context"
	"errors"
	"sort"

	"edumatch.id/studybuddy/internal/dto"
	"edumatch.id/studybuddy/internal/model"
	"edumatch.id/studybuddy/internal/repository"
	"edumatch.id/studybuddy/pkg/apperror"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MatchService interface {
	Act(ctx context.Context, actorID, targetID uuid.UUID, action string) (*dto.MatchActionResponse, error)
	PotentialMatches(ctx context.Context, userID uuid.UUID) ([]dto.PotentialMatch, error)
	ConfirmedMatches(ctx context.Context, userID uuid.UUID) ([]dto.MatchedUser, error)
	IncomingRequests(ctx context.Context, userID uuid.UUID) ([]dto.MatchRequest, error)
	AreMutuallyMatched(ctx context.Context, x, y uuid.UUID) (bool, error)
}

type matchService struct {
	matches repository.MatchRepository
	users   repository.UserRepository
}

func NewMatchService(matches repository.MatchRepository, users repository.UserRepository) MatchService {
	return &matchService{matches: matches, users: users}
}

// Act records the actor's accept/reject decision toward the target. The
// other party's decision is left alone; a pair becomes mutual once both
// sides have accepted, in either order. A side that rejected earlier may
// still accept later and re-open the pair.
func (s *matchService) Act(ctx context.Context, actorID, targetID uuid.UUID, action string) (*dto.MatchActionResponse, error) {
	if actorID == targetID {
		return nil, apperror.New(0, "cannot match with yourself", apperror.ErrInvalidInput)
	}

	status, err := statusFromAction(action)
	if err != nil {
		return nil, err
	}

	if _, err := s.users.FindByID(ctx, targetID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.New(0, "user not found", apperror.ErrNotFound)
		}
		return nil, err
	}

	record, err := s.matches.Reconcile(ctx, actorID, targetID, status)
	if err != nil {
		return nil, err
	}

	return &dto.MatchActionResponse{Match: record, Mutual: record.IsMutual()}, nil
}

// PotentialMatches scores every onboarded user against the requester.
// A candidate qualifies when no match record exists for the pair yet (any
// recorded decision removes the pair from the pool for good) and the
// subject sets overlap in at least one direction. Results are ordered by
// candidate id so repeated calls are deterministic.
func (s *matchService) PotentialMatches(ctx context.Context, userID uuid.UUID) ([]dto.PotentialMatch, error) {
	me, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrNotFound
		}
		return nil, err
	}
	if me.Profile == nil {
		return nil, apperror.ErrNotFound
	}

	related, err := s.relatedUserIDs(ctx, userID)
	if err != nil {
		return nil, err
	}

	candidates, err := s.users.FindOnboarded(ctx, userID)
	if err != nil {
		return nil, err
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].ID.String() < candidates[j].ID.String()
	})

	results := make([]dto.PotentialMatch, 0)
	for _, candidate := range candidates {
		if candidate.Profile == nil {
			continue
		}
		if _, ok := related[candidate.ID]; ok {
			continue
		}

		canHelpWith := intersect(me.Profile.SubjectsCanTeach, candidate.Profile.SubjectsNeedHelp)
		canGetHelpWith := intersect(me.Profile.SubjectsNeedHelp, candidate.Profile.SubjectsCanTeach)
		if len(canHelpWith) == 0 && len(canGetHelpWith) == 0 {
			continue
		}

		results = append(results, dto.PotentialMatch{
			Profile:        dto.NewProfileResponse(candidate),
			CanHelpWith:    canHelpWith,
			CanGetHelpWith: canGetHelpWith,
		})
	}

	return results, nil
}

// ConfirmedMatches lists every mutual match, resolved to the other party.
func (s *matchService) ConfirmedMatches(ctx context.Context, userID uuid.UUID) ([]dto.MatchedUser, error) {
	records, err := s.matches.FindMutualByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	results := make([]dto.MatchedUser, 0, len(records))
	for _, record := range records {
		other, err := s.users.FindByID(ctx, record.OtherUser(userID))
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			return nil, err
		}
		results = append(results, dto.MatchedUser{
			Profile:   dto.NewProfileResponse(other),
			MatchedAt: record.UpdatedAt,
		})
	}

	return results, nil
}

// IncomingRequests lists pairs where the other side has accepted and the
// user has not decided yet. Resolved by decision, not slot position, so it
// does not matter which side created the record.
func (s *matchService) IncomingRequests(ctx context.Context, userID uuid.UUID) ([]dto.MatchRequest, error) {
	me, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrNotFound
		}
		return nil, err
	}
	if me.Profile == nil {
		return nil, apperror.ErrNotFound
	}

	records, err := s.matches.FindAllByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	results := make([]dto.MatchRequest, 0)
	for _, record := range records {
		otherID := record.OtherUser(userID)
		if record.StatusOf(otherID) != model.MatchAccepted || record.StatusOf(userID) != model.MatchPending {
			continue
		}

		other, err := s.users.FindByID(ctx, otherID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			return nil, err
		}

		var canHelpWith, canGetHelpWith []string
		if other.Profile != nil {
			canHelpWith = intersect(me.Profile.SubjectsCanTeach, other.Profile.SubjectsNeedHelp)
			canGetHelpWith = intersect(me.Profile.SubjectsNeedHelp, other.Profile.SubjectsCanTeach)
		}

		results = append(results, dto.MatchRequest{
			Profile:        dto.NewProfileResponse(other),
			CanHelpWith:    canHelpWith,
			CanGetHelpWith: canGetHelpWith,
			RequestedAt:    record.UpdatedAt,
		})
	}

	return results, nil
}

// AreMutuallyMatched is the chat authorization predicate.
func (s *matchService) AreMutuallyMatched(ctx context.Context, x, y uuid.UUID) (bool, error) {
	record, err := s.matches.FindByPair(ctx, x, y)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return record.IsMutual(), nil
}

func (s *matchService) relatedUserIDs(ctx context.Context, userID uuid.UUID) (map[uuid.UUID]struct{}, error) {
	records, err := s.matches.FindAllByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	related := make(map[uuid.UUID]struct{}, len(records))
	for _, record := range records {
		related[record.OtherUser(userID)] = struct{}{}
	}
	return related, nil
}

func statusFromAction(action string) (model.MatchStatus, error) {
	switch action {
	case "accept":
		return model.MatchAccepted, nil
	case "reject":
		return model.MatchRejected, nil
	default:
		return "", apperror.New(0, "action must be accept or reject", apperror.ErrInvalidInput)
	}
}

// intersect returns the de-duplicated elements of a that also occur in b,
// in a's order.
func intersect(a, b model.SubjectList) []string {
	out := make([]string, 0)
	seen := make(map[string]struct{}, len(a))
	for _, s := range a {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		if b.Contains(s) {
			out = append(out, s)
		}
	}
	return out
}
