package service_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"edumatch.id/studybuddy/internal/model"
	"edumatch.id/studybuddy/internal/repository"
	"edumatch.id/studybuddy/internal/service"
	"edumatch.id/studybuddy/pkg/apperror"
)

//
// Test helpers
//

// setupDB spins up an isolated in-memory SQLite database per test.
func setupDB(t *testing.T) *gorm.DB {
	t.Helper()

	dbName := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dbName), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&model.User{},
		&model.Profile{},
		&model.Match{},
		&model.ChatMessage{},
	))

	return db
}

// seedUser inserts a user with an onboarded profile carrying the given
// subject sets.
func seedUser(t *testing.T, users repository.UserRepository, username string, canTeach, needHelp []string) *model.User {
	t.Helper()

	user := &model.User{
		Username:     username,
		Email:        username + "@test.com",
		PasswordHash: "x",
	}
	profile := &model.Profile{
		Role:             model.RoleBoth,
		School:           "Test High",
		SubjectsCanTeach: canTeach,
		SubjectsNeedHelp: needHelp,
		IsOnboarded:      true,
	}
	require.NoError(t, users.Create(context.Background(), user, profile))
	user.Profile = profile
	return user
}

type matchFixture struct {
	users   repository.UserRepository
	matches repository.MatchRepository
	svc     service.MatchService
}

func setupMatchService(t *testing.T) *matchFixture {
	t.Helper()

	db := setupDB(t)
	users := repository.NewUserRepository(db)
	matches := repository.NewMatchRepository(db)
	return &matchFixture{
		users:   users,
		matches: matches,
		svc:     service.NewMatchService(matches, users),
	}
}

//
// Tests
//

// The canonical scenario: a tutor who teaches Math and a student who needs
// Math see each other as potential matches with the overlap in the right
// direction.
func TestPotentialMatchesSubjectOverlap(t *testing.T) {
	ctx := context.Background()
	f := setupMatchService(t)

	tutor := seedUser(t, f.users, "tutor", []string{"Math"}, nil)
	student := seedUser(t, f.users, "student", nil, []string{"Math"})

	results, err := f.svc.PotentialMatches(ctx, tutor.ID)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "student", results[0].Profile.Username)
	assert.Equal(t, []string{"Math"}, results[0].CanHelpWith)
	assert.Empty(t, results[0].CanGetHelpWith)

	// And symmetrically from the student's side.
	results, err = f.svc.PotentialMatches(ctx, student.ID)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "tutor", results[0].Profile.Username)
	assert.Empty(t, results[0].CanHelpWith)
	assert.Equal(t, []string{"Math"}, results[0].CanGetHelpWith)
}

func TestPotentialMatchesRequiresOverlap(t *testing.T) {
	ctx := context.Background()
	f := setupMatchService(t)

	me := seedUser(t, f.users, "me", nil, nil)
	seedUser(t, f.users, "empty", nil, nil)
	seedUser(t, f.users, "physics", []string{"Physics"}, []string{"Physics"})

	// Both of my sets are empty, so nobody qualifies.
	results, err := f.svc.PotentialMatches(ctx, me.ID)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestPotentialMatchesExcludesNotOnboarded(t *testing.T) {
	ctx := context.Background()
	f := setupMatchService(t)

	me := seedUser(t, f.users, "me", []string{"Math"}, nil)

	other := &model.User{Username: "draft", Email: "draft@test.com", PasswordHash: "x"}
	require.NoError(t, f.users.Create(ctx, other, &model.Profile{
		SubjectsNeedHelp: []string{"Math"},
		IsOnboarded:      false,
	}))

	results, err := f.svc.PotentialMatches(ctx, me.ID)
	require.NoError(t, err)
	assert.Empty(t, results)
}

// Any recorded decision, in either direction and of any status, removes the
// pair from the potential pool permanently.
func TestPotentialMatchesExcludesDecidedPairs(t *testing.T) {
	ctx := context.Background()
	f := setupMatchService(t)

	me := seedUser(t, f.users, "me", []string{"Math"}, nil)
	accepted := seedUser(t, f.users, "accepted", nil, []string{"Math"})
	rejected := seedUser(t, f.users, "rejected", nil, []string{"Math"})
	proposer := seedUser(t, f.users, "proposer", nil, []string{"Math"})
	fresh := seedUser(t, f.users, "fresh", nil, []string{"Math"})

	_, err := f.svc.Act(ctx, me.ID, accepted.ID, "accept")
	require.NoError(t, err)
	_, err = f.svc.Act(ctx, me.ID, rejected.ID, "reject")
	require.NoError(t, err)
	// Incoming proposal also disqualifies, even though I never acted.
	_, err = f.svc.Act(ctx, proposer.ID, me.ID, "accept")
	require.NoError(t, err)

	results, err := f.svc.PotentialMatches(ctx, me.ID)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, fresh.ID.String(), results[0].Profile.UserID)
}

func TestPotentialMatchesDeterministicOrder(t *testing.T) {
	ctx := context.Background()
	f := setupMatchService(t)

	me := seedUser(t, f.users, "me", []string{"Math"}, nil)
	for i := 0; i < 5; i++ {
		seedUser(t, f.users, fmt.Sprintf("candidate%d", i), nil, []string{"Math"})
	}

	first, err := f.svc.PotentialMatches(ctx, me.ID)
	require.NoError(t, err)
	second, err := f.svc.PotentialMatches(ctx, me.ID)
	require.NoError(t, err)

	require.Len(t, first, 5)
	for i := range first {
		assert.Equal(t, first[i].Profile.UserID, second[i].Profile.UserID)
		if i > 0 {
			assert.Less(t, first[i-1].Profile.UserID, first[i].Profile.UserID)
		}
	}
}

func TestActRejectsSelfTarget(t *testing.T) {
	ctx := context.Background()
	f := setupMatchService(t)

	me := seedUser(t, f.users, "me", nil, nil)

	_, err := f.svc.Act(ctx, me.ID, me.ID, "accept")
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)
}

func TestActUnknownTarget(t *testing.T) {
	ctx := context.Background()
	f := setupMatchService(t)

	me := seedUser(t, f.users, "me", nil, nil)

	_, err := f.svc.Act(ctx, me.ID, uuid.New(), "accept")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestActReportsMutual(t *testing.T) {
	ctx := context.Background()
	f := setupMatchService(t)

	alice := seedUser(t, f.users, "alice", []string{"Math"}, nil)
	bob := seedUser(t, f.users, "bob", nil, []string{"Math"})

	res, err := f.svc.Act(ctx, alice.ID, bob.ID, "accept")
	require.NoError(t, err)
	assert.False(t, res.Mutual)

	res, err = f.svc.Act(ctx, bob.ID, alice.ID, "accept")
	require.NoError(t, err)
	assert.True(t, res.Mutual)
}

// A confirmed match always resolves to the other party, never the caller.
func TestConfirmedMatchesListsOtherParty(t *testing.T) {
	ctx := context.Background()
	f := setupMatchService(t)

	alice := seedUser(t, f.users, "alice", []string{"Math"}, nil)
	bob := seedUser(t, f.users, "bob", nil, []string{"Math"})
	seedUser(t, f.users, "carol", nil, []string{"Math"})

	_, err := f.svc.Act(ctx, alice.ID, bob.ID, "accept")
	require.NoError(t, err)

	// One-sided: not confirmed yet.
	confirmed, err := f.svc.ConfirmedMatches(ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, confirmed)

	_, err = f.svc.Act(ctx, bob.ID, alice.ID, "accept")
	require.NoError(t, err)

	confirmed, err = f.svc.ConfirmedMatches(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, confirmed, 1)
	assert.Equal(t, "bob", confirmed[0].Profile.Username)

	confirmed, err = f.svc.ConfirmedMatches(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, confirmed, 1)
	assert.Equal(t, "alice", confirmed[0].Profile.Username)
}

func TestIncomingRequests(t *testing.T) {
	ctx := context.Background()
	f := setupMatchService(t)

	alice := seedUser(t, f.users, "alice", []string{"Math"}, nil)
	bob := seedUser(t, f.users, "bob", nil, []string{"Math"})

	_, err := f.svc.Act(ctx, alice.ID, bob.ID, "accept")
	require.NoError(t, err)

	// Bob has a pending proposal from alice, with the overlap resolved
	// from bob's perspective.
	requests, err := f.svc.IncomingRequests(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, requests, 1)
	assert.Equal(t, "alice", requests[0].Profile.Username)
	assert.Empty(t, requests[0].CanHelpWith)
	assert.Equal(t, []string{"Math"}, requests[0].CanGetHelpWith)

	// Alice proposed, she has nothing incoming.
	requests, err = f.svc.IncomingRequests(ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, requests)

	// Once bob decides, the request disappears.
	_, err = f.svc.Act(ctx, bob.ID, alice.ID, "accept")
	require.NoError(t, err)
	requests, err = f.svc.IncomingRequests(ctx, bob.ID)
	require.NoError(t, err)
	assert.Empty(t, requests)
}

func TestIncomingRequestsIgnoresRejectedProposer(t *testing.T) {
	ctx := context.Background()
	f := setupMatchService(t)

	alice := seedUser(t, f.users, "alice", []string{"Math"}, nil)
	bob := seedUser(t, f.users, "bob", nil, []string{"Math"})

	_, err := f.svc.Act(ctx, alice.ID, bob.ID, "reject")
	require.NoError(t, err)

	requests, err := f.svc.IncomingRequests(ctx, bob.ID)
	require.NoError(t, err)
	assert.Empty(t, requests)
}

func TestAreMutuallyMatched(t *testing.T) {
	ctx := context.Background()
	f := setupMatchService(t)

	alice := seedUser(t, f.users, "alice", nil, nil)
	bob := seedUser(t, f.users, "bob", nil, nil)

	// No record at all.
	mutual, err := f.svc.AreMutuallyMatched(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, mutual)

	_, err = f.svc.Act(ctx, alice.ID, bob.ID, "accept")
	require.NoError(t, err)
	mutual, err = f.svc.AreMutuallyMatched(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, mutual)

	_, err = f.svc.Act(ctx, bob.ID, alice.ID, "accept")
	require.NoError(t, err)
	mutual, err = f.svc.AreMutuallyMatched(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	assert.True(t, mutual)
}
