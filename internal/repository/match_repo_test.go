package repository_test

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
)

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

func countMatches(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var count int64
	require.NoError(t, db.Model(&model.Match{}).Count(&count).Error)
	return count
}

func TestReconcileCreatesPairRecord(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMatchRepository(setupDB(t))

	actor := uuid.New()
	target := uuid.New()

	record, err := repo.Reconcile(ctx, actor, target, model.MatchAccepted)
	require.NoError(t, err)

	// The acting side carries the decision, the other side stays pending.
	assert.Equal(t, model.MatchAccepted, record.StatusOf(actor))
	assert.Equal(t, model.MatchPending, record.StatusOf(target))
	assert.False(t, record.IsMutual())

	// Stored canonically: slot A holds the smaller uuid string.
	assert.Less(t, record.UserAID.String(), record.UserBID.String())
}

func TestReconcileIsIdempotent(t *testing.T) {
	ctx := context.Background()
	db := setupDB(t)
	repo := repository.NewMatchRepository(db)

	actor := uuid.New()
	target := uuid.New()

	first, err := repo.Reconcile(ctx, actor, target, model.MatchAccepted)
	require.NoError(t, err)

	second, err := repo.Reconcile(ctx, actor, target, model.MatchAccepted)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.StatusA, second.StatusA)
	assert.Equal(t, first.StatusB, second.StatusB)
	assert.EqualValues(t, 1, countMatches(t, db))
}

func TestReconcileMutualAcceptance(t *testing.T) {
	ctx := context.Background()
	db := setupDB(t)
	repo := repository.NewMatchRepository(db)

	userA := uuid.New()
	userB := uuid.New()

	_, err := repo.Reconcile(ctx, userA, userB, model.MatchAccepted)
	require.NoError(t, err)

	record, err := repo.Reconcile(ctx, userB, userA, model.MatchAccepted)
	require.NoError(t, err)

	assert.True(t, record.IsMutual())
	assert.EqualValues(t, 1, countMatches(t, db))
}

// Whichever side acts first, the pair converges on the same single record.
func TestReconcileOrientationIndependent(t *testing.T) {
	ctx := context.Background()
	db := setupDB(t)
	repo := repository.NewMatchRepository(db)

	userA := uuid.New()
	userB := uuid.New()

	// userB acts first this time.
	_, err := repo.Reconcile(ctx, userB, userA, model.MatchRejected)
	require.NoError(t, err)

	record, err := repo.Reconcile(ctx, userA, userB, model.MatchAccepted)
	require.NoError(t, err)

	assert.Equal(t, model.MatchAccepted, record.StatusOf(userA))
	assert.Equal(t, model.MatchRejected, record.StatusOf(userB))
	assert.EqualValues(t, 1, countMatches(t, db))
}

// A side that rejected may later accept; if the other side accepted the
// pair becomes mutual.
func TestReconcileReacceptanceAfterRejection(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMatchRepository(setupDB(t))

	userA := uuid.New()
	userB := uuid.New()

	_, err := repo.Reconcile(ctx, userA, userB, model.MatchRejected)
	require.NoError(t, err)
	_, err = repo.Reconcile(ctx, userB, userA, model.MatchAccepted)
	require.NoError(t, err)

	record, err := repo.Reconcile(ctx, userA, userB, model.MatchAccepted)
	require.NoError(t, err)
	assert.True(t, record.IsMutual())
}

func TestReconcileDoesNotTouchOtherSide(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMatchRepository(setupDB(t))

	userA := uuid.New()
	userB := uuid.New()

	_, err := repo.Reconcile(ctx, userB, userA, model.MatchAccepted)
	require.NoError(t, err)

	record, err := repo.Reconcile(ctx, userA, userB, model.MatchRejected)
	require.NoError(t, err)

	// userB's earlier acceptance survives userA's rejection.
	assert.Equal(t, model.MatchAccepted, record.StatusOf(userB))
	assert.Equal(t, model.MatchRejected, record.StatusOf(userA))
}

func TestFindByPairEitherOrientation(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMatchRepository(setupDB(t))

	userA := uuid.New()
	userB := uuid.New()

	created, err := repo.Reconcile(ctx, userA, userB, model.MatchAccepted)
	require.NoError(t, err)

	forward, err := repo.FindByPair(ctx, userA, userB)
	require.NoError(t, err)
	reverse, err := repo.FindByPair(ctx, userB, userA)
	require.NoError(t, err)

	assert.Equal(t, created.ID, forward.ID)
	assert.Equal(t, created.ID, reverse.ID)
}

func TestFindMutualByUser(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMatchRepository(setupDB(t))

	userA := uuid.New()
	userB := uuid.New()
	userC := uuid.New()

	// A<->B mutual, A->C one-sided.
	_, err := repo.Reconcile(ctx, userA, userB, model.MatchAccepted)
	require.NoError(t, err)
	_, err = repo.Reconcile(ctx, userB, userA, model.MatchAccepted)
	require.NoError(t, err)
	_, err = repo.Reconcile(ctx, userA, userC, model.MatchAccepted)
	require.NoError(t, err)

	mutual, err := repo.FindMutualByUser(ctx, userA)
	require.NoError(t, err)
	require.Len(t, mutual, 1)
	assert.Equal(t, userB, mutual[0].OtherUser(userA))

	all, err := repo.FindAllByUser(ctx, userA)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
