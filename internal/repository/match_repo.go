package repository

import (
	"context"
	"time"

	"edumatch.id/studybuddy/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MatchRepository interface {
	Reconcile(ctx context.Context, actor, target uuid.UUID, status model.MatchStatus) (*model.Match, error)
	FindByPair(ctx context.Context, x, y uuid.UUID) (*model.Match, error)
	FindAllByUser(ctx context.Context, userID uuid.UUID) ([]model.Match, error)
	FindMutualByUser(ctx context.Context, userID uuid.UUID) ([]model.Match, error)
}

type matchRepository struct {
	db *gorm.DB
}

func NewMatchRepository(db *gorm.DB) MatchRepository {
	return &matchRepository{db: db}
}

// Reconcile applies the actor's decision toward the target to the pair
// record, creating it if absent.
//
// The pair is canonicalized before touching the database, so the write is a
// single upsert keyed on the unique (user_a_id, user_b_id) index: if the row
// exists only the actor's own status column is overwritten, the other
// party's decision is never touched. Concurrent reconciles on the same pair
// serialize on that index instead of racing into duplicate rows.
func (r *matchRepository) Reconcile(ctx context.Context, actor, target uuid.UUID, status model.MatchStatus) (*model.Match, error) {
	a, b := model.CanonicalPair(actor, target)

	record := model.Match{
		UserAID: a,
		UserBID: b,
		StatusA: model.MatchPending,
		StatusB: model.MatchPending,
	}
	record.SetStatusOf(actor, status)

	statusColumn := "status_a"
	if actor == b {
		statusColumn = "status_b"
	}

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_a_id"}, {Name: "user_b_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				statusColumn: status,
				"updated_at": time.Now(),
			}),
		}).
		Create(&record).Error
	if err != nil {
		return nil, err
	}

	// Re-read: on the conflict path the in-memory record does not reflect
	// the surviving row (id, the other side's status, timestamps).
	return r.FindByPair(ctx, actor, target)
}

func (r *matchRepository) FindByPair(ctx context.Context, x, y uuid.UUID) (*model.Match, error) {
	a, b := model.CanonicalPair(x, y)

	var record model.Match
	if err := r.db.WithContext(ctx).
		Where("user_a_id = ? AND user_b_id = ?", a, b).
		First(&record).Error; err != nil {
		return nil, err
	}

	return &record, nil
}

func (r *matchRepository) FindAllByUser(ctx context.Context, userID uuid.UUID) ([]model.Match, error) {
	var records []model.Match
	err := r.db.WithContext(ctx).
		Where("user_a_id = ? OR user_b_id = ?", userID, userID).
		Order("updated_at DESC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}

	return records, nil
}

func (r *matchRepository) FindMutualByUser(ctx context.Context, userID uuid.UUID) ([]model.Match, error) {
	var records []model.Match
	err := r.db.WithContext(ctx).
		Where("user_a_id = ? OR user_b_id = ?", userID, userID).
		Where("status_a = ? AND status_b = ?", model.MatchAccepted, model.MatchAccepted).
		Order("updated_at DESC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}

	return records, nil
}
