package repository

import (
	"context"

	"edumatch.id/studybuddy/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User, profile *model.Profile) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	FindOnboarded(ctx context.Context, exclude uuid.UUID) ([]*model.User, error)
	UpdateProfile(ctx context.Context, profile *model.Profile) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// Create inserts the user and its profile in one transaction. A profile
// always exists for every user, so callers must pass one (an empty profile
// for fresh registrations).
func (r *userRepository) Create(ctx context.Context, user *model.User, profile *model.Profile) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return err
		}

		profile.UserID = user.ID
		if profile.Role == "" {
			profile.Role = model.RoleStudent
		}
		return tx.Create(profile).Error
	})
}

func (r *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).
		Preload("Profile").
		Where("id = ?", id).
		First(&user).Error; err != nil {
		return nil, err
	}

	return &user, nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).
		Preload("Profile").
		Where("email = ?", email).
		First(&user).Error; err != nil {
		return nil, err
	}

	return &user, nil
}

func (r *userRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).
		Preload("Profile").
		Where("username = ?", username).
		First(&user).Error; err != nil {
		return nil, err
	}

	return &user, nil
}

// FindOnboarded returns every user with a completed onboarding, excluding
// the given user. This is the candidate pool for the compatibility scorer.
func (r *userRepository) FindOnboarded(ctx context.Context, exclude uuid.UUID) ([]*model.User, error) {
	var users []*model.User
	err := r.db.WithContext(ctx).
		Preload("Profile").
		Joins("JOIN profiles ON profiles.user_id = users.id").
		Where("profiles.is_onboarded = ?", true).
		Where("users.id <> ?", exclude).
		Find(&users).Error
	if err != nil {
		return nil, err
	}

	return users, nil
}

func (r *userRepository) UpdateProfile(ctx context.Context, profile *model.Profile) error {
	return r.db.WithContext(ctx).Save(profile).Error
}

func (r *userRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", id).Delete(&model.Profile{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&model.User{}).Error
	})
}
