package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleStudent = "student"
	RoleTutor   = "tutor"
	RoleBoth    = "both"
)

// IsValidRole reports whether s is one of the profile roles.
func IsValidRole(s string) bool {
	return s == RoleStudent || s == RoleTutor || s == RoleBoth
}

type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Username     string    `gorm:"size:50;uniqueIndex;not null" json:"username"`
	Email        string    `gorm:"size:100;uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	Profile      *Profile  `gorm:"constraint:OnDelete:CASCADE" json:"profile,omitempty"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// BeforeSave keeps emails lowercase so the unique index catches
// case-variant duplicates.
func (u *User) BeforeSave(tx *gorm.DB) error {
	u.Email = strings.ToLower(u.Email)
	return nil
}

// SubjectList is stored as a JSON array column.
type SubjectList []string

// Contains does a linear scan; subject lists are small.
func (l SubjectList) Contains(subject string) bool {
	for _, s := range l {
		if s == subject {
			return true
		}
	}
	return false
}

type Profile struct {
	UserID           uuid.UUID   `gorm:"type:uuid;primaryKey" json:"user_id"`
	Role             string      `gorm:"size:10;not null;default:student" json:"role"`
	School           string      `gorm:"size:200" json:"school"`
	SubjectsNeedHelp SubjectList `gorm:"serializer:json" json:"subjects_need_help"`
	SubjectsCanTeach SubjectList `gorm:"serializer:json" json:"subjects_can_teach"`
	Bio              string      `gorm:"size:500" json:"bio"`
	IsOnboarded      bool        `gorm:"not null;default:false" json:"is_onboarded"`
	CreatedAt        time.Time   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time   `gorm:"autoUpdateTime" json:"updated_at"`
}
