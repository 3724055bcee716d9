package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MatchStatus string

const (
	MatchPending  MatchStatus = "pending"
	MatchAccepted MatchStatus = "accepted"
	MatchRejected MatchStatus = "rejected"
)

// IsValidMatchStatus reports whether s is a status a party can record.
// Pending is the default for the non-acting side, never an action itself.
func IsValidMatchStatus(s MatchStatus) bool {
	return s == MatchAccepted || s == MatchRejected
}

// Match is the single record for an unordered user pair. The pair is stored
// canonically (smaller uuid string in slot A) so {X,Y} and {Y,X} always hit
// the same row and the same unique index entry. Each slot carries that
// user's own decision toward the other.
type Match struct {
	ID        uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	UserAID   uuid.UUID   `gorm:"type:uuid;not null;uniqueIndex:idx_match_pair,priority:1" json:"user_a_id"`
	UserBID   uuid.UUID   `gorm:"type:uuid;not null;uniqueIndex:idx_match_pair,priority:2" json:"user_b_id"`
	StatusA   MatchStatus `gorm:"size:10;not null;default:pending" json:"status_a"`
	StatusB   MatchStatus `gorm:"size:10;not null;default:pending" json:"status_b"`
	CreatedAt time.Time   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time   `gorm:"autoUpdateTime" json:"updated_at"`
}

func (m *Match) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// CanonicalPair orders two user ids into the stored slot order.
func CanonicalPair(x, y uuid.UUID) (uuid.UUID, uuid.UUID) {
	if x.String() > y.String() {
		return y, x
	}
	return x, y
}

// IsMutual reports whether both parties accepted.
func (m *Match) IsMutual() bool {
	return m.StatusA == MatchAccepted && m.StatusB == MatchAccepted
}

// Involves reports whether id occupies either slot.
func (m *Match) Involves(id uuid.UUID) bool {
	return m.UserAID == id || m.UserBID == id
}

// StatusOf returns the decision recorded by the given participant.
func (m *Match) StatusOf(id uuid.UUID) MatchStatus {
	if m.UserAID == id {
		return m.StatusA
	}
	return m.StatusB
}

// SetStatusOf records the given participant's decision.
func (m *Match) SetStatusOf(id uuid.UUID, status MatchStatus) {
	if m.UserAID == id {
		m.StatusA = status
		return
	}
	m.StatusB = status
}

// OtherUser resolves the participant that is not id.
func (m *Match) OtherUser(id uuid.UUID) uuid.UUID {
	if m.UserAID == id {
		return m.UserBID
	}
	return m.UserAID
}
