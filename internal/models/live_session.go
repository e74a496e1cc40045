package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Live session statuses.
const (
	StatusInactive      = "inactive"
	StatusActive        = "active"
	StatusPaused        = "paused"
	StatusPausedNextDay = "paused_next_day"
	StatusEnded         = "ended"
)

// LiveSessionState is the persisted snapshot of a user's one current live
// session (the "current slot"). At most one row per user exists; clearing the
// slot deletes the row.
type LiveSessionState struct {
	UserID    string `gorm:"primaryKey;type:varchar(64)" json:"user_id"`
	SessionID string `gorm:"type:varchar(36);not null" json:"session_id"`
	Status    string `gorm:"type:varchar(20);not null" json:"status"`

	GameCategory   string  `gorm:"type:varchar(20);not null" json:"game_category"`
	GameName       string  `gorm:"type:varchar(120);not null;default:''" json:"game_name"`
	StakesLabel    string  `gorm:"type:varchar(120);not null;default:''" json:"stakes_label"`
	LocationLabel  string  `gorm:"type:varchar(200);not null;default:''" json:"location_label"`
	TournamentType *string `gorm:"type:varchar(60)" json:"tournament_type,omitempty"`
	Series         *string `gorm:"type:varchar(120)" json:"series,omitempty"`

	StartAt        time.Time  `gorm:"type:timestamptz;not null" json:"start_at"`
	ElapsedSeconds int64      `gorm:"not null;default:0" json:"elapsed_seconds"`
	LastActiveAt   *time.Time `gorm:"type:timestamptz" json:"last_active_at,omitempty"`

	BuyInTotal decimal.Decimal `gorm:"type:numeric(20,2);not null" json:"buy_in_total"`
	CurrentDay int             `gorm:"not null;default:1" json:"current_day"`

	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime" json:"updated_at"`
}

func (LiveSessionState) TableName() string {
	return "live_session_state"
}

// ParkedSession is a multi-day session paused between tournament days, moved
// out of the current slot. Keyed by (session id, day index) so the same
// session can be parked once per upcoming day.
type ParkedSession struct {
	SessionID string `gorm:"primaryKey;type:varchar(36)" json:"session_id"`
	DayIndex  int    `gorm:"primaryKey" json:"day_index"`
	UserID    string `gorm:"type:varchar(64);not null;index" json:"user_id"`

	GameCategory   string  `gorm:"type:varchar(20);not null" json:"game_category"`
	GameName       string  `gorm:"type:varchar(120);not null;default:''" json:"game_name"`
	StakesLabel    string  `gorm:"type:varchar(120);not null;default:''" json:"stakes_label"`
	LocationLabel  string  `gorm:"type:varchar(200);not null;default:''" json:"location_label"`
	TournamentType *string `gorm:"type:varchar(60)" json:"tournament_type,omitempty"`
	Series         *string `gorm:"type:varchar(120)" json:"series,omitempty"`

	StartAt        time.Time       `gorm:"type:timestamptz;not null" json:"start_at"`
	ElapsedSeconds int64           `gorm:"not null;default:0" json:"elapsed_seconds"`
	BuyInTotal     decimal.Decimal `gorm:"type:numeric(20,2);not null" json:"buy_in_total"`

	ParkedAt time.Time `gorm:"type:timestamptz;not null" json:"parked_at"`
}

func (ParkedSession) TableName() string {
	return "parked_sessions"
}
