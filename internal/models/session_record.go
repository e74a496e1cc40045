package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Game categories for SessionRecord and live sessions.
const (
	CategoryCashGame   = "cash"
	CategoryTournament = "tournament"
)

// SessionRecord is one finished poker session. Records are immutable after
// creation except for AdjustedProfit, which a staking-adjustment process may
// replace with a new value.
type SessionRecord struct {
	ID     uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID string `gorm:"type:varchar(64);not null;index" json:"user_id"`

	GameCategory  string `gorm:"type:varchar(20);not null;index" json:"game_category"`
	GameName      string `gorm:"type:varchar(120);not null;default:''" json:"game_name"`
	StakesLabel   string `gorm:"type:varchar(120);not null;default:''" json:"stakes_label"`
	LocationLabel string `gorm:"type:varchar(200);not null;default:'';index" json:"location_label"`

	StartAt time.Time `gorm:"type:timestamptz;not null;index" json:"start_at"`
	EndAt   time.Time `gorm:"type:timestamptz;not null" json:"end_at"`
	// HoursPlayed is (EndAt - StartAt) in hours, preserved exactly as
	// computed; malformed vendor data can make it negative.
	HoursPlayed float64 `gorm:"type:numeric(12,4);not null" json:"hours_played"`

	BuyIn          decimal.Decimal  `gorm:"type:numeric(20,2);not null" json:"buy_in"`
	CashOut        decimal.Decimal  `gorm:"type:numeric(20,2);not null" json:"cash_out"`
	Profit         decimal.Decimal  `gorm:"type:numeric(20,2);not null" json:"profit"`
	AdjustedProfit *decimal.Decimal `gorm:"type:numeric(20,2)" json:"adjusted_profit,omitempty"`

	// Notes is a JSON array of strings; insertion order is significant.
	Notes datatypes.JSON `gorm:"type:jsonb" json:"notes,omitempty"`

	TournamentType *string `gorm:"type:varchar(60)" json:"tournament_type,omitempty"`
	Series         *string `gorm:"type:varchar(120)" json:"series,omitempty"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime" json:"updated_at"`
}

func (SessionRecord) TableName() string {
	return "session_records"
}
