package repository

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"pokerlog/internal/models"
)

// ErrNotFound is returned by Get* methods when no row matches.
var ErrNotFound = errors.New("repository: not found")

type ListSessionRecordsParams struct {
	UserID   string
	Category *string
	Location *string
	Since    *time.Time
	Until    *time.Time
	OrderBy  string
	Asc      *bool
	Limit    int
	Offset   int
}

// SessionStats is the per-user bankroll aggregate.
type SessionStats struct {
	Sessions     int64           `json:"sessions"`
	HoursPlayed  float64         `json:"hours_played"`
	BuyInTotal   decimal.Decimal `json:"buy_in_total"`
	CashOutTotal decimal.Decimal `json:"cash_out_total"`
	ProfitTotal  decimal.Decimal `json:"profit_total"`
	WinningCount int64           `json:"winning_count"`
}

// Repository is the persistence gateway for session records, the live-session
// current slot, the parked-session set and import batch archival.
type Repository interface {
	InTx(ctx context.Context, fn func(tx *gorm.DB) error) error

	// Session records.
	InsertSessionRecord(ctx context.Context, item *models.SessionRecord) error
	InsertSessionRecords(ctx context.Context, items []models.SessionRecord) error
	GetSessionRecordByID(ctx context.Context, id uint64) (*models.SessionRecord, error)
	ListSessionRecords(ctx context.Context, params ListSessionRecordsParams) ([]models.SessionRecord, error)
	CountSessionRecords(ctx context.Context, params ListSessionRecordsParams) (int64, error)
	ListAllSessionRecordsByUser(ctx context.Context, userID string) ([]models.SessionRecord, error)
	UpdateAdjustedProfit(ctx context.Context, id uint64, adjusted decimal.Decimal) error
	DeleteSessionRecord(ctx context.Context, id uint64) error
	SumSessionStats(ctx context.Context, userID string) (SessionStats, error)
	ListSessionUserIDs(ctx context.Context) ([]string, error)

	// Live-session current slot (one row per user).
	GetLiveSessionState(ctx context.Context, userID string) (*models.LiveSessionState, error)
	SaveLiveSessionState(ctx context.Context, item *models.LiveSessionState) error
	ClearLiveSessionState(ctx context.Context, userID string) error

	// Parked multi-day sessions, keyed (session id, day index).
	UpsertParkedSession(ctx context.Context, item *models.ParkedSession) error
	GetParkedSession(ctx context.Context, sessionID string, dayIndex int) (*models.ParkedSession, error)
	ListParkedSessionsByUser(ctx context.Context, userID string) ([]models.ParkedSession, error)
	DeleteParkedSession(ctx context.Context, sessionID string, dayIndex int) error

	// Import batch archival.
	InsertImportBatch(ctx context.Context, item *models.ImportBatch) error
	ListImportBatchesByUser(ctx context.Context, userID string, limit int) ([]models.ImportBatch, error)
}
