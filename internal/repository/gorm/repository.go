package gormrepository

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"pokerlog/internal/models"
	"pokerlog/internal/repository"
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) InTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(fn)
}

// --- session records --------------------------------------------------------

func (s *Store) InsertSessionRecord(ctx context.Context, item *models.SessionRecord) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) InsertSessionRecords(ctx context.Context, items []models.SessionRecord) error {
	if s == nil || s.db == nil || len(items) == 0 {
		return nil
	}
	return createInBatches(s.db.WithContext(ctx), items, 200)
}

func (s *Store) GetSessionRecordByID(ctx context.Context, id uint64) (*models.SessionRecord, error) {
	if s == nil || s.db == nil || id == 0 {
		return nil, nil
	}
	var item models.SessionRecord
	err := s.db.WithContext(ctx).First(&item, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

func (s *Store) applyRecordFilters(ctx context.Context, params repository.ListSessionRecordsParams) *gorm.DB {
	query := s.db.WithContext(ctx).Model(&models.SessionRecord{})
	if strings.TrimSpace(params.UserID) != "" {
		query = query.Where("user_id = ?", strings.TrimSpace(params.UserID))
	}
	if params.Category != nil && strings.TrimSpace(*params.Category) != "" {
		query = query.Where("game_category = ?", strings.TrimSpace(*params.Category))
	}
	if params.Location != nil && strings.TrimSpace(*params.Location) != "" {
		query = query.Where("location_label ILIKE ?", "%"+strings.TrimSpace(*params.Location)+"%")
	}
	if params.Since != nil && !params.Since.IsZero() {
		query = query.Where("start_at >= ?", *params.Since)
	}
	if params.Until != nil && !params.Until.IsZero() {
		query = query.Where("start_at < ?", *params.Until)
	}
	return query
}

func (s *Store) ListSessionRecords(ctx context.Context, params repository.ListSessionRecordsParams) ([]models.SessionRecord, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := s.applyRecordFilters(ctx, params)
	query = applyOrder(query, params.OrderBy, params.Asc, "start_at")
	limit := normalizeLimit(params.Limit, 200)
	offset := normalizeOffset(params.Offset)
	var items []models.SessionRecord
	if err := query.Limit(limit).Offset(offset).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) CountSessionRecords(ctx context.Context, params repository.ListSessionRecordsParams) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var total int64
	if err := s.applyRecordFilters(ctx, params).Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

// ListAllSessionRecordsByUser returns every record for one user, oldest
// creation first. Used by the duplicate sweep, which needs the full set.
func (s *Store) ListAllSessionRecordsByUser(ctx context.Context, userID string) ([]models.SessionRecord, error) {
	if s == nil || s.db == nil || strings.TrimSpace(userID) == "" {
		return nil, nil
	}
	var items []models.SessionRecord
	err := s.db.WithContext(ctx).
		Where("user_id = ?", strings.TrimSpace(userID)).
		Order("created_at asc, id asc").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) UpdateAdjustedProfit(ctx context.Context, id uint64, adjusted decimal.Decimal) error {
	if s == nil || s.db == nil || id == 0 {
		return nil
	}
	res := s.db.WithContext(ctx).
		Model(&models.SessionRecord{}).
		Where("id = ?", id).
		Update("adjusted_profit", adjusted)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteSessionRecord(ctx context.Context, id uint64) error {
	if s == nil || s.db == nil || id == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Delete(&models.SessionRecord{}, "id = ?", id).Error
}

func (s *Store) SumSessionStats(ctx context.Context, userID string) (repository.SessionStats, error) {
	var stats repository.SessionStats
	if s == nil || s.db == nil || strings.TrimSpace(userID) == "" {
		return stats, nil
	}
	row := struct {
		Sessions     int64
		HoursPlayed  float64
		BuyInTotal   decimal.Decimal
		CashOutTotal decimal.Decimal
		ProfitTotal  decimal.Decimal
		WinningCount int64
	}{}
	err := s.db.WithContext(ctx).
		Model(&models.SessionRecord{}).
		Select(`
			COUNT(*) AS sessions,
			COALESCE(SUM(hours_played),0) AS hours_played,
			COALESCE(SUM(buy_in),0) AS buy_in_total,
			COALESCE(SUM(cash_out),0) AS cash_out_total,
			COALESCE(SUM(COALESCE(adjusted_profit, profit)),0) AS profit_total,
			COUNT(*) FILTER (WHERE COALESCE(adjusted_profit, profit) > 0) AS winning_count
		`).
		Where("user_id = ?", strings.TrimSpace(userID)).
		Scan(&row).Error
	if err != nil {
		return stats, err
	}
	stats.Sessions = row.Sessions
	stats.HoursPlayed = row.HoursPlayed
	stats.BuyInTotal = row.BuyInTotal
	stats.CashOutTotal = row.CashOutTotal
	stats.ProfitTotal = row.ProfitTotal
	stats.WinningCount = row.WinningCount
	return stats, nil
}

func (s *Store) ListSessionUserIDs(ctx context.Context) ([]string, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var ids []string
	err := s.db.WithContext(ctx).
		Model(&models.SessionRecord{}).
		Distinct("user_id").
		Order("user_id asc").
		Pluck("user_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// --- live-session current slot ----------------------------------------------

func (s *Store) GetLiveSessionState(ctx context.Context, userID string) (*models.LiveSessionState, error) {
	if s == nil || s.db == nil || strings.TrimSpace(userID) == "" {
		return nil, nil
	}
	var item models.LiveSessionState
	err := s.db.WithContext(ctx).First(&item, "user_id = ?", strings.TrimSpace(userID)).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

func (s *Store) SaveLiveSessionState(ctx context.Context, item *models.LiveSessionState) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	if strings.TrimSpace(item.UserID) == "" {
		return nil
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		UpdateAll: true,
	}).Create(item).Error
}

// ClearLiveSessionState is idempotent: clearing an already-empty slot is not
// an error.
func (s *Store) ClearLiveSessionState(ctx context.Context, userID string) error {
	if s == nil || s.db == nil || strings.TrimSpace(userID) == "" {
		return nil
	}
	return s.db.WithContext(ctx).
		Delete(&models.LiveSessionState{}, "user_id = ?", strings.TrimSpace(userID)).Error
}

// --- parked sessions ----------------------------------------------------------

func (s *Store) UpsertParkedSession(ctx context.Context, item *models.ParkedSession) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	if strings.TrimSpace(item.SessionID) == "" || item.DayIndex < 1 {
		return nil
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "session_id"}, {Name: "day_index"}},
		UpdateAll: true,
	}).Create(item).Error
}

func (s *Store) GetParkedSession(ctx context.Context, sessionID string, dayIndex int) (*models.ParkedSession, error) {
	if s == nil || s.db == nil || strings.TrimSpace(sessionID) == "" {
		return nil, nil
	}
	var item models.ParkedSession
	err := s.db.WithContext(ctx).
		First(&item, "session_id = ? AND day_index = ?", strings.TrimSpace(sessionID), dayIndex).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

func (s *Store) ListParkedSessionsByUser(ctx context.Context, userID string) ([]models.ParkedSession, error) {
	if s == nil || s.db == nil || strings.TrimSpace(userID) == "" {
		return nil, nil
	}
	var items []models.ParkedSession
	err := s.db.WithContext(ctx).
		Where("user_id = ?", strings.TrimSpace(userID)).
		Order("parked_at desc").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) DeleteParkedSession(ctx context.Context, sessionID string, dayIndex int) error {
	if s == nil || s.db == nil || strings.TrimSpace(sessionID) == "" {
		return nil
	}
	return s.db.WithContext(ctx).
		Delete(&models.ParkedSession{}, "session_id = ? AND day_index = ?", strings.TrimSpace(sessionID), dayIndex).Error
}

// --- import batches -----------------------------------------------------------

func (s *Store) InsertImportBatch(ctx context.Context, item *models.ImportBatch) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) ListImportBatchesByUser(ctx context.Context, userID string, limit int) ([]models.ImportBatch, error) {
	if s == nil || s.db == nil || strings.TrimSpace(userID) == "" {
		return nil, nil
	}
	limit = normalizeLimit(limit, 50)
	var items []models.ImportBatch
	err := s.db.WithContext(ctx).
		Where("user_id = ?", strings.TrimSpace(userID)).
		Order("created_at desc").
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// --- helpers ------------------------------------------------------------------

func applyOrder(query *gorm.DB, orderBy string, asc *bool, fallback string) *gorm.DB {
	column := strings.TrimSpace(orderBy)
	if column == "" {
		column = fallback
	}
	direction := "desc"
	if asc != nil && *asc {
		direction = "asc"
	}
	return query.Order(column + " " + direction)
}

func createInBatches[T any](db *gorm.DB, items []T, batchSize int) error {
	if len(items) == 0 {
		return nil
	}
	if batchSize <= 0 {
		batchSize = 200
	}
	for i := 0; i < len(items); i += batchSize {
		end := i + batchSize
		if end > len(items) {
			end = len(items)
		}
		if err := db.CreateInBatches(items[i:end], batchSize).Error; err != nil {
			return err
		}
	}
	return nil
}

func normalizeLimit(limit, fallback int) int {
	if limit <= 0 {
		return fallback
	}
	if limit > 500 {
		return 500
	}
	return limit
}

func normalizeOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}
