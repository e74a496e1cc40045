package livesession

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"pokerlog/internal/models"
	"pokerlog/internal/repository"
)

// stubRepo is a test-only in-memory implementation of repository.Repository.
// It implements the full interface but controller tests only exercise the
// live-session and record-insert methods.
type stubRepo struct {
	state   map[string]*models.LiveSessionState
	parked  map[[2]any]*models.ParkedSession
	records []models.SessionRecord

	failInsertRecord bool
	failSaveState    bool
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		state:  map[string]*models.LiveSessionState{},
		parked: map[[2]any]*models.ParkedSession{},
	}
}

var errStub = errors.New("stub failure")

func parkedKey(sessionID string, dayIndex int) [2]any {
	return [2]any{sessionID, dayIndex}
}

func (s *stubRepo) InTx(ctx context.Context, fn func(tx *gorm.DB) error) error { return fn(nil) }

func (s *stubRepo) InsertSessionRecord(ctx context.Context, item *models.SessionRecord) error {
	if s.failInsertRecord {
		return errStub
	}
	item.ID = uint64(len(s.records) + 1)
	s.records = append(s.records, *item)
	return nil
}

func (s *stubRepo) InsertSessionRecords(ctx context.Context, items []models.SessionRecord) error {
	s.records = append(s.records, items...)
	return nil
}

func (s *stubRepo) GetSessionRecordByID(ctx context.Context, id uint64) (*models.SessionRecord, error) {
	for i := range s.records {
		if s.records[i].ID == id {
			rec := s.records[i]
			return &rec, nil
		}
	}
	return nil, nil
}

func (s *stubRepo) ListSessionRecords(ctx context.Context, params repository.ListSessionRecordsParams) ([]models.SessionRecord, error) {
	return s.records, nil
}

func (s *stubRepo) CountSessionRecords(ctx context.Context, params repository.ListSessionRecordsParams) (int64, error) {
	return int64(len(s.records)), nil
}

func (s *stubRepo) ListAllSessionRecordsByUser(ctx context.Context, userID string) ([]models.SessionRecord, error) {
	return s.records, nil
}

func (s *stubRepo) UpdateAdjustedProfit(ctx context.Context, id uint64, adjusted decimal.Decimal) error {
	return nil
}

func (s *stubRepo) DeleteSessionRecord(ctx context.Context, id uint64) error { return nil }

func (s *stubRepo) SumSessionStats(ctx context.Context, userID string) (repository.SessionStats, error) {
	return repository.SessionStats{}, nil
}

func (s *stubRepo) ListSessionUserIDs(ctx context.Context) ([]string, error) { return nil, nil }

func (s *stubRepo) GetLiveSessionState(ctx context.Context, userID string) (*models.LiveSessionState, error) {
	if st, ok := s.state[userID]; ok {
		cp := *st
		return &cp, nil
	}
	return nil, nil
}

func (s *stubRepo) SaveLiveSessionState(ctx context.Context, item *models.LiveSessionState) error {
	if s.failSaveState {
		return errStub
	}
	cp := *item
	s.state[item.UserID] = &cp
	return nil
}

func (s *stubRepo) ClearLiveSessionState(ctx context.Context, userID string) error {
	delete(s.state, userID)
	return nil
}

func (s *stubRepo) UpsertParkedSession(ctx context.Context, item *models.ParkedSession) error {
	cp := *item
	s.parked[parkedKey(item.SessionID, item.DayIndex)] = &cp
	return nil
}

func (s *stubRepo) GetParkedSession(ctx context.Context, sessionID string, dayIndex int) (*models.ParkedSession, error) {
	if p, ok := s.parked[parkedKey(sessionID, dayIndex)]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, nil
}

func (s *stubRepo) ListParkedSessionsByUser(ctx context.Context, userID string) ([]models.ParkedSession, error) {
	var out []models.ParkedSession
	for _, p := range s.parked {
		if p.UserID == userID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (s *stubRepo) DeleteParkedSession(ctx context.Context, sessionID string, dayIndex int) error {
	delete(s.parked, parkedKey(sessionID, dayIndex))
	return nil
}

func (s *stubRepo) InsertImportBatch(ctx context.Context, item *models.ImportBatch) error {
	return nil
}

func (s *stubRepo) ListImportBatchesByUser(ctx context.Context, userID string, limit int) ([]models.ImportBatch, error) {
	return nil, nil
}
