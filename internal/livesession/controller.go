package livesession

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"pokerlog/internal/models"
	"pokerlog/internal/repository"
)

var (
	// ErrInvalidArgument rejects bad inputs (negative rebuy, blank user)
	// before any state change.
	ErrInvalidArgument = errors.New("livesession: invalid argument")
	// ErrInvalidTransition rejects an event the current status does not
	// accept; state is left untouched.
	ErrInvalidTransition = errors.New("livesession: invalid transition")
	// ErrConflict rejects restoring a parked session while the current
	// slot holds another non-terminal session.
	ErrConflict = errors.New("livesession: current slot occupied")
	// ErrNotFound means the addressed parked session does not exist.
	ErrNotFound = errors.New("livesession: parked session not found")
)

// Controller owns the per-user live-session lifecycle: the single current
// slot plus the parked multi-day set. Transitions are validated against the
// loaded snapshot and persisted before returning, so a rejected event never
// leaves partial state behind. Callers are expected to serialize invocations
// per user.
type Controller struct {
	Repo   repository.Repository
	Clock  Clock
	Logger *zap.Logger
}

// StartParams describes a new live session. BuyIn is the initial buy-in;
// rebuys accumulate on top of it.
type StartParams struct {
	GameCategory   string
	GameName       string
	StakesLabel    string
	LocationLabel  string
	TournamentType *string
	Series         *string
	BuyIn          decimal.Decimal
}

func (c *Controller) now() time.Time {
	if c.Clock != nil {
		return c.Clock.Now().UTC()
	}
	return time.Now().UTC()
}

func (c *Controller) current(ctx context.Context, userID string) (*models.LiveSessionState, error) {
	state, err := c.Repo.GetLiveSessionState(ctx, userID)
	if err != nil {
		return nil, err
	}
	return state, nil
}

// Start opens a new session in the current slot. Rejected while another
// session is active or paused.
func (c *Controller) Start(ctx context.Context, userID string, params StartParams) (*models.LiveSessionState, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidArgument)
	}
	if params.BuyIn.IsNegative() {
		return nil, fmt.Errorf("%w: buy-in must not be negative", ErrInvalidArgument)
	}
	state, err := c.current(ctx, userID)
	if err != nil {
		return nil, err
	}
	if state != nil && (state.Status == models.StatusActive || state.Status == models.StatusPaused) {
		return nil, fmt.Errorf("%w: a session is already running", ErrInvalidTransition)
	}

	category := params.GameCategory
	if category != models.CategoryTournament {
		category = models.CategoryCashGame
	}
	now := c.now()
	next := &models.LiveSessionState{
		UserID:         userID,
		SessionID:      uuid.NewString(),
		Status:         models.StatusActive,
		GameCategory:   category,
		GameName:       params.GameName,
		StakesLabel:    params.StakesLabel,
		LocationLabel:  params.LocationLabel,
		TournamentType: params.TournamentType,
		Series:         params.Series,
		StartAt:        now,
		ElapsedSeconds: 0,
		LastActiveAt:   &now,
		BuyInTotal:     params.BuyIn,
		CurrentDay:     1,
	}
	if err := c.Repo.SaveLiveSessionState(ctx, next); err != nil {
		return nil, err
	}
	if c.Logger != nil {
		c.Logger.Info("live session started",
			zap.String("user_id", userID),
			zap.String("session_id", next.SessionID),
			zap.String("buy_in", next.BuyInTotal.String()),
		)
	}
	return next, nil
}

// Pause folds accrued time into the elapsed accumulator and stops accrual.
func (c *Controller) Pause(ctx context.Context, userID string) (*models.LiveSessionState, error) {
	state, err := c.requireStatus(ctx, userID, models.StatusActive)
	if err != nil {
		return nil, err
	}
	c.foldElapsed(state)
	state.Status = models.StatusPaused
	state.LastActiveAt = nil
	if err := c.Repo.SaveLiveSessionState(ctx, state); err != nil {
		return nil, err
	}
	return state, nil
}

// Resume restarts accrual on a paused session.
func (c *Controller) Resume(ctx context.Context, userID string) (*models.LiveSessionState, error) {
	state, err := c.requireStatus(ctx, userID, models.StatusPaused)
	if err != nil {
		return nil, err
	}
	now := c.now()
	state.Status = models.StatusActive
	state.LastActiveAt = &now
	if err := c.Repo.SaveLiveSessionState(ctx, state); err != nil {
		return nil, err
	}
	return state, nil
}

// AddRebuy increases the running buy-in total. Only valid while active.
func (c *Controller) AddRebuy(ctx context.Context, userID string, amount decimal.Decimal) (*models.LiveSessionState, error) {
	if amount.IsNegative() {
		return nil, fmt.Errorf("%w: rebuy must not be negative", ErrInvalidArgument)
	}
	state, err := c.requireStatus(ctx, userID, models.StatusActive)
	if err != nil {
		return nil, err
	}
	state.BuyInTotal = state.BuyInTotal.Add(amount)
	if err := c.Repo.SaveLiveSessionState(ctx, state); err != nil {
		return nil, err
	}
	return state, nil
}

// ParkForNextDay finalizes elapsed time, moves the session into the parked
// set keyed (session id, current day + 1) and frees the current slot.
func (c *Controller) ParkForNextDay(ctx context.Context, userID string) (*models.ParkedSession, error) {
	state, err := c.requireStatus(ctx, userID, models.StatusActive, models.StatusPaused)
	if err != nil {
		return nil, err
	}
	c.foldElapsed(state)
	parked := &models.ParkedSession{
		SessionID:      state.SessionID,
		DayIndex:       state.CurrentDay + 1,
		UserID:         state.UserID,
		GameCategory:   state.GameCategory,
		GameName:       state.GameName,
		StakesLabel:    state.StakesLabel,
		LocationLabel:  state.LocationLabel,
		TournamentType: state.TournamentType,
		Series:         state.Series,
		StartAt:        state.StartAt,
		ElapsedSeconds: state.ElapsedSeconds,
		BuyInTotal:     state.BuyInTotal,
		ParkedAt:       c.now(),
	}
	if err := c.Repo.UpsertParkedSession(ctx, parked); err != nil {
		return nil, err
	}
	if err := c.Repo.ClearLiveSessionState(ctx, userID); err != nil {
		return nil, err
	}
	if c.Logger != nil {
		c.Logger.Info("live session parked for next day",
			zap.String("user_id", userID),
			zap.String("session_id", parked.SessionID),
			zap.Int("day_index", parked.DayIndex),
		)
	}
	return parked, nil
}

// Restore moves a parked session back into the current slot and advances its
// day counter. Rejected with ErrConflict when the slot already holds an
// active or paused session; neither the slot nor the parked set is touched
// in that case.
func (c *Controller) Restore(ctx context.Context, userID, sessionID string, dayIndex int) (*models.LiveSessionState, error) {
	parked, err := c.Repo.GetParkedSession(ctx, sessionID, dayIndex)
	if err != nil {
		return nil, err
	}
	if parked == nil || parked.UserID != userID {
		return nil, ErrNotFound
	}
	state, err := c.current(ctx, userID)
	if err != nil {
		return nil, err
	}
	if state != nil && state.Status != models.StatusInactive && state.Status != models.StatusEnded {
		return nil, fmt.Errorf("%w: end or park the running session first", ErrConflict)
	}

	now := c.now()
	next := &models.LiveSessionState{
		UserID:         parked.UserID,
		SessionID:      parked.SessionID,
		Status:         models.StatusActive,
		GameCategory:   parked.GameCategory,
		GameName:       parked.GameName,
		StakesLabel:    parked.StakesLabel,
		LocationLabel:  parked.LocationLabel,
		TournamentType: parked.TournamentType,
		Series:         parked.Series,
		StartAt:        parked.StartAt,
		ElapsedSeconds: parked.ElapsedSeconds,
		LastActiveAt:   &now,
		BuyInTotal:     parked.BuyInTotal,
		CurrentDay:     parked.DayIndex,
	}
	// The parked row is consumed before the slot is written so a restored
	// session can never exist in both places. If the slot write fails the
	// row is put back, leaving the parked set as it was.
	if err := c.Repo.DeleteParkedSession(ctx, sessionID, dayIndex); err != nil {
		return nil, err
	}
	if err := c.Repo.SaveLiveSessionState(ctx, next); err != nil {
		if reparkErr := c.Repo.UpsertParkedSession(ctx, parked); reparkErr != nil && c.Logger != nil {
			c.Logger.Error("failed to re-park session after restore failure",
				zap.String("user_id", userID),
				zap.String("session_id", sessionID),
				zap.Int("day_index", dayIndex),
				zap.Error(reparkErr),
			)
		}
		return nil, err
	}
	return next, nil
}

// Discard permanently removes a parked session.
func (c *Controller) Discard(ctx context.Context, userID, sessionID string, dayIndex int) error {
	parked, err := c.Repo.GetParkedSession(ctx, sessionID, dayIndex)
	if err != nil {
		return err
	}
	if parked == nil || parked.UserID != userID {
		return ErrNotFound
	}
	return c.Repo.DeleteParkedSession(ctx, sessionID, dayIndex)
}

// End closes the running session, persists the finished SessionRecord and
// clears the slot. The record keeps profit = cashOut - buyInTotal. If the
// record insert fails the slot is left intact so no session data is lost.
func (c *Controller) End(ctx context.Context, userID string, cashOut decimal.Decimal) (*models.SessionRecord, error) {
	if cashOut.IsNegative() {
		return nil, fmt.Errorf("%w: cash-out must not be negative", ErrInvalidArgument)
	}
	state, err := c.requireStatus(ctx, userID, models.StatusActive, models.StatusPaused)
	if err != nil {
		return nil, err
	}
	c.foldElapsed(state)
	now := c.now()

	record := &models.SessionRecord{
		UserID:         state.UserID,
		GameCategory:   state.GameCategory,
		GameName:       state.GameName,
		StakesLabel:    state.StakesLabel,
		LocationLabel:  state.LocationLabel,
		TournamentType: state.TournamentType,
		Series:         state.Series,
		StartAt:        state.StartAt,
		EndAt:          now,
		HoursPlayed:    float64(state.ElapsedSeconds) / 3600,
		BuyIn:          state.BuyInTotal,
		CashOut:        cashOut,
		Profit:         cashOut.Sub(state.BuyInTotal),
	}
	if err := c.Repo.InsertSessionRecord(ctx, record); err != nil {
		return nil, err
	}
	if err := c.Repo.ClearLiveSessionState(ctx, userID); err != nil {
		return nil, err
	}
	if c.Logger != nil {
		c.Logger.Info("live session ended",
			zap.String("user_id", userID),
			zap.String("session_id", state.SessionID),
			zap.String("profit", record.Profit.String()),
		)
	}
	return record, nil
}

// Tick folds accrued time into the elapsed accumulator and returns the
// refreshed snapshot. A no-op unless the session is active. Callers drive
// ticks; the controller has no scheduler of its own.
func (c *Controller) Tick(ctx context.Context, userID string) (*models.LiveSessionState, error) {
	state, err := c.current(ctx, userID)
	if err != nil {
		return nil, err
	}
	if state == nil || state.Status != models.StatusActive {
		return state, nil
	}
	c.foldElapsed(state)
	if err := c.Repo.SaveLiveSessionState(ctx, state); err != nil {
		return nil, err
	}
	return state, nil
}

// ListParked returns the user's parked multi-day sessions.
func (c *Controller) ListParked(ctx context.Context, userID string) ([]models.ParkedSession, error) {
	return c.Repo.ListParkedSessionsByUser(ctx, userID)
}

// LoadOnLaunch validates the persisted current-slot snapshot and repairs or
// discards inconsistent state. The policy is deliberately conservative:
// losing an ambiguous session beats resurrecting a corrupted one.
func (c *Controller) LoadOnLaunch(ctx context.Context, userID string) (*models.LiveSessionState, error) {
	state, err := c.current(ctx, userID)
	if err != nil {
		return nil, err
	}
	if state == nil {
		return nil, nil
	}

	switch state.Status {
	case models.StatusEnded, models.StatusInactive:
		if err := c.Repo.ClearLiveSessionState(ctx, userID); err != nil {
			return nil, err
		}
		return nil, nil

	case models.StatusPausedNextDay:
		// Legacy snapshots could leave a parked-for-next-day session in
		// the slot; move it where it belongs and free the slot.
		parked := &models.ParkedSession{
			SessionID:      state.SessionID,
			DayIndex:       state.CurrentDay + 1,
			UserID:         state.UserID,
			GameCategory:   state.GameCategory,
			GameName:       state.GameName,
			StakesLabel:    state.StakesLabel,
			LocationLabel:  state.LocationLabel,
			TournamentType: state.TournamentType,
			Series:         state.Series,
			StartAt:        state.StartAt,
			ElapsedSeconds: state.ElapsedSeconds,
			BuyInTotal:     state.BuyInTotal,
			ParkedAt:       c.now(),
		}
		if err := c.Repo.UpsertParkedSession(ctx, parked); err != nil {
			return nil, err
		}
		if err := c.Repo.ClearLiveSessionState(ctx, userID); err != nil {
			return nil, err
		}
		if c.Logger != nil {
			c.Logger.Warn("moved stale next-day session out of current slot",
				zap.String("user_id", userID),
				zap.String("session_id", state.SessionID),
			)
		}
		return nil, nil

	case models.StatusActive, models.StatusPaused:
		if !state.BuyInTotal.IsPositive() {
			if err := c.Repo.ClearLiveSessionState(ctx, userID); err != nil {
				return nil, err
			}
			if c.Logger != nil {
				c.Logger.Warn("discarded live session with no buy-in on launch",
					zap.String("user_id", userID),
					zap.String("session_id", state.SessionID),
				)
			}
			return nil, nil
		}
		if state.Status == models.StatusActive {
			// Count the downtime since the last tick as played time,
			// then resume accrual from now.
			c.foldElapsed(state)
		}
		if err := c.Repo.SaveLiveSessionState(ctx, state); err != nil {
			return nil, err
		}
		return state, nil
	}

	if err := c.Repo.ClearLiveSessionState(ctx, userID); err != nil {
		return nil, err
	}
	if c.Logger != nil {
		c.Logger.Warn("discarded unrecognized live session snapshot",
			zap.String("user_id", userID),
			zap.String("status", state.Status),
		)
	}
	return nil, nil
}

func (c *Controller) requireStatus(ctx context.Context, userID string, allowed ...string) (*models.LiveSessionState, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidArgument)
	}
	state, err := c.current(ctx, userID)
	if err != nil {
		return nil, err
	}
	status := models.StatusInactive
	if state != nil {
		status = state.Status
	}
	for _, s := range allowed {
		if status == s {
			return state, nil
		}
	}
	return nil, fmt.Errorf("%w: status is %s", ErrInvalidTransition, status)
}

// foldElapsed advances the accumulator by the time since the last tick.
// Only whole seconds are consumed; the tick mark moves forward by exactly
// the seconds added, so a sub-second remainder stays pending for the next
// fold instead of being dropped. Frequent ticks therefore never lose time.
func (c *Controller) foldElapsed(state *models.LiveSessionState) {
	if state == nil || state.LastActiveAt == nil {
		return
	}
	now := c.now()
	delta := now.Sub(*state.LastActiveAt)
	if delta <= 0 {
		return
	}
	secs := int64(delta / time.Second)
	if secs == 0 {
		return
	}
	state.ElapsedSeconds += secs
	mark := state.LastActiveAt.Add(time.Duration(secs) * time.Second)
	state.LastActiveAt = &mark
}
