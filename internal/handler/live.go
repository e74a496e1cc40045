package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"pokerlog/internal/livesession"
)

// LiveHandler exposes the live-session lifecycle. Transition rejections map
// to explicit statuses (409 for slot conflicts, 422 for invalid transitions)
// so the client can surface an actionable message instead of dropping data.
type LiveHandler struct {
	Controller *livesession.Controller
}

func (h *LiveHandler) Register(r *gin.Engine) {
	g := r.Group("/api/v1/live")
	g.GET("", h.snapshot)
	g.POST("/recover", h.recover)
	g.POST("/start", h.start)
	g.POST("/pause", h.pause)
	g.POST("/resume", h.resume)
	g.POST("/rebuy", h.rebuy)
	g.POST("/park", h.park)
	g.POST("/end", h.end)
	g.GET("/parked", h.listParked)
	g.POST("/parked/restore", h.restore)
	g.POST("/parked/discard", h.discard)
}

type startBody struct {
	UserID         string          `json:"user_id"`
	GameCategory   string          `json:"game_category"`
	GameName       string          `json:"game_name"`
	StakesLabel    string          `json:"stakes_label"`
	LocationLabel  string          `json:"location_label"`
	TournamentType *string         `json:"tournament_type"`
	Series         *string         `json:"series"`
	BuyIn          decimal.Decimal `json:"buy_in"`
}

type userBody struct {
	UserID string `json:"user_id"`
}

type amountBody struct {
	UserID string          `json:"user_id"`
	Amount decimal.Decimal `json:"amount"`
}

type parkedBody struct {
	UserID    string `json:"user_id"`
	SessionID string `json:"session_id"`
	DayIndex  int    `json:"day_index"`
}

func (h *LiveHandler) writeErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, livesession.ErrConflict):
		Error(c, http.StatusConflict, err.Error(), nil)
	case errors.Is(err, livesession.ErrInvalidArgument):
		Error(c, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, livesession.ErrInvalidTransition):
		Error(c, http.StatusUnprocessableEntity, err.Error(), nil)
	case errors.Is(err, livesession.ErrNotFound):
		Error(c, http.StatusNotFound, err.Error(), nil)
	default:
		Error(c, http.StatusBadGateway, err.Error(), nil)
	}
}

// snapshot ticks the active session so elapsed time is current before
// returning the slot contents.
func (h *LiveHandler) snapshot(c *gin.Context) {
	if h.Controller == nil {
		Error(c, http.StatusInternalServerError, "controller unavailable", nil)
		return
	}
	userID, ok := requiredUserID(c)
	if !ok {
		return
	}
	state, err := h.Controller.Tick(c.Request.Context(), userID)
	if err != nil {
		h.writeErr(c, err)
		return
	}
	Ok(c, state, nil)
}

// recover is called by the client on app launch. It validates the persisted
// slot, repairs what it can (stale sessions are parked or restored) and
// returns the slot as it stands afterwards, which may be nil.
func (h *LiveHandler) recover(c *gin.Context) {
	if h.Controller == nil {
		Error(c, http.StatusInternalServerError, "controller unavailable", nil)
		return
	}
	var body userBody
	if err := c.ShouldBindJSON(&body); err != nil {
		Error(c, http.StatusBadRequest, "invalid body: "+err.Error(), nil)
		return
	}
	state, err := h.Controller.LoadOnLaunch(c.Request.Context(), strings.TrimSpace(body.UserID))
	if err != nil {
		h.writeErr(c, err)
		return
	}
	Ok(c, state, nil)
}

func (h *LiveHandler) start(c *gin.Context) {
	if h.Controller == nil {
		Error(c, http.StatusInternalServerError, "controller unavailable", nil)
		return
	}
	var body startBody
	if err := c.ShouldBindJSON(&body); err != nil {
		Error(c, http.StatusBadRequest, "invalid body: "+err.Error(), nil)
		return
	}
	state, err := h.Controller.Start(c.Request.Context(), strings.TrimSpace(body.UserID), livesession.StartParams{
		GameCategory:   body.GameCategory,
		GameName:       body.GameName,
		StakesLabel:    body.StakesLabel,
		LocationLabel:  body.LocationLabel,
		TournamentType: body.TournamentType,
		Series:         body.Series,
		BuyIn:          body.BuyIn,
	})
	if err != nil {
		h.writeErr(c, err)
		return
	}
	Ok(c, state, nil)
}

func (h *LiveHandler) pause(c *gin.Context) {
	if h.Controller == nil {
		Error(c, http.StatusInternalServerError, "controller unavailable", nil)
		return
	}
	var body userBody
	if err := c.ShouldBindJSON(&body); err != nil {
		Error(c, http.StatusBadRequest, "invalid body: "+err.Error(), nil)
		return
	}
	state, err := h.Controller.Pause(c.Request.Context(), strings.TrimSpace(body.UserID))
	if err != nil {
		h.writeErr(c, err)
		return
	}
	Ok(c, state, nil)
}

func (h *LiveHandler) resume(c *gin.Context) {
	if h.Controller == nil {
		Error(c, http.StatusInternalServerError, "controller unavailable", nil)
		return
	}
	var body userBody
	if err := c.ShouldBindJSON(&body); err != nil {
		Error(c, http.StatusBadRequest, "invalid body: "+err.Error(), nil)
		return
	}
	state, err := h.Controller.Resume(c.Request.Context(), strings.TrimSpace(body.UserID))
	if err != nil {
		h.writeErr(c, err)
		return
	}
	Ok(c, state, nil)
}

func (h *LiveHandler) rebuy(c *gin.Context) {
	if h.Controller == nil {
		Error(c, http.StatusInternalServerError, "controller unavailable", nil)
		return
	}
	var body amountBody
	if err := c.ShouldBindJSON(&body); err != nil {
		Error(c, http.StatusBadRequest, "invalid body: "+err.Error(), nil)
		return
	}
	state, err := h.Controller.AddRebuy(c.Request.Context(), strings.TrimSpace(body.UserID), body.Amount)
	if err != nil {
		h.writeErr(c, err)
		return
	}
	Ok(c, state, nil)
}

func (h *LiveHandler) park(c *gin.Context) {
	if h.Controller == nil {
		Error(c, http.StatusInternalServerError, "controller unavailable", nil)
		return
	}
	var body userBody
	if err := c.ShouldBindJSON(&body); err != nil {
		Error(c, http.StatusBadRequest, "invalid body: "+err.Error(), nil)
		return
	}
	parked, err := h.Controller.ParkForNextDay(c.Request.Context(), strings.TrimSpace(body.UserID))
	if err != nil {
		h.writeErr(c, err)
		return
	}
	Ok(c, parked, nil)
}

func (h *LiveHandler) end(c *gin.Context) {
	if h.Controller == nil {
		Error(c, http.StatusInternalServerError, "controller unavailable", nil)
		return
	}
	var body amountBody
	if err := c.ShouldBindJSON(&body); err != nil {
		Error(c, http.StatusBadRequest, "invalid body: "+err.Error(), nil)
		return
	}
	record, err := h.Controller.End(c.Request.Context(), strings.TrimSpace(body.UserID), body.Amount)
	if err != nil {
		h.writeErr(c, err)
		return
	}
	Ok(c, record, nil)
}

func (h *LiveHandler) listParked(c *gin.Context) {
	if h.Controller == nil {
		Error(c, http.StatusInternalServerError, "controller unavailable", nil)
		return
	}
	userID, ok := requiredUserID(c)
	if !ok {
		return
	}
	items, err := h.Controller.ListParked(c.Request.Context(), userID)
	if err != nil {
		h.writeErr(c, err)
		return
	}
	Ok(c, items, nil)
}

func (h *LiveHandler) restore(c *gin.Context) {
	if h.Controller == nil {
		Error(c, http.StatusInternalServerError, "controller unavailable", nil)
		return
	}
	var body parkedBody
	if err := c.ShouldBindJSON(&body); err != nil {
		Error(c, http.StatusBadRequest, "invalid body: "+err.Error(), nil)
		return
	}
	state, err := h.Controller.Restore(c.Request.Context(), strings.TrimSpace(body.UserID), body.SessionID, body.DayIndex)
	if err != nil {
		h.writeErr(c, err)
		return
	}
	Ok(c, state, nil)
}

func (h *LiveHandler) discard(c *gin.Context) {
	if h.Controller == nil {
		Error(c, http.StatusInternalServerError, "controller unavailable", nil)
		return
	}
	var body parkedBody
	if err := c.ShouldBindJSON(&body); err != nil {
		Error(c, http.StatusBadRequest, "invalid body: "+err.Error(), nil)
		return
	}
	if err := h.Controller.Discard(c.Request.Context(), strings.TrimSpace(body.UserID), body.SessionID, body.DayIndex); err != nil {
		h.writeErr(c, err)
		return
	}
	Ok(c, gin.H{"session_id": body.SessionID, "day_index": body.DayIndex, "discarded": true}, nil)
}
