package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"pokerlog/internal/repository"
	"pokerlog/internal/service"
)

// RecordHandler serves persisted session records: listing with filters,
// single-record reads, adjusted-profit updates, deletion and bankroll stats.
type RecordHandler struct {
	Repo  repository.Repository
	Stats *service.StatsService
}

func (h *RecordHandler) Register(r *gin.Engine) {
	g := r.Group("/api/v1/sessions")
	g.GET("", h.list)
	g.GET("/stats", h.stats)
	g.GET("/:id", h.get)
	g.PUT("/:id/adjusted-profit", h.putAdjustedProfit)
	g.DELETE("/:id", h.delete)
}

func (h *RecordHandler) list(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	userID, ok := requiredUserID(c)
	if !ok {
		return
	}
	limit := intQuery(c, "limit", 50)
	offset := intQuery(c, "offset", 0)
	var category *string
	if v := strings.TrimSpace(c.Query("category")); v != "" {
		category = &v
	}
	var location *string
	if v := strings.TrimSpace(c.Query("location")); v != "" {
		location = &v
	}
	var since *time.Time
	if v := strings.TrimSpace(c.Query("since")); v != "" {
		if ts, err := time.Parse(time.RFC3339, v); err == nil {
			t := ts.UTC()
			since = &t
		}
	}
	var until *time.Time
	if v := strings.TrimSpace(c.Query("until")); v != "" {
		if ts, err := time.Parse(time.RFC3339, v); err == nil {
			t := ts.UTC()
			until = &t
		}
	}
	orderBy := parseOrder(c.Query("order_by"), map[string]string{
		"start_at":     "start_at",
		"created_at":   "created_at",
		"profit":       "profit",
		"hours_played": "hours_played",
		"buy_in":       "buy_in",
	})
	params := repository.ListSessionRecordsParams{
		UserID:   userID,
		Category: category,
		Location: location,
		Since:    since,
		Until:    until,
		OrderBy:  orderBy,
		Limit:    limit,
		Offset:   offset,
	}
	if boolQuery(c, "ascending", false) {
		params.Asc = boolPtr(true)
	}
	items, err := h.Repo.ListSessionRecords(c.Request.Context(), params)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	total, err := h.Repo.CountSessionRecords(c.Request.Context(), params)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, items, paginationMeta(limit, offset, total))
}

func (h *RecordHandler) get(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		Error(c, http.StatusBadRequest, "invalid id", nil)
		return
	}
	item, err := h.Repo.GetSessionRecordByID(c.Request.Context(), id)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	if item == nil {
		Error(c, http.StatusNotFound, "record not found", nil)
		return
	}
	Ok(c, item, nil)
}

type adjustedProfitRequest struct {
	AdjustedProfit decimal.Decimal `json:"adjusted_profit"`
}

func (h *RecordHandler) putAdjustedProfit(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		Error(c, http.StatusBadRequest, "invalid id", nil)
		return
	}
	var req adjustedProfitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body: "+err.Error(), nil)
		return
	}
	if err := h.Repo.UpdateAdjustedProfit(c.Request.Context(), id, req.AdjustedProfit); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			Error(c, http.StatusNotFound, "record not found", nil)
			return
		}
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, gin.H{"id": id, "adjusted_profit": req.AdjustedProfit}, nil)
}

func (h *RecordHandler) delete(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		Error(c, http.StatusBadRequest, "invalid id", nil)
		return
	}
	if err := h.Repo.DeleteSessionRecord(c.Request.Context(), id); err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, gin.H{"id": id, "deleted": true}, nil)
}

func (h *RecordHandler) stats(c *gin.Context) {
	if h.Stats == nil {
		Error(c, http.StatusInternalServerError, "stats unavailable", nil)
		return
	}
	userID, ok := requiredUserID(c)
	if !ok {
		return
	}
	summary, err := h.Stats.Summary(c.Request.Context(), userID)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, summary, nil)
}
