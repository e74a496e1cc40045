package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"pokerlog/internal/service"
)

// DedupHandler triggers duplicate sweeps on demand. The scheduled sweep goes
// through cron; this endpoint serves the explicit "clean up my sessions"
// action.
type DedupHandler struct {
	Service *service.DedupSweepService
}

func (h *DedupHandler) Register(r *gin.Engine) {
	r.POST("/api/v1/dedup/sweep", h.sweep)
}

type sweepBody struct {
	UserID string `json:"user_id"`
	DryRun bool   `json:"dry_run"`
}

func (h *DedupHandler) sweep(c *gin.Context) {
	if h.Service == nil {
		Error(c, http.StatusInternalServerError, "dedup service unavailable", nil)
		return
	}
	var body sweepBody
	if err := c.ShouldBindJSON(&body); err != nil {
		Error(c, http.StatusBadRequest, "invalid body: "+err.Error(), nil)
		return
	}
	if strings.TrimSpace(body.UserID) == "" {
		Error(c, http.StatusBadRequest, "user_id is required", nil)
		return
	}
	report, err := h.Service.SweepUser(c.Request.Context(), strings.TrimSpace(body.UserID), body.DryRun)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, report, nil)
}
