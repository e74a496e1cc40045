package handler

import (
	"encoding/base64"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"pokerlog/internal/importer"
	"pokerlog/internal/repository"
	"pokerlog/internal/service"
)

// ImportHandler accepts vendor export files and runs them through the
// import pipeline. Fatal decode/format failures map to 422 with the full
// diagnostic; per-row failures come back inside the report.
type ImportHandler struct {
	Service *service.ImportService
	Repo    repository.Repository
}

type importRequestBody struct {
	UserID   string `json:"user_id"`
	Vendor   string `json:"vendor"`
	FileName string `json:"file_name"`
	// Data is the raw file content; DataBase64 wins when both are set.
	Data       string `json:"data"`
	DataBase64 string `json:"data_base64"`
	DryRun     bool   `json:"dry_run"`
}

func (h *ImportHandler) Register(r *gin.Engine) {
	g := r.Group("/api/v1/import")
	g.POST("", h.run)
	g.GET("/batches", h.listBatches)
}

func (h *ImportHandler) run(c *gin.Context) {
	if h.Service == nil {
		Error(c, http.StatusInternalServerError, "import service unavailable", nil)
		return
	}
	var body importRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		Error(c, http.StatusBadRequest, "invalid body: "+err.Error(), nil)
		return
	}
	if strings.TrimSpace(body.UserID) == "" {
		Error(c, http.StatusBadRequest, "user_id is required", nil)
		return
	}
	vendor, ok := importer.ParseVendorFormat(body.Vendor)
	if !ok {
		Error(c, http.StatusBadRequest, "unknown vendor format: "+body.Vendor, nil)
		return
	}

	data := []byte(body.Data)
	if body.DataBase64 != "" {
		decoded, err := base64.StdEncoding.DecodeString(body.DataBase64)
		if err != nil {
			Error(c, http.StatusBadRequest, "data_base64 is not valid base64", nil)
			return
		}
		data = decoded
	}
	if len(data) == 0 {
		Error(c, http.StatusBadRequest, "file data is required", nil)
		return
	}

	report, err := h.Service.Run(c.Request.Context(), service.ImportRequest{
		UserID:   strings.TrimSpace(body.UserID),
		Vendor:   vendor,
		FileName: body.FileName,
		Data:     data,
		DryRun:   body.DryRun,
	})
	if err != nil {
		var fe *importer.FormatError
		switch {
		case errors.As(err, &fe), errors.Is(err, importer.ErrDecode), errors.Is(err, importer.ErrTooFewLines):
			Error(c, http.StatusUnprocessableEntity, err.Error(), nil)
		default:
			Error(c, http.StatusBadGateway, err.Error(), nil)
		}
		return
	}
	Ok(c, report, nil)
}

func (h *ImportHandler) listBatches(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	userID, ok := requiredUserID(c)
	if !ok {
		return
	}
	limit := intQuery(c, "limit", 50)
	items, err := h.Repo.ListImportBatchesByUser(c.Request.Context(), userID, limit)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, items, nil)
}
