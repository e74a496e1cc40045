package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"pokerlog/internal/config"
	"pokerlog/internal/importer"
	"pokerlog/internal/models"
	"pokerlog/internal/repository"
)

// ImportService runs the import pipeline end to end: normalize the vendor
// file, persist the resulting records and archive the batch for audit. The
// normalizer itself stays pure; everything stateful lives here.
type ImportService struct {
	Repo   repository.Repository
	Config config.ImportConfig
	Logger *zap.Logger
}

type ImportRequest struct {
	UserID   string
	Vendor   importer.VendorFormat
	FileName string
	Data     []byte
	// DryRun parses and reports without persisting anything.
	DryRun bool
}

type ImportReport struct {
	BatchID   uint64                `json:"batch_id,omitempty"`
	Vendor    importer.VendorFormat `json:"vendor"`
	TotalRows int                   `json:"total_rows"`
	Imported  int                   `json:"imported"`
	Skipped   int                   `json:"skipped"`
	RowErrors []importer.RowError   `json:"row_errors,omitempty"`
	DryRun    bool                  `json:"dry_run"`
}

func (s *ImportService) Run(ctx context.Context, req ImportRequest) (*ImportReport, error) {
	if s == nil || s.Repo == nil {
		return nil, fmt.Errorf("import service not configured")
	}
	if strings.TrimSpace(req.UserID) == "" {
		return nil, fmt.Errorf("user id is required")
	}
	if max := s.Config.MaxFileBytes; max > 0 && len(req.Data) > max {
		return nil, fmt.Errorf("file exceeds %d bytes", max)
	}

	res, err := importer.Normalize(req.Data, req.Vendor, req.UserID, importer.Options{
		MaxRows: s.Config.MaxRows,
	})
	if err != nil {
		return nil, err
	}

	report := &ImportReport{
		Vendor:    req.Vendor,
		TotalRows: res.TotalRows,
		Imported:  len(res.Imported),
		Skipped:   len(res.RowErrors),
		RowErrors: res.RowErrors,
		DryRun:    req.DryRun,
	}
	if req.DryRun {
		return report, nil
	}

	if err := s.Repo.InsertSessionRecords(ctx, res.Imported); err != nil {
		return nil, err
	}

	batch := &models.ImportBatch{
		UserID:        req.UserID,
		Vendor:        string(req.Vendor),
		FileName:      req.FileName,
		TotalRows:     res.TotalRows,
		ImportedCount: len(res.Imported),
		SkippedCount:  len(res.RowErrors),
	}
	if len(res.RowErrors) > 0 {
		if encoded, err := json.Marshal(res.RowErrors); err == nil {
			batch.RowErrors = datatypes.JSON(encoded)
		}
	}
	if s.Config.ArchiveRaw {
		batch.RawData = req.Data
	}
	if err := s.Repo.InsertImportBatch(ctx, batch); err != nil {
		// Records are already in; losing the audit row is not worth
		// failing the import over.
		if s.Logger != nil {
			s.Logger.Warn("import batch archive failed", zap.Error(err))
		}
	} else {
		report.BatchID = batch.ID
	}

	if s.Logger != nil {
		s.Logger.Info("import finished",
			zap.String("user_id", req.UserID),
			zap.String("vendor", string(req.Vendor)),
			zap.Int("imported", report.Imported),
			zap.Int("skipped", report.Skipped),
		)
	}
	return report, nil
}
