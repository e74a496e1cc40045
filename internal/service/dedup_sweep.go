package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"pokerlog/internal/dedup"
	"pokerlog/internal/repository"
)

// DedupSweepService scans a user's records for duplicates and deletes them.
// Each deletion is independent: one failed delete never blocks the rest, and
// failures are reported per record.
type DedupSweepService struct {
	Repo   repository.Repository
	Logger *zap.Logger
}

type SweepFailure struct {
	RecordID uint64 `json:"record_id"`
	Reason   string `json:"reason"`
}

type SweepReport struct {
	UserID     string         `json:"user_id"`
	Scanned    int            `json:"scanned"`
	Duplicates int            `json:"duplicates"`
	Deleted    int            `json:"deleted"`
	DryRun     bool           `json:"dry_run"`
	Failures   []SweepFailure `json:"failures,omitempty"`
}

func (s *DedupSweepService) SweepUser(ctx context.Context, userID string, dryRun bool) (*SweepReport, error) {
	if s == nil || s.Repo == nil {
		return nil, fmt.Errorf("dedup sweep service not configured")
	}
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("user id is required")
	}

	records, err := s.Repo.ListAllSessionRecordsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	toDelete := dedup.FindDuplicates(records)

	report := &SweepReport{
		UserID:     userID,
		Scanned:    len(records),
		Duplicates: len(toDelete),
		DryRun:     dryRun,
	}
	if dryRun {
		return report, nil
	}

	for _, rec := range toDelete {
		if err := s.Repo.DeleteSessionRecord(ctx, rec.ID); err != nil {
			report.Failures = append(report.Failures, SweepFailure{
				RecordID: rec.ID,
				Reason:   err.Error(),
			})
			continue
		}
		report.Deleted++
	}

	if s.Logger != nil {
		s.Logger.Info("dedup sweep finished",
			zap.String("user_id", userID),
			zap.Int("scanned", report.Scanned),
			zap.Int("duplicates", report.Duplicates),
			zap.Int("deleted", report.Deleted),
			zap.Int("failed", len(report.Failures)),
		)
	}
	return report, nil
}

// SweepAll runs the duplicate sweep for every user with records. Intended
// for the cron schedule; per-user failures are logged and do not stop the
// iteration.
func (s *DedupSweepService) SweepAll(ctx context.Context, dryRun bool) error {
	if s == nil || s.Repo == nil {
		return nil
	}
	userIDs, err := s.Repo.ListSessionUserIDs(ctx)
	if err != nil {
		return err
	}
	for _, userID := range userIDs {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if _, err := s.SweepUser(ctx, userID, dryRun); err != nil {
			if s.Logger != nil {
				s.Logger.Warn("dedup sweep failed for user",
					zap.String("user_id", userID),
					zap.Error(err),
				)
			}
		}
	}
	return nil
}
