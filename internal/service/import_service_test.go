package service

import (
	"context"
	"errors"
	"testing"

	"pokerlog/internal/config"
	"pokerlog/internal/importer"
	"pokerlog/internal/models"
	"pokerlog/internal/repository"
)

type importStubRepo struct {
	repository.Repository
	inserted []models.SessionRecord
	batches  []models.ImportBatch
}

func (s *importStubRepo) InsertSessionRecords(ctx context.Context, items []models.SessionRecord) error {
	s.inserted = append(s.inserted, items...)
	return nil
}

func (s *importStubRepo) InsertImportBatch(ctx context.Context, item *models.ImportBatch) error {
	item.ID = uint64(len(s.batches) + 1)
	s.batches = append(s.batches, *item)
	return nil
}

const simpleFile = "start,end,location,profit\n" +
	"2024-01-01T18:00:00Z,2024-01-01T22:30:00Z,Bellagio,150.5\n" +
	"garbage,2024-01-02T22:30:00Z,Wynn,10\n"

func TestImportPersistsRecordsAndArchivesBatch(t *testing.T) {
	repo := &importStubRepo{}
	svc := &ImportService{Repo: repo, Config: config.ImportConfig{ArchiveRaw: true}}
	report, err := svc.Run(context.Background(), ImportRequest{
		UserID:   "u1",
		Vendor:   importer.FormatSimple,
		FileName: "export.csv",
		Data:     []byte(simpleFile),
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Imported != 1 || report.Skipped != 1 || report.TotalRows != 2 {
		t.Fatalf("report=%+v", report)
	}
	if len(repo.inserted) != 1 {
		t.Fatalf("inserted=%d", len(repo.inserted))
	}
	if len(repo.batches) != 1 {
		t.Fatalf("batches=%d", len(repo.batches))
	}
	batch := repo.batches[0]
	if batch.ImportedCount != 1 || batch.SkippedCount != 1 {
		t.Fatalf("batch=%+v", batch)
	}
	if len(batch.RawData) == 0 {
		t.Fatalf("raw file not archived")
	}
	if report.BatchID != 1 {
		t.Fatalf("batchID=%d", report.BatchID)
	}
}

func TestImportDryRunPersistsNothing(t *testing.T) {
	repo := &importStubRepo{}
	svc := &ImportService{Repo: repo}
	report, err := svc.Run(context.Background(), ImportRequest{
		UserID: "u1",
		Vendor: importer.FormatSimple,
		Data:   []byte(simpleFile),
		DryRun: true,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Imported != 1 {
		t.Fatalf("report=%+v", report)
	}
	if len(repo.inserted) != 0 || len(repo.batches) != 0 {
		t.Fatalf("dry run persisted data")
	}
}

func TestImportFatalFormatErrorPersistsNothing(t *testing.T) {
	repo := &importStubRepo{}
	svc := &ImportService{Repo: repo}
	_, err := svc.Run(context.Background(), ImportRequest{
		UserID: "u1",
		Vendor: importer.FormatSimple,
		Data:   []byte("wrong,columns\nx,y\n"),
	})
	var fe *importer.FormatError
	if !errors.As(err, &fe) {
		t.Fatalf("want FormatError, got %v", err)
	}
	if len(repo.inserted) != 0 {
		t.Fatalf("records persisted despite fatal error")
	}
}

func TestImportFileSizeCap(t *testing.T) {
	svc := &ImportService{Repo: &importStubRepo{}, Config: config.ImportConfig{MaxFileBytes: 8}}
	_, err := svc.Run(context.Background(), ImportRequest{
		UserID: "u1",
		Vendor: importer.FormatSimple,
		Data:   []byte(simpleFile),
	})
	if err == nil {
		t.Fatalf("oversize file accepted")
	}
}
