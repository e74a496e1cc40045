package models

import (
	"time"

	"gorm.io/datatypes"
)

// ImportBatch archives one processed vendor export: the raw file, counts and
// the per-row error list. Records themselves go to session_records.
type ImportBatch struct {
	ID     uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID string `gorm:"type:varchar(64);not null;index" json:"user_id"`

	Vendor   string `gorm:"type:varchar(40);not null;index" json:"vendor"`
	FileName string `gorm:"type:varchar(255);not null;default:''" json:"file_name"`

	TotalRows     int `gorm:"not null" json:"total_rows"`
	ImportedCount int `gorm:"not null" json:"imported_count"`
	SkippedCount  int `gorm:"not null" json:"skipped_count"`

	RowErrors datatypes.JSON `gorm:"type:jsonb" json:"row_errors,omitempty"`
	RawData   []byte         `gorm:"type:bytea" json:"-"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime;index" json:"created_at"`
}

func (ImportBatch) TableName() string {
	return "import_batches"
}
