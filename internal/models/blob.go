package models

import (
	"time"

	"gorm.io/datatypes"
)

// Blob is one whole-collection JSON document stored under a stable logical
// key. The prediction log and the algorithm weights each live in one row,
// read and written whole.
type Blob struct {
	Key       string         `gorm:"type:varchar(100);primaryKey"`
	Value     datatypes.JSON `gorm:"type:jsonb;not null"`
	UpdatedAt time.Time      `gorm:"type:timestamptz;autoUpdateTime"`
}

func (Blob) TableName() string {
	return "blobs"
}
