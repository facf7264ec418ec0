package gormstorage

import (
	"context"
	"errors"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"memefinder/internal/models"
)

// BlobStore persists whole-collection blobs in the blobs table.
type BlobStore struct {
	db *gorm.DB
}

func New(db *gorm.DB) *BlobStore {
	return &BlobStore{db: db}
}

func (s *BlobStore) Load(ctx context.Context, key string) ([]byte, error) {
	var row models.Blob
	err := s.db.WithContext(ctx).First(&row, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return []byte(row.Value), nil
}

func (s *BlobStore) Save(ctx context.Context, key string, value []byte) error {
	row := models.Blob{
		Key:   key,
		Value: datatypes.JSON(value),
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&row).Error
}

func (s *BlobStore) Delete(ctx context.Context, key string) error {
	return s.db.WithContext(ctx).Delete(&models.Blob{}, "key = ?", key).Error
}
