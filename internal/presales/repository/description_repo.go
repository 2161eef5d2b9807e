package repository

import (
	"context"
	"errors"

	"github.com/lymau/lead-app/internal/presales/entity"
	"github.com/lymau/lead-app/internal/presales/identity"
	"gorm.io/gorm"
)

// DescriptionRepository description to rows id mapping
type DescriptionRepository struct {
	db *gorm.DB
}

func NewDescriptionRepository(db *gorm.DB) *DescriptionRepository {
	return &DescriptionRepository{db: db}
}

// FindRowsID exact-match lookup of a description.
func (r *DescriptionRepository) FindRowsID(ctx context.Context, description string) (string, bool, error) {
	var d entity.Description
	err := r.db.WithContext(ctx).
		Where("description = ?", description).
		Take(&d).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		return "", false, err
	}
	return d.RowsID, true, nil
}

// AllocateOrGet returns the rows id bound to description, binding the next free one
// when the description is new. Run it on the caller's transaction: a concurrent writer
// that took the same id makes the insert fail with ErrConflict.
func (r *DescriptionRepository) AllocateOrGet(ctx context.Context, description string) (string, error) {
	rowsID, ok, err := r.FindRowsID(ctx, description)
	if err != nil {
		return "", err
	}
	if ok {
		return rowsID, nil
	}

	var maxRowsID string
	err = r.db.WithContext(ctx).
		Model(&entity.Description{}).
		Select("COALESCE(MAX(rows_id), '')").
		Where("rows_id LIKE ? AND LENGTH(rows_id) = ?", identity.RowsIDPrefix+"%", identity.RowsIDLength).
		Scan(&maxRowsID).Error
	if err != nil {
		return "", err
	}

	rowsID, err = identity.NextRowsID(maxRowsID)
	if err != nil {
		return "", err
	}
	if err := r.db.WithContext(ctx).Create(&entity.Description{RowsID: rowsID, Description: description}).Error; err != nil {
		return "", translateError(err)
	}
	return rowsID, nil
}
