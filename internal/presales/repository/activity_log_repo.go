package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/lymau/lead-app/internal/presales/entity"
	"gorm.io/gorm"
)

// ActivityLogRepository audit log. Entries are only ever appended.
type ActivityLogRepository struct {
	db *gorm.DB
}

func NewActivityLogRepository(db *gorm.DB) *ActivityLogRepository {
	return &ActivityLogRepository{db: db}
}

func (r *ActivityLogRepository) Create(ctx context.Context, log *entity.ActivityLog) error {
	if log.ID == "" {
		log.ID = uuid.New().String()
	}
	return translateError(r.db.WithContext(ctx).Create(log).Error)
}

// FindByGroup returns the newest entries written by members of the filter's group.
func (r *ActivityLogRepository) FindByGroup(ctx context.Context, filter AccessFilter, limit int) ([]entity.ActivityLog, error) {
	var items []entity.ActivityLog

	query := r.db.WithContext(ctx).Model(&entity.ActivityLog{})
	if !filter.Privileged {
		query = query.
			Select("activity_logs.*").
			Joins("JOIN presales ON activity_logs.user_name = presales.presales_name").
			Where("presales.access_group = ?", filter.Group)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	err := query.
		Order("activity_logs.timestamp DESC").
		Find(&items).Error
	return items, err
}
