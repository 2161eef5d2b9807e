package repository

import (
	"context"
	"errors"
	"time"

	"github.com/lymau/lead-app/internal/presales/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OpportunityRepository opportunity lines and the sales header table
type OpportunityRepository struct {
	db *gorm.DB
}

func NewOpportunityRepository(db *gorm.DB) *OpportunityRepository {
	return &OpportunityRepository{db: db}
}

// InsertHeaderIfAbsent reports whether a new header row was written.
func (r *OpportunityRepository) InsertHeaderIfAbsent(ctx context.Context, header *entity.SalesOpportunity) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(header)
	if res.Error != nil {
		return false, translateError(res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *OpportunityRepository) Create(ctx context.Context, line *entity.Opportunity) error {
	return translateError(r.db.WithContext(ctx).Create(line).Error)
}

func (r *OpportunityRepository) FindByUID(ctx context.Context, uid string) (*entity.Opportunity, error) {
	var o entity.Opportunity
	err := r.db.WithContext(ctx).Where("uid = ?", uid).First(&o).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}

// FindByOpportunityID returns ErrNotFound when the deal has no lines.
func (r *OpportunityRepository) FindByOpportunityID(ctx context.Context, opportunityID string) ([]entity.Opportunity, error) {
	var items []entity.Opportunity
	err := r.db.WithContext(ctx).
		Where("opportunity_id = ?", opportunityID).
		Order("created_at ASC, uid ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrNotFound
	}
	return items, nil
}

// FindAll lists lines visible to filter, newest first. Non-privileged groups see rows
// entered by members of their group plus the pillar in PillarAffinity.
func (r *OpportunityRepository) FindAll(ctx context.Context, filter AccessFilter) ([]entity.Opportunity, error) {
	var items []entity.Opportunity

	query := r.db.WithContext(ctx).Model(&entity.Opportunity{})
	if !filter.Privileged {
		query = query.
			Select("opportunities.*").
			Joins("LEFT JOIN presales ON opportunities.presales_name = presales.presales_name")
		if pillar, ok := PillarAffinity[filter.Group]; ok {
			query = query.Where("presales.access_group = ? OR opportunities.pillar = ?", filter.Group, pillar)
		} else {
			query = query.Where("presales.access_group = ?", filter.Group)
		}
	}

	err := query.
		Order("opportunities.created_at DESC, opportunities.uid ASC").
		Find(&items).Error
	return items, err
}

func (r *OpportunityRepository) UpdateCostNotes(ctx context.Context, uid string, cost int64, notes string, at time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&entity.Opportunity{}).
		Where("uid = ?", uid).
		Updates(map[string]interface{}{
			"cost":       cost,
			"notes":      notes,
			"updated_at": at,
		})
	if res.Error != nil {
		return translateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateFull rewrites the identity and editable fields of the row keyed by oldUID,
// including its primary key. created_at, cost, notes and stage are left untouched.
func (r *OpportunityRepository) UpdateFull(ctx context.Context, oldUID string, rec *entity.Opportunity) error {
	res := r.db.WithContext(ctx).
		Model(&entity.Opportunity{}).
		Where("uid = ?", oldUID).
		Updates(map[string]interface{}{
			"uid":               rec.UID,
			"opportunity_id":    rec.OpportunityID,
			"product_id":        rec.ProductID,
			"salesgroup_id":     rec.SalesGroupID,
			"sales_name":        rec.SalesName,
			"responsible_name":  rec.ResponsibleName,
			"pillar":            rec.Pillar,
			"solution":          rec.Solution,
			"service":           rec.Service,
			"brand":             rec.Brand,
			"company_name":      rec.CompanyName,
			"vertical_industry": rec.VerticalIndustry,
			"distributor_name":  rec.DistributorName,
			"updated_at":        rec.UpdatedAt,
		})
	if res.Error != nil {
		return translateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
