package repository

import (
	"context"
	"errors"

	"github.com/lymau/lead-app/internal/presales/entity"
	"github.com/lymau/lead-app/internal/presales/identity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MasterRepository read access to master data plus company auto-save
type MasterRepository struct {
	db *gorm.DB
}

func NewMasterRepository(db *gorm.DB) *MasterRepository {
	return &MasterRepository{db: db}
}

func (r *MasterRepository) LookupPillarCodes(ctx context.Context, pillar, solution, service string) (identity.PillarCodes, bool, error) {
	var rows []entity.MasterPillar
	err := r.db.WithContext(ctx).
		Where("pillar_name = ? AND solution_name = ? AND service_name = ?", pillar, solution, service).
		Limit(1).
		Find(&rows).Error
	if err != nil || len(rows) == 0 {
		return identity.PillarCodes{}, false, err
	}
	return identity.PillarCodes{
		Pillar:   rows[0].PillarID,
		Solution: rows[0].SolutionID,
		Service:  rows[0].ServiceID,
	}, true, nil
}

func (r *MasterRepository) LookupBrandCode(ctx context.Context, brand string) (string, bool, error) {
	var rows []entity.Brand
	err := r.db.WithContext(ctx).
		Where("brand_name = ?", brand).
		Limit(1).
		Find(&rows).Error
	if err != nil || len(rows) == 0 {
		return "", false, err
	}
	return rows[0].BrandID, true, nil
}

// BrandChannels lists the distinct non-empty channels a brand is sold through.
func (r *MasterRepository) BrandChannels(ctx context.Context, brand string) ([]string, error) {
	var channels []string
	err := r.db.WithContext(ctx).
		Model(&entity.Brand{}).
		Distinct("channel").
		Where("brand_name = ? AND channel <> ''", brand).
		Order("channel").
		Pluck("channel", &channels).Error
	return channels, err
}

func (r *MasterRepository) AccessGroupOf(ctx context.Context, presalesName string) (string, error) {
	var p entity.Presales
	err := r.db.WithContext(ctx).Where("presales_name = ?", presalesName).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrNotFound
		}
		return "", err
	}
	return p.AccessGroup, nil
}

func (r *MasterRepository) PAMFor(ctx context.Context, inputter string) (string, bool, error) {
	var rows []entity.MappingPAM
	err := r.db.WithContext(ctx).
		Where("inputter_name = ?", inputter).
		Limit(1).
		Find(&rows).Error
	if err != nil || len(rows) == 0 {
		return "", false, err
	}
	return rows[0].PAMName, true, nil
}

// EnsureCompany inserts the company when absent and reports whether it did.
func (r *MasterRepository) EnsureCompany(ctx context.Context, name, verticalIndustry string) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&entity.Company{CompanyName: name, VerticalIndustry: verticalIndustry})
	if res.Error != nil {
		return false, translateError(res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *MasterRepository) ListCompanies(ctx context.Context) ([]entity.Company, error) {
	var items []entity.Company
	err := r.db.WithContext(ctx).Order("company_name").Find(&items).Error
	return items, err
}

func (r *MasterRepository) ListPillars(ctx context.Context) ([]entity.MasterPillar, error) {
	var items []entity.MasterPillar
	err := r.db.WithContext(ctx).Order("pillar_name, solution_name, service_name").Find(&items).Error
	return items, err
}

func (r *MasterRepository) ListBrands(ctx context.Context) ([]entity.Brand, error) {
	var items []entity.Brand
	err := r.db.WithContext(ctx).Order("brand_name, channel").Find(&items).Error
	return items, err
}
