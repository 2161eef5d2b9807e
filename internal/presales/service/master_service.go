package service

import (
	"context"
	"strings"

	"github.com/lymau/lead-app/internal/presales/entity"
	"github.com/lymau/lead-app/internal/presales/repository"
	"github.com/lymau/lead-app/internal/shared/apperror"
)

// MasterService master data lookups feeding the submission form
type MasterService struct {
	store repository.Store
	opts  Options
}

func NewMasterService(store repository.Store, opts Options) *MasterService {
	return &MasterService{store: store, opts: opts.withDefaults()}
}

func (s *MasterService) ListPillars(ctx context.Context) ([]entity.MasterPillar, error) {
	ctx, cancel := readContext(ctx, s.opts)
	defer cancel()
	pillars, err := s.store.ListPillars(ctx)
	if err != nil {
		return nil, storageError("list pillars", err)
	}
	return pillars, nil
}

func (s *MasterService) ListBrands(ctx context.Context) ([]entity.Brand, error) {
	ctx, cancel := readContext(ctx, s.opts)
	defer cancel()
	brands, err := s.store.ListBrands(ctx)
	if err != nil {
		return nil, storageError("list brands", err)
	}
	return brands, nil
}

func (s *MasterService) ListCompanies(ctx context.Context) ([]entity.Company, error) {
	ctx, cancel := readContext(ctx, s.opts)
	defer cancel()
	companies, err := s.store.ListCompanies(ctx)
	if err != nil {
		return nil, storageError("list companies", err)
	}
	return companies, nil
}

// BrandChannels returns the sales channels a brand is sold through; empty means no
// channel needs to be picked.
func (s *MasterService) BrandChannels(ctx context.Context, brand string) ([]string, error) {
	brand = strings.TrimSpace(brand)
	if brand == "" {
		return nil, apperror.Validation("brand channels", "brand is required")
	}
	ctx, cancel := readContext(ctx, s.opts)
	defer cancel()
	channels, err := s.store.BrandChannels(ctx, brand)
	if err != nil {
		return nil, storageError("brand channels", err)
	}
	return channels, nil
}

// AddCompany saves a company. Added is false when the name already exists.
func (s *MasterService) AddCompany(ctx context.Context, name, verticalIndustry string) (bool, error) {
	const op = "add company"
	name = strings.TrimSpace(name)
	if name == "" {
		return false, apperror.Validation(op, "company_name is required")
	}
	ctx, cancel := context.WithTimeout(ctx, s.opts.WriteTimeout)
	defer cancel()
	added, err := s.store.EnsureCompany(ctx, name, strings.TrimSpace(verticalIndustry))
	if err != nil {
		return false, storageError(op, err)
	}
	return added, nil
}
