package repository

import (
	"context"
	"errors"
	"time"

	"github.com/lymau/lead-app/internal/presales/entity"
	"github.com/lymau/lead-app/internal/presales/identity"
	"gorm.io/gorm"
)

var (
	ErrNotFound = errors.New("record not found")
	// ErrConflict reports a unique constraint violation or a lost write race. The whole
	// transaction may be re-run.
	ErrConflict = errors.New("write conflict")
)

// PillarAffinity grants a group visibility of one pillar in addition to its own rows.
var PillarAffinity = map[string]string{
	"DC_TEAM":  "Data Center",
	"SEC_TEAM": "Cyber Security",
	"MS_TEAM":  "Maintenance Services",
}

// AccessFilter scopes list queries. Privileged sees everything.
type AccessFilter struct {
	Group      string
	Privileged bool
}

// Store is the persistence contract of the presales write path. Implementations:
// Repositories (gorm) and memstore.Store.
type Store interface {
	identity.Catalog

	// Tx runs fn in one transaction. The Store passed to fn is bound to it.
	Tx(ctx context.Context, fn func(Store) error) error

	AllocateOrGetRowsID(ctx context.Context, description string) (string, error)
	FindRowsID(ctx context.Context, description string) (string, bool, error)

	BrandChannels(ctx context.Context, brand string) ([]string, error)

	InsertHeaderIfAbsent(ctx context.Context, header *entity.SalesOpportunity) (bool, error)
	InsertDetailLine(ctx context.Context, line *entity.Opportunity) error
	SelectByUID(ctx context.Context, uid string) (*entity.Opportunity, error)
	SelectByOpportunityID(ctx context.Context, opportunityID string) ([]entity.Opportunity, error)
	SelectAll(ctx context.Context, filter AccessFilter) ([]entity.Opportunity, error)
	UpdateCostNotes(ctx context.Context, uid string, cost int64, notes string, at time.Time) error
	UpdateFullRecord(ctx context.Context, oldUID string, rec *entity.Opportunity) error

	AppendAuditLog(ctx context.Context, log *entity.ActivityLog) error
	ListAuditLogs(ctx context.Context, filter AccessFilter, limit int) ([]entity.ActivityLog, error)

	AccessGroupOf(ctx context.Context, presalesName string) (string, error)
	PAMFor(ctx context.Context, inputter string) (string, bool, error)
	EnsureCompany(ctx context.Context, name, verticalIndustry string) (bool, error)
	ListCompanies(ctx context.Context) ([]entity.Company, error)
	ListPillars(ctx context.Context) ([]entity.MasterPillar, error)
	ListBrands(ctx context.Context) ([]entity.Brand, error)
}

// Repositories presales repository set over one gorm handle
type Repositories struct {
	db          *gorm.DB
	Description *DescriptionRepository
	Opportunity *OpportunityRepository
	ActivityLog *ActivityLogRepository
	Master      *MasterRepository
}

// NewRepositories creates the repository set
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		db:          db,
		Description: NewDescriptionRepository(db),
		Opportunity: NewOpportunityRepository(db),
		ActivityLog: NewActivityLogRepository(db),
		Master:      NewMasterRepository(db),
	}
}

var _ Store = (*Repositories)(nil)

func (r *Repositories) Tx(ctx context.Context, fn func(Store) error) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepositories(tx))
	})
	return translateError(err)
}

func (r *Repositories) AllocateOrGetRowsID(ctx context.Context, description string) (string, error) {
	return r.Description.AllocateOrGet(ctx, description)
}

func (r *Repositories) FindRowsID(ctx context.Context, description string) (string, bool, error) {
	return r.Description.FindRowsID(ctx, description)
}

func (r *Repositories) LookupPillarCodes(ctx context.Context, pillar, solution, service string) (identity.PillarCodes, bool, error) {
	return r.Master.LookupPillarCodes(ctx, pillar, solution, service)
}

func (r *Repositories) LookupBrandCode(ctx context.Context, brand string) (string, bool, error) {
	return r.Master.LookupBrandCode(ctx, brand)
}

func (r *Repositories) BrandChannels(ctx context.Context, brand string) ([]string, error) {
	return r.Master.BrandChannels(ctx, brand)
}

func (r *Repositories) InsertHeaderIfAbsent(ctx context.Context, header *entity.SalesOpportunity) (bool, error) {
	return r.Opportunity.InsertHeaderIfAbsent(ctx, header)
}

func (r *Repositories) InsertDetailLine(ctx context.Context, line *entity.Opportunity) error {
	return r.Opportunity.Create(ctx, line)
}

func (r *Repositories) SelectByUID(ctx context.Context, uid string) (*entity.Opportunity, error) {
	return r.Opportunity.FindByUID(ctx, uid)
}

func (r *Repositories) SelectByOpportunityID(ctx context.Context, opportunityID string) ([]entity.Opportunity, error) {
	return r.Opportunity.FindByOpportunityID(ctx, opportunityID)
}

func (r *Repositories) SelectAll(ctx context.Context, filter AccessFilter) ([]entity.Opportunity, error) {
	return r.Opportunity.FindAll(ctx, filter)
}

func (r *Repositories) UpdateCostNotes(ctx context.Context, uid string, cost int64, notes string, at time.Time) error {
	return r.Opportunity.UpdateCostNotes(ctx, uid, cost, notes, at)
}

func (r *Repositories) UpdateFullRecord(ctx context.Context, oldUID string, rec *entity.Opportunity) error {
	return r.Opportunity.UpdateFull(ctx, oldUID, rec)
}

func (r *Repositories) AppendAuditLog(ctx context.Context, log *entity.ActivityLog) error {
	return r.ActivityLog.Create(ctx, log)
}

func (r *Repositories) ListAuditLogs(ctx context.Context, filter AccessFilter, limit int) ([]entity.ActivityLog, error) {
	return r.ActivityLog.FindByGroup(ctx, filter, limit)
}

func (r *Repositories) AccessGroupOf(ctx context.Context, presalesName string) (string, error) {
	return r.Master.AccessGroupOf(ctx, presalesName)
}

func (r *Repositories) PAMFor(ctx context.Context, inputter string) (string, bool, error) {
	return r.Master.PAMFor(ctx, inputter)
}

func (r *Repositories) EnsureCompany(ctx context.Context, name, verticalIndustry string) (bool, error) {
	return r.Master.EnsureCompany(ctx, name, verticalIndustry)
}

func (r *Repositories) ListCompanies(ctx context.Context) ([]entity.Company, error) {
	return r.Master.ListCompanies(ctx)
}

func (r *Repositories) ListPillars(ctx context.Context) ([]entity.MasterPillar, error) {
	return r.Master.ListPillars(ctx)
}

func (r *Repositories) ListBrands(ctx context.Context) ([]entity.Brand, error) {
	return r.Master.ListBrands(ctx)
}
