package service

import (
	"context"
	"strings"

	"github.com/lymau/lead-app/internal/presales/entity"
	"github.com/lymau/lead-app/internal/presales/repository"
	"github.com/lymau/lead-app/internal/shared/apperror"
)

// OpportunitySummary aggregate of all lines sharing an opportunity id.
type OpportunitySummary struct {
	OpportunityID   string `json:"opportunity_id"`
	OpportunityName string `json:"opportunity_name"`
	CompanyName     string `json:"company_name"`
	Stage           string `json:"stage"`
	TotalItems      int    `json:"total_items"`
	TotalCost       int64  `json:"total_cost"`
	TotalCostText   string `json:"total_cost_text"`
}

// QueryService read side of the presales data
type QueryService struct {
	store repository.Store
	opts  Options
}

func NewQueryService(store repository.Store, opts Options) *QueryService {
	return &QueryService{store: store, opts: opts.withDefaults()}
}

// readContext bounds a read by ReadTimeout.
func readContext(ctx context.Context, opts Options) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, opts.ReadTimeout)
}

func (s *QueryService) GetByUID(ctx context.Context, uid string) (*entity.Opportunity, error) {
	const op = "get opportunity line"
	uid = strings.TrimSpace(uid)
	if uid == "" {
		return nil, apperror.Validation(op, "uid is required")
	}
	ctx, cancel := readContext(ctx, s.opts)
	defer cancel()
	line, err := s.store.SelectByUID(ctx, uid)
	if err != nil {
		return nil, storageError(op, err)
	}
	return line, nil
}

func (s *QueryService) GetByOpportunityID(ctx context.Context, opportunityID string) ([]entity.Opportunity, error) {
	const op = "get opportunity"
	opportunityID = strings.TrimSpace(opportunityID)
	if opportunityID == "" {
		return nil, apperror.Validation(op, "opportunity_id is required")
	}
	ctx, cancel := readContext(ctx, s.opts)
	defer cancel()
	lines, err := s.store.SelectByOpportunityID(ctx, opportunityID)
	if err != nil {
		return nil, storageError(op, err)
	}
	return lines, nil
}

// ListVisible lists the lines the acting user may see, newest first.
func (s *QueryService) ListVisible(ctx context.Context, user string) ([]entity.Opportunity, error) {
	const op = "list opportunities"
	ctx, cancel := readContext(ctx, s.opts)
	defer cancel()
	filter, err := accessFilter(ctx, s.store, op, s.opts.PrivilegedGroup, user)
	if err != nil {
		return nil, err
	}
	lines, err := s.store.SelectAll(ctx, filter)
	if err != nil {
		return nil, storageError(op, err)
	}
	return lines, nil
}

// Summary totals the lines of one opportunity. Name, company and stage come from the
// earliest line.
func (s *QueryService) Summary(ctx context.Context, opportunityID string) (*OpportunitySummary, error) {
	lines, err := s.GetByOpportunityID(ctx, opportunityID)
	if err != nil {
		return nil, err
	}
	first := lines[0]
	sum := &OpportunitySummary{
		OpportunityID:   first.OpportunityID,
		OpportunityName: first.OpportunityName,
		CompanyName:     first.CompanyName,
		Stage:           first.Stage,
		TotalItems:      len(lines),
	}
	for _, l := range lines {
		sum.TotalCost += l.Cost
	}
	sum.TotalCostText = FormatRupiah(sum.TotalCost)
	return sum, nil
}

// ActivityLogs newest first, scoped like ListVisible and capped at ActivityLogLimit.
func (s *QueryService) ActivityLogs(ctx context.Context, user string) ([]entity.ActivityLog, error) {
	const op = "list activity logs"
	ctx, cancel := readContext(ctx, s.opts)
	defer cancel()
	filter, err := accessFilter(ctx, s.store, op, s.opts.PrivilegedGroup, user)
	if err != nil {
		return nil, err
	}
	logs, err := s.store.ListAuditLogs(ctx, filter, s.opts.ActivityLogLimit)
	if err != nil {
		return nil, storageError(op, err)
	}
	return logs, nil
}
