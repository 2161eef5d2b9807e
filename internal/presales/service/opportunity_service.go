package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/lymau/lead-app/internal/presales/entity"
	"github.com/lymau/lead-app/internal/presales/identity"
	"github.com/lymau/lead-app/internal/presales/pricing"
	"github.com/lymau/lead-app/internal/presales/repository"
	"github.com/lymau/lead-app/internal/shared/apperror"
	"github.com/lymau/lead-app/internal/shared/metrics"
	"github.com/lymau/lead-app/internal/shared/notify"
	"go.uber.org/zap"
)

// TransitionKind tells whether a full edit kept or replaced the line's uid.
type TransitionKind string

const (
	TransitionStable     TransitionKind = "stable"
	TransitionReassigned TransitionKind = "reassigned"
)

// IdentityTransition result of a full edit. Callers must switch to NewUID when
// Kind is TransitionReassigned; the old uid no longer resolves.
type IdentityTransition struct {
	Kind   TransitionKind `json:"kind"`
	OldUID string         `json:"old_uid"`
	NewUID string         `json:"new_uid"`
}

// SubmitResult identifiers produced by a submission.
type SubmitResult struct {
	OpportunityID string   `json:"opportunity_id"`
	RowsID        string   `json:"rows_id"`
	LineUIDs      []string `json:"line_uids"`
	HeaderCreated bool     `json:"header_created"`
	CompanyAdded  bool     `json:"company_added"`
}

// OpportunityService write orchestrator: every public operation is one transaction,
// re-run from scratch when it loses a unique constraint race.
type OpportunityService struct {
	store     repository.Store
	converter *pricing.Converter
	notifier  notify.Notifier
	metrics   *metrics.Metrics
	clock     identity.Clock
	auditor   *Auditor
	opts      Options
	logger    *zap.Logger
}

func NewOpportunityService(deps Deps, opts Options) *OpportunityService {
	opts = opts.withDefaults()
	s := &OpportunityService{
		store:     deps.Store,
		converter: deps.Converter,
		notifier:  deps.Notifier,
		metrics:   deps.Metrics,
		clock:     deps.Clock,
		opts:      opts,
		logger:    deps.Logger,
	}
	if s.converter == nil {
		s.converter = pricing.NewConverter(0, nil)
	}
	if s.notifier == nil {
		s.notifier = notify.Nop{}
	}
	if s.clock == nil {
		s.clock = identity.NewNanoClock()
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	s.auditor = NewAuditor(s.now)
	return s
}

func (s *OpportunityService) now() time.Time {
	return time.Now().In(s.opts.Location)
}

// runWrite runs fn in a transaction bounded by the write timeout, re-running it on
// repository.ErrConflict up to AllocationAttempts times, and classifies the final error.
func (s *OpportunityService) runWrite(ctx context.Context, op string, fn func(tx repository.Store) error) error {
	defer s.metrics.ObserveWrite(op, time.Now())

	ctx, cancel := context.WithTimeout(ctx, s.opts.WriteTimeout)
	defer cancel()

	var err error
	for attempt := 1; attempt <= s.opts.AllocationAttempts; attempt++ {
		err = s.store.Tx(ctx, fn)
		if err == nil {
			return nil
		}
		if !errors.Is(err, repository.ErrConflict) || ctx.Err() != nil {
			break
		}
		s.metrics.Conflict()
		s.logger.Warn("write conflict, re-running transaction",
			zap.String("op", op),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
	}
	return classifyWriteError(op, err)
}

func classifyWriteError(op string, err error) error {
	var appErr *apperror.Error
	switch {
	case errors.As(err, &appErr):
		return err
	case errors.Is(err, repository.ErrNotFound):
		return apperror.NotFound(op, "record not found")
	case errors.Is(err, identity.ErrRowsIDExhausted):
		return apperror.Exhausted(op, "no rows id left for a new opportunity name", err)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return apperror.Storage(op, "transaction aborted before commit", err)
	case errors.Is(err, repository.ErrConflict):
		return apperror.Conflict(op, "concurrent write conflict persisted after retries", err)
	default:
		return apperror.Storage(op, "transaction rolled back", err)
	}
}

// SubmitOpportunity creates one header and all lines of a new opportunity atomically.
func (s *OpportunityService) SubmitOpportunity(ctx context.Context, parent ParentInput, lines []LineInput) (*SubmitResult, error) {
	const op = "submit opportunity"

	prepared, err := s.prepareSubmission(ctx, parent, lines)
	if err != nil {
		s.metrics.Submission(string(apperror.KindOf(err)))
		return nil, err
	}
	p := prepared.parent

	var result *SubmitResult
	err = s.runWrite(ctx, op, func(tx repository.Store) error {
		res := &SubmitResult{}
		createdAt := s.now()

		if p.NewCompany {
			added, err := tx.EnsureCompany(ctx, p.CompanyName, p.VerticalIndustry)
			if err != nil {
				return err
			}
			res.CompanyAdded = added
		}

		rowsID, err := tx.AllocateOrGetRowsID(ctx, p.OpportunityName)
		if err != nil {
			return err
		}
		res.RowsID = rowsID
		res.OpportunityID = identity.OpportunityID(p.SalesGroupID, rowsID)

		res.HeaderCreated, err = tx.InsertHeaderIfAbsent(ctx, &entity.SalesOpportunity{
			OpportunityID:   res.OpportunityID,
			OpportunityName: p.OpportunityName,
			SalesGroupID:    p.SalesGroupID,
			SalesName:       p.SalesName,
			CompanyName:     p.CompanyName,
			Stage:           p.Stage,
			CreatedAt:       createdAt,
			UpdatedAt:       createdAt,
		})
		if err != nil {
			return err
		}

		for _, tmpl := range prepared.lines {
			code, err := identity.ProductCode(ctx, tx, identity.ProductKey{
				Pillar:   tmpl.Pillar,
				Solution: tmpl.Solution,
				Service:  tmpl.Service,
				Brand:    tmpl.Brand,
			})
			if err != nil {
				return err
			}

			line := tmpl
			line.UID = identity.UID(res.OpportunityID, code, s.clock.Next())
			line.OpportunityID = res.OpportunityID
			line.ProductID = code
			line.PresalesName = p.PresalesName
			line.SalesGroupID = p.SalesGroupID
			line.SalesName = p.SalesName
			line.ResponsibleName = p.ResponsibleName
			line.OpportunityName = p.OpportunityName
			line.StartDate = prepared.startDate
			line.CompanyName = p.CompanyName
			line.VerticalIndustry = p.VerticalIndustry
			line.Stage = p.Stage
			line.CreatedAt = createdAt
			line.UpdatedAt = createdAt

			if err := tx.InsertDetailLine(ctx, &line); err != nil {
				return err
			}
			res.LineUIDs = append(res.LineUIDs, line.UID)
		}

		if err := s.auditor.LogCreate(ctx, tx, p.OpportunityName, p.PresalesName, len(res.LineUIDs), res.OpportunityID); err != nil {
			return err
		}
		result = res
		return nil
	})
	if err != nil {
		s.metrics.Submission(string(apperror.KindOf(err)))
		s.logger.Error("submit opportunity failed",
			zap.String("opportunity_name", p.OpportunityName),
			zap.String("presales_name", p.PresalesName),
			zap.Error(err),
		)
		return nil, err
	}

	s.metrics.Submission("ok")
	s.metrics.Lines(len(result.LineUIDs))
	s.logger.Info("opportunity created",
		zap.String("opportunity_id", result.OpportunityID),
		zap.String("presales_name", p.PresalesName),
		zap.Int("lines", len(result.LineUIDs)),
	)
	s.announce(ctx, result, prepared)
	return result, nil
}

// announce is best-effort; the submission is already committed.
func (s *OpportunityService) announce(ctx context.Context, res *SubmitResult, p *preparedSubmission) {
	notice := notify.OpportunityCreated{
		OpportunityID:   res.OpportunityID,
		OpportunityName: p.parent.OpportunityName,
		CompanyName:     p.parent.CompanyName,
		SalesName:       p.parent.SalesName,
		SalesGroupID:    p.parent.SalesGroupID,
		PresalesName:    p.parent.PresalesName,
	}
	for _, l := range p.lines {
		notice.Lines = append(notice.Lines, notify.OpportunityLine{
			Solution: l.Solution,
			Brand:    l.Brand,
			Cost:     FormatAmount(l.Cost),
		})
	}
	if err := s.notifier.OpportunityCreated(ctx, notice); err != nil {
		s.logger.Warn("opportunity notification failed",
			zap.String("opportunity_id", res.OpportunityID),
			zap.Error(err),
		)
	}
}

// PartialUpdate overwrites cost and notes of one line and audits what changed.
func (s *OpportunityService) PartialUpdate(ctx context.Context, uid string, in PartialUpdateInput, actingUser string) error {
	const op = "partial update"

	uid = strings.TrimSpace(uid)
	if uid == "" {
		return apperror.Validation(op, "uid is required")
	}
	if in.Cost < 0 {
		return apperror.Validation(op, "cost must not be negative")
	}

	err := s.runWrite(ctx, op, func(tx repository.Store) error {
		old, err := tx.SelectByUID(ctx, uid)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return apperror.NotFound(op, "uid "+uid+" not found")
			}
			return err
		}

		if err := tx.UpdateCostNotes(ctx, uid, in.Cost, in.Notes, s.now()); err != nil {
			return err
		}
		return s.auditor.LogChanges(ctx, tx, old.OpportunityName, actingUser, entity.ActionUpdate, DiffPartial(old, in.Cost, in.Notes))
	})
	if err != nil {
		return err
	}
	s.metrics.Edit("partial", string(TransitionStable))
	return nil
}

// FullEdit rewrites the editable fields of a line and re-derives its identity. When
// sales group or any product code input changes, the line moves to a new uid that
// keeps the old timestamp suffix; created_at, cost, notes and stage are preserved.
func (s *OpportunityService) FullEdit(ctx context.Context, uid string, in FullEditInput, actingUser string) (*IdentityTransition, error) {
	const op = "full edit"

	uid = strings.TrimSpace(uid)
	if uid == "" {
		return nil, apperror.Validation(op, "uid is required")
	}
	in.normalize()
	if err := in.validate(op); err != nil {
		return nil, err
	}

	var transition *IdentityTransition
	err := s.runWrite(ctx, op, func(tx repository.Store) error {
		old, err := tx.SelectByUID(ctx, uid)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return apperror.NotFound(op, "uid "+uid+" not found")
			}
			return err
		}

		rowsID, ok, err := tx.FindRowsID(ctx, old.OpportunityName)
		if err != nil {
			return err
		}
		if !ok {
			rowsID = identity.ExtractRowsID(old.OpportunityID)
		}
		opportunityID := identity.OpportunityID(in.SalesGroupID, rowsID)

		code, err := identity.ProductCode(ctx, tx, identity.ProductKey{
			Pillar:   in.Pillar,
			Solution: in.Solution,
			Service:  in.Service,
			Brand:    in.Brand,
		})
		if err != nil {
			return err
		}

		now := s.now()
		next := *old
		next.UID = identity.RewriteUID(old.UID, opportunityID, code)
		next.OpportunityID = opportunityID
		next.ProductID = code
		next.SalesGroupID = in.SalesGroupID
		next.SalesName = in.SalesName
		next.ResponsibleName = in.ResponsibleName
		next.Pillar = in.Pillar
		next.Solution = in.Solution
		next.Service = in.Service
		next.Brand = in.Brand
		next.CompanyName = in.CompanyName
		next.VerticalIndustry = in.VerticalIndustry
		next.DistributorName = in.DistributorName
		next.UpdatedAt = now

		if err := tx.UpdateFullRecord(ctx, old.UID, &next); err != nil {
			return err
		}

		if opportunityID != old.OpportunityID {
			_, err := tx.InsertHeaderIfAbsent(ctx, &entity.SalesOpportunity{
				OpportunityID:   opportunityID,
				OpportunityName: old.OpportunityName,
				SalesGroupID:    in.SalesGroupID,
				SalesName:       in.SalesName,
				CompanyName:     in.CompanyName,
				Stage:           old.Stage,
				CreatedAt:       now,
				UpdatedAt:       now,
			})
			if err != nil {
				return err
			}
		}

		if err := s.auditor.LogChanges(ctx, tx, old.OpportunityName, actingUser, entity.ActionEdit, DiffFull(old, &next)); err != nil {
			return err
		}

		t := &IdentityTransition{Kind: TransitionStable, OldUID: old.UID, NewUID: next.UID}
		if next.UID != old.UID {
			t.Kind = TransitionReassigned
			if err := s.auditor.LogUIDRegeneration(ctx, tx, old.OpportunityName, actingUser, old.UID, next.UID); err != nil {
				return err
			}
		}
		transition = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.Edit("full", string(transition.Kind))
	if transition.Kind == TransitionReassigned {
		s.logger.Info("opportunity line reassigned",
			zap.String("old_uid", transition.OldUID),
			zap.String("new_uid", transition.NewUID),
			zap.String("user", actingUser),
		)
	}
	return transition, nil
}
