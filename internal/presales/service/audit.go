package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/lymau/lead-app/internal/presales/entity"
	"github.com/lymau/lead-app/internal/presales/repository"
)

// Audit field labels.
const (
	FieldNewOpportunity  = "New Opportunity"
	FieldCost            = "Cost"
	FieldNotes           = "Notes"
	FieldUIDRegeneration = "UID Regeneration"
)

// costTolerance keeps float noise from producing Cost entries.
const costTolerance = 0.01

// FieldChange one changed field of a line.
type FieldChange struct {
	Field    string
	OldValue string
	NewValue string
}

// Auditor writes activity log entries on the caller's transaction. A failed write
// fails the surrounding operation.
type Auditor struct {
	now func() time.Time
}

func NewAuditor(now func() time.Time) *Auditor {
	return &Auditor{now: now}
}

func (a *Auditor) append(ctx context.Context, store repository.Store, oppName, user, action, field, oldValue, newValue string) error {
	err := store.AppendAuditLog(ctx, &entity.ActivityLog{
		Timestamp:       a.now(),
		OpportunityName: oppName,
		UserName:        user,
		Action:          action,
		Field:           field,
		OldValue:        oldValue,
		NewValue:        newValue,
	})
	if err != nil {
		return fmt.Errorf("append audit log %s: %w", field, err)
	}
	return nil
}

// LogCreate records a submission summary.
func (a *Auditor) LogCreate(ctx context.Context, store repository.Store, oppName, user string, lineCount int, opportunityID string) error {
	return a.append(ctx, store, oppName, user, entity.ActionCreate, FieldNewOpportunity, "",
		fmt.Sprintf("Created %d lines. ID: %s", lineCount, opportunityID))
}

func (a *Auditor) LogFieldChange(ctx context.Context, store repository.Store, oppName, user, action, field, oldValue, newValue string) error {
	return a.append(ctx, store, oppName, user, action, field, oldValue, newValue)
}

func (a *Auditor) LogUIDRegeneration(ctx context.Context, store repository.Store, oppName, user, oldUID, newUID string) error {
	return a.append(ctx, store, oppName, user, entity.ActionEdit, FieldUIDRegeneration, oldUID, newUID)
}

// LogChanges writes one entry per change.
func (a *Auditor) LogChanges(ctx context.Context, store repository.Store, oppName, user, action string, changes []FieldChange) error {
	for _, c := range changes {
		if err := a.LogFieldChange(ctx, store, oppName, user, action, c.Field, c.OldValue, c.NewValue); err != nil {
			return err
		}
	}
	return nil
}

// DiffPartial compares cost and notes of a partial update.
func DiffPartial(old *entity.Opportunity, cost int64, notes string) []FieldChange {
	var changes []FieldChange
	if math.Abs(float64(old.Cost)-float64(cost)) > costTolerance {
		changes = append(changes, FieldChange{
			Field:    FieldCost,
			OldValue: FormatAmount(old.Cost),
			NewValue: FormatAmount(cost),
		})
	}
	if strings.TrimSpace(old.Notes) != strings.TrimSpace(notes) {
		changes = append(changes, FieldChange{
			Field:    FieldNotes,
			OldValue: old.Notes,
			NewValue: notes,
		})
	}
	return changes
}

// trackedFields in the order their changes are logged on a full edit.
var trackedFields = []struct {
	label string
	get   func(*entity.Opportunity) string
}{
	{"Sales Group", func(o *entity.Opportunity) string { return o.SalesGroupID }},
	{"Sales Name", func(o *entity.Opportunity) string { return o.SalesName }},
	{"PAM", func(o *entity.Opportunity) string { return o.ResponsibleName }},
	{"Pillar", func(o *entity.Opportunity) string { return o.Pillar }},
	{"Solution", func(o *entity.Opportunity) string { return o.Solution }},
	{"Service", func(o *entity.Opportunity) string { return o.Service }},
	{"Brand", func(o *entity.Opportunity) string { return o.Brand }},
	{"Company", func(o *entity.Opportunity) string { return o.CompanyName }},
	{"Distributor", func(o *entity.Opportunity) string { return o.DistributorName }},
}

// DiffFull compares the tracked fields of two versions of a line.
func DiffFull(old, next *entity.Opportunity) []FieldChange {
	var changes []FieldChange
	for _, f := range trackedFields {
		ov, nv := f.get(old), f.get(next)
		if ov != nv {
			changes = append(changes, FieldChange{Field: f.label, OldValue: ov, NewValue: nv})
		}
	}
	return changes
}
