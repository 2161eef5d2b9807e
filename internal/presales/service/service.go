package service

import (
	"context"
	"errors"
	"time"

	"github.com/lymau/lead-app/internal/config"
	"github.com/lymau/lead-app/internal/presales/identity"
	"github.com/lymau/lead-app/internal/presales/pricing"
	"github.com/lymau/lead-app/internal/presales/repository"
	"github.com/lymau/lead-app/internal/shared/apperror"
	"github.com/lymau/lead-app/internal/shared/metrics"
	"github.com/lymau/lead-app/internal/shared/notify"
	"github.com/lymau/lead-app/internal/shared/objectstore"
	"go.uber.org/zap"
)

// Options tunes the read and write paths.
type Options struct {
	Location           *time.Location
	WriteTimeout       time.Duration
	ReadTimeout        time.Duration
	AllocationAttempts int
	PrivilegedGroup    string
	ActivityLogLimit   int
}

// OptionsFromConfig maps the presales config section.
func OptionsFromConfig(cfg config.PresalesConfig) Options {
	return Options{
		Location:           cfg.Location(),
		WriteTimeout:       cfg.WriteTimeout,
		ReadTimeout:        cfg.ReadTimeout,
		AllocationAttempts: cfg.AllocationAttempts,
		PrivilegedGroup:    cfg.PrivilegedGroup,
		ActivityLogLimit:   cfg.ActivityLogLimit,
	}
}

func (o Options) withDefaults() Options {
	if o.Location == nil {
		o.Location = time.FixedZone("WIB", 7*60*60)
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = 10 * time.Second
	}
	if o.ReadTimeout <= 0 {
		o.ReadTimeout = 5 * time.Second
	}
	if o.AllocationAttempts <= 0 {
		o.AllocationAttempts = 3
	}
	if o.PrivilegedGroup == "" {
		o.PrivilegedGroup = "TOP_MGMT"
	}
	if o.ActivityLogLimit <= 0 {
		o.ActivityLogLimit = 1000
	}
	return o
}

// Deps are the collaborators shared by the presales services. Nil optional fields
// fall back to no-op implementations.
type Deps struct {
	Store     repository.Store
	Converter *pricing.Converter
	Notifier  notify.Notifier
	Archiver  objectstore.Archiver
	Metrics   *metrics.Metrics
	Clock     identity.Clock
	Logger    *zap.Logger
}

// Services presales service set
type Services struct {
	Opportunity *OpportunityService
	Query       *QueryService
	Master      *MasterService
	Export      *ExportService
}

// NewServices creates the presales service set
func NewServices(deps Deps, opts Options) *Services {
	opts = opts.withDefaults()
	if deps.Converter == nil {
		deps.Converter = pricing.NewConverter(0, nil)
	}
	if deps.Notifier == nil {
		deps.Notifier = notify.Nop{}
	}
	if deps.Clock == nil {
		deps.Clock = identity.NewNanoClock()
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	query := NewQueryService(deps.Store, opts)
	return &Services{
		Opportunity: NewOpportunityService(deps, opts),
		Query:       query,
		Master:      NewMasterService(deps.Store, opts),
		Export:      NewExportService(query, deps.Archiver, opts.Location, deps.Logger),
	}
}

// storageError wraps a non-transactional read failure.
func storageError(op string, err error) error {
	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		return err
	}
	if errors.Is(err, repository.ErrNotFound) {
		return apperror.NotFound(op, "record not found")
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return apperror.Storage(op, "storage call timed out", err)
	}
	return apperror.Storage(op, "storage failure", err)
}
