package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lymau/lead-app/internal/presales/entity"
	"github.com/lymau/lead-app/internal/presales/repository"
	"github.com/lymau/lead-app/internal/shared/apperror"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

const (
	pillarMaintenance      = "Maintenance Services"
	pillarManaged          = "Managed Services"
	solutionImplementation = "Implementation Support"
	defaultImplService     = "InHouse"

	// PAMFlexible marks inputters who pick their PAM per submission.
	PAMFlexible = "FLEKSIBEL"
	// PAMNotAssigned is used when the inputter has no PAM mapping.
	PAMNotAssigned = "Not Assigned"

	dateLayout = "2006-01-02"
)

// ParentInput header fields of a submission.
type ParentInput struct {
	PresalesName     string `json:"presales_name"`
	SalesGroupID     string `json:"salesgroup_id"`
	SalesName        string `json:"sales_name"`
	ResponsibleName  string `json:"responsible_name"`
	OpportunityName  string `json:"opportunity_name"`
	StartDate        string `json:"start_date"` // YYYY-MM-DD, today when empty
	CompanyName      string `json:"company_name"`
	VerticalIndustry string `json:"vertical_industry"`
	Stage            string `json:"stage"`
	// NewCompany saves CompanyName to master data in the same transaction.
	NewCompany bool `json:"new_company"`
}

// LineInput one solution line. Cost is IDR; with Currency USD the Amount is converted instead.
type LineInput struct {
	Pillar          string               `json:"pillar"`
	Solution        string               `json:"solution"`
	Service         string               `json:"service"`
	PillarProduct   string               `json:"pillar_product"`
	SolutionProduct string               `json:"solution_product"`
	Brand           string               `json:"brand"`
	Channel         string               `json:"channel"`
	DistributorName string               `json:"distributor_name"`
	Cost            int64                `json:"cost"`
	Currency        string               `json:"currency"`
	Amount          decimal.Decimal      `json:"amount"`
	Notes           string               `json:"notes"`
	Implementation  *ImplementationInput `json:"implementation,omitempty"`
}

// ImplementationInput requests an Implementation Support line next to its parent line.
type ImplementationInput struct {
	Service string `json:"service"`
	Cost    int64  `json:"cost"`
	Notes   string `json:"notes"`
}

type PartialUpdateInput struct {
	Cost  int64  `json:"cost"`
	Notes string `json:"notes"`
}

// FullEditInput replaces the editable fields of a line. Identity fields are required.
type FullEditInput struct {
	SalesGroupID     string `json:"salesgroup_id"`
	SalesName        string `json:"sales_name"`
	ResponsibleName  string `json:"responsible_name"`
	Pillar           string `json:"pillar"`
	Solution         string `json:"solution"`
	Service          string `json:"service"`
	Brand            string `json:"brand"`
	CompanyName      string `json:"company_name"`
	VerticalIndustry string `json:"vertical_industry"`
	DistributorName  string `json:"distributor_name"`
}

func (in *FullEditInput) normalize() {
	in.SalesGroupID = strings.TrimSpace(in.SalesGroupID)
	in.SalesName = strings.TrimSpace(in.SalesName)
	in.ResponsibleName = strings.TrimSpace(in.ResponsibleName)
	in.Pillar = strings.TrimSpace(in.Pillar)
	in.Solution = strings.TrimSpace(in.Solution)
	in.Service = strings.TrimSpace(in.Service)
	in.Brand = strings.TrimSpace(in.Brand)
	in.CompanyName = strings.TrimSpace(in.CompanyName)
	in.VerticalIndustry = strings.TrimSpace(in.VerticalIndustry)
	in.DistributorName = strings.TrimSpace(in.DistributorName)
}

func (in FullEditInput) validate(op string) error {
	var missing []string
	for _, f := range []struct{ name, value string }{
		{"salesgroup_id", in.SalesGroupID},
		{"pillar", in.Pillar},
		{"solution", in.Solution},
		{"service", in.Service},
		{"brand", in.Brand},
		{"company_name", in.CompanyName},
	} {
		if f.value == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return apperror.Validation(op, "missing required fields: "+strings.Join(missing, ", "))
	}
	return nil
}

// preparedSubmission is a validated submission ready to be written.
type preparedSubmission struct {
	parent    ParentInput
	startDate datatypes.Date
	lines     []entity.Opportunity
}

// prepareSubmission validates and expands a submission. It only reads master data,
// so nothing is written when it fails.
func (s *OpportunityService) prepareSubmission(ctx context.Context, parent ParentInput, lines []LineInput) (*preparedSubmission, error) {
	const op = "submit opportunity"

	parent.PresalesName = strings.TrimSpace(parent.PresalesName)
	parent.SalesGroupID = strings.TrimSpace(parent.SalesGroupID)
	parent.SalesName = strings.TrimSpace(parent.SalesName)
	parent.ResponsibleName = strings.TrimSpace(parent.ResponsibleName)
	parent.OpportunityName = strings.TrimSpace(parent.OpportunityName)
	parent.CompanyName = strings.TrimSpace(parent.CompanyName)
	parent.VerticalIndustry = strings.TrimSpace(parent.VerticalIndustry)
	parent.Stage = strings.TrimSpace(parent.Stage)

	if parent.OpportunityName == "" {
		return nil, apperror.Validation(op, "opportunity_name is required")
	}
	if parent.CompanyName == "" {
		return nil, apperror.Validation(op, "company_name is required")
	}
	if parent.PresalesName == "" {
		return nil, apperror.Validation(op, "presales_name is required")
	}
	if len(lines) == 0 {
		return nil, apperror.Validation(op, "at least one solution line is required")
	}

	switch parent.Stage {
	case "":
		parent.Stage = entity.StageOpen
	case entity.StageOpen, entity.StageClosedWon, entity.StageClosedLost:
	default:
		return nil, apperror.Validation(op, fmt.Sprintf("invalid stage %q", parent.Stage))
	}

	start := s.now()
	if parent.StartDate != "" {
		t, err := time.ParseInLocation(dateLayout, parent.StartDate, s.opts.Location)
		if err != nil {
			return nil, apperror.Validation(op, "start_date must be YYYY-MM-DD")
		}
		start = t
	}

	if parent.ResponsibleName == "" {
		pam, err := s.resolvePAM(ctx, op, parent.PresalesName)
		if err != nil {
			return nil, err
		}
		parent.ResponsibleName = pam
	}

	p := &preparedSubmission{parent: parent, startDate: datatypes.Date(start)}
	for i, in := range lines {
		expanded, err := s.prepareLine(ctx, op, i+1, in)
		if err != nil {
			return nil, err
		}
		p.lines = append(p.lines, expanded...)
	}
	return p, nil
}

func (s *OpportunityService) resolvePAM(ctx context.Context, op, inputter string) (string, error) {
	pam, ok, err := s.store.PAMFor(ctx, inputter)
	if err != nil {
		return "", storageError(op, err)
	}
	if !ok || pam == "" {
		return PAMNotAssigned, nil
	}
	if pam == PAMFlexible {
		return "", apperror.Validation(op, "responsible_name is required for inputters with a flexible PAM")
	}
	return pam, nil
}

// prepareLine validates one line and returns it plus its Implementation Support companion, if any.
func (s *OpportunityService) prepareLine(ctx context.Context, op string, n int, in LineInput) ([]entity.Opportunity, error) {
	in.Pillar = strings.TrimSpace(in.Pillar)
	in.Solution = strings.TrimSpace(in.Solution)
	in.Service = strings.TrimSpace(in.Service)
	in.Brand = strings.TrimSpace(in.Brand)
	in.Channel = strings.TrimSpace(in.Channel)
	in.DistributorName = strings.TrimSpace(in.DistributorName)

	if in.Pillar == "" || in.Solution == "" || in.Service == "" {
		return nil, apperror.Validation(op, fmt.Sprintf("line %d: pillar, solution and service are required", n))
	}
	if in.Cost < 0 {
		return nil, apperror.Validation(op, fmt.Sprintf("line %d: cost must not be negative", n))
	}

	amount := decimal.NewFromInt(in.Cost)
	if strings.EqualFold(strings.TrimSpace(in.Currency), "USD") {
		amount = in.Amount
	}
	cost, err := s.converter.ToIDR(amount, in.Currency, in.Brand)
	if err != nil {
		return nil, apperror.Validation(op, fmt.Sprintf("line %d: %v", n, err))
	}

	line := entity.Opportunity{
		Pillar:          in.Pillar,
		Solution:        in.Solution,
		Service:         in.Service,
		Brand:           in.Brand,
		Channel:         in.Channel,
		DistributorName: in.DistributorName,
		Cost:            cost,
		Notes:           strings.TrimSpace(in.Notes),
	}

	if in.Pillar == pillarMaintenance {
		pp, sp := strings.TrimSpace(in.PillarProduct), strings.TrimSpace(in.SolutionProduct)
		if pp == "" || sp == "" {
			return nil, apperror.Validation(op, fmt.Sprintf("line %d: pillar_product and solution_product are required for %s", n, pillarMaintenance))
		}
		line.PillarProduct, line.SolutionProduct = &pp, &sp
	}

	if in.Brand != "" {
		channels, err := s.store.BrandChannels(ctx, in.Brand)
		if err != nil {
			return nil, storageError(op, err)
		}
		if len(channels) > 0 && in.Channel == "" {
			return nil, apperror.Validation(op, fmt.Sprintf("line %d: channel is required for brand %s (%s)", n, in.Brand, strings.Join(channels, ", ")))
		}
	}

	out := []entity.Opportunity{line}
	if in.Implementation == nil {
		return out, nil
	}

	impl := in.Implementation
	switch {
	case in.Pillar == pillarMaintenance || in.Pillar == pillarManaged:
		return nil, apperror.Validation(op, fmt.Sprintf("line %d: implementation support is not available for %s", n, in.Pillar))
	case strings.Contains(in.Solution, solutionImplementation):
		return nil, apperror.Validation(op, fmt.Sprintf("line %d: line is already implementation support", n))
	case cost == 0:
		return nil, apperror.Validation(op, fmt.Sprintf("line %d: implementation support needs a line with cost", n))
	case impl.Cost < 0:
		return nil, apperror.Validation(op, fmt.Sprintf("line %d: implementation cost must not be negative", n))
	}

	svc := strings.TrimSpace(impl.Service)
	if svc == "" {
		svc = defaultImplService
	}
	notes := "Implementation for " + in.Solution
	if custom := strings.TrimSpace(impl.Notes); custom != "" {
		notes += " - " + custom
	}
	out = append(out, entity.Opportunity{
		Pillar:          in.Pillar,
		Solution:        solutionImplementation,
		Service:         svc,
		Brand:           in.Brand,
		Channel:         in.Channel,
		DistributorName: in.DistributorName,
		Cost:            impl.Cost,
		Notes:           notes,
	})
	return out, nil
}

// accessFilter resolves the acting user's group into a list filter.
func accessFilter(ctx context.Context, store repository.Store, op, privilegedGroup, user string) (repository.AccessFilter, error) {
	if strings.TrimSpace(user) == "" {
		return repository.AccessFilter{}, apperror.Validation(op, "acting user is required")
	}
	group, err := store.AccessGroupOf(ctx, user)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return repository.AccessFilter{}, apperror.NotFound(op, fmt.Sprintf("user %s has no access group", user))
		}
		return repository.AccessFilter{}, storageError(op, err)
	}
	return repository.AccessFilter{Group: group, Privileged: group == privilegedGroup}, nil
}
