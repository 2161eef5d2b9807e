// Package memstore is an in-process repository.Store. Transactions run against a
// snapshot and record their mutations; commit replays them on the latest committed
// state under the write lock, so a lost race surfaces as repository.ErrConflict the
// same way a unique violation does in the relational backends.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lymau/lead-app/internal/presales/entity"
	"github.com/lymau/lead-app/internal/presales/identity"
	"github.com/lymau/lead-app/internal/presales/repository"
)

type state struct {
	rowsByDesc map[string]string // description -> rows id
	descByRows map[string]string // rows id -> description
	headers    map[string]entity.SalesOpportunity
	lines      map[string]entity.Opportunity
	logs       []entity.ActivityLog
	pillars    []entity.MasterPillar
	brands     []entity.Brand
	companies  map[string]entity.Company
	presales   map[string]entity.Presales
	pam        map[string]string
}

func newState() *state {
	return &state{
		rowsByDesc: make(map[string]string),
		descByRows: make(map[string]string),
		headers:    make(map[string]entity.SalesOpportunity),
		lines:      make(map[string]entity.Opportunity),
		companies:  make(map[string]entity.Company),
		presales:   make(map[string]entity.Presales),
		pam:        make(map[string]string),
	}
}

func (s *state) clone() *state {
	c := &state{
		rowsByDesc: make(map[string]string, len(s.rowsByDesc)),
		descByRows: make(map[string]string, len(s.descByRows)),
		headers:    make(map[string]entity.SalesOpportunity, len(s.headers)),
		lines:      make(map[string]entity.Opportunity, len(s.lines)),
		logs:       append([]entity.ActivityLog(nil), s.logs...),
		pillars:    append([]entity.MasterPillar(nil), s.pillars...),
		brands:     append([]entity.Brand(nil), s.brands...),
		companies:  make(map[string]entity.Company, len(s.companies)),
		presales:   make(map[string]entity.Presales, len(s.presales)),
		pam:        make(map[string]string, len(s.pam)),
	}
	for k, v := range s.rowsByDesc {
		c.rowsByDesc[k] = v
	}
	for k, v := range s.descByRows {
		c.descByRows[k] = v
	}
	for k, v := range s.headers {
		c.headers[k] = v
	}
	for k, v := range s.lines {
		c.lines[k] = v
	}
	for k, v := range s.companies {
		c.companies[k] = v
	}
	for k, v := range s.presales {
		c.presales[k] = v
	}
	for k, v := range s.pam {
		c.pam[k] = v
	}
	return c
}

// op is one mutation. It must validate before it changes anything.
type op func(*state) error

type db struct {
	mu        sync.RWMutex
	committed *state
}

type txn struct {
	view *state
	ops  []op
}

// Store implements repository.Store in memory.
type Store struct {
	db *db
	tx *txn
}

var _ repository.Store = (*Store)(nil)

func New() *Store {
	return &Store{db: &db{committed: newState()}}
}

func (s *Store) Tx(ctx context.Context, fn func(repository.Store) error) error {
	if s.tx != nil {
		return fn(s)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.db.mu.RLock()
	view := s.db.committed.clone()
	s.db.mu.RUnlock()

	child := &Store{db: s.db, tx: &txn{view: view}}
	if err := fn(child); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.commit(child.tx.ops)
}

func (d *db) commit(ops []op) error {
	if len(ops) == 0 {
		return nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	next := d.committed.clone()
	for _, o := range ops {
		if err := o(next); err != nil {
			return err
		}
	}
	d.committed = next
	return nil
}

// apply runs o on the transaction view and records it for commit, or applies it to
// committed state directly outside a transaction.
func (s *Store) apply(ctx context.Context, o op) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.tx != nil {
		if err := o(s.tx.view); err != nil {
			return err
		}
		s.tx.ops = append(s.tx.ops, o)
		return nil
	}
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return o(s.db.committed)
}

// read runs fn against the state visible to this store.
func (s *Store) read(ctx context.Context, fn func(*state) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.tx != nil {
		return fn(s.tx.view)
	}
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	return fn(s.db.committed)
}

func (s *Store) FindRowsID(ctx context.Context, description string) (string, bool, error) {
	var rowsID string
	var ok bool
	err := s.read(ctx, func(st *state) error {
		rowsID, ok = st.rowsByDesc[description]
		return nil
	})
	return rowsID, ok, err
}

func (s *Store) AllocateOrGetRowsID(ctx context.Context, description string) (string, error) {
	var rowsID string
	err := s.read(ctx, func(st *state) error {
		if existing, ok := st.rowsByDesc[description]; ok {
			rowsID = existing
			return nil
		}
		highest := ""
		for id := range st.descByRows {
			if _, ok := identity.ParseRowsSeq(id); ok && id > highest {
				highest = id
			}
		}
		next, err := identity.NextRowsID(highest)
		if err != nil {
			return err
		}
		rowsID = next
		return nil
	})
	if err != nil {
		return "", err
	}

	err = s.apply(ctx, func(st *state) error {
		if existing, ok := st.rowsByDesc[description]; ok {
			if existing == rowsID {
				return nil
			}
			return fmt.Errorf("%w: description %q already bound to %s", repository.ErrConflict, description, existing)
		}
		if _, taken := st.descByRows[rowsID]; taken {
			return fmt.Errorf("%w: rows id %s already taken", repository.ErrConflict, rowsID)
		}
		st.rowsByDesc[description] = rowsID
		st.descByRows[rowsID] = description
		return nil
	})
	if err != nil {
		return "", err
	}
	return rowsID, nil
}

func (s *Store) LookupPillarCodes(ctx context.Context, pillar, solution, service string) (identity.PillarCodes, bool, error) {
	var codes identity.PillarCodes
	var ok bool
	err := s.read(ctx, func(st *state) error {
		for _, p := range st.pillars {
			if p.PillarName == pillar && p.SolutionName == solution && p.ServiceName == service {
				codes = identity.PillarCodes{Pillar: p.PillarID, Solution: p.SolutionID, Service: p.ServiceID}
				ok = true
				return nil
			}
		}
		return nil
	})
	return codes, ok, err
}

func (s *Store) LookupBrandCode(ctx context.Context, brand string) (string, bool, error) {
	var code string
	var ok bool
	err := s.read(ctx, func(st *state) error {
		for _, b := range st.brands {
			if b.BrandName == brand {
				code, ok = b.BrandID, true
				return nil
			}
		}
		return nil
	})
	return code, ok, err
}

func (s *Store) BrandChannels(ctx context.Context, brand string) ([]string, error) {
	var channels []string
	err := s.read(ctx, func(st *state) error {
		seen := make(map[string]bool)
		for _, b := range st.brands {
			if b.BrandName == brand && b.Channel != "" && !seen[b.Channel] {
				seen[b.Channel] = true
				channels = append(channels, b.Channel)
			}
		}
		sort.Strings(channels)
		return nil
	})
	return channels, err
}

func (s *Store) InsertHeaderIfAbsent(ctx context.Context, header *entity.SalesOpportunity) (bool, error) {
	h := *header
	if h.CreatedAt.IsZero() {
		h.CreatedAt = time.Now()
	}
	if h.UpdatedAt.IsZero() {
		h.UpdatedAt = h.CreatedAt
	}

	var inserted bool
	err := s.apply(ctx, func(st *state) error {
		if _, exists := st.headers[h.OpportunityID]; exists {
			inserted = false
			return nil
		}
		st.headers[h.OpportunityID] = h
		inserted = true
		return nil
	})
	return inserted, err
}

func (s *Store) InsertDetailLine(ctx context.Context, line *entity.Opportunity) error {
	l := *line
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now()
	}
	if l.UpdatedAt.IsZero() {
		l.UpdatedAt = l.CreatedAt
	}
	if l.Stage == "" {
		l.Stage = entity.StageOpen
	}
	return s.apply(ctx, func(st *state) error {
		if _, exists := st.lines[l.UID]; exists {
			return fmt.Errorf("%w: uid %s already exists", repository.ErrConflict, l.UID)
		}
		st.lines[l.UID] = l
		return nil
	})
}

func (s *Store) SelectByUID(ctx context.Context, uid string) (*entity.Opportunity, error) {
	var out *entity.Opportunity
	err := s.read(ctx, func(st *state) error {
		l, ok := st.lines[uid]
		if !ok {
			return repository.ErrNotFound
		}
		out = &l
		return nil
	})
	return out, err
}

func (s *Store) SelectByOpportunityID(ctx context.Context, opportunityID string) ([]entity.Opportunity, error) {
	var items []entity.Opportunity
	err := s.read(ctx, func(st *state) error {
		for _, l := range st.lines {
			if l.OpportunityID == opportunityID {
				items = append(items, l)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, repository.ErrNotFound
	}
	sort.Slice(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.Before(items[j].CreatedAt)
		}
		return items[i].UID < items[j].UID
	})
	return items, nil
}

func (s *Store) SelectAll(ctx context.Context, filter repository.AccessFilter) ([]entity.Opportunity, error) {
	var items []entity.Opportunity
	err := s.read(ctx, func(st *state) error {
		affinity, hasAffinity := repository.PillarAffinity[filter.Group]
		for _, l := range st.lines {
			visible := filter.Privileged
			if !visible {
				if p, ok := st.presales[l.PresalesName]; ok && p.AccessGroup == filter.Group {
					visible = true
				}
			}
			if !visible && hasAffinity && l.Pillar == affinity {
				visible = true
			}
			if visible {
				items = append(items, l)
			}
		}
		return nil
	})
	sort.Slice(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.After(items[j].CreatedAt)
		}
		return items[i].UID < items[j].UID
	})
	return items, err
}

func (s *Store) UpdateCostNotes(ctx context.Context, uid string, cost int64, notes string, at time.Time) error {
	return s.apply(ctx, func(st *state) error {
		l, ok := st.lines[uid]
		if !ok {
			return repository.ErrNotFound
		}
		l.Cost = cost
		l.Notes = notes
		l.UpdatedAt = at
		st.lines[uid] = l
		return nil
	})
}

func (s *Store) UpdateFullRecord(ctx context.Context, oldUID string, rec *entity.Opportunity) error {
	r := *rec
	return s.apply(ctx, func(st *state) error {
		l, ok := st.lines[oldUID]
		if !ok {
			return repository.ErrNotFound
		}
		if r.UID != oldUID {
			if _, taken := st.lines[r.UID]; taken {
				return fmt.Errorf("%w: uid %s already exists", repository.ErrConflict, r.UID)
			}
		}
		l.UID = r.UID
		l.OpportunityID = r.OpportunityID
		l.ProductID = r.ProductID
		l.SalesGroupID = r.SalesGroupID
		l.SalesName = r.SalesName
		l.ResponsibleName = r.ResponsibleName
		l.Pillar = r.Pillar
		l.Solution = r.Solution
		l.Service = r.Service
		l.Brand = r.Brand
		l.CompanyName = r.CompanyName
		l.VerticalIndustry = r.VerticalIndustry
		l.DistributorName = r.DistributorName
		l.UpdatedAt = r.UpdatedAt
		delete(st.lines, oldUID)
		st.lines[l.UID] = l
		return nil
	})
}

func (s *Store) AppendAuditLog(ctx context.Context, log *entity.ActivityLog) error {
	if log.ID == "" {
		log.ID = uuid.New().String()
	}
	entry := *log
	return s.apply(ctx, func(st *state) error {
		st.logs = append(st.logs, entry)
		return nil
	})
}

func (s *Store) ListAuditLogs(ctx context.Context, filter repository.AccessFilter, limit int) ([]entity.ActivityLog, error) {
	var items []entity.ActivityLog
	err := s.read(ctx, func(st *state) error {
		for _, l := range st.logs {
			if !filter.Privileged {
				p, ok := st.presales[l.UserName]
				if !ok || p.AccessGroup != filter.Group {
					continue
				}
			}
			items = append(items, l)
		}
		return nil
	})
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Timestamp.After(items[j].Timestamp)
	})
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, err
}

func (s *Store) AccessGroupOf(ctx context.Context, presalesName string) (string, error) {
	var group string
	err := s.read(ctx, func(st *state) error {
		p, ok := st.presales[presalesName]
		if !ok {
			return repository.ErrNotFound
		}
		group = p.AccessGroup
		return nil
	})
	return group, err
}

func (s *Store) PAMFor(ctx context.Context, inputter string) (string, bool, error) {
	var pam string
	var ok bool
	err := s.read(ctx, func(st *state) error {
		pam, ok = st.pam[inputter]
		return nil
	})
	return pam, ok, err
}

func (s *Store) EnsureCompany(ctx context.Context, name, verticalIndustry string) (bool, error) {
	var inserted bool
	err := s.apply(ctx, func(st *state) error {
		if _, exists := st.companies[name]; exists {
			inserted = false
			return nil
		}
		st.companies[name] = entity.Company{CompanyName: name, VerticalIndustry: verticalIndustry}
		inserted = true
		return nil
	})
	return inserted, err
}

func (s *Store) ListCompanies(ctx context.Context) ([]entity.Company, error) {
	var items []entity.Company
	err := s.read(ctx, func(st *state) error {
		for _, c := range st.companies {
			items = append(items, c)
		}
		return nil
	})
	sort.Slice(items, func(i, j int) bool { return items[i].CompanyName < items[j].CompanyName })
	return items, err
}

func (s *Store) ListPillars(ctx context.Context) ([]entity.MasterPillar, error) {
	var items []entity.MasterPillar
	err := s.read(ctx, func(st *state) error {
		items = append(items, st.pillars...)
		return nil
	})
	return items, err
}

func (s *Store) ListBrands(ctx context.Context) ([]entity.Brand, error) {
	var items []entity.Brand
	err := s.read(ctx, func(st *state) error {
		items = append(items, st.brands...)
		return nil
	})
	return items, err
}
