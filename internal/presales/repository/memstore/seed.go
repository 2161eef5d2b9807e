package memstore

import "github.com/lymau/lead-app/internal/presales/entity"

// Master data setters. They bypass transactions and are meant for bootstrapping.

func (s *Store) PutPillar(p entity.MasterPillar) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	s.db.committed.pillars = append(s.db.committed.pillars, p)
}

func (s *Store) PutBrand(b entity.Brand) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	s.db.committed.brands = append(s.db.committed.brands, b)
}

func (s *Store) PutPresales(p entity.Presales) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	s.db.committed.presales[p.PresalesName] = p
}

func (s *Store) PutPAM(inputter, pam string) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	s.db.committed.pam[inputter] = pam
}

func (s *Store) PutDescription(rowsID, description string) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	s.db.committed.rowsByDesc[description] = rowsID
	s.db.committed.descByRows[rowsID] = description
}
