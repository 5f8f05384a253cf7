package store

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/david/maintenance-analyzer/internal/models"
	"github.com/david/maintenance-analyzer/internal/vocab"
)

// Vocabulary changes never touch existing records. They only bump the
// generation so the uncategorized buckets are recomputed; applying a change
// to stored records is an explicit Recategorize.

func (s *Store) list(kind vocab.Kind) (*vocab.List, error) {
	switch kind {
	case vocab.KindFault:
		return s.faults, nil
	case vocab.KindMaterial:
		return s.materials, nil
	}
	return nil, fmt.Errorf("unknown vocabulary kind %q", kind)
}

// AddTerm adds a term to one vocabulary.
func (s *Store) AddTerm(kind vocab.Kind, text string) (vocab.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, err := s.list(kind)
	if err != nil {
		return vocab.Entry{}, err
	}
	e, err := l.Add(text)
	if err != nil {
		return vocab.Entry{}, err
	}
	s.invalidate()
	s.logger.Info("vocabulary term added", zap.String("kind", string(kind)), zap.String("text", e.Text))
	return e, nil
}

// DeleteTerm removes a term from one vocabulary.
func (s *Store) DeleteTerm(kind vocab.Kind, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, err := s.list(kind)
	if err != nil {
		return err
	}
	if err := l.Delete(id); err != nil {
		return err
	}
	s.invalidate()
	s.logger.Info("vocabulary term deleted", zap.String("kind", string(kind)), zap.String("id", id.String()))
	return nil
}

// ImportTerms adds every new term from items.
func (s *Store) ImportTerms(kind vocab.Kind, items []vocab.ImportItem) (vocab.ImportResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, err := s.list(kind)
	if err != nil {
		return vocab.ImportResult{}, err
	}
	res := l.Import(items)
	if res.Added > 0 {
		s.invalidate()
	}
	s.logger.Info("vocabulary imported",
		zap.String("kind", string(kind)),
		zap.Int("added", res.Added),
		zap.Int("skipped", res.Skipped))
	return res, nil
}

// ImportTermsFile imports a vocabulary JSON file. An empty path is a no-op.
func (s *Store) ImportTermsFile(kind vocab.Kind, path string) (vocab.ImportResult, error) {
	if path == "" {
		return vocab.ImportResult{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return vocab.ImportResult{}, fmt.Errorf("read %s vocabulary: %w", kind, err)
	}
	items, err := vocab.ParseImport(data)
	if err != nil {
		return vocab.ImportResult{}, fmt.Errorf("%s: %w", path, err)
	}
	return s.ImportTerms(kind, items)
}

// Terms returns the entries of one vocabulary in locale order.
func (s *Store) Terms(kind vocab.Kind) ([]vocab.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, err := s.list(kind)
	if err != nil {
		return nil, err
	}
	return l.Entries(), nil
}

// ExportTerms returns one vocabulary in portable form.
func (s *Store) ExportTerms(kind vocab.Kind) ([]vocab.ExportItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, err := s.list(kind)
	if err != nil {
		return nil, err
	}
	return l.Export(), nil
}

func (s *Store) AddFaultReason(text string) (vocab.Entry, error) {
	return s.AddTerm(vocab.KindFault, text)
}

func (s *Store) DeleteFaultReason(id uuid.UUID) error {
	return s.DeleteTerm(vocab.KindFault, id)
}

func (s *Store) ImportFaultReasons(items []vocab.ImportItem) (vocab.ImportResult, error) {
	return s.ImportTerms(vocab.KindFault, items)
}

func (s *Store) AddMaterialName(name string) (vocab.Entry, error) {
	return s.AddTerm(vocab.KindMaterial, name)
}

func (s *Store) DeleteMaterialName(id uuid.UUID) error {
	return s.DeleteTerm(vocab.KindMaterial, id)
}

func (s *Store) ImportMaterialNames(items []vocab.ImportItem) (vocab.ImportResult, error) {
	return s.ImportTerms(vocab.KindMaterial, items)
}

// FaultReasons returns the managed fault reasons in locale order.
func (s *Store) FaultReasons() []models.ManagedFaultReason {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.faults.FaultReasons()
}

// MaterialNames returns the managed material names in locale order.
func (s *Store) MaterialNames() []models.ManagedMaterialName {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.materials.MaterialNames()
}
