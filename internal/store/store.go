// Package store keeps the transient record set and both managed vocabularies,
// and serves derived views that are recomputed lazily after any change.
package store

import (
	"cmp"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/david/maintenance-analyzer/internal/analysis"
	"github.com/david/maintenance-analyzer/internal/ingest"
	"github.com/david/maintenance-analyzer/internal/models"
	"github.com/david/maintenance-analyzer/internal/vocab"
)

// Recorder receives store activity; internal/metrics implements it.
type Recorder interface {
	RecordsIngested(valid, invalid int)
	RecordsDeleted(n int)
	Recategorized()
	RecordsCurrent(n int)
	BucketSizes(faults, materials int)
}

type nopRecorder struct{}

func (nopRecorder) RecordsIngested(int, int) {}
func (nopRecorder) RecordsDeleted(int)       {}
func (nopRecorder) Recategorized()           {}
func (nopRecorder) RecordsCurrent(int)       {}
func (nopRecorder) BucketSizes(int, int)     {}

// IngestResult summarizes one upload.
type IngestResult struct {
	Total          int      `json:"total"`
	Valid          int      `json:"valid"`
	Invalid        int      `json:"invalid"`
	ViolatedFields []string `json:"violated_fields"`
}

type ListParams struct {
	Filter
	Limit  int
	Offset int
}

type ListResult struct {
	Records []models.MaintenanceRecord `json:"records"`
	Total   int                        `json:"total"`
	Limit   int                        `json:"limit"`
	Offset  int                        `json:"offset"`
}

// Options are the selectable filter values derived from the data.
type Options struct {
	Venues    []string `json:"venues"`
	Areas     []string `json:"areas"`
	Years     []string `json:"years"`
	Months    []string `json:"months"`
	WorkTypes []string `json:"work_types"`
}

// Dashboard is the full dashboard view for one filter.
type Dashboard struct {
	Filter  Filter           `json:"filter"`
	Summary analysis.Summary `json:"summary"`
	Options Options          `json:"options"`
}

// Stats are headline counts for health and CLI output.
type Stats struct {
	Records                int `json:"records"`
	ValidRecords           int `json:"valid_records"`
	InvalidRecords         int `json:"invalid_records"`
	FaultReasons           int `json:"fault_reasons"`
	MaterialNames          int `json:"material_names"`
	UncategorizedFaults    int `json:"uncategorized_faults"`
	UncategorizedMaterials int `json:"uncategorized_materials"`
}

type cachedDashboard struct {
	generation uint64
	view       Dashboard
}

// Store owns the records and vocabularies. Every mutation bumps a generation
// counter; cached views built under an older generation are rebuilt on read.
type Store struct {
	mu       sync.Mutex
	logger   *zap.Logger
	recorder Recorder

	records   []models.MaintenanceRecord
	faults    *vocab.List
	materials *vocab.List

	generation uint64
	bucketsGen uint64
	buckets    *ingest.Buckets
	dashboards map[Filter]cachedDashboard
}

// Option configures a Store.
type Option func(*Store)

// WithRecorder reports store activity to r.
func WithRecorder(r Recorder) Option {
	return func(s *Store) {
		if r != nil {
			s.recorder = r
		}
	}
}

// New returns an empty store.
func New(logger *zap.Logger, opts ...Option) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{
		logger:     logger,
		recorder:   nopRecorder{},
		faults:     vocab.NewList(vocab.KindFault),
		materials:  vocab.NewList(vocab.KindMaterial),
		dashboards: map[Filter]cachedDashboard{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// invalidate must be called with mu held after any mutation.
func (s *Store) invalidate() {
	s.generation++
	s.recorder.RecordsCurrent(len(s.records))
}

func (s *Store) vocabulary() ingest.Vocabulary {
	return ingest.Vocabulary{
		FaultReasons:  s.faults.FaultReasons(),
		MaterialNames: s.materials.MaterialNames(),
	}
}

// Vocabulary returns a snapshot of both managed vocabularies.
func (s *Store) Vocabulary() ingest.Vocabulary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.vocabulary()
}

func sortNewestFirst(records []models.MaintenanceRecord) {
	slices.SortStableFunc(records, func(a, b models.MaintenanceRecord) int {
		return cmp.Compare(
			ingest.SortKey(b.RequestDate, b.RequestTime),
			ingest.SortKey(a.RequestDate, a.RequestTime),
		)
	})
}

// Ingest classifies uploaded rows with the current vocabularies and adds
// them to the store. Invalid rows are kept but excluded from every view.
func (s *Store) Ingest(rows []ingest.RawRow) IngestResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := s.vocabulary()
	res := IngestResult{Total: len(rows), ViolatedFields: []string{}}
	added := make([]models.MaintenanceRecord, 0, len(rows))
	for i, row := range rows {
		rec := ingest.FromRaw(row, i+1, v)
		if rec.IsValid {
			res.Valid++
		} else {
			res.Invalid++
			for _, code := range rec.ValidationErrors {
				label := ingest.ValidationLabel(code)
				if !slices.Contains(res.ViolatedFields, label) {
					res.ViolatedFields = append(res.ViolatedFields, label)
				}
			}
			s.logger.Warn("invalid record retained",
				zap.Int("original_index", rec.OriginalIndex),
				zap.Strings("validation_errors", rec.ValidationErrors))
		}
		added = append(added, rec)
	}

	next := make([]models.MaintenanceRecord, 0, len(s.records)+len(added))
	next = append(next, s.records...)
	next = append(next, added...)
	sortNewestFirst(next)
	s.records = next
	s.invalidate()

	s.recorder.RecordsIngested(res.Valid, res.Invalid)
	s.logger.Info("records ingested",
		zap.Int("valid", res.Valid),
		zap.Int("invalid", res.Invalid),
		zap.Int("total_records", len(s.records)))
	return res
}

// Records returns every record, newest first.
func (s *Store) Records() []models.MaintenanceRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.records)
}

// Filtered returns the valid records matching f, newest first.
func (s *Store) Filtered(f Filter) []models.MaintenanceRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return f.Apply(s.records)
}

// List returns one page of the records matching the filter. A non-positive
// limit returns every match.
func (s *Store) List(params ListParams) ListResult {
	matched := s.Filtered(params.Filter)

	offset := max(params.Offset, 0)
	if offset > len(matched) {
		offset = len(matched)
	}
	end := len(matched)
	if params.Limit > 0 && offset+params.Limit < end {
		end = offset + params.Limit
	}
	return ListResult{
		Records: matched[offset:end],
		Total:   len(matched),
		Limit:   params.Limit,
		Offset:  offset,
	}
}

// Get returns a single record.
func (s *Store) Get(id uuid.UUID) (models.MaintenanceRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.IndexFunc(s.records, func(r models.MaintenanceRecord) bool { return r.ID == id })
	if i < 0 {
		return models.MaintenanceRecord{}, fmt.Errorf("%s: %w", id, ErrRecordNotFound)
	}
	return s.records[i], nil
}

// Delete removes a single record.
func (s *Store) Delete(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.IndexFunc(s.records, func(r models.MaintenanceRecord) bool { return r.ID == id })
	if i < 0 {
		return fmt.Errorf("%s: %w", id, ErrRecordNotFound)
	}
	next := make([]models.MaintenanceRecord, 0, len(s.records)-1)
	next = append(next, s.records[:i]...)
	next = append(next, s.records[i+1:]...)
	s.records = next
	s.invalidate()
	s.recorder.RecordsDeleted(1)
	s.logger.Info("record deleted", zap.String("id", id.String()))
	return nil
}

// DeleteWhere removes every record matching f in one step and returns how
// many were removed. Invalid records never match a filter.
func (s *Store) DeleteWhere(f Filter) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := make([]models.MaintenanceRecord, 0, len(s.records))
	for _, r := range s.records {
		if !f.Match(r) {
			kept = append(kept, r)
		}
	}
	removed := len(s.records) - len(kept)
	if removed == 0 {
		return 0
	}
	s.records = kept
	s.invalidate()
	s.recorder.RecordsDeleted(removed)
	s.logger.Info("records deleted", zap.Int("count", removed), zap.Any("filter", f))
	return removed
}

// Recategorize reclassifies every record with the current vocabularies and
// replaces the record set in one step.
func (s *Store) Recategorize() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.records) == 0 {
		return 0, ErrNoRecords
	}
	next := ingest.Recategorize(s.records, s.vocabulary())
	sortNewestFirst(next)
	s.records = next
	s.invalidate()
	s.recorder.Recategorized()
	s.logger.Info("records recategorized", zap.Int("count", len(next)))
	return len(next), nil
}

// Buckets returns the uncategorized fault descriptions and material strings
// of the valid records.
func (s *Store) Buckets() ingest.Buckets {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bucketsLocked()
}

func (s *Store) bucketsLocked() ingest.Buckets {
	if s.buckets == nil || s.bucketsGen != s.generation {
		b := ingest.ComputeBuckets(analysis.Valid(s.records), s.vocabulary())
		s.buckets = &b
		s.bucketsGen = s.generation
		s.recorder.BucketSizes(len(b.FaultDescriptions), len(b.MaterialStrings))
	}
	return *s.buckets
}

// Dashboard returns the aggregations for f. The free-text search is ignored.
func (s *Store) Dashboard(f Filter) Dashboard {
	f = f.WithoutSearch()

	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.dashboards[f]; ok && c.generation == s.generation {
		return c.view
	}

	filtered := f.Apply(s.records)
	view := Dashboard{
		Filter:  f,
		Summary: analysis.BuildSummary(filtered, s.records, f.Year, f.Month),
		Options: Options{
			Venues:    analysis.VenueOptions(s.records),
			Areas:     analysis.AreaOptions(s.records, f.Venue),
			Years:     analysis.YearOptions(s.records),
			Months:    analysis.MonthOptions(s.records, f.Year),
			WorkTypes: analysis.WorkTypeOptions(s.records),
		},
	}
	for k, c := range s.dashboards {
		if c.generation != s.generation {
			delete(s.dashboards, k)
		}
	}
	s.dashboards[f] = cachedDashboard{generation: s.generation, view: view}
	return view
}

// Stats returns headline counts.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	b := s.bucketsLocked()
	valid := len(analysis.Valid(s.records))
	return Stats{
		Records:                len(s.records),
		ValidRecords:           valid,
		InvalidRecords:         len(s.records) - valid,
		FaultReasons:           s.faults.Len(),
		MaterialNames:          s.materials.Len(),
		UncategorizedFaults:    len(b.FaultDescriptions),
		UncategorizedMaterials: len(b.MaterialStrings),
	}
}
