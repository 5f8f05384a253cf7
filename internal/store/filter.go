package store

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/david/maintenance-analyzer/internal/models"
)

// Filter narrows the valid records shown in lists, dashboards and exports.
// Empty fields match everything.
type Filter struct {
	Search   string `json:"search,omitempty" query:"search"`
	Venue    string `json:"venue,omitempty" query:"venue"`
	Area     string `json:"area,omitempty" query:"area"`
	WorkType string `json:"work_type,omitempty" query:"work_type"`
	Year     string `json:"year,omitempty" query:"year"`
	Month    string `json:"month,omitempty" query:"month"`
}

// IsZero reports whether no criterion is set.
func (f Filter) IsZero() bool {
	return f == Filter{}
}

// WithoutSearch drops the free-text criterion; dashboards ignore it.
func (f Filter) WithoutSearch() Filter {
	f.Search = ""
	return f
}

// Validate rejects a month outside 1..12.
func (f Filter) Validate() error {
	if f.Month == "" {
		return nil
	}
	m, err := strconv.Atoi(f.Month)
	if err != nil || m < 1 || m > 12 {
		return fmt.Errorf("%w: month %q", ErrInvalidFilter, f.Month)
	}
	return nil
}

// Match reports whether a record is valid and satisfies every criterion.
func (f Filter) Match(r models.MaintenanceRecord) bool {
	if !r.IsValid {
		return false
	}
	if f.Year != "" && !strings.HasPrefix(r.RequestDate, f.Year) {
		return false
	}
	if f.Month != "" {
		if len(r.RequestDate) < 7 || r.RequestDate[5:7] != padMonth(f.Month) {
			return false
		}
	}
	if f.Search != "" && !matchesSearch(r, strings.ToLower(f.Search)) {
		return false
	}
	if f.Venue != "" && r.Venue != f.Venue {
		return false
	}
	if f.Area != "" && r.Area != f.Area {
		return false
	}
	if f.WorkType != "" && r.WorkTypeClassification != f.WorkType {
		return false
	}
	return true
}

// Apply returns the matching records in their current order.
func (f Filter) Apply(records []models.MaintenanceRecord) []models.MaintenanceRecord {
	out := make([]models.MaintenanceRecord, 0, len(records))
	for _, r := range records {
		if f.Match(r) {
			out = append(out, r)
		}
	}
	return out
}

func padMonth(m string) string {
	if len(m) == 1 {
		return "0" + m
	}
	return m
}

func matchesSearch(r models.MaintenanceRecord, term string) bool {
	if strings.Contains(strings.ToLower(r.FaultDescription), term) ||
		strings.Contains(strings.ToLower(r.HandlingStatus), term) {
		return true
	}
	for _, m := range r.MaterialsUsed {
		if strings.Contains(strings.ToLower(m.Name), term) {
			return true
		}
	}
	for _, tag := range r.FaultTags {
		if strings.Contains(strings.ToLower(tag), term) {
			return true
		}
	}
	return false
}
