// Package vocab holds the user-curated vocabularies that drive fault tagging
// and material matching.
package vocab

import (
	"encoding/json"
	"fmt"
	"html"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/david/maintenance-analyzer/internal/ingest"
	"github.com/david/maintenance-analyzer/internal/models"
)

// Kind distinguishes the two managed vocabularies.
type Kind string

const (
	KindFault    Kind = "fault"
	KindMaterial Kind = "material"
)

// ParseKind accepts the singular and plural spellings used by the API.
func ParseKind(s string) (Kind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fault", "faults":
		return KindFault, true
	case "material", "materials":
		return KindMaterial, true
	}
	return "", false
}

// Entry is one managed term.
type Entry struct {
	ID        uuid.UUID `json:"id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// ImportItem is one element of an imported JSON array. Fault lists read
// Text first, material lists read Name first.
type ImportItem struct {
	Name string `json:"name,omitempty"`
	Text string `json:"text,omitempty"`
}

// ImportResult reports how many items an import added and skipped.
type ImportResult struct {
	Added   int `json:"added"`
	Skipped int `json:"skipped"`
}

// ExportItem is the portable form of a managed term.
type ExportItem struct {
	Name string `json:"name"`
}

// List is an ordered, case-insensitively unique set of managed terms.
// It is not safe for concurrent use.
type List struct {
	kind     Kind
	entries  []Entry
	collator *collate.Collator
	policy   *bluemonday.Policy
	now      func() time.Time
}

// NewList returns an empty vocabulary of the given kind.
func NewList(kind Kind) *List {
	return &List{
		kind:     kind,
		collator: collate.New(language.TraditionalChinese),
		policy:   bluemonday.StrictPolicy(),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Kind reports which vocabulary this list holds.
func (l *List) Kind() Kind { return l.kind }

// Len returns the number of entries.
func (l *List) Len() int { return len(l.entries) }

// Clean trims a candidate term and strips any markup from it.
func (l *List) Clean(text string) string {
	return strings.TrimSpace(html.UnescapeString(l.policy.Sanitize(strings.TrimSpace(text))))
}

// Has reports whether a term is present, ignoring case.
func (l *List) Has(text string) bool {
	return l.indexOfText(l.Clean(text)) >= 0
}

// Add inserts a new term. Duplicates (ignoring case) are rejected with
// ErrDuplicate and leave the list unchanged.
func (l *List) Add(text string) (Entry, error) {
	clean := l.Clean(text)
	if clean == "" {
		return Entry{}, ErrEmpty
	}
	if l.indexOfText(clean) >= 0 {
		return Entry{}, fmt.Errorf("%q: %w", clean, ErrDuplicate)
	}

	e := Entry{ID: uuid.New(), Text: clean, CreatedAt: l.now()}
	l.entries = append(l.entries, e)
	l.sort()
	return e, nil
}

// Delete removes the entry with the given id.
func (l *List) Delete(id uuid.UUID) error {
	i := slices.IndexFunc(l.entries, func(e Entry) bool { return e.ID == id })
	if i < 0 {
		return fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	l.entries = slices.Delete(l.entries, i, i+1)
	return nil
}

// Entries returns a copy of the entries in locale order.
func (l *List) Entries() []Entry {
	return slices.Clone(l.entries)
}

// Import adds every new term from items. Empty items and duplicates, both
// against the list and within the batch, are counted as skipped.
func (l *List) Import(items []ImportItem) ImportResult {
	var res ImportResult
	for _, item := range items {
		if _, err := l.Add(l.valueOf(item)); err != nil {
			res.Skipped++
			continue
		}
		res.Added++
	}
	return res
}

// Export returns the terms in portable form.
func (l *List) Export() []ExportItem {
	out := make([]ExportItem, len(l.entries))
	for i, e := range l.entries {
		out[i] = ExportItem{Name: e.Text}
	}
	return out
}

// FaultReasons returns the entries as managed fault reasons.
func (l *List) FaultReasons() []models.ManagedFaultReason {
	out := make([]models.ManagedFaultReason, len(l.entries))
	for i, e := range l.entries {
		out[i] = models.ManagedFaultReason{ID: e.ID, Text: e.Text, CreatedAt: e.CreatedAt}
	}
	return out
}

// MaterialNames returns the entries as managed material names.
func (l *List) MaterialNames() []models.ManagedMaterialName {
	out := make([]models.ManagedMaterialName, len(l.entries))
	for i, e := range l.entries {
		out[i] = models.ManagedMaterialName{ID: e.ID, Name: e.Text, CreatedAt: e.CreatedAt}
	}
	return out
}

func (l *List) valueOf(item ImportItem) string {
	if l.kind == KindFault {
		if strings.TrimSpace(item.Text) != "" {
			return item.Text
		}
		return item.Name
	}
	if strings.TrimSpace(item.Name) != "" {
		return item.Name
	}
	return item.Text
}

func (l *List) indexOfText(text string) int {
	return slices.IndexFunc(l.entries, func(e Entry) bool { return strings.EqualFold(e.Text, text) })
}

func (l *List) sort() {
	slices.SortStableFunc(l.entries, func(a, b Entry) int {
		return l.collator.CompareString(a.Text, b.Text)
	})
}

// ParseImport decodes an uploaded vocabulary file.
func ParseImport(data []byte) ([]ImportItem, error) {
	var items []ImportItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImport, err)
	}
	return items, nil
}

// Prefill returns the text an uncategorized item should contribute to a
// vocabulary: the name part of a material string, or a fault description as is.
func Prefill(kind Kind, item string) string {
	item = strings.TrimSpace(item)
	if kind == KindMaterial {
		return ingest.ParseQuantity(item).Name
	}
	return item
}
