package ingest

import (
	"github.com/david/maintenance-analyzer/internal/models"
)

// Recategorize rebuilds every record from its source fields using the given
// vocabulary. Identity (ID, OriginalIndex, UploadTimestamp) is preserved and
// the input slice is not modified.
func Recategorize(records []models.MaintenanceRecord, vocab Vocabulary) []models.MaintenanceRecord {
	out := make([]models.MaintenanceRecord, len(records))
	for i, old := range records {
		rec := FromRawAt(ToRawRow(old), old.OriginalIndex, vocab, old.UploadTimestamp)
		rec.ID = old.ID
		out[i] = rec
	}
	return out
}
