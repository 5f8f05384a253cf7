package ingest

import (
	"time"

	"github.com/google/uuid"

	"github.com/david/maintenance-analyzer/internal/models"
)

// FromRaw converts one uploaded row into a canonical MaintenanceRecord.
// index is the row's 1-based position in its upload.
func FromRaw(row RawRow, index int, vocab Vocabulary) models.MaintenanceRecord {
	return FromRawAt(row, index, vocab, time.Now().UTC())
}

// FromRawAt is FromRaw with an explicit upload timestamp.
func FromRawAt(row RawRow, index int, vocab Vocabulary, uploadedAt time.Time) models.MaintenanceRecord {
	rec := models.MaintenanceRecord{
		ID:               uuid.New(),
		OriginalIndex:    index,
		WorkAttribute:    normalizeSpace(CellString(row[FieldWorkAttribute])),
		RequestDate:      FormatDate(row[FieldRequestDate]),
		RequestTime:      FormatTime(row[FieldRequestTime]),
		FaultDescription: CellString(row[FieldFaultDescription]),
		HandlingStatus:   CellString(row[FieldHandlingStatus]),
		UploadTimestamp:  uploadedAt,
	}

	Validate(&rec)
	Classify(&rec, vocab)
	return rec
}

// Validate sets IsValid and ValidationErrors from the required fields.
func Validate(rec *models.MaintenanceRecord) {
	rec.ValidationErrors = []string{}
	if rec.WorkAttribute == "" {
		rec.ValidationErrors = append(rec.ValidationErrors, ErrCodeMissingWorkAttribute)
	}
	if rec.RequestDate == "" {
		rec.ValidationErrors = append(rec.ValidationErrors, ErrCodeInvalidRequestDate)
	}
	rec.IsValid = len(rec.ValidationErrors) == 0
}

// Classify recomputes every vocabulary-dependent field of a record in place.
// It reads only the record's text fields, so repeated calls with the same
// vocabulary produce the same result.
func Classify(rec *models.MaintenanceRecord, vocab Vocabulary) {
	rec.Venue = ClassifyVenue(rec.FaultDescription)
	rec.Area = ClassifyArea(rec.Venue, rec.FaultDescription)
	rec.WorkTypeClassification = ClassifyWorkType(rec.WorkAttribute)
	rec.FaultTags = TagFaults(rec.FaultDescription, vocab.FaultReasons)

	extraction := ExtractMaterials(rec.HandlingStatus, vocab.MaterialNames)
	rec.MaterialsUsed = extraction.Materials
	rec.UncategorizedMaterialStrings = extraction.Uncategorized
}

// ToRawRow returns the record's source fields keyed by sheet label.
func ToRawRow(rec models.MaintenanceRecord) RawRow {
	return RawRow{
		FieldWorkAttribute:    rec.WorkAttribute,
		FieldRequestDate:      rec.RequestDate,
		FieldRequestTime:      rec.RequestTime,
		FieldFaultDescription: rec.FaultDescription,
		FieldHandlingStatus:   rec.HandlingStatus,
	}
}
