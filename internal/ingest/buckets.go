package ingest

import (
	"strings"

	"github.com/david/maintenance-analyzer/internal/models"
)

// UncategorizedFaults returns the distinct non-empty fault descriptions that
// contain no managed fault reason, in first-seen order.
func UncategorizedFaults(records []models.MaintenanceRecord, reasons []models.ManagedFaultReason) []string {
	var pending []string
	for _, rec := range records {
		desc := strings.TrimSpace(rec.FaultDescription)
		if desc == "" || IsFaultCovered(desc, reasons) {
			continue
		}
		pending = append(pending, desc)
	}
	return mergeUniqueExact([]string{}, pending)
}

// UncategorizedMaterials returns the distinct per-record uncategorized
// material strings that the current vocabulary still does not cover.
func UncategorizedMaterials(records []models.MaintenanceRecord, names []models.ManagedMaterialName) []string {
	idx := newMaterialIndex(names)
	var pending []string
	for _, rec := range records {
		for _, raw := range rec.UncategorizedMaterialStrings {
			s := strings.TrimSpace(raw)
			if s == "" {
				continue
			}
			if needsMaterialReview(s, idx) {
				pending = append(pending, s)
			}
		}
	}
	return mergeUniqueExact([]string{}, pending)
}

func needsMaterialReview(s string, idx materialIndex) bool {
	if _, ok := idx.exactName(s); ok {
		return false
	}
	namePart := stripQuantity(s)
	if namePart == "" {
		return false
	}
	if IsIncompletePrefix(namePart) {
		_, exact := idx.exactName(namePart)
		return !exact
	}
	return !idx.covers(namePart)
}

// ComputeBuckets derives both uncategorized buckets.
func ComputeBuckets(records []models.MaintenanceRecord, vocab Vocabulary) Buckets {
	return Buckets{
		FaultDescriptions: UncategorizedFaults(records, vocab.FaultReasons),
		MaterialStrings:   UncategorizedMaterials(records, vocab.MaterialNames),
	}
}
