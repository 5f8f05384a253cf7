package ingest

import (
	"strings"

	"github.com/david/maintenance-analyzer/internal/models"
)

// TagFaults returns the managed reasons found in a description, in vocabulary
// order. A non-empty description that matches nothing is tagged
// models.UnclassifiedFaultTag; an empty description gets no tags.
func TagFaults(description string, reasons []models.ManagedFaultReason) []string {
	lower := strings.ToLower(description)
	tags := make([]string, 0, 1)
	if description != "" {
		for _, r := range reasons {
			text := strings.TrimSpace(r.Text)
			if text == "" {
				continue
			}
			if strings.Contains(lower, strings.ToLower(text)) {
				tags = appendUnique(tags, r.Text)
			}
		}
	}
	if len(tags) == 0 && description != "" {
		tags = append(tags, models.UnclassifiedFaultTag)
	}
	return tags
}

// IsFaultCovered reports whether any managed reason occurs in the description.
func IsFaultCovered(description string, reasons []models.ManagedFaultReason) bool {
	lower := strings.ToLower(description)
	for _, r := range reasons {
		text := strings.TrimSpace(r.Text)
		if text != "" && strings.Contains(lower, strings.ToLower(text)) {
			return true
		}
	}
	return false
}
