package models

import (
	"time"

	"github.com/google/uuid"
)

// Venue values.
const (
	VenueNorth   = "北館"
	VenueSouth   = "南館"
	VenueUnknown = "未知場域"
)

// Work type classifications.
const (
	WorkTypeWater      = "水"
	WorkTypeElectrical = "電"
	WorkTypeFire       = "消防"
	WorkTypeBuilding   = "營繕"
	WorkTypeOther      = "其他"
)

// Sentinel tags used when no real classification applies.
const (
	UnidentifiableAreaTag = "無法識別"
	UnclassifiedFaultTag  = "未分類故障"
)

// WorkTypes lists the base classifications in display order.
var WorkTypes = []string{WorkTypeWater, WorkTypeElectrical, WorkTypeFire, WorkTypeBuilding, WorkTypeOther}

// Material is one aggregated material line of a record.
type Material struct {
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
}

// MaintenanceRecord is the canonical, engine-owned form of one ingested row.
type MaintenanceRecord struct {
	ID            uuid.UUID `json:"id"`
	OriginalIndex int       `json:"original_index"`

	WorkAttribute    string `json:"work_attribute"`
	RequestDate      string `json:"request_date"` // YYYY/MM/DD or empty
	RequestTime      string `json:"request_time"` // hh:mm AM/PM or empty
	FaultDescription string `json:"fault_description"`
	HandlingStatus   string `json:"handling_status"`

	Venue                  string     `json:"venue"`
	Area                   string     `json:"area"`
	WorkTypeClassification string     `json:"work_type_classification"`
	FaultTags              []string   `json:"fault_tags"`
	MaterialsUsed          []Material `json:"materials_used"`
	// Raw fragments of the handling narrative that matched no managed material.
	UncategorizedMaterialStrings []string `json:"uncategorized_material_strings"`

	IsValid          bool      `json:"is_valid"`
	ValidationErrors []string  `json:"validation_errors"`
	UploadTimestamp  time.Time `json:"upload_timestamp"`
}

// ManagedFaultReason is a user-curated fault reason.
type ManagedFaultReason struct {
	ID        uuid.UUID `json:"id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// ManagedMaterialName is a user-curated canonical material name.
type ManagedMaterialName struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}
