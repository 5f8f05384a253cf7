package ingest

import (
	"github.com/david/maintenance-analyzer/internal/models"
)

// Field labels of an uploaded maintenance sheet.
const (
	FieldWorkAttribute    = "工作屬性"
	FieldRequestDate      = "請修日期"
	FieldRequestTime      = "請修時間"
	FieldFaultDescription = "故障描述"
	FieldHandlingStatus   = "處理情形"
)

// RawRow represents the untrusted, unnormalized data of one uploaded row.
// Values are strings, float64 spreadsheet serials, time.Time or nil.
type RawRow map[string]any

// Validation error codes attached to a MaintenanceRecord.
const (
	ErrCodeMissingWorkAttribute = "missing_work_attribute"
	ErrCodeInvalidRequestDate   = "invalid_request_date"
)

var validationLabels = map[string]string{
	ErrCodeMissingWorkAttribute: "缺少「工作屬性」",
	ErrCodeInvalidRequestDate:   "「請修日期」格式錯誤或缺少",
}

// ValidationLabel returns the user-facing label for a validation error code.
func ValidationLabel(code string) string {
	if label, ok := validationLabels[code]; ok {
		return label
	}
	return code
}

// Vocabulary is the snapshot of both managed vocabularies used by one
// classification pass.
type Vocabulary struct {
	FaultReasons  []models.ManagedFaultReason
	MaterialNames []models.ManagedMaterialName
}

// MaterialExtraction is the result of running the material pipeline over one
// handling narrative.
type MaterialExtraction struct {
	Materials     []models.Material
	Uncategorized []string
}

// Buckets holds the derived sets of inputs not yet covered by a managed vocabulary.
type Buckets struct {
	FaultDescriptions []string `json:"fault_descriptions"`
	MaterialStrings   []string `json:"material_strings"`
}
