package entity

// ExtractionResult is one extracted field for one (document, condition)
// scan. FieldName snapshots the DataItem name at scan time, so rows stay
// readable even if the condition's items are edited later. For a given
// (document, condition) pair there is at most one row per distinct field
// name after any scan completes.
type ExtractionResult struct {
	ID             uint    `gorm:"primaryKey" json:"id"`
	DocumentID     uint    `gorm:"index:idx_scan_pair;not null" json:"document_id"`
	ConditionID    uint    `gorm:"index:idx_scan_pair;not null" json:"condition_id"`
	FieldName      string  `gorm:"not null" json:"field_name"`
	ExtractedValue *string `json:"extracted_value,omitempty"`
}

func (ExtractionResult) TableName() string { return "scanned_data" }

// Value returns the extracted value or "" when absent.
func (r *ExtractionResult) Value() string {
	if r.ExtractedValue == nil {
		return ""
	}
	return *r.ExtractedValue
}
