package entity

// Condition is a named, ordered set of field names to extract.
type Condition struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"uniqueIndex;not null" json:"name"`

	DataItems []DataItem `gorm:"constraint:OnDelete:CASCADE" json:"data_items,omitempty"`
}

func (Condition) TableName() string { return "conditions" }

// FieldNames returns the item names in declared order.
func (c *Condition) FieldNames() []string {
	names := make([]string, len(c.DataItems))
	for i, it := range c.DataItems {
		names[i] = it.Name
	}
	return names
}

// DataItem is one field name owned by a Condition. Duplicate names within
// a condition are permitted, not deduplicated.
type DataItem struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"not null" json:"name"`
	ConditionID uint   `gorm:"index;not null" json:"condition_id"`
	SortOrder   int    `gorm:"not null;default:0" json:"sort_order"`
}

func (DataItem) TableName() string { return "data_items" }
