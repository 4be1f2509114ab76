package entity

import (
	"time"

	"github.com/ksugimori/docscan/constants"
)

// DocumentList is a named grouping of uploaded documents sharing one
// storage directory keyed by the list id.
type DocumentList struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"uniqueIndex;not null" json:"name"`

	Documents []Document `gorm:"foreignKey:ListID;constraint:OnDelete:CASCADE" json:"documents,omitempty"`
}

func (DocumentList) TableName() string { return "ocr_lists" }

// Document is one uploaded file. Filename is the original name as picked
// by the user; StoragePath is the opaque relative path of the physical
// copy under the upload root (images/<list_id>/<uuid>.<ext>).
type Document struct {
	ID          uint               `gorm:"primaryKey" json:"id"`
	Filename    string             `gorm:"not null" json:"filename"`
	StoragePath string             `gorm:"uniqueIndex;not null" json:"storage_path"`
	FileKind    constants.FileKind `gorm:"not null" json:"file_kind"`
	ListID      uint               `gorm:"index;not null" json:"list_id"`
	IsScanned   bool               `gorm:"not null;default:false" json:"is_scanned"`
	ScannedAt   *time.Time         `json:"scanned_at,omitempty"`

	Results []ExtractionResult `gorm:"foreignKey:DocumentID;constraint:OnDelete:CASCADE" json:"results,omitempty"`
}

func (Document) TableName() string { return "uploaded_files" }
