package models

import (
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gorm.io/gorm"

	"github.com/nanaoosaki/jobsculptor-ai-app-sub001/pkg/docid"
)

// Allocation lifecycle statuses.
const (
	AllocationStatusActive   = "active"
	AllocationStatusReleased = "released"
	AllocationStatusExpired  = "expired"
)

// BulletAllocation records one (document, numId) grant: which abstract
// definition backs it, which section and style asked for it, and whether
// it is still live. The central index makes releasing a whole document's
// allocations a single bulk update.
type BulletAllocation struct {
	gorm.Model

	// DocumentID is the document build this allocation belongs to.
	DocumentID docid.DocumentID `gorm:"type:varchar(36);not null;uniqueIndex:idx_allocation_doc_num;index:idx_allocation_doc" json:"document_id"`

	// NumID is the granted list instance id, unique per document.
	NumID int `gorm:"not null;uniqueIndex:idx_allocation_doc_num" json:"num_id"`

	// AbstractNumID is the abstract definition paired with NumID.
	AbstractNumID int `gorm:"not null" json:"abstract_num_id"`

	// SectionName is the resume section that requested the id.
	SectionName string `gorm:"type:varchar(128)" json:"section_name"`

	// StyleName is the bullet style the id was granted for, enabling
	// style-scoped reuse.
	StyleName string `gorm:"type:varchar(128);index" json:"style_name,omitempty"`

	// Status is active, released or expired.
	Status string `gorm:"type:varchar(16);not null;default:'active';index" json:"status"`

	// WorkerKey is the partition key of the worker that allocated the id.
	WorkerKey int `gorm:"default:0" json:"worker_key"`

	// AllocatedAt is when the id was granted.
	AllocatedAt time.Time `gorm:"not null" json:"allocated_at"`

	// ReleasedAt is when the allocation stopped being live.
	ReleasedAt *time.Time `json:"released_at,omitempty"`
}

// TableName specifies the table name for GORM.
func (BulletAllocation) TableName() string {
	return "bullet_allocations"
}

func (a *BulletAllocation) validate() error {
	return validation.ValidateStruct(a,
		validation.Field(&a.DocumentID, validation.By(func(interface{}) error {
			if a.DocumentID.IsZero() {
				return fmt.Errorf("cannot be zero")
			}
			return nil
		})),
		validation.Field(&a.NumID, validation.Required, validation.Min(1)),
		validation.Field(&a.AbstractNumID, validation.Required, validation.Min(1)),
		validation.Field(&a.Status, validation.Required, validation.In(
			AllocationStatusActive,
			AllocationStatusReleased,
			AllocationStatusExpired,
		)),
	)
}

// Create inserts the allocation record.
func (a *BulletAllocation) Create(db *gorm.DB) error {
	if a.Status == "" {
		a.Status = AllocationStatusActive
	}
	if a.AllocatedAt.IsZero() {
		a.AllocatedAt = time.Now()
	}
	if err := a.validate(); err != nil {
		return fmt.Errorf("validation error: %w", err)
	}
	return db.Create(a).Error
}

// Release marks this allocation released.
func (a *BulletAllocation) Release(db *gorm.DB) error {
	now := time.Now()
	a.Status = AllocationStatusReleased
	a.ReleasedAt = &now
	return db.Model(a).Updates(map[string]interface{}{
		"status":      AllocationStatusReleased,
		"released_at": now,
	}).Error
}

// ReleaseDocument bulk-releases every active allocation of a document and
// returns how many records changed.
func ReleaseDocument(db *gorm.DB, documentID docid.DocumentID) (int64, error) {
	if err := validation.Validate(documentID.String(), validation.Required); err != nil {
		return 0, fmt.Errorf("validation error: %w", err)
	}
	now := time.Now()
	result := db.Model(&BulletAllocation{}).
		Where("document_id = ? AND status = ?", documentID, AllocationStatusActive).
		Updates(map[string]interface{}{
			"status":      AllocationStatusReleased,
			"released_at": now,
		})
	return result.RowsAffected, result.Error
}

// BulletAllocations is a slice of allocation records.
type BulletAllocations []BulletAllocation

// FindActiveByDocument retrieves a document's live allocations.
func (as *BulletAllocations) FindActiveByDocument(db *gorm.DB, documentID docid.DocumentID) error {
	return db.
		Where("document_id = ? AND status = ?", documentID, AllocationStatusActive).
		Order("num_id").
		Find(as).Error
}

// FindByDocument retrieves all of a document's allocations regardless of
// status.
func (as *BulletAllocations) FindByDocument(db *gorm.DB, documentID docid.DocumentID) error {
	return db.
		Where("document_id = ?", documentID).
		Order("num_id").
		Find(as).Error
}

// FindActiveByNumID retrieves every live allocation of one numId across
// documents, for cross-document collision reporting.
func (as *BulletAllocations) FindActiveByNumID(db *gorm.DB, numID int) error {
	return db.
		Where("num_id = ? AND status = ?", numID, AllocationStatusActive).
		Find(as).Error
}
