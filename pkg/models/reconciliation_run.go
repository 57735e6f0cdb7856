package models

import (
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gorm.io/gorm"

	"github.com/nanaoosaki/jobsculptor-ai-app-sub001/pkg/docid"
)

// ReconciliationRun records the outcome of one post-build verification
// sweep. The pass runs exactly once per document build; keeping the
// history makes regressions in repair volume visible.
type ReconciliationRun struct {
	gorm.Model

	// DocumentID is the document build that was reconciled.
	DocumentID docid.DocumentID `gorm:"type:varchar(36);not null;index" json:"document_id"`

	// TotalParagraphs is how many bullet paragraphs the sweep visited.
	TotalParagraphs int `json:"total_paragraphs"`

	// Repaired is how many references were rewritten.
	Repaired int `json:"repaired"`

	// ErrorCount is how many paragraphs could not be repaired.
	ErrorCount int `json:"error_count"`

	// DurationMillis is the wall time of the sweep.
	DurationMillis int64 `json:"duration_millis"`

	// PeakMemoryBytes is the observed allocation delta during the sweep.
	PeakMemoryBytes int64 `json:"peak_memory_bytes"`

	// RanAt is when the sweep executed.
	RanAt time.Time `gorm:"not null" json:"ran_at"`
}

// TableName specifies the table name for GORM.
func (ReconciliationRun) TableName() string {
	return "reconciliation_runs"
}

// Create inserts the run record.
func (r *ReconciliationRun) Create(db *gorm.DB) error {
	if r.RanAt.IsZero() {
		r.RanAt = time.Now()
	}
	if err := validation.ValidateStruct(r,
		validation.Field(&r.DocumentID, validation.By(func(interface{}) error {
			if r.DocumentID.IsZero() {
				return fmt.Errorf("cannot be zero")
			}
			return nil
		})),
		validation.Field(&r.TotalParagraphs, validation.Min(0)),
		validation.Field(&r.Repaired, validation.Min(0)),
		validation.Field(&r.ErrorCount, validation.Min(0)),
	); err != nil {
		return fmt.Errorf("validation error: %w", err)
	}
	return db.Create(r).Error
}

// ReconciliationRuns is a slice of run records.
type ReconciliationRuns []ReconciliationRun

// FindByDocument retrieves a document's runs, newest first.
func (rs *ReconciliationRuns) FindByDocument(db *gorm.DB, documentID docid.DocumentID) error {
	return db.
		Where("document_id = ?", documentID).
		Order("ran_at DESC").
		Find(rs).Error
}
