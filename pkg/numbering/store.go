package numbering

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/hashicorp/go-hclog"
	"gorm.io/gorm"

	"github.com/nanaoosaki/jobsculptor-ai-app-sub001/pkg/docid"
	"github.com/nanaoosaki/jobsculptor-ai-app-sub001/pkg/models"
)

// AllocationStore persists numbering grants so a restarted service can
// see which ids earlier runs handed out.
type AllocationStore interface {
	// SaveAllocation records one grant.
	SaveAllocation(ctx context.Context, alloc *models.BulletAllocation) error

	// ReleaseDocument marks every live grant of the document released and
	// returns how many rows changed.
	ReleaseDocument(ctx context.Context, document docid.DocumentID) (int64, error)
}

// GormStoreConfig holds configuration for a GormStore.
type GormStoreConfig struct {
	// DB is the database handle.
	DB *gorm.DB

	// MaxElapsedTime bounds the total retry window for one store
	// operation (default: 5s).
	MaxElapsedTime time.Duration

	// Logger
	Logger hclog.Logger
}

// GormStore is the database-backed AllocationStore. Transient database
// errors are retried with exponential backoff; validation failures are
// not, since retrying cannot fix the record.
type GormStore struct {
	db         *gorm.DB
	logger     hclog.Logger
	newBackOff func() backoff.BackOff
}

// NewGormStore creates a store from cfg.
func NewGormStore(cfg GormStoreConfig) (*GormStore, error) {
	if cfg.DB == nil {
		return nil, fmt.Errorf("database is required")
	}

	// Set defaults
	if cfg.MaxElapsedTime == 0 {
		cfg.MaxElapsedTime = 5 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = hclog.NewNullLogger()
	}

	maxElapsed := cfg.MaxElapsedTime
	return &GormStore{
		db:     cfg.DB,
		logger: cfg.Logger.Named("allocation-store"),
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 50 * time.Millisecond
			b.MaxInterval = time.Second
			b.MaxElapsedTime = maxElapsed
			return b
		},
	}, nil
}

// SaveAllocation implements AllocationStore.
func (s *GormStore) SaveAllocation(ctx context.Context, alloc *models.BulletAllocation) error {
	op := func() error {
		err := alloc.Create(s.db.WithContext(ctx))
		if err == nil {
			return nil
		}
		var verr validation.Errors
		if errors.As(err, &verr) {
			return backoff.Permanent(err)
		}
		s.logger.Warn("allocation insert failed, retrying",
			"document", alloc.DocumentID,
			"num_id", alloc.NumID,
			"error", err,
		)
		return err
	}

	if err := backoff.Retry(op, backoff.WithContext(s.newBackOff(), ctx)); err != nil {
		return fmt.Errorf("saving allocation for document %s: %w", alloc.DocumentID, err)
	}
	return nil
}

// ReleaseDocument implements AllocationStore.
func (s *GormStore) ReleaseDocument(ctx context.Context, document docid.DocumentID) (int64, error) {
	var rows int64
	op := func() error {
		n, err := models.ReleaseDocument(s.db.WithContext(ctx), document)
		if err != nil {
			s.logger.Warn("bulk release failed, retrying",
				"document", document,
				"error", err,
			)
			return err
		}
		rows = n
		return nil
	}

	if err := backoff.Retry(op, backoff.WithContext(s.newBackOff(), ctx)); err != nil {
		return 0, fmt.Errorf("releasing allocations for document %s: %w", document, err)
	}
	return rows, nil
}
