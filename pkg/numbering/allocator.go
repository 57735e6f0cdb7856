package numbering

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/nanaoosaki/jobsculptor-ai-app-sub001/pkg/docid"
	"github.com/nanaoosaki/jobsculptor-ai-app-sub001/pkg/models"
)

const (
	// DefaultBase is the first candidate numbering id for the scan.
	DefaultBase = 100

	// DefaultCeiling is the highest id the allocator will ever grant.
	// Word tolerates larger values, but files in the wild get flaky well
	// before the int32 limit.
	DefaultCeiling = 32000

	// DefaultSaltPartitions is how many worker partitions share the id
	// space.
	DefaultSaltPartitions = 8

	// DefaultSaltStride is the id distance between two adjacent worker
	// partitions.
	DefaultSaltStride = 1000
)

// Range is a closed interval [Low, High] of numbering ids.
type Range struct {
	Low  int
	High int
}

// Contains reports whether id falls inside the range.
func (r Range) Contains(id int) bool {
	return id >= r.Low && id <= r.High
}

// DefaultReservedRanges returns the id ranges the allocator never grants:
// the low ids template numbering definitions commonly squat on, and the
// 400 block some resume templates use for their own lists.
func DefaultReservedRanges() []Range {
	return []Range{
		{Low: 1, High: 99},
		{Low: 400, High: 499},
	}
}

// CollisionKind classifies a finding from DetectCollisions.
type CollisionKind int

const (
	// CollisionDuplicate means one document holds the same numId twice.
	// The per-document index makes this impossible in normal operation,
	// so a hit signals an allocator bug.
	CollisionDuplicate CollisionKind = iota

	// CollisionCrossDocument means two documents hold the same numId.
	// Documents are independent files, so this is informational only.
	CollisionCrossDocument

	// CollisionReserved means an active id sits inside a reserved range,
	// which can only happen with ids seeded from a pre-existing file.
	// The id must be reallocated before the engine writes numbering.
	CollisionReserved
)

func (k CollisionKind) String() string {
	switch k {
	case CollisionDuplicate:
		return "duplicate"
	case CollisionCrossDocument:
		return "cross-document"
	case CollisionReserved:
		return "reserved-range"
	default:
		return fmt.Sprintf("collision(%d)", int(k))
	}
}

// Collision is one finding from DetectCollisions.
type Collision struct {
	Kind     CollisionKind
	Document docid.DocumentID
	NumID    int
	Detail   string

	// Reallocate marks findings the caller must resolve by granting a
	// fresh id before writing the document.
	Reallocate bool
}

// AllocatorConfig holds configuration for an Allocator.
type AllocatorConfig struct {
	// Base is the first candidate id. Defaults to DefaultBase.
	Base int

	// Ceiling is the highest grantable id. Defaults to DefaultCeiling.
	Ceiling int

	// Reserved lists id ranges the scan always skips. Defaults to
	// DefaultReservedRanges.
	Reserved []Range

	// WorkerKey identifies this worker when several build documents in
	// parallel. The scan start is offset by
	// (key mod SaltPartitions) * SaltStride so workers do not race for
	// the same ids.
	WorkerKey      docid.WorkerKey
	SaltPartitions int
	SaltStride     int

	// Store persists grants across runs. Optional.
	Store AllocationStore

	// Logger
	Logger hclog.Logger
}

type allocation struct {
	id          NumberingID
	section     string
	style       string
	seeded      bool
	allocatedAt time.Time
}

type docAllocations struct {
	records []*allocation
	active  map[int]*allocation
	byStyle map[string]int
	cursor  int
}

// Allocator grants numbering ids that are unique within a document and
// avoid everything already present in it. All methods are safe for
// concurrent use.
type Allocator struct {
	mu             sync.Mutex
	docs           map[docid.DocumentID]*docAllocations
	base           int
	ceiling        int
	reserved       []Range
	workerKey      docid.WorkerKey
	saltPartitions int
	saltStride     int
	store          AllocationStore
	logger         hclog.Logger
}

// NewAllocator creates an allocator from cfg. A nil cfg uses all defaults.
func NewAllocator(cfg *AllocatorConfig) (*Allocator, error) {
	if cfg == nil {
		cfg = &AllocatorConfig{}
	}

	// Set defaults
	if cfg.Base == 0 {
		cfg.Base = DefaultBase
	}
	if cfg.Ceiling == 0 {
		cfg.Ceiling = DefaultCeiling
	}
	if cfg.Reserved == nil {
		cfg.Reserved = DefaultReservedRanges()
	}
	if cfg.SaltPartitions == 0 {
		cfg.SaltPartitions = DefaultSaltPartitions
	}
	if cfg.SaltStride == 0 {
		cfg.SaltStride = DefaultSaltStride
	}
	if cfg.Logger == nil {
		cfg.Logger = hclog.NewNullLogger()
	}

	if cfg.Base < 1 {
		return nil, fmt.Errorf("base must be at least 1, got %d", cfg.Base)
	}
	if cfg.Ceiling < cfg.Base {
		return nil, fmt.Errorf("ceiling %d is below base %d", cfg.Ceiling, cfg.Base)
	}
	for _, r := range cfg.Reserved {
		if r.Low < 1 || r.High < r.Low {
			return nil, fmt.Errorf("invalid reserved range [%d, %d]", r.Low, r.High)
		}
	}

	return &Allocator{
		docs:           make(map[docid.DocumentID]*docAllocations),
		base:           cfg.Base,
		ceiling:        cfg.Ceiling,
		reserved:       cfg.Reserved,
		workerKey:      cfg.WorkerKey,
		saltPartitions: cfg.SaltPartitions,
		saltStride:     cfg.SaltStride,
		store:          cfg.Store,
		logger:         cfg.Logger.Named("allocator"),
	}, nil
}

// salt is the scan-start offset for this worker's partition.
func (a *Allocator) salt() int {
	return a.workerKey.Partition(a.saltPartitions) * a.saltStride
}

func (a *Allocator) doc(document docid.DocumentID) *docAllocations {
	d, ok := a.docs[document]
	if !ok {
		d = &docAllocations{
			active:  make(map[int]*allocation),
			byStyle: make(map[string]int),
			cursor:  a.base + a.salt(),
		}
		a.docs[document] = d
	}
	return d
}

func (a *Allocator) reservedRange(id int) (Range, bool) {
	for _, r := range a.reserved {
		if r.Contains(id) {
			return r, true
		}
	}
	return Range{}, false
}

// nextFree advances from the document cursor to the first id that is
// neither reserved nor already active in the document.
func (a *Allocator) nextFree(d *docAllocations) (int, bool) {
	id := d.cursor
	for id <= a.ceiling {
		if r, ok := a.reservedRange(id); ok {
			id = r.High + 1
			continue
		}
		if _, taken := d.active[id]; taken {
			id++
			continue
		}
		return id, true
	}
	return 0, false
}

// Allocate grants a fresh numbering id for the document. When styleName is
// non-empty and the style already holds a live grant, that id is returned
// again instead of a new one.
func (a *Allocator) Allocate(ctx context.Context, document docid.DocumentID, sectionName, styleName string) (NumberingID, error) {
	if document.IsZero() {
		return NumberingID{}, fmt.Errorf("document id is required")
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	d := a.doc(document)

	if styleName != "" {
		if numID, ok := d.byStyle[styleName]; ok {
			if rec, live := d.active[numID]; live {
				a.logger.Debug("reusing numbering id for style",
					"document", document,
					"style", styleName,
					"num_id", numID,
				)
				return rec.id, nil
			}
			delete(d.byStyle, styleName)
		}
	}

	numID, ok := a.nextFree(d)
	if !ok {
		return NumberingID{}, &AllocationExhaustedError{Document: document, Ceiling: a.ceiling}
	}

	rec := &allocation{
		id:          NumberingID{NumID: numID, AbstractID: numID},
		section:     sectionName,
		style:       styleName,
		allocatedAt: time.Now(),
	}
	d.cursor = numID + 1
	d.active[numID] = rec
	d.records = append(d.records, rec)
	if styleName != "" {
		d.byStyle[styleName] = numID
	}

	if a.store != nil {
		err := a.store.SaveAllocation(ctx, &models.BulletAllocation{
			DocumentID:    document,
			NumID:         numID,
			AbstractNumID: numID,
			SectionName:   sectionName,
			StyleName:     styleName,
			WorkerKey:     int(a.workerKey),
			AllocatedAt:   rec.allocatedAt,
		})
		if err != nil {
			delete(d.active, numID)
			d.records = d.records[:len(d.records)-1]
			if styleName != "" {
				delete(d.byStyle, styleName)
			}
			d.cursor = numID
			return NumberingID{}, fmt.Errorf("persisting allocation: %w", err)
		}
	}

	a.logger.Debug("allocated numbering id",
		"document", document,
		"section", sectionName,
		"style", styleName,
		"num_id", numID,
	)
	return rec.id, nil
}

// MarkUsed seeds the document's occupancy with ids already present in the
// file, so fresh grants never collide with them. The scan cursor moves
// past the highest seeded id.
func (a *Allocator) MarkUsed(document docid.DocumentID, ids ...int) {
	if document.IsZero() {
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	d := a.doc(document)
	for _, id := range ids {
		if id <= 0 {
			continue
		}
		if _, taken := d.active[id]; taken {
			continue
		}
		rec := &allocation{
			id:          NumberingID{NumID: id, AbstractID: id},
			seeded:      true,
			allocatedAt: time.Now(),
		}
		d.active[id] = rec
		d.records = append(d.records, rec)
		if id >= d.cursor {
			d.cursor = id + 1
		}
	}
}

// ActiveIDs returns the document's live numbering ids in ascending order.
func (a *Allocator) ActiveIDs(document docid.DocumentID) []int {
	a.mu.Lock()
	defer a.mu.Unlock()

	d, ok := a.docs[document]
	if !ok {
		return nil
	}
	ids := make([]int, 0, len(d.active))
	for id := range d.active {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Release frees every id the document holds and forgets its state, so a
// long-running service does not accumulate per-document tables. It
// returns how many live grants were released.
func (a *Allocator) Release(ctx context.Context, document docid.DocumentID) (int, error) {
	if document.IsZero() {
		return 0, fmt.Errorf("document id is required")
	}

	a.mu.Lock()
	var released int
	if d, ok := a.docs[document]; ok {
		released = len(d.active)
		delete(a.docs, document)
	}
	a.mu.Unlock()

	if a.store != nil {
		rows, err := a.store.ReleaseDocument(ctx, document)
		if err != nil {
			return released, fmt.Errorf("releasing stored allocations: %w", err)
		}
		a.logger.Debug("released stored allocations", "document", document, "rows", rows)
	}

	a.logger.Info("released numbering ids", "document", document, "count", released)
	return released, nil
}

// DetectCollisions scans every tracked document for id conflicts. The
// result is sorted by kind, then id, so reports are stable.
func (a *Allocator) DetectCollisions() []Collision {
	a.mu.Lock()
	defer a.mu.Unlock()

	var out []Collision
	byID := make(map[int][]docid.DocumentID)

	for document, d := range a.docs {
		counts := make(map[int]int)
		for _, rec := range d.records {
			counts[rec.id.NumID]++
		}
		for id, n := range counts {
			if n > 1 {
				out = append(out, Collision{
					Kind:     CollisionDuplicate,
					Document: document,
					NumID:    id,
					Detail:   fmt.Sprintf("id recorded %d times in one document", n),
				})
			}
		}
		for id := range d.active {
			byID[id] = append(byID[id], document)
			if _, reserved := a.reservedRange(id); reserved {
				out = append(out, Collision{
					Kind:       CollisionReserved,
					Document:   document,
					NumID:      id,
					Detail:     "active id sits inside a reserved range",
					Reallocate: true,
				})
			}
		}
	}

	for id, docs := range byID {
		if len(docs) < 2 {
			continue
		}
		names := make([]string, len(docs))
		for i, document := range docs {
			names[i] = document.String()
		}
		sort.Strings(names)
		out = append(out, Collision{
			Kind:   CollisionCrossDocument,
			NumID:  id,
			Detail: fmt.Sprintf("id active in %d documents: %v", len(docs), names),
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return out[i].Kind < out[j].Kind
		}
		if out[i].NumID != out[j].NumID {
			return out[i].NumID < out[j].NumID
		}
		return out[i].Document.String() < out[j].Document.String()
	})
	return out
}
