package numbering

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/hashicorp/go-hclog"

	"github.com/nanaoosaki/jobsculptor-ai-app-sub001/pkg/docid"
	"github.com/nanaoosaki/jobsculptor-ai-app-sub001/pkg/wordml"
)

// ErrFinalized is returned when a session operation arrives after
// Finalize. The reconciliation sweep runs exactly once, after all
// construction is done.
var ErrFinalized = errors.New("document session already finalized")

// SessionConfig holds configuration for a Session.
type SessionConfig struct {
	// Document is the document under construction. Required.
	Document *wordml.Document

	// DocumentID identifies the build. A zero id gets a fresh one.
	DocumentID docid.DocumentID

	// Allocator grants numbering ids. A nil allocator is created with
	// defaults; pass a shared one when several sessions run in one
	// process.
	Allocator *Allocator

	// Resolver owns the bullet style. A nil resolver is created with the
	// default style and a registry wired to the allocator.
	Resolver *Resolver

	// Definitions materializes numbering definitions. A nil registry is
	// created.
	Definitions *Registry

	// Binder attaches references. A nil binder is created.
	Binder *Binder

	// Reconciler runs the final sweep. A nil reconciler is created
	// around the session's binder and bullet style.
	Reconciler *Reconciler

	// Format is the bullet level format for definitions this session
	// creates. A zero value means DefaultLevelFormat.
	Format LevelFormat

	// Logger
	Logger hclog.Logger
}

// Session owns one document's numbering lifecycle: allocate and define
// per section, bind while content is added, finalize exactly once, then
// release everything on Close. Methods are safe for concurrent use, but
// the underlying document must not be mutated elsewhere meanwhile.
type Session struct {
	mu sync.Mutex

	id          docid.DocumentID
	doc         *wordml.Document
	allocator   *Allocator
	resolver    *Resolver
	definitions *Registry
	binder      *Binder
	reconciler  *Reconciler
	format      LevelFormat
	logger      hclog.Logger

	styleID      string
	findings     []Finding
	sections     map[string]NumberingID
	sectionOrder []string
	finalized    bool
	closed       bool
	report       *Report
}

// NewSession opens a session on the document: seeds the allocator with
// the ids the file already uses and takes ownership of the bullet style.
func NewSession(ctx context.Context, cfg *SessionConfig) (*Session, error) {
	if cfg == nil || cfg.Document == nil {
		return nil, fmt.Errorf("document is required")
	}

	// Set defaults
	if cfg.Logger == nil {
		cfg.Logger = hclog.NewNullLogger()
	}
	logger := cfg.Logger.Named("session")

	id := cfg.DocumentID
	if id.IsZero() {
		id = docid.NewDocumentID()
	}

	allocator := cfg.Allocator
	if allocator == nil {
		var err error
		allocator, err = NewAllocator(&AllocatorConfig{Logger: cfg.Logger})
		if err != nil {
			return nil, err
		}
	}
	resolver := cfg.Resolver
	if resolver == nil {
		resolver = NewResolver(&ResolverConfig{
			Registry: NewStyleRegistry(&StyleRegistryConfig{
				Allocator: allocator,
				Document:  id,
				Logger:    cfg.Logger,
			}),
			Logger: cfg.Logger,
		})
	}
	definitions := cfg.Definitions
	if definitions == nil {
		definitions = NewRegistry(cfg.Logger)
	}
	binder := cfg.Binder
	if binder == nil {
		binder = NewBinder(cfg.Logger)
	}
	format := cfg.Format
	if format.Glyph == "" {
		format = DefaultLevelFormat()
	}

	// Seed occupancy with both the defined instances and every id
	// paragraphs reference, so a dangling reference cannot be adopted
	// for a fresh list and silently capture those paragraphs.
	var existing []int
	if num, ok := cfg.Document.Numbering(); ok {
		existing = append(existing, num.InstanceIDs()...)
	}
	for _, p := range cfg.Document.AllParagraphs() {
		if ref, state := p.NumberingRef(); state == wordml.RefValid {
			existing = append(existing, ref.NumID)
		}
	}
	if len(existing) > 0 {
		allocator.MarkUsed(id, existing...)
		logger.Debug("seeded allocator from document", "document", id, "existing_ids", len(existing))
	}

	findings, err := resolver.EnsureBulletStyle(ctx, cfg.Document)
	if err != nil {
		return nil, fmt.Errorf("ensuring bullet style: %w", err)
	}

	s := &Session{
		id:          id,
		doc:         cfg.Document,
		allocator:   allocator,
		resolver:    resolver,
		definitions: definitions,
		binder:      binder,
		reconciler:  cfg.Reconciler,
		format:      format,
		logger:      logger,
		styleID:     resolver.StyleID(),
		findings:    findings,
		sections:    make(map[string]NumberingID),
	}
	logger.Debug("opened document session", "document", id, "style_id", s.styleID)
	return s, nil
}

// DocumentID returns the build's document id.
func (s *Session) DocumentID() docid.DocumentID {
	return s.id
}

// Document returns the document under construction.
func (s *Session) Document() *wordml.Document {
	return s.doc
}

// StyleID returns the bullet style id the session binds to.
func (s *Session) StyleID() string {
	return s.styleID
}

// Findings returns the style conflicts resolved while the session ran.
func (s *Session) Findings() []Finding {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Finding, len(s.findings))
	copy(out, s.findings)
	return out
}

// Section returns the numbering id for a section, allocating and defining
// it on first use. Every bullet in one section shares one list instance.
func (s *Session) Section(ctx context.Context, name string) (NumberingID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.section(ctx, name)
}

func (s *Session) section(ctx context.Context, name string) (NumberingID, error) {
	if s.finalized {
		return NumberingID{}, ErrFinalized
	}
	if id, ok := s.sections[name]; ok {
		return id, nil
	}

	id, err := s.allocator.Allocate(ctx, s.id, name, "")
	if err != nil {
		return NumberingID{}, err
	}
	if err := s.definitions.EnsureDefinition(s.doc, id, s.format); err != nil {
		return NumberingID{}, err
	}

	s.sections[name] = id
	s.sectionOrder = append(s.sectionOrder, name)
	s.logger.Debug("opened section list", "document", s.id, "section", name, "num_id", id.NumID)
	return id, nil
}

// Bind styles the paragraph as a bullet and attaches the section's
// numbering at the given level. The paragraph must already have text.
func (s *Session) Bind(ctx context.Context, p *wordml.Paragraph, sectionName string, level int) error {
	if p == nil {
		return fmt.Errorf("paragraph is required")
	}
	if level < 0 || level > wordml.MaxListLevel {
		return fmt.Errorf("list level %d out of range 0-%d", level, wordml.MaxListLevel)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.section(ctx, sectionName)
	if err != nil {
		return err
	}

	p.SetStyleID(s.styleID)
	return s.binder.Bind(p, wordml.NumberingRef{NumID: id.NumID, Level: level})
}

// Finalize runs the reconciliation sweep. It can run once per session;
// later calls return ErrFinalized. Construction must be complete first.
func (s *Session) Finalize(ctx context.Context) (*Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.finalized {
		return nil, ErrFinalized
	}

	target, err := s.repairTarget(ctx)
	if err != nil {
		return nil, fmt.Errorf("choosing repair target: %w", err)
	}
	s.finalized = true

	rc := s.reconciler
	if rc == nil {
		rc = NewReconciler(&ReconcilerConfig{
			Scanner: NewScanner(s.styleID, s.logger),
			Binder:  s.binder,
			Logger:  s.logger,
		})
	}

	report, err := rc.Reconcile(s.doc, target)
	if err != nil {
		return nil, err
	}
	s.report = report
	return report, nil
}

// repairTarget picks the list repaired paragraphs join: the session's
// first section, or a fresh general list when no section was opened.
func (s *Session) repairTarget(ctx context.Context) (NumberingID, error) {
	if len(s.sectionOrder) > 0 {
		return s.sections[s.sectionOrder[0]], nil
	}
	return s.section(ctx, "general")
}

// Report returns the reconciliation report once Finalize has run.
func (s *Session) Report() (*Report, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.report, s.report != nil
}

// Finalized reports whether the sweep has run.
func (s *Session) Finalized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finalized
}

// Close releases every numbering id the session allocated. Safe to call
// more than once; meant for defer right after NewSession.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	released, err := s.allocator.Release(ctx, s.id)
	if err != nil {
		return err
	}
	s.logger.Debug("closed document session", "document", s.id, "released", released)
	return nil
}
