// Package builder assembles resume documents. Achievement text goes in as
// flat strings, one section at a time; a finished package with consistent
// bullet numbering comes out. The builder trusts each binding as it is
// made and runs the closing reconciliation sweep once, in Finalize.
package builder

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/hashicorp/go-hclog"
	"github.com/iancoleman/strcase"

	"github.com/nanaoosaki/jobsculptor-ai-app-sub001/pkg/docid"
	"github.com/nanaoosaki/jobsculptor-ai-app-sub001/pkg/docpkg"
	"github.com/nanaoosaki/jobsculptor-ai-app-sub001/pkg/docxml"
	"github.com/nanaoosaki/jobsculptor-ai-app-sub001/pkg/numbering"
	"github.com/nanaoosaki/jobsculptor-ai-app-sub001/pkg/sanitize"
	"github.com/nanaoosaki/jobsculptor-ai-app-sub001/pkg/wordml"
)

// Config holds configuration for a Builder.
type Config struct {
	// Package is the container to build into. Nil starts from the
	// minimal scaffold.
	Package *docpkg.Package

	// DocumentID identifies this build. A zero id gets a fresh one.
	DocumentID docid.DocumentID

	// Allocator grants numbering ids. Pass a shared one when several
	// builds run in one process; nil creates a private allocator.
	Allocator *numbering.Allocator

	// Sanitizer cleans achievement text. Nil creates one with the
	// built-in catalogue.
	Sanitizer *sanitize.Sanitizer

	// Strict makes dirty achievement text an error instead of cleaning
	// it in place.
	Strict bool

	// Logger
	Logger hclog.Logger
}

// Builder drives one document build. Headings and achievements go in
// through the Add methods; Finalize runs the closing sweep and packages
// the result. Methods are safe for concurrent use.
type Builder struct {
	mu sync.Mutex

	doc       *wordml.Document
	session   *numbering.Session
	sanitizer *sanitize.Sanitizer
	strict    bool
	logger    hclog.Logger

	bullets  int
	headings map[string]string
}

// Result is a finished build.
type Result struct {
	// Report is the closing sweep's outcome.
	Report *numbering.Report

	// Findings are the style conflicts resolved during the build.
	Findings []numbering.Finding

	// Bytes is the packaged document.
	Bytes []byte
}

// New opens a builder over cfg.Package and takes ownership of its bullet
// numbering for the lifetime of the build.
func New(ctx context.Context, cfg *Config) (*Builder, error) {
	if cfg == nil {
		cfg = &Config{}
	}

	// Set defaults
	if cfg.Logger == nil {
		cfg.Logger = hclog.NewNullLogger()
	}
	logger := cfg.Logger.Named("builder")

	pkg := cfg.Package
	if pkg == nil {
		pkg = docpkg.NewEmpty()
	}

	doc, err := wordml.Load(pkg)
	if err != nil {
		return nil, fmt.Errorf("loading document: %w", err)
	}

	sanitizer := cfg.Sanitizer
	if sanitizer == nil {
		sanitizer, err = sanitize.New(&sanitize.Config{Logger: cfg.Logger})
		if err != nil {
			return nil, err
		}
	}

	session, err := numbering.NewSession(ctx, &numbering.SessionConfig{
		Document:   doc,
		DocumentID: cfg.DocumentID,
		Allocator:  cfg.Allocator,
		Logger:     cfg.Logger,
	})
	if err != nil {
		return nil, err
	}

	return &Builder{
		doc:       doc,
		session:   session,
		sanitizer: sanitizer,
		strict:    cfg.Strict,
		logger:    logger,
		headings:  make(map[string]string),
	}, nil
}

// AddSection appends a section heading and opens the section's list so
// every achievement that follows joins it. The heading gets its own
// paragraph style derived from the section name ("Professional
// Experience" becomes ProfessionalExperienceHeading) so a template can
// restyle sections without touching text.
func (b *Builder) AddSection(ctx context.Context, name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("section name is required")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	styleID, err := b.ensureHeadingStyle(name)
	if err != nil {
		return err
	}

	p := b.doc.AddParagraph(name)
	p.SetStyleID(styleID)

	if _, err := b.session.Section(ctx, name); err != nil {
		return err
	}
	b.logger.Debug("added section", "section", name, "style_id", styleID)
	return nil
}

// AddAchievement sanitizes one achievement and appends it to the section
// as one bullet per cleaned line, all at the top list level. It returns
// how many bullets were added.
func (b *Builder) AddAchievement(ctx context.Context, section, text string) (int, error) {
	lines, err := b.sanitizer.Sanitize(text, b.strict)
	if err != nil {
		return 0, fmt.Errorf("sanitizing achievement: %w", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	added := 0
	for _, line := range lines {
		p := b.doc.AddParagraph(line)
		if err := b.session.Bind(ctx, p, section, 0); err != nil {
			return added, err
		}
		added++
	}
	b.bullets += added
	return added, nil
}

// Finalize runs the closing reconciliation sweep, saves every part and
// packages the document. It can run once per build; construction is over
// after it.
func (b *Builder) Finalize(ctx context.Context) (*Result, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	report, err := b.session.Finalize(ctx)
	if err != nil {
		return nil, err
	}
	if err := b.doc.Save(); err != nil {
		return nil, fmt.Errorf("saving parts: %w", err)
	}
	data, err := b.doc.Package().Bytes()
	if err != nil {
		return nil, fmt.Errorf("packaging: %w", err)
	}

	b.logger.Info("build finalized",
		"document", b.session.DocumentID(),
		"bullets", b.bullets,
		"visited", report.Total,
		"repaired", report.Repaired,
		"errors", len(report.Errors),
	)
	return &Result{
		Report:   report,
		Findings: b.session.Findings(),
		Bytes:    data,
	}, nil
}

// Close releases the numbering ids the build allocated. Safe to call
// more than once; meant for defer right after New.
func (b *Builder) Close(ctx context.Context) error {
	return b.session.Close(ctx)
}

// Document returns the document under construction.
func (b *Builder) Document() *wordml.Document {
	return b.doc
}

// DocumentID returns this build's id.
func (b *Builder) DocumentID() docid.DocumentID {
	return b.session.DocumentID()
}

// StyleID returns the bullet style id achievements are bound to.
func (b *Builder) StyleID() string {
	return b.session.StyleID()
}

// ensureHeadingStyle creates the section's heading style on first use.
func (b *Builder) ensureHeadingStyle(section string) (string, error) {
	if id, ok := b.headings[section]; ok {
		return id, nil
	}
	styleID := strcase.ToCamel(section) + "Heading"

	styles, ok := b.doc.Styles()
	if !ok {
		return "", fmt.Errorf("document has no styles part")
	}
	if _, exists := styles.Lookup(styleID); !exists {
		style := docxml.NewElement("style")
		style.SetAttr("type", "paragraph")
		style.SetAttr("styleId", styleID)
		style.SetAttr("customStyle", "1")
		name := docxml.NewElement("name")
		name.SetAttr("val", section)
		style.AppendChild(name)
		if _, ok := styles.Lookup("Normal"); ok {
			basedOn := docxml.NewElement("basedOn")
			basedOn.SetAttr("val", "Normal")
			style.AppendChild(basedOn)
		}
		style.AppendChild(docxml.NewElement("qFormat"))
		styles.Add(style)
	}

	b.headings[section] = styleID
	return styleID, nil
}
