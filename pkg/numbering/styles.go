package numbering

import (
	"context"
	"fmt"
	"sync"

	"github.com/hashicorp/go-hclog"
	"github.com/iancoleman/strcase"

	"github.com/nanaoosaki/jobsculptor-ai-app-sub001/pkg/docid"
	"github.com/nanaoosaki/jobsculptor-ai-app-sub001/pkg/docxml"
	"github.com/nanaoosaki/jobsculptor-ai-app-sub001/pkg/wordml"
)

const (
	// DefaultBulletStyleID is the reserved paragraph style id the engine
	// binds bullets to.
	DefaultBulletStyleID = "SculptorBullet"

	// DefaultBulletStyleName is the display name of the engine's style.
	DefaultBulletStyleName = "Sculptor Bullet"

	// engineAliasTag marks styles created by this engine, written into
	// w:aliases so a later run can tell its own definition from a user's.
	engineAliasTag = "sculptor-bullet"
)

// FindingKind classifies a style-registry finding.
type FindingKind int

const (
	// FindingNameCollision: a name was re-registered with different
	// properties. The existing definition wins.
	FindingNameCollision FindingKind = iota

	// FindingPropertyConflict: two names carry identical properties. The
	// lower-priority name becomes an alias of the higher-priority one.
	FindingPropertyConflict

	// FindingNumberingConflict: a numbering id was bound to two styles.
	// The lower-priority style gets a fresh id.
	FindingNumberingConflict

	// FindingStyleRenamed: a user style occupied the reserved bullet
	// style id and was renamed out of the way.
	FindingStyleRenamed
)

func (k FindingKind) String() string {
	switch k {
	case FindingNameCollision:
		return "name-collision"
	case FindingPropertyConflict:
		return "property-conflict"
	case FindingNumberingConflict:
		return "numbering-conflict"
	case FindingStyleRenamed:
		return "style-renamed"
	default:
		return fmt.Sprintf("finding(%d)", int(k))
	}
}

// Finding is one auto-resolved style conflict. Findings are reported as
// data, never raised.
type Finding struct {
	Kind       FindingKind
	Style      string
	Other      string
	Detail     string
	Resolution string
}

// StyleDefinition is a registered paragraph style as the engine sees it:
// an id, an inheritance parent, a property bag for conflict comparison,
// and optionally a bound numbering id.
type StyleDefinition struct {
	Name       string
	Type       string
	BasedOn    string
	Properties map[string]string
	Numbering  *NumberingID

	// Priority breaks conflicts: the smaller value wins. Styles with
	// equal priority resolve in favor of the earlier registration.
	Priority int

	// AliasOf is set by the registry when a property conflict demoted
	// this style to an alias of another.
	AliasOf string
}

// StyleRegistryConfig holds configuration for a StyleRegistry.
type StyleRegistryConfig struct {
	// Allocator grants fresh ids when a numbering conflict must be
	// resolved. Optional; without it the losing style's binding is
	// cleared instead.
	Allocator *Allocator

	// Document scopes fresh grants made during conflict resolution.
	Document docid.DocumentID

	// Logger
	Logger hclog.Logger
}

// StyleRegistry tracks style registrations for one document build and
// auto-resolves the conflicts between them. Safe for concurrent use.
type StyleRegistry struct {
	mu        sync.Mutex
	styles    map[string]*StyleDefinition
	order     []string
	byNumID   map[int]string
	findings  []Finding
	allocator *Allocator
	document  docid.DocumentID
	logger    hclog.Logger
}

// NewStyleRegistry creates a registry from cfg. A nil cfg uses defaults.
func NewStyleRegistry(cfg *StyleRegistryConfig) *StyleRegistry {
	if cfg == nil {
		cfg = &StyleRegistryConfig{}
	}
	if cfg.Logger == nil {
		cfg.Logger = hclog.NewNullLogger()
	}
	return &StyleRegistry{
		styles:    make(map[string]*StyleDefinition),
		byNumID:   make(map[int]string),
		allocator: cfg.Allocator,
		document:  cfg.Document,
		logger:    cfg.Logger.Named("style-registry"),
	}
}

// Register records a style definition, running the cycle check and the
// three conflict resolutions. It returns the findings this registration
// produced. An inheritance cycle aborts the registration with an
// *InheritanceCycleError.
func (r *StyleRegistry) Register(ctx context.Context, def StyleDefinition) ([]Finding, error) {
	if def.Name == "" {
		return nil, fmt.Errorf("style name is required")
	}
	if def.Type == "" {
		def.Type = "paragraph"
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.cycleCheck(def); err != nil {
		return nil, err
	}

	var findings []Finding

	if existing, ok := r.styles[def.Name]; ok {
		if definitionsEquivalent(existing, &def) {
			return nil, nil
		}
		f := Finding{
			Kind:       FindingNameCollision,
			Style:      def.Name,
			Detail:     "name re-registered with different properties",
			Resolution: "kept the existing definition",
		}
		r.record(f)
		return []Finding{f}, nil
	}

	if twin := r.propertyTwin(&def); twin != nil {
		loser, winner := &def, twin
		if outranks(&def, twin) {
			loser, winner = twin, &def
		}
		loser.AliasOf = winner.Name
		f := Finding{
			Kind:       FindingPropertyConflict,
			Style:      loser.Name,
			Other:      winner.Name,
			Detail:     "two styles carry identical properties",
			Resolution: fmt.Sprintf("aliased %s to %s", loser.Name, winner.Name),
		}
		r.record(f)
		findings = append(findings, f)
	}

	if def.Numbering != nil {
		if f, err := r.resolveNumbering(ctx, &def); err != nil {
			return findings, err
		} else if f != nil {
			findings = append(findings, *f)
		}
	}
	if def.Numbering != nil {
		r.byNumID[def.Numbering.NumID] = def.Name
	}

	stored := def
	r.styles[def.Name] = &stored
	r.order = append(r.order, def.Name)
	return findings, nil
}

// resolveNumbering handles a numbering id already bound to another style:
// the lower-priority style gets a fresh id, or a cleared binding when no
// allocator is wired.
func (r *StyleRegistry) resolveNumbering(ctx context.Context, def *StyleDefinition) (*Finding, error) {
	holderName, bound := r.byNumID[def.Numbering.NumID]
	if !bound || holderName == def.Name {
		return nil, nil
	}
	holder := r.styles[holderName]

	loser := def
	if holder != nil && outranks(def, holder) {
		loser = holder
	}

	conflicted := def.Numbering.NumID
	resolution := "cleared the lower-priority binding"
	if r.allocator != nil && !r.document.IsZero() {
		fresh, err := r.allocator.Allocate(ctx, r.document, "", "")
		if err != nil {
			return nil, fmt.Errorf("reassigning numbering id for style %s: %w", loser.Name, err)
		}
		loser.Numbering = &fresh
		resolution = fmt.Sprintf("reassigned %s to numId %d", loser.Name, fresh.NumID)
	} else {
		loser.Numbering = nil
	}
	if loser != def && loser.Numbering != nil {
		r.byNumID[loser.Numbering.NumID] = loser.Name
	}

	f := Finding{
		Kind:       FindingNumberingConflict,
		Style:      loser.Name,
		Other:      holderName,
		Detail:     fmt.Sprintf("numId %d bound to two styles", conflicted),
		Resolution: resolution,
	}
	r.record(f)
	return &f, nil
}

// cycleCheck walks the basedOn chain that registering def would create.
// The returned path ends with the style that closed the loop.
func (r *StyleRegistry) cycleCheck(def StyleDefinition) error {
	seen := map[string]bool{def.Name: true}
	path := []string{def.Name}
	cur := def.BasedOn
	for cur != "" {
		path = append(path, cur)
		if seen[cur] {
			return &InheritanceCycleError{Path: path}
		}
		seen[cur] = true
		parent, ok := r.styles[cur]
		if !ok {
			break
		}
		cur = parent.BasedOn
	}
	return nil
}

// propertyTwin returns a registered style with the same type and an
// identical, non-empty property bag.
func (r *StyleRegistry) propertyTwin(def *StyleDefinition) *StyleDefinition {
	if len(def.Properties) == 0 {
		return nil
	}
	for _, name := range r.order {
		other := r.styles[name]
		if other.AliasOf != "" || other.Type != def.Type {
			continue
		}
		if propsEqual(other.Properties, def.Properties) {
			return other
		}
	}
	return nil
}

func (r *StyleRegistry) record(f Finding) {
	r.findings = append(r.findings, f)
	r.logger.Warn("style conflict auto-resolved",
		"kind", f.Kind.String(),
		"style", f.Style,
		"other", f.Other,
		"resolution", f.Resolution,
	)
}

// Lookup returns the registered definition for name.
func (r *StyleRegistry) Lookup(name string) (StyleDefinition, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	def, ok := r.styles[name]
	if !ok {
		return StyleDefinition{}, false
	}
	return *def, true
}

// Findings returns every conflict recorded so far, in order.
func (r *StyleRegistry) Findings() []Finding {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Finding, len(r.findings))
	copy(out, r.findings)
	return out
}

func outranks(a, b *StyleDefinition) bool {
	return a.Priority < b.Priority
}

func propsEqual(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if b[k] != v {
			return false
		}
	}
	return true
}

func definitionsEquivalent(a, b *StyleDefinition) bool {
	if a.Type != b.Type || a.BasedOn != b.BasedOn {
		return false
	}
	if !propsEqual(a.Properties, b.Properties) {
		return false
	}
	switch {
	case a.Numbering == nil && b.Numbering == nil:
		return true
	case a.Numbering == nil || b.Numbering == nil:
		return false
	default:
		return *a.Numbering == *b.Numbering
	}
}

// ResolverConfig holds configuration for a Resolver.
type ResolverConfig struct {
	// StyleID is the reserved bullet style id. Defaults to
	// DefaultBulletStyleID.
	StyleID string

	// DisplayName is the style's display name. Defaults to
	// DefaultBulletStyleName.
	DisplayName string

	// BasedOn names the parent for the engine's definition. When empty,
	// ListParagraph is used if the document has it, then Normal.
	BasedOn string

	// Registry records the engine style. A nil registry gets created.
	Registry *StyleRegistry

	// Logger
	Logger hclog.Logger
}

// Resolver owns the reserved bullet style inside a document: it evicts
// squatters, creates the engine's definition, and registers it.
type Resolver struct {
	styleID     string
	displayName string
	basedOn     string
	registry    *StyleRegistry
	logger      hclog.Logger
}

// NewResolver creates a resolver from cfg. A nil cfg uses all defaults.
func NewResolver(cfg *ResolverConfig) *Resolver {
	if cfg == nil {
		cfg = &ResolverConfig{}
	}
	if cfg.StyleID == "" {
		cfg.StyleID = DefaultBulletStyleID
	}
	if cfg.DisplayName == "" {
		cfg.DisplayName = DefaultBulletStyleName
	}
	if cfg.Registry == nil {
		cfg.Registry = NewStyleRegistry(nil)
	}
	if cfg.Logger == nil {
		cfg.Logger = hclog.NewNullLogger()
	}
	return &Resolver{
		styleID:     cfg.StyleID,
		displayName: cfg.DisplayName,
		basedOn:     cfg.BasedOn,
		registry:    cfg.Registry,
		logger:      cfg.Logger.Named("style-resolver"),
	}
}

// StyleID returns the reserved bullet style id.
func (rv *Resolver) StyleID() string {
	return rv.styleID
}

// Registry returns the style registry backing the resolver.
func (rv *Resolver) Registry() *StyleRegistry {
	return rv.registry
}

// EnsureBulletStyle makes the reserved style id resolve to the engine's
// bullet definition. A user style squatting on the id is renamed to a
// disambiguated alias first; paragraphs referencing the id then pick up
// the engine style. Idempotent once the engine owns the id.
func (rv *Resolver) EnsureBulletStyle(ctx context.Context, doc *wordml.Document) ([]Finding, error) {
	if doc == nil {
		return nil, fmt.Errorf("document is required")
	}
	styles, ok := doc.Styles()
	if !ok {
		return nil, fmt.Errorf("document has no styles part")
	}

	var findings []Finding
	if existing, found := styles.Lookup(rv.styleID); found {
		if engineOwned(existing) {
			return nil, nil
		}
		alias := rv.aliasName(styles)
		existing.Node().SetAttr("styleId", alias)
		f := Finding{
			Kind:       FindingStyleRenamed,
			Style:      rv.styleID,
			Other:      alias,
			Detail:     "user style occupied the reserved bullet style id",
			Resolution: fmt.Sprintf("renamed to %s", alias),
		}
		findings = append(findings, f)
		rv.logger.Warn("renamed user style off the reserved bullet style id",
			"style_id", rv.styleID,
			"alias", alias,
		)
	}

	parent := rv.parentStyle(styles)
	styles.Add(rv.buildStyle(parent))
	regFindings, err := rv.registry.Register(ctx, StyleDefinition{
		Name:       rv.styleID,
		Type:       "paragraph",
		BasedOn:    parent,
		Properties: map[string]string{"contextualSpacing": "1"},
	})
	if err != nil {
		return findings, err
	}
	findings = append(findings, regFindings...)

	rv.logger.Debug("ensured bullet style", "style_id", rv.styleID, "based_on", parent)
	return findings, nil
}

// aliasName picks an unused alias for an evicted style, derived from the
// reserved id: SculptorBulletLegacy, then SculptorBulletLegacy2, ...
func (rv *Resolver) aliasName(styles *wordml.Styles) string {
	base := strcase.ToCamel(rv.styleID + " legacy")
	alias := base
	for n := 2; ; n++ {
		if _, taken := styles.Lookup(alias); !taken {
			return alias
		}
		alias = fmt.Sprintf("%s%d", base, n)
	}
}

// parentStyle resolves the basedOn target, falling back to the document's
// list or default paragraph style.
func (rv *Resolver) parentStyle(styles *wordml.Styles) string {
	if rv.basedOn != "" {
		if _, ok := styles.Lookup(rv.basedOn); ok {
			return rv.basedOn
		}
		rv.logger.Warn("configured parent style not in document", "based_on", rv.basedOn)
		return ""
	}
	for _, candidate := range []string{"ListParagraph", "Normal"} {
		if _, ok := styles.Lookup(candidate); ok {
			return candidate
		}
	}
	return ""
}

func (rv *Resolver) buildStyle(parent string) *docxml.Node {
	style := docxml.NewElement("style")
	style.SetAttr("type", "paragraph")
	style.SetAttr("styleId", rv.styleID)
	style.SetAttr("customStyle", "1")

	name := docxml.NewElement("name")
	name.SetAttr("val", rv.displayName)
	style.AppendChild(name)

	aliases := docxml.NewElement("aliases")
	aliases.SetAttr("val", engineAliasTag)
	style.AppendChild(aliases)

	if parent != "" {
		basedOn := docxml.NewElement("basedOn")
		basedOn.SetAttr("val", parent)
		style.AppendChild(basedOn)
	}

	style.AppendChild(docxml.NewElement("qFormat"))

	pPr := docxml.NewElement("pPr")
	pPr.AppendChild(docxml.NewElement("contextualSpacing"))
	style.AppendChild(pPr)

	return style
}

// engineOwned reports whether the style carries the engine's alias tag.
func engineOwned(s *wordml.Style) bool {
	aliases := s.Node().Child("aliases")
	return aliases != nil && aliases.AttrValue("val") == engineAliasTag
}
