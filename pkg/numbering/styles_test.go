package numbering

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nanaoosaki/jobsculptor-ai-app-sub001/pkg/docid"
	"github.com/nanaoosaki/jobsculptor-ai-app-sub001/pkg/docpkg"
	"github.com/nanaoosaki/jobsculptor-ai-app-sub001/pkg/wordml"
)

func TestStyleRegistry_NameCollisionKeepsExisting(t *testing.T) {
	reg := NewStyleRegistry(nil)
	ctx := context.Background()

	findings, err := reg.Register(ctx, StyleDefinition{Name: "Body", Properties: map[string]string{"spacing": "240"}})
	require.NoError(t, err)
	assert.Empty(t, findings)

	findings, err = reg.Register(ctx, StyleDefinition{Name: "Body", Properties: map[string]string{"spacing": "240"}})
	require.NoError(t, err)
	assert.Empty(t, findings, "identical re-registration is a no-op")

	findings, err = reg.Register(ctx, StyleDefinition{Name: "Body", Properties: map[string]string{"spacing": "480"}})
	require.NoError(t, err)
	require.Len(t, findings, 1)
	assert.Equal(t, FindingNameCollision, findings[0].Kind)

	def, ok := reg.Lookup("Body")
	require.True(t, ok)
	assert.Equal(t, "240", def.Properties["spacing"], "the existing definition wins")
}

func TestStyleRegistry_PropertyConflictAliasesLowerPriority(t *testing.T) {
	reg := NewStyleRegistry(nil)
	ctx := context.Background()
	props := map[string]string{"contextualSpacing": "1"}

	_, err := reg.Register(ctx, StyleDefinition{Name: "TightBullet", Priority: 1, Properties: props})
	require.NoError(t, err)

	findings, err := reg.Register(ctx, StyleDefinition{Name: "CompactBullet", Priority: 5, Properties: props})
	require.NoError(t, err)
	require.Len(t, findings, 1)
	assert.Equal(t, FindingPropertyConflict, findings[0].Kind)
	assert.Equal(t, "CompactBullet", findings[0].Style)
	assert.Equal(t, "TightBullet", findings[0].Other)

	demoted, _ := reg.Lookup("CompactBullet")
	assert.Equal(t, "TightBullet", demoted.AliasOf)
	kept, _ := reg.Lookup("TightBullet")
	assert.Empty(t, kept.AliasOf)

	// A higher-priority newcomer demotes the incumbent instead.
	findings, err = reg.Register(ctx, StyleDefinition{Name: "PrimaryBullet", Priority: 0, Properties: props})
	require.NoError(t, err)
	require.Len(t, findings, 1)
	assert.Equal(t, "TightBullet", findings[0].Style)

	incumbent, _ := reg.Lookup("TightBullet")
	assert.Equal(t, "PrimaryBullet", incumbent.AliasOf)
}

func TestStyleRegistry_NumberingConflictReassignsFreshID(t *testing.T) {
	alloc, err := NewAllocator(nil)
	require.NoError(t, err)
	document := docid.NewDocumentID()
	reg := NewStyleRegistry(&StyleRegistryConfig{Allocator: alloc, Document: document})
	ctx := context.Background()

	granted, err := alloc.Allocate(ctx, document, "experience", "")
	require.NoError(t, err)

	_, err = reg.Register(ctx, StyleDefinition{Name: "HighPriority", Priority: 0, Numbering: &granted})
	require.NoError(t, err)

	shared := granted
	findings, err := reg.Register(ctx, StyleDefinition{Name: "LowPriority", Priority: 9, Numbering: &shared})
	require.NoError(t, err)
	require.Len(t, findings, 1)
	assert.Equal(t, FindingNumberingConflict, findings[0].Kind)
	assert.Equal(t, "LowPriority", findings[0].Style)

	low, _ := reg.Lookup("LowPriority")
	require.NotNil(t, low.Numbering)
	assert.NotEqual(t, granted.NumID, low.Numbering.NumID, "loser must get a fresh id")

	high, _ := reg.Lookup("HighPriority")
	require.NotNil(t, high.Numbering)
	assert.Equal(t, granted.NumID, high.Numbering.NumID, "winner keeps its id")
}

func TestStyleRegistry_NumberingConflictWithoutAllocatorClearsBinding(t *testing.T) {
	reg := NewStyleRegistry(nil)
	ctx := context.Background()
	id := NumberingID{NumID: 100, AbstractID: 100}

	_, err := reg.Register(ctx, StyleDefinition{Name: "First", Numbering: &id})
	require.NoError(t, err)

	second := id
	findings, err := reg.Register(ctx, StyleDefinition{Name: "Second", Numbering: &second})
	require.NoError(t, err)
	require.Len(t, findings, 1)

	def, _ := reg.Lookup("Second")
	assert.Nil(t, def.Numbering, "without an allocator the losing binding is cleared")
}

func TestStyleRegistry_InheritanceCycle(t *testing.T) {
	reg := NewStyleRegistry(nil)
	ctx := context.Background()

	_, err := reg.Register(ctx, StyleDefinition{Name: "A", BasedOn: "B"})
	require.NoError(t, err, "an unknown parent just ends the chain")

	_, err = reg.Register(ctx, StyleDefinition{Name: "B", BasedOn: "A"})
	require.Error(t, err)
	var cycle *InheritanceCycleError
	require.True(t, errors.As(err, &cycle))
	assert.Equal(t, []string{"B", "A", "B"}, cycle.Path)

	_, ok := reg.Lookup("B")
	assert.False(t, ok, "a cyclic definition is not registered")

	_, err = reg.Register(ctx, StyleDefinition{Name: "Loop", BasedOn: "Loop"})
	require.Error(t, err)
	require.True(t, errors.As(err, &cycle))
}

const squatterStyles = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:styles xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"><w:style w:type="paragraph" w:default="1" w:styleId="Normal"><w:name w:val="Normal"/><w:qFormat/></w:style><w:style w:type="paragraph" w:styleId="SculptorBullet"><w:name w:val="My Bullets"/><w:basedOn w:val="Normal"/></w:style></w:styles>`

func TestResolver_RenamesSquatterAndKeepsCanonicalName(t *testing.T) {
	pkg := docpkg.NewEmpty()
	pkg.SetPart(docpkg.PartStyles, []byte(squatterStyles))
	doc, err := wordml.Load(pkg)
	require.NoError(t, err)

	rv := NewResolver(nil)
	findings, err := rv.EnsureBulletStyle(context.Background(), doc)
	require.NoError(t, err)
	require.Len(t, findings, 1)
	assert.Equal(t, FindingStyleRenamed, findings[0].Kind)
	assert.Equal(t, "SculptorBullet", findings[0].Style)
	assert.Equal(t, "SculptorBulletLegacy", findings[0].Other)

	styles, ok := doc.Styles()
	require.True(t, ok)

	legacy, ok := styles.Lookup("SculptorBulletLegacy")
	require.True(t, ok, "squatter must survive under its alias")
	assert.Equal(t, "My Bullets", legacy.Name())

	engine, ok := styles.Lookup("SculptorBullet")
	require.True(t, ok, "the engine definition keeps the canonical id")
	assert.Equal(t, DefaultBulletStyleName, engine.Name())
	assert.Equal(t, "Normal", engine.BasedOn())

	// Second touch finds the engine's own style and changes nothing.
	findings, err = rv.EnsureBulletStyle(context.Background(), doc)
	require.NoError(t, err)
	assert.Empty(t, findings)
	assert.Len(t, styles.All(), 3)
}

func TestResolver_AliasNameSkipsTakenIDs(t *testing.T) {
	taken := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:styles xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:style w:type="paragraph" w:styleId="SculptorBullet"><w:name w:val="Mine"/></w:style><w:style w:type="paragraph" w:styleId="SculptorBulletLegacy"><w:name w:val="Older"/></w:style></w:styles>`
	pkg := docpkg.NewEmpty()
	pkg.SetPart(docpkg.PartStyles, []byte(taken))
	doc, err := wordml.Load(pkg)
	require.NoError(t, err)

	rv := NewResolver(nil)
	findings, err := rv.EnsureBulletStyle(context.Background(), doc)
	require.NoError(t, err)
	require.Len(t, findings, 1)
	assert.Equal(t, "SculptorBulletLegacy2", findings[0].Other)
}

func TestResolver_CreatesStyleOnCleanDocument(t *testing.T) {
	doc := emptyDocument(t)

	rv := NewResolver(nil)
	findings, err := rv.EnsureBulletStyle(context.Background(), doc)
	require.NoError(t, err)
	assert.Empty(t, findings)

	styles, _ := doc.Styles()
	engine, ok := styles.Lookup(DefaultBulletStyleID)
	require.True(t, ok)
	assert.Equal(t, "paragraph", engine.Type())
	assert.Equal(t, "Normal", engine.BasedOn(), "falls back to the default paragraph style")

	def, ok := rv.Registry().Lookup(DefaultBulletStyleID)
	require.True(t, ok)
	assert.Equal(t, "Normal", def.BasedOn)
}
