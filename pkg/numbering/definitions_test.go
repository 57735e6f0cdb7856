package numbering

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nanaoosaki/jobsculptor-ai-app-sub001/pkg/docpkg"
	"github.com/nanaoosaki/jobsculptor-ai-app-sub001/pkg/wordml"
)

func emptyDocument(t *testing.T) *wordml.Document {
	t.Helper()
	doc, err := wordml.Load(docpkg.NewEmpty())
	require.NoError(t, err)
	return doc
}

func TestRegistry_EnsureDefinitionIdempotent(t *testing.T) {
	doc := emptyDocument(t)
	reg := NewRegistry(nil)
	id := NumberingID{NumID: 100, AbstractID: 100}

	require.NoError(t, reg.EnsureDefinition(doc, id, DefaultLevelFormat()))
	require.NoError(t, reg.EnsureDefinition(doc, id, DefaultLevelFormat()))

	num, ok := doc.Numbering()
	require.True(t, ok)
	assert.Len(t, num.Root().FindAll("abstractNum"), 1)
	assert.Len(t, num.Root().FindAll("num"), 1)
	assert.True(t, num.HasInstance(100))
}

func TestRegistry_AbstractPrecedesInstances(t *testing.T) {
	doc := emptyDocument(t)
	reg := NewRegistry(nil)

	require.NoError(t, reg.EnsureDefinition(doc, NumberingID{NumID: 100, AbstractID: 100}, DefaultLevelFormat()))
	require.NoError(t, reg.EnsureDefinition(doc, NumberingID{NumID: 101, AbstractID: 101}, DefaultLevelFormat()))

	num, _ := doc.Numbering()
	sawInstance := false
	for _, c := range num.Root().Children {
		if c.Is("num") {
			sawInstance = true
		}
		if c.Is("abstractNum") {
			assert.False(t, sawInstance, "abstract definitions must precede instances")
		}
	}

	abstractID, ok := num.AbstractFor(101)
	require.True(t, ok)
	assert.Equal(t, 101, abstractID)
}

func TestRegistry_LevelFormat(t *testing.T) {
	doc := emptyDocument(t)
	reg := NewRegistry(nil)
	format := LevelFormat{Glyph: "-", Font: "Courier New", IndentLeft: 720, IndentHanging: 360}

	require.NoError(t, reg.EnsureDefinition(doc, NumberingID{NumID: 200, AbstractID: 200}, format))

	num, _ := doc.Numbering()
	abstract := num.Abstract(200)
	require.NotNil(t, abstract)

	lvl := abstract.FindFirst("lvl")
	require.NotNil(t, lvl)
	assert.Equal(t, "0", lvl.AttrValue("ilvl"))
	assert.Equal(t, "bullet", lvl.Child("numFmt").AttrValue("val"))
	assert.Equal(t, "-", lvl.Child("lvlText").AttrValue("val"))

	ind := lvl.Child("pPr").Child("ind")
	require.NotNil(t, ind)
	assert.Equal(t, "720", ind.AttrValue("left"))
	assert.Equal(t, "360", ind.AttrValue("hanging"))

	rFonts := lvl.Child("rPr").Child("rFonts")
	require.NotNil(t, rFonts)
	assert.Equal(t, "Courier New", rFonts.AttrValue("ascii"))
	assert.Equal(t, "Courier New", rFonts.AttrValue("hAnsi"))
}

func TestRegistry_DefaultFormatOmitsFontOverride(t *testing.T) {
	doc := emptyDocument(t)
	reg := NewRegistry(nil)

	require.NoError(t, reg.EnsureDefinition(doc, NumberingID{NumID: 100, AbstractID: 100}, DefaultLevelFormat()))

	num, _ := doc.Numbering()
	lvl := num.Abstract(100).FindFirst("lvl")
	require.NotNil(t, lvl)
	assert.Equal(t, "•", lvl.Child("lvlText").AttrValue("val"))
	assert.Nil(t, lvl.Child("rPr"), "default format leaves the document font alone")
}

func TestRegistry_RejectsInvalidID(t *testing.T) {
	doc := emptyDocument(t)
	reg := NewRegistry(nil)

	assert.Error(t, reg.EnsureDefinition(doc, NumberingID{}, DefaultLevelFormat()))
	assert.Error(t, reg.EnsureDefinition(nil, NumberingID{NumID: 100, AbstractID: 100}, DefaultLevelFormat()))
}
