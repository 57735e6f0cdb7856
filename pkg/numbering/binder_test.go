package numbering

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nanaoosaki/jobsculptor-ai-app-sub001/pkg/docxml"
	"github.com/nanaoosaki/jobsculptor-ai-app-sub001/pkg/wordml"
)

func TestBinder_ContentFirst(t *testing.T) {
	doc := emptyDocument(t)
	p := doc.AddParagraph("")
	b := NewBinder(nil)

	err := b.Bind(p, wordml.NumberingRef{NumID: 100})
	require.Error(t, err)
	var violation *ContentFirstError
	require.True(t, errors.As(err, &violation))

	assert.Empty(t, p.Node().Children, "a refused bind must not mutate the paragraph")
	assert.False(t, b.Bound(p))
}

func TestBinder_BindWritesAndVerifies(t *testing.T) {
	doc := emptyDocument(t)
	p := doc.AddParagraph("Shipped the resharding project")
	b := NewBinder(nil)

	want := wordml.NumberingRef{NumID: 100, Level: 2}
	require.NoError(t, b.Bind(p, want))

	got, state := p.NumberingRef()
	assert.Equal(t, wordml.RefValid, state)
	assert.Equal(t, want, got)
	assert.True(t, b.Bound(p))
}

func TestBinder_RebindSameRefIsNoOp(t *testing.T) {
	doc := emptyDocument(t)
	p := doc.AddParagraph("Cut page load by 40%")
	b := NewBinder(nil)
	ref := wordml.NumberingRef{NumID: 100}

	require.NoError(t, b.Bind(p, ref))
	first := p.Node().Child("pPr").Child("numPr")
	require.NotNil(t, first)

	require.NoError(t, b.Bind(p, ref))
	assert.Same(t, first, p.Node().Child("pPr").Child("numPr"),
		"an identical rebind must not rewrite the tree")
}

func TestBinder_RebindDifferentLevelUpdates(t *testing.T) {
	doc := emptyDocument(t)
	p := doc.AddParagraph("Mentored two interns")
	b := NewBinder(nil)

	require.NoError(t, b.Bind(p, wordml.NumberingRef{NumID: 100, Level: 0}))
	require.NoError(t, b.Bind(p, wordml.NumberingRef{NumID: 100, Level: 1}))

	got, state := p.NumberingRef()
	assert.Equal(t, wordml.RefValid, state)
	assert.Equal(t, 1, got.Level)
	assert.Len(t, p.Node().FindAll("numPr"), 1)
}

func TestBinder_ClearsDirectIndent(t *testing.T) {
	doc := emptyDocument(t)
	p := doc.AddParagraph("Owned the billing pipeline")

	pPr := docxml.NewElement("pPr")
	ind := docxml.NewElement("ind")
	ind.SetAttr("left", "720")
	pPr.AppendChild(ind)
	p.Node().InsertChildAt(0, pPr)
	require.True(t, p.HasDirectIndent())

	b := NewBinder(nil)
	require.NoError(t, b.Bind(p, wordml.NumberingRef{NumID: 100}))
	assert.False(t, p.HasDirectIndent(),
		"direct indents fight the definition's own indentation")
}
