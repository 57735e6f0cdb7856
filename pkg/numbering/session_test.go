package numbering

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nanaoosaki/jobsculptor-ai-app-sub001/pkg/docpkg"
	"github.com/nanaoosaki/jobsculptor-ai-app-sub001/pkg/wordml"
)

func TestSession_EndToEndBuild(t *testing.T) {
	doc := emptyDocument(t)
	ctx := context.Background()

	sess, err := NewSession(ctx, &SessionConfig{Document: doc})
	require.NoError(t, err)
	defer sess.Close(ctx)

	sections := []string{"experience", "projects", "education"}
	for _, section := range sections {
		for i := 0; i < 4; i++ {
			p := doc.AddParagraph(fmt.Sprintf("%s achievement %d", section, i+1))
			require.NoError(t, sess.Bind(ctx, p, section, 0))
		}
	}

	report, err := sess.Finalize(ctx)
	require.NoError(t, err)
	assert.Equal(t, 12, report.Total)
	assert.Zero(t, report.Repaired, "construction already bound everything")
	assert.Empty(t, report.Errors)

	num, ok := doc.Numbering()
	require.True(t, ok)
	assert.Len(t, num.InstanceIDs(), 3, "one list instance per section")

	numBySection := make(map[string]map[int]bool)
	for _, p := range doc.AllParagraphs() {
		if p.StyleID() != sess.StyleID() {
			continue
		}
		ref, state := p.NumberingRef()
		require.Equal(t, wordml.RefValid, state, p.Text())
		require.True(t, num.HasInstance(ref.NumID),
			"%s must resolve to an existing definition", p.Text())

		section := strings.Fields(p.Text())[0]
		if numBySection[section] == nil {
			numBySection[section] = make(map[int]bool)
		}
		numBySection[section][ref.NumID] = true
	}
	require.Len(t, numBySection, 3)
	seen := make(map[int]bool)
	for section, ids := range numBySection {
		assert.Len(t, ids, 1, "section %s must share one list", section)
		for id := range ids {
			assert.False(t, seen[id], "sections must not share numId %d", id)
			seen[id] = true
		}
	}
}

func TestSession_FinalizeRunsExactlyOnce(t *testing.T) {
	doc := emptyDocument(t)
	ctx := context.Background()

	sess, err := NewSession(ctx, &SessionConfig{Document: doc})
	require.NoError(t, err)
	defer sess.Close(ctx)

	p := doc.AddParagraph("Did the thing")
	require.NoError(t, sess.Bind(ctx, p, "experience", 0))

	_, err = sess.Finalize(ctx)
	require.NoError(t, err)

	_, err = sess.Finalize(ctx)
	assert.ErrorIs(t, err, ErrFinalized)

	late := doc.AddParagraph("Too late")
	assert.ErrorIs(t, sess.Bind(ctx, late, "experience", 0), ErrFinalized)

	_, err = sess.Section(ctx, "new-section")
	assert.ErrorIs(t, err, ErrFinalized)

	report, ok := sess.Report()
	require.True(t, ok)
	assert.Equal(t, 1, report.Total)
	assert.True(t, sess.Finalized())
}

func TestSession_SeedsAllocatorFromExistingNumbering(t *testing.T) {
	pkg := docpkg.NewEmpty()
	pkg.SetPart(docpkg.PartNumbering, []byte(reconcileNumbering))
	doc, err := wordml.Load(pkg)
	require.NoError(t, err)

	ctx := context.Background()
	sess, err := NewSession(ctx, &SessionConfig{Document: doc})
	require.NoError(t, err)
	defer sess.Close(ctx)

	id, err := sess.Section(ctx, "experience")
	require.NoError(t, err)
	assert.Equal(t, 101, id.NumID, "the file's own numId 100 is occupied")
}

func TestSession_RepairsForeignBullets(t *testing.T) {
	pkg := docpkg.NewEmpty()
	pkg.SetPart(docpkg.PartDocument, []byte(bulletScanDocument))
	pkg.SetPart("word/header1.xml", []byte(bulletScanHeader))
	doc, err := wordml.Load(pkg)
	require.NoError(t, err)

	ctx := context.Background()
	sess, err := NewSession(ctx, &SessionConfig{Document: doc})
	require.NoError(t, err)
	defer sess.Close(ctx)

	report, err := sess.Finalize(ctx)
	require.NoError(t, err)

	// The file references numId 100 but defines nothing, so every bullet
	// is dangling and gets rebound to the session's repair list.
	assert.Equal(t, 6, report.Total)
	assert.Equal(t, 6, report.Repaired)
	assert.Empty(t, report.Errors)

	num, ok := doc.Numbering()
	require.True(t, ok)
	assert.Equal(t, []int{101}, num.InstanceIDs(),
		"the referenced-but-undefined id 100 must not be adopted")
	for _, p := range doc.AllParagraphs() {
		if p.StyleID() != sess.StyleID() {
			continue
		}
		ref, state := p.NumberingRef()
		assert.Equal(t, wordml.RefValid, state, p.Text())
		assert.True(t, num.HasInstance(ref.NumID), p.Text())
	}
}

func TestSession_CloseReleasesAllocations(t *testing.T) {
	doc := emptyDocument(t)
	ctx := context.Background()
	alloc, err := NewAllocator(nil)
	require.NoError(t, err)

	sess, err := NewSession(ctx, &SessionConfig{Document: doc, Allocator: alloc})
	require.NoError(t, err)

	_, err = sess.Section(ctx, "experience")
	require.NoError(t, err)
	_, err = sess.Section(ctx, "projects")
	require.NoError(t, err)
	assert.Len(t, alloc.ActiveIDs(sess.DocumentID()), 2)

	require.NoError(t, sess.Close(ctx))
	assert.Empty(t, alloc.ActiveIDs(sess.DocumentID()))

	require.NoError(t, sess.Close(ctx), "closing twice is fine")
}

func TestSession_SectionReusesItsList(t *testing.T) {
	doc := emptyDocument(t)
	ctx := context.Background()

	sess, err := NewSession(ctx, &SessionConfig{Document: doc})
	require.NoError(t, err)
	defer sess.Close(ctx)

	first, err := sess.Section(ctx, "experience")
	require.NoError(t, err)
	again, err := sess.Section(ctx, "experience")
	require.NoError(t, err)
	assert.Equal(t, first, again)

	other, err := sess.Section(ctx, "projects")
	require.NoError(t, err)
	assert.NotEqual(t, first.NumID, other.NumID)
}
