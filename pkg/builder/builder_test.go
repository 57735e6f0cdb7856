package builder

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nanaoosaki/jobsculptor-ai-app-sub001/pkg/audit"
	"github.com/nanaoosaki/jobsculptor-ai-app-sub001/pkg/docpkg"
	"github.com/nanaoosaki/jobsculptor-ai-app-sub001/pkg/numbering"
	"github.com/nanaoosaki/jobsculptor-ai-app-sub001/pkg/sanitize"
	"github.com/nanaoosaki/jobsculptor-ai-app-sub001/pkg/wordml"
)

func TestBuilder_EndToEnd(t *testing.T) {
	ctx := context.Background()
	b, err := New(ctx, nil)
	require.NoError(t, err)
	defer b.Close(ctx)

	sections := []string{"Professional Experience", "Projects", "Education"}
	for _, section := range sections {
		require.NoError(t, b.AddSection(ctx, section))
		for i := 1; i <= 4; i++ {
			added, err := b.AddAchievement(ctx, section,
				fmt.Sprintf("Shipped improvement %d", i))
			require.NoError(t, err)
			assert.Equal(t, 1, added)
		}
	}

	res, err := b.Finalize(ctx)
	require.NoError(t, err)
	assert.Equal(t, 12, res.Report.Total)
	assert.Zero(t, res.Report.Repaired, "trusted bindings need no repair")
	assert.Empty(t, res.Report.Errors)
	assert.NoError(t, res.Report.Err())
	assert.Empty(t, res.Findings)
	require.NotEmpty(t, res.Bytes)
	assert.Equal(t, "PK", string(res.Bytes[:2]))

	// Reopen the produced bytes and verify the document is coherent.
	pkg, err := docpkg.FromBytes(res.Bytes)
	require.NoError(t, err)
	doc, err := wordml.Load(pkg)
	require.NoError(t, err)

	groups := make(map[string]map[int]bool)
	current := ""
	bullets := 0
	for _, p := range doc.BodyParagraphs() {
		if strings.HasSuffix(p.StyleID(), "Heading") {
			current = p.Text()
			continue
		}
		if p.StyleID() != b.StyleID() {
			continue
		}
		bullets++
		ref, state := p.NumberingRef()
		require.Equal(t, wordml.RefValid, state, p.Text())
		require.NotEmpty(t, current, "bullet before any heading")
		if groups[current] == nil {
			groups[current] = make(map[int]bool)
		}
		groups[current][ref.NumID] = true
	}
	assert.Equal(t, 12, bullets)
	require.Len(t, groups, 3)

	seen := make(map[int]bool)
	for section, ids := range groups {
		assert.Len(t, ids, 1, "section %s spans one list", section)
		for id := range ids {
			assert.False(t, seen[id], "sections do not share lists")
			seen[id] = true
			assert.GreaterOrEqual(t, id, 100)
		}
	}

	num, ok := doc.Numbering()
	require.True(t, ok)
	assert.Len(t, num.InstanceIDs(), 3)

	issues, err := audit.New(nil).Analyze(pkg)
	require.NoError(t, err)
	assert.Empty(t, issues, "a finished build audits clean")
}

func TestBuilder_SanitizesAchievementText(t *testing.T) {
	ctx := context.Background()
	b, err := New(ctx, nil)
	require.NoError(t, err)
	defer b.Close(ctx)

	added, err := b.AddAchievement(ctx, "Experience",
		"• Cut query latency 40%\nAlso cut storage costs")
	require.NoError(t, err)
	assert.Equal(t, 2, added, "the embedded break becomes a second bullet")

	texts := make([]string, 0, 2)
	for _, p := range b.Document().BodyParagraphs() {
		texts = append(texts, p.Text())
	}
	assert.Equal(t, []string{"Cut query latency 40%", "Also cut storage costs"}, texts)

	res, err := b.Finalize(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Report.Total)
}

func TestBuilder_StrictModeRejectsDirtyText(t *testing.T) {
	ctx := context.Background()
	b, err := New(ctx, &Config{Strict: true})
	require.NoError(t, err)
	defer b.Close(ctx)

	added, err := b.AddAchievement(ctx, "Experience", "• Led the migration")
	assert.Error(t, err)
	assert.Zero(t, added)
	assert.Empty(t, b.Document().BodyParagraphs(), "nothing is appended on refusal")

	var markerErr *sanitize.MarkerError
	assert.True(t, errors.As(err, &markerErr))
}

func TestBuilder_HeadingStyleDerivation(t *testing.T) {
	ctx := context.Background()
	b, err := New(ctx, nil)
	require.NoError(t, err)
	defer b.Close(ctx)

	require.NoError(t, b.AddSection(ctx, "professional experience"))

	styles, ok := b.Document().Styles()
	require.True(t, ok)
	style, ok := styles.Lookup("ProfessionalExperienceHeading")
	require.True(t, ok)
	assert.Equal(t, "paragraph", style.Type())
	assert.Equal(t, "professional experience", style.Name())
	assert.Equal(t, "Normal", style.BasedOn())

	heading := b.Document().BodyParagraphs()[0]
	assert.Equal(t, "ProfessionalExperienceHeading", heading.StyleID())
	assert.Equal(t, "professional experience", heading.Text())

	// A repeated section reuses the style without redefining it.
	before := len(styles.All())
	require.NoError(t, b.AddSection(ctx, "professional experience"))
	assert.Len(t, styles.All(), before)
}

func TestBuilder_AdoptsLegacyBullets(t *testing.T) {
	ctx := context.Background()

	// A package built elsewhere: one bullet-styled paragraph that never
	// got a numbering reference.
	pkg := docpkg.NewEmpty()
	doc, err := wordml.Load(pkg)
	require.NoError(t, err)
	legacy := doc.AddParagraph("Maintained the legacy pipeline")
	legacy.SetStyleID("SculptorBullet")
	require.NoError(t, doc.Save())

	b, err := New(ctx, &Config{Package: pkg})
	require.NoError(t, err)
	defer b.Close(ctx)

	require.NoError(t, b.AddSection(ctx, "Experience"))
	_, err = b.AddAchievement(ctx, "Experience", "Rebuilt the pipeline")
	require.NoError(t, err)

	res, err := b.Finalize(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Report.Total)
	assert.Equal(t, 1, res.Report.Repaired, "the orphan joins the first section's list")
	assert.NoError(t, res.Report.Err())

	reopened, err := docpkg.FromBytes(res.Bytes)
	require.NoError(t, err)
	issues, err := audit.New(nil).Analyze(reopened)
	require.NoError(t, err)
	assert.Empty(t, issues)
}

func TestBuilder_FinalizeRunsOnce(t *testing.T) {
	ctx := context.Background()
	b, err := New(ctx, nil)
	require.NoError(t, err)
	defer b.Close(ctx)

	_, err = b.AddAchievement(ctx, "Experience", "Did the work")
	require.NoError(t, err)

	_, err = b.Finalize(ctx)
	require.NoError(t, err)

	_, err = b.Finalize(ctx)
	assert.ErrorIs(t, err, numbering.ErrFinalized)

	_, err = b.AddAchievement(ctx, "Experience", "Too late")
	assert.ErrorIs(t, err, numbering.ErrFinalized)
}

func TestBuilder_SharedAllocator(t *testing.T) {
	ctx := context.Background()
	allocator, err := numbering.NewAllocator(nil)
	require.NoError(t, err)

	first, err := New(ctx, &Config{Allocator: allocator})
	require.NoError(t, err)
	defer first.Close(ctx)
	second, err := New(ctx, &Config{Allocator: allocator})
	require.NoError(t, err)
	defer second.Close(ctx)

	require.NoError(t, first.AddSection(ctx, "Experience"))
	require.NoError(t, second.AddSection(ctx, "Experience"))

	resA, err := first.Finalize(ctx)
	require.NoError(t, err)
	resB, err := second.Finalize(ctx)
	require.NoError(t, err)

	assert.NotEqual(t, firstNumID(t, resA.Bytes), firstNumID(t, resB.Bytes),
		"concurrent builds never share an id")
}

func firstNumID(t *testing.T, data []byte) int {
	t.Helper()
	pkg, err := docpkg.FromBytes(data)
	require.NoError(t, err)
	doc, err := wordml.Load(pkg)
	require.NoError(t, err)
	num, ok := doc.Numbering()
	require.True(t, ok)
	ids := num.InstanceIDs()
	require.NotEmpty(t, ids)
	return ids[0]
}
