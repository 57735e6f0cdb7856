package numbering

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nanaoosaki/jobsculptor-ai-app-sub001/pkg/docid"
)

func TestAllocator_SequentialGrantsAreDistinct(t *testing.T) {
	a, err := NewAllocator(nil)
	require.NoError(t, err)
	document := docid.NewDocumentID()

	seen := make(map[int]bool)
	for i := 0; i < 50; i++ {
		id, err := a.Allocate(context.Background(), document, "experience", "")
		require.NoError(t, err)
		assert.False(t, seen[id.NumID], "numId %d granted twice", id.NumID)
		seen[id.NumID] = true
		assert.Equal(t, id.NumID, id.AbstractID)
		for _, r := range DefaultReservedRanges() {
			assert.False(t, r.Contains(id.NumID), "numId %d inside reserved range", id.NumID)
		}
	}
}

func TestAllocator_GrantsAboveSeededIDs(t *testing.T) {
	a, err := NewAllocator(&AllocatorConfig{Base: 1, Reserved: []Range{}})
	require.NoError(t, err)
	document := docid.NewDocumentID()

	a.MarkUsed(document, 1, 5, 10)

	id, err := a.Allocate(context.Background(), document, "experience", "")
	require.NoError(t, err)
	assert.Greater(t, id.NumID, 10, "fresh grant must clear every existing id")
	assert.Equal(t, 11, id.NumID)
}

func TestAllocator_StyleScopedReuse(t *testing.T) {
	a, err := NewAllocator(nil)
	require.NoError(t, err)
	document := docid.NewDocumentID()
	ctx := context.Background()

	first, err := a.Allocate(ctx, document, "skills", "SculptorBullet")
	require.NoError(t, err)
	again, err := a.Allocate(ctx, document, "skills", "SculptorBullet")
	require.NoError(t, err)
	assert.Equal(t, first, again, "same style must reuse its grant")

	other, err := a.Allocate(ctx, document, "skills", "OtherStyle")
	require.NoError(t, err)
	assert.NotEqual(t, first.NumID, other.NumID)
}

func TestAllocator_SkipsReservedRanges(t *testing.T) {
	a, err := NewAllocator(&AllocatorConfig{Base: 398})
	require.NoError(t, err)
	document := docid.NewDocumentID()
	ctx := context.Background()

	var got []int
	for i := 0; i < 3; i++ {
		id, err := a.Allocate(ctx, document, "", "")
		require.NoError(t, err)
		got = append(got, id.NumID)
	}
	assert.Equal(t, []int{398, 399, 500}, got, "scan must jump the 400 block")
}

func TestAllocator_WorkerSaltOffsetsScanStart(t *testing.T) {
	cases := []struct {
		key  docid.WorkerKey
		want int
	}{
		{key: 0, want: 100},
		{key: 3, want: 3100},
		{key: 11, want: 3100},
	}
	for _, tc := range cases {
		a, err := NewAllocator(&AllocatorConfig{WorkerKey: tc.key})
		require.NoError(t, err)
		id, err := a.Allocate(context.Background(), docid.NewDocumentID(), "", "")
		require.NoError(t, err)
		assert.Equal(t, tc.want, id.NumID, "worker key %d", tc.key)
	}
}

func TestAllocator_ExhaustionPastCeiling(t *testing.T) {
	a, err := NewAllocator(&AllocatorConfig{Base: 31999})
	require.NoError(t, err)
	document := docid.NewDocumentID()
	ctx := context.Background()

	_, err = a.Allocate(ctx, document, "", "")
	require.NoError(t, err)
	_, err = a.Allocate(ctx, document, "", "")
	require.NoError(t, err)

	_, err = a.Allocate(ctx, document, "", "")
	require.Error(t, err)
	var exhausted *AllocationExhaustedError
	require.True(t, errors.As(err, &exhausted))
	assert.Equal(t, DefaultCeiling, exhausted.Ceiling)
	assert.Equal(t, document, exhausted.Document)
}

func TestAllocator_ReleaseForgetsDocument(t *testing.T) {
	a, err := NewAllocator(nil)
	require.NoError(t, err)
	document := docid.NewDocumentID()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := a.Allocate(ctx, document, "experience", "")
		require.NoError(t, err)
	}
	assert.Len(t, a.ActiveIDs(document), 3)

	released, err := a.Release(ctx, document)
	require.NoError(t, err)
	assert.Equal(t, 3, released)
	assert.Empty(t, a.ActiveIDs(document))

	// A fresh build starts the scan over.
	id, err := a.Allocate(ctx, document, "experience", "")
	require.NoError(t, err)
	assert.Equal(t, 100, id.NumID)
}

func TestAllocator_DetectCollisions(t *testing.T) {
	a, err := NewAllocator(nil)
	require.NoError(t, err)
	docA := docid.NewDocumentID()
	docB := docid.NewDocumentID()

	a.MarkUsed(docA, 50, 700)
	a.MarkUsed(docB, 700)

	collisions := a.DetectCollisions()

	var reserved, crossDoc, duplicate int
	for _, c := range collisions {
		switch c.Kind {
		case CollisionReserved:
			reserved++
			assert.Equal(t, 50, c.NumID)
			assert.Equal(t, docA, c.Document)
			assert.True(t, c.Reallocate)
		case CollisionCrossDocument:
			crossDoc++
			assert.Equal(t, 700, c.NumID)
			assert.False(t, c.Reallocate)
		case CollisionDuplicate:
			duplicate++
		}
	}
	assert.Equal(t, 1, reserved)
	assert.Equal(t, 1, crossDoc)
	assert.Zero(t, duplicate)
}

func TestAllocator_RejectsZeroDocument(t *testing.T) {
	a, err := NewAllocator(nil)
	require.NoError(t, err)

	_, err = a.Allocate(context.Background(), docid.DocumentID{}, "", "")
	assert.Error(t, err)
}
