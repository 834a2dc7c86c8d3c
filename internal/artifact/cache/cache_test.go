package cache

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/lk2023060901/regulatory-dashboard-backend/internal/artifact/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	items []*types.Artifact
	calls int
	err   error
}

func (f *fakeSource) ListArtifacts(_ context.Context, _ types.ArtifactFilter, page, pageSize int) (*types.Page[*types.Artifact], error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	start := (page - 1) * pageSize
	end := start + pageSize
	if start > len(f.items) {
		start = len(f.items)
	}
	if end > len(f.items) {
		end = len(f.items)
	}
	pages := (len(f.items) + pageSize - 1) / pageSize
	return &types.Page[*types.Artifact]{
		Items:      f.items[start:end],
		TotalCount: int64(len(f.items)),
		TotalPages: pages,
		Page:       page,
		PageSize:   pageSize,
	}, nil
}

var base = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func artifact(id string, offset time.Duration) *types.Artifact {
	return &types.Artifact{ID: id, CreatedAt: base.Add(offset)}
}

func ids(items []*types.Artifact) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func TestSession_RefreshPagesThroughSource(t *testing.T) {
	src := &fakeSource{}
	for i := 0; i < 7; i++ {
		src.items = append(src.items, artifact(fmt.Sprintf("a%d", i), time.Duration(-i)*time.Hour))
	}
	s := NewSession(src, 3)
	assert.False(t, s.Loaded())

	items, err := s.Items(context.Background(), false)
	require.NoError(t, err)
	assert.Len(t, items, 7)
	assert.Equal(t, 3, src.calls)
	assert.True(t, s.Loaded())

	_, err = s.Items(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 3, src.calls, "loaded snapshot is reused")

	_, err = s.Items(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, 6, src.calls)
}

func TestSession_RefreshFailureKeepsSnapshot(t *testing.T) {
	src := &fakeSource{items: []*types.Artifact{artifact("a1", 0)}}
	s := NewSession(src, 10)
	require.NoError(t, s.Refresh(context.Background()))

	src.err = errors.New("backend down")
	_, err := s.Items(context.Background(), true)
	assert.Error(t, err)
	assert.Equal(t, []string{"a1"}, ids(s.Snapshot()))
}

func TestSession_ApplyUploadKeepsOrder(t *testing.T) {
	src := &fakeSource{items: []*types.Artifact{
		artifact("c", 3*time.Hour),
		artifact("b", time.Hour),
		artifact("a", 0),
	}}
	s := NewSession(src, 10)
	require.NoError(t, s.Refresh(context.Background()))

	s.ApplyUpload(artifact("d", 4*time.Hour))
	s.ApplyUpload(artifact("m", 2*time.Hour))
	s.ApplyUpload(artifact("aa", time.Hour))
	assert.Equal(t, []string{"d", "c", "m", "aa", "b", "a"}, ids(s.Snapshot()))

	s.ApplyUpload(artifact("m", 5*time.Hour))
	assert.Equal(t, []string{"m", "d", "c", "aa", "b", "a"}, ids(s.Snapshot()))
}

func TestSession_ApplyBeforeLoadIsNoop(t *testing.T) {
	s := NewSession(&fakeSource{}, 10)
	s.ApplyUpload(artifact("x", 0))
	assert.Zero(t, s.Len())
	assert.False(t, s.ApplyDelete("x"))
}

func TestSession_ApplyDelete(t *testing.T) {
	src := &fakeSource{items: []*types.Artifact{artifact("a", time.Hour), artifact("b", 0)}}
	s := NewSession(src, 10)
	require.NoError(t, s.Refresh(context.Background()))

	assert.True(t, s.ApplyDelete("a"))
	assert.False(t, s.ApplyDelete("a"))
	assert.Equal(t, []string{"b"}, ids(s.Snapshot()))
}

func TestSession_SnapshotIsCopy(t *testing.T) {
	src := &fakeSource{items: []*types.Artifact{artifact("a", 0)}}
	s := NewSession(src, 10)
	require.NoError(t, s.Refresh(context.Background()))

	snap := s.Snapshot()
	snap[0] = artifact("z", 0)
	assert.Equal(t, []string{"a"}, ids(s.Snapshot()))
}

func TestRegistry(t *testing.T) {
	r, err := NewRegistry(2, &fakeSource{}, 10)
	require.NoError(t, err)

	s1 := r.Session("s1")
	assert.Same(t, s1, r.Session("s1"))

	r.Session("s2")
	r.Session("s1")
	r.Session("s3")
	assert.Equal(t, 2, r.Len())

	_, ok := r.Lookup("s2")
	assert.False(t, ok, "least recently used session is evicted")
	got, ok := r.Lookup("s1")
	require.True(t, ok)
	assert.Same(t, s1, got)

	r.Remove("s1")
	_, ok = r.Lookup("s1")
	assert.False(t, ok)
}

// shiftingSource 在第一页返回后插入一条更新的记录，使后续页的偏移整体后移
type shiftingSource struct {
	fakeSource
	inserted *types.Artifact
}

func (s *shiftingSource) ListArtifacts(ctx context.Context, filter types.ArtifactFilter, page, pageSize int) (*types.Page[*types.Artifact], error) {
	p, err := s.fakeSource.ListArtifacts(ctx, filter, page, pageSize)
	if err == nil && page == 1 && s.inserted != nil {
		s.items = append([]*types.Artifact{s.inserted}, s.items...)
		s.inserted = nil
	}
	return p, err
}

func TestSession_RefreshWithConcurrentInsertHasNoDuplicates(t *testing.T) {
	src := &shiftingSource{
		fakeSource: fakeSource{items: []*types.Artifact{
			artifact("b", -1*time.Hour),
			artifact("c", -2*time.Hour),
			artifact("d", -3*time.Hour),
			artifact("e", -4*time.Hour),
		}},
		inserted: artifact("a", 0),
	}
	s := NewSession(src, 2)

	require.NoError(t, s.Refresh(context.Background()))
	assert.Equal(t, []string{"b", "c", "d", "e"}, ids(s.Snapshot()))

	assert.True(t, s.ApplyDelete("c"))
	assert.Equal(t, []string{"b", "d", "e"}, ids(s.Snapshot()))
	assert.False(t, s.ApplyDelete("c"))
}

func TestSession_ApplyDeleteRemovesEveryMatch(t *testing.T) {
	s := NewSession(&fakeSource{}, 10)
	s.loaded = true
	s.items = []*types.Artifact{
		artifact("a", 0),
		artifact("b", -time.Hour),
		artifact("b", -time.Hour),
		artifact("c", -2*time.Hour),
	}

	assert.True(t, s.ApplyDelete("b"))
	assert.Equal(t, []string{"a", "c"}, ids(s.Snapshot()))
	assert.Equal(t, 2, s.Len())
}
