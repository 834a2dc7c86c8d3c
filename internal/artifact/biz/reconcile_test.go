package biz

import (
	"bytes"
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/lk2023060901/regulatory-dashboard-backend/internal/artifact/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func putBlob(t *testing.T, s *memBlobStore, key string) {
	t.Helper()
	require.NoError(t, s.Put(context.Background(), key, bytes.NewReader([]byte("x")), 1, "text/plain"))
}

func TestReconciler_Run(t *testing.T) {
	ctx := context.Background()
	blobs := newMemBlobStore()
	repo := newMemArtifactRepo()
	journal := &memJournal{}

	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	oldKey := fmt.Sprintf("documents/2024/05/%d-old.pdf", now.Add(-48*time.Hour).UnixMilli())
	freshKey := fmt.Sprintf("documents/2024/06/%d-fresh.pdf", now.Add(-time.Minute).UnixMilli())
	linkedKey := fmt.Sprintf("documents/2024/05/%d-linked.pdf", now.Add(-72*time.Hour).UnixMilli())
	danglingKey := "documents/2024/05/1-dangling.pdf"

	putBlob(t, blobs, oldKey)
	putBlob(t, blobs, freshKey)
	putBlob(t, blobs, linkedKey)
	putBlob(t, blobs, "templates/2024/05/1-other.pdf")
	require.NoError(t, repo.Create(ctx, &types.Artifact{StorageKey: linkedKey}))
	require.NoError(t, repo.Create(ctx, &types.Artifact{StorageKey: danglingKey}))

	require.NoError(t, journal.Record(ctx, JournalEntry{Op: "upload", StorageKey: oldKey}))
	require.NoError(t, journal.Record(ctx, JournalEntry{Op: "upload", StorageKey: freshKey}))

	r := NewReconciler(journal, time.Hour, nil)
	r.now = func() time.Time { return now }
	target := ReconcileTarget{Name: "documents", Prefix: types.PrefixDocuments, Blobs: blobs, Keys: repo}

	report, err := r.Run(ctx, target, false)
	require.NoError(t, err)
	assert.Equal(t, 3, report.BlobsScanned)
	assert.Equal(t, 2, report.RowsScanned)
	require.Len(t, report.Orphans, 1)
	assert.Equal(t, oldKey, report.Orphans[0].Key)
	require.Len(t, report.Recent, 1)
	assert.Equal(t, freshKey, report.Recent[0].Key)
	assert.Equal(t, []string{danglingKey}, report.Dangling)
	assert.Empty(t, report.Deleted)
	assert.True(t, blobs.has(oldKey))

	report, err = r.Run(ctx, target, true)
	require.NoError(t, err)
	assert.Equal(t, []string{oldKey}, report.Deleted)
	assert.False(t, blobs.has(oldKey))
	assert.True(t, blobs.has(freshKey))

	resolved, err := r.DrainJournal(ctx, report)
	require.NoError(t, err)
	assert.Equal(t, 1, resolved)
	require.Len(t, journal.entries, 1)
	assert.Equal(t, freshKey, journal.entries[0].StorageKey)
}

func TestReconciler_DeleteFailureReported(t *testing.T) {
	ctx := context.Background()
	blobs := newMemBlobStore()
	putBlob(t, blobs, "documents/2020/01/1000-x.pdf")
	blobs.deleteErr = errInjected

	r := NewReconciler(nil, 0, nil)
	report, err := r.Run(ctx, ReconcileTarget{Name: "documents", Prefix: "documents/", Blobs: blobs, Keys: newMemArtifactRepo()}, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"documents/2020/01/1000-x.pdf"}, report.Failed)
	assert.Empty(t, report.Deleted)

	n, err := r.DrainJournal(ctx, report)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestReconciler_DrainJournalKeepsDanglingEntries(t *testing.T) {
	ctx := context.Background()
	blobs := newMemBlobStore()
	repo := newMemArtifactRepo()
	journal := &memJournal{}

	danglingKey := "documents/2024/05/1-dangling.pdf"
	linkedKey := "documents/2024/05/2-linked.pdf"
	goneKey := "documents/2024/05/3-gone.pdf"

	putBlob(t, blobs, linkedKey)
	require.NoError(t, repo.Create(ctx, &types.Artifact{StorageKey: danglingKey}))
	require.NoError(t, repo.Create(ctx, &types.Artifact{StorageKey: linkedKey}))

	// 删除时 blob 已移除但元数据删除失败
	require.NoError(t, journal.Record(ctx, JournalEntry{Op: "delete", StorageKey: danglingKey}))
	require.NoError(t, journal.Record(ctx, JournalEntry{Op: "upload", StorageKey: linkedKey}))
	require.NoError(t, journal.Record(ctx, JournalEntry{Op: "upload", StorageKey: goneKey}))

	r := NewReconciler(journal, time.Hour, nil)
	report, err := r.Run(ctx, ReconcileTarget{Name: "documents", Prefix: types.PrefixDocuments, Blobs: blobs, Keys: repo}, false)
	require.NoError(t, err)
	assert.Equal(t, []string{danglingKey}, report.Dangling)

	resolved, err := r.DrainJournal(ctx, report)
	require.NoError(t, err)
	assert.Equal(t, 2, resolved)
	require.Len(t, journal.entries, 1)
	assert.Equal(t, danglingKey, journal.entries[0].StorageKey)
}
