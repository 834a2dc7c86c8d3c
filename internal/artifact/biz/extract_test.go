package biz

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/lk2023060901/regulatory-dashboard-backend/internal/artifact/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type upperExtractor struct{ err error }

func (e upperExtractor) Extract(_ context.Context, data []byte) (string, error) {
	if e.err != nil {
		return "", e.err
	}
	return string(bytes.ToUpper(data)) + "\x00\xff", nil
}

func TestExtraction(t *testing.T) {
	ctx := context.Background()
	repo := newMemArtifactRepo()
	blobs := newMemBlobStore()
	putBlob(t, blobs, "documents/a.txt")
	require.NoError(t, repo.Create(ctx, &types.Artifact{ID: "a1", StorageKey: "documents/a.txt"}))

	uc := NewExtractionUseCase(repo, blobs, upperExtractor{}, 0, nil)
	require.NoError(t, uc.Extract(ctx, "a1"))

	a, err := repo.GetByID(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, "X", a.ExtractedText)

	err = uc.Extract(ctx, "deleted")
	assert.ErrorIs(t, err, ErrNotFound)

	uc = NewExtractionUseCase(repo, blobs, upperExtractor{err: errors.New("corrupt pdf")}, 0, nil)
	err = uc.Extract(ctx, "a1")
	assert.Equal(t, KindValidation, KindOf(err))
}
