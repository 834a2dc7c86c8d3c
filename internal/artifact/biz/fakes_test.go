package biz

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/lk2023060901/regulatory-dashboard-backend/internal/artifact/types"
)

var errInjected = errors.New("injected failure")

type memBlobStore struct {
	mu        sync.Mutex
	objects   map[string][]byte
	modified  map[string]time.Time
	putErr    error
	getErr    error
	deleteErr error
	// afterPut 写入完成后回调，用于模拟调用方取消
	afterPut func()
}

func newMemBlobStore() *memBlobStore {
	return &memBlobStore{objects: map[string][]byte{}, modified: map[string]time.Time{}}
}

func (s *memBlobStore) Put(ctx context.Context, key string, r io.Reader, size int64, _ string) error {
	if s.putErr != nil {
		return s.putErr
	}
	data, err := io.ReadAll(io.LimitReader(r, size))
	if err != nil {
		return err
	}
	if int64(len(data)) != size {
		return fmt.Errorf("short read: %d of %d", len(data), size)
	}
	s.mu.Lock()
	s.objects[key] = data
	s.modified[key] = time.Now()
	s.mu.Unlock()
	if s.afterPut != nil {
		s.afterPut()
	}
	return nil
}

func (s *memBlobStore) Get(_ context.Context, key string) (io.ReadCloser, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[key]
	if !ok {
		return nil, ErrBlobNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *memBlobStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.deleteErr != nil {
		return s.deleteErr
	}
	s.mu.Lock()
	delete(s.objects, key)
	s.mu.Unlock()
	return nil
}

func (s *memBlobStore) List(_ context.Context, prefix string) ([]BlobInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []BlobInfo
	for k, v := range s.objects {
		if strings.HasPrefix(k, prefix) {
			out = append(out, BlobInfo{Key: k, Size: int64(len(v)), LastModified: s.modified[k]})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (s *memBlobStore) has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[key]
	return ok
}

func (s *memBlobStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}

type memArtifactRepo struct {
	mu        sync.Mutex
	seq       int
	rows      map[string]*types.Artifact
	createErr error
	deleteErr error
	listErr   error
}

func newMemArtifactRepo() *memArtifactRepo {
	return &memArtifactRepo{rows: map[string]*types.Artifact{}}
}

func (r *memArtifactRepo) Create(ctx context.Context, a *types.Artifact) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if r.createErr != nil {
		return r.createErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	if a.ID == "" {
		a.ID = fmt.Sprintf("a-%03d", r.seq)
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Date(2024, 1, 1, 0, 0, r.seq, 0, time.UTC)
	}
	cp := *a
	r.rows[a.ID] = &cp
	return nil
}

func (r *memArtifactRepo) GetByID(_ context.Context, id string) (*types.Artifact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.rows[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *memArtifactRepo) Delete(_ context.Context, id string) error {
	if r.deleteErr != nil {
		return r.deleteErr
	}
	r.mu.Lock()
	delete(r.rows, id)
	r.mu.Unlock()
	return nil
}

func (r *memArtifactRepo) List(_ context.Context, f *types.ArtifactFilter, page, pageSize int) ([]*types.Artifact, int64, error) {
	if r.listErr != nil {
		return nil, 0, r.listErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var all []*types.Artifact
	for _, a := range r.rows {
		if f.Category != "" && a.Category != f.Category {
			continue
		}
		all = append(all, a)
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID < all[j].ID
	})
	start := (page - 1) * pageSize
	if start >= len(all) {
		return nil, int64(len(all)), nil
	}
	end := start + pageSize
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], int64(len(all)), nil
}

func (r *memArtifactRepo) UpdateExtractedText(_ context.Context, id, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.rows[id]
	if !ok {
		return ErrNotFound
	}
	a.ExtractedText = text
	return nil
}

func (r *memArtifactRepo) UpdateByteSize(_ context.Context, id string, size int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.rows[id]
	if !ok {
		return ErrNotFound
	}
	a.ByteSize = size
	return nil
}

func (r *memArtifactRepo) ListStorageKeys(context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var keys []string
	for _, a := range r.rows {
		keys = append(keys, a.StorageKey)
	}
	return keys, nil
}

func (r *memArtifactRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rows)
}

type memJournal struct {
	mu      sync.Mutex
	entries []JournalEntry
}

func (j *memJournal) Record(_ context.Context, e JournalEntry) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, e)
	return nil
}

func (j *memJournal) Pending(context.Context) ([]JournalEntry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]JournalEntry(nil), j.entries...), nil
}

func (j *memJournal) Resolve(_ context.Context, e JournalEntry) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	for i, x := range j.entries {
		if x == e {
			j.entries = append(j.entries[:i], j.entries[i+1:]...)
			return nil
		}
	}
	return nil
}

type memTemplateRepo struct {
	mu        sync.Mutex
	rows      map[string]*types.Template
	createErr error
	incrErr   error
}

func newMemTemplateRepo() *memTemplateRepo {
	return &memTemplateRepo{rows: map[string]*types.Template{}}
}

func (r *memTemplateRepo) Create(_ context.Context, t *types.Template) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if t.ID == "" {
		t.ID = fmt.Sprintf("t-%03d", len(r.rows)+1)
	}
	cp := *t
	r.rows[t.ID] = &cp
	return nil
}

func (r *memTemplateRepo) GetByID(_ context.Context, id string) (*types.Template, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.rows[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *memTemplateRepo) List(context.Context, *types.TemplateFilter, int, int) ([]*types.Template, int64, error) {
	return nil, 0, errInjected
}

func (r *memTemplateRepo) IncrementDownloadCount(_ context.Context, id string) error {
	if r.incrErr != nil {
		return r.incrErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.rows[id]
	if !ok {
		return ErrNotFound
	}
	t.DownloadCount++
	return nil
}

func (r *memTemplateRepo) ListStorageKeys(context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var keys []string
	for _, t := range r.rows {
		if k := t.DownloadURL.StorageKey(); k != "" {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

type memGuidanceRepo struct {
	optionCalls int
	options     *types.FilterOptions
	upserted    []*types.Guidance
	err         error
}

func (r *memGuidanceRepo) List(context.Context, *types.GuidanceFilter, int, int) ([]*types.Guidance, int64, error) {
	if r.err != nil {
		return nil, 0, r.err
	}
	return nil, 0, nil
}

func (r *memGuidanceRepo) Upsert(_ context.Context, docs []*types.Guidance) error {
	if r.err != nil {
		return r.err
	}
	r.upserted = append(r.upserted, docs...)
	return nil
}

func (r *memGuidanceRepo) Options(context.Context) (*types.FilterOptions, error) {
	r.optionCalls++
	if r.err != nil {
		return nil, r.err
	}
	return r.options, nil
}

func (r *memGuidanceRepo) Stats(context.Context) (*types.GuidanceStats, error) {
	if r.err != nil {
		return nil, r.err
	}
	return &types.GuidanceStats{Total: 3, Final: 2, Draft: 1}, nil
}

type memOptionsCache struct {
	value       *types.FilterOptions
	invalidated int
	getErr      error
}

func (c *memOptionsCache) Get(context.Context) (*types.FilterOptions, error) {
	return c.value, c.getErr
}

func (c *memOptionsCache) Set(_ context.Context, o *types.FilterOptions) error {
	c.value = o
	return nil
}

func (c *memOptionsCache) Invalidate(context.Context) error {
	c.value = nil
	c.invalidated++
	return nil
}
