package cache

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/lk2023060901/regulatory-dashboard-backend/internal/artifact/types"
)

// DefaultRefreshPageSize 全量刷新时的分页大小
const DefaultRefreshPageSize = 100

// Source 文件元数据分页来源，通常是 biz.QueryUseCase
type Source interface {
	ListArtifacts(ctx context.Context, filter types.ArtifactFilter, page, pageSize int) (*types.Page[*types.Artifact], error)
}

// Session 单个会话持有的文件集合快照
//
// 刷新是一次性全量拉取，之后由上传、删除结果做定点修补。
// 其他会话的变更不会主动推送，下一次显式刷新时才可见。
type Session struct {
	mu       sync.RWMutex
	source   Source
	pageSize int

	items    []*types.Artifact
	loaded   bool
	loadedAt time.Time
}

// NewSession 创建会话缓存
func NewSession(source Source, pageSize int) *Session {
	if pageSize <= 0 {
		pageSize = DefaultRefreshPageSize
	}
	return &Session{source: source, pageSize: pageSize}
}

// Refresh 逐页拉取全部记录并替换快照，失败时保留原快照
func (s *Session) Refresh(ctx context.Context) error {
	var all []*types.Artifact
	seen := make(map[string]struct{})
	for page := 1; ; page++ {
		p, err := s.source.ListArtifacts(ctx, types.ArtifactFilter{}, page, s.pageSize)
		if err != nil {
			return err
		}
		// 翻页期间有新增时偏移会整体后移，同一条记录可能出现两次
		for _, a := range p.Items {
			if _, ok := seen[a.ID]; ok {
				continue
			}
			seen[a.ID] = struct{}{}
			all = append(all, a)
		}
		if len(p.Items) == 0 || page >= p.TotalPages {
			break
		}
	}
	sort.SliceStable(all, func(i, j int) bool { return before(all[i], all[j]) })

	s.mu.Lock()
	s.items = all
	s.loaded = true
	s.loadedAt = time.Now()
	s.mu.Unlock()
	return nil
}

// Items 返回快照副本，未加载或 force 时先刷新
func (s *Session) Items(ctx context.Context, force bool) ([]*types.Artifact, error) {
	if force || !s.Loaded() {
		if err := s.Refresh(ctx); err != nil {
			return nil, err
		}
	}
	return s.Snapshot(), nil
}

// Snapshot 当前快照副本
func (s *Session) Snapshot() []*types.Artifact {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*types.Artifact, len(s.items))
	copy(out, s.items)
	return out
}

// Loaded 是否已完成过一次刷新
func (s *Session) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// LoadedAt 最近一次刷新时间
func (s *Session) LoadedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadedAt
}

// ApplyUpload 按当前排序插入新记录，同 id 则替换
func (s *Session) ApplyUpload(a *types.Artifact) {
	if a == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		return
	}
	for i, it := range s.items {
		if it.ID == a.ID {
			s.items = append(s.items[:i], s.items[i+1:]...)
			break
		}
	}
	idx := sort.Search(len(s.items), func(i int) bool { return before(a, s.items[i]) })
	s.items = append(s.items, nil)
	copy(s.items[idx+1:], s.items[idx:])
	s.items[idx] = a
}

// ApplyDelete 移除所有匹配 id 的记录，返回是否命中
func (s *Session) ApplyDelete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.items[:0]
	for _, it := range s.items {
		if it.ID != id {
			kept = append(kept, it)
		}
	}
	hit := len(kept) != len(s.items)
	clear(s.items[len(kept):])
	s.items = kept
	return hit
}

// Len 快照条数
func (s *Session) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// created_at 倒序，id 升序
func before(a, b *types.Artifact) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID < b.ID
}
