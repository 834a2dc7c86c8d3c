package cache

import (
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru"
)

// DefaultMaxSessions 默认保留的会话数
const DefaultMaxSessions = 1024

// Registry 按会话 ID 管理 Session，超出容量时淘汰最久未使用的会话
type Registry struct {
	mu       sync.Mutex
	sessions *lru.Cache
	source   Source
	pageSize int
}

// NewRegistry 创建会话注册表
func NewRegistry(maxSessions int, source Source, pageSize int) (*Registry, error) {
	if maxSessions <= 0 {
		maxSessions = DefaultMaxSessions
	}
	sessions, err := lru.New(maxSessions)
	if err != nil {
		return nil, fmt.Errorf("failed to create session cache: %w", err)
	}
	return &Registry{sessions: sessions, source: source, pageSize: pageSize}, nil
}

// Session 获取会话，不存在则创建
func (r *Registry) Session(id string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	if v, ok := r.sessions.Get(id); ok {
		return v.(*Session)
	}
	s := NewSession(r.source, r.pageSize)
	r.sessions.Add(id, s)
	return s
}

// Lookup 仅查找已存在的会话
func (r *Registry) Lookup(id string) (*Session, bool) {
	v, ok := r.sessions.Get(id)
	if !ok {
		return nil, false
	}
	return v.(*Session), true
}

// Remove 丢弃会话
func (r *Registry) Remove(id string) {
	r.sessions.Remove(id)
}

// Len 当前会话数
func (r *Registry) Len() int {
	return r.sessions.Len()
}
