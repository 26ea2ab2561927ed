package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/houzhh15/weeknote/cmd/server/internal/store"
)

// StatsSource 提供实时统计
type StatsSource interface {
	Stats(ctx context.Context) (*store.Stats, error)
}

// StatisticsService 管理后台统计服务接口
type StatisticsService interface {
	// GetStats 获取笔记与周报统计，结果缓存一段时间
	GetStats(ctx context.Context) (*store.Stats, error)
	// Invalidate 丢弃缓存，下次调用重新计算
	Invalidate()
}

// cacheEntry 缓存条目
type cacheEntry struct {
	data      *store.Stats
	expiresAt time.Time
}

// statisticsService 统计服务实现
type statisticsService struct {
	mu     sync.RWMutex
	source StatsSource
	ttl    time.Duration
	cache  *cacheEntry
	now    func() time.Time
}

// NewStatisticsService 创建统计服务实例，ttl<=0 时默认 1 分钟
func NewStatisticsService(source StatsSource, ttl time.Duration) StatisticsService {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &statisticsService{source: source, ttl: ttl, now: time.Now}
}

// GetStats 获取统计
func (s *statisticsService) GetStats(ctx context.Context) (*store.Stats, error) {
	s.mu.RLock()
	if entry := s.cache; entry != nil && s.now().Before(entry.expiresAt) {
		s.mu.RUnlock()
		cpy := *entry.data
		return &cpy, nil
	}
	s.mu.RUnlock()

	stats, err := s.source.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("load stats: %w", err)
	}

	// 存入缓存
	s.mu.Lock()
	s.cache = &cacheEntry{data: stats, expiresAt: s.now().Add(s.ttl)}
	s.mu.Unlock()

	cpy := *stats
	return &cpy, nil
}

// Invalidate 丢弃缓存
func (s *statisticsService) Invalidate() {
	s.mu.Lock()
	s.cache = nil
	s.mu.Unlock()
}
