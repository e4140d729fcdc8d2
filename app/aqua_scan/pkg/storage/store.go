package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/iWorld-y/aqua_scan/app/aqua_scan/pkg/logger"
	"github.com/iWorld-y/aqua_scan/app/aqua_scan/pkg/model"
)

// DefaultKey 历史记录的存储键，与浏览器版本一致
const DefaultKey = "aquascan_history"

// Store 历史记录存储，是历史列表的唯一拥有者和写入方
// 每次追加都会整体重写快照
type Store struct {
	kv      KV
	key     string
	mu      sync.Mutex
	history []model.AnalysisResult
}

// NewStore 创建历史记录存储
func NewStore(kv KV, key string) *Store {
	if key == "" {
		key = DefaultKey
	}
	return &Store{kv: kv, key: key}
}

// LoadAll 从持久化存储恢复历史记录
// 不存在或无法解析时返回空列表，不视为错误
func (s *Store) LoadAll(ctx context.Context) []model.AnalysisResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.history = nil
	raw, ok, err := s.kv.Get(ctx, s.key)
	if err != nil {
		logger.Log.Warnf("读取历史记录失败，使用空列表: %v", err)
		return s.snapshot()
	}
	if !ok || raw == "" {
		return s.snapshot()
	}

	var history []model.AnalysisResult
	if err := json.Unmarshal([]byte(raw), &history); err != nil {
		logger.Log.Warnf("历史记录已损坏，使用空列表: %v", err)
		return s.snapshot()
	}

	// 旧数据没有 ID，补上以便在列表中选择，并立即写回保证重启后 ID 不变
	backfilled := 0
	for i := range history {
		if history[i].ID == "" {
			history[i].ID = uuid.NewString()
			backfilled++
		}
	}
	s.history = history
	if backfilled > 0 {
		if err := s.persist(ctx); err != nil {
			logger.Log.Warnf("写回 %d 条补全 ID 的记录失败: %v", backfilled, err)
		}
	}
	logger.Log.Infof("已恢复 %d 条历史记录", len(history))
	return s.snapshot()
}

// Append 将结果放到历史记录最前面并持久化
// 写入失败时内存中的记录仍然保留，错误返回给调用方记录
func (s *Store) Append(ctx context.Context, r model.AnalysisResult) ([]model.AnalysisResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]model.AnalysisResult, 0, len(s.history)+1)
	next = append(next, r)
	next = append(next, s.history...)
	s.history = next

	if err := s.persist(ctx); err != nil {
		return s.snapshot(), err
	}
	return s.snapshot(), nil
}

// persist 整体重写快照，调用方持有锁
func (s *Store) persist(ctx context.Context) error {
	data, err := json.Marshal(s.history)
	if err != nil {
		return fmt.Errorf("marshal history: %w", err)
	}
	if err := s.kv.Set(ctx, s.key, string(data)); err != nil {
		return fmt.Errorf("persist history: %w", err)
	}
	return nil
}

// History 返回历史记录副本，最新的在前
func (s *Store) History() []model.AnalysisResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// Close 关闭底层存储
func (s *Store) Close() error {
	return s.kv.Close()
}

func (s *Store) snapshot() []model.AnalysisResult {
	out := make([]model.AnalysisResult, len(s.history))
	copy(out, s.history)
	return out
}
