package service

import "sync"

// 进度状态机：queued -> in_progress -> completed/failed
const (
	StatusQueued     = "queued"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

type ProgressState struct {
	Status   string `json:"status"`
	Progress int    `json:"progress"` // 0-100
	Message  string `json:"message"`
}

// ProgressStore 进程级进度表，key 为 prompt_hash。
// 同一 hash 的更新整结构体替换，不做逐字段修改，避免并发读到半成品。
type ProgressStore struct {
	mu sync.RWMutex
	m  map[string]ProgressState
}

func NewProgressStore() *ProgressStore {
	return &ProgressStore{m: make(map[string]ProgressState)}
}

func (s *ProgressStore) Get(promptHash string) (ProgressState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.m[promptHash]
	return st, ok
}

func (s *ProgressStore) Set(promptHash string, st ProgressState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[promptHash] = st
}

// IsTerminal 是否已是终态
func IsTerminal(status string) bool {
	return status == StatusCompleted || status == StatusFailed
}
