package application

import (
	"sync"
	"time"

	"promptcanvas/internal/domain"
)

// Session は、1ユーザー分の生成状態のスナップショットです
type Session struct {
	State     domain.GenerationState
	Result    *domain.GenerationResult
	UpdatedAt time.Time
}

// SessionTracker は、ユーザーごとの生成状態を管理します
// idle → loading → 終了状態 の遷移を強制し、loading中の2件目は拒否します
type SessionTracker struct {
	mu       sync.Mutex
	sessions map[string]*Session
	now      func() time.Time
}

// NewSessionTracker は新しいSessionTrackerを作成します
func NewSessionTracker() *SessionTracker {
	return &SessionTracker{sessions: make(map[string]*Session), now: time.Now}
}

// Begin は、keyの状態をloadingにして前回の結果を消去します
// すでにloading中の場合はErrBusyを返します
func (t *SessionTracker) Begin(key string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if s, ok := t.sessions[key]; ok && s.State == domain.StateLoading {
		return domain.ErrBusy
	}
	t.sessions[key] = &Session{State: domain.StateLoading, UpdatedAt: t.now()}
	return nil
}

// Finish は、結果を記録して終了状態に遷移します
// resultがnilの場合はidleに戻します
func (t *SessionTracker) Finish(key string, result *domain.GenerationResult) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if result == nil || !result.State.Terminal() {
		delete(t.sessions, key)
		return
	}
	t.sessions[key] = &Session{State: result.State, Result: result, UpdatedAt: t.now()}
}

// Reset は、keyをidleに戻します
func (t *SessionTracker) Reset(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.sessions, key)
}

// Get は、keyの現在の状態を返します。記録がなければidleです
func (t *SessionTracker) Get(key string) Session {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.sessions[key]
	if !ok {
		return Session{State: domain.StateIdle}
	}
	return *s
}
