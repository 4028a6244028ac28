// Copyright 2025 Zintix Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package scriptlab

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/zintix-labs/scriptlab/errs"
	"github.com/zintix-labs/scriptlab/script"
)

// SessionRuntime HTTP driver 使用的 session registry。
//
// 以 session id 為 key；每個 session 自己持鎖，registry 只保護 map。
type SessionRuntime struct {
	lab *Lab

	sessions map[string]*Session
	mu       sync.RWMutex
	max      int // <= 0 表示不限
	defaults []SessionOption

	// lifecycle
	done      chan struct{}
	closeOnce sync.Once
	closed    atomic.Bool
	reason    atomic.Value // string
}

func newSessionRuntime(l *Lab, maxSessions int) *SessionRuntime {
	return &SessionRuntime{
		lab:      l,
		sessions: make(map[string]*Session),
		max:      maxSessions,
		done:     make(chan struct{}),
	}
}

// Use 設定每個新 session 都會套用的選項（例如共用的 metrics logger）。
// 需在開始服務前呼叫。
func (rt *SessionRuntime) Use(opts ...SessionOption) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.defaults = append(rt.defaults, opts...)
}

func (rt *SessionRuntime) Lab() *Lab { return rt.lab }

// Create 建立並登記一個新的 session
func (rt *SessionRuntime) Create(ctx context.Context, name string, cond script.Condition, opts ...SessionOption) (*Session, error) {
	return rt.create(ctx, func(all []SessionOption) (*Session, error) {
		return rt.lab.NewSession(name, cond, all...)
	}, opts)
}

// CreateWithSeed 與 Create 相同，但由呼叫端指定 seed
func (rt *SessionRuntime) CreateWithSeed(ctx context.Context, name string, cond script.Condition, seed int64, opts ...SessionOption) (*Session, error) {
	return rt.create(ctx, func(all []SessionOption) (*Session, error) {
		return rt.lab.NewSessionWithSeed(name, cond, seed, all...)
	}, opts)
}

func (rt *SessionRuntime) create(ctx context.Context, build func([]SessionOption) (*Session, error), opts []SessionOption) (*Session, error) {
	if err := rt.check(ctx); err != nil {
		return nil, err
	}
	rt.mu.Lock()
	all := append(append([]SessionOption{}, rt.defaults...), opts...)
	full := rt.fullLocked()
	rt.mu.Unlock()
	if full {
		return nil, errs.Warnf("session limit %d reached", rt.max)
	}

	s, err := build(all)
	if err != nil {
		return nil, err
	}

	rt.mu.Lock()
	defer rt.mu.Unlock()
	if rt.fullLocked() {
		s.End()
		return nil, errs.Warnf("session limit %d reached", rt.max)
	}
	if _, dup := rt.sessions[s.ID()]; dup {
		s.End()
		return nil, errs.Warnf("duplicate session id %s", s.ID())
	}
	rt.sessions[s.ID()] = s
	return s, nil
}

// fullLocked 達上限時先移除已寫入 SESSION_END 的 session 再判斷；呼叫者須持有 rt.mu
func (rt *SessionRuntime) fullLocked() bool {
	if rt.max <= 0 || len(rt.sessions) < rt.max {
		return false
	}
	for id, s := range rt.sessions {
		if s.Finished() {
			delete(rt.sessions, id)
		}
	}
	return len(rt.sessions) >= rt.max
}

// Get 依 id 取 session
func (rt *SessionRuntime) Get(ctx context.Context, id string) (*Session, error) {
	if err := rt.check(ctx); err != nil {
		return nil, err
	}
	rt.mu.RLock()
	s, ok := rt.sessions[id]
	rt.mu.RUnlock()
	if !ok {
		return nil, errs.Kindf(errs.KindNotFound, "session %s not found", id)
	}
	return s, nil
}

// End 結束 session（寫入 SESSION_END）並從 registry 移除
func (rt *SessionRuntime) End(ctx context.Context, id string) (State, error) {
	if err := rt.check(ctx); err != nil {
		return State{}, err
	}
	rt.mu.Lock()
	s, ok := rt.sessions[id]
	delete(rt.sessions, id)
	rt.mu.Unlock()
	if !ok {
		return State{}, errs.Kindf(errs.KindNotFound, "session %s not found", id)
	}
	s.End()
	return s.State(), nil
}

// IDs 目前登記中的 session id（排序）
func (rt *SessionRuntime) IDs() []string {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	ids := make([]string, 0, len(rt.sessions))
	for id := range rt.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (rt *SessionRuntime) Len() int {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	return len(rt.sessions)
}

func (rt *SessionRuntime) check(ctx context.Context) error {
	select {
	case <-ctx.Done():
		e := errs.Wrap(ctx.Err(), "request canceled/timeout")
		e.ErrLv = errs.Warn
		return e
	case <-rt.done:
		rt.closed.Store(true)
		return errs.NewFatal("session runtime closed: " + rt.ClosedReason())
	default:
	}
	return nil
}

// Close 結束所有 session 並關閉 runtime；可重複呼叫
func (rt *SessionRuntime) Close() {
	rt.closeWithReason("closed")
}

func (rt *SessionRuntime) closeWithReason(reason string) {
	rt.closeOnce.Do(func() {
		if reason == "" {
			reason = "closed"
		}
		rt.reason.Store(reason)
		rt.closed.Store(true)
		close(rt.done)

		rt.mu.Lock()
		ss := rt.sessions
		rt.sessions = make(map[string]*Session)
		rt.mu.Unlock()
		for _, s := range ss {
			s.End()
		}
	})
}

func (rt *SessionRuntime) Closed() bool {
	return rt.closed.Load()
}

func (rt *SessionRuntime) ClosedReason() string {
	if v := rt.reason.Load(); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
