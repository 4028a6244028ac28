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

// Package metrics 受試過程的 append-only 審計紀錄。
//
// SESSION_START、SESSION_END、MESSAGE 永遠寫入；BET 與 REDEEM 只在
// START_METRICS 之後寫入。欄位順序固定為
// TIMESTAMP, EVENT, BET_NUMBER, BET, CONDITION, RESULT, COIN, MESSAGE。
package metrics

import (
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/zintix-labs/scriptlab/errs"
)

// EventType 事件種類
type EventType string

const (
	SessionStart EventType = "SESSION_START"
	StartMetrics EventType = "START_METRICS"
	Bet          EventType = "BET"
	Redeem       EventType = "REDEEM"
	Message      EventType = "MESSAGE"
	SessionEnd   EventType = "SESSION_END"
)

// Columns CSV 標頭
var Columns = []string{"TIMESTAMP", "EVENT", "BET_NUMBER", "BET", "CONDITION", "RESULT", "COIN", "MESSAGE"}

// TimeLayout 精度到百分之一秒
const TimeLayout = "2006-01-02 15:04:05.00"

// Record 一筆事件；零值欄位輸出為空字串
type Record struct {
	Time      time.Time
	Session   string
	Event     EventType
	BetNumber int              // 0 表示無
	Bet       *decimal.Decimal // nil 表示無
	Condition string
	Result    *decimal.Decimal // 本注淨得失 reward - bet
	Coin      *decimal.Decimal // 事件後餘額
	Message   string
}

// Row 依 Columns 順序輸出字串欄位
func (r Record) Row() []string {
	return []string{
		r.Time.Format(TimeLayout),
		string(r.Event),
		optInt(r.BetNumber),
		optMoney(r.Bet),
		r.Condition,
		optMoney(r.Result),
		optMoney(r.Coin),
		r.Message,
	}
}

func optInt(v int) string {
	if v == 0 {
		return ""
	}
	return strconv.Itoa(v)
}

func optMoney(d *decimal.Decimal) string {
	if d == nil {
		return ""
	}
	return d.StringFixed(2)
}

// Money 方便建立 *decimal.Decimal
func Money(d decimal.Decimal) *decimal.Decimal { return &d }

// Sink 寫入目的地
type Sink interface {
	Write(Record) error
	Close() error
}

// Logger 多個 sink 的扇出；併發安全
type Logger struct {
	mu      sync.Mutex
	sinks   []Sink
	enabled map[string]string // session -> condition；已 START_METRICS 的 session
	now     func() time.Time
	closed  bool
}

func New(sinks ...Sink) *Logger {
	return &Logger{sinks: sinks, now: time.Now, enabled: map[string]string{}}
}

// SetClock 測試用
func (l *Logger) SetClock(now func() time.Time) {
	l.mu.Lock()
	l.now = now
	l.mu.Unlock()
}

// Enabled 該 session 是否已 START_METRICS
func (l *Logger) Enabled(session string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.enabled[session]
	return ok
}

// Observe 寫入一筆事件；START_METRICS 會開啟該 session 的 BET/REDEEM 紀錄
func (l *Logger) Observe(r Record) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return errs.NewWarn("metrics logger closed")
	}
	switch r.Event {
	case StartMetrics:
		l.enabled[r.Session] = r.Condition
	case Bet, Redeem:
		cond, ok := l.enabled[r.Session]
		if !ok {
			return nil
		}
		if r.Condition == "" {
			r.Condition = cond
		}
	case SessionEnd:
		defer delete(l.enabled, r.Session)
	}
	if r.Time.IsZero() {
		r.Time = l.now()
	}
	var errList []error
	for _, s := range l.sinks {
		if err := s.Write(r); err != nil {
			errList = append(errList, err)
		}
	}
	if len(errList) > 0 {
		return errs.Wrap(errors.Join(errList...), "metrics write failed")
	}
	return nil
}

// Close 關閉所有 sink，可重複呼叫
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	var errList []error
	for _, s := range l.sinks {
		if err := s.Close(); err != nil {
			errList = append(errList, err)
		}
	}
	return errors.Join(errList...)
}
