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
	"io"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/zintix-labs/scriptlab/errs"
	"github.com/zintix-labs/scriptlab/metrics"
	"github.com/zintix-labs/scriptlab/redeem"
	"github.com/zintix-labs/scriptlab/script"
	"github.com/zintix-labs/scriptlab/sdk/core"
	"github.com/zintix-labs/scriptlab/spec"
)

// Observer 接收 session 事件（通常是 metrics.Logger）
type Observer interface {
	Observe(metrics.Record) error
}

// SessionOption 建立 Session 時的可選設定
type SessionOption func(*Session)

// WithObserver 掛上事件觀察者；建立時立即送出 SESSION_START
func WithObserver(o Observer) SessionOption {
	return func(s *Session) { s.obs = o }
}

// WithLogger 指定 slog logger；預設丟棄
func WithLogger(l *slog.Logger) SessionOption {
	return func(s *Session) {
		if l != nil {
			s.log = l
		}
	}
}

// WithRedeemBook 允許 session 兌換碼入帳
func WithRedeemBook(b *redeem.Book) SessionOption {
	return func(s *Session) { s.book = b }
}

// WithID 指定 session id；預設為 uuid
func WithID(id string) SessionOption {
	return func(s *Session) {
		if id != "" {
			s.id = id
		}
	}
}

// SpinResult 一注的完整結果（已套用到餘額）
type SpinResult struct {
	BetIndex    int              `json:"bet_index"`
	Phase       script.Phase     `json:"phase"`
	WithinIndex int              `json:"within_index"`
	Win         bool             `json:"win"`
	Bet         decimal.Decimal  `json:"bet"`
	Reward      decimal.Decimal  `json:"reward"`
	Gain        decimal.Decimal  `json:"gain"` // reward - bet
	Balance     decimal.Decimal  `json:"balance"`
	Reels       script.Reels     `json:"reels"`
	Multiplier  decimal.Decimal  `json:"multiplier"`
	Occurrences int              `json:"occurrences"`
	Floored     bool             `json:"floored"`
	Condition   script.Condition `json:"condition"`
	Finished    bool             `json:"finished"`
}

// State session 快照
type State struct {
	ID          string           `json:"id"`
	Script      string           `json:"script"`
	Condition   script.Condition `json:"condition"`
	Balance     decimal.Decimal  `json:"balance"`
	BetsPlaced  int              `json:"bets_placed"`
	TotalBets   int              `json:"total_bets"`
	PhaseLength int              `json:"phase_length"`
	Finished    bool             `json:"finished"`
	Metrics     bool             `json:"metrics"`
	Failure     string           `json:"failure,omitempty"`
}

// Session 一位受試者的一場實驗。
//
// 持有餘額、下注序號、PhaseLedger 與圖標用的亂數核心；條件在建立時決定。
// 所有公開方法皆以 mu 保護，可被多 goroutine 呼叫。
type Session struct {
	id       string
	setting  *spec.ScriptSetting
	eng      *script.Engine
	cond     script.Condition
	core     *core.Core
	ledger   *script.PhaseLedger
	balance  decimal.Decimal
	betIndex int
	metrics  bool
	ended    bool
	fatal    error // 致命錯誤後 session 不再接受下注
	initseed int64
	obs      Observer
	book     *redeem.Book
	log      *slog.Logger
	mu       sync.Mutex
}

func newSession(ss *spec.ScriptSetting, eng *script.Engine, cond script.Condition, c *core.Core, seed int64, opts ...SessionOption) (*Session, error) {
	if !cond.Valid() {
		return nil, errs.Kindf(errs.KindInvalidCondition, "invalid condition value %d", cond)
	}
	s := &Session{
		id:       uuid.New().String(),
		setting:  ss,
		eng:      eng,
		cond:     cond,
		core:     c,
		ledger:   script.NewPhaseLedger(),
		balance:  ss.Session.InitialBudget,
		initseed: seed,
		log:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, o := range opts {
		o(s)
	}
	s.log = s.log.With("session", s.id, "script", ss.Name)
	s.emit(metrics.Record{Event: metrics.SessionStart, Coin: metrics.Money(s.balance)})
	return s, nil
}

func (s *Session) ID() string { return s.id }

func (s *Session) Condition() script.Condition { return s.cond }

func (s *Session) Seed() int64 { return s.initseed }

// StartMetrics 開啟 BET 紀錄並寫入 START_METRICS；重複呼叫無效
func (s *Session) StartMetrics() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.metrics {
		return
	}
	s.metrics = true
	s.emit(metrics.Record{Event: metrics.StartMetrics, Condition: s.cond.String(), Coin: metrics.Money(s.balance)})
}

// Spin 驗證下注後交給引擎，套用 -bet + reward 到餘額。
//
// Warn 等級錯誤（下注不合法、session 已結束）不改變任何狀態，可重試；
// Fatal 等級錯誤會讓 session 停止，之後每次 Spin 都回傳同一個錯誤。
func (s *Session) Spin(bet decimal.Decimal) (SpinResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// 1. 狀態檢查
	if s.fatal != nil {
		return SpinResult{}, s.fatal
	}
	if s.ended || s.betIndex >= s.eng.TotalBets() {
		return SpinResult{}, errs.Kindf(errs.KindSessionDone, "session %s already finished", s.id)
	}
	// 2. 下注檢查
	if err := s.validBet(bet); err != nil {
		return SpinResult{}, err
	}

	// 3. 腳本
	before := s.balance
	out, err := s.eng.Script(s.cond, script.SpinInput{
		BetIndex:         s.betIndex + 1,
		Bet:              bet,
		BudgetBeforeSpin: before,
	}, s.ledger, s.core)
	if err != nil {
		if errs.IsFatal(err) {
			s.fatal = err
			s.log.Error("scripted spin failed, session halted", "bet_index", s.betIndex+1, "err", err)
		}
		return SpinResult{}, err
	}

	// 4. 記帳
	s.betIndex = out.BetIndex
	s.balance = before.Sub(bet).Add(out.Reward)
	res := SpinResult{
		BetIndex:    out.BetIndex,
		Phase:       out.Phase,
		WithinIndex: out.WithinIndex,
		Win:         out.Win,
		Bet:         bet,
		Reward:      out.Reward,
		Gain:        out.Reward.Sub(bet),
		Balance:     s.balance,
		Reels:       out.Display.Reels,
		Multiplier:  out.Display.Multiplier,
		Occurrences: out.Display.Occurrences,
		Floored:     out.Floored,
		Condition:   s.cond,
		Finished:    out.BetIndex == s.eng.TotalBets(),
	}
	s.log.Debug("scripted spin",
		"bet_index", res.BetIndex, "phase", res.Phase.String(), "within", res.WithinIndex,
		"win", res.Win, "bet", bet.StringFixed(2), "reward", res.Reward.StringFixed(2),
		"balance", res.Balance.StringFixed(2), "floored", res.Floored)

	s.emit(metrics.Record{
		Event:     metrics.Bet,
		BetNumber: res.BetIndex,
		Bet:       metrics.Money(bet),
		Condition: s.cond.String(),
		Result:    metrics.Money(res.Gain),
		Coin:      metrics.Money(res.Balance),
	})
	if res.Finished {
		s.end()
	}
	return res, nil
}

func (s *Session) validBet(bet decimal.Decimal) error {
	ss := &s.setting.Session
	switch {
	case !bet.IsPositive():
		return errs.Kindf(errs.KindInvalidBet, "bet must be positive, got %s", bet)
	case !spec.IsCents(bet):
		return errs.Kindf(errs.KindInvalidBet, "bet %s has more than 2 decimals", bet)
	case bet.LessThan(ss.MinBet):
		return errs.Kindf(errs.KindInvalidBet, "bet %s below min bet %s", bet.StringFixed(2), ss.MinBet.StringFixed(2))
	case !spec.OnStep(bet, ss.BetStep):
		return errs.Kindf(errs.KindInvalidBet, "bet %s is not a multiple of %s", bet.StringFixed(2), ss.BetStep.StringFixed(2))
	case bet.GreaterThan(s.balance):
		return errs.Kindf(errs.KindInvalidBet, "bet %s exceeds balance %s", bet.StringFixed(2), s.balance.StringFixed(2))
	}
	return nil
}

// Redeem 以兌換碼入帳；無效碼不改變餘額。
// 持鎖期間完成狀態檢查、消耗碼與入帳，已結束的 session 不會消耗共用的碼。
func (s *Session) Redeem(code string) (decimal.Decimal, error) {
	if s.book == nil {
		return decimal.Zero, errs.NewWarn("redeem is not enabled for this session")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.open(); err != nil {
		return decimal.Zero, err
	}
	v, err := s.book.Redeem(code)
	if err != nil {
		return decimal.Zero, err
	}
	s.credit(v, "redeem")
	return v, nil
}

// Credit 額外入帳（兌換碼、研究者補幣）
func (s *Session) Credit(amount decimal.Decimal, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.open(); err != nil {
		return err
	}
	if !amount.IsPositive() || !spec.IsCents(amount) {
		return errs.Warnf("invalid credit amount %s", amount)
	}
	s.credit(amount, reason)
	return nil
}

// open 已結束或已中毒的 session 拒絕任何改動
func (s *Session) open() error {
	if s.fatal != nil {
		return s.fatal
	}
	if s.ended {
		return errs.Kindf(errs.KindSessionDone, "session %s already finished", s.id)
	}
	return nil
}

func (s *Session) credit(amount decimal.Decimal, reason string) {
	s.balance = s.balance.Add(amount)
	s.log.Info("credit applied", "amount", amount.StringFixed(2), "reason", reason, "balance", s.balance.StringFixed(2))
	s.emit(metrics.Record{
		Event:     metrics.Redeem,
		BetNumber: s.betIndex,
		Result:    metrics.Money(amount),
		Coin:      metrics.Money(s.balance),
		Message:   reason,
	})
}

// Message 研究者訊息，直接寫入紀錄；SESSION_END 之後不再接受
func (s *Session) Message(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return errs.Kindf(errs.KindSessionDone, "session %s already finished", s.id)
	}
	return s.emitErr(metrics.Record{Event: metrics.Message, BetNumber: s.betIndex, Message: text})
}

// Finished 是否已寫入 SESSION_END
func (s *Session) Finished() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ended
}

// End 結束 session 並寫入 SESSION_END（只寫一次）
func (s *Session) End() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.end()
}

func (s *Session) end() {
	if s.ended {
		return
	}
	s.ended = true
	s.emit(metrics.Record{Event: metrics.SessionEnd, BetNumber: s.betIndex, Coin: metrics.Money(s.balance)})
}

// State 目前狀態快照
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := State{
		ID:          s.id,
		Script:      s.setting.Name,
		Condition:   s.cond,
		Balance:     s.balance,
		BetsPlaced:  s.betIndex,
		TotalBets:   s.eng.TotalBets(),
		PhaseLength: s.eng.PhaseLength(),
		Finished:    s.ended,
		Metrics:     s.metrics,
	}
	if s.fatal != nil {
		st.Failure = s.fatal.Error()
	}
	return st
}

func (s *Session) Balance() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.balance
}

// emit 觀察者錯誤只記 log，不影響已完成的下注
func (s *Session) emit(r metrics.Record) {
	if err := s.emitErr(r); err != nil {
		s.log.Error("metrics observer failed", "event", string(r.Event), "err", err)
	}
}

func (s *Session) emitErr(r metrics.Record) error {
	if s.obs == nil {
		return nil
	}
	r.Session = s.id
	return s.obs.Observe(r)
}
