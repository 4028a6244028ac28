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

package recorder

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/zintix-labs/scriptlab/errs"
	"github.com/zintix-labs/scriptlab/script"
	"github.com/zintix-labs/scriptlab/stats"
)

// Spin 紀錄員需要的單注資訊
type Spin struct {
	Phase   script.Phase
	Within  int
	Win     bool
	Floored bool
	Bet     decimal.Decimal
	Reward  decimal.Decimal
	Balance decimal.Decimal // 本注結算後餘額
}

// SessionRecorder 模擬受試者紀錄員
//
// 逐注紀錄 phase 起訖餘額，並在每個 phase 結束時檢查腳本不變量：
//   - BEFORE / AFTER 以及 EQUAL 條件下的 DURING：結束餘額必須等於開始餘額。
//   - WIN 條件下的 DURING：結束餘額必須高於開始餘額。
//   - LOSE 條件下的 DURING：結束餘額必須低於開始餘額。
//
// 不變量只在沒有額外入帳（Credit）時成立；模擬不做額外入帳。
type SessionRecorder struct {
	Condition   script.Condition
	PhaseLength int
	InitBalance decimal.Decimal

	balance decimal.Decimal
	max     decimal.Decimal
	min     decimal.Decimal
	start   [3]decimal.Decimal
	end     [3]decimal.Decimal
	done    [3]bool
	bets    int
	wins    int
	floors  int
	bust    bool
	viol    []string
}

func NewSessionRecorder(cond script.Condition, phaseLength int, init decimal.Decimal) (*SessionRecorder, error) {
	if !cond.Valid() {
		return nil, errs.Kindf(errs.KindInvalidCondition, "invalid condition value %d", cond)
	}
	if phaseLength <= 0 {
		return nil, errs.NewFatal(fmt.Sprintf("phase length must be positive, got %d", phaseLength))
	}
	if !init.IsPositive() {
		return nil, errs.NewFatal(fmt.Sprintf("init balance must be positive, got %s", init))
	}
	return &SessionRecorder{
		Condition:   cond,
		PhaseLength: phaseLength,
		InitBalance: init,
		balance:     init,
		max:         init,
		min:         init,
	}, nil
}

// Record 更新餘額與 phase 起訖；phase 結束時檢查不變量
func (s *SessionRecorder) Record(sp Spin) {
	p := int(sp.Phase)
	if p < 0 || p >= len(s.start) {
		s.viol = append(s.viol, fmt.Sprintf("bet %d: unknown phase %d", s.bets+1, p))
		return
	}
	if sp.Within == 1 {
		s.start[p] = s.balance
	}
	want := s.balance.Sub(sp.Bet).Add(sp.Reward)
	if !want.Equal(sp.Balance) {
		s.viol = append(s.viol, fmt.Sprintf("bet %d: balance %s, want %s", s.bets+1, sp.Balance.StringFixed(2), want.StringFixed(2)))
	}
	if !sp.Win && !sp.Reward.IsZero() {
		s.viol = append(s.viol, fmt.Sprintf("bet %d: loss paid %s", s.bets+1, sp.Reward.StringFixed(2)))
	}

	s.balance = sp.Balance
	s.bets++
	if sp.Win {
		s.wins++
	}
	if sp.Floored {
		s.floors++
	}
	if s.balance.GreaterThan(s.max) {
		s.max = s.balance
	}
	if s.balance.LessThan(s.min) {
		s.min = s.balance
	}

	if sp.Within == s.PhaseLength {
		s.end[p] = s.balance
		s.done[p] = true
		s.check(sp.Phase)
	}
}

// Bust 受試者無法再下最小注，提早離場
func (s *SessionRecorder) Bust() {
	s.bust = true
}

func (s *SessionRecorder) check(p script.Phase) {
	i := int(p)
	start, end := s.start[i], s.end[i]
	switch {
	case p != script.During || s.Condition == script.Equal:
		if !end.Equal(start) {
			s.viol = append(s.viol, fmt.Sprintf("%s/%s: flat phase drifted %s -> %s", p, s.Condition, start.StringFixed(2), end.StringFixed(2)))
		}
	case s.Condition == script.Win:
		if !end.GreaterThan(start) {
			s.viol = append(s.viol, fmt.Sprintf("%s/%s: balance did not rise %s -> %s", p, s.Condition, start.StringFixed(2), end.StringFixed(2)))
		}
	case s.Condition == script.Lose:
		if !end.LessThan(start) {
			s.viol = append(s.viol, fmt.Sprintf("%s/%s: balance did not fall %s -> %s", p, s.Condition, start.StringFixed(2), end.StringFixed(2)))
		}
	}
}

// Balance 目前餘額
func (s *SessionRecorder) Balance() decimal.Decimal { return s.balance }

func (s *SessionRecorder) Violations() []string { return s.viol }

// Done 輸出受試者報表
func (s *SessionRecorder) Done() *stats.PlayerReport {
	r := &stats.PlayerReport{
		Condition:   s.Condition.String(),
		InitBalance: s.InitBalance.InexactFloat64(),
		Balance:     s.balance.InexactFloat64(),
		MaxBalance:  s.max.InexactFloat64(),
		MinBalance:  s.min.InexactFloat64(),
		PhaseDone:   s.done,
		Bets:        s.bets,
		Wins:        s.wins,
		Floors:      s.floors,
		Bust:        s.bust,
		Violations:  append([]string(nil), s.viol...),
	}
	for i := range s.start {
		r.PhaseStart[i] = s.start[i].InexactFloat64()
		r.PhaseEnd[i] = s.end[i].InexactFloat64()
	}
	return r
}
