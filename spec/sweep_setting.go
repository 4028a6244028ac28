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

package spec

import (
	"github.com/shopspring/decimal"
	"github.com/zintix-labs/scriptlab/errs"
)

// SweepSetting TEST 模式自動掃描時模擬玩家的下注行為
type SweepSetting struct {
	Players int             `yaml:"players"   json:"players"`
	BetMin  decimal.Decimal `yaml:"bet_min"   json:"bet_min"`
	BetMax  decimal.Decimal `yaml:"bet_max"   json:"bet_max"`
}

func (s *SweepSetting) init(ss *SessionSetting) error {
	if s.Players <= 0 {
		s.Players = 1000
	}
	if s.BetMin.IsZero() {
		s.BetMin = ss.MinBet
	}
	if s.BetMax.IsZero() {
		s.BetMax = s.BetMin
	}
	if s.BetMin.LessThan(ss.MinBet) || s.BetMax.LessThan(s.BetMin) {
		return errs.Kindf(errs.KindConfig, "sweep bet range [%s, %s] invalid for min_bet %s", s.BetMin, s.BetMax, ss.MinBet)
	}
	if !OnStep(s.BetMin, ss.BetStep) || !OnStep(s.BetMax, ss.BetStep) {
		return errs.Kindf(errs.KindConfig, "sweep bet range must be on bet_step %s", ss.BetStep)
	}
	return nil
}

// Steps 回傳 [BetMin, BetMax] 之間 step 格數（含兩端）
func (s *SweepSetting) Steps(step decimal.Decimal) int {
	return int(s.BetMax.Sub(s.BetMin).Div(step).IntPart()) + 1
}
