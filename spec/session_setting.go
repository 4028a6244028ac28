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

// PhaseCount : 一場 session 固定切成 BEFORE / DURING / AFTER 三段
const PhaseCount = 3

// SessionSetting 一場 session 的不可變參數
type SessionSetting struct {
	TotalBets     int             `yaml:"total_bets"      json:"total_bets"`
	PhaseLength   int             `yaml:"phase_length"    json:"phase_length"`
	InitialBudget decimal.Decimal `yaml:"initial_budget"  json:"initial_budget"`
	MinBet        decimal.Decimal `yaml:"min_bet"         json:"min_bet"`
	BetStep       decimal.Decimal `yaml:"bet_step"        json:"bet_step"`
}

func (s *SessionSetting) init() error {
	if s.PhaseLength <= 0 {
		return errs.Kindf(errs.KindConfig, "phase_length must be positive, got %d", s.PhaseLength)
	}
	if s.TotalBets == 0 {
		s.TotalBets = PhaseCount * s.PhaseLength
	}
	if s.TotalBets != PhaseCount*s.PhaseLength {
		return errs.Kindf(errs.KindConfig, "total_bets (%d) must equal %d * phase_length (%d)",
			s.TotalBets, PhaseCount, s.PhaseLength)
	}
	if !s.InitialBudget.IsPositive() {
		return errs.Kindf(errs.KindConfig, "initial_budget must be positive")
	}
	if !IsCents(s.InitialBudget) {
		return errs.Kindf(errs.KindConfig, "initial_budget has more than 2 decimals: %s", s.InitialBudget)
	}
	if s.BetStep.IsZero() {
		s.BetStep = decimal.New(1, -2)
	}
	if s.MinBet.IsZero() {
		s.MinBet = s.BetStep
	}
	if !s.BetStep.IsPositive() || !IsCents(s.BetStep) {
		return errs.Kindf(errs.KindConfig, "invalid bet_step %s", s.BetStep)
	}
	if !s.MinBet.IsPositive() || !IsCents(s.MinBet) {
		return errs.Kindf(errs.KindConfig, "invalid min_bet %s", s.MinBet)
	}
	if s.MinBet.GreaterThan(s.InitialBudget) {
		return errs.Kindf(errs.KindConfig, "min_bet %s exceeds initial_budget %s", s.MinBet, s.InitialBudget)
	}
	return nil
}

// IsCents 金額最多兩位小數
func IsCents(d decimal.Decimal) bool {
	return d.Equal(d.Round(2))
}

// OnStep 金額是否落在 step 的整數倍上
func OnStep(d, step decimal.Decimal) bool {
	if step.IsZero() {
		return true
	}
	return d.Mod(step).IsZero()
}
