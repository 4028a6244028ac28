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

package script

import (
	"github.com/shopspring/decimal"
	"github.com/zintix-labs/scriptlab/errs"
	"github.com/zintix-labs/scriptlab/spec"
)

// RewardInput 計算一注回饋所需的全部輸入
type RewardInput struct {
	Win                bool
	Phase              Phase
	Condition          Condition
	BudgetBeforeSpin   decimal.Decimal // 扣除本注之前的餘額
	Bet                decimal.Decimal
	PhaseInitialBudget decimal.Decimal
	WinOrdinal         int // 本注在 phase 贏局中的序位（1-based）
	WinCount           int // phase 表中的贏局總數
}

// Reward 計算結果
type Reward struct {
	Amount  decimal.Decimal
	Target  decimal.Decimal // 本次贏局要落到的餘額（僅贏局有值）
	Floored bool            // 是否被最低賠率墊高
}

// RewardCalculator 依 phase 目標軌跡計算回饋。
//
// 贏局第 k 次（共 n 次）的目標餘額為 P * (1 + d*k/n)，P 為 phase 起始餘額，
// d 為 (phase, condition) 的漂移比例；BEFORE/AFTER 與 EQUAL 的 d 為 0，
// 此時公式退化為 P - budget + bet，每次贏局都把餘額拉回 P。
type RewardCalculator struct {
	drift   [len(Conditions)]decimal.Decimal
	minMult decimal.Decimal
}

// NewRewardCalculator minMult 為賠率表最低倍數，贏局回饋不得低於 bet*minMult
func NewRewardCalculator(ds *spec.DriftSetting, minMult decimal.Decimal) *RewardCalculator {
	rc := &RewardCalculator{minMult: minMult}
	rc.drift[Equal] = ds.Equal
	rc.drift[Win] = ds.Win
	rc.drift[Lose] = ds.Lose
	return rc
}

// Drift 回傳 (phase, condition) 的漂移比例
func (rc *RewardCalculator) Drift(p Phase, c Condition) decimal.Decimal {
	if p != During || !c.Valid() {
		return decimal.Zero
	}
	return rc.drift[c]
}

// Compute 輸局回饋為 0；贏局回饋 = target - budget + bet，並套用最低賠率下限
func (rc *RewardCalculator) Compute(in RewardInput) (Reward, error) {
	if !in.Win {
		return Reward{Amount: decimal.Zero}, nil
	}
	if !in.Bet.IsPositive() {
		return Reward{}, errs.Kindf(errs.KindInvalidBet, "bet must be positive, got %s", in.Bet)
	}
	if in.WinCount <= 0 || in.WinOrdinal < 1 || in.WinOrdinal > in.WinCount {
		return Reward{}, errs.Kindf(errs.KindMissingOutcome, "win ordinal %d/%d out of table", in.WinOrdinal, in.WinCount)
	}

	target := in.PhaseInitialBudget
	if d := rc.Drift(in.Phase, in.Condition); !d.IsZero() {
		step := in.PhaseInitialBudget.Mul(d).Mul(decimal.NewFromInt(int64(in.WinOrdinal))).
			Div(decimal.NewFromInt(int64(in.WinCount)))
		target = in.PhaseInitialBudget.Add(step).Round(2)
	}

	r := Reward{Target: target, Amount: target.Sub(in.BudgetBeforeSpin).Add(in.Bet)}
	if floor := in.Bet.Mul(rc.minMult).Round(2); r.Amount.LessThan(floor) {
		r.Amount = floor
		r.Floored = true
	}
	return r, nil
}

// FlatReward 平坦軌跡的回饋：P - budget + bet
func FlatReward(budgetBeforeSpin, bet, phaseInitialBudget decimal.Decimal) decimal.Decimal {
	return phaseInitialBudget.Sub(budgetBeforeSpin).Add(bet)
}
