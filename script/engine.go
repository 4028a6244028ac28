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

// Package script 實作結果腳本引擎：給定條件與下注序號，決定輸贏、
// 計算使餘額落在預定軌跡上的回饋，並把回饋反查成三格圖標。
//
// 每注的流程：
//
//	ResolvePhase -> OutcomeTableSet -> RewardCalculator -> SymbolResolver
//
// 引擎本身不持有條件與餘額，也不寫 log；條件、餘額與 PhaseLedger 皆由呼叫端傳入。
package script

import (
	"github.com/shopspring/decimal"
	"github.com/zintix-labs/scriptlab/errs"
	"github.com/zintix-labs/scriptlab/sdk/core"
	"github.com/zintix-labs/scriptlab/sdk/payout"
	"github.com/zintix-labs/scriptlab/spec"
)

// SpinInput 呼叫端每注提供的輸入
type SpinInput struct {
	BetIndex         int             // 1-based，不跳號
	Bet              decimal.Decimal // 正數且不超過餘額
	BudgetBeforeSpin decimal.Decimal // 扣除本注之前的餘額
}

// SpinOutcome 一注的腳本結果
type SpinOutcome struct {
	BetIndex    int
	Phase       Phase
	WithinIndex int
	Win         bool
	Reward      decimal.Decimal
	Target      decimal.Decimal
	Floored     bool
	Display     Display
}

// Engine 不可變，可被多個 session 共用
type Engine struct {
	phaseLength int
	tables      *OutcomeTableSet
	calc        *RewardCalculator
	symbols     *SymbolResolver
}

// New 由已驗證的 ScriptSetting 建立引擎
func New(ss *spec.ScriptSetting) (*Engine, error) {
	if ss == nil {
		return nil, errs.Kindf(errs.KindConfig, "nil script setting")
	}
	if ss.Session.PhaseLength <= 0 || len(ss.Outcomes.BeforeAfter) != ss.Session.PhaseLength {
		return nil, errs.Kindf(errs.KindConfig, "script %s is not initialized", ss.Name)
	}
	pt := payout.New(&ss.Payout)
	return &Engine{
		phaseLength: ss.Session.PhaseLength,
		tables:      NewOutcomeTableSet(&ss.Outcomes),
		calc:        NewRewardCalculator(&ss.Drift, pt.MinMultiplier()),
		symbols:     NewSymbolResolver(pt),
	}, nil
}

func (e *Engine) PhaseLength() int { return e.phaseLength }

func (e *Engine) TotalBets() int { return len(Phases) * e.phaseLength }

func (e *Engine) Tables() *OutcomeTableSet { return e.tables }

func (e *Engine) Rewards() *RewardCalculator { return e.calc }

func (e *Engine) Symbols() *SymbolResolver { return e.symbols }

// Script 計算一注。phase 第一注時會把 BudgetBeforeSpin 凍結進 ledger。
// 任何錯誤都代表本注不可用，呼叫端不得以預設結果替代。
func (e *Engine) Script(cond Condition, in SpinInput, ledger *PhaseLedger, c *core.Core) (SpinOutcome, error) {
	if !cond.Valid() {
		return SpinOutcome{}, errs.Kindf(errs.KindInvalidCondition, "invalid condition value %d", cond)
	}
	if ledger == nil {
		return SpinOutcome{}, errs.Kindf(errs.KindLedger, "nil phase ledger")
	}
	if !in.Bet.IsPositive() {
		return SpinOutcome{}, errs.Kindf(errs.KindInvalidBet, "bet must be positive, got %s", in.Bet)
	}
	phase, within, err := ResolvePhase(in.BetIndex, e.phaseLength)
	if err != nil {
		return SpinOutcome{}, err
	}
	if within == 1 {
		if err := ledger.Freeze(phase, in.BudgetBeforeSpin); err != nil {
			return SpinOutcome{}, err
		}
	}
	initial, err := ledger.Initial(phase)
	if err != nil {
		return SpinOutcome{}, err
	}

	table, err := e.tables.Table(phase, cond)
	if err != nil {
		return SpinOutcome{}, err
	}
	win, ordinal, err := table.Lookup(within)
	if err != nil {
		return SpinOutcome{}, err
	}

	r, err := e.calc.Compute(RewardInput{
		Win:                win,
		Phase:              phase,
		Condition:          cond,
		BudgetBeforeSpin:   in.BudgetBeforeSpin,
		Bet:                in.Bet,
		PhaseInitialBudget: initial,
		WinOrdinal:         ordinal,
		WinCount:           table.WinCount(),
	})
	if err != nil {
		return SpinOutcome{}, err
	}

	disp, err := e.symbols.Resolve(r.Amount, in.Bet, c)
	if err != nil {
		return SpinOutcome{}, err
	}

	return SpinOutcome{
		BetIndex:    in.BetIndex,
		Phase:       phase,
		WithinIndex: within,
		Win:         win,
		Reward:      r.Amount,
		Target:      r.Target,
		Floored:     r.Floored,
		Display:     disp,
	}, nil
}
