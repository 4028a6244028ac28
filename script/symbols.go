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
	"github.com/zintix-labs/scriptlab/sdk/core"
	"github.com/zintix-labs/scriptlab/sdk/payout"
	"github.com/zintix-labs/scriptlab/spec"
)

// Reels 三格轉輪顯示
type Reels [3]spec.Symbol

// Display 回饋反查後要呈現的結果
type Display struct {
	Reels       Reels           `json:"reels"`
	Multiplier  decimal.Decimal `json:"multiplier"`  // 顯示用倍數（表內值），輸局為 0
	Symbol      spec.Symbol     `json:"symbol"`      // 中獎圖標，輸局無意義
	Occurrences int             `json:"occurrences"` // 0 / 2 / 3
}

// SymbolResolver 回饋 -> 三格圖標
type SymbolResolver struct {
	table *payout.Table
}

func NewSymbolResolver(t *payout.Table) *SymbolResolver {
	return &SymbolResolver{table: t}
}

func (sr *SymbolResolver) Table() *payout.Table { return sr.table }

// Resolve reward 為 0 時自九種圖標不放回抽三個；
// 否則以 reward/bet 反查賠率，將 occurrences 個相同圖標放在隨機位置，
// 其餘格子自另外八種均勻抽取。
func (sr *SymbolResolver) Resolve(reward, bet decimal.Decimal, c *core.Core) (Display, error) {
	if reward.IsNegative() {
		return Display{}, errs.Kindf(errs.KindUnresolvablePayout, "negative reward %s", reward)
	}
	if reward.IsZero() {
		return Display{Reels: sr.Loss(c)}, nil
	}
	if !bet.IsPositive() {
		return Display{}, errs.Kindf(errs.KindInvalidBet, "bet must be positive, got %s", bet)
	}
	e, err := sr.table.Resolve(payout.Implied(reward, bet))
	if err != nil {
		return Display{}, errs.Wrap(err, "resolve symbols for reward "+reward.StringFixed(2))
	}
	return Display{
		Reels:       Place(e.Symbol, e.Occurrences, c),
		Multiplier:  e.Multiplier,
		Symbol:      e.Symbol,
		Occurrences: e.Occurrences,
	}, nil
}

// Loss 三個互不相同的圖標
func (sr *SymbolResolver) Loss(c *core.Core) Reels {
	idx := c.SampleDistinct(spec.SymbolCount, 3)
	return Reels{spec.Symbol(idx[0]), spec.Symbol(idx[1]), spec.Symbol(idx[2])}
}

// Place 依 occurrences 擺放中獎圖標
func Place(sym spec.Symbol, occurrences int, c *core.Core) Reels {
	r := Reels{sym, sym, sym}
	if occurrences == 3 {
		return r
	}
	odd := c.IntN(len(r))
	r[odd] = spec.Symbol(c.PickExcept(spec.SymbolCount, int(sym)))
	return r
}
