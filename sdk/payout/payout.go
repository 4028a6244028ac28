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

// Package payout 提供賠率表的正向（圖標 -> 倍數）與反向（倍數 -> 圖標）查詢。
//
// 表由對子 band 與三連 band 組成，兩個 band 以相同的圖標等級排序且整體嚴格遞增，
// 因此攤平後的 entries 天然有序，反查可用二分搜尋。
package payout

import (
	"slices"

	"github.com/shopspring/decimal"
	"github.com/zintix-labs/scriptlab/errs"
	"github.com/zintix-labs/scriptlab/spec"
)

// MultiplierPlaces 倍數比對的精度（小數位數）
const MultiplierPlaces = 4

// Entry 一個可達成的賠率組合
type Entry struct {
	Multiplier  decimal.Decimal `json:"multiplier"  yaml:"multiplier"`
	Symbol      spec.Symbol     `json:"symbol"      yaml:"symbol"`
	Occurrences int             `json:"occurrences" yaml:"occurrences"`
}

// Table 不可變的賠率表
type Table struct {
	entries   []Entry
	pair      [spec.SymbolCount]decimal.Decimal
	triple    [spec.SymbolCount]decimal.Decimal
	policy    spec.PayoutMode
	tolerance decimal.Decimal
}

// New 由已驗證的 PayoutSetting 建表
func New(ps *spec.PayoutSetting) *Table {
	t := &Table{
		entries:   make([]Entry, 0, 2*len(ps.Symbols)),
		policy:    ps.Policy,
		tolerance: ps.Tolerance,
	}
	for _, s := range ps.Symbols {
		t.entries = append(t.entries, Entry{Multiplier: s.Pair, Symbol: s.Symbol, Occurrences: 2})
		t.pair[s.Symbol] = s.Pair
		t.triple[s.Symbol] = s.Triple
	}
	for _, s := range ps.Symbols {
		t.entries = append(t.entries, Entry{Multiplier: s.Triple, Symbol: s.Symbol, Occurrences: 3})
	}
	slices.SortStableFunc(t.entries, func(a, b Entry) int { return a.Multiplier.Cmp(b.Multiplier) })
	return t
}

// Entries 回傳由低到高排序的副本
func (t *Table) Entries() []Entry {
	return slices.Clone(t.entries)
}

// MinMultiplier 最低賠率，腳本贏的回饋至少為 bet * MinMultiplier
func (t *Table) MinMultiplier() decimal.Decimal {
	return t.entries[0].Multiplier
}

func (t *Table) Policy() spec.PayoutMode { return t.policy }

// Implied 回傳 reward / bet 的倍數（四位小數）
func Implied(reward, bet decimal.Decimal) decimal.Decimal {
	return reward.DivRound(bet, MultiplierPlaces)
}

// Resolve 依表的策略反查倍數對應的 Entry
func (t *Table) Resolve(m decimal.Decimal) (Entry, error) {
	return t.ResolveWith(m, t.policy, t.tolerance)
}

// ResolveWith 依指定策略反查
//
//   - Exact : 必須完全相同
//   - Nearest : 取距離最小者，距離相同取較低倍數
//   - Tolerance : 同 Nearest，距離超過 tol 視為失敗（等於 tol 可接受）
func (t *Table) ResolveWith(m decimal.Decimal, mode spec.PayoutMode, tol decimal.Decimal) (Entry, error) {
	if !m.IsPositive() {
		return Entry{}, errs.Kindf(errs.KindUnresolvablePayout, "multiplier %s must be positive", m)
	}
	idx, found := slices.BinarySearchFunc(t.entries, m, func(e Entry, target decimal.Decimal) int {
		return e.Multiplier.Cmp(target)
	})
	if found {
		return t.entries[idx], nil
	}
	if mode == spec.Exact {
		return Entry{}, errs.Kindf(errs.KindUnresolvablePayout, "no exact payout for multiplier %s", m)
	}

	best := -1
	var bestDist decimal.Decimal
	// idx-1 為較低候選，先比較它，使距離相同時保留較低倍數
	for _, i := range [2]int{idx - 1, idx} {
		if i < 0 || i >= len(t.entries) {
			continue
		}
		d := t.entries[i].Multiplier.Sub(m).Abs()
		if best < 0 || d.LessThan(bestDist) {
			best, bestDist = i, d
		}
	}
	if mode == spec.Tolerance && bestDist.GreaterThan(tol) {
		return Entry{}, errs.Kindf(errs.KindUnresolvablePayout,
			"multiplier %s is %s away from nearest payout %s (tolerance %s)",
			m, bestDist, t.entries[best].Multiplier, tol)
	}
	return t.entries[best], nil
}

// Forward 正向查詢：三連取 triple，恰兩個相同取 pair，否則 0
func (t *Table) Forward(syms [3]spec.Symbol) decimal.Decimal {
	a, b, c := syms[0], syms[1], syms[2]
	switch {
	case a == b && b == c:
		return t.triple[a]
	case a == b || a == c:
		return t.pair[a]
	case b == c:
		return t.pair[b]
	default:
		return decimal.Zero
	}
}
