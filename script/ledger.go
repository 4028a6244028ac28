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
)

// PhaseLedger 保存每個 phase 第一注時凍結的起始餘額。
// 由呼叫端（session）持有，每場 session 一份，不可共用。
type PhaseLedger struct {
	initial [len(Phases)]decimal.Decimal
	frozen  [len(Phases)]bool
}

func NewPhaseLedger() *PhaseLedger { return &PhaseLedger{} }

// Freeze 凍結 phase 起始餘額；重複凍結相同值視為無操作
func (l *PhaseLedger) Freeze(p Phase, budget decimal.Decimal) error {
	if int(p) >= len(l.frozen) {
		return errs.Kindf(errs.KindLedger, "unknown phase %d", p)
	}
	if l.frozen[p] {
		if l.initial[p].Equal(budget) {
			return nil
		}
		return errs.Kindf(errs.KindLedger, "phase %s already frozen at %s, refusing %s", p, l.initial[p], budget)
	}
	l.initial[p] = budget
	l.frozen[p] = true
	return nil
}

// Initial 回傳 phase 起始餘額；未凍結為 Ledger 錯誤
func (l *PhaseLedger) Initial(p Phase) (decimal.Decimal, error) {
	if int(p) >= len(l.frozen) || !l.frozen[p] {
		return decimal.Zero, errs.Kindf(errs.KindLedger, "phase %s initial budget not captured", p)
	}
	return l.initial[p], nil
}

// Frozen 是否已凍結
func (l *PhaseLedger) Frozen(p Phase) bool {
	return int(p) < len(l.frozen) && l.frozen[p]
}
