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
	"github.com/zintix-labs/scriptlab/errs"
	"github.com/zintix-labs/scriptlab/spec"
)

// OutcomeTable phase 內序號 -> 是否腳本贏。
// ordinal[i] 為第 i 注在所有贏局中的序位（1-based），輸局為 0。
type OutcomeTable struct {
	name    string
	wins    []bool
	ordinal []int
	count   int
}

func newOutcomeTable(name string, p spec.Pattern) OutcomeTable {
	t := OutcomeTable{
		name:    name,
		wins:    make([]bool, len(p)),
		ordinal: make([]int, len(p)),
	}
	for i := range t.wins {
		if p.Win(i + 1) {
			t.count++
			t.wins[i] = true
			t.ordinal[i] = t.count
		}
	}
	return t
}

func (t *OutcomeTable) Name() string { return t.name }

// Len phase 長度
func (t *OutcomeTable) Len() int { return len(t.wins) }

// WinCount 表中贏局總數
func (t *OutcomeTable) WinCount() int { return t.count }

// Lookup 回傳第 within 注是否為贏及其贏局序位
func (t *OutcomeTable) Lookup(within int) (win bool, ordinal int, err error) {
	if within < 1 || within > len(t.wins) {
		return false, 0, errs.Kindf(errs.KindMissingOutcome, "table %s has no entry for index %d", t.name, within)
	}
	return t.wins[within-1], t.ordinal[within-1], nil
}

// OutcomeTableSet BEFORE/AFTER 共用 shared；DURING 依條件選表
type OutcomeTableSet struct {
	shared OutcomeTable
	during [len(Conditions)]OutcomeTable
}

func NewOutcomeTableSet(os *spec.OutcomeSetting) *OutcomeTableSet {
	s := &OutcomeTableSet{shared: newOutcomeTable("before_after", os.BeforeAfter)}
	s.during[Equal] = newOutcomeTable("during.equal", os.During.Equal)
	s.during[Win] = newOutcomeTable("during.win", os.During.Win)
	s.during[Lose] = newOutcomeTable("during.lose", os.During.Lose)
	return s
}

// Table 回傳 (phase, condition) 生效的表
func (s *OutcomeTableSet) Table(p Phase, c Condition) (*OutcomeTable, error) {
	if !c.Valid() {
		return nil, errs.Kindf(errs.KindInvalidCondition, "invalid condition value %d", c)
	}
	switch p {
	case Before, After:
		return &s.shared, nil
	case During:
		return &s.during[c], nil
	default:
		return nil, errs.Kindf(errs.KindMissingOutcome, "no table for phase %d", p)
	}
}

// Lookup 回傳是否腳本贏
func (s *OutcomeTableSet) Lookup(p Phase, c Condition, within int) (bool, error) {
	t, err := s.Table(p, c)
	if err != nil {
		return false, err
	}
	win, _, err := t.Lookup(within)
	return win, err
}
