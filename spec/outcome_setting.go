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
	"strings"

	"github.com/zintix-labs/scriptlab/errs"
)

// Pattern : 以 W/L 字串描述的結果表，第 i 個字元對應 phase 內第 i 注（1-based）
type Pattern string

// Win 回傳第 i 注（1-based）是否腳本贏；超出範圍回傳 false
func (p Pattern) Win(i int) bool {
	if i < 1 || i > len(p) {
		return false
	}
	return p[i-1] == 'W'
}

// Wins 贏的總數
func (p Pattern) Wins() int {
	return strings.Count(string(p), "W")
}

func (p *Pattern) normalize(name string, phaseLength int) error {
	s := strings.ToUpper(strings.Join(strings.Fields(string(*p)), ""))
	if len(s) != phaseLength {
		return errs.Kindf(errs.KindConfig, "%s: pattern length %d != phase_length %d", name, len(s), phaseLength)
	}
	for i, c := range s {
		if c != 'W' && c != 'L' {
			return errs.Kindf(errs.KindConfig, "%s: invalid char %q at index %d", name, c, i+1)
		}
	}
	*p = Pattern(s)
	return nil
}

// DuringSetting DURING phase 依條件分開的三張表
type DuringSetting struct {
	Equal Pattern `yaml:"equal"  json:"equal"`
	Win   Pattern `yaml:"win"    json:"win"`
	Lose  Pattern `yaml:"lose"   json:"lose"`
}

// OutcomeSetting BEFORE/AFTER 共用一張表，DURING 依條件三張
type OutcomeSetting struct {
	BeforeAfter Pattern       `yaml:"before_after"  json:"before_after"`
	During      DuringSetting `yaml:"during"        json:"during"`
}

func (o *OutcomeSetting) init(phaseLength int) error {
	for _, t := range []struct {
		name string
		p    *Pattern
	}{
		{"before_after", &o.BeforeAfter},
		{"during.equal", &o.During.Equal},
		{"during.win", &o.During.Win},
		{"during.lose", &o.During.Lose},
	} {
		if err := t.p.normalize(t.name, phaseLength); err != nil {
			return err
		}
		if t.p.Wins() == 0 {
			return errs.Kindf(errs.KindConfig, "%s: table has no wins", t.name)
		}
	}
	return nil
}
