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
	"fmt"

	"github.com/zintix-labs/scriptlab/errs"
)

// ScriptSetting 包含啟動一場實驗 session 所需的所有高階設定。
//
// 一份 ScriptSetting 對應一個可被 catalog 以 name 取用的實驗腳本。
// 設定在載入時完成 init() 與 valid()，之後視為唯讀。
type ScriptSetting struct {
	Name        string         `yaml:"name"         json:"name"`
	Description string         `yaml:"description"  json:"description"`
	Session     SessionSetting `yaml:"session"      json:"session"`
	Outcomes    OutcomeSetting `yaml:"outcomes"     json:"outcomes"`
	Drift       DriftSetting   `yaml:"drift"        json:"drift"`
	Payout      PayoutSetting  `yaml:"payout"       json:"payout"`
	Sweep       SweepSetting   `yaml:"sweep"        json:"sweep"`
}

// init 依序初始化各子設定，最後執行跨設定檢查
func (ss *ScriptSetting) init() error {
	if err := ss.Session.init(); err != nil {
		return errs.Wrap(err, "session setting")
	}
	if err := ss.Outcomes.init(ss.Session.PhaseLength); err != nil {
		return errs.Wrap(err, "outcome setting")
	}
	if err := ss.Drift.init(); err != nil {
		return errs.Wrap(err, "drift setting")
	}
	if err := ss.Payout.init(); err != nil {
		return errs.Wrap(err, "payout setting")
	}
	if err := ss.Sweep.init(&ss.Session); err != nil {
		return errs.Wrap(err, "sweep setting")
	}
	return ss.valid()
}

// valid 跨子設定的檢查
func (ss *ScriptSetting) valid() error {
	if ss.Name == "" {
		return errs.Kindf(errs.KindConfig, "empty script name")
	}
	// 平坦軌跡需要最後一注為贏，這樣 phase 結束時餘額才會回到起點
	for _, t := range []struct {
		name string
		p    Pattern
	}{
		{"before_after", ss.Outcomes.BeforeAfter},
		{"during.equal", ss.Outcomes.During.Equal},
	} {
		if !t.p.Win(len(t.p)) {
			return errs.Kindf(errs.KindConfig, "script %s: %s must end with a win", ss.Name, t.name)
		}
	}
	if ss.Drift.Win.IsPositive() && !ss.Outcomes.During.Win.Win(len(ss.Outcomes.During.Win)) {
		return errs.Kindf(errs.KindConfig, "script %s: during.win must end with a win", ss.Name)
	}
	return nil
}

// String 簡短摘要，供 CLI 顯示
func (ss *ScriptSetting) String() string {
	return fmt.Sprintf("%s (bets=%d phase=%d budget=%s)",
		ss.Name, ss.Session.TotalBets, ss.Session.PhaseLength, ss.Session.InitialBudget.StringFixed(2))
}
