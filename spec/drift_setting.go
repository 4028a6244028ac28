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

// DriftSetting DURING phase 各條件的目標漂移比例（相對 phase 起始餘額）
//
// equal 必須為 0，win 必須為正，lose 必須為負且大於 -1。
type DriftSetting struct {
	Equal decimal.Decimal `yaml:"equal"  json:"equal"`
	Win   decimal.Decimal `yaml:"win"    json:"win"`
	Lose  decimal.Decimal `yaml:"lose"   json:"lose"`
}

func (d *DriftSetting) init() error {
	if !d.Equal.IsZero() {
		return errs.Kindf(errs.KindConfig, "drift.equal must be 0, got %s", d.Equal)
	}
	if !d.Win.IsPositive() {
		return errs.Kindf(errs.KindConfig, "drift.win must be positive, got %s", d.Win)
	}
	if !d.Lose.IsNegative() || d.Lose.LessThanOrEqual(decimal.NewFromInt(-1)) {
		return errs.Kindf(errs.KindConfig, "drift.lose must be in (-1, 0), got %s", d.Lose)
	}
	return nil
}
