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

	"github.com/shopspring/decimal"
	"github.com/zintix-labs/scriptlab/errs"
)

// PayoutMode 反查賠率時的取捨策略
type PayoutMode uint8

const (
	// Nearest : 取最接近的賠率，距離相同取較低者（預設）
	Nearest PayoutMode = iota
	// Exact : 必須完全相同，否則 UnresolvablePayout
	Exact
	// Tolerance : 最接近且距離不超過 tolerance
	Tolerance
)

var payoutModeMap = map[string]PayoutMode{
	"":          Nearest,
	"nearest":   Nearest,
	"exact":     Exact,
	"tolerance": Tolerance,
}

func ParsePayoutMode(s string) (PayoutMode, bool) {
	m, ok := payoutModeMap[strings.ToLower(strings.TrimSpace(s))]
	return m, ok
}

func (m PayoutMode) String() string {
	switch m {
	case Exact:
		return "exact"
	case Tolerance:
		return "tolerance"
	default:
		return "nearest"
	}
}

// PayoutSymbolSetting 單一圖標的對子與三連賠率（倍數）
type PayoutSymbolSetting struct {
	Symbol Symbol          `yaml:"symbol"  json:"symbol"`
	Pair   decimal.Decimal `yaml:"pair"    json:"pair"`
	Triple decimal.Decimal `yaml:"triple"  json:"triple"`
}

// PayoutSetting 賠率表與反查策略
//
// Symbols 的順序即為等級順序，兩個 band 都必須依此順序嚴格遞增，
// 且所有對子倍數都要低於所有三連倍數。
type PayoutSetting struct {
	PolicyStr string                `yaml:"policy"     json:"policy"`
	Tolerance decimal.Decimal       `yaml:"tolerance"  json:"tolerance"`
	Symbols   []PayoutSymbolSetting `yaml:"symbols"    json:"symbols"`
	Policy    PayoutMode            `yaml:"-"          json:"-"`
}

func (p *PayoutSetting) init() error {
	mode, ok := ParsePayoutMode(p.PolicyStr)
	if !ok {
		return errs.Kindf(errs.KindConfig, "unknown payout policy %q", p.PolicyStr)
	}
	p.Policy = mode
	if mode == Tolerance && !p.Tolerance.IsPositive() {
		return errs.Kindf(errs.KindConfig, "payout policy tolerance needs a positive tolerance")
	}
	if p.Tolerance.IsNegative() {
		return errs.Kindf(errs.KindConfig, "negative payout tolerance")
	}
	if len(p.Symbols) != SymbolCount {
		return errs.Kindf(errs.KindConfig, "payout table needs %d symbols, got %d", SymbolCount, len(p.Symbols))
	}
	seen := make(map[Symbol]bool, SymbolCount)
	for i, s := range p.Symbols {
		if !s.Symbol.Valid() || seen[s.Symbol] {
			return errs.Kindf(errs.KindConfig, "payout table: invalid or duplicated symbol at %d", i)
		}
		seen[s.Symbol] = true
		if !s.Pair.IsPositive() || !s.Triple.IsPositive() {
			return errs.Kindf(errs.KindConfig, "payout table: %s multipliers must be positive", s.Symbol)
		}
		if i == 0 {
			continue
		}
		prev := p.Symbols[i-1]
		if !s.Pair.GreaterThan(prev.Pair) || !s.Triple.GreaterThan(prev.Triple) {
			return errs.Kindf(errs.KindConfig, "payout table: %s must pay more than %s in both bands", s.Symbol, prev.Symbol)
		}
	}
	if !p.Symbols[SymbolCount-1].Pair.LessThan(p.Symbols[0].Triple) {
		return errs.Kindf(errs.KindConfig, "payout table: pair band overlaps triple band")
	}
	return nil
}
