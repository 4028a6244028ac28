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

// Symbol 轉輪上的九種圖標，iota 順序即為賠率等級（越後越稀有）
type Symbol int

const (
	Lemon Symbol = iota
	Grape
	Banana
	Cherry
	Diamond
	Star
	Bell
	Bar
	Seven
)

// SymbolCount 圖標總數
const SymbolCount = 9

var symbolMap = map[string]Symbol{
	"lemon":   Lemon,
	"grape":   Grape,
	"banana":  Banana,
	"cherry":  Cherry,
	"diamond": Diamond,
	"star":    Star,
	"bell":    Bell,
	"bar":     Bar,
	"seven":   Seven,
}

var symbolNames = [SymbolCount]string{"lemon", "grape", "banana", "cherry", "diamond", "star", "bell", "bar", "seven"}

// ParseSymbol 不分大小寫
func ParseSymbol(s string) (Symbol, bool) {
	sym, ok := symbolMap[strings.ToLower(strings.TrimSpace(s))]
	return sym, ok
}

func (s Symbol) String() string {
	if s.Valid() {
		return symbolNames[s]
	}
	return "unknown"
}

func (s Symbol) Valid() bool { return s >= Lemon && s <= Seven }

// MarshalText / UnmarshalText 讓 yaml 與 json 以名稱序列化
func (s Symbol) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Symbol) UnmarshalText(b []byte) error {
	sym, ok := ParseSymbol(string(b))
	if !ok {
		return errs.Kindf(errs.KindConfig, "unknown symbol: %s", b)
	}
	*s = sym
	return nil
}
