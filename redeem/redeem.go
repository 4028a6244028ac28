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

// Package redeem 兌換碼驗證：每個碼在同一個 Book 內只能使用一次。
package redeem

import (
	"encoding/json"
	"io/fs"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/zintix-labs/scriptlab/errs"
)

// DefaultFile fs 內的預設檔名
const DefaultFile = "redeem_codes.json"

// Book 兌換碼表
type Book struct {
	mu    sync.Mutex
	codes map[string]decimal.Decimal
	used  map[string]bool
}

// Load 讀取 {"CODE": coins} 格式的 JSON
func Load(fsys fs.FS, name string) (*Book, error) {
	raw, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, errs.WrapKind(err, errs.KindConfig, "read redeem codes failed")
	}
	return Parse(raw)
}

// Parse 解析 JSON；碼一律轉大寫並去除空白，金額需為正且最多兩位小數
func Parse(raw []byte) (*Book, error) {
	var m map[string]decimal.Decimal
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, errs.WrapKind(err, errs.KindConfig, "invalid redeem codes json")
	}
	b := &Book{codes: make(map[string]decimal.Decimal, len(m)), used: map[string]bool{}}
	for k, v := range m {
		code := normalize(k)
		if code == "" {
			return nil, errs.Kindf(errs.KindConfig, "empty redeem code")
		}
		if !v.IsPositive() || !v.Equal(v.Round(2)) {
			return nil, errs.Kindf(errs.KindConfig, "redeem code %s has invalid coins %s", code, v)
		}
		if _, dup := b.codes[code]; dup {
			return nil, errs.Kindf(errs.KindConfig, "duplicate redeem code %s", code)
		}
		b.codes[code] = v
	}
	return b, nil
}

// Redeem 回傳可入帳金額；未知或已使用的碼回傳 Warn 錯誤
func (b *Book) Redeem(code string) (decimal.Decimal, error) {
	c := normalize(code)
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.used[c] {
		return decimal.Zero, errs.Warnf("redeem code %q already used", c)
	}
	v, ok := b.codes[c]
	if !ok {
		return decimal.Zero, errs.Warnf("invalid redeem code %q", c)
	}
	b.used[c] = true
	return v, nil
}

// Remaining 尚未使用的碼數
func (b *Book) Remaining() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.codes) - len(b.used)
}

func normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
