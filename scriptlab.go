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

// Package scriptlab 提供結果腳本引擎的「組裝入口（assembler）」與「運行入口（runtime entry）」。
//
// Lab 把兩個地基組裝在一起，並提供建立 Session 與 Sweeper 的入口：
//  1. Catalog：實驗腳本目錄，定義有哪些腳本、各自對應的設定檔名稱（ConfigName）。
//  2. PRNGFactory：亂數核心工廠，只影響圖標呈現，但保證可重現。
//
// 設計重點：
//   - Lab 不綁定任何「檔案路徑」概念：設定檔來源一律以 fs.FS 的形式注入。
//   - 每個腳本在 RegisterAll 時就完整解析並建出 script.Engine，runtime 不再讀檔。
//   - Session 是對外提供 Spin 的最小單位；條件在建立時決定，之後不可變。
//
// 典型使用情境：
//   - 互動 CLI（cmd/play）：研究者選條件，受試者逐注遊玩。
//   - HTTP driver（cmd/svr）：由 SessionRuntime 管理多個 session。
//   - TEST sweep（cmd/sweep）：由 Sweeper 依序跑過每個條件。
package scriptlab

import (
	"crypto/rand"
	"fmt"
	"io/fs"
	"math"
	"math/big"
	"path/filepath"
	"strings"

	"github.com/zintix-labs/scriptlab/catalog"
	"github.com/zintix-labs/scriptlab/errs"
	"github.com/zintix-labs/scriptlab/script"
	"github.com/zintix-labs/scriptlab/sdk/core"
	"github.com/zintix-labs/scriptlab/spec"
)

// Configs 用來把一或多個設定檔來源（fs.FS）打包成 New() 需要的參數。
//
// 可以用 go:embed 把 configs 編進 binary，也可以用 os.DirFS 在本機讀取目錄。
func Configs(cfgs ...fs.FS) []fs.FS {
	return cfgs
}

// scriptRuntime 一個已註冊腳本的執行期資料
type scriptRuntime struct {
	setting *spec.ScriptSetting
	engine  *script.Engine
}

// Lab 是「組裝器」與「運行入口」。
//
// 使用流程分成兩階段：
//   - 註冊/組裝階段：建立 catalog、解析所有設定並建出引擎。
//   - 執行階段：依腳本名稱產生 Session 或 Sweeper。
//
// runtime 一旦開始，Catalog 即凍結，不再接受註冊。
type Lab struct {
	cat     *catalog.Catalog
	cf      core.PRNGFactory
	scripts map[string]*scriptRuntime
	sum     []catalog.Summary
}

// New 建立一個 Lab instance（註冊/組裝階段）。
//
// cf 不能為 nil；cfgs 至少一個。
func New(cf core.PRNGFactory, cfgs []fs.FS) (*Lab, error) {
	if cf == nil {
		return nil, errs.NewFatal("prng factory required")
	}
	if len(cfgs) == 0 {
		return nil, errs.NewFatal("configs required")
	}
	cata, err := catalog.New(cfgs...)
	if err != nil {
		return nil, err
	}
	return &Lab{
		cat:     cata,
		cf:      cf,
		scripts: map[string]*scriptRuntime{},
	}, nil
}

// NewAuto 建立一個直接進入執行階段的 Lab instance。
func NewAuto(cf core.PRNGFactory, cfgs []fs.FS) (*Lab, error) {
	lab, err := New(cf, cfgs)
	if err != nil {
		return nil, err
	}
	if err := lab.RegisterAll(); err != nil {
		return nil, err
	}
	lab.Freeze()
	return lab, nil
}

// RegisterAll
//
// 掃描 catalog 持有的設定來源，把所有 .yaml/.yml/.json 解析成 *spec.ScriptSetting，
// 以設定內的 name 註冊並建出對應的 script.Engine。
//
// 行為特性：
//  1. Fail-fast：任何一個檔案讀取/解析/檢查失敗都立刻回傳 error。
//  2. 原子性：全部成功才一次性寫入 catalog 與引擎表。
//  3. 穩定性：依檔名排序處理。
func (l *Lab) RegisterAll() error {
	if l.cat.IsFrozen() {
		return errs.NewWarn("can not register when lab already frozen")
	}
	names := l.cat.Cfg().Names()
	entries := make([]catalog.Entry, 0, len(names))
	built := make(map[string]*scriptRuntime, len(names))
	seen := map[string]string{}

	for _, base := range names {
		src, _ := l.cat.Cfg().GetFS(base)
		raw, err := fs.ReadFile(src, base)
		if err != nil {
			return errs.Wrap(err, fmt.Sprintf("read config failed: %s", base))
		}
		ss, err := catalog.ParseByExt(filepath.Base(base), raw)
		if err != nil {
			return errs.Wrap(err, fmt.Sprintf("parse script setting failed: %s", base))
		}
		key := strings.ToLower(strings.TrimSpace(ss.Name))
		if prev, ok := seen[key]; ok {
			return errs.NewFatal(fmt.Sprintf("duplicate script name: %s (config=%s and %s)", key, prev, base))
		}
		if _, ok := l.cat.GetByName(key); ok {
			return errs.NewFatal(fmt.Sprintf("script name already registered: %s (config=%s)", key, base))
		}
		seen[key] = base

		eng, err := script.New(ss)
		if err != nil {
			return errs.Wrap(err, fmt.Sprintf("build engine failed: %s", base))
		}
		built[key] = &scriptRuntime{setting: ss, engine: eng}
		entries = append(entries, catalog.Entry{Name: key, ConfigName: base})
	}

	if len(entries) == 0 {
		return errs.NewFatal("no config files found to register")
	}
	if err := l.cat.Register(entries...); err != nil {
		return err
	}
	for k, v := range built {
		l.scripts[k] = v
	}
	return nil
}

func (l *Lab) Freeze() {
	l.cat.Freeze()
}

func (l *Lab) Names() []string {
	return l.cat.Names()
}

// Summary 回傳所有腳本摘要（依名稱排序）
func (l *Lab) Summary() ([]catalog.Summary, error) {
	if !l.cat.IsFrozen() {
		return nil, errs.NewFatal("catalog is not frozen yet")
	}
	if l.sum != nil {
		return l.sum, nil
	}
	names := l.cat.Names()
	cs := make([]catalog.Summary, 0, len(names))
	for _, n := range names {
		cs = append(cs, catalog.SummaryOf(l.scripts[n].setting))
	}
	l.sum = cs
	return l.sum, nil
}

// Setting 回傳腳本設定（唯讀）
func (l *Lab) Setting(name string) (*spec.ScriptSetting, error) {
	rt, err := l.lookup(name)
	if err != nil {
		return nil, err
	}
	return rt.setting, nil
}

func (l *Lab) lookup(name string) (*scriptRuntime, error) {
	if !l.cat.IsFrozen() {
		return nil, errs.NewFatal("catalog is not frozen yet")
	}
	rt, ok := l.scripts[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, errs.Kindf(errs.KindNotFound, "script %q not registered", name)
	}
	return rt, nil
}

// NewSession 以隨機 seed 建立 Session
func (l *Lab) NewSession(name string, cond script.Condition, opts ...SessionOption) (*Session, error) {
	seed, err := cryptoSeed()
	if err != nil {
		return nil, err
	}
	return l.NewSessionWithSeed(name, cond, seed, opts...)
}

// NewSessionWithSeed 與 NewSession 相同，但由呼叫端指定 seed（可重現的圖標序列）
func (l *Lab) NewSessionWithSeed(name string, cond script.Condition, seed int64, opts ...SessionOption) (*Session, error) {
	rt, err := l.lookup(name)
	if err != nil {
		return nil, err
	}
	return newSession(rt.setting, rt.engine, cond, core.New(l.cf.New(seed)), seed, opts...)
}

// NewSweeper 以指定 seed 建立 TEST sweep
func (l *Lab) NewSweeper(name string, seed int64) (*Sweeper, error) {
	rt, err := l.lookup(name)
	if err != nil {
		return nil, err
	}
	return newSweeper(rt.setting, rt.engine, l.cf, seed), nil
}

// BuildRuntime 進入執行階段，回傳 HTTP driver 使用的 session registry
func (l *Lab) BuildRuntime(maxSessions int) (*SessionRuntime, error) {
	l.Freeze()
	if len(l.scripts) == 0 {
		return nil, errs.NewFatal("no scripts registered")
	}
	return newSessionRuntime(l, maxSessions), nil
}

func cryptoSeed() (int64, error) {
	seed, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
	if err != nil {
		return 0, errs.Wrap(err, "new crypto seed error in go std lib")
	}
	return seed.Int64(), nil
}
