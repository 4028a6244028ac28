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

// Package catalog 實驗腳本目錄：名稱 -> 設定檔，設定檔內容來自一或多個 fs.FS。
package catalog

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/zintix-labs/scriptlab/errs"
	"github.com/zintix-labs/scriptlab/spec"
)

var (
	ErrDupName   = errs.NewFatal("duplicate script name")
	ErrDupConfig = errs.NewFatal("duplicate config name")
)

type Entry struct {
	Name       string
	ConfigName string
}

type Summary struct {
	Name          string          `json:"name"           yaml:"name"`
	Description   string          `json:"description"    yaml:"description"`
	TotalBets     int             `json:"total_bets"     yaml:"total_bets"`
	PhaseLength   int             `json:"phase_length"   yaml:"phase_length"`
	InitialBudget decimal.Decimal `json:"initial_budget" yaml:"initial_budget"`
	MinBet        decimal.Decimal `json:"min_bet"        yaml:"min_bet"`
	BetStep       decimal.Decimal `json:"bet_step"       yaml:"bet_step"`
	Policy        string          `json:"payout_policy"  yaml:"payout_policy"`
}

// SummaryOf 由設定產生摘要
func SummaryOf(ss *spec.ScriptSetting) Summary {
	return Summary{
		Name:          ss.Name,
		Description:   ss.Description,
		TotalBets:     ss.Session.TotalBets,
		PhaseLength:   ss.Session.PhaseLength,
		InitialBudget: ss.Session.InitialBudget,
		MinBet:        ss.Session.MinBet,
		BetStep:       ss.Session.BetStep,
		Policy:        ss.Payout.Policy.String(),
	}
}

type Catalog struct {
	byName map[string]Entry
	names  []string            // 用來穩定排序
	unique map[string]struct{} // 一組腳本，檔名需唯一
	config *multiFS
	frozen bool
}

func New(cfg ...fs.FS) (*Catalog, error) {
	multFS, err := newMultiFS(cfg...)
	if err != nil {
		return nil, errs.Wrap(err, "can not create catalog")
	}
	return &Catalog{
		byName: map[string]Entry{},
		names:  make([]string, 0, 16),
		unique: map[string]struct{}{},
		config: multFS,
	}, nil
}

// Register 全部檢查通過才寫入
func (c *Catalog) Register(metas ...Entry) error {
	if c.frozen {
		return errs.NewWarn("can not register when catalog already frozen")
	}
	seenName := map[string]struct{}{}
	seenCfg := map[string]struct{}{}
	for i := range metas {
		meta := &metas[i]
		meta.Name = normalizeName(meta.Name)
		if meta.Name == "" {
			return errs.NewFatal("script name required")
		}
		if err := validFileName(meta.ConfigName); err != nil {
			return err
		}
		if _, ok := c.config.GetFS(meta.ConfigName); !ok {
			return errs.NewFatal(fmt.Sprintf("config file not found: %s", meta.ConfigName))
		}
		if _, ok := c.byName[meta.Name]; ok {
			return ErrDupName
		}
		if _, ok := seenName[meta.Name]; ok {
			return ErrDupName
		}
		if _, ok := c.unique[meta.ConfigName]; ok {
			return ErrDupConfig
		}
		if _, ok := seenCfg[meta.ConfigName]; ok {
			return ErrDupConfig
		}
		seenName[meta.Name] = struct{}{}
		seenCfg[meta.ConfigName] = struct{}{}
	}
	for _, meta := range metas {
		c.unique[meta.ConfigName] = struct{}{}
		c.byName[meta.Name] = meta
		c.names = append(c.names, meta.Name)
	}
	sort.Strings(c.names)
	return nil
}

func (c *Catalog) GetByName(name string) (Entry, bool) {
	m, ok := c.byName[normalizeName(name)]
	return m, ok
}

func (c *Catalog) Names() []string {
	if len(c.names) == 0 {
		return nil
	}
	return append([]string(nil), c.names...)
}

func (c *Catalog) All() []Entry {
	m := make([]Entry, 0, len(c.names))
	for _, n := range c.names {
		m = append(m, c.byName[n])
	}
	return m
}

func (c *Catalog) Cfg() *multiFS {
	return c.config
}

func (c *Catalog) Freeze() {
	c.frozen = true
}

func (c *Catalog) IsFrozen() bool {
	return c.frozen
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func validFileName(file string) error {
	if file == "" {
		return errs.NewFatal("empty config filename")
	}
	// 1) 不能包含路徑字元
	if strings.ContainsAny(file, `/\:`) {
		return errs.NewFatal(fmt.Sprintf("invalid config filename: %q (must be a basename)", file))
	}
	// 2) 必須以 .yaml/.yml/.json 結尾（大小寫不敏感）
	if !isConfigFile(file) {
		return errs.NewFatal(fmt.Sprintf("invalid config filename: %q (must end with .yaml, .yml, or .json)", file))
	}
	// 3) 不能以 . 開頭
	if strings.HasPrefix(file, ".") {
		return errs.NewFatal(fmt.Sprintf("invalid config filename: %q (cannot start with '.')", file))
	}
	return nil
}

func isConfigFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml", ".json":
		return true
	}
	return false
}

// ParseByExt 依副檔名選擇解析器
func ParseByExt(filename string, raw []byte) (*spec.ScriptSetting, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		return spec.GetScriptSettingByYAML(raw)
	case ".json":
		return spec.GetScriptSettingByJSON(raw)
	default:
		return nil, errs.NewFatal(fmt.Sprintf("unsupported config format: %q", filename))
	}
}

// ScriptSettingByName
//
// 會讀取 fs 中的 YAML/JSON 設定、初始化各子設定並執行基本檢查後回傳
func (c *Catalog) ScriptSettingByName(name string) (*spec.ScriptSetting, error) {
	e, ok := c.GetByName(name)
	if !ok {
		return nil, errs.Kindf(errs.KindNotFound, "script %q does not exist in catalog", name)
	}
	src, ok := c.config.GetFS(e.ConfigName)
	if !ok {
		return nil, errs.Kindf(errs.KindNotFound, "config %q does not exist in catalog", e.ConfigName)
	}
	raw, err := fs.ReadFile(src, e.ConfigName)
	if err != nil {
		return nil, errs.Wrap(err, "catalog read file error")
	}
	return ParseByExt(e.ConfigName, raw)
}
