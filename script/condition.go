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
	"strings"
	"sync"

	"github.com/zintix-labs/scriptlab/errs"
)

// Condition 實驗條件，只影響 DURING phase 使用哪張表與漂移比例
type Condition uint8

const (
	Equal Condition = iota
	Win
	Lose
)

// Conditions 依 sweep 的執行順序列出所有條件
var Conditions = [...]Condition{Equal, Win, Lose}

var conditionMap = map[string]Condition{
	"E":     Equal,
	"EQUAL": Equal,
	"W":     Win,
	"WIN":   Win,
	"L":     Lose,
	"LOSE":  Lose,
}

// ParseCondition 邊界上唯一的字串轉換點，不分大小寫並忽略前後空白
func ParseCondition(s string) (Condition, error) {
	if c, ok := conditionMap[strings.ToUpper(strings.TrimSpace(s))]; ok {
		return c, nil
	}
	return Equal, errs.Kindf(errs.KindInvalidCondition, "invalid condition %q (want E/W/L or EQUAL/WIN/LOSE)", s)
}

func (c Condition) Valid() bool { return c <= Lose }

func (c Condition) String() string {
	switch c {
	case Equal:
		return "EQUAL"
	case Win:
		return "WIN"
	case Lose:
		return "LOSE"
	default:
		return "UNKNOWN"
	}
}

func (c Condition) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

func (c *Condition) UnmarshalText(b []byte) error {
	v, err := ParseCondition(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// ConditionController 唯一被授權安裝條件的入口。
//
// 一般 session 只呼叫一次 Set；TEST sweep 會以 Apply 依序切換每個條件。
// 讀取端透過 Current 取得值後以參數傳入引擎，引擎本身不持有條件。
type ConditionController struct {
	mu      sync.RWMutex
	cur     Condition
	set     bool
	changes int
}

func NewConditionController() *ConditionController {
	return &ConditionController{}
}

// Set 解析字串並安裝；解析失敗時不改變現有條件，呼叫端應重新提示
func (cc *ConditionController) Set(input string) (Condition, error) {
	c, err := ParseCondition(input)
	if err != nil {
		return c, err
	}
	return c, cc.Apply(c)
}

// Apply 安裝已解析的條件
func (cc *ConditionController) Apply(c Condition) error {
	if !c.Valid() {
		return errs.Kindf(errs.KindInvalidCondition, "invalid condition value %d", c)
	}
	cc.mu.Lock()
	cc.cur = c
	cc.set = true
	cc.changes++
	cc.mu.Unlock()
	return nil
}

// Current 回傳目前條件；尚未安裝時 ok 為 false
func (cc *ConditionController) Current() (Condition, bool) {
	cc.mu.RLock()
	defer cc.mu.RUnlock()
	return cc.cur, cc.set
}

// Changes 安裝次數
func (cc *ConditionController) Changes() int {
	cc.mu.RLock()
	defer cc.mu.RUnlock()
	return cc.changes
}
