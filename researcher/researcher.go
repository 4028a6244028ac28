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

// Package researcher 研究者端的條件選擇提示。
//
// 研究者在受試者入座前輸入條件；輸入無效時重新提示，直到取得有效條件或 TEST。
package researcher

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/zintix-labs/scriptlab/errs"
	"github.com/zintix-labs/scriptlab/script"
)

// PromptText 每次提示的文字
const PromptText = "Condition [E]qual / [W]in / [L]ose, or TEST: "

// Selection 研究者的選擇；TestMode 為 true 時 Condition 無意義
type Selection struct {
	Condition script.Condition
	TestMode  bool
}

// Prompt 自 in 逐行讀取，寫提示到 out。
// 條件透過 ConditionController 安裝；TEST 不安裝任何條件。
// 取得有效輸入前遇到 EOF 回傳錯誤。
func Prompt(in io.Reader, out io.Writer, cc *script.ConditionController) (Selection, error) {
	return PromptScanner(bufio.NewScanner(in), out, cc)
}

// PromptScanner 與 Prompt 相同，但沿用呼叫端的 Scanner（CLI 之後還要從同一個 stdin 讀下注）
func PromptScanner(sc *bufio.Scanner, out io.Writer, cc *script.ConditionController) (Selection, error) {
	if cc == nil {
		cc = script.NewConditionController()
	}
	for {
		fmt.Fprint(out, PromptText)
		if !sc.Scan() {
			if err := sc.Err(); err != nil {
				return Selection{}, errs.Wrap(err, "read researcher input failed")
			}
			return Selection{}, errs.NewWarn("input closed before a condition was selected")
		}
		line := strings.TrimSpace(sc.Text())
		if strings.EqualFold(line, "TEST") {
			return Selection{TestMode: true}, nil
		}
		c, err := cc.Set(line)
		if err != nil {
			fmt.Fprintf(out, "invalid condition %q, try again\n", line)
			continue
		}
		return Selection{Condition: c}, nil
	}
}
