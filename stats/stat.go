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

package stats

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var lang language.Tag = language.English

// PhaseLabels 報表中 phase 的欄位順序
var PhaseLabels = [3]string{"BEFORE", "DURING", "AFTER"}

// 信賴區間
type CI struct {
	Lo float64 `json:"Lo"`
	Hi float64 `json:"Hi"`
}

// PointStat 點估計 回傳 估計值 以及信賴區間
type PointStat struct {
	Hat float64 `json:"Hat"`
	CI  CI      `json:"CI"`
}

// Moments 平均、標準差與平均數的 95% CI（Student-t）
type Moments struct {
	Mean   float64 `json:"Mean"`
	Std    float64 `json:"Std"`
	MeanCI CI      `json:"MeanCI"`
	Min    float64 `json:"Min"`
	Median float64 `json:"Median"`
	Max    float64 `json:"Max"`
}

// PlayerReport 單一模擬受試者的結果
//
// 金額以 float64 保存，只作統計用途；精確帳務在 session 內以 decimal 進行。
type PlayerReport struct {
	Condition   string     `json:"Condition"`
	InitBalance float64    `json:"InitBalance"`
	Balance     float64    `json:"Balance"`
	MaxBalance  float64    `json:"MaxBalance"`
	MinBalance  float64    `json:"MinBalance"`
	PhaseStart  [3]float64 `json:"PhaseStart"`
	PhaseEnd    [3]float64 `json:"PhaseEnd"`
	PhaseDone   [3]bool    `json:"-"` // 該 phase 是否完整走完
	Bets        int        `json:"Bets"`
	Wins        int        `json:"Wins"`
	Floors      int        `json:"Floors"`
	Bust        bool       `json:"Bust"`
	Violations  []string   `json:"Violations,omitempty"`
}

// PhaseDelta phase 結束餘額減去開始餘額；未走完的 phase 回傳 false
func (p *PlayerReport) PhaseDelta(i int) (float64, bool) {
	if i < 0 || i >= len(p.PhaseDone) || !p.PhaseDone[i] {
		return 0, false
	}
	return p.PhaseEnd[i] - p.PhaseStart[i], true
}

// ConditionReport 單一條件下所有受試者的彙總
type ConditionReport struct {
	Condition  string     `json:"Condition"`
	Players    int        `json:"Players"`
	EndBalance Moments    `json:"EndBalance"`
	PhaseDelta [3]Moments `json:"PhaseDelta"`
	Completed  PointStat  `json:"Completed"` // 走完全部下注的比例
	Bust       PointStat  `json:"Bust"`
	WinRate    float64    `json:"WinRate"`
	FloorHits  int        `json:"FloorHits"`
	Violations int        `json:"Violations"`
}

// SweepReport TEST 模式報表：依序包含每個條件
type SweepReport struct {
	Script      string             `json:"Script"`
	Seed        int64              `json:"Seed"`
	InitBalance float64            `json:"InitBalance"`
	TotalBets   int                `json:"TotalBets"`
	Conditions  []*ConditionReport `json:"Conditions"`
}

// Sessions 報表內模擬的總 session 數
func (r *SweepReport) Sessions() int {
	n := 0
	for _, c := range r.Conditions {
		n += c.Players
	}
	return n
}

// Violations 所有條件的違規總數；正確的腳本應為 0
func (r *SweepReport) Violations() int {
	n := 0
	for _, c := range r.Conditions {
		n += c.Violations
	}
	return n
}

func (r *SweepReport) WriteWith(w io.Writer, rep SweepReportRender) error {
	return rep.Write(w, r)
}

// StdOut 以表格印出每個條件
func (r *SweepReport) StdOut(ut time.Duration) {
	fmt.Print(r.Table(ut))
}

// Table 與 StdOut 相同內容，回傳字串
func (r *SweepReport) Table(ut time.Duration) string {
	var sb strings.Builder
	sb.WriteString(formatDuration(ut, r.Sessions()))
	for _, c := range r.Conditions {
		keys, msg := c.fmtBasic()
		sb.WriteString(fmtTable(r.Script+" / "+c.Condition, keys, msg))
	}
	return sb.String()
}

// ============================================================
// ** 內部方法 **
// ============================================================

func formatDuration(d time.Duration, sessions int) string {
	p := message.NewPrinter(lang)
	if d < 0 {
		d = -d
	}
	sec := d.Seconds()
	if sec <= 0 {
		sec = 1e-9
	}
	sps := int(float64(sessions) / sec)
	if sec < 60.0 {
		return p.Sprintf("used: %.2f seconds\nsps : %d sessions/sec\n", sec, sps)
	}
	s := int(d.Seconds()) % 60
	m := int(d.Minutes()) % 60
	h := int(d.Hours())
	if h == 0 {
		return p.Sprintf("used: %dm %ds\nsps : %d sessions/sec\n", m, s, sps)
	}
	return p.Sprintf("used: %dh:%dm:%ds\nsps : %d sessions/sec\n", h, m, s, sps)
}

func (c *ConditionReport) fmtBasic() ([]string, map[string]string) {
	p := message.NewPrinter(lang)
	basic := map[string]string{
		"Condition":   c.Condition,
		"Players":     p.Sprintf("%d", c.Players),
		"End Balance": fmtMoments(p, c.EndBalance),
		"Completed":   fmtHatCIpct01(p, c.Completed),
		"Bust Rate":   fmtHatCIpct01(p, c.Bust),
		"Win Rate":    p.Sprintf("%.2f %%", 100.0*c.WinRate),
		"Floor Hits":  p.Sprintf("%d", c.FloorHits),
		"Violations":  p.Sprintf("%d", c.Violations),
	}
	keys := []string{"Condition", "Players", "End Balance"}
	for i, l := range PhaseLabels {
		k := "Δ " + l
		basic[k] = fmtMoments(p, c.PhaseDelta[i])
		keys = append(keys, k)
	}
	keys = append(keys, "Completed", "Bust Rate", "Win Rate", "Floor Hits", "Violations")
	return keys, basic
}

func fmtMoments(p *message.Printer, m Moments) string {
	return p.Sprintf("%.2f ± %.2f [%.2f, %.2f]", m.Mean, m.Std, m.MeanCI.Lo, m.MeanCI.Hi)
}

func fmtHatCIpct01(p *message.Printer, s PointStat) string {
	return p.Sprintf("%.2f%% [%.2f%%, %.2f%%]", 100*s.Hat, 100*s.CI.Lo, 100*s.CI.Hi)
}

func fmtTable(title string, keys []string, msg map[string]string) string {
	p := message.NewPrinter(lang)
	maxKeyLen := 0
	maxValLen := 0
	for k, m := range msg {
		if w := runewidth.StringWidth(k); w > maxKeyLen {
			maxKeyLen = w
		}
		if w := runewidth.StringWidth(m); w > maxValLen {
			maxValLen = w
		}
	}
	maxKeyLen += 2
	maxValLen += 2

	divider := "+" + strings.Repeat("-", maxKeyLen) + "+" + strings.Repeat("-", maxValLen) + "+\n"
	top := "+" + strings.Repeat("-", maxKeyLen+1+maxValLen) + "+\n"

	totalInner := maxKeyLen + maxValLen + 1
	titleW := runewidth.StringWidth(title)
	if titleW > totalInner {
		title = runewidth.Truncate(title, totalInner, "…")
		titleW = runewidth.StringWidth(title)
	}

	left := (totalInner - titleW) / 2
	right := totalInner - titleW - left

	fmtStr := top
	fmtStr += p.Sprintf("|%s%s%s|\n", blank(left), title, blank(right))
	fmtStr += divider
	for _, k := range keys {
		fmtStr += p.Sprintf("| %s%s | %s%s |\n", k, blank(maxKeyLen-2-runewidth.StringWidth(k)), msg[k], blank(maxValLen-2-runewidth.StringWidth(msg[k])))
	}
	fmtStr += divider

	return fmtStr
}

func blank(w int) string {
	if w < 1 {
		return ""
	}
	return strings.Repeat(" ", w)
}
