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

package dto

import (
	"github.com/zintix-labs/scriptlab"
	"github.com/zintix-labs/scriptlab/catalog"
)

// 金額一律以兩位小數字串輸出，避免前端浮點誤差

// SessionCreated POST /v1/sessions 回應
type SessionCreated struct {
	ID          string `json:"id"`
	Script      string `json:"script"`
	Condition   string `json:"condition"`
	Balance     string `json:"balance"`
	TotalBets   int    `json:"total_bets"`
	PhaseLength int    `json:"phase_length"`
}

func NewSessionCreated(st scriptlab.State) SessionCreated {
	return SessionCreated{
		ID:          st.ID,
		Script:      st.Script,
		Condition:   st.Condition.String(),
		Balance:     st.Balance.StringFixed(2),
		TotalBets:   st.TotalBets,
		PhaseLength: st.PhaseLength,
	}
}

// SessionState GET /v1/sessions/{id} 回應
type SessionState struct {
	ID         string `json:"id"`
	Script     string `json:"script"`
	Condition  string `json:"condition"`
	Balance    string `json:"balance"`
	BetsPlaced int    `json:"bets_placed"`
	TotalBets  int    `json:"total_bets"`
	Finished   bool   `json:"finished"`
	Metrics    bool   `json:"metrics"`
	Failure    string `json:"failure,omitempty"`
}

func NewSessionState(st scriptlab.State) SessionState {
	return SessionState{
		ID:         st.ID,
		Script:     st.Script,
		Condition:  st.Condition.String(),
		Balance:    st.Balance.StringFixed(2),
		BetsPlaced: st.BetsPlaced,
		TotalBets:  st.TotalBets,
		Finished:   st.Finished,
		Metrics:    st.Metrics,
		Failure:    st.Failure,
	}
}

// SpinResult POST /v1/sessions/{id}/spin 回應
type SpinResult struct {
	BetIndex    int       `json:"bet_index"`            // 1-based 下注序號
	Phase       string    `json:"phase"`                // BEFORE / DURING / AFTER
	Win         bool      `json:"win"`                  // 本注是否為腳本中的勝局
	Bet         string    `json:"bet"`                  // 本次押注
	Reward      string    `json:"reward"`               // 回饋金額，輸局為 0.00
	Gain        string    `json:"gain"`                 // reward - bet
	Balance     string    `json:"balance"`              // 結算後餘額
	Symbols     [3]string `json:"symbols"`              // 三格圖標
	Multiplier  string    `json:"multiplier,omitempty"` // 顯示倍數
	Occurrences int       `json:"occurrences"`          // 0 / 2 / 3
	Finished    bool      `json:"finished"`             // 最後一注
}

func NewSpinResult(sr scriptlab.SpinResult) SpinResult {
	out := SpinResult{
		BetIndex:    sr.BetIndex,
		Phase:       sr.Phase.String(),
		Win:         sr.Win,
		Bet:         sr.Bet.StringFixed(2),
		Reward:      sr.Reward.StringFixed(2),
		Gain:        sr.Gain.StringFixed(2),
		Balance:     sr.Balance.StringFixed(2),
		Occurrences: sr.Occurrences,
		Finished:    sr.Finished,
	}
	for i, s := range sr.Reels {
		out.Symbols[i] = s.String()
	}
	if sr.Occurrences > 0 {
		out.Multiplier = sr.Multiplier.String()
	}
	return out
}

// RedeemResult POST /v1/sessions/{id}/redeem 回應
type RedeemResult struct {
	Credited string `json:"credited"`
	Balance  string `json:"balance"`
}

// ScriptList GET /v1/scripts 回應
type ScriptList struct {
	Scripts []ScriptSummary `json:"scripts"`
}

type ScriptSummary struct {
	Name          string `json:"name"`
	Description   string `json:"description,omitempty"`
	TotalBets     int    `json:"total_bets"`
	PhaseLength   int    `json:"phase_length"`
	InitialBudget string `json:"initial_budget"`
	MinBet        string `json:"min_bet"`
	BetStep       string `json:"bet_step"`
	Policy        string `json:"policy"`
}

func NewScriptList(sum []catalog.Summary) ScriptList {
	out := ScriptList{Scripts: make([]ScriptSummary, len(sum))}
	for i, s := range sum {
		out.Scripts[i] = ScriptSummary{
			Name:          s.Name,
			Description:   s.Description,
			TotalBets:     s.TotalBets,
			PhaseLength:   s.PhaseLength,
			InitialBudget: s.InitialBudget.StringFixed(2),
			MinBet:        s.MinBet.StringFixed(2),
			BetStep:       s.BetStep.StringFixed(2),
			Policy:        s.Policy,
		}
	}
	return out
}
