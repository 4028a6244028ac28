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
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/zintix-labs/scriptlab/demo/demo_configs"
	"github.com/zintix-labs/scriptlab/errs"
)

func loadDemo(t *testing.T) []byte {
	t.Helper()
	data, err := demo_configs.FS.ReadFile("experiment.yaml")
	if err != nil {
		t.Fatalf("read demo config: %v", err)
	}
	return data
}

func TestDemoSettingLoads(t *testing.T) {
	ss, err := GetScriptSettingByYAML(loadDemo(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ss.Session.TotalBets != 60 || ss.Session.PhaseLength != 20 {
		t.Fatalf("unexpected session: %+v", ss.Session)
	}
	if !ss.Session.InitialBudget.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("unexpected budget: %s", ss.Session.InitialBudget)
	}
	if got := ss.Outcomes.BeforeAfter.Wins(); got != 6 {
		t.Fatalf("expected 6 wins in before_after, got %d", got)
	}
	if got := ss.Outcomes.During.Win.Wins(); got != 16 {
		t.Fatalf("expected 16 wins in during.win, got %d", got)
	}
	if got := ss.Outcomes.During.Lose.Wins(); got != 3 {
		t.Fatalf("expected 3 wins in during.lose, got %d", got)
	}
	if ss.Payout.Policy != Nearest {
		t.Fatalf("expected nearest policy, got %s", ss.Payout.Policy)
	}
	if ss.Payout.Symbols[8].Symbol != Seven || !ss.Payout.Symbols[6].Pair.Equal(decimal.RequireFromString("8.5")) {
		t.Fatalf("unexpected payout table: %+v", ss.Payout.Symbols)
	}
}

func TestPatternWin(t *testing.T) {
	p := Pattern("LLLW")
	if !p.Win(4) || p.Win(1) || p.Win(0) || p.Win(5) {
		t.Fatalf("unexpected pattern lookups")
	}
}

func TestSettingRejects(t *testing.T) {
	base := string(loadDemo(t))
	cases := []struct {
		name string
		from string
		to   string
	}{
		{"short pattern", `before_after: "LLLW LLWL LLLW LLWW LLLW"`, `before_after: "LLLW"`},
		{"bad char", `before_after: "LLLW LLWL LLLW LLWW LLLW"`, `before_after: "LLLW LLWL LLLW LLWW LLLX"`},
		{"flat table ends with loss", `before_after: "LLLW LLWL LLLW LLWW LLLW"`, `before_after: "LLLW LLWL LLLW LLWW LLWL"`},
		{"total bets", "total_bets: 60", "total_bets: 59"},
		{"equal drift", "equal: 0\n", "equal: 0.1\n"},
		{"lose drift sign", "lose: -0.35", "lose: 0.35"},
		{"unknown field", "bet_step: 0.10", "bet_step: 0.10\n  max_bet: 5"},
		{"pair not monotonic", "pair: 8.5", "pair: 6"},
		{"bands overlap", "pair: 12,", "pair: 16,"},
		{"unknown policy", "policy: nearest", "policy: closest"},
		{"unknown symbol", "symbol: seven", "symbol: cat"},
	}
	for _, c := range cases {
		if !strings.Contains(base, c.from) {
			t.Fatalf("%s: fixture text %q not found", c.name, c.from)
		}
		data := strings.Replace(base, c.from, c.to, 1)
		_, err := GetScriptSettingByYAML([]byte(data))
		if err == nil {
			t.Fatalf("%s: expected error", c.name)
		}
		if !errors.Is(err, errs.ErrConfig) {
			t.Fatalf("%s: expected config kind, got %v", c.name, err)
		}
		if !errs.IsFatal(err) {
			t.Fatalf("%s: expected fatal, got %v", c.name, err)
		}
	}
}

func TestSettingJSON(t *testing.T) {
	ss, err := GetScriptSettingByYAML(loadDemo(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data := `{"name":"j","session":{"phase_length":2,"initial_budget":"10.00"},
		"outcomes":{"before_after":"LW","during":{"equal":"LW","win":"WW","lose":"WL"}},
		"drift":{"equal":0,"win":0.5,"lose":-0.2},
		"payout":{"symbols":`
	sym := make([]string, 0, SymbolCount)
	for _, s := range ss.Payout.Symbols {
		sym = append(sym, `{"symbol":"`+s.Symbol.String()+`","pair":"`+s.Pair.String()+`","triple":"`+s.Triple.String()+`"}`)
	}
	data += "[" + strings.Join(sym, ",") + "]}}"
	js, err := GetScriptSettingByJSON([]byte(data))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if js.Session.TotalBets != 6 {
		t.Fatalf("expected derived total_bets 6, got %d", js.Session.TotalBets)
	}
	if !js.Session.MinBet.Equal(decimal.RequireFromString("0.01")) {
		t.Fatalf("expected default min_bet 0.01, got %s", js.Session.MinBet)
	}
	if js.Sweep.Players != 1000 {
		t.Fatalf("expected default players, got %d", js.Sweep.Players)
	}
}

func TestParseSymbol(t *testing.T) {
	s, ok := ParseSymbol(" Seven ")
	if !ok || s != Seven || s.String() != "seven" {
		t.Fatalf("unexpected symbol %v %v", s, ok)
	}
	if _, ok := ParseSymbol("wild"); ok {
		t.Fatalf("expected failure")
	}
}
