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

package recorder_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/zintix-labs/scriptlab/recorder"
	"github.com/zintix-labs/scriptlab/script"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestNewSessionRecorderValidation(t *testing.T) {
	if _, err := recorder.NewSessionRecorder(script.Condition(9), 3, d("100")); err == nil {
		t.Fatalf("invalid condition should fail")
	}
	if _, err := recorder.NewSessionRecorder(script.Equal, 0, d("100")); err == nil {
		t.Fatalf("zero phase length should fail")
	}
	if _, err := recorder.NewSessionRecorder(script.Equal, 3, d("0")); err == nil {
		t.Fatalf("zero init balance should fail")
	}
}

// phase length 2：L 然後 W 回到起點
func TestFlatPhaseNoViolation(t *testing.T) {
	r, err := recorder.NewSessionRecorder(script.Equal, 2, d("100"))
	if err != nil {
		t.Fatalf("new recorder: %v", err)
	}
	for _, p := range script.Phases {
		r.Record(recorder.Spin{Phase: p, Within: 1, Bet: d("1"), Reward: d("0"), Balance: d("99")})
		r.Record(recorder.Spin{Phase: p, Within: 2, Win: true, Bet: d("1"), Reward: d("2"), Balance: d("100")})
	}
	if v := r.Violations(); len(v) != 0 {
		t.Fatalf("want no violations, got %v", v)
	}
	rep := r.Done()
	if rep.Bets != 6 || rep.Wins != 3 {
		t.Fatalf("bets/wins mismatch: %d/%d", rep.Bets, rep.Wins)
	}
	if rep.MinBalance != 99 || rep.MaxBalance != 100 || rep.Balance != 100 {
		t.Fatalf("balance tracking mismatch: %+v", rep)
	}
	for i := range rep.PhaseDone {
		if delta, ok := rep.PhaseDelta(i); !ok || delta != 0 {
			t.Fatalf("phase %d delta want 0, got %v %v", i, delta, ok)
		}
	}
	if rep.Condition != "EQUAL" {
		t.Fatalf("condition label mismatch: %s", rep.Condition)
	}
}

func TestFlatPhaseDriftIsViolation(t *testing.T) {
	r, _ := recorder.NewSessionRecorder(script.Win, 1, d("100"))
	r.Record(recorder.Spin{Phase: script.Before, Within: 1, Bet: d("1"), Reward: d("0"), Balance: d("99")})
	if len(r.Violations()) != 1 {
		t.Fatalf("before phase drift should be flagged, got %v", r.Violations())
	}
}

func TestDuringDirection(t *testing.T) {
	cases := []struct {
		cond    script.Condition
		balance string
		reward  string
		bad     bool
	}{
		{script.Win, "110", "11", false},
		{script.Win, "99", "0", true},
		{script.Lose, "99", "0", false},
		{script.Lose, "110", "11", true},
	}
	for _, c := range cases {
		r, _ := recorder.NewSessionRecorder(c.cond, 1, d("100"))
		win := !d(c.reward).IsZero()
		r.Record(recorder.Spin{Phase: script.During, Within: 1, Win: win, Bet: d("1"), Reward: d(c.reward), Balance: d(c.balance)})
		if got := len(r.Violations()) > 0; got != c.bad {
			t.Fatalf("%s end %s: violation=%v want %v (%v)", c.cond, c.balance, got, c.bad, r.Violations())
		}
	}
}

func TestBalanceMismatchAndPaidLoss(t *testing.T) {
	r, _ := recorder.NewSessionRecorder(script.Equal, 5, d("100"))
	r.Record(recorder.Spin{Phase: script.Before, Within: 1, Bet: d("1"), Reward: d("0"), Balance: d("98")})
	r.Record(recorder.Spin{Phase: script.Before, Within: 2, Bet: d("1"), Reward: d("1"), Balance: d("98")})
	if len(r.Violations()) != 2 {
		t.Fatalf("want 2 violations, got %v", r.Violations())
	}
}

func TestBustLeavesPhasesOpen(t *testing.T) {
	r, _ := recorder.NewSessionRecorder(script.Lose, 3, d("1"))
	r.Record(recorder.Spin{Phase: script.Before, Within: 1, Bet: d("1"), Reward: d("0"), Balance: d("0")})
	r.Bust()
	rep := r.Done()
	if !rep.Bust || rep.PhaseDone[0] {
		t.Fatalf("bust report mismatch: %+v", rep)
	}
	if len(rep.Violations) != 0 {
		t.Fatalf("unfinished phase should not be checked: %v", rep.Violations)
	}
}
