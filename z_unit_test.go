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

package scriptlab

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/zintix-labs/scriptlab/demo/demo_configs"
	"github.com/zintix-labs/scriptlab/demo/demo_redeem"
	"github.com/zintix-labs/scriptlab/errs"
	"github.com/zintix-labs/scriptlab/metrics"
	"github.com/zintix-labs/scriptlab/redeem"
	"github.com/zintix-labs/scriptlab/script"
	"github.com/zintix-labs/scriptlab/sdk/core"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newTestLab(t *testing.T) *Lab {
	t.Helper()
	lab, err := NewAuto(core.Default(), Configs(demo_configs.FS))
	if err != nil {
		t.Fatalf("new lab: %v", err)
	}
	return lab
}

type memObserver struct {
	mu   sync.Mutex
	recs []metrics.Record
}

func (m *memObserver) Observe(r metrics.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recs = append(m.recs, r)
	return nil
}

func (m *memObserver) events() []metrics.EventType {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]metrics.EventType, len(m.recs))
	for i, r := range m.recs {
		out[i] = r.Event
	}
	return out
}

func TestLabRegistersDemo(t *testing.T) {
	lab := newTestLab(t)
	names := lab.Names()
	if len(names) != 1 || names[0] != "experiment" {
		t.Fatalf("unexpected names: %v", names)
	}
	sum, err := lab.Summary()
	if err != nil || len(sum) != 1 || sum[0].TotalBets != 60 {
		t.Fatalf("unexpected summary: %+v %v", sum, err)
	}
	if _, err := lab.NewSession("missing", script.Equal); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("unknown script should be NotFound, got %v", err)
	}
	if err := lab.RegisterAll(); err == nil {
		t.Fatalf("register after freeze should fail")
	}
}

// 固定下注 1.00：BEFORE/AFTER 與 EQUAL 維持起點，WIN 以 +80% 結束，LOSE 結束低於起點
func TestSessionTrajectory(t *testing.T) {
	lab := newTestLab(t)
	cases := []struct {
		cond                script.Condition
		before, during, fin string
	}{
		{script.Equal, "100.00", "100.00", "100.00"},
		{script.Win, "100.00", "180.00", "180.00"},
		{script.Lose, "100.00", "83.00", "83.00"},
	}
	for _, c := range cases {
		s, err := lab.NewSessionWithSeed("experiment", c.cond, 7)
		if err != nil {
			t.Fatalf("new session: %v", err)
		}
		var ends []decimal.Decimal
		for i := 1; i <= 60; i++ {
			res, err := s.Spin(d("1"))
			if err != nil {
				t.Fatalf("%s bet %d: %v", c.cond, i, err)
			}
			if !res.Gain.Equal(res.Reward.Sub(res.Bet)) {
				t.Fatalf("gain mismatch at bet %d", i)
			}
			if !res.Win && (!res.Reward.IsZero() || res.Occurrences != 0) {
				t.Fatalf("loss must pay 0 and show no match: %+v", res)
			}
			if res.Win && res.Occurrences < 2 {
				t.Fatalf("win must show a pair or triple: %+v", res)
			}
			if i%20 == 0 {
				ends = append(ends, res.Balance)
			}
			if res.Finished != (i == 60) {
				t.Fatalf("finished flag wrong at bet %d", i)
			}
		}
		for i, want := range []string{c.before, c.during, c.fin} {
			if !ends[i].Equal(d(want)) {
				t.Fatalf("%s phase %d end: got %s want %s", c.cond, i, ends[i].StringFixed(2), want)
			}
		}
		if _, err := s.Spin(d("1")); !errors.Is(err, errs.ErrSessionDone) {
			t.Fatalf("spin after finish should be SessionDone, got %v", err)
		}
	}
}

func TestSpinValidation(t *testing.T) {
	lab := newTestLab(t)
	s, err := lab.NewSessionWithSeed("experiment", script.Equal, 1)
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	for _, bet := range []string{"0", "-1", "0.001", "0.05", "0.15", "100.10"} {
		if _, err := s.Spin(d(bet)); !errors.Is(err, errs.ErrInvalidBet) {
			t.Fatalf("bet %s should be InvalidBet, got %v", bet, err)
		}
	}
	st := s.State()
	if st.BetsPlaced != 0 || !st.Balance.Equal(d("100")) {
		t.Fatalf("rejected bets must not change state: %+v", st)
	}
	if _, err := s.Spin(d("100")); err != nil {
		t.Fatalf("betting the whole balance is allowed: %v", err)
	}
}

func TestInvalidCondition(t *testing.T) {
	lab := newTestLab(t)
	_, err := lab.NewSessionWithSeed("experiment", script.Condition(7), 1)
	if !errors.Is(err, errs.ErrInvalidCondition) {
		t.Fatalf("want InvalidCondition, got %v", err)
	}
}

func TestSeedReproducesSymbols(t *testing.T) {
	lab := newTestLab(t)
	a, _ := lab.NewSessionWithSeed("experiment", script.Win, 99)
	b, _ := lab.NewSessionWithSeed("experiment", script.Win, 99)
	for i := 0; i < 60; i++ {
		ra, err := a.Spin(d("0.50"))
		if err != nil {
			t.Fatalf("spin a: %v", err)
		}
		rb, err := b.Spin(d("0.50"))
		if err != nil {
			t.Fatalf("spin b: %v", err)
		}
		if ra.Reels != rb.Reels || !ra.Balance.Equal(rb.Balance) {
			t.Fatalf("bet %d differs: %v vs %v", i+1, ra.Reels, rb.Reels)
		}
	}
}

func TestObserverEvents(t *testing.T) {
	lab := newTestLab(t)
	obs := &memObserver{}
	s, err := lab.NewSessionWithSeed("experiment", script.Lose, 3, WithObserver(obs), WithID("p-01"))
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	if s.ID() != "p-01" {
		t.Fatalf("id option ignored: %s", s.ID())
	}
	if _, err := s.Spin(d("1")); err != nil {
		t.Fatalf("spin: %v", err)
	}
	s.StartMetrics()
	s.StartMetrics()
	if _, err := s.Spin(d("1")); err != nil {
		t.Fatalf("spin: %v", err)
	}
	if err := s.Message("break"); err != nil {
		t.Fatalf("message: %v", err)
	}
	s.End()
	s.End()

	want := []metrics.EventType{metrics.SessionStart, metrics.Bet, metrics.StartMetrics, metrics.Bet, metrics.Message, metrics.SessionEnd}
	got := obs.events()
	if len(got) != len(want) {
		t.Fatalf("events: got %v want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("event %d: got %s want %s", i, got[i], want[i])
		}
	}
	bet := obs.recs[3]
	if bet.Session != "p-01" || bet.BetNumber != 2 || bet.Condition != "LOSE" || bet.Result == nil || !bet.Result.Equal(d("-1")) {
		t.Fatalf("bet record mismatch: %+v", bet)
	}
}

func TestMetricsLoggerFiltersBeforeStart(t *testing.T) {
	lab := newTestLab(t)
	obs := &memObserver{}
	ml := metrics.New(sinkFunc(func(r metrics.Record) error { return obs.Observe(r) }))
	s, _ := lab.NewSessionWithSeed("experiment", script.Equal, 3, WithObserver(ml))
	s.Spin(d("1"))
	s.StartMetrics()
	s.Spin(d("1"))
	s.End()
	got := obs.events()
	want := []metrics.EventType{metrics.SessionStart, metrics.StartMetrics, metrics.Bet, metrics.SessionEnd}
	if len(got) != len(want) {
		t.Fatalf("events: got %v want %v", got, want)
	}
}

type sinkFunc func(metrics.Record) error

func (f sinkFunc) Write(r metrics.Record) error { return f(r) }
func (f sinkFunc) Close() error                 { return nil }

func TestRedeem(t *testing.T) {
	lab := newTestLab(t)
	plain, _ := lab.NewSessionWithSeed("experiment", script.Equal, 1)
	if _, err := plain.Redeem("WELCOME10"); err == nil {
		t.Fatalf("redeem without a book should fail")
	}

	book, err := redeem.Load(demo_redeem.FS, redeem.DefaultFile)
	if err != nil {
		t.Fatalf("load book: %v", err)
	}
	s, _ := lab.NewSessionWithSeed("experiment", script.Equal, 1, WithRedeemBook(book))
	v, err := s.Redeem(" welcome10 ")
	if err != nil || !v.Equal(d("10")) {
		t.Fatalf("redeem: %v %v", v, err)
	}
	if !s.Balance().Equal(d("110")) {
		t.Fatalf("balance want 110, got %s", s.Balance())
	}
	if _, err := s.Redeem("WELCOME10"); err == nil {
		t.Fatalf("second redeem should fail")
	}
	if _, err := s.Redeem("NOPE"); err == nil {
		t.Fatalf("unknown code should fail")
	}
	if !s.Balance().Equal(d("110")) {
		t.Fatalf("failed redeem must not change balance")
	}
	s.End()
	if err := s.Credit(d("1"), "late"); !errors.Is(err, errs.ErrSessionDone) {
		t.Fatalf("credit after end should be SessionDone, got %v", err)
	}
}

func TestRedeemAfterEndKeepsCode(t *testing.T) {
	lab := newTestLab(t)
	book, err := redeem.Load(demo_redeem.FS, redeem.DefaultFile)
	if err != nil {
		t.Fatalf("load book: %v", err)
	}
	before := book.Remaining()
	done, _ := lab.NewSessionWithSeed("experiment", script.Equal, 1, WithRedeemBook(book))
	done.End()
	if _, err := done.Redeem("WELCOME10"); !errors.Is(err, errs.ErrSessionDone) {
		t.Fatalf("redeem after end should be SessionDone, got %v", err)
	}
	if book.Remaining() != before {
		t.Fatalf("finished session consumed a code: remaining %d want %d", book.Remaining(), before)
	}
	if !done.Balance().Equal(d("100")) {
		t.Fatalf("finished session balance changed: %s", done.Balance())
	}

	live, _ := lab.NewSessionWithSeed("experiment", script.Equal, 1, WithRedeemBook(book))
	if _, err := live.Redeem("WELCOME10"); err != nil {
		t.Fatalf("code should still be usable: %v", err)
	}
	if !live.Balance().Equal(d("110")) {
		t.Fatalf("balance want 110, got %s", live.Balance())
	}
}

func TestMessageAfterEnd(t *testing.T) {
	lab := newTestLab(t)
	obs := &memObserver{}
	s, _ := lab.NewSessionWithSeed("experiment", script.Equal, 1, WithObserver(obs))
	if err := s.Message("before"); err != nil {
		t.Fatalf("message: %v", err)
	}
	s.End()
	if err := s.Message("after"); !errors.Is(err, errs.ErrSessionDone) {
		t.Fatalf("message after end should be SessionDone, got %v", err)
	}
	got := obs.events()
	if got[len(got)-1] != metrics.SessionEnd {
		t.Fatalf("SESSION_END must stay the last record, got %v", got)
	}
	n := 0
	for _, e := range got {
		if e == metrics.Message {
			n++
		}
	}
	if n != 1 {
		t.Fatalf("want 1 MESSAGE record, got %d", n)
	}
}

func TestSessionRuntimeReleasesFinished(t *testing.T) {
	lab := newTestLab(t)
	rt, err := lab.BuildRuntime(1)
	if err != nil {
		t.Fatalf("build runtime: %v", err)
	}
	ctx := context.Background()
	a, err := rt.Create(ctx, "experiment", script.Equal)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := rt.Create(ctx, "experiment", script.Equal); err == nil {
		t.Fatalf("live session should hold the only slot")
	}
	for i := 0; i < 60; i++ {
		if _, err := a.Spin(d("1")); err != nil {
			t.Fatalf("spin %d: %v", i+1, err)
		}
	}
	if !a.Finished() {
		t.Fatalf("session should be finished after the last bet")
	}
	b, err := rt.Create(ctx, "experiment", script.Equal)
	if err != nil {
		t.Fatalf("finished session should release its slot: %v", err)
	}
	if rt.Len() != 1 {
		t.Fatalf("len want 1, got %d", rt.Len())
	}
	if _, err := rt.Get(ctx, a.ID()); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("released session should be gone, got %v", err)
	}
	if got, err := rt.Get(ctx, b.ID()); err != nil || got != b {
		t.Fatalf("get new session: %v", err)
	}
}

func TestSessionRuntime(t *testing.T) {
	lab := newTestLab(t)
	rt, err := lab.BuildRuntime(2)
	if err != nil {
		t.Fatalf("build runtime: %v", err)
	}
	obs := &memObserver{}
	rt.Use(WithObserver(obs))
	ctx := context.Background()

	a, err := rt.Create(ctx, "experiment", script.Win)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := rt.Create(ctx, "experiment", script.Lose); err != nil {
		t.Fatalf("create second: %v", err)
	}
	if _, err := rt.Create(ctx, "experiment", script.Equal); err == nil {
		t.Fatalf("limit should reject third session")
	}
	got, err := rt.Get(ctx, a.ID())
	if err != nil || got != a {
		t.Fatalf("get: %v", err)
	}
	if _, err := rt.Get(ctx, "nope"); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("missing id should be NotFound, got %v", err)
	}
	st, err := rt.End(ctx, a.ID())
	if err != nil || !st.Finished {
		t.Fatalf("end: %+v %v", st, err)
	}
	if rt.Len() != 1 {
		t.Fatalf("len want 1, got %d", rt.Len())
	}

	rt.Close()
	rt.Close()
	if !rt.Closed() || rt.ClosedReason() != "closed" {
		t.Fatalf("runtime should be closed")
	}
	if _, err := rt.Create(ctx, "experiment", script.Win); err == nil || !errs.IsFatal(err) {
		t.Fatalf("create after close should be fatal, got %v", err)
	}
	ends := 0
	for _, e := range obs.events() {
		if e == metrics.SessionEnd {
			ends++
		}
	}
	if ends != 2 {
		t.Fatalf("every session should end exactly once, got %d", ends)
	}

	cctx, cancel := context.WithCancel(ctx)
	cancel()
	rt2, _ := lab.BuildRuntime(0)
	if _, err := rt2.Get(cctx, "x"); !errors.Is(err, context.Canceled) || errs.IsFatal(err) {
		t.Fatalf("canceled context should be a warn error, got %v", err)
	}
}

func TestSweeperRun(t *testing.T) {
	lab := newTestLab(t)
	sw, err := lab.NewSweeper("experiment", 2026)
	if err != nil {
		t.Fatalf("new sweeper: %v", err)
	}
	rep, _, err := sw.Run(40, 4, false)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(rep.Conditions) != 3 || sw.Controller().Changes() != 3 {
		t.Fatalf("every condition should be swept once")
	}
	if rep.Violations() != 0 {
		t.Fatalf("scripted trajectories must hold, got %d violations", rep.Violations())
	}
	byCond := map[string]float64{}
	for _, c := range rep.Conditions {
		byCond[c.Condition] = c.PhaseDelta[1].Mean
		if c.Players != 40 || c.Bust.Hat != 0 {
			t.Fatalf("%s: players %d bust %v", c.Condition, c.Players, c.Bust.Hat)
		}
		if c.PhaseDelta[0].Mean != 0 || c.PhaseDelta[2].Mean != 0 {
			t.Fatalf("%s: flat phases drifted %+v", c.Condition, c.PhaseDelta)
		}
	}
	if byCond["EQUAL"] != 0 || byCond["WIN"] <= 79.99 || byCond["LOSE"] >= 0 {
		t.Fatalf("during deltas out of shape: %v", byCond)
	}

	again, _ := lab.NewSweeper("experiment", 2026)
	rep2, _, err := again.Run(40, 1, false)
	if err != nil {
		t.Fatalf("rerun: %v", err)
	}
	for i := range rep.Conditions {
		if rep.Conditions[i].EndBalance != rep2.Conditions[i].EndBalance {
			t.Fatalf("same seed should reproduce regardless of workers")
		}
	}

	if _, _, err := sw.Run(1, 0, false); err == nil {
		t.Fatalf("zero workers should fail")
	}
}

func TestSeedMakerDistinct(t *testing.T) {
	sm := newSeedMaker(1)
	seen := map[int64]bool{}
	for i := 0; i < 10000; i++ {
		v := sm.next()
		if v < 0 || seen[v] {
			t.Fatalf("seed %d repeated or negative at %d", v, i)
		}
		seen[v] = true
	}
}
