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

package payout

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/zintix-labs/scriptlab/errs"
	"github.com/zintix-labs/scriptlab/spec"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func demoSetting(mode spec.PayoutMode, tol string) *spec.PayoutSetting {
	pairs := []string{"1", "2", "3", "4", "5", "7", "8.5", "10", "12"}
	triples := []string{"15", "20", "30", "40", "50", "75", "100", "125", "150"}
	ps := &spec.PayoutSetting{Policy: mode, Tolerance: d(tol)}
	for i := 0; i < spec.SymbolCount; i++ {
		ps.Symbols = append(ps.Symbols, spec.PayoutSymbolSetting{
			Symbol: spec.Symbol(i), Pair: d(pairs[i]), Triple: d(triples[i]),
		})
	}
	return ps
}

func TestEntriesSorted(t *testing.T) {
	tb := New(demoSetting(spec.Nearest, "0"))
	es := tb.Entries()
	if len(es) != 18 {
		t.Fatalf("expected 18 entries, got %d", len(es))
	}
	for i := 1; i < len(es); i++ {
		if !es[i].Multiplier.GreaterThan(es[i-1].Multiplier) {
			t.Fatalf("entries not strictly increasing at %d", i)
		}
	}
	if !tb.MinMultiplier().Equal(d("1")) {
		t.Fatalf("unexpected min multiplier %s", tb.MinMultiplier())
	}
}

func TestResolveExact(t *testing.T) {
	tb := New(demoSetting(spec.Exact, "0"))
	e, err := tb.Resolve(d("8.5"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.Symbol != spec.Bell || e.Occurrences != 2 {
		t.Fatalf("unexpected entry %+v", e)
	}
	_, err = tb.Resolve(d("8.4999"))
	if !errors.Is(err, errs.ErrUnresolvablePayout) {
		t.Fatalf("expected unresolvable payout, got %v", err)
	}
}

func TestResolveNearestTie(t *testing.T) {
	tb := New(demoSetting(spec.Nearest, "0"))
	// 13.5 與 12、15 距離相同，取較低者
	e, err := tb.Resolve(d("13.5"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.Symbol != spec.Seven || e.Occurrences != 2 {
		t.Fatalf("expected seven pair, got %+v", e)
	}
	e, _ = tb.Resolve(d("13.5001"))
	if e.Symbol != spec.Lemon || e.Occurrences != 3 {
		t.Fatalf("expected lemon triple, got %+v", e)
	}
	e, _ = tb.Resolve(d("900"))
	if e.Symbol != spec.Seven || e.Occurrences != 3 {
		t.Fatalf("expected seven triple above table, got %+v", e)
	}
	e, _ = tb.Resolve(d("0.2"))
	if e.Symbol != spec.Lemon || e.Occurrences != 2 {
		t.Fatalf("expected lemon pair below table, got %+v", e)
	}
}

func TestResolveToleranceBoundary(t *testing.T) {
	tb := New(demoSetting(spec.Tolerance, "0.5"))
	if _, err := tb.Resolve(d("4.5")); err != nil {
		t.Fatalf("distance equal to tolerance must pass: %v", err)
	}
	if _, err := tb.Resolve(d("5.5001")); !errors.Is(err, errs.ErrUnresolvablePayout) {
		t.Fatalf("distance above tolerance must fail, got %v", err)
	}
	if _, err := tb.Resolve(decimal.Zero); err == nil {
		t.Fatalf("zero multiplier must fail")
	}
}

func TestForwardRoundTrip(t *testing.T) {
	tb := New(demoSetting(spec.Exact, "0"))
	for _, e := range tb.Entries() {
		var syms [3]spec.Symbol
		other := spec.Lemon
		if e.Symbol == spec.Lemon {
			other = spec.Grape
		}
		for i := range syms {
			syms[i] = e.Symbol
		}
		if e.Occurrences == 2 {
			syms[1] = other
		}
		if got := tb.Forward(syms); !got.Equal(e.Multiplier) {
			t.Fatalf("forward(%v) = %s, want %s", syms, got, e.Multiplier)
		}
	}
	if got := tb.Forward([3]spec.Symbol{spec.Lemon, spec.Bar, spec.Seven}); !got.IsZero() {
		t.Fatalf("distinct symbols must pay 0, got %s", got)
	}
}

func TestImplied(t *testing.T) {
	if got := Implied(d("4.00"), d("1.00")); !got.Equal(d("4")) {
		t.Fatalf("unexpected implied multiplier %s", got)
	}
	if got := Implied(d("1.00"), d("0.30")); !got.Equal(d("3.3333")) {
		t.Fatalf("unexpected implied multiplier %s", got)
	}
}
