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

package redeem

import (
	"testing"
	"testing/fstest"

	"github.com/shopspring/decimal"
	"github.com/zintix-labs/scriptlab/demo/demo_redeem"
	"github.com/zintix-labs/scriptlab/errs"
)

func TestRedeemOnce(t *testing.T) {
	b, err := Parse([]byte(`{" bonus10 ": 10, "FIVE": 5.5}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	v, err := b.Redeem("Bonus10")
	if err != nil || !v.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("expected 10, got %s (%v)", v, err)
	}
	v, err = b.Redeem("BONUS10")
	if err == nil || !v.IsZero() {
		t.Fatalf("second use must fail, got %s", v)
	}
	if errs.IsFatal(err) {
		t.Fatalf("used code must be a warning")
	}
	if _, err := b.Redeem("nope"); err == nil {
		t.Fatalf("unknown code must fail")
	}
	if b.Remaining() != 1 {
		t.Fatalf("expected 1 remaining, got %d", b.Remaining())
	}
}

func TestParseRejects(t *testing.T) {
	for _, raw := range []string{`[]`, `{"A": -1}`, `{"A": 1.234}`, `{"a": 1, "A ": 2}`, `{" ": 1}`} {
		if _, err := Parse([]byte(raw)); err == nil {
			t.Fatalf("expected error for %s", raw)
		}
	}
}

func TestLoad(t *testing.T) {
	if _, err := Load(fstest.MapFS{}, DefaultFile); err == nil {
		t.Fatalf("expected missing file error")
	}
	b, err := Load(demo_redeem.FS, DefaultFile)
	if err != nil {
		t.Fatalf("load demo codes: %v", err)
	}
	if b.Remaining() == 0 {
		t.Fatalf("demo codes must not be empty")
	}
}
