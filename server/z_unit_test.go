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

package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/zintix-labs/scriptlab"
	"github.com/zintix-labs/scriptlab/demo/demo_configs"
	"github.com/zintix-labs/scriptlab/demo/demo_redeem"
	"github.com/zintix-labs/scriptlab/dto"
	"github.com/zintix-labs/scriptlab/metrics"
	"github.com/zintix-labs/scriptlab/redeem"
	"github.com/zintix-labs/scriptlab/sdk/core"
	"github.com/zintix-labs/scriptlab/server/httperr"
	"github.com/zintix-labs/scriptlab/server/netsvr"
	"github.com/zintix-labs/scriptlab/server/svrcfg"
)

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

func (m *memObserver) count(ev metrics.EventType) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, r := range m.recs {
		if r.Event == ev {
			n++
		}
	}
	return n
}

type fixture struct {
	svr *netsvr.ChiAdapter
	rt  *scriptlab.SessionRuntime
	obs *memObserver
}

func newFixture(t *testing.T, maxSessions int) *fixture {
	t.Helper()
	lab, err := scriptlab.NewAuto(core.Default(), scriptlab.Configs(demo_configs.FS))
	if err != nil {
		t.Fatalf("new lab: %v", err)
	}
	book, err := redeem.Load(demo_redeem.FS, redeem.DefaultFile)
	if err != nil {
		t.Fatalf("load redeem: %v", err)
	}
	obs := &memObserver{}
	sCfg := &svrcfg.SvrCfg{Lab: lab, MaxSessions: maxSessions, Observer: obs, Redeem: book}
	svr := netsvr.NewChiServerDefault()
	rt, err := Build(sCfg, svr)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	t.Cleanup(rt.Close)
	return &fixture{svr: svr, rt: rt, obs: obs}
}

func (f *fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	f.svr.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func (f *fixture) create(t *testing.T, cond string) dto.SessionCreated {
	t.Helper()
	rec := f.do(t, http.MethodPost, "/v1/sessions", `{"script":"experiment","condition":"`+cond+`","seed":7,"metrics":true}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", rec.Code, rec.Body.String())
	}
	return decode[dto.SessionCreated](t, rec)
}

func TestScripts(t *testing.T) {
	f := newFixture(t, 4)
	rec := f.do(t, http.MethodGet, "/v1/scripts", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("scripts: %d", rec.Code)
	}
	list := decode[dto.ScriptList](t, rec)
	if len(list.Scripts) != 1 || list.Scripts[0].Name != "experiment" || list.Scripts[0].TotalBets != 60 {
		t.Fatalf("unexpected scripts: %+v", list)
	}
}

func TestSessionFlow(t *testing.T) {
	f := newFixture(t, 4)
	c := f.create(t, "L")
	if c.Condition != "LOSE" || c.Balance != "100.00" || c.TotalBets != 60 {
		t.Fatalf("unexpected created: %+v", c)
	}
	base := "/v1/sessions/" + c.ID

	var last dto.SpinResult
	for i := 1; i <= c.TotalBets; i++ {
		rec := f.do(t, http.MethodPost, base+"/spin", `{"bet":"1.00"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("spin %d: %d %s", i, rec.Code, rec.Body.String())
		}
		last = decode[dto.SpinResult](t, rec)
		if last.BetIndex != i {
			t.Fatalf("bet index want %d, got %d", i, last.BetIndex)
		}
		if i == 20 && last.Balance != "100.00" {
			t.Fatalf("BEFORE should end flat, got %s", last.Balance)
		}
		if i == 40 && last.Balance != "83.00" {
			t.Fatalf("DURING under LOSE should end at 83.00, got %s", last.Balance)
		}
	}
	if !last.Finished || last.Balance != "83.00" || last.Phase != "AFTER" {
		t.Fatalf("unexpected last spin: %+v", last)
	}

	rec := f.do(t, http.MethodPost, base+"/spin", `{"bet":"1.00"}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("spin after finish want 409, got %d", rec.Code)
	}
	body := decode[httperr.Body](t, rec)
	if body.Kind != "session_done" {
		t.Fatalf("unexpected kind: %+v", body)
	}

	st := decode[dto.SessionState](t, f.do(t, http.MethodGet, base, ""))
	if !st.Finished || st.BetsPlaced != 60 || !st.Metrics {
		t.Fatalf("unexpected state: %+v", st)
	}
	if n := f.obs.count(metrics.Bet); n != 60 {
		t.Fatalf("want 60 BET records, got %d", n)
	}
}

func TestSpinQueryAndErrors(t *testing.T) {
	f := newFixture(t, 4)
	c := f.create(t, "E")
	base := "/v1/sessions/" + c.ID

	if rec := f.do(t, http.MethodGet, base+"/spin?bet=0.50", ""); rec.Code != http.StatusOK {
		t.Fatalf("query spin: %d %s", rec.Code, rec.Body.String())
	}
	for _, bet := range []string{`"0.05"`, `"0.15"`, `"-1"`, `"500.00"`} {
		rec := f.do(t, http.MethodPost, base+"/spin", `{"bet":`+bet+`}`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("bet %s want 400, got %d", bet, rec.Code)
		}
		if b := decode[httperr.Body](t, rec); b.Kind != "invalid_bet" {
			t.Fatalf("bet %s unexpected kind %+v", bet, b)
		}
	}
	if rec := f.do(t, http.MethodPost, base+"/spin", `{"bet":"1.00","extra":1}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown field want 400, got %d", rec.Code)
	}
	if rec := f.do(t, http.MethodPost, "/v1/sessions/nope/spin", `{"bet":"1.00"}`); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown session want 404, got %d", rec.Code)
	}
	rec := f.do(t, http.MethodPost, "/v1/sessions", `{"script":"experiment","condition":"X"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad condition want 400, got %d", rec.Code)
	}
	if b := decode[httperr.Body](t, rec); b.Kind != "invalid_condition" {
		t.Fatalf("unexpected kind %+v", b)
	}
	if rec := f.do(t, http.MethodPost, "/v1/sessions", `{"script":"missing","condition":"E"}`); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown script want 404, got %d", rec.Code)
	}
}

func TestRedeemMessageAndEnd(t *testing.T) {
	f := newFixture(t, 4)
	c := f.create(t, "W")
	base := "/v1/sessions/" + c.ID

	rec := f.do(t, http.MethodPost, base+"/redeem", `{"code":"bonus25"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("redeem: %d %s", rec.Code, rec.Body.String())
	}
	if r := decode[dto.RedeemResult](t, rec); r.Credited != "25.00" || r.Balance != "125.00" {
		t.Fatalf("unexpected redeem: %+v", r)
	}
	if rec := f.do(t, http.MethodPost, base+"/redeem", `{"code":"bonus25"}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("reused code want 400, got %d", rec.Code)
	}
	if rec := f.do(t, http.MethodPost, base+"/message", `{"text":"hello"}`); rec.Code != http.StatusNoContent {
		t.Fatalf("message: %d", rec.Code)
	}
	if rec := f.do(t, http.MethodPost, base+"/message", `{"text":"  "}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("blank message want 400, got %d", rec.Code)
	}
	if rec := f.do(t, http.MethodDelete, base, ""); rec.Code != http.StatusNoContent {
		t.Fatalf("end: %d", rec.Code)
	}
	if rec := f.do(t, http.MethodGet, base, ""); rec.Code != http.StatusNotFound {
		t.Fatalf("get after end want 404, got %d", rec.Code)
	}
	if f.obs.count(metrics.SessionEnd) != 1 || f.obs.count(metrics.Message) != 1 || f.obs.count(metrics.Redeem) != 1 {
		t.Fatalf("unexpected observer records: %+v", f.obs.recs)
	}
}

func TestSessionLimit(t *testing.T) {
	f := newFixture(t, 1)
	f.create(t, "E")
	rec := f.do(t, http.MethodPost, "/v1/sessions", `{"script":"experiment","condition":"E"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("over limit want 400, got %d", rec.Code)
	}
	f.rt.Close()
	if rec := f.do(t, http.MethodGet, "/v1/scripts", ""); rec.Code != http.StatusOK {
		t.Fatalf("scripts must not depend on runtime: %d", rec.Code)
	}
	if rec := f.do(t, http.MethodPost, "/v1/sessions", `{"script":"experiment","condition":"E"}`); rec.Code != http.StatusInternalServerError {
		t.Fatalf("closed runtime want 500, got %d", rec.Code)
	}
	if f.obs.count(metrics.SessionEnd) != 1 {
		t.Fatalf("close should end the live session")
	}
}

func TestMiddleware(t *testing.T) {
	f := newFixture(t, 4)
	req := httptest.NewRequest(http.MethodGet, "/v1/scripts", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	req.Header.Set("X-Request-Id", "abc-1")
	req.Header.Set("Origin", "http://example.com")
	rec := httptest.NewRecorder()
	f.svr.ServeHTTP(rec, req)

	if rec.Header().Get("Content-Encoding") != "gzip" {
		t.Fatalf("expected gzip, headers %v", rec.Header())
	}
	if rec.Header().Get("X-Request-Id") != "abc-1" {
		t.Fatalf("request id should be echoed, got %q", rec.Header().Get("X-Request-Id"))
	}
	if rec.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Fatalf("cors header missing")
	}
	zr, err := gzip.NewReader(rec.Body)
	if err != nil {
		t.Fatalf("gzip reader: %v", err)
	}
	raw, err := io.ReadAll(zr)
	if err != nil {
		t.Fatalf("gunzip: %v", err)
	}
	if !strings.Contains(string(raw), `"experiment"`) {
		t.Fatalf("unexpected body %s", raw)
	}

	if rec := f.do(t, http.MethodGet, "/healthz", ""); rec.Code != http.StatusNoContent {
		t.Fatalf("healthz: %d", rec.Code)
	}
}
