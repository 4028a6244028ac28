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

package httperr

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/zintix-labs/scriptlab/errs"
)

func TestStatusCode(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{errs.NewWarn("bad"), http.StatusBadRequest},
		{errs.NewFatal("boom"), http.StatusInternalServerError},
		{errs.Kindf(errs.KindNotFound, "session x not found"), http.StatusNotFound},
		{errs.Kindf(errs.KindSessionDone, "done"), http.StatusConflict},
		{errs.Kindf(errs.KindInvalidBet, "bet"), http.StatusBadRequest},
		{errs.Wrap(context.DeadlineExceeded, "slow"), http.StatusGatewayTimeout},
		{context.Canceled, http.StatusRequestTimeout},
	}
	for _, c := range cases {
		if got := StatusCode(c.err); got != c.want {
			t.Fatalf("%v: want %d, got %d", c.err, c.want, got)
		}
	}
}

func TestErrsHidesFatal(t *testing.T) {
	rec := httptest.NewRecorder()
	Errs(rec, errs.Kindf(errs.KindLedger, "phase ledger corrupted at bet 12"))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("want 500, got %d", rec.Code)
	}
	var b Body
	if err := json.Unmarshal(rec.Body.Bytes(), &b); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b.Error != http.StatusText(http.StatusInternalServerError) || b.Kind != "ledger" {
		t.Fatalf("unexpected body %+v", b)
	}

	rec = httptest.NewRecorder()
	Errs(rec, errs.Kindf(errs.KindInvalidBet, "bet below minimum"))
	if err := json.Unmarshal(rec.Body.Bytes(), &b); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rec.Code != http.StatusBadRequest || b.Kind != "invalid_bet" || b.Error == "" {
		t.Fatalf("unexpected warn body %d %+v", rec.Code, b)
	}
}
