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

package middleware

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/zintix-labs/scriptlab/server/logger"
)

func TestRecover(t *testing.T) {
	var buf bytes.Buffer
	h := RequestID(Recover(logger.NewWriterLogger(&buf, logger.ModeProd))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("want 500, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "boom") {
		t.Fatalf("panic value must not leak: %s", rec.Body.String())
	}
	if !strings.Contains(buf.String(), "http.panic") {
		t.Fatalf("panic should be logged, got %q", buf.String())
	}
	if rec.Header().Get("X-Request-Id") == "" {
		t.Fatalf("request id should be generated")
	}
}

func TestCompressionZstd(t *testing.T) {
	payload := strings.Repeat(`{"bet":"1.00"}`, 64)
	h := Compression(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, payload)
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Encoding", "gzip, zstd")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Header().Get("Content-Encoding") != "zstd" {
		t.Fatalf("zstd should win, got %q", rec.Header().Get("Content-Encoding"))
	}
	dec, err := zstd.NewReader(rec.Body)
	if err != nil {
		t.Fatalf("zstd reader: %v", err)
	}
	defer dec.Close()
	got, err := io.ReadAll(dec)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if string(got) != payload {
		t.Fatalf("payload mismatch")
	}
}

func TestCompressionNoBody(t *testing.T) {
	h := Compression(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	req := httptest.NewRequest(http.MethodDelete, "/", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent || rec.Body.Len() != 0 {
		t.Fatalf("204 must stay empty: %d %q", rec.Code, rec.Body.Bytes())
	}
	if rec.Header().Get("Content-Encoding") != "" {
		t.Fatalf("204 must not carry Content-Encoding")
	}
}

func TestAccessLog(t *testing.T) {
	var buf bytes.Buffer
	h := AccessLog(logger.NewWriterLogger(&buf, logger.ModeProd))(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = io.WriteString(w, "done")
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/v1/sessions/a/spin", nil))
	out := buf.String()
	if !strings.Contains(out, `"status":409`) || !strings.Contains(out, `"level":"WARN"`) || !strings.Contains(out, `"bytes":4`) {
		t.Fatalf("unexpected access log %s", out)
	}
}
