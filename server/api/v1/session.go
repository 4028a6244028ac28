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

package v1

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/zintix-labs/scriptlab"
	"github.com/zintix-labs/scriptlab/dto"
	"github.com/zintix-labs/scriptlab/errs"
	"github.com/zintix-labs/scriptlab/server/httperr"
	"github.com/zintix-labs/scriptlab/server/netsvr"
	"github.com/zintix-labs/scriptlab/server/svrcfg"
)

// SessionHandler /v1/sessions 的所有路由
type SessionHandler struct {
	rt  *scriptlab.SessionRuntime
	cfg *svrcfg.SvrCfg
}

func NewSessionHandler(rt *scriptlab.SessionRuntime, sCfg *svrcfg.SvrCfg) (*SessionHandler, error) {
	if rt == nil {
		return nil, errs.NewFatal("session runtime is required")
	}
	rt.Use(sCfg.SessionOptions()...)
	return &SessionHandler{rt: rt, cfg: sCfg}, nil
}

func (h *SessionHandler) ctx(q *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(q.Context(), h.cfg.Timeout)
}

// Create POST /v1/sessions
func (h *SessionHandler) Create(w http.ResponseWriter, q *http.Request) {
	req, err := dto.DecodeCreateSessionRequest(q)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	cond, err := req.Parse()
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	ctx, cancel := h.ctx(q)
	defer cancel()

	var opts []scriptlab.SessionOption
	if req.ID != "" {
		opts = append(opts, scriptlab.WithID(req.ID))
	}
	var s *scriptlab.Session
	if req.Seed != nil {
		s, err = h.rt.CreateWithSeed(ctx, req.Script, cond, *req.Seed, opts...)
	} else {
		s, err = h.rt.Create(ctx, req.Script, cond, opts...)
	}
	if err != nil {
		httperr.Log(h.cfg.Log, "create session failed", err)
		httperr.Errs(w, err)
		return
	}
	if req.Metrics {
		s.StartMetrics()
	}
	writeJSON(w, http.StatusCreated, dto.NewSessionCreated(s.State()))
}

// Get GET /v1/sessions/{id}
func (h *SessionHandler) Get(w http.ResponseWriter, q *http.Request) {
	ctx, cancel := h.ctx(q)
	defer cancel()
	s, err := h.rt.Get(ctx, netsvr.URLParam(q, "id"))
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewSessionState(s.State()))
}

// Spin GET|POST /v1/sessions/{id}/spin
func (h *SessionHandler) Spin(w http.ResponseWriter, q *http.Request) {
	req, err := dto.DecodeSpinRequest(q)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	bet, err := req.Parse()
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	ctx, cancel := h.ctx(q)
	defer cancel()
	s, err := h.rt.Get(ctx, netsvr.URLParam(q, "id"))
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	res, err := s.Spin(bet)
	if err != nil {
		httperr.Log(h.cfg.Log, "spin failed", err)
		httperr.Errs(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewSpinResult(res))
}

// StartMetrics POST /v1/sessions/{id}/metrics
func (h *SessionHandler) StartMetrics(w http.ResponseWriter, q *http.Request) {
	ctx, cancel := h.ctx(q)
	defer cancel()
	s, err := h.rt.Get(ctx, netsvr.URLParam(q, "id"))
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	s.StartMetrics()
	w.WriteHeader(http.StatusNoContent)
}

// Redeem POST /v1/sessions/{id}/redeem
func (h *SessionHandler) Redeem(w http.ResponseWriter, q *http.Request) {
	req, err := dto.DecodeRedeemRequest(q)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	ctx, cancel := h.ctx(q)
	defer cancel()
	s, err := h.rt.Get(ctx, netsvr.URLParam(q, "id"))
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	v, err := s.Redeem(req.Code)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.RedeemResult{Credited: v.StringFixed(2), Balance: s.Balance().StringFixed(2)})
}

// Message POST /v1/sessions/{id}/message
func (h *SessionHandler) Message(w http.ResponseWriter, q *http.Request) {
	req, err := dto.DecodeMessageRequest(q)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	ctx, cancel := h.ctx(q)
	defer cancel()
	s, err := h.rt.Get(ctx, netsvr.URLParam(q, "id"))
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	if err := s.Message(req.Text); err != nil {
		httperr.Log(h.cfg.Log, "message failed", err)
		httperr.Errs(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// End DELETE /v1/sessions/{id}
func (h *SessionHandler) End(w http.ResponseWriter, q *http.Request) {
	ctx, cancel := h.ctx(q)
	defer cancel()
	if _, err := h.rt.End(ctx, netsvr.URLParam(q, "id")); err != nil {
		httperr.Errs(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// writeJSON 先編碼到記憶體，避免寫到一半才出錯
func writeJSON(w http.ResponseWriter, status int, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		httperr.Errs(w, errs.Wrap(err, "encode response failed"))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(b, '\n'))
}
