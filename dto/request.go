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
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/zintix-labs/scriptlab/errs"
	"github.com/zintix-labs/scriptlab/script"
	"github.com/zintix-labs/scriptlab/spec"
)

// 防止 body 過大（1MiB）
const maxBody = 1 << 20

// CreateSessionRequest POST /v1/sessions
type CreateSessionRequest struct {
	Script    string `json:"script"`         // 腳本名稱（大小寫不敏感）
	Condition string `json:"condition"`      // E / W / L / EQUAL / WIN / LOSE
	Seed      *int64 `json:"seed,omitempty"` // 可選：固定圖標亂數
	ID        string `json:"id,omitempty"`   // 可選：受試者編號，缺省為 uuid
	Metrics   bool   `json:"metrics"`        // true 時建立後立即 START_METRICS
}

// Parse 解析條件；條件無效回傳 InvalidCondition（Warn）
func (r *CreateSessionRequest) Parse() (script.Condition, error) {
	if strings.TrimSpace(r.Script) == "" {
		return 0, errs.NewWarn("script is required")
	}
	return script.ParseCondition(r.Condition)
}

// SpinRequest POST /v1/sessions/{id}/spin
type SpinRequest struct {
	Bet decimal.Decimal `json:"bet"`
}

// Parse 只做格式檢查；最小注、步進與餘額由 Session 判斷
func (r *SpinRequest) Parse() (decimal.Decimal, error) {
	if !r.Bet.IsPositive() {
		return decimal.Zero, errs.Kindf(errs.KindInvalidBet, "bet must be positive, got %s", r.Bet)
	}
	if !spec.IsCents(r.Bet) {
		return decimal.Zero, errs.Kindf(errs.KindInvalidBet, "bet %s has more than 2 decimals", r.Bet)
	}
	return r.Bet, nil
}

// RedeemRequest POST /v1/sessions/{id}/redeem
type RedeemRequest struct {
	Code string `json:"code"`
}

// MessageRequest POST /v1/sessions/{id}/message
type MessageRequest struct {
	Text string `json:"text"`
}

func DecodeCreateSessionRequest(r *http.Request) (*CreateSessionRequest, error) {
	req := new(CreateSessionRequest)
	return req, decodeJSON(r, req)
}

// DecodeSpinRequest 支援：
//   - GET：從 query string 讀取 bet（簡單測試用）。
//   - POST：從 JSON body 反序列化。
func DecodeSpinRequest(r *http.Request) (*SpinRequest, error) {
	if r == nil {
		return nil, errs.NewWarn("nil request")
	}
	req := new(SpinRequest)
	if r.Method == http.MethodGet {
		s := r.URL.Query().Get("bet")
		if s == "" {
			return nil, errs.Kindf(errs.KindInvalidBet, "bet is required")
		}
		v, err := decimal.NewFromString(s)
		if err != nil {
			return nil, errs.Kindf(errs.KindInvalidBet, "invalid bet: %v", err)
		}
		req.Bet = v
		return req, nil
	}
	return req, decodeJSON(r, req)
}

func DecodeRedeemRequest(r *http.Request) (*RedeemRequest, error) {
	req := new(RedeemRequest)
	if err := decodeJSON(r, req); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Code) == "" {
		return nil, errs.NewWarn("code is required")
	}
	return req, nil
}

func DecodeMessageRequest(r *http.Request) (*MessageRequest, error) {
	req := new(MessageRequest)
	if err := decodeJSON(r, req); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Text) == "" {
		return nil, errs.NewWarn("text is required")
	}
	return req, nil
}

// decodeJSON 只接受 POST；開啟 DisallowUnknownFields() 對未知欄位嚴格拒絕
func decodeJSON(r *http.Request, v any) error {
	if r == nil {
		return errs.NewWarn("nil request")
	}
	if r.Method != http.MethodPost {
		return errs.NewWarn("method not allowed")
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errs.NewWarn(fmt.Sprintf("invalid json: %v", err))
	}
	return nil
}
