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

package errs

import (
	"errors"
	"fmt"
)

// ErrLevel : 錯誤分級，讓最上層（CLI / HTTP / 研究者介面）判斷是否可重試
type ErrLevel uint8

const (
	None ErrLevel = iota
	Fatal
	Warn
	Log
)

var errLvMap = map[ErrLevel]string{
	None:  "",
	Fatal: "fatal",
	Warn:  "warn",
	Log:   "log",
}

func ErrLv(errlv ErrLevel) string {
	if str, ok := errLvMap[errlv]; ok {
		return str
	}
	return ""
}

// Kind : 錯誤種類（腳本引擎的錯誤分類）
type Kind uint8

const (
	KindNone Kind = iota
	KindInvalidCondition
	KindOutOfRange
	KindMissingOutcome
	KindUnresolvablePayout
	KindInvalidBet
	KindConfig
	KindLedger
	KindSessionDone
	KindNotFound
)

var kindMap = map[Kind]string{
	KindNone:               "",
	KindInvalidCondition:   "invalid_condition",
	KindOutOfRange:         "out_of_range",
	KindMissingOutcome:     "missing_outcome",
	KindUnresolvablePayout: "unresolvable_payout",
	KindInvalidBet:         "invalid_bet",
	KindConfig:             "config",
	KindLedger:             "ledger",
	KindSessionDone:        "session_done",
	KindNotFound:           "not_found",
}

// kindLevel : 每個種類的預設等級
var kindLevel = map[Kind]ErrLevel{
	KindInvalidCondition:   Warn,
	KindOutOfRange:         Fatal,
	KindMissingOutcome:     Fatal,
	KindUnresolvablePayout: Fatal,
	KindInvalidBet:         Warn,
	KindConfig:             Fatal,
	KindLedger:             Fatal,
	KindSessionDone:        Warn,
	KindNotFound:           Warn,
}

func (k Kind) String() string {
	if s, ok := kindMap[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Level 回傳該種類的預設 ErrLevel
func (k Kind) Level() ErrLevel {
	if lv, ok := kindLevel[k]; ok {
		return lv
	}
	return Fatal
}

// 各種類的哨兵值，供 errors.Is(err, errs.ErrOutOfRange) 使用。
var (
	ErrInvalidCondition   = &E{Kind: KindInvalidCondition, ErrLv: Warn, Message: "invalid condition"}
	ErrOutOfRange         = &E{Kind: KindOutOfRange, ErrLv: Fatal, Message: "bet index out of range"}
	ErrMissingOutcome     = &E{Kind: KindMissingOutcome, ErrLv: Fatal, Message: "missing outcome entry"}
	ErrUnresolvablePayout = &E{Kind: KindUnresolvablePayout, ErrLv: Fatal, Message: "unresolvable payout"}
	ErrInvalidBet         = &E{Kind: KindInvalidBet, ErrLv: Warn, Message: "invalid bet"}
	ErrConfig             = &E{Kind: KindConfig, ErrLv: Fatal, Message: "invalid config"}
	ErrLedger             = &E{Kind: KindLedger, ErrLv: Fatal, Message: "phase ledger"}
	ErrSessionDone        = &E{Kind: KindSessionDone, ErrLv: Warn, Message: "session finished"}
	ErrNotFound           = &E{Kind: KindNotFound, ErrLv: Warn, Message: "not found"}
)

// E 是統一的錯誤型別。
// Message 為主訊息；Extra 為呼叫端追加的上下文；
// Cause 可串接下層錯誤（wrap）；Kind 為錯誤分類，零值代表未分類。
type E struct {
	Message string
	Extra   string
	Cause   error
	ErrLv   ErrLevel
	Kind    Kind
}

// Error 實作 error 介面並回傳格式化後的錯誤訊息。
func (e *E) Error() string {
	base := fmt.Sprintf("errlv=%s", ErrLv(e.ErrLv))
	if e.Kind != KindNone {
		base += " kind=" + e.Kind.String()
	}
	base += " " + e.Message
	if e.Extra != "" {
		base += " | extra: " + e.Extra
	}
	if e.Cause != nil {
		base += fmt.Sprintf(" (cause: %v)", e.Cause)
	}
	return base
}

// Unwrap 讓 errors.Is / errors.As 能夠向下展開。
func (e *E) Unwrap() error { return e.Cause }

// Is : 同 Kind 即視為相同（哨兵比對只看種類）
func (e *E) Is(target error) bool {
	t, ok := target.(*E)
	if !ok || t.Kind == KindNone {
		return false
	}
	return e.Kind == t.Kind
}

// New 依等級與訊息建立錯誤
func New(errLv ErrLevel, msg string) *E {
	return &E{Message: msg, ErrLv: errLv}
}

func NewFatal(msg string) *E {
	return &E{Message: msg, ErrLv: Fatal}
}

func NewWarn(msg string) *E {
	return &E{Message: msg, ErrLv: Warn}
}

func NewLog(msg string) *E {
	return &E{Message: msg, ErrLv: Log}
}

func Fatalf(format string, a ...any) *E {
	return NewFatal(fmt.Sprintf(format, a...))
}

func Warnf(format string, a ...any) *E {
	return NewWarn(fmt.Sprintf(format, a...))
}

// Kindf 建立帶種類的錯誤，等級取種類預設值
func Kindf(k Kind, format string, a ...any) *E {
	return &E{Message: fmt.Sprintf(format, a...), ErrLv: k.Level(), Kind: k}
}

// NewWithExtra 與 New 相同，但可附加額外上下文字串（不影響主訊息）。
func NewWithExtra(errLv ErrLevel, msg string, extra string) *E {
	e := New(errLv, msg)
	e.Extra = extra
	return e
}

// Wrap 以訊息包裝底層錯誤。
//
// 規則：
//   - 若 cause 已經是 *E，沿用其 ErrLv 與 Kind。
//   - 否則（標準庫或三方依賴錯誤）一律視為 Fatal。
func Wrap(cause error, msg string) *E {
	var e *E
	errLv := Fatal
	kind := KindNone
	if errors.As(cause, &e) {
		errLv = e.ErrLv
		kind = e.Kind
	}
	r := New(errLv, msg)
	r.Kind = kind
	r.Cause = cause
	return r
}

// WrapKind 包裝底層錯誤並指定種類，等級取種類預設值
func WrapKind(cause error, k Kind, msg string) *E {
	return &E{Message: msg, Cause: cause, ErrLv: k.Level(), Kind: k}
}

func AsErr(err error) (*E, bool) {
	var e *E
	if errors.As(err, &e) {
		return e, true
	}
	return e, false
}

// KindOf 回傳錯誤鏈上第一個非零 Kind
func KindOf(err error) Kind {
	for err != nil {
		if e, ok := err.(*E); ok && e.Kind != KindNone {
			return e.Kind
		}
		err = errors.Unwrap(err)
	}
	return KindNone
}

// IsFatal 回傳錯誤鏈最外層 *E 是否為 Fatal；非 *E 錯誤視為 Fatal
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	if e, ok := AsErr(err); ok {
		return e.ErrLv == Fatal
	}
	return true
}
