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

package svrcfg

import (
	"log/slog"
	"time"

	"github.com/zintix-labs/scriptlab"
	"github.com/zintix-labs/scriptlab/errs"
	"github.com/zintix-labs/scriptlab/redeem"
	"github.com/zintix-labs/scriptlab/server/logger"
)

const (
	defaultAddr        = ":5808"
	defaultMaxSessions = 256
	defaultTimeout     = 5 * time.Second
)

// SvrCfg HTTP driver 設定
type SvrCfg struct {
	Log         *slog.Logger
	Addr        string             // 監聽位址，預設 :5808
	MaxSessions int                // 同時存在的 session 上限，<= 0 使用預設
	Timeout     time.Duration      // 單一請求的處理時限
	CORSOrigins []string           // 允許的瀏覽器來源；空值允許全部
	Lab         *scriptlab.Lab     // 已凍結的腳本組裝器
	Observer    scriptlab.Observer // 可選：metrics logger
	Redeem      *redeem.Book       // 可選：兌換碼
}

func (sc *SvrCfg) Valid() error {
	if sc.Log != nil {
		if ah, ok := sc.Log.Handler().(*logger.AsyncHandler); ok && !ah.Ready() {
			return errs.NewFatal("nil default log handler: async handler is nil")
		}
	} else {
		sc.Log = logger.NewDefaultLogger(logger.ModeSilence)
	}
	if sc.Addr == "" {
		sc.Addr = defaultAddr
	}
	if sc.MaxSessions <= 0 {
		sc.MaxSessions = defaultMaxSessions
	}
	if sc.Timeout <= 0 {
		sc.Timeout = defaultTimeout
	}
	if len(sc.CORSOrigins) == 0 {
		sc.CORSOrigins = []string{"*"}
	}
	if sc.Lab == nil {
		return errs.NewFatal("lab is required")
	}
	return nil
}

// SessionOptions 每個新 session 都會套用的選項
func (sc *SvrCfg) SessionOptions() []scriptlab.SessionOption {
	opts := []scriptlab.SessionOption{scriptlab.WithLogger(sc.Log)}
	if sc.Observer != nil {
		opts = append(opts, scriptlab.WithObserver(sc.Observer))
	}
	if sc.Redeem != nil {
		opts = append(opts, scriptlab.WithRedeemBook(sc.Redeem))
	}
	return opts
}
