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
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/zintix-labs/scriptlab"
	"github.com/zintix-labs/scriptlab/errs"
	"github.com/zintix-labs/scriptlab/server/api"
	"github.com/zintix-labs/scriptlab/server/app"
	"github.com/zintix-labs/scriptlab/server/netsvr"
	"github.com/zintix-labs/scriptlab/server/svrcfg"
)

// Run 是 server 套件的組裝器與啟動入口。
//
// 它負責：
//  1. 驗證 SvrCfg（logger、Lab 等必要依賴）。
//  2. 由 Lab 建立 SessionRuntime。
//  3. 建立 HTTP server 並註冊路由與 middleware。
//  4. 啟動 app.Run() 直到收到終止信號。
//
// Run 不綁定任何檔案路徑或環境變數；所有依賴都透過 SvrCfg 注入。
func Run(sCfg *svrcfg.SvrCfg) error {
	if err := sCfg.Valid(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	return run(sCfg, netsvr.NewChiServer(sCfg.Addr))
}

// RunWithSvr 與 Run 相同，但允許呼叫端注入自訂的 NetSvr。
//
// svr 必須非 nil；若是 ChiAdapter 會要求 Ready() 為 true。
func RunWithSvr(sCfg *svrcfg.SvrCfg, svr netsvr.NetSvr) error {
	if err := sCfg.Valid(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	if svr == nil {
		return errs.NewFatal("svr is required")
	}
	if s, ok := svr.(*netsvr.ChiAdapter); ok && !s.Ready() {
		return errs.NewFatal("default server is not ready")
	}
	return run(sCfg, svr)
}

// Build 組出可直接掛載的 handler 與 runtime，給測試或外部組裝使用
func Build(sCfg *svrcfg.SvrCfg, svr netsvr.NetSvr) (*scriptlab.SessionRuntime, error) {
	if err := sCfg.Valid(); err != nil {
		return nil, err
	}
	rt, err := sCfg.Lab.BuildRuntime(sCfg.MaxSessions)
	if err != nil {
		return nil, err
	}
	if err := api.RegisterRoutes(svr, sCfg, rt); err != nil {
		rt.Close()
		return nil, err
	}
	return rt, nil
}

func run(sCfg *svrcfg.SvrCfg, svr netsvr.NetSvr) error {
	rt, err := Build(sCfg, svr)
	if err != nil {
		sCfg.Log.Error("build server failed", slog.Any("err", err))
		return err
	}

	a := app.New(app.WithLogger(sCfg.Log))
	a.Register(svr)
	a.Register(newRuntimeComponent(rt))
	sCfg.Log.Info("[scriptlab] listening on http://localhost" + svr.Address())
	if err := a.Run(); err != nil {
		sCfg.Log.Error("app stopped", slog.Any("err", err))
		return err
	}
	return nil
}

// runtimeComponent 讓 SessionRuntime 跟著 app 的生命週期關閉，
// 關閉時所有存活 session 都會寫入 SESSION_END
type runtimeComponent struct {
	rt *scriptlab.SessionRuntime
	ch chan struct{}
}

func newRuntimeComponent(rt *scriptlab.SessionRuntime) *runtimeComponent {
	return &runtimeComponent{rt: rt, ch: make(chan struct{})}
}

func (c *runtimeComponent) Run() error {
	<-c.ch
	return nil
}

func (c *runtimeComponent) Shutdown(_ context.Context) error {
	c.rt.Close()
	select {
	case <-c.ch:
	default:
		close(c.ch)
	}
	return nil
}
