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

package api

import (
	"log/slog"
	"net/http"

	"github.com/zintix-labs/scriptlab"
	v1 "github.com/zintix-labs/scriptlab/server/api/v1"
	"github.com/zintix-labs/scriptlab/server/netsvr"
	"github.com/zintix-labs/scriptlab/server/netsvr/middleware"
	"github.com/zintix-labs/scriptlab/server/svrcfg"
)

// RegisterRoutes 註冊
func RegisterRoutes(svr netsvr.NetSvr, sCfg *svrcfg.SvrCfg, rt *scriptlab.SessionRuntime) error {
	registerMiddleware(svr, sCfg) // 1. 註冊 middleware
	registerHealth(svr)           // 2. 健康檢查
	return registerV1API(svr, sCfg, rt)
}

// 註冊 middleware
func registerMiddleware(svr netsvr.NetSvr, sCfg *svrcfg.SvrCfg) {
	svr.Use(middleware.RequestID)
	svr.Use(middleware.AccessLog(sCfg.Log))
	svr.Use(middleware.Recover(sCfg.Log))
	svr.Use(middleware.CORS(sCfg.CORSOrigins))
	svr.Use(middleware.Compression)
}

func registerHealth(svr netsvr.NetSvr) {
	svr.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
}

// 註冊 v1 api
func registerV1API(svr netsvr.NetSvr, sCfg *svrcfg.SvrCfg, rt *scriptlab.SessionRuntime) error {
	s, err := v1.NewSessionHandler(rt, sCfg)
	if err != nil {
		return err
	}
	sc := v1.NewScriptHandler(rt.Lab())
	svr.Group("/v1", func(vOne netsvr.NetRouter) {
		vOne.Get("/scripts", sc.List)

		vOne.Post("/sessions", s.Create)
		vOne.Get("/sessions/{id}", s.Get)
		vOne.Delete("/sessions/{id}", s.End)
		vOne.Get("/sessions/{id}/spin", s.Spin)
		vOne.Post("/sessions/{id}/spin", s.Spin)
		vOne.Post("/sessions/{id}/metrics", s.StartMetrics)
		vOne.Post("/sessions/{id}/redeem", s.Redeem)
		vOne.Post("/sessions/{id}/message", s.Message)
	})
	sCfg.Log.Debug("routes registered", slog.Int("max_sessions", sCfg.MaxSessions))
	return nil
}
