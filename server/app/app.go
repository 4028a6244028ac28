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

// Package app 長生命週期元件（HTTP server、session runtime）的啟動與關閉。
package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/zintix-labs/scriptlab/errs"
)

const defaultShutdownTimeout = 5 * time.Second

// App 啟動所有 Component，收到 SIGINT/SIGTERM 或任一 Component 結束時依註冊順序關閉。
// HTTP server 應先於 session runtime 註冊，讓進行中的請求先收尾再寫 SESSION_END。
type App struct {
	comps   []Component
	log     *slog.Logger
	timeout time.Duration
}

type Option func(*App)

func WithLogger(l *slog.Logger) Option {
	return func(a *App) {
		if l != nil {
			a.log = l
		}
	}
}

func WithShutdownTimeout(d time.Duration) Option {
	return func(a *App) {
		if d > 0 {
			a.timeout = d
		}
	}
}

func New(opts ...Option) *App {
	a := &App{log: slog.New(slog.NewTextHandler(io.Discard, nil)), timeout: defaultShutdownTimeout}
	for _, o := range opts {
		o(a)
	}
	return a
}

// NewWith New 加上直接註冊 Component
func NewWith(comps ...Component) *App {
	a := New()
	for _, c := range comps {
		a.Register(c)
	}
	return a
}

func (a *App) Register(c Component) {
	if c != nil {
		a.comps = append(a.comps, c)
	}
}

// Run 阻塞直到收到終止信號或 ctx 結束（回傳 nil），或任一 Component 先行返回（回傳其錯誤）
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return a.RunContext(ctx)
}

func (a *App) RunContext(ctx context.Context) error {
	if len(a.comps) == 0 {
		return errs.NewWarn("no component registered")
	}
	errCh := make(chan error, len(a.comps))
	for _, c := range a.comps {
		go func(c Component) {
			errCh <- c.Run()
		}(c)
	}

	var runErr error
	select {
	case <-ctx.Done():
		a.log.Info("shutdown requested")
	case runErr = <-errCh:
		if runErr != nil {
			a.log.Error("component stopped", slog.Any("err", runErr))
		}
	}
	if err := a.shutdown(); err != nil {
		return errors.Join(runErr, err)
	}
	return runErr
}

func (a *App) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
	defer cancel()
	var errList []error
	for _, c := range a.comps {
		if err := c.Shutdown(ctx); err != nil {
			a.log.Error("shutdown failed", slog.Any("err", err))
			errList = append(errList, err)
		}
	}
	return errors.Join(errList...)
}
