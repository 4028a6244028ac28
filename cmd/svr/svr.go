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

package main

import (
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/zintix-labs/scriptlab"
	"github.com/zintix-labs/scriptlab/demo/demo_configs"
	"github.com/zintix-labs/scriptlab/demo/demo_redeem"
	"github.com/zintix-labs/scriptlab/metrics"
	"github.com/zintix-labs/scriptlab/redeem"
	"github.com/zintix-labs/scriptlab/sdk/core"
	"github.com/zintix-labs/scriptlab/server"
	"github.com/zintix-labs/scriptlab/server/logger"
	"github.com/zintix-labs/scriptlab/server/svrcfg"
)

func main() {
	sCfg, closeFn, err := loadConfigFromFlags()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer closeFn()
	if err := server.Run(sCfg); err != nil {
		closeFn()
		os.Exit(1)
	}
}

type config struct {
	LogMode     string
	Addr        string
	ConfigDir   string
	CSV         string
	SQLite      string
	Redeem      string
	Origins     string
	MaxSessions int
	Timeout     time.Duration
}

func loadConfigFromFlags() (*svrcfg.SvrCfg, func(), error) {
	cfg := new(config)
	flag.StringVar(&cfg.LogMode, "log-mode", "dev", "log mode: dev|prod|silence")
	flag.StringVar(&cfg.Addr, "addr", ":5808", "listen address")
	flag.StringVar(&cfg.ConfigDir, "config", "", "experiment config dir (default: embedded demo)")
	flag.StringVar(&cfg.CSV, "csv", "build/metrics/metrics.csv", "metrics csv path, empty to disable")
	flag.StringVar(&cfg.SQLite, "sqlite", "", "optional sqlite metrics db path")
	flag.StringVar(&cfg.Redeem, "redeem", "", "redeem codes json file (default: embedded demo codes)")
	flag.StringVar(&cfg.Origins, "cors", "*", "comma separated allowed origins")
	flag.IntVar(&cfg.MaxSessions, "max-sessions", 256, "max concurrent sessions")
	flag.DurationVar(&cfg.Timeout, "timeout", 5*time.Second, "per request timeout")
	flag.Parse()

	log, ah := logger.NewAsync(4096, logger.ParseMode(cfg.LogMode))

	var cfs fs.FS = demo_configs.FS
	if cfg.ConfigDir != "" {
		cfs = os.DirFS(cfg.ConfigDir)
	}
	lab, err := scriptlab.NewAuto(core.Default(), scriptlab.Configs(cfs))
	if err != nil {
		return nil, nil, err
	}

	var book *redeem.Book
	if cfg.Redeem == "" {
		book, err = redeem.Load(demo_redeem.FS, redeem.DefaultFile)
	} else {
		book, err = redeem.Load(os.DirFS(filepath.Dir(cfg.Redeem)), filepath.Base(cfg.Redeem))
	}
	if err != nil {
		return nil, nil, err
	}

	var sinks []metrics.Sink
	if cfg.CSV != "" {
		s, err := metrics.OpenCSV(cfg.CSV)
		if err != nil {
			return nil, nil, err
		}
		sinks = append(sinks, s)
	}
	if cfg.SQLite != "" {
		s, err := metrics.OpenSQLite(cfg.SQLite)
		if err != nil {
			return nil, nil, err
		}
		sinks = append(sinks, s)
	}
	ml := metrics.New(sinks...)

	sCfg := &svrcfg.SvrCfg{
		Log:         log,
		Addr:        cfg.Addr,
		MaxSessions: cfg.MaxSessions,
		Timeout:     cfg.Timeout,
		CORSOrigins: splitOrigins(cfg.Origins),
		Lab:         lab,
		Observer:    ml,
		Redeem:      book,
	}
	closeFn := func() {
		if err := ml.Close(); err != nil {
			log.Error("close metrics failed", "err", err)
		}
		ah.Close()
	}
	return sCfg, closeFn, nil
}

func splitOrigins(s string) []string {
	var out []string
	for _, o := range strings.Split(s, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
