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
	"crypto/rand"
	"flag"
	"io/fs"
	"log"
	"log/slog"
	"math"
	"math/big"
	"os"
	"path/filepath"

	"github.com/zintix-labs/scriptlab"
	"github.com/zintix-labs/scriptlab/demo/demo_configs"
	"github.com/zintix-labs/scriptlab/demo/demo_redeem"
	"github.com/zintix-labs/scriptlab/metrics"
	"github.com/zintix-labs/scriptlab/redeem"
	"github.com/zintix-labs/scriptlab/sdk/core"
	"github.com/zintix-labs/scriptlab/server/logger"
)

type config struct {
	script    string
	configDir string
	csvPath   string
	sqlite    string
	redeem    string
	seed      int64
	logMode   string
	players   int
	workers   int
}

func bindVar() *config {
	cfg := new(config)
	flag.StringVar(&cfg.script, "script", "experiment", "script name")
	flag.StringVar(&cfg.configDir, "config", "", "experiment config dir (default: embedded demo)")
	flag.StringVar(&cfg.csvPath, "csv", "metrics.csv", "metrics csv path, empty to disable")
	flag.StringVar(&cfg.sqlite, "sqlite", "", "optional sqlite metrics db path")
	flag.StringVar(&cfg.redeem, "redeem", "", "redeem codes json file (default: embedded demo codes)")
	flag.Int64Var(&cfg.seed, "seed", -1, "int64 seed for the symbol generator")
	flag.StringVar(&cfg.logMode, "log-mode", "silence", "log mode: dev|prod|silence (logs go to stderr)")
	flag.IntVar(&cfg.players, "players", 0, "TEST: participants per condition (0: use sweep.players)")
	flag.IntVar(&cfg.workers, "workers", 4, "TEST: number of workers")
	flag.Parse()

	if cfg.seed < 1 {
		seed, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
		if err != nil {
			log.Fatal(err)
		}
		cfg.seed = seed.Int64()
	}
	return cfg
}

// env 一次執行共用的依賴
type env struct {
	lab     *scriptlab.Lab
	log     *slog.Logger
	metrics *metrics.Logger
	book    *redeem.Book
}

func (cfg *config) build() (*env, error) {
	var cfs fs.FS = demo_configs.FS
	if cfg.configDir != "" {
		cfs = os.DirFS(cfg.configDir)
	}
	lab, err := scriptlab.NewAuto(core.Default(), scriptlab.Configs(cfs))
	if err != nil {
		return nil, err
	}

	var book *redeem.Book
	if cfg.redeem == "" {
		book, err = redeem.Load(demo_redeem.FS, redeem.DefaultFile)
	} else {
		book, err = redeem.Load(os.DirFS(filepath.Dir(cfg.redeem)), filepath.Base(cfg.redeem))
	}
	if err != nil {
		return nil, err
	}

	var sinks []metrics.Sink
	if cfg.csvPath != "" {
		s, err := metrics.OpenCSV(cfg.csvPath)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, s)
	}
	if cfg.sqlite != "" {
		s, err := metrics.OpenSQLite(cfg.sqlite)
		if err != nil {
			for _, o := range sinks {
				_ = o.Close()
			}
			return nil, err
		}
		sinks = append(sinks, s)
	}

	return &env{
		lab:     lab,
		log:     logger.NewWriterLogger(os.Stderr, logger.ParseMode(cfg.logMode)),
		metrics: metrics.New(sinks...),
		book:    book,
	}, nil
}

func (e *env) close() {
	if err := e.metrics.Close(); err != nil {
		e.log.Error("close metrics failed", slog.Any("err", err))
	}
}
