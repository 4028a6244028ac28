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
	"math"
	"math/big"
	"os"
	"strings"

	"github.com/zintix-labs/scriptlab"
	"github.com/zintix-labs/scriptlab/demo/demo_configs"
	"github.com/zintix-labs/scriptlab/errs"
	"github.com/zintix-labs/scriptlab/sdk/core"
	"github.com/zintix-labs/scriptlab/stats"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var cfg *config = new(config)

type config struct {
	script    string
	configDir string
	worker    int
	player    int
	seed      int64
	format    string
	pprofmode string
}

func bindVar() {
	flag.StringVar(&cfg.script, "script", "experiment", "script name")
	flag.StringVar(&cfg.configDir, "config", "", "experiment config dir (default: embedded demo)")
	flag.IntVar(&cfg.worker, "worker", 4, "number of workers")
	flag.IntVar(&cfg.player, "player", 0, "simulated participants per condition (0: use sweep.players)")
	flag.Int64Var(&cfg.seed, "seed", -1, "int64 base seed")
	flag.StringVar(&cfg.format, "format", "table", "report format: table, json, yaml")
	flag.StringVar(&cfg.pprofmode, "p", "", "pprof: '', cpu, heap, allocs")

	flag.Parse()

	// given seed illegal -> crypto seed
	if cfg.seed < 1 {
		seed, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
		if err != nil {
			log.Fatal(err)
		}
		cfg.seed = seed.Int64()
	}
}

func configFS(dir string) fs.FS {
	if dir == "" {
		return demo_configs.FS
	}
	return os.DirFS(dir)
}

func executeSweep() error {
	if err := cfg.valid(); err != nil {
		return err
	}
	lab, err := scriptlab.NewAuto(core.Default(), scriptlab.Configs(configFS(cfg.configDir)))
	if err != nil {
		return err
	}
	s, err := lab.NewSweeper(cfg.script, cfg.seed)
	if err != nil {
		return err
	}

	green := "\033[1;32m"
	reset := "\033[0m"
	p := message.NewPrinter(language.English)
	p.Fprintf(os.Stderr, "%s[SCRIPT:%s] [WORKERS:%d] [PLAYERS:%d] [SEED:%d]%s\n", green, s.Script, cfg.worker, cfg.player, cfg.seed, reset)

	rep, used, err := s.Run(cfg.player, cfg.worker, true)
	if err != nil {
		return err
	}
	switch cfg.format {
	case "json":
		err = rep.WriteWith(os.Stdout, &stats.JsonSweepReportRender{})
	case "yaml":
		err = rep.WriteWith(os.Stdout, &stats.YAMLSweepReportRender{})
	default:
		rep.StdOut(used)
	}
	if err != nil {
		return err
	}
	if n := rep.Violations(); n > 0 {
		return errs.Fatalf("%d trajectory violations", n)
	}
	return nil
}

func (cfg *config) valid() error {
	if cfg.worker < 1 {
		return errs.NewWarn("value err : workers must > 0")
	}
	if cfg.player < 0 {
		return errs.NewWarn("value err : player must >= 0")
	}
	// 參與者太多 resize
	if cfg.player > 100000 {
		message.NewPrinter(language.English).Fprintf(os.Stderr, "too many players: %d resized to 100k players\n", cfg.player)
		cfg.player = 100000
	}
	cfg.format = strings.ToLower(strings.TrimSpace(cfg.format))
	switch cfg.format {
	case "table", "json", "yaml":
	default:
		return errs.Warnf("unknown format %q", cfg.format)
	}
	return nil
}
