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
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/zintix-labs/scriptlab"
	"github.com/zintix-labs/scriptlab/errs"
	"github.com/zintix-labs/scriptlab/script"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const betPrompt = "bet (or: redeem CODE, msg TEXT, quit): "

// play 一場互動式 session；輸入結束或 quit 時提早結束
func play(cfg *config, e *env, cond script.Condition, in *bufio.Scanner, out io.Writer) error {
	s, err := e.lab.NewSessionWithSeed(cfg.script, cond, cfg.seed,
		scriptlab.WithObserver(e.metrics),
		scriptlab.WithLogger(e.log),
		scriptlab.WithRedeemBook(e.book),
	)
	if err != nil {
		return err
	}
	defer s.End()
	s.StartMetrics()

	p := message.NewPrinter(language.English)
	st := s.State()
	p.Fprintf(out, "balance %s, %d bets\n", st.Balance.StringFixed(2), st.TotalBets)

	for {
		p.Fprint(out, betPrompt)
		if !in.Scan() {
			return in.Err()
		}
		line := strings.TrimSpace(in.Text())
		cmd, arg, _ := strings.Cut(line, " ")
		switch strings.ToLower(cmd) {
		case "":
			continue
		case "quit", "exit":
			return nil
		case "redeem":
			v, err := s.Redeem(arg)
			if err != nil {
				p.Fprintf(out, "%v\n", err)
				continue
			}
			p.Fprintf(out, "+%s  balance %s\n", v.StringFixed(2), s.Balance().StringFixed(2))
			continue
		case "msg":
			if err := s.Message(strings.TrimSpace(arg)); err != nil {
				p.Fprintf(out, "%v\n", err)
			}
			continue
		}

		bet, err := decimal.NewFromString(line)
		if err != nil {
			p.Fprintf(out, "invalid bet %q\n", line)
			continue
		}
		res, err := s.Spin(bet)
		if err != nil {
			if errs.IsFatal(err) {
				return err
			}
			p.Fprintf(out, "%v\n", err)
			continue
		}
		p.Fprintf(out, "[%s] [%s] [%s]  %s  balance %s\n",
			res.Reels[0], res.Reels[1], res.Reels[2], outcomeText(res), res.Balance.StringFixed(2))
		if res.Finished {
			p.Fprintf(out, "session finished, final balance %s\n", res.Balance.StringFixed(2))
			return nil
		}
	}
}

func outcomeText(res scriptlab.SpinResult) string {
	if res.Occurrences == 0 {
		return "no win"
	}
	return "win " + res.Reward.StringFixed(2) + " (x" + res.Multiplier.String() + ")"
}

// runSweep TEST：依序跑完所有條件並輸出報表
func runSweep(cfg *config, e *env) error {
	s, err := e.lab.NewSweeper(cfg.script, cfg.seed)
	if err != nil {
		return err
	}
	rep, used, err := s.Run(cfg.players, cfg.workers, true)
	if err != nil {
		return err
	}
	rep.StdOut(used)
	if n := rep.Violations(); n > 0 {
		return errs.Fatalf("%d trajectory violations", n)
	}
	message.NewPrinter(language.English).Fprintf(os.Stdout, "conditions exercised: %d\n", s.Controller().Changes())
	return nil
}
