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

package scriptlab

import (
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/shopspring/decimal"
	"github.com/zintix-labs/scriptlab/errs"
	"github.com/zintix-labs/scriptlab/recorder"
	"github.com/zintix-labs/scriptlab/script"
	"github.com/zintix-labs/scriptlab/sdk/core"
	"github.com/zintix-labs/scriptlab/spec"
	"github.com/zintix-labs/scriptlab/stats"
)

// Sweeper TEST 模式：依序把每個條件透過 ConditionController 裝上，
// 並以多個 worker 平行模擬整場 session，產出各條件的統計報表。
type Sweeper struct {
	Script    string
	setting   *spec.ScriptSetting
	eng       *script.Engine
	cf        core.PRNGFactory
	cc        *script.ConditionController
	initSeed  int64
	seedmaker *seedMaker
}

func newSweeper(ss *spec.ScriptSetting, eng *script.Engine, cf core.PRNGFactory, seed int64) *Sweeper {
	return &Sweeper{
		Script:    ss.Name,
		setting:   ss,
		eng:       eng,
		cf:        cf,
		cc:        script.NewConditionController(),
		initSeed:  seed,
		seedmaker: newSeedMaker(seed),
	}
}

// Controller sweep 使用的條件控制器；Run 結束後 Changes() 等於條件數
func (s *Sweeper) Controller() *script.ConditionController { return s.cc }

func (s *Sweeper) Seed() int64 { return s.initSeed }

type sweepJob struct {
	idx  int
	seed int64
}

// Run 每個條件模擬 players 位受試者（<= 0 時使用設定檔的 sweep.players），回傳報表與用時。
//
// seed 在主 goroutine 依序產生，worker 數量不影響結果。
func (s *Sweeper) Run(players int, workers int, showpb bool) (*stats.SweepReport, time.Duration, error) {
	if workers < 1 {
		return nil, 0, errs.NewWarn("workers must > 0")
	}
	if players <= 0 {
		players = s.setting.Sweep.Players
	}

	report := &stats.SweepReport{
		Script:      s.Script,
		Seed:        s.initSeed,
		InitBalance: s.setting.Session.InitialBudget.InexactFloat64(),
		TotalBets:   s.eng.TotalBets(),
		Conditions:  make([]*stats.ConditionReport, 0, len(script.Conditions)),
	}

	bar := pb.StartNew(players * len(script.Conditions))
	if !showpb {
		bar.SetWriter(io.Discard)
	}
	for _, c := range script.Conditions {
		if err := s.cc.Apply(c); err != nil {
			bar.Finish()
			return nil, 0, err
		}
		cond, _ := s.cc.Current()
		ps, err := s.runCondition(cond, players, workers, bar)
		if err != nil {
			bar.Finish()
			return nil, 0, err
		}
		report.Conditions = append(report.Conditions, stats.EstimateCondition(cond.String(), ps))
	}
	used := time.Since(bar.StartTime())
	bar.Finish()
	return report, used, nil
}

func (s *Sweeper) runCondition(cond script.Condition, players int, workers int, bar *pb.ProgressBar) ([]*stats.PlayerReport, error) {
	out := make([]*stats.PlayerReport, players)
	jobs := make(chan sweepJob, 2048)

	var (
		firstErr error
		errOnce  sync.Once
		failed   atomic.Bool
	)
	wg := new(sync.WaitGroup)
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for j := range jobs {
				if failed.Load() {
					continue
				}
				rep, err := s.Play(cond, j.seed)
				if err != nil {
					errOnce.Do(func() { firstErr = err })
					failed.Store(true)
					continue
				}
				out[j.idx] = rep
				bar.Increment()
			}
		}()
	}
	for i := 0; i < players; i++ {
		jobs <- sweepJob{idx: i, seed: s.seedmaker.next()}
	}
	close(jobs)
	wg.Wait()
	if firstErr != nil {
		return nil, firstErr
	}
	return out, nil
}

// Play 模擬一位受試者完整的 session。
//
// 每注下注額自 [bet_min, bet_max] 的 bet_step 格點均勻抽取，超過餘額時取餘額可下的最大格點；
// 低於 min_bet 即破產離場。
func (s *Sweeper) Play(cond script.Condition, seed int64) (*stats.PlayerReport, error) {
	sess, err := newSession(s.setting, s.eng, cond, core.New(s.cf.New(seed)), seed)
	if err != nil {
		return nil, err
	}
	defer sess.End()

	rec, err := recorder.NewSessionRecorder(cond, s.eng.PhaseLength(), s.setting.Session.InitialBudget)
	if err != nil {
		return nil, err
	}
	stake := core.New(s.cf.New(int64(mix63(uint64(seed) ^ 0x5DEECE66D))))

	for range s.eng.TotalBets() {
		bet, ok := s.stake(stake, sess.Balance())
		if !ok {
			rec.Bust()
			break
		}
		res, err := sess.Spin(bet)
		if err != nil {
			return nil, err
		}
		rec.Record(recorder.Spin{
			Phase:   res.Phase,
			Within:  res.WithinIndex,
			Win:     res.Win,
			Floored: res.Floored,
			Bet:     res.Bet,
			Reward:  res.Reward,
			Balance: res.Balance,
		})
	}
	return rec.Done(), nil
}

func (s *Sweeper) stake(c *core.Core, balance decimal.Decimal) (decimal.Decimal, bool) {
	ss := &s.setting.Session
	sw := &s.setting.Sweep
	bet := sw.BetMin.Add(ss.BetStep.Mul(decimal.NewFromInt(int64(c.IntN(sw.Steps(ss.BetStep))))))
	if bet.GreaterThan(balance) {
		bet = balance.Div(ss.BetStep).Floor().Mul(ss.BetStep)
	}
	if bet.LessThan(ss.MinBet) || !bet.IsPositive() {
		return decimal.Zero, false
	}
	return bet, true
}

const mask63 = uint64(1<<63) - 1

type seedMaker struct {
	state atomic.Uint64 // always in [0, 2^63)
}

func newSeedMaker(seed int64) *seedMaker {
	s := &seedMaker{}
	s.state.Store(uint64(seed) & mask63)
	return s
}

// state 走全週期（不重複），再用可逆 mix63 打散。
// 以 CAS 推進，可被多 goroutine 同時呼叫。
func (s *seedMaker) next() int64 {
	for {
		old := s.state.Load()
		next := (old*6364136223846793005 + 1442695040888963407) & mask63 // full-period LCG mod 2^63
		if s.state.CompareAndSwap(old, next) {
			return int64(mix63(next))
		}
	}
}

// mix63：只用「可逆」的 bit 操作 + 乘奇數（mod 2^63）
func mix63(x uint64) uint64 {
	x &= mask63
	x ^= x >> 30
	x = (x * 0xBF58476D1CE4E5B9) & mask63
	x ^= x >> 27
	x = (x * 0x94D049BB133111EB) & mask63
	x ^= x >> 31
	return x & mask63
}
