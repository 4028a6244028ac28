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

package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// ============================================================
// ** 對外 : 條件彙總 **
// ============================================================

// EstimateCondition 彙總同一條件下的受試者報表
//
// 1. 結束餘額與各 phase 增減：平均、標準差、平均數 95% CI（Student-t）
//
// 2. 破產率與完成率：Clopper–Pearson 95% CI
//
// 3. 勝率、保底次數與違規次數：直接加總
func EstimateCondition(cond string, players []*PlayerReport) *ConditionReport {
	n := len(players)
	out := &ConditionReport{Condition: cond, Players: n}
	if n == 0 {
		return out
	}

	end := make([]float64, n)
	var bustK, doneK, bets, wins int
	for i, p := range players {
		end[i] = p.Balance
		if p.Bust {
			bustK++
		}
		if p.PhaseDone[len(p.PhaseDone)-1] {
			doneK++
		}
		bets += p.Bets
		wins += p.Wins
		out.FloorHits += p.Floors
		out.Violations += len(p.Violations)
	}
	out.EndBalance = moments(end, 0.95)

	for ph := range out.PhaseDelta {
		deltas := make([]float64, 0, n)
		for _, p := range players {
			if d, ok := p.PhaseDelta(ph); ok {
				deltas = append(deltas, d)
			}
		}
		out.PhaseDelta[ph] = moments(deltas, 0.95)
	}

	bustHat, bustCI := proportionCICP(bustK, n, 0.95)
	doneHat, doneCI := proportionCICP(doneK, n, 0.95)
	out.Bust = PointStat{Hat: bustHat, CI: bustCI}
	out.Completed = PointStat{Hat: doneHat, CI: doneCI}
	if bets > 0 {
		out.WinRate = float64(wins) / float64(bets)
	}
	return out
}

// ============================================================
// ** 內部統計函數 **
// ============================================================

// moments 平均數 CI 以 Student-t 分布計算；樣本數小於 2 時 CI 退化為平均值本身
func moments(data []float64, confidence float64) Moments {
	n := len(data)
	if n == 0 {
		return Moments{}
	}
	cp := make([]float64, n)
	copy(cp, data)
	sort.Float64s(cp)

	m := Moments{Min: cp[0], Max: cp[n-1], Median: quantilePoint(cp, 0.5)}
	if n == 1 {
		m.Mean = cp[0]
		m.MeanCI = CI{Lo: cp[0], Hi: cp[0]}
		return m
	}
	m.Mean, m.Std = stat.MeanStdDev(cp, nil)
	t := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(n - 1)}
	half := t.Quantile(1-(1-confidence)/2) * m.Std / math.Sqrt(float64(n))
	m.MeanCI = CI{Lo: m.Mean - half, Hi: m.Mean + half}
	return m
}

// Clopper–Pearson exact CI for binomial proportion (k successes out of n)
func proportionCICP(k int, n int, confidence float64) (pHat float64, ci CI) {
	if n == 0 {
		return 0, CI{0, 1}
	}
	alpha := 1 - confidence
	pHat = float64(k) / float64(n)

	// Beta PPF 映射，處理邊界
	if k == 0 {
		ci.Lo = 0
	} else {
		b := distuv.Beta{Alpha: float64(k), Beta: float64(n - k + 1)}
		ci.Lo = b.Quantile(alpha / 2)
	}
	if k == n {
		ci.Hi = 1
	} else {
		b := distuv.Beta{Alpha: float64(k + 1), Beta: float64(n - k)}
		ci.Hi = b.Quantile(1 - alpha/2)
	}
	return
}

// quantilePoint 已排序資料的經驗分位數（最近秩法）
func quantilePoint(sorted []float64, q float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	idx := int(q * float64(n))
	if idx < 0 {
		idx = 0
	}
	if idx > n-1 {
		idx = n - 1
	}
	return sorted[idx]
}
