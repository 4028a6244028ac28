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

// Package core 圖標與 sweep 下注使用的可重現亂數。
//
// 腳本的勝負與金額不經過亂數；亂數只決定輸局圖標與 sweep 參與者的下注額。
package core

// PRNG Core 所需的亂數來源
type PRNG interface {
	// Uint64 回傳 uint64 亂數。
	Uint64() uint64
	// IntN 回傳 [0,n) 的亂數，n <= 0 回傳 -1。
	IntN(int) int
}

// PRNGFactory 合約：相同 seed 必須產生相同序列
type PRNGFactory interface {
	New(int64) PRNG
}

// DefaultPRNG 以 PCG64 實作 PRNGFactory
type DefaultPRNG struct{}

func (d *DefaultPRNG) New(seed int64) PRNG {
	return NewPCG64(seed)
}

func Default() *DefaultPRNG {
	return &DefaultPRNG{}
}

// Core 封裝 PRNG 並提供圖標取樣
type Core struct {
	PRNG
}

func New(rng PRNG) *Core {
	return &Core{rng}
}

// NewWithSeed 以預設 PCG64 建立 Core
func NewWithSeed(seed int64) *Core {
	return &Core{Default().New(seed)}
}

// PickExcept 自 [0,n) 均勻選取一個不等於 except 的值；n < 2 回傳 -1
func (c *Core) PickExcept(n int, except int) int {
	if n < 2 {
		return -1
	}
	if except < 0 || except >= n {
		return c.IntN(n)
	}
	v := c.IntN(n - 1)
	if v >= except {
		v++
	}
	return v
}

// SampleDistinct 自 [0,n) 不重複抽取 k 個值（部分 Fisher-Yates）。
// k > n 或 k < 0 時回傳 nil。
func (c *Core) SampleDistinct(n int, k int) []int {
	if k < 0 || k > n {
		return nil
	}
	pool := make([]int, n)
	for i := range pool {
		pool[i] = i
	}
	for i := 0; i < k; i++ {
		j := i + c.IntN(n-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:k]
}
