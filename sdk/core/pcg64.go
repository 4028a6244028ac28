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

// The PCG algorithm is designed by Melissa O'Neill.
// The bounded generation in IntN is adapted from the Go standard library
// (math/rand), licensed under the BSD 3-Clause License.

package core

import (
	"math/bits"
	r2 "math/rand/v2"
)

// PCG64 預設圖標亂數來源
type PCG64 struct {
	rng *r2.PCG
}

// NewPCG64 seed 經 splitmix64 展開成 128-bit 狀態，相鄰 seed 也互不相關
func NewPCG64(seed int64) *PCG64 {
	x := uint64(seed) ^ 0x9e3779b97f4a7c15
	return &PCG64{rng: r2.NewPCG(splitmix64(x), splitmix64(x^0xDA942042E4DD58B5))}
}

func (r *PCG64) Uint64() uint64 {
	return r.rng.Uint64()
}

// IntN [0,n)；n <= 0 回傳 -1
func (r *PCG64) IntN(n int) int {
	if n <= 0 {
		return -1
	}
	return int(r.bounded(uint64(n)))
}

func splitmix64(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}

// bounded Lemire 乘法取高位，lo 落在偏差區才重抽
func (r *PCG64) bounded(n uint64) uint64 {
	if n&(n-1) == 0 {
		return r.Uint64() & (n - 1)
	}
	hi, lo := bits.Mul64(r.Uint64(), n)
	if lo < n {
		thresh := -n % n
		for lo < thresh {
			hi, lo = bits.Mul64(r.Uint64(), n)
		}
	}
	return hi
}
