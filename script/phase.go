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

package script

import "github.com/zintix-labs/scriptlab/errs"

// Phase 由下注序號與 phase 長度決定，不儲存
type Phase uint8

const (
	Before Phase = iota
	During
	After
)

var Phases = [...]Phase{Before, During, After}

func (p Phase) String() string {
	switch p {
	case Before:
		return "BEFORE"
	case During:
		return "DURING"
	case After:
		return "AFTER"
	default:
		return "UNKNOWN"
	}
}

func (p Phase) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

// ResolvePhase 將 1-based 下注序號對應到 phase 與 phase 內序號（1-based）。
// 超出 [1, 3*phaseLength] 回傳 OutOfRange，不做任何夾擠。
func ResolvePhase(betIndex, phaseLength int) (Phase, int, error) {
	if phaseLength <= 0 {
		return Before, 0, errs.Kindf(errs.KindConfig, "phase length must be positive, got %d", phaseLength)
	}
	if betIndex < 1 || betIndex > len(Phases)*phaseLength {
		return Before, 0, errs.Kindf(errs.KindOutOfRange, "bet index %d outside [1, %d]", betIndex, len(Phases)*phaseLength)
	}
	p := (betIndex - 1) / phaseLength
	return Phases[p], betIndex - p*phaseLength, nil
}
