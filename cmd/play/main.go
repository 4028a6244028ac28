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

// play 研究者在終端機上執行一場實驗：先選條件（或 TEST），再由受試者逐注下注。
package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/zintix-labs/scriptlab/researcher"
	"github.com/zintix-labs/scriptlab/script"
)

func main() {
	cfg := bindVar()
	if err := run(cfg); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cfg *config) error {
	env, err := cfg.build()
	if err != nil {
		return err
	}
	defer env.close()

	in := bufio.NewScanner(os.Stdin)
	sel, err := researcher.PromptScanner(in, os.Stdout, script.NewConditionController())
	if err != nil {
		return err
	}
	if sel.TestMode {
		return runSweep(cfg, env)
	}
	return play(cfg, env, sel.Condition, in, os.Stdout)
}
