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

// Package perf sweep CLI 的 pprof 包裝。
package perf

import (
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"
	"strings"

	"github.com/zintix-labs/scriptlab/errs"
)

// DefaultDir pprof 檔案寫入路徑
const DefaultDir = "build/profiling"

// RunPProf 依 mode 包住 exe；未知 mode 回傳 Warn 且不執行
func RunPProf(exe func() error, mode string, dir string) error {
	if dir == "" {
		dir = DefaultDir
	}
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "":
		return exe()
	case "cpu":
		return ProfileCPU(exe, dir)
	case "heap":
		return ProfileHeap(exe, dir)
	case "allocs":
		return ProfileAllocs(exe, dir)
	default:
		return errs.Warnf("unknown pprof mode %q (want one of cpu, heap, allocs)", mode)
	}
}

func create(dir, name string) (*os.File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errs.Wrap(err, "create pprof dir failed")
	}
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return nil, errs.Wrap(err, "create "+name+" failed")
	}
	return f, nil
}

func ProfileCPU(exe func() error, dir string) error {
	f, err := create(dir, "cpu.pprof")
	if err != nil {
		return err
	}
	defer f.Close()
	if err := pprof.StartCPUProfile(f); err != nil {
		return errs.Wrap(err, "start cpu profile failed")
	}
	defer pprof.StopCPUProfile()
	return exe()
}

// ProfileHeap 先執行再拍快照
func ProfileHeap(exe func() error, dir string) error {
	if err := exe(); err != nil {
		return err
	}
	runtime.GC()
	f, err := create(dir, "heap.pprof")
	if err != nil {
		return err
	}
	defer f.Close()
	if err := pprof.WriteHeapProfile(f); err != nil {
		return errs.Wrap(err, "write heap profile failed")
	}
	return nil
}

func ProfileAllocs(exe func() error, dir string) error {
	if err := exe(); err != nil {
		return err
	}
	f, err := create(dir, "allocs.pprof")
	if err != nil {
		return err
	}
	defer f.Close()
	if prof := pprof.Lookup("allocs"); prof != nil {
		if err := prof.WriteTo(f, 0); err != nil {
			return errs.Wrap(err, "write allocs profile failed")
		}
	}
	return nil
}
