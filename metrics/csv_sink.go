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

package metrics

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"

	"github.com/zintix-labs/scriptlab/errs"
)

// CSVSink 以 append 模式寫入 CSV；檔案新建時才寫標頭
type CSVSink struct {
	w      *csv.Writer
	closer io.Closer
}

// OpenCSV 開啟（或建立）path，必要時建立上層目錄
func OpenCSV(path string) (*CSVSink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errs.Wrap(err, "create metrics dir failed")
	}
	_, statErr := os.Stat(path)
	isNew := os.IsNotExist(statErr)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, errs.Wrap(err, "open metrics csv failed")
	}
	s := &CSVSink{w: csv.NewWriter(f), closer: f}
	if isNew {
		if err := s.writeRow(Columns); err != nil {
			_ = f.Close()
			return nil, err
		}
	}
	return s, nil
}

// NewCSVSink 寫入任意 writer，header 為 true 時先寫標頭
func NewCSVSink(w io.Writer, header bool) (*CSVSink, error) {
	s := &CSVSink{w: csv.NewWriter(w)}
	if header {
		if err := s.writeRow(Columns); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *CSVSink) Write(r Record) error {
	return s.writeRow(r.Row())
}

// writeRow 每筆立即 flush，行程中斷也不會遺失已寫入的事件
func (s *CSVSink) writeRow(row []string) error {
	if err := s.w.Write(row); err != nil {
		return errs.Wrap(err, "csv write failed")
	}
	s.w.Flush()
	if err := s.w.Error(); err != nil {
		return errs.Wrap(err, "csv flush failed")
	}
	return nil
}

func (s *CSVSink) Close() error {
	s.w.Flush()
	if s.closer != nil {
		return s.closer.Close()
	}
	return s.w.Error()
}
