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
	"database/sql"

	"github.com/google/uuid"
	"github.com/zintix-labs/scriptlab/errs"
	_ "modernc.org/sqlite"
)

// SQLiteSink 把事件寫進 events 表；每筆以 uuid 為主鍵
type SQLiteSink struct {
	db   *sql.DB
	stmt *sql.Stmt
}

// OpenSQLite 開啟資料庫並執行 migration。path 可為 ":memory:"
func OpenSQLite(path string) (*SQLiteSink, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errs.Wrap(err, "open sqlite failed")
	}
	// 單一連線：:memory: 每條連線各自一份資料庫
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, errs.Wrap(err, "enable WAL failed")
	}
	s := &SQLiteSink{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	s.stmt, err = db.Prepare(`INSERT INTO events
		(id, session_id, ts, event, bet_number, bet, condition, result, coin, message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		_ = db.Close()
		return nil, errs.Wrap(err, "prepare insert failed")
	}
	return s, nil
}

func (s *SQLiteSink) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS events (
			id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			ts TEXT NOT NULL,
			event TEXT NOT NULL,
			bet_number INTEGER,
			bet TEXT,
			condition TEXT,
			result TEXT,
			coin TEXT,
			message TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_events_session ON events(session_id, ts)`,
	}
	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return errs.Wrap(err, "sqlite migration failed")
		}
	}
	return nil
}

func (s *SQLiteSink) Write(r Record) error {
	row := r.Row()
	var betNumber any
	if r.BetNumber != 0 {
		betNumber = r.BetNumber
	}
	_, err := s.stmt.Exec(uuid.New().String(), r.Session, row[0], row[1], betNumber, row[3], row[4], row[5], row[6], row[7])
	if err != nil {
		return errs.Wrap(err, "sqlite insert failed")
	}
	return nil
}

// Count 某 session 的事件數（查詢用）
func (s *SQLiteSink) Count(sessionID string) (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM events WHERE session_id = ?`, sessionID).Scan(&n); err != nil {
		return 0, errs.Wrap(err, "sqlite count failed")
	}
	return n, nil
}

// Events 依時間順序回傳某 session 的事件種類
func (s *SQLiteSink) Events(sessionID string) ([]EventType, error) {
	rows, err := s.db.Query(`SELECT event FROM events WHERE session_id = ? ORDER BY ts, rowid`, sessionID)
	if err != nil {
		return nil, errs.Wrap(err, "sqlite query failed")
	}
	defer rows.Close()
	var out []EventType
	for rows.Next() {
		var e string
		if err := rows.Scan(&e); err != nil {
			return nil, errs.Wrap(err, "sqlite scan failed")
		}
		out = append(out, EventType(e))
	}
	return out, rows.Err()
}

func (s *SQLiteSink) Close() error {
	if s.stmt != nil {
		_ = s.stmt.Close()
	}
	return s.db.Close()
}
