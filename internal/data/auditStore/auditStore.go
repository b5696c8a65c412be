package auditStore

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"time"
	"unicode/utf8"

	"github.com/akolanti/MLServe/internal/config"
	"github.com/akolanti/MLServe/internal/domain/commonModels"
	"github.com/akolanti/MLServe/pkg/logger_i"
	_ "modernc.org/sqlite"
)

// Store keeps one row per served inference request
type Store struct {
	db     *sql.DB
	logger *logger_i.Logger
}

func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
			return nil, err
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)

	s := &Store{db: db, logger: logger_i.NewLogger("AuditStore")}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS audit_records (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  kind TEXT NOT NULL,
  trace_id TEXT NOT NULL DEFAULT '',
  input TEXT NOT NULL DEFAULT '',
  output TEXT NOT NULL DEFAULT '',
  latency_ms INTEGER NOT NULL DEFAULT 0,
  created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_audit_kind_created ON audit_records(kind, created_at);
`)
	return err
}

func (s *Store) Insert(ctx context.Context, r commonModels.AuditRecord) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	res, err := s.db.ExecContext(ctx, `
INSERT INTO audit_records(kind, trace_id, input, output, latency_ms, created_at)
VALUES(?, ?, ?, ?, ?, ?);
`, string(r.Kind), r.TraceId, truncate(r.Input), truncate(r.Output), r.LatencyMs, r.CreatedAt.UnixMilli())
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// History returns the newest records first. An empty kind matches every kind.
func (s *Store) History(ctx context.Context, kind commonModels.AuditKind, limit int) ([]commonModels.AuditRecord, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = config.DefaultHistoryLimit
	}
	if limit > config.MaxHistoryLimit {
		limit = config.MaxHistoryLimit
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT id, kind, trace_id, input, output, latency_ms, created_at
FROM audit_records
WHERE (? = '' OR kind = ?)
ORDER BY created_at DESC, id DESC
LIMIT ?;
`, string(kind), string(kind), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]commonModels.AuditRecord, 0)
	for rows.Next() {
		var r commonModels.AuditRecord
		var k string
		var created int64
		if err := rows.Scan(&r.Id, &k, &r.TraceId, &r.Input, &r.Output, &r.LatencyMs, &created); err != nil {
			return nil, err
		}
		r.Kind = commonModels.AuditKind(k)
		r.CreatedAt = time.UnixMilli(created)
		out = append(out, r)
	}
	return out, rows.Err()
}

// Record marshals input and output and inserts them. Failures are logged and swallowed.
func (s *Store) Record(ctx context.Context, kind commonModels.AuditKind, input any, output any, latency time.Duration) {
	if s == nil || s.db == nil {
		return
	}
	traceId, _ := ctx.Value(config.TRACE_ID_KEY).(string)
	record := commonModels.AuditRecord{
		Kind:      kind,
		TraceId:   traceId,
		Input:     toJSON(input),
		Output:    toJSON(output),
		LatencyMs: latency.Milliseconds(),
	}
	if _, err := s.Insert(ctx, record); err != nil {
		s.logger.WithTrace(ctx).Error("Failed to write audit record", "kind", kind, "error", err)
	}
}

func toJSON(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	}
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(data)
}

func truncate(s string) string {
	if len(s) <= config.AuditPayloadMaxBytes {
		return s
	}
	cut := config.AuditPayloadMaxBytes
	// back off to the start of a rune so the stored text stays valid UTF-8
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
