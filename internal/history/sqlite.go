package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	_ "modernc.org/sqlite"
)

var tracer = otel.Tracer("history")

const memoryPath = ":memory:"

// SQLiteStore persists history in a single SQLite table. Every call runs on
// its own connection checked out of the pool and returned before the call
// ends, whether it succeeded or not.
type SQLiteStore struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

// Init opens the database and creates the history table if it is absent.
func (s *SQLiteStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("sqlite path is required")
	}
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", dataSourceName(s.path))
	if err != nil {
		return err
	}
	// Each connection to ":memory:" is its own database.
	if s.path == memoryPath {
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}

	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return err
	}

	s.db = db
	return nil
}

func (s *SQLiteStore) Append(ctx context.Context, rec Record) (Record, error) {
	ctx, span := startSpan(ctx, "history.append")
	defer span.End()

	inputs := rec.Inputs
	if inputs == nil {
		inputs = []float64{}
	}
	payload, err := json.Marshal(inputs)
	if err != nil {
		return Record{}, s.fail(span, "append", fmt.Errorf("%w: encode inputs: %w", ErrPersistence, err))
	}

	var id int64
	err = s.withConn(ctx, func(conn *sql.Conn) error {
		res, err := conn.ExecContext(ctx,
			`INSERT INTO history (inputs, operation, result) VALUES (?, ?, ?)`,
			string(payload), rec.Operation, rec.Result,
		)
		if err != nil {
			return err
		}
		id, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return Record{}, s.fail(span, "append", err)
	}

	rec.ID = id
	rec.Inputs = append([]float64(nil), inputs...)
	span.SetAttributes(attribute.Int64("history.record.id", id))
	storeOps.WithLabelValues("append", "ok").Inc()
	return rec, nil
}

func (s *SQLiteStore) ListAll(ctx context.Context) ([]Record, error) {
	ctx, span := startSpan(ctx, "history.list")
	defer span.End()

	out := []Record{}
	err := s.withConn(ctx, func(conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx,
			`SELECT id, inputs, operation, result FROM history ORDER BY id DESC`,
		)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var (
				rec     Record
				payload string
			)
			if err := rows.Scan(&rec.ID, &payload, &rec.Operation, &rec.Result); err != nil {
				return err
			}
			if err := json.Unmarshal([]byte(payload), &rec.Inputs); err != nil {
				return fmt.Errorf("decode inputs of record %d: %w", rec.ID, err)
			}
			out = append(out, rec)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, s.fail(span, "list", err)
	}

	span.SetAttributes(attribute.Int("history.records", len(out)))
	storeOps.WithLabelValues("list", "ok").Inc()
	return out, nil
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// withConn runs fn on a dedicated connection and always releases it.
func (s *SQLiteStore) withConn(ctx context.Context, fn func(*sql.Conn) error) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	conn, err := db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("%w: acquire connection: %w", ErrPersistence, err)
	}
	defer conn.Close()

	if err := fn(conn); err != nil {
		if errors.Is(err, ErrPersistence) {
			return err
		}
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	return nil
}

func (s *SQLiteStore) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, errNotInitialized
	}
	return s.db, nil
}

// dataSourceName adds the busy timeout pragma to path, which may be a plain
// file name or a URI that already carries query parameters.
func dataSourceName(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_pragma=busy_timeout(5000)"
}

func (s *SQLiteStore) fail(span trace.Span, op string, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	storeOps.WithLabelValues(op, "error").Inc()
	return err
}

func startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return tracer.Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("db.system", "sqlite")),
	)
}

func createTables(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`PRAGMA journal_mode=WAL;`,
		`CREATE TABLE IF NOT EXISTS history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			inputs TEXT NOT NULL DEFAULT '[]',
			operation TEXT NOT NULL,
			result REAL NOT NULL
		);`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
