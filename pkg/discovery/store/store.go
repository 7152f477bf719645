// Package store persists the tool index in SQLite: one row per indexed
// service (embedding included) and one row per tool on that service. It
// replaces the original FAISS-index-plus-JSON-sidecar pair with a single
// file so the vector rows and the metadata they describe are always read
// back together, under one lock, from one consistent view of the database.
package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pressly/goose/v3"

	// Registers the "sqlite" driver used by sql.Open below.
	_ "modernc.org/sqlite"

	"github.com/mcp-gateway-registry/core/pkg/logger"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Store wraps the SQLite handle backing the tool index and tracks the
// on-disk file's mtime so Reload is a cheap no-op between ingests.
type Store struct {
	db   *sql.DB
	path string

	mu        sync.Mutex
	lastMtime time.Time

	snapshot atomic.Pointer[Index]
}

// Open opens (creating if absent) the SQLite database at path, runs
// migrations, and performs an initial Reload.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", "file:"+path+"?_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)")
	if err != nil {
		return nil, fmt.Errorf("discovery: failed to open store at %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		db.Close()
		return nil, fmt.Errorf("discovery: failed to set migration dialect: %w", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		db.Close()
		return nil, fmt.Errorf("discovery: failed to run migrations: %w", err)
	}

	s := &Store{db: db, path: path}
	s.snapshot.Store(emptyIndex())

	if err := s.Reload(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Snapshot returns the most recently loaded Index. It never blocks on a
// concurrent Reload.
func (s *Store) Snapshot() *Index {
	return s.snapshot.Load()
}

// Reload re-reads both tables in one transaction when the database file's
// mtime has advanced past what was last loaded, then atomically publishes
// the result. It is a no-op when the file is unchanged.
func (s *Store) Reload(ctx context.Context) error {
	info, err := os.Stat(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("discovery: failed to stat store file: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !info.ModTime().After(s.lastMtime) {
		return nil
	}

	idx, err := s.load(ctx)
	if err != nil {
		return err
	}

	s.snapshot.Store(idx)
	s.lastMtime = info.ModTime()
	logger.Infof("discovery: tool index reloaded (%d services)", idx.VectorCount())
	return nil
}

func (s *Store) load(ctx context.Context) (*Index, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("discovery: failed to begin load transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	idx := emptyIndex()

	rows, err := tx.QueryContext(ctx, `SELECT id, service_path, server_name, is_enabled, embedding FROM servers`)
	if err != nil {
		return nil, fmt.Errorf("discovery: failed to query servers: %w", err)
	}
	type serverRow struct {
		id          int
		servicePath string
		serverName  string
		isEnabled   bool
	}
	var serverRows []serverRow
	for rows.Next() {
		var r serverRow
		var blob []byte
		if err := rows.Scan(&r.id, &r.servicePath, &r.serverName, &r.isEnabled, &blob); err != nil {
			rows.Close()
			return nil, fmt.Errorf("discovery: failed to scan server row: %w", err)
		}
		vec, err := decodeVector(blob)
		if err != nil {
			rows.Close()
			return nil, err
		}
		idx.IDToServicePath[r.id] = r.servicePath
		idx.Vectors[r.id] = vec
		idx.Metadata[r.servicePath] = ServerInfo{ServerName: r.serverName, IsEnabled: r.isEnabled}
		serverRows = append(serverRows, r)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	toolRows, err := tx.QueryContext(ctx, `SELECT service_path, name, parsed_description, schema FROM tools ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("discovery: failed to query tools: %w", err)
	}
	defer toolRows.Close()

	for toolRows.Next() {
		var servicePath, name, parsedDesc, schemaText string
		if err := toolRows.Scan(&servicePath, &name, &parsedDesc, &schemaText); err != nil {
			return nil, fmt.Errorf("discovery: failed to scan tool row: %w", err)
		}
		server, ok := idx.Metadata[servicePath]
		if !ok {
			continue
		}
		server.ToolList = append(server.ToolList, ToolInfo{
			Name:              name,
			ParsedDescription: parsedDesc,
			Schema:            json.RawMessage(schemaText),
		})
		idx.Metadata[servicePath] = server
	}
	if err := toolRows.Err(); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("discovery: failed to commit load transaction: %w", err)
	}
	return idx, nil
}

// UpsertServer inserts or replaces the row for a service, keyed by its
// stable position id. It does not itself trigger a Reload; callers decide
// when to observe a new snapshot.
func (s *Store) UpsertServer(ctx context.Context, id int, servicePath, serverName string, isEnabled bool, text string, embedding []float32) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO servers (id, service_path, server_name, is_enabled, text, embedding, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			service_path = excluded.service_path,
			server_name = excluded.server_name,
			is_enabled = excluded.is_enabled,
			text = excluded.text,
			embedding = excluded.embedding,
			updated_at = excluded.updated_at
	`, id, servicePath, serverName, isEnabled, text, encodeVector(embedding), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("discovery: failed to upsert server %s: %w", servicePath, err)
	}
	return nil
}

// ReplaceTools deletes any existing tool rows for servicePath and inserts
// tools in their given order.
func (s *Store) ReplaceTools(ctx context.Context, servicePath string, tools []ToolInfo) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("discovery: failed to begin tool replace transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM tools WHERE service_path = ?`, servicePath); err != nil {
		return fmt.Errorf("discovery: failed to clear tools for %s: %w", servicePath, err)
	}
	for _, t := range tools {
		schema := t.Schema
		if schema == nil {
			schema = json.RawMessage("{}")
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO tools (service_path, name, parsed_description, schema) VALUES (?, ?, ?, ?)`,
			servicePath, t.Name, t.ParsedDescription, string(schema)); err != nil {
			return fmt.Errorf("discovery: failed to insert tool %s for %s: %w", t.Name, servicePath, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("discovery: failed to commit tool replace transaction: %w", err)
	}
	return nil
}
