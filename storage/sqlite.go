// Package storage provides SQLite project storage.
//
// Information Hiding:
// - SQLite connection management hidden behind interface
// - Schema details encapsulated
// - Thread-safe via sql.DB's built-in connection pooling

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/richinex/motifmap/model"
)

// Record kinds and coordinate spaces as stored in the database.
const (
	kindHit   = "hit"
	kindQuery = "query"

	spaceRaw     = "raw"
	spaceAligned = "aligned"
)

// SqliteStorage implements ProjectStorage using SQLite.
// Thread-safe: sql.DB handles connection pooling and concurrent access.
type SqliteStorage struct {
	db *sql.DB
}

// OpenSqlite opens or creates a SQLite database at the given path.
// Creates parent directories if they don't exist.
func OpenSqlite(path string) (*SqliteStorage, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	return newSqliteStorage(db)
}

// NewSqliteInMemory creates an in-memory database (useful for testing).
func NewSqliteInMemory() (*SqliteStorage, error) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory SQLite: %w", err)
	}
	// Every connection to ":memory:" is a separate database.
	db.SetMaxOpenConns(1)

	return newSqliteStorage(db)
}

func newSqliteStorage(db *sql.DB) (*SqliteStorage, error) {
	storage := &SqliteStorage{db: db}
	if err := storage.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return storage, nil
}

// Close closes the database connection.
func (s *SqliteStorage) Close() error {
	return s.db.Close()
}

func (s *SqliteStorage) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS projects (
			project_id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			updated_at TEXT NOT NULL DEFAULT (datetime('now')),
			catalog_fingerprint TEXT NOT NULL,
			min_aligned_length INTEGER NOT NULL,
			exclude_high_frequency INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS project_queries (
			project_id TEXT NOT NULL,
			position INTEGER NOT NULL,
			query_id TEXT NOT NULL,
			PRIMARY KEY (project_id, position)
		);

		CREATE TABLE IF NOT EXISTS records (
			project_id TEXT NOT NULL,
			record_key INTEGER NOT NULL,
			kind TEXT NOT NULL,
			record_id TEXT NOT NULL,
			query_id TEXT NOT NULL,
			hit_index INTEGER NOT NULL DEFAULT 0,
			original TEXT NOT NULL DEFAULT '',
			trimmed TEXT NOT NULL DEFAULT '',
			evalue REAL NOT NULL DEFAULT 0,
			coverage REAL NOT NULL DEFAULT 0,
			identity REAL NOT NULL DEFAULT 0,
			qstart INTEGER NOT NULL DEFAULT 0,
			qend INTEGER NOT NULL DEFAULT 0,
			sequence TEXT NOT NULL DEFAULT '',
			gapped TEXT NOT NULL DEFAULT '',
			has_alignment INTEGER NOT NULL,
			state TEXT NOT NULL,
			PRIMARY KEY (project_id, record_key)
		);

		CREATE TABLE IF NOT EXISTS spans (
			project_id TEXT NOT NULL,
			record_key INTEGER NOT NULL,
			space TEXT NOT NULL,
			position INTEGER NOT NULL,
			accession TEXT NOT NULL,
			span_start INTEGER NOT NULL,
			span_end INTEGER NOT NULL,
			PRIMARY KEY (project_id, record_key, space, position)
		);

		CREATE TABLE IF NOT EXISTS segments (
			project_id TEXT NOT NULL,
			record_key INTEGER NOT NULL,
			position INTEGER NOT NULL,
			seg_start INTEGER NOT NULL,
			seg_end INTEGER NOT NULL,
			PRIMARY KEY (project_id, record_key, position)
		);

		CREATE TABLE IF NOT EXISTS motif_names (
			project_id TEXT NOT NULL,
			accession TEXT NOT NULL,
			name TEXT NOT NULL,
			PRIMARY KEY (project_id, accession)
		);

		CREATE INDEX IF NOT EXISTS idx_spans_accession
		ON spans(project_id, accession);
	`

	_, err := s.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// childTables hold per-project rows and are cleared before a save or on delete.
var childTables = []string{"project_queries", "records", "spans", "segments", "motif_names"}

func deleteChildren(ctx context.Context, tx *sql.Tx, projectID string) error {
	for _, table := range childTables {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE project_id = ?", projectID); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	return nil
}

// Save stores a project, replacing any previous version with the same id.
func (s *SqliteStorage) Save(ctx context.Context, p *Project) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	// defer tx.Rollback() is safe even after Commit() - it becomes a no-op
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO projects
		(project_id, name, created_at, catalog_fingerprint, min_aligned_length, exclude_high_frequency)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(project_id) DO UPDATE SET
			name = excluded.name,
			catalog_fingerprint = excluded.catalog_fingerprint,
			min_aligned_length = excluded.min_aligned_length,
			exclude_high_frequency = excluded.exclude_high_frequency,
			updated_at = datetime('now')`,
		p.ID, p.Name, p.CreatedAt.Unix(), p.CatalogFingerprint, p.MinAlignedLength, boolToInt(p.ExcludeHighFrequency))
	if err != nil {
		return fmt.Errorf("failed to store project: %w", err)
	}

	if err := deleteChildren(ctx, tx, p.ID); err != nil {
		return err
	}

	w, err := newProjectWriter(ctx, tx, p.ID)
	if err != nil {
		return err
	}
	defer w.close()

	for i, q := range p.Queries {
		if _, err := w.query.ExecContext(ctx, p.ID, i, q); err != nil {
			return fmt.Errorf("failed to insert query: %w", err)
		}
	}

	key := 0
	for _, h := range p.Hits {
		snap := h.Snapshot()
		_, err := w.record.ExecContext(ctx,
			p.ID, key, kindHit, h.SubjectID, h.QueryID, h.Index,
			h.Original, h.Trimmed, h.EValue, h.QueryCoverage, h.Identity, h.QStart, h.QEnd,
			"", snap.Gapped, boolToInt(snap.HasAlignment), snap.State.String())
		if err != nil {
			return fmt.Errorf("failed to insert hit %s: %w", h.SubjectID, err)
		}
		if err := w.annotations(ctx, key, snap); err != nil {
			return err
		}
		key++
	}
	for _, q := range p.QuerySeqs {
		snap := q.Snapshot()
		_, err := w.record.ExecContext(ctx,
			p.ID, key, kindQuery, q.ID, q.ID, 0,
			"", "", 0.0, 0.0, 0.0, 0, 0,
			q.Sequence, snap.Gapped, boolToInt(snap.HasAlignment), snap.State.String())
		if err != nil {
			return fmt.Errorf("failed to insert query sequence %s: %w", q.ID, err)
		}
		if err := w.annotations(ctx, key, snap); err != nil {
			return err
		}
		key++
	}

	for acc, name := range p.Names {
		if _, err := w.name.ExecContext(ctx, p.ID, acc, name); err != nil {
			return fmt.Errorf("failed to insert motif name: %w", err)
		}
	}

	w.close()
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// projectWriter holds the prepared inserts used by Save.
type projectWriter struct {
	projectID string
	query     *sql.Stmt
	record    *sql.Stmt
	span      *sql.Stmt
	segment   *sql.Stmt
	name      *sql.Stmt
}

func newProjectWriter(ctx context.Context, tx *sql.Tx, projectID string) (*projectWriter, error) {
	w := &projectWriter{projectID: projectID}
	stmts := []struct {
		dst   **sql.Stmt
		query string
	}{
		{&w.query, "INSERT INTO project_queries (project_id, position, query_id) VALUES (?, ?, ?)"},
		{&w.record, `INSERT INTO records
			(project_id, record_key, kind, record_id, query_id, hit_index,
			 original, trimmed, evalue, coverage, identity, qstart, qend,
			 sequence, gapped, has_alignment, state)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`},
		{&w.span, `INSERT INTO spans
			(project_id, record_key, space, position, accession, span_start, span_end)
			VALUES (?, ?, ?, ?, ?, ?, ?)`},
		{&w.segment, "INSERT INTO segments (project_id, record_key, position, seg_start, seg_end) VALUES (?, ?, ?, ?, ?)"},
		{&w.name, "INSERT INTO motif_names (project_id, accession, name) VALUES (?, ?, ?)"},
	}
	for _, st := range stmts {
		prepared, err := tx.PrepareContext(ctx, st.query)
		if err != nil {
			w.close()
			return nil, fmt.Errorf("failed to prepare insert statement: %w", err)
		}
		*st.dst = prepared
	}
	return w, nil
}

func (w *projectWriter) annotations(ctx context.Context, key int, snap model.AnnotationSnapshot) error {
	for space, spans := range map[string][]model.DomainSpan{spaceRaw: snap.Domains, spaceAligned: snap.AlignedDomains} {
		for i, d := range spans {
			if _, err := w.span.ExecContext(ctx, w.projectID, key, space, i, d.Accession, d.Start, d.End); err != nil {
				return fmt.Errorf("failed to insert span: %w", err)
			}
		}
	}
	for i, seg := range snap.Segments {
		if _, err := w.segment.ExecContext(ctx, w.projectID, key, i, seg.Start, seg.End); err != nil {
			return fmt.Errorf("failed to insert segment: %w", err)
		}
	}
	return nil
}

// close is idempotent so it can be both deferred and called before commit.
func (w *projectWriter) close() {
	for _, st := range []**sql.Stmt{&w.query, &w.record, &w.span, &w.segment, &w.name} {
		if *st != nil {
			(*st).Close()
			*st = nil
		}
	}
}

// Load returns a saved project or ErrProjectNotFound.
func (s *SqliteStorage) Load(ctx context.Context, id string) (*Project, error) {
	p := &Project{ID: id, Names: make(map[string]string)}

	var createdAt int64
	var exclude int
	err := s.db.QueryRowContext(ctx, `
		SELECT name, created_at, catalog_fingerprint, min_aligned_length, exclude_high_frequency
		FROM projects WHERE project_id = ?`, id).
		Scan(&p.Name, &createdAt, &p.CatalogFingerprint, &p.MinAlignedLength, &exclude)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrProjectNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query project: %w", err)
	}
	p.CreatedAt = time.Unix(createdAt, 0)
	p.ExcludeHighFrequency = exclude != 0

	if p.Queries, err = s.loadQueries(ctx, id); err != nil {
		return nil, err
	}
	snapshots, err := s.loadRecords(ctx, p)
	if err != nil {
		return nil, err
	}
	if err := s.loadSpans(ctx, id, snapshots); err != nil {
		return nil, err
	}
	if err := s.loadSegments(ctx, id, snapshots); err != nil {
		return nil, err
	}
	if err := s.loadNames(ctx, p); err != nil {
		return nil, err
	}

	for _, rec := range snapshots {
		rec.target.Restore(rec.snap)
	}
	return p, nil
}

// pendingRecord collects a record's annotations across the child tables
// before they are restored in one step.
type pendingRecord struct {
	target *model.Annotations
	snap   model.AnnotationSnapshot
}

func (s *SqliteStorage) loadQueries(ctx context.Context, id string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT query_id FROM project_queries WHERE project_id = ? ORDER BY position ASC", id)
	if err != nil {
		return nil, fmt.Errorf("failed to query project queries: %w", err)
	}
	defer rows.Close()

	queries := []string{} // Start with empty slice, not nil
	for rows.Next() {
		var q string
		if err := rows.Scan(&q); err != nil {
			return nil, fmt.Errorf("failed to scan query: %w", err)
		}
		queries = append(queries, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating queries: %w", err)
	}
	return queries, nil
}

func (s *SqliteStorage) loadRecords(ctx context.Context, p *Project) (map[int]*pendingRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT record_key, kind, record_id, query_id, hit_index, original, trimmed,
		       evalue, coverage, identity, qstart, qend, sequence, gapped, has_alignment, state
		FROM records WHERE project_id = ? ORDER BY record_key ASC`, p.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	pending := make(map[int]*pendingRecord)
	for rows.Next() {
		var (
			key          int
			kind, state  string
			hasAlignment int
			h            model.Hit
			sequence     string
			snap         model.AnnotationSnapshot
		)
		err := rows.Scan(&key, &kind, &h.SubjectID, &h.QueryID, &h.Index, &h.Original, &h.Trimmed,
			&h.EValue, &h.QueryCoverage, &h.Identity, &h.QStart, &h.QEnd,
			&sequence, &snap.Gapped, &hasAlignment, &state)
		if err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		snap.HasAlignment = hasAlignment != 0
		if snap.State, err = model.ParseAnnotationState(state); err != nil {
			// Invalid state in database indicates data corruption or schema mismatch.
			return nil, fmt.Errorf("invalid record state in database: %w", err)
		}

		switch kind {
		case kindHit:
			hit := model.NewHit(nil, h)
			p.Hits = append(p.Hits, hit)
			pending[key] = &pendingRecord{target: &hit.Annotations, snap: snap}
		case kindQuery:
			q := model.NewQuerySequence(h.SubjectID, sequence)
			p.QuerySeqs = append(p.QuerySeqs, q)
			pending[key] = &pendingRecord{target: &q.Annotations, snap: snap}
		default:
			return nil, fmt.Errorf("invalid record kind %q in database", kind)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating records: %w", err)
	}
	return pending, nil
}

func (s *SqliteStorage) loadSpans(ctx context.Context, id string, pending map[int]*pendingRecord) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT record_key, space, accession, span_start, span_end
		FROM spans WHERE project_id = ? ORDER BY record_key, space, position`, id)
	if err != nil {
		return fmt.Errorf("failed to query spans: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key int
		var space string
		var d model.DomainSpan
		if err := rows.Scan(&key, &space, &d.Accession, &d.Start, &d.End); err != nil {
			return fmt.Errorf("failed to scan span: %w", err)
		}
		rec, ok := pending[key]
		if !ok {
			return fmt.Errorf("span references unknown record %d", key)
		}
		switch space {
		case spaceRaw:
			rec.snap.Domains = append(rec.snap.Domains, d)
		case spaceAligned:
			rec.snap.AlignedDomains = append(rec.snap.AlignedDomains, d)
		default:
			return fmt.Errorf("invalid span space %q in database", space)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating spans: %w", err)
	}
	return nil
}

func (s *SqliteStorage) loadSegments(ctx context.Context, id string, pending map[int]*pendingRecord) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT record_key, seg_start, seg_end
		FROM segments WHERE project_id = ? ORDER BY record_key, position`, id)
	if err != nil {
		return fmt.Errorf("failed to query segments: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key int
		var seg model.Segment
		if err := rows.Scan(&key, &seg.Start, &seg.End); err != nil {
			return fmt.Errorf("failed to scan segment: %w", err)
		}
		rec, ok := pending[key]
		if !ok {
			return fmt.Errorf("segment references unknown record %d", key)
		}
		rec.snap.Segments = append(rec.snap.Segments, seg)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating segments: %w", err)
	}
	return nil
}

func (s *SqliteStorage) loadNames(ctx context.Context, p *Project) error {
	rows, err := s.db.QueryContext(ctx,
		"SELECT accession, name FROM motif_names WHERE project_id = ?", p.ID)
	if err != nil {
		return fmt.Errorf("failed to query motif names: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var acc, name string
		if err := rows.Scan(&acc, &name); err != nil {
			return fmt.Errorf("failed to scan motif name: %w", err)
		}
		p.Names[acc] = name
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating motif names: %w", err)
	}
	return nil
}

// Delete removes a project and all its rows.
func (s *SqliteStorage) Delete(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := deleteChildren(ctx, tx, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM projects WHERE project_id = ?", id); err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ListProjects lists saved projects, newest first.
func (s *SqliteStorage) ListProjects(ctx context.Context) ([]ProjectInfo, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT project_id, name, created_at FROM projects ORDER BY created_at DESC, project_id ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to query projects: %w", err)
	}
	defer rows.Close()

	projects := []ProjectInfo{} // Start with empty slice, not nil
	for rows.Next() {
		var info ProjectInfo
		var createdAt int64
		if err := rows.Scan(&info.ID, &info.Name, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		info.CreatedAt = time.Unix(createdAt, 0)
		projects = append(projects, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating projects: %w", err)
	}
	return projects, nil
}

// Exists checks if a project exists.
func (s *SqliteStorage) Exists(ctx context.Context, id string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM projects WHERE project_id = ?", id).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check project existence: %w", err)
	}
	return count > 0, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Verify SqliteStorage implements ProjectStorage
var _ ProjectStorage = (*SqliteStorage)(nil)
