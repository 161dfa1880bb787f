package db

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mithrel/muse/pkg/api"
)

type sqliteStore struct{ db *sql.DB }

// openSQLite connects to a SQLite database using modernc.org/sqlite driver and ensures schema exists.
func openSQLite(ctx context.Context, dsn string) (*Store, io.Closer, error) {
	path := strings.TrimPrefix(dsn, "sqlite://")
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, nil, err
	}
	dbh, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, nil, err
	}
	// set WAL mode
	if _, err := dbh.ExecContext(ctx, `PRAGMA journal_mode=WAL;`); err != nil {
		_ = dbh.Close()
		return nil, nil, err
	}
	// enforce foreign keys
	if _, err := dbh.ExecContext(ctx, `PRAGMA foreign_keys=ON;`); err != nil {
		_ = dbh.Close()
		return nil, nil, err
	}
	if _, err := dbh.ExecContext(ctx, `PRAGMA busy_timeout=5000;`); err != nil {
		_ = dbh.Close()
		return nil, nil, err
	}
	if err := migrate(ctx, dbh); err != nil {
		_ = dbh.Close()
		return nil, nil, err
	}
	s := &sqliteStore{db: dbh}
	st := &Store{Users: s, Documents: s, Collaborators: s, Events: s}
	return st, dbh, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE COLLATE NOCASE,
  password_hash TEXT NOT NULL,
  created_at TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS documents (
  id TEXT PRIMARY KEY,
  owner_id TEXT NOT NULL,
  version INTEGER NOT NULL,
  title TEXT NOT NULL,
  content TEXT NOT NULL,
  created_at TIMESTAMP NOT NULL,
  updated_at TIMESTAMP NOT NULL,
  FOREIGN KEY(owner_id) REFERENCES users(id) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_documents_owner_updated ON documents(owner_id, updated_at DESC, id);
CREATE TABLE IF NOT EXISTS collaborators (
  id TEXT PRIMARY KEY,
  document_id TEXT NOT NULL,
  user_id TEXT NOT NULL,
  permission TEXT NOT NULL,
  created_at TIMESTAMP NOT NULL,
  UNIQUE(document_id, user_id),
  FOREIGN KEY(document_id) REFERENCES documents(id) ON DELETE CASCADE,
  FOREIGN KEY(user_id) REFERENCES users(id) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_collaborators_user ON collaborators(user_id, document_id);
-- History survives document deletion.
CREATE TABLE IF NOT EXISTS document_events (
  time TIMESTAMP NOT NULL,
  type TEXT NOT NULL,
  document_id TEXT NOT NULL,
  user_id TEXT NOT NULL,
  version INTEGER NOT NULL,
  hash TEXT NOT NULL DEFAULT '',
  detail TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_document_events_doc_time ON document_events(document_id, time DESC);
CREATE VIRTUAL TABLE IF NOT EXISTS documents_fts USING fts5(
  title, content,
  id UNINDEXED,
  tokenize='unicode61'
);
`)
	return err
}

// Users

func (s *sqliteStore) CreateUser(ctx context.Context, u api.User, passwordHash string) (api.User, error) {
	if u.ID == "" {
		return api.User{}, ErrConflict
	}
	if _, err := s.db.ExecContext(ctx, `INSERT INTO users(id, email, password_hash, created_at) VALUES(?,?,?,?)`,
		u.ID, u.Email, passwordHash, u.CreatedAt.UTC()); err != nil {
		if isUniqueViolation(err) {
			return api.User{}, ErrConflict
		}
		return api.User{}, err
	}
	return u, nil
}

func (s *sqliteStore) GetUser(ctx context.Context, id string) (api.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx, `SELECT id, email, created_at FROM users WHERE id=?`, id))
}

func (s *sqliteStore) GetUserByEmail(ctx context.Context, email string) (api.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx, `SELECT id, email, created_at FROM users WHERE email=?`, strings.TrimSpace(email)))
}

func (s *sqliteStore) scanUser(row *sql.Row) (api.User, error) {
	var u api.User
	if err := row.Scan(&u.ID, &u.Email, &u.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return api.User{}, ErrNotFound
		}
		return api.User{}, err
	}
	return u, nil
}

func (s *sqliteStore) PasswordHash(ctx context.Context, id string) (string, error) {
	var h string
	if err := s.db.QueryRowContext(ctx, `SELECT password_hash FROM users WHERE id=?`, id).Scan(&h); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}
	return h, nil
}

// Documents

func (s *sqliteStore) GetDocument(ctx context.Context, id string) (api.Document, error) {
	var d api.Document
	row := s.db.QueryRowContext(ctx, `SELECT id, owner_id, version, title, content, created_at, updated_at FROM documents WHERE id=?`, id)
	if err := row.Scan(&d.ID, &d.OwnerID, &d.Version, &d.Title, &d.Content, &d.CreatedAt, &d.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return api.Document{}, ErrNotFound
		}
		return api.Document{}, err
	}
	return d, nil
}

func (s *sqliteStore) CreateDocument(ctx context.Context, d api.Document) (api.Document, error) {
	if d.ID == "" {
		return api.Document{}, ErrConflict
	}
	if d.Version == 0 {
		d.Version = 1
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return api.Document{}, err
	}
	defer tx.Rollback()

	if _, err = tx.ExecContext(ctx, `INSERT INTO documents(id, owner_id, version, title, content, created_at, updated_at) VALUES(?,?,?,?,?,?,?)`,
		d.ID, d.OwnerID, d.Version, d.Title, d.Content, d.CreatedAt.UTC(), d.UpdatedAt.UTC()); err != nil {
		if isUniqueViolation(err) {
			err = ErrConflict
		}
		return api.Document{}, err
	}
	if _, err = tx.ExecContext(ctx, `INSERT INTO documents_fts(title, content, id) VALUES(?,?,?)`, d.Title, d.Content, d.ID); err != nil {
		return api.Document{}, err
	}
	if err = appendEventTx(ctx, tx, api.Event{Time: d.CreatedAt, Type: api.EventCreate, DocumentID: d.ID, UserID: actorOr(ctx, d.OwnerID), Version: d.Version, Hash: d.Hash()}); err != nil {
		return api.Document{}, err
	}
	if err := tx.Commit(); err != nil {
		return api.Document{}, err
	}
	return d, nil
}

// UpdateDocumentCAS writes d only if the stored version is still ifVersion.
// The caller chooses d.Version; normally ifVersion+1.
func (s *sqliteStore) UpdateDocumentCAS(ctx context.Context, d api.Document, ifVersion int64) (api.Document, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return api.Document{}, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `UPDATE documents SET version=?, title=?, content=?, updated_at=? WHERE id=? AND version=?`,
		d.Version, d.Title, d.Content, d.UpdatedAt.UTC(), d.ID, ifVersion)
	if err != nil {
		return api.Document{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var exists int
		if err := tx.QueryRowContext(ctx, `SELECT 1 FROM documents WHERE id=?`, d.ID).Scan(&exists); errors.Is(err, sql.ErrNoRows) {
			return api.Document{}, ErrNotFound
		}
		return api.Document{}, ErrConflict
	}

	// Read back current document
	var nd api.Document
	row := tx.QueryRowContext(ctx, `SELECT id, owner_id, version, title, content, created_at, updated_at FROM documents WHERE id=?`, d.ID)
	if err = row.Scan(&nd.ID, &nd.OwnerID, &nd.Version, &nd.Title, &nd.Content, &nd.CreatedAt, &nd.UpdatedAt); err != nil {
		return api.Document{}, err
	}

	// Refresh FTS
	if _, err = tx.ExecContext(ctx, `DELETE FROM documents_fts WHERE id=?`, nd.ID); err != nil {
		return api.Document{}, err
	}
	if _, err = tx.ExecContext(ctx, `INSERT INTO documents_fts(title, content, id) VALUES(?,?,?)`, nd.Title, nd.Content, nd.ID); err != nil {
		return api.Document{}, err
	}
	if err = appendEventTx(ctx, tx, api.Event{Time: nd.UpdatedAt, Type: api.EventSave, DocumentID: nd.ID, UserID: actorOr(ctx, nd.OwnerID), Version: nd.Version, Hash: nd.Hash()}); err != nil {
		return api.Document{}, err
	}
	if err := tx.Commit(); err != nil {
		return api.Document{}, err
	}
	return nd, nil
}

func (s *sqliteStore) DeleteDocument(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	var owner string
	var version int64
	if err := tx.QueryRowContext(ctx, `SELECT owner_id, version FROM documents WHERE id=?`, id).Scan(&owner, &version); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE id=?`, id); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM documents_fts WHERE id=?`, id); err != nil {
		return err
	}
	if err = appendEventTx(ctx, tx, api.Event{Time: time.Now().UTC(), Type: api.EventDelete, DocumentID: id, UserID: actorOr(ctx, owner), Version: version}); err != nil {
		return err
	}
	return tx.Commit()
}

// ListDocuments returns summaries of documents owned by or shared with
// q.UserID, most recently updated first.
func (s *sqliteStore) ListDocuments(ctx context.Context, q api.ListQuery) ([]api.DocumentSummary, api.Page, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = 1000
	}
	sqlq := `SELECT d.id, d.owner_id, d.version, d.title, d.created_at, d.updated_at,
  CASE WHEN d.owner_id = ? THEN 'owner' ELSE c.permission END
FROM documents d
LEFT JOIN collaborators c ON c.document_id = d.id AND c.user_id = ?`
	args := []any{q.UserID, q.UserID}
	match := ftsQuery(q.Query)
	if match != "" {
		sqlq += "\nJOIN documents_fts x ON x.id = d.id"
	}
	sqlq += "\nWHERE (d.owner_id = ? OR c.user_id IS NOT NULL)"
	args = append(args, q.UserID)
	if match != "" {
		sqlq += "\nAND x.documents_fts MATCH ?"
		args = append(args, match)
	}
	cur, hasCursor, err := cursorFrom(q.Cursor)
	if err != nil {
		return nil, api.Page{}, err
	}
	if hasCursor {
		sqlq += "\nAND (d.updated_at < ? OR (d.updated_at = ? AND d.id < ?))"
		args = append(args, cur.ts.UTC(), cur.ts.UTC(), cur.id)
	}
	sqlq += "\nORDER BY d.updated_at DESC, d.id DESC\nLIMIT ?"
	args = append(args, limit+1)

	rows, err := s.db.QueryContext(ctx, sqlq, args...)
	if err != nil {
		return nil, api.Page{}, err
	}
	defer rows.Close()

	var out []api.DocumentSummary
	for rows.Next() {
		var d api.DocumentSummary
		var perm sql.NullString
		if err := rows.Scan(&d.ID, &d.OwnerID, &d.Version, &d.Title, &d.CreatedAt, &d.UpdatedAt, &perm); err != nil {
			return nil, api.Page{}, err
		}
		d.Permission = api.Permission(perm.String)
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, api.Page{}, err
	}
	return pageOf(out, limit)
}

// Collaborators

func (s *sqliteStore) AddCollaborator(ctx context.Context, c api.Collaborator) (api.Collaborator, error) {
	if c.ID == "" {
		return api.Collaborator{}, ErrConflict
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return api.Collaborator{}, err
	}
	defer tx.Rollback()
	var owner string
	var version int64
	if err := tx.QueryRowContext(ctx, `SELECT owner_id, version FROM documents WHERE id=?`, c.DocumentID).Scan(&owner, &version); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return api.Collaborator{}, ErrNotFound
		}
		return api.Collaborator{}, err
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO collaborators(id, document_id, user_id, permission, created_at) VALUES(?,?,?,?,?)`,
		c.ID, c.DocumentID, c.UserID, string(c.Permission), c.CreatedAt.UTC()); err != nil {
		if isUniqueViolation(err) {
			return api.Collaborator{}, ErrConflict
		}
		return api.Collaborator{}, err
	}
	if err := tx.QueryRowContext(ctx, `SELECT email FROM users WHERE id=?`, c.UserID).Scan(&c.Email); err != nil {
		return api.Collaborator{}, err
	}
	if err := appendEventTx(ctx, tx, api.Event{Time: c.CreatedAt, Type: api.EventShare, DocumentID: c.DocumentID, UserID: actorOr(ctx, owner), Version: version, Detail: c.Email + " as " + string(c.Permission)}); err != nil {
		return api.Collaborator{}, err
	}
	if err := tx.Commit(); err != nil {
		return api.Collaborator{}, err
	}
	return c, nil
}

func (s *sqliteStore) ListCollaborators(ctx context.Context, documentID string) ([]api.Collaborator, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT c.id, c.document_id, c.user_id, u.email, c.permission, c.created_at
FROM collaborators c
JOIN users u ON u.id = c.user_id
WHERE c.document_id = ?
ORDER BY c.created_at ASC, c.id ASC`, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []api.Collaborator
	for rows.Next() {
		var c api.Collaborator
		var perm string
		if err := rows.Scan(&c.ID, &c.DocumentID, &c.UserID, &c.Email, &perm, &c.CreatedAt); err != nil {
			return nil, err
		}
		c.Permission = api.Permission(perm)
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *sqliteStore) RemoveCollaborator(ctx context.Context, documentID, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	var email, owner string
	var version int64
	err = tx.QueryRowContext(ctx, `SELECT u.email, d.owner_id, d.version
FROM collaborators c
JOIN users u ON u.id = c.user_id
JOIN documents d ON d.id = c.document_id
WHERE c.id = ? AND c.document_id = ?`, id, documentID).Scan(&email, &owner, &version)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM collaborators WHERE id=? AND document_id=?`, id, documentID); err != nil {
		return err
	}
	if err := appendEventTx(ctx, tx, api.Event{Time: time.Now().UTC(), Type: api.EventUnshare, DocumentID: documentID, UserID: actorOr(ctx, owner), Version: version, Detail: email}); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *sqliteStore) PermissionFor(ctx context.Context, documentID, userID string) (api.Permission, error) {
	var owner string
	var perm sql.NullString
	err := s.db.QueryRowContext(ctx, `SELECT d.owner_id, c.permission
FROM documents d
LEFT JOIN collaborators c ON c.document_id = d.id AND c.user_id = ?
WHERE d.id = ?`, userID, documentID).Scan(&owner, &perm)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return api.PermissionNone, ErrNotFound
		}
		return api.PermissionNone, err
	}
	if owner == userID {
		return api.PermissionOwner, nil
	}
	return api.Permission(perm.String), nil
}

// Events

func (s *sqliteStore) ListEvents(ctx context.Context, documentID string, limit int) ([]api.Event, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `SELECT time, type, document_id, user_id, version, hash, detail
FROM document_events WHERE document_id = ?
ORDER BY time DESC, rowid DESC
LIMIT ?`, documentID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []api.Event
	for rows.Next() {
		var ev api.Event
		var typ string
		if err := rows.Scan(&ev.Time, &typ, &ev.DocumentID, &ev.UserID, &ev.Version, &ev.Hash, &ev.Detail); err != nil {
			return nil, err
		}
		ev.Type = api.EventType(typ)
		out = append(out, ev)
	}
	return out, rows.Err()
}

// appendEventTx writes to document_events within the provided transaction.
func appendEventTx(ctx context.Context, tx *sql.Tx, ev api.Event) error {
	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}
	_, err := tx.ExecContext(ctx, `INSERT INTO document_events(time, type, document_id, user_id, version, hash, detail) VALUES(?,?,?,?,?,?,?)`,
		ev.Time.UTC(), string(ev.Type), ev.DocumentID, ev.UserID, ev.Version, ev.Hash, ev.Detail)
	return err
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE")
}

// ftsQuery turns free text into an FTS5 expression: every word becomes a
// quoted prefix term and terms are ANDed.
func ftsQuery(q string) string {
	words := strings.Fields(q)
	if len(words) == 0 {
		return ""
	}
	terms := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.ReplaceAll(w, `"`, `""`)
		terms = append(terms, `"`+w+`"*`)
	}
	return strings.Join(terms, " ")
}
