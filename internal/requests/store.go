// Package requests implements the request tracker: users ask for games
// to be added to the library, admins triage them. State lives in SQLite
// so a single-binary deployment needs no external database.
package requests

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/playvault/game-request-api/internal/models"
)

var (
	// ErrNotFound is returned when no request matches the given id.
	ErrNotFound = errors.New("requests: not found")
	// ErrLimitReached is returned when the requester is at their active
	// request quota.
	ErrLimitReached = errors.New("requests: active request limit reached")
	// ErrDuplicate is returned when the requester already has a request
	// for the same catalog game.
	ErrDuplicate = errors.New("requests: duplicate request for game")
	// ErrInvalidStatus is returned for an unknown lifecycle status.
	ErrInvalidStatus = errors.New("requests: invalid status")
	// ErrForbidden is returned when the caller may not act on the request.
	ErrForbidden = errors.New("requests: not allowed")
)

const schema = `
CREATE TABLE IF NOT EXISTS game_requests (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	public_id   TEXT    NOT NULL UNIQUE,
	game_name   TEXT    NOT NULL,
	catalog_id  INTEGER NOT NULL DEFAULT 0,
	cover_url   TEXT    NOT NULL DEFAULT '',
	genres      TEXT    NOT NULL DEFAULT '',
	comment     TEXT    NOT NULL DEFAULT '',
	status      TEXT    NOT NULL DEFAULT 'pending',
	admin_notes TEXT    NOT NULL DEFAULT '',
	requester   TEXT    NOT NULL,
	created_at  TIMESTAMP NOT NULL,
	updated_at  TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_game_requests_requester ON game_requests(requester);
CREATE INDEX IF NOT EXISTS idx_game_requests_status    ON game_requests(status);

CREATE TABLE IF NOT EXISTS system_settings (
	id      INTEGER PRIMARY KEY CHECK (id = 1),
	payload TEXT    NOT NULL
);

CREATE TABLE IF NOT EXISTS audit_log (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	action     TEXT      NOT NULL,
	actor      TEXT      NOT NULL,
	detail     TEXT      NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL
);
`

// Store wraps the SQLite database holding requests, settings and the
// audit log.
type Store struct {
	db *sql.DB
}

// NewStore opens (and creates if needed) the database at path and applies
// the schema. Use ":memory:" for an ephemeral store.
func NewStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}
	// The sqlite driver is single-writer; serializing access avoids
	// SQLITE_BUSY under concurrent handlers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

const requestColumns = `id, public_id, game_name, catalog_id, cover_url, genres, comment, status, admin_notes, requester, created_at, updated_at`

func scanRequest(row interface{ Scan(...interface{}) error }) (*models.GameRequest, error) {
	var r models.GameRequest
	err := row.Scan(&r.ID, &r.PublicID, &r.GameName, &r.CatalogID, &r.CoverURL,
		&r.Genres, &r.Comment, &r.Status, &r.AdminNotes, &r.Requester,
		&r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// Create inserts the request and fills in its row id.
func (s *Store) Create(ctx context.Context, r *models.GameRequest) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO game_requests (public_id, game_name, catalog_id, cover_url, genres, comment, status, admin_notes, requester, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.PublicID, r.GameName, r.CatalogID, r.CoverURL, r.Genres, r.Comment,
		r.Status, r.AdminNotes, r.Requester, r.CreatedAt, r.UpdatedAt)
	if err != nil {
		return fmt.Errorf("inserting request: %w", err)
	}
	r.ID, err = res.LastInsertId()
	return err
}

// GetByPublicID fetches one request by its public identifier.
func (s *Store) GetByPublicID(ctx context.Context, publicID string) (*models.GameRequest, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+requestColumns+` FROM game_requests WHERE public_id = ?`, publicID)
	r, err := scanRequest(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return r, err
}

// List returns requests newest first, optionally filtered by status
// and/or requester. Empty filter values match everything.
func (s *Store) List(ctx context.Context, status models.RequestStatus, requester string) ([]models.GameRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM game_requests WHERE 1=1`
	args := []interface{}{}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, status)
	}
	if requester != "" {
		query += ` AND requester = ?`
		args = append(args, requester)
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing requests: %w", err)
	}
	defer rows.Close()

	var out []models.GameRequest
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

// Update persists the mutable fields of a request.
func (s *Store) Update(ctx context.Context, r *models.GameRequest) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE game_requests SET status = ?, admin_notes = ?, updated_at = ? WHERE id = ?`,
		r.Status, r.AdminNotes, r.UpdatedAt, r.ID)
	if err != nil {
		return fmt.Errorf("updating request %d: %w", r.ID, err)
	}
	affected, err := res.RowsAffected()
	if err == nil && affected == 0 {
		return ErrNotFound
	}
	return err
}

// Delete removes a request permanently.
func (s *Store) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM game_requests WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting request %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err == nil && affected == 0 {
		return ErrNotFound
	}
	return err
}

// CountActive counts a requester's pending and approved requests, the
// ones held against their quota.
func (s *Store) CountActive(ctx context.Context, requester string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM game_requests
		WHERE requester = ? AND status IN (?, ?)`,
		requester, models.StatusPending, models.StatusApproved).Scan(&n)
	return n, err
}

// RequestForGame returns the requester's existing request for a catalog
// game, or ErrNotFound.
func (s *Store) RequestForGame(ctx context.Context, requester string, catalogID int64) (*models.GameRequest, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+requestColumns+` FROM game_requests
		WHERE requester = ? AND catalog_id = ?
		ORDER BY created_at DESC LIMIT 1`, requester, catalogID)
	r, err := scanRequest(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return r, err
}

// HasPendingForGame reports whether anyone has an open request for the
// catalog game.
func (s *Store) HasPendingForGame(ctx context.Context, catalogID int64) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM game_requests WHERE catalog_id = ? AND status = ?`,
		catalogID, models.StatusPending).Scan(&n)
	return n > 0, err
}

// IsGameCompleted reports whether a request for the catalog game has been
// completed, meaning the game is already in the library.
func (s *Store) IsGameCompleted(ctx context.Context, catalogID int64) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM game_requests WHERE catalog_id = ? AND status = ?`,
		catalogID, models.StatusCompleted).Scan(&n)
	return n > 0, err
}

// StatusCounts returns the number of requests per lifecycle status.
func (s *Store) StatusCounts(ctx context.Context) (map[models.RequestStatus]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM game_requests GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("counting requests: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.RequestStatus]int)
	for rows.Next() {
		var status models.RequestStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

// Settings loads the singleton settings row, creating it with defaults
// on first read.
func (s *Store) Settings(ctx context.Context) (models.SystemSettings, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM system_settings WHERE id = 1`).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		defaults := models.DefaultSettings()
		if err := s.SaveSettings(ctx, defaults); err != nil {
			return defaults, err
		}
		return defaults, nil
	}
	if err != nil {
		return models.SystemSettings{}, err
	}

	var settings models.SystemSettings
	if err := json.Unmarshal([]byte(payload), &settings); err != nil {
		return models.SystemSettings{}, fmt.Errorf("decoding settings: %w", err)
	}
	return settings, nil
}

// SaveSettings upserts the singleton settings row.
func (s *Store) SaveSettings(ctx context.Context, settings models.SystemSettings) error {
	payload, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO system_settings (id, payload) VALUES (1, ?)
		ON CONFLICT(id) DO UPDATE SET payload = excluded.payload`, string(payload))
	return err
}

// AppendAudit records an administrative action.
func (s *Store) AppendAudit(ctx context.Context, action, actor, detail string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_log (action, actor, detail, created_at) VALUES (?, ?, ?, ?)`,
		action, actor, detail, time.Now().UTC())
	return err
}

// Audit returns the most recent audit entries, newest first.
func (s *Store) Audit(ctx context.Context, limit int) ([]models.AuditEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, action, actor, detail, created_at FROM audit_log
		ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing audit log: %w", err)
	}
	defer rows.Close()

	var out []models.AuditEntry
	for rows.Next() {
		var e models.AuditEntry
		if err := rows.Scan(&e.ID, &e.Action, &e.Actor, &e.Detail, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
