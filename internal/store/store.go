// Package store persists versioned position and company documents. Snapshots
// are immutable and append-only: every save writes a new (doc_type, doc_id,
// version) row and prior versions stay retrievable.
//
// Version and id allocation happen inside the same transaction as the insert,
// and the underlying pool is capped at one connection, so two concurrent
// saves for the same id can never claim the same version number.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/garnizeh/positionfaq/internal/db"
	"github.com/garnizeh/positionfaq/internal/models"
)

// ErrNotFound is returned when no version exists for a requested document id.
var ErrNotFound = errors.New("document not found")

// ErrMalformed is returned when a document body is not a JSON object.
var ErrMalformed = errors.New("malformed document body")

// Document is one persisted snapshot.
type Document struct {
	Type    string          `json:"type"`
	ID      int64           `json:"id"`
	Version int64           `json:"version"`
	Body    json.RawMessage `json:"body"`
	Created int64           `json:"created"`
}

type Store struct {
	conn   *db.DB
	logger *slog.Logger
}

func New(conn *db.DB, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{conn: conn, logger: logger}
}

// GetLatest returns the highest-version snapshot for the given type and id.
func (s *Store) GetLatest(ctx context.Context, docType string, id int64) (*Document, error) {
	row := s.conn.QueryRow(ctx,
		`SELECT version, body, created FROM documents WHERE doc_type = ? AND doc_id = ? ORDER BY version DESC LIMIT 1`,
		docType, id)

	d := Document{Type: docType, ID: id}
	var body string
	if err := row.Scan(&d.Version, &body, &d.Created); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get latest %s/%d: %w", docType, id, err)
	}
	d.Body = json.RawMessage(body)

	return &d, nil
}

// ListVersions returns every persisted version for the id, newest first. A
// missing id yields an empty slice, not an error.
func (s *Store) ListVersions(ctx context.Context, docType string, id int64) ([]Document, error) {
	rows, err := s.conn.QueryRows(ctx,
		`SELECT version, body, created FROM documents WHERE doc_type = ? AND doc_id = ? ORDER BY version DESC`,
		docType, id)
	if err != nil {
		return nil, fmt.Errorf("list versions %s/%d: %w", docType, id, err)
	}
	defer rows.Close()

	out := []Document{}
	for rows.Next() {
		d := Document{Type: docType, ID: id}
		var body string
		if err := rows.Scan(&d.Version, &body, &d.Created); err != nil {
			return nil, fmt.Errorf("scan version %s/%d: %w", docType, id, err)
		}
		d.Body = json.RawMessage(body)
		out = append(out, d)
	}

	return out, rows.Err()
}

// ListLatest returns the latest snapshot of every id of the given type.
func (s *Store) ListLatest(ctx context.Context, docType string) ([]Document, error) {
	rows, err := s.conn.QueryRows(ctx,
		`SELECT d.doc_id, d.version, d.body, d.created
		 FROM documents d
		 JOIN (SELECT doc_id, MAX(version) AS v FROM documents WHERE doc_type = ? GROUP BY doc_id) latest
		   ON d.doc_id = latest.doc_id AND d.version = latest.v
		 WHERE d.doc_type = ?
		 ORDER BY d.doc_id`,
		docType, docType)
	if err != nil {
		return nil, fmt.Errorf("list latest %s: %w", docType, err)
	}
	defer rows.Close()

	out := []Document{}
	for rows.Next() {
		d := Document{Type: docType}
		var body string
		if err := rows.Scan(&d.ID, &d.Version, &body, &d.Created); err != nil {
			return nil, fmt.Errorf("scan latest %s: %w", docType, err)
		}
		d.Body = json.RawMessage(body)
		out = append(out, d)
	}

	return out, rows.Err()
}

// Save writes a new snapshot. With id == 0 a fresh id is allocated from the
// type's range and version 1 is written; otherwise the next version for the
// id is written (version 1 when the id has no stored versions yet). Embedded
// ownership fields in the body are rewritten to the resolved id before the
// write, whatever the caller passed in them.
func (s *Store) Save(ctx context.Context, docType string, body []byte, id int64) (int64, int64, error) {
	tx, err := s.conn.BeginTx(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("save %s/%d: begin: %w", docType, id, err)
	}
	defer tx.Rollback()

	newID, version, err := s.insertTx(ctx, tx, docType, body, id)
	if err != nil {
		return 0, 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("save %s/%d v%d: commit: %w", docType, newID, version, err)
	}
	return newID, version, nil
}

// insertTx allocates id/version and inserts the normalized body, all within
// the caller's transaction.
func (s *Store) insertTx(ctx context.Context, tx *sql.Tx, docType string, body []byte, id int64) (int64, int64, error) {
	if id == 0 {
		start := int64(models.FirstPositionID)
		if docType == models.TypeCompany {
			start = models.FirstCompanyID
		}
		row := tx.QueryRowContext(ctx,
			`SELECT COALESCE(MAX(doc_id) + 1, ?) FROM documents WHERE doc_type = ?`, start, docType)
		if err := row.Scan(&id); err != nil {
			return 0, 0, fmt.Errorf("allocate %s id: %w", docType, err)
		}
	}

	var version int64
	row := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(version), 0) + 1 FROM documents WHERE doc_type = ? AND doc_id = ?`, docType, id)
	if err := row.Scan(&version); err != nil {
		return 0, 0, fmt.Errorf("allocate %s/%d version: %w", docType, id, err)
	}

	normalized, err := Normalize(docType, body, id, version)
	if err != nil {
		return 0, 0, fmt.Errorf("save %s/%d v%d: %w", docType, id, version, err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO documents (doc_type, doc_id, version, body, created) VALUES (?, ?, ?, ?, ?)`,
		docType, id, version, string(normalized), time.Now().UTC().UnixMilli()); err != nil {
		return 0, 0, fmt.Errorf("save %s/%d v%d: %w", docType, id, version, err)
	}

	return id, version, nil
}

// GetPosition returns the latest snapshot of a position as a typed document.
func (s *Store) GetPosition(ctx context.Context, id int64) (*models.PositionDocument, error) {
	d, err := s.GetLatest(ctx, models.TypePosition, id)
	if err != nil {
		return nil, err
	}

	var doc models.PositionDocument
	if err := json.Unmarshal(d.Body, &doc); err != nil {
		return nil, fmt.Errorf("decode position %d v%d: %w", id, d.Version, err)
	}
	return &doc, nil
}

// GetCompany returns the latest snapshot of a company as a typed document.
func (s *Store) GetCompany(ctx context.Context, id int64) (*models.CompanyDocument, error) {
	d, err := s.GetLatest(ctx, models.TypeCompany, id)
	if err != nil {
		return nil, err
	}

	var doc models.CompanyDocument
	if err := json.Unmarshal(d.Body, &doc); err != nil {
		return nil, fmt.Errorf("decode company %d v%d: %w", id, d.Version, err)
	}
	return &doc, nil
}

// ListPositionsByCompany scans the latest version of every position and keeps
// the ones owned by the company. Snapshots that fail to decode are skipped
// with a warning so one bad body cannot abort the whole listing.
func (s *Store) ListPositionsByCompany(ctx context.Context, companyID int64) ([]models.PositionDocument, error) {
	docs, err := s.ListLatest(ctx, models.TypePosition)
	if err != nil {
		return nil, err
	}

	out := []models.PositionDocument{}
	for _, d := range docs {
		var doc models.PositionDocument
		if err := json.Unmarshal(d.Body, &doc); err != nil {
			s.logger.Warn("skipping malformed position snapshot",
				slog.Int64("id", d.ID), slog.Int64("version", d.Version), slog.Any("err", err))
			continue
		}
		if doc.Position.CompanyID == companyID {
			out = append(out, doc)
		}
	}

	return out, nil
}

// UpdatePosition applies mutate to a fresh copy of the latest position
// snapshot and writes the result as the next version, all inside one
// transaction. Concurrent updates to the same position are serialized, so
// neither one can overwrite the other's change.
func (s *Store) UpdatePosition(ctx context.Context, id int64, mutate func(*models.PositionDocument) error) (int64, error) {
	tx, err := s.conn.BeginTx(ctx)
	if err != nil {
		return 0, fmt.Errorf("update position %d: begin: %w", id, err)
	}
	defer tx.Rollback()

	var body string
	row := tx.QueryRowContext(ctx,
		`SELECT body FROM documents WHERE doc_type = ? AND doc_id = ? ORDER BY version DESC LIMIT 1`,
		models.TypePosition, id)
	if err := row.Scan(&body); err != nil {
		if err == sql.ErrNoRows {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("update position %d: read latest: %w", id, err)
	}

	// The raw body keeps any descriptive fields the typed model does not
	// know about; only the mutated lists are written back into it.
	var raw map[string]any
	var doc models.PositionDocument
	if err := json.Unmarshal([]byte(body), &raw); err != nil {
		return 0, fmt.Errorf("update position %d: decode body: %w", id, err)
	}
	if err := json.Unmarshal([]byte(body), &doc); err != nil {
		return 0, fmt.Errorf("update position %d: decode document: %w", id, err)
	}

	if err := mutate(&doc); err != nil {
		return 0, fmt.Errorf("update position %d: %w", id, err)
	}
	raw["positionFAQs"] = doc.PositionFAQs
	raw["positionInfo"] = doc.PositionInfo

	merged, err := json.Marshal(raw)
	if err != nil {
		return 0, fmt.Errorf("update position %d: encode body: %w", id, err)
	}

	_, version, err := s.insertTx(ctx, tx, models.TypePosition, merged, id)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("update position %d v%d: commit: %w", id, version, err)
	}
	return version, nil
}
