package draftstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"emprendyup-catalog/internal/domain/model"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS product_drafts (
	draft_key VARCHAR(191) NOT NULL PRIMARY KEY,
	snapshot JSON NOT NULL,
	saved_at DATETIME(6) NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS variant_save_runs (
	id CHAR(26) NOT NULL PRIMARY KEY,
	product_id VARCHAR(191) NOT NULL,
	status VARCHAR(16) NOT NULL,
	phase VARCHAR(32) NOT NULL DEFAULT '',
	error_message TEXT NULL,
	unresolved JSON NULL,
	updated INT NOT NULL DEFAULT 0,
	variants_created INT NOT NULL DEFAULT 0,
	combinations_created INT NOT NULL DEFAULT 0,
	created_at DATETIME(6) NOT NULL,
	KEY idx_variant_save_runs_status (status, created_at)
)`,
}

const (
	upsertDraftQuery = `INSERT INTO product_drafts (draft_key, snapshot, saved_at) VALUES (?, ?, ?)
ON DUPLICATE KEY UPDATE snapshot = VALUES(snapshot), saved_at = VALUES(saved_at)`
	selectDraftQuery = `SELECT snapshot FROM product_drafts WHERE draft_key = ?`
	deleteDraftQuery = `DELETE FROM product_drafts WHERE draft_key = ?`
	insertRunQuery   = `INSERT INTO variant_save_runs
(id, product_id, status, phase, error_message, unresolved, updated, variants_created, combinations_created, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	selectFailedRunsQuery = `SELECT id, product_id, status, phase, error_message, unresolved, updated, variants_created, combinations_created, created_at
FROM variant_save_runs WHERE status = ? AND (? = '' OR product_id = ?) ORDER BY created_at DESC LIMIT ?`

	defaultRunLimit = 20
)

var ErrEmptyDraftKey = errors.New("draftstore: draft key is empty")

// Store keeps wizard autosaves and the save-run journal in MySQL.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("draftstore: ensure schema: %w", err)
		}
	}
	return nil
}

func (s *Store) SaveDraft(ctx context.Context, key string, snapshot model.FormSnapshot) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return ErrEmptyDraftKey
	}
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("draftstore: encode draft: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, upsertDraftQuery, key, payload, snapshot.SavedAt.UTC()); err != nil {
		return fmt.Errorf("draftstore: save draft %s: %w", key, err)
	}
	return nil
}

// LoadDraft returns the autosaved snapshot for key. The bool is false when
// nothing was saved.
func (s *Store) LoadDraft(ctx context.Context, key string) (model.FormSnapshot, bool, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return model.FormSnapshot{}, false, ErrEmptyDraftKey
	}
	var payload []byte
	err := s.db.QueryRowContext(ctx, selectDraftQuery, key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return model.FormSnapshot{}, false, nil
	}
	if err != nil {
		return model.FormSnapshot{}, false, fmt.Errorf("draftstore: load draft %s: %w", key, err)
	}
	var snapshot model.FormSnapshot
	if err := json.Unmarshal(payload, &snapshot); err != nil {
		return model.FormSnapshot{}, false, fmt.Errorf("draftstore: decode draft %s: %w", key, err)
	}
	return snapshot, true, nil
}

func (s *Store) DeleteDraft(ctx context.Context, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return ErrEmptyDraftKey
	}
	if _, err := s.db.ExecContext(ctx, deleteDraftQuery, key); err != nil {
		return fmt.Errorf("draftstore: delete draft %s: %w", key, err)
	}
	return nil
}

func (s *Store) RecordRun(ctx context.Context, run model.SaveRun) error {
	unresolved, err := json.Marshal(run.Unresolved)
	if err != nil {
		return fmt.Errorf("draftstore: encode unresolved: %w", err)
	}
	_, err = s.db.ExecContext(ctx, insertRunQuery,
		run.ID,
		run.ProductID,
		run.Status,
		run.Phase,
		nullString(run.Error),
		unresolved,
		run.Updated,
		run.VariantsCreated,
		run.CombinationsCreated,
		run.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("draftstore: record run %s: %w", run.ID, err)
	}
	return nil
}

// ListFailedRuns returns the newest failed runs, optionally for one product.
func (s *Store) ListFailedRuns(ctx context.Context, productID string, limit int) ([]model.SaveRun, error) {
	if limit <= 0 {
		limit = defaultRunLimit
	}
	productID = strings.TrimSpace(productID)
	rows, err := s.db.QueryContext(ctx, selectFailedRunsQuery, model.SaveRunFailed, productID, productID, limit)
	if err != nil {
		return nil, fmt.Errorf("draftstore: list runs: %w", err)
	}
	defer rows.Close()

	var out []model.SaveRun
	for rows.Next() {
		var (
			run        model.SaveRun
			errMessage sql.NullString
			unresolved []byte
		)
		if err := rows.Scan(&run.ID, &run.ProductID, &run.Status, &run.Phase, &errMessage, &unresolved,
			&run.Updated, &run.VariantsCreated, &run.CombinationsCreated, &run.CreatedAt); err != nil {
			return nil, fmt.Errorf("draftstore: scan run: %w", err)
		}
		run.Error = errMessage.String
		if len(unresolved) > 0 {
			if err := json.Unmarshal(unresolved, &run.Unresolved); err != nil {
				return nil, fmt.Errorf("draftstore: decode unresolved for run %s: %w", run.ID, err)
			}
		}
		out = append(out, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("draftstore: list runs: %w", err)
	}
	return out, nil
}

func nullString(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}
