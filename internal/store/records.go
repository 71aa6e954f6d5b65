package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Insert persists a new record and returns its identifier. The FTS index is
// updated by trigger within the same statement.
func (s *Store) Insert(ctx context.Context, rec *Record) (int64, error) {
	if rec == nil {
		return 0, errors.New("record is nil")
	}
	if strings.TrimSpace(rec.FilePath) == "" {
		return 0, errors.New("record filepath is required")
	}
	if rec.ProcessedAt.IsZero() {
		rec.ProcessedAt = time.Now().UTC()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = rec.ProcessedAt
	}

	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO screenshots (
            filepath, original_path, original_name, new_name, category, description,
            ocr_text, ocr_confidence, ai_confidence, classification_source, tags,
            preprocessing_steps, file_size, width, height, created_at, captured_at,
            processed_at, is_duplicate, duplicate_of
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.FilePath,
		nullableString(rec.OriginalPath),
		rec.OriginalName,
		rec.NewName,
		rec.Category,
		rec.Description,
		rec.OCRText,
		rec.OCRConfidence,
		rec.AIConfidence,
		nullableString(rec.ClassificationSource),
		encodeStringList(rec.Tags),
		encodeStringList(rec.PreprocessingSteps),
		rec.FileSize,
		rec.Width,
		rec.Height,
		rec.CreatedAt.UTC().Format(time.RFC3339Nano),
		nullableTime(rec.CapturedAt),
		rec.ProcessedAt.UTC().Format(time.RFC3339Nano),
		boolToInt(rec.IsDuplicate),
		nullableInt64(rec.DuplicateOf),
	)
	if err != nil {
		return 0, fmt.Errorf("insert screenshot: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	rec.ID = id
	return id, nil
}

// GetByID fetches a record by identifier. It returns nil when absent.
func (s *Store) GetByID(ctx context.Context, id int64) (*Record, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM screenshots WHERE id = ?`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get screenshot: %w", err)
	}
	return rec, nil
}

// HasPath reports whether a record already points at path.
func (s *Store) HasPath(ctx context.Context, path string) (bool, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM screenshots WHERE filepath = ?`, path).Scan(&count); err != nil {
		return false, fmt.Errorf("lookup screenshot path: %w", err)
	}
	return count > 0, nil
}

// Search runs a full-text query across path, name, OCR text, and tags, best
// match first. Each token is matched literally.
func (s *Store) Search(ctx context.Context, query string, limit int) ([]Record, error) {
	match := ftsQuery(query)
	if match == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
        SELECT `+prefixedColumns("s")+`
        FROM screenshots s
        JOIN screenshots_fts fts ON s.id = fts.rowid
        WHERE screenshots_fts MATCH ?
        ORDER BY fts.rank
        LIMIT ?`, match, limit)
	if err != nil {
		return nil, fmt.Errorf("search screenshots: %w", err)
	}
	records, err := scanRecords(rows)
	if err != nil {
		return nil, fmt.Errorf("scan search results: %w", err)
	}
	return records, nil
}

// Recent returns the most recently processed records.
func (s *Store) Recent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `SELECT `+recordColumns+` FROM screenshots ORDER BY processed_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("recent screenshots: %w", err)
	}
	records, err := scanRecords(rows)
	if err != nil {
		return nil, fmt.Errorf("scan recent screenshots: %w", err)
	}
	return records, nil
}

// MarkDuplicate flags id as a perceptual duplicate of original.
func (s *Store) MarkDuplicate(ctx context.Context, id, original int64) error {
	res, err := s.execWithRetry(ctx,
		`UPDATE screenshots SET is_duplicate = 1, duplicate_of = ? WHERE id = ?`,
		original, id,
	)
	if err != nil {
		return fmt.Errorf("mark duplicate: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("mark duplicate: record %d not found", id)
	}
	return nil
}

func prefixedColumns(alias string) string {
	cols := strings.Split(recordColumns, ", ")
	for i, col := range cols {
		cols[i] = alias + "." + col
	}
	return strings.Join(cols, ", ")
}
