package store

import (
	"context"
	"database/sql"
	"fmt"
)

// InsertFingerprint stores the perceptual hash computed for a record.
func (s *Store) InsertFingerprint(ctx context.Context, fp Fingerprint) error {
	if fp.ScreenshotID == 0 || fp.Hash == "" {
		return fmt.Errorf("insert fingerprint: screenshot id and hash are required")
	}
	if _, err := s.execWithRetry(ctx,
		`INSERT INTO duplicates (screenshot_id, perceptual_hash, duplicate_of) VALUES (?, ?, ?)`,
		fp.ScreenshotID, fp.Hash, nullableInt64(fp.DuplicateOf),
	); err != nil {
		return fmt.Errorf("insert fingerprint: %w", err)
	}
	return nil
}

// Fingerprints returns every stored hash in insertion order.
func (s *Store) Fingerprints(ctx context.Context) ([]Fingerprint, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT screenshot_id, perceptual_hash, duplicate_of FROM duplicates ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list fingerprints: %w", err)
	}
	defer rows.Close()

	var out []Fingerprint
	for rows.Next() {
		var (
			fp  Fingerprint
			dup sql.NullInt64
		)
		if err := rows.Scan(&fp.ScreenshotID, &fp.Hash, &dup); err != nil {
			return nil, fmt.Errorf("scan fingerprint: %w", err)
		}
		if dup.Valid {
			id := dup.Int64
			fp.DuplicateOf = &id
		}
		out = append(out, fp)
	}
	return out, rows.Err()
}
