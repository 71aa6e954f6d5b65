// Package store persists processed screenshots in SQLite and serves search,
// statistics, and duplicate lookups.
//
// Records live in the screenshots table with an FTS5 shadow index kept in sync
// by triggers, so search results never lag inserts. Perceptual fingerprints
// live in the duplicates table and reference their record. Schema changes are
// added as new files under migrations/ and applied in name order on Open.
//
// Records are inserted once; afterwards only the duplicate flag and its
// back-reference change. Nothing in the core deletes rows.
package store
