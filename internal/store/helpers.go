package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

const recordColumns = "id, filepath, original_path, original_name, new_name, category, description, ocr_text, ocr_confidence, ai_confidence, classification_source, tags, preprocessing_steps, file_size, width, height, created_at, captured_at, processed_at, is_duplicate, duplicate_of"

func scanRecord(scanner interface{ Scan(dest ...any) error }) (*Record, error) {
	var (
		rec          Record
		originalPath sql.NullString
		ocrText      sql.NullString
		ocrConf      sql.NullFloat64
		aiConf       sql.NullFloat64
		source       sql.NullString
		tagsRaw      sql.NullString
		stepsRaw     sql.NullString
		fileSize     sql.NullInt64
		width        sql.NullInt64
		height       sql.NullInt64
		createdRaw   string
		capturedRaw  sql.NullString
		processedRaw string
		isDuplicate  int64
		duplicateOf  sql.NullInt64
	)
	if err := scanner.Scan(
		&rec.ID,
		&rec.FilePath,
		&originalPath,
		&rec.OriginalName,
		&rec.NewName,
		&rec.Category,
		&rec.Description,
		&ocrText,
		&ocrConf,
		&aiConf,
		&source,
		&tagsRaw,
		&stepsRaw,
		&fileSize,
		&width,
		&height,
		&createdRaw,
		&capturedRaw,
		&processedRaw,
		&isDuplicate,
		&duplicateOf,
	); err != nil {
		return nil, err
	}

	rec.OriginalPath = originalPath.String
	rec.OCRText = ocrText.String
	rec.OCRConfidence = ocrConf.Float64
	rec.AIConfidence = aiConf.Float64
	rec.ClassificationSource = source.String
	rec.Tags = decodeStringList(tagsRaw.String)
	rec.PreprocessingSteps = decodeStringList(stepsRaw.String)
	rec.FileSize = fileSize.Int64
	rec.Width = int(width.Int64)
	rec.Height = int(height.Int64)
	rec.IsDuplicate = isDuplicate != 0
	if duplicateOf.Valid {
		id := duplicateOf.Int64
		rec.DuplicateOf = &id
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		rec.CreatedAt = created
	}
	if processed, err := parseTimeString(processedRaw); err == nil {
		rec.ProcessedAt = processed
	}
	if capturedRaw.Valid {
		if captured, err := parseTimeString(capturedRaw.String); err == nil {
			rec.CapturedAt = &captured
		}
	}
	return &rec, nil
}

func scanRecords(rows *sql.Rows) ([]Record, error) {
	defer rows.Close()
	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableTime(value *time.Time) any {
	if value == nil || value.IsZero() {
		return nil
	}
	return value.UTC().Format(time.RFC3339Nano)
}

func nullableInt64(value *int64) any {
	if value == nil {
		return nil
	}
	return *value
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

// encodeStringList stores tag-like lists as JSON arrays so the FTS index sees
// every element.
func encodeStringList(values []string) string {
	if len(values) == 0 {
		return "[]"
	}
	data, err := json.Marshal(values)
	if err != nil {
		return "[]"
	}
	return string(data)
}

func decodeStringList(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	var values []string
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return nil
	}
	return values
}

// ftsQuery quotes every whitespace-separated token so user input can never be
// parsed as FTS5 syntax. Tokens are implicitly ANDed.
func ftsQuery(query string) string {
	fields := strings.Fields(query)
	quoted := make([]string, 0, len(fields))
	for _, field := range fields {
		quoted = append(quoted, `"`+strings.ReplaceAll(field, `"`, `""`)+`"`)
	}
	return strings.Join(quoted, " ")
}
