package store

import "time"

// Record is a processed screenshot as persisted in the screenshots table.
type Record struct {
	ID                   int64
	FilePath             string
	OriginalPath         string
	OriginalName         string
	NewName              string
	Category             string
	Description          string
	OCRText              string
	OCRConfidence        float64
	AIConfidence         float64
	ClassificationSource string
	Tags                 []string
	PreprocessingSteps   []string
	FileSize             int64
	Width                int
	Height               int
	CreatedAt            time.Time
	CapturedAt           *time.Time
	ProcessedAt          time.Time
	IsDuplicate          bool
	DuplicateOf          *int64
}

// Fingerprint is a stored perceptual hash and the record it belongs to.
type Fingerprint struct {
	ScreenshotID int64
	Hash         string
	DuplicateOf  *int64
}

// Stats summarizes the library.
type Stats struct {
	Total      int            `json:"total"`
	TotalSize  int64          `json:"total_size"`
	Duplicates int            `json:"duplicates"`
	ByCategory map[string]int `json:"by_category"`
}

// DatabaseHealth captures diagnostic information about the database file.
type DatabaseHealth struct {
	DBPath           string
	DatabaseExists   bool
	DatabaseReadable bool
	SchemaVersion    string
	IntegrityCheck   bool
	TotalRecords     int
	Error            string
}
