package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Screenshot describes an organized screenshot in a transport-friendly format.
type Screenshot struct {
	ID                   int64    `json:"id"`
	FilePath             string   `json:"filePath"`
	OriginalPath         string   `json:"originalPath,omitempty"`
	OriginalName         string   `json:"originalName"`
	Name                 string   `json:"name"`
	Category             string   `json:"category"`
	Description          string   `json:"description"`
	Tags                 []string `json:"tags"`
	OCRText              string   `json:"ocrText,omitempty"`
	OCRConfidence        float64  `json:"ocrConfidence"`
	AIConfidence         float64  `json:"aiConfidence"`
	ClassificationSource string   `json:"classificationSource,omitempty"`
	PreprocessingSteps   []string `json:"preprocessingSteps,omitempty"`
	FileSize             int64    `json:"fileSize"`
	Width                int      `json:"width"`
	Height               int      `json:"height"`
	CreatedAt            string   `json:"createdAt,omitempty"`
	CapturedAt           string   `json:"capturedAt,omitempty"`
	ProcessedAt          string   `json:"processedAt,omitempty"`
	IsDuplicate          bool     `json:"isDuplicate"`
	DuplicateOf          *int64   `json:"duplicateOf,omitempty"`
}

// ListResponse wraps a collection of screenshots.
type ListResponse struct {
	Items []Screenshot `json:"items"`
}

// SearchResponse wraps search results with the query that produced them.
type SearchResponse struct {
	Query string       `json:"query"`
	Items []Screenshot `json:"items"`
}

// StatsResponse summarizes the library.
type StatsResponse struct {
	Total      int            `json:"total"`
	TotalSize  int64          `json:"totalSize"`
	Duplicates int            `json:"duplicates"`
	ByCategory map[string]int `json:"byCategory"`
}

// ComponentHealth mirrors readiness reporting for pipeline components.
type ComponentHealth struct {
	Name   string `json:"name"`
	Ready  bool   `json:"ready"`
	Detail string `json:"detail,omitempty"`
}

// PipelineStatus summarizes worker execution state.
type PipelineStatus struct {
	Running   bool   `json:"running"`
	Workers   int    `json:"workers"`
	Processed int    `json:"processed"`
	Failed    int    `json:"failed"`
	LastError string `json:"lastError,omitempty"`
	LastPath  string `json:"lastPath,omitempty"`
	StartedAt string `json:"startedAt,omitempty"`
}

// QueueStatus describes the watcher queue.
type QueueStatus struct {
	Length   int      `json:"length"`
	Capacity int      `json:"capacity"`
	Dropped  uint64   `json:"dropped"`
	Pending  []string `json:"pending,omitempty"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running      bool              `json:"running"`
	PID          int               `json:"pid"`
	DBPath       string            `json:"dbPath"`
	LockFilePath string            `json:"lockFilePath"`
	Watched      []string          `json:"watched"`
	Pipeline     PipelineStatus    `json:"pipeline"`
	Queue        QueueStatus       `json:"queue"`
	Health       []ComponentHealth `json:"health"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}
