package api

import (
	"time"

	"pixly/internal/pipeline"
	"pixly/internal/stage"
	"pixly/internal/store"
)

// FromRecord converts a store record to its API representation.
func FromRecord(rec store.Record) Screenshot {
	dto := Screenshot{
		ID:                   rec.ID,
		FilePath:             rec.FilePath,
		OriginalPath:         rec.OriginalPath,
		OriginalName:         rec.OriginalName,
		Name:                 rec.NewName,
		Category:             rec.Category,
		Description:          rec.Description,
		Tags:                 rec.Tags,
		OCRText:              rec.OCRText,
		OCRConfidence:        rec.OCRConfidence,
		AIConfidence:         rec.AIConfidence,
		ClassificationSource: rec.ClassificationSource,
		PreprocessingSteps:   rec.PreprocessingSteps,
		FileSize:             rec.FileSize,
		Width:                rec.Width,
		Height:               rec.Height,
		CreatedAt:            formatTime(rec.CreatedAt),
		ProcessedAt:          formatTime(rec.ProcessedAt),
		IsDuplicate:          rec.IsDuplicate,
		DuplicateOf:          rec.DuplicateOf,
	}
	if dto.Tags == nil {
		dto.Tags = []string{}
	}
	if rec.CapturedAt != nil {
		dto.CapturedAt = formatTime(*rec.CapturedAt)
	}
	return dto
}

// FromRecords converts store records into API DTOs. The result is never nil
// so JSON consumers always see an array.
func FromRecords(records []store.Record) []Screenshot {
	out := make([]Screenshot, 0, len(records))
	for _, rec := range records {
		out = append(out, FromRecord(rec))
	}
	return out
}

// FromStats converts library statistics.
func FromStats(stats store.Stats) StatsResponse {
	byCategory := stats.ByCategory
	if byCategory == nil {
		byCategory = map[string]int{}
	}
	return StatsResponse{
		Total:      stats.Total,
		TotalSize:  stats.TotalSize,
		Duplicates: stats.Duplicates,
		ByCategory: byCategory,
	}
}

// FromStatusSummary converts pipeline manager diagnostics.
func FromStatusSummary(summary pipeline.StatusSummary) PipelineStatus {
	return PipelineStatus{
		Running:   summary.Running,
		Workers:   summary.Workers,
		Processed: summary.Processed,
		Failed:    summary.Failed,
		LastError: summary.LastError,
		LastPath:  summary.LastPath,
		StartedAt: formatTime(summary.StartedAt),
	}
}

// FromHealth converts component health records.
func FromHealth(results []stage.Health) []ComponentHealth {
	out := make([]ComponentHealth, 0, len(results))
	for _, h := range results {
		out = append(out, ComponentHealth{Name: h.Name, Ready: h.Ready, Detail: h.Detail})
	}
	return out
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}
