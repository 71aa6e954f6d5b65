package api

import (
	"context"
	"errors"
	"strings"

	"pixly/internal/store"
)

const (
	// DefaultLimit is used when a caller does not ask for a specific count.
	DefaultLimit = 20
	// MaxLimit caps how many records a single request returns.
	MaxLimit = 200
)

// ErrEmptyQuery is returned by Search when the query has no terms.
var ErrEmptyQuery = errors.New("search query is required")

// LibraryReader abstracts the store queries needed for API views.
type LibraryReader interface {
	Search(ctx context.Context, query string, limit int) ([]store.Record, error)
	Recent(ctx context.Context, limit int) ([]store.Record, error)
	Stats(ctx context.Context) (store.Stats, error)
}

// LibraryService exposes read-only library operations returning API DTOs.
type LibraryService struct {
	store LibraryReader
}

// NewLibraryService constructs a LibraryService around the provided reader.
func NewLibraryService(store LibraryReader) *LibraryService {
	if store == nil {
		return nil
	}
	return &LibraryService{store: store}
}

// NormalizeLimit clamps limit into [1, MaxLimit], using DefaultLimit for
// non-positive values.
func NormalizeLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	default:
		return limit
	}
}

// Search runs a full-text query over OCR text and descriptions.
func (s *LibraryService) Search(ctx context.Context, query string, limit int) (SearchResponse, error) {
	query = strings.TrimSpace(query)
	resp := SearchResponse{Query: query, Items: []Screenshot{}}
	if query == "" {
		return resp, ErrEmptyQuery
	}
	if s == nil || s.store == nil {
		return resp, nil
	}
	records, err := s.store.Search(ctx, query, NormalizeLimit(limit))
	if err != nil {
		return resp, err
	}
	resp.Items = FromRecords(records)
	return resp, nil
}

// Recent returns the most recently processed screenshots.
func (s *LibraryService) Recent(ctx context.Context, limit int) (ListResponse, error) {
	resp := ListResponse{Items: []Screenshot{}}
	if s == nil || s.store == nil {
		return resp, nil
	}
	records, err := s.store.Recent(ctx, NormalizeLimit(limit))
	if err != nil {
		return resp, err
	}
	resp.Items = FromRecords(records)
	return resp, nil
}

// Stats returns library summary counts.
func (s *LibraryService) Stats(ctx context.Context) (StatsResponse, error) {
	if s == nil || s.store == nil {
		return FromStats(store.Stats{}), nil
	}
	stats, err := s.store.Stats(ctx)
	if err != nil {
		return StatsResponse{}, err
	}
	return FromStats(stats), nil
}
