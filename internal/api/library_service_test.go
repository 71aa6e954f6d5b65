package api

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"pixly/internal/store"
)

type mockLibraryReader struct {
	records   []store.Record
	stats     store.Stats
	err       error
	lastLimit int
	lastQuery string
}

func (m *mockLibraryReader) Search(_ context.Context, query string, limit int) ([]store.Record, error) {
	m.lastQuery = query
	m.lastLimit = limit
	return m.records, m.err
}

func (m *mockLibraryReader) Recent(_ context.Context, limit int) ([]store.Record, error) {
	m.lastLimit = limit
	return m.records, m.err
}

func (m *mockLibraryReader) Stats(context.Context) (store.Stats, error) {
	return m.stats, m.err
}

func TestLibraryService_Search(t *testing.T) {
	processed := time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC)
	reader := &mockLibraryReader{records: []store.Record{{
		ID:          3,
		FilePath:    "/library/2025/March/Errors/Screenshot_2025_Mar_4_trace.png",
		NewName:     "Screenshot_2025_Mar_4_trace.png",
		Category:    "Errors",
		ProcessedAt: processed,
	}}}
	svc := NewLibraryService(reader)

	resp, err := svc.Search(context.Background(), "  traceback ", 0)
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if reader.lastQuery != "traceback" || reader.lastLimit != DefaultLimit {
		t.Fatalf("unexpected query/limit passed: %q %d", reader.lastQuery, reader.lastLimit)
	}
	if resp.Query != "traceback" || len(resp.Items) != 1 {
		t.Fatalf("unexpected response: %+v", resp)
	}
	item := resp.Items[0]
	if item.Name != "Screenshot_2025_Mar_4_trace.png" || item.ProcessedAt != "2025-03-04T05:06:07.000Z" {
		t.Fatalf("unexpected item: %+v", item)
	}
	if item.Tags == nil {
		t.Fatal("expected empty tags slice, got nil")
	}
}

func TestLibraryService_SearchEmptyQuery(t *testing.T) {
	reader := &mockLibraryReader{}
	_, err := NewLibraryService(reader).Search(context.Background(), "   ", 10)
	if !errors.Is(err, ErrEmptyQuery) {
		t.Fatalf("expected ErrEmptyQuery, got %v", err)
	}
	if reader.lastQuery != "" {
		t.Fatal("store should not be queried for an empty query")
	}
}

func TestLibraryService_RecentClampsLimit(t *testing.T) {
	reader := &mockLibraryReader{}
	resp, err := NewLibraryService(reader).Recent(context.Background(), 10_000)
	if err != nil {
		t.Fatalf("Recent returned error: %v", err)
	}
	if reader.lastLimit != MaxLimit {
		t.Fatalf("expected limit %d, got %d", MaxLimit, reader.lastLimit)
	}
	encoded, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(encoded) != `{"items":[]}` {
		t.Fatalf("expected empty array, got %s", encoded)
	}
}

func TestLibraryService_StatsError(t *testing.T) {
	errSentinel := errors.New("boom")
	_, err := NewLibraryService(&mockLibraryReader{err: errSentinel}).Stats(context.Background())
	if !errors.Is(err, errSentinel) {
		t.Fatalf("expected error %v, got %v", errSentinel, err)
	}
}

func TestLibraryService_Stats(t *testing.T) {
	svc := NewLibraryService(&mockLibraryReader{stats: store.Stats{Total: 4, Duplicates: 1}})
	got, err := svc.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats returned error: %v", err)
	}
	if got.Total != 4 || got.Duplicates != 1 || got.ByCategory == nil {
		t.Fatalf("unexpected stats: %+v", got)
	}
}
