package output

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/chrisdamba/cotraffic/internal/models"
)

func readLines(t *testing.T, path string) []map[string]any {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	var docs []map[string]any
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var doc map[string]any
		if err := json.Unmarshal(sc.Bytes(), &doc); err != nil {
			t.Fatalf("bad line %q: %v", sc.Text(), err)
		}
		docs = append(docs, doc)
	}
	return docs
}

func TestJSONStore(t *testing.T) {
	dir := t.TempDir()
	store := NewJSONStore(dir)
	ctx := context.Background()

	raw := &models.RawTrafficRecord{ID: "r1", FetchedAt: at, Payload: json.RawMessage(`{"SpeedDetails":{"Segment":[]}}`)}
	if err := store.Insert(ctx, models.CollectionRawTraffic, raw); err != nil {
		t.Fatal(err)
	}
	for _, id := range []string{"r1", "r2"} {
		rec := &models.SummaryRecord{ID: id, WestTotalTravelTimeSec: 150, EastTotalTravelTimeSec: 45, DateTime: at}
		if err := store.Insert(ctx, models.CollectionSummary, rec); err != nil {
			t.Fatal(err)
		}
	}
	// next hour rotates the open file
	if err := store.Insert(ctx, models.CollectionSummary, &models.SummaryRecord{ID: "r3", DateTime: at.Add(time.Hour)}); err != nil {
		t.Fatal(err)
	}
	if len(store.files) != 2 {
		t.Errorf("expected one open file per collection, got %d", len(store.files))
	}
	if err := store.Close(); err != nil {
		t.Fatal(err)
	}

	summaries := readLines(t, filepath.Join(dir, "summary", "year=2024", "month=03", "day=01", "hour=15", "data.json"))
	if len(summaries) != 2 {
		t.Fatalf("expected 2 summary lines, got %d", len(summaries))
	}
	if summaries[0]["westTotalTravelTimeSec"] != float64(150) {
		t.Errorf("unexpected summary %v", summaries[0])
	}
	if got := readLines(t, filepath.Join(dir, "summary", "year=2024", "month=03", "day=01", "hour=16", "data.json")); len(got) != 1 {
		t.Errorf("expected 1 line in the next hour, got %d", len(got))
	}

	rawDocs := readLines(t, filepath.Join(dir, "rawTraffic", "year=2024", "month=03", "day=01", "hour=15", "data.json"))
	if len(rawDocs) != 1 {
		t.Fatalf("expected 1 raw line, got %d", len(rawDocs))
	}
	if _, ok := rawDocs[0]["payload"].(map[string]any)["SpeedDetails"]; !ok {
		t.Errorf("raw payload should be embedded as JSON, got %v", rawDocs[0])
	}
}

func TestJSONStoreRejectsUnknownDocument(t *testing.T) {
	store := NewJSONStore(t.TempDir())
	defer store.Close()
	if err := store.Insert(context.Background(), "other", map[string]int{"a": 1}); err == nil {
		t.Fatal("expected error for unsupported document")
	}
}
