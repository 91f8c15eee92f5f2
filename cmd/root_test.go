package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/chrisdamba/cotraffic/internal/fakefeed"
)

func TestRootSingleReadingToJSONL(t *testing.T) {
	srv := httptest.NewServer(fakefeed.NewServer("I-70", nil).Handler())
	defer srv.Close()
	dir := t.TempDir()

	rootCmd.SetArgs([]string{
		"--feed-url", srv.URL + fakefeed.FeedPath + "?segments=3&stale=1",
		"--store-driver", "jsonl",
		"--output-path", dir,
		"--log-level", "error",
	})
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	summaries, _ := filepath.Glob(filepath.Join(dir, "summary", "*", "*", "*", "*", "data.json"))
	raws, _ := filepath.Glob(filepath.Join(dir, "rawTraffic", "*", "*", "*", "*", "data.json"))
	if len(summaries) != 1 || len(raws) != 1 {
		t.Fatalf("expected one summary and one raw file, got %v and %v", summaries, raws)
	}

	f, err := os.Open(summaries[0])
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		t.Fatal("summary file is empty")
	}
	var doc map[string]any
	if err := json.Unmarshal(scanner.Bytes(), &doc); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"readingId", "westTotalTravelTimeSec", "eastTotalTravelTimeSec", "dateTime"} {
		if _, ok := doc[key]; !ok {
			t.Errorf("summary is missing %s: %v", key, doc)
		}
	}
	if doc["westTotalTravelTimeSec"].(float64) <= 0 {
		t.Errorf("expected a positive west total, got %v", doc["westTotalTravelTimeSec"])
	}
}
