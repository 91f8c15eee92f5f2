package feed

import (
	"errors"
	"testing"
	"time"

	"github.com/chrisdamba/cotraffic/internal/factories"
	"github.com/chrisdamba/cotraffic/internal/models"
)

func TestParse(t *testing.T) {
	fetchedAt := time.Date(2024, 3, 1, 15, 0, 0, 0, time.UTC)

	t.Run("segments", func(t *testing.T) {
		raw := []byte(`{"SpeedDetails":{"Segment":[
			{"RoadName":"I-70","Direction":"West","TravelTimeInSeconds":"120","calculatedData":"2024-03-01T14:58:00Z"},
			{"RoadName":" i-70 ","Direction":"EAST","TravelTimeInSeconds":30,"calculatedData":1709305080000}
		]}}`)
		snap, err := Parse(raw, fetchedAt)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(snap.Segments) != 2 {
			t.Fatalf("expected 2 segments, got %d", len(snap.Segments))
		}
		first := snap.Segments[0]
		if first.RoadName != "I-70" || first.Direction != models.DirectionWest {
			t.Errorf("unexpected first segment %+v", first)
		}
		if secs, _ := first.TravelTime.Seconds(); secs != 120 {
			t.Errorf("expected 120s, got %d", secs)
		}
		if !first.CalculatedAt.Equal(time.Date(2024, 3, 1, 14, 58, 0, 0, time.UTC)) {
			t.Errorf("unexpected timestamp %v", first.CalculatedAt)
		}
		second := snap.Segments[1]
		if second.RoadName != "i-70" || second.Direction != models.DirectionEast {
			t.Errorf("unexpected second segment %+v", second)
		}
		if !second.CalculatedAt.Equal(time.UnixMilli(1709305080000)) {
			t.Errorf("unexpected epoch timestamp %v", second.CalculatedAt)
		}
		if !snap.FetchedAt.Equal(fetchedAt) {
			t.Errorf("fetchedAt not carried through")
		}
		if string(snap.Payload) != string(raw) {
			t.Error("payload should be kept verbatim")
		}
	})

	t.Run("single segment object", func(t *testing.T) {
		raw := []byte(`{"SpeedDetails":{"Segment":{"RoadName":"I-70","Direction":"east","TravelTimeInSeconds":"60"}}}`)
		snap, err := Parse(raw, fetchedAt)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(snap.Segments) != 1 {
			t.Fatalf("expected 1 segment, got %d", len(snap.Segments))
		}
		if !snap.Segments[0].CalculatedAt.IsZero() || !snap.Segments[0].TimestampMissing {
			t.Error("missing timestamp should parse to the zero time and be flagged")
		}
	})

	t.Run("factory payload", func(t *testing.T) {
		doc := factories.NewFeedFactory(fetchedAt).CreateCorridorFeed("I-70", 4, 1)
		raw, err := doc.JSON()
		if err != nil {
			t.Fatal(err)
		}
		snap, err := Parse(raw, fetchedAt)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(snap.Segments) != len(doc.SpeedDetails.Segment) {
			t.Errorf("expected %d segments, got %d", len(doc.SpeedDetails.Segment), len(snap.Segments))
		}
	})

	malformed := map[string]string{
		"html":             `<html>Service Unavailable</html>`,
		"empty":            ``,
		"array":            `[1,2,3]`,
		"no speed details": `{"Foo":{}}`,
		"no segment list":  `{"SpeedDetails":{}}`,
		"null segment":     `{"SpeedDetails":{"Segment":null}}`,
		"segment string":   `{"SpeedDetails":{"Segment":"nope"}}`,
		"truncated":        `{"SpeedDetails":{"Segment":[{"RoadName":"I-70"`,
	}
	for name, body := range malformed {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(body), fetchedAt)
			if !errors.Is(err, models.ErrParse) {
				t.Fatalf("expected ErrParse, got %v", err)
			}
		})
	}
}

func TestParseTimestamp(t *testing.T) {
	denver, _ := time.LoadLocation("America/Denver")
	tests := []struct {
		raw  string
		want time.Time
	}{
		{`"2024-03-01T14:58:00-07:00"`, time.Date(2024, 3, 1, 21, 58, 0, 0, time.UTC)},
		{`"2024-03-01T14:58:00.123Z"`, time.Date(2024, 3, 1, 14, 58, 0, 123000000, time.UTC)},
		{`"2024-03-01T14:58:00"`, time.Date(2024, 3, 1, 14, 58, 0, 0, denver)},
		{`"2024-03-01 14:58:00"`, time.Date(2024, 3, 1, 14, 58, 0, 0, denver)},
		{`"03/01/2024 14:58:00"`, time.Date(2024, 3, 1, 14, 58, 0, 0, denver)},
		{`"1709305080000"`, time.UnixMilli(1709305080000)},
		{`"yesterday"`, time.Time{}},
		{`null`, time.Time{}},
		{`true`, time.Time{}},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got := parseTimestamp([]byte(tt.raw))
			if !got.Equal(tt.want) {
				t.Errorf("parseTimestamp(%s) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestAbsentTimestamp(t *testing.T) {
	tests := []struct {
		raw  string
		want bool
	}{
		{``, true},
		{`null`, true},
		{`""`, true},
		{`"yesterday"`, false},
		{`1709305080000`, false},
	}
	for _, tt := range tests {
		if got := absent([]byte(tt.raw)); got != tt.want {
			t.Errorf("absent(%q) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}
