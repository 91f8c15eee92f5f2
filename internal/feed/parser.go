package feed

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/chrisdamba/cotraffic/internal/models"
)

// Naive feed timestamps are Colorado local time.
var feedLocation = mustLoadLocation("America/Denver")

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"01/02/2006 15:04:05",
}

type feedDocument struct {
	SpeedDetails *struct {
		Segment json.RawMessage `json:"Segment"`
	} `json:"SpeedDetails"`
}

type feedSegment struct {
	RoadName            string            `json:"RoadName"`
	Direction           string            `json:"Direction"`
	TravelTimeInSeconds models.TravelTime `json:"TravelTimeInSeconds"`
	CalculatedData      json.RawMessage   `json:"calculatedData"`
}

// Parse decodes a feed body into a Snapshot. It fails with models.ErrParse when
// the body is not a JSON object or has no SpeedDetails.Segment list. Field
// values are not validated here: an unreadable timestamp becomes the zero time,
// an absent one is flagged on the segment, and both are judged after filtering.
func Parse(raw []byte, fetchedAt time.Time) (*models.Snapshot, error) {
	var doc feedDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrParse, err)
	}
	if doc.SpeedDetails == nil {
		return nil, fmt.Errorf("%w: missing SpeedDetails", models.ErrParse)
	}

	list := bytes.TrimSpace(doc.SpeedDetails.Segment)
	if len(list) == 0 || bytes.Equal(list, []byte("null")) {
		return nil, fmt.Errorf("%w: missing SpeedDetails.Segment", models.ErrParse)
	}
	// a feed with a single segment has been seen to send a bare object
	if list[0] == '{' {
		list = append(append([]byte{'['}, list...), ']')
	}

	var segments []feedSegment
	if err := json.Unmarshal(list, &segments); err != nil {
		return nil, fmt.Errorf("%w: SpeedDetails.Segment: %v", models.ErrParse, err)
	}

	snapshot := &models.Snapshot{
		Segments:  make([]models.Segment, 0, len(segments)),
		FetchedAt: fetchedAt,
		Payload:   append(json.RawMessage(nil), raw...),
	}
	for _, s := range segments {
		snapshot.Segments = append(snapshot.Segments, models.Segment{
			RoadName:     strings.TrimSpace(s.RoadName),
			Direction:    models.ParseDirection(s.Direction),
			TravelTime:   s.TravelTimeInSeconds,
			CalculatedAt:     parseTimestamp(s.CalculatedData),
			TimestampMissing: absent(s.CalculatedData),
		})
	}
	return snapshot, nil
}

func absent(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) == 0 || bytes.Equal(raw, []byte("null")) || bytes.Equal(raw, []byte(`""`))
}

func parseTimestamp(raw json.RawMessage) time.Time {
	if absent(raw) {
		return time.Time{}
	}
	raw = bytes.TrimSpace(raw)

	var s string
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &s); err != nil {
			return time.Time{}
		}
	} else {
		s = string(raw)
	}
	s = strings.TrimSpace(s)

	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.UnixMilli(ms)
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, feedLocation); err == nil {
			return t
		}
	}
	return time.Time{}
}

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(fmt.Sprintf("loading %s: %v", name, err))
	}
	return loc
}
