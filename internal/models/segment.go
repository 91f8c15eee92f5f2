package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

type Direction string

func ParseDirection(s string) Direction {
	return Direction(strings.ToLower(strings.TrimSpace(s)))
}

// TravelTime holds the feed's travel time exactly as received. The feed has
// shipped it both as a JSON string and as a number.
type TravelTime string

func (t *TravelTime) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*t = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = TravelTime(s)
		return nil
	}
	*t = TravelTime(data)
	return nil
}

// Seconds returns the travel time as a non-negative whole number of seconds.
func (t TravelTime) Seconds() (int, error) {
	s := strings.TrimSpace(string(t))
	if s == "" {
		return 0, fmt.Errorf("%w: missing travel time", ErrDataQuality)
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: travel time %q is not an integer", ErrDataQuality, s)
	}
	if n < 0 {
		return 0, fmt.Errorf("%w: travel time %d is negative", ErrDataQuality, n)
	}
	return n, nil
}

type Segment struct {
	RoadName     string     `json:"roadName"`
	Direction    Direction  `json:"direction"`
	TravelTime   TravelTime `json:"travelTimeSeconds"`
	CalculatedAt time.Time  `json:"calculatedAt"`

	// TimestampMissing is set when the feed sent no calculation time at all,
	// as opposed to one that could not be read.
	TimestampMissing bool `json:"timestampMissing,omitempty"`
}

type Snapshot struct {
	Segments  []Segment
	FetchedAt time.Time
	Payload   json.RawMessage
}
