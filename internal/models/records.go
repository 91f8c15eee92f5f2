package models

import (
	"encoding/json"
	"time"
)

// DirectionalTotal is recomputed on every reading and never stored on its own.
type DirectionalTotal struct {
	Direction         Direction
	TotalSeconds      int
	SegmentCount      int
	StaleDroppedCount int
}

type SummaryRecord struct {
	ID                     string    `json:"readingId"`
	WestTotalTravelTimeSec int       `json:"westTotalTravelTimeSec"`
	EastTotalTravelTimeSec int       `json:"eastTotalTravelTimeSec"`
	DateTime               time.Time `json:"dateTime"`
}

// RawTrafficRecord is a snapshot persisted verbatim, payload untouched.
type RawTrafficRecord struct {
	ID        string          `json:"readingId"`
	FetchedAt time.Time       `json:"fetchedAt"`
	Payload   json.RawMessage `json:"payload"`
}
