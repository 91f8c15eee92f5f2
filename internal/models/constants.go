package models

import "time"

const (
	DirectionNorth Direction = "north"
	DirectionSouth Direction = "south"
	DirectionEast  Direction = "east"
	DirectionWest  Direction = "west"

	CollectionRawTraffic = "rawTraffic"
	CollectionSummary    = "summary"

	DefaultFeedURL     = "http://www.cotrip.org/speed/getSegments.do"
	DefaultCorridor    = "i-70"
	DefaultStaleWindow = 5 * time.Minute
	DefaultPostgresURL = "postgres://localhost:5432/traffic70"

	StoreDriverPostgres = "postgres"
	StoreDriverKafka    = "kafka"
	StoreDriverJSONL    = "jsonl"
)
