package factories

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/chrisdamba/cotraffic/internal/models"
	"github.com/jaswdr/faker"
	"github.com/lucsky/cuid"
)

var fake = faker.New()

var otherRoads = []string{"I-25", "US-36", "C-470", "US-285", "I-76", "US-6"}

// FeedSegment mirrors one entry of the speed feed's SpeedDetails.Segment list.
type FeedSegment struct {
	SegmentID           string  `json:"SegmentId"`
	RoadName            string  `json:"RoadName"`
	Direction           string  `json:"Direction"`
	AverageSpeed        float64 `json:"AverageSpeed"`
	TravelTimeInSeconds string  `json:"TravelTimeInSeconds"`
	CalculatedData      string  `json:"calculatedData"`
}

type FeedDocument struct {
	SpeedDetails struct {
		Segment []FeedSegment `json:"Segment"`
	} `json:"SpeedDetails"`
}

func (d *FeedDocument) JSON() ([]byte, error) {
	return json.Marshal(d)
}

type FeedFactory struct {
	Now time.Time
}

func NewFeedFactory(now time.Time) *FeedFactory {
	return &FeedFactory{Now: now}
}

// CreateSegment builds a segment measured age before the factory's Now.
func (f *FeedFactory) CreateSegment(road string, direction models.Direction, age time.Duration) FeedSegment {
	return FeedSegment{
		SegmentID:           cuid.New(),
		RoadName:            road,
		Direction:           string(direction),
		AverageSpeed:        fake.Float64(1, 15, 75),
		TravelTimeInSeconds: strconv.Itoa(fake.IntBetween(30, 900)),
		CalculatedData:      f.Now.Add(-age).Format(time.RFC3339),
	}
}

func (f *FeedFactory) CreateFeed(segments ...FeedSegment) *FeedDocument {
	doc := &FeedDocument{}
	doc.SpeedDetails.Segment = append([]FeedSegment{}, segments...)
	return doc
}

// CreateCorridorFeed returns perDirection current east and west segments on the
// corridor, stale ones on top, and noise from other roads.
func (f *FeedFactory) CreateCorridorFeed(corridor string, perDirection, stalePerDirection int) *FeedDocument {
	var segments []FeedSegment
	for _, dir := range []models.Direction{models.DirectionEast, models.DirectionWest} {
		for i := 0; i < perDirection; i++ {
			age := time.Duration(fake.IntBetween(0, 240)) * time.Second
			segments = append(segments, f.CreateSegment(corridor, dir, age))
		}
		for i := 0; i < stalePerDirection; i++ {
			age := time.Duration(fake.IntBetween(6, 60)) * time.Minute
			segments = append(segments, f.CreateSegment(corridor, dir, age))
		}
	}
	for i := 0; i < fake.IntBetween(2, 6); i++ {
		road := fake.RandomStringElement(otherRoads)
		dir := models.Direction(fake.RandomStringElement([]string{"north", "south", "east", "west"}))
		segments = append(segments, f.CreateSegment(road, dir, time.Minute))
	}
	return f.CreateFeed(segments...)
}
