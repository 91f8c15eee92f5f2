package reading

import (
	"fmt"
	"math"

	"github.com/chrisdamba/cotraffic/internal/models"
)

// Sum adds up the travel times of segments. A segment without a calculation
// time, a travel time that is not a non-negative integer, or a total that does
// not fit in an int aborts the sum with models.ErrDataQuality.
func Sum(segments []models.Segment) (int, error) {
	total := 0
	for i, seg := range segments {
		if seg.TimestampMissing {
			return 0, fmt.Errorf("segment %d (%s %s): %w: missing calculatedData", i, seg.RoadName, seg.Direction, models.ErrDataQuality)
		}
		secs, err := seg.TravelTime.Seconds()
		if err != nil {
			return 0, fmt.Errorf("segment %d (%s %s): %w", i, seg.RoadName, seg.Direction, err)
		}
		if secs > math.MaxInt-total {
			return 0, fmt.Errorf("segment %d (%s %s): %w: travel time total overflows", i, seg.RoadName, seg.Direction, models.ErrDataQuality)
		}
		total += secs
	}
	return total, nil
}

// Totals builds the directional total for the current segments SelectCurrent
// kept and the number it dropped as stale.
func Totals(direction models.Direction, current []models.Segment, stale int) (models.DirectionalTotal, error) {
	secs, err := Sum(current)
	if err != nil {
		return models.DirectionalTotal{}, fmt.Errorf("%s bound: %w", direction, err)
	}
	return models.DirectionalTotal{
		Direction:         direction,
		TotalSeconds:      secs,
		SegmentCount:      len(current),
		StaleDroppedCount: stale,
	}, nil
}
