package reading

import (
	"math"
	"strings"
	"time"

	"github.com/chrisdamba/cotraffic/internal/models"
)

// SelectCurrent keeps the segments on corridor heading in direction whose
// measurement is strictly less than window away from now, in either
// direction of time. staleCount is how many corridor/direction matches the
// time check dropped. Matches without any timestamp cannot be aged and are
// kept, for Sum to reject.
func SelectCurrent(segments []models.Segment, direction models.Direction, corridor string, now time.Time, window time.Duration) (current []models.Segment, staleCount int) {
	var matched []models.Segment
	for _, seg := range segments {
		if strings.EqualFold(seg.RoadName, corridor) && strings.EqualFold(string(seg.Direction), string(direction)) {
			matched = append(matched, seg)
		}
	}

	current = make([]models.Segment, 0, len(matched))
	for _, seg := range matched {
		if seg.TimestampMissing || absDuration(now.Sub(seg.CalculatedAt)) < window {
			current = append(current, seg)
		}
	}
	return current, len(matched) - len(current)
}

func absDuration(d time.Duration) time.Duration {
	if d == math.MinInt64 {
		return math.MaxInt64
	}
	if d < 0 {
		return -d
	}
	return d
}
