package output

import (
	"context"
	"fmt"
	"time"

	"github.com/chrisdamba/cotraffic/internal/models"
)

// DocumentStore appends documents to named collections.
type DocumentStore interface {
	Insert(ctx context.Context, collection string, doc any) error
	Close() error
}

// documentKey returns the reading id and the timestamp a document is filed
// under.
func documentKey(doc any) (string, time.Time, error) {
	switch d := doc.(type) {
	case *models.RawTrafficRecord:
		return d.ID, d.FetchedAt, nil
	case *models.SummaryRecord:
		return d.ID, d.DateTime, nil
	default:
		return "", time.Time{}, fmt.Errorf("unsupported document type %T", doc)
	}
}

func topicToTable(collection string) (string, error) {
	switch collection {
	case models.CollectionRawTraffic:
		return "raw_traffic", nil
	case models.CollectionSummary:
		return "summary", nil
	default:
		return "", fmt.Errorf("unknown collection %q", collection)
	}
}
