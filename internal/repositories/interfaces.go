package repositories

import (
	"context"
	"time"
)

// DocumentRepository appends JSON documents to one collection. There are no
// update or delete paths.
type DocumentRepository interface {
	Insert(ctx context.Context, readingID string, createdAt time.Time, doc []byte) error
	Count(ctx context.Context) (int, error)
}
