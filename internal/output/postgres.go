package output

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/chrisdamba/cotraffic/internal/models"
	"github.com/chrisdamba/cotraffic/internal/repositories"
	"github.com/chrisdamba/cotraffic/internal/repositories/postgres"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore keeps each collection as a JSONB table.
type PostgresStore struct {
	pool  *pgxpool.Pool
	repos map[string]repositories.DocumentRepository
}

func NewPostgresStore(ctx context.Context, cfg models.StoreConfig, logger *slog.Logger) (*PostgresStore, error) {
	pool, err := postgres.Connect(ctx, cfg.PostgresURL, cfg.ConnectAttempts, logger)
	if err != nil {
		return nil, fmt.Errorf("error connecting to database: %w", err)
	}

	store, err := newPostgresStore(ctx, pool)
	if err != nil {
		pool.Close()
		return nil, err
	}
	store.pool = pool
	return store, nil
}

func newPostgresStore(ctx context.Context, db postgres.DBTX) (*PostgresStore, error) {
	store := &PostgresStore{repos: make(map[string]repositories.DocumentRepository)}
	var tables []string
	for _, collection := range []string{models.CollectionRawTraffic, models.CollectionSummary} {
		table, _ := topicToTable(collection)
		tables = append(tables, table)
		store.repos[collection] = postgres.NewDocumentRepository(db, table)
	}
	if err := postgres.EnsureSchema(ctx, db, tables...); err != nil {
		return nil, err
	}
	return store, nil
}

func (p *PostgresStore) Insert(ctx context.Context, collection string, doc any) error {
	repo, ok := p.repos[collection]
	if !ok {
		return fmt.Errorf("unknown collection %q", collection)
	}
	id, at, err := documentKey(doc)
	if err != nil {
		return err
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("error serializing %s document: %w", collection, err)
	}
	return repo.Insert(ctx, id, at, data)
}

// Counts reports how many documents each collection holds.
func (p *PostgresStore) Counts(ctx context.Context) (map[string]int, error) {
	counts := make(map[string]int, len(p.repos))
	for collection, repo := range p.repos {
		n, err := repo.Count(ctx)
		if err != nil {
			return nil, fmt.Errorf("counting %s: %w", collection, err)
		}
		counts[collection] = n
	}
	return counts, nil
}

func (p *PostgresStore) Close() error {
	if p.pool != nil {
		p.pool.Close()
	}
	return nil
}
