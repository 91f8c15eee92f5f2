package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is the subset of *pgxpool.Pool the repositories use.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type DocumentRepository struct {
	db    DBTX
	table string
}

func NewDocumentRepository(db DBTX, table string) *DocumentRepository {
	return &DocumentRepository{db: db, table: table}
}

func (r *DocumentRepository) Insert(ctx context.Context, readingID string, createdAt time.Time, doc []byte) error {
	query := fmt.Sprintf(`
        INSERT INTO %s (reading_id, created_at, doc)
        VALUES ($1, $2, $3::jsonb)`, pgx.Identifier{r.table}.Sanitize())

	_, err := r.db.Exec(ctx, query, readingID, createdAt, string(doc))
	if err != nil {
		return fmt.Errorf("failed to insert into %s: %w", r.table, err)
	}
	return nil
}

func (r *DocumentRepository) Count(ctx context.Context) (int, error) {
	var count int
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", pgx.Identifier{r.table}.Sanitize())
	err := r.db.QueryRow(ctx, query).Scan(&count)
	return count, err
}

// EnsureSchema creates the document tables if they do not exist yet.
func EnsureSchema(ctx context.Context, db DBTX, tables ...string) error {
	for _, table := range tables {
		ident := pgx.Identifier{table}.Sanitize()
		stmt := fmt.Sprintf(`
            CREATE TABLE IF NOT EXISTS %s (
                seq         BIGSERIAL PRIMARY KEY,
                reading_id  TEXT NOT NULL,
                created_at  TIMESTAMPTZ NOT NULL,
                doc         JSONB NOT NULL
            )`, ident)
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create table %s: %w", table, err)
		}
	}
	return nil
}
