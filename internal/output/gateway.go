package output

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/chrisdamba/cotraffic/internal/logging"
	"github.com/chrisdamba/cotraffic/internal/models"
)

// OpenFunc connects the primary document store.
type OpenFunc func(ctx context.Context) (DocumentStore, error)

// Gateway is the only writer of durable state. The primary store is connected
// on first use and reused until Close; a failed connection is retried on the
// next write. Sinks receive a best-effort copy of every document the primary
// store accepted.
type Gateway struct {
	open    OpenFunc
	sinks   []DocumentStore
	logger  *slog.Logger
	mu      sync.Mutex
	primary DocumentStore
	closed  bool
}

func NewGateway(open OpenFunc, logger *slog.Logger, sinks ...DocumentStore) *Gateway {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Gateway{open: open, sinks: sinks, logger: logger}
}

// NewGatewayFromConfig picks the primary store from cfg.Store.Driver and adds
// the parquet archive when enabled.
func NewGatewayFromConfig(ctx context.Context, cfg *models.Config, logger *slog.Logger) (*Gateway, error) {
	if logger == nil {
		logger = logging.Discard()
	}

	var open OpenFunc
	switch cfg.Store.Driver {
	case models.StoreDriverPostgres:
		open = func(ctx context.Context) (DocumentStore, error) {
			return NewPostgresStore(ctx, cfg.Store, logger)
		}
	case models.StoreDriverKafka:
		open = func(ctx context.Context) (DocumentStore, error) {
			return NewKafkaStore(cfg.Store.KafkaBrokerList, logger)
		}
	case models.StoreDriverJSONL:
		open = func(ctx context.Context) (DocumentStore, error) {
			return NewJSONStore(cfg.Store.OutputPath), nil
		}
	default:
		return nil, fmt.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}

	var sinks []DocumentStore
	if cfg.Archive.Enabled {
		archive, err := NewParquetArchive(ctx, cfg.Archive)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, archive)
	}
	return NewGateway(open, logger, sinks...), nil
}

func (g *Gateway) WriteRaw(ctx context.Context, record *models.RawTrafficRecord) error {
	return g.write(ctx, models.CollectionRawTraffic, record)
}

func (g *Gateway) WriteSummary(ctx context.Context, record *models.SummaryRecord) error {
	return g.write(ctx, models.CollectionSummary, record)
}

func (g *Gateway) write(ctx context.Context, collection string, doc any) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	store, err := g.connect(ctx)
	if err != nil {
		return storeError(err)
	}
	if err := store.Insert(ctx, collection, doc); err != nil {
		return storeError(err)
	}
	g.logger.Debug("document stored", "collection", collection)

	for _, sink := range g.sinks {
		if err := sink.Insert(ctx, collection, doc); err != nil {
			g.logger.Warn("failed to copy document to sink", "collection", collection, "sink", fmt.Sprintf("%T", sink), "error", err)
		}
	}
	return nil
}

func (g *Gateway) connect(ctx context.Context) (DocumentStore, error) {
	if g.closed {
		return nil, errors.New("gateway is closed")
	}
	if g.primary != nil {
		return g.primary, nil
	}
	g.logger.Debug("connecting to document store")
	store, err := g.open(ctx)
	if err != nil {
		return nil, err
	}
	g.primary = store
	g.logger.Debug("connected to document store", "store", fmt.Sprintf("%T", store))
	return store, nil
}

// Close releases the primary store and every sink. Later calls are no-ops.
func (g *Gateway) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return nil
	}
	g.closed = true

	var errs []error
	if g.primary != nil {
		if err := g.primary.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing document store: %w", err))
		}
		g.primary = nil
	}
	for _, sink := range g.sinks {
		if err := sink.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing %T: %w", sink, err))
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	g.logger.Info("closed document store connection")
	return nil
}

func storeError(err error) error {
	if errors.Is(err, models.ErrStore) {
		return err
	}
	return fmt.Errorf("%w: %w", models.ErrStore, err)
}
