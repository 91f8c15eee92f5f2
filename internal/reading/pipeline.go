package reading

import (
	"context"
	"log/slog"
	"time"

	"github.com/chrisdamba/cotraffic/internal/feed"
	"github.com/chrisdamba/cotraffic/internal/logging"
	"github.com/chrisdamba/cotraffic/internal/models"
	"github.com/lucsky/cuid"
)

type Fetcher interface {
	Fetch(ctx context.Context) ([]byte, error)
}

type Persister interface {
	WriteRaw(ctx context.Context, record *models.RawTrafficRecord) error
	WriteSummary(ctx context.Context, record *models.SummaryRecord) error
}

type Options struct {
	Corridor    string
	StaleWindow time.Duration
	Logger      *slog.Logger
	Clock       func() time.Time
	NewID       func() string
}

// Reading is the outcome of one pipeline run.
type Reading struct {
	ID       string
	State    State
	FailedIn State
	Snapshot *models.Snapshot
	West     models.DirectionalTotal
	East     models.DirectionalTotal
	Summary  *models.SummaryRecord
}

// Pipeline takes one traffic reading: fetch, parse, filter, aggregate, then
// persist the raw snapshot followed by the summary.
type Pipeline struct {
	fetcher  Fetcher
	store    Persister
	corridor string
	window   time.Duration
	logger   *slog.Logger
	clock    func() time.Time
	newID    func() string
}

func NewPipeline(fetcher Fetcher, store Persister, opts Options) *Pipeline {
	p := &Pipeline{
		fetcher:  fetcher,
		store:    store,
		corridor: opts.Corridor,
		window:   opts.StaleWindow,
		logger:   opts.Logger,
		clock:    opts.Clock,
		newID:    opts.NewID,
	}
	if p.corridor == "" {
		p.corridor = models.DefaultCorridor
	}
	if p.window <= 0 {
		p.window = models.DefaultStaleWindow
	}
	if p.logger == nil {
		p.logger = logging.Discard()
	}
	if p.clock == nil {
		p.clock = time.Now
	}
	if p.newID == nil {
		p.newID = cuid.New
	}
	return p
}

// Run executes every stage in order. On failure the returned error is a
// *StageError and no later stage has run; a raw record written before a
// failing summary write stays written.
func (p *Pipeline) Run(ctx context.Context) (*Reading, error) {
	r := &Reading{ID: p.newID(), State: Idle}
	log := p.logger.With("reading", r.ID)

	advance := func(to State) {
		log.Debug("stage transition", "from", r.State, "to", to)
		r.State = to
	}
	fail := func(err error) (*Reading, error) {
		r.FailedIn = r.State
		r.State = Failed
		log.Error("reading failed", "stage", r.FailedIn, "error", err)
		return r, &StageError{Stage: r.FailedIn, Err: err}
	}

	advance(Fetching)
	log.Debug("requesting traffic data", "corridor", p.corridor)
	raw, err := p.fetcher.Fetch(ctx)
	if err != nil {
		return fail(err)
	}
	fetchedAt := p.clock()
	log.Debug("got raw data", "bytes", len(raw))

	advance(Parsing)
	snapshot, err := feed.Parse(raw, fetchedAt)
	if err != nil {
		return fail(err)
	}
	r.Snapshot = snapshot

	advance(Filtering)
	now := p.clock()
	west, westStale := SelectCurrent(snapshot.Segments, models.DirectionWest, p.corridor, now, p.window)
	east, eastStale := SelectCurrent(snapshot.Segments, models.DirectionEast, p.corridor, now, p.window)
	if westStale > 0 {
		log.Warn("dropped stale segments", "direction", models.DirectionWest, "count", westStale, "window", p.window)
	}
	if eastStale > 0 {
		log.Warn("dropped stale segments", "direction", models.DirectionEast, "count", eastStale, "window", p.window)
	}

	advance(Aggregating)
	if r.West, err = Totals(models.DirectionWest, west, westStale); err != nil {
		return fail(err)
	}
	if r.East, err = Totals(models.DirectionEast, east, eastStale); err != nil {
		return fail(err)
	}
	westSecs, eastSecs := r.West.TotalSeconds, r.East.TotalSeconds
	log.Info("west bound total travel time", "minutes", float64(westSecs)/60, "segments", r.West.SegmentCount)
	log.Info("east bound total travel time", "minutes", float64(eastSecs)/60, "segments", r.East.SegmentCount)

	advance(PersistingRaw)
	err = p.store.WriteRaw(ctx, &models.RawTrafficRecord{
		ID:        r.ID,
		FetchedAt: snapshot.FetchedAt,
		Payload:   snapshot.Payload,
	})
	if err != nil {
		return fail(err)
	}
	log.Info("inserted raw record")

	advance(PersistingSummary)
	summary := &models.SummaryRecord{
		ID:                     r.ID,
		WestTotalTravelTimeSec: westSecs,
		EastTotalTravelTimeSec: eastSecs,
		DateTime:               p.clock(),
	}
	if err := p.store.WriteSummary(ctx, summary); err != nil {
		return fail(err)
	}
	r.Summary = summary
	log.Info("inserted summary record")

	advance(Done)
	return r, nil
}
