package pagination

import (
	"context"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/Sternrassler/photo-fetcher/pkg/client"
	"github.com/Sternrassler/photo-fetcher/pkg/favorites"
	"github.com/Sternrassler/photo-fetcher/pkg/photo"
)

// DefaultPageSize is the number of records requested per page.
const DefaultPageSize = 30

// Prometheus metrics for feed progress.
var (
	photoPagesLoadedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "photo_pages_loaded_total",
		Help: "Total number of feed page loads by result",
	}, []string{"result"}) // "full", "short", "failed", "stale"

	photoFeedRecords = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "photo_feed_records",
		Help: "Number of records currently accumulated in the feed",
	})
)

// Loader fetches one page of photos. source.Repository satisfies it.
type Loader interface {
	FetchPhotos(ctx context.Context, page, limit int) ([]photo.Photo, error)
}

// Option configures a Feed.
type Option func(*Feed)

// WithPageSize sets the page size. Values < 1 are ignored.
func WithPageSize(n int) Option {
	return func(f *Feed) {
		if n >= 1 {
			f.pageSize = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(f *Feed) {
		f.logger = logger
	}
}

// Feed is the pagination state machine and result accumulator for one
// screen. It is safe for concurrent use.
type Feed struct {
	loader   Loader
	favs     *favorites.Set
	pageSize int
	logger   zerolog.Logger

	mu               sync.Mutex
	records          []photo.Photo
	seen             map[string]struct{}
	cursor           int
	state            State
	lastErr          *client.Error
	showingFavorites bool
	closed           bool
	generation       uint64

	// inFlight is set while loader.FetchPhotos runs, including loads whose
	// result will be dropped as stale.
	inFlight bool

	// reloadPending asks the in-flight load to reload page 1 once it returns.
	reloadPending bool
}

// NewFeed creates an idle feed at page 1.
func NewFeed(loader Loader, favs *favorites.Set, opts ...Option) *Feed {
	if loader == nil {
		panic("loader cannot be nil")
	}
	if favs == nil {
		panic("favorite set cannot be nil")
	}

	f := &Feed{
		loader:   loader,
		favs:     favs,
		pageSize: DefaultPageSize,
		logger:   zerolog.Nop(),
		seen:     make(map[string]struct{}),
		cursor:   1,
		state:    StateIdle,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// LoadMore fetches the page at the cursor and merges it. It reports
// whether a fetch was performed; it is a no-op while any load is in
// flight (including one superseded by Reset or a view switch), once
// Exhausted, in the favorites view and after Close. The returned error
// is the *client.Error also recorded as the feed's last error.
func (f *Feed) LoadMore(ctx context.Context) (bool, error) {
	f.mu.Lock()
	if reason := f.skipReasonLocked(); reason != "" {
		f.mu.Unlock()
		f.logger.Debug().Str("reason", reason).Msg("Load skipped")
		return false, nil
	}

	page := f.cursor
	gen := f.generation
	f.state = StateFetching
	f.inFlight = true
	f.lastErr = nil
	f.mu.Unlock()

	f.logger.Debug().
		Int("page", page).
		Int("page_size", f.pageSize).
		Msg("Loading page")

	records, err := f.loader.FetchPhotos(ctx, page, f.pageSize)

	f.mu.Lock()
	f.inFlight = false

	if gen != f.generation {
		reload := f.reloadPending && !f.closed
		f.reloadPending = false
		f.mu.Unlock()

		photoPagesLoadedTotal.WithLabelValues("stale").Inc()
		f.logger.Debug().Int("page", page).Msg("Dropping result of superseded load")
		if reload {
			return f.LoadMore(ctx)
		}
		return false, nil
	}
	defer f.mu.Unlock()

	if err != nil {
		e := client.Normalize(err)
		f.state = StateErrored
		f.lastErr = e
		photoPagesLoadedTotal.WithLabelValues("failed").Inc()
		f.logger.Warn().
			Err(e).
			Int("page", page).
			Msg("Page load failed")
		return true, e
	}

	added := f.appendLocked(records)
	if len(records) >= f.pageSize {
		f.cursor++
		f.state = StateIdle
		photoPagesLoadedTotal.WithLabelValues("full").Inc()
	} else {
		f.state = StateExhausted
		photoPagesLoadedTotal.WithLabelValues("short").Inc()
	}
	photoFeedRecords.Set(float64(len(f.records)))

	f.logger.Info().
		Int("page", page).
		Int("count", len(records)).
		Int("added", added).
		Int("total", len(f.records)).
		Str("state", f.state.String()).
		Msg("Page loaded")

	return true, nil
}

func (f *Feed) skipReasonLocked() string {
	switch {
	case f.closed:
		return "closed"
	case f.showingFavorites:
		return "favorites view"
	case f.inFlight, f.state == StateFetching:
		return "fetch in flight"
	case f.state == StateExhausted:
		return "exhausted"
	default:
		return ""
	}
}

// appendLocked appends records not already present by id and returns how
// many were added.
func (f *Feed) appendLocked(records []photo.Photo) int {
	added := 0
	for _, r := range records {
		if _, dup := f.seen[r.ID]; dup {
			continue
		}
		f.seen[r.ID] = struct{}{}
		f.records = append(f.records, r)
		added++
	}
	if added < len(records) {
		f.logger.Warn().
			Int("duplicates", len(records)-added).
			Msg("Dropped records already in the feed")
	}
	return added
}

// ToggleFavoritesView switches between the feed and the favorites view and
// reports whether the favorites view is now shown. Entering it filters the
// accumulated records to favorites; leaving it clears the records and
// loads page 1 again, or leaves that reload to the load still in flight.
func (f *Feed) ToggleFavoritesView(ctx context.Context) (bool, error) {
	f.mu.Lock()
	if f.closed {
		showing := f.showingFavorites
		f.mu.Unlock()
		return showing, nil
	}

	f.generation++
	f.showingFavorites = !f.showingFavorites
	f.cursor = 1
	f.state = StateIdle
	f.lastErr = nil

	if f.showingFavorites {
		f.reloadPending = false
		f.resetRecordsLocked(f.favs.Filter(f.records))
		f.mu.Unlock()
		f.logger.Debug().Int("count", f.Len()).Msg("Showing favorites")
		return true, nil
	}

	f.resetRecordsLocked(nil)
	if f.inFlight {
		f.reloadPending = true
		f.mu.Unlock()
		f.logger.Debug().Msg("Leaving favorites view, reload deferred until the load in flight returns")
		return false, nil
	}
	f.mu.Unlock()

	f.logger.Debug().Msg("Leaving favorites view, reloading feed")
	_, err := f.LoadMore(ctx)
	return false, err
}

// ToggleFavorite flips the favorite membership of id and reports the new
// membership. In the favorites view an unfavorited record is removed.
func (f *Feed) ToggleFavorite(ctx context.Context, id string) (bool, error) {
	member, err := f.favs.Toggle(ctx, id)
	if err != nil {
		return member, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.showingFavorites && !member {
		kept := f.records[:0:0]
		for _, r := range f.records {
			if r.ID != id {
				kept = append(kept, r)
			}
		}
		f.resetRecordsLocked(kept)
	}
	return member, nil
}

// IsFavorite reports whether id is a favorite.
func (f *Feed) IsFavorite(id string) bool {
	return f.favs.IsFavorite(id)
}

// Reset returns the feed to an empty, idle state at page 1 and leaves the
// favorites view. A load in flight is dropped when it completes.
func (f *Feed) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.generation++
	f.reloadPending = false
	f.resetRecordsLocked(nil)
	f.cursor = 1
	f.state = StateIdle
	f.lastErr = nil
	f.showingFavorites = false
}

// Close stops the feed. Later loads are no-ops and a load in flight is
// dropped when it completes.
func (f *Feed) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.generation++
	f.closed = true
	f.reloadPending = false
	if f.state == StateFetching {
		f.state = StateIdle
	}
}

// Snapshot returns a copy of the current state.
func (f *Feed) Snapshot() Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()

	records := make([]photo.Photo, len(f.records))
	copy(records, f.records)

	snap := Snapshot{
		Records:          records,
		Cursor:           f.cursor,
		PageSize:         f.pageSize,
		State:            f.state,
		ShowingFavorites: f.showingFavorites,
	}
	if f.lastErr != nil {
		snap.LastError = f.lastErr
		snap.Issue = IssueFor(f.lastErr)
	}
	return snap
}

// Issue describes the last failure for display, or nil.
func (f *Feed) Issue() *Issue {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.lastErr == nil {
		return nil
	}
	return IssueFor(f.lastErr)
}

// State returns the current state.
func (f *Feed) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Len returns the number of accumulated records.
func (f *Feed) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.records)
}

func (f *Feed) resetRecordsLocked(records []photo.Photo) {
	f.records = records
	f.seen = make(map[string]struct{}, len(records))
	for _, r := range records {
		f.seen[r.ID] = struct{}{}
	}
	photoFeedRecords.Set(float64(len(f.records)))
}
