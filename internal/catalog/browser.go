package catalog

import (
	"context"
	"log/slog"
	"net/url"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/DavidAnato/AgriConnect/pkg/logger"
)

// DefaultDebounce is the quiet period after the last search keystroke.
const DefaultDebounce = 300 * time.Millisecond

// Lister fetches one page of products.
type Lister interface {
	List(ctx context.Context, q Query) (Results, error)
}

// Snapshot is the browsing state a UI renders.
type Snapshot struct {
	Query Query `json:"query"`
	// URL is the query string mirroring Query, defaults omitted.
	URL     string  `json:"url"`
	Results Results `json:"results"`
	// Seq identifies the query Results answers.
	Seq     uint64 `json:"seq"`
	Pending bool   `json:"pending"`
	Err     error  `json:"-"`
}

// Browser holds catalog filters and queries the backend as they change.
// Free-text search is debounced; every other change resets to the first
// page and queries at once. Responses are sequenced so that a slow answer
// to an older query never replaces a newer one.
type Browser struct {
	lister   Lister
	logger   *slog.Logger
	debounce time.Duration
	defaults Query
	onChange func(Snapshot)

	mu      sync.Mutex
	query   Query
	timer   *time.Timer
	issued  uint64
	applied uint64
	last    Snapshot
	closed  bool
}

// BrowserOption configures a Browser.
type BrowserOption func(*Browser)

// WithDebounce sets the search quiet period.
func WithDebounce(d time.Duration) BrowserOption {
	return func(b *Browser) { b.debounce = d }
}

// WithPageSize sets the default page size.
func WithPageSize(n int) BrowserOption {
	return func(b *Browser) {
		if n > 0 {
			b.defaults.PageSize = n
		}
	}
}

// OnChange registers fn to receive every applied result, including those of
// debounced searches.
func OnChange(fn func(Snapshot)) BrowserOption {
	return func(b *Browser) { b.onChange = fn }
}

// NewBrowser creates a Browser in the default state. No query is issued
// until a setter or Load is called.
func NewBrowser(lister Lister, l *slog.Logger, opts ...BrowserOption) *Browser {
	if l == nil {
		l = logger.Discard()
	}
	b := &Browser{
		lister:   lister,
		logger:   l,
		debounce: DefaultDebounce,
		defaults: Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.query = b.defaults
	b.last = Snapshot{Query: b.query}
	return b
}

// Query returns the current state.
func (b *Browser) Query() Query {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.query
}

// Values returns the URL mirror of the current state.
func (b *Browser) Values() url.Values {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.query.Diff(b.defaults)
}

// Snapshot returns the latest applied result with the current state.
func (b *Browser) Snapshot() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	s := b.last
	s.Query = b.query
	s.URL = b.query.Diff(b.defaults).Encode()
	s.Pending = b.timer != nil || b.issued > b.applied
	return s
}

// SetSearch updates the search text and schedules a query once no other
// change arrived for the debounce period. It returns at once.
func (b *Browser) SetSearch(ctx context.Context, text string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}

	b.query.Search = strings.TrimSpace(text)
	b.query.Page = 1
	b.stopTimerLocked()

	// The query outlives the call that typed the text.
	ctx = context.WithoutCancel(ctx)
	var timer *time.Timer
	timer = time.AfterFunc(b.debounce, func() {
		b.mu.Lock()
		// A timer stopped too late still fires; only the armed one runs.
		if b.closed || b.timer != timer {
			b.mu.Unlock()
			return
		}
		b.timer = nil
		q, seq := b.issueLocked()
		b.mu.Unlock()

		_, _ = b.run(ctx, q, seq)
	})
	b.timer = timer
}

// SetUnitType filters by unit type.
func (b *Browser) SetUnitType(ctx context.Context, unitType string) (Snapshot, error) {
	return b.update(ctx, func(q *Query) { q.UnitType = unitType })
}

// SetCommune filters by commune. The village filter belongs to the previous
// commune and is cleared.
func (b *Browser) SetCommune(ctx context.Context, commune string) (Snapshot, error) {
	return b.update(ctx, func(q *Query) {
		if q.Commune != commune {
			q.Village = ""
		}
		q.Commune = commune
	})
}

// SetVillage filters by village.
func (b *Browser) SetVillage(ctx context.Context, village string) (Snapshot, error) {
	return b.update(ctx, func(q *Query) { q.Village = village })
}

// SetProducer filters by producer; 0 removes the filter.
func (b *Browser) SetProducer(ctx context.Context, producerID int64) (Snapshot, error) {
	return b.update(ctx, func(q *Query) { q.ProducerID = producerID })
}

// SetCategory filters by category name.
func (b *Browser) SetCategory(ctx context.Context, category string) (Snapshot, error) {
	return b.update(ctx, func(q *Query) { q.Category = category })
}

// SetOrdering changes the sort key. Unknown keys restore the default.
func (b *Browser) SetOrdering(ctx context.Context, ordering string) (Snapshot, error) {
	return b.update(ctx, func(q *Query) {
		q.Ordering = b.defaults.Ordering
		if slices.Contains(Orderings, ordering) {
			q.Ordering = ordering
		}
	})
}

// SetPage queries the requested page.
func (b *Browser) SetPage(ctx context.Context, page int) (Snapshot, error) {
	if page < 1 {
		page = 1
	}
	b.mu.Lock()
	b.stopTimerLocked()
	b.query.Page = page
	q, seq := b.issueLocked()
	b.mu.Unlock()

	return b.run(ctx, q, seq)
}

// Load replaces the whole state from a URL query and queries it.
func (b *Browser) Load(ctx context.Context, v url.Values) (Snapshot, error) {
	b.mu.Lock()
	b.stopTimerLocked()
	b.query = ParseQueryWith(v, b.defaults)
	q, seq := b.issueLocked()
	b.mu.Unlock()

	return b.run(ctx, q, seq)
}

// Refresh re-runs the current query.
func (b *Browser) Refresh(ctx context.Context) (Snapshot, error) {
	b.mu.Lock()
	q, seq := b.issueLocked()
	b.mu.Unlock()

	return b.run(ctx, q, seq)
}

// Close cancels a pending search and disables later debounced searches.
func (b *Browser) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.stopTimerLocked()
}

func (b *Browser) update(ctx context.Context, change func(*Query)) (Snapshot, error) {
	b.mu.Lock()
	b.stopTimerLocked()
	change(&b.query)
	b.query.Page = 1
	q, seq := b.issueLocked()
	b.mu.Unlock()

	return b.run(ctx, q, seq)
}

func (b *Browser) stopTimerLocked() {
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
}

func (b *Browser) issueLocked() (Query, uint64) {
	b.issued++
	return b.query, b.issued
}

// run fetches q and applies the result unless a newer one was applied
// meanwhile. It returns the latest applied snapshot.
func (b *Browser) run(ctx context.Context, q Query, seq uint64) (Snapshot, error) {
	results, err := b.lister.List(ctx, q)

	b.mu.Lock()
	if seq < b.applied {
		b.mu.Unlock()
		logger.WithContext(ctx, b.logger).DebugContext(ctx, "discarding stale catalog response",
			slog.Uint64("seq", seq),
		)
		return b.Snapshot(), err
	}

	b.applied = seq
	if err != nil {
		b.last.Err = err
		b.last.Seq = seq
	} else {
		b.last = Snapshot{Query: q, Results: results, Seq: seq}
	}
	b.mu.Unlock()

	snap := b.Snapshot()
	if err != nil {
		logger.WithContext(ctx, b.logger).WarnContext(ctx, "catalog query failed",
			slog.String("error", err.Error()),
		)
	}
	if b.onChange != nil {
		b.onChange(snap)
	}
	return snap, err
}
