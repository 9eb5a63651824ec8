package reporting

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/stationdash/internal/domain/models"
	"github.com/mamadbah2/stationdash/internal/engine"
)

// Source loads one record set from the station API or a cache in front of it.
type Source interface {
	Fetch(ctx context.Context, dataset models.Dataset, q models.Query) ([]models.Record, error)
}

type forceFetchKey struct{}

// ForceFetch marks ctx so that caching sources go to the API.
func ForceFetch(ctx context.Context) context.Context {
	return context.WithValue(ctx, forceFetchKey{}, true)
}

// IsForced reports whether ctx was marked by ForceFetch.
func IsForced(ctx context.Context) bool {
	forced, _ := ctx.Value(forceFetchKey{}).(bool)
	return forced
}

// snapshot is the store of one dataset and the fetch that produced it.
type snapshot struct {
	store      *engine.Store
	query      models.Query
	generation uint64
	fetchedAt  time.Time
}

// Service owns one record store per dataset and serves filtered, sorted,
// aggregated and exported views of them.
type Service struct {
	source        Source
	loc           *time.Location
	defaultMetric string
	now           func() time.Time
	logger        *zap.Logger

	mu        sync.RWMutex
	issued    map[models.Dataset]uint64
	snapshots map[models.Dataset]*snapshot
}

// Option customises a Service.
type Option func(*Service)

// WithClock overrides the time source used for default periods.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithDefaultMetric sets the metric used when a request names none.
func WithDefaultMetric(key string) Option {
	return func(s *Service) {
		if key != "" {
			s.defaultMetric = key
		}
	}
}

// NewService wires a new reporting service instance. Date parts of every
// record are read in loc (time.Local when nil).
func NewService(source Source, loc *time.Location, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.Local
	}
	s := &Service{
		source:        source,
		loc:           loc,
		defaultMetric: models.MetricNetSales,
		now:           time.Now,
		logger:        logger,
		issued:        make(map[models.Dataset]uint64),
		snapshots:     make(map[models.Dataset]*snapshot),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Location returns the zone used for date parts.
func (s *Service) Location() *time.Location { return s.loc }

// Now returns the service clock in the reporting zone.
func (s *Service) Now() time.Time { return s.now().In(s.loc) }

// QueryFor returns the server-side narrowing for dataset under f. Without a
// complete year the current year is used; trucks and stock only honour the
// year. A month or day the filter pipeline would ignore is not sent.
func (s *Service) QueryFor(dataset models.Dataset, f engine.Filter) models.Query {
	q := f.Query()
	if !q.HasYear() {
		q = models.CurrentYear(s.Now().Year())
	}
	if _, ok := f.MonthValue(); !ok {
		q.Month = ""
	}
	if _, ok := f.DayValue(); !ok {
		q.Day = ""
	}
	if dataset != models.DatasetSales {
		q.Month, q.Day = "", ""
	}
	return q
}

// Refresh refetches dataset and replaces its store. On failure the previous
// store is kept and the error returned. A response that completes after a
// newer one is not installed; the caller still gets the store built from it.
func (s *Service) Refresh(ctx context.Context, dataset models.Dataset, f engine.Filter) (*engine.Store, error) {
	snap, err := s.refresh(ctx, dataset, f)
	if err != nil {
		return nil, err
	}
	return snap.store, nil
}

func (s *Service) refresh(ctx context.Context, dataset models.Dataset, f engine.Filter) (*snapshot, error) {
	q := s.QueryFor(dataset, f)

	s.mu.Lock()
	s.issued[dataset]++
	generation := s.issued[dataset]
	s.mu.Unlock()

	records, err := s.source.Fetch(ctx, dataset, q)
	if err != nil {
		s.logger.Error("refresh dataset failed",
			zap.String("dataset", string(dataset)),
			zap.String("query", q.Key()),
			zap.Error(err),
		)
		return nil, fmt.Errorf("refresh %s: %w", dataset, err)
	}

	store := engine.NewStore(records, s.loc)
	if n := store.Unparsed(); n > 0 {
		s.logger.Debug("records without a usable date",
			zap.String("dataset", string(dataset)),
			zap.Int("count", n),
		)
	}
	snap := &snapshot{
		store:      store,
		query:      q,
		generation: generation,
		fetchedAt:  s.now(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if current := s.snapshots[dataset]; current != nil && current.generation > generation {
		s.logger.Debug("not installing stale response",
			zap.String("dataset", string(dataset)),
			zap.String("query", q.Key()),
			zap.Uint64("generation", generation),
			zap.Uint64("current", current.generation),
		)
		return snap, nil
	}
	s.snapshots[dataset] = snap
	s.logger.Info("dataset refreshed",
		zap.String("dataset", string(dataset)),
		zap.String("query", q.Key()),
		zap.Int("records", store.Len()),
	)
	return snap, nil
}

// Ensure returns the current store of dataset, refetching only when the
// stored query differs from the one f implies.
func (s *Service) Ensure(ctx context.Context, dataset models.Dataset, f engine.Filter) (*engine.Store, error) {
	snap, err := s.ensure(ctx, dataset, f)
	if err != nil {
		return nil, err
	}
	return snap.store, nil
}

func (s *Service) ensure(ctx context.Context, dataset models.Dataset, f engine.Filter) (*snapshot, error) {
	q := s.QueryFor(dataset, f)

	s.mu.RLock()
	current := s.snapshots[dataset]
	s.mu.RUnlock()

	if current != nil && current.query == q {
		return current, nil
	}
	return s.refresh(ctx, dataset, f)
}

// Store returns the current store of dataset and when it was fetched, or nil
// before the first successful fetch.
func (s *Service) Store(dataset models.Dataset) (*engine.Store, time.Time) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	current := s.snapshots[dataset]
	if current == nil {
		return nil, time.Time{}
	}
	return current.store, current.fetchedAt
}

func (s *Service) load(ctx context.Context, dataset models.Dataset, f engine.Filter, refresh bool) (*snapshot, error) {
	if refresh {
		return s.refresh(ForceFetch(ctx), dataset, f)
	}
	return s.ensure(ctx, dataset, f)
}

// Report is a computed view of one dataset.
type Report struct {
	Dataset   models.Dataset  `json:"dataset"`
	Filter    engine.Filter   `json:"filter"`
	Sort      engine.SortSpec `json:"sort"`
	Total     int             `json:"total"`
	Count     int             `json:"count"`
	FetchedAt time.Time       `json:"fetched_at"`
	Records   []models.Record `json:"records"`
}

// View filters and sorts dataset. refresh forces a refetch first.
func (s *Service) View(ctx context.Context, dataset models.Dataset, f engine.Filter, spec engine.SortSpec, refresh bool) (Report, error) {
	snap, err := s.load(ctx, dataset, f, refresh)
	if err != nil {
		return Report{}, err
	}

	view := engine.ComputeView(snap.store, f, spec)
	return Report{
		Dataset:   dataset,
		Filter:    f,
		Sort:      spec,
		Total:     snap.store.Len(),
		Count:     view.Len(),
		FetchedAt: snap.fetchedAt,
		Records:   view.Records(),
	}, nil
}

// ResolveMetric returns the metric for key, or the default metric when key
// is empty or unknown.
func (s *Service) ResolveMetric(key string) models.Metric {
	if key == "" {
		key = s.defaultMetric
	}
	m, ok := models.LookupMetric(key)
	if !ok {
		s.logger.Debug("unknown metric, using default", zap.String("metric", key))
	}
	return m
}

// KPIs aggregates metricKey over the filtered sales view.
func (s *Service) KPIs(ctx context.Context, f engine.Filter, metricKey string) (engine.KPIs, error) {
	store, err := s.Ensure(ctx, models.DatasetSales, f)
	if err != nil {
		return engine.KPIs{}, err
	}
	view := engine.ApplyFilters(store, f)
	return engine.ComputeKPIs(view, s.ResolveMetric(metricKey), f, s.now()), nil
}

// Format is an export file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ParseFormat maps user input to a format, defaulting to CSV.
func ParseFormat(s string) Format {
	if Format(s) == FormatXLSX {
		return FormatXLSX
	}
	return FormatCSV
}

// Export is a rendered download.
type Export struct {
	Filename    string
	ContentType string
	Data        []byte
	Rows        int
}

// Export renders the filtered, sorted view of dataset. It reports false when
// there is nothing to export.
func (s *Service) Export(ctx context.Context, dataset models.Dataset, f engine.Filter, spec engine.SortSpec, format Format) (Export, bool, error) {
	store, err := s.Ensure(ctx, dataset, f)
	if err != nil {
		return Export{}, false, err
	}

	view := engine.ComputeView(store, f, spec)
	if !f.Query().HasYear() {
		f.Year = s.QueryFor(dataset, f).Year
	}

	out := Export{Rows: view.Len()}
	var ok bool
	switch format {
	case FormatXLSX:
		out.Data, ok, err = engine.ExportXLSX(view, dataset.Columns(), string(dataset))
		if err != nil {
			return Export{}, false, fmt.Errorf("export %s: %w", dataset, err)
		}
		out.ContentType = engine.XLSXContentType
	default:
		format = FormatCSV
		out.Data, ok = engine.ExportCSV(view, dataset.Columns())
		out.ContentType = engine.CSVContentType
	}
	if !ok {
		return Export{}, false, nil
	}
	out.Filename = engine.ExportFilename(dataset.FilePrefix(), f, string(format))
	return out, true, nil
}

// Chart aggregates y over x across the filtered view of dataset.
func (s *Service) Chart(ctx context.Context, dataset models.Dataset, f engine.Filter, x, y string, kind engine.ChartKind) (engine.Chart, error) {
	store, err := s.Ensure(ctx, dataset, f)
	if err != nil {
		return engine.Chart{}, err
	}
	return engine.BuildChart(engine.ApplyFilters(store, f), x, y, kind)
}

// Branches lists the branches present in the dataset.
func (s *Service) Branches(ctx context.Context, dataset models.Dataset, f engine.Filter) ([]string, error) {
	store, err := s.Ensure(ctx, dataset, f)
	if err != nil {
		return nil, err
	}
	return store.Branches(), nil
}
