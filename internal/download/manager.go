package download

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/handiism/streetgrab/internal/config"
	"github.com/handiism/streetgrab/internal/geo"
	"github.com/handiism/streetgrab/internal/geocode"
	"github.com/handiism/streetgrab/internal/http"
	ioutils "github.com/handiism/streetgrab/internal/io"
	"github.com/handiism/streetgrab/internal/ledger"
	"github.com/handiism/streetgrab/internal/mapillary"
	"github.com/handiism/streetgrab/internal/metrics"
	"github.com/handiism/streetgrab/internal/model"
	"github.com/handiism/streetgrab/internal/retry"
)

// ProgressLevel indicates the severity/type of a progress message.
type ProgressLevel int

const (
	LevelInfo ProgressLevel = iota
	LevelVerbose
	LevelWarning
	LevelError
	LevelSuccess
)

// ProgressEvent represents a progress update.
type ProgressEvent struct {
	Message string
	Level   ProgressLevel
}

// MetadataFetcher returns the image records inside a bounding box, stopping
// early once more than MaxImages records have been collected.
type MetadataFetcher interface {
	FetchImages(ctx context.Context, box model.BoundingBox) (*mapillary.Result, error)
	MaxImages() int
}

// Downloader saves the body at url to dest.
type Downloader interface {
	DownloadFile(ctx context.Context, url, dest string, onProgress func(written, total int64)) error
}

// ImageInspector decides whether a downloaded file is a panorama.
type ImageInspector interface {
	IsWide(ctx context.Context, path string, threshold float64) (bool, error)
}

// Summary is the result of a pipeline run.
type Summary struct {
	Found     int
	Kept      int
	Dropped   int
	OutputDir string
}

// Counters is the kept/dropped pair shared by all workers of a run.
type Counters struct {
	mu      sync.Mutex
	kept    int
	dropped int
}

func (c *Counters) AddKept() {
	c.mu.Lock()
	c.kept++
	c.mu.Unlock()
}

func (c *Counters) AddDropped() {
	c.mu.Lock()
	c.dropped++
	c.mu.Unlock()
}

// Snapshot returns the current counts.
func (c *Counters) Snapshot() (kept, dropped int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.kept, c.dropped
}

func (c *Counters) reset() {
	c.mu.Lock()
	c.kept, c.dropped = 0, 0
	c.mu.Unlock()
}

// runContext is handed to every worker of one StartDownloads call.
type runContext struct {
	ledger   *ledger.Ledger
	counters *Counters
	outDir   string
}

// keep records a kept image. The ledger serialises its own appends.
func (r *runContext) keep(row model.AttributionRow) error {
	if err := r.ledger.Append(row); err != nil {
		return err
	}
	r.counters.AddKept()
	return nil
}

// Option customises a Manager.
type Option func(*Manager)

// WithGeocoder replaces the Nominatim geocoder.
func WithGeocoder(g geocode.Geocoder) Option {
	return func(m *Manager) { m.geocoder = g }
}

// WithFetcher replaces the Mapillary metadata client.
func WithFetcher(f MetadataFetcher) Option {
	return func(m *Manager) { m.fetcher = f }
}

// WithDownloader replaces the image download client.
func WithDownloader(d Downloader) Option {
	return func(m *Manager) { m.downloader = d }
}

// WithImageInspector replaces the image dimension probe.
func WithImageInspector(i ImageInspector) Option {
	return func(m *Manager) { m.images = i }
}

// WithLogger sets the diagnostic logger.
func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// WithMetrics sets the metrics the run reports to.
func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Manager) { m.metrics = mt }
}

// WithAdvance registers a callback invoked once per processed record.
func WithAdvance(fn func(done, total int)) Option {
	return func(m *Manager) { m.onAdvance = fn }
}

// Manager coordinates a run: geocode, pad, fetch metadata, then download.
type Manager struct {
	settings   *config.Settings
	geocoder   geocode.Geocoder
	fetcher    MetadataFetcher
	downloader Downloader
	images     ImageInspector
	metrics    *metrics.Metrics
	logger     *zap.Logger

	candidate model.GeoCandidate
	box       model.BoundingBox
	records   []model.ImageRecord

	counters  Counters
	processed int32
	total     int32

	onProgress func(ProgressEvent)
	onAdvance  func(done, total int)
}

// NewManager creates a Manager.
//
// Collaborators not supplied through options are built from settings. It
// fails with mapillary.ErrMissingToken, before any network activity, when
// no metadata fetcher is supplied and settings carry no token.
func NewManager(settings *config.Settings, onProgress func(ProgressEvent), opts ...Option) (*Manager, error) {
	m := &Manager{
		settings:   settings,
		onProgress: onProgress,
	}
	for _, opt := range opts {
		opt(m)
	}

	if m.logger == nil {
		m.logger = zap.NewNop()
	}
	if m.metrics == nil {
		m.metrics = metrics.NewMetrics()
	}

	apiClient := http.NewClient(settings.UserAgent, settings.APITimeout)

	if m.geocoder == nil {
		m.geocoder = geocode.NewNominatim(apiClient, settings.GeocoderURL,
			settings.GeocodeLimit, settings.GeocodeMinDelay, m.logger.Named("geocode"))
	}
	if m.fetcher == nil {
		fetcher, err := mapillary.NewClient(apiClient, mapillary.Options{
			Token:       settings.Token,
			BaseURL:     settings.GraphURL,
			PageSize:    settings.PageSize,
			MaxImages:   settings.MaxImages,
			MaxAttempts: settings.APIMaxAttempts,
			RetryDelay:  settings.RetryCooldown,
			Logger:      m.logger.Named("mapillary"),
			OnPage: func(page, total int) {
				m.metrics.PagesTotal.Inc()
				m.progress(ProgressEvent{Message: fmt.Sprintf("Fetched page %d (%d images so far)", page, total), Level: LevelVerbose})
			},
			OnRetry: func(attempt int, err error) {
				m.metrics.IncRetry("metadata")
				m.progress(ProgressEvent{Message: fmt.Sprintf("Retry %d/%d for metadata: %v", attempt, settings.APIMaxAttempts, err), Level: LevelVerbose})
			},
		})
		if err != nil {
			return nil, err
		}
		m.fetcher = fetcher
	}
	if m.downloader == nil {
		m.downloader = http.NewClient(settings.UserAgent, settings.DownloadTimeout)
	}
	if m.images == nil {
		m.images = ioutils.NewImageService()
	}

	return m, nil
}

// Initialize resolves the query to a padded bounding box and fetches the
// image records inside it.
func (m *Manager) Initialize(ctx context.Context, query string) error {
	m.progress(ProgressEvent{Message: fmt.Sprintf("Geocoding: %s", query), Level: LevelInfo})

	candidate, err := geocode.Resolve(ctx, m.geocoder, query)
	if err != nil {
		return err
	}
	m.candidate = candidate

	if m.settings.Debug || m.settings.GeoDebug {
		m.progress(ProgressEvent{Message: "Geocoder pick → " + candidate.Describe(), Level: LevelInfo})
	}

	m.box = geo.Pad(candidate.Box, m.settings.Radius)
	m.progress(ProgressEvent{Message: fmt.Sprintf("Search bbox: (%v, %v, %v, %v)", m.box.West, m.box.South, m.box.East, m.box.North), Level: LevelInfo})

	m.progress(ProgressEvent{Message: "Fetching metadata …", Level: LevelInfo})
	res, err := m.fetcher.FetchImages(ctx, m.box)
	if err != nil {
		return err
	}
	if res.Truncated {
		m.progress(ProgressEvent{Message: fmt.Sprintf("Stopping early – >%d images. Narrow bbox.", m.fetcher.MaxImages()), Level: LevelWarning})
	}

	m.records = res.Images
	m.metrics.ImagesFound.Set(float64(len(m.records)))
	m.progress(ProgressEvent{Message: fmt.Sprintf("%d total image(s) found.", len(m.records)), Level: LevelInfo})

	return nil
}

// StartDownloads runs every record through the download-and-filter
// pipeline on a pool of settings.Threads workers and waits for all of them.
//
// With no records it reports "No images in area." and touches nothing on
// disk. The returned error is non-nil only for setup failures or when ctx
// was cancelled; per-record failures are counted as dropped.
func (m *Manager) StartDownloads(ctx context.Context) (*Summary, error) {
	summary := &Summary{OutputDir: m.settings.OutputDir, Found: len(m.records)}
	if len(m.records) == 0 {
		m.progress(ProgressEvent{Message: "No images in area.", Level: LevelWarning})
		return summary, nil
	}

	if err := ioutils.EnsureDir(m.settings.OutputDir); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	l, err := ledger.Create(filepath.Join(m.settings.OutputDir, ledger.FileName))
	if err != nil {
		return nil, fmt.Errorf("create ledger: %w", err)
	}

	m.counters.reset()
	atomic.StoreInt32(&m.processed, 0)
	atomic.StoreInt32(&m.total, int32(len(m.records)))

	run := &runContext{ledger: l, counters: &m.counters, outDir: m.settings.OutputDir}

	threads := m.settings.Threads
	if threads < 1 {
		threads = 1
	}

	var g errgroup.Group
	g.SetLimit(threads)
	for _, rec := range m.records {
		rec := rec
		g.Go(func() error {
			m.processRecord(ctx, run, rec)
			m.advance()
			return nil
		})
	}
	g.Wait()

	rows := l.Rows()
	if err := l.Close(); err != nil {
		return nil, fmt.Errorf("close ledger: %w", err)
	}
	m.logger.Debug("ledger written", zap.String("path", filepath.Join(m.settings.OutputDir, ledger.FileName)), zap.Int("rows", rows))

	summary.Kept, summary.Dropped = m.counters.Snapshot()

	m.progress(ProgressEvent{Message: fmt.Sprintf("Kept %d, dropped %d", summary.Kept, summary.Dropped), Level: LevelVerbose})
	if summary.Kept == 0 {
		m.progress(ProgressEvent{Message: "No images match criteria.", Level: LevelWarning})
	} else {
		m.progress(ProgressEvent{Message: fmt.Sprintf("Finished. %d file(s) in %s.", summary.Kept, m.settings.OutputDir), Level: LevelSuccess})
	}

	if err := ctx.Err(); err != nil {
		return summary, err
	}
	return summary, nil
}

// GetProgress returns the pipeline's live counts.
func (m *Manager) GetProgress() (processed, total, kept, dropped int) {
	kept, dropped = m.counters.Snapshot()
	return int(atomic.LoadInt32(&m.processed)), int(atomic.LoadInt32(&m.total)), kept, dropped
}

// Candidate returns the geocoder candidate chosen by Initialize.
func (m *Manager) Candidate() model.GeoCandidate {
	return m.candidate
}

// BoundingBox returns the padded search box computed by Initialize.
func (m *Manager) BoundingBox() model.BoundingBox {
	return m.box
}

// Records returns the image records fetched by Initialize.
func (m *Manager) Records() []model.ImageRecord {
	return m.records
}

// Metrics returns the metrics the manager reports to.
func (m *Manager) Metrics() *metrics.Metrics {
	return m.metrics
}

func (m *Manager) processRecord(ctx context.Context, run *runContext, rec model.ImageRecord) {
	if !rec.HasURL() {
		m.drop(run, rec, metrics.ReasonNoURL, nil)
		return
	}

	dest := filepath.Join(run.outDir, rec.FileName())
	if err := m.download(ctx, rec, dest); err != nil {
		m.discard(dest)
		reason := metrics.ReasonDownload
		if ctx.Err() != nil {
			reason = metrics.ReasonCancelled
		}
		m.drop(run, rec, reason, err)
		return
	}

	if m.settings.PanoOnly {
		wide, err := m.images.IsWide(ctx, dest, m.settings.AspectThreshold)
		if err != nil {
			m.discard(dest)
			m.drop(run, rec, metrics.ReasonDecode, err)
			return
		}
		if !wide {
			m.discard(dest)
			m.drop(run, rec, metrics.ReasonNotWide, nil)
			return
		}
	}

	if err := run.keep(model.NewAttributionRow(rec, filepath.Base(dest))); err != nil {
		m.discard(dest)
		m.drop(run, rec, metrics.ReasonLedger, err)
		return
	}

	m.metrics.IncKept()
	m.progress(ProgressEvent{Message: fmt.Sprintf("Kept: %s", filepath.Base(dest)), Level: LevelVerbose})
}

func (m *Manager) download(ctx context.Context, rec model.ImageRecord, dest string) error {
	return retry.Do(ctx, retry.Policy{
		Delay:       m.settings.RetryCooldown,
		MaxAttempts: m.settings.DownloadMaxAttempts,
		Retryable:   http.IsTransient,
		OnRetry: func(attempt int, err error) {
			m.metrics.IncRetry("download")
			m.logger.Debug("retrying download", zap.String("id", rec.ID), zap.Int("attempt", attempt), zap.Error(err))
			m.progress(ProgressEvent{Message: fmt.Sprintf("Retry %d/%d for %s", attempt, m.settings.DownloadMaxAttempts, rec.FileName()), Level: LevelVerbose})
		},
	}, func(ctx context.Context) error {
		var last int64
		return m.downloader.DownloadFile(ctx, rec.URL, dest, func(written, total int64) {
			m.metrics.BytesTotal.Add(float64(written - last))
			last = written
		})
	})
}

func (m *Manager) drop(run *runContext, rec model.ImageRecord, reason string, err error) {
	run.counters.AddDropped()
	m.metrics.IncDropped(reason)

	fields := []zap.Field{zap.String("id", rec.ID), zap.String("reason", reason)}
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	m.logger.Debug("dropped image", fields...)

	msg := fmt.Sprintf("Dropped %s: %s", rec.ID, reason)
	if err != nil {
		msg += fmt.Sprintf(" (%v)", err)
	}
	m.progress(ProgressEvent{Message: msg, Level: LevelVerbose})
}

func (m *Manager) discard(path string) {
	if err := ioutils.RemoveIfExists(path); err != nil {
		m.logger.Warn("could not remove rejected file", zap.String("path", path), zap.Error(err))
	}
}

func (m *Manager) advance() {
	done := atomic.AddInt32(&m.processed, 1)
	if m.onAdvance != nil {
		m.onAdvance(int(done), int(atomic.LoadInt32(&m.total)))
	}
}

func (m *Manager) progress(event ProgressEvent) {
	if m.onProgress != nil {
		m.onProgress(event)
	}
}
