package daemon

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/language"

	"github.com/marcin-skalski/gh-monitor/internal/config"
	"github.com/marcin-skalski/gh-monitor/internal/metrics"
	"github.com/marcin-skalski/gh-monitor/internal/monitor"
)

type Daemon struct {
	cfg     *config.Config
	fetcher *monitor.Fetcher
	cursors *monitor.CursorStore
	metrics *metrics.Metrics
	logger  *slog.Logger
	locale  language.Tag
	now     func() time.Time

	dataset atomic.Pointer[monitor.Dataset]
	view    atomic.Pointer[monitor.View]

	// refreshed wakes the render loop after a new dataset is published.
	refreshed  chan struct{}
	// refreshNow asks the refresh loop for an out-of-schedule cycle.
	refreshNow chan struct{}

	onRender func(monitor.View)
}

func New(cfg *config.Config, src monitor.Source, m *metrics.Metrics, logger *slog.Logger) *Daemon {
	fetcher := monitor.NewFetcher(src, cfg.PullTitleLimit(), cfg.IssueTitleLimit(), logger)
	fetcher.ObserveFailures(m)

	return &Daemon{
		cfg:        cfg,
		fetcher:    fetcher,
		cursors:    monitor.NewCursorStore(len(cfg.Repos)),
		metrics:    m,
		logger:     logger,
		locale:     language.Make(cfg.Locale),
		now:        time.Now,
		refreshed:  make(chan struct{}, 1),
		refreshNow: make(chan struct{}, 1),
	}
}

// OnRender registers fn to be called with every rendered view, from the
// render loop goroutine. Must be called before Run.
func (d *Daemon) OnRender(fn func(monitor.View)) {
	d.onRender = fn
}

// Run drives the refresh and render loops until ctx is cancelled.
func (d *Daemon) Run(ctx context.Context) error {
	d.logger.Info("daemon started",
		"update_interval", d.cfg.UpdateInterval,
		"render_interval", d.cfg.RenderInterval,
		"repos", len(d.cfg.Repos),
		"rotation", d.cfg.Rotation)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return d.refreshLoop(ctx) })
	g.Go(func() error { return d.renderLoop(ctx) })
	err := g.Wait()

	d.logger.Info("daemon stopped")
	return err
}

// RequestRefresh schedules an immediate refresh cycle. Requests made while
// one is already pending are coalesced.
func (d *Daemon) RequestRefresh() {
	select {
	case d.refreshNow <- struct{}{}:
	default:
	}
}

func (d *Daemon) refreshLoop(ctx context.Context) error {
	d.refreshAndNotify(ctx)

	ticker := time.NewTicker(d.cfg.UpdateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			d.refreshAndNotify(ctx)
		case <-d.refreshNow:
			d.logger.Debug("refresh requested")
			d.refreshAndNotify(ctx)
		}
	}
}

func (d *Daemon) refreshAndNotify(ctx context.Context) {
	if d.Refresh(ctx) == nil {
		return
	}
	select {
	case d.refreshed <- struct{}{}:
	default:
	}
}

func (d *Daemon) renderLoop(ctx context.Context) error {
	d.Render()

	ticker := time.NewTicker(d.cfg.RenderInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			d.Render()
		case <-d.refreshed:
			d.Render()
		}
	}
}

// Refresh fetches every configured repository, publishes the resulting
// dataset and returns it. Repositories whose base metadata fails are left
// out of the cycle. A cycle cut short by ctx publishes nothing and returns
// nil.
func (d *Daemon) Refresh(ctx context.Context) *monitor.Dataset {
	start := time.Now()
	snaps := make([]*monitor.Snapshot, len(d.cfg.Repos))

	var g errgroup.Group
	g.SetLimit(max(d.cfg.Concurrency, 1))
	for i, repo := range d.cfg.Repos {
		i, repo := i, repo
		g.Go(func() error {
			snap, err := d.fetcher.Fetch(ctx, i, repo)
			if err != nil {
				d.logger.Warn("repository skipped", "repo", repo.FullName(), "err", err)
				return nil
			}
			snaps[i] = snap
			return nil
		})
	}
	_ = g.Wait()

	if ctx.Err() != nil {
		d.logger.Info("refresh cancelled", "err", ctx.Err())
		return nil
	}

	ds := &monitor.Dataset{
		Snapshots:   make([]monitor.Snapshot, 0, len(snaps)),
		RefreshedAt: d.now(),
	}
	for _, snap := range snaps {
		if snap != nil {
			ds.Snapshots = append(ds.Snapshots, *snap)
		}
	}
	if d.cfg.SortByTitle() {
		monitor.SortByTitle(ds.Snapshots, d.locale)
	}

	d.dataset.Store(ds)

	elapsed := time.Since(start)
	d.metrics.RefreshCycles.Inc()
	d.metrics.RefreshDuration.Observe(elapsed.Seconds())
	d.metrics.DatasetRepositories.Set(float64(len(ds.Snapshots)))

	d.logger.Info("refresh complete",
		"repos", len(ds.Snapshots),
		"configured", len(d.cfg.Repos),
		"duration", elapsed.Round(time.Millisecond))
	return ds
}

// Render advances the rotation by one tick over the current dataset and
// publishes the resulting view.
func (d *Daemon) Render() monitor.View {
	view := monitor.Render(d.dataset.Load(), d.cursors, d.cfg.Rotation, d.now())
	d.view.Store(&view)
	d.metrics.RenderTicks.Inc()

	if d.onRender != nil {
		d.onRender(view)
	}
	return view
}

// Snapshot returns the last rendered view without advancing any cursor.
func (d *Daemon) Snapshot() monitor.View {
	if v := d.view.Load(); v != nil {
		return *v
	}
	return monitor.View{RenderedAt: d.now(), Repos: []monitor.RepoView{}}
}

// Dataset returns the last published dataset, nil before the first refresh.
func (d *Daemon) Dataset() *monitor.Dataset {
	return d.dataset.Load()
}
