package daemon

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcin-skalski/gh-monitor/internal/config"
	"github.com/marcin-skalski/gh-monitor/internal/github"
	"github.com/marcin-skalski/gh-monitor/internal/logging"
	"github.com/marcin-skalski/gh-monitor/internal/metrics"
	"github.com/marcin-skalski/gh-monitor/internal/monitor"
)

var errUnavailable = errors.New("unavailable")

type stubSource struct {
	mu    sync.Mutex
	repos map[string]github.Repository
	pulls map[string][]github.Item
	calls int
}

func (s *stubSource) GetRepository(_ context.Context, owner, name string) (github.Repository, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	repo, ok := s.repos[owner+"/"+name]
	if !ok {
		return github.Repository{}, errUnavailable
	}
	return repo, nil
}

func (s *stubSource) ListPullRequests(_ context.Context, owner, name string, _ github.PullFilter) ([]github.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pulls, ok := s.pulls[owner+"/"+name]
	if !ok {
		return nil, errUnavailable
	}
	return append([]github.Item(nil), pulls...), nil
}

func (s *stubSource) ListIssues(context.Context, string, string, github.IssueFilter) ([]github.Item, error) {
	return nil, errUnavailable
}

func mustParse(t *testing.T, yaml string) *config.Config {
	t.Helper()
	cfg, err := config.Parse([]byte(yaml))
	require.NoError(t, err)
	return cfg
}

func titles(ds *monitor.Dataset) []string {
	out := make([]string, len(ds.Snapshots))
	for i, s := range ds.Snapshots {
		out[i] = s.Title
	}
	return out
}

const threeRepos = `
repositories:
  - {owner: zeta, name: tool}
  - {owner: alpha, name: lib}
  - {owner: Mid, name: app}
`

func TestRefresh_AllFetchesFail(t *testing.T) {
	cfg := mustParse(t, threeRepos)
	d := New(cfg, &stubSource{}, metrics.New(), logging.Discard())

	ds := d.Refresh(context.Background())
	require.NotNil(t, ds)
	assert.Empty(t, ds.Snapshots)
	assert.Same(t, ds, d.Dataset())

	view := d.Render()
	assert.Empty(t, view.Repos)
}

func TestRefresh_SortsByTitle(t *testing.T) {
	cfg := mustParse(t, threeRepos)
	src := &stubSource{repos: map[string]github.Repository{
		"zeta/tool": {}, "alpha/lib": {}, "Mid/app": {},
	}}
	d := New(cfg, src, metrics.New(), logging.Discard())

	ds := d.Refresh(context.Background())
	require.NotNil(t, ds)
	assert.Equal(t, []string{"alpha/lib", "Mid/app", "zeta/tool"}, titles(ds))

	// IDs still point at configuration entries.
	ids := []int{ds.Snapshots[0].ID, ds.Snapshots[1].ID, ds.Snapshots[2].ID}
	assert.Equal(t, []int{1, 2, 0}, ids)
}

func TestRefresh_UnsortedKeepsConfigOrder(t *testing.T) {
	cfg := mustParse(t, "sort: false\nconcurrency: 3\n"+threeRepos)
	src := &stubSource{repos: map[string]github.Repository{
		"zeta/tool": {}, "alpha/lib": {}, "Mid/app": {},
	}}
	d := New(cfg, src, metrics.New(), logging.Discard())

	ds := d.Refresh(context.Background())
	require.NotNil(t, ds)
	assert.Equal(t, []string{"zeta/tool", "alpha/lib", "Mid/app"}, titles(ds))
}

func TestRefresh_DropsOnlyFailedRepositories(t *testing.T) {
	cfg := mustParse(t, threeRepos)
	src := &stubSource{repos: map[string]github.Repository{"alpha/lib": {Stars: 3}}}
	d := New(cfg, src, metrics.New(), logging.Discard())

	ds := d.Refresh(context.Background())
	require.NotNil(t, ds)
	require.Len(t, ds.Snapshots, 1)
	assert.Equal(t, "alpha/lib", ds.Snapshots[0].Title)
	assert.Equal(t, 3, ds.Snapshots[0].Stars)
	assert.Equal(t, 3, src.calls)
}

func TestRefresh_CancelledKeepsPreviousDataset(t *testing.T) {
	cfg := mustParse(t, threeRepos)
	src := &stubSource{repos: map[string]github.Repository{"alpha/lib": {}}}
	d := New(cfg, src, metrics.New(), logging.Discard())

	first := d.Refresh(context.Background())
	require.NotNil(t, first)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Nil(t, d.Refresh(ctx))
	assert.Same(t, first, d.Dataset())
}

func TestRender_BeforeFirstRefresh(t *testing.T) {
	cfg := mustParse(t, threeRepos)
	d := New(cfg, &stubSource{}, metrics.New(), logging.Discard())

	assert.Empty(t, d.Snapshot().Repos)
	view := d.Render()
	assert.NotNil(t, view.Repos)
	assert.Empty(t, view.Repos)
	assert.True(t, view.RefreshedAt.IsZero())
}

func TestRender_RotatesAndPublishes(t *testing.T) {
	cfg := mustParse(t, `
repositories:
  - owner: a
    name: b
    pulls: {display: true, load_count: 3, display_count: 2}
`)
	src := &stubSource{
		repos: map[string]github.Repository{"a/b": {}},
		pulls: map[string][]github.Item{"a/b": {{Number: 1}, {Number: 2}, {Number: 3}}},
	}
	d := New(cfg, src, metrics.New(), logging.Discard())
	require.NotNil(t, d.Refresh(context.Background()))

	var hooked []monitor.View
	d.OnRender(func(v monitor.View) { hooked = append(hooked, v) })

	first := d.Render()
	assert.Equal(t, []github.Item{{Number: 2}, {Number: 3}}, first.Repos[0].Pulls)
	assert.Equal(t, first, d.Snapshot())

	second := d.Render()
	assert.Equal(t, []github.Item{{Number: 1}, {Number: 2}}, second.Repos[0].Pulls)
	// Reading the snapshot does not advance the rotation.
	assert.Equal(t, second, d.Snapshot())
	assert.Equal(t, second, d.Snapshot())

	assert.Len(t, hooked, 2)
}

func TestRun_RendersRefreshedDataset(t *testing.T) {
	cfg := mustParse(t, `
update_interval: 1h
render_interval: 1h
repositories:
  - {owner: a, name: b}
`)
	src := &stubSource{repos: map[string]github.Repository{"a/b": {Stars: 9}}}
	d := New(cfg, src, metrics.New(), logging.Discard())

	views := make(chan monitor.View, 8)
	d.OnRender(func(v monitor.View) { views <- v })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	deadline := time.After(5 * time.Second)
	for {
		select {
		case v := <-views:
			if len(v.Repos) == 0 {
				continue
			}
			assert.Equal(t, 9, v.Repos[0].Stars)
			cancel()
			select {
			case err := <-done:
				assert.NoError(t, err)
			case <-time.After(5 * time.Second):
				t.Fatal("Run did not return after cancel")
			}
			return
		case <-deadline:
			cancel()
			t.Fatal("no view with data rendered")
		}
	}
}

func TestRun_RequestRefresh(t *testing.T) {
	cfg := mustParse(t, `
update_interval: 1h
render_interval: 1h
repositories:
  - {owner: a, name: b}
`)
	src := &stubSource{repos: map[string]github.Repository{"a/b": {}}}
	d := New(cfg, src, metrics.New(), logging.Discard())

	refreshed := make(chan struct{}, 8)
	d.OnRender(func(v monitor.View) {
		if !v.RefreshedAt.IsZero() {
			refreshed <- struct{}{}
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = d.Run(ctx) }()

	select {
	case <-refreshed:
	case <-time.After(5 * time.Second):
		t.Fatal("initial refresh not rendered")
	}

	d.RequestRefresh()
	assert.Eventually(t, func() bool {
		src.mu.Lock()
		defer src.mu.Unlock()
		return src.calls == 2
	}, 5*time.Second, 10*time.Millisecond)
}

func TestRefresh_RecordsMetrics(t *testing.T) {
	cfg := mustParse(t, `
repositories:
  - owner: a
    name: b
    pulls: {display: true}
  - {owner: c, name: d}
`)
	src := &stubSource{repos: map[string]github.Repository{"a/b": {}}}
	m := metrics.New()
	d := New(cfg, src, m, logging.Discard())

	d.Refresh(context.Background())
	d.Render()

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()
	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), "ghmonitor_refresh_cycles_total 1")
	assert.Contains(t, string(body), `ghmonitor_fetch_errors_total{facet="base"} 1`)
	assert.Contains(t, string(body), `ghmonitor_fetch_errors_total{facet="pulls"} 1`)
	assert.Contains(t, string(body), "ghmonitor_dataset_repositories 1")
	assert.Contains(t, string(body), "ghmonitor_render_ticks_total 1")
}
