package monitor

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/marcin-skalski/gh-monitor/internal/config"
	"github.com/marcin-skalski/gh-monitor/internal/github"
)

const (
	FacetBase   = "base"
	FacetPulls  = "pulls"
	FacetIssues = "issues"
)

// Source is the remote API the fetcher reads from.
type Source interface {
	GetRepository(ctx context.Context, owner, name string) (github.Repository, error)
	ListPullRequests(ctx context.Context, owner, name string, filter github.PullFilter) ([]github.Item, error)
	ListIssues(ctx context.Context, owner, name string, filter github.IssueFilter) ([]github.Item, error)
}

// FailureObserver is told about every facet that could not be fetched.
type FailureObserver interface {
	FetchFailed(facet string)
}

// Fetcher turns one repository configuration into a Snapshot.
type Fetcher struct {
	src           Source
	maxPullTitle  int
	maxIssueTitle int
	logger        *slog.Logger
	failures      FailureObserver
}

func NewFetcher(src Source, maxPullTitle, maxIssueTitle int, logger *slog.Logger) *Fetcher {
	return &Fetcher{
		src:           src,
		maxPullTitle:  maxPullTitle,
		maxIssueTitle: maxIssueTitle,
		logger:        logger,
	}
}

// ObserveFailures registers an observer for facet failures.
func (f *Fetcher) ObserveFailures(o FailureObserver) {
	f.failures = o
}

// Fetch builds the snapshot for the repository at configuration index id.
// An error means the base metadata was unavailable and the repository has
// no place in this cycle. Pull request and issue failures only drop that
// facet from the snapshot.
func (f *Fetcher) Fetch(ctx context.Context, id int, repo config.RepoConfig) (*Snapshot, error) {
	base, err := f.src.GetRepository(ctx, repo.Owner, repo.Name)
	if err != nil {
		f.failed(repo, FacetBase, err)
		return nil, fmt.Errorf("fetch %s: %w", repo.FullName(), err)
	}

	snap := &Snapshot{
		ID:    id,
		Title: repo.FullName(),
		Stars: base.Stars,
		Forks: base.Forks,
	}

	if repo.ShowsPulls() {
		pulls, err := f.src.ListPullRequests(ctx, repo.Owner, repo.Name, pullFilter(repo.Pulls))
		if err != nil {
			f.failed(repo, FacetPulls, err)
		} else {
			pulls = limit(pulls, repo.Pulls.LoadCount)
			truncateTitles(pulls, f.maxPullTitle)
			snap.Pulls = pulls
			snap.PullStep = min(repo.Pulls.DisplayCount, len(pulls))
			snap.Step = snap.PullStep
		}
	}

	if repo.ShowsIssues() {
		issues, err := f.src.ListIssues(ctx, repo.Owner, repo.Name, issueFilter(repo.Issues))
		if err != nil {
			f.failed(repo, FacetIssues, err)
		} else {
			issues = limit(withoutPullRequests(issues), repo.Issues.LoadCount)
			truncateTitles(issues, f.maxIssueTitle)
			snap.Issues = issues
			snap.IssueStep = min(repo.Issues.DisplayCount, len(issues))
			// Issues run last and own the shared step.
			snap.Step = snap.IssueStep
		}
	}

	return snap, nil
}

func (f *Fetcher) failed(repo config.RepoConfig, facet string, err error) {
	f.logger.Warn("fetch failed", "repo", repo.FullName(), "facet", facet, "err", err)
	if f.failures != nil {
		f.failures.FetchFailed(facet)
	}
}

func pullFilter(fc *config.FacetConfig) github.PullFilter {
	return github.PullFilter{
		State:     fallback(fc.State, "open"),
		Head:      fc.Head,
		Base:      fc.Base,
		Sort:      fallback(fc.Sort, "created"),
		Direction: fallback(fc.Direction, "desc"),
	}
}

func issueFilter(fc *config.FacetConfig) github.IssueFilter {
	return github.IssueFilter{
		State:     fallback(fc.State, "open"),
		Sort:      fallback(fc.Sort, "created"),
		Direction: fallback(fc.Direction, "desc"),
	}
}

func fallback(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func withoutPullRequests(items []github.Item) []github.Item {
	out := make([]github.Item, 0, len(items))
	for _, it := range items {
		if it.IsPullRequest {
			continue
		}
		out = append(out, it)
	}
	return out
}

// limit keeps the first n items; n <= 0 keeps everything. The result is
// never nil so that a fetched-but-empty facet stays distinguishable from a
// missing one.
func limit(items []github.Item, n int) []github.Item {
	if items == nil {
		items = []github.Item{}
	}
	if n > 0 && len(items) > n {
		return items[:n]
	}
	return items
}

// truncateTitles cuts titles longer than maxLen runes and appends "...".
// maxLen <= 0 disables truncation.
func truncateTitles(items []github.Item, maxLen int) {
	if maxLen <= 0 {
		return
	}
	for i := range items {
		items[i].Title = TruncateTitle(items[i].Title, maxLen)
	}
}

// TruncateTitle returns title cut to maxLen runes with "..." appended, or
// title unchanged when it already fits.
func TruncateTitle(title string, maxLen int) string {
	runes := []rune(title)
	if len(runes) <= maxLen {
		return title
	}
	return string(runes[:maxLen]) + "..."
}
