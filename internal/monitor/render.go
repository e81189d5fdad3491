package monitor

import (
	"time"

	"github.com/marcin-skalski/gh-monitor/internal/config"
	"github.com/marcin-skalski/gh-monitor/internal/github"
)

// View is what the presentation layer draws for one render tick.
type View struct {
	RenderedAt  time.Time  `json:"rendered_at"`
	RefreshedAt time.Time  `json:"refreshed_at"`
	Repos       []RepoView `json:"repos"`
}

// RepoView is a repository with the window of items visible this tick.
type RepoView struct {
	ID          int           `json:"id"`
	Title       string        `json:"title"`
	Stars       int           `json:"stars"`
	Forks       int           `json:"forks"`
	ShowPulls   bool          `json:"show_pulls"`
	ShowIssues  bool          `json:"show_issues"`
	Pulls       []github.Item `json:"pulls,omitempty"`
	Issues      []github.Item `json:"issues,omitempty"`
	TotalPulls  int           `json:"total_pulls"`
	TotalIssues int           `json:"total_issues"`
}

// Render advances the cursors of every repository in ds by one tick and
// returns the resulting view. A nil dataset renders an empty view.
//
// In shared rotation both facets use the snapshot's Step and the same
// cursor; issues continue from where pull requests left it. In
// independent rotation each facet has its own cursor and step.
func Render(ds *Dataset, cursors *CursorStore, rotation string, now time.Time) View {
	view := View{RenderedAt: now, Repos: []RepoView{}}
	if ds == nil {
		return view
	}
	view.RefreshedAt = ds.RefreshedAt

	for _, snap := range ds.Snapshots {
		rv := RepoView{
			ID:          snap.ID,
			Title:       snap.Title,
			Stars:       snap.Stars,
			Forks:       snap.Forks,
			ShowPulls:   snap.Pulls != nil,
			ShowIssues:  snap.Issues != nil,
			TotalPulls:  len(snap.Pulls),
			TotalIssues: len(snap.Issues),
		}

		switch rotation {
		case config.RotationIndependent:
			if rv.ShowPulls {
				rv.Pulls = cursors.RoundRobin(CursorKey{ID: snap.ID, Facet: FacetPulls}, snap.Pulls, snap.PullStep)
			}
			if rv.ShowIssues {
				rv.Issues = cursors.RoundRobin(CursorKey{ID: snap.ID, Facet: FacetIssues}, snap.Issues, snap.IssueStep)
			}
		default:
			key := SharedCursor(snap.ID)
			if rv.ShowPulls {
				rv.Pulls = cursors.Advance(key, snap.Pulls, snap.Step)
			}
			if rv.ShowIssues {
				rv.Issues = cursors.Advance(key, snap.Issues, snap.Step)
			}
		}

		view.Repos = append(view.Repos, rv)
	}
	return view
}
