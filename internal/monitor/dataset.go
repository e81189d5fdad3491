package monitor

import (
	"sort"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/marcin-skalski/gh-monitor/internal/github"
)

// Snapshot is one refresh cycle's data for one repository.
type Snapshot struct {
	// ID is the repository's index in the configuration and the key of its
	// rotation cursor.
	ID    int    `json:"id"`
	Title string `json:"title"`
	Stars int    `json:"stars"`
	Forks int    `json:"forks"`

	// Pulls and Issues are nil when the facet is not displayed or could not
	// be fetched.
	Pulls  []github.Item `json:"pulls,omitempty"`
	Issues []github.Item `json:"issues,omitempty"`

	// Step is the shared rotation step: the step of the last facet fetched.
	Step      int `json:"step"`
	PullStep  int `json:"pull_step"`
	IssueStep int `json:"issue_step"`
}

// Dataset is the full result of one refresh cycle. It is never mutated
// after being published.
type Dataset struct {
	Snapshots   []Snapshot `json:"snapshots"`
	RefreshedAt time.Time  `json:"refreshed_at"`
}

// SortByTitle orders snapshots by title using the collation rules of tag.
// Equal titles keep their configuration order.
func SortByTitle(snaps []Snapshot, tag language.Tag) {
	c := collate.New(tag)
	sort.SliceStable(snaps, func(i, j int) bool {
		return c.CompareString(snaps[i].Title, snaps[j].Title) < 0
	})
}
