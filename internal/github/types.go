package github

// Repository is the subset of repository metadata the monitor displays.
type Repository struct {
	FullName string `json:"full_name"`
	Stars    int    `json:"stars"`
	Forks    int    `json:"forks"`
	URL      string `json:"url"`
}

// Item is a pull request or issue summary.
type Item struct {
	Number        int    `json:"number"`
	Title         string `json:"title"`
	URL           string `json:"url,omitempty"`
	IsPullRequest bool   `json:"-"`
}

// PullFilter mirrors the query parameters of the pull request list endpoint.
// Empty fields are omitted from the request.
type PullFilter struct {
	State     string
	Head      string
	Base      string
	Sort      string
	Direction string
}

// IssueFilter mirrors the query parameters of the issue list endpoint.
type IssueFilter struct {
	State     string
	Sort      string
	Direction string
}
