package github

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v68/github"
	"golang.org/x/oauth2"
)

// DefaultBaseURL is the public GitHub REST API root.
const DefaultBaseURL = "https://api.github.com/"

// Client reads repository metadata, pull requests and issues over the
// GitHub REST API.
type Client struct {
	gh     *github.Client
	logger *slog.Logger
}

type clientOptions struct {
	baseURL    string
	token      string
	timeout    time.Duration
	httpClient *http.Client
}

// ClientOption configures a Client.
type ClientOption func(*clientOptions)

// WithBaseURL points the client at another API root (GitHub Enterprise, tests).
func WithBaseURL(baseURL string) ClientOption {
	return func(o *clientOptions) {
		o.baseURL = baseURL
	}
}

// WithToken attaches a static bearer token to every request.
func WithToken(token string) ClientOption {
	return func(o *clientOptions) {
		o.token = token
	}
}

// WithTimeout caps each HTTP request. Zero leaves the client default.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(o *clientOptions) {
		o.timeout = timeout
	}
}

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(o *clientOptions) {
		o.httpClient = client
	}
}

func NewClient(logger *slog.Logger, opts ...ClientOption) (*Client, error) {
	o := clientOptions{baseURL: DefaultBaseURL}
	for _, opt := range opts {
		opt(&o)
	}

	httpClient := o.httpClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if o.timeout > 0 {
		httpClient.Timeout = o.timeout
	}
	if o.token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: o.token})
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, httpClient)
		httpClient = oauth2.NewClient(ctx, ts)
	}

	gh := github.NewClient(httpClient)
	if o.baseURL != "" && o.baseURL != DefaultBaseURL {
		baseURL := o.baseURL
		if !strings.HasSuffix(baseURL, "/") {
			baseURL += "/"
		}
		parsed, err := url.Parse(baseURL)
		if err != nil {
			return nil, fmt.Errorf("parse base url %q: %w", o.baseURL, err)
		}
		gh.BaseURL = parsed
	}

	return &Client{gh: gh, logger: logger}, nil
}

// GetRepository fetches base repository metadata.
func (c *Client) GetRepository(ctx context.Context, owner, name string) (Repository, error) {
	repo, resp, err := c.gh.Repositories.Get(ctx, owner, name)
	c.trace("get repository", owner, name, resp)
	if err != nil {
		return Repository{}, fmt.Errorf("get repository %s/%s: %w", owner, name, err)
	}

	return Repository{
		FullName: repo.GetFullName(),
		Stars:    repo.GetStargazersCount(),
		Forks:    repo.GetForksCount(),
		URL:      repo.GetHTMLURL(),
	}, nil
}

// ListPullRequests lists one page of pull requests in API order.
func (c *Client) ListPullRequests(ctx context.Context, owner, name string, filter PullFilter) ([]Item, error) {
	opts := &github.PullRequestListOptions{
		State:     filter.State,
		Head:      filter.Head,
		Base:      filter.Base,
		Sort:      filter.Sort,
		Direction: filter.Direction,
	}

	pulls, resp, err := c.gh.PullRequests.List(ctx, owner, name, opts)
	c.trace("list pull requests", owner, name, resp)
	if err != nil {
		return nil, fmt.Errorf("list pull requests %s/%s: %w", owner, name, err)
	}

	items := make([]Item, 0, len(pulls))
	for _, pr := range pulls {
		if pr == nil {
			continue
		}
		items = append(items, Item{
			Number:        pr.GetNumber(),
			Title:         pr.GetTitle(),
			URL:           pr.GetHTMLURL(),
			IsPullRequest: true,
		})
	}
	return items, nil
}

// ListIssues lists one page of issues in API order. The issues endpoint also
// returns pull requests; those carry IsPullRequest.
func (c *Client) ListIssues(ctx context.Context, owner, name string, filter IssueFilter) ([]Item, error) {
	opts := &github.IssueListByRepoOptions{
		State:     filter.State,
		Sort:      filter.Sort,
		Direction: filter.Direction,
	}

	issues, resp, err := c.gh.Issues.ListByRepo(ctx, owner, name, opts)
	c.trace("list issues", owner, name, resp)
	if err != nil {
		return nil, fmt.Errorf("list issues %s/%s: %w", owner, name, err)
	}

	items := make([]Item, 0, len(issues))
	for _, issue := range issues {
		if issue == nil {
			continue
		}
		items = append(items, Item{
			Number:        issue.GetNumber(),
			Title:         issue.GetTitle(),
			URL:           issue.GetHTMLURL(),
			IsPullRequest: issue.IsPullRequest(),
		})
	}
	return items, nil
}

func (c *Client) trace(op, owner, name string, resp *github.Response) {
	if resp == nil || resp.Response == nil {
		return
	}
	c.logger.Debug("github",
		"op", op,
		"repo", owner+"/"+name,
		"status", resp.StatusCode,
		"rate_remaining", resp.Rate.Remaining)
}
