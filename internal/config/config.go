package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

const (
	RotationShared      = "shared"
	RotationIndependent = "independent"
)

const (
	defaultUpdateInterval = "10m"
	defaultRenderInterval = "5s"
	defaultTitleLength    = 100
)

type Config struct {
	UpdateInterval time.Duration `yaml:"-"`
	RawUpdate      string        `yaml:"update_interval"`
	RenderInterval time.Duration `yaml:"-"`
	RawRender      string        `yaml:"render_interval"`

	// Zero disables truncation; nil means the default.
	MaxPullRequestTitleLength *int `yaml:"max_pull_request_title_length,omitempty"`
	MaxIssueTitleLength       *int `yaml:"max_issue_title_length,omitempty"`

	Sort        *bool         `yaml:"sort,omitempty"`
	Locale      string        `yaml:"locale"`
	Rotation    string        `yaml:"rotation"`
	Concurrency int           `yaml:"concurrency"`
	API         APIConfig     `yaml:"api"`
	LogFile     string        `yaml:"log_file"`
	Log         LogConfig     `yaml:"log"`
	TUI         TUIConfig     `yaml:"tui"`
	Metrics     MetricsConfig `yaml:"metrics"`
	Repos       []RepoConfig  `yaml:"repositories"`
}

type APIConfig struct {
	BaseURL        string        `yaml:"base_url"`
	TokenEnv       string        `yaml:"token_env"`
	RequestTimeout time.Duration `yaml:"-"`
	RawTimeout     string        `yaml:"request_timeout"`
}

type RepoConfig struct {
	Owner  string       `yaml:"owner"`
	Name   string       `yaml:"name"`
	Pulls  *FacetConfig `yaml:"pulls,omitempty"`
	Issues *FacetConfig `yaml:"issues,omitempty"`
}

// FacetConfig selects and shapes one of the tracked sub-resources of a
// repository. Head and Base only apply to pull requests.
type FacetConfig struct {
	Display      bool   `yaml:"display"`
	LoadCount    int    `yaml:"load_count"`
	DisplayCount int    `yaml:"display_count"`
	State        string `yaml:"state"`
	Sort         string `yaml:"sort"`
	Direction    string `yaml:"direction"`
	Head         string `yaml:"head,omitempty"`
	Base         string `yaml:"base,omitempty"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type TUIConfig struct {
	RefreshInterval time.Duration `yaml:"-"`
	RawInterval     string        `yaml:"refresh_interval"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// FullName returns owner/name.
func (r RepoConfig) FullName() string {
	return r.Owner + "/" + r.Name
}

// ShowsPulls reports whether pull requests are fetched for the repository.
func (r RepoConfig) ShowsPulls() bool {
	return r.Pulls != nil && r.Pulls.Display
}

// ShowsIssues reports whether issues are fetched for the repository.
func (r RepoConfig) ShowsIssues() bool {
	return r.Issues != nil && r.Issues.Display
}

// SortByTitle reports whether the dataset is ordered by title after each refresh.
func (c *Config) SortByTitle() bool {
	return c.Sort == nil || *c.Sort
}

// PullTitleLimit returns the pull request title cap, 0 meaning unlimited.
func (c *Config) PullTitleLimit() int {
	if c.MaxPullRequestTitleLength == nil {
		return defaultTitleLength
	}
	return *c.MaxPullRequestTitleLength
}

// IssueTitleLimit returns the issue title cap, 0 meaning unlimited.
func (c *Config) IssueTitleLimit() int {
	if c.MaxIssueTitleLength == nil {
		return defaultTitleLength
	}
	return *c.MaxIssueTitleLength
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML configuration, applies defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.setDefaults(); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) setDefaults() error {
	var err error

	if c.RawUpdate == "" {
		c.RawUpdate = defaultUpdateInterval
	}
	if c.UpdateInterval, err = parseInterval(c.RawUpdate); err != nil {
		return fmt.Errorf("parse update_interval %q: %w", c.RawUpdate, err)
	}

	if c.RawRender == "" {
		c.RawRender = defaultRenderInterval
	}
	if c.RenderInterval, err = parseInterval(c.RawRender); err != nil {
		return fmt.Errorf("parse render_interval %q: %w", c.RawRender, err)
	}

	if c.API.RawTimeout != "" {
		if c.API.RequestTimeout, err = parseInterval(c.API.RawTimeout); err != nil {
			return fmt.Errorf("parse api.request_timeout %q: %w", c.API.RawTimeout, err)
		}
	}

	if c.Locale == "" {
		c.Locale = "en"
	}
	if c.Rotation == "" {
		c.Rotation = RotationShared
	}
	if c.Concurrency == 0 {
		c.Concurrency = 1
	}
	if c.LogFile == "" {
		c.LogFile = filepath.Join(os.TempDir(), "gh-monitor", "gh-monitor.log")
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}

	if c.TUI.RawInterval == "" {
		c.TUI.RawInterval = "1s"
	}
	if c.TUI.RefreshInterval, err = parseInterval(c.TUI.RawInterval); err != nil {
		return fmt.Errorf("parse tui.refresh_interval %q: %w", c.TUI.RawInterval, err)
	}

	for i := range c.Repos {
		if c.Repos[i].Pulls != nil {
			c.Repos[i].Pulls.setDefaults()
		}
		if c.Repos[i].Issues != nil {
			c.Repos[i].Issues.setDefaults()
		}
	}

	return nil
}

func (f *FacetConfig) setDefaults() {
	if f.State == "" {
		f.State = "open"
	}
	if f.Sort == "" {
		f.Sort = "created"
	}
	if f.Direction == "" {
		f.Direction = "desc"
	}
	if f.DisplayCount == 0 {
		f.DisplayCount = 1
	}
}

func (c *Config) validate() error {
	if c.UpdateInterval <= 0 {
		return fmt.Errorf("update_interval must be positive, got %s", c.RawUpdate)
	}
	if c.RenderInterval <= 0 {
		return fmt.Errorf("render_interval must be positive, got %s", c.RawRender)
	}
	if c.TUI.RefreshInterval <= 0 {
		return fmt.Errorf("tui.refresh_interval must be positive, got %s", c.TUI.RawInterval)
	}
	if c.API.RequestTimeout < 0 {
		return fmt.Errorf("api.request_timeout must not be negative, got %s", c.API.RawTimeout)
	}
	if c.PullTitleLimit() < 0 {
		return fmt.Errorf("max_pull_request_title_length must not be negative")
	}
	if c.IssueTitleLimit() < 0 {
		return fmt.Errorf("max_issue_title_length must not be negative")
	}
	if c.Concurrency < 0 {
		return fmt.Errorf("concurrency must be positive, got %d", c.Concurrency)
	}
	switch c.Rotation {
	case RotationShared, RotationIndependent:
	default:
		return fmt.Errorf("invalid rotation %q (shared|independent)", c.Rotation)
	}
	if _, err := language.Parse(c.Locale); err != nil {
		return fmt.Errorf("invalid locale %q: %w", c.Locale, err)
	}

	if len(c.Repos) == 0 {
		return fmt.Errorf("no repositories configured")
	}
	for i, r := range c.Repos {
		if r.Owner == "" {
			return fmt.Errorf("repositories[%d]: owner required", i)
		}
		if r.Name == "" {
			return fmt.Errorf("repositories[%d]: name required", i)
		}
		if r.Pulls != nil {
			if err := r.Pulls.validate(); err != nil {
				return fmt.Errorf("repositories[%d].pulls: %w", i, err)
			}
		}
		if r.Issues != nil {
			if err := r.Issues.validate(); err != nil {
				return fmt.Errorf("repositories[%d].issues: %w", i, err)
			}
		}
	}
	return nil
}

func (f *FacetConfig) validate() error {
	switch f.State {
	case "open", "closed", "all":
	default:
		return fmt.Errorf("invalid state %q (open|closed|all)", f.State)
	}
	switch f.Direction {
	case "asc", "desc":
	default:
		return fmt.Errorf("invalid direction %q (asc|desc)", f.Direction)
	}
	if f.LoadCount < 0 {
		return fmt.Errorf("load_count must not be negative, got %d", f.LoadCount)
	}
	if f.DisplayCount < 0 {
		return fmt.Errorf("display_count must not be negative, got %d", f.DisplayCount)
	}
	return nil
}

// parseInterval accepts a Go duration string or a bare integer of milliseconds.
func parseInterval(raw string) (time.Duration, error) {
	if ms, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return time.Duration(ms) * time.Millisecond, nil
	}
	return time.ParseDuration(raw)
}
