package tui

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/marcin-skalski/gh-monitor/internal/github"
	"github.com/marcin-skalski/gh-monitor/internal/monitor"
)

// Render draws view as a repository tree. A positive width truncates every
// line's text to that many cells.
func Render(view monitor.View, width int) string {
	var b strings.Builder

	pulls, issues := 0, 0
	for _, r := range view.Repos {
		pulls += r.TotalPulls
		issues += r.TotalIssues
	}
	header := fmt.Sprintf("gh-monitor │ %d repos │ %d pull requests │ %d issues",
		len(view.Repos), pulls, issues)
	b.WriteString(headerStyle.Render(fit(header, width-2)))
	b.WriteString("\n")

	b.WriteString(renderTree(view, width))

	var footer string
	if view.RefreshedAt.IsZero() {
		footer = "Waiting for first refresh │ q:quit"
	} else {
		footer = fmt.Sprintf("Refreshed %s (%s ago) │ q:quit r:refresh j/k:scroll",
			view.RefreshedAt.Format("15:04:05"),
			formatDuration(view.RenderedAt.Sub(view.RefreshedAt)))
	}
	b.WriteString(footerStyle.Render(fit(footer, width)))

	return b.String()
}

func renderTree(view monitor.View, width int) string {
	if len(view.Repos) == 0 {
		msg := "  (no repositories available)"
		if view.RefreshedAt.IsZero() {
			msg = "  (waiting for first refresh)"
		}
		return emptyStyle.Render(fit(msg, width)) + "\n"
	}

	var b strings.Builder
	for i, repo := range view.Repos {
		isLast := i == len(view.Repos)-1
		prefix := "├─"
		childPrefix := "│  "
		if isLast {
			prefix = "└─"
			childPrefix = "   "
		}

		stars := fmt.Sprintf("★ %d", repo.Stars)
		forks := fmt.Sprintf("⑂ %d", repo.Forks)
		nameWidth := 0
		if width > 0 {
			nameWidth = max(width-runewidth.StringWidth(stars)-runewidth.StringWidth(forks)-4, 1)
		}
		b.WriteString(repoStyle.Render(fit(prefix+" "+repo.Title, nameWidth)))
		b.WriteString("  ")
		b.WriteString(starsStyle.Render(stars))
		b.WriteString("  ")
		b.WriteString(forksStyle.Render(forks))
		b.WriteString("\n")

		if repo.ShowPulls {
			b.WriteString(renderFacet(childPrefix, "Pull requests", monitor.FacetPulls, repo.Pulls, repo.TotalPulls, width))
		}
		if repo.ShowIssues {
			b.WriteString(renderFacet(childPrefix, "Issues", monitor.FacetIssues, repo.Issues, repo.TotalIssues, width))
		}
	}

	return b.String()
}

func renderFacet(childPrefix, label, facet string, items []github.Item, total, width int) string {
	var b strings.Builder

	title := fmt.Sprintf("%s%s (%d/%d)", childPrefix, label, len(items), total)
	b.WriteString(facetStyle(facet).Render(fit(title, width)))
	b.WriteString("\n")

	if len(items) == 0 {
		b.WriteString(emptyStyle.Render(fit(childPrefix+"└─ (none)", width)))
		b.WriteString("\n")
		return b.String()
	}

	for j, it := range items {
		itemPrefix := "├─"
		if j == len(items)-1 {
			itemPrefix = "└─"
		}
		line := fmt.Sprintf("%s%s #%d %s", childPrefix, itemPrefix, it.Number, it.Title)
		b.WriteString(itemStyle.Render(fit(line, width)))
		b.WriteString("\n")
	}
	return b.String()
}

// fit truncates s to width cells, appending "..." when cut. Non-positive
// widths leave s untouched.
func fit(s string, width int) string {
	if width <= 0 || runewidth.StringWidth(s) <= width {
		return s
	}
	return runewidth.Truncate(s, width, "...")
}
