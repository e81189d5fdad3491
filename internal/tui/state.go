package tui

import (
	"fmt"
	"time"

	"github.com/marcin-skalski/gh-monitor/internal/monitor"
)

// Provider supplies the most recently rendered view and accepts manual
// refresh requests.
type Provider interface {
	Snapshot() monitor.View
	RequestRefresh()
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	m := (d % time.Hour) / time.Minute
	s := (d % time.Minute) / time.Second
	switch {
	case h > 0:
		return fmt.Sprintf("%dh %dm", h, m)
	case m > 0:
		return fmt.Sprintf("%dm %ds", m, s)
	default:
		return fmt.Sprintf("%ds", s)
	}
}
