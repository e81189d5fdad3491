package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/marcin-skalski/gh-monitor/internal/config"
	"github.com/marcin-skalski/gh-monitor/internal/logging"
	"github.com/marcin-skalski/gh-monitor/internal/monitor"
	"github.com/marcin-skalski/gh-monitor/internal/tui"
)

func main() {
	os.Exit(run(os.Args, os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	var configPath string

	rootCmd := &cobra.Command{
		Use:          "gh-monitor",
		Short:        "Watch GitHub repositories from the terminal",
		Long:         "Periodically fetch star and fork counts, pull requests and issues of configured repositories and show a rotating summary.",
		SilenceUsage: true,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Help()
		},
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "path to config file")

	var noTUI bool
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the monitor until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			enableTUI := !noTUI && os.Getenv("GH_MONITOR_TUI") != "0" &&
				isTerminal(stdin) && isTerminal(stdout)

			logger, closer, err := logging.Setup(logging.Options{
				File:    cfg.LogFile,
				Level:   cfg.Log.Level,
				Quiet:   enableTUI,
				Console: stderr,
			})
			if err != nil {
				return fmt.Errorf("setup logger: %w", err)
			}
			defer closer.Close()

			d, m, err := newDaemon(cfg, logger)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if cfg.Metrics.Addr != "" {
				serveMetrics(ctx, cfg.Metrics.Addr, m, logger)
			}

			if !enableTUI {
				logger.Info("gh-monitor starting (headless)", "config", configPath)
				d.OnRender(func(v monitor.View) {
					fmt.Fprintln(stdout, tui.Render(v, 0))
				})
				return d.Run(ctx)
			}

			// TUI mode: daemon in background, TUI in foreground
			ctx, cancel := context.WithCancel(ctx)
			defer cancel()

			errCh := make(chan error, 1)
			go func() {
				logger.Info("gh-monitor daemon starting in background", "config", configPath)
				errCh <- d.Run(ctx)
			}()

			p := tea.NewProgram(tui.NewModel(d, cfg.TUI.RefreshInterval),
				tea.WithAltScreen(), tea.WithInput(stdin), tea.WithOutput(stdout))
			go func() {
				<-ctx.Done()
				p.Quit()
			}()

			_, tuiErr := p.Run()
			cancel()
			if err := <-errCh; err != nil {
				logger.Error("daemon error", "err", err)
			}
			if tuiErr != nil {
				return fmt.Errorf("tui: %w", tuiErr)
			}
			return nil
		},
	}
	runCmd.Flags().BoolVar(&noTUI, "no-tui", false, "disable TUI mode")

	var format string
	onceCmd := &cobra.Command{
		Use:   "once",
		Short: "Refresh once and print a single rendered view",
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "text" && format != "json" {
				return fmt.Errorf("unsupported format %q (text|json)", format)
			}

			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			logger, closer, err := logging.Setup(logging.Options{
				File:    cfg.LogFile,
				Level:   cfg.Log.Level,
				Console: stderr,
			})
			if err != nil {
				return fmt.Errorf("setup logger: %w", err)
			}
			defer closer.Close()

			d, _, err := newDaemon(cfg, logger)
			if err != nil {
				return err
			}

			d.Refresh(cmd.Context())
			view := d.Render()

			if format == "json" {
				encoder := json.NewEncoder(stdout)
				encoder.SetIndent("", "  ")
				return encoder.Encode(view)
			}
			fmt.Fprintln(stdout, tui.Render(view, 0))
			return nil
		},
	}
	onceCmd.Flags().StringVar(&format, "format", "text", "output format (text|json)")

	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Check the config file and print a summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			printSummary(stdout, configPath, cfg)
			return nil
		},
	}

	rootCmd.AddCommand(runCmd, onceCmd, validateCmd)
	rootCmd.SetArgs(args[1:])
	rootCmd.SetIn(stdin)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		return 1
	}
	return 0
}

func isTerminal(v any) bool {
	f, ok := v.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func printSummary(w io.Writer, path string, cfg *config.Config) {
	fmt.Fprintf(w, "%s: %d repositories\n", path, len(cfg.Repos))
	fmt.Fprintf(w, "update every %s, render every %s, rotation %s\n",
		cfg.UpdateInterval, cfg.RenderInterval, cfg.Rotation)
	for _, r := range cfg.Repos {
		fmt.Fprintf(w, "  %s pulls=%s issues=%s\n",
			r.FullName(), facetSummary(r.ShowsPulls(), r.Pulls), facetSummary(r.ShowsIssues(), r.Issues))
	}
}

func facetSummary(shown bool, fc *config.FacetConfig) string {
	if !shown {
		return "off"
	}
	load := "all"
	if fc.LoadCount > 0 {
		load = fmt.Sprint(fc.LoadCount)
	}
	return fmt.Sprintf("%s(load %s, show %d)", fc.State, load, fc.DisplayCount)
}
