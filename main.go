package main

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"revq/internal/config"
	"revq/internal/logging"
	"revq/internal/source"
	"revq/internal/source/demo"
	"revq/internal/source/github"
	"revq/internal/tui"
)

func main() {
	var (
		logCloser = func() {}
		flags     struct {
			requester string
			org       string
			labels    []string
			demoMode  bool
			logLevel  string
			logFile   string
			config    string
		}
	)

	app := &cli.Command{
		Name:  "revq",
		Usage: "Browse and work through your open review requests",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "requester",
				Usage:       "whose review requests to list: a user login or org/team (defaults to you)",
				Destination: &flags.requester,
			},
			&cli.StringFlag{
				Name:        "org",
				Usage:       "restrict to a GitHub organization",
				Destination: &flags.org,
			},
			&cli.StringSliceFlag{
				Name:        "label",
				Usage:       "restrict to PRs carrying this label (repeatable)",
				Destination: &flags.labels,
			},
			&cli.BoolFlag{
				Name:        "demo",
				Usage:       "run against canned data, no network or credentials needed",
				Destination: &flags.demoMode,
			},
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (debug, info, warn, error, fatal)",
				Sources:     cli.EnvVars("REVQ_LOG_LEVEL"),
				Destination: &flags.logLevel,
			},
			&cli.StringFlag{
				Name:        "log-file",
				Usage:       "path to log file (defaults to <cache-dir>/revq/revq.log)",
				Sources:     cli.EnvVars("REVQ_LOG_FILE"),
				Destination: &flags.logFile,
			},
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "path to config file",
				Sources:     cli.EnvVars("REVQ_CONFIG"),
				Destination: &flags.config,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, err := config.Load(config.Path(flags.config))
			if err != nil {
				return err
			}

			// Flags override file-backed defaults.
			if flags.requester == "" {
				flags.requester = cfg.Requester
			}
			if flags.org == "" {
				flags.org = cfg.Org
			}
			if len(flags.labels) == 0 {
				flags.labels = cfg.Labels
			}
			if flags.logLevel == "" {
				flags.logLevel = cfg.Log.Level
			}
			if flags.logFile == "" {
				flags.logFile = cfg.Log.File
			}
			if flags.logFile == "" {
				flags.logFile = logging.DefaultFile()
			}

			logCloser, err = logging.New(flags.logLevel, flags.logFile)
			if err != nil {
				return fmt.Errorf("setup logger: %w", err)
			}

			var src source.Source
			if flags.demoMode {
				// A little latency keeps the streaming visible.
				d := demo.New()
				d.Latency = 150 * time.Millisecond
				src = d
			} else {
				src, err = github.New()
				if err != nil {
					return err
				}
			}

			filter := source.Filter{
				Requester: flags.requester,
				Org:       flags.org,
				Labels:    flags.labels,
			}

			log.Info().Msg("starting tui")
			p := tea.NewProgram(tui.New(src, filter), tea.WithAltScreen())
			if _, err := p.Run(); err != nil {
				log.Error().Err(err).Msg("tui exited with error")
				return err
			}
			log.Info().Msg("stopping tui")
			return nil
		},
	}

	err := app.Run(context.Background(), os.Args)
	logCloser()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
