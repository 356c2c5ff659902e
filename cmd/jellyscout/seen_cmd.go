package main

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/Nomadcxx/jellyscout/internal/database"
	"github.com/Nomadcxx/jellyscout/internal/naming"
	"github.com/Nomadcxx/jellyscout/internal/ui"
	"github.com/spf13/cobra"
)

// openStore opens the seen database without requiring TMDb credentials
func openStore(opts *globalOptions) (*database.Store, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}
	store, err := database.OpenPath(cfg.DatabasePath())
	if err != nil {
		return nil, fmt.Errorf("unable to open seen database: %w", err)
	}
	return store, nil
}

func newSeenCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seen",
		Short: "Inspect and edit the seen database",
	}

	cmd.AddCommand(newSeenListCmd(opts))
	cmd.AddCommand(newSeenForgetCmd(opts))
	cmd.AddCommand(newSeenCountCmd(opts))
	cmd.AddCommand(newSeenRunsCmd(opts))

	return cmd
}

func newSeenListCmd(opts *globalOptions) *cobra.Command {
	var (
		kindName string
		limit    int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded names, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			kind := ""
			if kindName != "" {
				parsed, err := naming.ParseMediaKind(kindName)
				if err != nil {
					return err
				}
				kind = parsed.String()
			}

			store, err := openStore(opts)
			if err != nil {
				return err
			}
			defer store.Close()

			items, err := store.ListSeen(kind, limit)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if len(items) == 0 {
				ui.InfoMsg(w, "Nothing recorded yet")
				return nil
			}

			table := ui.NewTable("KIND", "TITLE", "SEASON", "TMDB", "SEEN", "PATH")
			for _, item := range items {
				season := ""
				if item.HasSeason {
					season = fmt.Sprintf("%d", item.Season)
				}
				tmdbID := ui.Dim("-")
				if item.TMDbID > 0 {
					tmdbID = fmt.Sprintf("%d", item.TMDbID)
				}
				table.AddRow(ui.Kind(item.Kind.String()), item.Title, season, tmdbID,
					ui.FormatAgo(item.SeenAt), ui.Path(item.Path))
			}
			table.Render(w)
			return nil
		},
	}

	cmd.Flags().StringVarP(&kindName, "type", "t", "", "only list this media type: movie or series")
	cmd.Flags().IntVarP(&limit, "limit", "l", 50, "maximum rows, 0 for all")

	return cmd
}

func newSeenForgetCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "forget <path>...",
		Short: "Remove names so the next scan announces them again",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(opts)
			if err != nil {
				return err
			}
			defer store.Close()

			w := cmd.OutOrStdout()
			var errs []error
			for _, path := range args {
				if abs, err := filepath.Abs(path); err == nil {
					path = abs
				}
				err := store.ForgetSeen(path)
				switch {
				case errors.Is(err, database.ErrNotFound):
					ui.WarningMsg(w, "%s was not recorded", path)
				case err != nil:
					errs = append(errs, err)
				default:
					ui.SuccessMsg(w, "Forgot %s", path)
				}
			}
			return errors.Join(errs...)
		},
	}
}

func newSeenCountCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "count",
		Short: "Count recorded names per media type",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(opts)
			if err != nil {
				return err
			}
			defer store.Close()

			counts, err := store.CountSeen()
			if err != nil {
				return err
			}

			table := ui.NewTable("KIND", "COUNT")
			total := 0
			for _, kind := range []naming.MediaKind{naming.MediaKindMovie, naming.MediaKindSeries} {
				table.AddRow(kind.String(), ui.FormatCount(counts[kind]))
				total += counts[kind]
			}
			table.AddRow("total", ui.FormatCount(total))
			table.RenderCompact(cmd.OutOrStdout())
			return nil
		},
	}
}

func newSeenRunsCmd(opts *globalOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Show recent scan runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(opts)
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.RecentScanRuns(limit)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if len(runs) == 0 {
				ui.InfoMsg(w, "No scans recorded yet")
				return nil
			}

			table := ui.NewTable("STARTED", "ROOT", "KIND", "STATUS", "NEW", "MATCHED", "UNMATCHED", "TOOK")
			for _, run := range runs {
				status := run.Status
				switch {
				case run.Status == database.ScanStatusFailed:
					status = ui.Error(status)
				case run.DryRun:
					status += ui.Dim(" (dry run)")
				}
				table.AddRow(ui.FormatAgo(run.StartedAt), ui.Path(run.Root), ui.Kind(run.Kind.String()), status,
					fmt.Sprintf("%d", run.New), fmt.Sprintf("%d", run.Matched), fmt.Sprintf("%d", run.Unmatched),
					ui.FormatDuration(run.Duration()))
			}
			table.Render(w)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", 10, "number of runs to show")

	return cmd
}
