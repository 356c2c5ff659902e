package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/Nomadcxx/jellyscout/internal/daemon"
	"github.com/Nomadcxx/jellyscout/internal/naming"
	"github.com/Nomadcxx/jellyscout/internal/paths"
	"github.com/Nomadcxx/jellyscout/internal/resolver"
	"github.com/Nomadcxx/jellyscout/internal/scanner"
	"github.com/Nomadcxx/jellyscout/internal/ui"
	"github.com/spf13/cobra"
)

func newScanCmd(opts *globalOptions) *cobra.Command {
	var (
		kindName string
		all      bool
		jsonOut  bool
	)

	cmd := &cobra.Command{
		Use:   "scan [folder]",
		Short: "Scan a folder once and announce new names",
		Long: `Scan a movie or TV folder once. Every name not yet in the seen database is
cleaned up, looked up on TMDb and announced.

Movie folders are walked recursively. In a TV folder every top-level directory
is a series and its sub-directories are seasons.

Examples:
  jellyscout scan /media/Movies
  jellyscout scan /media/TV --type series
  jellyscout scan --all --dry-run`,
		Args: func(cmd *cobra.Command, args []string) error {
			if all {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(1)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(opts, cmd.ErrOrStderr(), false)
			if err != nil {
				return err
			}
			defer a.Close()

			var roots []scanner.Root
			if all {
				roots = a.roots()
				if len(roots) == 0 {
					return errors.New("no scan folders configured (set scan.movies or scan.tv)")
				}
			} else {
				kind, err := naming.ParseMediaKind(kindName)
				if err != nil {
					return err
				}
				root, err := filepath.Abs(args[0])
				if err != nil {
					return err
				}
				roots = []scanner.Root{{Path: root, Kind: kind}}
			}

			lock, err := daemon.AcquireLock(paths.LockPath(a.cfg.DatabasePath()))
			if err != nil {
				return err
			}
			defer lock.Release()

			s, err := a.newScanner(opts.dryRun)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runScans(ctx, cmd.OutOrStdout(), s, roots, jsonOut)
		},
	}

	cmd.Flags().StringVarP(&kindName, "type", "t", "movie", "media type of the folder: movie or series")
	cmd.Flags().BoolVar(&all, "all", false, "scan every configured folder")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "print summaries as JSON")

	return cmd
}

func runScans(ctx context.Context, w io.Writer, s *scanner.Scanner, roots []scanner.Root, jsonOut bool) error {
	var (
		summaries []*scanner.Summary
		errs      []error
	)
	for _, root := range roots {
		summary, err := s.Run(ctx, root.Path, root.Kind)
		if err != nil {
			errs = append(errs, err)
			if ctx.Err() != nil {
				break
			}
		}
		if summary != nil {
			summaries = append(summaries, summary)
		}
	}

	if jsonOut {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(summaries); err != nil {
			return err
		}
	} else {
		for _, summary := range summaries {
			printSummary(w, summary)
		}
	}

	return errors.Join(errs...)
}

func printSummary(w io.Writer, summary *scanner.Summary) {
	title := fmt.Sprintf("%s (%s)", summary.Root, summary.Kind)
	if summary.DryRun {
		title += " [dry run]"
	}
	ui.Section(w, title)

	if len(summary.Entries) > 0 {
		table := ui.NewTable("NAME", "QUERY", "RESULT")
		for _, entry := range summary.Entries {
			table.AddRow(entry.Name, entry.Query, describeResult(entry))
		}
		table.Render(w)
	}

	fmt.Fprintf(w, "Scanned %s, new %s, matched %s, unmatched %s, announced %s in %s\n",
		ui.FormatCount(summary.Scanned),
		ui.FormatCount(summary.New),
		ui.FormatCount(summary.Matched),
		ui.FormatCount(summary.Unmatched),
		ui.FormatCount(summary.Announced),
		ui.FormatDuration(summary.Duration))
	if summary.Failed > 0 {
		ui.WarningMsg(w, "%d item(s) failed, see the log for details", summary.Failed)
	}
}

func describeResult(entry scanner.Entry) string {
	result := entry.Result
	switch result.Outcome() {
	case resolver.OutcomeMatched:
		text := ui.Success(itemLabel(result.Item))
		if n := len(entry.Seasons); n > 0 {
			text += ui.Dim(fmt.Sprintf(" (%d season folders)", n))
		}
		return text
	case resolver.OutcomeNoCandidates:
		return ui.Warning("nothing to search")
	default:
		return ui.Error("no match")
	}
}

func itemLabel(item *resolver.Item) string {
	if item == nil {
		return ""
	}
	if item.Year != "" {
		return fmt.Sprintf("%s (%s)", item.Title, item.Year)
	}
	return item.Title
}
