package main

import (
	"fmt"
	"path/filepath"

	"github.com/Nomadcxx/jellyscout/internal/naming"
	"github.com/Nomadcxx/jellyscout/internal/resolver"
	"github.com/Nomadcxx/jellyscout/internal/tmdb"
	"github.com/Nomadcxx/jellyscout/internal/ui"
	"github.com/spf13/cobra"
)

func newNormalizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "normalize <name>...",
		Short: "Show the search title for release names",
		Long: `Print the title each release name is searched under.

Examples:
  jellyscout normalize "Show.Name.S01.1080p.BluRay.x264-GROUP"
  jellyscout normalize "Movie Title (2020) [YTS.MX].mkv"`,
		Args: cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			w := cmd.OutOrStdout()
			if len(args) == 1 {
				fmt.Fprintln(w, naming.Normalize(args[0]))
				return
			}
			table := ui.NewTable("NAME", "TITLE")
			for _, name := range args {
				table.AddRow(name, naming.Normalize(name))
			}
			table.Render(w)
		},
	}
}

func newCandidatesCmd() *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "candidates <name>",
		Short: "List the fallback queries for a name",
		Long: `Print the queries tried against TMDb for a name, most specific first.
The name is cleaned up first unless --raw is given.`,
		Args: cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			title := args[0]
			if !raw {
				title = naming.Normalize(title)
			}
			for query := range naming.Candidates(title) {
				fmt.Fprintln(cmd.OutOrStdout(), query)
			}
		},
	}

	cmd.Flags().BoolVar(&raw, "raw", false, "use the name as the title without cleanup")

	return cmd
}

func newSeasonCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "season <folder>...",
		Short: "Show the season number parsed from folder names",
		Args:  cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			table := ui.NewTable("FOLDER", "SEASON")
			for _, folder := range args {
				season, ok := naming.ExtractSeason(filepath.Base(folder))
				value := ui.Dim("none")
				if ok {
					value = fmt.Sprintf("%d", season)
				}
				table.AddRow(folder, value)
			}
			table.RenderCompact(cmd.OutOrStdout())
		},
	}
}

func newResolveCmd(opts *globalOptions) *cobra.Command {
	var (
		kindName string
		noCache  bool
	)

	cmd := &cobra.Command{
		Use:   "resolve <name>",
		Short: "Look a name up on TMDb without recording it",
		Long: `Clean up a name and run the fallback search against TMDb, printing every
query tried and the match found. Nothing is marked seen or announced.

Examples:
  jellyscout resolve "Movie.Title.Extended.Cut.2019.1080p.mkv"
  jellyscout resolve "Show.Name.S01" --type series`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := naming.ParseMediaKind(kindName)
			if err != nil {
				return err
			}

			var lookup resolver.Lookup
			if noCache {
				cfg, err := loadConfig(opts)
				if err != nil {
					return err
				}
				if err := cfg.Validate(); err != nil {
					return fmt.Errorf("invalid configuration:\n%w", err)
				}
				lookup = newTMDbClient(cfg)
			} else {
				a, err := openApp(opts, cmd.ErrOrStderr(), false)
				if err != nil {
					return err
				}
				defer a.Close()
				lookup = a.lookup
			}

			title := naming.Normalize(args[0])
			result, err := resolver.Resolve(cmd.Context(), title, kind, lookup)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Title: %s\n", ui.Title(title))
			for _, attempt := range result.Attempts {
				switch {
				case attempt.Err != nil:
					ui.ErrorMsg(w, "%s: %v", attempt.Query, attempt.Err)
				case attempt.Found:
					ui.SuccessMsg(w, "%s", attempt.Query)
				default:
					fmt.Fprintf(w, "%s %s\n", ui.Dim("·"), attempt.Query)
				}
			}

			switch result.Outcome() {
			case resolver.OutcomeMatched:
				fmt.Fprintf(w, "Match: %s\n", itemLabel(result.Item))
				fmt.Fprintf(w, "URL:   %s\n", ui.Path(tmdb.ItemURL(kind, result.Item.ID)))
			case resolver.OutcomeNoCandidates:
				ui.WarningMsg(w, "nothing left to search after cleanup")
			default:
				ui.WarningMsg(w, "no match after %d queries", len(result.Attempts))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&kindName, "type", "t", "movie", "media type: movie or series")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "bypass the lookup cache")

	return cmd
}
