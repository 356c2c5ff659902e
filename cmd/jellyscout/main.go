package main

import (
	"fmt"
	"io"
	"os"

	"github.com/Nomadcxx/jellyscout/internal/ui"
	"github.com/spf13/cobra"
)

var version = "dev" // Set by build flags: -ldflags="-X main.version=1.0.0"

// globalOptions are the persistent flags shared by every command
type globalOptions struct {
	cfgFile string
	dbPath  string
	dryRun  bool
	verbose bool
	noColor bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "jellyscout",
		Short: "Announce new media in your library folders",
		Long: `jellyscout scans movie and TV folders for names it has not seen before,
turns each release name into a clean title, finds it on TMDb and announces it
to a Telegram chat.

Features:
  - Release-name cleanup: "Show.Name.S01.1080p.BluRay.x264-GROUP" -> "Show Name"
  - Fallback search that drops trailing words until TMDb finds a match
  - Per-season announcements for series folders
  - Persistent seen store, so every name is announced once`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if opts.noColor {
				ui.DisableColors()
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.cfgFile, "config", "", "config file (default: ~/.config/jellyscout/config.toml)")
	rootCmd.PersistentFlags().StringVar(&opts.dbPath, "db", "", "seen database path (overrides database.path)")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVarP(&opts.dryRun, "dry-run", "n", false, "resolve and report without recording or announcing")
	rootCmd.PersistentFlags().BoolVar(&opts.noColor, "no-color", false, "disable coloured output")

	rootCmd.AddCommand(newScanCmd(opts))
	rootCmd.AddCommand(newNormalizeCmd())
	rootCmd.AddCommand(newCandidatesCmd())
	rootCmd.AddCommand(newSeasonCmd())
	rootCmd.AddCommand(newResolveCmd(opts))
	rootCmd.AddCommand(newSeenCmd(opts))
	rootCmd.AddCommand(newServeCmd(opts))
	rootCmd.AddCommand(newConfigCmd(opts))
	rootCmd.AddCommand(newTelegramCmd(opts))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			printVersion(cmd.OutOrStdout())
		},
	}
}

func printVersion(w io.Writer) {
	fmt.Fprintf(w, "jellyscout %s\n", version)
}
