package main

import (
	"fmt"
	"os"

	"github.com/Nomadcxx/jellyscout/internal/config"
	"github.com/Nomadcxx/jellyscout/internal/paths"
	"github.com/Nomadcxx/jellyscout/internal/ui"
	"github.com/spf13/cobra"
)

func newConfigCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}

	cmd.AddCommand(newConfigInitCmd(opts))
	cmd.AddCommand(newConfigShowCmd(opts))
	cmd.AddCommand(newConfigPathCmd(opts))
	cmd.AddCommand(newConfigCheckCmd(opts))

	return cmd
}

func configPath(opts *globalOptions) (string, error) {
	if opts.cfgFile != "" {
		return opts.cfgFile, nil
	}
	return paths.ConfigPath()
}

func newConfigInitCmd(opts *globalOptions) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := configPath(opts)
			if err != nil {
				return err
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("config file already exists at %s (use --force to overwrite)", path)
			}

			if err := config.DefaultConfig().Save(path); err != nil {
				return fmt.Errorf("unable to write config: %w", err)
			}
			w := cmd.OutOrStdout()
			ui.SuccessMsg(w, "Wrote %s", path)
			fmt.Fprintln(w, "Set tmdb.api_key and the scan folders, then run 'jellyscout config check'.")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")

	return cmd
}

func newConfigShowCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration with secrets masked",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			data, err := cfg.Redacted().ToTOML()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}

func newConfigPathCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print where configuration and data are kept",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := configPath(opts)
			if err != nil {
				return err
			}
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			dbPath := cfg.DatabasePath()

			table := ui.NewTable("WHAT", "PATH")
			table.AddRow("config", path)
			table.AddRow("database", dbPath)
			table.AddRow("lock", paths.LockPath(dbPath))
			if logPath := cfg.Logging.File; logPath != "" {
				table.AddRow("log", logPath)
			} else if logPath, err := paths.LogPath(); err == nil {
				table.AddRow("log", logPath)
			}
			table.RenderCompact(cmd.OutOrStdout())
			return nil
		},
	}
}

func newConfigCheckCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate the configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration:\n%w", err)
			}
			ui.SuccessMsg(cmd.OutOrStdout(), "Configuration is valid")
			return nil
		},
	}
}
