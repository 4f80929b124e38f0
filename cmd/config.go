package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/intelliplan/planboard/internal/config"
)

var configForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect or create the config file",
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show which config file is in use and where others are looked for",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		if cfg.Path == "" {
			fmt.Fprintln(out, "Using built-in defaults")
		} else {
			fmt.Fprintf(out, "Using %s\n", cfg.Path)
		}
		fmt.Fprintln(out, "Search path:")
		for _, p := range config.SearchPaths() {
			fmt.Fprintf(out, "  %s\n", p)
		}
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a config file with the current settings",
	Long: `Write the effective settings to path, or to the first location on the
search path. Files ending in .toml are written as TOML, anything else as YAML.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var path string
		switch {
		case len(args) == 1:
			path = args[0]
		case len(config.SearchPaths()) > 0:
			path = config.SearchPaths()[0]
		default:
			return errors.New("no config location; pass a path")
		}

		if _, err := os.Stat(path); err == nil && !configForce {
			return fmt.Errorf("%s already exists; use --force to overwrite", path)
		}
		if err := config.Save(path, cfg); err != nil {
			return fmt.Errorf("error writing config: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
		return nil
	},
}

func init() {
	configInitCmd.Flags().BoolVarP(&configForce, "force", "f", false, "Overwrite an existing file")
	configCmd.AddCommand(configPathCmd, configInitCmd)
	rootCmd.AddCommand(configCmd)
}
