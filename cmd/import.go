package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/intelliplan/planboard/internal/logging"
	"github.com/intelliplan/planboard/internal/source"
)

var importCmd = &cobra.Command{
	Use:   "import <bundle.json>",
	Short: "Load a JSON bundle into the SQLite database",
	Long: `Read events, tasks, classes and exams from a JSON bundle and upsert them
into the database named by --db or db_path. Records are matched by id.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	logger := logging.New(os.Stderr, cfg.LogLevel)

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("error reading bundle: %w", err)
	}
	recs, err := source.DecodeBundle(data)
	if err != nil {
		return fmt.Errorf("error decoding %s: %w", args[0], err)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o700); err != nil {
		return fmt.Errorf("error creating database directory: %w", err)
	}
	store, err := source.OpenStore(cfg.DBPath, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	res, err := store.Import(cmd.Context(), recs)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d records into %s (%d events, %d tasks, %d classes, %d exams, %d skipped)\n",
		res.Total(), cfg.DBPath, res.Events, res.Tasks, res.Classes, res.Exams, res.Skipped)
	return nil
}
