package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jmylchreest/parsegen/internal/config"
	"github.com/jmylchreest/parsegen/internal/journal"
	"github.com/jmylchreest/parsegen/internal/output"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show journalled runs and their attempts",
	Long: `Show previous generate runs recorded in the journal, newest first.

Examples:
  parsegen history
  parsegen history -t icici --limit 1 --format json`,
	RunE: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)

	flags := historyCmd.Flags()
	flags.StringP("target", "t", "", "only show runs for this target")
	flags.Int("limit", 10, "max runs to show (0=all)")
	flags.String("format", "yaml", "output format: json, jsonl, yaml")
	flags.String("state-dir", config.DefaultStateDir, "directory holding the journal")
}

func runHistory(cmd *cobra.Command, _ []string) error {
	_ = viper.BindPFlag("state_dir", cmd.Flags().Lookup("state-dir"))
	initLogger()

	format, _ := cmd.Flags().GetString("format")
	f, err := output.ParseFormat(format)
	if err != nil {
		return err
	}
	if f == output.FormatCSV {
		return fmt.Errorf("history cannot be written as csv")
	}

	path := (&config.Config{StateDir: viper.GetString("state_dir"), Journal: true}).JournalPath()
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("no journal at %s: %w", path, err)
	}
	j, err := journal.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = j.Close() }()

	name, _ := cmd.Flags().GetString("target")
	limit, _ := cmd.Flags().GetInt("limit")
	runs, err := j.History(cmd.Context(), name, limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		logInfo("No runs recorded")
		return nil
	}

	w, err := output.NewWriter(cmd.OutOrStdout(), f)
	if err != nil {
		return err
	}
	if f == output.FormatJSONL {
		for _, r := range runs {
			if err := w.Write(r); err != nil {
				return err
			}
		}
		return w.Close()
	}
	if err := w.Write(runs); err != nil {
		return err
	}
	return w.Close()
}
