package commands

import (
	"github.com/spf13/cobra"

	"github.com/jmylchreest/parsegen/internal/output"
	"github.com/jmylchreest/parsegen/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	RunE: func(cmd *cobra.Command, _ []string) error {
		format, _ := cmd.Flags().GetString("format")
		if format == "" {
			cmd.Println(version.Full())
			return nil
		}
		f, err := output.ParseFormat(format)
		if err != nil {
			return err
		}
		w, err := output.NewWriter(cmd.OutOrStdout(), f)
		if err != nil {
			return err
		}
		if err := w.Write(version.Get()); err != nil {
			return err
		}
		return w.Close()
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().String("format", "", "structured output: json, yaml")
}
