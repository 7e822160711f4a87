// Package commands implements the CLI commands for parsegen.
package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jmylchreest/parsegen/internal/config"
	"github.com/jmylchreest/parsegen/internal/logger"
	"github.com/jmylchreest/parsegen/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "parsegen",
	Short: "LLM-driven generator of statement table parsers",
	Long: `Parsegen writes a table parser for a document layout.

Put one sample PDF and the table it should produce (CSV) in
data/<target>/, then run generate. Parsegen asks an LLM for a Go parser,
runs it in a sandbox, compares the result with the CSV and retries with
the failure as feedback, up to three attempts.

Examples:
  # Generate a parser for data/icici/ with Gemini (GEMINI_API_KEY)
  parsegen generate --target icici

  # Use Anthropic and write the parsed table as JSON
  parsegen generate -t icici -p anthropic --format json

  # Use local Ollama
  parsegen generate -t sbi -p ollama -m qwen2.5-coder

  # Show previous attempts
  parsegen history -t icici`,
	Version:       version.String(),
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "config file (default $HOME/.parsegen.yaml or ./.parsegen.yaml)")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "only log errors")
	rootCmd.PersistentFlags().Bool("log-json", false, "log as JSON")

	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
	_ = viper.BindPFlag("log_json", rootCmd.PersistentFlags().Lookup("log-json"))
}

func initConfig() {
	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
		viper.AddConfigPath(".")
		viper.SetConfigName(".parsegen")
		viper.SetConfigType("yaml")
	}

	config.SetDefaults(viper.GetViper())

	// Environment variables: PARSEGEN_<KEY> overrides any key
	viper.SetEnvPrefix("PARSEGEN")
	viper.AutomaticEnv()

	// Read config file (ignore error if not found)
	_ = viper.ReadInConfig()
}

func initLogger() {
	logger.Init(logger.Options{
		Debug: viper.GetBool("debug"),
		Quiet: viper.GetBool("quiet"),
		JSON:  viper.GetBool("log_json"),
	})
	if used := viper.ConfigFileUsed(); used != "" {
		logger.Debug("config file loaded", "path", used)
	}
}

// Execute runs the root command.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		logError("%v", err)
	}
	return err
}

// logError prints an error message to stderr.
func logError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}

// logInfo prints an info message to stderr (unless quiet mode).
func logInfo(format string, args ...any) {
	if !viper.GetBool("quiet") {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
	}
}
