package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jmylchreest/parsegen/internal/agent"
	"github.com/jmylchreest/parsegen/internal/config"
	"github.com/jmylchreest/parsegen/internal/executor"
	"github.com/jmylchreest/parsegen/internal/journal"
	"github.com/jmylchreest/parsegen/internal/logger"
	"github.com/jmylchreest/parsegen/internal/oracle"
	"github.com/jmylchreest/parsegen/internal/output"
	"github.com/jmylchreest/parsegen/internal/store"
	"github.com/jmylchreest/parsegen/internal/target"
	"github.com/jmylchreest/parsegen/internal/validate"
	"github.com/jmylchreest/parsegen/pkg/llm"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a parser for a target",
	Long: `Generate a parser for the sample pair in <data-dir>/<target>/.

The first *.pdf (sample input) and first *.csv (reference table) in the
target directory are used. The candidate is written to
<candidates-dir>/<target>_parser.go on every attempt. When a candidate
matches, its table is written to <data-dir>/<target>/<target>_parsed.<format>.

Exit status is 0 when a parser was accepted and 1 otherwise.

Examples:
  parsegen generate --target icici
  parsegen generate -t icici --max-attempts 5 --exec-timeout 2m
  PARSEGEN_PROVIDER=openrouter parsegen generate -t sbi`,
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)

	flags := generateCmd.Flags()

	flags.StringP("target", "t", "", "target name, a directory under the data dir (required)")

	// LLM settings
	flags.StringP("provider", "p", "", "LLM provider: gemini, anthropic, openai, openrouter, ollama (default gemini)")
	flags.StringP("model", "m", "", "model name (provider-specific)")
	flags.StringP("api-key", "k", "", "API key (or use the provider env var)")
	flags.String("base-url", "", "custom API base URL")
	flags.Duration("llm-timeout", 0, "LLM request timeout (default 2m)")

	// Locations
	flags.String("data-dir", config.DefaultDataDir, "directory holding <target>/ sample pairs")
	flags.String("candidates-dir", config.DefaultCandidatesDir, "directory for generated parsers")
	flags.String("state-dir", config.DefaultStateDir, "directory for the attempt journal")

	// Loop and sandbox settings
	flags.Int("max-attempts", config.DefaultMaxAttempts, "attempt budget")
	flags.Duration("exec-timeout", config.DefaultExecTimeout, "wall-clock limit per candidate run")
	flags.Int("cpu-seconds", config.DefaultCPUSeconds, "CPU time limit per candidate run (Linux, 0=unlimited)")
	flags.String("memory-limit", config.DefaultMemoryLimit, "soft memory limit per candidate run (e.g. 512MiB, 0=unlimited)")
	flags.Bool("in-process", false, "run candidates in this process instead of a sandbox child")

	// Validation and output
	flags.Float64("rtol", 0, "relative tolerance for numeric cells (0=exact)")
	flags.String("format", config.DefaultOutputFormat, "parsed table format: csv, json, jsonl, yaml")
	flags.Bool("no-journal", false, "do not record attempts in the journal")

	_ = generateCmd.MarkFlagRequired("target")
}

// generateBindings maps viper keys to generate flags. Flags are bound when
// the command runs so other commands may reuse the same keys.
var generateBindings = map[string]string{
	"provider":       "provider",
	"model":          "model",
	"api_key":        "api-key",
	"base_url":       "base-url",
	"llm_timeout":    "llm-timeout",
	"data_dir":       "data-dir",
	"candidates_dir": "candidates-dir",
	"state_dir":      "state-dir",
	"max_attempts":   "max-attempts",
	"exec_timeout":   "exec-timeout",
	"cpu_seconds":    "cpu-seconds",
	"memory_limit":   "memory-limit",
	"in_process":     "in-process",
	"rtol":           "rtol",
	"output_format":  "format",
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	for key, flag := range generateBindings {
		_ = viper.BindPFlag(key, cmd.Flags().Lookup(flag))
	}
	initLogger()

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if noJournal, _ := cmd.Flags().GetBool("no-journal"); noJournal {
		viper.Set("journal", false)
	}

	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		return err
	}

	name, _ := cmd.Flags().GetString("target")
	files, err := target.Resolve(cfg.DataDir, name)
	if err != nil {
		logger.Error("cannot resolve target", "target", name, "error", err)
		return err
	}
	logger.Debug("target resolved", "target", name, "input", files.Input, "expected", files.Expected)

	exec, err := buildExecutor(cfg)
	if err != nil {
		return err
	}

	gen := oracle.New(func() (llm.Provider, error) {
		return llm.NewProvider(cfg.Provider, cfg.ProviderConfig())
	}, oracle.WithObserver(oracle.LogObserver()))

	opts := []agent.Option{
		agent.WithMaxAttempts(cfg.MaxAttempts),
		agent.WithOutput(cfg.OutputPath, output.Format(cfg.OutputFormat)),
	}
	if path := cfg.JournalPath(); path != "" {
		j, err := journal.Open(path)
		if err != nil {
			logger.Warn("journal unavailable, continuing without it", "path", path, "error", err)
		} else {
			defer func() { _ = j.Close() }()
			opts = append(opts, agent.WithRecorder(j))
		}
	}

	controller := agent.NewController(
		gen,
		store.New(cfg.CandidatesDir),
		validate.New(exec, validate.WithRelTol(cfg.RelTol)),
		exec,
		opts...,
	)

	logger.Info("generating parser",
		"target", name,
		"provider", cfg.Provider,
		"model", cfg.Model,
		"max_attempts", cfg.MaxAttempts)

	start := time.Now()
	final, err := controller.Run(ctx, agent.NewState(name, files))
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("interrupted after %d attempt(s): %w", final.Attempt, context.Cause(ctx))
		}
		return err
	}

	if !final.Success {
		return fmt.Errorf("no working parser for %s after %d attempts: %s", name, final.Attempt, final.LastError)
	}

	logInfo("Parser for %s accepted on attempt %d (%s)", name, final.Attempt, time.Since(start).Round(time.Millisecond))
	logInfo("  parser: %s", final.CandidatePath)
	logInfo("  output: %s", final.OutputPath)
	return nil
}

func buildExecutor(cfg *config.Config) (executor.Executor, error) {
	if cfg.InProcess {
		logger.Warn("running candidates in-process without a sandbox")
		return &executor.Interpreter{Timeout: cfg.ExecTimeout}, nil
	}

	mem, err := cfg.MemoryLimitBytes()
	if err != nil {
		return nil, err
	}
	p := executor.NewProcess()
	p.Timeout = cfg.ExecTimeout
	p.CPUSeconds = cfg.CPUSeconds
	p.MemoryLimitBytes = mem
	logger.Debug("sandbox configured",
		"timeout", p.Timeout,
		"cpu_seconds", p.CPUSeconds,
		"memory_limit", humanize.IBytes(uint64(mem))) //#nosec G115 -- non-negative
	return p, nil
}
