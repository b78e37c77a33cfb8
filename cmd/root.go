package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/Strasser-Pablo/trainlaunch/internal/config"
	apperrors "github.com/Strasser-Pablo/trainlaunch/internal/pkg/errors"
	"github.com/Strasser-Pablo/trainlaunch/internal/pkg/logger"
	"github.com/Strasser-Pablo/trainlaunch/internal/report"
)

// Version is set at build time
var Version = "0.1.0"

// app carries the state shared by all commands of one invocation.
type app struct {
	v       *viper.Viper
	cfg     *config.Config
	cfgFile string
	verbose bool
	sets    []string
}

// NewRootCmd builds the command tree. Running it without a subcommand launches
// the training program.
func NewRootCmd() *cobra.Command {
	a := &app{v: config.New()}

	rootCmd := &cobra.Command{
		Use:   "trainlaunch [flags] [-- extra trainer args]",
		Short: "Launch the training program with a fixed run configuration",
		Long: `trainlaunch sets DATASET_DIR, starts the training program once with the
run configuration as command-line flags, and exits with its exit status.

Commands:
  run          - Launch the training program (default)
  args         - Print the invocation without running it
  validate     - Check the run configuration
  checkpoints  - List the checkpoints in a directory

Example:
  trainlaunch
  trainlaunch --set epoch=5 --set task=eval
  trainlaunch --config experiment.yaml -- --backbone resnet18
  TRAINLAUNCH_RUN_LR=3e-4 trainlaunch args`,
		Version:           Version,
		Args:              cobra.ArbitraryArgs,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		RunE:              a.runLaunch,
	}

	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return apperrors.Config(err.Error())
	})

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "Config file (default: trainlaunch.yaml in ., ./config, ~/.config/trainlaunch)")
	flags.StringArrayVar(&a.sets, "set", nil, "Override a run value, e.g. --set epoch=5 (repeatable)")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")
	flags.String("log-level", "", "Log level (debug, info, warn, error)")
	flags.String("log-format", "", "Log format (console, json)")
	flags.String("interpreter", "", "Interpreter that runs the program (default python)")
	flags.StringArray("interpreter-arg", nil, "Argument passed to the interpreter before the program (repeatable)")
	flags.String("program", "", "Training program (default main.py)")
	flags.String("workdir", "", "Working directory of the training program")
	flags.String("dataset-dir", "", "Value exported as DATASET_DIR (default /hdd/datasets)")
	flags.Bool("strict", false, "Validate the run configuration before launching")
	flags.String("checkpoint-dir", "", "Directory the training program saves checkpoints to")
	flags.Bool("watch-checkpoints", false, "Log checkpoints as they are written")
	flags.Bool("upload-checkpoints", false, "Upload checkpoints to object storage")

	bind := map[string]string{
		"log.level":          "log-level",
		"log.format":         "log-format",
		"interpreter":        "interpreter",
		"interpreter_args":   "interpreter-arg",
		"program":            "program",
		"workdir":            "workdir",
		"dataset_dir":        "dataset-dir",
		"strict":             "strict",
		"checkpoints.dir":    "checkpoint-dir",
		"checkpoints.watch":  "watch-checkpoints",
		"checkpoints.upload": "upload-checkpoints",
	}
	for key, name := range bind {
		_ = a.v.BindPFlag(key, flags.Lookup(name))
	}

	rootCmd.AddCommand(newRunCmd(a))
	rootCmd.AddCommand(newArgsCmd(a))
	rootCmd.AddCommand(newValidateCmd(a))
	rootCmd.AddCommand(newCheckpointsCmd(a))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// Execute runs the CLI and returns the process exit status
func Execute() int {
	return ExecuteArgs(context.Background(), os.Args[1:], os.Stdout, os.Stderr)
}

// ExecuteArgs runs the CLI with explicit arguments and output streams.
func ExecuteArgs(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	rootCmd := NewRootCmd()
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	err := rootCmd.ExecuteContext(ctx)
	if err != nil && !apperrors.IsExit(err) {
		fmt.Fprintln(stderr, "Error:", err)
	}
	_ = logger.Sync()
	return apperrors.ExitCode(err)
}

// setup applies --set overrides, loads the configuration and initializes logging.
func (a *app) setup(_ *cobra.Command, _ []string) error {
	for _, kv := range a.sets {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			return apperrors.Config(fmt.Sprintf("invalid --set %q, expected key=value", kv))
		}
		key = "run." + strings.TrimPrefix(key, "--")
		if !a.v.IsSet(key) {
			return apperrors.Config(fmt.Sprintf("unknown run option %q", strings.TrimPrefix(key, "run.")))
		}
		a.v.Set(key, value)
	}

	cfg, err := config.Load(a.v, a.cfgFile)
	if err != nil {
		return apperrors.Config("failed to load configuration").WithError(err)
	}
	a.cfg = cfg

	level := cfg.Log.Level
	if a.verbose {
		level = "debug"
	}
	if err := logger.Init(logger.Config{Level: level, Format: cfg.Log.Format}); err != nil {
		return apperrors.Internal("failed to initialize logger").WithError(err)
	}

	if err := report.Init(cfg.Sentry, Version); err != nil {
		logger.Warn("failed to initialize failure reporting", zap.Error(err))
	}

	return nil
}
