package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Strasser-Pablo/trainlaunch/internal/checkpoint"
	"github.com/Strasser-Pablo/trainlaunch/internal/config"
	"github.com/Strasser-Pablo/trainlaunch/internal/launcher"
	"github.com/Strasser-Pablo/trainlaunch/internal/metrics"
	apperrors "github.com/Strasser-Pablo/trainlaunch/internal/pkg/errors"
	"github.com/Strasser-Pablo/trainlaunch/internal/pkg/logger"
	"github.com/Strasser-Pablo/trainlaunch/internal/report"
	"github.com/Strasser-Pablo/trainlaunch/internal/storage"
	"github.com/Strasser-Pablo/trainlaunch/internal/validator"
)

func newRunCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "run [flags] [-- extra trainer args]",
		Short: "Launch the training program",
		Long: `Launch the training program once and exit with its exit status.

Arguments after -- are appended after the run configuration flags.

Examples:
  # Same as the original launch script
  trainlaunch run

  # Validate first, watch checkpoints while training
  trainlaunch run --strict --checkpoint-dir ./ckpt --watch-checkpoints

  # Pass an option the run configuration does not carry
  trainlaunch run -- --backbone resnet18`,
		Args: cobra.ArbitraryArgs,
		RunE: a.runLaunch,
	}
}

// launcherConfig maps the loaded configuration onto the launcher.
func launcherConfig(cfg *config.Config, extra []string) launcher.Config {
	return launcher.Config{
		Interpreter:     cfg.Interpreter,
		InterpreterArgs: cfg.InterpreterArgs,
		Program:         cfg.Program,
		WorkDir:         cfg.WorkDir,
		DatasetDir:      cfg.DatasetDir,
		DebugLevel:      cfg.DebugLvl(),
		ExtraArgs:       extra,
	}
}

// extraArgs returns the trainer arguments given after --. Anything before it
// is most likely a mistyped subcommand.
func extraArgs(cmd *cobra.Command, args []string) ([]string, error) {
	dash := cmd.ArgsLenAtDash()
	if len(args) > 0 && dash != 0 {
		return nil, apperrors.Config(fmt.Sprintf("unexpected argument %q; pass trainer options after --", args[0]))
	}
	return args, nil
}

func (a *app) runLaunch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := a.cfg
	rc := cfg.Run

	extra, err := extraArgs(cmd, args)
	if err != nil {
		return err
	}

	if cfg.Strict {
		if err := validator.Validate(rc); err != nil {
			return apperrors.Validation("invalid run configuration").WithError(err)
		}
	}

	runID := uuid.NewString()
	log := logger.WithRunID(runID)
	runMetrics := metrics.NewRun(rc.AlgoHandle, rc.DatasetHandle)

	watcher := a.startWatcher(ctx, runID, runMetrics, log)

	l := launcher.New(launcherConfig(cfg, extra),
		launcher.WithLogger(logger.Log),
		launcher.WithRunID(func() string { return runID }),
	)
	res, runErr := l.Run(ctx, rc)

	if watcher != nil {
		watcher.Stop(ctx)
	}

	runMetrics.RecordExit(res.ExitCode, res.Duration, time.Now())
	if url := cfg.Metrics.PushgatewayURL; url != "" {
		if err := runMetrics.Push(ctx, url, cfg.Metrics.Job, runID); err != nil {
			log.Warn("metrics push failed", zap.Error(err))
		}
	}

	report.CaptureFailure(sentry.CurrentHub(), report.Failure{
		RunID:    runID,
		ExitCode: res.ExitCode,
		Err:      runErr,
		Run:      rc,
	})
	report.Flush()

	if runErr != nil {
		return runErr
	}
	if res.ExitCode != 0 {
		return apperrors.Exit(res.ExitCode)
	}
	return nil
}

// startWatcher starts checkpoint tracking when configured. Any failure only
// disables tracking; the run itself goes ahead.
func (a *app) startWatcher(ctx context.Context, runID string, runMetrics *metrics.Run, log *zap.Logger) *checkpoint.Watcher {
	cfg := a.cfg
	if cfg.Checkpoints.Dir == "" || (!cfg.Checkpoints.Watch && !cfg.Checkpoints.Upload) {
		return nil
	}

	sinks := []checkpoint.Sink{
		func(context.Context, checkpoint.Checkpoint) { runMetrics.RecordCheckpoint() },
	}

	if cfg.Checkpoints.Upload {
		if !cfg.Storage.Enabled() {
			log.Warn("checkpoint upload requested but storage.endpoint is not set")
		} else if client, err := storage.NewClient(ctx, cfg.Storage); err != nil {
			log.Warn("checkpoint upload disabled", zap.Error(err))
		} else {
			uploader := storage.NewUploader(client, cfg.Storage.Bucket, cfg.Storage.Prefix, runID, log)
			sinks = append(sinks, uploader.Sink())
		}
	}

	w := checkpoint.NewWatcher(cfg.Checkpoints.Dir, func(ctx context.Context, c checkpoint.Checkpoint) {
		for _, sink := range sinks {
			sink(ctx, c)
		}
	}, log)
	if err := w.Start(ctx); err != nil {
		log.Warn("checkpoint watching disabled", zap.Error(err))
		return nil
	}
	return w
}
