// Package launcher starts the training program with a run configuration and
// hands its exit status back to the caller.
package launcher

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "github.com/Strasser-Pablo/trainlaunch/internal/pkg/errors"
	"github.com/Strasser-Pablo/trainlaunch/internal/pkg/logger"
	"github.com/Strasser-Pablo/trainlaunch/internal/runconfig"
)

// Environment variables exported to the training program.
const (
	DatasetDirEnv = "DATASET_DIR"
	RunIDEnv      = "TRAINLAUNCH_RUN_ID"
	DebugLevelEnv = "DEBUG_LVL"
)

// Config holds the launcher configuration.
type Config struct {
	// Interpreter runs Program. When empty, Program is executed directly.
	Interpreter     string
	InterpreterArgs []string
	Program         string
	WorkDir         string
	// DatasetDir is exported as DATASET_DIR to the launcher and the child.
	DatasetDir string
	DebugLevel int
	// ExtraArgs are appended verbatim after the run configuration flags.
	ExtraArgs []string

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// Result describes one finished run.
type Result struct {
	RunID    string
	ExitCode int
	Duration time.Duration
}

// Launcher spawns the training program.
type Launcher struct {
	config  Config
	log     *zap.Logger
	signals []os.Signal
	newID   func() string
	setenv  func(key, value string) error
}

// Option customizes a Launcher.
type Option func(*Launcher)

// WithLogger sets the logger. Defaults to the global logger.
func WithLogger(log *zap.Logger) Option {
	return func(l *Launcher) { l.log = log }
}

// WithSignals sets the signals relayed to the child. Defaults to SIGINT and SIGTERM.
func WithSignals(sig ...os.Signal) Option {
	return func(l *Launcher) { l.signals = sig }
}

// WithRunID overrides run ID generation.
func WithRunID(fn func() string) Option {
	return func(l *Launcher) { l.newID = fn }
}

// New creates a new launcher.
func New(config Config, opts ...Option) *Launcher {
	if config.Stdin == nil {
		config.Stdin = os.Stdin
	}
	if config.Stdout == nil {
		config.Stdout = os.Stdout
	}
	if config.Stderr == nil {
		config.Stderr = os.Stderr
	}

	l := &Launcher{
		config:  config,
		log:     logger.Log,
		signals: []os.Signal{os.Interrupt, syscall.SIGTERM},
		newID:   uuid.NewString,
		setenv:  os.Setenv,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Argv returns the full invocation for rc, program name first.
func (l *Launcher) Argv(rc runconfig.RunConfig) []string {
	var argv []string
	if l.config.Interpreter != "" {
		argv = append(argv, l.config.Interpreter)
		argv = append(argv, l.config.InterpreterArgs...)
	}
	argv = append(argv, l.config.Program)
	argv = append(argv, rc.Args()...)
	argv = append(argv, l.config.ExtraArgs...)
	return argv
}

// Command builds the invocation for rc without starting it.
func (l *Launcher) Command(ctx context.Context, rc runconfig.RunConfig) *exec.Cmd {
	return l.command(ctx, rc, "")
}

func (l *Launcher) command(ctx context.Context, rc runconfig.RunConfig, runID string) *exec.Cmd {
	argv := l.Argv(rc)

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = l.config.WorkDir
	cmd.Stdin = l.config.Stdin
	cmd.Stdout = l.config.Stdout
	cmd.Stderr = l.config.Stderr

	cmd.Env = os.Environ()
	if l.config.DatasetDir != "" {
		cmd.Env = append(cmd.Env, DatasetDirEnv+"="+l.config.DatasetDir)
	}
	if runID != "" {
		cmd.Env = append(cmd.Env, RunIDEnv+"="+runID)
	}
	if l.config.DebugLevel > 0 {
		cmd.Env = append(cmd.Env, DebugLevelEnv+"="+strconv.Itoa(l.config.DebugLevel))
	}

	return cmd
}

// Run starts the training program, relays signals to it and waits for it to
// exit. The returned error is non-nil only when the program could not be
// started; a non-zero exit is reported through Result.ExitCode.
func (l *Launcher) Run(ctx context.Context, rc runconfig.RunConfig) (Result, error) {
	res := Result{RunID: l.newID()}
	log := l.log.With(zap.String("run_id", res.RunID))

	if dir := l.config.DatasetDir; dir != "" {
		if err := l.setenv(DatasetDirEnv, dir); err != nil {
			res.ExitCode = apperrors.ExitFailure
			return res, apperrors.Internal("failed to set " + DatasetDirEnv).WithError(err)
		}
	}

	if !rc.ClipNormEnabled() {
		log.Info("gradient clipping disabled", zap.String("clip_norm", rc.ClipNorm.String()))
	}

	cmd := l.command(ctx, rc, res.RunID)
	log.Debug("starting training program",
		zap.Strings("argv", cmd.Args),
		zap.String("dataset_dir", l.config.DatasetDir),
		zap.String("workdir", cmd.Dir),
	)

	startTime := time.Now()
	if err := cmd.Start(); err != nil {
		res.Duration = time.Since(startTime)
		res.ExitCode = startStatus(err)
		return res, apperrors.Start(fmt.Sprintf("failed to start %s", cmd.Args[0]), res.ExitCode).WithError(err)
	}
	log.Info("training program started", zap.Int("pid", cmd.Process.Pid))

	stop := l.relaySignals(cmd.Process, log)
	err := cmd.Wait()
	stop()

	res.Duration = time.Since(startTime)
	res.ExitCode = exitStatus(cmd.ProcessState)
	if err != nil && cmd.ProcessState == nil {
		log.Warn("wait failed", zap.Error(err))
	}

	log.Info("training program exited",
		zap.Int("exit_code", res.ExitCode),
		zap.Duration("duration", res.Duration),
	)

	return res, nil
}

// relaySignals forwards the configured signals to p until stop is called.
func (l *Launcher) relaySignals(p *os.Process, log *zap.Logger) (stop func()) {
	if len(l.signals) == 0 {
		return func() {}
	}

	sigCh := make(chan os.Signal, 1)
	done := make(chan struct{})
	signal.Notify(sigCh, l.signals...)

	go func() {
		for {
			select {
			case sig := <-sigCh:
				log.Info("forwarding signal", zap.String("signal", sig.String()))
				if err := p.Signal(sig); err != nil {
					log.Warn("failed to forward signal", zap.Error(err))
				}
			case <-done:
				return
			}
		}
	}()

	return func() {
		signal.Stop(sigCh)
		close(done)
	}
}
