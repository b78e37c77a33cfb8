// Package report sends failed runs to Sentry.
package report

import (
	"fmt"
	"strconv"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/Strasser-Pablo/trainlaunch/internal/config"
	"github.com/Strasser-Pablo/trainlaunch/internal/runconfig"
)

// FlushTimeout bounds how long Flush waits for buffered events.
const FlushTimeout = 2 * time.Second

// Init initializes the Sentry SDK. It is a no-op without a DSN.
func Init(cfg config.SentryConfig, release string) error {
	if cfg.DSN == "" {
		return nil
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      cfg.Environment,
		Release:          release,
		AttachStacktrace: false,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize Sentry: %w", err)
	}
	return nil
}

// Failure describes a run that did not exit cleanly.
type Failure struct {
	RunID    string
	ExitCode int
	Err      error
	Run      runconfig.RunConfig
}

// CaptureFailure reports f on hub. Successful runs are not reported.
func CaptureFailure(hub *sentry.Hub, f Failure) *sentry.EventID {
	if f.ExitCode == 0 && f.Err == nil {
		return nil
	}

	var id *sentry.EventID
	hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("run_id", f.RunID)
		scope.SetTag("task", f.Run.Task)
		scope.SetTag("algo_handle", f.Run.AlgoHandle)
		scope.SetTag("dataset_handle", f.Run.DatasetHandle)
		scope.SetTag("exit_code", strconv.Itoa(f.ExitCode))
		scope.SetContext("run", sentry.Context{
			"args": f.Run.Args(),
		})

		if f.Err != nil {
			id = hub.CaptureException(f.Err)
			return
		}
		scope.SetLevel(sentry.LevelError)
		id = hub.CaptureMessage(fmt.Sprintf("training program exited with status %d", f.ExitCode))
	})
	return id
}

// Flush waits for buffered events to be sent.
func Flush() {
	sentry.Flush(FlushTimeout)
}
