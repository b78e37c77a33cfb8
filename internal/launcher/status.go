package launcher

import (
	"errors"
	"io/fs"
	"os"
	"os/exec"
	"syscall"

	apperrors "github.com/Strasser-Pablo/trainlaunch/internal/pkg/errors"
)

// exitStatus maps a finished process to the status a shell would report.
func exitStatus(ps *os.ProcessState) int {
	if ps == nil {
		return apperrors.ExitFailure
	}
	if ws, ok := ps.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return apperrors.ExitSignalBase + int(ws.Signal())
	}
	return ps.ExitCode()
}

// startStatus maps a failure to start the program: 127 when it does not
// exist, 126 when it exists but cannot be executed.
func startStatus(err error) int {
	if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
		return apperrors.ExitNotFound
	}
	return apperrors.ExitNotExecutable
}
