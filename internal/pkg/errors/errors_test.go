package errors

import (
	"fmt"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, 0},
		{"plain error", fmt.Errorf("boom"), ExitFailure},
		{"child exit", Exit(3), 3},
		{"wrapped child exit", fmt.Errorf("run: %w", Exit(127)), 127},
		{"config", Config("bad file"), ExitUsage},
		{"validation", Validation("bad value"), ExitUsage},
		{"start", Start("not found", ExitNotFound), ExitNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitCode(tt.err))
		})
	}
}

func TestAppErrorFormatting(t *testing.T) {
	err := Start("failed to start python", ExitNotFound).WithError(exec.ErrNotFound)
	assert.Equal(t, `START_ERROR: failed to start python (executable file not found in $PATH)`, err.Error())
	assert.True(t, Is(err, exec.ErrNotFound))

	plain := Config("no such file")
	assert.Equal(t, "CONFIG_ERROR: no such file", plain.Error())
}

func TestWithDetail(t *testing.T) {
	err := Validation("invalid run config").WithDetail("lr", "must be greater than 0")
	assert.Equal(t, map[string]string{"lr": "must be greater than 0"}, err.Details)
}

func TestPredicates(t *testing.T) {
	assert.True(t, IsExit(Exit(1)))
	assert.False(t, IsExit(Validation("x")))
	assert.True(t, IsValidation(fmt.Errorf("wrap: %w", Validation("x"))))
	assert.False(t, IsAppError(fmt.Errorf("plain")))
	assert.Nil(t, GetAppError(nil))
}
