// Package errors provides application error types for trainlaunch.
//
// This package defines:
//   - AppError type with error classification
//   - Error constructors for the launcher's failure modes
//   - Mapping from errors to process exit statuses
//
// # Error Types
//
//   - Config: configuration could not be loaded (2)
//   - Validation: run configuration rejected by --strict or validate (2)
//   - Start: the training program could not be started (126 or 127)
//   - Exit: the training program exited non-zero (its own status)
//
// # Usage
//
//	return apperrors.Start("failed to start python", apperrors.ExitNotFound).WithError(err)
//
// main turns any error into a status with:
//
//	os.Exit(apperrors.ExitCode(err))
package errors
