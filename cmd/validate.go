package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	apperrors "github.com/Strasser-Pablo/trainlaunch/internal/pkg/errors"
	"github.com/Strasser-Pablo/trainlaunch/internal/validator"
)

func newValidateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the run configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()

			err := validator.Validate(a.cfg.Run)
			if err == nil {
				fmt.Fprintln(out, "run configuration is valid")
				return nil
			}

			if errs, ok := err.(validator.ValidationErrors); ok {
				for _, e := range errs {
					fmt.Fprintf(out, "%s: %s\n", e.Field, e.Message)
				}
			}
			return apperrors.Validation(fmt.Sprintf("run configuration has %d problem(s)", countProblems(err)))
		},
	}
}

func countProblems(err error) int {
	if errs, ok := err.(validator.ValidationErrors); ok {
		return len(errs)
	}
	return 1
}
