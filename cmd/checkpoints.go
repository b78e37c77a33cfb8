package cmd

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/Strasser-Pablo/trainlaunch/internal/checkpoint"
	apperrors "github.com/Strasser-Pablo/trainlaunch/internal/pkg/errors"
)

func newCheckpointsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "checkpoints [dir]",
		Short: "List the checkpoints in a directory",
		Long: `List the model_<epoch>.tar files the training program saved, oldest
epoch first. Defaults to checkpoints.dir from the configuration.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := a.cfg.Checkpoints.Dir
			if len(args) == 1 {
				dir = args[0]
			}
			if dir == "" {
				return apperrors.Config("no checkpoint directory given")
			}

			all, err := checkpoint.Scan(dir)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "EPOCH\tSIZE\tMODIFIED\tPATH")
			for _, c := range all {
				fmt.Fprintf(tw, "%d\t%d\t%s\t%s\n", c.Epoch, c.Size, c.ModTime.UTC().Format(time.RFC3339), c.Path)
			}
			return tw.Flush()
		},
	}
}
