package cmd

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Strasser-Pablo/trainlaunch/internal/launcher"
)

func newArgsCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "args [flags] [-- extra trainer args]",
		Short: "Print the invocation without running it",
		Long: `Print the environment and command line trainlaunch would run, as one
shell line that can be pasted into a terminal.`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			extra, err := extraArgs(cmd, args)
			if err != nil {
				return err
			}
			l := launcher.New(launcherConfig(a.cfg, extra))
			argv := l.Argv(a.cfg.Run)

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]any{
					"env":  map[string]string{launcher.DatasetDirEnv: a.cfg.DatasetDir},
					"argv": argv,
				})
			}

			words := make([]string, 0, len(argv)+1)
			if a.cfg.DatasetDir != "" {
				words = append(words, launcher.DatasetDirEnv+"="+shellQuote(a.cfg.DatasetDir))
			}
			for _, arg := range argv {
				words = append(words, shellQuote(arg))
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), strings.Join(words, " "))
			return err
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print as JSON")
	return cmd
}

var shellSafe = regexp.MustCompile(`^[A-Za-z0-9_@%+=:,./-]+$`)

// shellQuote quotes s for a POSIX shell when it contains anything special.
func shellQuote(s string) string {
	if shellSafe.MatchString(s) {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
