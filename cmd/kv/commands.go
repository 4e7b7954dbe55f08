package kv

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/ValentinKolb/mkv/lib/client"
	"github.com/spf13/cobra"
)

var (
	execCmd = &cobra.Command{
		Use:   "exec [command]...",
		Short: "Runs each argument as one command line",
		Example: `  mkv kv exec "SET foo bar" "GET foo"
  mkv kv exec "MULTI" "INCR n" "INCR n" "EXEC"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(s *session) error {
				return s.runScript(strings.NewReader(strings.Join(args, "\n")))
			})
		},
	}
	evalCmd = &cobra.Command{
		Use:   "eval [file]",
		Short: "Runs a script with one command per line (reads stdin if no file or - is given)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var in io.Reader = cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}
			return withSession(cmd, func(s *session) error {
				return s.runScript(in)
			})
		},
	}
	commandsCmd = &cobra.Command{
		Use:   "commands",
		Short: "Lists the supported commands",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			names := append(client.Commands(), "MULTI", "EXEC", "DISCARD", "WATCH", "LOCK", "UNLOCK")
			sort.Strings(names)
			for _, name := range names {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
)
