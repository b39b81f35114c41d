package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newReposCommand(s *settings) *cobra.Command {
	var progress bool
	cmd := &cobra.Command{
		Use:   "repos USERNAME",
		Short: "Scan an account once and print its published repositories as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := s.build(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.close()

			opts := s.options()
			if progress {
				stderr := cmd.ErrOrStderr()
				opts.OnProgress = func(processed, total int, repo string) {
					fmt.Fprintf(stderr, "[%d/%d] %s\n", processed, total, repo)
				}
			}

			repos, err := rt.client.GetRepos(cmd.Context(), args[0], opts)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(repos)
		},
	}
	cmd.Flags().BoolVar(&progress, "progress", false, "Print scan progress to stderr")
	return cmd
}
