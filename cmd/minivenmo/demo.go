package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newDemoCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Run the Bobby and Carol walkthrough and print Bobby's feed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			rt, err := bootstrap(cmd.Context(), bootstrapOptions{
				configPath: opts.configPath,
				out:        cmd.OutOrStdout(),
				errOut:     cmd.ErrOrStderr(),
			})
			if err != nil {
				return err
			}
			defer func() {
				if cerr := rt.close(cmd.Context()); cerr != nil && err == nil {
					err = cerr
				}
			}()

			if _, err := rt.app.Run(cmd.Context()); err != nil {
				return fmt.Errorf("demo: %w", err)
			}

			return nil
		},
	}
}
