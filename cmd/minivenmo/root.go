package main

import (
	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "minivenmo",
		Short:         "MiniVenmo - a peer-to-peer payment simulation",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "path to a YAML config file (defaults to $MINIVENMO_CONFIG)")

	root.AddCommand(newDemoCmd(opts))
	root.AddCommand(newShellCmd(opts))

	return root
}
