package main

import (
	"github.com/spf13/cobra"

	"github.com/hivegraph/hivecore/hiveconf"
)

var configPath string

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "hive",
		Short:         "Inspect and edit the core's JSON configuration document",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "hive.json", "path to the JSON configuration document")

	root.AddCommand(newLsCmd())
	root.AddCommand(newGetCmd())
	root.AddCommand(newRmCmd())
	root.AddCommand(newEditCmd())
	return root
}

func openDoc() (*hiveconf.Doc, error) {
	return hiveconf.LoadDoc(configPath)
}
