package main

import (
	"fmt"

	"github.com/jingkaihe/specforge/pkg/presenter"
	"github.com/jingkaihe/specforge/pkg/version"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version information",
	Long:  `Print the version information of specforge in JSON format.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		json, err := version.Get().JSON()
		if err != nil {
			presenter.Error(err, "Error formatting version info")
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), json)
		return nil
	},
}
