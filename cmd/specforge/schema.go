package main

import (
	"github.com/jingkaihe/specforge/pkg/prd"
	"github.com/spf13/cobra"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON schema of prd.json",
	Long: `Print the JSON schema of the document written by 'specforge compile'.
Agents and CI jobs can validate prd.json against it before consuming it.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		data, err := prd.SchemaJSON()
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}
