// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"github.com/spf13/cobra"

	"github.com/pdiddy/novel-engine/internal/output"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List the supported model identifiers",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg := registry()
		tbl := output.NewTable(printer.Out(), []string{"model", "provider", "served as", "endpoint"})
		for _, id := range reg.IDs() {
			p, err := reg.Lookup(id)
			if err != nil {
				return err
			}
			endpoint := p.BaseURL
			if endpoint == "" {
				endpoint = "-"
			}
			tbl.AddRow(string(id), string(p.Provider), p.Model, endpoint)
		}
		return tbl.Render()
	},
}

func init() {
	rootCmd.AddCommand(modelsCmd)
}
