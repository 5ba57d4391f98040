package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"squeeze/internal/plan"
)

func newPresetsCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "presets",
		Short:       "List the available compression presets",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			rows := make([][]string, 0, len(plan.PresetNames()))
			for _, name := range plan.PresetNames() {
				cfg, _ := plan.Lookup(plan.Preset(name))
				rows = append(rows, []string{
					name,
					strconv.Itoa(cfg.MaxHeight) + "p",
					strconv.Itoa(cfg.CRF),
					cfg.Speed,
					cfg.Description,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Preset", "Max Height", "CRF", "Speed", "Description"},
				rows, 1, 2))
			return nil
		},
	}
}
