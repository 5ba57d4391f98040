package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"squeeze/internal/deps"
	"squeeze/internal/preflight"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check binaries and directories squeeze depends on",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			statuses := preflight.CheckSystemDeps(cfg)
			rows := make([][]string, 0, len(statuses))
			for _, status := range statuses {
				rows = append(rows, []string{
					status.Name,
					status.Command,
					yesNo(status.Available),
					yesNo(status.Optional),
					status.Detail,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Tool", "Command", "Found", "Optional", "Detail"}, rows))

			dirRows := make([][]string, 0, 4)
			allDirs := true
			for _, result := range preflight.CheckDirectories(cfg) {
				if !result.Passed {
					allDirs = false
				}
				dirRows = append(dirRows, []string{result.Name, yesNo(result.Passed), result.Detail})
			}
			fmt.Fprintln(out, renderTable([]string{"Directory", "Writable", "Detail"}, dirRows))

			if !deps.AllRequiredAvailable(statuses) || !allDirs {
				return fmt.Errorf("environment is not ready; fix the failures above")
			}
			fmt.Fprintln(out, "Environment looks good")
			return nil
		},
	}
}
