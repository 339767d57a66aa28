package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tramita/tramita/pkg/sei"
)

var unitsCmd = &cobra.Command{
	Use:   "units [pattern]",
	Short: "List reachable units, optionally filtered by a glob pattern",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pattern := ""
		if len(args) == 1 {
			pattern = args[0]
		}
		return withSession(func(client *sei.Client) error {
			units, err := client.ListUnits(pattern)
			if err != nil {
				return err
			}
			if outputJSON {
				return printJSON(units)
			}
			if len(units) == 0 {
				printFail("no unit matched")
				return nil
			}
			for _, unit := range units {
				fmt.Printf("  %-15s  %s\n", unit.Acronym, unit.Description)
			}
			return nil
		})
	},
}
