package main

import (
	"os"

	"github.com/spf13/cobra"
)

var configPath string

func main() {
	rootCmd := &cobra.Command{
		Use:   "thanwia",
		Short: "Search and analyse exam result spreadsheets",
		Long: `thanwia loads a results spreadsheet (seating_no, arabic_name, total_degree),
lets you search it by name or seating number, and reports score statistics,
the score distribution and the top students.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file (environment variables override it)")

	rootCmd.AddCommand(newServeCmd(), newQueryCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
