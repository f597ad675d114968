package main

import (
	"os"

	"github.com/templui/datafolio/cmd/datafolio/cmd"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "datafolio",
		Short:         "Datafolio maintenance and offline analysis tools",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.AddCommand(cmd.MigrateCmd())
	rootCmd.AddCommand(cmd.ShowCmd())
	rootCmd.AddCommand(cmd.JoinCmd())
	rootCmd.AddCommand(cmd.GroupCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
