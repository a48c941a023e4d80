package main

import (
	"github.com/spf13/cobra"

	"github.com/assetscan/assetscan/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:           "assetscan",
	Short:         "Assetscan is a small cloud asset scan engine.",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_, err := logging.BootstrapFromEnv(logging.BootstrapOptions{Command: cmd.Name()})
		return err
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(serveCmd, scanCmd, syncCmd, migrateCmd, seedCmd)
}
