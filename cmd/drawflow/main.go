package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "0.1.0"
	commit  = "dev"
	date    = "unknown"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var rootCmd = &cobra.Command{
		Use:   "drawflow",
		Short: "drawflow - server-driven node graph editor",
		Long: `drawflow serves a node graph editor. Nodes are dragged on a canvas,
wired output to input, and saved as JSON documents in a directory or in
PostgreSQL. The browser only renders; every interaction runs on the server.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringP("config", "c", ".", "Config file or directory containing drawflow.yaml")

	rootCmd.AddCommand(newServeCommand())
	rootCmd.AddCommand(newInspectCommand())
	rootCmd.AddCommand(newExportCommand())
	rootCmd.AddCommand(newVersionCommand())

	return rootCmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "drawflow %s (commit: %s, built: %s)\n", version, commit, date)
		},
	}
}
