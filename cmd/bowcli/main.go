// Package main provides the bowvoc CLI entry point.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/orneryd/bowvoc/internal/applog"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "bowcli",
		Short: "bowvoc - hierarchical bag-of-words place recognition",
		Long: `bowcli drives the bowvoc library: train a vocabulary tree by
recursive k-means over a corpus of descriptors, insert images into a
database backed by an inverted index, and query it for the most similar
previously-inserted images.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level, _ := cmd.Flags().GetString("log-level")
			applog.SetLevelName(level)
		},
	}
	rootCmd.PersistentFlags().String("log-level", "INFO", "log level: DEBUG, INFO, WARN, ERROR")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("bowcli v%s (%s)\n", version, commit)
		},
	})

	rootCmd.AddCommand(newTrainCmd())
	rootCmd.AddCommand(newAddCmd())
	rootCmd.AddCommand(newQueryCmd())
	rootCmd.AddCommand(newInfoCmd())
	rootCmd.AddCommand(newConfigCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
