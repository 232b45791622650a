package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/orneryd/bowvoc/pkg/config"
)

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the environment-derived configuration used by long-running deployments",
		Long: `config loads BOWVOC_* environment variables the way a server-style
deployment would, validates them, and prints the result. CLI flags on
train/add/query/info are independent of this and always take
precedence for one-off invocations.`,
		RunE: runConfig,
	}
}

func runConfig(cmd *cobra.Command, args []string) error {
	cfg := config.LoadFromEnv()
	if err := cfg.Validate(); err != nil {
		return err
	}
	fmt.Println(cfg.String())
	return nil
}
