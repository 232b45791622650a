package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newInfoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info",
		Short: "Print a trained vocabulary's shape as YAML",
		RunE:  runInfo,
	}
	cmd.Flags().String("vocab", "vocabulary.bowvoc", "vocabulary file produced by train")
	return cmd
}

func runInfo(cmd *cobra.Command, args []string) error {
	vocabPath, _ := cmd.Flags().GetString("vocab")

	vocab, err := loadVocabulary(vocabPath)
	if err != nil {
		return err
	}

	out, err := vocab.DumpInfoYAML()
	if err != nil {
		return fmt.Errorf("rendering info: %w", err)
	}
	fmt.Print(string(out))
	return nil
}
