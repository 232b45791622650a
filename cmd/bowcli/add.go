package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add [descriptors-file]",
		Short: "Insert one image's descriptors into the database",
		Args:  cobra.ExactArgs(1),
		RunE:  runAdd,
	}
	cmd.Flags().String("vocab", "vocabulary.bowvoc", "vocabulary file produced by train")
	cmd.Flags().String("data-dir", "./data/bowvoc", "database storage directory")
	cmd.Flags().Bool("direct-index", false, "maintain a direct index for geometric verification")
	cmd.Flags().Int("direct-index-level", 2, "tree depth the direct index keys on")
	return cmd
}

func runAdd(cmd *cobra.Command, args []string) error {
	vocabPath, _ := cmd.Flags().GetString("vocab")
	dataDir, _ := cmd.Flags().GetString("data-dir")
	useDirectIndex, _ := cmd.Flags().GetBool("direct-index")
	directIndexLevel, _ := cmd.Flags().GetInt("direct-index-level")

	db, closeDB, err := openDatabase(vocabPath, dataDir, useDirectIndex, directIndexLevel)
	if err != nil {
		return err
	}
	defer closeDB()

	descs, err := loadImageDescriptors(args[0])
	if err != nil {
		return err
	}

	eid, err := db.Add(descs)
	if err != nil {
		return fmt.Errorf("adding image: %w", err)
	}

	fmt.Printf("Inserted entry %d (%d descriptors, %d entries total)\n", eid, len(descs), db.Size())
	return nil
}
