package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/orneryd/bowvoc/internal/database"
)

func newQueryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query [descriptors-file]",
		Short: "Query the database for the most similar inserted images",
		Args:  cobra.ExactArgs(1),
		RunE:  runQuery,
	}
	cmd.Flags().String("vocab", "vocabulary.bowvoc", "vocabulary file produced by train")
	cmd.Flags().String("data-dir", "./data/bowvoc", "database storage directory")
	cmd.Flags().Bool("direct-index", false, "open with direct index support")
	cmd.Flags().Int("direct-index-level", 2, "tree depth the direct index keys on")
	cmd.Flags().Int("max-results", 10, "maximum ranked results to return")
	cmd.Flags().Int64("max-entry-id", -1, "if >= 0, only consider entries with id <= this value")
	return cmd
}

func runQuery(cmd *cobra.Command, args []string) error {
	vocabPath, _ := cmd.Flags().GetString("vocab")
	dataDir, _ := cmd.Flags().GetString("data-dir")
	useDirectIndex, _ := cmd.Flags().GetBool("direct-index")
	directIndexLevel, _ := cmd.Flags().GetInt("direct-index-level")
	maxResults, _ := cmd.Flags().GetInt("max-results")
	maxEntryIDFlag, _ := cmd.Flags().GetInt64("max-entry-id")

	db, closeDB, err := openDatabase(vocabPath, dataDir, useDirectIndex, directIndexLevel)
	if err != nil {
		return err
	}
	defer closeDB()

	descs, err := loadImageDescriptors(args[0])
	if err != nil {
		return err
	}

	var maxEntryID *database.EntryID
	if maxEntryIDFlag >= 0 {
		v := database.EntryID(maxEntryIDFlag)
		maxEntryID = &v
	}

	results, err := db.Query(descs, maxResults, maxEntryID)
	if err != nil {
		return fmt.Errorf("querying: %w", err)
	}

	if len(results) == 0 {
		fmt.Println("No matches found")
		return nil
	}
	for i, r := range results {
		fmt.Printf("%2d. entry=%d score=%.6f\n", i+1, r.Entry, r.Score)
	}
	return nil
}
