package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/orneryd/bowvoc/internal/descriptor"
	"github.com/orneryd/bowvoc/internal/vocabulary"
)

func newTrainCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "train [training-file]",
		Short: "Build a vocabulary tree from a training set of descriptors",
		Long: `train reads a training set (one image per blank-line-separated
block, one binary descriptor per line as space-separated decimal bytes)
and builds a vocabulary tree by recursive k-means clustering.`,
		Args: cobra.ExactArgs(1),
		RunE: runTrain,
	}
	cmd.Flags().Int("k", 10, "branching factor")
	cmd.Flags().Int("depth", 5, "maximum tree depth L")
	cmd.Flags().String("weighting", "TF_IDF", "TF_IDF | TF | IDF | BINARY")
	cmd.Flags().String("scoring", "L1", "L1 | L2 | CHI_SQUARE | KL | BHATTACHARYYA | DOT_PRODUCT")
	cmd.Flags().Int64("seed", 1, "k-means++ seeding RNG seed")
	cmd.Flags().String("out", "vocabulary.bowvoc", "output vocabulary file")
	return cmd
}

func runTrain(cmd *cobra.Command, args []string) error {
	trainingPath := args[0]
	k, _ := cmd.Flags().GetInt("k")
	depth, _ := cmd.Flags().GetInt("depth")
	weightingName, _ := cmd.Flags().GetString("weighting")
	scoringName, _ := cmd.Flags().GetString("scoring")
	seed, _ := cmd.Flags().GetInt64("seed")
	outPath, _ := cmd.Flags().GetString("out")

	weighting, err := parseWeighting(weightingName)
	if err != nil {
		return err
	}
	scoringKind, err := parseScoring(scoringName)
	if err != nil {
		return err
	}

	fmt.Printf("Loading training set from %s...\n", trainingPath)
	training, err := loadTrainingSet(trainingPath)
	if err != nil {
		return err
	}
	fmt.Printf("Loaded %d training images\n", len(training))

	cfg := vocabulary.Config{K: k, L: depth, Weighting: weighting, Scoring: scoringKind, Seed: seed}
	vocab, err := vocabulary.New[descriptor.Binary](descriptor.BinaryTrait{}, cfg)
	if err != nil {
		return fmt.Errorf("building vocabulary config: %w", err)
	}

	fmt.Println("Clustering...")
	if err := vocab.Create(training); err != nil {
		return fmt.Errorf("training vocabulary: %w", err)
	}

	info := vocab.Info()
	fmt.Printf("Trained vocabulary: %d nodes, %d words\n", info.NodeCount, info.WordCount)

	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("creating %s: %w", outPath, err)
	}
	defer out.Close()

	if err := vocab.Save(out); err != nil {
		return fmt.Errorf("saving vocabulary: %w", err)
	}
	fmt.Printf("Saved vocabulary to %s\n", outPath)
	return nil
}
