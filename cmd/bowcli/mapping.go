package main

import (
	"fmt"

	"github.com/orneryd/bowvoc/internal/scoring"
	"github.com/orneryd/bowvoc/internal/vocabulary"
)

func parseWeighting(s string) (vocabulary.Weighting, error) {
	switch s {
	case "TF_IDF":
		return vocabulary.TFIDF, nil
	case "TF":
		return vocabulary.TF, nil
	case "IDF":
		return vocabulary.IDF, nil
	case "BINARY":
		return vocabulary.BINARY, nil
	default:
		return 0, fmt.Errorf("unknown weighting %q", s)
	}
}

func parseScoring(s string) (scoring.Kind, error) {
	switch s {
	case "L1":
		return scoring.L1, nil
	case "L2":
		return scoring.L2, nil
	case "CHI_SQUARE":
		return scoring.ChiSquare, nil
	case "KL":
		return scoring.KL, nil
	case "BHATTACHARYYA":
		return scoring.Bhattacharyya, nil
	case "DOT_PRODUCT":
		return scoring.DotProduct, nil
	default:
		return 0, fmt.Errorf("unknown scoring function %q", s)
	}
}
