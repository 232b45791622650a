package main

import (
	"fmt"
	"os"
	"time"

	"github.com/orneryd/bowvoc/internal/database"
	"github.com/orneryd/bowvoc/internal/database/badgerstore"
	"github.com/orneryd/bowvoc/internal/descriptor"
	"github.com/orneryd/bowvoc/internal/vocabulary"
)

func loadVocabulary(path string) (*vocabulary.Vocabulary[descriptor.Binary], error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening vocabulary %s: %w", path, err)
	}
	defer f.Close()

	vocab, err := vocabulary.New[descriptor.Binary](descriptor.BinaryTrait{}, vocabulary.DefaultConfig())
	if err != nil {
		return nil, err
	}
	if err := vocab.Load(f); err != nil {
		return nil, fmt.Errorf("loading vocabulary %s: %w", path, err)
	}
	return vocab, nil
}

func openDatabase(vocabPath, dataDir string, useDirectIndex bool, directIndexLevel int) (*database.Database[descriptor.Binary], func(), error) {
	vocab, err := loadVocabulary(vocabPath)
	if err != nil {
		return nil, nil, err
	}

	store, err := badgerstore.Open(badgerstore.Options{DataDir: dataDir})
	if err != nil {
		return nil, nil, fmt.Errorf("opening database store at %s: %w", dataDir, err)
	}

	db, err := database.New[descriptor.Binary](vocab, store, database.Options{
		UseDirectIndex:   useDirectIndex,
		DirectIndexLevel: directIndexLevel,
		CacheSize:        1000,
		CacheTTL:         5 * time.Minute,
	})
	if err != nil {
		store.Close()
		return nil, nil, err
	}

	return db, func() { store.Close() }, nil
}
