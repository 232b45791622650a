package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/orneryd/bowvoc/internal/descriptor"
)

// loadImageDescriptors reads one image's descriptors from path, one
// descriptor per non-blank line in descriptor.Binary's string form
// (space-separated decimal bytes).
func loadImageDescriptors(path string) ([]descriptor.Binary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	trait := descriptor.BinaryTrait{}
	var descs []descriptor.Binary

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		d, err := trait.Parse(line)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		descs = append(descs, d)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return descs, nil
}

// loadTrainingSet reads a training set from path: one image per
// blank-line-separated block, one descriptor per line within a block.
func loadTrainingSet(path string) ([][]descriptor.Binary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	trait := descriptor.BinaryTrait{}
	var images [][]descriptor.Binary
	var current []descriptor.Binary

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			if len(current) > 0 {
				images = append(images, current)
				current = nil
			}
			continue
		}
		d, err := trait.Parse(line)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		current = append(current, d)
	}
	if len(current) > 0 {
		images = append(images, current)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return images, nil
}
