package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/reviewscope/crawler/internal/types"
)

// WriteReviewsJSON writes crawled records as an indented JSON array.
// Used by the one-shot CLI; the serve path persists through a
// ReviewStore instead.
func WriteReviewsJSON(path string, records []types.ReviewRecord) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("encode JSON: %w", err)
	}
	return nil
}
