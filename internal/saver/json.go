package saver

import (
	"fmt"
	"os"
)

// JSONSaver keeps the raw upstream payload of the last fetch for a partition.
type JSONSaver struct{}

func (JSONSaver) Extension() string { return "json" }

// Save overwrites path with payload.
func (JSONSaver) Save(payload []byte, path string) error {
	if err := os.WriteFile(path, payload, 0644); err != nil {
		return fmt.Errorf("%w: write %s: %w", ErrFileIO, path, err)
	}
	return nil
}
