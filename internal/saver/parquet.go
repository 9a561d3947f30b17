package saver

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"

	"tickertape/internal/model"
)

// ParquetSaver writes flattened aggregation rows as a parquet file.
type ParquetSaver struct{}

func (ParquetSaver) Extension() string { return "parquet" }

// Save replaces path with rows.
func (ParquetSaver) Save(rows []model.Tick, path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("%w: create dir for %s: %w", ErrFileIO, path, err)
		}
	}
	if err := parquet.WriteFile(path, rows); err != nil {
		return fmt.Errorf("%w: parquet %s: %w", ErrFileIO, path, err)
	}
	return nil
}

// Load reads rows written by Save.
func (ParquetSaver) Load(path string) ([]model.Tick, error) {
	rows, err := parquet.ReadFile[model.Tick](path)
	if err != nil {
		return nil, fmt.Errorf("%w: parquet %s: %w", ErrFileIO, path, err)
	}
	return rows, nil
}
