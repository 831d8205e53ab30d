//go:build ignore

// This program generates test fixture files for xlkit.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/klytics/xlkit/internal/workbook"
)

func main() {
	if err := generateSample(filepath.Join("testdata", "sample.xlsx")); err != nil {
		fmt.Fprintf(os.Stderr, "Error generating sample.xlsx: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Test fixtures generated successfully.")
}

// generateSample writes a two-sheet workbook with a few hundred rows.
func generateSample(path string) error {
	rows := [][]any{{"Region", "Product", "Units", "Price", "Shipped"}}
	regions := []string{"North", "South", "East", "West"}
	products := []string{"Widget", "Gadget", "Sprocket"}
	for i := 0; i < 500; i++ {
		rows = append(rows, []any{
			regions[i%len(regions)],
			products[i%len(products)],
			10 + i%37,
			1.5 + float64(i%9)/4,
			i%5 != 0,
		})
	}

	h, err := workbook.New(path, workbook.WithDefaultSheet("Sales"))
	if err != nil {
		return err
	}
	if _, err := h.Create(rows); err != nil {
		return err
	}

	s, err := h.Begin()
	if err != nil {
		return err
	}
	defer s.Close()

	if _, err := s.CreateSheet("Notes"); err != nil {
		return err
	}
	if _, err := s.UpdateCell("Notes", "A1", "Generated fixture for benchmarks"); err != nil {
		return err
	}
	return s.Commit()
}
