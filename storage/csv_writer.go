package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"product-consolidator/models"
)

// CSVWriter exports the consolidated product table to a CSV file in the
// fixed output-template column order. It is safe for concurrent use.
type CSVWriter struct {
	mu     sync.Mutex
	file   *os.File
	writer *csv.Writer
	months []string
	years  []int
}

// NewCSVWriter creates (or truncates) the CSV file at the given path and
// writes the header row. Intermediate directories are created automatically.
func NewCSVWriter(path string, months []string, years []int) (*CSVWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("csv: create output dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("csv: create file %q: %w", path, err)
	}

	w := csv.NewWriter(f)

	header := []string{
		"Product Key", "Product Title", "Product Max Price",
		"Product Category L1", "Product Category L2", "Product Category L3",
		"Product Keyword", "Product Keyword Avg MSV", "Product Brand", "Availability",
	}
	for _, m := range months {
		header = append(header, "Product Popularity "+m)
	}
	for _, y := range years {
		for _, m := range months {
			header = append(header, models.MonthYear{Month: m, Year: y}.Label())
		}
	}
	header = append(header, "Peak Seasonality", "Peak Popularity", "True Peak")

	if err := w.Write(header); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("csv: write header: %w", err)
	}
	w.Flush()

	return &CSVWriter{file: f, writer: w, months: months, years: years}, nil
}

// Write appends one row per product in template column order.
func (c *CSVWriter) Write(products []*models.MasterProduct) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, p := range products {
		row := []string{
			p.Key, p.Title, p.Price,
			p.CategoryL1, p.CategoryL2, p.CategoryL3,
			p.Keyword, formatFloat(p.AvgMSV), p.Brand, p.Availability,
		}
		for _, m := range c.months {
			row = append(row, formatFloat(p.Popularity[m]))
		}
		for _, y := range c.years {
			for _, m := range c.months {
				row = append(row, formatFloat(p.MSV[models.MonthYear{Month: m, Year: y}]))
			}
		}
		row = append(row, p.PeakSeasonality, p.PeakPopularity, p.TruePeak)

		if err := c.writer.Write(row); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}

	c.writer.Flush()
	return c.writer.Error()
}

// Close flushes and closes the underlying file.
func (c *CSVWriter) Close() error {
	c.writer.Flush()
	return c.file.Close()
}
