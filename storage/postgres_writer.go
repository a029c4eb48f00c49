package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"product-consolidator/models"
)

// PostgresWriter persists the consolidated product table to PostgreSQL.
type PostgresWriter struct {
	db     *sql.DB
	months []string
	years  []int
}

// NewPostgresWriter opens a connection to PostgreSQL, runs schema migrations,
// and returns a ready-to-use PostgresWriter.
func NewPostgresWriter(dsn string, months []string, years []int) (*PostgresWriter, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	for i := 0; i < 10; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: ping failed after retries: %w", err)
	}

	pw := &PostgresWriter{db: db, months: months, years: years}
	if err := pw.migrate(); err != nil {
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return pw, nil
}

func (pw *PostgresWriter) migrate() error {
	defs := []string{
		"id SERIAL PRIMARY KEY",
		"key TEXT UNIQUE NOT NULL",
		"title TEXT NOT NULL",
		"brand TEXT NOT NULL DEFAULT ''",
		"price TEXT NOT NULL DEFAULT ''",
		"availability TEXT NOT NULL DEFAULT ''",
		"category_l1 TEXT NOT NULL DEFAULT ''",
		"category_l2 TEXT NOT NULL DEFAULT ''",
		"category_l3 TEXT NOT NULL DEFAULT ''",
		"keyword TEXT NOT NULL DEFAULT ''",
		"avg_msv NUMERIC",
		"peak_popularity TEXT NOT NULL DEFAULT ''",
		"peak_seasonality TEXT NOT NULL DEFAULT ''",
		"true_peak TEXT NOT NULL DEFAULT ''",
	}
	for _, m := range pw.months {
		defs = append(defs, popColumn(m)+" NUMERIC")
	}
	for _, y := range pw.years {
		for _, m := range pw.months {
			defs = append(defs, msvColumn(models.MonthYear{Month: m, Year: y})+" NUMERIC")
		}
	}

	_, err := pw.db.Exec(fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS products (%s);

		CREATE INDEX IF NOT EXISTS idx_products_brand       ON products(brand);
		CREATE INDEX IF NOT EXISTS idx_products_category_l1 ON products(category_l1);
	`, strings.Join(defs, ",\n\t\t\t")))
	return err
}

// Clear deletes all existing products from the table.
func (pw *PostgresWriter) Clear() error {
	_, err := pw.db.Exec("DELETE FROM products")
	if err != nil {
		return fmt.Errorf("postgres: clear: %w", err)
	}
	return nil
}

// Write batch-inserts ALL products, clearing old data first — the pipeline
// re-runs end to end on every upload, so the table always mirrors the latest
// consolidation.
func (pw *PostgresWriter) Write(products []*models.MasterProduct) error {
	if len(products) == 0 {
		return nil
	}

	if err := pw.Clear(); err != nil {
		return err
	}

	const batchSize = 50
	for i := 0; i < len(products); i += batchSize {
		end := i + batchSize
		if end > len(products) {
			end = len(products)
		}
		if err := pw.insertBatch(products[i:end]); err != nil {
			return err
		}
	}
	return nil
}

func (pw *PostgresWriter) insertBatch(batch []*models.MasterProduct) error {
	cols := tableColumns(pw.months, pw.years)

	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]interface{}, 0, len(batch)*len(cols))

	for idx, p := range batch {
		base := idx * len(cols)
		placeholders := make([]string, len(cols))
		for j := range cols {
			placeholders[j] = fmt.Sprintf("$%d", base+j+1)
		}
		valueStrings = append(valueStrings, "("+strings.Join(placeholders, ",")+")")
		valueArgs = append(valueArgs, rowValues(p, pw.months, pw.years)...)
	}

	query := fmt.Sprintf(`
		INSERT INTO products (%s)
		VALUES %s
		ON CONFLICT (key) DO NOTHING
	`, strings.Join(cols, ","), strings.Join(valueStrings, ","))

	_, err := pw.db.Exec(query, valueArgs...)
	return err
}

func (pw *PostgresWriter) Close() error {
	return pw.db.Close()
}

// FetchAll retrieves all stored products — used by the insight service.
func (pw *PostgresWriter) FetchAll() ([]*models.MasterProduct, error) {
	cols := tableColumns(pw.months, pw.years)
	rows, err := pw.db.Query(fmt.Sprintf(
		"SELECT %s FROM products ORDER BY id", strings.Join(cols, ",")))
	if err != nil {
		return nil, fmt.Errorf("postgres: fetch all: %w", err)
	}
	defer rows.Close()

	return scanProducts(rows, pw.months, pw.years)
}
