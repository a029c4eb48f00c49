package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"product-consolidator/models"
)

// SQLiteWriter persists the consolidated product table to an embedded SQLite
// database — the default backend when no PostgreSQL instance is around.
type SQLiteWriter struct {
	db     *sql.DB
	months []string
	years  []int
}

// NewSQLiteWriter opens (or creates) the database file and ensures the
// products table exists. Intermediate directories are created automatically.
func NewSQLiteWriter(path string, months []string, years []int) (*SQLiteWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("sqlite: create output dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %q: %w", path, err)
	}

	sw := &SQLiteWriter{db: db, months: months, years: years}
	if err := sw.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: migrate: %w", err)
	}
	return sw, nil
}

func (sw *SQLiteWriter) migrate() error {
	defs := []string{
		"id INTEGER PRIMARY KEY AUTOINCREMENT",
		"key TEXT UNIQUE NOT NULL",
		"title TEXT NOT NULL",
		"brand TEXT NOT NULL DEFAULT ''",
		"price TEXT NOT NULL DEFAULT ''",
		"availability TEXT NOT NULL DEFAULT ''",
		"category_l1 TEXT NOT NULL DEFAULT ''",
		"category_l2 TEXT NOT NULL DEFAULT ''",
		"category_l3 TEXT NOT NULL DEFAULT ''",
		"keyword TEXT NOT NULL DEFAULT ''",
		"avg_msv REAL",
		"peak_popularity TEXT NOT NULL DEFAULT ''",
		"peak_seasonality TEXT NOT NULL DEFAULT ''",
		"true_peak TEXT NOT NULL DEFAULT ''",
	}
	for _, m := range sw.months {
		defs = append(defs, popColumn(m)+" REAL")
	}
	for _, y := range sw.years {
		for _, m := range sw.months {
			defs = append(defs, msvColumn(models.MonthYear{Month: m, Year: y})+" REAL")
		}
	}

	_, err := sw.db.Exec("CREATE TABLE IF NOT EXISTS products (" + strings.Join(defs, ",\n\t") + ")")
	return err
}

// Write replaces the table contents with the given products inside a single
// transaction, using a prepared statement per row.
func (sw *SQLiteWriter) Write(products []*models.MasterProduct) error {
	if len(products) == 0 {
		return nil
	}

	tx, err := sw.db.Begin()
	if err != nil {
		return fmt.Errorf("sqlite: begin: %w", err)
	}

	if _, err := tx.Exec("DELETE FROM products"); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("sqlite: clear: %w", err)
	}

	cols := tableColumns(sw.months, sw.years)
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(cols)), ",")
	stmt, err := tx.Prepare(fmt.Sprintf(
		"INSERT INTO products (%s) VALUES (%s)",
		strings.Join(cols, ","), placeholders))
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("sqlite: prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, p := range products {
		if _, err := stmt.Exec(rowValues(p, sw.months, sw.years)...); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("sqlite: insert %q: %w", p.Key, err)
		}
	}

	return tx.Commit()
}

func (sw *SQLiteWriter) Close() error {
	return sw.db.Close()
}

// FetchAll retrieves all stored products — used by the insight service.
func (sw *SQLiteWriter) FetchAll() ([]*models.MasterProduct, error) {
	cols := tableColumns(sw.months, sw.years)
	rows, err := sw.db.Query(fmt.Sprintf(
		"SELECT %s FROM products ORDER BY id", strings.Join(cols, ",")))
	if err != nil {
		return nil, fmt.Errorf("sqlite: fetch all: %w", err)
	}
	defer rows.Close()

	return scanProducts(rows, sw.months, sw.years)
}
