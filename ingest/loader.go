package ingest

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"path"
	"regexp"
	"strconv"
	"strings"

	"product-consolidator/models"
	"product-consolidator/utils"
)

// ErrNoSnapshots signals that the archive yielded no usable monthly file.
var ErrNoSnapshots = errors.New("ingest: no usable monthly snapshots")

// Filename patterns accepted for monthly export files, tried in order:
// "Mon-YYYY.csv", "Prefix Mon YYYY.csv" and "Mon YYYY.csv".
var filenamePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^([A-Za-z]{3,9})-(\d{4})\.csv$`),
	regexp.MustCompile(`(?i)^.+\s+([A-Za-z]{3,9})\s+(\d{4})\.csv$`),
	regexp.MustCompile(`(?i)^([A-Za-z]{3,9})\s+(\d{4})\.csv$`),
}

// monthAliases maps alternative month spellings to the canonical label.
var monthAliases = map[string]string{
	"Sept":      "Sep",
	"January":   "Jan",
	"February":  "Feb",
	"March":     "Mar",
	"April":     "Apr",
	"June":      "Jun",
	"July":      "Jul",
	"August":    "Aug",
	"September": "Sep",
	"October":   "Oct",
	"November":  "Nov",
	"December":  "Dec",
}

// Loader reads monthly product export files out of a ZIP archive into typed
// snapshots. It owns filename parsing, delimiter sniffing, column aliasing
// and required-column validation; everything downstream consumes the already
// aliased standard columns.
type Loader struct {
	logger         *utils.Logger
	months         []string
	referenceMonth string
}

// NewLoader creates a Loader for the given canonical month order and
// reference month (the month whose price/availability columns are required).
func NewLoader(logger *utils.Logger, months []string, referenceMonth string) *Loader {
	return &Loader{logger: logger, months: months, referenceMonth: referenceMonth}
}

// LoadZIP reads every monthly export file in the archive. Per-file problems
// (unrecognized filename, duplicate month, unreadable content) are collected
// as warnings; only an unreadable archive or an archive yielding no usable
// file at all is an error.
func (l *Loader) LoadZIP(zipPath string) (map[string]*models.MonthlySnapshot, []string, error) {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return nil, nil, fmt.Errorf("ingest: open zip %q: %w", zipPath, err)
	}
	defer r.Close()

	snapshots := make(map[string]*models.MonthlySnapshot)
	var warnings []string

	for _, f := range r.File {
		name := path.Base(f.Name)
		if f.FileInfo().IsDir() || strings.HasPrefix(f.Name, "__MACOSX") || strings.HasPrefix(name, ".") {
			continue
		}

		month, _, ok := parseFilename(name)
		if !ok {
			warnings = append(warnings, fmt.Sprintf("unrecognized filename %q (expected 'Mon-YYYY.csv', 'Mon YYYY.csv' or 'Prefix Mon YYYY.csv')", name))
			continue
		}
		if _, dup := snapshots[month]; dup {
			warnings = append(warnings, fmt.Sprintf("duplicate file for month %s: %q", month, name))
			continue
		}

		rc, err := f.Open()
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("cannot open %q: %v", name, err))
			continue
		}
		snap, err := l.readSnapshot(rc, month)
		rc.Close()
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("cannot read %q: %v", name, err))
			continue
		}

		snapshots[month] = snap
		l.logger.Info("[ingest] Loaded %s: %d rows from %q", month, len(snap.Rows), name)
	}

	if len(snapshots) == 0 {
		return nil, warnings, fmt.Errorf("%w in %q", ErrNoSnapshots, zipPath)
	}
	return snapshots, warnings, nil
}

// Validate checks the input-shape requirements: the reference month must be
// present (it carries price and availability). Column-level validation has
// already happened while reading each file.
func (l *Loader) Validate(snapshots map[string]*models.MonthlySnapshot) error {
	if len(snapshots) == 0 {
		return ErrNoSnapshots
	}
	if _, ok := snapshots[l.referenceMonth]; !ok {
		return fmt.Errorf("ingest: reference month %s file is required but missing", l.referenceMonth)
	}
	return nil
}

// readSnapshot parses one month's CSV content into a typed snapshot.
func (l *Loader) readSnapshot(r io.Reader, month string) (*models.MonthlySnapshot, error) {
	header, rows, err := readCSV(r)
	if err != nil {
		return nil, err
	}

	cols, err := resolveColumns(header, month == l.referenceMonth)
	if err != nil {
		return nil, err
	}

	snap := &models.MonthlySnapshot{Month: month, Rows: make([]models.SnapshotRow, 0, len(rows))}
	for _, row := range rows {
		sr := models.SnapshotRow{
			Title: cell(row, cols.title),
			Brand: cell(row, cols.brand),
			Rank:  parseNumber(cell(row, cols.rank)),
		}
		if month == l.referenceMonth {
			sr.Price = strings.TrimSpace(cell(row, cols.price))
			sr.Availability = strings.TrimSpace(cell(row, cols.availability))
		}
		snap.Rows = append(snap.Rows, sr)
	}
	return snap, nil
}

// parseFilename extracts the canonical month label and year from an export
// filename, resolving aliases like "Sept" or full month names.
func parseFilename(name string) (string, int, bool) {
	for _, pattern := range filenamePatterns {
		m := pattern.FindStringSubmatch(name)
		if m == nil {
			continue
		}
		month := capitalize(m[1])
		if canonical, ok := monthAliases[month]; ok {
			month = canonical
		}
		if !validMonth(month) {
			return "", 0, false
		}
		year, err := strconv.Atoi(m[2])
		if err != nil {
			return "", 0, false
		}
		return month, year, true
	}
	return "", 0, false
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	lower := strings.ToLower(s)
	return strings.ToUpper(lower[:1]) + lower[1:]
}

func validMonth(month string) bool {
	switch month {
	case "Jan", "Feb", "Mar", "Apr", "May", "Jun",
		"Jul", "Aug", "Sep", "Oct", "Nov", "Dec":
		return true
	}
	return false
}

// parseNumber parses a numeric cell, tolerating thousands separators and
// surrounding whitespace. Unparseable cells yield nil — a per-row data
// quality issue, never a batch failure.
func parseNumber(raw string) *float64 {
	cleaned := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if cleaned == "" {
		return nil
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return nil
	}
	return &v
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}
