package ingest

import (
	"fmt"
	"os"
	"strings"
	"time"

	"product-consolidator/models"
	"product-consolidator/utils"
)

// MSVLoader reads an externally supplied monthly-search-volume CSV into
// typed records for the merge engine.
type MSVLoader struct {
	logger *utils.Logger
	months []string
	years  []int
}

// NewMSVLoader creates an MSVLoader for the given month order and year window.
func NewMSVLoader(logger *utils.Logger, months []string, years []int) *MSVLoader {
	return &MSVLoader{logger: logger, months: months, years: years}
}

// Load reads the MSV file. It recognizes "Product Key", "Product Title" and
// "Keyword"/"Product Keyword" join columns, the "Product Keyword Avg MSV"
// column, an optional "Peak Seasonality" column, and monthly columns in
// either "Jan 2023" or datetime ("2023-01-01") header format.
func (l *MSVLoader) Load(path string) ([]models.MSVRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("ingest: open msv file %q: %w", path, err)
	}
	defer f.Close()

	header, rows, err := readCSV(f)
	if err != nil {
		return nil, fmt.Errorf("ingest: read msv file %q: %w", path, err)
	}

	keyCol := findColumn(header, []string{"Product Key"})
	titleCol := findColumn(header, []string{"Product Title", "Title"})
	keywordCol := findColumn(header, []string{"Keyword", "Product Keyword"})
	avgCol := findColumn(header, []string{"Product Keyword Avg MSV", "Avg MSV"})
	seasonCol := findColumn(header, []string{"Peak Seasonality"})

	monthCols := l.resolveMonthColumns(header)
	if len(monthCols) == 0 {
		l.logger.Warn("[ingest] MSV file has no monthly volume columns (%s %d – %s %d)",
			l.months[0], l.years[0], l.months[len(l.months)-1], l.years[len(l.years)-1])
	} else if len(monthCols) < len(l.months)*len(l.years) {
		l.logger.Warn("[ingest] MSV file has %d/%d monthly volume columns",
			len(monthCols), len(l.months)*len(l.years))
	}

	records := make([]models.MSVRecord, 0, len(rows))
	for _, row := range rows {
		rec := models.MSVRecord{
			Key:         strings.TrimSpace(cell(row, keyCol)),
			Title:       strings.TrimSpace(cell(row, titleCol)),
			Keyword:     strings.TrimSpace(cell(row, keywordCol)),
			AvgMSV:      parseNumber(cell(row, avgCol)),
			Seasonality: strings.TrimSpace(cell(row, seasonCol)),
			Monthly:     make(map[models.MonthYear]*float64, len(monthCols)),
		}
		for my, idx := range monthCols {
			if v := parseNumber(cell(row, idx)); v != nil {
				rec.Monthly[my] = v
			}
		}
		records = append(records, rec)
	}

	l.logger.Info("[ingest] Loaded %d MSV records from %q", len(records), path)
	return records, nil
}

// resolveMonthColumns maps each configured (month, year) cell to its header
// index. Headers may be "Jan 2023" style labels or datetime strings such as
// "2023-01-01" / "2023-01-01 00:00:00", which some exports emit.
func (l *MSVLoader) resolveMonthColumns(header []string) map[models.MonthYear]int {
	cols := make(map[models.MonthYear]int)
	for i, h := range header {
		my, ok := l.parseMonthHeader(strings.TrimSpace(h))
		if !ok {
			continue
		}
		if _, dup := cols[my]; dup {
			continue
		}
		cols[my] = i
	}
	return cols
}

func (l *MSVLoader) parseMonthHeader(h string) (models.MonthYear, bool) {
	for _, month := range l.months {
		for _, year := range l.years {
			my := models.MonthYear{Month: month, Year: year}
			if strings.EqualFold(h, my.Label()) {
				return my, true
			}
		}
	}

	// Datetime-formatted headers: take the date part, tolerate slashes.
	datePart := strings.Fields(h)
	if len(datePart) == 0 {
		return models.MonthYear{}, false
	}
	normalized := strings.ReplaceAll(datePart[0], "/", "-")
	t, err := time.Parse("2006-01-02", normalized)
	if err != nil {
		return models.MonthYear{}, false
	}
	my := models.MonthYear{Month: t.Format("Jan"), Year: t.Year()}
	if l.inWindow(my) {
		return my, true
	}
	return models.MonthYear{}, false
}

func (l *MSVLoader) inWindow(my models.MonthYear) bool {
	yearOK := false
	for _, y := range l.years {
		if my.Year == y {
			yearOK = true
			break
		}
	}
	if !yearOK {
		return false
	}
	for _, m := range l.months {
		if my.Month == m {
			return true
		}
	}
	return false
}
