package ingest

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// columnSet holds resolved column indexes for a monthly export file.
// Indexes are -1 when the column is absent.
type columnSet struct {
	title        int
	brand        int
	rank         int
	price        int
	availability int
}

// Column aliases: canonical name → accepted spellings. Matching is
// case-insensitive and tolerates a trailing period on the header cell.
var columnAliasSets = map[string][]string{
	"title":        {"Title", "Product Title"},
	"brand":        {"Brand", "Product Brand"},
	"rank":         {"Popularity rank", "Product Popularity"},
	"price":        {"Price range max.", "Product Max Price", "Price"},
	"availability": {"Availability"},
}

// readCSV reads an entire CSV stream, stripping a UTF-8 BOM and NUL bytes
// (UTF-16 exports that went through a naive converter carry both) and
// sniffing the delimiter from the header line.
func readCSV(r io.Reader) ([]string, [][]string, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, fmt.Errorf("read content: %w", err)
	}

	raw = bytes.TrimPrefix(raw, []byte{0xEF, 0xBB, 0xBF})
	raw = bytes.ReplaceAll(raw, []byte{0x00}, nil)

	reader := csv.NewReader(bytes.NewReader(raw))
	reader.Comma = sniffDelimiter(raw)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("empty file")
	}

	header := make([]string, len(records[0]))
	for i, h := range records[0] {
		header[i] = strings.TrimSpace(h)
	}
	return header, records[1:], nil
}

// sniffDelimiter picks the delimiter with the most occurrences in the first
// line, defaulting to a comma.
func sniffDelimiter(raw []byte) rune {
	line := raw
	if i := bytes.IndexByte(raw, '\n'); i >= 0 {
		line = raw[:i]
	}

	best, bestCount := ',', 0
	for _, cand := range []rune{'\t', ',', ';', '|'} {
		count := bytes.Count(line, []byte(string(cand)))
		if count > bestCount {
			best, bestCount = cand, count
		}
	}
	return best
}

// resolveColumns maps the canonical snapshot columns onto the file's header.
// Title, brand and rank are always required; price and availability only for
// the reference month. A missing required column is an input-shape error.
func resolveColumns(header []string, isReference bool) (columnSet, error) {
	cols := columnSet{
		title:        findColumn(header, columnAliasSets["title"]),
		brand:        findColumn(header, columnAliasSets["brand"]),
		rank:         findColumn(header, columnAliasSets["rank"]),
		price:        findColumn(header, columnAliasSets["price"]),
		availability: findColumn(header, columnAliasSets["availability"]),
	}

	var missing []string
	if cols.title < 0 {
		missing = append(missing, "Title")
	}
	if cols.brand < 0 {
		missing = append(missing, "Brand")
	}
	if cols.rank < 0 {
		missing = append(missing, "Popularity rank")
	}
	if isReference {
		if cols.price < 0 {
			missing = append(missing, "Price range max.")
		}
		if cols.availability < 0 {
			missing = append(missing, "Availability")
		}
	}
	if len(missing) > 0 {
		return cols, fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}
	return cols, nil
}

// findColumn returns the index of the first header cell matching any alias,
// case-insensitively and ignoring a trailing period; -1 when absent.
func findColumn(header []string, aliases []string) int {
	for i, h := range header {
		cell := strings.ToLower(strings.TrimSpace(h))
		cell = strings.TrimSuffix(cell, ".")
		for _, alias := range aliases {
			want := strings.TrimSuffix(strings.ToLower(alias), ".")
			if cell == want {
				return i
			}
		}
	}
	return -1
}
