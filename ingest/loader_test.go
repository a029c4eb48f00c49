package ingest

import (
	"archive/zip"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"product-consolidator/utils"
)

var testMonths = []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun",
	"Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

func newTestLogger() *utils.Logger {
	return utils.NewLogger()
}

// writeZip builds a ZIP archive in a temp dir from name→content pairs.
func writeZip(t *testing.T, files map[string]string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "exports.zip")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create zip: %v", err)
	}
	defer f.Close()

	w := zip.NewWriter(f)
	for name, content := range files {
		entry, err := w.Create(name)
		if err != nil {
			t.Fatalf("create zip entry %q: %v", name, err)
		}
		if _, err := entry.Write([]byte(content)); err != nil {
			t.Fatalf("write zip entry %q: %v", name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return path
}

func TestParseFilename(t *testing.T) {
	tests := []struct {
		name      string
		wantMonth string
		wantYear  int
		wantOK    bool
	}{
		{"Dec-2024.csv", "Dec", 2024, true},
		{"dec-2024.csv", "Dec", 2024, true},
		{"Jan 2025.csv", "Jan", 2025, true},
		{"Acme Exports Sept 2024.csv", "Sep", 2024, true},
		{"September-2024.csv", "Sep", 2024, true},
		{"Best Sellers March 2025.csv", "Mar", 2025, true},
		{"notes.txt", "", 0, false},
		{"Foo-2024.csv", "", 0, false},
		{"2024-Dec.csv", "", 0, false},
	}

	for _, tt := range tests {
		month, year, ok := parseFilename(tt.name)
		if ok != tt.wantOK || month != tt.wantMonth || (ok && year != tt.wantYear) {
			t.Errorf("parseFilename(%q) = (%q, %d, %v), want (%q, %d, %v)",
				tt.name, month, year, ok, tt.wantMonth, tt.wantYear, tt.wantOK)
		}
	}
}

func TestLoadZIPReadsMonthlyFiles(t *testing.T) {
	loader := NewLoader(newTestLogger(), testMonths, "Dec")

	path := writeZip(t, map[string]string{
		"Jan-2025.csv": "Title,Brand,Popularity rank\nCoke 330ml,Coke,1\nPepsi 1L,Pepsi,2\n",
		"Dec-2024.csv": "Product Title,Product Brand,Product Popularity,Price range max.,Availability\n" +
			"Coke 330ml,Coke,3,2.50,In Stock\n",
		"__MACOSX/Jan-2025.csv": "garbage",
		".hidden.csv":           "garbage",
	})

	snapshots, warnings, err := loader.LoadZIP(path)
	if err != nil {
		t.Fatalf("LoadZIP returned error: %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("unexpected warnings: %v", warnings)
	}
	if len(snapshots) != 2 {
		t.Fatalf("expected 2 snapshots, got %d", len(snapshots))
	}

	jan := snapshots["Jan"]
	if jan == nil || len(jan.Rows) != 2 {
		t.Fatalf("Jan snapshot = %+v, want 2 rows", jan)
	}
	if jan.Rows[0].Title != "Coke 330ml" || jan.Rows[0].Rank == nil || *jan.Rows[0].Rank != 1 {
		t.Errorf("Jan row 0 = %+v, want Coke 330ml rank 1", jan.Rows[0])
	}
	// Price and availability are only read from the reference month.
	if jan.Rows[0].Price != "" || jan.Rows[0].Availability != "" {
		t.Errorf("non-reference month carried price/availability: %+v", jan.Rows[0])
	}

	dec := snapshots["Dec"]
	if dec == nil || len(dec.Rows) != 1 {
		t.Fatalf("Dec snapshot = %+v, want 1 row", dec)
	}
	if dec.Rows[0].Price != "2.50" || dec.Rows[0].Availability != "In Stock" {
		t.Errorf("Dec row 0 = %+v, want price 2.50, availability In Stock", dec.Rows[0])
	}

	if err := loader.Validate(snapshots); err != nil {
		t.Errorf("Validate returned error: %v", err)
	}
}

func TestLoadZIPCollectsWarnings(t *testing.T) {
	loader := NewLoader(newTestLogger(), testMonths, "Dec")

	path := writeZip(t, map[string]string{
		"Dec-2024.csv": "Title,Brand,Popularity rank,Price range max.,Availability\nCoke 330ml,Coke,1,2.50,In Stock\n",
		"random.csv":   "Title,Brand,Popularity rank\nX,Y,1\n",
		"Nov-2024.csv": "Title,Brand\nmissing rank column,Y\n",
	})

	snapshots, warnings, err := loader.LoadZIP(path)
	if err != nil {
		t.Fatalf("LoadZIP returned error: %v", err)
	}
	if len(snapshots) != 1 {
		t.Errorf("expected 1 usable snapshot, got %d", len(snapshots))
	}
	if len(warnings) != 2 {
		t.Fatalf("expected 2 warnings, got %d: %v", len(warnings), warnings)
	}
	joined := strings.Join(warnings, "; ")
	if !strings.Contains(joined, "random.csv") {
		t.Errorf("warnings missing unrecognized-filename entry: %v", warnings)
	}
	if !strings.Contains(joined, "Popularity rank") {
		t.Errorf("warnings missing required-column entry: %v", warnings)
	}
}

func TestLoadZIPNoUsableFiles(t *testing.T) {
	loader := NewLoader(newTestLogger(), testMonths, "Dec")
	path := writeZip(t, map[string]string{"readme.txt": "nothing here"})

	if _, _, err := loader.LoadZIP(path); !errors.Is(err, ErrNoSnapshots) {
		t.Fatalf("expected ErrNoSnapshots, got %v", err)
	}
}

func TestValidateRequiresReferenceMonth(t *testing.T) {
	loader := NewLoader(newTestLogger(), testMonths, "Dec")

	path := writeZip(t, map[string]string{
		"Jan-2025.csv": "Title,Brand,Popularity rank\nCoke 330ml,Coke,1\n",
	})
	snapshots, _, err := loader.LoadZIP(path)
	if err != nil {
		t.Fatalf("LoadZIP returned error: %v", err)
	}
	if err := loader.Validate(snapshots); err == nil {
		t.Fatal("expected Validate to fail without the reference month file")
	}
}

func TestReadSnapshotSniffsDelimiter(t *testing.T) {
	loader := NewLoader(newTestLogger(), testMonths, "Dec")

	path := writeZip(t, map[string]string{
		"Jan-2025.csv": "Title\tBrand\tPopularity rank\nCoke 330ml\tCoke\t1\n",
		"Feb-2025.csv": "Title;Brand;Popularity rank\nPepsi 1L;Pepsi;2\n",
	})

	snapshots, _, err := loader.LoadZIP(path)
	if err != nil {
		t.Fatalf("LoadZIP returned error: %v", err)
	}
	if got := snapshots["Jan"].Rows[0].Brand; got != "Coke" {
		t.Errorf("tab-delimited brand = %q, want Coke", got)
	}
	if got := snapshots["Feb"].Rows[0].Brand; got != "Pepsi" {
		t.Errorf("semicolon-delimited brand = %q, want Pepsi", got)
	}
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in   string
		want *float64
	}{
		{"42", fp(42)},
		{" 7 ", fp(7)},
		{"1,234", fp(1234)},
		{"3.5", fp(3.5)},
		{"", nil},
		{"N/A", nil},
		{"-", nil},
	}
	for _, tt := range tests {
		got := parseNumber(tt.in)
		switch {
		case got == nil && tt.want == nil:
		case got == nil || tt.want == nil || *got != *tt.want:
			t.Errorf("parseNumber(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func fp(v float64) *float64 { return &v }
