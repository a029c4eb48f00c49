package models

import "fmt"

// SnapshotRow is one unprocessed record from a monthly export file.
// Rank is nil when the popularity cell was missing or unparseable.
// Price and Availability are only populated for the reference month.
type SnapshotRow struct {
	Title        string
	Brand        string
	Rank         *float64
	Price        string
	Availability string
}

// MonthlySnapshot holds one month's rows in file order.
type MonthlySnapshot struct {
	Month string
	Rows  []SnapshotRow
}

// MonthYear identifies one cell of the MSV grid, e.g. {Month: "Jan", Year: 2023}.
type MonthYear struct {
	Month string
	Year  int
}

// Label returns the column label used in input/output files, e.g. "Jan 2023".
func (my MonthYear) Label() string {
	return fmt.Sprintf("%s %d", my.Month, my.Year)
}

// MasterProduct is one consolidated row per unique product key.
// It is created by the master builder and progressively filled by the
// merge and derivation stages; each stage returns new values rather than
// mutating its input.
type MasterProduct struct {
	Key   string
	Title string
	Brand string

	Price        string
	Availability string

	// Popularity maps a month label ("Jan".."Dec") to that month's rank.
	// Lower rank = more popular. Missing months stay nil.
	Popularity     map[string]*float64
	PeakPopularity string

	CategoryL1 string
	CategoryL2 string
	CategoryL3 string
	Keyword    string

	AvgMSV          *float64
	MSV             map[MonthYear]*float64
	PeakSeasonality string
	TruePeak        string
}

// NewMasterProduct creates a product row with initialized maps.
func NewMasterProduct(key, title, brand string) *MasterProduct {
	return &MasterProduct{
		Key:        key,
		Title:      title,
		Brand:      brand,
		Popularity: make(map[string]*float64),
		MSV:        make(map[MonthYear]*float64),
	}
}

// Clone returns a deep copy so pipeline stages can stay pure.
func (p *MasterProduct) Clone() *MasterProduct {
	c := *p
	c.Popularity = make(map[string]*float64, len(p.Popularity))
	for k, v := range p.Popularity {
		c.Popularity[k] = copyFloat(v)
	}
	c.MSV = make(map[MonthYear]*float64, len(p.MSV))
	for k, v := range p.MSV {
		c.MSV[k] = copyFloat(v)
	}
	c.AvgMSV = copyFloat(p.AvgMSV)
	return &c
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	f := *v
	return &f
}

// MSVRecord is one row from an externally supplied search-volume file.
// Exactly which of Key/Title/Keyword is populated depends on the source;
// the merge engine picks the best available join key.
type MSVRecord struct {
	Key         string
	Title       string
	Keyword     string
	AvgMSV      *float64
	Monthly     map[MonthYear]*float64
	Seasonality string
}

// InsightGroup is one aggregated row of the insights report.
type InsightGroup struct {
	Name      string
	PeakMonth string
	Products  int
	Volume    float64
}

// InsightReport holds the grouped traffic tables over the consolidated dataset.
type InsightReport struct {
	TotalProducts  int
	WithMSV        int
	WithPeakMonth  int
	ByCategoryPeak []InsightGroup
	ByBrandPeak    []InsightGroup
}
