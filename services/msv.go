package services

import (
	"errors"
	"strings"

	"product-consolidator/models"
	"product-consolidator/utils"
)

// ErrNoJoinKey signals that the master table and the MSV file share no usable
// join column. This is a configuration error — the two datasets cannot be
// reconciled — and halts the merge stage.
var ErrNoJoinKey = errors.New("msv: no usable join key between master and MSV data")

// Join keys the merge engine can use, in priority order.
const (
	joinByKey     = "product key"
	joinByTitle   = "product title"
	joinByKeyword = "keyword"
)

// MSVMerger left-joins an externally supplied monthly-search-volume table
// onto the master product list.
type MSVMerger struct {
	logger *utils.Logger
	months []string
	years  []int
}

// NewMSVMerger creates an MSVMerger over the given month order and year window.
func NewMSVMerger(logger *utils.Logger, months []string, years []int) *MSVMerger {
	return &MSVMerger{logger: logger, months: months, years: years}
}

// Merge joins the MSV records onto the master list and returns a new list.
//
// The join key is the first of product key, title, keyword that is populated
// on both sides; none available is a hard ErrNoJoinKey failure. Keyword joins
// are case-insensitive and whitespace-trimmed, and only volume flows in — the
// MSV file's own keyword text never overwrites the master's keyword values.
//
// Every MSV-derived field (average MSV, the monthly grid, seasonality) is
// rebuilt from the records alone, so merging the same file twice yields the
// same result as merging it once. Products with no match end up with empty
// MSV fields. Seasonality comes from the record when the file supplies it and
// is computed from the monthly grid otherwise; with no grid at all it stays
// blank rather than erroring.
func (m *MSVMerger) Merge(master []*models.MasterProduct, records []models.MSVRecord) ([]*models.MasterProduct, error) {
	joinKey, err := m.selectJoinKey(master, records)
	if err != nil {
		return nil, err
	}
	m.logger.Info("[msv] Merging %d MSV records using join key %q", len(records), joinKey)

	index := make(map[string]*models.MSVRecord, len(records))
	for i := range records {
		k := recordJoinValue(&records[i], joinKey)
		if k == "" {
			continue
		}
		if _, dup := index[k]; dup {
			continue
		}
		index[k] = &records[i]
	}

	peaks := NewPeakService(m.logger, m.months, m.years)

	out := make([]*models.MasterProduct, 0, len(master))
	matched := 0
	for _, p := range master {
		c := p.Clone()

		// Drop any prior merge's columns before joining — this is what
		// keeps a re-merge from accumulating stale values.
		c.AvgMSV = nil
		c.MSV = make(map[models.MonthYear]*float64)
		c.PeakSeasonality = ""

		rec, found := index[productJoinValue(c, joinKey)]
		if found {
			matched++
			if rec.AvgMSV != nil {
				avg := *rec.AvgMSV
				c.AvgMSV = &avg
			}
			for _, month := range m.months {
				for _, year := range m.years {
					my := models.MonthYear{Month: month, Year: year}
					if v := rec.Monthly[my]; v != nil {
						val := *v
						c.MSV[my] = &val
					}
				}
			}
			c.PeakSeasonality = strings.TrimSpace(rec.Seasonality)
		}

		out = append(out, c)
	}

	out = peaks.SeasonalityPeaks(out)

	m.logger.Info("[msv] Matched %d/%d products", matched, len(master))
	return out, nil
}

// selectJoinKey picks the highest-priority join column populated on both
// sides. Master rows always carry a key and a title, so those two only need
// to be present in the MSV records; the keyword key additionally needs
// keywords on the master side (they come from the enrichment service).
func (m *MSVMerger) selectJoinKey(master []*models.MasterProduct, records []models.MSVRecord) (string, error) {
	var recHasKey, recHasTitle, recHasKeyword bool
	for i := range records {
		if strings.TrimSpace(records[i].Key) != "" {
			recHasKey = true
		}
		if strings.TrimSpace(records[i].Title) != "" {
			recHasTitle = true
		}
		if strings.TrimSpace(records[i].Keyword) != "" {
			recHasKeyword = true
		}
	}

	masterHasKeyword := false
	for _, p := range master {
		if strings.TrimSpace(p.Keyword) != "" {
			masterHasKeyword = true
			break
		}
	}

	switch {
	case recHasKey:
		return joinByKey, nil
	case recHasTitle:
		return joinByTitle, nil
	case recHasKeyword && masterHasKeyword:
		return joinByKeyword, nil
	}
	return "", ErrNoJoinKey
}

func recordJoinValue(rec *models.MSVRecord, joinKey string) string {
	switch joinKey {
	case joinByKey:
		return strings.TrimSpace(rec.Key)
	case joinByTitle:
		return strings.TrimSpace(rec.Title)
	default:
		// Ad-keyword-planner exports commonly differ only in case.
		return strings.ToLower(strings.TrimSpace(rec.Keyword))
	}
}

func productJoinValue(p *models.MasterProduct, joinKey string) string {
	switch joinKey {
	case joinByKey:
		return p.Key
	case joinByTitle:
		return strings.TrimSpace(p.Title)
	default:
		return strings.ToLower(strings.TrimSpace(p.Keyword))
	}
}
