package services

import (
	"strings"

	"product-consolidator/models"
	"product-consolidator/utils"
)

// Sentinel values applied when the reference month has no data for a product.
const (
	PriceNotApplicable = "N/A"
	AvailabilityGap    = "Potential Gap"
)

// Merger left-joins monthly attributes onto the master product list.
type Merger struct {
	logger         *utils.Logger
	months         []string
	referenceMonth string
}

// NewMerger creates a Merger. referenceMonth names the single month whose
// price and availability columns are carried onto the master table.
func NewMerger(logger *utils.Logger, months []string, referenceMonth string) *Merger {
	return &Merger{logger: logger, months: months, referenceMonth: referenceMonth}
}

// MergeAttributes joins each month's popularity rank and the reference
// month's price/availability onto the master list by product key, then runs
// the defaulting pass. The input slice is not mutated.
func (m *Merger) MergeAttributes(master []*models.MasterProduct, snapshots map[string]*models.MonthlySnapshot) []*models.MasterProduct {
	out := make([]*models.MasterProduct, 0, len(master))
	for _, p := range master {
		out = append(out, p.Clone())
	}

	for _, month := range m.months {
		snap, ok := snapshots[month]
		if !ok {
			continue
		}
		ranks := rankIndex(snap)
		for _, p := range out {
			if rank, found := ranks[p.Key]; found {
				p.Popularity[month] = rank
			}
		}
	}

	if snap, ok := snapshots[m.referenceMonth]; ok {
		refRows := referenceIndex(snap)
		for _, p := range out {
			if row, found := refRows[p.Key]; found {
				p.Price = row.Price
				p.Availability = row.Availability
			}
		}
	} else {
		m.logger.Warn("[merger] Reference month %s missing — price/availability will default", m.referenceMonth)
	}

	return ApplyDefaults(out)
}

// ApplyDefaults fills the price and availability sentinels on products the
// reference month did not cover. It runs after all joins and is idempotent,
// so re-running the merge never double-applies defaults.
func ApplyDefaults(products []*models.MasterProduct) []*models.MasterProduct {
	for _, p := range products {
		if strings.TrimSpace(p.Price) == "" {
			p.Price = PriceNotApplicable
		}
		if strings.TrimSpace(p.Availability) == "" {
			p.Availability = AvailabilityGap
		}
	}
	return products
}

// rankIndex maps product key to popularity rank for one month. The first
// occurrence of a key wins, mirroring the master builder's duplicate policy.
func rankIndex(snap *models.MonthlySnapshot) map[string]*float64 {
	idx := make(map[string]*float64, len(snap.Rows))
	for _, row := range snap.Rows {
		key := NormalizeKey(row.Title)
		if key == "" {
			continue
		}
		if _, dup := idx[key]; dup {
			continue
		}
		if row.Rank != nil {
			rank := *row.Rank
			idx[key] = &rank
		} else {
			idx[key] = nil
		}
	}
	return idx
}

// referenceIndex maps product key to the reference month's row.
func referenceIndex(snap *models.MonthlySnapshot) map[string]models.SnapshotRow {
	idx := make(map[string]models.SnapshotRow, len(snap.Rows))
	for _, row := range snap.Rows {
		key := NormalizeKey(row.Title)
		if key == "" {
			continue
		}
		if _, dup := idx[key]; dup {
			continue
		}
		idx[key] = row
	}
	return idx
}
