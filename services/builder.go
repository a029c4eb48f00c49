package services

import (
	"product-consolidator/models"
	"product-consolidator/utils"
)

// Builder constructs the master product list from monthly snapshots.
type Builder struct {
	logger *utils.Logger
	months []string
}

// NewBuilder creates a Builder iterating months in the given canonical order.
func NewBuilder(logger *utils.Logger, months []string) *Builder {
	return &Builder{logger: logger, months: months}
}

// BuildMaster computes the union of all normalized product keys across the
// snapshots and returns one row per unique key, in first-seen order.
//
// Months are visited in canonical calendar order and rows in file order; the
// first occurrence of a key claims the representative title and brand, later
// duplicates are dropped. Rows whose title normalizes to the empty key are
// excluded entirely — they can never be matched or deduplicated downstream.
func (b *Builder) BuildMaster(snapshots map[string]*models.MonthlySnapshot) []*models.MasterProduct {
	seen := make(map[string]struct{})
	master := make([]*models.MasterProduct, 0)

	total := 0
	for _, month := range b.months {
		snap, ok := snapshots[month]
		if !ok {
			continue
		}
		total += len(snap.Rows)
		for _, row := range snap.Rows {
			key := NormalizeKey(row.Title)
			if key == "" {
				b.logger.Debug("[builder] Dropping row with empty key in %s: %q", month, row.Title)
				continue
			}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			master = append(master, models.NewMasterProduct(key, row.Title, row.Brand))
		}
	}

	b.logger.Info("[builder] Consolidated %d monthly rows into %d unique products",
		total, len(master))
	return master
}
