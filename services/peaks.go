package services

import (
	"math"
	"sort"
	"strings"

	"product-consolidator/models"
	"product-consolidator/utils"
)

// PeakService derives the peak-popularity and peak-seasonality strings.
// Both use the same top-4 + variance-band procedure; popularity feeds it
// monthly ranks (lower = better) and seasonality feeds it per-calendar-month
// search volumes (higher = better).
type PeakService struct {
	logger *utils.Logger
	months []string
	years  []int
}

// NewPeakService creates a PeakService over the given month order and
// MSV year window.
func NewPeakService(logger *utils.Logger, months []string, years []int) *PeakService {
	return &PeakService{logger: logger, months: months, years: years}
}

type monthValue struct {
	month string
	value float64
}

// StablePeaks returns the 0–4 "stable high" months of a nullable series.
//
// Months with nil values are dropped. With fewer than 3 usable months the
// single best month is returned (or nothing at all). Otherwise the top 4
// months are ranked best-first — ascending when betterIsLower (rank-based
// popularity), descending when not (volume-based seasonality) — and filtered
// by a one-standard-deviation band around their mean. The popularity band is
// symmetric (|v−mean| ≤ σ); the seasonality band only excludes low outliers
// (v ≥ mean−σ), since a high outlier among the top 4 is already top-of-class.
// An empty filter result falls back to the single best month.
func StablePeaks(values map[string]*float64, order []string, betterIsLower bool) []string {
	entries := make([]monthValue, 0, len(order))
	for _, month := range order {
		v, ok := values[month]
		if !ok || v == nil {
			continue
		}
		entries = append(entries, monthValue{month: month, value: *v})
	}

	if len(entries) < 3 {
		if len(entries) == 0 {
			return nil
		}
		return []string{bestOf(entries, betterIsLower)}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if betterIsLower {
			return entries[i].value < entries[j].value
		}
		return entries[i].value > entries[j].value
	})

	top := entries
	if len(top) > 4 {
		top = top[:4]
	}

	// Same threshold as above, re-applied to the top-4 slice on purpose.
	if len(top) < 3 {
		return []string{top[0].month}
	}

	mean, stddev := meanStddev(top)

	kept := make([]monthValue, 0, len(top))
	for _, e := range top {
		if betterIsLower {
			if math.Abs(e.value-mean) <= stddev {
				kept = append(kept, e)
			}
		} else if e.value >= mean-stddev {
			kept = append(kept, e)
		}
	}

	// Only reachable in the popularity branch when stddev is 0 and the
	// strict equality never holds; guard explicitly anyway.
	if len(kept) == 0 {
		return []string{top[0].month}
	}

	peaks := make([]string, 0, len(kept))
	for _, e := range kept {
		peaks = append(peaks, e.month)
	}
	return peaks
}

// PopularityPeaks fills PeakPopularity on every product from its 12 monthly
// rank columns. The input slice is not mutated.
func (s *PeakService) PopularityPeaks(products []*models.MasterProduct) []*models.MasterProduct {
	out := make([]*models.MasterProduct, 0, len(products))
	derived := 0
	for _, p := range products {
		c := p.Clone()
		c.PeakPopularity = strings.Join(StablePeaks(c.Popularity, s.months, true), ", ")
		if c.PeakPopularity != "" {
			derived++
		}
		out = append(out, c)
	}
	s.logger.Info("[peaks] Peak popularity derived for %d/%d products", derived, len(products))
	return out
}

// SeasonalityPeaks fills PeakSeasonality on products that do not already
// carry one (e.g. from the MSV file itself). The 36-month MSV grid is first
// collapsed to one value per calendar month by averaging the non-missing
// values across the year window. The input slice is not mutated.
func (s *PeakService) SeasonalityPeaks(products []*models.MasterProduct) []*models.MasterProduct {
	out := make([]*models.MasterProduct, 0, len(products))
	derived := 0
	for _, p := range products {
		c := p.Clone()
		if strings.TrimSpace(c.PeakSeasonality) == "" {
			byMonth := s.monthlyAverages(c.MSV)
			c.PeakSeasonality = strings.Join(StablePeaks(byMonth, s.months, false), ", ")
			if c.PeakSeasonality != "" {
				derived++
			}
		}
		out = append(out, c)
	}
	s.logger.Info("[peaks] Peak seasonality derived for %d products", derived)
	return out
}

// monthlyAverages collapses the MSV grid to one value per calendar month:
// the average of the non-missing values across the year window, or nil when
// every year is missing for that month.
func (s *PeakService) monthlyAverages(msv map[models.MonthYear]*float64) map[string]*float64 {
	byMonth := make(map[string]*float64, len(s.months))
	for _, month := range s.months {
		var sum float64
		n := 0
		for _, year := range s.years {
			v := msv[models.MonthYear{Month: month, Year: year}]
			if v == nil {
				continue
			}
			sum += *v
			n++
		}
		if n == 0 {
			continue
		}
		avg := sum / float64(n)
		byMonth[month] = &avg
	}
	return byMonth
}

func bestOf(entries []monthValue, betterIsLower bool) string {
	best := entries[0]
	for _, e := range entries[1:] {
		if betterIsLower && e.value < best.value {
			best = e
		}
		if !betterIsLower && e.value > best.value {
			best = e
		}
	}
	return best.month
}

// meanStddev returns the arithmetic mean and population standard deviation
// (divide by N, not N−1) of the entry values.
func meanStddev(entries []monthValue) (float64, float64) {
	var sum float64
	for _, e := range entries {
		sum += e.value
	}
	mean := sum / float64(len(entries))

	var variance float64
	for _, e := range entries {
		variance += math.Pow(e.value-mean, 2)
	}
	variance /= float64(len(entries))

	return mean, math.Sqrt(variance)
}
