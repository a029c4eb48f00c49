package services

import (
	"fmt"
	"sort"
	"strings"

	"product-consolidator/models"
	"product-consolidator/utils"
)

// InsightService aggregates the consolidated dataset into grouped traffic
// tables: products and summed peak-month volume per (category, peak month)
// and per (brand, peak month).
type InsightService struct {
	logger *utils.Logger
	months []string
	years  []int
}

// NewInsightService creates an InsightService over the given month order and
// MSV year window.
func NewInsightService(logger *utils.Logger, months []string, years []int) *InsightService {
	return &InsightService{logger: logger, months: months, years: years}
}

// Generate builds the insights report. A product's calculated peak month is
// the first month token of its seasonality string, falling back to its
// popularity string; products with neither are counted but not grouped. The
// per-product volume is that calendar month's MSV averaged across the year
// window, falling back to the product's overall average MSV.
func (s *InsightService) Generate(products []*models.MasterProduct) *models.InsightReport {
	report := &models.InsightReport{}
	if len(products) == 0 {
		return report
	}
	report.TotalProducts = len(products)

	byCategory := make(map[insightKey]*models.InsightGroup)
	byBrand := make(map[insightKey]*models.InsightGroup)

	for _, p := range products {
		if p.AvgMSV != nil || len(p.MSV) > 0 {
			report.WithMSV++
		}

		peak := s.calculatedPeakMonth(p)
		if peak == "" {
			continue
		}
		report.WithPeakMonth++

		volume := s.peakMonthVolume(p, peak)

		category := p.CategoryL1
		if strings.TrimSpace(category) == "" {
			category = "Other"
		}
		addToGroup(byCategory, insightKey{category, peak}, volume)

		if strings.TrimSpace(p.Brand) != "" {
			addToGroup(byBrand, insightKey{p.Brand, peak}, volume)
		}
	}

	report.ByCategoryPeak = sortGroups(byCategory)
	report.ByBrandPeak = sortGroups(byBrand)

	s.logger.Info("[insights] %d/%d products grouped into %d category and %d brand buckets",
		report.WithPeakMonth, report.TotalProducts,
		len(report.ByCategoryPeak), len(report.ByBrandPeak))
	return report
}

// calculatedPeakMonth returns the first valid month token of the product's
// seasonality-or-popularity string, or "" when neither names a month.
func (s *InsightService) calculatedPeakMonth(p *models.MasterProduct) string {
	for _, peakStr := range []string{p.PeakSeasonality, p.PeakPopularity} {
		for _, token := range strings.Split(peakStr, ",") {
			// Tokens may carry a year suffix ("Jan 2023") when the
			// seasonality came straight from the MSV file.
			token = strings.TrimSpace(token)
			if fields := strings.Fields(token); len(fields) > 0 {
				token = fields[0]
			}
			for _, month := range s.months {
				if token == month {
					return month
				}
			}
		}
	}
	return ""
}

// peakMonthVolume averages the given calendar month's MSV across the year
// window. With no data for that month it falls back to the product's overall
// average MSV (computed over every populated cell, else the precomputed
// average from the MSV file).
func (s *InsightService) peakMonthVolume(p *models.MasterProduct, month string) float64 {
	var sum float64
	n := 0
	for _, year := range s.years {
		if v := p.MSV[models.MonthYear{Month: month, Year: year}]; v != nil {
			sum += *v
			n++
		}
	}
	if n > 0 {
		return sum / float64(n)
	}

	for _, v := range p.MSV {
		if v != nil {
			sum += *v
			n++
		}
	}
	if n > 0 {
		return sum / float64(n)
	}
	if p.AvgMSV != nil {
		return *p.AvgMSV
	}
	return 0
}

type insightKey struct {
	name  string
	month string
}

func addToGroup(groups map[insightKey]*models.InsightGroup, key insightKey, volume float64) {
	g, ok := groups[key]
	if !ok {
		g = &models.InsightGroup{Name: key.name, PeakMonth: key.month}
		groups[key] = g
	}
	g.Products++
	g.Volume += volume
}

func sortGroups(groups map[insightKey]*models.InsightGroup) []models.InsightGroup {
	out := make([]models.InsightGroup, 0, len(groups))
	for _, g := range groups {
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Volume != out[j].Volume {
			return out[i].Volume > out[j].Volume
		}
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].PeakMonth < out[j].PeakMonth
	})
	return out
}

// Print renders the report to the terminal.
func (s *InsightService) Print(r *models.InsightReport) {
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)

	fmt.Printf("\n\033[1;35m%s\033[0m\n", sep)
	fmt.Printf("\033[1;35m  📊 CONSOLIDATION INSIGHTS\033[0m\n")
	fmt.Printf("\033[1;35m%s\033[0m\n\n", sep)

	fmt.Printf("\033[1;33m  Overview\033[0m\n")
	fmt.Printf("  %s\n", thin)
	fmt.Printf("  Total products     : \033[1m%d\033[0m\n", r.TotalProducts)
	fmt.Printf("  With MSV data      : \033[1m%d\033[0m\n", r.WithMSV)
	fmt.Printf("  With a peak month  : \033[1m%d\033[0m\n", r.WithPeakMonth)
	fmt.Println()

	printGroupTable("Traffic by Category × Peak Month", thin, r.ByCategoryPeak)
	printGroupTable("Traffic by Brand × Peak Month", thin, r.ByBrandPeak)

	fmt.Printf("\n\033[1;35m%s\033[0m\n\n", sep)
}

func printGroupTable(title, thin string, groups []models.InsightGroup) {
	fmt.Printf("\033[1;33m  %s\033[0m\n", title)
	fmt.Printf("  %s\n", thin)
	if len(groups) == 0 {
		fmt.Printf("  No grouped data\n\n")
		return
	}
	limit := len(groups)
	if limit > 10 {
		limit = 10
	}
	for _, g := range groups[:limit] {
		fmt.Printf("  %-28s %-4s %3d products  \033[1;32m%10.1f\033[0m\n",
			truncate(g.Name, 26), g.PeakMonth, g.Products, g.Volume)
	}
	fmt.Println()
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
