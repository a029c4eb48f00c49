package storage

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"product-consolidator/models"
)

// Fixed database columns preceding the per-month numeric columns.
var fixedColumns = []string{
	"key", "title", "brand", "price", "availability",
	"category_l1", "category_l2", "category_l3", "keyword",
	"avg_msv", "peak_popularity", "peak_seasonality", "true_peak",
}

func popColumn(month string) string {
	return "pop_" + strings.ToLower(month)
}

func msvColumn(my models.MonthYear) string {
	return fmt.Sprintf("msv_%s_%d", strings.ToLower(my.Month), my.Year)
}

// tableColumns returns every database column in insert order.
func tableColumns(months []string, years []int) []string {
	cols := append([]string{}, fixedColumns...)
	for _, m := range months {
		cols = append(cols, popColumn(m))
	}
	for _, y := range years {
		for _, m := range months {
			cols = append(cols, msvColumn(models.MonthYear{Month: m, Year: y}))
		}
	}
	return cols
}

// rowValues returns a product's values aligned with tableColumns. Nullable
// numeric fields map to nil so the driver stores SQL NULL.
func rowValues(p *models.MasterProduct, months []string, years []int) []interface{} {
	vals := []interface{}{
		p.Key, p.Title, p.Brand, p.Price, p.Availability,
		p.CategoryL1, p.CategoryL2, p.CategoryL3, p.Keyword,
		nullableFloat(p.AvgMSV), p.PeakPopularity, p.PeakSeasonality, p.TruePeak,
	}
	for _, m := range months {
		vals = append(vals, nullableFloat(p.Popularity[m]))
	}
	for _, y := range years {
		for _, m := range months {
			vals = append(vals, nullableFloat(p.MSV[models.MonthYear{Month: m, Year: y}]))
		}
	}
	return vals
}

func nullableFloat(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

// scanProducts reads rows selected in tableColumns order back into typed
// products. Shared by the Postgres and SQLite stores.
func scanProducts(rows *sql.Rows, months []string, years []int) ([]*models.MasterProduct, error) {
	var products []*models.MasterProduct
	for rows.Next() {
		p := models.NewMasterProduct("", "", "")
		var avg sql.NullFloat64
		pops := make([]sql.NullFloat64, len(months))
		msvs := make([]sql.NullFloat64, len(months)*len(years))

		dest := []interface{}{
			&p.Key, &p.Title, &p.Brand, &p.Price, &p.Availability,
			&p.CategoryL1, &p.CategoryL2, &p.CategoryL3, &p.Keyword,
			&avg, &p.PeakPopularity, &p.PeakSeasonality, &p.TruePeak,
		}
		for i := range pops {
			dest = append(dest, &pops[i])
		}
		for i := range msvs {
			dest = append(dest, &msvs[i])
		}

		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("storage: scan row: %w", err)
		}

		if avg.Valid {
			v := avg.Float64
			p.AvgMSV = &v
		}
		for i, m := range months {
			if pops[i].Valid {
				v := pops[i].Float64
				p.Popularity[m] = &v
			}
		}
		idx := 0
		for _, y := range years {
			for _, m := range months {
				if msvs[idx].Valid {
					v := msvs[idx].Float64
					p.MSV[models.MonthYear{Month: m, Year: y}] = &v
				}
				idx++
			}
		}

		products = append(products, p)
	}
	return products, rows.Err()
}

// formatFloat renders a nullable numeric for CSV output; nil becomes "".
func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
