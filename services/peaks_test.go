package services

import (
	"reflect"
	"testing"

	"product-consolidator/models"
)

func TestStablePeaksZeroStddevKeepsAllTopMonths(t *testing.T) {
	values := map[string]*float64{
		"Jan": fp(1), "Feb": fp(1), "Mar": fp(1), "Apr": fp(1), "May": fp(50),
	}
	got := StablePeaks(values, testMonths, true)
	want := []string{"Jan", "Feb", "Mar", "Apr"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("StablePeaks = %v; want %v", got, want)
	}
}

func TestStablePeaksInsufficientData(t *testing.T) {
	values := map[string]*float64{"Jan": fp(5), "Feb": fp(9)}

	if got := StablePeaks(values, testMonths, true); !reflect.DeepEqual(got, []string{"Jan"}) {
		t.Errorf("popularity fallback = %v; want [Jan] (lower rank wins)", got)
	}
	if got := StablePeaks(values, testMonths, false); !reflect.DeepEqual(got, []string{"Feb"}) {
		t.Errorf("seasonality fallback = %v; want [Feb] (higher volume wins)", got)
	}
}

func TestStablePeaksEmptyAndNilSeries(t *testing.T) {
	if got := StablePeaks(nil, testMonths, true); got != nil {
		t.Errorf("nil series: got %v, want nil", got)
	}
	values := map[string]*float64{"Jan": nil, "Feb": nil}
	if got := StablePeaks(values, testMonths, false); got != nil {
		t.Errorf("all-nil series: got %v, want nil", got)
	}
}

func TestStablePeaksSymmetricBandForPopularity(t *testing.T) {
	// Top 4 ranks are 1,2,3,10: mean 4, stddev ~3.54 — the 10 falls outside.
	values := map[string]*float64{
		"Jan": fp(1), "Feb": fp(2), "Mar": fp(3), "Apr": fp(10), "May": fp(50),
	}
	got := StablePeaks(values, testMonths, true)
	want := []string{"Jan", "Feb", "Mar"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("StablePeaks = %v; want %v", got, want)
	}
}

func TestStablePeaksOneSidedBandForSeasonality(t *testing.T) {
	// Low outlier among the top 4 is excluded...
	values := map[string]*float64{
		"Jan": fp(100), "Feb": fp(100), "Mar": fp(100), "Apr": fp(10), "May": fp(5),
	}
	got := StablePeaks(values, testMonths, false)
	want := []string{"Jan", "Feb", "Mar"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("low outlier: StablePeaks = %v; want %v", got, want)
	}

	// ...but a high outlier never is: it is already top-of-class.
	values = map[string]*float64{
		"Jan": fp(1000), "Feb": fp(100), "Mar": fp(90), "Apr": fp(80),
	}
	got = StablePeaks(values, testMonths, false)
	want = []string{"Jan", "Feb", "Mar", "Apr"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("high outlier: StablePeaks = %v; want %v", got, want)
	}
}

func TestStablePeaksSkipsUnparseableMonths(t *testing.T) {
	values := map[string]*float64{
		"Jan": fp(1), "Feb": nil, "Mar": fp(1), "Apr": fp(1), "May": fp(2),
	}
	got := StablePeaks(values, testMonths, true)
	// Feb is dropped; top 4 of the rest are 1,1,1,2 — mean 1.25,
	// stddev ~0.43, so May (2) falls outside the band.
	want := []string{"Jan", "Mar", "Apr"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("StablePeaks = %v; want %v", got, want)
	}
}

func TestSeasonalityPeaksAggregatesAcrossYears(t *testing.T) {
	years := []int{2023, 2024, 2025}
	svc := NewPeakService(newTestLogger(), testMonths, years)

	p := models.NewMasterProduct("k", "K", "")
	// Dec dominates in every year; other months are flat and low.
	for _, m := range testMonths {
		for _, y := range years {
			v := 10.0
			if m == "Dec" {
				v = 500
			}
			if m == "Nov" {
				v = 400
			}
			if m == "Jan" {
				v = 350
			}
			if m == "Feb" {
				v = 300
			}
			p.MSV[models.MonthYear{Month: m, Year: y}] = fp(v)
		}
	}

	out := svc.SeasonalityPeaks([]*models.MasterProduct{p})
	// Top 4 averages: 500, 400, 350, 300 — mean 387.5, stddev ~73.95,
	// threshold 313.55 — Feb (300) is the excluded low outlier.
	want := "Dec, Nov, Jan"
	if out[0].PeakSeasonality != want {
		t.Errorf("PeakSeasonality = %q; want %q", out[0].PeakSeasonality, want)
	}
	if p.PeakSeasonality != "" {
		t.Error("input product mutated")
	}
}

func TestSeasonalityPeaksPreservesExisting(t *testing.T) {
	svc := NewPeakService(newTestLogger(), testMonths, []int{2023, 2024, 2025})
	p := models.NewMasterProduct("k", "K", "")
	p.PeakSeasonality = "Jul, Aug"
	p.MSV[models.MonthYear{Month: "Jan", Year: 2023}] = fp(999)

	out := svc.SeasonalityPeaks([]*models.MasterProduct{p})
	if out[0].PeakSeasonality != "Jul, Aug" {
		t.Errorf("existing seasonality overwritten: %q", out[0].PeakSeasonality)
	}
}
