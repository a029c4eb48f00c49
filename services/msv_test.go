package services

import (
	"errors"
	"reflect"
	"testing"

	"product-consolidator/models"
)

var testYears = []int{2023, 2024, 2025}

func my(month string, year int) models.MonthYear {
	return models.MonthYear{Month: month, Year: year}
}

func masterWith(key, title, keyword string) *models.MasterProduct {
	p := models.NewMasterProduct(key, title, "TestBrand")
	p.Keyword = keyword
	return p
}

func TestMergeJoinsByProductKey(t *testing.T) {
	merger := NewMSVMerger(newTestLogger(), testMonths, testYears)

	master := []*models.MasterProduct{
		masterWith("coke 330ml", "Coke 330ml", "cola"),
		masterWith("pepsi 1l", "Pepsi 1L", ""),
	}
	records := []models.MSVRecord{
		{
			Key:    "coke 330ml",
			AvgMSV: fp(1200),
			Monthly: map[models.MonthYear]*float64{
				my("Jun", 2024): fp(900),
			},
			Seasonality: "Jun",
		},
	}

	out, err := merger.Merge(master, records)
	if err != nil {
		t.Fatalf("Merge returned error: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 products, got %d", len(out))
	}

	coke := out[0]
	if coke.AvgMSV == nil || *coke.AvgMSV != 1200 {
		t.Errorf("coke AvgMSV = %v, want 1200", coke.AvgMSV)
	}
	if v := coke.MSV[my("Jun", 2024)]; v == nil || *v != 900 {
		t.Errorf("coke Jun 2024 MSV = %v, want 900", v)
	}
	if coke.PeakSeasonality != "Jun" {
		t.Errorf("coke PeakSeasonality = %q, want %q", coke.PeakSeasonality, "Jun")
	}

	pepsi := out[1]
	if pepsi.AvgMSV != nil || len(pepsi.MSV) != 0 || pepsi.PeakSeasonality != "" {
		t.Errorf("unmatched product should have empty MSV fields, got avg=%v grid=%v peak=%q",
			pepsi.AvgMSV, pepsi.MSV, pepsi.PeakSeasonality)
	}
}

func TestMergeKeyOutranksTitleAndKeyword(t *testing.T) {
	merger := NewMSVMerger(newTestLogger(), testMonths, testYears)

	master := []*models.MasterProduct{masterWith("coke 330ml", "Coke 330ml", "cola")}

	// Key, title and keyword are all populated; the key must win even when
	// the title and keyword values would match a different product.
	records := []models.MSVRecord{
		{Key: "coke 330ml", Title: "Wrong Title", Keyword: "wrong", AvgMSV: fp(500)},
	}

	out, err := merger.Merge(master, records)
	if err != nil {
		t.Fatalf("Merge returned error: %v", err)
	}
	if out[0].AvgMSV == nil || *out[0].AvgMSV != 500 {
		t.Errorf("AvgMSV = %v, want 500 (join by key)", out[0].AvgMSV)
	}
}

func TestMergeFallsBackToTitle(t *testing.T) {
	merger := NewMSVMerger(newTestLogger(), testMonths, testYears)

	master := []*models.MasterProduct{masterWith("coke 330ml", "Coke 330ml", "")}
	records := []models.MSVRecord{
		{Title: "Coke 330ml", AvgMSV: fp(700)},
	}

	out, err := merger.Merge(master, records)
	if err != nil {
		t.Fatalf("Merge returned error: %v", err)
	}
	if out[0].AvgMSV == nil || *out[0].AvgMSV != 700 {
		t.Errorf("AvgMSV = %v, want 700 (join by title)", out[0].AvgMSV)
	}
}

func TestMergeKeywordJoinIsCaseInsensitive(t *testing.T) {
	merger := NewMSVMerger(newTestLogger(), testMonths, testYears)

	master := []*models.MasterProduct{masterWith("coke 330ml", "Coke 330ml", "Cola Drinks")}
	records := []models.MSVRecord{
		{Keyword: "  cola drinks ", AvgMSV: fp(300)},
	}

	out, err := merger.Merge(master, records)
	if err != nil {
		t.Fatalf("Merge returned error: %v", err)
	}
	if out[0].AvgMSV == nil || *out[0].AvgMSV != 300 {
		t.Errorf("AvgMSV = %v, want 300 (join by keyword)", out[0].AvgMSV)
	}
	// Only the volume flows in — the master keeps its own keyword text.
	if out[0].Keyword != "Cola Drinks" {
		t.Errorf("Keyword = %q, want original %q", out[0].Keyword, "Cola Drinks")
	}
}

func TestMergeNoJoinKey(t *testing.T) {
	merger := NewMSVMerger(newTestLogger(), testMonths, testYears)

	// Records carry only keywords but no master product has one.
	master := []*models.MasterProduct{masterWith("coke 330ml", "Coke 330ml", "")}
	records := []models.MSVRecord{
		{Keyword: "cola", AvgMSV: fp(300)},
	}

	_, err := merger.Merge(master, records)
	if !errors.Is(err, ErrNoJoinKey) {
		t.Fatalf("expected ErrNoJoinKey, got %v", err)
	}
}

func TestMergeIsIdempotent(t *testing.T) {
	merger := NewMSVMerger(newTestLogger(), testMonths, testYears)

	grid := map[models.MonthYear]*float64{
		my("Nov", 2023): fp(400), my("Dec", 2023): fp(800),
		my("Nov", 2024): fp(500), my("Dec", 2024): fp(900),
	}
	master := []*models.MasterProduct{
		masterWith("coke 330ml", "Coke 330ml", ""),
		masterWith("pepsi 1l", "Pepsi 1L", ""),
	}
	records := []models.MSVRecord{
		{Key: "coke 330ml", AvgMSV: fp(650), Monthly: grid},
	}

	once, err := merger.Merge(master, records)
	if err != nil {
		t.Fatalf("first Merge returned error: %v", err)
	}
	twice, err := merger.Merge(once, records)
	if err != nil {
		t.Fatalf("second Merge returned error: %v", err)
	}

	if len(once) != len(twice) {
		t.Fatalf("row count changed on re-merge: %d vs %d", len(once), len(twice))
	}
	for i := range once {
		if !reflect.DeepEqual(once[i], twice[i]) {
			t.Errorf("product %q differs after re-merge:\n once: %+v\ntwice: %+v",
				once[i].Key, once[i], twice[i])
		}
	}
}

func TestMergeClearsStaleValues(t *testing.T) {
	merger := NewMSVMerger(newTestLogger(), testMonths, testYears)

	// The product carries MSV values from an earlier merge but the new file
	// no longer contains it; the stale values must not survive.
	stale := masterWith("coke 330ml", "Coke 330ml", "")
	stale.AvgMSV = fp(999)
	stale.MSV[my("Jan", 2023)] = fp(111)
	stale.PeakSeasonality = "Jan"

	records := []models.MSVRecord{
		{Key: "pepsi 1l", AvgMSV: fp(50)},
	}

	out, err := merger.Merge([]*models.MasterProduct{stale}, records)
	if err != nil {
		t.Fatalf("Merge returned error: %v", err)
	}
	got := out[0]
	if got.AvgMSV != nil || len(got.MSV) != 0 || got.PeakSeasonality != "" {
		t.Errorf("stale MSV values survived the merge: avg=%v grid=%v peak=%q",
			got.AvgMSV, got.MSV, got.PeakSeasonality)
	}
}

func TestMergeComputesSeasonalityWhenFileOmitsIt(t *testing.T) {
	merger := NewMSVMerger(newTestLogger(), testMonths, testYears)

	master := []*models.MasterProduct{masterWith("coke 330ml", "Coke 330ml", "")}
	records := []models.MSVRecord{
		{
			Key: "coke 330ml",
			Monthly: map[models.MonthYear]*float64{
				my("Nov", 2023): fp(400), my("Dec", 2023): fp(800),
			},
		},
	}

	out, err := merger.Merge(master, records)
	if err != nil {
		t.Fatalf("Merge returned error: %v", err)
	}
	// Only two usable calendar months, so the single best one wins.
	if out[0].PeakSeasonality != "Dec" {
		t.Errorf("PeakSeasonality = %q, want %q", out[0].PeakSeasonality, "Dec")
	}
}
