package services

import (
	"math"
	"sort"
	"strings"

	"product-consolidator/models"
)

// True-peak policy constants. The weights and cutoff are product decisions,
// not derived values.
const (
	truePeakZWeight           = 0.4
	truePeakYoYWeight         = 0.4
	truePeakConsistencyWeight = 0.2
	truePeakCutoff            = 0.5
	truePeakMaxMonths         = 3
)

type truePeakScore struct {
	month string
	score float64
}

// TruePeak selects the 1–3 calendar months whose search volume is both high
// and trending upward year over year. Unlike the seasonality calculator,
// missing values count as zero here — the year-over-year growth math needs a
// complete grid.
//
// Per calendar month it blends three signals: the z-score of the month's
// multi-year average volume, the normalized average year-over-year growth,
// and a binary consistency flag (1 only when every year pair grew strictly).
// Months scoring above the cutoff are kept, best three first; if none
// qualify, the single highest-scoring month is returned. An all-zero grid
// yields nothing.
func TruePeak(msv map[models.MonthYear]*float64, months []string, years []int) []string {
	averages := make([]float64, len(months))
	allZero := true
	for i, month := range months {
		var sum float64
		for _, year := range years {
			sum += zeroFill(msv[models.MonthYear{Month: month, Year: year}])
		}
		averages[i] = sum / float64(len(years))
		if averages[i] != 0 {
			allZero = false
		}
	}
	if allZero {
		return nil
	}

	mean, stddev := meanStddevFloats(averages)
	zScores := make([]float64, len(months))
	if stddev != 0 {
		for i, avg := range averages {
			zScores[i] = (avg - mean) / stddev
		}
	}

	avgYoY := make([]float64, len(months))
	consistency := make([]float64, len(months))
	for i, month := range months {
		var growthSum float64
		pairs := 0
		grewEveryYear := true
		for y := 1; y < len(years); y++ {
			earlier := zeroFill(msv[models.MonthYear{Month: month, Year: years[y-1]}])
			later := zeroFill(msv[models.MonthYear{Month: month, Year: years[y]}])
			if earlier != 0 {
				growthSum += (later - earlier) / earlier * 100
			}
			if later <= earlier {
				grewEveryYear = false
			}
			pairs++
		}
		if pairs > 0 {
			avgYoY[i] = growthSum / float64(pairs)
		}
		if grewEveryYear && pairs > 0 {
			consistency[i] = 1
		}
	}

	maxYoY := avgYoY[0]
	for _, v := range avgYoY[1:] {
		if v > maxYoY {
			maxYoY = v
		}
	}

	scores := make([]truePeakScore, len(months))
	for i, month := range months {
		normYoY := 0.0
		if maxYoY > 0 {
			normYoY = avgYoY[i] / maxYoY
		}
		scores[i] = truePeakScore{
			month: month,
			score: truePeakZWeight*zScores[i] +
				truePeakYoYWeight*normYoY +
				truePeakConsistencyWeight*consistency[i],
		}
	}

	sort.SliceStable(scores, func(i, j int) bool { return scores[i].score > scores[j].score })

	peaks := make([]string, 0, truePeakMaxMonths)
	for _, s := range scores {
		if s.score > truePeakCutoff {
			peaks = append(peaks, s.month)
			if len(peaks) == truePeakMaxMonths {
				break
			}
		}
	}
	if len(peaks) == 0 {
		peaks = append(peaks, scores[0].month)
	}
	return peaks
}

// TruePeaks fills TruePeak on every product that has any MSV data.
// The input slice is not mutated.
func (s *PeakService) TruePeaks(products []*models.MasterProduct) []*models.MasterProduct {
	out := make([]*models.MasterProduct, 0, len(products))
	derived := 0
	for _, p := range products {
		c := p.Clone()
		c.TruePeak = strings.Join(TruePeak(c.MSV, s.months, s.years), ", ")
		if c.TruePeak != "" {
			derived++
		}
		out = append(out, c)
	}
	s.logger.Info("[peaks] True peak derived for %d/%d products", derived, len(products))
	return out
}

func zeroFill(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func meanStddevFloats(values []float64) (float64, float64) {
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))

	var variance float64
	for _, v := range values {
		variance += math.Pow(v-mean, 2)
	}
	variance /= float64(len(values))

	return mean, math.Sqrt(variance)
}
