// Package aggregate reduces per-frame classifier confidences to a single
// grade decision with an explainable breakdown.
package aggregate

import (
	"math"

	"github.com/Pavan-Hosatti/Farm2Market/internal/grading/domain"
)

// Aggregate reduces one confidence vector per successfully classified frame
// into a GradeResult. Vectors are unit-scale (0..1), index-aligned with
// domain.Grades; a class index beyond the known grades folds into the last
// grade. Frames that failed classification must simply be omitted from the
// input - failure isolation is per frame, not per job.
//
// Aggregate never fails. With no scored frames it returns the first grade in
// priority order with zero confidence; the caller decides whether that
// constitutes a job failure.
func Aggregate(frameScores [][]float64) domain.GradeResult {
	buckets := make(map[string][]float64, len(domain.Grades))

	framesAnalyzed := 0
	overall := 0.0

	for _, scores := range frameScores {
		if len(scores) == 0 {
			continue
		}
		framesAnalyzed++

		for classIdx, confidence := range scores {
			grade := domain.Grades[len(domain.Grades)-1]
			if classIdx < len(domain.Grades) {
				grade = domain.Grades[classIdx]
			}
			pct := confidence * 100
			buckets[grade] = append(buckets[grade], pct)
			if pct > overall {
				overall = pct
			}
		}
	}

	breakdown := make(map[string]float64, len(domain.Grades))
	finalGrade := domain.Grades[0]
	finalConfidence := 0.0

	// Fixed iteration over the priority list keeps the tie-break
	// deterministic: the first grade reaching the maximum mean wins.
	for _, grade := range domain.Grades {
		avg := 0.0
		if scores := buckets[grade]; len(scores) > 0 {
			sum := 0.0
			for _, s := range scores {
				sum += s
			}
			avg = sum / float64(len(scores))
		}
		breakdown[grade] = round2(avg)

		if avg > finalConfidence {
			finalConfidence = avg
			finalGrade = grade
		}
	}

	return domain.GradeResult{
		Grade:             finalGrade,
		Confidence:        round2(finalConfidence),
		OverallConfidence: round2(overall),
		GradeBreakdown:    breakdown,
		FramesAnalyzed:    framesAnalyzed,
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
