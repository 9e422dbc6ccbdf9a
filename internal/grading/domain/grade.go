package domain

// Grades lists the quality labels in priority order. The classifier outputs
// one confidence per label, index-aligned with this slice (class 0 is "A").
// Ties in the aggregated means resolve to the earliest label here.
var Grades = []string{"A", "B", "C"}

// GradeResult is the aggregation output for one job.
type GradeResult struct {
	// Grade is the label with the highest average confidence
	Grade string `json:"grade"`
	// Confidence is the winning grade's average, percentage in [0,100]
	Confidence float64 `json:"confidence"`
	// OverallConfidence is the maximum single raw confidence observed
	// across all frames and all grades
	OverallConfidence float64 `json:"overall_confidence"`
	// GradeBreakdown maps every grade label to its average confidence
	GradeBreakdown map[string]float64 `json:"grade_breakdown"`
	// FramesAnalyzed counts frames that contributed at least one score
	FramesAnalyzed int `json:"frames_analyzed"`
}

// Degenerate reports whether the result carries no signal at all
// (every frame failed classification). Callers must not treat such a
// result as a real grade.
func (r *GradeResult) Degenerate() bool {
	return r.FramesAnalyzed == 0 && r.Confidence == 0
}
