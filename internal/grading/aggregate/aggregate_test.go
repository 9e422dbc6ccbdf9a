package aggregate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pavan-Hosatti/Farm2Market/internal/grading/domain"
)

func TestAggregate(t *testing.T) {
	tests := []struct {
		name        string
		frameScores [][]float64
		want        domain.GradeResult
	}{
		{
			name: "uniform grade A across all frames",
			frameScores: [][]float64{
				{0.9, 0.05, 0.05},
				{0.9, 0.05, 0.05},
				{0.9, 0.05, 0.05},
			},
			want: domain.GradeResult{
				Grade:             "A",
				Confidence:        90.0,
				OverallConfidence: 90.0,
				GradeBreakdown:    map[string]float64{"A": 90.0, "B": 5.0, "C": 5.0},
				FramesAnalyzed:    3,
			},
		},
		{
			name: "winning grade differs from overall confidence source",
			frameScores: [][]float64{
				{0.6, 0.95, 0.1},
				{0.8, 0.1, 0.1},
				{0.7, 0.1, 0.1},
			},
			want: domain.GradeResult{
				Grade:             "A",
				Confidence:        70.0,
				OverallConfidence: 95.0,
				GradeBreakdown:    map[string]float64{"A": 70.0, "B": 38.33, "C": 10.0},
				FramesAnalyzed:    3,
			},
		},
		{
			name: "exact tie resolves to earlier grade in priority order",
			frameScores: [][]float64{
				{0.5, 0.5, 0.2},
			},
			want: domain.GradeResult{
				Grade:             "A",
				Confidence:        50.0,
				OverallConfidence: 50.0,
				GradeBreakdown:    map[string]float64{"A": 50.0, "B": 50.0, "C": 20.0},
				FramesAnalyzed:    1,
			},
		},
		{
			name:        "no scored frames yields degenerate default",
			frameScores: nil,
			want: domain.GradeResult{
				Grade:             "A",
				Confidence:        0.0,
				OverallConfidence: 0.0,
				GradeBreakdown:    map[string]float64{"A": 0.0, "B": 0.0, "C": 0.0},
				FramesAnalyzed:    0,
			},
		},
		{
			name: "skipped frames are excluded from the count",
			frameScores: [][]float64{
				{0.2, 0.3, 0.4},
				nil,
				{},
				{0.2, 0.3, 0.6},
			},
			want: domain.GradeResult{
				Grade:             "C",
				Confidence:        50.0,
				OverallConfidence: 60.0,
				GradeBreakdown:    map[string]float64{"A": 20.0, "B": 30.0, "C": 50.0},
				FramesAnalyzed:    2,
			},
		},
		{
			name: "extra class indices fold into the last grade",
			frameScores: [][]float64{
				{0.1, 0.2, 0.3, 0.9},
			},
			want: domain.GradeResult{
				Grade:             "C",
				Confidence:        60.0,
				OverallConfidence: 90.0,
				GradeBreakdown:    map[string]float64{"A": 10.0, "B": 20.0, "C": 60.0},
				FramesAnalyzed:    1,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Aggregate(tt.frameScores)

			assert.Equal(t, tt.want.Grade, got.Grade)
			assert.InDelta(t, tt.want.Confidence, got.Confidence, 0.01)
			assert.InDelta(t, tt.want.OverallConfidence, got.OverallConfidence, 0.01)
			assert.Equal(t, tt.want.FramesAnalyzed, got.FramesAnalyzed)

			require.Len(t, got.GradeBreakdown, len(domain.Grades))
			for _, grade := range domain.Grades {
				want, ok := tt.want.GradeBreakdown[grade]
				require.True(t, ok)
				assert.InDelta(t, want, got.GradeBreakdown[grade], 0.01, "grade %s", grade)
				assert.GreaterOrEqual(t, got.GradeBreakdown[grade], 0.0)
				assert.LessOrEqual(t, got.GradeBreakdown[grade], 100.0)
			}
		})
	}
}

func TestAggregateDeterministic(t *testing.T) {
	frameScores := [][]float64{
		{0.33, 0.33, 0.33},
		{0.5, 0.5, 0.0},
		{0.25, 0.25, 0.5},
	}

	first := Aggregate(frameScores)
	for i := 0; i < 50; i++ {
		assert.Equal(t, first, Aggregate(frameScores))
	}
}

func TestDegenerate(t *testing.T) {
	result := Aggregate(nil)
	assert.True(t, result.Degenerate())

	result = Aggregate([][]float64{{0.1, 0.1, 0.1}})
	assert.False(t, result.Degenerate())
}
