package density

import "testing"

func TestStepSizeTable(t *testing.T) {
	tests := []struct {
		name  string
		score float64
		param Parameter
		dir   Direction
		want  float64
	}{
		// Sparse band (< 5)
		{name: "SparseFontGrow", score: 2, param: FontSize, dir: Grow, want: 4.0},
		{name: "SparseFontShrink", score: 2, param: FontSize, dir: Shrink, want: 0.5},
		{name: "SparseLineGrow", score: 4.9, param: LineHeight, dir: Grow, want: 0.20},
		{name: "SparseLineShrink", score: 0, param: LineHeight, dir: Shrink, want: 0.05},

		// Boundary at 5 is inclusive-low for the next band
		{name: "BoundaryFiveFontGrow", score: 5, param: FontSize, dir: Grow, want: 2.0},

		// Medium band (< 15)
		{name: "MediumFontGrow", score: 10, param: FontSize, dir: Grow, want: 2.0},
		{name: "MediumFontShrink", score: 10, param: FontSize, dir: Shrink, want: 1.0},
		{name: "MediumLineGrow", score: 14.9, param: LineHeight, dir: Grow, want: 0.10},
		{name: "MediumLineShrink", score: 5, param: LineHeight, dir: Shrink, want: 0.05},

		// Dense band (< 25)
		{name: "BoundaryFifteen", score: 15, param: FontSize, dir: Grow, want: 1.0},
		{name: "DenseFontGrow", score: 23, param: FontSize, dir: Grow, want: 1.0},
		{name: "DenseLineGrow", score: 23, param: LineHeight, dir: Grow, want: 0.05},
		{name: "DenseLineShrink", score: 20, param: LineHeight, dir: Shrink, want: 0.10},

		// Very dense band (>= 25)
		{name: "BoundaryTwentyFive", score: 25, param: FontSize, dir: Grow, want: 0.5},
		{name: "VeryDenseFontShrink", score: 32, param: FontSize, dir: Shrink, want: 2.0},
		{name: "VeryDenseLineGrow", score: 100, param: LineHeight, dir: Grow, want: 0.02},
		{name: "VeryDenseLineShrink", score: 32, param: LineHeight, dir: Shrink, want: 0.15},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StepSize(tt.score, tt.param, tt.dir); got != tt.want {
				t.Errorf("StepSize(%v, %v, %v) = %v, want %v", tt.score, tt.param, tt.dir, got, tt.want)
			}
		})
	}
}

// Grow steps must never increase as density rises: a denser page always gets
// equal or finer growth control than a sparser one.
func TestGrowStepsMonotonicInScore(t *testing.T) {
	scores := []float64{0, 4.99, 5, 14.99, 15, 24.99, 25, 50, 1000}

	for _, param := range []Parameter{FontSize, LineHeight} {
		prev := StepSize(scores[0], param, Grow)
		for _, score := range scores[1:] {
			step := StepSize(score, param, Grow)
			if step > prev {
				t.Errorf("%v grow step increased from %v to %v at score %v", param, prev, step, score)
			}
			prev = step
		}
	}
}

// Shrink steps must never decrease as density rises: denser overflowing
// content is allowed to escape overflow in larger jumps.
func TestShrinkStepsMonotonicInScore(t *testing.T) {
	scores := []float64{0, 4.99, 5, 14.99, 15, 24.99, 25, 50, 1000}

	for _, param := range []Parameter{FontSize, LineHeight} {
		prev := StepSize(scores[0], param, Shrink)
		for _, score := range scores[1:] {
			step := StepSize(score, param, Shrink)
			if step < prev {
				t.Errorf("%v shrink step decreased from %v to %v at score %v", param, prev, step, score)
			}
			prev = step
		}
	}
}

func TestMinStep(t *testing.T) {
	tests := []struct {
		name  string
		param Parameter
		dir   Direction
		want  float64
	}{
		{name: "FontGrow", param: FontSize, dir: Grow, want: 0.5},
		{name: "FontShrink", param: FontSize, dir: Shrink, want: 0.5},
		{name: "LineGrow", param: LineHeight, dir: Grow, want: 0.02},
		{name: "LineShrink", param: LineHeight, dir: Shrink, want: 0.05},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MinStep(tt.param, tt.dir); got != tt.want {
				t.Errorf("MinStep(%v, %v) = %v, want %v", tt.param, tt.dir, got, tt.want)
			}
		})
	}
}

func TestStringers(t *testing.T) {
	if FontSize.String() != "font-size" || LineHeight.String() != "line-height" {
		t.Error("Parameter.String() mismatch")
	}
	if Grow.String() != "grow" || Shrink.String() != "shrink" {
		t.Error("Direction.String() mismatch")
	}
}
