package metrics

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/zillowkit/pkg/errors"
)

func vec(xs ...float64) *mat.VecDense {
	return mat.NewVecDense(len(xs), xs)
}

func TestRegressionErrors(t *testing.T) {
	tests := []struct {
		name string
		y    *mat.VecDense
		yhat *mat.VecDense
		want RegressionReport
	}{
		{
			name: "perfect prediction",
			y:    vec(1, 2, 3, 4, 5),
			yhat: vec(1, 2, 3, 4, 5),
			want: RegressionReport{SSE: 0, ESS: 10, TSS: 10, MSE: 0, RMSE: 0},
		},
		{
			name: "simple case",
			y:    vec(1, 2, 3, 4),
			yhat: vec(1.5, 2.5, 2.5, 3.5),
			// residuals ±0.5, mean(y) = 2.5
			want: RegressionReport{SSE: 1, ESS: 2, TSS: 5, MSE: 0.25, RMSE: 0.5},
		},
		{
			name: "larger errors",
			y:    vec(10, 20, 30),
			yhat: vec(12, 18, 33),
			want: RegressionReport{SSE: 17, ESS: 237, TSS: 200, MSE: 17.0 / 3.0, RMSE: math.Sqrt(17.0 / 3.0)},
		},
		{
			name: "identity not enforced for arbitrary predictions",
			y:    vec(1, 2, 3),
			yhat: vec(3, 3, 3),
			// SSE 5, ESS 3, TSS 2: ESS + SSE != TSS
			want: RegressionReport{SSE: 5, ESS: 3, TSS: 2, MSE: 5.0 / 3.0, RMSE: math.Sqrt(5.0 / 3.0)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := RegressionErrors(tt.y, tt.yhat)
			if err != nil {
				t.Fatalf("RegressionErrors() error = %v", err)
			}
			checks := []struct {
				name      string
				got, want float64
			}{
				{"SSE", got.SSE, tt.want.SSE},
				{"ESS", got.ESS, tt.want.ESS},
				{"TSS", got.TSS, tt.want.TSS},
				{"MSE", got.MSE, tt.want.MSE},
				{"RMSE", got.RMSE, tt.want.RMSE},
			}
			for _, c := range checks {
				if math.Abs(c.got-c.want) > 1e-10 {
					t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
				}
			}

			// MSE と RMSE は SSE から厳密に導出される
			if got.MSE != got.SSE/float64(tt.y.Len()) {
				t.Errorf("MSE %v != SSE/n %v", got.MSE, got.SSE/float64(tt.y.Len()))
			}
			if got.RMSE != math.Sqrt(got.MSE) {
				t.Errorf("RMSE %v != sqrt(MSE) %v", got.RMSE, math.Sqrt(got.MSE))
			}
		})
	}
}

func TestRegressionReportValuesOrder(t *testing.T) {
	r := RegressionReport{SSE: 1, ESS: 2, TSS: 3, MSE: 4, RMSE: 5}
	sse, ess, tss, mse, rmse := r.Values()
	if sse != 1 || ess != 2 || tss != 3 || mse != 4 || rmse != 5 {
		t.Errorf("Values() = %v %v %v %v %v", sse, ess, tss, mse, rmse)
	}
}

func TestRegressionErrorsInvalidInput(t *testing.T) {
	tests := []struct {
		name  string
		y     *mat.VecDense
		yhat  *mat.VecDense
		check func(error) bool
	}{
		{
			name: "dimension mismatch",
			y:    vec(1, 2, 3),
			yhat: vec(1, 2),
			check: func(err error) bool {
				var e *errors.DimensionError
				return errors.As(err, &e) && e.Expected == 3 && e.Got == 2
			},
		},
		{
			name: "empty vectors",
			y:    &mat.VecDense{},
			yhat: &mat.VecDense{},
			check: func(err error) bool {
				var e *errors.ValueError
				return errors.As(err, &e)
			},
		},
		{
			name: "nan prediction",
			y:    vec(1, 2),
			yhat: vec(1, math.NaN()),
			check: func(err error) bool {
				var e *errors.NumericalInstabilityError
				return errors.As(err, &e) && e.Index == 1
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := RegressionErrors(tt.y, tt.yhat)
			if err == nil || !tt.check(err) {
				t.Errorf("unexpected error %v", err)
			}
		})
	}
}

func TestBaselineMeanErrors(t *testing.T) {
	got, err := BaselineMeanErrors(vec(1, 2, 3, 4, 5))
	if err != nil {
		t.Fatalf("BaselineMeanErrors() error = %v", err)
	}
	sse, mse, rmse := got.Values()
	if sse != 10.0 {
		t.Errorf("SSE = %v, want 10", sse)
	}
	if mse != 2.0 {
		t.Errorf("MSE = %v, want 2", mse)
	}
	if math.Abs(rmse-1.4142) > 1e-4 {
		t.Errorf("RMSE = %v, want ≈1.4142", rmse)
	}

	if _, err := BaselineMeanErrors(&mat.VecDense{}); err == nil {
		t.Error("expected error for empty vector")
	}
}

func TestBetterThanBaseline(t *testing.T) {
	y := vec(1, 2, 3, 4, 5)

	tests := []struct {
		name string
		yhat *mat.VecDense
		want bool
	}{
		{"perfect model", vec(1, 2, 3, 4, 5), true},
		{"constant mean ties", vec(3, 3, 3, 3, 3), false},
		{"worse than mean", vec(5, 4, 3, 2, 1), false},
		{"close model", vec(1.1, 2.2, 2.9, 4.1, 4.8), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BetterThanBaseline(y, tt.yhat)
			if err != nil {
				t.Fatalf("BetterThanBaseline() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("BetterThanBaseline() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestResiduals(t *testing.T) {
	res, err := Residuals(vec(3, 5, 7), vec(2, 6, 7))
	if err != nil {
		t.Fatalf("Residuals() error = %v", err)
	}
	want := []float64{1, -1, 0}
	for i, w := range want {
		if res.AtVec(i) != w {
			t.Errorf("res[%d] = %v, want %v", i, res.AtVec(i), w)
		}
	}
}

func TestMSEAndRMSE(t *testing.T) {
	mse, err := MSE(vec(10, 20, 30), vec(12, 18, 33))
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(mse-17.0/3.0) > 1e-10 {
		t.Errorf("MSE = %v", mse)
	}

	rmse, err := RMSE(vec(1, 2, 3, 4), vec(1.5, 2.5, 2.5, 3.5))
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(rmse-0.5) > 1e-10 {
		t.Errorf("RMSE = %v", rmse)
	}
}

func TestR2Score(t *testing.T) {
	tests := []struct {
		name    string
		yTrue   *mat.VecDense
		yPred   *mat.VecDense
		want    float64
		wantErr bool
	}{
		{"perfect prediction", vec(1, 2, 3, 4, 5), vec(1, 2, 3, 4, 5), 1.0, false},
		{"mean prediction", vec(1, 2, 3, 4, 5), vec(3, 3, 3, 3, 3), 0.0, false},
		{"simple case", vec(1, 2, 3, 4), vec(1.5, 2.5, 2.5, 3.5), 0.8, false},
		{"no variance in yTrue", vec(2, 2, 2), vec(1, 2, 3), 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := R2Score(tt.yTrue, tt.yPred)
			if (err != nil) != tt.wantErr {
				t.Fatalf("R2Score() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && math.Abs(got-tt.want) > 1e-10 {
				t.Errorf("R2Score() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPlotResiduals(t *testing.T) {
	path := filepath.Join(t.TempDir(), "residuals.png")

	if err := PlotResiduals(vec(1, 2, 3, 4), vec(1.5, 1.5, 3.5, 3.5), path); err != nil {
		t.Fatalf("PlotResiduals() error = %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("plot not written: %v", err)
	}
	if info.Size() == 0 {
		t.Error("plot file is empty")
	}
}

func TestNewResidualPlotLabels(t *testing.T) {
	p, err := NewResidualPlot(vec(1, 2), vec(2, 1))
	if err != nil {
		t.Fatal(err)
	}
	if p.Title.Text != "Residual Plot" || p.X.Label.Text != "Actual" || p.Y.Label.Text != "Residuals" {
		t.Errorf("unexpected labels %q %q %q", p.Title.Text, p.X.Label.Text, p.Y.Label.Text)
	}

	if _, err := NewResidualPlot(vec(1, 2), vec(1)); err == nil {
		t.Error("expected error for mismatched lengths")
	}
}

func BenchmarkRegressionErrors(b *testing.B) {
	n := 10000
	y := mat.NewVecDense(n, nil)
	yhat := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		y.SetVec(i, float64(i))
		yhat.SetVec(i, float64(i)+0.1)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = RegressionErrors(y, yhat)
	}
}
