package metrics

import (
	"image/color"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/YuminosukeSato/zillowkit/pkg/errors"
	"github.com/YuminosukeSato/zillowkit/pkg/log"
)

// 残差プロットの出力サイズ
const (
	residualPlotWidth  = 10 * vg.Inch
	residualPlotHeight = 6 * vg.Inch
)

// NewResidualPlot は実測値に対する残差 (y − ŷ) の散布図と0の水平線を持つプロットを作成する
func NewResidualPlot(y, yhat *mat.VecDense) (*plot.Plot, error) {
	res, err := Residuals(y, yhat)
	if err != nil {
		return nil, err
	}

	pts := make(plotter.XYs, y.Len())
	for i := range pts {
		pts[i].X = y.AtVec(i)
		pts[i].Y = res.AtVec(i)
	}

	p := plot.New()
	p.Title.Text = "Residual Plot"
	p.X.Label.Text = "Actual"
	p.Y.Label.Text = "Residuals"

	scatter, err := plotter.NewScatter(pts)
	if err != nil {
		return nil, errors.Wrap(err, "NewResidualPlot: scatter")
	}
	p.Add(scatter)

	zero := plotter.NewFunction(func(float64) float64 { return 0 })
	zero.Color = color.RGBA{R: 255, A: 255}
	zero.Dashes = []vg.Length{vg.Points(6), vg.Points(3)}
	p.Add(zero)

	return p, nil
}

// PlotResiduals は残差プロットを path に保存する（形式は拡張子で決まる: .png, .svg, .pdf など）
func PlotResiduals(y, yhat *mat.VecDense, path string) error {
	p, err := NewResidualPlot(y, yhat)
	if err != nil {
		return err
	}
	if err := p.Save(residualPlotWidth, residualPlotHeight, path); err != nil {
		return errors.Wrapf(err, "PlotResiduals: saving %s", path)
	}

	log.GetLoggerWithName("metrics").Info("residual plot saved",
		log.OperationKey, log.OperationPlot,
		log.SamplesKey, y.Len(),
		"path", path,
	)
	return nil
}
