package report

import (
	"bufio"
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"github.com/reserve-sim/reserve-sim/sim"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

const (
	panelWidth  = 14 * vg.Inch
	panelHeight = 3.5 * vg.Inch
	plotDPI     = 100
)

// window is the slice of a result drawn in the panels.
type window struct {
	res *sim.Result
	n   int
}

func newWindow(res *sim.Result, endTime float64) window {
	n := res.Len()
	if endTime > 0 {
		k := res.IndexAt(endTime)
		if res.Time[k] <= endTime {
			k++
		}
		n = min(max(k, 1), res.Len())
	}
	return window{res: res, n: n}
}

// line samples ys over the window, scaled by scale.
func (w window) line(ys []float64, scale float64) plotter.XYs {
	pts := make(plotter.XYs, w.n)
	for i := range pts {
		pts[i].X = w.res.Time[i]
		pts[i].Y = ys[i] * scale
	}
	return pts
}

// sum samples the elementwise sum of several series over the window.
func (w window) sum(scale float64, parts ...[]float64) plotter.XYs {
	pts := make(plotter.XYs, w.n)
	for i := range pts {
		pts[i].X = w.res.Time[i]
		for _, p := range parts {
			pts[i].Y += p[i]
		}
		pts[i].Y *= scale
	}
	return pts
}

func (w window) constant(y float64) plotter.XYs {
	return plotter.XYs{{X: w.res.Time[0], Y: y}, {X: w.res.Time[w.n-1], Y: y}}
}

func newPanel(title, ylabel string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.Y.Label.Text = ylabel
	p.Legend.Top = true
	p.Legend.Left = false
	p.Add(plotter.NewGrid())
	return p
}

func addReference(p *plot.Plot, pts plotter.XYs) error {
	l, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}
	l.LineStyle.Color = color.Gray{Y: 80}
	l.LineStyle.Dashes = []vg.Length{vg.Points(3), vg.Points(3)}
	p.Add(l)
	return nil
}

// Panels builds the stacked panels of a run up to endTime (all of it if endTime <= 0):
// frequencies, power balance, reserve sources, FCR, SoC, BESS share, control
// layers, and the handover fraction with ACE.
func Panels(res *sim.Result, endTime float64) ([]*plot.Plot, error) {
	if res.Len() == 0 {
		return nil, fmt.Errorf("empty result")
	}
	w := newWindow(res, endTime)
	cfg := res.Config
	const mw = 1e-6

	loss := make([]float64, res.Len())
	for k, t := range res.Time {
		if t >= cfg.Fault.TFault {
			loss[k] = cfg.Fault.PLoss
		}
	}
	imports := make([]float64, res.Len())
	slow := make([]float64, res.Len())
	fcrSum := make([]float64, res.Len())
	for k := range res.Time {
		imports[k] = -res.Tie[k]
		slow[k] = res.PumpedStorage[k] + res.GasTurbine1[k] + res.GasTurbine2[k]
		fcrSum[k] = res.FCRMain[k] + res.FCRNeighbour[k]
	}

	freq := newPanel("Frequencies", "Hz")
	if err := plotutil.AddLines(freq,
		"main area", w.line(res.FMain, 1),
		"neighbour", w.line(res.FNeighbour, 1),
	); err != nil {
		return nil, err
	}
	if err := addReference(freq, w.constant(cfg.Grid.F0)); err != nil {
		return nil, err
	}

	balance := newPanel("Power balance (covering the loss)", "MW")
	if err := plotutil.AddLines(balance,
		"loss", w.line(loss, mw),
		"FCR main", w.line(res.FCRMain, mw),
		"aFRR+mFRR", w.line(res.Total, mw),
		"import", w.line(imports, mw),
		"FCR+reserves+import", w.sum(mw, res.FCRMain, res.Total, imports),
	); err != nil {
		return nil, err
	}

	sources := newPanel("Reserve sources", "MW")
	if err := plotutil.AddLines(sources,
		"BESS", w.line(res.BESS, mw),
		"pumped storage", w.line(res.PumpedStorage, mw),
		"gas turbine 1", w.line(res.GasTurbine1, mw),
		"gas turbine 2", w.line(res.GasTurbine2, mw),
		"mFRR", w.line(res.MFRR, mw),
		"total", w.line(res.Total, mw),
	); err != nil {
		return nil, err
	}

	fcr := newPanel("Primary control (FCR)", "MW")
	if err := plotutil.AddLines(fcr,
		"main", w.line(res.FCRMain, mw),
		"neighbour", w.line(res.FCRNeighbour, mw),
		"sum", w.line(fcrSum, mw),
	); err != nil {
		return nil, err
	}

	soc := newPanel("BESS state of charge", "%")
	if err := plotutil.AddLines(soc, "SoC", w.line(res.SoC, 100)); err != nil {
		return nil, err
	}
	for _, bound := range []float64{res.SoCMin, res.SoCMax} {
		if err := addReference(soc, w.constant(100*bound)); err != nil {
			return nil, err
		}
	}

	share := newPanel("BESS aFRR share", "%")
	share.Y.Min, share.Y.Max = -5, 105
	if err := plotutil.AddLines(share, "share", w.line(res.BESSShare, 100)); err != nil {
		return nil, err
	}

	layers := newPanel("Control layers", "MW")
	if err := plotutil.AddLines(layers,
		"FCR", w.line(fcrSum, mw),
		"BESS", w.line(res.BESS, mw),
		"aFRR (slow)", w.line(slow, mw),
		"mFRR", w.line(res.MFRR, mw),
	); err != nil {
		return nil, err
	}

	handover := newPanel("Handover and area control error", "lambda / ACE [GW]")
	if err := plotutil.AddLines(handover,
		"lambda", w.line(res.Lambda, 1),
		"ACE", w.line(res.ACE, 1e-9),
	); err != nil {
		return nil, err
	}

	panels := []*plot.Plot{freq, balance, sources, fcr, soc, share, layers, handover}
	panels[len(panels)-1].X.Label.Text = "t [s]"
	return panels, nil
}

// SavePlot renders the panels stacked vertically into a PNG at path.
func SavePlot(path string, res *sim.Result, endTime float64) (err error) {
	panels, err := Panels(res, endTime)
	if err != nil {
		return fmt.Errorf("building panels: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("cannot create directory: %w", err)
		}
	}

	rows := make([][]*plot.Plot, len(panels))
	for i, p := range panels {
		rows[i] = []*plot.Plot{p}
	}
	c := vgimg.NewWith(
		vgimg.UseWH(panelWidth, panelHeight*vg.Length(len(panels))),
		vgimg.UseDPI(plotDPI),
	)
	dc := draw.New(c)
	tiles := draw.Tiles{Rows: len(panels), Cols: 1, PadY: vg.Millimeter * 4, PadTop: vg.Millimeter * 2, PadBottom: vg.Millimeter * 2}
	canvases := plot.Align(rows, tiles, dc)
	for i := range rows {
		rows[i][0].Draw(canvases[i][0])
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("cannot create png: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing %s: %w", path, cerr)
		}
	}()
	bw := bufio.NewWriter(f)
	if _, err := (vgimg.PngCanvas{Canvas: c}).WriteTo(bw); err != nil {
		return fmt.Errorf("cannot write png: %w", err)
	}
	return bw.Flush()
}
