package report

import (
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"dbpulse/internal/core"
)

// WriteHealthTrace renders cpu, memory and connection lines over the
// run's wall clock as a PNG. Needs at least two samples to draw a line;
// fewer is not an error, the graph is just skipped.
func (w *Writer) WriteHealthTrace(samples []core.HealthSample) (string, error) {
	if len(samples) < 2 {
		return "", nil
	}

	start := samples[0].Timestamp
	cpu := make(plotter.XYs, len(samples))
	mem := make(plotter.XYs, len(samples))
	conns := make(plotter.XYs, len(samples))
	for i, s := range samples {
		x := s.Timestamp.Sub(start).Seconds()
		cpu[i] = plotter.XY{X: x, Y: s.CPUPct}
		mem[i] = plotter.XY{X: x, Y: s.MemoryMB}
		conns[i] = plotter.XY{X: x, Y: float64(s.ActiveConnections)}
	}

	p := plot.New()
	p.Title.Text = "Store health over time"
	p.X.Label.Text = "seconds"
	p.Legend.Top = true

	err := plotutil.AddLines(p,
		"cpu %", cpu,
		"memory MB", mem,
		"connections", conns,
	)
	if err != nil {
		return "", err
	}

	path := filepath.Join(w.Dir, "health_trace.png")
	if err := p.Save(8*vg.Inch, 4*vg.Inch, path); err != nil {
		return "", err
	}
	return path, nil
}
