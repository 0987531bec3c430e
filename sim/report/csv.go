package report

import (
	"fmt"
	"io"
	"os"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/reserve-sim/reserve-sim/sim"
	"github.com/reserve-sim/reserve-sim/sim/trace"
)

// SeriesFrame builds a dataframe with one column per logged series, time first.
func SeriesFrame(res *sim.Result) dataframe.DataFrame {
	cols := res.Columns()
	ss := make([]series.Series, len(cols))
	for i, c := range cols {
		ss[i] = series.New(c.Values, series.Float, c.Name)
	}
	return dataframe.New(ss...)
}

// EventFrame builds a dataframe with one row per traced control event.
func EventFrame(events []trace.EventRecord) dataframe.DataFrame {
	steps := make([]int, len(events))
	times := make([]float64, len(events))
	kinds := make([]string, len(events))
	sources := make([]string, len(events))
	values := make([]float64, len(events))
	reasons := make([]string, len(events))
	for i, e := range events {
		steps[i] = e.Step
		times[i] = e.Time
		kinds[i] = string(e.Kind)
		sources[i] = e.Source
		values[i] = e.Value
		reasons[i] = e.Reason
	}
	return dataframe.New(
		series.New(steps, series.Int, "step"),
		series.New(times, series.Float, "t"),
		series.New(kinds, series.String, "kind"),
		series.New(sources, series.String, "source"),
		series.New(values, series.Float, "value"),
		series.New(reasons, series.String, "reason"),
	)
}

// WriteCSV writes every logged series of res as CSV with a header row.
func WriteCSV(w io.Writer, res *sim.Result) error {
	return writeFrame(w, SeriesFrame(res))
}

// WriteEventsCSV writes the traced control events as CSV with a header row.
func WriteEventsCSV(w io.Writer, events []trace.EventRecord) error {
	return writeFrame(w, EventFrame(events))
}

func writeFrame(w io.Writer, df dataframe.DataFrame) error {
	if df.Err != nil {
		return fmt.Errorf("building dataframe: %w", df.Err)
	}
	if err := df.WriteCSV(w); err != nil {
		return fmt.Errorf("writing csv: %w", err)
	}
	return nil
}

// SaveCSV creates path and writes the series CSV to it.
func SaveCSV(path string, res *sim.Result) error {
	return saveFile(path, func(w io.Writer) error { return WriteCSV(w, res) })
}

// SaveEventsCSV creates path and writes the events CSV to it.
func SaveEventsCSV(path string, events []trace.EventRecord) error {
	return saveFile(path, func(w io.Writer) error { return WriteEventsCSV(w, events) })
}

func saveFile(path string, write func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing %s: %w", path, cerr)
		}
	}()
	return write(f)
}
