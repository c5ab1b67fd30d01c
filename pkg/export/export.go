// Package export writes simulation tick streams for plotting and replay tools.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/kilianp07/ersim/core/model"
)

// Header returns the CSV header for the given unit ids.
func Header(unitIDs []string) []string {
	h := make([]string, 0, 2*len(unitIDs)+4)
	h = append(h, "t", "emergency_id")
	for _, id := range unitIDs {
		h = append(h, id+"-x", id+"-y")
	}
	return append(h, "points", "done")
}

// CSVWriter streams tick rows. Unit columns follow the id order given at
// construction and every tick must report exactly those units.
type CSVWriter struct {
	cw      *csv.Writer
	unitIDs []string
	header  bool
}

func NewCSVWriter(w io.Writer, unitIDs []string) *CSVWriter {
	return &CSVWriter{cw: csv.NewWriter(w), unitIDs: unitIDs}
}

// Write appends one tick row, emitting the header first.
func (w *CSVWriter) Write(tick model.TickRecord) error {
	if !w.header {
		if err := w.cw.Write(Header(w.unitIDs)); err != nil {
			return err
		}
		w.header = true
	}
	if len(tick.Units) != len(w.unitIDs) {
		return fmt.Errorf("tick t=%v has %d units, want %d", tick.Time, len(tick.Units), len(w.unitIDs))
	}
	row := make([]string, 0, 2*len(tick.Units)+4)
	row = append(row, formatFloat(tick.Time), tick.EmergencyID)
	for i, u := range tick.Units {
		if u.UnitID != w.unitIDs[i] {
			return fmt.Errorf("tick t=%v: unit %d is %s, want %s", tick.Time, i, u.UnitID, w.unitIDs[i])
		}
		row = append(row, formatFloat(u.X), formatFloat(u.Y))
	}
	row = append(row, strconv.Itoa(tick.Score), strings.Join(tick.Closed, " "))
	return w.cw.Write(row)
}

// Flush writes buffered rows to the underlying writer.
func (w *CSVWriter) Flush() error {
	w.cw.Flush()
	return w.cw.Error()
}

// WriteCSV writes the tick stream to w in CSV format.
func WriteCSV(w io.Writer, unitIDs []string, ticks []model.TickRecord) error {
	cw := NewCSVWriter(w, unitIDs)
	for _, t := range ticks {
		if err := cw.Write(t); err != nil {
			return err
		}
	}
	if len(ticks) == 0 {
		if err := cw.cw.Write(Header(unitIDs)); err != nil {
			return err
		}
	}
	return cw.Flush()
}

// WriteJSONL writes one JSON tick record per line.
func WriteJSONL(w io.Writer, ticks []model.TickRecord) error {
	enc := json.NewEncoder(w)
	for _, t := range ticks {
		if err := enc.Encode(t); err != nil {
			return err
		}
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
