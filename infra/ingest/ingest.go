// Package ingest loads emergency arrival records from CSV.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/kilianp07/ersim/core/logger"
	"github.com/kilianp07/ersim/core/model"
)

// Batch is the result of loading one file.
type Batch struct {
	Records []model.ArrivalRecord
	// Skipped counts rows dropped as malformed.
	Skipped int
	// Unknown counts rows whose category was mapped to other.
	Unknown int
}

type column int

const (
	colTime column = iota
	colID
	colX
	colY
	colCategory
	colPriority
	numColumns
)

var aliases = map[string]column{
	"t":          colTime,
	"time":       colTime,
	"id":         colID,
	"x":          colX,
	"y":          colY,
	"etype":      colCategory,
	"category":   colCategory,
	"priority_s": colPriority,
	"priority":   colPriority,
}

var required = []struct {
	col  column
	name string
}{
	{colTime, "t"}, {colX, "x"}, {colY, "y"}, {colCategory, "category"}, {colPriority, "priority"},
}

// ReadFile opens path and reads it with ReadArrivals.
func ReadFile(path string, log logger.Logger) (Batch, error) {
	f, err := os.Open(path)
	if err != nil {
		return Batch{}, err
	}
	defer func() { _ = f.Close() }()
	return ReadArrivals(f, log)
}

// ReadArrivals parses a CSV stream with a header row. Columns are matched by
// name. Malformed rows are skipped with a warning, unknown categories become
// other, and the result is stable-sorted by time.
func ReadArrivals(r io.Reader, log logger.Logger) (Batch, error) {
	log = logger.OrNop(log)
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Batch{}, fmt.Errorf("empty input: missing header")
		}
		return Batch{}, fmt.Errorf("read header: %w", err)
	}
	idx, err := mapHeader(header)
	if err != nil {
		return Batch{}, err
	}

	var b Batch
	line := 1
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				b.Skipped++
				log.Warnf("line %d: %v", line, err)
				continue
			}
			return b, err
		}
		rec, err := parseRow(row, idx, line)
		switch {
		case errors.Is(err, model.ErrUnknownCategory):
			b.Unknown++
			log.Warnf("line %d: %v, treated as other", line, err)
		case err != nil:
			b.Skipped++
			log.Warnf("line %d: skipped: %v", line, err)
			continue
		}
		b.Records = append(b.Records, rec)
	}
	sort.SliceStable(b.Records, func(i, j int) bool { return b.Records[i].Time < b.Records[j].Time })
	return b, nil
}

func mapHeader(header []string) ([numColumns]int, error) {
	var idx [numColumns]int
	for i := range idx {
		idx[i] = -1
	}
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if c, ok := aliases[name]; ok && idx[c] < 0 {
			idx[c] = i
		}
	}
	var missing []string
	for _, r := range required {
		if idx[r.col] < 0 {
			missing = append(missing, r.name)
		}
	}
	if len(missing) > 0 {
		return idx, fmt.Errorf("missing required column(s): %s", strings.Join(missing, ", "))
	}
	return idx, nil
}

func parseRow(row []string, idx [numColumns]int, line int) (model.ArrivalRecord, error) {
	field := func(c column) string {
		i := idx[c]
		if i < 0 || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}
	var rec model.ArrivalRecord
	nums := []struct {
		c    column
		name string
		dst  *float64
	}{
		{colTime, "t", &rec.Time},
		{colX, "x", &rec.X},
		{colY, "y", &rec.Y},
		{colPriority, "priority", &rec.Priority},
	}
	for _, n := range nums {
		v, err := strconv.ParseFloat(field(n.c), 64)
		if err != nil {
			return rec, fmt.Errorf("%w: %s: %v", model.ErrMalformedRecord, n.name, err)
		}
		*n.dst = v
	}
	rec.ID = field(colID)
	if rec.ID == "" {
		rec.ID = fmt.Sprintf("row-%d", line)
	}
	cat, err := model.ParseCategory(field(colCategory))
	rec.Category = cat
	return rec, err
}
