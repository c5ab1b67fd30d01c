package ingest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/ersim/core/model"
)

type warnLog struct {
	warns []string
}

func (l *warnLog) Debugf(string, ...any)         {}
func (l *warnLog) Debugw(string, map[string]any) {}
func (l *warnLog) Infof(string, ...any)          {}
func (l *warnLog) Errorf(string, ...any)         {}
func (l *warnLog) Warnf(format string, args ...any) {
	l.warns = append(l.warns, format)
}

func TestReadArrivals(t *testing.T) {
	in := `t,id,x,y,etype,priority_s
5,B,10,20,police,60
0,A,1,2,fire,120
5,C,3,4,Medical,30
`
	b, err := ReadArrivals(strings.NewReader(in), nil)
	require.NoError(t, err)
	require.Len(t, b.Records, 3)
	assert.Equal(t, model.ArrivalRecord{Time: 0, ID: "A", X: 1, Y: 2, Category: model.CategoryFire, Priority: 120}, b.Records[0])
	// Equal times keep file order.
	assert.Equal(t, "B", b.Records[1].ID)
	assert.Equal(t, "C", b.Records[2].ID)
	assert.Equal(t, model.CategoryMedical, b.Records[2].Category)
	assert.Zero(t, b.Skipped)
}

func TestReadArrivals_SkipsAndMaps(t *testing.T) {
	in := `time,x,y,category,priority
0,1,2,fire,120
1,abc,2,fire,120
2,1,2,,120
3,1,2,flood,50
4,1,2,police,
`
	log := &warnLog{}
	b, err := ReadArrivals(strings.NewReader(in), log)
	require.NoError(t, err)
	require.Len(t, b.Records, 2)
	assert.Equal(t, "row-2", b.Records[0].ID)
	assert.Equal(t, "row-5", b.Records[1].ID)
	assert.Equal(t, model.CategoryOther, b.Records[1].Category)
	assert.Equal(t, 3, b.Skipped)
	assert.Equal(t, 1, b.Unknown)
	assert.Len(t, log.warns, 4)
}

func TestReadArrivals_MissingColumn(t *testing.T) {
	_, err := ReadArrivals(strings.NewReader("t,id,x,y,priority\n0,A,1,2,10\n"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "category")

	_, err = ReadArrivals(strings.NewReader(""), nil)
	assert.Error(t, err)
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.csv")
	require.NoError(t, os.WriteFile(path, []byte("\ufefft,id,x,y,etype,priority_s\n0,A,1,2,other,10\n"), 0o644))
	b, err := ReadFile(path, nil)
	require.NoError(t, err)
	require.Len(t, b.Records, 1)
	assert.Equal(t, model.CategoryOther, b.Records[0].Category)

	_, err = ReadFile(filepath.Join(t.TempDir(), "missing.csv"), nil)
	assert.Error(t, err)
}
