package monitoring

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type recorder struct {
	errs    []error
	tags    []map[string]string
	panics  []any
	flushes int
}

func (r *recorder) CaptureException(err error, tags map[string]string) {
	r.errs = append(r.errs, err)
	r.tags = append(r.tags, tags)
}
func (r *recorder) Recover()            {}
func (r *recorder) Flush(time.Duration) { r.flushes++ }
func (r *recorder) ReportPanic(v any)   { r.panics = append(r.panics, v) }

func TestCaptureException(t *testing.T) {
	rec := &recorder{}
	Init(rec)
	t.Cleanup(func() { Init(nil) })

	CaptureException(nil, nil)
	CaptureException(errors.New("boom"), map[string]string{"run_id": "r1"})
	Flush(time.Second)

	assert.Len(t, rec.errs, 1)
	assert.Equal(t, "r1", rec.tags[0]["run_id"])
	assert.Equal(t, 1, rec.flushes)
}

func TestRecoverReportsAndRepanics(t *testing.T) {
	rec := &recorder{}
	Init(rec)
	t.Cleanup(func() { Init(nil) })

	assert.PanicsWithValue(t, "bad state", func() {
		defer Recover()
		panic("bad state")
	})
	assert.Equal(t, []any{"bad state"}, rec.panics)
	assert.Equal(t, 1, rec.flushes)
}

func TestInitNilRestoresNop(t *testing.T) {
	Init(nil)
	assert.IsType(t, NopMonitor{}, get())
	assert.NotPanics(t, func() { CaptureException(errors.New("x"), nil) })
}
