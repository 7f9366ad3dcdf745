package grid

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"

	"github.com/oshokin/photon-entanglement/internal/logger"
)

var (
	// errTooFewPoints is returned when an axis would have no points.
	errTooFewPoints = errors.New("axis needs at least one point")
	// errInvalidBounds is returned for reversed, non-finite or non-positive log bounds.
	errInvalidBounds = errors.New("invalid axis bounds")
	// errNoCellFunc is returned when Evaluate is called without a function.
	errNoCellFunc = errors.New("cell function is required")
)

// progressSteps is the number of progress messages emitted per scan.
const progressSteps = 10

// Axis is one named dimension of a Cartesian grid.
type Axis struct {
	// Name labels the parameter swept along this axis.
	Name string
	// Values are the sample points, in scan order.
	Values []float64
}

// Linear returns n evenly spaced values in [start, end].
func Linear(name string, start, end float64, n int) (Axis, error) {
	if n < 1 {
		return Axis{}, fmt.Errorf("%s: %w", name, errTooFewPoints)
	}

	if math.IsNaN(start) || math.IsNaN(end) || math.IsInf(start, 0) || math.IsInf(end, 0) {
		return Axis{}, fmt.Errorf("%s [%g, %g]: %w", name, start, end, errInvalidBounds)
	}

	values := make([]float64, n)
	if n == 1 {
		values[0] = start
	} else {
		floats.Span(values, start, end)
	}

	return Axis{Name: name, Values: values}, nil
}

// Logarithmic returns n logarithmically spaced values in [minimum, maximum].
func Logarithmic(name string, minimum, maximum float64, n int) (Axis, error) {
	if n < 1 {
		return Axis{}, fmt.Errorf("%s: %w", name, errTooFewPoints)
	}

	if !(minimum > 0) || !(maximum >= minimum) || math.IsInf(maximum, 0) {
		return Axis{}, fmt.Errorf("%s [%g, %g]: %w", name, minimum, maximum, errInvalidBounds)
	}

	values := make([]float64, n)
	if n == 1 {
		values[0] = minimum
	} else {
		floats.LogSpan(values, minimum, maximum)
	}

	return Axis{Name: name, Values: values}, nil
}

// CellFunc evaluates a scalar diagnostic at one (row, col) grid point.
type CellFunc func(ctx context.Context, row, col float64) (float64, error)

// Map is the 2-D result of Evaluate: Values[i][j] belongs to Rows.Values[i]
// and Cols.Values[j].
type Map struct {
	// Rows is the outer axis.
	Rows Axis
	// Cols is the inner axis.
	Cols Axis
	// Values holds one scalar per cell.
	Values [][]float64
}

// CellError identifies the grid point whose evaluation failed.
type CellError struct {
	// Row and Col are the axis values of the failing cell.
	Row, Col float64
	// Err is the error returned by the cell function.
	Err error
}

// Error implements the error interface.
func (e *CellError) Error() string {
	return fmt.Sprintf("cell (%g, %g): %v", e.Row, e.Col, e.Err)
}

// Unwrap exposes the cell function error.
func (e *CellError) Unwrap() error {
	return e.Err
}

// Option configures Evaluate.
type Option func(*evaluator)

// evaluator holds the Evaluate settings.
type evaluator struct {
	// workers bounds the number of concurrently evaluated cells.
	workers int
}

// WithWorkers bounds the number of goroutines; values < 1 mean GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(e *evaluator) {
		e.workers = n
	}
}

// Evaluate applies fn to every (row, col) pair. Cells are independent and run
// in parallel; each result is stored at its own index, so evaluation order never
// affects the map. The first failing cell cancels the remaining work.
func Evaluate(ctx context.Context, rows, cols Axis, fn CellFunc, opts ...Option) (*Map, error) {
	if fn == nil {
		return nil, errNoCellFunc
	}

	ev := &evaluator{}
	for _, opt := range opts {
		opt(ev)
	}

	if ev.workers < 1 {
		ev.workers = runtime.GOMAXPROCS(0)
	}

	m := &Map{
		Rows:   rows,
		Cols:   cols,
		Values: make([][]float64, len(rows.Values)),
	}
	for i := range m.Values {
		m.Values[i] = make([]float64, len(cols.Values))
	}

	var (
		total    = len(rows.Values) * len(cols.Values)
		every    = max(1, total/progressSteps)
		done     atomic.Int64
		g, gctx  = errgroup.WithContext(ctx)
		scanCtx  = logger.WithKV(ctx, "rows", rows.Name, "cols", cols.Name)
		progress = func() {
			if n := done.Add(1); n%int64(every) == 0 || n == int64(total) {
				logger.DebugKV(scanCtx, "Grid progress", "done", n, "total", total)
			}
		}
	)

	g.SetLimit(ev.workers)

	for i, row := range rows.Values {
		for j, col := range cols.Values {
			if gctx.Err() != nil {
				break
			}

			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}

				v, err := fn(gctx, row, col)
				if err != nil {
					return &CellError{Row: row, Col: col, Err: err}
				}

				m.Values[i][j] = v
				progress()

				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("evaluate %s x %s grid: %w", rows.Name, cols.Name, err)
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("evaluate %s x %s grid: %w", rows.Name, cols.Name, err)
	}

	return m, nil
}

// Max returns the largest value and its cell indices; an empty map yields NaN.
func (m *Map) Max() (float64, int, int) {
	best, bi, bj := math.NaN(), -1, -1

	for i, row := range m.Values {
		if len(row) == 0 {
			continue
		}

		j := floats.MaxIdx(row)
		if bi < 0 || row[j] > best {
			best, bi, bj = row[j], i, j
		}
	}

	return best, bi, bj
}

// CountWhere returns the number of cells for which pred holds.
func (m *Map) CountWhere(pred func(row, col, value float64) bool) int {
	var hits int

	for i, row := range m.Values {
		for j, v := range row {
			if pred(m.Rows.Values[i], m.Cols.Values[j], v) {
				hits++
			}
		}
	}

	return hits
}

// FractionWhere returns the share of cells for which pred holds.
func (m *Map) FractionWhere(pred func(row, col, value float64) bool) float64 {
	total := m.Len()
	if total == 0 {
		return 0
	}

	return float64(m.CountWhere(pred)) / float64(total)
}

// Len returns the number of cells.
func (m *Map) Len() int {
	return len(m.Rows.Values) * len(m.Cols.Values)
}

// Row returns the values of row i, or nil when i is out of range.
func (m *Map) Row(i int) []float64 {
	if i < 0 || i >= len(m.Values) {
		return nil
	}

	return m.Values[i]
}
