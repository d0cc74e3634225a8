// Package coordmap builds the dense coordinate tables used to remap an image
// onto a curved surface: for every output pixel, the source coordinate to sample.
package coordmap

import (
	"context"
	"fmt"
	"runtime"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/glog"
	"github.com/janpfeifer/curvewarp/projection"
	"golang.org/x/sync/errgroup"
)

// CoordinateMap holds, for every output pixel (x, y), the source coordinate
// (SrcX, SrcY) it samples from. Both grids are row-major with stride Width().
//
// It is immutable once built.
type CoordinateMap struct {
	width, height int

	// SrcX and SrcY have Width()*Height() entries each.
	SrcX, SrcY []float32

	// Clamped is the number of pixels whose ray missed the surface and were
	// folded onto the tangent point.
	Clamped int

	Variant   projection.Variant
	Convexity projection.Convexity
}

// Width of the mapped canvas.
func (cm *CoordinateMap) Width() int { return cm.width }

// Height of the mapped canvas.
func (cm *CoordinateMap) Height() int { return cm.height }

// At returns the source coordinate for output pixel (x, y).
func (cm *CoordinateMap) At(x, y int) (srcX, srcY float32) {
	ii := y*cm.width + x
	return cm.SrcX[ii], cm.SrcY[ii]
}

// Rows returns the slices of SrcX and SrcY for row y.
func (cm *CoordinateMap) Rows(y int) (srcX, srcY []float32) {
	start := y * cm.width
	return cm.SrcX[start : start+cm.width], cm.SrcY[start : start+cm.width]
}

// New allocates a zeroed width x height map, for callers filling their own
// tables. Use Build for a projection.
func New(width, height int) (*CoordinateMap, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", projection.ErrInvalidCanvas, width, height)
	}
	return &CoordinateMap{
		width:  width,
		height: height,
		SrcX:   make([]float32, width*height),
		SrcY:   make([]float32, width*height),
	}, nil
}

// Identity returns a map where every pixel samples itself.
func Identity(width, height int) (*CoordinateMap, error) {
	cm, err := New(width, height)
	if err != nil {
		return nil, err
	}
	for y := 0; y < height; y++ {
		rowX, rowY := cm.Rows(y)
		for x := range rowX {
			rowX[x] = float32(x)
			rowY[x] = float32(y)
		}
	}
	return cm, nil
}

type config struct {
	workers       int
	mapperOptions []projection.Option
	rowsPerTask   int
}

// Option configures Build.
type Option func(c *config)

// WithWorkers sets the number of goroutines filling the map. If n <= 0,
// GOMAXPROCS is used. With n == 1 rows are filled sequentially.
func WithWorkers(n int) Option {
	return func(c *config) { c.workers = n }
}

// WithMapperOptions passes options to the projection.Mapper.
func WithMapperOptions(options ...projection.Option) Option {
	return func(c *config) { c.mapperOptions = append(c.mapperOptions, options...) }
}

// WithRowsPerTask sets the height of each row band handed to a worker.
// If n <= 0 bands are sized so that each worker gets about 4 of them.
func WithRowsPerTask(n int) Option {
	return func(c *config) { c.rowsPerTask = n }
}

// Build computes the coordinate map for a width x height canvas.
//
// The canvas is validated before any mapping starts: a non-positive dimension
// returns an error wrapping projection.ErrInvalidCanvas. The rows are split in
// bands, and each band is filled by exactly one worker, so no locking is needed.
//
// ctx is checked before each band: if cancelled, Build returns the context
// error and no map.
func Build(ctx context.Context, width, height int, convexity projection.Convexity,
	variant projection.Variant, options ...Option) (*CoordinateMap, error) {
	var cfg config
	for _, option := range options {
		option(&cfg)
	}
	mapper, err := projection.NewMapper(width, height, convexity, variant, cfg.mapperOptions...)
	if err != nil {
		return nil, err
	}

	workers := cfg.workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	rowsPerTask := cfg.rowsPerTask
	if rowsPerTask <= 0 {
		rowsPerTask = (height + 4*workers - 1) / (4 * workers)
	}
	numTasks := (height + rowsPerTask - 1) / rowsPerTask

	cm, err := New(width, height)
	if err != nil {
		return nil, err
	}
	cm.Variant, cm.Convexity = variant, convexity
	glog.V(2).Infof("coordmap.Build(%dx%d, %s, %s): %d workers, %d bands of %d rows",
		width, height, variant, convexity, workers, numTasks, rowsPerTask)

	clamped := make([]int, numTasks)
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for task := 0; task < numTasks; task++ {
		task := task
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			start := task * rowsPerTask
			end := start + rowsPerTask
			if end > height {
				end = height
			}
			clamped[task] = cm.fillRows(mapper, start, end)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for _, n := range clamped {
		cm.Clamped += n
	}
	if cm.Clamped > 0 {
		glog.V(1).Infof("coordmap.Build(%dx%d, %s, %s): %d pixels out of the surface domain, clamped to the tangent",
			width, height, variant, convexity, cm.Clamped)
	}
	return cm, nil
}

// fillRows maps rows [start, end) and returns the number of clamped pixels.
func (cm *CoordinateMap) fillRows(mapper *projection.Mapper, start, end int) (clamped int) {
	for y := start; y < end; y++ {
		rowX, rowY := cm.Rows(y)
		for x := range rowX {
			source, inDomain := mapper.Map(mgl64.Vec2{float64(x), float64(y)})
			if !inDomain {
				clamped++
			}
			rowX[x] = float32(source.X())
			rowY[x] = float32(source.Y())
		}
	}
	return
}
