package filters

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
	"runtime"

	"github.com/golang/glog"
	"github.com/janpfeifer/curvewarp/coordmap"
	"golang.org/x/sync/errgroup"
)

// ErrSizeMismatch is returned when the coordinate map and the image being
// warped have different dimensions.
var ErrSizeMismatch = errors.New("coordinate map and image sizes differ")

// Warp remaps an image with a coordinate map: output pixel (x, y) is the bilinear
// interpolation of the source around Map.At(x, y).
//
// Samples that fall outside the source take BorderColor, as a constant-border
// remap does.
type Warp struct {
	Map *coordmap.CoordinateMap

	// BorderColor for samples outside the source. Zero value is transparent black.
	BorderColor color.RGBA

	// Workers resampling rows in parallel. If <= 0, GOMAXPROCS is used.
	Workers int
}

// NewWarp creates a Warp filter for the given map.
func NewWarp(cm *coordmap.CoordinateMap) *Warp {
	return &Warp{Map: cm}
}

// Apply implements the ImageFilter interface. If the image cannot be warped
// the error is logged and the image is returned unchanged.
func (w *Warp) Apply(img image.Image) image.Image {
	warped, err := w.Resample(context.Background(), img)
	if err != nil {
		glog.Errorf("Warp: %s", err)
		return img
	}
	return warped
}

// Resample produces the warped image. src must have the same dimensions as the
// coordinate map.
func (w *Warp) Resample(ctx context.Context, src image.Image) (*image.RGBA, error) {
	if w.Map == nil {
		return nil, errors.New("warp without a coordinate map")
	}
	bounds := src.Bounds()
	width, height := w.Map.Width(), w.Map.Height()
	if bounds.Dx() != width || bounds.Dy() != height {
		return nil, fmt.Errorf("%w: map is %dx%d, image is %dx%d",
			ErrSizeMismatch, width, height, bounds.Dx(), bounds.Dy())
	}
	source := ToRGBA(src)
	dst := image.NewRGBA(image.Rect(0, 0, width, height))

	workers := w.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for y := 0; y < height; y++ {
		y := y
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			w.resampleRow(source, dst, y)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	glog.V(2).Infof("Warp.Resample: %dx%d with %s %s", width, height, w.Map.Convexity, w.Map.Variant)
	return dst, nil
}

func (w *Warp) resampleRow(src, dst *image.RGBA, y int) {
	rowX, rowY := w.Map.Rows(y)
	pix := dst.Pix[y*dst.Stride:]
	for x := range rowX {
		c := w.bilinear(src, float64(rowX[x]), float64(rowY[x]))
		pos := x * 4
		pix[pos] = c.R
		pix[pos+1] = c.G
		pix[pos+2] = c.B
		pix[pos+3] = c.A
	}
}

// bilinear interpolates src at (x, y), in pixel coordinates.
func (w *Warp) bilinear(src *image.RGBA, x, y float64) color.RGBA {
	x0f, y0f := math.Floor(x), math.Floor(y)
	tx, ty := x-x0f, y-y0f
	x0, y0 := int(x0f), int(y0f)

	c00 := w.pixel(src, x0, y0)
	c10 := w.pixel(src, x0+1, y0)
	c01 := w.pixel(src, x0, y0+1)
	c11 := w.pixel(src, x0+1, y0+1)
	lerp2D := func(v00, v10, v01, v11 uint8) uint8 {
		top := float64(v00) + (float64(v10)-float64(v00))*tx
		bottom := float64(v01) + (float64(v11)-float64(v01))*tx
		return clampByte(top + (bottom-top)*ty)
	}
	return color.RGBA{
		R: lerp2D(c00.R, c10.R, c01.R, c11.R),
		G: lerp2D(c00.G, c10.G, c01.G, c11.G),
		B: lerp2D(c00.B, c10.B, c01.B, c11.B),
		A: lerp2D(c00.A, c10.A, c01.A, c11.A),
	}
}

// pixel returns the source pixel, or the border color if out of bounds.
func (w *Warp) pixel(src *image.RGBA, x, y int) color.RGBA {
	if x < 0 || y < 0 || x >= src.Rect.Dx() || y >= src.Rect.Dy() {
		return w.BorderColor
	}
	return src.RGBAAt(x, y)
}

func clampByte(v float64) uint8 {
	v = math.Round(v)
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v)
}
