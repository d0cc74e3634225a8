package main

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"strconv"
	"strings"

	"github.com/golang/glog"
	"github.com/janpfeifer/curvewarp/coordmap"
	"github.com/janpfeifer/curvewarp/filters"
	"github.com/janpfeifer/curvewarp/imageio"
	"github.com/janpfeifer/curvewarp/projection"
)

// Options of one curvewarp run. They are filled from the command line flags.
type Options struct {
	// Source: exactly one of Input, Screenshot or Checkerboard.
	Input        string
	Screenshot   bool
	Display      int
	Checkerboard image.Point

	// Border added on each side of the source before warping.
	Border image.Point

	Variant                   projection.Variant
	Convexity                 projection.Convexity
	IndependentHemisphereAxes bool
	Workers                   int

	// Overlays drawn on the remapped image.
	Label, Outline bool

	// Outputs: at least one of Output or Preview.
	Output  string
	Preview bool
}

var errNoSource = errors.New("one of -input, -screenshot or -checkerboard must be given")

// Validate checks the options are consistent.
func (o *Options) Validate() error {
	sources := 0
	if o.Input != "" {
		sources++
	}
	if o.Screenshot {
		sources++
	}
	if o.Checkerboard != (image.Point{}) {
		sources++
		if o.Checkerboard.X <= 0 || o.Checkerboard.Y <= 0 {
			return fmt.Errorf("invalid checkerboard size %dx%d", o.Checkerboard.X, o.Checkerboard.Y)
		}
	}
	if sources != 1 {
		return errNoSource
	}
	if o.Border.X < 0 || o.Border.Y < 0 {
		return fmt.Errorf("invalid border %dx%d", o.Border.X, o.Border.Y)
	}
	if !o.Variant.Valid() {
		return fmt.Errorf("%w: %s", projection.ErrUnknownVariant, o.Variant)
	}
	if o.Output == "" && !o.Preview {
		return errors.New("nothing to do: give -output and/or -preview")
	}
	return nil
}

// ParseSize parses a "WxH" string, e.g. "640x480". An empty string is 0x0.
func ParseSize(s string) (image.Point, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return image.Point{}, nil
	}
	parts := strings.Split(strings.ToLower(s), "x")
	if len(parts) != 2 {
		return image.Point{}, fmt.Errorf("invalid size %q, expected WxH", s)
	}
	w, err := strconv.Atoi(parts[0])
	if err != nil {
		return image.Point{}, fmt.Errorf("invalid width in size %q: %w", s, err)
	}
	h, err := strconv.Atoi(parts[1])
	if err != nil {
		return image.Point{}, fmt.Errorf("invalid height in size %q: %w", s, err)
	}
	return image.Point{X: w, Y: h}, nil
}

// LoadSource returns the source image with the border applied, and a name
// describing it.
func LoadSource(o *Options) (*image.RGBA, string, error) {
	var (
		img  image.Image
		name string
		err  error
	)
	switch {
	case o.Input != "":
		name = o.Input
		img, err = imageio.Load(o.Input)
	case o.Screenshot:
		name = fmt.Sprintf("display-%d", o.Display)
		img, err = imageio.Capture(o.Display)
	default:
		name = fmt.Sprintf("checkerboard-%dx%d", o.Checkerboard.X, o.Checkerboard.Y)
		img = imageio.Checkerboard(o.Checkerboard.X, o.Checkerboard.Y, checkerboardBox(o.Checkerboard))
	}
	if err != nil {
		return nil, "", err
	}
	border := filters.NewBorder(o.Border.X, o.Border.Y, color.Black)
	return filters.ApplyAll(img, border), name, nil
}

// checkerboardBox sizes the squares so there are about 16 along the smaller side.
func checkerboardBox(size image.Point) int {
	return max(min(size.X, size.Y)/16, 1)
}

// Warper remaps one source image to different projections.
type Warper struct {
	Source  *image.RGBA
	Options Options
}

// Warp builds the coordinate map for the projection and remaps the source,
// drawing the overlays requested in the options.
func (w *Warper) Warp(ctx context.Context, variant projection.Variant, convexity projection.Convexity) (*image.RGBA, error) {
	bounds := w.Source.Bounds()
	buildOptions := []coordmap.Option{coordmap.WithWorkers(w.Options.Workers)}
	if w.Options.IndependentHemisphereAxes {
		buildOptions = append(buildOptions, coordmap.WithMapperOptions(projection.WithIndependentHemisphereAxes()))
	}
	cm, err := coordmap.Build(ctx, bounds.Dx(), bounds.Dy(), convexity, variant, buildOptions...)
	if err != nil {
		return nil, err
	}
	warp := filters.NewWarp(cm)
	warp.Workers = w.Options.Workers
	remapped, err := warp.Resample(ctx, w.Source)
	if err != nil {
		return nil, err
	}
	glog.Infof("Remapped %dx%d image to %s, %s (%d pixels clamped to the surface tangent)",
		bounds.Dx(), bounds.Dy(), variant, convexity, cm.Clamped)

	var overlays []filters.ImageFilter
	if w.Options.Outline {
		overlays = append(overlays, filters.NewOutline(remapped.Rect, variant, outlineColor, outlineThickness))
	}
	if w.Options.Label {
		overlays = append(overlays, filters.NewText(fmt.Sprintf("%s (%s)", variant, convexity),
			image.Point{X: labelMargin, Y: labelMargin}, color.White, labelBackground, labelSize))
	}
	if len(overlays) == 0 {
		return remapped, nil
	}
	return filters.ApplyAll(remapped, overlays...), nil
}

var (
	outlineColor    = color.RGBA{R: 255, G: 255, A: 255}
	labelBackground = color.RGBA{A: 160}
)

const (
	outlineThickness = 2.0
	labelMargin      = 8
	labelSize        = 12.0
)
