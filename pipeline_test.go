package main

import (
	"context"
	"image"
	"image/color"
	"path/filepath"
	"testing"

	"github.com/janpfeifer/curvewarp/imageio"
	"github.com/janpfeifer/curvewarp/projection"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSize(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		in   string
		want image.Point
	}{
		{"", image.Point{}},
		{"640x480", image.Point{X: 640, Y: 480}},
		{" 20X10 ", image.Point{X: 20, Y: 10}},
		{"0x5", image.Point{Y: 5}},
	} {
		got, err := ParseSize(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}

	for _, in := range []string{"640", "axb", "1x2x3", "10x", "x10"} {
		_, err := ParseSize(in)
		assert.Error(t, err, in)
	}
}

func TestOptionsValidate(t *testing.T) {
	t.Parallel()

	valid := Options{Input: "a.png", Output: "b.png", Variant: projection.Hemisphere, Convexity: projection.Convex}
	require.NoError(t, valid.Validate())

	for name, mutate := range map[string]func(o *Options){
		"no source":        func(o *Options) { o.Input = "" },
		"two sources":      func(o *Options) { o.Screenshot = true },
		"bad checkerboard": func(o *Options) { o.Input, o.Checkerboard = "", image.Point{X: -1, Y: 5} },
		"negative border":  func(o *Options) { o.Border = image.Point{X: -2} },
		"unknown variant":  func(o *Options) { o.Variant = projection.Variant(9) },
		"no output":        func(o *Options) { o.Output = "" },
	} {
		o := valid
		mutate(&o)
		assert.Error(t, o.Validate(), name)
	}

	previewOnly := valid
	previewOnly.Output, previewOnly.Preview = "", true
	assert.NoError(t, previewOnly.Validate())
}

func TestLoadSourceWithBorder(t *testing.T) {
	t.Parallel()

	opts := &Options{Checkerboard: image.Point{X: 64, Y: 32}, Border: image.Point{X: 4, Y: 2}}
	source, name, err := LoadSource(opts)
	require.NoError(t, err)
	assert.Equal(t, "checkerboard-64x32", name)
	assert.Equal(t, image.Rect(0, 0, 72, 36), source.Rect)
	assert.Equal(t, color.RGBA{A: 255}, source.RGBAAt(0, 0))
	assert.Equal(t, color.RGBA{A: 255}, source.RGBAAt(71, 35))
	assert.NotEqual(t, color.RGBA{A: 255}, source.RGBAAt(4, 2))

	path := filepath.Join(t.TempDir(), "in.png")
	require.NoError(t, imageio.Save(path, imageio.Checkerboard(10, 6, 2)))
	source, name, err = LoadSource(&Options{Input: path})
	require.NoError(t, err)
	assert.Equal(t, path, name)
	assert.Equal(t, image.Rect(0, 0, 10, 6), source.Rect)

	_, _, err = LoadSource(&Options{Input: filepath.Join(t.TempDir(), "missing.png")})
	assert.Error(t, err)
}

func TestWarperWarp(t *testing.T) {
	t.Parallel()

	source := imageio.Checkerboard(80, 60, 5)
	w := &Warper{Source: source, Options: Options{Workers: 2}}
	for _, variant := range projection.Variants {
		for _, convexity := range []projection.Convexity{projection.Concave, projection.Convex} {
			remapped, err := w.Warp(context.Background(), variant, convexity)
			require.NoError(t, err)
			require.Equal(t, source.Rect, remapped.Rect)
			assert.Equalf(t, source.RGBAAt(40, 30), remapped.RGBAAt(40, 30), "%s %s: center", variant, convexity)
		}
	}
}

func TestWarperOverlays(t *testing.T) {
	t.Parallel()

	source := imageio.Checkerboard(120, 80, 10)
	plain := &Warper{Source: source}
	remapped, err := plain.Warp(context.Background(), projection.Hemisphere, projection.Concave)
	require.NoError(t, err)

	decorated := &Warper{Source: source, Options: Options{Label: true, Outline: true,
		IndependentHemisphereAxes: true}}
	overlaid, err := decorated.Warp(context.Background(), projection.Hemisphere, projection.Concave)
	require.NoError(t, err)
	assert.Equal(t, outlineColor, overlaid.RGBAAt(0, 40), "outline on the left rim")
	assert.NotEqual(t, remapped.Pix, overlaid.Pix)
}

func TestRunSavesOutput(t *testing.T) {
	t.Parallel()

	output := filepath.Join(t.TempDir(), "out.png")
	opts := &Options{
		Checkerboard: image.Point{X: 50, Y: 40},
		Border:       image.Point{X: 5, Y: 5},
		Variant:      projection.CylinderAlongX,
		Convexity:    projection.Convex,
		Output:       output,
	}
	require.NoError(t, opts.Validate())
	require.NoError(t, run(context.Background(), opts))
	img, err := imageio.Load(output)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 60, 50), img.Bounds())
}
