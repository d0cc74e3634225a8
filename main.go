// curvewarp projects an image onto a virtual cylinder or hemisphere, producing a
// fisheye-like preview of it.
//
// Usage:
//
//	curvewarp -input photo.jpg -variant hemisphere -convex -output out.png
//	curvewarp -checkerboard 640x480 -variant x -preview
package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/golang/glog"
	"github.com/janpfeifer/curvewarp/imageio"
	"github.com/janpfeifer/curvewarp/preview"
	"github.com/janpfeifer/curvewarp/projection"
)

var (
	flagInput        = flag.String("input", "", "Image file to warp: PNG, JPEG, GIF, BMP, TIFF or WebP.")
	flagScreenshot   = flag.Bool("screenshot", false, "Warp a screenshot of -display instead of an image file.")
	flagDisplay      = flag.Int("display", 0, "Display to capture with -screenshot.")
	flagCheckerboard = flag.String("checkerboard", "", "Warp a WxH checkerboard pattern, e.g. 640x480, instead of an image file.")
	flagBorder       = flag.String("border", "", "Border WxH added on each side of the source before warping, e.g. 20x10.")
	flagVariant      = flag.String("variant", "y",
		"Surface to project onto: \"x\" (cylinder along X), \"y\" (cylinder along Y) or \"hemisphere\".")
	flagConvex          = flag.Bool("convex", false, "Surface bulges toward the viewer. By default it curves away (concave).")
	flagIndependentAxes = flag.Bool("hemisphere_independent_axes", false,
		"Derive the vertical curvature of the hemisphere from the height, instead of the width.")
	flagWorkers = flag.Int("workers", 0, "Number of parallel workers. Defaults to GOMAXPROCS.")
	flagOutput  = flag.String("output", "", "File to save the remapped image to. Format given by the extension.")
	flagLabel   = flag.Bool("label", false, "Draw the projection name on the remapped image.")
	flagOutline = flag.Bool("outline", false, "Draw the rim of the projection surface on the remapped image.")
	flagPreview = flag.Bool("preview", false, "Open a window with the original and the remapped images.")
)

func main() {
	flag.Parse()
	defer glog.Flush()

	opts, err := optionsFromFlags()
	if err != nil {
		glog.Exitf("Invalid flags: %s", err)
	}
	if err := run(context.Background(), opts); err != nil {
		glog.Exitf("curvewarp failed: %s", err)
	}
}

func optionsFromFlags() (*Options, error) {
	opts := &Options{
		Input:                     *flagInput,
		Screenshot:                *flagScreenshot,
		Display:                   *flagDisplay,
		Convexity:                 projection.ConvexityFor(*flagConvex),
		IndependentHemisphereAxes: *flagIndependentAxes,
		Workers:                   *flagWorkers,
		Label:                     *flagLabel,
		Outline:                   *flagOutline,
		Output:                    *flagOutput,
		Preview:                   *flagPreview,
	}
	var err error
	if opts.Checkerboard, err = ParseSize(*flagCheckerboard); err != nil {
		return nil, fmt.Errorf("-checkerboard: %w", err)
	}
	if opts.Border, err = ParseSize(*flagBorder); err != nil {
		return nil, fmt.Errorf("-border: %w", err)
	}
	if opts.Variant, err = projection.ParseVariant(*flagVariant); err != nil {
		return nil, fmt.Errorf("-variant: %w", err)
	}
	if err = opts.Validate(); err != nil {
		return nil, err
	}
	return opts, nil
}

func run(ctx context.Context, opts *Options) error {
	source, name, err := LoadSource(opts)
	if err != nil {
		return err
	}
	glog.V(1).Infof("Source %q: %s", name, source.Rect)

	w := &Warper{Source: source, Options: *opts}
	remapped, err := w.Warp(ctx, opts.Variant, opts.Convexity)
	if err != nil {
		return err
	}
	if opts.Output != "" {
		if err := imageio.Save(opts.Output, remapped); err != nil {
			return err
		}
		glog.Infof("Saved remapped image to %q", opts.Output)
	}
	if opts.Preview {
		preview.New(name, source, remapped, opts.Variant, opts.Convexity, w.Warp).Run()
	}
	return nil
}
