// Package imageio loads and saves the images warped by curvewarp, and provides
// the alternative sources: a screenshot of a display or a synthetic checkerboard.
package imageio

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/golang/glog"
	"github.com/kbinani/screenshot"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	// Decoders registered with image.Decode.
	_ "golang.org/x/image/webp"
)

// ErrUnsupportedFormat is returned when saving to a file extension with no encoder.
var ErrUnsupportedFormat = errors.New("unsupported image format")

// JPEGQuality used when saving JPEG files.
const JPEGQuality = 92

// Load decodes the image file at path. PNG, JPEG, GIF, BMP, TIFF and WebP are supported.
func Load(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	img, format, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %q: %w", path, err)
	}
	glog.V(2).Infof("Loaded %q: format=%s, bounds=%s", path, format, img.Bounds())
	return img, nil
}

// Save encodes img to path, choosing the format from the file extension.
func Save(path string, img image.Image) (err error) {
	encode, err := encoderFor(path)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := f.Close(); err == nil {
			err = closeErr
		}
	}()
	if err = encode(f, img); err != nil {
		return fmt.Errorf("failed to encode %q: %w", path, err)
	}
	glog.V(2).Infof("Saved %q: bounds=%s", path, img.Bounds())
	return nil
}

// Encode writes img to w in the format given by its name: "png", "jpeg", "gif",
// "bmp" or "tiff".
func Encode(w io.Writer, format string, img image.Image) error {
	encode, err := encoderFor("." + format)
	if err != nil {
		return err
	}
	return encode(w, img)
}

type encoderFn func(w io.Writer, img image.Image) error

func encoderFor(path string) (encoderFn, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return png.Encode, nil
	case ".jpg", ".jpeg":
		return func(w io.Writer, img image.Image) error {
			return jpeg.Encode(w, img, &jpeg.Options{Quality: JPEGQuality})
		}, nil
	case ".gif":
		return func(w io.Writer, img image.Image) error {
			return gif.Encode(w, img, nil)
		}, nil
	case ".bmp":
		return bmp.Encode, nil
	case ".tif", ".tiff":
		return func(w io.Writer, img image.Image) error {
			return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
		}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, path)
}

// Capture takes a screenshot of the given display.
func Capture(display int) (*image.RGBA, error) {
	n := screenshot.NumActiveDisplays()
	if display < 0 || display >= n {
		return nil, fmt.Errorf("display %d not available, %d active displays", display, n)
	}
	bounds := screenshot.GetDisplayBounds(display)
	img, err := screenshot.CaptureRect(bounds)
	if err != nil {
		return nil, fmt.Errorf("failed to capture display %d: %w", display, err)
	}
	glog.V(2).Infof("Screenshot captured bounds: %+v", bounds)
	return img, nil
}

var (
	checkerDark, checkerLight = color.RGBA{R: 58, G: 58, B: 58, A: 0xFF}, color.RGBA{R: 200, G: 200, B: 200, A: 0xFF}
)

// Checkerboard returns a width x height checkerboard with squares of boxSize
// pixels: a pattern that makes the curvature easy to see.
func Checkerboard(width, height, boxSize int) *image.RGBA {
	if boxSize <= 0 {
		boxSize = 1
	}
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if (x/boxSize)%2 == (y/boxSize)%2 {
				img.SetRGBA(x, y, checkerDark)
			} else {
				img.SetRGBA(x, y, checkerLight)
			}
		}
	}
	return img
}
